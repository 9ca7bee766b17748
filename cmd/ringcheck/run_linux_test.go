//go:build linux

package main

import (
	"bytes"
	"errors"
	"syscall"
	"testing"

	"github.com/brickingsoft/uring"
	"github.com/brickingsoft/uring/pkg/sys"
	"github.com/stretchr/testify/require"
)

func newRoundCheck(t *testing.T) *roundCheck {
	t.Helper()
	ring, err := uring.New(4)
	if err != nil {
		if uring.IsUnsupported(err) || errors.Is(err, syscall.EPERM) || errors.Is(err, syscall.ENOSYS) {
			t.Skip("io_uring unavailable:", err)
		}
		require.NoError(t, err)
	}
	t.Cleanup(func() {
		_ = ring.Close()
	})
	lnFd, lnAddr, err := sys.ListenTCP("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = syscall.Close(lnFd)
	})
	target, err := uring.SockAddrFromAddr(lnAddr)
	require.NoError(t, err)
	return &roundCheck{
		ring:    ring,
		lnFd:    lnFd,
		target:  target,
		pending: make(map[uint64]struct{}),
		payload: bytes.Repeat([]byte{'x'}, 32),
		buf:     make([]byte, 32),
		stats:   &Stats{},
	}
}

func TestRound(t *testing.T) {
	rc := newRoundCheck(t)
	for i := uint64(0); i < 3; i++ {
		require.NoError(t, rc.round(i))
	}
	require.Empty(t, rc.pending)
	require.Equal(t, 0, rc.ring.Inflight())
	require.Equal(t, uint64(3*32), rc.stats.Bytes)
	require.Equal(t, uint64(3*6), rc.stats.Completions)
}

func TestAbandonLeftoverAccept(t *testing.T) {
	rc := newRoundCheck(t)

	// 一个失败的轮次遗留了尚未完成的 accept
	addr := uring.NewAcceptAddr()
	require.NoError(t, rc.prepare(rc.tag(0, tagAccept), func(slot *uring.Slot) error {
		return slot.PrepareAcceptAddr(rc.lnFd, addr, syscall.SOCK_CLOEXEC)
	}))
	require.NoError(t, rc.submit())
	require.True(t, addr.Pending())
	require.Len(t, rc.pending, 1)

	require.NoError(t, rc.abandon(0))
	require.Empty(t, rc.pending)
	require.True(t, addr.Failed())
	require.Equal(t, 0, rc.ring.Inflight())

	// 后续轮次不会被遗留的 accept 抢走连接
	require.NoError(t, rc.round(1))
	require.NoError(t, rc.abandon(1))
}
