//go:build linux

package liburing_test

import (
	"errors"
	"syscall"
	"testing"
	"time"

	"github.com/brickingsoft/uring/pkg/liburing"
)

func newRing(t *testing.T, entries uint32) *liburing.Ring {
	t.Helper()
	ring, ringErr := liburing.New(entries)
	if ringErr != nil {
		if errors.Is(ringErr, syscall.ENOSYS) || errors.Is(ringErr, syscall.EPERM) {
			t.Skip("io_uring unavailable:", ringErr)
		}
		t.Fatal(ringErr)
	}
	t.Cleanup(func() {
		_ = ring.Close()
	})
	return ring
}

func TestNew(t *testing.T) {
	ring := newRing(t, 4)

	t.Log("sq:", ring.SQEntries())
	t.Log("cq:", ring.CQEntries())
	if ring.SQEntries() != 4 || ring.CQEntries() != 8 {
		t.Fatal("unexpected ring sizes")
	}
	probe, probeErr := ring.Probe()
	if probeErr != nil {
		t.Log("probe:", probeErr)
	} else {
		t.Log("accept:", probe.IsSupported(liburing.IORING_OP_ACCEPT))
		t.Log("connect:", probe.IsSupported(liburing.IORING_OP_CONNECT))
	}

	sq := ring.GetSQE()
	if sq == nil {
		t.Fatal("SQE is nil")
	}
	sq.PrepareNop()
	sq.SetData64(1)

	n, subErr := ring.Submit()
	if subErr != nil {
		t.Fatal(subErr)
	}
	t.Log("sub:", n)

	cqe, waitErr := ring.WaitCQE()
	if waitErr != nil {
		t.Fatal(waitErr)
	}
	if cqe.UserData != 1 || cqe.Res != 0 {
		t.Fatal("unexpected completion", cqe.UserData, cqe.Res)
	}
	ring.CQAdvance(1)
	if ring.PeekCQE() != nil {
		t.Fatal("cq must be empty")
	}
}

func TestNewInvalidEntries(t *testing.T) {
	if _, err := liburing.New(0); !errors.Is(err, syscall.EINVAL) {
		t.Fatal("expected EINVAL, got", err)
	}
	if _, err := liburing.New(liburing.MaxEntries + 1); !errors.Is(err, syscall.EINVAL) {
		t.Fatal("expected EINVAL, got", err)
	}
}

func TestGetSQEFull(t *testing.T) {
	ring := newRing(t, 2)
	for i := 0; i < 2; i++ {
		if ring.GetSQE() == nil {
			t.Fatal("SQE is nil")
		}
	}
	if ring.GetSQE() != nil {
		t.Fatal("sq must be full")
	}
	if ring.SQSpaceLeft() != 0 || ring.SQPending() != 2 {
		t.Fatal("bad accounting", ring.SQSpaceLeft(), ring.SQPending())
	}
}

func TestTimeout(t *testing.T) {
	ring := newRing(t, 2)
	ts := syscall.NsecToTimespec(int64(10 * time.Millisecond))
	sqe := ring.GetSQE()
	sqe.PrepareTimeout(&ts, 0, 0)
	sqe.SetData64(7)
	if _, err := ring.SubmitAndWait(1); err != nil {
		t.Fatal(err)
	}
	cqe, err := ring.WaitCQE()
	if err != nil {
		t.Fatal(err)
	}
	if cqe.UserData != 7 || syscall.Errno(-cqe.Res) != syscall.ETIME {
		t.Fatal("unexpected completion", cqe.UserData, cqe.Res)
	}
	ring.CQAdvance(1)
}

func TestCloseTwice(t *testing.T) {
	ring, err := liburing.New(2)
	if err != nil {
		t.Skip(err)
	}
	if err = ring.Close(); err != nil {
		t.Fatal(err)
	}
	if err = ring.Close(); !errors.Is(err, syscall.EBADF) {
		t.Fatal("expected EBADF, got", err)
	}
}

func TestGetProbe(t *testing.T) {
	probe, probeErr := liburing.GetProbe()
	if probeErr != nil {
		if errors.Is(probeErr, syscall.ENOSYS) || errors.Is(probeErr, syscall.EPERM) || errors.Is(probeErr, syscall.EINVAL) {
			t.Skip("probe unavailable:", probeErr)
		}
		t.Fatal(probeErr)
	}
	t.Log("last op:", probe.LastOp)
	if !probe.IsSupported(liburing.IORING_OP_NOP) {
		t.Error("nop must be supported")
	}
	if probe.IsSupported(probe.LastOp + 1) {
		t.Error("op beyond last op reported as supported")
	}
}
