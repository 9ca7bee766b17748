package uring_test

import (
	"net"
	"net/netip"
	"syscall"
	"testing"

	"github.com/brickingsoft/uring"
	"github.com/stretchr/testify/require"
)

func TestSockAddrFromAddrPort(t *testing.T) {
	for _, s := range []string{"127.0.0.1:80", "192.168.10.20:65535", "[::1]:8080", "[2001:db8::5]:1"} {
		ap := netip.MustParseAddrPort(s)
		sa, err := uring.SockAddrFromAddrPort(ap)
		require.NoError(t, err)
		got, err := sa.AddrPort()
		require.NoError(t, err)
		require.Equal(t, ap, got)
		require.Equal(t, ap.String(), sa.String())
		if ap.Addr().Is4() {
			require.Equal(t, syscall.AF_INET, sa.Family())
			require.Equal(t, uint32(syscall.SizeofSockaddrInet4), sa.Len())
		} else {
			require.Equal(t, syscall.AF_INET6, sa.Family())
			require.Equal(t, uint32(syscall.SizeofSockaddrInet6), sa.Len())
		}
	}
	_, err := uring.SockAddrFromAddrPort(netip.AddrPort{})
	require.Error(t, err)
}

func TestSockAddrFromAddr(t *testing.T) {
	sa, err := uring.SockAddrFromAddr(&net.TCPAddr{IP: net.IPv4(10, 0, 0, 1), Port: 9000})
	require.NoError(t, err)
	tcp, err := sa.TCPAddr()
	require.NoError(t, err)
	require.Equal(t, "10.0.0.1:9000", tcp.String())

	addr, err := sa.Addr("udp")
	require.NoError(t, err)
	require.IsType(t, &net.UDPAddr{}, addr)

	unix, err := uring.SockAddrFromAddr(&net.UnixAddr{Name: "/tmp/uring.sock", Net: "unix"})
	require.NoError(t, err)
	require.Equal(t, syscall.AF_UNIX, unix.Family())
	require.Equal(t, "/tmp/uring.sock", unix.String())
	_, err = unix.AddrPort()
	require.Error(t, err)

	_, err = uring.SockAddrFromAddr(&net.IPAddr{IP: net.IPv4(1, 2, 3, 4)})
	require.Error(t, err)
}

func TestResolveSockAddr(t *testing.T) {
	sa, err := uring.ResolveSockAddr("tcp", "127.0.0.1:8080")
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:8080", sa.String())

	sa, err = uring.ResolveSockAddr("tcp6", "[::1]:8080")
	require.NoError(t, err)
	require.Equal(t, syscall.AF_INET6, sa.Family())

	_, err = uring.ResolveSockAddr("tcp", "")
	require.Error(t, err)
	_, err = uring.ResolveSockAddr("bogus", "127.0.0.1:1")
	require.Error(t, err)
}

func TestAcceptAddrNotReady(t *testing.T) {
	addr := uring.NewAcceptAddr()
	require.False(t, addr.Ready())
	require.False(t, addr.Pending())
	require.False(t, addr.Failed())

	_, err := addr.SockAddr()
	require.True(t, uring.IsAddrNotReady(err))
	_, err = addr.AddrPort()
	require.True(t, uring.IsAddrNotReady(err))
	_, err = addr.Addr("tcp")
	require.True(t, uring.IsAddrNotReady(err))
	require.NoError(t, addr.Reset())
}

func TestEmptySockAddr(t *testing.T) {
	var sa uring.SockAddr
	_, err := sa.Sockaddr()
	require.Error(t, err)
	require.Equal(t, "<invalid>", sa.String())
}
