//go:build linux

package sys

import (
	"net"
	"os"
	"syscall"

	"github.com/brickingsoft/errors"
)

const (
	errMetaOpKey     = "op"
	errMetaOpListen  = "listen"
	errMetaOpSocket  = "socket"
	errMetaOpAddress = "address"
)

// NewSocket
// 创建阻塞的 close-on-exec socket，异步语义由 io_uring 提供。
func NewSocket(family int, sotype int, protocol int) (sock int, err error) {
	sock, err = syscall.Socket(family, sotype|syscall.SOCK_CLOEXEC, protocol)
	if err != nil {
		err = errors.New(
			"create socket failed",
			errors.WithMeta(errMetaOpKey, errMetaOpSocket),
			errors.WithWrap(os.NewSyscallError("socket", err)),
		)
	}
	return
}

// ListenTCP
// 创建、绑定并监听一个 tcp socket，返回 fd 与实际的本地地址。
func ListenTCP(network string, address string) (sock int, addr net.Addr, err error) {
	resolved, family, ipv6only, resolveErr := ResolveAddr(network, address)
	if resolveErr != nil {
		err = resolveErr
		return
	}
	if _, ok := resolved.(*net.TCPAddr); !ok {
		err = ErrInvalidNetwork
		return
	}
	if sock, err = NewSocket(family, syscall.SOCK_STREAM, syscall.IPPROTO_TCP); err != nil {
		return
	}
	fail := func(op string, cause error) {
		_ = syscall.Close(sock)
		sock = -1
		err = errors.New(
			"listen tcp failed",
			errors.WithMeta(errMetaOpKey, errMetaOpListen),
			errors.WithWrap(os.NewSyscallError(op, cause)),
		)
	}
	if family == syscall.AF_INET6 {
		if setErr := syscall.SetsockoptInt(sock, syscall.IPPROTO_IPV6, syscall.IPV6_V6ONLY, boolint(ipv6only)); setErr != nil {
			fail("setsockopt", setErr)
			return
		}
	}
	if setErr := syscall.SetsockoptInt(sock, syscall.SOL_SOCKET, syscall.SO_REUSEADDR, 1); setErr != nil {
		fail("setsockopt", setErr)
		return
	}
	sa, saErr := AddrToSockaddr(resolved)
	if saErr != nil {
		fail("bind", saErr)
		return
	}
	if bindErr := syscall.Bind(sock, sa); bindErr != nil {
		fail("bind", bindErr)
		return
	}
	if listenErr := syscall.Listen(sock, MaxListenerBacklog()); listenErr != nil {
		fail("listen", listenErr)
		return
	}
	addr, err = LocalAddr(network, sock)
	if err != nil {
		_ = syscall.Close(sock)
		sock = -1
	}
	return
}

func LocalAddr(network string, sock int) (net.Addr, error) {
	sn, err := syscall.Getsockname(sock)
	if err != nil {
		return nil, errors.New(
			"get local address failed",
			errors.WithMeta(errMetaOpKey, errMetaOpAddress),
			errors.WithWrap(os.NewSyscallError("getsockname", err)),
		)
	}
	return SockaddrToAddr(network, sn), nil
}

func RemoteAddr(network string, sock int) (net.Addr, error) {
	sn, err := syscall.Getpeername(sock)
	if err != nil {
		return nil, errors.New(
			"get remote address failed",
			errors.WithMeta(errMetaOpKey, errMetaOpAddress),
			errors.WithWrap(os.NewSyscallError("getpeername", err)),
		)
	}
	return SockaddrToAddr(network, sn), nil
}

func boolint(b bool) int {
	if b {
		return 1
	}
	return 0
}
