package uring

import (
	"net"
	"net/netip"
	"syscall"
	"unsafe"

	"github.com/brickingsoft/uring/pkg/sys"
)

// SockAddr
// 以内核原生格式保存的套接字地址，可直接交给 connect 使用。
type SockAddr struct {
	raw syscall.RawSockaddrAny
	len uint32
}

func newSockAddr(sa syscall.Sockaddr) (*SockAddr, error) {
	addr := &SockAddr{}
	n, err := sys.SockaddrToRawSockaddrAny(sa, &addr.raw)
	if err != nil {
		return nil, newError(ErrInvalidParam, errMetaOpPrepare, err)
	}
	addr.len = n
	return addr, nil
}

// SockAddrFromAddr
// 支持 *net.TCPAddr、*net.UDPAddr 与 *net.UnixAddr。
func SockAddrFromAddr(addr net.Addr) (*SockAddr, error) {
	sa, err := sys.AddrToSockaddr(addr)
	if err != nil {
		return nil, newError(ErrInvalidParam, errMetaOpPrepare, err)
	}
	return newSockAddr(sa)
}

func SockAddrFromAddrPort(ap netip.AddrPort) (*SockAddr, error) {
	sa, err := sys.AddrPortToSockaddr(ap)
	if err != nil {
		return nil, newError(ErrInvalidParam, errMetaOpPrepare, err)
	}
	return newSockAddr(sa)
}

// ResolveSockAddr
// 解析文本地址，例如 ResolveSockAddr("tcp", "127.0.0.1:8080")。
func ResolveSockAddr(network string, address string) (*SockAddr, error) {
	addr, _, _, err := sys.ResolveAddr(network, address)
	if err != nil {
		return nil, newError(ErrInvalidParam, errMetaOpPrepare, err)
	}
	return SockAddrFromAddr(addr)
}

func (addr *SockAddr) Family() int {
	return int(addr.raw.Addr.Family)
}

// Len
// 地址的有效字节数。
func (addr *SockAddr) Len() uint32 {
	return addr.len
}

func (addr *SockAddr) Sockaddr() (syscall.Sockaddr, error) {
	if addr.len == 0 {
		return nil, newError(ErrInvalidParam, errMetaOpPrepare, nil)
	}
	return sys.RawSockaddrAnyToSockaddr(&addr.raw)
}

func (addr *SockAddr) AddrPort() (netip.AddrPort, error) {
	sa, err := addr.Sockaddr()
	if err != nil {
		return netip.AddrPort{}, err
	}
	return sys.SockaddrToAddrPort(sa)
}

func (addr *SockAddr) TCPAddr() (*net.TCPAddr, error) {
	ap, err := addr.AddrPort()
	if err != nil {
		return nil, err
	}
	return net.TCPAddrFromAddrPort(ap), nil
}

// Addr
// 按 network 转为 net.Addr，unix 地址返回 *net.UnixAddr。
func (addr *SockAddr) Addr(network string) (net.Addr, error) {
	sa, err := addr.Sockaddr()
	if err != nil {
		return nil, err
	}
	return sys.SockaddrToAddr(network, sa), nil
}

func (addr *SockAddr) String() string {
	sa, err := addr.Sockaddr()
	if err != nil {
		return "<invalid>"
	}
	if unix, ok := sa.(*syscall.SockaddrUnix); ok {
		return unix.Name
	}
	ap, apErr := sys.SockaddrToAddrPort(sa)
	if apErr != nil {
		return "<invalid>"
	}
	return ap.String()
}

func (addr *SockAddr) pointer() *syscall.RawSockaddrAny {
	return &addr.raw
}

func (addr *SockAddr) valid() bool {
	return addr != nil && addr.len > 0 && uintptr(addr.len) <= unsafe.Sizeof(addr.raw)
}
