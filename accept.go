package uring

import (
	"net"
	"net/netip"
	"syscall"
	"unsafe"

	"code.hybscloud.com/atomix"
)

const (
	addrUninit uint64 = iota
	addrSubmitted
	addrReady
	addrFailed
)

// AcceptAddr
// accept 时由内核写入对端地址的缓冲区。
//
// 只有在对应的完成事件成功并被取出后，地址才可读取；在此之前或失败后读取都会返回 ErrAddrNotReady。
// 提交后到完成前不得复用或释放。
type AcceptAddr struct {
	raw   syscall.RawSockaddrAny
	len   uint32
	state atomix.Uint64
}

func NewAcceptAddr() *AcceptAddr {
	return &AcceptAddr{}
}

// Ready
// 地址已由成功的完成事件确认。
func (a *AcceptAddr) Ready() bool {
	return a.state.LoadAcquire() == addrReady
}

// Failed
// 对应的操作失败或环已关闭，地址无效。
func (a *AcceptAddr) Failed() bool {
	return a.state.LoadAcquire() == addrFailed
}

// Pending
// 已绑定到 slot，尚未完成。
func (a *AcceptAddr) Pending() bool {
	return a.state.LoadAcquire() == addrSubmitted
}

// Reset
// 完成后复用，in-flight 期间调用返回 ErrInvalidParam。
func (a *AcceptAddr) Reset() error {
	if a.state.LoadAcquire() == addrSubmitted {
		return newError(ErrInvalidParam, errMetaOpPrepare, nil)
	}
	a.raw = syscall.RawSockaddrAny{}
	a.len = 0
	a.state.StoreRelease(addrUninit)
	return nil
}

func (a *AcceptAddr) SockAddr() (*SockAddr, error) {
	if a.state.LoadAcquire() != addrReady {
		return nil, newError(ErrAddrNotReady, errMetaOpPrepare, nil)
	}
	if !a.written() {
		return nil, newError(ErrAddrNotReady, errMetaOpPrepare, nil)
	}
	return &SockAddr{raw: a.raw, len: a.len}, nil
}

func (a *AcceptAddr) AddrPort() (netip.AddrPort, error) {
	sa, err := a.SockAddr()
	if err != nil {
		return netip.AddrPort{}, err
	}
	return sa.AddrPort()
}

// Addr
// 解码为 net.Addr，network 决定返回的具体类型。
func (a *AcceptAddr) Addr(network string) (net.Addr, error) {
	sa, err := a.SockAddr()
	if err != nil {
		return nil, err
	}
	return sa.Addr(network)
}

func (a *AcceptAddr) arm() bool {
	state := a.state.LoadAcquire()
	if state == addrSubmitted {
		return false
	}
	a.raw = syscall.RawSockaddrAny{}
	a.len = uint32(unsafe.Sizeof(a.raw))
	a.state.StoreRelease(addrSubmitted)
	return true
}

// disarm
// 绑定被覆盖、未提交即丢弃时回到初始状态。
func (a *AcceptAddr) disarm() {
	a.len = 0
	a.state.StoreRelease(addrUninit)
}

// written
// 内核写入后 family 不再是 AF_UNSPEC，len 不超过缓冲区大小。
func (a *AcceptAddr) written() bool {
	return a.raw.Addr.Family != syscall.AF_UNSPEC &&
		a.len >= uint32(unsafe.Sizeof(a.raw.Addr.Family)) &&
		uintptr(a.len) <= unsafe.Sizeof(a.raw)
}

func (a *AcceptAddr) settle(res int32) {
	if res >= 0 && a.written() {
		a.state.StoreRelease(addrReady)
		return
	}
	a.state.StoreRelease(addrFailed)
}

func (a *AcceptAddr) fail() {
	a.state.StoreRelease(addrFailed)
}
