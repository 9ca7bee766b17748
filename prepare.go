//go:build linux

package uring

import (
	"math"
	"syscall"
	"time"
	"unsafe"

	"github.com/brickingsoft/uring/pkg/liburing"
)

// 以下方法只写入 slot，不会访问 fd 或缓冲区。调用方必须保证 fd 与未被登记的内存在完成前有效。

// PrepareNop
// 空操作，结果为 0。
func (slot *Slot) PrepareNop() error {
	return slot.stamp(func(entry *liburing.SubmissionQueueEntry) {
		entry.PrepareNop()
	}, auxiliary{})
}

// PrepareAccept
// 接受一个连接，成功时结果为新连接的 fd。flags 例如 syscall.SOCK_NONBLOCK|syscall.SOCK_CLOEXEC。
func (slot *Slot) PrepareAccept(fd int, flags int) error {
	if fd < 0 || flags&^(syscall.SOCK_NONBLOCK|syscall.SOCK_CLOEXEC) != 0 {
		return newError(ErrInvalidParam, errMetaOpPrepare, nil)
	}
	return slot.stamp(func(entry *liburing.SubmissionQueueEntry) {
		entry.PrepareAccept(fd, nil, nil, flags)
	}, auxiliary{})
}

// PrepareAcceptMultishot
// 一次提交持续接受连接，每个连接产生一个完成事件，Completion.More 为 false 时表示已终止。
func (slot *Slot) PrepareAcceptMultishot(fd int, flags int) error {
	if fd < 0 || flags&^(syscall.SOCK_NONBLOCK|syscall.SOCK_CLOEXEC) != 0 {
		return newError(ErrInvalidParam, errMetaOpPrepare, nil)
	}
	return slot.stamp(func(entry *liburing.SubmissionQueueEntry) {
		entry.PrepareAcceptMultishot(fd, nil, nil, flags)
	}, auxiliary{})
}

// PrepareAcceptAddr
// 与 PrepareAccept 相同，内核同时将对端地址写入 addr。
//
// addr 在完成事件被取出前处于 pending 状态，之后才能通过 addr.SockAddr 读取。
func (slot *Slot) PrepareAcceptAddr(fd int, addr *AcceptAddr, flags int) error {
	if fd < 0 || addr == nil || flags&^(syscall.SOCK_NONBLOCK|syscall.SOCK_CLOEXEC) != 0 {
		return newError(ErrInvalidParam, errMetaOpPrepare, nil)
	}
	if err := slot.check(); err != nil {
		return err
	}
	if slot.sq.aux[slot.index].addr != addr && !addr.arm() {
		return newError(ErrInvalidParam, errMetaOpPrepare, nil)
	}
	return slot.stamp(func(entry *liburing.SubmissionQueueEntry) {
		entry.PrepareAccept(fd, &addr.raw, &addr.len, flags)
	}, auxiliary{addr: addr})
}

// PrepareConnect
// 使用 fd 连接 addr，成功时结果为 0。addr 会被登记直到完成。
func (slot *Slot) PrepareConnect(fd int, addr *SockAddr) error {
	if fd < 0 || !addr.valid() {
		return newError(ErrInvalidParam, errMetaOpPrepare, nil)
	}
	return slot.stamp(func(entry *liburing.SubmissionQueueEntry) {
		entry.PrepareConnect(fd, addr.pointer(), addr.len)
	}, auxiliary{pins: []unsafe.Pointer{unsafe.Pointer(addr)}, keep: addr})
}

func bufferAux(b []byte) (uintptr, uint32, auxiliary, bool) {
	if uint64(len(b)) > math.MaxUint32 {
		return 0, 0, auxiliary{}, false
	}
	if len(b) == 0 {
		return 0, 0, auxiliary{}, true
	}
	p := unsafe.Pointer(unsafe.SliceData(b))
	return uintptr(p), uint32(len(b)), auxiliary{pins: []unsafe.Pointer{p}, keep: b}, true
}

// PrepareShutdown
// how 为 syscall.SHUT_RD、SHUT_WR 或 SHUT_RDWR。
func (slot *Slot) PrepareShutdown(fd int, how int) error {
	if fd < 0 || how < syscall.SHUT_RD || how > syscall.SHUT_RDWR {
		return newError(ErrInvalidParam, errMetaOpPrepare, nil)
	}
	return slot.stamp(func(entry *liburing.SubmissionQueueEntry) {
		entry.PrepareShutdown(fd, how)
	}, auxiliary{})
}

// PrepareRead
// 从 fd 的 offset 处读取到 b，offset 为 ^uint64(0) 时使用当前文件位置。
func (slot *Slot) PrepareRead(fd int, b []byte, offset uint64) error {
	addr, n, aux, ok := bufferAux(b)
	if fd < 0 || !ok {
		return newError(ErrInvalidParam, errMetaOpPrepare, nil)
	}
	return slot.stamp(func(entry *liburing.SubmissionQueueEntry) {
		entry.PrepareRead(fd, addr, n, offset)
	}, aux)
}

func (slot *Slot) PrepareWrite(fd int, b []byte, offset uint64) error {
	addr, n, aux, ok := bufferAux(b)
	if fd < 0 || !ok {
		return newError(ErrInvalidParam, errMetaOpPrepare, nil)
	}
	return slot.stamp(func(entry *liburing.SubmissionQueueEntry) {
		entry.PrepareWrite(fd, addr, n, offset)
	}, aux)
}

func (slot *Slot) PrepareRecv(fd int, b []byte, flags int) error {
	addr, n, aux, ok := bufferAux(b)
	if fd < 0 || !ok {
		return newError(ErrInvalidParam, errMetaOpPrepare, nil)
	}
	return slot.stamp(func(entry *liburing.SubmissionQueueEntry) {
		entry.PrepareRecv(fd, addr, n, flags)
	}, aux)
}

func (slot *Slot) PrepareSend(fd int, b []byte, flags int) error {
	addr, n, aux, ok := bufferAux(b)
	if fd < 0 || !ok {
		return newError(ErrInvalidParam, errMetaOpPrepare, nil)
	}
	return slot.stamp(func(entry *liburing.SubmissionQueueEntry) {
		entry.PrepareSend(fd, addr, n, flags)
	}, aux)
}

func (slot *Slot) PrepareClose(fd int) error {
	if fd < 0 {
		return newError(ErrInvalidParam, errMetaOpPrepare, nil)
	}
	return slot.stamp(func(entry *liburing.SubmissionQueueEntry) {
		entry.PrepareClose(fd)
	}, auxiliary{})
}

// PrepareCancel
// 取消标签为 tag 的操作。取消本身产生一个独立的完成事件，被取消的操作以 -ECANCELED 完成。
func (slot *Slot) PrepareCancel(tag uint64) error {
	return slot.stamp(func(entry *liburing.SubmissionQueueEntry) {
		entry.PrepareCancel64(tag, 0)
	}, auxiliary{})
}

// PrepareTimeout
// 经过 d 后以 -ETIME 完成。
func (slot *Slot) PrepareTimeout(d time.Duration) error {
	if d < 0 {
		return newError(ErrInvalidParam, errMetaOpPrepare, nil)
	}
	ts := new(syscall.Timespec)
	*ts = syscall.NsecToTimespec(d.Nanoseconds())
	return slot.stamp(func(entry *liburing.SubmissionQueueEntry) {
		entry.PrepareTimeout(ts, 0, 0)
	}, auxiliary{pins: []unsafe.Pointer{unsafe.Pointer(ts)}, keep: ts})
}
