//go:build linux

package uring

import (
	"github.com/brickingsoft/uring/pkg/liburing"
)

// SQEFlags
// 附加在 slot 上的 IOSQE_* 标志。
type SQEFlags uint8

const (
	SQEFixedFile  SQEFlags = SQEFlags(liburing.IOSQE_FIXED_FILE)
	SQEIODrain    SQEFlags = SQEFlags(liburing.IOSQE_IO_DRAIN)
	SQEIOLink     SQEFlags = SQEFlags(liburing.IOSQE_IO_LINK)
	SQEIOHardLink SQEFlags = SQEFlags(liburing.IOSQE_IO_HARDLINK)
	SQEAsync      SQEFlags = SQEFlags(liburing.IOSQE_ASYNC)
)

const sqeFlagsMask = SQEFixedFile | SQEIODrain | SQEIOLink | SQEIOHardLink | SQEAsync

// 操作码，与内核编号一致。
const (
	OpNop      = liburing.IORING_OP_NOP
	OpTimeout  = liburing.IORING_OP_TIMEOUT
	OpAccept   = liburing.IORING_OP_ACCEPT
	OpCancel   = liburing.IORING_OP_ASYNC_CANCEL
	OpConnect  = liburing.IORING_OP_CONNECT
	OpClose    = liburing.IORING_OP_CLOSE
	OpRead     = liburing.IORING_OP_READ
	OpWrite    = liburing.IORING_OP_WRITE
	OpSend     = liburing.IORING_OP_SEND
	OpRecv     = liburing.IORING_OP_RECV
	OpShutdown = liburing.IORING_OP_SHUTDOWN
)

// Slot
// 提交队列中一个可写条目的句柄。
//
// Slot 只在获取它的那一批次内有效：Submit 或 Close 之后所有写操作都返回 ErrStaleSlot。
type Slot struct {
	sq         *SubmissionQueue
	generation uint64
	epoch      uint64
	index      uint32
	entry      *liburing.SubmissionQueueEntry
}

// Valid
// slot 仍属于当前环且尚未提交。
func (slot *Slot) Valid() bool {
	if slot == nil || slot.sq == nil {
		return false
	}
	r := slot.sq.ring
	return !r.closed.LoadAcquire() &&
		r.generation.LoadAcquire() == slot.generation &&
		slot.sq.epoch.LoadAcquire() == slot.epoch
}

func (slot *Slot) check() error {
	if slot == nil || slot.sq == nil {
		return newError(ErrInvalidParam, errMetaOpPrepare, nil)
	}
	if slot.sq.ring.closed.LoadAcquire() {
		return newError(ErrRingClosed, errMetaOpPrepare, nil)
	}
	if !slot.Valid() {
		return newError(ErrStaleSlot, errMetaOpPrepare, nil)
	}
	return nil
}

// SetUserData
// 设置关联标签，完成事件会原样带回。带有辅助内存的操作在完成前独占其标签，冲突时 Submit 返回 ErrInvalidParam。
func (slot *Slot) SetUserData(tag uint64) error {
	if err := slot.check(); err != nil {
		return err
	}
	slot.entry.SetData64(tag)
	return nil
}

// UserData
// 提交前返回已设置的标签，失效后返回 0。
func (slot *Slot) UserData() uint64 {
	if !slot.Valid() {
		return 0
	}
	return slot.entry.UserData
}

func (slot *Slot) SetFlags(flags SQEFlags) error {
	if err := slot.check(); err != nil {
		return err
	}
	if flags&^sqeFlagsMask != 0 {
		return newError(ErrInvalidParam, errMetaOpPrepare, nil)
	}
	slot.entry.SetFlags(uint8(flags))
	return nil
}

func (slot *Slot) Opcode() uint8 {
	if !slot.Valid() {
		return 0
	}
	return slot.entry.OpCode
}

// stamp
// 写入操作之前替换该 slot 的辅助内存，并保留已设置的标签与标志。
func (slot *Slot) stamp(fn func(entry *liburing.SubmissionQueueEntry), aux auxiliary) error {
	if err := slot.check(); err != nil {
		if aux.addr != nil {
			aux.addr.disarm()
		}
		return err
	}
	tag, flags := slot.entry.UserData, slot.entry.Flags
	fn(slot.entry)
	slot.entry.UserData = tag
	slot.entry.Flags = flags

	prev := &slot.sq.aux[slot.index]
	if prev.addr != nil && prev.addr != aux.addr {
		prev.release()
	}
	slot.sq.aux[slot.index] = aux
	return nil
}
