//go:build linux

package liburing

import (
	"syscall"
	"unsafe"
)

const (
	IORING_OP_NOP uint8 = iota
	IORING_OP_READV
	IORING_OP_WRITEV
	IORING_OP_FSYNC
	IORING_OP_READ_FIXED
	IORING_OP_WRITE_FIXED
	IORING_OP_POLL_ADD
	IORING_OP_POLL_REMOVE
	IORING_OP_SYNC_FILE_RANGE
	IORING_OP_SENDMSG
	IORING_OP_RECVMSG
	IORING_OP_TIMEOUT
	IORING_OP_TIMEOUT_REMOVE
	IORING_OP_ACCEPT
	IORING_OP_ASYNC_CANCEL
	IORING_OP_LINK_TIMEOUT
	IORING_OP_CONNECT
	IORING_OP_FALLOCATE
	IORING_OP_OPENAT
	IORING_OP_CLOSE
	IORING_OP_FILES_UPDATE
	IORING_OP_STATX
	IORING_OP_READ
	IORING_OP_WRITE
	IORING_OP_FADVISE
	IORING_OP_MADVISE
	IORING_OP_SEND
	IORING_OP_RECV
	IORING_OP_OPENAT2
	IORING_OP_EPOLL_CTL
	IORING_OP_SPLICE
	IORING_OP_PROVIDE_BUFFERS
	IORING_OP_REMOVE_BUFFERS
	IORING_OP_TEE
	IORING_OP_SHUTDOWN

	IORING_OP_LAST
)

// SubmissionQueueEntry
// 64 字节的 io_uring_sqe。
type SubmissionQueueEntry struct {
	OpCode      uint8
	Flags       uint8
	IoPrio      uint16
	Fd          int32
	Off         uint64
	Addr        uint64
	Len         uint32
	OpcodeFlags uint32
	UserData    uint64
	BufIG       uint16
	Personality uint16
	SpliceFdIn  int32
	Addr3       uint64
	_pad2       [1]uint64
}

func (entry *SubmissionQueueEntry) SetData64(data uint64) {
	entry.UserData = data
}

func (entry *SubmissionQueueEntry) SetFlags(flags uint8) {
	entry.Flags |= flags
}

func (entry *SubmissionQueueEntry) SetIoPrio(flags uint16) {
	entry.IoPrio |= flags
}

// [Nop] ***************************************************************************************************************

func (entry *SubmissionQueueEntry) PrepareNop() {
	entry.prepareRW(IORING_OP_NOP, -1, 0, 0, 0)
}

// [Net] ***************************************************************************************************************

// PrepareAccept
// addr 与 addrLen 在完成前必须保持有效，内核会写回 addrLen。
func (entry *SubmissionQueueEntry) PrepareAccept(fd int, addr *syscall.RawSockaddrAny, addrLen *uint32, flags int) {
	entry.prepareRW(IORING_OP_ACCEPT, fd, uintptr(unsafe.Pointer(addr)), 0, uint64(uintptr(unsafe.Pointer(addrLen))))
	entry.OpcodeFlags = uint32(flags)
}

func (entry *SubmissionQueueEntry) PrepareAcceptMultishot(fd int, addr *syscall.RawSockaddrAny, addrLen *uint32, flags int) {
	entry.PrepareAccept(fd, addr, addrLen, flags)
	entry.SetIoPrio(IORING_ACCEPT_MULTISHOT)
}

// PrepareConnect
// 与 accept 不同，addrLen 以值的方式放在 off 中。
func (entry *SubmissionQueueEntry) PrepareConnect(fd int, addr *syscall.RawSockaddrAny, addrLen uint32) {
	entry.prepareRW(IORING_OP_CONNECT, fd, uintptr(unsafe.Pointer(addr)), 0, uint64(addrLen))
}

func (entry *SubmissionQueueEntry) PrepareRecv(fd int, buf uintptr, length uint32, flags int) {
	entry.prepareRW(IORING_OP_RECV, fd, buf, length, 0)
	entry.OpcodeFlags = uint32(flags)
}

func (entry *SubmissionQueueEntry) PrepareSend(fd int, buf uintptr, length uint32, flags int) {
	entry.prepareRW(IORING_OP_SEND, fd, buf, length, 0)
	entry.OpcodeFlags = uint32(flags)
}

func (entry *SubmissionQueueEntry) PrepareShutdown(fd int, how int) {
	entry.prepareRW(IORING_OP_SHUTDOWN, fd, 0, uint32(how), 0)
}

// [File] **************************************************************************************************************

func (entry *SubmissionQueueEntry) PrepareRead(fd int, buf uintptr, nbytes uint32, offset uint64) {
	entry.prepareRW(IORING_OP_READ, fd, buf, nbytes, offset)
}

func (entry *SubmissionQueueEntry) PrepareWrite(fd int, buf uintptr, nbytes uint32, offset uint64) {
	entry.prepareRW(IORING_OP_WRITE, fd, buf, nbytes, offset)
}

func (entry *SubmissionQueueEntry) PrepareClose(fd int) {
	entry.prepareRW(IORING_OP_CLOSE, fd, 0, 0, 0)
}

// [Cancel] ************************************************************************************************************

func (entry *SubmissionQueueEntry) PrepareCancel64(userdata uint64, flags uint32) {
	entry.prepareRW(IORING_OP_ASYNC_CANCEL, -1, 0, 0, 0)
	entry.Addr = userdata
	entry.OpcodeFlags = flags
}

// [Timeout] ***********************************************************************************************************

// PrepareTimeout
// count 为 0 时仅在超时后完成，res 为 -ETIME。
func (entry *SubmissionQueueEntry) PrepareTimeout(spec *syscall.Timespec, count, flags uint32) {
	entry.prepareRW(IORING_OP_TIMEOUT, -1, uintptr(unsafe.Pointer(spec)), 1, uint64(count))
	entry.OpcodeFlags = flags
}

func (entry *SubmissionQueueEntry) prepareRW(opcode uint8, fd int, addr uintptr, length uint32, offset uint64) {
	*entry = SubmissionQueueEntry{}
	entry.OpCode = opcode
	entry.Fd = int32(fd)
	entry.Off = offset
	entry.Addr = uint64(addr)
	entry.Len = length
}
