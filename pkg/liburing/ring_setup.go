//go:build linux

package liburing

import (
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	offSQRing uint64 = 0
	offCQRing uint64 = 0x8000000
	offSQEs   uint64 = 0x10000000
)

func (ring *Ring) setup(entries uint32, params *Params) error {
	entries = RoundupPow2(entries)

	fdPtr, _, errno := syscall.Syscall(unix.SYS_IO_URING_SETUP, uintptr(entries), uintptr(unsafe.Pointer(params)), 0)
	if errno != 0 {
		return errno
	}
	fd := int(fdPtr)

	if err := mmapRing(fd, params, ring.sqRing, ring.cqRing); err != nil {
		_ = syscall.Close(fd)
		return err
	}

	// sqe 索引与数组下标一一对应，提交时只需推进 tail。
	sqEntries := *ring.sqRing.ringEntries
	for index := uint32(0); index < sqEntries; index++ {
		*(*uint32)(unsafe.Add(unsafe.Pointer(ring.sqRing.array), uintptr(index)*unsafe.Sizeof(uint32(0)))) = index
	}

	ring.features = params.features
	ring.flags = params.flags
	ring.ringFd = fd
	syscall.CloseOnExec(fd)
	return nil
}

func mmapRing(fd int, p *Params, sq *SubmissionQueue, cq *CompletionQueue) (err error) {
	sq.ringSize = uint(uintptr(p.sqOff.array) + uintptr(p.sqEntries)*unsafe.Sizeof(uint32(0)))
	cq.ringSize = uint(uintptr(p.cqOff.cqes) + uintptr(p.cqEntries)*unsafe.Sizeof(CompletionQueueEvent{}))

	if p.features&IORING_FEAT_SINGLE_MMAP != 0 {
		if cq.ringSize > sq.ringSize {
			sq.ringSize = cq.ringSize
		}
		cq.ringSize = sq.ringSize
	}

	const (
		prot  = unix.PROT_READ | unix.PROT_WRITE
		flags = unix.MAP_SHARED | unix.MAP_POPULATE
	)

	if sq.ringPtr, err = unix.Mmap(fd, int64(offSQRing), int(sq.ringSize), prot, flags); err != nil {
		return
	}

	if p.features&IORING_FEAT_SINGLE_MMAP != 0 {
		cq.ringPtr = sq.ringPtr
	} else if cq.ringPtr, err = unix.Mmap(fd, int64(offCQRing), int(cq.ringSize), prot, flags); err != nil {
		unmapRings(sq, cq)
		return
	}

	sqesSize := int(unsafe.Sizeof(SubmissionQueueEntry{})) * int(p.sqEntries)
	if sq.sqesPtr, err = unix.Mmap(fd, int64(offSQEs), sqesSize, prot, flags); err != nil {
		unmapRings(sq, cq)
		return
	}
	sq.sqes = (*SubmissionQueueEntry)(unsafe.Pointer(unsafe.SliceData(sq.sqesPtr)))

	setupRingPointers(p, sq, cq)
	return
}

func setupRingPointers(p *Params, sq *SubmissionQueue, cq *CompletionQueue) {
	sqBase := unsafe.Pointer(unsafe.SliceData(sq.ringPtr))
	sq.head = (*uint32)(unsafe.Add(sqBase, p.sqOff.head))
	sq.tail = (*uint32)(unsafe.Add(sqBase, p.sqOff.tail))
	sq.ringMask = (*uint32)(unsafe.Add(sqBase, p.sqOff.ringMask))
	sq.ringEntries = (*uint32)(unsafe.Add(sqBase, p.sqOff.ringEntries))
	sq.flags = (*uint32)(unsafe.Add(sqBase, p.sqOff.flags))
	sq.dropped = (*uint32)(unsafe.Add(sqBase, p.sqOff.dropped))
	sq.array = (*uint32)(unsafe.Add(sqBase, p.sqOff.array))

	cqBase := unsafe.Pointer(unsafe.SliceData(cq.ringPtr))
	cq.head = (*uint32)(unsafe.Add(cqBase, p.cqOff.head))
	cq.tail = (*uint32)(unsafe.Add(cqBase, p.cqOff.tail))
	cq.ringMask = (*uint32)(unsafe.Add(cqBase, p.cqOff.ringMask))
	cq.ringEntries = (*uint32)(unsafe.Add(cqBase, p.cqOff.ringEntries))
	cq.overflow = (*uint32)(unsafe.Add(cqBase, p.cqOff.overflow))
	cq.cqes = (*CompletionQueueEvent)(unsafe.Add(cqBase, p.cqOff.cqes))
	if p.cqOff.flags != 0 {
		cq.flags = (*uint32)(unsafe.Add(cqBase, p.cqOff.flags))
	}
}

func unmapRings(sq *SubmissionQueue, cq *CompletionQueue) {
	if len(sq.sqesPtr) > 0 {
		_ = unix.Munmap(sq.sqesPtr)
		sq.sqesPtr = nil
		sq.sqes = nil
	}
	if len(cq.ringPtr) > 0 && unsafe.SliceData(cq.ringPtr) != unsafe.SliceData(sq.ringPtr) {
		_ = unix.Munmap(cq.ringPtr)
	}
	cq.ringPtr = nil
	if len(sq.ringPtr) > 0 {
		_ = unix.Munmap(sq.ringPtr)
		sq.ringPtr = nil
	}
}
