//go:build linux

package liburing

import (
	"sync/atomic"
	"unsafe"
)

func (ring *Ring) CQEntries() uint32 {
	return *ring.cqRing.ringEntries
}

// CQReady
// 可收割的完成事件数量。
func (ring *Ring) CQReady() uint32 {
	return atomic.LoadUint32(ring.cqRing.tail) - *ring.cqRing.head
}

func (ring *Ring) CQOverflow() uint32 {
	return atomic.LoadUint32(ring.cqRing.overflow)
}

func (ring *Ring) CQHasOverflow() bool {
	return atomic.LoadUint32(ring.sqRing.flags)&IORING_SQ_CQ_OVERFLOW != 0
}

// CQAdvance
// 以 release 语义推进 head，之后内核可以复用这些槽位。
func (ring *Ring) CQAdvance(numberOfCQEs uint32) {
	if numberOfCQEs == 0 {
		return
	}
	atomic.StoreUint32(ring.cqRing.head, *ring.cqRing.head+numberOfCQEs)
}

// PeekCQE
// 不阻塞地取出队首事件，没有事件时返回 nil。返回的指针在 CQAdvance 前有效。
func (ring *Ring) PeekCQE() *CompletionQueueEvent {
	cq := ring.cqRing
	tail := atomic.LoadUint32(cq.tail)
	head := *cq.head
	if tail == head {
		return nil
	}
	return (*CompletionQueueEvent)(unsafe.Add(unsafe.Pointer(cq.cqes), uintptr(head&*cq.ringMask)*unsafe.Sizeof(CompletionQueueEvent{})))
}

// WaitCQE
// 阻塞直到至少有一个事件，EINTR 等错误直接返回。
func (ring *Ring) WaitCQE() (*CompletionQueueEvent, error) {
	for {
		if cqe := ring.PeekCQE(); cqe != nil {
			return cqe, nil
		}
		if _, err := ring.Enter(0, 1, IORING_ENTER_GETEVENTS); err != nil {
			return nil, err
		}
	}
}

// GetEvents
// 让内核刷新溢出或延迟的完成事件。
func (ring *Ring) GetEvents() (uint, error) {
	return ring.Enter(0, 0, IORING_ENTER_GETEVENTS)
}
