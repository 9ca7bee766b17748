//go:build linux

package liburing

import (
	"sync/atomic"
	"unsafe"
)

type SubmissionQueue struct {
	head        *uint32
	tail        *uint32
	ringMask    *uint32
	ringEntries *uint32
	flags       *uint32
	dropped     *uint32
	array       *uint32
	sqes        *SubmissionQueueEntry
	ringSize    uint
	ringPtr     []byte
	sqesPtr     []byte
	sqeHead     uint32
	sqeTail     uint32
}

// GetSQE
// 获取下一个空闲的 sqe，队列已满时返回 nil。
func (ring *Ring) GetSQE() *SubmissionQueueEntry {
	sqe, _ := ring.GetSQEIndex()
	return sqe
}

// GetSQEIndex
// 与 GetSQE 相同，同时返回该 sqe 在数组中的下标。
func (ring *Ring) GetSQEIndex() (*SubmissionQueueEntry, uint32) {
	sq := ring.sqRing
	head := atomic.LoadUint32(sq.head)
	next := sq.sqeTail + 1
	if next-head > *sq.ringEntries {
		return nil, 0
	}
	index := sq.sqeTail & *sq.ringMask
	sqe := ring.SQE(index)
	sq.sqeTail = next
	return sqe, index
}

// SQE
// 返回指定下标的 sqe。
func (ring *Ring) SQE(index uint32) *SubmissionQueueEntry {
	return (*SubmissionQueueEntry)(unsafe.Add(unsafe.Pointer(ring.sqRing.sqes), uintptr(index)*unsafe.Sizeof(SubmissionQueueEntry{})))
}

func (ring *Ring) SQEntries() uint32 {
	return *ring.sqRing.ringEntries
}

// SQReady
// 已获取但尚未被内核消费的 sqe 数量。
func (ring *Ring) SQReady() uint32 {
	return ring.sqRing.sqeTail - atomic.LoadUint32(ring.sqRing.head)
}

// SQPending
// 已获取但尚未刷新到 tail 的 sqe 数量。
func (ring *Ring) SQPending() uint32 {
	return ring.sqRing.sqeTail - ring.sqRing.sqeHead
}

func (ring *Ring) SQSpaceLeft() uint32 {
	return *ring.sqRing.ringEntries - ring.SQReady()
}

func (ring *Ring) SQDropped() uint32 {
	return atomic.LoadUint32(ring.sqRing.dropped)
}

func (ring *Ring) SQNeedWakeup() bool {
	return atomic.LoadUint32(ring.sqRing.flags)&IORING_SQ_NEED_WAKEUP != 0
}

func (ring *Ring) CQNeedFlush() bool {
	return atomic.LoadUint32(ring.sqRing.flags)&(IORING_SQ_CQ_OVERFLOW|IORING_SQ_TASKRUN) != 0
}

func (ring *Ring) sqRingNeedsEnter(submit uint32, flags *uint32) bool {
	if submit == 0 {
		return false
	}
	if ring.flags&IORING_SETUP_SQPOLL == 0 {
		return true
	}
	if ring.SQNeedWakeup() {
		*flags |= IORING_ENTER_SQ_WAKEUP
		return true
	}
	return false
}

// flushSQ
// 以 release 语义发布 tail，返回尚未被内核消费的数量。
func (ring *Ring) flushSQ() uint32 {
	sq := ring.sqRing
	tail := sq.sqeTail
	if sq.sqeHead != tail {
		sq.sqeHead = tail
		atomic.StoreUint32(sq.tail, tail)
	}
	return tail - atomic.LoadUint32(sq.head)
}

// Submit
// 发布所有已准备的 sqe 并通知内核，返回内核接受的数量。
func (ring *Ring) Submit() (uint, error) {
	return ring.SubmitAndWait(0)
}

// SubmitAndWait
// 提交并等待至少 waitNr 个完成事件。
func (ring *Ring) SubmitAndWait(waitNr uint32) (uint, error) {
	submitted := ring.flushSQ()
	var flags uint32
	if !ring.sqRingNeedsEnter(submitted, &flags) && waitNr == 0 {
		return uint(submitted), nil
	}
	if waitNr > 0 || ring.flags&IORING_SETUP_IOPOLL != 0 || ring.CQNeedFlush() {
		flags |= IORING_ENTER_GETEVENTS
	}
	if ring.flags&IORING_SETUP_SQPOLL != 0 {
		if _, err := ring.Enter(submitted, waitNr, flags); err != nil {
			return 0, err
		}
		return uint(submitted), nil
	}
	return ring.Enter(submitted, waitNr, flags)
}
