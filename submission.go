//go:build linux

package uring

import (
	"code.hybscloud.com/atomix"
	"github.com/brickingsoft/uring/pkg/liburing"
)

// SubmissionQueue
// 提交队列的生产者一侧。
type SubmissionQueue struct {
	ring    *Ring
	epoch   atomix.Uint64
	aux     []auxiliary
	pending []uint32
}

func newSubmissionQueue(r *Ring) *SubmissionQueue {
	entries := r.ring.SQEntries()
	return &SubmissionQueue{
		ring:    r,
		aux:     make([]auxiliary, entries),
		pending: make([]uint32, 0, entries),
	}
}

// NextSlot
// 获取一个已清零的可写 slot，队列已满时返回 false，需要先 Submit。
func (sq *SubmissionQueue) NextSlot() (*Slot, bool) {
	if sq.ring.closed.LoadAcquire() {
		return nil, false
	}
	entry, index := sq.ring.ring.GetSQEIndex()
	if entry == nil {
		return nil, false
	}
	*entry = liburing.SubmissionQueueEntry{}
	sq.pending = append(sq.pending, index)
	return &Slot{
		sq:         sq,
		generation: sq.ring.generation.LoadAcquire(),
		epoch:      sq.epoch.LoadAcquire(),
		index:      index,
		entry:      entry,
	}, true
}

// AcquireSlot
// 与 NextSlot 相同，队列已满时返回 ErrNoFreeSlot。
func (sq *SubmissionQueue) AcquireSlot() (*Slot, error) {
	if sq.ring.closed.LoadAcquire() {
		return nil, newError(ErrRingClosed, errMetaOpPrepare, nil)
	}
	slot, ok := sq.NextSlot()
	if !ok {
		return nil, ErrNoFreeSlot
	}
	return slot, nil
}

// Submit
// 将上次提交以来写入的 slot 交给内核，返回内核接受的数量。
//
// 提交是内存可见性的边界：之后这些 slot 不可再写。带有辅助内存的 slot 在此登记，直到完成事件被取出。
// 标签冲突时返回 ErrInvalidParam，in-flight 记录不足时返回 ErrInflightFull，两种情况下批次都保持未提交，
// slot 仍然有效。
func (sq *SubmissionQueue) Submit() (uint, error) {
	return sq.SubmitAndWait(0)
}

// SubmitAndWait
// 提交并等待至少 waitNr 个完成事件就绪，完成事件仍需通过 Ring 取出。
func (sq *SubmissionQueue) SubmitAndWait(waitNr uint32) (uint, error) {
	r := sq.ring
	if r.closed.LoadAcquire() {
		return 0, newError(ErrRingClosed, errMetaOpSubmit, nil)
	}
	if err := sq.track(); err != nil {
		return 0, err
	}
	batch := len(sq.pending)
	sq.pending = sq.pending[:0]
	sq.epoch.AddAcqRel(1)

	n, err := r.ring.SubmitAndWait(waitNr)
	if err != nil {
		return 0, enterError(ErrSubmit, errMetaOpSubmit, err)
	}
	r.logger.Debug().
		Int("batch", batch).
		Uint("submitted", n).
		Int("inflight", r.inflight.len()).
		Msg("submitted")
	return n, nil
}

// track
// 登记本批次的辅助内存，标签冲突或记录不足时整个批次都不会提交。
//
// 完成事件只能靠标签找到记录，因此带辅助内存的 slot 的标签在批次内必须唯一，
// 任何 slot 也不能使用仍被未完成记录占用的标签。
func (sq *SubmissionQueue) track() error {
	in := sq.ring.inflight
	var owned map[uint64]bool
	n := 0
	for _, index := range sq.pending {
		if sq.aux[index].empty() {
			continue
		}
		if owned == nil {
			owned = make(map[uint64]bool)
		}
		owned[sq.ring.ring.SQE(index).UserData] = false
		n++
	}
	for _, index := range sq.pending {
		tag := sq.ring.ring.SQE(index).UserData
		if in.holds(tag) {
			return newError(ErrInvalidParam, errMetaOpSubmit, nil)
		}
		seen, ok := owned[tag]
		if !ok {
			continue
		}
		if seen {
			return newError(ErrInvalidParam, errMetaOpSubmit, nil)
		}
		owned[tag] = true
	}
	if n == 0 {
		return nil
	}
	records, err := in.reserve(n)
	if err != nil {
		return err
	}
	i := 0
	for _, index := range sq.pending {
		aux := &sq.aux[index]
		if aux.empty() {
			continue
		}
		tag := sq.ring.ring.SQE(index).UserData
		in.track(records[i], tag, aux)
		*aux = auxiliary{}
		i++
	}
	return nil
}

// Pending
// 已获取但尚未提交的 slot 数量。
func (sq *SubmissionQueue) Pending() int {
	return len(sq.pending)
}

// SpaceLeft
// 还能获取的 slot 数量。
func (sq *SubmissionQueue) SpaceLeft() uint32 {
	if sq.ring.closed.LoadAcquire() {
		return 0
	}
	return sq.ring.ring.SQSpaceLeft()
}

// discard
// 环关闭时丢弃尚未提交的辅助内存。
func (sq *SubmissionQueue) discard() {
	for _, index := range sq.pending {
		aux := &sq.aux[index]
		if aux.addr != nil {
			aux.addr.fail()
		}
		*aux = auxiliary{}
	}
	sq.pending = sq.pending[:0]
	sq.epoch.AddAcqRel(1)
}
