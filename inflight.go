//go:build linux

package uring

import (
	"runtime"
	"unsafe"

	"code.hybscloud.com/lfq"
)

// auxiliary
// 一个 slot 引用的、在 in-flight 期间必须保持有效且不被移动的内存。
type auxiliary struct {
	addr *AcceptAddr
	pins []unsafe.Pointer
	keep any
}

func (aux *auxiliary) empty() bool {
	return aux.addr == nil && len(aux.pins) == 0
}

// release
// 未提交就被丢弃。
func (aux *auxiliary) release() {
	if aux.addr != nil {
		aux.addr.disarm()
	}
	*aux = auxiliary{}
}

type record struct {
	tag    uint64
	seq    uint64
	addr   *AcceptAddr
	keep   any
	pinner runtime.Pinner
	used   bool
}

// inflight
// 已提交且带有辅助内存的操作，按关联标签索引，直到对应的完成事件被取出。
//
// 一个标签同一时刻最多对应一个记录，由 SubmissionQueue.track 在提交前保证。
type inflight struct {
	records []record
	free    *lfq.MPMC[uint32]
	byTag   map[uint64]uint32
	count   int
	seq     uint64
}

func newInflight(capacity uint32) *inflight {
	if capacity < 2 {
		capacity = 2
	}
	in := &inflight{
		records: make([]record, capacity),
		free:    lfq.NewMPMC[uint32](int(capacity)),
		byTag:   make(map[uint64]uint32),
	}
	for i := uint32(0); i < capacity; i++ {
		index := i
		_ = in.free.Enqueue(&index)
	}
	return in
}

// reserve
// 取出 n 个空闲记录，不足时归还已取出的并返回 ErrInflightFull。
func (in *inflight) reserve(n int) ([]uint32, error) {
	if n == 0 {
		return nil, nil
	}
	indexes := make([]uint32, 0, n)
	for i := 0; i < n; i++ {
		index, err := in.free.Dequeue()
		if err != nil {
			in.unreserve(indexes)
			return nil, newError(ErrInflightFull, errMetaOpSubmit, err)
		}
		indexes = append(indexes, index)
	}
	return indexes, nil
}

func (in *inflight) unreserve(indexes []uint32) {
	for i := range indexes {
		_ = in.free.Enqueue(&indexes[i])
	}
}

// track
// 记录并固定辅助内存，index 必须来自 reserve。
func (in *inflight) track(index uint32, tag uint64, aux *auxiliary) {
	rec := &in.records[index]
	in.seq++
	rec.tag = tag
	rec.seq = in.seq
	rec.addr = aux.addr
	rec.keep = aux.keep
	rec.used = true
	if aux.addr != nil {
		rec.pinner.Pin(aux.addr)
	}
	for _, p := range aux.pins {
		rec.pinner.Pin(p)
	}
	in.byTag[tag] = index
	in.count++
}

// holds
// 标签是否被未完成的记录占用。
func (in *inflight) holds(tag uint64) bool {
	_, ok := in.byTag[tag]
	return ok
}

// settle
// 结算标签对应的记录，没有记录时返回 false。
func (in *inflight) settle(tag uint64, res int32, more bool) bool {
	index, ok := in.byTag[tag]
	if !ok {
		return false
	}
	rec := &in.records[index]
	if rec.addr != nil {
		rec.addr.settle(res)
	}
	if more {
		// 多发操作仍在使用缓冲区。
		return true
	}
	delete(in.byTag, tag)
	in.retire(index)
	return true
}

func (in *inflight) retire(index uint32) {
	rec := &in.records[index]
	rec.pinner.Unpin()
	rec.addr = nil
	rec.keep = nil
	rec.tag = 0
	rec.used = false
	in.count--
	_ = in.free.Enqueue(&index)
}

// drain
// 环关闭时释放全部记录，未完成的地址缓冲区标记为失败。
func (in *inflight) drain() int {
	n := 0
	for i := range in.records {
		rec := &in.records[i]
		if !rec.used {
			continue
		}
		if rec.addr != nil {
			rec.addr.fail()
		}
		in.retire(uint32(i))
		n++
	}
	clear(in.byTag)
	return n
}

func (in *inflight) len() int {
	return in.count
}
