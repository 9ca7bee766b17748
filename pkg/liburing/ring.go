//go:build linux

package liburing

import (
	"syscall"
)

// New
// 创建一个 io_uring 实例，entries 会向上取整为 2 的幂。
func New(entries uint32, options ...Option) (ring *Ring, err error) {
	if entries == 0 || entries > MaxEntries {
		err = syscall.EINVAL
		return
	}
	opts := Options{}
	for _, o := range options {
		if err = o(&opts); err != nil {
			return
		}
	}

	params := &Params{}
	params.flags = opts.Flags
	params.cqEntries = opts.CQEntries
	params.sqThreadCPU = opts.SQThreadCPU
	params.sqThreadIdle = opts.SQThreadIdle
	params.wqFd = opts.WQFd

	if err = params.Validate(); err != nil {
		return
	}

	ring = &Ring{
		sqRing: &SubmissionQueue{},
		cqRing: &CompletionQueue{},
	}
	if err = ring.setup(entries, params); err != nil {
		ring = nil
	}
	return
}

type Ring struct {
	sqRing   *SubmissionQueue
	cqRing   *CompletionQueue
	flags    uint32
	ringFd   int
	features uint32
}

func (ring *Ring) Fd() int {
	return ring.ringFd
}

func (ring *Ring) Flags() uint32 {
	return ring.flags
}

func (ring *Ring) Features() uint32 {
	return ring.features
}

// Close
// 解除映射并关闭 fd，之后不得再访问任何条目。
func (ring *Ring) Close() (err error) {
	if ring.ringFd < 0 {
		return syscall.EBADF
	}
	unmapRings(ring.sqRing, ring.cqRing)
	err = syscall.Close(ring.ringFd)
	ring.ringFd = -1
	return
}
