//go:build linux

package uring

import (
	"syscall"
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
	"github.com/brickingsoft/errors"
	"github.com/brickingsoft/uring/pkg/liburing"
	"github.com/brickingsoft/uring/pkg/process"
	"github.com/rs/zerolog"
)

// Ring
// io_uring 实例，拥有提交队列、完成队列以及内核 fd。
//
// Ring 不做内部加锁：获取 slot、提交、取出完成事件必须由调用方串行化。
type Ring struct {
	ring       *liburing.Ring
	sq         *SubmissionQueue
	inflight   *inflight
	generation atomix.Uint64
	closed     atomix.Bool
	logger     zerolog.Logger
	overflowed bool
}

// New
// 创建至少包含 entries 个提交槽位的 io_uring，entries 会被内核向上取整为 2 的幂。
func New(entries uint32, options ...Option) (*Ring, error) {
	if entries == 0 || entries > MaxEntries {
		return nil, newError(ErrInvalidParam, errMetaOpSetup, syscall.EINVAL)
	}
	opts := defaultOptions()
	for _, option := range options {
		if err := option(&opts); err != nil {
			return nil, err
		}
	}

	ringOptions := []liburing.Option{liburing.WithFlags(opts.Flags &^ (SetupCQSize | SetupSQAff | SetupAttachWQ))}
	if opts.Flags&SetupAttachWQ != 0 {
		if opts.WQFd == 0 {
			return nil, newError(ErrInvalidParam, errMetaOpSetup, nil)
		}
		ringOptions = append(ringOptions, liburing.WithAttachWQFd(opts.WQFd))
	}
	if opts.Flags&SetupCQSize != 0 {
		ringOptions = append(ringOptions, liburing.WithCQEntries(opts.CQEntries))
	}
	if opts.SQThreadIdle > 0 {
		ringOptions = append(ringOptions, liburing.WithSQThreadIdle(uint32(opts.SQThreadIdle/time.Millisecond)))
	}
	if opts.Flags&SetupSQAff != 0 && opts.SQThreadCPU >= 0 {
		if ok, err := process.AllowsCPU(opts.SQThreadCPU); err != nil || !ok {
			return nil, newError(ErrInvalidParam, errMetaOpSetup, err)
		}
		ringOptions = append(ringOptions, liburing.WithSQThreadCPU(uint32(opts.SQThreadCPU)))
	}

	ring, err := liburing.New(entries, ringOptions...)
	if err != nil {
		if errors.Is(err, syscall.ENOSYS) {
			return nil, newError(ErrUnsupported, errMetaOpSetup, err)
		}
		return nil, newError(ErrSetup, errMetaOpSetup, err)
	}

	r := &Ring{
		ring:     ring,
		inflight: newInflight(ring.CQEntries()),
		logger:   opts.Logger,
	}
	r.generation.StoreRelease(nextGeneration())
	r.sq = newSubmissionQueue(r)

	r.logger.Debug().
		Int("fd", ring.Fd()).
		Uint32("sq", ring.SQEntries()).
		Uint32("cq", ring.CQEntries()).
		Uint32("flags", ring.Flags()).
		Uint32("features", ring.Features()).
		Msg("ring created")
	return r, nil
}

var generations atomix.Uint64

// nextGeneration
// 每个环取得唯一的代号，Close 后再次递增，旧 slot 因此失效。
func nextGeneration() uint64 {
	return generations.AddAcqRel(1) << 16
}

// WithAttachWQ
// 与 r 共享内核的异步工作线程池，r 必须在新环创建时仍然打开。
func WithAttachWQ(r *Ring) Option {
	return func(options *Options) (err error) {
		if r == nil || r.closed.LoadAcquire() {
			err = newError(ErrInvalidParam, errMetaOpSetup, nil)
			return
		}
		options.WQFd = uint32(r.Fd())
		options.Flags |= SetupAttachWQ
		return
	}
}

// SubmissionQueue
// 生产者一侧，每次调用返回同一个实例。
func (r *Ring) SubmissionQueue() *SubmissionQueue {
	return r.sq
}

// WaitForCompletion
// 阻塞直到至少有一个完成事件，取出并归还该槽位。
//
// 被信号中断时返回 ErrInterrupted，调用方可以直接重试。
func (r *Ring) WaitForCompletion() (Completion, error) {
	if r.closed.LoadAcquire() {
		return Completion{}, newError(ErrRingClosed, errMetaOpWait, nil)
	}
	cqe, err := r.ring.WaitCQE()
	if err != nil {
		return Completion{}, enterError(ErrWait, errMetaOpWait, err)
	}
	return r.retire(cqe), nil
}

// PeekCompletion
// 不阻塞地取出一个完成事件，没有事件时 ok 为 false。
func (r *Ring) PeekCompletion() (c Completion, ok bool, err error) {
	if r.closed.LoadAcquire() {
		err = newError(ErrRingClosed, errMetaOpWait, nil)
		return
	}
	cqe := r.ring.PeekCQE()
	if cqe == nil && r.ring.CQNeedFlush() {
		// 溢出链表中的事件要进入内核才会被刷回完成队列。
		if _, err = r.ring.GetEvents(); err != nil {
			err = enterError(ErrWait, errMetaOpWait, err)
			return
		}
		cqe = r.ring.PeekCQE()
	}
	if cqe == nil {
		return
	}
	c, ok = r.retire(cqe), true
	return
}

// SpinForCompletion
// 先自旋 rounds 次尝试取出完成事件，仍然没有时阻塞等待。
func (r *Ring) SpinForCompletion(rounds int) (Completion, error) {
	sw := spin.Wait{}
	for i := 0; i < rounds; i++ {
		c, ok, err := r.PeekCompletion()
		if err != nil || ok {
			return c, err
		}
		sw.Once()
	}
	return r.WaitForCompletion()
}

// retire
// 先拷贝 cqe，结算 in-flight 记录，最后推进 head。
func (r *Ring) retire(cqe *liburing.CompletionQueueEvent) Completion {
	c := Completion{
		userData: cqe.UserData,
		res:      cqe.Res,
		flags:    cqe.Flags,
	}
	if r.inflight.len() > 0 && r.inflight.settle(c.userData, c.res, c.More()) {
		r.logger.Debug().
			Uint64("user_data", c.userData).
			Int32("res", c.res).
			Int("inflight", r.inflight.len()).
			Msg("in-flight operation settled")
	}
	r.ring.CQAdvance(1)
	if r.ring.CQHasOverflow() {
		if !r.overflowed {
			r.overflowed = true
			r.logger.Warn().
				Uint32("cq", r.ring.CQEntries()).
				Uint32("cq_overflow", r.ring.CQOverflow()).
				Uint32("sq_dropped", r.ring.SQDropped()).
				Msg("completion queue overflowed, harvest completions faster")
		}
	} else {
		r.overflowed = false
	}
	return c
}

// Close
// 解除映射并关闭 fd。之后所有 slot 失效，未完成的地址缓冲区标记为失败。
func (r *Ring) Close() error {
	if r.closed.LoadAcquire() {
		return newError(ErrRingClosed, errMetaOpClose, nil)
	}
	r.closed.StoreRelease(true)
	r.generation.AddAcqRel(1)
	r.sq.discard()
	dropped := r.inflight.drain()
	err := r.ring.Close()
	r.logger.Debug().Int("dropped", dropped).Msg("ring closed")
	if err != nil {
		return newError(ErrRingClosed, errMetaOpClose, err)
	}
	return nil
}

func (r *Ring) Fd() int {
	return r.ring.Fd()
}

func (r *Ring) SQEntries() uint32 {
	return r.ring.SQEntries()
}

func (r *Ring) CQEntries() uint32 {
	return r.ring.CQEntries()
}

func (r *Ring) Flags() uint32 {
	return r.ring.Flags()
}

func (r *Ring) Features() uint32 {
	return r.ring.Features()
}

// Inflight
// 已提交且持有辅助内存、尚未完成的操作数。
func (r *Ring) Inflight() int {
	return r.inflight.len()
}

// CQReady
// 可立即取出的完成事件数量。
func (r *Ring) CQReady() uint32 {
	if r.closed.LoadAcquire() {
		return 0
	}
	return r.ring.CQReady()
}

// Probe
// 查询内核支持的操作码。
func (r *Ring) Probe() (*liburing.Probe, error) {
	if r.closed.LoadAcquire() {
		return nil, newError(ErrRingClosed, errMetaOpSetup, nil)
	}
	probe, err := r.ring.Probe()
	if err != nil {
		return nil, newError(ErrUnsupported, errMetaOpSetup, err)
	}
	return probe, nil
}
