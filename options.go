package uring

import (
	"time"

	"github.com/rs/zerolog"
)

const (
	MaxEntries = 32768
)

// setup 标志，取值与内核 io_uring_setup(2) 一致。
const (
	SetupIOPoll uint32 = 1 << iota
	SetupSQPoll
	SetupSQAff
	SetupCQSize
	SetupClamp
	SetupAttachWQ
	SetupRDisabled
	SetupSubmitAll
	SetupCoopTaskRun
	SetupTaskRunFlag
	SetupSQE128
	SetupCQE32
	SetupSingleIssuer
	SetupDeferTaskRun
)

type Options struct {
	Flags        uint32
	CQEntries    uint32
	SQThreadIdle time.Duration
	SQThreadCPU  int
	WQFd         uint32
	Logger       zerolog.Logger
}

type Option func(options *Options) (err error)

// WithFlags
// see https://manpages.debian.org/unstable/liburing-dev/io_uring_setup.2.en.html
//
// 不支持 SetupSQE128 与 SetupCQE32。
func WithFlags(flags uint32) Option {
	return func(options *Options) (err error) {
		if flags&(SetupSQE128|SetupCQE32) != 0 {
			err = newError(ErrInvalidParam, errMetaOpSetup, nil)
			return
		}
		options.Flags |= flags
		return
	}
}

// WithCQEntries
// 设置完成队列大小，默认为提交队列的两倍。
func WithCQEntries(entries uint32) Option {
	return func(options *Options) (err error) {
		if entries == 0 || entries > 2*MaxEntries {
			err = newError(ErrInvalidParam, errMetaOpSetup, nil)
			return
		}
		options.CQEntries = entries
		options.Flags |= SetupCQSize
		return
	}
}

// WithSQThreadIdle
// 启用 SQPOLL 并设置内核轮询线程的空闲时间。
func WithSQThreadIdle(idle time.Duration) Option {
	return func(options *Options) (err error) {
		if idle < time.Millisecond {
			err = newError(ErrInvalidParam, errMetaOpSetup, nil)
			return
		}
		options.SQThreadIdle = idle
		options.Flags |= SetupSQPoll
		return
	}
}

// WithSQThreadCPU
// 将 SQPOLL 线程绑定到指定 CPU。
func WithSQThreadCPU(cpu int) Option {
	return func(options *Options) (err error) {
		if cpu < 0 {
			err = newError(ErrInvalidParam, errMetaOpSetup, nil)
			return
		}
		options.SQThreadCPU = cpu
		options.Flags |= SetupSQPoll | SetupSQAff
		return
	}
}

// WithLogger
// 默认不输出日志。
func WithLogger(logger zerolog.Logger) Option {
	return func(options *Options) (err error) {
		options.Logger = logger
		return
	}
}

func defaultOptions() Options {
	return Options{
		SQThreadCPU: -1,
		Logger:      zerolog.Nop(),
	}
}
