//go:build linux

package liburing

import "syscall"

type Options struct {
	Flags        uint32
	CQEntries    uint32
	SQThreadCPU  uint32
	SQThreadIdle uint32
	WQFd         uint32
}

type Option func(*Options) error

const (
	MaxEntries = 32768
)

// WithFlags
// see https://manpages.debian.org/unstable/liburing-dev/io_uring_setup.2.en.html
func WithFlags(flags uint32) Option {
	return func(o *Options) error {
		o.Flags |= flags
		return nil
	}
}

func WithCQEntries(entries uint32) Option {
	return func(o *Options) error {
		if entries == 0 {
			return syscall.EINVAL
		}
		o.CQEntries = entries
		o.Flags |= IORING_SETUP_CQSIZE
		return nil
	}
}

func WithSQThreadIdle(n uint32) Option {
	return func(o *Options) error {
		o.SQThreadIdle = n
		return nil
	}
}

func WithSQThreadCPU(cpuId uint32) Option {
	return func(o *Options) error {
		o.SQThreadCPU = cpuId
		o.Flags |= IORING_SETUP_SQ_AFF
		return nil
	}
}

func WithAttachWQFd(fd uint32) Option {
	return func(o *Options) error {
		if fd == 0 {
			return syscall.EBADF
		}
		o.WQFd = fd
		o.Flags |= IORING_SETUP_ATTACH_WQ
		return nil
	}
}
