package uring

import (
	"syscall"

	"code.hybscloud.com/iox"
	"github.com/brickingsoft/errors"
)

var (
	ErrSetup        = errors.Define("uring: setup failed")
	ErrUnsupported  = errors.Define("uring: io_uring is not supported on this platform")
	ErrInflightFull = errors.Define("uring: too many in-flight operations with buffers")
	ErrSubmit       = errors.Define("uring: submit failed")
	ErrWait         = errors.Define("uring: wait for completion failed")
	ErrInterrupted  = errors.Define("uring: interrupted")
	ErrRingClosed   = errors.Define("uring: ring closed")
	ErrStaleSlot    = errors.Define("uring: slot is no longer writable")
	ErrInvalidParam = errors.Define("uring: invalid parameter")
	ErrAddrNotReady = errors.Define("uring: address is not ready")
)

// ErrNoFreeSlot
// 提交队列已满，需要先 Submit 再重试。与 iox.ErrWouldBlock 相同，可直接配合 iox.Backoff 使用。
var ErrNoFreeSlot = iox.ErrWouldBlock

const (
	errMetaPkgKey = "pkg"
	errMetaPkgVal = "uring"
)

const (
	errMetaOpKey     = "op"
	errMetaOpSetup   = "setup"
	errMetaOpSubmit  = "submit"
	errMetaOpWait    = "wait"
	errMetaOpPrepare = "prepare"
	errMetaOpClose   = "close"
)

func newError(sentinel error, op string, cause error) error {
	if cause == nil {
		return errors.From(
			sentinel,
			errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
			errors.WithMeta(errMetaOpKey, op),
		)
	}
	return errors.From(
		sentinel,
		errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
		errors.WithMeta(errMetaOpKey, op),
		errors.WithWrap(cause),
	)
}

// enterError
// EINTR 单独归类为 ErrInterrupted，调用方自行重试。
func enterError(sentinel error, op string, cause error) error {
	if errors.Is(cause, syscall.EINTR) {
		return newError(ErrInterrupted, op, cause)
	}
	return newError(sentinel, op, cause)
}

func IsNoFreeSlot(err error) bool {
	return iox.IsWouldBlock(err)
}

func IsInflightFull(err error) bool {
	return errors.Is(err, ErrInflightFull)
}

func IsInterrupted(err error) bool {
	return errors.Is(err, ErrInterrupted)
}

func IsRingClosed(err error) bool {
	return errors.Is(err, ErrRingClosed)
}

func IsStaleSlot(err error) bool {
	return errors.Is(err, ErrStaleSlot)
}

func IsAddrNotReady(err error) bool {
	return errors.Is(err, ErrAddrNotReady)
}

func IsUnsupported(err error) bool {
	return errors.Is(err, ErrUnsupported)
}

func IsInvalidParam(err error) bool {
	return errors.Is(err, ErrInvalidParam)
}
