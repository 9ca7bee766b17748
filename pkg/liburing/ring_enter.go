//go:build linux

package liburing

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// Enter
// 调用 io_uring_enter，返回内核消费的 sqe 数量。EINTR 原样返回。
func (ring *Ring) Enter(submitted uint32, waitNr uint32, flags uint32) (uint, error) {
	consumed, _, errno := syscall.Syscall6(
		unix.SYS_IO_URING_ENTER,
		uintptr(ring.ringFd),
		uintptr(submitted),
		uintptr(waitNr),
		uintptr(flags),
		0,
		0,
	)
	if errno != 0 {
		return 0, errno
	}
	return uint(consumed), nil
}
