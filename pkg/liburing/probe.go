//go:build linux

package liburing

import (
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"
)

type ProbeOp struct {
	Op    uint8
	Res   uint8
	Flags uint16
	Res2  uint32
}

const (
	probeOpsSize = 256
)

const IO_URING_OP_SUPPORTED uint16 = 1 << 0

const IORING_REGISTER_PROBE = 8

type Probe struct {
	LastOp uint8
	OpsLen uint8
	Res    uint16
	Res2   [3]uint32
	Ops    [probeOpsSize]ProbeOp
}

func (p *Probe) IsSupported(op uint8) bool {
	for i := uint8(0); i < p.OpsLen; i++ {
		if p.Ops[i].Op != op {
			continue
		}
		return p.Ops[i].Flags&IO_URING_OP_SUPPORTED != 0
	}
	return false
}

// Probe
// 查询当前内核支持的操作码，需要 5.6 及以上。
func (ring *Ring) Probe() (*Probe, error) {
	probe := &Probe{}
	_, _, errno := syscall.Syscall6(
		unix.SYS_IO_URING_REGISTER,
		uintptr(ring.ringFd),
		IORING_REGISTER_PROBE,
		uintptr(unsafe.Pointer(probe)),
		probeOpsSize,
		0, 0,
	)
	if errno != 0 {
		return nil, errno
	}
	return probe, nil
}

const probeEntries = 2

func GetProbe() (*Probe, error) {
	ring, err := New(probeEntries)
	if err != nil {
		return nil, err
	}
	probe, probeErr := ring.Probe()
	_ = ring.Close()
	return probe, probeErr
}
