//go:build linux

package process

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// AllowedCPUs
// 当前线程亲和性掩码中的 CPU 编号。
func AllowedCPUs() ([]int, error) {
	var mask unix.CPUSet
	if err := unix.SchedGetaffinity(0, &mask); err != nil {
		return nil, fmt.Errorf("SchedGetaffinity: %w", err)
	}
	cpus := make([]int, 0, mask.Count())
	for i := 0; len(cpus) < mask.Count(); i++ {
		if mask.IsSet(i) {
			cpus = append(cpus, i)
		}
	}
	return cpus, nil
}

// AllowsCPU
// 判断 cpu 是否在当前线程的亲和性掩码中，SQPOLL 线程只能绑定到这些 CPU 上。
func AllowsCPU(cpu int) (bool, error) {
	if cpu < 0 {
		return false, nil
	}
	var mask unix.CPUSet
	if err := unix.SchedGetaffinity(0, &mask); err != nil {
		return false, fmt.Errorf("SchedGetaffinity: %w, cpu %d", err, cpu)
	}
	return mask.IsSet(cpu), nil
}
