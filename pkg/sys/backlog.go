//go:build linux

package sys

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/brickingsoft/uring/pkg/kernel"
)

var (
	somaxconn   = syscall.SOMAXCONN
	backlogOnce = sync.Once{}
)

// MaxListenerBacklog
// 读取 /proc/sys/net/core/somaxconn，失败时使用 SOMAXCONN。
func MaxListenerBacklog() int {
	backlogOnce.Do(func() {
		b, err := os.ReadFile("/proc/sys/net/core/somaxconn")
		if err != nil {
			return
		}
		f := strings.Fields(string(b))
		if len(f) == 0 {
			return
		}
		n, convErr := strconv.Atoi(f[0])
		if convErr != nil || n <= 0 {
			return
		}
		somaxconn = maxAckBacklog(n)
	})
	return somaxconn
}

func maxAckBacklog(n int) int {
	size := 16
	if version, err := kernel.Get(); err == nil && version.GTE(4, 1, 0) {
		size = 32
	}
	var maxAck uint = 1<<size - 1
	if uint(n) > maxAck {
		n = int(maxAck)
	}
	return n
}
