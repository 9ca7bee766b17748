//go:build linux

package liburing

// CompletionQueueEvent
// 16 字节的 io_uring_cqe，Res 小于 0 时为 -errno。
type CompletionQueueEvent struct {
	UserData uint64
	Res      int32
	Flags    uint32
}

type CompletionQueue struct {
	head        *uint32
	tail        *uint32
	ringMask    *uint32
	ringEntries *uint32
	flags       *uint32
	overflow    *uint32
	cqes        *CompletionQueueEvent
	ringSize    uint
	ringPtr     []byte
}
