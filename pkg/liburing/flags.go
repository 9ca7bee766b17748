//go:build linux

package liburing

// setup flags
const (
	// IORING_SETUP_IOPOLL
	// 忙等待 I/O 完成，仅适用于 O_DIRECT 打开的文件。
	IORING_SETUP_IOPOLL uint32 = 1 << iota
	// IORING_SETUP_SQPOLL
	// 由内核线程轮询提交队列，空闲超过 sq_thread_idle 毫秒后需要 IORING_ENTER_SQ_WAKEUP 唤醒。
	IORING_SETUP_SQPOLL
	// IORING_SETUP_SQ_AFF
	// 将轮询线程绑定到 sq_thread_cpu，需要与 IORING_SETUP_SQPOLL 同时使用。
	IORING_SETUP_SQ_AFF
	// IORING_SETUP_CQSIZE
	// 使用 cq_entries 作为完成队列大小，而不是提交队列的两倍。
	IORING_SETUP_CQSIZE
	IORING_SETUP_CLAMP
	IORING_SETUP_ATTACH_WQ
	IORING_SETUP_R_DISABLED
	IORING_SETUP_SUBMIT_ALL
	IORING_SETUP_COOP_TASKRUN
	IORING_SETUP_TASKRUN_FLAG
	IORING_SETUP_SQE128
	IORING_SETUP_CQE32
	// IORING_SETUP_SINGLE_ISSUER
	// 提示内核只有一个线程提交请求，自 6.0 版起可用。
	IORING_SETUP_SINGLE_ISSUER
	IORING_SETUP_DEFER_TASKRUN
)

// feature flags
const (
	// IORING_FEAT_SINGLE_MMAP
	// SQ 与 CQ 共用一次 mmap。
	IORING_FEAT_SINGLE_MMAP uint32 = 1 << iota
	IORING_FEAT_NODROP
	IORING_FEAT_SUBMIT_STABLE
	IORING_FEAT_RW_CUR_POS
	IORING_FEAT_CUR_PERSONALITY
	IORING_FEAT_FAST_POLL
	IORING_FEAT_POLL_32BITS
	IORING_FEAT_SQPOLL_NONFIXED
	IORING_FEAT_EXT_ARG
	IORING_FEAT_NATIVE_WORKERS
	IORING_FEAT_RSRC_TAGS
	IORING_FEAT_CQE_SKIP
	IORING_FEAT_LINKED_FILE
	IORING_FEAT_REG_REG_RING
)

// sq ring flags
const (
	IORING_SQ_NEED_WAKEUP uint32 = 1 << iota
	IORING_SQ_CQ_OVERFLOW
	IORING_SQ_TASKRUN
)

// enter flags
const (
	IORING_ENTER_GETEVENTS uint32 = 1 << iota
	IORING_ENTER_SQ_WAKEUP
	IORING_ENTER_SQ_WAIT
	IORING_ENTER_EXT_ARG
	IORING_ENTER_REGISTERED_RING
)

// sqe flags
const (
	IOSQE_FIXED_FILE uint8 = 1 << iota
	IOSQE_IO_DRAIN
	IOSQE_IO_LINK
	IOSQE_IO_HARDLINK
	IOSQE_ASYNC
	IOSQE_BUFFER_SELECT
	IOSQE_CQE_SKIP_SUCCESS
)

// cqe flags
const (
	IORING_CQE_F_BUFFER uint32 = 1 << iota
	IORING_CQE_F_MORE
	IORING_CQE_F_SOCK_NONEMPTY
	IORING_CQE_F_NOTIF
)

// timeout flags
const (
	IORING_TIMEOUT_ABS uint32 = 1 << iota
	IORING_TIMEOUT_UPDATE
	IORING_TIMEOUT_BOOTTIME
	IORING_TIMEOUT_REALTIME
	IORING_LINK_TIMEOUT_UPDATE
	IORING_TIMEOUT_ETIME_SUCCESS
	IORING_TIMEOUT_MULTISHOT
)

// cancel flags
const (
	IORING_ASYNC_CANCEL_ALL uint32 = 1 << iota
	IORING_ASYNC_CANCEL_FD
	IORING_ASYNC_CANCEL_ANY
	IORING_ASYNC_CANCEL_FD_FIXED
)

// accept flags
const (
	IORING_ACCEPT_MULTISHOT uint16 = 1 << iota
)
