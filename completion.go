package uring

import (
	"syscall"
)

const (
	cqeFlagBuffer uint32 = 1 << iota
	cqeFlagMore
	cqeFlagSockNonEmpty
	cqeFlagNotif
)

// Completion
// 完成事件的值拷贝，与内核共享的 cqe 槽位在取出时即已归还。
type Completion struct {
	userData uint64
	res      int32
	flags    uint32
}

// UserData
// 提交时设置的关联标签。
func (c Completion) UserData() uint64 {
	return c.userData
}

// Res
// 原始结果，小于 0 时为 -errno。
func (c Completion) Res() int32 {
	return c.res
}

func (c Completion) Flags() uint32 {
	return c.flags
}

func (c Completion) Succeeded() bool {
	return c.res >= 0
}

// Err
// 失败时返回 syscall.Errno。
func (c Completion) Err() error {
	if c.res >= 0 {
		return nil
	}
	return syscall.Errno(-c.res)
}

// Result
// 成功时返回结果（新的 fd、字节数等），失败时返回 syscall.Errno。
func (c Completion) Result() (int, error) {
	if c.res < 0 {
		return 0, syscall.Errno(-c.res)
	}
	return int(c.res), nil
}

// More
// 多发操作仍会产生后续事件。
func (c Completion) More() bool {
	return c.flags&cqeFlagMore != 0
}

func (c Completion) SockNonEmpty() bool {
	return c.flags&cqeFlagSockNonEmpty != 0
}
