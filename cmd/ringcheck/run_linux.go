//go:build linux

package main

import (
	"bytes"
	"fmt"
	"net"
	"syscall"
	"time"

	"code.hybscloud.com/iox"
	"github.com/brickingsoft/uring"
	"github.com/brickingsoft/uring/pkg/kernel"
	"github.com/brickingsoft/uring/pkg/liburing"
	"github.com/brickingsoft/uring/pkg/sys"
	"github.com/rs/zerolog/log"
)

const (
	tagAccept uint64 = iota + 1
	tagConnect
	tagSend
	tagRecv
	tagCloseServer
	tagCloseClient
	tagCancel
)

var probed = []struct {
	name string
	op   uint8
}{
	{"nop", uring.OpNop},
	{"accept", uring.OpAccept},
	{"connect", uring.OpConnect},
	{"send", uring.OpSend},
	{"recv", uring.OpRecv},
	{"read", uring.OpRead},
	{"write", uring.OpWrite},
	{"close", uring.OpClose},
	{"async_cancel", uring.OpCancel},
	{"timeout", uring.OpTimeout},
}

func run(conf *Config, m *metrics) (*Stats, error) {
	stats := &Stats{}

	if v, err := kernel.Get(); err == nil {
		stats.Kernel = v.String()
	} else {
		stats.Kernel = "unknown"
		log.Warn().Err(err).Msg("kernel version")
	}
	// accept 与 connect 自 5.5 起可用
	if ok, err := kernel.Check(5, 5, 0); err == nil && !ok {
		log.Warn().Str("kernel", stats.Kernel).Msg("kernel predates io_uring accept/connect, rounds will fail")
	}

	// 用临时环探测，结果先于配置的环创建写入日志
	if probe, err := liburing.GetProbe(); err == nil {
		for _, p := range probed {
			if probe.IsSupported(p.op) {
				stats.Supported = append(stats.Supported, p.name)
			} else {
				stats.Unsupported = append(stats.Unsupported, p.name)
			}
		}
		log.Info().Strs("supported", stats.Supported).Strs("unsupported", stats.Unsupported).Msg("probe")
	} else {
		log.Warn().Err(err).Msg("probe")
	}

	options := []uring.Option{uring.WithLogger(log.Logger)}
	if conf.CQEntries != 0 {
		options = append(options, uring.WithCQEntries(conf.CQEntries))
	}
	ring, err := uring.New(conf.Entries, options...)
	if err != nil {
		return nil, fmt.Errorf("creating ring: %w", err)
	}
	defer ring.Close()
	stats.SQEntries, stats.CQEntries = ring.SQEntries(), ring.CQEntries()

	lnFd, lnAddr, err := sys.ListenTCP("tcp", conf.Listen)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", conf.Listen, err)
	}
	defer syscall.Close(lnFd)
	dial := lnAddr
	if sys.IsWildcard(lnAddr) {
		tcp := *lnAddr.(*net.TCPAddr)
		network := "tcp4"
		if tcp.IP.To4() == nil {
			network = "tcp6"
		}
		tcp.IP = sys.LoopbackIP(network)
		dial = &tcp
	}
	target, err := uring.SockAddrFromAddr(dial)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("kernel", stats.Kernel).
		Uint32("sq", stats.SQEntries).
		Uint32("cq", stats.CQEntries).
		Stringer("listen", lnAddr).
		Stringer("dial", dial).
		Msg("ring ready")

	rc := &roundCheck{
		ring:    ring,
		lnFd:    lnFd,
		target:  target,
		pending: make(map[uint64]struct{}),
		payload: bytes.Repeat([]byte{'x'}, conf.Payload),
		buf:     make([]byte, conf.Payload),
		stats:   stats,
	}

	begin := time.Now()
	for i := 0; i < conf.Rounds; i++ {
		start := time.Now()
		if err := rc.round(uint64(i)); err != nil {
			stats.Failed++
			m.incr("round.failed")
			log.Error().Err(err).Int("round", i).Msg("round failed")
			if uring.IsRingClosed(err) || uring.IsUnsupported(err) {
				return nil, err
			}
			if err = rc.abandon(uint64(i)); err != nil {
				return nil, fmt.Errorf("abandoning round %d: %w", i, err)
			}
			continue
		}
		d := time.Since(start)
		stats.Rounds++
		stats.observe(d)
		m.timing("round.duration", d)
		m.incr("round.ok")
	}
	stats.Elapsed = time.Since(begin)
	return stats, nil
}

type roundCheck struct {
	ring    *uring.Ring
	lnFd    int
	target  *uring.SockAddr
	pending map[uint64]struct{}
	payload []byte
	buf     []byte
	stats   *Stats
}

func (rc *roundCheck) tag(round uint64, kind uint64) uint64 {
	return round<<8 | kind
}

// acquire
// 提交队列已满时先提交已准备的条目再退避重试。
func (rc *roundCheck) acquire() (*uring.Slot, error) {
	sq := rc.ring.SubmissionQueue()
	backoff := iox.Backoff{}
	for {
		slot, err := sq.AcquireSlot()
		if err == nil {
			return slot, nil
		}
		if !uring.IsNoFreeSlot(err) {
			return nil, err
		}
		rc.stats.Retries++
		if err = rc.submit(); err != nil {
			return nil, err
		}
		backoff.Wait()
	}
}

func (rc *roundCheck) prepare(tag uint64, fn func(slot *uring.Slot) error) error {
	slot, err := rc.acquire()
	if err != nil {
		return err
	}
	if err = fn(slot); err != nil {
		return err
	}
	if err = slot.SetUserData(tag); err != nil {
		return err
	}
	rc.pending[tag] = struct{}{}
	return nil
}

func (rc *roundCheck) submit() error {
	n, err := rc.ring.SubmissionQueue().Submit()
	rc.stats.Submitted += uint64(n)
	return err
}

// collect
// 等待直到 tags 中的每个标签都收到完成事件，完成顺序不做假设。
func (rc *roundCheck) collect(tags ...uint64) (map[uint64]uring.Completion, error) {
	want := make(map[uint64]struct{}, len(tags))
	for _, tag := range tags {
		want[tag] = struct{}{}
	}
	got := make(map[uint64]uring.Completion, len(tags))
	for len(want) > 0 {
		c, err := rc.ring.WaitForCompletion()
		if err != nil {
			if uring.IsInterrupted(err) {
				continue
			}
			return got, err
		}
		rc.stats.Completions++
		if _, ok := want[c.UserData()]; !ok {
			log.Warn().Uint64("tag", c.UserData()).Int32("res", c.Res()).Msg("unexpected completion")
			continue
		}
		delete(want, c.UserData())
		delete(rc.pending, c.UserData())
		got[c.UserData()] = c
	}
	return got, nil
}

// abandon
// 取消失败轮次中尚未完成的操作并收割其完成事件，避免遗留的 accept 抢走后续轮次的连接。
func (rc *roundCheck) abandon(round uint64) error {
	if len(rc.pending) == 0 {
		return nil
	}
	if rc.ring.SubmissionQueue().Pending() > 0 {
		if err := rc.submit(); err != nil {
			return err
		}
	}
	targets := make([]uint64, 0, len(rc.pending))
	for tag := range rc.pending {
		targets = append(targets, tag)
	}
	tags := append([]uint64(nil), targets...)
	for i, target := range targets {
		cancel := rc.tag(round, tagCancel+uint64(i))
		if err := rc.prepare(cancel, func(slot *uring.Slot) error {
			return slot.PrepareCancel(target)
		}); err != nil {
			return err
		}
		tags = append(tags, cancel)
	}
	if err := rc.submit(); err != nil {
		return err
	}
	if _, err := rc.collect(tags...); err != nil {
		return err
	}
	log.Warn().Uint64("round", round).Int("cancelled", len(targets)).Msg("abandoned in-flight operations")
	return nil
}

func (rc *roundCheck) round(round uint64) (err error) {
	accept, connect := rc.tag(round, tagAccept), rc.tag(round, tagConnect)
	addr := uring.NewAcceptAddr()

	client, err := sys.NewSocket(rc.target.Family(), syscall.SOCK_STREAM, 0)
	if err != nil {
		return err
	}
	clientOwned := true
	defer func() {
		if clientOwned {
			_ = syscall.Close(client)
		}
	}()

	if err = rc.prepare(accept, func(slot *uring.Slot) error {
		return slot.PrepareAcceptAddr(rc.lnFd, addr, syscall.SOCK_CLOEXEC)
	}); err != nil {
		return err
	}
	if err = rc.prepare(connect, func(slot *uring.Slot) error {
		return slot.PrepareConnect(client, rc.target)
	}); err != nil {
		return err
	}
	if err = rc.submit(); err != nil {
		return err
	}

	cs, err := rc.collect(accept, connect)
	if err != nil {
		return err
	}
	if err = cs[connect].Err(); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	server, err := cs[accept].Result()
	if err != nil {
		return fmt.Errorf("accept: %w", err)
	}
	serverOwned := true
	defer func() {
		if serverOwned {
			_ = syscall.Close(server)
		}
	}()

	peer, err := addr.Addr("tcp")
	if err != nil {
		return err
	}
	local, err := sys.LocalAddr("tcp", client)
	if err != nil {
		return err
	}
	if !sameTCPAddr(peer, local) {
		return fmt.Errorf("accepted peer %s does not match client %s", peer, local)
	}

	send, recv := rc.tag(round, tagSend), rc.tag(round, tagRecv)
	if err = rc.prepare(send, func(slot *uring.Slot) error {
		return slot.PrepareSend(client, rc.payload, 0)
	}); err != nil {
		return err
	}
	if err = rc.prepare(recv, func(slot *uring.Slot) error {
		return slot.PrepareRecv(server, rc.buf, syscall.MSG_WAITALL)
	}); err != nil {
		return err
	}
	if err = rc.submit(); err != nil {
		return err
	}
	if cs, err = rc.collect(send, recv); err != nil {
		return err
	}
	if _, err = cs[send].Result(); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	n, err := cs[recv].Result()
	if err != nil {
		return fmt.Errorf("recv: %w", err)
	}
	if !bytes.Equal(rc.buf[:n], rc.payload) {
		return fmt.Errorf("recv: got %d bytes, payload mismatch", n)
	}
	rc.stats.Bytes += uint64(n)

	closeServer, closeClient := rc.tag(round, tagCloseServer), rc.tag(round, tagCloseClient)
	if err = rc.prepare(closeServer, func(slot *uring.Slot) error {
		return slot.PrepareClose(server)
	}); err != nil {
		return err
	}
	serverOwned = false
	if err = rc.prepare(closeClient, func(slot *uring.Slot) error {
		return slot.PrepareClose(client)
	}); err != nil {
		return err
	}
	clientOwned = false
	if err = rc.submit(); err != nil {
		return err
	}
	if cs, err = rc.collect(closeServer, closeClient); err != nil {
		return err
	}
	for _, c := range cs {
		if err = c.Err(); err != nil {
			return fmt.Errorf("close: %w", err)
		}
	}
	log.Debug().Uint64("round", round).Stringer("peer", peer).Int("bytes", n).Msg("round done")
	return nil
}

func sameTCPAddr(a, b net.Addr) bool {
	ta, ok := a.(*net.TCPAddr)
	if !ok {
		return false
	}
	tb, ok := b.(*net.TCPAddr)
	if !ok {
		return false
	}
	return ta.Port == tb.Port && ta.IP.Equal(tb.IP)
}
