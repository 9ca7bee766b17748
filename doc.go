// Package uring provides a thin, checked layer over the Linux io_uring
// submission and completion rings.
//
// A Ring owns the kernel-shared queues. Slots are acquired from its
// SubmissionQueue, stamped by one of the Prepare methods, tagged with
// SetUserData and handed to the kernel in batches by Submit. Results are
// harvested with WaitForCompletion or PeekCompletion and matched to their
// requests by tag, since the kernel may complete operations out of order.
//
// Memory the kernel reads or writes after Submit (an AcceptAddr, a connect
// SockAddr, read and write buffers, timeout specs) is pinned and tracked by
// tag until its completion is retired. An AcceptAddr becomes readable only
// once that completion has been observed and succeeded.
//
// The Ring does no internal locking: acquiring slots, submitting and
// harvesting completions must be serialized by the caller.
//
//	ring, err := uring.New(8)
//	if err != nil {
//		return err
//	}
//	defer ring.Close()
//
//	slot, err := ring.SubmissionQueue().AcquireSlot()
//	if err != nil {
//		return err
//	}
//	_ = slot.PrepareAccept(listenFd, 0)
//	_ = slot.SetUserData(1)
//	if _, err = ring.SubmissionQueue().Submit(); err != nil {
//		return err
//	}
//	c, err := ring.WaitForCompletion()
//	if err != nil {
//		return err
//	}
//	connFd, err := c.Result()
package uring
