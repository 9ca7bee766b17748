//go:build !linux

package uring

// Ring
// 仅 Linux 支持 io_uring。
type Ring struct{}

// New
// 在非 Linux 平台上总是返回 ErrUnsupported。
func New(entries uint32, options ...Option) (*Ring, error) {
	opts := defaultOptions()
	for _, option := range options {
		if err := option(&opts); err != nil {
			return nil, err
		}
	}
	return nil, newError(ErrUnsupported, errMetaOpSetup, nil)
}

func (r *Ring) Close() error {
	return newError(ErrRingClosed, errMetaOpClose, nil)
}
