//go:build !linux

package kernel

func Get() (Version, error) {
	return Version{}, ErrUnknownVersion
}
