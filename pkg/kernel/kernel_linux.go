//go:build linux

package kernel

import (
	"bytes"
	"sync"

	"golang.org/x/sys/unix"
)

var (
	version     Version
	versionErr  error
	versionOnce sync.Once
)

func Get() (Version, error) {
	versionOnce.Do(func() {
		uts := unix.Utsname{}
		if err := unix.Uname(&uts); err != nil {
			versionErr = err
			return
		}
		n := bytes.IndexByte(uts.Release[:], 0)
		if n < 0 {
			n = len(uts.Release)
		}
		version, versionErr = Parse(string(uts.Release[:n]))
	})
	return version, versionErr
}
