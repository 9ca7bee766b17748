package liburing_test

import (
	"testing"

	"github.com/brickingsoft/uring/pkg/liburing"
)

func TestRoundupPow2(t *testing.T) {
	cases := map[uint32]uint32{0: 1, 1: 1, 2: 2, 3: 4, 5: 8, 1000: 1024, 4096: 4096}
	for in, want := range cases {
		if got := liburing.RoundupPow2(in); got != want {
			t.Errorf("RoundupPow2(%d) = %d, want %d", in, got, want)
		}
	}
}
