//go:build linux

package process_test

import (
	"testing"

	"github.com/brickingsoft/uring/pkg/process"
)

func TestAllowsCPU(t *testing.T) {
	cpus, err := process.AllowedCPUs()
	if err != nil {
		t.Fatal(err)
	}
	if len(cpus) == 0 {
		t.Fatal("no allowed cpu")
	}
	t.Log("allowed:", cpus)

	for _, c := range []struct {
		cpu  int
		want bool
	}{
		{cpus[0], true},
		{-1, false},
		{1 << 20, false},
	} {
		ok, err := process.AllowsCPU(c.cpu)
		if err != nil {
			t.Fatal(err)
		}
		if ok != c.want {
			t.Errorf("AllowsCPU(%d) = %v, want %v", c.cpu, ok, c.want)
		}
	}
}
