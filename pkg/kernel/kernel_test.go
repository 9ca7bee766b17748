package kernel_test

import (
	"testing"

	"github.com/brickingsoft/uring/pkg/kernel"
)

func TestGet(t *testing.T) {
	v, err := kernel.Get()
	if err != nil {
		t.Skip(err)
	}
	t.Log(v)
	if !v.GTE(v.Kernel, v.Major, v.Minor) {
		t.Fatal("version must be >= itself")
	}
}

func TestParse(t *testing.T) {
	cases := []struct {
		release string
		want    kernel.Version
	}{
		{"6.8.0-45-generic", kernel.Version{Kernel: 6, Major: 8, Minor: 0, Flavor: "-45-generic"}},
		{"5.15.167.4-microsoft-standard-WSL2", kernel.Version{Kernel: 5, Major: 15, Minor: 167, Flavor: ".4-microsoft-standard-WSL2"}},
		{"6.1.0", kernel.Version{Kernel: 6, Major: 1, Minor: 0}},
		{"6.10-rc1", kernel.Version{Kernel: 6, Major: 10, Flavor: "-rc1"}},
	}
	for _, c := range cases {
		v, err := kernel.Parse(c.release)
		if err != nil {
			t.Fatal(c.release, err)
		}
		if v != c.want {
			t.Errorf("%s: got %+v, want %+v", c.release, v, c.want)
		}
	}
	if _, err := kernel.Parse("linux"); err == nil {
		t.Fatal("expected error")
	}
}

func TestCompare(t *testing.T) {
	a := kernel.Version{Kernel: 5, Major: 19}
	b := kernel.Version{Kernel: 6, Major: 1}
	if kernel.Compare(a, b) != -1 || kernel.Compare(b, a) != 1 || kernel.Compare(a, a) != 0 {
		t.Fatal("bad compare")
	}
	if !b.GTE(5, 19, 0) || a.GTE(6, 0, 0) {
		t.Fatal("bad GTE")
	}
}
