package sys_test

import (
	"net"
	"net/netip"
	"syscall"
	"testing"
	"unsafe"

	"github.com/brickingsoft/uring/pkg/sys"
)

func TestResolveAddr(t *testing.T) {
	addr, family, ipv6only, err := sys.ResolveAddr("tcp", "127.0.0.1:8080")
	if err != nil {
		t.Fatal(err)
	}
	if family != syscall.AF_INET || ipv6only {
		t.Fatal("bad family", family, ipv6only)
	}
	t.Log(addr)

	_, family, ipv6only, err = sys.ResolveAddr("tcp6", "[::1]:8080")
	if err != nil {
		t.Fatal(err)
	}
	if family != syscall.AF_INET6 || !ipv6only {
		t.Fatal("bad family", family, ipv6only)
	}

	addr, family, _, err = sys.ResolveAddr("tcp", ":0")
	if err != nil {
		t.Fatal(err)
	}
	if family != syscall.AF_INET || !sys.IsWildcard(addr) {
		t.Fatal("wildcard must resolve to 0.0.0.0", addr)
	}

	if _, _, _, err = sys.ResolveAddr("sctp", "127.0.0.1:1"); err == nil {
		t.Fatal("expected error")
	}
	if _, _, _, err = sys.ResolveAddr("tcp", " "); err == nil {
		t.Fatal("expected error")
	}
}

func TestRawRoundTrip(t *testing.T) {
	cases := []string{
		"127.0.0.1:8080",
		"10.1.2.3:65535",
		"[::1]:443",
		"[2001:db8::1]:1",
	}
	for _, c := range cases {
		ap := netip.MustParseAddrPort(c)
		sa, err := sys.AddrPortToSockaddr(ap)
		if err != nil {
			t.Fatal(c, err)
		}
		var raw syscall.RawSockaddrAny
		n, err := sys.SockaddrToRawSockaddrAny(sa, &raw)
		if err != nil || n == 0 {
			t.Fatal(c, n, err)
		}
		back, err := sys.RawSockaddrAnyToSockaddr(&raw)
		if err != nil {
			t.Fatal(c, err)
		}
		got, err := sys.SockaddrToAddrPort(back)
		if err != nil {
			t.Fatal(c, err)
		}
		if got != ap {
			t.Errorf("%s: got %s", c, got)
		}
	}
}

func TestRawPortByteOrder(t *testing.T) {
	var raw syscall.RawSockaddrAny
	sys.SockaddrInet4ToRawSockaddrAny(&syscall.SockaddrInet4{Port: 0x1F90, Addr: [4]byte{127, 0, 0, 1}}, &raw)
	raw4 := (*syscall.RawSockaddrInet4)(unsafe.Pointer(&raw))
	port := (*[2]byte)(unsafe.Pointer(&raw4.Port))
	if port[0] != 0x1F || port[1] != 0x90 {
		t.Fatal("port must be big endian", port[0], port[1])
	}
	if raw4.Addr != [4]byte{127, 0, 0, 1} {
		t.Fatal("bad address", raw4.Addr)
	}
}

func TestUnixRoundTrip(t *testing.T) {
	for _, name := range []string{"/tmp/uring.sock", "@abstract"} {
		var raw syscall.RawSockaddrAny
		if _, err := sys.SockaddrToRawSockaddrAny(&syscall.SockaddrUnix{Name: name}, &raw); err != nil {
			t.Fatal(err)
		}
		sa, err := sys.RawSockaddrAnyToSockaddr(&raw)
		if err != nil {
			t.Fatal(err)
		}
		if got := sa.(*syscall.SockaddrUnix).Name; got != name {
			t.Fatalf("got %q, want %q", got, name)
		}
	}
}

func TestAddrToSockaddr(t *testing.T) {
	sa, err := sys.AddrToSockaddr(&net.TCPAddr{IP: net.IPv4(192, 168, 0, 1), Port: 80})
	if err != nil {
		t.Fatal(err)
	}
	sa4, ok := sa.(*syscall.SockaddrInet4)
	if !ok || sa4.Port != 80 || sa4.Addr != [4]byte{192, 168, 0, 1} {
		t.Fatal("bad sockaddr", sa)
	}
	addr := sys.SockaddrToAddr("tcp", sa)
	if addr.String() != "192.168.0.1:80" {
		t.Fatal("bad addr", addr)
	}
	if _, err = sys.AddrToSockaddr(&net.IPAddr{}); err == nil {
		t.Fatal("expected error")
	}
}
