//go:build linux

package sys_test

import (
	"net"
	"syscall"
	"testing"

	"github.com/brickingsoft/uring/pkg/sys"
)

func TestListenTCP(t *testing.T) {
	sock, addr, err := sys.ListenTCP("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer syscall.Close(sock)

	tcpAddr, ok := addr.(*net.TCPAddr)
	if !ok || tcpAddr.Port == 0 {
		t.Fatal("bad local address", addr)
	}
	t.Log(addr)

	conn, dialErr := net.Dial("tcp", addr.String())
	if dialErr != nil {
		t.Fatal(dialErr)
	}
	defer conn.Close()

	nfd, _, acceptErr := syscall.Accept(sock)
	if acceptErr != nil {
		t.Fatal(acceptErr)
	}
	defer syscall.Close(nfd)

	remote, remoteErr := sys.RemoteAddr("tcp", nfd)
	if remoteErr != nil {
		t.Fatal(remoteErr)
	}
	if remote.String() != conn.LocalAddr().String() {
		t.Fatal("peer mismatch", remote, conn.LocalAddr())
	}
}

func TestMaxListenerBacklog(t *testing.T) {
	if n := sys.MaxListenerBacklog(); n <= 0 {
		t.Fatal("bad backlog", n)
	}
}
