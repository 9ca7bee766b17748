package sys

import (
	"encoding/binary"
	"net"
	"net/netip"
	"strings"
	"syscall"
	"unsafe"

	"github.com/brickingsoft/errors"
)

var (
	ErrInvalidAddress = errors.Define("address is invalid")
	ErrInvalidNetwork = errors.Define("network is invalid")
)

// ResolveAddr
// 解析 tcp、udp 与 unix 地址，返回地址族。
func ResolveAddr(network string, address string) (addr net.Addr, family int, ipv6only bool, err error) {
	address = strings.TrimSpace(address)
	if address == "" {
		err = ErrInvalidAddress
		return
	}
	ipv6only = strings.HasSuffix(network, "6")
	switch network {
	case "tcp", "tcp4", "tcp6":
		a, resolveErr := net.ResolveTCPAddr(network, address)
		if resolveErr != nil {
			err = errors.New("resolve tcp address failed", errors.WithWrap(resolveErr))
			return
		}
		a.IP, family, err = ipFamily(a.IP, ipv6only)
		addr = a
	case "udp", "udp4", "udp6":
		a, resolveErr := net.ResolveUDPAddr(network, address)
		if resolveErr != nil {
			err = errors.New("resolve udp address failed", errors.WithWrap(resolveErr))
			return
		}
		a.IP, family, err = ipFamily(a.IP, ipv6only)
		addr = a
	case "unix", "unixgram", "unixpacket":
		family = syscall.AF_UNIX
		addr, err = net.ResolveUnixAddr(network, address)
	default:
		err = ErrInvalidNetwork
	}
	return
}

func ipFamily(ip net.IP, ipv6only bool) (net.IP, int, error) {
	if !ipv6only && ip.To4() != nil {
		ip = ip.To4()
	}
	switch len(ip) {
	case net.IPv4len:
		return ip, syscall.AF_INET, nil
	case net.IPv6len:
		return ip, syscall.AF_INET6, nil
	case 0:
		if ipv6only {
			return net.IPv6zero, syscall.AF_INET6, nil
		}
		return net.IPv4zero.To4(), syscall.AF_INET, nil
	default:
		return nil, 0, ErrInvalidAddress
	}
}

func zoneIndex(zone string) uint32 {
	if zone == "" {
		return 0
	}
	if ifi, ifiErr := net.InterfaceByName(zone); ifiErr == nil {
		return uint32(ifi.Index)
	}
	return 0
}

func zoneName(index uint32) string {
	if index == 0 {
		return ""
	}
	if ifi, err := net.InterfaceByIndex(int(index)); err == nil {
		return ifi.Name
	}
	return ""
}

func AddrToSockaddr(a net.Addr) (sa syscall.Sockaddr, err error) {
	switch addr := a.(type) {
	case *net.TCPAddr:
		return ipToSockaddr(addr.IP, addr.Port, addr.Zone)
	case *net.UDPAddr:
		return ipToSockaddr(addr.IP, addr.Port, addr.Zone)
	case *net.UnixAddr:
		return &syscall.SockaddrUnix{Name: addr.Name}, nil
	default:
		return nil, ErrInvalidAddress
	}
}

func ipToSockaddr(ip net.IP, port int, zone string) (syscall.Sockaddr, error) {
	if ip4 := ip.To4(); ip4 != nil {
		sa4 := &syscall.SockaddrInet4{Port: port}
		copy(sa4.Addr[:], ip4)
		return sa4, nil
	}
	if len(ip) == net.IPv6len {
		sa6 := &syscall.SockaddrInet6{Port: port, ZoneId: zoneIndex(zone)}
		copy(sa6.Addr[:], ip)
		return sa6, nil
	}
	if len(ip) == 0 {
		return &syscall.SockaddrInet4{Port: port}, nil
	}
	return nil, ErrInvalidAddress
}

func AddrPortToSockaddr(ap netip.AddrPort) (syscall.Sockaddr, error) {
	addr := ap.Addr()
	if !addr.IsValid() {
		return nil, &net.AddrError{Err: "invalid address", Addr: ap.String()}
	}
	if addr.Is4() {
		return &syscall.SockaddrInet4{Addr: addr.As4(), Port: int(ap.Port())}, nil
	}
	return &syscall.SockaddrInet6{
		Addr:   addr.As16(),
		Port:   int(ap.Port()),
		ZoneId: zoneIndex(addr.Zone()),
	}, nil
}

func SockaddrToAddr(network string, sa syscall.Sockaddr) (addr net.Addr) {
	switch sa := sa.(type) {
	case *syscall.SockaddrInet4:
		switch network {
		case "udp", "udp4", "udp6":
			addr = &net.UDPAddr{IP: append(net.IP{}, sa.Addr[:]...), Port: sa.Port}
		default:
			addr = &net.TCPAddr{IP: append(net.IP{}, sa.Addr[:]...), Port: sa.Port}
		}
	case *syscall.SockaddrInet6:
		zone := zoneName(sa.ZoneId)
		switch network {
		case "udp", "udp4", "udp6":
			addr = &net.UDPAddr{IP: append(net.IP{}, sa.Addr[:]...), Port: sa.Port, Zone: zone}
		default:
			addr = &net.TCPAddr{IP: append(net.IP{}, sa.Addr[:]...), Port: sa.Port, Zone: zone}
		}
	case *syscall.SockaddrUnix:
		addr = &net.UnixAddr{Net: network, Name: sa.Name}
	}
	return
}

// SockaddrToAddrPort
// 仅支持 IPv4 与 IPv6，IPv6 的 scope id 转为 zone。
func SockaddrToAddrPort(sa syscall.Sockaddr) (netip.AddrPort, error) {
	switch sa := sa.(type) {
	case *syscall.SockaddrInet4:
		return netip.AddrPortFrom(netip.AddrFrom4(sa.Addr), uint16(sa.Port)), nil
	case *syscall.SockaddrInet6:
		addr := netip.AddrFrom16(sa.Addr)
		if zone := zoneName(sa.ZoneId); zone != "" {
			addr = addr.WithZone(zone)
		}
		return netip.AddrPortFrom(addr, uint16(sa.Port)), nil
	default:
		return netip.AddrPort{}, syscall.EAFNOSUPPORT
	}
}

// RawSockaddrAnyToSockaddr
// 端口以网络字节序存放。
func RawSockaddrAnyToSockaddr(rsa *syscall.RawSockaddrAny) (syscall.Sockaddr, error) {
	switch rsa.Addr.Family {
	case syscall.AF_INET:
		pp := (*syscall.RawSockaddrInet4)(unsafe.Pointer(rsa))
		sa := new(syscall.SockaddrInet4)
		sa.Port = int(binary.BigEndian.Uint16((*[2]byte)(unsafe.Pointer(&pp.Port))[:]))
		sa.Addr = pp.Addr
		return sa, nil
	case syscall.AF_INET6:
		pp := (*syscall.RawSockaddrInet6)(unsafe.Pointer(rsa))
		sa := new(syscall.SockaddrInet6)
		sa.Port = int(binary.BigEndian.Uint16((*[2]byte)(unsafe.Pointer(&pp.Port))[:]))
		sa.ZoneId = pp.Scope_id
		sa.Addr = pp.Addr
		return sa, nil
	case syscall.AF_UNIX:
		pp := (*syscall.RawSockaddrUnix)(unsafe.Pointer(rsa))
		sa := new(syscall.SockaddrUnix)
		path := (*[len(pp.Path)]byte)(unsafe.Pointer(&pp.Path[0]))
		// 抽象地址以 NUL 开头，按惯例显示为 @。
		start := 0
		if path[0] == 0 {
			start = 1
		}
		n := start
		for n < len(path) && path[n] != 0 {
			n++
		}
		if start == 1 && n > 1 {
			sa.Name = "@" + string(path[1:n])
		} else {
			sa.Name = string(path[start:n])
		}
		return sa, nil
	}
	return nil, syscall.EAFNOSUPPORT
}

func SockaddrInet4ToRawSockaddrAny(sa *syscall.SockaddrInet4, name *syscall.RawSockaddrAny) (nameLen uint32) {
	*name = syscall.RawSockaddrAny{}
	raw := (*syscall.RawSockaddrInet4)(unsafe.Pointer(name))
	raw.Family = syscall.AF_INET
	binary.BigEndian.PutUint16((*[2]byte)(unsafe.Pointer(&raw.Port))[:], uint16(sa.Port))
	raw.Addr = sa.Addr
	return uint32(unsafe.Sizeof(*raw))
}

func SockaddrInet6ToRawSockaddrAny(sa *syscall.SockaddrInet6, name *syscall.RawSockaddrAny) (nameLen uint32) {
	*name = syscall.RawSockaddrAny{}
	raw := (*syscall.RawSockaddrInet6)(unsafe.Pointer(name))
	raw.Family = syscall.AF_INET6
	binary.BigEndian.PutUint16((*[2]byte)(unsafe.Pointer(&raw.Port))[:], uint16(sa.Port))
	raw.Scope_id = sa.ZoneId
	raw.Addr = sa.Addr
	return uint32(unsafe.Sizeof(*raw))
}

func SockaddrUnixToRawSockaddrAny(sa *syscall.SockaddrUnix, name *syscall.RawSockaddrAny) (nameLen uint32, err error) {
	*name = syscall.RawSockaddrAny{}
	raw := (*syscall.RawSockaddrUnix)(unsafe.Pointer(name))
	if len(sa.Name) >= len(raw.Path) {
		err = syscall.EINVAL
		return
	}
	raw.Family = syscall.AF_UNIX
	path := (*[len(raw.Path)]byte)(unsafe.Pointer(&raw.Path[0]))
	copy(path[:], sa.Name)
	if len(sa.Name) > 0 && sa.Name[0] == '@' {
		path[0] = 0
		nameLen = uint32(unsafe.Offsetof(raw.Path)) + uint32(len(sa.Name))
		return
	}
	nameLen = uint32(unsafe.Offsetof(raw.Path)) + uint32(len(sa.Name)) + 1
	return
}

// SockaddrToRawSockaddrAny
// 将地址编码到 name 中，返回有效长度。
func SockaddrToRawSockaddrAny(sa syscall.Sockaddr, name *syscall.RawSockaddrAny) (nameLen uint32, err error) {
	switch s := sa.(type) {
	case *syscall.SockaddrInet4:
		nameLen = SockaddrInet4ToRawSockaddrAny(s, name)
	case *syscall.SockaddrInet6:
		nameLen = SockaddrInet6ToRawSockaddrAny(s, name)
	case *syscall.SockaddrUnix:
		nameLen, err = SockaddrUnixToRawSockaddrAny(s, name)
	default:
		err = syscall.EAFNOSUPPORT
	}
	return
}

func IsWildcard(addr net.Addr) bool {
	if addr == nil {
		return true
	}
	switch a := addr.(type) {
	case *net.TCPAddr:
		return a.IP == nil || a.IP.IsUnspecified()
	case *net.UDPAddr:
		return a.IP == nil || a.IP.IsUnspecified()
	case *net.UnixAddr:
		return a.Name == ""
	default:
		return false
	}
}

func LoopbackIP(network string) net.IP {
	if network != "" && network[len(network)-1] == '6' {
		return net.IPv6loopback
	}
	return net.IP{127, 0, 0, 1}
}
