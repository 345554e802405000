package expr

import (
	"errors"
	"fmt"
	"net/netip"

	"github.com/scitags/nftnl/nlattr"
)

// IfNameLen is the size of interface name operands, IFNAMSIZ.
const IfNameLen = 16

var (
	ErrIfName  = errors.New("expr: interface name longer than 15 bytes")
	ErrNotIPv4 = errors.New("expr: not an IPv4 address")
)

// Operands mirror what the matching load puts in a register: packet fields
// arrive in network order while kernel side values such as interface
// indices and marks are in host order.

// Port is a transport port as read out of the packet.
func Port(p uint16) []byte {
	return netUint16(p)
}

// Proto is an IP protocol number as loaded by meta l4proto.
func Proto(p uint8) []byte {
	return []byte{p}
}

// EtherType is a layer 3 protocol as loaded by meta protocol.
func EtherType(t uint16) []byte {
	return netUint16(t)
}

// IfIndex is an interface index as loaded by meta iif/oif.
func IfIndex(idx uint32) []byte {
	return hostUint32(idx)
}

// Mark is a packet or conntrack mark.
func Mark(m uint32) []byte {
	return hostUint32(m)
}

// CtStateBits is a conntrack state bitmask such as CtStateEstablished.
func CtStateBits(bits uint32) []byte {
	return hostUint32(bits)
}

// IfName pads an interface name to IFNAMSIZ as loaded by meta iifname.
func IfName(name string) ([]byte, error) {
	if len(name) >= IfNameLen {
		return nil, ErrIfName
	}
	b := make([]byte, IfNameLen)
	copy(b, name)
	return b, nil
}

// Addr is the raw form of an address: 4 bytes for IPv4 (including mapped
// addresses) and 16 for IPv6.
func Addr(a netip.Addr) []byte {
	if a.Is4() || a.Is4In6() {
		b := a.Unmap().As4()
		return b[:]
	}
	return IPv6(a)
}

func netUint16(v uint16) []byte {
	b := make([]byte, 2)
	nlattr.NativeEndian.PutUint16(b, nlattr.Htons(v))
	return b
}

func hostUint32(v uint32) []byte {
	b := make([]byte, 4)
	nlattr.NativeEndian.PutUint32(b, v)
	return b
}

// IPv4 is the 4 byte form of an IPv4 (or IPv4-mapped) address. Use Addr
// for addresses of either family.
func IPv4(a netip.Addr) ([]byte, error) {
	a = a.Unmap()
	if !a.Is4() {
		return nil, fmt.Errorf("%w: %v", ErrNotIPv4, a)
	}
	b := a.As4()
	return b[:], nil
}

// IPv6 is the 16 byte form of an address.
func IPv6(a netip.Addr) []byte {
	b := a.As16()
	return b[:]
}
