package nftnl

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Family is the address family objects are scoped to.
type Family uint8

const (
	FamilyUnspecified Family = unix.NFPROTO_UNSPEC
	FamilyInet        Family = unix.NFPROTO_INET
	FamilyIPv4        Family = unix.NFPROTO_IPV4
	FamilyARP         Family = unix.NFPROTO_ARP
	FamilyNetdev      Family = unix.NFPROTO_NETDEV
	FamilyBridge      Family = unix.NFPROTO_BRIDGE
	FamilyIPv6        Family = unix.NFPROTO_IPV6
)

// Families lists every family in the order `nft list ruleset` walks them.
var Families = []Family{FamilyIPv4, FamilyIPv6, FamilyInet, FamilyARP, FamilyBridge, FamilyNetdev}

// The names are the ones nft(8) uses.
var familyNames = map[Family]string{
	FamilyUnspecified: "unspec",
	FamilyInet:        "inet",
	FamilyIPv4:        "ip",
	FamilyARP:         "arp",
	FamilyNetdev:      "netdev",
	FamilyBridge:      "bridge",
	FamilyIPv6:        "ip6",
}

func (f Family) Valid() bool {
	_, ok := familyNames[f]
	return ok
}

func (f Family) String() string {
	if n, ok := familyNames[f]; ok {
		return n
	}
	return fmt.Sprintf("family(%d)", uint8(f))
}

// ParseFamily is the inverse of String.
func ParseFamily(s string) (Family, error) {
	for f, n := range familyNames {
		if n == s {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown family %q", s)
}

func (f Family) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *Family) UnmarshalText(b []byte) error {
	p, err := ParseFamily(string(b))
	if err != nil {
		return err
	}
	*f = p
	return nil
}
