// Package nlattr implements the netlink type-length-value attribute codec
// used by every nf_tables message. It only frames bytes: the byte order of
// the payloads is chosen by the callers.
package nlattr

import (
	"errors"
	"fmt"

	"github.com/mdlayher/netlink/nlenc"
	"golang.org/x/sys/unix"
)

const (
	// HeaderLen is the size of the length and type words preceding a payload.
	HeaderLen = 4

	// Alignment of every attribute within its container.
	Alignment = 4

	// Nested is the flag marking an attribute whose payload holds attributes.
	Nested uint16 = unix.NLA_F_NESTED

	// NetByteOrder is the (largely unused) flag marking a big-endian payload.
	NetByteOrder uint16 = unix.NLA_F_NET_BYTEORDER

	// TypeMask strips the flags off an attribute type.
	TypeMask uint16 = ^(Nested | NetByteOrder)

	maxLen = 0xffff
)

// ErrAttributeTooLarge is returned when an attribute would not fit in the
// 16 bit length word of its header.
var ErrAttributeTooLarge = errors.New("nlattr: attribute exceeds 65535 bytes")

// DecodeError reports a malformed attribute stream.
type DecodeError struct {
	Offset int
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("nlattr: malformed attribute at offset %d: %s", e.Offset, e.Reason)
}

// Align rounds n up to the attribute alignment.
func Align(n int) int {
	return (n + Alignment - 1) &^ (Alignment - 1)
}

func putHeader(b []byte, length int, typ uint16) {
	nlenc.PutUint16(b[0:2], uint16(length))
	nlenc.PutUint16(b[2:4], typ)
}
