package nlattr

import (
	"encoding/binary"

	"github.com/josharian/native"
)

// Attribute headers are always in host order. Payloads are whatever the
// kernel expects for the given field: most nf_tables scalars travel in
// network order while register numbers in hooks and a few others do not.
var (
	BigEndian    binary.ByteOrder = binary.BigEndian
	NativeEndian binary.ByteOrder = native.Endian
)

// Htons converts a port number to the value the kernel compares against
// when reading it straight out of a packet.
func Htons(in uint16) uint16 {
	if !native.IsBigEndian {
		return uint16((in&0xFF)<<8) | uint16((in>>8)&0xFF)
	}
	return in
}
