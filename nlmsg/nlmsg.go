// Package nlmsg frames nfnetlink messages: the netlink header, the nfgenmsg
// header and the attributes following them. It also classifies what the
// kernel sends back.
package nlmsg

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/mdlayher/netlink"
	"github.com/mdlayher/netlink/nlenc"
)

// MaxSize is the receive buffer size large enough for any datagram the
// kernel will hand us.
func MaxSize() int {
	return 0xffff + os.Getpagesize()
}

// Nfgenmsg is the header every nfnetlink message carries after the netlink
// one. ResourceID travels in network order.
type Nfgenmsg struct {
	Family     uint8
	Version    uint8
	ResourceID uint16
}

func (g Nfgenmsg) appendTo(b []byte) []byte {
	b = append(b, g.Family, g.Version, 0, 0)
	binary.BigEndian.PutUint16(b[len(b)-2:], g.ResourceID)
	return b
}

// ParseNfgenmsg decodes the nfgenmsg header at the start of b.
func ParseNfgenmsg(b []byte) (Nfgenmsg, error) {
	if len(b) < NfgenmsgLen {
		return Nfgenmsg{}, &DecodeError{Reason: fmt.Sprintf("nfgenmsg short read (%d); want %d", len(b), NfgenmsgLen)}
	}
	return Nfgenmsg{
		Family:     b[0],
		Version:    b[1],
		ResourceID: binary.BigEndian.Uint16(b[2:4]),
	}, nil
}

// Append writes a complete message to b: the netlink header, the nfgenmsg
// header and the already encoded attributes. The message length in h is
// computed here and anything set by the caller is ignored.
func Append(b []byte, h netlink.Header, g Nfgenmsg, attrs []byte) []byte {
	length := HeaderLen + NfgenmsgLen + len(attrs)

	start := len(b)
	b = append(b, make([]byte, HeaderLen)...)
	hdr := b[start:]
	nlenc.PutUint32(hdr[0:4], uint32(length))
	nlenc.PutUint16(hdr[4:6], uint16(h.Type))
	nlenc.PutUint16(hdr[6:8], uint16(h.Flags))
	nlenc.PutUint32(hdr[8:12], h.Sequence)
	nlenc.PutUint32(hdr[12:16], h.PID)

	b = g.appendTo(b)
	b = append(b, attrs...)

	for pad := align(length) - length; pad > 0; pad-- {
		b = append(b, 0)
	}
	return b
}

// Marshal is Append on an empty buffer.
func Marshal(h netlink.Header, g Nfgenmsg, attrs []byte) []byte {
	return Append(nil, h, g, attrs)
}

// Message is a raw netlink message. Data is everything past the netlink
// header and aliases the receive buffer.
type Message struct {
	Header netlink.Header
	Data   []byte
}

// Next splits the first message off b and returns it along with the rest of
// the buffer.
func Next(b []byte) (Message, []byte, error) {
	if len(b) < HeaderLen {
		return Message{}, nil, &DecodeError{Reason: fmt.Sprintf("header short read (%d); want %d", len(b), HeaderLen)}
	}

	h := parseHeader(b)
	length := int(h.Length)
	if length < HeaderLen || length > len(b) {
		return Message{}, nil, &DecodeError{Header: h, Reason: fmt.Sprintf("bad message length %d in a %d byte buffer", length, len(b))}
	}

	m := Message{Header: h, Data: b[HeaderLen:length]}

	// The last message of a datagram may come unpadded.
	next := align(length)
	if next > len(b) {
		next = len(b)
	}
	return m, b[next:], nil
}

// Split decodes every message held in a single datagram.
func Split(b []byte) ([]Message, error) {
	var msgs []Message
	for len(b) > 0 {
		m, rest, err := Next(b)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
		b = rest
	}
	return msgs, nil
}

func parseHeader(b []byte) netlink.Header {
	return netlink.Header{
		Length:   nlenc.Uint32(b[0:4]),
		Type:     netlink.HeaderType(nlenc.Uint16(b[4:6])),
		Flags:    netlink.HeaderFlags(nlenc.Uint16(b[6:8])),
		Sequence: nlenc.Uint32(b[8:12]),
		PID:      nlenc.Uint32(b[12:16]),
	}
}

func align(n int) int {
	return (n + 3) &^ 3
}

// Class tells apart what a received message means to a pending request.
type Class int

const (
	ClassData Class = iota
	ClassDone
	ClassError
	ClassNoop
	ClassOverrun
	ClassControl
)

// Classify inspects the type of a message.
func Classify(h netlink.Header) Class {
	switch h.Type {
	case netlink.Done:
		return ClassDone
	case netlink.Error:
		return ClassError
	case netlink.Noop:
		return ClassNoop
	case netlink.Overrun:
		return ClassOverrun
	}
	if h.Type < minType {
		return ClassControl
	}
	return ClassData
}

var seq atomic.Uint32

func init() {
	seq.Store(uint32(time.Now().Unix()))
}

// NextSequence hands out process wide sequence numbers.
func NextSequence() uint32 {
	return seq.Add(1)
}
