// Package nltest provides a scripted in-memory netlink socket along with
// helpers crafting the kernel's side of a conversation.
package nltest

import (
	"context"
	"sync"

	"github.com/mdlayher/netlink"
	"github.com/mdlayher/netlink/nlenc"
	"golang.org/x/sys/unix"

	"github.com/scitags/nftnl/nlmsg"
)

// Socket replays the datagrams Reply produces for each request it is sent.
// It satisfies both query.Socket and query.ContextSocket.
type Socket struct {
	PID uint32

	// Reply returns the datagrams answering req, in order.
	Reply func(req []byte) [][]byte

	// Short makes sends accept one byte less than asked.
	Short bool

	mu     sync.Mutex
	sent   [][]byte
	queue  [][]byte
	closed bool
}

func (s *Socket) PortID() uint32 { return s.PID }

func (s *Socket) Send(b []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sent = append(s.sent, append([]byte(nil), b...))
	if s.Reply != nil {
		s.queue = append(s.queue, s.Reply(b)...)
	}
	if s.Short {
		return len(b) - 1, nil
	}
	return len(b), nil
}

// Receive pops the next datagram. An empty queue reads as zero bytes.
func (s *Socket) Receive(b []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) == 0 {
		return 0, nil
	}
	d := s.queue[0]
	s.queue = s.queue[1:]
	return copy(b, d), nil
}

func (s *Socket) SendContext(ctx context.Context, b []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.Send(b)
}

func (s *Socket) ReceiveContext(ctx context.Context, b []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.Receive(b)
}

func (s *Socket) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Socket) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Sent returns a copy of everything sent so far.
func (s *Socket) Sent() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.sent...)
}

// Seq is the sequence number of the first message in req.
func Seq(req []byte) uint32 {
	return nlenc.Uint32(req[8:12])
}

// Data is an nf_tables message of the given kind as the kernel sends it.
func Data(seq, pid uint32, kind uint16, flags netlink.HeaderFlags, family uint8, attrs []byte) []byte {
	return nlmsg.Marshal(
		netlink.Header{Type: netlink.HeaderType(nlmsg.Type(kind)), Flags: flags | netlink.Multi, Sequence: seq, PID: pid},
		nlmsg.Nfgenmsg{Family: family, Version: nlmsg.Version},
		attrs,
	)
}

func control(typ netlink.HeaderType, flags netlink.HeaderFlags, seq, pid uint32, payload []byte) []byte {
	b := make([]byte, nlmsg.HeaderLen, nlmsg.HeaderLen+len(payload))
	nlenc.PutUint32(b[0:4], uint32(nlmsg.HeaderLen+len(payload)))
	nlenc.PutUint16(b[4:6], uint16(typ))
	nlenc.PutUint16(b[6:8], uint16(flags))
	nlenc.PutUint32(b[8:12], seq)
	nlenc.PutUint32(b[12:16], pid)
	return append(b, payload...)
}

// Done ends a dump.
func Done(seq, pid uint32, flags netlink.HeaderFlags) []byte {
	return control(netlink.Done, flags|netlink.Multi, seq, pid, make([]byte, 4))
}

// Noop is a message the kernel expects us to ignore.
func Noop(seq, pid uint32) []byte {
	return control(netlink.Noop, 0, seq, pid, nil)
}

// Error reports errno for a request of the given kind. A zero errno is an
// acknowledgement.
func Error(seq, pid uint32, kind uint16, errno unix.Errno) []byte {
	payload := make([]byte, 4)
	nlenc.PutInt32(payload, -int32(errno))
	req := control(netlink.HeaderType(nlmsg.Type(kind)), netlink.Request|netlink.Acknowledge, seq, pid, nil)
	return control(netlink.Error, netlink.Capped, seq, pid, append(payload, req...))
}

// Ack acknowledges a request of the given kind.
func Ack(seq, pid uint32, kind uint16) []byte {
	return Error(seq, pid, kind, 0)
}

// Datagram concatenates messages into a single read.
func Datagram(msgs ...[]byte) []byte {
	var b []byte
	for _, m := range msgs {
		b = append(b, m...)
	}
	return b
}
