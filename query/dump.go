package query

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mdlayher/netlink"

	"github.com/scitags/nftnl/nlmsg"
)

// Request describes a dump: the get message kind along with the family and
// the encoded attributes of a filter object narrowing the result.
type Request struct {
	Kind   uint16
	Family uint8
	Filter []byte
}

// Message frames the request with the given sequence number.
func (r Request) Message(seq uint32) []byte {
	return nlmsg.Marshal(
		netlink.Header{
			Type:     netlink.HeaderType(nlmsg.Type(r.Kind)),
			Flags:    netlink.Request | netlink.Dump,
			Sequence: seq,
		},
		nlmsg.Nfgenmsg{Family: r.Family, Version: nlmsg.Version},
		r.Filter,
	)
}

// Dump issues r over sock and hands every returned object to h. When the
// kernel flags the dump as interrupted it is started over: reset, if not
// nil, is called first so that h's accumulator can be emptied.
func Dump(sock Socket, r Request, h Handler, reset func(), conf *Config) error {
	return dump(sock.Send, sock.Receive, sock.PortID(), r, h, reset, conf)
}

// DumpContext is Dump waiting on the socket through ctx.
func DumpContext(ctx context.Context, sock ContextSocket, r Request, h Handler, reset func(), conf *Config) error {
	send := func(b []byte) (int, error) { return sock.SendContext(ctx, b) }
	recv := func(b []byte) (int, error) { return sock.ReceiveContext(ctx, b) }
	return dump(send, recv, sock.PortID(), r, h, reset, conf)
}

func dump(send, recv ioFunc, portID uint32, r Request, h Handler, reset func(), conf *Config) error {
	if conf == nil {
		conf = &DefaultConfig
	}

	for attempt := 0; ; attempt++ {
		s := newSession(conf, nlmsg.NextSequence(), portID)
		s.handler = h

		slog.Debug("dumping", "kind", nlmsg.KindName(r.Kind), "family", r.Family, "seq", s.seq, "attempt", attempt)

		err := s.run(send, recv, r.Message(s.seq))
		if !errors.Is(err, ErrDumpInterrupted) {
			return err
		}
		if attempt >= conf.DumpRetries {
			return err
		}
		if reset != nil {
			reset()
		}
	}
}

// Decoder turns a data message into an object.
type Decoder[T any] func(h netlink.Header, g nlmsg.Nfgenmsg, attrs []byte) (T, error)

// Collect dumps r and decodes every object, in arrival order.
func Collect[T any](sock Socket, r Request, dec Decoder[T], conf *Config) ([]T, error) {
	var out []T
	h, reset := collector(&out, dec)
	if err := Dump(sock, r, h, reset, conf); err != nil {
		return nil, err
	}
	return out, nil
}

// CollectContext is Collect waiting on the socket through ctx.
func CollectContext[T any](ctx context.Context, sock ContextSocket, r Request, dec Decoder[T], conf *Config) ([]T, error) {
	var out []T
	h, reset := collector(&out, dec)
	if err := DumpContext(ctx, sock, r, h, reset, conf); err != nil {
		return nil, err
	}
	return out, nil
}

func collector[T any](out *[]T, dec Decoder[T]) (Handler, func()) {
	h := func(hdr netlink.Header, g nlmsg.Nfgenmsg, attrs []byte) error {
		v, err := dec(hdr, g, attrs)
		if err != nil {
			return err
		}
		*out = append(*out, v)
		return nil
	}
	return h, func() { *out = nil }
}
