// Package query drives request/response exchanges with the kernel: dumps
// enumerating objects and batches waiting for their acknowledgements. The
// blocking and context flavours share a single receive loop.
package query

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mdlayher/netlink"

	"github.com/scitags/nftnl/nlmsg"
	"github.com/scitags/nftnl/nlsock"
)

// LevelTrace is below debug and dumps every datagram in hex.
const LevelTrace = slog.Level(slog.LevelDebug - 1)

// ErrDumpInterrupted is returned when the kernel kept flagging a dump as
// inconsistent after all restarts were used up.
var ErrDumpInterrupted = errors.New("query: dump interrupted")

// Socket is a blocking datagram socket.
type Socket interface {
	Send(b []byte) (int, error)
	Receive(b []byte) (int, error)
	PortID() uint32
}

// ContextSocket is a socket whose calls give up once the context is done.
type ContextSocket interface {
	SendContext(ctx context.Context, b []byte) (int, error)
	ReceiveContext(ctx context.Context, b []byte) (int, error)
	PortID() uint32
}

// Handler consumes a data message belonging to the exchange.
type Handler func(h netlink.Header, g nlmsg.Nfgenmsg, attrs []byte) error

type ioFunc func(b []byte) (int, error)

type state int

const (
	stateIdle state = iota
	stateRequestSent
	stateReceiving
	stateDone
	stateErrored
)

func (s state) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateRequestSent:
		return "request-sent"
	case stateReceiving:
		return "receiving"
	case stateDone:
		return "done"
	case stateErrored:
		return "errored"
	}
	return "unknown"
}

// session follows a single request until the kernel is done answering it.
// Only messages carrying our sequence number and port id are considered.
type session struct {
	seq    uint32
	portID uint32
	state  state
	buf    []byte

	handler Handler

	// expectAcks ends the session after that many acknowledgements
	// instead of waiting for a done message.
	expectAcks int
	acks       int

	interrupted bool
}

func newSession(conf *Config, seq, portID uint32) *session {
	size := conf.BufferSize
	if size <= 0 {
		size = nlmsg.MaxSize()
	}
	return &session{seq: seq, portID: portID, buf: make([]byte, size)}
}

func (s *session) fail(err error) error {
	s.state = stateErrored
	return err
}

// run sends req and consumes datagrams until the exchange is over.
func (s *session) run(send, recv ioFunc, req []byte) error {
	if err := s.send(send, req); err != nil {
		return err
	}

	for {
		n, err := recv(s.buf)
		if err != nil {
			return s.fail(err)
		}
		if n <= 0 {
			slog.Debug("socket returned no data, ending exchange", "seq", s.seq)
			s.state = stateDone
			return nil
		}
		s.state = stateReceiving
		slog.Log(context.Background(), LevelTrace, "received datagram", "seq", s.seq, "data", hex.EncodeToString(s.buf[:n]))

		done, err := s.consume(s.buf[:n])
		if err != nil {
			return s.fail(err)
		}
		if done {
			s.state = stateDone
			if s.interrupted {
				return ErrDumpInterrupted
			}
			return nil
		}
	}
}

// consume walks every message held in a datagram. Decoding always runs to
// the end of the datagram or the end of the exchange, whichever is first.
func (s *session) consume(b []byte) (bool, error) {
	for len(b) > 0 {
		m, rest, err := nlmsg.Next(b)
		if err != nil {
			return false, err
		}
		b = rest

		if m.Header.Sequence != s.seq || (s.portID != 0 && m.Header.PID != s.portID) {
			slog.Debug("skipping foreign message", "seq", m.Header.Sequence, "pid", m.Header.PID,
				"wantSeq", s.seq, "wantPid", s.portID)
			continue
		}

		if m.Header.Flags&netlink.DumpInterrupted != 0 && !s.interrupted {
			slog.Debug("kernel flagged the dump as interrupted", "seq", s.seq)
			s.interrupted = true
		}

		switch nlmsg.Classify(m.Header) {
		case nlmsg.ClassDone:
			return true, nil

		case nlmsg.ClassError:
			ke, err := nlmsg.ParseError(m)
			if err != nil {
				return false, err
			}
			if ke != nil {
				return false, ke
			}
			s.acks++
			if s.expectAcks > 0 && s.acks >= s.expectAcks {
				return true, nil
			}

		case nlmsg.ClassNoop:

		case nlmsg.ClassData:
			if s.handler == nil {
				continue
			}
			g, err := nlmsg.ParseNfgenmsg(m.Data)
			if err != nil {
				return false, err
			}
			if err := s.handler(m.Header, g, m.Data[nlmsg.NfgenmsgLen:]); err != nil {
				return false, err
			}

		default:
			slog.Debug("ignoring control message", "type", m.Header.Type, "seq", s.seq)
		}
	}

	return false, nil
}

func (s *session) send(send ioFunc, req []byte) error {
	n, err := send(req)
	if err != nil {
		return s.fail(err)
	}
	if n < len(req) {
		return s.fail(fmt.Errorf("%w: %d of %d bytes", nlsock.ErrTruncatedSend, n, len(req)))
	}
	s.state = stateRequestSent
	return nil
}
