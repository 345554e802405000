package query

import (
	"context"
	"log/slog"
)

// Transact sends an already framed batch whose messages all carry seq and
// waits for acks acknowledgements. The first error reported by the kernel
// for seq ends the wait and is returned.
func Transact(sock Socket, b []byte, seq uint32, acks int, conf *Config) error {
	return transact(sock.Send, sock.Receive, sock.PortID(), b, seq, acks, conf)
}

// TransactContext is Transact waiting on the socket through ctx.
func TransactContext(ctx context.Context, sock ContextSocket, b []byte, seq uint32, acks int, conf *Config) error {
	send := func(b []byte) (int, error) { return sock.SendContext(ctx, b) }
	recv := func(b []byte) (int, error) { return sock.ReceiveContext(ctx, b) }
	return transact(send, recv, sock.PortID(), b, seq, acks, conf)
}

func transact(send, recv ioFunc, portID uint32, b []byte, seq uint32, acks int, conf *Config) error {
	if conf == nil {
		conf = &DefaultConfig
	}

	s := newSession(conf, seq, portID)
	s.expectAcks = acks

	slog.Debug("sending batch", "seq", seq, "bytes", len(b), "acks", acks)

	if acks <= 0 {
		// Nothing will come back, so just push the bytes out.
		return s.send(send, b)
	}
	return s.run(send, recv, b)
}
