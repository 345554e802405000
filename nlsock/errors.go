package nlsock

import (
	"errors"
	"fmt"
)

// ErrTruncatedSend means the kernel took fewer bytes than we handed it, so
// a batch was not transmitted as a whole.
var ErrTruncatedSend = errors.New("nlsock: truncated send")

// ErrTruncatedReceive means a datagram didn't fit in the receive buffer.
var ErrTruncatedReceive = errors.New("nlsock: datagram larger than the receive buffer")

// SocketError wraps failures of the underlying socket.
type SocketError struct {
	Op  string
	Err error
}

func (e *SocketError) Error() string {
	return fmt.Sprintf("nlsock: couldn't %s: %v", e.Op, e.Err)
}

func (e *SocketError) Unwrap() error {
	return e.Err
}
