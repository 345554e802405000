//go:build !linux

package nlsock

import (
	"context"
	"errors"
	"time"
)

var errUnsupported = errors.New("netfilter netlink sockets are only available on linux")

type Conn struct{}

func Dial(conf *Config) (*Conn, error) {
	return nil, &SocketError{Op: "open", Err: errUnsupported}
}

func (c *Conn) PortID() uint32 { return 0 }
func (c *Conn) Send(b []byte) (int, error) { return 0, errUnsupported }
func (c *Conn) SendContext(ctx context.Context, b []byte) (int, error) { return 0, errUnsupported }
func (c *Conn) Receive(b []byte) (int, error) { return 0, errUnsupported }
func (c *Conn) ReceiveContext(ctx context.Context, b []byte) (int, error) { return 0, errUnsupported }
func (c *Conn) SetReadDeadline(t time.Time) error { return errUnsupported }
func (c *Conn) Close() error { return nil }
