//go:build linux

package nlsock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mdlayher/socket"
	"golang.org/x/sys/unix"
)

// Conn is a NETLINK_NETFILTER socket. Blocking calls park the goroutine on
// the runtime network poller, which is what lets the context flavoured
// calls be cancelled.
type Conn struct {
	c   *socket.Conn
	pid uint32
}

// Dial opens and binds a netfilter netlink socket. The kernel assigns the
// port id. Beware the returned Conn must be closed to avoid leaking fds.
func Dial(conf *Config) (*Conn, error) {
	if conf == nil {
		conf = &DefaultConfig
	}

	c, err := socket.Socket(unix.AF_NETLINK, unix.SOCK_RAW, unix.NETLINK_NETFILTER, "nftnl", nil)
	if err != nil {
		return nil, &SocketError{Op: "open", Err: err}
	}

	if err := c.Bind(&unix.SockaddrNetlink{Family: unix.AF_NETLINK}); err != nil {
		c.Close()
		return nil, &SocketError{Op: "bind", Err: err}
	}

	sa, err := c.Getsockname()
	if err != nil {
		c.Close()
		return nil, &SocketError{Op: "getsockname", Err: err}
	}
	nsa, ok := sa.(*unix.SockaddrNetlink)
	if !ok {
		c.Close()
		return nil, &SocketError{Op: "getsockname", Err: fmt.Errorf("unexpected address type %T", sa)}
	}

	if conf.SocketBufferSize > 0 {
		if err := c.SetsockoptInt(unix.SOL_SOCKET, unix.SO_RCVBUF, conf.SocketBufferSize); err != nil {
			c.Close()
			return nil, &SocketError{Op: "set the receive buffer size", Err: err}
		}
	}

	// Both options are only honoured by recent enough kernels. If not
	// supported, `unix.ENOPROTOOPT` is returned and we carry on.
	if conf.ExtendedAck {
		if err := c.SetsockoptInt(unix.SOL_NETLINK, unix.NETLINK_EXT_ACK, 1); err != nil {
			slog.Warn("couldn't enable extended acknowledgements", "err", err)
		}
	}
	if conf.StrictCheck {
		if err := c.SetsockoptInt(unix.SOL_NETLINK, unix.NETLINK_GET_STRICT_CHK, 1); err != nil {
			slog.Warn("couldn't enable strict checking", "err", err)
		}
	}

	slog.Debug("opened netfilter socket", "pid", nsa.Pid)

	return &Conn{c: c, pid: nsa.Pid}, nil
}

// PortID is the netlink port id the kernel bound us to.
func (c *Conn) PortID() uint32 {
	return c.pid
}

func (c *Conn) Send(b []byte) (int, error) {
	return c.SendContext(context.Background(), b)
}

func (c *Conn) SendContext(ctx context.Context, b []byte) (int, error) {
	n, err := c.c.Sendmsg(ctx, b, nil, &unix.SockaddrNetlink{Family: unix.AF_NETLINK}, 0)
	if err != nil {
		return n, &SocketError{Op: "send", Err: err}
	}
	return n, nil
}

func (c *Conn) Receive(b []byte) (int, error) {
	return c.ReceiveContext(context.Background(), b)
}

// ReceiveContext reads a single datagram into b. A datagram larger than b
// is reported as ErrTruncatedReceive rather than silently cut.
func (c *Conn) ReceiveContext(ctx context.Context, b []byte) (int, error) {
	n, _, flags, _, err := c.c.Recvmsg(ctx, b, nil, 0)
	if err != nil {
		return n, &SocketError{Op: "receive", Err: err}
	}
	if flags&unix.MSG_TRUNC != 0 {
		return n, &SocketError{Op: "receive", Err: ErrTruncatedReceive}
	}
	return n, nil
}

// SetReadDeadline bounds blocking receives, see net.Conn.
func (c *Conn) SetReadDeadline(t time.Time) error {
	return c.c.SetReadDeadline(t)
}

func (c *Conn) Close() error {
	if err := c.c.Close(); err != nil {
		return &SocketError{Op: "close", Err: err}
	}
	return nil
}
