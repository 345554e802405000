package nlmsg

import (
	"fmt"

	"github.com/mdlayher/netlink"
	"github.com/mdlayher/netlink/nlenc"
	"golang.org/x/sys/unix"

	"github.com/scitags/nftnl/nlattr"
)

// DecodeError reports a message we couldn't make sense of.
type DecodeError struct {
	Header netlink.Header
	Reason string
}

func (e *DecodeError) Error() string {
	return "nlmsg: malformed message: " + e.Reason
}

// KernelError is a non-zero error code returned by the kernel. Header is
// the one of the request the kernel refused. When extended acknowledgements
// are enabled Message and Offset carry the kernel's explanation.
type KernelError struct {
	Errno   unix.Errno
	Header  netlink.Header
	Message string
	Offset  uint32
}

func (e *KernelError) Error() string {
	s := fmt.Sprintf("nlmsg: kernel refused %s (seq %d): %v",
		KindName(Kind(uint16(e.Header.Type))), e.Header.Sequence, e.Errno)
	if e.Message != "" {
		s += ": " + e.Message
	}
	return s
}

// Unwrap lets errors.Is match against the raw errno, unix.EEXIST et al.
func (e *KernelError) Unwrap() error {
	return e.Errno
}

// ParseError decodes the payload of an error message. A nil *KernelError
// with a nil error is a plain acknowledgement.
func ParseError(m Message) (*KernelError, error) {
	if len(m.Data) < 4 {
		return nil, &DecodeError{Header: m.Header, Reason: fmt.Sprintf("error message short read (%d); want 4", len(m.Data))}
	}

	errno := nlenc.Int32(m.Data[0:4])
	if errno == 0 {
		return nil, nil
	}
	if errno < 0 {
		errno = -errno
	}

	ke := &KernelError{Errno: unix.Errno(errno)}

	rest := m.Data[4:]
	if len(rest) < HeaderLen {
		return ke, nil
	}
	ke.Header = parseHeader(rest)

	if m.Header.Flags&netlink.AcknowledgeTLVs == 0 {
		return ke, nil
	}

	// The request is echoed back in full unless the kernel capped it.
	skip := HeaderLen
	if m.Header.Flags&netlink.Capped == 0 {
		skip = align(int(ke.Header.Length))
	}
	if skip > len(rest) {
		return ke, nil
	}

	d := nlattr.NewDecoder(rest[skip:])
	for d.Next() {
		a := d.Attr()
		switch a.Type {
		case extAckMsg:
			ke.Message = nlenc.String(a.Data)
		case extAckOffset:
			if len(a.Data) == 4 {
				ke.Offset = nlenc.Uint32(a.Data)
			}
		}
	}

	// A mangled trailer shouldn't hide the errno itself.
	return ke, nil
}
