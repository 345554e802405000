package nlattr

import (
	"encoding/binary"
)

// An Encoder appends attributes to a growing buffer. The first error is
// sticky: once set, further writes are ignored and Bytes reports it.
type Encoder struct {
	buf []byte
	err error
}

// NewEncoder returns an Encoder with an empty buffer.
func NewEncoder() *Encoder {
	return &Encoder{buf: make([]byte, 0, 128)}
}

// Len is the number of bytes written so far, padding included.
func (e *Encoder) Len() int { return len(e.buf) }

// Err returns the first error hit while encoding.
func (e *Encoder) Err() error { return e.err }

// Bytes returns the encoded attributes.
func (e *Encoder) Bytes() ([]byte, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.buf, nil
}

// Attribute writes a single attribute with the given payload. The payload is
// padded with zeros up to the alignment boundary.
func (e *Encoder) Attribute(typ uint16, payload []byte) {
	if e.err != nil {
		return
	}
	length := HeaderLen + len(payload)
	if length > maxLen {
		e.err = ErrAttributeTooLarge
		return
	}

	start := len(e.buf)
	e.grow(Align(length))
	putHeader(e.buf[start:], length, typ)
	copy(e.buf[start+HeaderLen:], payload)
}

func (e *Encoder) Uint8(typ uint16, v uint8) {
	e.Attribute(typ, []byte{v})
}

func (e *Encoder) Uint16(typ uint16, order binary.ByteOrder, v uint16) {
	b := make([]byte, 2)
	order.PutUint16(b, v)
	e.Attribute(typ, b)
}

func (e *Encoder) Uint32(typ uint16, order binary.ByteOrder, v uint32) {
	b := make([]byte, 4)
	order.PutUint32(b, v)
	e.Attribute(typ, b)
}

func (e *Encoder) Uint64(typ uint16, order binary.ByteOrder, v uint64) {
	b := make([]byte, 8)
	order.PutUint64(b, v)
	e.Attribute(typ, b)
}

// String writes s followed by a NUL terminator.
func (e *Encoder) String(typ uint16, s string) {
	b := make([]byte, len(s)+1)
	copy(b, s)
	e.Attribute(typ, b)
}

// Nested reserves a header for typ, lets fn append the inner attributes to
// this very Encoder and then patches the header with the resulting length.
// The Nested flag is set on the type.
func (e *Encoder) Nested(typ uint16, fn func(*Encoder) error) {
	if e.err != nil {
		return
	}

	start := len(e.buf)
	e.grow(HeaderLen)

	if err := fn(e); err != nil && e.err == nil {
		e.err = err
	}
	if e.err != nil {
		return
	}

	length := len(e.buf) - start
	if length > maxLen {
		e.err = ErrAttributeTooLarge
		return
	}
	putHeader(e.buf[start:], length, typ|Nested)
}

// grow extends the buffer by n zeroed bytes.
func (e *Encoder) grow(n int) {
	for i := 0; i < n; i++ {
		e.buf = append(e.buf, 0)
	}
}

// Append copies already encoded attributes, padding them if needed.
func (e *Encoder) Append(b []byte) {
	if e.err != nil {
		return
	}
	e.buf = append(e.buf, b...)
	e.grow(Align(len(b)) - len(b))
}
