package nlattr

import (
	"github.com/mdlayher/netlink/nlenc"
)

// Attr is a single decoded attribute. Data aliases the decoded buffer.
type Attr struct {
	Type  uint16
	Flags uint16
	Data  []byte
}

// IsNested reports whether the kernel flagged the attribute as nested.
func (a Attr) IsNested() bool { return a.Flags&Nested != 0 }

// A Decoder walks an attribute stream lazily. It can be rewound with Reset
// and never copies the payloads.
//
//	d := nlattr.NewDecoder(b)
//	for d.Next() {
//		a := d.Attr()
//	}
//	if err := d.Err(); err != nil {
//		...
//	}
type Decoder struct {
	b   []byte
	off int
	cur Attr
	err error
}

func NewDecoder(b []byte) *Decoder {
	return &Decoder{b: b}
}

// Reset rewinds the decoder to the first attribute.
func (d *Decoder) Reset() {
	d.off = 0
	d.cur = Attr{}
	d.err = nil
}

// Next advances to the following attribute, returning false once the stream
// is exhausted or malformed.
func (d *Decoder) Next() bool {
	if d.err != nil || d.off >= len(d.b) {
		return false
	}

	rest := d.b[d.off:]
	if len(rest) < HeaderLen {
		d.err = &DecodeError{Offset: d.off, Reason: "truncated header"}
		return false
	}

	length := int(nlenc.Uint16(rest[0:2]))
	typ := nlenc.Uint16(rest[2:4])

	switch {
	case length < HeaderLen:
		d.err = &DecodeError{Offset: d.off, Reason: "length shorter than header"}
		return false
	case length > len(rest):
		d.err = &DecodeError{Offset: d.off, Reason: "length exceeds buffer"}
		return false
	case Align(length) > len(rest):
		d.err = &DecodeError{Offset: d.off, Reason: "padding exceeds buffer"}
		return false
	}

	d.cur = Attr{
		Type:  typ & TypeMask,
		Flags: typ &^ TypeMask,
		Data:  rest[HeaderLen:length],
	}
	d.off += Align(length)

	return true
}

// Attr returns the current attribute.
func (d *Decoder) Attr() Attr { return d.cur }

// Err returns the error which stopped the iteration, if any.
func (d *Decoder) Err() error { return d.err }

// ReadAll decodes every attribute in b.
func ReadAll(b []byte) ([]Attr, error) {
	var attrs []Attr
	d := NewDecoder(b)
	for d.Next() {
		attrs = append(attrs, d.Attr())
	}
	return attrs, d.Err()
}
