// Package schema describes netlink objects as ordered tables of fields. A
// single Schema drives both encoding and decoding of a type, so every
// object and expression is declared once instead of hand written twice.
package schema

import (
	"fmt"

	"github.com/scitags/nftnl/nlattr"
)

// Field is one row of a schema: the attribute code along with the functions
// moving the value between the object and the wire. Encode must write
// nothing when the field is absent.
type Field[T any] struct {
	Name   string
	Code   uint16
	Encode func(e *nlattr.Encoder, code uint16, obj *T) error
	Decode func(obj *T, data []byte) error
}

// Schema is the ordered field table of T. Fields are encoded in declaration
// order, which is the order the kernel and nft emit them in.
type Schema[T any] struct {
	kind   string
	fields []Field[T]
	index  map[uint16]int
}

// New builds a schema. Clashing attribute codes are programming errors and
// make New panic.
func New[T any](kind string, fields ...Field[T]) *Schema[T] {
	s := &Schema[T]{kind: kind, fields: fields, index: make(map[uint16]int, len(fields))}
	for i, f := range fields {
		if _, ok := s.index[f.Code]; ok {
			panic(fmt.Sprintf("schema: %s declares attribute %d twice", kind, f.Code))
		}
		s.index[f.Code] = i
	}
	return s
}

// Kind is the name the schema was declared with.
func (s *Schema[T]) Kind() string { return s.kind }

// Fields returns the field table.
func (s *Schema[T]) Fields() []Field[T] { return s.fields }

// Encode appends the present fields of obj to e.
func (s *Schema[T]) Encode(e *nlattr.Encoder, obj *T) error {
	for _, f := range s.fields {
		if err := f.Encode(e, f.Code, obj); err != nil {
			return &Error{Kind: s.kind, Field: f.Name, Code: f.Code, Err: err}
		}
		if err := e.Err(); err != nil {
			return &Error{Kind: s.kind, Field: f.Name, Code: f.Code, Err: err}
		}
	}
	return nil
}

// Marshal encodes obj into a fresh buffer.
func (s *Schema[T]) Marshal(obj *T) ([]byte, error) {
	e := nlattr.NewEncoder()
	if err := s.Encode(e, obj); err != nil {
		return nil, err
	}
	return e.Bytes()
}

// Decode fills obj from an attribute stream. Unknown attributes are skipped
// so that newer kernels don't break older readers. Fields missing from the
// stream are left untouched.
func (s *Schema[T]) Decode(b []byte, obj *T) error {
	d := nlattr.NewDecoder(b)
	for d.Next() {
		a := d.Attr()
		i, ok := s.index[a.Type]
		if !ok {
			continue
		}
		f := s.fields[i]
		if err := f.Decode(obj, a.Data); err != nil {
			return &Error{Kind: s.kind, Field: f.Name, Code: a.Type, Err: err}
		}
	}
	return d.Err()
}
