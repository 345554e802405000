// Package expr models the nf_tables expressions a rule is made of. The set
// of expressions is closed: every variant is a struct in this package and
// anything the kernel hands back that we don't know about is kept as Raw.
package expr

import (
	"errors"

	"github.com/scitags/nftnl/nlattr"
	"github.com/scitags/nftnl/schema"
)

const (
	attrListElem = 1

	attrExprName = 1
	attrExprData = 2
)

// ErrOperandLength is returned by constructors whose operands must share a
// common length.
var ErrOperandLength = errors.New("expr: operand lengths differ")

// Any is one of the expression variants of this package.
type Any interface {
	isExpr()
}

func (*Bitwise) isExpr()   {}
func (*Cmp) isExpr()       {}
func (*Counter) isExpr()   {}
func (*Ct) isExpr()        {}
func (*Immediate) isExpr() {}
func (*Log) isExpr()       {}
func (*Lookup) isExpr()    {}
func (*Masq) isExpr()      {}
func (*Meta) isExpr()      {}
func (*Nat) isExpr()       {}
func (*Payload) isExpr()   {}
func (*Range) isExpr()     {}
func (*Reject) isExpr()    {}
func (*Raw) isExpr()       {}

// Raw is an expression of a kind this package doesn't model. Its payload is
// kept verbatim so that it survives a decode and encode cycle.
type Raw struct {
	Name string
	Data []byte
}

// Kind returns the kernel name of an expression.
func Kind(e Any) string {
	switch e := e.(type) {
	case *Bitwise:
		return "bitwise"
	case *Cmp:
		return "cmp"
	case *Counter:
		return "counter"
	case *Ct:
		return "ct"
	case *Immediate:
		return "immediate"
	case *Log:
		return "log"
	case *Lookup:
		return "lookup"
	case *Masq:
		return "masq"
	case *Meta:
		return "meta"
	case *Nat:
		return "nat"
	case *Payload:
		return "payload"
	case *Range:
		return "range"
	case *Reject:
		return "reject"
	case *Raw:
		return e.Name
	}
	return ""
}

// encodeData writes the body of the NFTA_EXPR_DATA attribute.
func encodeData(enc *nlattr.Encoder, e Any) error {
	switch e := e.(type) {
	case *Bitwise:
		return bitwiseSchema.Encode(enc, e)
	case *Cmp:
		return cmpSchema.Encode(enc, e)
	case *Counter:
		return counterSchema.Encode(enc, e)
	case *Ct:
		return ctSchema.Encode(enc, e)
	case *Immediate:
		return immediateSchema.Encode(enc, e)
	case *Log:
		return logSchema.Encode(enc, e)
	case *Lookup:
		return lookupSchema.Encode(enc, e)
	case *Masq:
		return masqSchema.Encode(enc, e)
	case *Meta:
		return metaSchema.Encode(enc, e)
	case *Nat:
		return natSchema.Encode(enc, e)
	case *Payload:
		return payloadSchema.Encode(enc, e)
	case *Range:
		return rangeSchema.Encode(enc, e)
	case *Reject:
		return rejectSchema.Encode(enc, e)
	case *Raw:
		enc.Append(e.Data)
		return nil
	}
	return &schema.Error{Kind: "expression", Field: "name", Code: attrExprName, Err: schema.ErrDiscriminant}
}

func decodeAs[T any, P interface {
	*T
	Any
}](s *schema.Schema[T], b []byte) (Any, error) {
	var v T
	if err := s.Decode(b, &v); err != nil {
		return nil, err
	}
	return P(&v), nil
}

func decodeData(name string, b []byte) (Any, error) {
	switch name {
	case "bitwise":
		return decodeAs(bitwiseSchema, b)
	case "cmp":
		return decodeAs(cmpSchema, b)
	case "counter":
		return decodeAs(counterSchema, b)
	case "ct":
		return decodeAs(ctSchema, b)
	case "immediate":
		return decodeAs(immediateSchema, b)
	case "log":
		return decodeAs(logSchema, b)
	case "lookup":
		return decodeAs(lookupSchema, b)
	case "masq":
		return decodeAs(masqSchema, b)
	case "meta":
		return decodeAs(metaSchema, b)
	case "nat":
		return decodeAs(natSchema, b)
	case "payload":
		return decodeAs(payloadSchema, b)
	case "range":
		return decodeAs(rangeSchema, b)
	case "reject":
		return decodeAs(rejectSchema, b)
	}
	return &Raw{Name: name, Data: append([]byte(nil), b...)}, nil
}

// Encode writes a single expression: its name followed by its data.
func Encode(enc *nlattr.Encoder, e Any) error {
	enc.String(attrExprName, Kind(e))
	enc.Nested(attrExprData, func(enc *nlattr.Encoder) error {
		return encodeData(enc, e)
	})
	return enc.Err()
}

// Marshal encodes a single expression into a fresh buffer.
func Marshal(e Any) ([]byte, error) {
	enc := nlattr.NewEncoder()
	if err := Encode(enc, e); err != nil {
		return nil, err
	}
	return enc.Bytes()
}

// Decode reads an expression out of the body of a list element.
func Decode(b []byte) (Any, error) {
	var (
		name    string
		hasName bool
		data    []byte
	)

	d := nlattr.NewDecoder(b)
	for d.Next() {
		a := d.Attr()
		switch a.Type {
		case attrExprName:
			for len(a.Data) > 0 && a.Data[len(a.Data)-1] == 0 {
				a.Data = a.Data[:len(a.Data)-1]
			}
			name, hasName = string(a.Data), true
		case attrExprData:
			data = a.Data
		}
	}
	if err := d.Err(); err != nil {
		return nil, err
	}
	if !hasName {
		return nil, &schema.Error{Kind: "expression", Field: "name", Code: attrExprName, Err: schema.ErrDiscriminant}
	}

	return decodeData(name, data)
}

// List is the ordered expression list of a rule.
type List []Any

// Encode writes every expression as a nested list element.
func (l List) Encode(enc *nlattr.Encoder) error {
	for _, e := range l {
		enc.Nested(attrListElem, func(enc *nlattr.Encoder) error {
			return Encode(enc, e)
		})
		if err := enc.Err(); err != nil {
			return err
		}
	}
	return nil
}

// DecodeList reads a list of expressions, keeping their order.
func DecodeList(b []byte) (List, error) {
	l := List{}

	d := nlattr.NewDecoder(b)
	for d.Next() {
		a := d.Attr()
		if a.Type != attrListElem {
			continue
		}
		e, err := Decode(a.Data)
		if err != nil {
			return nil, err
		}
		l = append(l, e)
	}
	if err := d.Err(); err != nil {
		return nil, err
	}
	return l, nil
}
