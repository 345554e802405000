package expr

import (
	"github.com/scitags/nftnl/schema"
)

const (
	attrRangeSreg     = 1
	attrRangeOp       = 2
	attrRangeFromData = 3
	attrRangeToData   = 4
)

type RangeOp uint32

const (
	RangeEq  RangeOp = 0
	RangeNeq RangeOp = 1
)

func (o RangeOp) Valid() bool { return o <= RangeNeq }

// Range matches the first register against an inclusive interval.
type Range struct {
	SReg schema.Optional[Register]
	Op   schema.Optional[RangeOp]
	From schema.Optional[Data]
	To   schema.Optional[Data]
}

// NewRange checks from <= reg1 <= to. Both bounds must be the same length.
func NewRange(op RangeOp, from, to []byte) (*Range, error) {
	if len(from) != len(to) {
		return nil, ErrOperandLength
	}
	return &Range{
		SReg: schema.Some(Reg1),
		Op:   schema.Some(op),
		From: schema.Some(Value(from)),
		To:   schema.Some(Value(to)),
	}, nil
}

func rangeOp(e *Range) *schema.Optional[RangeOp] { return &e.Op }

var rangeSchema = schema.New("range",
	registerField("sreg", attrRangeSreg, func(e *Range) *schema.Optional[Register] { return &e.SReg }),
	schema.Enum(schema.Uint32("op", attrRangeOp, bigEndian, rangeOp), rangeOp, RangeOp.Valid),
	dataField("from", attrRangeFromData, func(e *Range) *schema.Optional[Data] { return &e.From }),
	dataField("to", attrRangeToData, func(e *Range) *schema.Optional[Data] { return &e.To }),
)
