package expr

import (
	"github.com/scitags/nftnl/schema"
)

const (
	attrBitwiseSreg = 1
	attrBitwiseDreg = 2
	attrBitwiseLen  = 3
	attrBitwiseMask = 4
	attrBitwiseXor  = 5
)

// Bitwise computes dreg = (sreg & mask) ^ xor over Len bytes.
type Bitwise struct {
	SReg schema.Optional[Register]
	DReg schema.Optional[Register]
	Len  schema.Optional[uint32]
	Mask schema.Optional[Data]
	Xor  schema.Optional[Data]
}

// NewBitwise masks the first register in place. Mask and xor must be the
// same length.
func NewBitwise(mask, xor []byte) (*Bitwise, error) {
	if len(mask) != len(xor) {
		return nil, ErrOperandLength
	}
	return &Bitwise{
		SReg: schema.Some(Reg1),
		DReg: schema.Some(Reg1),
		Len:  schema.Some(uint32(len(mask))),
		Mask: schema.Some(Value(mask)),
		Xor:  schema.Some(Value(xor)),
	}, nil
}

var bitwiseSchema = schema.New("bitwise",
	registerField("sreg", attrBitwiseSreg, func(e *Bitwise) *schema.Optional[Register] { return &e.SReg }),
	registerField("dreg", attrBitwiseDreg, func(e *Bitwise) *schema.Optional[Register] { return &e.DReg }),
	uint32Field("len", attrBitwiseLen, func(e *Bitwise) *schema.Optional[uint32] { return &e.Len }),
	dataField("mask", attrBitwiseMask, func(e *Bitwise) *schema.Optional[Data] { return &e.Mask }),
	dataField("xor", attrBitwiseXor, func(e *Bitwise) *schema.Optional[Data] { return &e.Xor }),
)
