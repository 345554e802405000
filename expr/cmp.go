package expr

import (
	"fmt"

	"github.com/scitags/nftnl/schema"
)

const (
	attrCmpSreg = 1
	attrCmpOp   = 2
	attrCmpData = 3
)

type CmpOp uint32

const (
	CmpEq CmpOp = iota
	CmpNeq
	CmpLt
	CmpLte
	CmpGt
	CmpGte
)

func (o CmpOp) Valid() bool { return o <= CmpGte }

func (o CmpOp) String() string {
	switch o {
	case CmpEq:
		return "=="
	case CmpNeq:
		return "!="
	case CmpLt:
		return "<"
	case CmpLte:
		return "<="
	case CmpGt:
		return ">"
	case CmpGte:
		return ">="
	}
	return fmt.Sprintf("cmp(%d)", uint32(o))
}

// Cmp compares a register against a constant and breaks out of the rule
// when the comparison fails.
type Cmp struct {
	SReg schema.Optional[Register]
	Op   schema.Optional[CmpOp]
	Data schema.Optional[Data]
}

// NewCmp compares the first register against data.
func NewCmp(op CmpOp, data []byte) *Cmp {
	return &Cmp{
		SReg: schema.Some(Reg1),
		Op:   schema.Some(op),
		Data: schema.Some(Value(data)),
	}
}

func cmpOp(e *Cmp) *schema.Optional[CmpOp] { return &e.Op }

var cmpSchema = schema.New("cmp",
	registerField("sreg", attrCmpSreg, func(e *Cmp) *schema.Optional[Register] { return &e.SReg }),
	schema.Enum(schema.Uint32("op", attrCmpOp, bigEndian, cmpOp), cmpOp, CmpOp.Valid),
	dataField("data", attrCmpData, func(e *Cmp) *schema.Optional[Data] { return &e.Data }),
)
