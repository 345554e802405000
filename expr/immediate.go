package expr

import (
	"github.com/scitags/nftnl/schema"
)

const (
	attrImmediateDreg = 1
	attrImmediateData = 2
)

// Immediate loads a constant into a register. Loading a verdict into the
// verdict register is how rules accept, drop or jump.
type Immediate struct {
	DReg schema.Optional[Register]
	Data schema.Optional[Data]
}

// NewImmediate loads data into reg.
func NewImmediate(data []byte, reg Register) *Immediate {
	return &Immediate{DReg: schema.Some(reg), Data: schema.Some(Value(data))}
}

// NewVerdict builds a verdict immediate. The chain is only meaningful for
// jumps and gotos and is dropped when empty.
func NewVerdict(code VerdictCode, chain string) *Immediate {
	v := Verdict{Code: schema.Some(code)}
	if chain != "" {
		v.Chain = schema.Some(chain)
	}
	return &Immediate{
		DReg: schema.Some(RegVerdict),
		Data: schema.Some(Data{Verdict: schema.Some(v)}),
	}
}

func Accept() *Immediate { return NewVerdict(VerdictAccept, "") }
func Drop() *Immediate { return NewVerdict(VerdictDrop, "") }
func Return() *Immediate { return NewVerdict(VerdictReturn, "") }
func Continue() *Immediate { return NewVerdict(VerdictContinue, "") }
func Jump(chain string) *Immediate { return NewVerdict(VerdictJump, chain) }
func Goto(chain string) *Immediate { return NewVerdict(VerdictGoto, chain) }
func Queue() *Immediate { return NewVerdict(VerdictQueue, "") }

// Verdict returns the verdict carried by the immediate, if any.
func (e *Immediate) Verdict() (Verdict, bool) {
	d, ok := e.Data.Get()
	if !ok {
		return Verdict{}, false
	}
	return d.Verdict.Get()
}

var immediateSchema = schema.New("immediate",
	registerField("dreg", attrImmediateDreg, func(e *Immediate) *schema.Optional[Register] { return &e.DReg }),
	dataField("data", attrImmediateData, func(e *Immediate) *schema.Optional[Data] { return &e.Data }),
)
