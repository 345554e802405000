package expr

import (
	"fmt"

	"github.com/scitags/nftnl/nlattr"
	"github.com/scitags/nftnl/schema"
)

const (
	attrDataValue   = 1
	attrDataVerdict = 2

	attrVerdictCode  = 1
	attrVerdictChain = 2
)

// VerdictCode is what a rule tells the kernel to do with a packet.
type VerdictCode int32

const (
	VerdictDrop     VerdictCode = 0
	VerdictAccept   VerdictCode = 1
	VerdictStolen   VerdictCode = 2
	VerdictQueue    VerdictCode = 3
	VerdictRepeat   VerdictCode = 4
	VerdictStop     VerdictCode = 5
	VerdictContinue VerdictCode = -1
	VerdictBreak    VerdictCode = -2
	VerdictJump     VerdictCode = -3
	VerdictGoto     VerdictCode = -4
	VerdictReturn   VerdictCode = -5
)

func (v VerdictCode) Valid() bool {
	return v >= VerdictReturn && v <= VerdictStop
}

var verdictNames = map[VerdictCode]string{
	VerdictDrop: "drop", VerdictAccept: "accept", VerdictStolen: "stolen",
	VerdictQueue: "queue", VerdictRepeat: "repeat", VerdictStop: "stop",
	VerdictContinue: "continue", VerdictBreak: "break", VerdictJump: "jump",
	VerdictGoto: "goto", VerdictReturn: "return",
}

func (v VerdictCode) String() string {
	if n, ok := verdictNames[v]; ok {
		return n
	}
	return fmt.Sprintf("verdict(%d)", int32(v))
}

// Verdict is a verdict code along with the target chain of jumps and gotos.
type Verdict struct {
	Code  schema.Optional[VerdictCode]
	Chain schema.Optional[string]
}

// Data is the payload of immediates, comparisons and set elements: either
// raw bytes or a verdict.
type Data struct {
	Value   schema.Optional[[]byte]
	Verdict schema.Optional[Verdict]
}

// Value wraps raw bytes into Data.
func Value(b []byte) Data {
	return Data{Value: schema.Some(b)}
}

func verdictCode(v *Verdict) *schema.Optional[VerdictCode] { return &v.Code }

var verdictSchema = schema.New("verdict",
	schema.Enum(schema.Int32("code", attrVerdictCode, nlattr.BigEndian, verdictCode), verdictCode, VerdictCode.Valid),
	schema.String("chain", attrVerdictChain, func(v *Verdict) *schema.Optional[string] { return &v.Chain }),
)

// DataSchema encodes the nested data attribute shared by expressions and
// set elements.
var DataSchema = schema.New("data",
	schema.Bytes("value", attrDataValue, func(d *Data) *schema.Optional[[]byte] { return &d.Value }),
	schema.Nested("verdict", attrDataVerdict, verdictSchema, func(d *Data) *schema.Optional[Verdict] { return &d.Verdict }),
)

func dataField[T any](name string, code uint16, get func(*T) *schema.Optional[Data]) schema.Field[T] {
	return schema.Nested(name, code, DataSchema, get)
}

func registerField[T any](name string, code uint16, get func(*T) *schema.Optional[Register]) schema.Field[T] {
	return schema.Enum(schema.Uint32(name, code, nlattr.BigEndian, get), get, Register.Valid)
}

var bigEndian = nlattr.BigEndian

func uint32Field[T any](name string, code uint16, get func(*T) *schema.Optional[uint32]) schema.Field[T] {
	return schema.Uint32(name, code, nlattr.BigEndian, get)
}
