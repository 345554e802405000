package expr

import (
	"fmt"

	"github.com/scitags/nftnl/schema"
)

const (
	attrCtDreg      = 1
	attrCtKey       = 2
	attrCtDirection = 3
	attrCtSreg      = 4
)

// CtKey selects the conntrack property to load. Newer kernels keep adding
// keys so any value is accepted.
type CtKey uint32

const (
	CtState CtKey = iota
	CtDirection
	CtStatus
	CtMark
	CtSecmark
	CtExpiration
	CtHelper
	CtL3Protocol
	CtSrc
	CtDst
	CtProtocol
	CtProtoSrc
	CtProtoDst
	CtLabels
	CtPkts
	CtBytes
	CtAvgPkt
	CtZone
	CtEventMask
)

var ctKeyNames = []string{
	"state", "direction", "status", "mark", "secmark", "expiration", "helper",
	"l3protocol", "saddr", "daddr", "protocol", "proto-src", "proto-dst",
	"label", "packets", "bytes", "avgpkt", "zone", "event",
}

func (k CtKey) String() string {
	if int(k) < len(ctKeyNames) {
		return ctKeyNames[k]
	}
	return fmt.Sprintf("ct(%d)", uint32(k))
}

// Conntrack states as loaded by the state key. They are host order bits.
const (
	CtStateInvalid     uint32 = 1 << 0
	CtStateEstablished uint32 = 1 << 1
	CtStateRelated     uint32 = 1 << 2
	CtStateNew         uint32 = 1 << 3
	CtStateUntracked   uint32 = 1 << 6
)

type CtDir uint8

const (
	CtDirOriginal CtDir = 0
	CtDirReply    CtDir = 1
)

// Ct loads (or with SReg, stores) a conntrack property.
type Ct struct {
	DReg      schema.Optional[Register]
	Key       schema.Optional[CtKey]
	Direction schema.Optional[CtDir]
	SReg      schema.Optional[Register]
}

// NewCt loads key into the first register.
func NewCt(key CtKey) *Ct {
	return &Ct{Key: schema.Some(key), DReg: schema.Some(Reg1)}
}

func ctDir(e *Ct) *schema.Optional[CtDir] { return &e.Direction }

var ctSchema = schema.New("ct",
	schema.Uint32("key", attrCtKey, bigEndian, func(e *Ct) *schema.Optional[CtKey] { return &e.Key }),
	registerField("dreg", attrCtDreg, func(e *Ct) *schema.Optional[Register] { return &e.DReg }),
	schema.Enum(schema.Uint8("direction", attrCtDirection, ctDir), ctDir, func(d CtDir) bool { return d <= CtDirReply }),
	registerField("sreg", attrCtSreg, func(e *Ct) *schema.Optional[Register] { return &e.SReg }),
)
