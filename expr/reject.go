package expr

import (
	"github.com/scitags/nftnl/schema"
)

const (
	attrRejectType     = 1
	attrRejectICMPCode = 2
)

type RejectType uint32

const (
	RejectICMPUnreach  RejectType = 0
	RejectTCPRst       RejectType = 1
	RejectICMPXUnreach RejectType = 2
)

func (t RejectType) Valid() bool { return t <= RejectICMPXUnreach }

// Family independent ICMP codes used with RejectICMPXUnreach.
const (
	ICMPXNoRoute     uint8 = 0
	ICMPXPortUnreach uint8 = 1
	ICMPXHostUnreach uint8 = 2
	ICMPXAdminProhib uint8 = 3
)

// Reject drops a packet and tells the sender about it.
type Reject struct {
	Type     schema.Optional[RejectType]
	ICMPCode schema.Optional[uint8]
}

// NewReject builds a reject of the given type. The code is ignored for TCP
// resets.
func NewReject(typ RejectType, code uint8) *Reject {
	r := &Reject{Type: schema.Some(typ)}
	if typ != RejectTCPRst {
		r.ICMPCode = schema.Some(code)
	}
	return r
}

func rejectType(e *Reject) *schema.Optional[RejectType] { return &e.Type }

var rejectSchema = schema.New("reject",
	schema.Enum(schema.Uint32("type", attrRejectType, bigEndian, rejectType), rejectType, RejectType.Valid),
	schema.Uint8("icmp_code", attrRejectICMPCode, func(e *Reject) *schema.Optional[uint8] { return &e.ICMPCode }),
)
