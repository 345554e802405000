package expr

import (
	"golang.org/x/sys/unix"

	"github.com/scitags/nftnl/schema"
)

const (
	attrNatType        = 1
	attrNatFamily      = 2
	attrNatRegAddrMin  = 3
	attrNatRegAddrMax  = 4
	attrNatRegProtoMin = 5
	attrNatRegProtoMax = 6
	attrNatFlags       = 7
)

type NatType uint32

const (
	NatSNAT NatType = 0
	NatDNAT NatType = 1
)

func (t NatType) Valid() bool { return t <= NatDNAT }

func (t NatType) String() string {
	if t == NatDNAT {
		return "dnat"
	}
	return "snat"
}

// Nat rewrites addresses (and optionally ports) with values previously
// loaded into registers. Family is the NFPROTO value of the addresses.
type Nat struct {
	Type        schema.Optional[NatType]
	Family      schema.Optional[uint32]
	RegAddrMin  schema.Optional[Register]
	RegAddrMax  schema.Optional[Register]
	RegProtoMin schema.Optional[Register]
	RegProtoMax schema.Optional[Register]
	Flags       schema.Optional[uint32]
}

// NewNat translates to the address held in addrReg.
func NewNat(typ NatType, family uint8, addrReg Register) *Nat {
	return &Nat{
		Type:       schema.Some(typ),
		Family:     schema.Some(uint32(family)),
		RegAddrMin: schema.Some(addrReg),
	}
}

// WithPort also translates the port, taken from protoReg. The address
// already occupies a register so the port needs a second one.
func (n *Nat) WithPort(protoReg Register) *Nat {
	n.RegProtoMin = schema.Some(protoReg)
	return n
}

func natType(e *Nat) *schema.Optional[NatType] { return &e.Type }
func natFamily(e *Nat) *schema.Optional[uint32] { return &e.Family }

var natSchema = schema.New("nat",
	schema.Enum(schema.Uint32("type", attrNatType, bigEndian, natType), natType, NatType.Valid),
	schema.Enum(schema.Uint32("family", attrNatFamily, bigEndian, natFamily), natFamily, func(f uint32) bool {
		return f == unix.NFPROTO_IPV4 || f == unix.NFPROTO_IPV6
	}),
	registerField("reg_addr_min", attrNatRegAddrMin, func(e *Nat) *schema.Optional[Register] { return &e.RegAddrMin }),
	registerField("reg_addr_max", attrNatRegAddrMax, func(e *Nat) *schema.Optional[Register] { return &e.RegAddrMax }),
	registerField("reg_proto_min", attrNatRegProtoMin, func(e *Nat) *schema.Optional[Register] { return &e.RegProtoMin }),
	registerField("reg_proto_max", attrNatRegProtoMax, func(e *Nat) *schema.Optional[Register] { return &e.RegProtoMax }),
	uint32Field("flags", attrNatFlags, func(e *Nat) *schema.Optional[uint32] { return &e.Flags }),
)
