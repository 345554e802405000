package expr

import (
	"fmt"

	"github.com/scitags/nftnl/schema"
)

const (
	attrPayloadDreg       = 1
	attrPayloadBase       = 2
	attrPayloadOffset     = 3
	attrPayloadLen        = 4
	attrPayloadSreg       = 5
	attrPayloadCsumType   = 6
	attrPayloadCsumOffset = 7
	attrPayloadCsumFlags  = 8
)

// PayloadBase is the header offsets are relative to.
type PayloadBase uint32

const (
	PayloadLL PayloadBase = iota
	PayloadNetwork
	PayloadTransport
	PayloadInner
)

func (b PayloadBase) Valid() bool { return b <= PayloadInner }

func (b PayloadBase) String() string {
	switch b {
	case PayloadLL:
		return "link"
	case PayloadNetwork:
		return "network"
	case PayloadTransport:
		return "transport"
	case PayloadInner:
		return "inner"
	}
	return fmt.Sprintf("base(%d)", uint32(b))
}

// Checksum kinds for payload writes.
const (
	CsumNone uint32 = 0
	CsumInet uint32 = 1
	CsumSCTP uint32 = 2
)

// Payload loads Len bytes of packet data at Offset into DReg or, when SReg
// is set instead, writes them back into the packet.
type Payload struct {
	DReg       schema.Optional[Register]
	Base       schema.Optional[PayloadBase]
	Offset     schema.Optional[uint32]
	Len        schema.Optional[uint32]
	SReg       schema.Optional[Register]
	CsumType   schema.Optional[uint32]
	CsumOffset schema.Optional[uint32]
	CsumFlags  schema.Optional[uint32]
}

// NewPayload loads a header field into the first register.
func NewPayload(base PayloadBase, offset, length uint32) *Payload {
	return &Payload{
		DReg:   schema.Some(Reg1),
		Base:   schema.Some(base),
		Offset: schema.Some(offset),
		Len:    schema.Some(length),
	}
}

// NewPayloadWrite stores sreg into a header field and fixes up the checksum
// at csumOffset.
func NewPayloadWrite(base PayloadBase, offset, length uint32, sreg Register, csumType, csumOffset uint32) *Payload {
	return &Payload{
		Base:       schema.Some(base),
		Offset:     schema.Some(offset),
		Len:        schema.Some(length),
		SReg:       schema.Some(sreg),
		CsumType:   schema.Some(csumType),
		CsumOffset: schema.Some(csumOffset),
	}
}

// Common header fields.
func IPv4Source() *Payload { return NewPayload(PayloadNetwork, 12, 4) }
func IPv4Destination() *Payload { return NewPayload(PayloadNetwork, 16, 4) }
func IPv4Protocol() *Payload { return NewPayload(PayloadNetwork, 9, 1) }
func IPv6Source() *Payload { return NewPayload(PayloadNetwork, 8, 16) }
func IPv6Destination() *Payload { return NewPayload(PayloadNetwork, 24, 16) }
func IPv6NextHeader() *Payload { return NewPayload(PayloadNetwork, 6, 1) }
func TCPSourcePort() *Payload { return NewPayload(PayloadTransport, 0, 2) }
func TCPDestinationPort() *Payload { return NewPayload(PayloadTransport, 2, 2) }
func TCPFlags() *Payload { return NewPayload(PayloadTransport, 13, 1) }
func UDPSourcePort() *Payload { return NewPayload(PayloadTransport, 0, 2) }
func UDPDestinationPort() *Payload { return NewPayload(PayloadTransport, 2, 2) }
func ICMPv6Type() *Payload { return NewPayload(PayloadTransport, 0, 1) }
func EtherSource() *Payload { return NewPayload(PayloadLL, 6, 6) }
func EtherDestination() *Payload { return NewPayload(PayloadLL, 0, 6) }

func payloadBase(e *Payload) *schema.Optional[PayloadBase] { return &e.Base }

var payloadSchema = schema.New("payload",
	registerField("dreg", attrPayloadDreg, func(e *Payload) *schema.Optional[Register] { return &e.DReg }),
	schema.Enum(schema.Uint32("base", attrPayloadBase, bigEndian, payloadBase), payloadBase, PayloadBase.Valid),
	uint32Field("offset", attrPayloadOffset, func(e *Payload) *schema.Optional[uint32] { return &e.Offset }),
	uint32Field("len", attrPayloadLen, func(e *Payload) *schema.Optional[uint32] { return &e.Len }),
	registerField("sreg", attrPayloadSreg, func(e *Payload) *schema.Optional[Register] { return &e.SReg }),
	uint32Field("csum_type", attrPayloadCsumType, func(e *Payload) *schema.Optional[uint32] { return &e.CsumType }),
	uint32Field("csum_offset", attrPayloadCsumOffset, func(e *Payload) *schema.Optional[uint32] { return &e.CsumOffset }),
	uint32Field("csum_flags", attrPayloadCsumFlags, func(e *Payload) *schema.Optional[uint32] { return &e.CsumFlags }),
)
