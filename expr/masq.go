package expr

import (
	"github.com/scitags/nftnl/schema"
)

const (
	attrMasqFlags       = 1
	attrMasqRegProtoMin = 2
	attrMasqRegProtoMax = 3
)

// Masq source NATs to the address of the outgoing interface.
type Masq struct {
	Flags       schema.Optional[uint32]
	RegProtoMin schema.Optional[Register]
	RegProtoMax schema.Optional[Register]
}

func NewMasq() *Masq { return &Masq{} }

var masqSchema = schema.New("masq",
	uint32Field("flags", attrMasqFlags, func(e *Masq) *schema.Optional[uint32] { return &e.Flags }),
	registerField("reg_proto_min", attrMasqRegProtoMin, func(e *Masq) *schema.Optional[Register] { return &e.RegProtoMin }),
	registerField("reg_proto_max", attrMasqRegProtoMax, func(e *Masq) *schema.Optional[Register] { return &e.RegProtoMax }),
)
