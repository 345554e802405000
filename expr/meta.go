package expr

import (
	"fmt"

	"github.com/scitags/nftnl/schema"
)

const (
	attrMetaDreg = 1
	attrMetaKey  = 2
	attrMetaSreg = 3
)

// MetaKey selects the packet metadata to load. The kernel grows this list
// regularly so any value decodes.
type MetaKey uint32

const (
	MetaLen MetaKey = iota
	MetaProtocol
	MetaPriority
	MetaMark
	MetaIif
	MetaOif
	MetaIifName
	MetaOifName
	MetaIifType
	MetaOifType
	MetaSkUID
	MetaSkGID
	MetaNFTrace
	MetaRtClassID
	MetaSecmark
	MetaNFProto
	MetaL4Proto
	MetaBriIifName
	MetaBriOifName
	MetaPktType
	MetaCPU
	MetaIifGroup
	MetaOifGroup
	MetaCgroup
	MetaPRandom
)

var metaKeyNames = []string{
	"length", "protocol", "priority", "mark", "iif", "oif", "iifname",
	"oifname", "iiftype", "oiftype", "skuid", "skgid", "nftrace",
	"rtclassid", "secmark", "nfproto", "l4proto", "ibrname", "obrname",
	"pkttype", "cpu", "iifgroup", "oifgroup", "cgroup", "random",
}

func (k MetaKey) String() string {
	if int(k) < len(metaKeyNames) {
		return metaKeyNames[k]
	}
	return fmt.Sprintf("meta(%d)", uint32(k))
}

// Meta loads (or with SReg, stores) packet metadata.
type Meta struct {
	Key  schema.Optional[MetaKey]
	DReg schema.Optional[Register]
	SReg schema.Optional[Register]
}

// NewMeta loads key into the first register.
func NewMeta(key MetaKey) *Meta {
	return &Meta{Key: schema.Some(key), DReg: schema.Some(Reg1)}
}

var metaSchema = schema.New("meta",
	schema.Uint32("key", attrMetaKey, bigEndian, func(e *Meta) *schema.Optional[MetaKey] { return &e.Key }),
	registerField("dreg", attrMetaDreg, func(e *Meta) *schema.Optional[Register] { return &e.DReg }),
	registerField("sreg", attrMetaSreg, func(e *Meta) *schema.Optional[Register] { return &e.SReg }),
)
