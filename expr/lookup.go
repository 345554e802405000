package expr

import (
	"github.com/scitags/nftnl/schema"
)

const (
	attrLookupSet   = 1
	attrLookupSreg  = 2
	attrLookupDreg  = 3
	attrLookupSetID = 4
	attrLookupFlags = 5

	// LookupInvert makes the lookup match on absence.
	LookupInvert uint32 = 1 << 0
)

// Lookup matches the first register against the keys of a set.
type Lookup struct {
	SReg  schema.Optional[Register]
	Set   schema.Optional[string]
	SetID schema.Optional[uint32]
	DReg  schema.Optional[Register]
	Flags schema.Optional[uint32]
}

// NewLookup looks the first register up in the named set. The id refers to
// a set created within the same batch.
func NewLookup(set string, setID uint32) *Lookup {
	return &Lookup{
		SReg:  schema.Some(Reg1),
		Set:   schema.Some(set),
		SetID: schema.Some(setID),
	}
}

var lookupSchema = schema.New("lookup",
	registerField("sreg", attrLookupSreg, func(e *Lookup) *schema.Optional[Register] { return &e.SReg }),
	schema.String("set", attrLookupSet, func(e *Lookup) *schema.Optional[string] { return &e.Set }),
	uint32Field("set_id", attrLookupSetID, func(e *Lookup) *schema.Optional[uint32] { return &e.SetID }),
	registerField("dreg", attrLookupDreg, func(e *Lookup) *schema.Optional[Register] { return &e.DReg }),
	uint32Field("flags", attrLookupFlags, func(e *Lookup) *schema.Optional[uint32] { return &e.Flags }),
)
