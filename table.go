package nftnl

import (
	"github.com/mdlayher/netlink"

	"github.com/scitags/nftnl/nlattr"
	"github.com/scitags/nftnl/nlmsg"
	"github.com/scitags/nftnl/schema"
)

const (
	attrTableName     = 1
	attrTableFlags    = 2
	attrTableUse      = 3
	attrTableHandle   = 4
	attrTableUserData = 6
)

// TableDormant disables every base chain of a table.
const TableDormant uint32 = 1 << 0

type Table struct {
	family Family

	Name     schema.Optional[string]
	Flags    schema.Optional[uint32]
	Use      schema.Optional[uint32]
	Handle   schema.Optional[uint64]
	UserData schema.Optional[[]byte]
}

func NewTable(name string, family Family) *Table {
	return &Table{family: family, Name: schema.Some(name)}
}

func (t *Table) Family() Family { return t.family }
func (t *Table) SetFamily(f Family) { t.family = f }
func (t *Table) kinds() (uint16, uint16) { return nlmsg.NewTable, nlmsg.DelTable }

func (t *Table) addFlags() netlink.HeaderFlags { return netlink.Create }

var tableSchema = schema.New("table",
	schema.String("name", attrTableName, func(t *Table) *schema.Optional[string] { return &t.Name }),
	schema.Uint32("flags", attrTableFlags, nlattr.BigEndian, func(t *Table) *schema.Optional[uint32] { return &t.Flags }),
	schema.Uint64("handle", attrTableHandle, nlattr.BigEndian, func(t *Table) *schema.Optional[uint64] { return &t.Handle }),
	schema.Uint32("use", attrTableUse, nlattr.BigEndian, func(t *Table) *schema.Optional[uint32] { return &t.Use }),
	schema.Bytes("userdata", attrTableUserData, func(t *Table) *schema.Optional[[]byte] { return &t.UserData }),
)

func (t *Table) MarshalAttributes() ([]byte, error) {
	return tableSchema.Marshal(t)
}

func (t *Table) UnmarshalAttributes(b []byte) error {
	return tableSchema.Decode(b, t)
}

// Essentialize drops the handle and the use count.
func (t *Table) Essentialize() {
	t.Handle.Clear()
	t.Use.Clear()
}
