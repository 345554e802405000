package nftnl

import (
	"sync/atomic"

	"github.com/mdlayher/netlink"

	"github.com/scitags/nftnl/expr"
	"github.com/scitags/nftnl/nlattr"
	"github.com/scitags/nftnl/nlmsg"
	"github.com/scitags/nftnl/schema"
)

const (
	attrSetTable      = 1
	attrSetName       = 2
	attrSetFlags      = 3
	attrSetKeyType    = 4
	attrSetKeyLen     = 5
	attrSetDataType   = 6
	attrSetDataLen    = 7
	attrSetID         = 10
	attrSetTimeout    = 11
	attrSetGCInterval = 12
	attrSetUserData   = 13
	attrSetHandle     = 16

	attrSetElemListTable    = 1
	attrSetElemListSet      = 2
	attrSetElemListElements = 3
	attrSetElemListSetID    = 4

	attrSetElemKey      = 1
	attrSetElemData     = 2
	attrSetElemFlags    = 3
	attrSetElemTimeout  = 4
	attrSetElemUserData = 6

	attrListElem = 1
)

// Set flags.
const (
	SetAnonymous uint32 = 1 << 0
	SetConstant  uint32 = 1 << 1
	SetInterval  uint32 = 1 << 2
	SetMap       uint32 = 1 << 3
	SetTimeout   uint32 = 1 << 4
	SetEval      uint32 = 1 << 5
)

// SetElemIntervalEnd marks the element closing an interval.
const SetElemIntervalEnd uint32 = 1 << 0

// Datatype is an nft datatype along with the size of its values. The ids
// are shared with nft(8), which relies on them to print sets back.
type Datatype struct {
	ID  uint32
	Len uint32
}

var (
	TypeVerdict     = Datatype{ID: 1, Len: 4}
	TypeMark        = Datatype{ID: 19, Len: 4}
	TypeIPv4Addr    = Datatype{ID: 7, Len: 4}
	TypeIPv6Addr    = Datatype{ID: 8, Len: 16}
	TypeEtherAddr   = Datatype{ID: 9, Len: 6}
	TypeInetProto   = Datatype{ID: 12, Len: 1}
	TypeInetService = Datatype{ID: 13, Len: 2}
	TypeIfName      = Datatype{ID: 41, Len: 16}
)

// Sets created in a batch are referred to by id until the batch commits.
var setID atomic.Uint32

// Set is a named collection of keys within a table. Elements added locally
// travel in their own message, see SetElements.
type Set struct {
	family Family

	Table      schema.Optional[string]
	Name       schema.Optional[string]
	Flags      schema.Optional[uint32]
	KeyType    schema.Optional[uint32]
	KeyLen     schema.Optional[uint32]
	DataType   schema.Optional[uint32]
	DataLen    schema.Optional[uint32]
	ID         schema.Optional[uint32]
	Timeout    schema.Optional[uint64]
	GCInterval schema.Optional[uint32]
	UserData   schema.Optional[[]byte]
	Handle     schema.Optional[uint64]

	elements []SetElement
}

// NewSet creates a set of keys of the given type in t.
func NewSet(name string, t *Table, key Datatype) *Set {
	return &Set{
		family:  t.family,
		Table:   t.Name,
		Name:    schema.Some(name),
		KeyType: schema.Some(key.ID),
		KeyLen:  schema.Some(key.Len),
		ID:      schema.Some(setID.Add(1)),
	}
}

// AddElement queues key for insertion along with the set.
func (s *Set) AddElement(key []byte) {
	s.elements = append(s.elements, SetElement{Key: schema.Some(expr.Value(key))})
}

// Elements returns the locally queued elements.
func (s *Set) Elements() []SetElement {
	return s.elements
}

// ElementList wraps the queued elements into the object carrying them.
func (s *Set) ElementList() (*SetElements, error) {
	if !named(s.Name) || !named(s.Table) {
		return nil, &BuilderError{Object: "set elements", Err: ErrMissingSetInfo}
	}
	l := &SetElements{family: s.family, Table: s.Table, Set: s.Name, SetID: s.ID}
	if len(s.elements) > 0 {
		l.Elements = schema.Some(append([]SetElement(nil), s.elements...))
	}
	return l, nil
}

// Lookup builds an expression matching the first register against the set.
func (s *Set) Lookup() (*expr.Lookup, error) {
	if !named(s.Name) {
		return nil, &BuilderError{Object: "lookup", Err: ErrMissingSetInfo}
	}
	l := expr.NewLookup(s.Name.Value, s.ID.Value)
	if !s.ID.Valid {
		l.SetID.Clear()
	}
	return l, nil
}

func (s *Set) Family() Family { return s.family }
func (s *Set) SetFamily(f Family) { s.family = f }
func (s *Set) kinds() (uint16, uint16) { return nlmsg.NewSet, nlmsg.DelSet }

func (s *Set) addFlags() netlink.HeaderFlags { return netlink.Create }

func u32[T any](name string, code uint16, get func(*T) *schema.Optional[uint32]) schema.Field[T] {
	return schema.Uint32(name, code, nlattr.BigEndian, get)
}

var setSchema = schema.New("set",
	schema.String("table", attrSetTable, func(s *Set) *schema.Optional[string] { return &s.Table }),
	schema.String("name", attrSetName, func(s *Set) *schema.Optional[string] { return &s.Name }),
	u32("flags", attrSetFlags, func(s *Set) *schema.Optional[uint32] { return &s.Flags }),
	u32("key_type", attrSetKeyType, func(s *Set) *schema.Optional[uint32] { return &s.KeyType }),
	u32("key_len", attrSetKeyLen, func(s *Set) *schema.Optional[uint32] { return &s.KeyLen }),
	u32("data_type", attrSetDataType, func(s *Set) *schema.Optional[uint32] { return &s.DataType }),
	u32("data_len", attrSetDataLen, func(s *Set) *schema.Optional[uint32] { return &s.DataLen }),
	u32("id", attrSetID, func(s *Set) *schema.Optional[uint32] { return &s.ID }),
	schema.Uint64("timeout", attrSetTimeout, nlattr.BigEndian, func(s *Set) *schema.Optional[uint64] { return &s.Timeout }),
	u32("gc_interval", attrSetGCInterval, func(s *Set) *schema.Optional[uint32] { return &s.GCInterval }),
	schema.Bytes("userdata", attrSetUserData, func(s *Set) *schema.Optional[[]byte] { return &s.UserData }),
	schema.Uint64("handle", attrSetHandle, nlattr.BigEndian, func(s *Set) *schema.Optional[uint64] { return &s.Handle }),
)

func (s *Set) MarshalAttributes() ([]byte, error) {
	return setSchema.Marshal(s)
}

func (s *Set) UnmarshalAttributes(b []byte) error {
	return setSchema.Decode(b, s)
}

// Essentialize drops the handle.
func (s *Set) Essentialize() {
	s.Handle.Clear()
}

// SetElement is a key, or a key and its value in maps.
type SetElement struct {
	Key      schema.Optional[expr.Data]
	Data     schema.Optional[expr.Data]
	Flags    schema.Optional[uint32]
	Timeout  schema.Optional[uint64]
	UserData schema.Optional[[]byte]
}

var setElemSchema = schema.New("set element",
	schema.Nested("key", attrSetElemKey, expr.DataSchema, func(e *SetElement) *schema.Optional[expr.Data] { return &e.Key }),
	schema.Nested("data", attrSetElemData, expr.DataSchema, func(e *SetElement) *schema.Optional[expr.Data] { return &e.Data }),
	u32("flags", attrSetElemFlags, func(e *SetElement) *schema.Optional[uint32] { return &e.Flags }),
	schema.Uint64("timeout", attrSetElemTimeout, nlattr.BigEndian, func(e *SetElement) *schema.Optional[uint64] { return &e.Timeout }),
	schema.Bytes("userdata", attrSetElemUserData, func(e *SetElement) *schema.Optional[[]byte] { return &e.UserData }),
)

// SetElements carries elements being added to, removed from or listed out
// of a set.
type SetElements struct {
	family Family

	Table    schema.Optional[string]
	Set      schema.Optional[string]
	Elements schema.Optional[[]SetElement]
	SetID    schema.Optional[uint32]
}

func (l *SetElements) Family() Family { return l.family }
func (l *SetElements) SetFamily(f Family) { l.family = f }
func (l *SetElements) kinds() (uint16, uint16) { return nlmsg.NewSetElem, nlmsg.DelSetElem }

func (l *SetElements) addFlags() netlink.HeaderFlags { return netlink.Create }

var setElemListSchema = schema.New("set elements",
	schema.String("table", attrSetElemListTable, func(l *SetElements) *schema.Optional[string] { return &l.Table }),
	schema.String("set", attrSetElemListSet, func(l *SetElements) *schema.Optional[string] { return &l.Set }),
	schema.Custom("elements", attrSetElemListElements,
		func(e *nlattr.Encoder, code uint16, l *SetElements) error {
			elems, ok := l.Elements.Get()
			if !ok {
				return nil
			}
			e.Nested(code, func(e *nlattr.Encoder) error {
				for i := range elems {
					e.Nested(attrListElem, func(e *nlattr.Encoder) error {
						return setElemSchema.Encode(e, &elems[i])
					})
				}
				return nil
			})
			return nil
		},
		func(l *SetElements, b []byte) error {
			elems := []SetElement{}
			d := nlattr.NewDecoder(b)
			for d.Next() {
				a := d.Attr()
				if a.Type != attrListElem {
					continue
				}
				var elem SetElement
				if err := setElemSchema.Decode(a.Data, &elem); err != nil {
					return err
				}
				elems = append(elems, elem)
			}
			if err := d.Err(); err != nil {
				return err
			}
			l.Elements = schema.Some(elems)
			return nil
		},
	),
	u32("set_id", attrSetElemListSetID, func(l *SetElements) *schema.Optional[uint32] { return &l.SetID }),
)

func (l *SetElements) MarshalAttributes() ([]byte, error) {
	return setElemListSchema.Marshal(l)
}

func (l *SetElements) UnmarshalAttributes(b []byte) error {
	return setElemListSchema.Decode(b, l)
}
