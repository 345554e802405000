package nftnl

import (
	"fmt"

	"github.com/mdlayher/netlink"

	"github.com/scitags/nftnl/nlattr"
	"github.com/scitags/nftnl/nlmsg"
	"github.com/scitags/nftnl/schema"
)

const (
	attrChainTable    = 1
	attrChainHandle   = 2
	attrChainName     = 3
	attrChainHook     = 4
	attrChainPolicy   = 5
	attrChainUse      = 6
	attrChainType     = 7
	attrChainFlags    = 10
	attrChainUserData = 12

	attrHookNum      = 1
	attrHookPriority = 2
	attrHookDev      = 3
)

// HookNum is the netfilter hook a base chain is attached to. The netdev
// family reuses the first values for ingress and egress.
type HookNum uint32

const (
	HookPrerouting  HookNum = 0
	HookInput       HookNum = 1
	HookForward     HookNum = 2
	HookOutput      HookNum = 3
	HookPostrouting HookNum = 4

	HookIngress HookNum = 0
	HookEgress  HookNum = 1
)

// Standard base chain priorities.
const (
	PriorityRaw      int32 = -300
	PriorityMangle   int32 = -150
	PriorityDstNAT   int32 = -100
	PriorityFilter   int32 = 0
	PrioritySecurity int32 = 50
	PrioritySrcNAT   int32 = 100
)

type ChainType string

const (
	ChainTypeFilter ChainType = "filter"
	ChainTypeRoute  ChainType = "route"
	ChainTypeNAT    ChainType = "nat"
)

// ChainPolicy is the verdict of packets falling off a base chain.
type ChainPolicy uint32

const (
	PolicyDrop   ChainPolicy = 0
	PolicyAccept ChainPolicy = 1
)

func (p ChainPolicy) Valid() bool { return p <= PolicyAccept }

func (p ChainPolicy) String() string {
	switch p {
	case PolicyDrop:
		return "drop"
	case PolicyAccept:
		return "accept"
	}
	return fmt.Sprintf("policy(%d)", uint32(p))
}

// Hook attaches a base chain to the packet path.
type Hook struct {
	Num      schema.Optional[HookNum]
	Priority schema.Optional[int32]
	Device   schema.Optional[string]
}

// Chain belongs to a table, which it refers to by name. Chains without a
// hook are regular chains only reachable through jumps.
type Chain struct {
	family Family

	Table    schema.Optional[string]
	Handle   schema.Optional[uint64]
	Name     schema.Optional[string]
	Hook     schema.Optional[Hook]
	Policy   schema.Optional[ChainPolicy]
	Use      schema.Optional[uint32]
	Type     schema.Optional[ChainType]
	Flags    schema.Optional[uint32]
	UserData schema.Optional[[]byte]
}

// NewChain copies the family and name of t. A table without a name yields
// a chain rules can't be built from.
func NewChain(name string, t *Table) *Chain {
	return &Chain{family: t.family, Table: t.Name, Name: schema.Some(name)}
}

// WithHook turns the chain into a base chain.
func (c *Chain) WithHook(num HookNum, priority int32) *Chain {
	h := c.Hook.Value
	h.Num = schema.Some(num)
	h.Priority = schema.Some(priority)
	c.Hook = schema.Some(h)
	return c
}

// WithDevice binds a netdev family base chain to an interface.
func (c *Chain) WithDevice(dev string) *Chain {
	h := c.Hook.Value
	h.Device = schema.Some(dev)
	c.Hook = schema.Some(h)
	return c
}

func (c *Chain) WithType(t ChainType) *Chain {
	c.Type = schema.Some(t)
	return c
}

func (c *Chain) WithPolicy(p ChainPolicy) *Chain {
	c.Policy = schema.Some(p)
	return c
}

func (c *Chain) Family() Family { return c.family }
func (c *Chain) SetFamily(f Family) { c.family = f }
func (c *Chain) kinds() (uint16, uint16) { return nlmsg.NewChain, nlmsg.DelChain }

func (c *Chain) addFlags() netlink.HeaderFlags { return netlink.Create }

var hookSchema = schema.New("hook",
	schema.Uint32("hooknum", attrHookNum, nlattr.BigEndian, func(h *Hook) *schema.Optional[HookNum] { return &h.Num }),
	schema.Int32("priority", attrHookPriority, nlattr.BigEndian, func(h *Hook) *schema.Optional[int32] { return &h.Priority }),
	schema.String("dev", attrHookDev, func(h *Hook) *schema.Optional[string] { return &h.Device }),
)

func chainPolicy(c *Chain) *schema.Optional[ChainPolicy] { return &c.Policy }

var chainSchema = schema.New("chain",
	schema.String("table", attrChainTable, func(c *Chain) *schema.Optional[string] { return &c.Table }),
	schema.Uint64("handle", attrChainHandle, nlattr.BigEndian, func(c *Chain) *schema.Optional[uint64] { return &c.Handle }),
	schema.String("name", attrChainName, func(c *Chain) *schema.Optional[string] { return &c.Name }),
	schema.Nested("hook", attrChainHook, hookSchema, func(c *Chain) *schema.Optional[Hook] { return &c.Hook }),
	schema.Enum(schema.Uint32("policy", attrChainPolicy, nlattr.BigEndian, chainPolicy), chainPolicy, ChainPolicy.Valid),
	schema.Uint32("use", attrChainUse, nlattr.BigEndian, func(c *Chain) *schema.Optional[uint32] { return &c.Use }),
	schema.String("type", attrChainType, func(c *Chain) *schema.Optional[ChainType] { return &c.Type }),
	schema.Uint32("flags", attrChainFlags, nlattr.BigEndian, func(c *Chain) *schema.Optional[uint32] { return &c.Flags }),
	schema.Bytes("userdata", attrChainUserData, func(c *Chain) *schema.Optional[[]byte] { return &c.UserData }),
)

func (c *Chain) MarshalAttributes() ([]byte, error) {
	return chainSchema.Marshal(c)
}

func (c *Chain) UnmarshalAttributes(b []byte) error {
	return chainSchema.Decode(b, c)
}

// Essentialize drops the handle and the use count.
func (c *Chain) Essentialize() {
	c.Handle.Clear()
	c.Use.Clear()
}
