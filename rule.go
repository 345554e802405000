package nftnl

import (
	"bytes"

	"github.com/google/nftables/userdata"
	"github.com/mdlayher/netlink"

	"github.com/scitags/nftnl/expr"
	"github.com/scitags/nftnl/nlattr"
	"github.com/scitags/nftnl/nlmsg"
	"github.com/scitags/nftnl/schema"
)

const (
	attrRuleTable       = 1
	attrRuleChain       = 2
	attrRuleHandle      = 3
	attrRuleExpressions = 4
	attrRulePosition    = 6
	attrRuleUserData    = 7
	attrRuleID          = 9
)

// Rule is an ordered list of expressions within a chain. Its table and
// chain are copied by name when the rule is created.
type Rule struct {
	family Family

	Table       schema.Optional[string]
	Chain       schema.Optional[string]
	Handle      schema.Optional[uint64]
	Position    schema.Optional[uint64]
	Expressions schema.Optional[expr.List]
	UserData    schema.Optional[[]byte]
	ID          schema.Optional[uint32]
}

// NewRule starts an empty rule in c, which must have both a name and a
// table.
func NewRule(c *Chain) (*Rule, error) {
	if !named(c.Name) || !named(c.Table) {
		return nil, &BuilderError{Object: "rule", Err: ErrMissingChainInfo}
	}
	return &Rule{family: c.family, Table: c.Table, Chain: c.Name}, nil
}

// AddExpr appends e to the rule. Expressions run in the order they were
// added.
func (r *Rule) AddExpr(e expr.Any) {
	if !r.Expressions.Valid {
		r.Expressions = schema.Some(expr.List{})
	}
	r.Expressions.Value = append(r.Expressions.Value, e)
}

// WithExpr is AddExpr returning the rule for chaining.
func (r *Rule) WithExpr(e expr.Any) *Rule {
	r.AddExpr(e)
	return r
}

// Exprs returns the expressions of the rule, nil if there are none.
func (r *Rule) Exprs() expr.List {
	return r.Expressions.Value
}

// WithComment stores a comment in the rule's user data the way nft(8) does.
func (r *Rule) WithComment(comment string) *Rule {
	r.UserData = schema.Some(userdata.AppendString(r.UserData.Value, userdata.TypeComment, comment))
	return r
}

// Comment returns the comment set by nft(8) or WithComment.
func (r *Rule) Comment() (string, bool) {
	if !r.UserData.Valid {
		return "", false
	}
	return userdata.GetString(r.UserData.Value, userdata.TypeComment)
}

func (r *Rule) Family() Family { return r.family }
func (r *Rule) SetFamily(f Family) { r.family = f }
func (r *Rule) kinds() (uint16, uint16) { return nlmsg.NewRule, nlmsg.DelRule }

// New rules are appended at the end of the chain, or after Position.
func (r *Rule) addFlags() netlink.HeaderFlags { return netlink.Create | netlink.Append }

var ruleSchema = schema.New("rule",
	schema.String("table", attrRuleTable, func(r *Rule) *schema.Optional[string] { return &r.Table }),
	schema.String("chain", attrRuleChain, func(r *Rule) *schema.Optional[string] { return &r.Chain }),
	schema.Uint64("handle", attrRuleHandle, nlattr.BigEndian, func(r *Rule) *schema.Optional[uint64] { return &r.Handle }),
	schema.Uint64("position", attrRulePosition, nlattr.BigEndian, func(r *Rule) *schema.Optional[uint64] { return &r.Position }),
	schema.Custom("expressions", attrRuleExpressions,
		func(e *nlattr.Encoder, code uint16, r *Rule) error {
			l, ok := r.Expressions.Get()
			if !ok {
				return nil
			}
			e.Nested(code, l.Encode)
			return nil
		},
		func(r *Rule, b []byte) error {
			l, err := expr.DecodeList(b)
			if err != nil {
				return err
			}
			r.Expressions = schema.Some(l)
			return nil
		},
	),
	schema.Bytes("userdata", attrRuleUserData, func(r *Rule) *schema.Optional[[]byte] { return &r.UserData }),
	schema.Uint32("id", attrRuleID, nlattr.BigEndian, func(r *Rule) *schema.Optional[uint32] { return &r.ID }),
)

func (r *Rule) MarshalAttributes() ([]byte, error) {
	return ruleSchema.Marshal(r)
}

func (r *Rule) UnmarshalAttributes(b []byte) error {
	return ruleSchema.Decode(b, r)
}

// Essentialize drops the handle, position and id the kernel assigned.
func (r *Rule) Essentialize() {
	r.Handle.Clear()
	r.Position.Clear()
	r.ID.Clear()
}

// Essential returns a copy of the rule without kernel assigned fields.
func (r *Rule) Essential() *Rule {
	c := *r
	c.Essentialize()
	return &c
}

// Equal reports whether both rules encode to the same message, kernel
// assigned fields included.
func (r *Rule) Equal(o *Rule) bool {
	if r == nil || o == nil {
		return r == o
	}
	if r.family != o.family {
		return false
	}
	a, err := r.MarshalAttributes()
	if err != nil {
		return false
	}
	b, err := o.MarshalAttributes()
	if err != nil {
		return false
	}
	return bytes.Equal(a, b)
}

// EssentiallyEqual compares the rules ignoring kernel assigned fields.
func (r *Rule) EssentiallyEqual(o *Rule) bool {
	if r == nil || o == nil {
		return r == o
	}
	return r.Essential().Equal(o.Essential())
}
