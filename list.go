package nftnl

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mdlayher/netlink"

	"github.com/scitags/nftnl/nlmsg"
	"github.com/scitags/nftnl/query"
	"github.com/scitags/nftnl/schema"
)

// source is where a listing reads from: a blocking socket, or a socket
// waited on through a context.
type source struct {
	sock query.Socket

	ctx   context.Context
	async query.ContextSocket
}

func blocking(sock query.Socket) source { return source{sock: sock} }

func withContext(ctx context.Context, sock query.ContextSocket) source {
	return source{ctx: ctx, async: sock}
}

func decoder[T any, P interface {
	*T
	Object
}]() query.Decoder[P] {
	return func(h netlink.Header, g nlmsg.Nfgenmsg, attrs []byte) (P, error) {
		var zero P
		kind := nlmsg.KindName(nlmsg.Kind(uint16(h.Type)))

		family := Family(g.Family)
		if !family.Valid() {
			err := &schema.Error{Kind: "nfgenmsg", Field: "family", Err: fmt.Errorf("%w: %d", schema.ErrDiscriminant, g.Family)}
			return zero, fmt.Errorf("couldn't decode %s: %w", kind, err)
		}

		obj := P(new(T))
		if err := obj.UnmarshalAttributes(attrs); err != nil {
			return zero, fmt.Errorf("couldn't decode %s: %w", kind, err)
		}
		obj.SetFamily(family)
		return obj, nil
	}
}

func collect[T any, P interface {
	*T
	Object
}](src source, kind uint16, filter Object) ([]P, error) {
	attrs, err := filter.MarshalAttributes()
	if err != nil {
		return nil, err
	}
	r := query.Request{Kind: kind, Family: uint8(filter.Family()), Filter: attrs}

	var out []P
	if src.async != nil {
		out, err = query.CollectContext(src.ctx, src.async, r, decoder[T, P](), nil)
	} else {
		out, err = query.Collect(src.sock, r, decoder[T, P](), nil)
	}
	if err != nil {
		return nil, err
	}

	slog.Debug("listed objects", "kind", nlmsg.KindName(kind), "family", filter.Family(), "n", len(out))
	return out, nil
}

func keep[T any](in []T, f func(T) bool) []T {
	out := in[:0]
	for _, v := range in {
		if f(v) {
			out = append(out, v)
		}
	}
	return out
}

// ListTables returns the tables of family, or of every family when family
// is Unspecified.
func ListTables(sock query.Socket, family Family) ([]*Table, error) {
	return listTables(blocking(sock), family)
}

// ListTablesContext is ListTables waiting on the socket through ctx.
func ListTablesContext(ctx context.Context, sock query.ContextSocket, family Family) ([]*Table, error) {
	return listTables(withContext(ctx, sock), family)
}

func listTables(src source, family Family) ([]*Table, error) {
	return collect[Table](src, nlmsg.GetTable, &Table{family: family})
}

// ListChains returns the chains of family, or of every family when family
// is Unspecified.
func ListChains(sock query.Socket, family Family) ([]*Chain, error) {
	return listChains(blocking(sock), family)
}

// ListChainsContext is ListChains waiting on the socket through ctx.
func ListChainsContext(ctx context.Context, sock query.ContextSocket, family Family) ([]*Chain, error) {
	return listChains(withContext(ctx, sock), family)
}

func listChains(src source, family Family) ([]*Chain, error) {
	return collect[Chain](src, nlmsg.GetChain, &Chain{family: family})
}

// ListChainsForTable returns the chains of t.
func ListChainsForTable(sock query.Socket, t *Table) ([]*Chain, error) {
	return listChainsForTable(blocking(sock), t)
}

// ListChainsForTableContext is ListChainsForTable waiting on the socket
// through ctx.
func ListChainsForTableContext(ctx context.Context, sock query.ContextSocket, t *Table) ([]*Chain, error) {
	return listChainsForTable(withContext(ctx, sock), t)
}

func listChainsForTable(src source, t *Table) ([]*Chain, error) {
	if !named(t.Name) {
		return nil, &BuilderError{Object: "chain query", Err: ErrMissingTableInfo}
	}

	chains, err := collect[Chain](src, nlmsg.GetChain, &Chain{family: t.family, Table: t.Name})
	if err != nil {
		return nil, err
	}
	// Older kernels ignore the table in chain dumps.
	return keep(chains, func(c *Chain) bool { return c.Table == t.Name }), nil
}

// ListRules returns the rules of family, or of every family when family is
// Unspecified.
func ListRules(sock query.Socket, family Family) ([]*Rule, error) {
	return listRules(blocking(sock), family)
}

// ListRulesContext is ListRules waiting on the socket through ctx.
func ListRulesContext(ctx context.Context, sock query.ContextSocket, family Family) ([]*Rule, error) {
	return listRules(withContext(ctx, sock), family)
}

func listRules(src source, family Family) ([]*Rule, error) {
	return collect[Rule](src, nlmsg.GetRule, &Rule{family: family})
}

// ListRulesForChain returns the rules of c in evaluation order.
func ListRulesForChain(sock query.Socket, c *Chain) ([]*Rule, error) {
	return listRulesForChain(blocking(sock), c)
}

// ListRulesForChainContext is ListRulesForChain waiting on the socket
// through ctx.
func ListRulesForChainContext(ctx context.Context, sock query.ContextSocket, c *Chain) ([]*Rule, error) {
	return listRulesForChain(withContext(ctx, sock), c)
}

func listRulesForChain(src source, c *Chain) ([]*Rule, error) {
	if !named(c.Name) || !named(c.Table) {
		return nil, &BuilderError{Object: "rule query", Err: ErrMissingChainInfo}
	}

	filter := &Rule{family: c.family, Table: c.Table, Chain: c.Name}
	rules, err := collect[Rule](src, nlmsg.GetRule, filter)
	if err != nil {
		return nil, err
	}
	return keep(rules, func(r *Rule) bool {
		return r.Table == c.Table && r.Chain == c.Name
	}), nil
}

// ListSets returns the sets of t.
func ListSets(sock query.Socket, t *Table) ([]*Set, error) {
	return listSets(blocking(sock), t)
}

// ListSetsContext is ListSets waiting on the socket through ctx.
func ListSetsContext(ctx context.Context, sock query.ContextSocket, t *Table) ([]*Set, error) {
	return listSets(withContext(ctx, sock), t)
}

func listSets(src source, t *Table) ([]*Set, error) {
	if !named(t.Name) {
		return nil, &BuilderError{Object: "set query", Err: ErrMissingTableInfo}
	}
	return collect[Set](src, nlmsg.GetSet, &Set{family: t.family, Table: t.Name})
}

// ListSetElements returns the elements held by s in the kernel.
func ListSetElements(sock query.Socket, s *Set) ([]SetElement, error) {
	return listSetElements(blocking(sock), s)
}

// ListSetElementsContext is ListSetElements waiting on the socket through
// ctx.
func ListSetElementsContext(ctx context.Context, sock query.ContextSocket, s *Set) ([]SetElement, error) {
	return listSetElements(withContext(ctx, sock), s)
}

func listSetElements(src source, s *Set) ([]SetElement, error) {
	if !named(s.Name) || !named(s.Table) {
		return nil, &BuilderError{Object: "set element query", Err: ErrMissingSetInfo}
	}

	lists, err := collect[SetElements](src, nlmsg.GetSetElem, &SetElements{family: s.family, Table: s.Table, Set: s.Name})
	if err != nil {
		return nil, err
	}

	var elems []SetElement
	for _, l := range lists {
		elems = append(elems, l.Elements.Value...)
	}
	return elems, nil
}
