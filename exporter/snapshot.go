package exporter

import (
	"context"
	"fmt"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/scitags/nftnl"
	"github.com/scitags/nftnl/expr"
	"github.com/scitags/nftnl/query"
)

// Socket is what a scrape reads the ruleset through. Every family gets its
// own socket so that dumps can run side by side.
type Socket interface {
	query.ContextSocket
	Close() error
}

type Dialer func() (Socket, error)

type Rule struct {
	Handle  uint64   `json:"handle"`
	Comment string   `json:"comment,omitempty"`
	Bytes   *uint64  `json:"bytes,omitempty"`
	Packets *uint64  `json:"packets,omitempty"`
	Exprs   []string `json:"exprs"`
}

type Chain struct {
	Name     string `json:"name"`
	Type     string `json:"type,omitempty"`
	Hook     *int   `json:"hook,omitempty"`
	Priority *int32 `json:"priority,omitempty"`
	Policy   string `json:"policy,omitempty"`
	Rules    []Rule `json:"rules,omitempty"`
}

type Table struct {
	Family string  `json:"family"`
	Name   string  `json:"name"`
	Handle uint64  `json:"handle"`
	Chains []Chain `json:"chains"`
}

// Snapshot is the ruleset as seen by the last scrape.
type Snapshot struct {
	Taken  time.Time `json:"taken"`
	Tables []Table   `json:"tables"`
}

func (s *Snapshot) table(family, name string) (*Table, bool) {
	for i := range s.Tables {
		if s.Tables[i].Family == family && s.Tables[i].Name == name {
			return &s.Tables[i], true
		}
	}
	return nil, false
}

func (t *Table) chain(name string) (*Chain, bool) {
	for i := range t.Chains {
		if t.Chains[i].Name == name {
			return &t.Chains[i], true
		}
	}
	return nil, false
}

// selection restricts a scrape to some families and tables. No tables means
// every table.
type selection struct {
	families []nftnl.Family
	tables   []string
}

func newSelection(families, tables []string) (selection, error) {
	s := selection{tables: tables}
	for _, name := range families {
		f, err := nftnl.ParseFamily(name)
		if err != nil {
			return selection{}, err
		}
		s.families = append(s.families, f)
	}
	return s, nil
}

func (s selection) wants(table string) bool {
	return len(s.tables) == 0 || slices.Contains(s.tables, table)
}

// scrape lists every selected family concurrently. The tables of a family
// come out in the order the kernel dumped them, families in the order they
// were selected.
func scrape(ctx context.Context, dial Dialer, sel selection) (*Snapshot, error) {
	perFamily := make([][]Table, len(sel.families))

	g, ctx := errgroup.WithContext(ctx)
	for i, family := range sel.families {
		g.Go(func() error {
			sock, err := dial()
			if err != nil {
				return fmt.Errorf("error opening a socket for %s: %w", family, err)
			}
			defer sock.Close()

			tables, err := scrapeFamily(ctx, sock, family, sel)
			if err != nil {
				return fmt.Errorf("error scraping %s: %w", family, err)
			}
			perFamily[i] = tables
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap := &Snapshot{Taken: time.Now(), Tables: []Table{}}
	for _, tables := range perFamily {
		snap.Tables = append(snap.Tables, tables...)
	}
	return snap, nil
}

func scrapeFamily(ctx context.Context, sock Socket, family nftnl.Family, sel selection) ([]Table, error) {
	tables, err := nftnl.ListTablesContext(ctx, sock, family)
	if err != nil {
		return nil, err
	}
	chains, err := nftnl.ListChainsContext(ctx, sock, family)
	if err != nil {
		return nil, err
	}
	rules, err := nftnl.ListRulesContext(ctx, sock, family)
	if err != nil {
		return nil, err
	}

	out := []Table{}
	for _, t := range tables {
		name := t.Name.Value
		if !sel.wants(name) {
			continue
		}

		tv := Table{Family: family.String(), Name: name, Handle: t.Handle.Value, Chains: []Chain{}}
		for _, c := range chains {
			if c.Table.Value != name {
				continue
			}
			cv := newChain(c)
			for _, r := range rules {
				if r.Table.Value == name && r.Chain.Value == cv.Name {
					cv.Rules = append(cv.Rules, newRule(r))
				}
			}
			tv.Chains = append(tv.Chains, cv)
		}
		out = append(out, tv)
	}

	logger.Debug("scraped family", "family", family, "tables", len(out), "rules", len(rules))
	return out, nil
}

func newChain(c *nftnl.Chain) Chain {
	cv := Chain{Name: c.Name.Value, Type: string(c.Type.Value), Rules: []Rule{}}
	if h, ok := c.Hook.Get(); ok {
		if num, ok := h.Num.Get(); ok {
			n := int(num)
			cv.Hook = &n
		}
		if prio, ok := h.Priority.Get(); ok {
			cv.Priority = &prio
		}
	}
	if p, ok := c.Policy.Get(); ok {
		cv.Policy = p.String()
	}
	return cv
}

func newRule(r *nftnl.Rule) Rule {
	rv := Rule{Handle: r.Handle.Value, Exprs: []string{}}
	rv.Comment, _ = r.Comment()

	for _, e := range r.Exprs() {
		rv.Exprs = append(rv.Exprs, expr.Format(e))

		// Only the first counter of a rule is reported.
		if c, ok := e.(*expr.Counter); ok && rv.Bytes == nil {
			b, p := c.Bytes.Value, c.Packets.Value
			rv.Bytes, rv.Packets = &b, &p
		}
	}
	return rv
}
