package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/scitags/nftnl"
	"github.com/scitags/nftnl/nlsock"
)

func init() {
	listCmd.PersistentFlags().StringVar(&familyFlag, "family", "", "family to list: ip, ip6, inet, arp, bridge or netdev (default all)")
	listCmd.PersistentFlags().StringVar(&tableFlag, "table", "", "table to list")
	listRulesCmd.Flags().StringVar(&chainFlag, "chain", "", "chain to list the rules of")

	listCmd.AddCommand(listTablesCmd)
	listCmd.AddCommand(listChainsCmd)
	listCmd.AddCommand(listRulesCmd)
	listCmd.AddCommand(listSetsCmd)
}

var (
	familyFlag string
	tableFlag  string
	chainFlag  string

	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List nf_tables objects.",
	}

	listTablesCmd = &cobra.Command{
		Use:   "tables",
		Short: "List tables.",
		RunE: withConn(func(conn *nlsock.Conn, family nftnl.Family) error {
			tables, err := nftnl.ListTables(conn, family)
			if err != nil {
				return fmt.Errorf("error listing tables: %w", err)
			}
			for _, t := range tables {
				if tableFlag != "" && t.Name.Value != tableFlag {
					continue
				}
				fmt.Printf("table %s %s # handle %d\n", t.Family(), t.Name.Value, t.Handle.Value)
			}
			return nil
		}),
	}

	listChainsCmd = &cobra.Command{
		Use:   "chains",
		Short: "List chains.",
		RunE: withConn(func(conn *nlsock.Conn, family nftnl.Family) error {
			chains, err := listChains(conn, family)
			if err != nil {
				return err
			}
			for _, c := range chains {
				fmt.Println(formatChain(c))
			}
			return nil
		}),
	}

	listRulesCmd = &cobra.Command{
		Use:   "rules",
		Short: "List rules, along with their expressions.",
		RunE: withConn(func(conn *nlsock.Conn, family nftnl.Family) error {
			var (
				rules []*nftnl.Rule
				err   error
			)
			if chainFlag != "" {
				if tableFlag == "" || family == nftnl.FamilyUnspecified {
					return fmt.Errorf("--chain needs both --family and --table")
				}
				chain := nftnl.NewChain(chainFlag, nftnl.NewTable(tableFlag, family))
				rules, err = nftnl.ListRulesForChain(conn, chain)
			} else {
				rules, err = nftnl.ListRules(conn, family)
			}
			if err != nil {
				return fmt.Errorf("error listing rules: %w", err)
			}

			for _, r := range rules {
				if tableFlag != "" && r.Table.Value != tableFlag {
					continue
				}
				fmt.Println(formatRule(r))
			}
			return nil
		}),
	}

	listSetsCmd = &cobra.Command{
		Use:   "sets",
		Short: "List the sets of a table, along with their elements.",
		RunE: withConn(func(conn *nlsock.Conn, family nftnl.Family) error {
			if tableFlag == "" {
				return fmt.Errorf("listing sets needs --table")
			}
			sets, err := nftnl.ListSets(conn, nftnl.NewTable(tableFlag, family))
			if err != nil {
				return fmt.Errorf("error listing sets: %w", err)
			}
			for _, s := range sets {
				elems, err := nftnl.ListSetElements(conn, s)
				if err != nil {
					return fmt.Errorf("error listing the elements of %s: %w", s.Name.Value, err)
				}
				fmt.Println(formatSet(s, elems))
			}
			return nil
		}),
	}
)

// withConn parses the family and dials a socket for f.
func withConn(f func(conn *nlsock.Conn, family nftnl.Family) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		family := nftnl.FamilyUnspecified
		if familyFlag != "" {
			var err error
			if family, err = nftnl.ParseFamily(familyFlag); err != nil {
				return err
			}
		}

		conf, err := loadConf()
		if err != nil {
			return err
		}

		conn, err := nlsock.Dial(conf.Socket)
		if err != nil {
			return err
		}
		defer conn.Close()

		return f(conn, family)
	}
}

func listChains(conn *nlsock.Conn, family nftnl.Family) ([]*nftnl.Chain, error) {
	if tableFlag == "" {
		chains, err := nftnl.ListChains(conn, family)
		if err != nil {
			return nil, fmt.Errorf("error listing chains: %w", err)
		}
		return chains, nil
	}

	chains, err := nftnl.ListChainsForTable(conn, nftnl.NewTable(tableFlag, family))
	if err != nil {
		return nil, fmt.Errorf("error listing the chains of %s: %w", tableFlag, err)
	}
	return chains, nil
}

func formatChain(c *nftnl.Chain) string {
	var b strings.Builder
	fmt.Fprintf(&b, "chain %s %s %s", c.Family(), c.Table.Value, c.Name.Value)

	if h, ok := c.Hook.Get(); ok {
		fmt.Fprintf(&b, " { type %s hook %d", c.Type.Or(nftnl.ChainTypeFilter), h.Num.Value)
		if dev, ok := h.Device.Get(); ok {
			fmt.Fprintf(&b, " device %s", dev)
		}
		fmt.Fprintf(&b, " priority %d", h.Priority.Value)
		if p, ok := c.Policy.Get(); ok {
			fmt.Fprintf(&b, " policy %s", p)
		}
		b.WriteString(" }")
	}

	fmt.Fprintf(&b, " # handle %d", c.Handle.Value)
	return b.String()
}

func formatRule(r *nftnl.Rule) string {
	s := fmt.Sprintf("rule %s %s %s handle %d %s", r.Family(), r.Table.Value, r.Chain.Value, r.Handle.Value, r.Exprs())
	if comment, ok := r.Comment(); ok {
		s += fmt.Sprintf(" # %q", comment)
	}
	return s
}

func formatSet(s *nftnl.Set, elems []nftnl.SetElement) string {
	var b strings.Builder
	fmt.Fprintf(&b, "set %s %s %s { type %d/%d", s.Family(), s.Table.Value, s.Name.Value, s.KeyType.Value, s.KeyLen.Value)
	if f, ok := s.Flags.Get(); ok {
		fmt.Fprintf(&b, " flags %#x", f)
	}

	keys := make([]string, 0, len(elems))
	for _, e := range elems {
		keys = append(keys, fmt.Sprintf("%x", e.Key.Value.Value.Value))
	}
	fmt.Fprintf(&b, " elements { %s } } # handle %d", strings.Join(keys, ", "), s.Handle.Value)
	return b.String()
}
