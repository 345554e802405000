package nftnl

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mdlayher/netlink"

	"github.com/scitags/nftnl/expr"
	"github.com/scitags/nftnl/internal/nltest"
	"github.com/scitags/nftnl/nlmsg"
	"github.com/scitags/nftnl/schema"
)

const listPID = 4321

// replyWith answers a dump with objs followed by done.
func replyWith(t *testing.T, kind uint16, objs ...Object) func([]byte) [][]byte {
	t.Helper()

	var bodies [][]byte
	var families []uint8
	for _, o := range objs {
		b, err := o.MarshalAttributes()
		if err != nil {
			t.Fatalf("error marshalling %T: %v", o, err)
		}
		bodies = append(bodies, b)
		families = append(families, uint8(o.Family()))
	}

	return func(req []byte) [][]byte {
		seq := nltest.Seq(req)
		var msgs [][]byte
		for i, b := range bodies {
			msgs = append(msgs, nltest.Data(seq, listPID, kind, 0, families[i], b))
		}
		return [][]byte{nltest.Datagram(msgs...), nltest.Done(seq, listPID, 0)}
	}
}

func request(t *testing.T, sock *nltest.Socket) (nlmsg.Message, []byte) {
	t.Helper()

	sent := sock.Sent()
	if len(sent) != 1 {
		t.Fatalf("got %d requests, want 1", len(sent))
	}
	msgs, err := nlmsg.Split(sent[0])
	if err != nil {
		t.Fatalf("error splitting request: %v", err)
	}
	m := msgs[0]
	if m.Header.Flags != netlink.Request|netlink.Dump {
		t.Errorf("got request flags %v", m.Header.Flags)
	}
	return m, m.Data[nlmsg.NfgenmsgLen:]
}

func TestListTables(t *testing.T) {
	filter := NewTable("filter", FamilyInet)
	filter.Handle = schema.Some[uint64](1)
	filter.Use = schema.Some[uint32](3)
	nat := NewTable("nat", FamilyIPv4)
	nat.Handle = schema.Some[uint64](2)

	sock := &nltest.Socket{PID: listPID, Reply: replyWith(t, nlmsg.NewTable, filter, nat)}
	got, err := ListTables(sock, FamilyUnspecified)
	if err != nil {
		t.Fatalf("error listing tables: %v", err)
	}
	if diff := cmp.Diff([]*Table{filter, nat}, got, allowUnexported); diff != "" {
		t.Errorf("tables mismatch (-want +got):\n%s", diff)
	}

	m, attrs := request(t, sock)
	if got, want := uint16(m.Header.Type), nlmsg.Type(nlmsg.GetTable); got != want {
		t.Errorf("got type %#x, want %#x", got, want)
	}
	if len(attrs) != 0 {
		t.Errorf("unfiltered dump carries attributes %v", attrs)
	}
}

func TestListChainsForTable(t *testing.T) {
	table := NewTable("filter", FamilyInet)
	input := NewChain("input", table).WithHook(HookInput, PriorityFilter).WithType(ChainTypeFilter)
	output := NewChain("output", table)
	foreign := NewChain("prerouting", NewTable("nat", FamilyInet))

	sock := &nltest.Socket{PID: listPID, Reply: replyWith(t, nlmsg.NewChain, input, foreign, output)}
	got, err := ListChainsForTable(sock, table)
	if err != nil {
		t.Fatalf("error listing chains: %v", err)
	}
	if diff := cmp.Diff([]*Chain{input, output}, got, allowUnexported); diff != "" {
		t.Errorf("chains mismatch (-want +got):\n%s", diff)
	}

	_, attrs := request(t, sock)
	var f Chain
	if err := f.UnmarshalAttributes(attrs); err != nil {
		t.Fatalf("error decoding filter: %v", err)
	}
	if diff := cmp.Diff(Chain{Table: table.Name}, f, allowUnexported); diff != "" {
		t.Errorf("filter mismatch (-want +got):\n%s", diff)
	}

	for _, bad := range []*Table{{}, NewTable("", FamilyInet)} {
		if _, err := ListChainsForTable(sock, bad); !errors.Is(err, ErrMissingTableInfo) {
			t.Errorf("got %v, want ErrMissingTableInfo", err)
		}
	}
}

func TestListRulesForChain(t *testing.T) {
	chain := mockChain()
	first := mockRule(t).WithExpr(expr.NewCounter()).WithExpr(expr.Drop())
	first.Handle = schema.Some[uint64](4)
	second := mockRule(t).WithExpr(expr.Accept()).WithComment("last")
	second.Handle = schema.Some[uint64](5)

	sock := &nltest.Socket{PID: listPID, Reply: replyWith(t, nlmsg.NewRule, first, second)}
	got, err := ListRulesForChain(sock, chain)
	if err != nil {
		t.Fatalf("error listing rules: %v", err)
	}
	if diff := cmp.Diff([]*Rule{first, second}, got, allowUnexported); diff != "" {
		t.Errorf("rules mismatch (-want +got):\n%s", diff)
	}

	m, attrs := request(t, sock)
	g, err := nlmsg.ParseNfgenmsg(m.Data)
	if err != nil {
		t.Fatalf("error parsing nfgenmsg: %v", err)
	}
	if Family(g.Family) != FamilyInet {
		t.Errorf("got family %v, want inet", Family(g.Family))
	}
	var f Rule
	if err := f.UnmarshalAttributes(attrs); err != nil {
		t.Fatalf("error decoding filter: %v", err)
	}
	if diff := cmp.Diff(Rule{Table: chain.Table, Chain: chain.Name}, f, allowUnexported); diff != "" {
		t.Errorf("filter mismatch (-want +got):\n%s", diff)
	}

	if _, err := ListRulesForChain(sock, &Chain{Name: schema.Some("input")}); !errors.Is(err, ErrMissingChainInfo) {
		t.Errorf("got %v, want ErrMissingChainInfo", err)
	}
}

func TestListRulesContext(t *testing.T) {
	r := mockRule(t).WithExpr(expr.NewCounter())

	plain, err := ListRules(&nltest.Socket{PID: listPID, Reply: replyWith(t, nlmsg.NewRule, r)}, FamilyInet)
	if err != nil {
		t.Fatalf("error listing rules: %v", err)
	}
	withCtx, err := ListRulesContext(context.Background(), &nltest.Socket{PID: listPID, Reply: replyWith(t, nlmsg.NewRule, r)}, FamilyInet)
	if err != nil {
		t.Fatalf("error listing rules: %v", err)
	}
	if diff := cmp.Diff(plain, withCtx, allowUnexported); diff != "" {
		t.Errorf("blocking and context listings differ (-blocking +context):\n%s", diff)
	}
}

func TestListSetsAndElements(t *testing.T) {
	table := NewTable("filter", FamilyInet)
	set := NewSet("ports", table, TypeInetService)

	sock := &nltest.Socket{PID: listPID, Reply: replyWith(t, nlmsg.NewSet, set)}
	sets, err := ListSets(sock, table)
	if err != nil {
		t.Fatalf("error listing sets: %v", err)
	}
	if diff := cmp.Diff([]*Set{set}, sets, allowUnexported); diff != "" {
		t.Errorf("sets mismatch (-want +got):\n%s", diff)
	}

	batches := []Object{
		&SetElements{family: FamilyInet, Table: table.Name, Set: set.Name, Elements: schema.Some([]SetElement{
			{Key: schema.Some(expr.Value(expr.Port(22)))},
		})},
		&SetElements{family: FamilyInet, Table: table.Name, Set: set.Name, Elements: schema.Some([]SetElement{
			{Key: schema.Some(expr.Value(expr.Port(80)))},
			{Key: schema.Some(expr.Value(expr.Port(443)))},
		})},
	}
	sock = &nltest.Socket{PID: listPID, Reply: replyWith(t, nlmsg.NewSetElem, batches...)}
	elems, err := ListSetElementsContext(context.Background(), sock, set)
	if err != nil {
		t.Fatalf("error listing elements: %v", err)
	}
	var keys [][]byte
	for _, e := range elems {
		keys = append(keys, e.Key.Value.Value.Value)
	}
	if diff := cmp.Diff([][]byte{expr.Port(22), expr.Port(80), expr.Port(443)}, keys); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}

	if _, err := ListSetElements(sock, &Set{Name: schema.Some("ports")}); !errors.Is(err, ErrMissingSetInfo) {
		t.Errorf("got %v, want ErrMissingSetInfo", err)
	}
}

func TestListDecodeError(t *testing.T) {
	reply := func(req []byte) [][]byte {
		seq := nltest.Seq(req)
		// A chain whose policy is neither accept nor drop.
		attrs := []byte{8, 0, attrChainPolicy, 0, 0, 0, 0, 7}
		return [][]byte{nltest.Datagram(
			nltest.Data(seq, listPID, nlmsg.NewChain, 0, uint8(FamilyInet), attrs),
			nltest.Done(seq, listPID, 0),
		)}
	}

	_, err := ListChains(&nltest.Socket{PID: listPID, Reply: reply}, FamilyInet)
	var se *schema.Error
	if !errors.As(err, &se) {
		t.Fatalf("got %v, want a schema error", err)
	}
	if !errors.Is(err, schema.ErrDiscriminant) {
		t.Errorf("got %v, want ErrDiscriminant", err)
	}
}

func TestListUnknownFamily(t *testing.T) {
	body, err := NewTable("filter", FamilyInet).MarshalAttributes()
	if err != nil {
		t.Fatalf("error marshalling table: %v", err)
	}
	reply := func(req []byte) [][]byte {
		seq := nltest.Seq(req)
		return [][]byte{nltest.Datagram(
			nltest.Data(seq, listPID, nlmsg.NewTable, 0, 99, body),
			nltest.Done(seq, listPID, 0),
		)}
	}

	tables, err := ListTables(&nltest.Socket{PID: listPID, Reply: reply}, FamilyUnspecified)
	if tables != nil {
		t.Errorf("got %d tables out of an unknown family", len(tables))
	}
	var se *schema.Error
	if !errors.As(err, &se) {
		t.Fatalf("got %v, want a schema error", err)
	}
	if se.Field != "family" {
		t.Errorf("got field %q, want family", se.Field)
	}
	if !errors.Is(err, schema.ErrDiscriminant) {
		t.Errorf("got %v, want ErrDiscriminant", err)
	}
}
