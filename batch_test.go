package nftnl

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mdlayher/netlink"
	"github.com/mdlayher/netlink/nlenc"
	"golang.org/x/sys/unix"

	"github.com/scitags/nftnl/expr"
	"github.com/scitags/nftnl/internal/nltest"
	"github.com/scitags/nftnl/nlattr"
	"github.com/scitags/nftnl/nlmsg"
)

func buildBatch(t *testing.T) *FinalizedBatch {
	t.Helper()

	table := NewTable("filter", FamilyInet)
	chain := NewChain("input", table).WithHook(HookInput, PriorityFilter).WithType(ChainTypeFilter)
	rule, err := NewRule(chain)
	if err != nil {
		t.Fatalf("error building rule: %v", err)
	}
	rule.WithExpr(expr.NewCounter()).WithExpr(expr.Accept())

	b := NewBatch()
	for _, obj := range []Object{table, chain, rule} {
		if err := b.Add(obj, Add); err != nil {
			t.Fatalf("error adding %T: %v", obj, err)
		}
	}
	if err := b.Add(&Table{family: FamilyIPv4, Name: table.Name}, Delete); err != nil {
		t.Fatalf("error adding delete: %v", err)
	}

	f, err := b.Finalize()
	if err != nil {
		t.Fatalf("error finalizing: %v", err)
	}
	return f
}

func zeroSequences(b []byte) []byte {
	for off := 0; off+nlmsg.HeaderLen <= len(b); {
		l := int(nlenc.Uint32(b[off : off+4]))
		nlenc.PutUint32(b[off+8:off+12], 0)
		off += nlattr.Align(l)
	}
	return b
}

func TestBatchFraming(t *testing.T) {
	f := buildBatch(t)
	if f.Len() != 4 {
		t.Errorf("got %d messages, want 4", f.Len())
	}

	msgs, err := nlmsg.Split(f.Bytes())
	if err != nil {
		t.Fatalf("error splitting batch: %v", err)
	}

	type frame struct {
		Type   uint16
		Flags  netlink.HeaderFlags
		Family uint8
		ResID  uint16
	}
	req := netlink.Request | netlink.Acknowledge
	want := []frame{
		{nlmsg.BatchBegin, netlink.Request, unix.AF_UNSPEC, nlmsg.SubsysNFTables},
		{nlmsg.Type(nlmsg.NewTable), req | netlink.Create, unix.NFPROTO_INET, 0},
		{nlmsg.Type(nlmsg.NewChain), req | netlink.Create, unix.NFPROTO_INET, 0},
		{nlmsg.Type(nlmsg.NewRule), req | netlink.Create | netlink.Append, unix.NFPROTO_INET, 0},
		{nlmsg.Type(nlmsg.DelTable), req, unix.NFPROTO_IPV4, 0},
		{nlmsg.BatchEnd, netlink.Request, unix.AF_UNSPEC, nlmsg.SubsysNFTables},
	}

	var got []frame
	for _, m := range msgs {
		if m.Header.Sequence != f.Sequence() {
			t.Errorf("got sequence %d, want %d", m.Header.Sequence, f.Sequence())
		}
		g, err := nlmsg.ParseNfgenmsg(m.Data)
		if err != nil {
			t.Fatalf("error parsing nfgenmsg: %v", err)
		}
		got = append(got, frame{uint16(m.Header.Type), m.Header.Flags, g.Family, g.ResourceID})
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("batch mismatch (-want +got):\n%s", diff)
	}

	// Batch begin carries the subsystem in network order.
	if b := msgs[0].Data; b[2] != 0 || b[3] != unix.NFNL_SUBSYS_NFTABLES {
		t.Errorf("got res_id bytes %v", b[2:4])
	}
}

func TestBatchDeterminism(t *testing.T) {
	a, b := buildBatch(t), buildBatch(t)
	if a.Sequence() == b.Sequence() {
		t.Errorf("batches share sequence %d", a.Sequence())
	}
	if diff := cmp.Diff(zeroSequences(a.Bytes()), zeroSequences(b.Bytes())); diff != "" {
		t.Errorf("batches differ beyond their sequence (-a +b):\n%s", diff)
	}
}

func TestBatchBytesIsACopy(t *testing.T) {
	f := buildBatch(t)
	b := f.Bytes()
	b[0] ^= 0xff
	if f.Bytes()[0] == b[0] {
		t.Errorf("Bytes returned the internal buffer")
	}
}

func TestBatchCallerErrors(t *testing.T) {
	if _, err := NewBatch().Finalize(); !errors.Is(err, ErrBatchEmpty) {
		t.Errorf("got %v, want ErrBatchEmpty", err)
	}

	b := NewBatch()
	if err := b.Add(NewTable("filter", FamilyInet), Add); err != nil {
		t.Fatalf("error adding table: %v", err)
	}
	if _, err := b.Finalize(); err != nil {
		t.Fatalf("error finalizing: %v", err)
	}
	if _, err := b.Finalize(); !errors.Is(err, ErrBatchFinalized) {
		t.Errorf("got %v, want ErrBatchFinalized", err)
	}
	if err := b.Add(NewTable("nat", FamilyInet), Add); !errors.Is(err, ErrBatchFinalized) {
		t.Errorf("got %v, want ErrBatchFinalized", err)
	}
}

func TestBatchAddFailureKeepsBatch(t *testing.T) {
	table := NewTable("filter", FamilyInet)
	unnamed := NewSet("", table, TypeInetService)
	unnamed.AddElement(expr.Port(22))

	b := NewBatch()
	if err := b.Add(unnamed, Add); !errors.Is(err, ErrMissingSetInfo) {
		t.Fatalf("got %v, want ErrMissingSetInfo", err)
	}
	if b.Len() != 0 {
		t.Errorf("got %d messages after a failed add, want 0", b.Len())
	}
	if _, err := b.Finalize(); !errors.Is(err, ErrBatchEmpty) {
		t.Errorf("got %v, want ErrBatchEmpty", err)
	}

	b = NewBatch()
	if err := b.Add(table, Add); err != nil {
		t.Fatalf("error adding table: %v", err)
	}
	if err := b.Add(unnamed, Add); err == nil {
		t.Fatalf("added a set without a name")
	}
	got, err := b.Finalize()
	if err != nil {
		t.Fatalf("error finalizing: %v", err)
	}

	only := NewBatch()
	if err := only.Add(table, Add); err != nil {
		t.Fatalf("error adding table: %v", err)
	}
	want, err := only.Finalize()
	if err != nil {
		t.Fatalf("error finalizing: %v", err)
	}
	if got.Len() != 1 {
		t.Errorf("got %d messages, want 1", got.Len())
	}
	if diff := cmp.Diff(zeroSequences(want.Bytes()), zeroSequences(got.Bytes())); diff != "" {
		t.Errorf("batch mismatch (-want +got):\n%s", diff)
	}
}

func TestBatchSetWithElements(t *testing.T) {
	set := NewSet("ports", NewTable("filter", FamilyInet), TypeInetService)
	set.AddElement(expr.Port(22))
	set.AddElement(expr.Port(443))

	b := NewBatch()
	if err := b.Add(set, Add); err != nil {
		t.Fatalf("error adding set: %v", err)
	}
	f, err := b.Finalize()
	if err != nil {
		t.Fatalf("error finalizing: %v", err)
	}
	if f.Len() != 2 {
		t.Fatalf("got %d messages, want 2", f.Len())
	}

	msgs, err := nlmsg.Split(f.Bytes())
	if err != nil {
		t.Fatalf("error splitting batch: %v", err)
	}
	m := msgs[2]
	if got, want := uint16(m.Header.Type), nlmsg.Type(nlmsg.NewSetElem); got != want {
		t.Fatalf("got type %#x, want %#x", got, want)
	}

	var elems SetElements
	if err := elems.UnmarshalAttributes(m.Data[nlmsg.NfgenmsgLen:]); err != nil {
		t.Fatalf("error decoding elements: %v", err)
	}
	if elems.SetID != set.ID || elems.Set != set.Name {
		t.Errorf("elements refer to set %v (id %v)", elems.Set, elems.SetID)
	}
	var keys [][]byte
	for _, e := range elems.Elements.Value {
		keys = append(keys, e.Key.Value.Value.Value)
	}
	if diff := cmp.Diff([][]byte{expr.Port(22), expr.Port(443)}, keys); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
}

// ackAll acknowledges every message of a batch asking for one, replacing
// the acknowledgement of the message at fail with errno.
func ackAll(pid uint32, fail int, errno unix.Errno) func([]byte) [][]byte {
	return func(req []byte) [][]byte {
		msgs, err := nlmsg.Split(req)
		if err != nil {
			return nil
		}
		var acks [][]byte
		n := 0
		for _, m := range msgs {
			if m.Header.Flags&netlink.Acknowledge == 0 {
				continue
			}
			kind := nlmsg.Kind(uint16(m.Header.Type))
			if n == fail {
				acks = append(acks, nltest.Error(m.Header.Sequence, pid, kind, errno))
			} else {
				acks = append(acks, nltest.Ack(m.Header.Sequence, pid, kind))
			}
			n++
		}
		return [][]byte{nltest.Datagram(acks...)}
	}
}

func TestBatchSend(t *testing.T) {
	const pid = 1234

	tests := map[string]struct {
		fail    int
		errno   unix.Errno
		wantErr error
	}{
		"all acked":     {fail: -1},
		"table exists":  {fail: 0, errno: unix.EEXIST, wantErr: unix.EEXIST},
		"missing chain": {fail: 2, errno: unix.ENOENT, wantErr: unix.ENOENT},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			f := buildBatch(t)
			sock := &nltest.Socket{PID: pid, Reply: ackAll(pid, tt.fail, tt.errno)}

			err := f.Send(sock)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("error sending batch: %v", err)
				}
			} else {
				var ke *nlmsg.KernelError
				if !errors.As(err, &ke) {
					t.Fatalf("got %v, want a KernelError", err)
				}
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("got errno %v, want %v", ke.Errno, tt.wantErr)
				}
			}

			sent := sock.Sent()
			if len(sent) != 1 {
				t.Fatalf("batch went out in %d sends, want 1", len(sent))
			}
			if diff := cmp.Diff(f.Bytes(), sent[0]); diff != "" {
				t.Errorf("sent bytes mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBatchSendContext(t *testing.T) {
	const pid = 1234

	f := buildBatch(t)
	sock := &nltest.Socket{PID: pid, Reply: ackAll(pid, -1, 0)}
	if err := f.SendContext(context.Background(), sock); err != nil {
		t.Fatalf("error sending batch: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := f.SendContext(ctx, sock); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}
