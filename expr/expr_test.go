package expr

import (
	"errors"
	"net/netip"
	"testing"

	"github.com/google/go-cmp/cmp"
	gexpr "github.com/google/nftables/expr"
	"golang.org/x/sys/unix"

	"github.com/scitags/nftnl/nlattr"
	"github.com/scitags/nftnl/schema"
)

func mustBitwise(t *testing.T) *Bitwise {
	t.Helper()
	b, err := NewBitwise([]byte{255, 255, 255, 0}, []byte{0, 0, 0, 0})
	if err != nil {
		t.Fatalf("error building bitwise: %v", err)
	}
	return b
}

func TestRoundTrip(t *testing.T) {
	rng, err := NewRange(RangeNeq, Port(1000), Port(2000))
	if err != nil {
		t.Fatalf("error building range: %v", err)
	}
	lg, err := NewLog("mockprefix")
	if err != nil {
		t.Fatalf("error building log: %v", err)
	}

	tests := map[string]Any{
		"bitwise":   mustBitwise(t),
		"cmp":       NewCmp(CmpEq, []byte{0, 0, 0, 0}),
		"counter":   &Counter{Bytes: schema.Some[uint64](1 << 33), Packets: schema.Some[uint64](12)},
		"ct":        &Ct{Key: schema.Some(CtState), DReg: schema.Some(Reg1), Direction: schema.Some(CtDirReply)},
		"immediate": NewImmediate([]byte{42}, Reg1),
		"verdict":   Jump("mockchain"),
		"log":       lg.WithGroup(1),
		"lookup":    NewLookup("mockset", 0),
		"masq":      NewMasq(),
		"meta":      NewMeta(MetaL4Proto),
		"nat":       NewNat(NatDNAT, unix.NFPROTO_IPV4, Reg1).WithPort(Reg2),
		"payload":   TCPSourcePort(),
		"write":     NewPayloadWrite(PayloadTransport, 2, 2, Reg1, CsumInet, 16),
		"range":     rng,
		"reject":    NewReject(RejectICMPXUnreach, ICMPXNoRoute),
		"raw":       &Raw{Name: "quota", Data: []byte{12, 0, 1, 0, 0, 0, 0, 0, 0, 0, 0, 1}},
	}

	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			b, err := Marshal(in)
			if err != nil {
				t.Fatalf("error marshalling: %v", err)
			}
			out, err := Decode(b)
			if err != nil {
				t.Fatalf("error decoding: %v", err)
			}
			if diff := cmp.Diff(in, out); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestListKeepsOrder(t *testing.T) {
	in := List{NewMeta(MetaL4Proto), NewCmp(CmpEq, Proto(unix.IPPROTO_TCP)), TCPDestinationPort(), NewCmp(CmpEq, Port(22)), NewCounter(), Accept()}

	e := nlattr.NewEncoder()
	if err := in.Encode(e); err != nil {
		t.Fatalf("error encoding: %v", err)
	}
	b, _ := e.Bytes()

	out, err := DecodeList(b)
	if err != nil {
		t.Fatalf("error decoding: %v", err)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("list mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeMissingName(t *testing.T) {
	e := nlattr.NewEncoder()
	e.Nested(attrExprData, func(*nlattr.Encoder) error { return nil })
	b, _ := e.Bytes()

	if _, err := Decode(b); !errors.Is(err, schema.ErrDiscriminant) {
		t.Errorf("got %v; want %v", err, schema.ErrDiscriminant)
	}
}

func TestDecodeBadEnum(t *testing.T) {
	e := nlattr.NewEncoder()
	e.String(attrExprName, "cmp")
	e.Nested(attrExprData, func(e *nlattr.Encoder) error {
		e.Uint32(attrCmpOp, nlattr.BigEndian, 9)
		return nil
	})
	b, _ := e.Bytes()

	_, err := Decode(b)
	var se *schema.Error
	if !errors.As(err, &se) || se.Kind != "cmp" || se.Field != "op" {
		t.Errorf("got %v; want a schema error on cmp.op", err)
	}
}

func TestDecodeBadRegister(t *testing.T) {
	e := nlattr.NewEncoder()
	e.String(attrExprName, "meta")
	e.Nested(attrExprData, func(e *nlattr.Encoder) error {
		e.Uint32(attrMetaDreg, nlattr.BigEndian, 5)
		return nil
	})
	b, _ := e.Bytes()

	if _, err := Decode(b); !errors.Is(err, schema.ErrDiscriminant) {
		t.Errorf("got %v; want %v", err, schema.ErrDiscriminant)
	}
}

func TestOperandLengths(t *testing.T) {
	if _, err := NewBitwise([]byte{1}, []byte{1, 2}); !errors.Is(err, ErrOperandLength) {
		t.Errorf("bitwise: got %v; want %v", err, ErrOperandLength)
	}
	if _, err := NewRange(RangeEq, []byte{1}, []byte{1, 2}); !errors.Is(err, ErrOperandLength) {
		t.Errorf("range: got %v; want %v", err, ErrOperandLength)
	}
	if _, err := NewLog(string(make([]byte, 200))); !errors.Is(err, ErrLogPrefix) {
		t.Errorf("log: got %v; want %v", err, ErrLogPrefix)
	}
}

// The encodings of these expressions must agree with github.com/google/nftables.
func TestMatchesGoogleNftables(t *testing.T) {
	fam := byte(unix.NFPROTO_INET)

	tests := []struct {
		name string
		ours Any
		them gexpr.Any
	}{
		{"cmp", NewCmp(CmpNeq, []byte{1, 2, 3, 4}), &gexpr.Cmp{Op: gexpr.CmpOpNeq, Register: 1, Data: []byte{1, 2, 3, 4}}},
		{"counter", &Counter{Bytes: schema.Some[uint64](10), Packets: schema.Some[uint64](2)}, &gexpr.Counter{Bytes: 10, Packets: 2}},
		{"meta", NewMeta(MetaIifName), &gexpr.Meta{Key: gexpr.MetaKeyIIFNAME, Register: 1}},
		{"immediate", NewImmediate([]byte{0, 22}, Reg1), &gexpr.Immediate{Register: 1, Data: []byte{0, 22}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			want, err := gexpr.Marshal(fam, tc.them)
			if err != nil {
				t.Fatalf("error marshalling with nftables: %v", err)
			}
			got, err := Marshal(tc.ours)
			if err != nil {
				t.Fatalf("error marshalling: %v", err)
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("encoding mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestOperands(t *testing.T) {
	if diff := cmp.Diff([]byte{0, 22}, Port(22)); diff != "" {
		t.Errorf("port mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]byte{10, 0, 0, 1}, Addr(netip.MustParseAddr("::ffff:10.0.0.1"))); diff != "" {
		t.Errorf("mapped address mismatch (-want +got):\n%s", diff)
	}
	if got := len(Addr(netip.MustParseAddr("2001:db8::1"))); got != 16 {
		t.Errorf("ipv6 operand is %d bytes", got)
	}
	if diff := cmp.Diff([]byte{0x86, 0xdd}, EtherType(unix.ETH_P_IPV6)); diff != "" {
		t.Errorf("ethertype mismatch (-want +got):\n%s", diff)
	}

	v4, err := IPv4(netip.MustParseAddr("::ffff:192.0.2.1"))
	if err != nil {
		t.Fatalf("error building mapped ipv4 operand: %v", err)
	}
	if diff := cmp.Diff([]byte{192, 0, 2, 1}, v4); diff != "" {
		t.Errorf("ipv4 mismatch (-want +got):\n%s", diff)
	}
	for _, s := range []string{"2001:db8::1", "::"} {
		if _, err := IPv4(netip.MustParseAddr(s)); !errors.Is(err, ErrNotIPv4) {
			t.Errorf("%s: got %v; want %v", s, err, ErrNotIPv4)
		}
	}
	if _, err := IPv4(netip.Addr{}); !errors.Is(err, ErrNotIPv4) {
		t.Errorf("zero address: got %v; want %v", err, ErrNotIPv4)
	}

	name, err := IfName("lo")
	if err != nil || len(name) != IfNameLen || name[2] != 0 {
		t.Errorf("got (%v, %v)", name, err)
	}
	if _, err := IfName("averyveryverylongname"); !errors.Is(err, ErrIfName) {
		t.Errorf("got %v; want %v", err, ErrIfName)
	}

	if nlattr.NativeEndian.Uint32(Mark(0xcafe)) != 0xcafe {
		t.Errorf("mark isn't in host order")
	}
}

func TestFormat(t *testing.T) {
	tests := map[string]struct {
		in   Any
		want string
	}{
		"payload": {TCPDestinationPort(), "payload load 2b @ transport header + 2 => reg 1"},
		"cmp":     {NewCmp(CmpEq, Port(22)), "cmp == reg 1 0x0016"},
		"verdict": {Jump("out"), "immediate verdict jump -> out"},
		"meta":    {NewMeta(MetaOifName), "meta load oifname => reg 1"},
	}
	for name, tc := range tests {
		if got := Format(tc.in); got != tc.want {
			t.Errorf("%s: got %q; want %q", name, got, tc.want)
		}
	}
}
