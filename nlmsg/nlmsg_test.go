package nlmsg

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mdlayher/netlink"
	"github.com/mdlayher/netlink/nlenc"
	"golang.org/x/sys/unix"

	"github.com/scitags/nftnl/nlattr"
)

func TestTypeRoundTrip(t *testing.T) {
	typ := Type(NewRule)
	if typ != 0x0a06 {
		t.Errorf("Type(NewRule) = %#x; want 0x0a06", typ)
	}
	if Kind(typ) != NewRule || Subsystem(typ) != SubsysNFTables {
		t.Errorf("couldn't recover kind and subsystem from %#x", typ)
	}
}

func TestAppendLayout(t *testing.T) {
	attrs := []byte{8, 0, 1, 0, 'a', 'b', 'c', 0}
	h := netlink.Header{
		Type:     netlink.HeaderType(Type(NewTable)),
		Flags:    netlink.Request | netlink.Acknowledge,
		Sequence: 0x01020304,
		PID:      7,
	}
	b := Marshal(h, Nfgenmsg{Family: unix.NFPROTO_INET, ResourceID: 0x0a00}, attrs)

	if len(b) != HeaderLen+NfgenmsgLen+len(attrs) {
		t.Fatalf("message length = %d", len(b))
	}
	if got := nlenc.Uint32(b[0:4]); got != uint32(len(b)) {
		t.Errorf("header length = %d; want %d", got, len(b))
	}
	// Resource id is big endian regardless of the host.
	if b[18] != 0x0a || b[19] != 0x00 {
		t.Errorf("resource id bytes = %x", b[18:20])
	}

	msgs, err := Split(b)
	if err != nil {
		t.Fatalf("error splitting: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("got %d messages; want 1", len(msgs))
	}

	h.Length = uint32(len(b))
	if diff := cmp.Diff(h, msgs[0].Header); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}

	g, err := ParseNfgenmsg(msgs[0].Data)
	if err != nil {
		t.Fatalf("error parsing nfgenmsg: %v", err)
	}
	if diff := cmp.Diff(Nfgenmsg{Family: unix.NFPROTO_INET, ResourceID: 0x0a00}, g); diff != "" {
		t.Errorf("nfgenmsg mismatch (-want +got):\n%s", diff)
	}
}

func TestAppendPadsOddPayloads(t *testing.T) {
	b := Marshal(netlink.Header{Type: 0x10}, Nfgenmsg{}, []byte{1})
	if len(b)%4 != 0 {
		t.Errorf("message of %d bytes isn't aligned", len(b))
	}
	if nlenc.Uint32(b[0:4]) != HeaderLen+NfgenmsgLen+1 {
		t.Errorf("padding leaked into the header length")
	}
}

func TestSplitSeveral(t *testing.T) {
	var b []byte
	for i := uint32(1); i <= 3; i++ {
		b = Append(b, netlink.Header{Type: netlink.HeaderType(Type(NewRule)), Sequence: i}, Nfgenmsg{}, nil)
	}

	msgs, err := Split(b)
	if err != nil {
		t.Fatalf("error splitting: %v", err)
	}
	for i, m := range msgs {
		if m.Header.Sequence != uint32(i+1) {
			t.Errorf("message %d has sequence %d", i, m.Header.Sequence)
		}
	}
}

func TestSplitMalformed(t *testing.T) {
	b := Marshal(netlink.Header{Type: 0x10}, Nfgenmsg{}, nil)
	nlenc.PutUint32(b[0:4], 1000)

	var de *DecodeError
	if _, err := Split(b); !errors.As(err, &de) {
		t.Errorf("got %v; want a *DecodeError", err)
	}
	if _, err := Split(b[:10]); !errors.As(err, &de) {
		t.Errorf("got %v; want a *DecodeError", err)
	}
}

func TestClassify(t *testing.T) {
	tests := map[netlink.HeaderType]Class{
		netlink.Done:                     ClassDone,
		netlink.Error:                    ClassError,
		netlink.Noop:                     ClassNoop,
		netlink.Overrun:                  ClassOverrun,
		0x05:                             ClassControl,
		netlink.HeaderType(Type(NewSet)): ClassData,
	}
	for typ, want := range tests {
		if got := Classify(netlink.Header{Type: typ}); got != want {
			t.Errorf("Classify(%#x) = %d; want %d", typ, got, want)
		}
	}
}

func errorMessage(errno int32, flags netlink.HeaderFlags, req []byte, trailer []byte) Message {
	data := make([]byte, 4)
	nlenc.PutInt32(data, errno)
	data = append(data, req...)
	data = append(data, trailer...)
	return Message{Header: netlink.Header{Type: netlink.Error, Flags: flags}, Data: data}
}

func TestParseErrorAck(t *testing.T) {
	ke, err := ParseError(errorMessage(0, 0, nil, nil))
	if ke != nil || err != nil {
		t.Errorf("got (%v, %v); want a plain ack", ke, err)
	}
}

func TestParseErrorErrno(t *testing.T) {
	req := Marshal(netlink.Header{Type: netlink.HeaderType(Type(NewTable)), Sequence: 9}, Nfgenmsg{}, nil)
	ke, err := ParseError(errorMessage(-int32(unix.EEXIST), 0, req, nil))
	if err != nil {
		t.Fatalf("error parsing: %v", err)
	}
	if !errors.Is(ke, unix.EEXIST) {
		t.Errorf("got errno %v; want EEXIST", ke.Errno)
	}
	if ke.Header.Sequence != 9 || Kind(uint16(ke.Header.Type)) != NewTable {
		t.Errorf("unexpected offending header %+v", ke.Header)
	}
}

func TestParseErrorExtAck(t *testing.T) {
	req := Marshal(netlink.Header{Type: netlink.HeaderType(Type(NewChain))}, Nfgenmsg{}, []byte{8, 0, 1, 0, 'x', 0, 0, 0})

	e := nlattr.NewEncoder()
	e.String(extAckMsg, "chain is busy")
	e.Uint32(extAckOffset, nlattr.NativeEndian, 20)
	trailer, _ := e.Bytes()

	ke, err := ParseError(errorMessage(-int32(unix.EBUSY), netlink.Capped|netlink.AcknowledgeTLVs, req[:HeaderLen], trailer))
	if err != nil {
		t.Fatalf("error parsing: %v", err)
	}
	if ke.Message != "chain is busy" || ke.Offset != 20 {
		t.Errorf("got message %q offset %d", ke.Message, ke.Offset)
	}

	ke, err = ParseError(errorMessage(-int32(unix.EBUSY), netlink.AcknowledgeTLVs, req, trailer))
	if err != nil || ke.Message != "chain is busy" {
		t.Errorf("uncapped ext ack: got (%+v, %v)", ke, err)
	}
}

func TestNextSequence(t *testing.T) {
	a, b := NextSequence(), NextSequence()
	if b != a+1 {
		t.Errorf("sequence numbers %d and %d aren't consecutive", a, b)
	}
}
