// Package nftnl builds, sends and lists nf_tables objects over netlink:
// tables, chains, rules and sets along with the expressions rules are made
// of. Changes are submitted as atomic batches.
package nftnl

import (
	"github.com/mdlayher/netlink"

	"github.com/scitags/nftnl/nlmsg"
)

// Operation is what a batch asks the kernel to do with an object.
type Operation int

const (
	Add Operation = iota
	Delete
)

func (o Operation) String() string {
	if o == Delete {
		return "delete"
	}
	return "add"
}

// Object is one of the nf_tables objects of this package.
type Object interface {
	Family() Family
	SetFamily(Family)

	// MarshalAttributes encodes the present fields of the object.
	MarshalAttributes() ([]byte, error)

	// UnmarshalAttributes fills the object from a kernel message.
	UnmarshalAttributes(b []byte) error

	// kinds returns the message kinds creating and deleting the object.
	kinds() (add, del uint16)

	// addFlags accompany the creation of the object.
	addFlags() netlink.HeaderFlags
}

// Essence is implemented by objects carrying kernel assigned metadata that
// a locally built object can't know about.
type Essence interface {
	// Essentialize clears the kernel assigned fields.
	Essentialize()
}

// AppendMessage frames obj as a single request and appends it to b.
func AppendMessage(b []byte, obj Object, op Operation, seq uint32) ([]byte, error) {
	attrs, err := obj.MarshalAttributes()
	if err != nil {
		return nil, err
	}

	add, del := obj.kinds()
	kind, flags := add, netlink.Request|netlink.Acknowledge|obj.addFlags()
	if op == Delete {
		kind, flags = del, netlink.Request|netlink.Acknowledge
	}

	h := netlink.Header{
		Type:     netlink.HeaderType(nlmsg.Type(kind)),
		Flags:    flags,
		Sequence: seq,
	}
	g := nlmsg.Nfgenmsg{Family: uint8(obj.Family()), Version: nlmsg.Version}

	return nlmsg.Append(b, h, g, attrs), nil
}
