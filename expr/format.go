package expr

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/scitags/nftnl/schema"
)

// Format renders an expression the way `nft --debug=netlink` lists them,
// which is what the CLI prints.
func Format(e Any) string {
	var b strings.Builder
	b.WriteString(Kind(e))

	switch e := e.(type) {
	case *Bitwise:
		fmt.Fprintf(&b, " %s = (%s & %s) ^ %s", e.DReg.Value, e.SReg.Value, formatData(e.Mask), formatData(e.Xor))
	case *Cmp:
		fmt.Fprintf(&b, " %s %s %s", e.Op.Value, e.SReg.Value, formatData(e.Data))
	case *Counter:
		fmt.Fprintf(&b, " packets %d bytes %d", e.Packets.Value, e.Bytes.Value)
	case *Ct:
		if e.SReg.Valid {
			fmt.Fprintf(&b, " set %s with %s", e.Key.Value, e.SReg.Value)
		} else {
			fmt.Fprintf(&b, " load %s => %s", e.Key.Value, e.DReg.Value)
		}
	case *Immediate:
		fmt.Fprintf(&b, " %s %s", e.DReg.Value, formatData(e.Data))
	case *Log:
		if p, ok := e.Prefix.Get(); ok {
			fmt.Fprintf(&b, " prefix %q", p)
		}
		if g, ok := e.Group.Get(); ok {
			fmt.Fprintf(&b, " group %d", g)
		}
	case *Lookup:
		fmt.Fprintf(&b, " %s set %s", e.SReg.Value, e.Set.Value)
		if e.Flags.Value&LookupInvert != 0 {
			b.WriteString(" inverted")
		}
	case *Meta:
		if e.SReg.Valid {
			fmt.Fprintf(&b, " set %s with %s", e.Key.Value, e.SReg.Value)
		} else {
			fmt.Fprintf(&b, " load %s => %s", e.Key.Value, e.DReg.Value)
		}
	case *Nat:
		fmt.Fprintf(&b, " %s family %d addr %s", e.Type.Value, e.Family.Value, e.RegAddrMin.Value)
		if r, ok := e.RegProtoMin.Get(); ok {
			fmt.Fprintf(&b, " proto %s", r)
		}
	case *Payload:
		if e.SReg.Valid {
			fmt.Fprintf(&b, " write %s => %db @ %s header + %d", e.SReg.Value, e.Len.Value, e.Base.Value, e.Offset.Value)
		} else {
			fmt.Fprintf(&b, " load %db @ %s header + %d => %s", e.Len.Value, e.Base.Value, e.Offset.Value, e.DReg.Value)
		}
	case *Range:
		op := "=="
		if e.Op.Value == RangeNeq {
			op = "!="
		}
		fmt.Fprintf(&b, " %s %s %s %s", op, e.SReg.Value, formatData(e.From), formatData(e.To))
	case *Reject:
		fmt.Fprintf(&b, " type %d code %d", e.Type.Value, e.ICMPCode.Value)
	case *Raw:
		fmt.Fprintf(&b, " 0x%s", hex.EncodeToString(e.Data))
	}

	return b.String()
}

// String renders a whole expression list.
func (l List) String() string {
	parts := make([]string, 0, len(l))
	for _, e := range l {
		parts = append(parts, "[ "+Format(e)+" ]")
	}
	return strings.Join(parts, " ")
}

func formatData(o schema.Optional[Data]) string {
	d, ok := o.Get()
	if !ok {
		return "-"
	}
	if v, ok := d.Verdict.Get(); ok {
		s := v.Code.Value.String()
		if c, ok := v.Chain.Get(); ok {
			s += " -> " + c
		}
		return s
	}
	return "0x" + hex.EncodeToString(d.Value.Value)
}
