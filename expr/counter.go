package expr

import (
	"github.com/scitags/nftnl/schema"
)

const (
	attrCounterBytes   = 1
	attrCounterPackets = 2
)

// Counter accumulates the packets and bytes hitting a rule.
type Counter struct {
	Bytes   schema.Optional[uint64]
	Packets schema.Optional[uint64]
}

func NewCounter() *Counter {
	return &Counter{Bytes: schema.Some[uint64](0), Packets: schema.Some[uint64](0)}
}

var counterSchema = schema.New("counter",
	schema.Uint64("bytes", attrCounterBytes, bigEndian, func(e *Counter) *schema.Optional[uint64] { return &e.Bytes }),
	schema.Uint64("packets", attrCounterPackets, bigEndian, func(e *Counter) *schema.Optional[uint64] { return &e.Packets }),
)
