package expr

import (
	"errors"
	"strings"

	"github.com/scitags/nftnl/schema"
)

const (
	attrLogGroup      = 1
	attrLogPrefix     = 2
	attrLogSnaplen    = 3
	attrLogQThreshold = 4
	attrLogLevel      = 5
	attrLogFlags      = 6

	// maxLogPrefix leaves room for the terminator of NF_LOG_PREFIXLEN.
	maxLogPrefix = 127
)

var ErrLogPrefix = errors.New("expr: log prefix is longer than 127 bytes or holds a NUL")

// Log sends matching packets to the kernel log or, with a group, to a
// netlink log group.
type Log struct {
	Group      schema.Optional[uint16]
	Prefix     schema.Optional[string]
	Snaplen    schema.Optional[uint32]
	QThreshold schema.Optional[uint16]
	Level      schema.Optional[uint32]
	Flags      schema.Optional[uint32]
}

// NewLog logs with the given prefix; an empty prefix is left out.
func NewLog(prefix string) (*Log, error) {
	l := &Log{}
	if prefix == "" {
		return l, nil
	}
	if len(prefix) > maxLogPrefix || strings.IndexByte(prefix, 0) >= 0 {
		return nil, ErrLogPrefix
	}
	l.Prefix = schema.Some(prefix)
	return l, nil
}

// WithGroup routes the packets to netlink log group g.
func (l *Log) WithGroup(g uint16) *Log {
	l.Group = schema.Some(g)
	return l
}

var logSchema = schema.New("log",
	schema.String("prefix", attrLogPrefix, func(e *Log) *schema.Optional[string] { return &e.Prefix }),
	schema.Uint16("group", attrLogGroup, bigEndian, func(e *Log) *schema.Optional[uint16] { return &e.Group }),
	uint32Field("snaplen", attrLogSnaplen, func(e *Log) *schema.Optional[uint32] { return &e.Snaplen }),
	schema.Uint16("qthreshold", attrLogQThreshold, bigEndian, func(e *Log) *schema.Optional[uint16] { return &e.QThreshold }),
	uint32Field("level", attrLogLevel, func(e *Log) *schema.Optional[uint32] { return &e.Level }),
	uint32Field("flags", attrLogFlags, func(e *Log) *schema.Optional[uint32] { return &e.Flags }),
)
