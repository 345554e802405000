package nftnl

import (
	"context"

	"github.com/mdlayher/netlink"
	"golang.org/x/sys/unix"

	"github.com/scitags/nftnl/nlmsg"
	"github.com/scitags/nftnl/query"
)

// Batch accumulates object messages to be committed by the kernel as a
// single transaction. Every message of a batch shares one sequence number.
type Batch struct {
	seq  uint32
	buf  []byte
	msgs int
	done bool
}

// NewBatch starts an empty batch.
func NewBatch() *Batch {
	b := &Batch{seq: nlmsg.NextSequence()}
	b.buf = appendBatchMarker(nil, nlmsg.BatchBegin, b.seq)
	return b
}

func appendBatchMarker(b []byte, kind uint16, seq uint32) []byte {
	h := netlink.Header{
		Type:     netlink.HeaderType(kind),
		Flags:    netlink.Request,
		Sequence: seq,
	}
	g := nlmsg.Nfgenmsg{Family: unix.AF_UNSPEC, Version: nlmsg.Version, ResourceID: nlmsg.SubsysNFTables}
	return nlmsg.Append(b, h, g, nil)
}

// Sequence is the sequence number carried by every message of the batch.
func (b *Batch) Sequence() uint32 { return b.seq }

// Len is the number of object messages added so far.
func (b *Batch) Len() int { return b.msgs }

// Add appends obj to the batch. Adding a set carrying local elements also
// appends the message inserting them. On error the batch is left as it was.
func (b *Batch) Add(obj Object, op Operation) error {
	if b.done {
		return ErrBatchFinalized
	}

	objs := []Object{obj}
	if s, ok := obj.(*Set); ok && op == Add && len(s.elements) > 0 {
		elems, err := s.ElementList()
		if err != nil {
			return err
		}
		objs = append(objs, elems)
	}

	buf := b.buf
	for _, o := range objs {
		var err error
		if buf, err = AppendMessage(buf, o, op, b.seq); err != nil {
			return err
		}
	}
	b.buf = buf
	b.msgs += len(objs)
	return nil
}

// Finalize closes the batch. No object may be added afterwards.
func (b *Batch) Finalize() (*FinalizedBatch, error) {
	if b.done {
		return nil, ErrBatchFinalized
	}
	if b.msgs == 0 {
		return nil, ErrBatchEmpty
	}
	b.done = true
	b.buf = appendBatchMarker(b.buf, nlmsg.BatchEnd, b.seq)

	return &FinalizedBatch{seq: b.seq, buf: b.buf, msgs: b.msgs}, nil
}

// FinalizedBatch is a framed batch ready to be sent.
type FinalizedBatch struct {
	seq  uint32
	buf  []byte
	msgs int
}

// Bytes returns a copy of the framed batch.
func (f *FinalizedBatch) Bytes() []byte {
	return append([]byte(nil), f.buf...)
}

func (f *FinalizedBatch) Sequence() uint32 { return f.seq }
func (f *FinalizedBatch) Len() int { return f.msgs }

// Send submits the batch and waits for the kernel to acknowledge every
// message. The first error the kernel reports is returned, in which case
// none of the batch was applied.
func (f *FinalizedBatch) Send(sock query.Socket) error {
	return query.Transact(sock, f.buf, f.seq, f.msgs, nil)
}

// SendContext is Send waiting on the socket through ctx.
func (f *FinalizedBatch) SendContext(ctx context.Context, sock query.ContextSocket) error {
	return query.TransactContext(ctx, sock, f.buf, f.seq, f.msgs, nil)
}
