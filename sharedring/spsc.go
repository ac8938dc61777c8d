// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sharedring

import (
	"fmt"
	"sync/atomic"
	"unsafe"
)

// Producer is the single writer side of a shared SPSC ring buffer. Exactly
// one process may hold a Producer for a given path at a time; the caller
// is responsible for that discipline, the same way a single goroutine is
// responsible for discipline on an in-process [ring.SPSC] producer.
type Producer[T any] struct {
	m          *mapping
	mask       uint64
	capacity   uint64
	claimed    uint64 // local, non-atomic: sole producer
	consumerCk uint64 // cached last-seen consumer cursor
}

// Consumer is the reader side of a shared SPSC ring buffer, opened by
// path after a Producer has created it. A Consumer never creates the
// file; CreateProducer or a prior run must have done so.
type Consumer[T any] struct {
	m        *mapping
	mask     uint64
	capacity uint64
}

func slotSizeOf[T any]() uint64 {
	var zero T
	return uint64(unsafe.Sizeof(zero))
}

// CreateProducer creates a new shared ring buffer file at path (failing
// if it already exists) and returns the producer handle. capacity must
// be a power of two.
func CreateProducer[T any](path string, capacity uint64) (*Producer[T], error) {
	if capacity == 0 || capacity&(capacity-1) != 0 {
		return nil, fmt.Errorf("sharedring: capacity %d is not a power of two", capacity)
	}
	slotSize := slotSizeOf[T]()
	m, err := createMapping(path, fileSize(capacity, slotSize))
	if err != nil {
		return nil, err
	}
	h := header{Magic: Magic, Version: Version, Capacity: capacity, SlotSize: slotSize}
	h.encode(m.data)
	atomic.StoreUint64(cursorPtr(m.data, offProducer), 0)
	atomic.StoreUint64(cursorPtr(m.data, offConsumer), 0)
	return &Producer[T]{m: m, mask: capacity - 1, capacity: capacity}, nil
}

// OpenProducer reopens an existing shared ring buffer file for writing,
// for example after the producer process restarted. It resumes from
// whatever the producer cursor currently reads.
func OpenProducer[T any](path string) (*Producer[T], error) {
	m, h, err := openAndValidate[T](path)
	if err != nil {
		return nil, err
	}
	p := &Producer[T]{m: m, mask: h.Capacity - 1, capacity: h.Capacity}
	p.claimed = atomic.LoadUint64(cursorPtr(m.data, offProducer))
	return p, nil
}

// OpenConsumer opens an existing shared ring buffer file by path. It
// resumes from the current producer cursor; it does not reset the
// consumer cursor, so a consumer reconnecting after a restart continues
// where it left off provided it remembers its own last-read sequence.
func OpenConsumer[T any](path string) (*Consumer[T], error) {
	m, h, err := openAndValidate[T](path)
	if err != nil {
		return nil, err
	}
	return &Consumer[T]{m: m, mask: h.Capacity - 1, capacity: h.Capacity}, nil
}

func openAndValidate[T any](path string) (*mapping, header, error) {
	m, err := openMapping(path)
	if err != nil {
		return nil, header{}, err
	}
	h := decodeHeader(m.data)
	if err := h.validate(slotSizeOf[T]()); err != nil {
		m.Close()
		return nil, header{}, err
	}
	return m, h, nil
}

func cursorPtr(data []byte, offset int) *uint64 {
	return (*uint64)(unsafe.Pointer(&data[offset]))
}

func (p *Producer[T]) slotPtr(seq uint64) *T {
	idx := seq & p.mask
	off := offSlotArray + int(idx)*int(slotSizeOf[T]())
	return (*T)(unsafe.Pointer(&p.m.data[off]))
}

// TryClaim reserves up to n contiguous sequences for writing. It returns
// fewer than n (down to zero, ok=false) if the slowest consumer has not
// caught up enough to make the full range available.
func (p *Producer[T]) TryClaim(n int) (seq uint64, claimed int, ok bool) {
	if p.claimed+uint64(n)-p.consumerCk > p.capacity {
		p.consumerCk = atomic.LoadUint64(cursorPtr(p.m.data, offConsumer))
		avail := p.capacity - (p.claimed - p.consumerCk)
		if avail == 0 {
			return 0, 0, false
		}
		if uint64(n) > avail {
			n = int(avail)
		}
	}
	seq = p.claimed
	p.claimed += uint64(n)
	return seq, n, true
}

// Slot returns a pointer into the mapped slot for sequence seq. Valid
// only between TryClaim returning it and the matching Publish.
func (p *Producer[T]) Slot(seq uint64) *T { return p.slotPtr(seq) }

// Publish makes sequences up to p.claimed visible to the consumer with a
// release store on the producer cursor.
func (p *Producer[T]) Publish() {
	atomic.StoreUint64(cursorPtr(p.m.data, offProducer), p.claimed)
}

// Close unmaps the file. The mapping itself, and anything already
// published, survives the process.
func (p *Producer[T]) Close() error { return p.m.Close() }

// Published returns an acquire load of the producer cursor.
func (c *Consumer[T]) Published() uint64 {
	return atomic.LoadUint64(cursorPtr(c.m.data, offProducer))
}

func (c *Consumer[T]) slotPtr(seq uint64) *T {
	idx := seq & c.mask
	off := offSlotArray + int(idx)*int(slotSizeOf[T]())
	return (*T)(unsafe.Pointer(&c.m.data[off]))
}

// Slot returns a pointer into the mapped slot for sequence seq.
func (c *Consumer[T]) Slot(seq uint64) *T { return c.slotPtr(seq) }

// ReadBatch returns the start sequence and count of the contiguous run
// of published-but-unread sequences starting at from, capped at maxN.
func (c *Consumer[T]) ReadBatch(from uint64, maxN int) (start uint64, n int) {
	published := c.Published()
	if published <= from {
		return from, 0
	}
	avail := published - from
	if avail > uint64(maxN) {
		avail = uint64(maxN)
	}
	return from, int(avail)
}

// UpdateConsumer advances the consumer cursor with a release store,
// unblocking the producer once it observes it.
func (c *Consumer[T]) UpdateConsumer(newCursor uint64) {
	atomic.StoreUint64(cursorPtr(c.m.data, offConsumer), newCursor)
}

// Close unmaps the file without disturbing the producer's data.
func (c *Consumer[T]) Close() error { return c.m.Close() }
