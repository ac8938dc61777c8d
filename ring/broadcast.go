// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ring

import "code.hybscloud.com/atomix"

// ErrLagging is returned by a Broadcast consumer whose private cursor
// has fallen more than Cap() sequences behind the producer. The slot it
// was about to read has already been overwritten.
var ErrLagging = broadcastLagErr{}

type broadcastLagErr struct{}

func (broadcastLagErr) Error() string { return "ring: consumer lagging, slots overwritten" }

// Broadcast is a single-producer, many-consumer ring buffer where every
// consumer independently observes every published message. Consumers do
// not coordinate with each other; each keeps a private cursor.
//
// The slow-consumer policy is "drop-slow-consumer": the source material
// this engine is modeled on documents both "drop slow consumer" and
// "wait" in different places, and implementations must pick one. This
// package drops: a consumer that falls more than Cap() sequences behind
// the producer does not block publication. Its next read returns ErrLagging
// so it can resynchronize (typically by jumping to the producer's
// current cursor) rather than silently under the slowest reader's pace,
// which would let one stalled consumer stop every other subscriber.
type Broadcast[T any] struct {
	tail   Cursor
	buffer []T
	mask   uint64
}

// NewBroadcast creates a broadcast ring buffer. Capacity rounds up to
// the next power of two; panics if capacity < 2.
func NewBroadcast[T any](capacity int) *Broadcast[T] {
	if capacity < 2 {
		panic("ring: capacity must be >= 2")
	}
	n := uint64(roundToPow2(capacity))
	return &Broadcast[T]{
		buffer: make([]T, n),
		mask:   n - 1,
	}
}

// Cap returns the ring's capacity.
func (r *Broadcast[T]) Cap() int { return int(r.mask + 1) }

// Publish writes elem at the next sequence and makes it visible to
// consumers unconditionally: a lagging consumer is overwritten, never a
// reason to block the producer.
func (r *Broadcast[T]) Publish(elem *T) uint64 {
	seq := r.tail.LoadRelaxed()
	r.buffer[seq&r.mask] = *elem
	r.tail.Store(seq + 1)
	return seq
}

// Published returns the producer's current cursor.
func (r *Broadcast[T]) Published() uint64 { return r.tail.Load() }

// BroadcastConsumer is a single subscriber's private read cursor into a
// Broadcast ring buffer.
type BroadcastConsumer[T any] struct {
	ring   *Broadcast[T]
	cursor atomix.Uint64
}

// NewConsumer attaches a new subscriber starting from the producer's
// current cursor: a newly joined consumer only sees messages published
// from this point forward.
func (r *Broadcast[T]) NewConsumer() *BroadcastConsumer[T] {
	c := &BroadcastConsumer[T]{ring: r}
	c.cursor.StoreRelaxed(r.tail.Load())
	return c
}

// Read returns the next message, or ErrEmpty if the producer has not
// published anything new, or ErrLagging if this consumer fell behind
// far enough that the slot it wants has been overwritten. On
// ErrLagging, the cursor is resynchronized to the oldest slot still
// guaranteed valid so the next call succeeds.
func (c *BroadcastConsumer[T]) Read() (T, error) {
	var zero T
	cursor := c.cursor.LoadRelaxed()
	published := c.ring.tail.Load()
	if cursor >= published {
		return zero, ErrEmpty
	}
	if published-cursor > c.ring.mask+1 {
		c.cursor.StoreRelaxed(published - c.ring.mask - 1)
		return zero, ErrLagging
	}
	elem := c.ring.buffer[cursor&c.ring.mask]
	// Re-check after the read: if the producer lapped us while we were
	// copying this slot, the bytes we just read may be torn.
	if c.ring.tail.Load()-cursor > c.ring.mask+1 {
		c.cursor.StoreRelaxed(c.ring.tail.Load() - c.ring.mask - 1)
		return zero, ErrLagging
	}
	c.cursor.StoreRelaxed(cursor + 1)
	return elem, nil
}

// Cursor returns the consumer's current read position.
func (c *BroadcastConsumer[T]) Cursor() uint64 { return c.cursor.LoadRelaxed() }
