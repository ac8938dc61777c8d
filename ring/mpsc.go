// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ring

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// MPSC is a multi-producer single-consumer ring buffer.
//
// Producers claim sequences via a CAS loop on a shared claim cursor, one
// sequence per iteration. Each slot carries its own sequence marker so a
// producer can tell, without touching any other producer's state, whether
// the slot the claim cursor pointed it to has actually been vacated by
// the consumer yet. This is the classic Vyukov bounded MPSC queue,
// generalized here from a single-item Enqueue/Dequeue to the sequence
// claim/publish/read-batch vocabulary the rest of the engine uses.
//
// Memory: n slots for capacity n.
type MPSC[T any] struct {
	tail     Cursor // next sequence to claim, CAS'd by producers
	consumer Cursor // owned solely by the consumer
	draining atomix.Bool
	buffer   []mpscSlot[T]
	mask     uint64
	capacity uint64
}

type mpscSlot[T any] struct {
	seq  atomix.Uint64
	data T
}

// NewMPSC creates an MPSC ring buffer. Capacity rounds up to the next
// power of two; panics if capacity < 2.
func NewMPSC[T any](capacity int) *MPSC[T] {
	if capacity < 2 {
		panic("ring: capacity must be >= 2")
	}
	n := uint64(roundToPow2(capacity))
	r := &MPSC[T]{
		buffer:   make([]mpscSlot[T], n),
		mask:     n - 1,
		capacity: n,
	}
	for i := uint64(0); i < n; i++ {
		r.buffer[i].seq.StoreRelaxed(i)
	}
	return r
}

// Cap returns the ring's capacity.
func (r *MPSC[T]) Cap() int { return int(r.capacity) }

// Drain signals that no more producers will claim sequences, letting the
// consumer read through to empty without new claims racing it.
func (r *MPSC[T]) Drain() { r.draining.StoreRelease(true) }

// TryClaim reserves up to n sequences for a producer to write into.
// Returns the starting sequence and the number actually claimed (which
// may be less than n, or zero if the ring is full relative to the
// consumer, or if the ring has been put into draining state). The
// caller writes via Slot for each of the claimed sequences, then calls
// Publish.
func (r *MPSC[T]) TryClaim(n int) (startSeq uint64, claimed int, ok bool) {
	if r.draining.LoadAcquire() {
		return 0, 0, false
	}
	sw := spin.Wait{}
	for claimed < n {
		tail := r.tail.LoadRelaxed()
		if claimed > 0 && tail != startSeq+uint64(claimed) {
			// Another producer took the next sequence; stop so the claimed
			// range stays contiguous.
			break
		}
		slot := &r.buffer[tail&r.mask]
		seq := slot.seq.LoadAcquire()

		if seq == tail {
			if !r.tail.CompareAndSwap(tail, tail+1) {
				sw.Once()
				continue
			}
			if claimed == 0 {
				startSeq = tail
			}
			claimed++
			continue
		}

		if int64(seq) < int64(tail) {
			// Ring is full relative to the consumer. Return whatever was
			// claimed before hitting the wall; zero means try again later.
			break
		}
		sw.Once()
	}
	return startSeq, claimed, claimed > 0
}

// Slot returns a pointer to the payload of a claimed (or, on the
// consumer side, published) sequence.
func (r *MPSC[T]) Slot(seq uint64) *T { return &r.buffer[seq&r.mask].data }

// Publish marks n sequences starting at startSeq as ready for the
// consumer, in order, each with its own release store.
func (r *MPSC[T]) Publish(startSeq uint64, n int) {
	for i := 0; i < n; i++ {
		seq := startSeq + uint64(i)
		r.buffer[seq&r.mask].seq.StoreRelease(seq + 1)
	}
}

// ReadBatch scans forward from the consumer's cursor for up to maxN
// contiguously published sequences. Returns the sequence the scan
// started at and how many were found; zero means no new data. The
// caller reads via Slot and must call UpdateConsumer afterward to
// release the slots back to producers.
func (r *MPSC[T]) ReadBatch(maxN int) (startSeq uint64, n int) {
	head := r.consumer.LoadRelaxed()
	startSeq = head
	for n < maxN {
		seq := head + uint64(n)
		slot := &r.buffer[seq&r.mask]
		if slot.seq.LoadAcquire() != seq+1 {
			break
		}
		n++
	}
	return startSeq, n
}

// UpdateConsumer advances the consumer cursor and releases the slots in
// [oldCursor, newCursor) back to producers by rolling their sequence
// markers forward a full cycle.
func (r *MPSC[T]) UpdateConsumer(newCursor uint64) {
	head := r.consumer.LoadRelaxed()
	for seq := head; seq < newCursor; seq++ {
		slot := &r.buffer[seq&r.mask]
		var zero T
		slot.data = zero
		slot.seq.StoreRelease(seq + r.capacity)
	}
	r.consumer.Store(newCursor)
}

// Consumed returns the consumer's current cursor.
func (r *MPSC[T]) Consumed() uint64 { return r.consumer.Load() }
