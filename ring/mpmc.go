// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ring

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// MPMC is a multi-producer multi-consumer ring buffer.
//
// Both sides use a CAS loop against a shared cursor plus a per-slot
// sequence marker for ABA safety, combining the producer side of MPSC
// with the consumer side of SPMC. Per the spec's note on MPMC ordering:
// a consumer that claims sequence s is entitled to that slot, but
// consumers do not preserve payload order among themselves — callers
// that need delivery order must sort by sequence after claiming.
type MPMC[T any] struct {
	tail      Cursor // producers CAS here
	readClaim Cursor // consumers CAS here
	tracker   *completionTracker
	buffer    []mpmcSlot[T]
	mask      uint64
	capacity  uint64
	draining  atomix.Bool
}

type mpmcSlot[T any] struct {
	seq  atomix.Uint64
	data T
}

// NewMPMC creates an MPMC ring buffer with room for up to maxConsumers
// registered consumers. Capacity rounds up to the next power of two;
// panics if capacity < 2.
func NewMPMC[T any](capacity, maxConsumers int) *MPMC[T] {
	if capacity < 2 {
		panic("ring: capacity must be >= 2")
	}
	n := uint64(roundToPow2(capacity))
	r := &MPMC[T]{
		buffer:   make([]mpmcSlot[T], n),
		mask:     n - 1,
		capacity: n,
		tracker:  newCompletionTracker(maxConsumers),
	}
	for i := uint64(0); i < n; i++ {
		r.buffer[i].seq.StoreRelaxed(i)
	}
	return r
}

// Cap returns the ring's capacity.
func (r *MPMC[T]) Cap() int { return int(r.capacity) }

// Drain signals that no more producers will claim sequences, letting
// consumers drain what has already been published without new claims
// racing them.
func (r *MPMC[T]) Drain() { r.draining.StoreRelease(true) }

// RegisterConsumer adds a new consumer and returns its id.
func (r *MPMC[T]) RegisterConsumer() int { return r.tracker.register(r.tail.LoadRelaxed()) }

// TryClaim reserves up to n sequences for a producer to write into,
// bounded by the slowest registered consumer. Returns the starting
// sequence and the number actually claimed; claims are rejected once
// the ring has been put into draining state.
func (r *MPMC[T]) TryClaim(n int) (startSeq uint64, claimed int, ok bool) {
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
		min := r.tracker.min()
		if min != ^uint64(0) && tail-min >= r.capacity {
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
			break
		}
		sw.Once()
	}
	return startSeq, claimed, claimed > 0
}

// Slot returns a pointer to the payload of sequence seq.
func (r *MPMC[T]) Slot(seq uint64) *T { return &r.buffer[seq&r.mask].data }

// Publish marks n sequences starting at startSeq as ready for consumers.
func (r *MPMC[T]) Publish(startSeq uint64, n int) {
	for i := 0; i < n; i++ {
		seq := startSeq + uint64(i)
		r.buffer[seq&r.mask].seq.StoreRelease(seq + 1)
	}
}

// Consume claims up to maxN published sequences for the calling
// consumer. Returns the starting sequence and how many were claimed.
// The caller reads via Slot, then calls UpdateConsumer with its own id.
func (r *MPMC[T]) Consume(maxN int) (startSeq uint64, n int) {
	sw := spin.Wait{}
	claimed := 0
	for claimed < maxN {
		head := r.readClaim.LoadRelaxed()
		slot := &r.buffer[head&r.mask]
		seq := slot.seq.LoadAcquire()
		if seq == head+1 {
			if !r.readClaim.CompareAndSwap(head, head+1) {
				sw.Once()
				continue
			}
			if claimed == 0 {
				startSeq = head
			}
			claimed++
			continue
		}
		if int64(seq) < int64(head+1) {
			break
		}
		sw.Once()
	}
	return startSeq, claimed
}

// UpdateConsumer records that consumer id has finished processing
// through newCursor (exclusive), recycling those slots and advancing
// the wrap barrier the producers observe.
func (r *MPMC[T]) UpdateConsumer(id int, newCursor uint64) {
	prev := r.tracker.cursors[id].Load()
	for seq := prev; seq < newCursor; seq++ {
		slot := &r.buffer[seq&r.mask]
		var zero T
		slot.data = zero
		slot.seq.StoreRelease(seq + r.capacity)
	}
	r.tracker.update(id, newCursor)
}
