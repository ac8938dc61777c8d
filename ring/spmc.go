// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ring

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// SPMC is a single-producer multi-consumer ring buffer.
//
// The sole producer writes sequentially, exactly as in SPSC. Consumers
// compete for work items via a CAS loop on a shared read cursor — the
// completion tracker described for multi-consumer disciplines: each
// consumer records its own high-water mark, and the producer's wrap
// barrier is the minimum across all of them, not a single shared
// dequeue cursor. This is "work distribution": each published sequence
// goes to exactly one consumer, not to all of them (see Broadcast for
// the one-to-many variant).
type SPMC[T any] struct {
	tail       Cursor // owned solely by the producer
	readClaim  Cursor // consumers CAS here to reserve sequences to process
	tracker    *completionTracker
	buffer     []spmcSlot[T]
	mask       uint64
	capacity   uint64
}

type spmcSlot[T any] struct {
	seq  atomix.Uint64
	data T
}

// NewSPMC creates an SPMC ring buffer with room for up to maxConsumers
// registered consumers. Capacity rounds up to the next power of two;
// panics if capacity < 2.
func NewSPMC[T any](capacity, maxConsumers int) *SPMC[T] {
	if capacity < 2 {
		panic("ring: capacity must be >= 2")
	}
	n := uint64(roundToPow2(capacity))
	r := &SPMC[T]{
		buffer:   make([]spmcSlot[T], n),
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
func (r *SPMC[T]) Cap() int { return int(r.capacity) }

// RegisterConsumer adds a new consumer and returns its id, to be passed
// to Consume and UpdateConsumer. Consumers register before their first
// call to Consume.
func (r *SPMC[T]) RegisterConsumer() int { return r.tracker.register(r.tail.LoadRelaxed()) }

// TryClaim reserves up to n sequences for the producer to write into.
// Returns the starting sequence and the number actually claimed.
func (r *SPMC[T]) TryClaim(n int) (startSeq uint64, claimed int, ok bool) {
	tail := r.tail.LoadRelaxed()
	min := r.tracker.min()
	startSeq = tail
	for claimed < n {
		seq := tail + uint64(claimed)
		if min != ^uint64(0) && seq-min >= r.capacity {
			break
		}
		claimed++
	}
	return startSeq, claimed, claimed > 0
}

// Slot returns a pointer to the payload of sequence seq.
func (r *SPMC[T]) Slot(seq uint64) *T { return &r.buffer[seq&r.mask].data }

// Publish makes n sequences starting at startSeq visible to consumers.
func (r *SPMC[T]) Publish(startSeq uint64, n int) {
	for i := 0; i < n; i++ {
		seq := startSeq + uint64(i)
		r.buffer[seq&r.mask].seq.StoreRelease(seq + 1)
	}
	r.tail.Store(startSeq + uint64(n))
}

// Consume claims up to maxN not-yet-claimed published sequences for the
// calling consumer. Returns the starting sequence and how many were
// claimed; zero means nothing is available right now. The caller reads
// via Slot, then calls UpdateConsumer with its own id once done.
func (r *SPMC[T]) Consume(maxN int) (startSeq uint64, n int) {
	sw := spin.Wait{}
	for {
		head := r.readClaim.LoadAcquire()
		tail := r.tail.Load()
		if head >= tail {
			return head, 0
		}
		avail := tail - head
		if avail > uint64(maxN) {
			avail = uint64(maxN)
		}
		// Only claim through the contiguous run of published slots; a
		// producer may have advanced tail without finishing every store.
		ready := uint64(0)
		for ready < avail {
			slot := &r.buffer[(head+ready)&r.mask]
			if slot.seq.LoadAcquire() != head+ready+1 {
				break
			}
			ready++
		}
		if ready == 0 {
			return head, 0
		}
		if r.readClaim.CompareAndSwap(head, head+ready) {
			return head, int(ready)
		}
		sw.Once()
	}
}

// UpdateConsumer records that consumer id has finished processing
// through newCursor (exclusive), recycling those slots for reuse and
// advancing the wrap barrier the producer observes.
func (r *SPMC[T]) UpdateConsumer(id int, newCursor uint64) {
	prev := r.tracker.cursors[id].Load()
	for seq := prev; seq < newCursor; seq++ {
		slot := &r.buffer[seq&r.mask]
		var zero T
		slot.data = zero
		slot.seq.StoreRelease(seq + r.capacity)
	}
	r.tracker.update(id, newCursor)
}
