// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ring

// SPSC is a single-producer single-consumer ring buffer.
//
// Based on Lamport's ring buffer with cached index optimization: the
// producer caches the consumer's cursor, and vice versa, to reduce
// cross-core cache line traffic on the hot path.
//
// Claim and publish are wait-free. There is no claim cursor: the sole
// producer owns sequence assignment outright and advances the producer
// cursor directly.
type SPSC[T any] struct {
	producer   Cursor // next sequence to publish, owned by the producer
	cachedHead uint64 // producer's cached view of the consumer cursor
	consumer   Cursor // next sequence the consumer has not yet taken
	cachedTail uint64 // consumer's cached view of the producer cursor

	buffer []T
	mask   uint64
}

// NewSPSC creates an SPSC ring buffer. Capacity rounds up to the next
// power of two; panics if capacity < 2.
func NewSPSC[T any](capacity int) *SPSC[T] {
	if capacity < 2 {
		panic("ring: capacity must be >= 2")
	}
	n := uint64(roundToPow2(capacity))
	return &SPSC[T]{
		buffer: make([]T, n),
		mask:   n - 1,
	}
}

// Cap returns the ring's capacity.
func (r *SPSC[T]) Cap() int { return int(r.mask + 1) }

// TryClaim reserves n contiguous sequences for the producer to write into.
// Returns the starting sequence, the slice of slots to fill, and whether
// the claim succeeded. A claim fails when the ring is full relative to
// the consumer's cursor, when n is not in [1, Cap()], or when the range
// would straddle the end of the backing array, since the returned slots
// are always one contiguous slice.
func (r *SPSC[T]) TryClaim(n int) (startSeq uint64, slots []T, ok bool) {
	if n <= 0 || uint64(n) > r.mask+1 {
		return 0, nil, false
	}
	tail := r.producer.LoadRelaxed()
	need := tail + uint64(n)
	if need-r.cachedHead > r.mask+1 {
		r.cachedHead = r.consumer.Load()
		if need-r.cachedHead > r.mask+1 {
			return 0, nil, false
		}
	}
	start := tail & r.mask
	if start+uint64(n) <= r.mask+1 {
		return tail, r.buffer[start : start+uint64(n)], true
	}
	// The range would wrap the backing array. Batch claims never straddle
	// the wrap boundary, so the claim fails and nothing is reserved.
	return 0, nil, false
}

// Slot returns a pointer to the slot for sequence seq. Valid only for a
// sequence the caller has just claimed (or, on the consumer side, one it
// has observed as published).
func (r *SPSC[T]) Slot(seq uint64) *T { return &r.buffer[seq&r.mask] }

// Publish makes all claimed sequences up to (exclusive) endSeq visible to
// the consumer via a release store.
func (r *SPSC[T]) Publish(endSeq uint64) { r.producer.Store(endSeq) }

// ReadBatch returns a contiguous slice of published slots starting at
// from, capped at maxN elements and at the end of the backing array. An
// empty batch means no new data is available yet.
func (r *SPSC[T]) ReadBatch(from uint64, maxN int) []T {
	tail := r.cachedTail
	if from >= tail {
		tail = r.producer.Load()
		r.cachedTail = tail
		if from >= tail {
			return nil
		}
	}
	avail := tail - from
	if avail > uint64(maxN) {
		avail = uint64(maxN)
	}
	start := from & r.mask
	end := start + avail
	if end > r.mask+1 {
		avail = r.mask + 1 - start
	}
	return r.buffer[start : start+avail]
}

// UpdateConsumer advances the consumer cursor with a release store,
// unblocking a producer waiting on this slowest-consumer barrier.
func (r *SPSC[T]) UpdateConsumer(newCursor uint64) { r.consumer.Store(newCursor) }

// Published returns the producer's current cursor (acquire load).
func (r *SPSC[T]) Published() uint64 { return r.producer.Load() }

// Consumed returns the consumer's current cursor (acquire load).
func (r *SPSC[T]) Consumed() uint64 { return r.consumer.Load() }
