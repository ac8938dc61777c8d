// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package ring provides lock-free ring buffers indexed by monotonic
// 64-bit sequences.
//
// Four producer/consumer disciplines share a common claim/publish/consume
// protocol:
//
//   - SPSC: single producer, single consumer (Lamport ring buffer)
//   - MPSC: multiple producers, single consumer (CAS claim cursor)
//   - SPMC: single producer, multiple consumers (CAS read cursor)
//   - MPMC: multiple producers, multiple consumers (CAS both sides)
//
// Unlike a plain queue, the engine here exposes sequence numbers directly:
// producers claim a contiguous range of sequences, write payloads into the
// slots at those sequences, and publish the range with a single release
// store. Consumers load the producer's progress with an acquire load and
// read batches of slots without further coordination. This shape mirrors
// the LMAX Disruptor's claim/publish/consume split rather than a simple
// Enqueue/Dequeue pair, because callers need the sequence numbers to drive
// retransmission and replay in the layers built on top of this package.
//
//	rb := ring.NewSPSC[ring.Slot64](1024)
//	seq, slots, ok := rb.TryClaim(1)
//	if ok {
//	    slots[0] = ring.Slot64{}
//	    rb.Publish(seq + 1)
//	}
//
//	batch := rb.ReadBatch(cursor, 64)
//	for _, s := range batch {
//	    _ = s
//	}
//	rb.UpdateConsumer(cursor + uint64(len(batch)))
//
// # Memory ordering
//
// The release-acquire protocol on the producer cursor (or, for multi-
// producer disciplines, on each slot's availability marker) is the sole
// synchronization mechanism. All slot payload stores happen-before the
// release store that publishes them; all consumer reads of slot payloads
// happen-after the acquire load that observes that store. See
// [code.hybscloud.com/atomix] for the ordering primitives used throughout.
package ring
