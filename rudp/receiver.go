// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rudp

import (
	"sync"

	"code.hybscloud.com/spin"

	"github.com/kaos-io/kaos/ring"
)

// DefaultReceiveWindow is the bitmap window's default width.
const DefaultReceiveWindow = 4096

// receiver is the per-peer inbound half: a bitmap window tracking which
// sequences in [delivered+1, delivered+1+W) have arrived, and a
// consumer ring ([ring.SPSC] of MessageSlot) that hands payloads to the
// application strictly in sequence order.
type receiver struct {
	mu sync.Mutex

	width     uint64
	delivered uint64
	bitmap    []bool
	buffered  [][]byte

	deliverRing *ring.SPSC[ring.MessageSlot]
	deliverSeq  uint64
}

func newReceiver(width int) *receiver {
	if width <= 0 {
		width = DefaultReceiveWindow
	}
	return &receiver{
		width:       uint64(width),
		bitmap:      make([]bool, width),
		buffered:    make([][]byte, width),
		deliverRing: ring.NewSPSC[ring.MessageSlot](width),
	}
}

// onDataResult tells the caller what ACK/NAK traffic, if any, onData's
// processing implies.
type onDataResult struct {
	duplicate   bool
	outOfWindow bool
}

// OnData buffers payload at sequence, advances delivered as far as
// contiguous arrivals allow, and pushes newly deliverable payloads into
// the delivery ring in order.
func (r *receiver) OnData(seq uint64, payload []byte) onDataResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	if seq <= r.delivered {
		return onDataResult{duplicate: true}
	}
	if seq >= r.delivered+1+r.width {
		return onDataResult{outOfWindow: true}
	}

	idx := seq % r.width
	if !r.bitmap[idx] {
		buf := make([]byte, len(payload))
		copy(buf, payload)
		r.buffered[idx] = buf
		r.bitmap[idx] = true
	}

	for {
		nextIdx := (r.delivered + 1) % r.width
		if !r.bitmap[nextIdx] {
			break
		}
		payload := r.buffered[nextIdx]
		r.deliverLocked(r.delivered+1, payload)
		r.bitmap[nextIdx] = false
		r.buffered[nextIdx] = nil
		r.delivered++
	}
	return onDataResult{}
}

// deliverLocked enqueues payload for delivery, spin-waiting for room if
// the application hasn't called Deliver() recently. This is the
// suspension point spec.md's concurrency model accepts for a full
// buffer; delivered only advances in OnData once this returns, so a
// payload is never counted as delivered without actually landing in the
// delivery ring.
func (r *receiver) deliverLocked(seq uint64, payload []byte) {
	var sw spin.Wait
	for {
		dseq, slots, ok := r.deliverRing.TryClaim(1)
		if ok {
			slots[0].SetPayload(payload)
			r.deliverRing.Publish(dseq + 1)
			return
		}
		sw.Once()
	}
}

// Deliver returns the next delivered payload in sequence order, or ok=false
// if none is ready yet.
func (r *receiver) Deliver() (payload []byte, ok bool) {
	batch := r.deliverRing.ReadBatch(r.deliverSeq, 1)
	if len(batch) == 0 {
		return nil, false
	}
	out := append([]byte(nil), batch[0].Bytes()...)
	r.deliverSeq++
	r.deliverRing.UpdateConsumer(r.deliverSeq)
	return out, true
}

// Delivered returns the current delivered watermark.
func (r *receiver) Delivered() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.delivered
}

// BuildAck returns the ACK frame carrying the current watermark.
func (r *receiver) BuildAck() Frame {
	return Frame{Kind: KindAck, Ack: r.Delivered()}
}

// DetectGap scans forward from delivered+1 for the first missing
// sequence and reports it plus the 32-bit bitmap of subsequent gaps, for
// use building a NAK frame. ok is false if there is no gap to report.
func (r *receiver) DetectGap() (from uint64, gaps uint32, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := r.delivered + 1
	firstIdx := start % r.width
	if r.bitmap[firstIdx] {
		return 0, 0, false // no gap at the front: delivered would have advanced
	}
	var bitmap uint32
	for i := 0; i < 32; i++ {
		idx := (start + uint64(i) + 1) % r.width
		if !r.bitmap[idx] {
			bitmap |= 1 << uint(i)
		}
	}
	return start, bitmap, true
}
