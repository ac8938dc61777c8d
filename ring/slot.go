// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ring

// MessageMaxPayload is the largest payload a MessageSlot can carry.
const MessageMaxPayload = 1024

// Slot8, Slot16, Slot32 and Slot64 are fixed-size, naturally aligned value
// slots. They hold no pointers and no owned external resources, so a
// consumer may take a bit-copy of one without coordinating with the writer
// beyond the producer cursor's release store.
type (
	Slot8  [8]byte
	Slot16 [16]byte
	Slot32 [32]byte
	Slot64 [64]byte
)

// MessageSlot is a variable-length payload cell. Length is carried inside
// the slot rather than out-of-band, so a reader can distinguish an empty
// slot from one mid-publish.
//
// Publish order for a MessageSlot is payload bytes, then length, matching
// the requirement that a reader observing length == 0 must treat the slot
// as not yet written and retry. The length field itself does not need to
// be atomic: the ring buffer's own release store on the producer cursor
// (or per-slot availability marker) is what makes the payload and the
// length visible together. The zero-length check only guards against the
// memory being reused from a previous round before the new publish lands.
type MessageSlot struct {
	Length  uint32
	_       [60]byte // pad header to a cache line
	Payload [MessageMaxPayload]byte
}

// SetPayload copies p into the slot. Panics if p exceeds MessageMaxPayload;
// callers validate sizes before claiming a slot.
func (m *MessageSlot) SetPayload(p []byte) {
	if len(p) > MessageMaxPayload {
		panic("ring: payload exceeds MessageSlot capacity")
	}
	copy(m.Payload[:], p)
	for i := len(p); i < MessageMaxPayload; i++ {
		m.Payload[i] = 0
	}
	m.Length = uint32(len(p))
}

// Bytes returns the slot's payload, truncated to Length.
func (m *MessageSlot) Bytes() []byte {
	return m.Payload[:m.Length]
}

// Reset clears the slot so a subsequent reader that races the next
// producer observes Length == 0 rather than stale bytes.
func (m *MessageSlot) Reset() {
	m.Length = 0
}
