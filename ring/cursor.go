// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ring

import "code.hybscloud.com/atomix"

// pad128 separates adjacent atomics by a full 128 bytes. Some ARM cores
// prefetch cache lines in adjacent pairs, so a single 64-byte line is not
// enough to stop false sharing between a producer cursor and a consumer
// cursor that are updated by different cores. 128 bytes covers the pair.
type pad128 [128]byte

// Cursor is a 64-bit sequence counter padded to 128 bytes so that no two
// cursors of different roles (producer, consumer, claim) share a cache
// line, or a pair of adjacent lines, with each other.
type Cursor struct {
	_     pad128
	value atomix.Uint64
	_     pad128
}

// Load performs an acquire load of the cursor.
func (c *Cursor) Load() uint64 { return c.value.LoadAcquire() }

// LoadRelaxed performs a relaxed load, for use by the sole thread that
// owns the cursor (e.g. a producer reading its own cached cursor).
func (c *Cursor) LoadRelaxed() uint64 { return c.value.LoadRelaxed() }

// Store performs a release store, publishing prior writes to any thread
// that subsequently performs an acquire load of this cursor.
func (c *Cursor) Store(v uint64) { c.value.StoreRelease(v) }

// StoreRelaxed performs a relaxed store, for use when no cross-thread
// visibility is implied (e.g. initialization).
func (c *Cursor) StoreRelaxed(v uint64) { c.value.StoreRelaxed(v) }

// Add performs a fetch-and-add with full acquire-release ordering and
// returns the value prior to the add.
func (c *Cursor) Add(delta uint64) uint64 { return c.value.AddAcqRel(delta) }

// CompareAndSwap attempts to move the cursor from old to new with
// acquire-release ordering.
func (c *Cursor) CompareAndSwap(old, new uint64) bool {
	return c.value.CompareAndSwapAcqRel(old, new)
}

// roundToPow2 rounds n up to the next power of 2. Mirrors the rounding
// rule used throughout the ring buffer engine: capacity is always a power
// of two so that sequence-to-index conversion is a mask, not a modulo.
func roundToPow2(n int) int {
	if n < 2 {
		return 2
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}
