// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ring

import "code.hybscloud.com/atomix"

// completionTracker records per-consumer progress for the SPMC and MPMC
// disciplines. Producers derive the wrap barrier as the minimum of all
// registered consumer cursors, per the completion tracker described for
// multi-consumer ring buffers: "the engine derives a global minimum
// consumer cursor ... producers treat that minimum as the wrap barrier."
type completionTracker struct {
	cursors  []Cursor
	count    atomix.Int64 // number of registered consumers
	capacity int
}

func newCompletionTracker(maxConsumers int) *completionTracker {
	if maxConsumers < 1 {
		maxConsumers = 1
	}
	return &completionTracker{
		cursors:  make([]Cursor, maxConsumers),
		capacity: maxConsumers,
	}
}

// register adds a new consumer starting from initial and returns its id.
// Panics if the tracker is already at maxConsumers: callers size the
// ring buffer for the number of consumers they intend to run.
func (t *completionTracker) register(initial uint64) int {
	id := int(t.count.AddAcqRel(1)) - 1
	if id >= t.capacity {
		panic("ring: too many consumers registered for this ring buffer")
	}
	t.cursors[id].StoreRelaxed(initial)
	return id
}

// update advances consumer id's cursor with a release store.
func (t *completionTracker) update(id int, cursor uint64) {
	t.cursors[id].Store(cursor)
}

// min returns the minimum cursor across all registered consumers. Callers
// use this as the wrap barrier: a producer may not claim a sequence more
// than capacity ahead of this value.
func (t *completionTracker) min() uint64 {
	n := int(t.count.LoadRelaxed())
	if n > t.capacity {
		n = t.capacity
	}
	if n == 0 {
		return ^uint64(0) // no consumers registered yet: do not constrain
	}
	m := t.cursors[0].Load()
	for i := 1; i < n; i++ {
		if v := t.cursors[i].Load(); v < m {
			m = v
		}
	}
	return m
}
