// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ring_test

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/kaos-io/kaos/ring"
)

func TestMPMCBasic(t *testing.T) {
	r := ring.NewMPMC[int](4, 1)
	id := r.RegisterConsumer()

	seq, n, ok := r.TryClaim(4)
	if !ok || n != 4 {
		t.Fatalf("TryClaim: n=%d ok=%v", n, ok)
	}
	for i := 0; i < n; i++ {
		*r.Slot(seq + uint64(i)) = i
	}
	r.Publish(seq, n)

	start, got := r.Consume(4)
	if got != 4 {
		t.Fatalf("Consume: got %d, want 4", got)
	}
	for i := 0; i < got; i++ {
		if v := *r.Slot(start + uint64(i)); v != i {
			t.Fatalf("slot %d: got %d, want %d", i, v, i)
		}
	}
	r.UpdateConsumer(id, start+uint64(got))

	if _, n, ok := r.TryClaim(4); !ok || n != 4 {
		t.Fatalf("TryClaim after consumer catches up: n=%d ok=%v", n, ok)
	}
}

func TestMPMCDrainRejectsNewClaims(t *testing.T) {
	r := ring.NewMPMC[int](4, 1)
	id := r.RegisterConsumer()

	seq, n, ok := r.TryClaim(2)
	if !ok {
		t.Fatal("TryClaim before drain should succeed")
	}
	r.Publish(seq, n)

	r.Drain()
	if _, _, ok := r.TryClaim(1); ok {
		t.Fatal("TryClaim after Drain should be rejected")
	}

	start, got := r.Consume(2)
	if got != n {
		t.Fatalf("Consume after drain: got %d, want %d", got, n)
	}
	r.UpdateConsumer(id, start+uint64(got))
}

func TestMPMCConcurrentProducersConsumers(t *testing.T) {
	const total = 200_000
	const producers = 4
	const consumers = 4

	r := ring.NewMPMC[int](512, consumers)

	var produced int64
	var wg sync.WaitGroup
	wg.Add(producers)
	for p := 0; p < producers; p++ {
		go func() {
			defer wg.Done()
			for {
				if atomic.AddInt64(&produced, 1) > total {
					return
				}
				for {
					seq, n, ok := r.TryClaim(1)
					if !ok {
						continue
					}
					*r.Slot(seq) = 1
					r.Publish(seq, n)
					break
				}
			}
		}()
	}

	var consumed int64
	var cwg sync.WaitGroup
	cwg.Add(consumers)
	for c := 0; c < consumers; c++ {
		go func() {
			defer cwg.Done()
			id := r.RegisterConsumer()
			for atomic.LoadInt64(&consumed) < total {
				start, n := r.Consume(8)
				if n == 0 {
					continue
				}
				atomic.AddInt64(&consumed, int64(n))
				r.UpdateConsumer(id, start+uint64(n))
			}
		}()
	}

	wg.Wait()
	cwg.Wait()

	if atomic.LoadInt64(&consumed) < total {
		t.Fatalf("consumed: got %d, want >= %d", consumed, total)
	}
}
