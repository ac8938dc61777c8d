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

func TestSPMCWorkDistribution(t *testing.T) {
	const total = 4000
	const consumers = 4

	r := ring.NewSPMC[int](256, consumers)

	go func() {
		for i := 0; i < total; {
			seq, n, ok := r.TryClaim(8)
			if !ok {
				continue
			}
			for j := 0; j < n; j++ {
				*r.Slot(seq + uint64(j)) = i + j
			}
			r.Publish(seq, n)
			i += n
		}
	}()

	var seen int64
	var wg sync.WaitGroup
	wg.Add(consumers)
	for c := 0; c < consumers; c++ {
		go func() {
			defer wg.Done()
			id := r.RegisterConsumer()
			for atomic.LoadInt64(&seen) < total {
				start, n := r.Consume(4)
				if n == 0 {
					continue
				}
				atomic.AddInt64(&seen, int64(n))
				r.UpdateConsumer(id, start+uint64(n))
			}
		}()
	}
	wg.Wait()

	if int(atomic.LoadInt64(&seen)) < total {
		t.Fatalf("seen: got %d, want >= %d", seen, total)
	}
}
