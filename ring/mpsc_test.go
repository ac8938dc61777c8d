// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ring_test

import (
	"sort"
	"sync"
	"testing"

	"github.com/kaos-io/kaos/ring"
)

func TestMPSCClaimPublishRead(t *testing.T) {
	r := ring.NewMPSC[int](4)

	seq, n, ok := r.TryClaim(4)
	if !ok || seq != 0 || n != 4 {
		t.Fatalf("TryClaim: seq=%d n=%d ok=%v", seq, n, ok)
	}
	for i := 0; i < n; i++ {
		*r.Slot(seq + uint64(i)) = 100 + i
	}
	r.Publish(seq, n)

	start, got := r.ReadBatch(10)
	if start != 0 || got != 4 {
		t.Fatalf("ReadBatch: start=%d got=%d", start, got)
	}
	for i := 0; i < got; i++ {
		if v := *r.Slot(start + uint64(i)); v != 100+i {
			t.Fatalf("slot %d: got %d, want %d", i, v, 100+i)
		}
	}
	r.UpdateConsumer(start + uint64(got))

	if _, n, ok := r.TryClaim(4); !ok || n != 4 {
		t.Fatalf("TryClaim after drain: n=%d ok=%v", n, ok)
	}
}

func TestMPSCDrainRejectsNewClaims(t *testing.T) {
	r := ring.NewMPSC[int](4)
	seq, n, ok := r.TryClaim(2)
	if !ok {
		t.Fatal("TryClaim before drain should succeed")
	}
	r.Publish(seq, n)

	r.Drain()
	if _, _, ok := r.TryClaim(1); ok {
		t.Fatal("TryClaim after Drain should be rejected")
	}

	start, got := r.ReadBatch(10)
	if got != n {
		t.Fatalf("ReadBatch after drain: got %d, want %d", got, n)
	}
	r.UpdateConsumer(start + uint64(got))
}

// TestMPSCContention is scenario 2 from the spec: four producers each
// publish 250,000 slots carrying {producer_id, local_i}; the consumer
// reads all 1,000,000 and, grouped by producer_id, local_i must be
// 0..250,000 in strict order per producer.
func TestMPSCContention(t *testing.T) {
	const producers = 4
	const perProducer = 250_000
	const total = producers * perProducer

	type item struct {
		producerID int
		localI     int
	}

	r := ring.NewMPSC[item](1024)

	var wg sync.WaitGroup
	wg.Add(producers)
	for p := 0; p < producers; p++ {
		go func(id int) {
			defer wg.Done()
			for i := 0; i < perProducer; {
				seq, n, ok := r.TryClaim(1)
				if !ok {
					continue
				}
				*r.Slot(seq) = item{producerID: id, localI: i}
				r.Publish(seq, n)
				i++
			}
		}(p)
	}

	results := make([][]int, producers)
	done := make(chan struct{})
	go func() {
		got := 0
		for got < total {
			start, n := r.ReadBatch(256)
			for i := 0; i < n; i++ {
				it := *r.Slot(start + uint64(i))
				results[it.producerID] = append(results[it.producerID], it.localI)
			}
			if n > 0 {
				r.UpdateConsumer(start + uint64(n))
				got += n
			}
		}
		close(done)
	}()

	wg.Wait()
	<-done

	for p := 0; p < producers; p++ {
		if len(results[p]) != perProducer {
			t.Fatalf("producer %d: got %d items, want %d", p, len(results[p]), perProducer)
		}
		if !sort.IntsAreSorted(results[p]) {
			t.Fatalf("producer %d: local_i not strictly ascending", p)
		}
		for i, v := range results[p] {
			if v != i {
				t.Fatalf("producer %d item %d: got local_i %d, want %d", p, i, v, i)
			}
		}
	}
}
