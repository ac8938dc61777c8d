// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sharedring_test

import (
	"path/filepath"
	"testing"

	"github.com/kaos-io/kaos/sharedring"
)

type value struct {
	V uint64
}

func TestSharedSPSCCrossProcessRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ring.kaos")

	// Room for all n values: the consumer only attaches after the
	// producer has published everything.
	producer, err := sharedring.CreateProducer[value](path, 16384)
	if err != nil {
		t.Fatalf("CreateProducer: %v", err)
	}
	defer producer.Close()

	const n = 10_000
	for i := 0; i < n; {
		seq, got, ok := producer.TryClaim(min(64, n-i))
		if !ok {
			continue
		}
		for j := 0; j < got; j++ {
			producer.Slot(seq + uint64(j)).V = uint64(i + j)
		}
		producer.Publish()
		i += got
	}

	consumer, err := sharedring.OpenConsumer[value](path)
	if err != nil {
		t.Fatalf("OpenConsumer: %v", err)
	}
	defer consumer.Close()

	var next uint64
	for want := uint64(0); want < n; {
		start, got := consumer.ReadBatch(next, 256)
		if got == 0 {
			continue
		}
		for j := 0; j < got; j++ {
			v := consumer.Slot(start + uint64(j)).V
			if v != want {
				t.Fatalf("slot %d: got %d, want %d", start+uint64(j), v, want)
			}
			want++
		}
		next = start + uint64(got)
		consumer.UpdateConsumer(next)
	}

	producer.Close()

	// Closing (process A exiting) must not corrupt the file; a
	// reconnecting consumer sees no new data beyond what was published.
	consumer2, err := sharedring.OpenConsumer[value](path)
	if err != nil {
		t.Fatalf("OpenConsumer after producer close: %v", err)
	}
	defer consumer2.Close()

	if _, got := consumer2.ReadBatch(n, 1); got != 0 {
		t.Fatalf("ReadBatch past published: got %d new entries, want 0", got)
	}
}

func TestSharedSPSCOpenRejectsMismatchedSlotSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.kaos")
	if _, err := sharedring.CreateProducer[value](path, 16); err != nil {
		t.Fatalf("CreateProducer: %v", err)
	}

	// A consumer expecting a different slot type must fail validation.
	type otherSlot struct{ A, B, C uint64 }
	if _, err := sharedring.OpenConsumer[otherSlot](path); err == nil {
		t.Fatal("OpenConsumer with mismatched slot size: got nil error, want failure")
	}
}
