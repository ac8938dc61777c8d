// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ring_test

import (
	"errors"
	"testing"

	"github.com/kaos-io/kaos/ring"
)

func TestBroadcastEachConsumerSeesEveryMessage(t *testing.T) {
	r := ring.NewBroadcast[int](8)
	c1 := r.NewConsumer()
	c2 := r.NewConsumer()

	for i := 0; i < 5; i++ {
		v := i
		r.Publish(&v)
	}

	for _, c := range []*ring.BroadcastConsumer[int]{c1, c2} {
		for i := 0; i < 5; i++ {
			v, err := c.Read()
			if err != nil {
				t.Fatalf("Read: %v", err)
			}
			if v != i {
				t.Fatalf("Read: got %d, want %d", v, i)
			}
		}
		if _, err := c.Read(); !errors.Is(err, ring.ErrEmpty) {
			t.Fatalf("Read on drained broadcast: got %v, want ErrEmpty", err)
		}
	}
}

func TestBroadcastLaggingConsumerIsDropped(t *testing.T) {
	r := ring.NewBroadcast[int](4)
	slow := r.NewConsumer()

	// Publish more than capacity without the slow consumer reading.
	for i := 0; i < 10; i++ {
		v := i
		r.Publish(&v)
	}

	_, err := slow.Read()
	if !errors.Is(err, ring.ErrLagging) {
		t.Fatalf("Read: got %v, want ErrLagging", err)
	}

	// After resync, reads succeed again from the oldest valid slot.
	if _, err := slow.Read(); err != nil {
		t.Fatalf("Read after resync: %v", err)
	}
}
