// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ring_test

import (
	"bytes"
	"testing"

	"github.com/kaos-io/kaos/ring"
)

func TestMessageSlotRoundTrip(t *testing.T) {
	var m ring.MessageSlot
	payload := []byte("hello kaos")
	m.SetPayload(payload)

	if m.Length != uint32(len(payload)) {
		t.Fatalf("Length: got %d, want %d", m.Length, len(payload))
	}
	if !bytes.Equal(m.Bytes(), payload) {
		t.Fatalf("Bytes: got %q, want %q", m.Bytes(), payload)
	}

	m.Reset()
	if m.Length != 0 {
		t.Fatalf("Reset: Length = %d, want 0", m.Length)
	}
	if len(m.Bytes()) != 0 {
		t.Fatalf("Bytes after reset: got %d bytes, want 0", len(m.Bytes()))
	}
}

func TestMessageSlotRejectsOversizePayload(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("SetPayload with oversize payload did not panic")
		}
	}()
	var m ring.MessageSlot
	m.SetPayload(make([]byte, ring.MessageMaxPayload+1))
}
