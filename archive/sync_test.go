// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package archive_test

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/kaos-io/kaos/archive"
)

func TestSyncArchiveRoundTrip(t *testing.T) {
	a, err := archive.Open(archive.Options{Path: t.TempDir(), Mode: archive.Sync})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer a.Close()

	const n = 1000
	for i := 0; i < n; i++ {
		payload := []byte(fmt.Sprintf("record-%d", i))
		seq, err := a.Append(payload)
		if err != nil {
			t.Fatalf("Append: %v", err)
		}
		if seq != uint64(i) {
			t.Fatalf("Append: seq=%d, want %d", seq, i)
		}
	}

	for i := 0; i < n; i++ {
		got, err := a.Read(uint64(i))
		if err != nil {
			t.Fatalf("Read(%d): %v", i, err)
		}
		want := []byte(fmt.Sprintf("record-%d", i))
		if !bytes.Equal(got, want) {
			t.Fatalf("Read(%d): got %q, want %q", i, got, want)
		}
	}

	if _, err := a.Read(n); !errors.Is(err, archive.ErrNotArchived) {
		t.Fatalf("Read(out of range): got %v, want ErrNotArchived", err)
	}
}

func TestReplayOrdering(t *testing.T) {
	a, err := archive.Open(archive.Options{Path: t.TempDir(), Mode: archive.Sync})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer a.Close()

	for i := 0; i < 100; i++ {
		if _, err := a.Append([]byte{byte(i)}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	var seen []uint64
	err = a.Replay(10, 20, func(seq uint64, payload []byte) error {
		seen = append(seen, seq)
		if len(payload) != 1 || payload[0] != byte(seq) {
			t.Fatalf("Replay(%d): payload %v, want [%d]", seq, payload, seq)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if len(seen) != 10 {
		t.Fatalf("Replay: visited %d entries, want 10", len(seen))
	}
	for i, s := range seen {
		if s != uint64(10+i) {
			t.Fatalf("Replay order: seen[%d]=%d, want %d", i, s, 10+i)
		}
	}
}

func TestCrashRecovery(t *testing.T) {
	dir := t.TempDir()

	a, err := archive.Open(archive.Options{Path: dir, Mode: archive.Sync})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	for i := 0; i < 7500; i++ {
		if _, err := a.Append([]byte(fmt.Sprintf("r%d", i))); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	// Simulate an ungraceful kill: skip Close, which would otherwise be
	// harmless here since Sync mode is already durable per append.

	b, err := archive.Open(archive.Options{Path: dir, Mode: archive.Sync})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer b.Close()

	got, err := b.Read(7499)
	if err != nil {
		t.Fatalf("Read(7499): %v", err)
	}
	if string(got) != "r7499" {
		t.Fatalf("Read(7499): got %q", got)
	}

	if _, err := b.Read(7500); err != nil && !errors.Is(err, archive.ErrNotArchived) {
		t.Fatalf("Read(7500): got %v, want nil or ErrNotArchived", err)
	}
}
