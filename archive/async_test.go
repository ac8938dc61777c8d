// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package archive_test

import (
	"fmt"
	"testing"

	"github.com/kaos-io/kaos/archive"
)

func TestAsyncArchiveFlushThenRead(t *testing.T) {
	a, err := archive.Open(archive.Options{
		Path:             t.TempDir(),
		Mode:             archive.Async,
		AsyncBatch:       16,
		AsyncIndexStride: 32,
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer a.Close()

	const n = 5000
	for i := 0; i < n; i++ {
		if _, err := a.Append([]byte(fmt.Sprintf("async-%d", i))); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if err := a.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	for i := 0; i < n; i++ {
		got, err := a.Read(uint64(i))
		if err != nil {
			t.Fatalf("Read(%d): %v", i, err)
		}
		if string(got) != fmt.Sprintf("async-%d", i) {
			t.Fatalf("Read(%d): got %q", i, got)
		}
	}
}
