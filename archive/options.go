// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package archive

import "go.uber.org/zap"

// Mode selects the archive's write discipline.
type Mode int

const (
	// Sync persists every append before returning: write into the
	// mapping, msync the data, then write and fsync the index. Crash-safe
	// per write at the cost of the syncs.
	Sync Mode = iota
	// Async enqueues appends into an internal SPSC ring and returns
	// immediately; a writer goroutine drains it in batches.
	Async
)

const (
	defaultMaxBytes         = 64 << 20 // 64 MiB
	defaultAsyncBatch       = 64
	defaultAsyncIndexStride = 64
	defaultAsyncQueueDepth  = 4096
)

// Options configures an archive at construction. Capacity (MaxBytes) is
// fixed for the archive's lifetime: the data file is pre-truncated and
// mapped once, so appends never trigger a remap.
type Options struct {
	// Path is the directory holding the archive's "data" and "index"
	// files. It is created if it does not exist.
	Path string

	// MaxBytes bounds the data file. Defaults to 64 MiB.
	MaxBytes int64

	// Mode selects Sync or Async.
	Mode Mode

	// AsyncBatch is the writer goroutine's batch size in Async mode.
	// Defaults to 64.
	AsyncBatch int

	// AsyncIndexStride is how many records accumulate between index
	// persists in Async mode. Defaults to 64.
	AsyncIndexStride int

	// AsyncQueueDepth sizes the internal SPSC ring in Async mode.
	// Defaults to 4096; must be a power of two.
	AsyncQueueDepth int

	// Logger receives a single error-level entry if the async writer
	// goroutine panics or its write or index sync fails. Defaults to a
	// no-op logger; the caller still observes the failure through
	// Append/Flush returning ErrIo.
	Logger *zap.Logger
}

func (o *Options) setDefaults() {
	if o.MaxBytes <= 0 {
		o.MaxBytes = defaultMaxBytes
	}
	if o.AsyncBatch <= 0 {
		o.AsyncBatch = defaultAsyncBatch
	}
	if o.AsyncIndexStride <= 0 {
		o.AsyncIndexStride = defaultAsyncIndexStride
	}
	if o.AsyncQueueDepth <= 0 {
		o.AsyncQueueDepth = defaultAsyncQueueDepth
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}
