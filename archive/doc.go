// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package archive is an append-only, mmap-backed log with a parallel
// sequence→offset index, used for crash recovery, NAK-driven
// retransmission once a send window has wrapped, and replay for late
// subscribers.
//
// Two files back every archive: data holds densely packed
// [length][payload] records, index holds fixed-width records enabling
// O(1) lookup by sequence. Two modes are offered: Sync fsyncs every
// append before returning; Async enqueues into an internal [ring.SPSC]
// and lets a dedicated writer goroutine batch the I/O, trading
// durability latency for throughput.
package archive
