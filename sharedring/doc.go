// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package sharedring lays the SPSC ring buffer engine from [ring] over a
// memory-mapped file so unrelated processes can share it.
//
// The file format is fixed: a 64-byte header carrying a magic number,
// version and capacity, followed by cache-line-padded producer and
// consumer cursors, followed by the slot array itself. Exactly one
// process creates the file; every other process opens it, validates the
// header, and resumes from whatever the cursors currently read. There is
// no producer liveness detection at this layer: if a producer dies
// mid-write, the release-store discipline on the producer cursor
// guarantees a consumer never observes a half-published slot, so the
// mapping is left exactly as readable as it was the instant before the
// crash.
package sharedring
