// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package archive

import "errors"

// ErrNotArchived is returned by Read for a sequence outside the
// archive's current range.
var ErrNotArchived = errors.New("archive: sequence not archived")

// ErrIo reports a failed write: the data file had no room for the
// record, the data or index file returned an error, or (async mode) the
// writer goroutine panicked. In Async mode the failure is latched: every
// subsequent Append returns it and the archive must be reopened. In Sync
// mode it is returned by the failing Append only and is not latched.
var ErrIo = errors.New("archive: io error, archive is closed for writing")

// ErrClosed is returned by operations on an archive after Close.
var ErrClosed = errors.New("archive: closed")
