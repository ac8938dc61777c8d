// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ring

import "code.hybscloud.com/iox"

// ErrFull indicates a claim would overrun the slowest consumer. The
// caller should retry or back off; it is not a failure.
//
// This is an alias of [iox.ErrWouldBlock] for ecosystem consistency with
// other Kaos packages built on the same queue primitives.
var ErrFull = iox.ErrWouldBlock

// ErrEmpty indicates there is no new data to consume. Like ErrFull, it is
// a control-flow signal rather than a failure.
var ErrEmpty = iox.ErrWouldBlock

// IsWouldBlock reports whether err is ErrFull or ErrEmpty.
func IsWouldBlock(err error) bool {
	return iox.IsWouldBlock(err)
}
