// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rudp

import (
	"errors"
	"fmt"
)

// ErrWouldBlock is returned by Send when in-flight frames have reached
// the congestion window.
var ErrWouldBlock = errors.New("rudp: would block: in-flight at congestion window")

// ErrSendWindowFull is returned by Send when the send ring itself has
// no free slot because the slowest-acknowledged frame has not been
// freed yet.
var ErrSendWindowFull = errors.New("rudp: send window full")

// ErrPeerDead is returned for operations on a peer torn down by
// heartbeat timeout.
var ErrPeerDead = errors.New("rudp: peer dead")

// UnrecoverableError reports a NAK that could be serviced from neither
// the send window nor the archive. The connection remains usable for
// future sequences.
type UnrecoverableError struct {
	Sequence uint64
}

func (e *UnrecoverableError) Error() string {
	return fmt.Sprintf("rudp: sequence %d unrecoverable: evicted from window and archive", e.Sequence)
}
