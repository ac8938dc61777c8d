// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package rudp layers a reliable, ordered transport over UDP: sequenced
// datagrams, NAK/ACK, a bitmap receive window, and AIMD congestion
// control. Per-peer send state is a ring buffer of unacknowledged
// frames (see [github.com/kaos-io/kaos/ring]); retransmission past the
// send window falls back to an optional [github.com/kaos-io/kaos/archive].
//
// A Server multiplexes many peers over one socket; per-peer state is
// created on first datagram and torn down on explicit close or
// heartbeat timeout.
package rudp
