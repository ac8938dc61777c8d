// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build !linux

package mediadriver

import (
	"fmt"
	"net"
	"runtime"
)

// Batched is unavailable off Linux; NewBatched always fails so callers
// fall back to Default.
type Batched struct{}

func NewBatched(conn *net.UDPConn) (*Batched, error) {
	return nil, fmt.Errorf("mediadriver: batched syscalls not available on %s", runtime.GOOS)
}

func (b *Batched) SendBatch(datagrams []Outbound) (int, error) { return 0, errUnsupported }
func (b *Batched) RecvBatch(bufs [][]byte) ([]Datagram, error) { return nil, errUnsupported }
func (b *Batched) Close() error                                { return errUnsupported }
