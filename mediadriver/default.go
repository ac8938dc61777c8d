// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mediadriver

import "net"

// Default is one syscall per datagram, via the standard library's
// *net.UDPConn. It is the portable baseline every other variant is
// measured against.
type Default struct {
	conn *net.UDPConn
}

// NewDefault wraps an already-bound UDP connection.
func NewDefault(conn *net.UDPConn) *Default {
	return &Default{conn: conn}
}

func (d *Default) SendBatch(datagrams []Outbound) (int, error) {
	sent := 0
	for _, dg := range datagrams {
		if _, err := d.conn.WriteToUDP(dg.Payload, dg.To); err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}

// RecvBatch reads a single datagram: Default does not batch, one
// syscall per datagram is the point of this variant.
func (d *Default) RecvBatch(bufs [][]byte) ([]Datagram, error) {
	if len(bufs) == 0 {
		return nil, nil
	}
	n, from, err := d.conn.ReadFromUDP(bufs[0])
	if err != nil {
		return nil, err
	}
	return []Datagram{{Payload: bufs[0][:n], From: from}}, nil
}

func (d *Default) Close() error { return d.conn.Close() }
