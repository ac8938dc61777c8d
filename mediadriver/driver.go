// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mediadriver

import "net"

// Datagram is one received payload plus its source address.
type Datagram struct {
	Payload []byte
	From    *net.UDPAddr
}

// Outbound is one datagram queued for SendBatch.
type Outbound struct {
	Payload []byte
	To      *net.UDPAddr
}

// Driver is the abstract I/O plane interface every variant implements.
type Driver interface {
	// SendBatch transmits as many of datagrams as the driver can in one
	// pass and returns how many were actually sent.
	SendBatch(datagrams []Outbound) (sent int, err error)
	// RecvBatch reads up to len(bufs) datagrams, writing each payload
	// into the corresponding buf.
	RecvBatch(bufs [][]byte) ([]Datagram, error)
	Close() error
}
