// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mediadriver

import "net"

// AFXDP would bind an AF_XDP socket to a UMEM region and exchange
// frames directly with the NIC driver's RX/TX rings, bypassing the
// kernel network stack entirely. That requires a NIC and driver with
// native (or generic) XDP support, CAP_NET_ADMIN, and a UMEM memory
// layout this package has no way to validate without the target
// hardware in hand, so it is left as a documented stub rather than a
// guessed-at implementation.
type AFXDP struct{}

// NewAFXDP always fails; construct Batched or IOUring instead.
func NewAFXDP(_ *net.UDPConn) (*AFXDP, error) {
	return nil, errUnsupported
}

func (x *AFXDP) SendBatch(datagrams []Outbound) (int, error) { return 0, errUnsupported }
func (x *AFXDP) RecvBatch(bufs [][]byte) ([]Datagram, error) { return nil, errUnsupported }
func (x *AFXDP) Close() error                                { return errUnsupported }
