// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build linux

package mediadriver

import (
	"net"
	"unsafe"

	"golang.org/x/sys/unix"
)

// MaxBatch is the default ceiling on datagrams per sendmmsg/recvmmsg call.
const MaxBatch = 64

// Batched amortizes the socket syscall over up to MaxBatch datagrams per
// call via sendmmsg(2)/recvmmsg(2).
type Batched struct {
	conn *net.UDPConn
	fd   int
}

// NewBatched wraps a UDP connection for batched syscalls. The caller
// keeps ownership of conn for anything not routed through this driver.
func NewBatched(conn *net.UDPConn) (*Batched, error) {
	raw, err := conn.SyscallConn()
	if err != nil {
		return nil, err
	}
	var fd int
	if err := raw.Control(func(f uintptr) { fd = int(f) }); err != nil {
		return nil, err
	}
	return &Batched{conn: conn, fd: fd}, nil
}

func (b *Batched) SendBatch(datagrams []Outbound) (int, error) {
	if len(datagrams) == 0 {
		return 0, nil
	}
	n := len(datagrams)
	if n > MaxBatch {
		n = MaxBatch
	}
	hs := make([]unix.Mmsghdr, n)
	iovs := make([]unix.Iovec, n)
	sas := make([]unix.RawSockaddrInet6, n)

	for i := 0; i < n; i++ {
		setSockaddr(&sas[i], datagrams[i].To)
		iovs[i].Base = &datagrams[i].Payload[0]
		iovs[i].SetLen(len(datagrams[i].Payload))
		hs[i].Hdr.Iov = &iovs[i]
		hs[i].Hdr.Iovlen = 1
		hs[i].Hdr.Name = (*byte)(unsafe.Pointer(&sas[i]))
		hs[i].Hdr.Namelen = uint32(unsafe.Sizeof(sas[i]))
	}

	sent, err := unix.Sendmmsg(b.fd, hs, 0)
	if err != nil {
		return sent, err
	}
	return sent, nil
}

func (b *Batched) RecvBatch(bufs [][]byte) ([]Datagram, error) {
	if len(bufs) == 0 {
		return nil, nil
	}
	n := len(bufs)
	if n > MaxBatch {
		n = MaxBatch
	}
	hs := make([]unix.Mmsghdr, n)
	iovs := make([]unix.Iovec, n)
	sas := make([]unix.RawSockaddrInet6, n)

	for i := 0; i < n; i++ {
		iovs[i].Base = &bufs[i][0]
		iovs[i].SetLen(len(bufs[i]))
		hs[i].Hdr.Iov = &iovs[i]
		hs[i].Hdr.Iovlen = 1
		hs[i].Hdr.Name = (*byte)(unsafe.Pointer(&sas[i]))
		hs[i].Hdr.Namelen = uint32(unsafe.Sizeof(sas[i]))
	}

	got, err := unix.Recvmmsg(b.fd, hs, 0, nil)
	if err != nil && got == 0 {
		return nil, err
	}
	out := make([]Datagram, got)
	for i := 0; i < got; i++ {
		from := sockaddrToUDP(&sas[i])
		out[i] = Datagram{Payload: bufs[i][:hs[i].Len], From: from}
	}
	return out, nil
}

func (b *Batched) Close() error { return b.conn.Close() }

func setSockaddr(sa *unix.RawSockaddrInet6, addr *net.UDPAddr) {
	sa.Family = unix.AF_INET6
	sa.Port = htons(uint16(addr.Port))
	ip := addr.IP.To16()
	copy(sa.Addr[:], ip)
}

func sockaddrToUDP(sa *unix.RawSockaddrInet6) *net.UDPAddr {
	ip := make(net.IP, 16)
	copy(ip, sa.Addr[:])
	return &net.UDPAddr{IP: ip, Port: int(ntohs(sa.Port))}
}

func htons(v uint16) uint16 { return v<<8 | v>>8 }
func ntohs(v uint16) uint16 { return v<<8 | v>>8 }
