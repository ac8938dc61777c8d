// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build linux

package mediadriver

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// io_uring syscall numbers (x86_64, also valid on arm64 via the
// generic syscall table entry points the kernel publishes).
const (
	sysIOURingSetup    = 425
	sysIOURingEnter    = 426
	sysIOURingRegister = 427
)

// SQE opcodes this driver issues.
const (
	opSend Op = 26
	opRecv Op = 27
)

// Op is an io_uring submission queue entry opcode.
type Op uint8

const (
	ioringOffSQRing uint64 = 0
	ioringOffCQRing uint64 = 0x8000000
	ioringOffSQEs   uint64 = 0x10000000

	ioringEnterGetevents uint32 = 1 << 0

	ioringFeatSingleMMap uint32 = 1 << 0
)

// ioUringParams mirrors struct io_uring_params from <linux/io_uring.h>.
// sq_off/cq_off are filled in by the kernel on a successful setup call.
type ioUringParams struct {
	sqEntries    uint32
	cqEntries    uint32
	flags        uint32
	sqThreadCPU  uint32
	sqThreadIdle uint32
	features     uint32
	wqFd         uint32
	resv         [3]uint32
	sqOff        sqRingOffsets
	cqOff        cqRingOffsets
}

type sqRingOffsets struct {
	head, tail, ringMask, ringEntries, flags, dropped, array, resv1 uint32
	resv2                                                           uint64
}

type cqRingOffsets struct {
	head, tail, ringMask, ringEntries, overflow, cqes, flags, resv1 uint32
	resv2                                                           uint64
}

// sqe mirrors struct io_uring_sqe, the send/recv-relevant fields only;
// the kernel ABI reserves the rest, which this driver zeroes.
type sqe struct {
	opcode      Op
	flags       uint8
	ioprio      uint16
	fd          int32
	off         uint64
	addr        uint64
	len         uint32
	msgFlags    uint32
	userData    uint64
	_pad        [3]uint64
}

// cqe mirrors struct io_uring_cqe.
type cqe struct {
	userData uint64
	res      int32
	flags    uint32
}

// IOUring submits sends and receives through a submission/completion
// queue pair, amortizing the io_uring_enter syscall over a batch.
type IOUring struct {
	ringFd int
	conn   *net.UDPConn
	connFd int

	params ioUringParams

	sqRing  []byte
	cqRing  []byte
	sqes    []byte
	sqHead  *uint32
	sqTail  *uint32
	sqMask  uint32
	sqArray []uint32

	cqHead *uint32
	cqTail *uint32
	cqMask uint32
	cqes   []byte

	mu       sync.Mutex
	nextUser uint64
	pending  map[uint64]*net.UDPAddr
}

// NewIOUring sets up a ring of the given depth (rounded up to a power
// of two by the kernel) bound to conn's file descriptor.
func NewIOUring(conn *net.UDPConn, depth uint32) (*IOUring, error) {
	raw, err := conn.SyscallConn()
	if err != nil {
		return nil, err
	}
	var connFd int
	if err := raw.Control(func(f uintptr) { connFd = int(f) }); err != nil {
		return nil, err
	}

	r := &IOUring{conn: conn, connFd: connFd, pending: make(map[uint64]*net.UDPAddr)}
	ringFd, _, errno := unix.Syscall(sysIOURingSetup, uintptr(depth), uintptr(unsafe.Pointer(&r.params)), 0)
	if errno != 0 {
		return nil, fmt.Errorf("mediadriver: io_uring_setup: %w", errno)
	}
	r.ringFd = int(ringFd)

	if err := r.mapRings(); err != nil {
		unix.Close(r.ringFd)
		return nil, err
	}
	return r, nil
}

func (r *IOUring) mapRings() error {
	p := &r.params
	sqSize := p.sqOff.array + p.sqEntries*4
	cqSize := p.cqOff.cqes + p.cqEntries*uint32(unsafe.Sizeof(cqe{}))

	sqRing, err := unix.Mmap(r.ringFd, int64(ioringOffSQRing), int(sqSize),
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_POPULATE)
	if err != nil {
		return fmt.Errorf("mediadriver: mmap sq ring: %w", err)
	}
	r.sqRing = sqRing

	var cqRing []byte
	if p.features&ioringFeatSingleMMap != 0 {
		cqRing = sqRing
	} else {
		cqRing, err = unix.Mmap(r.ringFd, int64(ioringOffCQRing), int(cqSize),
			unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_POPULATE)
		if err != nil {
			return fmt.Errorf("mediadriver: mmap cq ring: %w", err)
		}
	}
	r.cqRing = cqRing

	sqes, err := unix.Mmap(r.ringFd, int64(ioringOffSQEs), int(p.sqEntries)*int(unsafe.Sizeof(sqe{})),
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_POPULATE)
	if err != nil {
		return fmt.Errorf("mediadriver: mmap sqes: %w", err)
	}
	r.sqes = sqes

	r.sqHead = (*uint32)(unsafe.Pointer(&r.sqRing[p.sqOff.head]))
	r.sqTail = (*uint32)(unsafe.Pointer(&r.sqRing[p.sqOff.tail]))
	r.sqMask = *(*uint32)(unsafe.Pointer(&r.sqRing[p.sqOff.ringMask]))
	sqArrayPtr := unsafe.Pointer(&r.sqRing[p.sqOff.array])
	r.sqArray = unsafe.Slice((*uint32)(sqArrayPtr), p.sqEntries)

	r.cqHead = (*uint32)(unsafe.Pointer(&r.cqRing[p.cqOff.head]))
	r.cqTail = (*uint32)(unsafe.Pointer(&r.cqRing[p.cqOff.tail]))
	r.cqMask = *(*uint32)(unsafe.Pointer(&r.cqRing[p.cqOff.ringMask]))
	r.cqes = r.cqRing[p.cqOff.cqes:]
	return nil
}

func (r *IOUring) sqeAt(idx uint32) *sqe {
	return (*sqe)(unsafe.Pointer(&r.sqes[idx*uint32(unsafe.Sizeof(sqe{}))]))
}

func (r *IOUring) cqeAt(idx uint32) *cqe {
	return (*cqe)(unsafe.Pointer(&r.cqes[idx*uint32(unsafe.Sizeof(cqe{}))]))
}

// SendBatch submits one SEND SQE per datagram and one io_uring_enter
// call for the whole batch, then waits for all completions. SEND carries
// no destination, so Outbound.To is not used: datagrams go to the
// socket's connected peer.
func (r *IOUring) SendBatch(datagrams []Outbound) (int, error) {
	if len(datagrams) == 0 {
		return 0, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	submitted := 0
	tail := atomic.LoadUint32(r.sqTail)
	for _, dg := range datagrams {
		idx := tail & r.sqMask
		e := r.sqeAt(idx)
		*e = sqe{}
		e.opcode = opSend
		e.fd = int32(r.connFd)
		e.addr = uint64(uintptr(unsafe.Pointer(&dg.Payload[0])))
		e.len = uint32(len(dg.Payload))
		e.userData = r.nextUser
		r.pending[r.nextUser] = dg.To
		r.nextUser++
		r.sqArray[idx] = idx
		tail++
		submitted++
	}
	atomic.StoreUint32(r.sqTail, tail)

	_, _, errno := unix.Syscall6(sysIOURingEnter, uintptr(r.ringFd),
		uintptr(submitted), uintptr(submitted), uintptr(ioringEnterGetevents), 0, 0)
	if errno != 0 {
		return 0, fmt.Errorf("mediadriver: io_uring_enter: %w", errno)
	}
	r.reapCompletions(submitted)
	return submitted, nil
}

// RecvBatch submits one RECV SQE per buffer and waits for completions,
// mapping each back to a Datagram. RECV reports no source address, so
// each Datagram's From is nil.
func (r *IOUring) RecvBatch(bufs [][]byte) ([]Datagram, error) {
	if len(bufs) == 0 {
		return nil, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	tail := atomic.LoadUint32(r.sqTail)
	userToBuf := make(map[uint64][]byte, len(bufs))
	for _, buf := range bufs {
		idx := tail & r.sqMask
		e := r.sqeAt(idx)
		*e = sqe{}
		e.opcode = opRecv
		e.fd = int32(r.connFd)
		e.addr = uint64(uintptr(unsafe.Pointer(&buf[0])))
		e.len = uint32(len(buf))
		e.userData = r.nextUser
		userToBuf[r.nextUser] = buf
		r.nextUser++
		r.sqArray[idx] = idx
		tail++
	}
	atomic.StoreUint32(r.sqTail, tail)

	_, _, errno := unix.Syscall6(sysIOURingEnter, uintptr(r.ringFd),
		uintptr(len(bufs)), uintptr(len(bufs)), uintptr(ioringEnterGetevents), 0, 0)
	if errno != 0 {
		return nil, fmt.Errorf("mediadriver: io_uring_enter: %w", errno)
	}

	out := make([]Datagram, 0, len(bufs))
	head := atomic.LoadUint32(r.cqHead)
	tailC := atomic.LoadUint32(r.cqTail)
	for head != tailC {
		c := r.cqeAt(head & r.cqMask)
		if buf, ok := userToBuf[c.userData]; ok && c.res >= 0 {
			out = append(out, Datagram{Payload: buf[:c.res]})
		}
		head++
	}
	atomic.StoreUint32(r.cqHead, head)
	return out, nil
}

// reapCompletions drains n completions without interpreting them,
// used after a send batch where we only need the ring slots freed.
func (r *IOUring) reapCompletions(n int) {
	head := atomic.LoadUint32(r.cqHead)
	tail := atomic.LoadUint32(r.cqTail)
	for i := 0; i < n && head != tail; i++ {
		delete(r.pending, r.cqeAt(head&r.cqMask).userData)
		head++
	}
	atomic.StoreUint32(r.cqHead, head)
}

func (r *IOUring) Close() error {
	unix.Munmap(r.sqes)
	if r.params.features&ioringFeatSingleMMap == 0 {
		unix.Munmap(r.cqRing)
	}
	unix.Munmap(r.sqRing)
	unix.Close(r.ringFd)
	return r.conn.Close()
}
