// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rudp

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kaos-io/kaos/archive"
	"github.com/kaos-io/kaos/mediadriver"
)

const (
	// DefaultHeartbeatInterval is how long a peer may stay idle before
	// emitting a HEARTBEAT.
	DefaultHeartbeatInterval = 500 * time.Millisecond
	// DefaultDeadTimeout is how long with no frame at all before a peer
	// is declared dead.
	DefaultDeadTimeout = 10 * time.Second
)

// PeerConfig configures a Peer at construction, per §6.5.
type PeerConfig struct {
	WindowSize   int
	InitialCwnd  float64
	HeartbeatMs  int
	DeadMs       int
	ArchivePath  string
	ArchiveBytes int64

	// Driver overrides the I/O plane used for this peer's socket writes.
	// Nil defaults to mediadriver.NewDefault wrapping the peer's conn.
	Driver mediadriver.Driver
}

func (c *PeerConfig) setDefaults() {
	if c.WindowSize <= 0 {
		c.WindowSize = 1024
	}
	if c.InitialCwnd <= 0 {
		c.InitialCwnd = 16
	}
	if c.HeartbeatMs <= 0 {
		c.HeartbeatMs = int(DefaultHeartbeatInterval / time.Millisecond)
	}
	if c.DeadMs <= 0 {
		c.DeadMs = int(DefaultDeadTimeout / time.Millisecond)
	}
}

// Peer is one remote endpoint's reliable-UDP state: a sender, a
// receiver, and heartbeat bookkeeping.
type Peer struct {
	Remote *net.UDPAddr

	send *sender
	recv *receiver

	cfg PeerConfig

	lastSeen atomic.Int64 // unix nanos
	dead     atomic.Bool

	arch *archive.Archive

	mu sync.Mutex
}

func newPeer(conn *net.UDPConn, remote *net.UDPAddr, cfg PeerConfig) (*Peer, error) {
	cfg.setDefaults()

	var arch *archive.Archive
	if cfg.ArchivePath != "" {
		a, err := archive.Open(archive.Options{Path: cfg.ArchivePath, MaxBytes: cfg.ArchiveBytes, Mode: archive.Sync})
		if err != nil {
			return nil, err
		}
		arch = a
	}

	send := newSender(cfg.WindowSize, cfg.InitialCwnd, conn, remote, arch)
	if cfg.Driver != nil {
		send.driver = cfg.Driver
	}

	p := &Peer{
		Remote: remote,
		send:   send,
		recv:   newReceiver(cfg.WindowSize * 4),
		cfg:    cfg,
		arch:   arch,
	}
	p.touch()
	return p, nil
}

func (p *Peer) touch() { p.lastSeen.Store(time.Now().UnixNano()) }

// IsDead reports whether the peer has been torn down by heartbeat timeout.
func (p *Peer) IsDead() bool { return p.dead.Load() }

// IdleSince returns how long it has been since any frame was seen from
// this peer.
func (p *Peer) IdleSince() time.Duration {
	return time.Since(time.Unix(0, p.lastSeen.Load()))
}

// Send assigns a sequence, stores it in the send window, mirrors to the
// archive if configured, and transmits. Returns ErrPeerDead once the
// peer has been torn down.
func (p *Peer) Send(payload []byte) (uint64, error) {
	if p.IsDead() {
		return 0, ErrPeerDead
	}
	return p.send.Send(payload)
}

// Deliver returns the next application payload delivered in sequence
// order, if any.
func (p *Peer) Deliver() ([]byte, bool) { return p.recv.Deliver() }

// Delivered returns the receiver's current watermark.
func (p *Peer) Delivered() uint64 { return p.recv.Delivered() }

func (p *Peer) handleFrame(f Frame) []error {
	if p.IsDead() {
		return []error{ErrPeerDead}
	}
	p.touch()
	switch f.Kind {
	case KindData:
		res := p.recv.OnData(f.Sequence, f.Payload)
		if res.outOfWindow {
			return []error{&UnrecoverableError{Sequence: p.recv.Delivered() + 1}}
		}
		return nil
	case KindAck:
		p.send.OnAck(f.Ack)
		return nil
	case KindNak:
		return p.send.OnNak(f.NakFrom, f.NakGaps)
	case KindHeartbeat:
		return nil
	}
	return nil
}

func (p *Peer) close() {
	p.dead.Store(true)
	if p.arch != nil {
		p.arch.Close()
	}
}
