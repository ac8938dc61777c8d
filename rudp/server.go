// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rudp

import (
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kaos-io/kaos/mediadriver"
)

// Server multiplexes many peers over a single UDP socket. Per-peer state
// is keyed by remote address in a map guarded by mu: the dispatcher
// goroutine creates peers and hands frames to them, and the heartbeat
// goroutine also reads the map, sends heartbeats and removes dead peers.
type Server struct {
	conn   *net.UDPConn
	cfg    PeerConfig
	driver mediadriver.Driver

	mu    sync.RWMutex
	peers map[string]*Peer

	Accept chan *Peer // new peers are offered here on first datagram

	logger *zap.Logger

	stop chan struct{}
	done chan struct{}
}

// Listen opens a UDP socket at localAddr and starts the dispatcher. A nil
// logger falls back to a no-op logger.
func Listen(localAddr string, cfg PeerConfig, logger *zap.Logger) (*Server, error) {
	addr, err := net.ResolveUDPAddr("udp", localAddr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	driver := cfg.Driver
	if driver == nil {
		driver = mediadriver.NewDefault(conn)
	}
	cfg.Driver = driver
	s := &Server{
		conn:   conn,
		cfg:    cfg,
		driver: driver,
		peers:  make(map[string]*Peer),
		Accept: make(chan *Peer, 64),
		logger: logger,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go s.dispatch()
	go s.heartbeatLoop()
	return s, nil
}

func (s *Server) peerFor(remote *net.UDPAddr) (*Peer, bool, error) {
	key := remote.String()
	s.mu.RLock()
	p, ok := s.peers[key]
	s.mu.RUnlock()
	if ok {
		return p, false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.peers[key]; ok {
		return p, false, nil
	}
	p, err := newPeer(s.conn, remote, s.cfg)
	if err != nil {
		return nil, false, err
	}
	s.peers[key] = p
	return p, true, nil
}

func (s *Server) dispatch() {
	defer close(s.done)
	buf := make([]byte, DefaultMTU)
	for {
		select {
		case <-s.stop:
			return
		default:
		}
		dgs, err := s.driver.RecvBatch([][]byte{buf})
		if err != nil {
			select {
			case <-s.stop:
				return
			default:
			}
			s.logger.Warn("read error", zap.Error(err))
			continue
		}
		if len(dgs) == 0 {
			continue
		}
		remote := dgs[0].From
		f, err := Decode(dgs[0].Payload)
		if err != nil {
			s.logger.Warn("decode error", zap.Stringer("remote", remote), zap.Error(err))
			continue
		}

		peer, isNew, err := s.peerFor(remote)
		if err != nil {
			s.logger.Warn("peer creation failed", zap.Stringer("remote", remote), zap.Error(err))
			continue
		}
		if isNew {
			select {
			case s.Accept <- peer:
			default:
			}
		}

		for _, herr := range peer.handleFrame(f) {
			s.logger.Info("peer frame handling", zap.Stringer("remote", remote), zap.Error(herr))
		}

		if f.Kind == KindData {
			s.replyLocked(peer)
		}
	}
}

func (s *Server) replyLocked(peer *Peer) {
	ack := peer.recv.BuildAck()
	buf := make([]byte, ack.WireLen())
	n := ack.Encode(buf)
	_, _ = s.driver.SendBatch([]mediadriver.Outbound{{Payload: buf[:n], To: peer.Remote}})

	if from, gaps, ok := peer.recv.DetectGap(); ok {
		nak := Frame{Kind: KindNak, NakFrom: from, NakGaps: gaps}
		nbuf := make([]byte, nak.WireLen())
		m := nak.Encode(nbuf)
		_, _ = s.driver.SendBatch([]mediadriver.Outbound{{Payload: nbuf[:m], To: peer.Remote}})
	}
}

func (s *Server) heartbeatLoop() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.mu.RLock()
			peers := make([]*Peer, 0, len(s.peers))
			for _, p := range s.peers {
				peers = append(peers, p)
			}
			s.mu.RUnlock()

			for _, p := range peers {
				idle := p.IdleSince()
				deadAfter := time.Duration(p.cfg.DeadMs) * time.Millisecond
				hbAfter := time.Duration(p.cfg.HeartbeatMs) * time.Millisecond
				if idle >= deadAfter {
					s.removePeer(p)
					continue
				}
				if p.send.IdleFor() >= hbAfter {
					p.send.sendHeartbeat()
				}
			}
		}
	}
}

func (s *Server) removePeer(p *Peer) {
	s.mu.Lock()
	delete(s.peers, p.Remote.String())
	s.mu.Unlock()
	p.close()
}

// Close stops the dispatcher and heartbeat loop and closes the socket.
func (s *Server) Close() error {
	close(s.stop)
	err := s.conn.Close()
	<-s.done
	s.mu.Lock()
	for _, p := range s.peers {
		p.close()
	}
	s.mu.Unlock()
	return err
}
