// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rudp

import (
	"net"
	"sync"
	"time"

	"github.com/kaos-io/kaos/archive"
	"github.com/kaos-io/kaos/mediadriver"
	"github.com/kaos-io/kaos/ring"
)

type frameSlot struct {
	seq     uint64
	payload []byte
	sentAt  time.Time
}

// sender is the per-peer outbound half. The send window is a
// [ring.SPSC] of unacknowledged frames: the peer's own Send calls are
// the sole producer (serialized by mu for concurrent callers), ACK
// processing is the sole consumer.
type sender struct {
	mu sync.Mutex

	window   *ring.SPSC[frameSlot]
	nextSeq  uint64
	inFlight int64

	cc *aimd

	archive *archive.Archive

	conn   *net.UDPConn
	remote *net.UDPAddr
	driver mediadriver.Driver

	lastSent time.Time
}

func newSender(windowSize int, initialCwnd float64, conn *net.UDPConn, remote *net.UDPAddr, arch *archive.Archive) *sender {
	return &sender{
		window:  ring.NewSPSC[frameSlot](windowSize),
		cc:      newAIMD(initialCwnd),
		conn:    conn,
		remote:  remote,
		archive: arch,
		driver:  mediadriver.NewDefault(conn),
	}
}

// Send assigns the next sequence, stores the frame in the send window,
// optionally mirrors it to the archive, and transmits it.
func (s *sender) Send(payload []byte) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inFlight >= int64(s.cc.window()) {
		return 0, ErrWouldBlock
	}
	seq, slots, ok := s.window.TryClaim(1)
	if !ok {
		return 0, ErrSendWindowFull
	}
	buf := make([]byte, len(payload))
	copy(buf, payload)
	slots[0] = frameSlot{seq: seq, payload: buf, sentAt: time.Now()}
	s.window.Publish(seq + 1)

	if s.archive != nil {
		_, _ = s.archive.Append(buf)
	}

	s.transmitLocked(seq, buf)
	s.inFlight++
	s.nextSeq = seq + 1
	s.lastSent = time.Now()
	return seq, nil
}

func (s *sender) transmitLocked(seq uint64, payload []byte) {
	f := Frame{Sequence: seq, Kind: KindData, Payload: payload}
	buf := make([]byte, f.WireLen())
	n := f.Encode(buf)
	_, _ = s.driver.SendBatch([]mediadriver.Outbound{{Payload: buf[:n], To: s.remote}})
}

// OnAck frees all send-ring slots through ack and additively increases
// the congestion window.
func (s *sender) OnAck(ack uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.window.Consumed()
	newWatermark := ack + 1
	if newWatermark <= prev {
		return
	}
	if claimed := s.nextSeq; newWatermark > claimed {
		newWatermark = claimed
	}
	freed := newWatermark - prev
	s.window.UpdateConsumer(newWatermark)
	s.inFlight -= int64(freed)
	if s.inFlight < 0 {
		s.inFlight = 0
	}
	s.cc.onAck()
}

// OnNak retransmits the NAKed sequence and any of the following 32 gap
// bits that are actually missing, falling back to the archive once a
// sequence has been evicted from the send window, and reporting
// UnrecoverableError when neither source has it.
func (s *sender) OnNak(from uint64, gaps uint32) []error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cc.onLoss()

	var errs []error
	retransmit := func(seq uint64) {
		if err := s.retransmitLocked(seq); err != nil {
			errs = append(errs, err)
		}
	}
	retransmit(from)
	for i := 0; i < 32; i++ {
		if gaps&(1<<uint(i)) != 0 {
			retransmit(from + uint64(i) + 1)
		}
	}
	return errs
}

func (s *sender) retransmitLocked(seq uint64) error {
	consumed := s.window.Consumed()
	published := s.window.Published()
	if seq >= consumed && seq < published {
		slot := s.window.Slot(seq)
		s.transmitLocked(seq, slot.payload)
		return nil
	}
	if s.archive != nil {
		if payload, err := s.archive.Read(seq); err == nil {
			s.transmitLocked(seq, payload)
			return nil
		}
	}
	return &UnrecoverableError{Sequence: seq}
}

// IdleFor reports how long it has been since the last transmission.
func (s *sender) IdleFor() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastSent.IsZero() {
		return 0
	}
	return time.Since(s.lastSent)
}

func (s *sender) sendHeartbeat() {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := Frame{Kind: KindHeartbeat}
	buf := make([]byte, f.WireLen())
	n := f.Encode(buf)
	_, _ = s.driver.SendBatch([]mediadriver.Outbound{{Payload: buf[:n], To: s.remote}})
	s.lastSent = time.Now()
}
