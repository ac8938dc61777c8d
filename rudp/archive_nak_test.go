// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rudp

import (
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/kaos-io/kaos/archive"
)

func TestNAKServicedFromArchiveAfterWindowWrap(t *testing.T) {
	senderConn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("ListenUDP sender: %v", err)
	}
	defer senderConn.Close()
	collectorConn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("ListenUDP collector: %v", err)
	}
	defer collectorConn.Close()
	collectorAddr := collectorConn.LocalAddr().(*net.UDPAddr)

	arch, err := archive.Open(archive.Options{Path: t.TempDir(), Mode: archive.Sync})
	if err != nil {
		t.Fatalf("archive.Open: %v", err)
	}
	defer arch.Close()

	s := newSender(1024, 1<<20, senderConn, collectorAddr, arch)

	const upTo = 50_000
	for i := 0; i < upTo; i++ {
		payload := []byte(fmt.Sprintf("p%d", i))
		for {
			if _, err := s.Send(payload); err == nil {
				break
			}
			// Free the window as we go, as a real ACK stream would.
			s.OnAck(uint64(i) - 1)
		}
	}

	// Drain the original transmissions so that only the retransmission
	// can satisfy the check below.
	drain := make([]byte, DefaultMTU)
	for {
		collectorConn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
		if _, _, err := collectorConn.ReadFromUDP(drain); err != nil {
			break
		}
	}

	// Sequence 5 is long gone from the 1024-entry window by now.
	errs := s.OnNak(5, 0)
	for _, e := range errs {
		t.Fatalf("OnNak(5): unexpected error %v (archive should have served it)", e)
	}

	collectorConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, DefaultMTU)
	var found bool
	for i := 0; i < 100; i++ {
		n, _, err := collectorConn.ReadFromUDP(buf)
		if err != nil {
			break
		}
		f, err := Decode(buf[:n])
		if err != nil {
			continue
		}
		if f.Kind == KindData && f.Sequence == 5 {
			if string(f.Payload) != "p5" {
				t.Fatalf("retransmitted seq 5 payload: got %q, want %q", f.Payload, "p5")
			}
			found = true
			break
		}
	}
	if !found {
		t.Fatal("did not observe a retransmission of sequence 5 on the wire")
	}
}

func TestNAKUnrecoverableBeyondArchiveHorizon(t *testing.T) {
	senderConn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("ListenUDP: %v", err)
	}
	defer senderConn.Close()
	remote := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 1}

	s := newSender(8, 1<<20, senderConn, remote, nil) // no archive configured

	for i := 0; i < 100; i++ {
		payload := []byte{byte(i)}
		for {
			if _, err := s.Send(payload); err == nil {
				break
			}
			s.OnAck(uint64(i) - 1)
		}
	}

	errs := s.OnNak(0, 0)
	if len(errs) == 0 {
		t.Fatal("OnNak for an evicted, unarchived sequence: got no error, want UnrecoverableError")
	}
	if _, ok := errs[0].(*UnrecoverableError); !ok {
		t.Fatalf("OnNak error type: got %T, want *UnrecoverableError", errs[0])
	}
}
