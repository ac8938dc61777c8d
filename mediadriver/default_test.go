// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mediadriver

import (
	"net"
	"testing"
)

var (
	_ Driver = (*Default)(nil)
	_ Driver = (*Batched)(nil)
)

func TestDefaultRoundTrip(t *testing.T) {
	aConn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatal(err)
	}
	bConn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatal(err)
	}
	a := NewDefault(aConn)
	b := NewDefault(bConn)
	defer a.Close()
	defer b.Close()

	payload := []byte("kaos mediadriver default")
	sent, err := a.SendBatch([]Outbound{{Payload: payload, To: bConn.LocalAddr().(*net.UDPAddr)}})
	if err != nil {
		t.Fatal(err)
	}
	if sent != 1 {
		t.Fatalf("sent=%d want 1", sent)
	}

	buf := make([]byte, 1500)
	got, err := b.RecvBatch([][]byte{buf})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || string(got[0].Payload) != string(payload) {
		t.Fatalf("got %+v", got)
	}
}

func TestBatchedUnavailableFallsBackCleanly(t *testing.T) {
	aConn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatal(err)
	}
	defer aConn.Close()

	b, err := NewBatched(aConn)
	if err != nil {
		// Non-Linux platforms document unavailability via an error from
		// the constructor; that is success for this test.
		return
	}
	defer b.Close()
}
