// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rudp

import (
	"bytes"
	"testing"
)

func TestFrameEncodeDecodeData(t *testing.T) {
	f := Frame{Sequence: 42, Kind: KindData, Payload: []byte("hello")}
	buf := make([]byte, f.WireLen())
	n := f.Encode(buf)
	if n != f.WireLen() {
		t.Fatalf("Encode: wrote %d bytes, want %d", n, f.WireLen())
	}

	got, err := Decode(buf[:n])
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Sequence != 42 || got.Kind != KindData || !bytes.Equal(got.Payload, []byte("hello")) {
		t.Fatalf("Decode: got %+v", got)
	}
}

func TestFrameEncodeDecodeAck(t *testing.T) {
	f := Frame{Sequence: 7, Kind: KindAck, Ack: 1000}
	buf := make([]byte, f.WireLen())
	n := f.Encode(buf)
	got, err := Decode(buf[:n])
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Kind != KindAck || got.Ack != 1000 {
		t.Fatalf("Decode ACK: got %+v", got)
	}
}

func TestFrameEncodeDecodeNak(t *testing.T) {
	f := Frame{Sequence: 7, Kind: KindNak, NakFrom: 55, NakGaps: 0b1011}
	buf := make([]byte, f.WireLen())
	n := f.Encode(buf)
	got, err := Decode(buf[:n])
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Kind != KindNak || got.NakFrom != 55 || got.NakGaps != 0b1011 {
		t.Fatalf("Decode NAK: got %+v", got)
	}
}

func TestFrameDecodeTruncated(t *testing.T) {
	f := Frame{Sequence: 1, Kind: KindData, Payload: []byte("abcdef")}
	buf := make([]byte, f.WireLen())
	f.Encode(buf)
	if _, err := Decode(buf[:HeaderSize+2]); err == nil {
		t.Fatal("Decode truncated frame: got nil error")
	}
}
