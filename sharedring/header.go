// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sharedring

import (
	"encoding/binary"
	"fmt"
)

// Magic identifies a kaos shared ring buffer file. Spelled out it reads
// "KAOSRHBN"; a compatible reimplementation is free to pick its own as
// long as peers agree, but this is the one this package writes and checks.
const Magic uint64 = 0x4B414F535248424E

// Version is the on-disk layout version this package reads and writes.
const Version uint32 = 1

const (
	offMagic     = 0
	offVersion   = 8
	offFlags     = 12
	offCapacity  = 16
	offSlotSize  = 24
	offReserved  = 32
	offProducer  = 128
	offConsumer  = 192
	offExtra     = 256
	offSlotArray = 512

	cursorLineSize = 64
)

// header is the parsed view of the first 512 bytes of a shared ring
// buffer file; bytes 512 onward are the slot array.
type header struct {
	Magic    uint64
	Version  uint32
	Flags    uint32
	Capacity uint64
	SlotSize uint64
}

func (h header) encode(buf []byte) {
	binary.LittleEndian.PutUint64(buf[offMagic:], h.Magic)
	binary.LittleEndian.PutUint32(buf[offVersion:], h.Version)
	binary.LittleEndian.PutUint32(buf[offFlags:], h.Flags)
	binary.LittleEndian.PutUint64(buf[offCapacity:], h.Capacity)
	binary.LittleEndian.PutUint64(buf[offSlotSize:], h.SlotSize)
}

func decodeHeader(buf []byte) header {
	return header{
		Magic:    binary.LittleEndian.Uint64(buf[offMagic:]),
		Version:  binary.LittleEndian.Uint32(buf[offVersion:]),
		Flags:    binary.LittleEndian.Uint32(buf[offFlags:]),
		Capacity: binary.LittleEndian.Uint64(buf[offCapacity:]),
		SlotSize: binary.LittleEndian.Uint64(buf[offSlotSize:]),
	}
}

func (h header) validate(wantSlotSize uint64) error {
	if h.Magic != Magic {
		return fmt.Errorf("sharedring: bad magic %#x, want %#x", h.Magic, Magic)
	}
	if h.Version != Version {
		return fmt.Errorf("sharedring: incompatible version %d, want %d", h.Version, Version)
	}
	if h.Capacity == 0 || h.Capacity&(h.Capacity-1) != 0 {
		return fmt.Errorf("sharedring: capacity %d is not a power of two", h.Capacity)
	}
	if h.SlotSize != wantSlotSize {
		return fmt.Errorf("sharedring: slot size %d on disk, %d requested", h.SlotSize, wantSlotSize)
	}
	return nil
}

func fileSize(capacity, slotSize uint64) int64 {
	return int64(offSlotArray) + int64(capacity*slotSize)
}
