// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package archive

import "encoding/binary"

// indexHeaderSize is the fixed 64-byte header at the front of the index
// file. Byte [0:8) holds the sequence of the first indexed record; the
// rest is reserved and zero.
const indexHeaderSize = 64

// indexRecordSize is the fixed width of one index record: sequence (8),
// offset (8), length (4), reserved (4).
const indexRecordSize = 24

// dataLengthPrefixSize is the width of the length prefix on every data
// file record.
const dataLengthPrefixSize = 4

type indexEntry struct {
	Sequence uint64
	Offset   uint64
	Length   uint32
}

func encodeIndexEntry(buf []byte, e indexEntry) {
	binary.LittleEndian.PutUint64(buf[0:8], e.Sequence)
	binary.LittleEndian.PutUint64(buf[8:16], e.Offset)
	binary.LittleEndian.PutUint32(buf[16:20], e.Length)
	binary.LittleEndian.PutUint32(buf[20:24], 0)
}

func decodeIndexEntry(buf []byte) indexEntry {
	return indexEntry{
		Sequence: binary.LittleEndian.Uint64(buf[0:8]),
		Offset:   binary.LittleEndian.Uint64(buf[8:16]),
		Length:   binary.LittleEndian.Uint32(buf[16:20]),
	}
}

func encodeIndexHeader(buf []byte, start uint64) {
	binary.LittleEndian.PutUint64(buf[0:8], start)
}

func decodeIndexHeaderStart(buf []byte) uint64 {
	return binary.LittleEndian.Uint64(buf[0:8])
}

func encodeDataRecordPrefix(buf []byte, length uint32) {
	binary.LittleEndian.PutUint32(buf, length)
}

func decodeDataRecordPrefix(buf []byte) uint32 {
	return binary.LittleEndian.Uint32(buf)
}
