// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sys/unix"
)

// Archive is an append-only, mmap-backed log with a sequence→offset
// index. Use Open with Mode set to Sync or Async.
type Archive struct {
	opts Options

	dataFile  *os.File
	dataMap   []byte // mmap'd once at Open, sized to opts.MaxBytes; never remapped
	indexFile *os.File

	mu         sync.Mutex
	index      []indexEntry // index[i] corresponds to sequence indexStart+i
	indexStart uint64
	nextSeq    uint64
	dataLen    int64 // next write offset into dataMap

	recovered int

	async *asyncState

	closed bool
}

// Recovered reports how many index entries Open had to rebuild from the
// data file tail because the index lagged behind it (e.g. a crash
// between a data write and its index update).
func (a *Archive) Recovered() int { return a.recovered }

// Open creates or opens the archive at opts.Path.
func Open(opts Options) (*Archive, error) {
	opts.setDefaults()
	if err := os.MkdirAll(opts.Path, 0755); err != nil {
		return nil, fmt.Errorf("archive: mkdir %s: %w", opts.Path, err)
	}

	dataFile, err := os.OpenFile(filepath.Join(opts.Path, "data"), os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("archive: open data file: %w", err)
	}
	fi, err := dataFile.Stat()
	if err != nil {
		dataFile.Close()
		return nil, err
	}
	dataLen := fi.Size()
	if dataLen < opts.MaxBytes {
		if err := dataFile.Truncate(opts.MaxBytes); err != nil {
			dataFile.Close()
			return nil, fmt.Errorf("archive: truncate data file: %w", err)
		}
	} else if dataLen > opts.MaxBytes {
		dataFile.Close()
		return nil, fmt.Errorf("archive: existing data file %d bytes exceeds MaxBytes %d", dataLen, opts.MaxBytes)
	}

	dataMap, err := unix.Mmap(int(dataFile.Fd()), 0, int(opts.MaxBytes), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		dataFile.Close()
		return nil, fmt.Errorf("archive: mmap data file: %w", err)
	}

	indexFile, err := os.OpenFile(filepath.Join(opts.Path, "index"), os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		unix.Munmap(dataMap)
		dataFile.Close()
		return nil, fmt.Errorf("archive: open index file: %w", err)
	}
	indexStart, entries, err := loadIndex(indexFile)
	if err != nil {
		indexFile.Close()
		unix.Munmap(dataMap)
		dataFile.Close()
		return nil, err
	}

	a := &Archive{
		opts:       opts,
		dataFile:   dataFile,
		dataMap:    dataMap,
		indexFile:  indexFile,
		index:      entries,
		indexStart: indexStart,
	}
	if len(entries) == 0 {
		a.dataLen = 0
		a.nextSeq = indexStart
	} else {
		last := entries[len(entries)-1]
		a.dataLen = int64(last.Offset) + dataLengthPrefixSize + int64(last.Length)
		a.nextSeq = last.Sequence + 1
	}

	if err := a.recoverTail(); err != nil {
		a.Close()
		return nil, err
	}

	if opts.Mode == Async {
		a.async = newAsyncState(&opts)
		go a.runWriter()
	}

	return a, nil
}

// recoverTail scans forward from the end of the current index, rebuilding
// any index entries the data file implies but the index is missing. It
// stops at the first truncated or malformed record, which is the honest
// signature of a crash mid-write.
func (a *Archive) recoverTail() error {
	off := a.dataLen
	seq := a.nextSeq
	var recovered []indexEntry
	for {
		if off+dataLengthPrefixSize > a.opts.MaxBytes {
			break
		}
		length := decodeDataRecordPrefix(a.dataMap[off : off+dataLengthPrefixSize])
		if length == 0 {
			break // unwritten tail: a zero length prefix means "not yet written"
		}
		end := off + dataLengthPrefixSize + int64(length)
		if end > a.opts.MaxBytes {
			break // truncated: declared length runs past the mapping
		}
		recovered = append(recovered, indexEntry{Sequence: seq, Offset: uint64(off), Length: length})
		off = end
		seq++
	}
	if len(recovered) == 0 {
		return nil
	}
	a.index = append(a.index, recovered...)
	a.dataLen = off
	a.nextSeq = seq
	a.recovered = len(recovered)
	return a.persistIndexFrom(len(a.index) - len(recovered))
}

func loadIndex(f *os.File) (start uint64, entries []indexEntry, err error) {
	fi, err := f.Stat()
	if err != nil {
		return 0, nil, err
	}
	if fi.Size() == 0 {
		buf := make([]byte, indexHeaderSize)
		encodeIndexHeader(buf, 0)
		if _, err := f.WriteAt(buf, 0); err != nil {
			return 0, nil, err
		}
		return 0, nil, nil
	}
	header := make([]byte, indexHeaderSize)
	if _, err := f.ReadAt(header, 0); err != nil {
		return 0, nil, fmt.Errorf("archive: read index header: %w", err)
	}
	start = decodeIndexHeaderStart(header)

	n := (fi.Size() - indexHeaderSize) / indexRecordSize
	if n <= 0 {
		return start, nil, nil
	}
	buf := make([]byte, n*indexRecordSize)
	if _, err := f.ReadAt(buf, indexHeaderSize); err != nil {
		return 0, nil, fmt.Errorf("archive: read index records: %w", err)
	}
	entries = make([]indexEntry, n)
	for i := range entries {
		entries[i] = decodeIndexEntry(buf[i*indexRecordSize : (i+1)*indexRecordSize])
	}
	return start, entries, nil
}

// persistIndexFrom writes index[from:] to the index file and fsyncs it.
func (a *Archive) persistIndexFrom(from int) error {
	n := len(a.index) - from
	if n <= 0 {
		return nil
	}
	buf := make([]byte, n*indexRecordSize)
	for i, e := range a.index[from:] {
		encodeIndexEntry(buf[i*indexRecordSize:(i+1)*indexRecordSize], e)
	}
	off := indexHeaderSize + int64(from)*indexRecordSize
	if _, err := a.indexFile.WriteAt(buf, off); err != nil {
		return fmt.Errorf("archive: write index: %w", err)
	}
	return a.indexFile.Sync()
}

// Append persists payload and returns its assigned sequence. In Sync
// mode it does not return until the write is durable; in Async mode it
// enqueues and returns once the internal ring accepts it.
func (a *Archive) Append(payload []byte) (uint64, error) {
	if a.opts.Mode == Async {
		return a.appendAsync(payload)
	}
	return a.appendSync(payload)
}

func (a *Archive) appendSync(payload []byte) (uint64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return 0, ErrClosed
	}
	seq, err := a.writeRecordLocked(payload)
	if err != nil {
		return 0, err
	}
	if err := msyncData(a); err != nil {
		return 0, err
	}
	if err := a.persistIndexFrom(len(a.index) - 1); err != nil {
		return 0, err
	}
	return seq, nil
}

// msyncData flushes the data mapping to disk. Caller holds a.mu.
func msyncData(a *Archive) error {
	if err := unix.Msync(a.dataMap, unix.MS_SYNC); err != nil {
		return fmt.Errorf("archive: msync data: %w", err)
	}
	return nil
}

// writeRecordLocked writes payload into the mapping at the current
// offset and appends the in-memory index entry. Caller holds a.mu.
func (a *Archive) writeRecordLocked(payload []byte) (uint64, error) {
	need := a.dataLen + dataLengthPrefixSize + int64(len(payload))
	if need > a.opts.MaxBytes {
		return 0, fmt.Errorf("%w: archive full (max %d bytes)", ErrIo, a.opts.MaxBytes)
	}
	off := a.dataLen
	encodeDataRecordPrefix(a.dataMap[off:off+dataLengthPrefixSize], uint32(len(payload)))
	copy(a.dataMap[off+dataLengthPrefixSize:], payload)

	seq := a.nextSeq
	a.index = append(a.index, indexEntry{Sequence: seq, Offset: uint64(off), Length: uint32(len(payload))})
	a.dataLen = need
	a.nextSeq++
	return seq, nil
}

// Read returns a zero-copy slice into the mapping for the record at seq.
func (a *Archive) Read(seq uint64) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if seq < a.indexStart || seq >= a.indexStart+uint64(len(a.index)) {
		return nil, ErrNotArchived
	}
	e := a.index[seq-a.indexStart]
	start := int64(e.Offset) + dataLengthPrefixSize
	return a.dataMap[start : start+int64(e.Length) : start+int64(e.Length)], nil
}

// Replay walks the index between [from, to) in ascending sequence order,
// invoking fn with each entry's payload.
func (a *Archive) Replay(from, to uint64, fn func(seq uint64, payload []byte) error) error {
	a.mu.Lock()
	lo := from
	if lo < a.indexStart {
		lo = a.indexStart
	}
	hi := to
	if max := a.indexStart + uint64(len(a.index)); hi > max {
		hi = max
	}
	entries := make([]indexEntry, 0, hi-lo)
	for s := lo; s < hi; s++ {
		entries = append(entries, a.index[s-a.indexStart])
	}
	dataMap := a.dataMap
	a.mu.Unlock()

	for _, e := range entries {
		start := int64(e.Offset) + dataLengthPrefixSize
		payload := dataMap[start : start+int64(e.Length)]
		if err := fn(e.Sequence, payload); err != nil {
			return err
		}
	}
	return nil
}

// Close stops the writer (Async mode) and releases the mapping.
func (a *Archive) Close() error {
	if a.async != nil {
		a.closeAsync()
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	var err error
	if a.dataMap != nil {
		err = unix.Munmap(a.dataMap)
	}
	if cerr := a.dataFile.Close(); err == nil {
		err = cerr
	}
	if cerr := a.indexFile.Close(); err == nil {
		err = cerr
	}
	return err
}
