// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sharedring

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// mapping owns an open file and its mmap'd region. unix.Mmap (rather
// than the raw syscall package the reference feeder uses) gives the
// same PROT_READ|PROT_WRITE/MAP_SHARED mapping with a portable build
// tag story across the unix targets kaos cares about.
type mapping struct {
	file *os.File
	data []byte
}

func createMapping(path string, size int64) (*mapping, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, fmt.Errorf("sharedring: create %s: %w", path, err)
	}
	if err := f.Truncate(size); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("sharedring: truncate %s: %w", path, err)
	}
	return mapFile(f, size)
}

func openMapping(path string) (*mapping, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("sharedring: open %s: %w", path, err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("sharedring: stat %s: %w", path, err)
	}
	if fi.Size() < offSlotArray {
		f.Close()
		return nil, fmt.Errorf("sharedring: %s is too small to hold a header", path)
	}
	return mapFile(f, fi.Size())
}

func mapFile(f *os.File, size int64) (*mapping, error) {
	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("sharedring: mmap: %w", err)
	}
	return &mapping{file: f, data: data}, nil
}

func (m *mapping) Close() error {
	err := unix.Munmap(m.data)
	if cerr := m.file.Close(); err == nil {
		err = cerr
	}
	return err
}
