// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package config decodes construction-time configuration for every Kaos
// component from a single YAML document.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Discipline names a ring buffer producer/consumer access pattern.
type Discipline string

const (
	SPSC Discipline = "spsc"
	MPSC Discipline = "mpsc"
	SPMC Discipline = "spmc"
	MPMC Discipline = "mpmc"
)

// ArchiveMode selects the archive's durability/latency tradeoff.
type ArchiveMode string

const (
	ArchiveSync  ArchiveMode = "sync"
	ArchiveAsync ArchiveMode = "async"
)

// Ring configures an in-process ring buffer.
type Ring struct {
	Capacity   int        `yaml:"capacity"`
	Discipline Discipline `yaml:"discipline"`
}

// SharedRing configures a cross-process, mmap-backed ring buffer.
type SharedRing struct {
	Ring        `yaml:",inline"`
	Path        string `yaml:"path"`
	CreateOrOpen bool  `yaml:"create_or_open"`
}

// Archive configures the persistent append-only log.
type Archive struct {
	Path             string      `yaml:"path"`
	MaxBytes         int64       `yaml:"max_bytes"`
	Mode             ArchiveMode `yaml:"mode"`
	AsyncBatch       int         `yaml:"async_batch"`
	AsyncIndexStride int         `yaml:"async_index_stride"`
}

// ReliableUDP configures one reliable-UDP peer or server.
type ReliableUDP struct {
	LocalAddr   string `yaml:"local_addr"`
	RemoteAddr  string `yaml:"remote_addr"`
	WindowSize  int    `yaml:"window_size"`
	InitialCwnd int    `yaml:"initial_cwnd"`
	HeartbeatMs int    `yaml:"heartbeat_ms"`
	DeadMs      int    `yaml:"dead_ms"`
	ArchivePath string `yaml:"archive_path"`
}

// HeartbeatInterval returns HeartbeatMs as a time.Duration.
func (r ReliableUDP) HeartbeatInterval() time.Duration {
	return time.Duration(r.HeartbeatMs) * time.Millisecond
}

// DeadInterval returns DeadMs as a time.Duration.
func (r ReliableUDP) DeadInterval() time.Duration {
	return time.Duration(r.DeadMs) * time.Millisecond
}

// Kaos is the top-level configuration document for cmd/kaosd.
type Kaos struct {
	Ring        Ring        `yaml:"ring"`
	SharedRing  SharedRing  `yaml:"shared_ring"`
	Archive     Archive     `yaml:"archive"`
	ReliableUDP ReliableUDP `yaml:"reliable_udp"`
}

// Defaults returns a Kaos configuration populated with spec.md's stated
// construction-time defaults.
func Defaults() Kaos {
	return Kaos{
		Ring: Ring{Capacity: 1024, Discipline: SPSC},
		Archive: Archive{
			Mode:             ArchiveAsync,
			AsyncBatch:       64,
			AsyncIndexStride: 64,
			MaxBytes:         1 << 30,
		},
		ReliableUDP: ReliableUDP{
			WindowSize:  1024,
			InitialCwnd: 16,
			HeartbeatMs: 500,
			DeadMs:      10_000,
		},
	}
}

// Load reads and decodes a Kaos configuration document from path, starting
// from Defaults so an omitted field keeps its documented default.
func Load(path string) (Kaos, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects configurations spec.md declares construction-time
// failures: a ring or shared_ring capacity that is set but not a power
// of two, or an async archive with a non-positive async_batch. Archive
// paths are not checked here.
func (k Kaos) Validate() error {
	if k.Ring.Capacity != 0 && !isPow2(k.Ring.Capacity) {
		return fmt.Errorf("config: ring.capacity %d is not a power of two", k.Ring.Capacity)
	}
	if k.SharedRing.Capacity != 0 && !isPow2(k.SharedRing.Capacity) {
		return fmt.Errorf("config: shared_ring.capacity %d is not a power of two", k.SharedRing.Capacity)
	}
	if k.Archive.Mode == ArchiveAsync && k.Archive.AsyncBatch <= 0 {
		return fmt.Errorf("config: archive.async_batch must be positive")
	}
	return nil
}

func isPow2(n int) bool { return n >= 2 && n&(n-1) == 0 }
