// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAppliesDefaultsAndOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kaos.yaml")
	doc := []byte(`
ring:
  capacity: 4096
  discipline: mpmc
reliable_udp:
  local_addr: 127.0.0.1:9000
  window_size: 2048
`)
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Ring.Capacity != 4096 || cfg.Ring.Discipline != MPMC {
		t.Fatalf("ring override not applied: %+v", cfg.Ring)
	}
	if cfg.ReliableUDP.WindowSize != 2048 {
		t.Fatalf("reliable_udp override not applied: %+v", cfg.ReliableUDP)
	}
	if cfg.ReliableUDP.HeartbeatMs != 500 {
		t.Fatalf("default heartbeat_ms should survive a partial override, got %d", cfg.ReliableUDP.HeartbeatMs)
	}
	if cfg.Archive.AsyncBatch != 64 {
		t.Fatalf("default archive batch should survive, got %d", cfg.Archive.AsyncBatch)
	}
}

func TestValidateRejectsNonPow2Capacity(t *testing.T) {
	cfg := Defaults()
	cfg.Ring.Capacity = 100
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for non-power-of-two capacity")
	}
}

func TestValidateRejectsNonPow2SharedRingCapacity(t *testing.T) {
	cfg := Defaults()
	cfg.SharedRing.Capacity = 100
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for non-power-of-two shared_ring capacity")
	}
}
