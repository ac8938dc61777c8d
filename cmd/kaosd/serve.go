// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/kaos-io/kaos/config"
	"github.com/kaos-io/kaos/rudp"
)

// runContext carries dependencies every subcommand needs, assembled once
// in main and passed down instead of reached for as globals.
type runContext struct {
	logger *zap.Logger
}

// ServeCmd brings up a reliable-UDP server, optionally backed by an
// archive, and runs until interrupted.
type ServeCmd struct{}

func (c *ServeCmd) Run(rc *runContext) error {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}

	peerCfg := rudp.PeerConfig{
		WindowSize:   cfg.ReliableUDP.WindowSize,
		InitialCwnd:  float64(cfg.ReliableUDP.InitialCwnd),
		HeartbeatMs:  cfg.ReliableUDP.HeartbeatMs,
		DeadMs:       cfg.ReliableUDP.DeadMs,
		ArchivePath:  cfg.ReliableUDP.ArchivePath,
		ArchiveBytes: cfg.Archive.MaxBytes,
	}

	srv, err := rudp.Listen(cfg.ReliableUDP.LocalAddr, peerCfg, rc.logger)
	if err != nil {
		return fmt.Errorf("serve: listen: %w", err)
	}
	rc.logger.Info("kaosd serving", zap.String("local_addr", cfg.ReliableUDP.LocalAddr))

	go func() {
		for peer := range srv.Accept {
			rc.logger.Info("peer accepted", zap.Stringer("remote", peer.Remote))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	rc.logger.Info("kaosd shutting down")
	return srv.Close()
}
