// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/kaos-io/kaos/archive"
	"github.com/kaos-io/kaos/config"
)

// ArchiveReplayCmd walks a sequence range of an archive and prints each
// entry, exercising archive.Archive.Replay as an operator tool.
type ArchiveReplayCmd struct {
	From uint64 `help:"First sequence, inclusive." default:"0"`
	To   uint64 `help:"Last sequence, exclusive. 0 means open-ended up to the last archived sequence."`
}

func (c *ArchiveReplayCmd) Run(rc *runContext) error {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}

	a, err := archive.Open(archive.Options{
		Path:     cfg.Archive.Path,
		MaxBytes: cfg.Archive.MaxBytes,
		Mode:     archive.Sync,
	})
	if err != nil {
		return fmt.Errorf("archive-replay: open: %w", err)
	}
	defer a.Close()

	to := c.To
	if to == 0 {
		to = ^uint64(0) // Replay clamps to the end of the index
	}

	return a.Replay(c.From, to, func(seq uint64, payload []byte) error {
		fmt.Printf("%d\t%q\n", seq, payload)
		return nil
	})
}
