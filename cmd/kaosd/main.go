// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command kaosd is the composition root: it loads a config.Kaos document
// and runs one of the serve/archive-replay/bench-ring/bench-shared-ring
// subcommands. It contains no protocol logic of its own.
package main

import (
	"github.com/alecthomas/kong"

	"github.com/kaos-io/kaos/internal/logx"
)

var cli struct {
	Config string `help:"Path to a YAML config.Kaos document." default:"kaos.yaml"`
	Level  string `help:"Log level: debug, info, warn, error." default:"info"`

	Serve           ServeCmd           `cmd:"" help:"Run a reliable-UDP server backed by an archive."`
	ArchiveReplay   ArchiveReplayCmd   `cmd:"" name:"archive-replay" help:"Replay archived sequences to stdout."`
	BenchRing       BenchRingCmd       `cmd:"" name:"bench-ring" help:"Drive a ring buffer discipline and report throughput."`
	BenchSharedRing BenchSharedRingCmd `cmd:"" name:"bench-shared-ring" help:"Drive config.SharedRing's mmap-backed ring and report throughput."`
}

func main() {
	ctx := kong.Parse(&cli, kong.Name("kaosd"), kong.Description("Kaos messaging substrate daemon"))
	logger := logx.New(cli.Level)
	defer logger.Sync()

	ctx.FatalIfErrorf(ctx.Run(&runContext{logger: logger}))
}
