// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"testing"

	"github.com/alecthomas/kong"
)

func TestCLIParsesBenchRingSubcommand(t *testing.T) {
	parser, err := kong.New(&cli, kong.Name("kaosd"))
	if err != nil {
		t.Fatal(err)
	}
	ctx, err := parser.Parse([]string{"bench-ring", "--duration=10ms"})
	if err != nil {
		t.Fatal(err)
	}
	if ctx.Command() != "bench-ring" {
		t.Fatalf("command=%q", ctx.Command())
	}
	if cli.BenchRing.Duration.String() != "10ms" {
		t.Fatalf("duration=%s", cli.BenchRing.Duration)
	}
}

func TestCLIParsesBenchSharedRingSubcommand(t *testing.T) {
	parser, err := kong.New(&cli, kong.Name("kaosd"))
	if err != nil {
		t.Fatal(err)
	}
	ctx, err := parser.Parse([]string{"bench-shared-ring", "--duration=10ms"})
	if err != nil {
		t.Fatal(err)
	}
	if ctx.Command() != "bench-shared-ring" {
		t.Fatalf("command=%q", ctx.Command())
	}
	if cli.BenchSharedRing.Duration.String() != "10ms" {
		t.Fatalf("duration=%s", cli.BenchSharedRing.Duration)
	}
}
