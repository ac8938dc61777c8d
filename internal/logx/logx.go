// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package logx builds the structured logger every Kaos binary and
// background worker shares: zap, encoded as logfmt rather than JSON so a
// single failed archive writer or dispatcher loop reads as one grep-able
// line instead of a blob.
package logx

import (
	"os"

	zaplogfmt "github.com/jsternberg/zap-logfmt"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a *zap.Logger at the given level ("debug", "info", "warn",
// "error"; defaults to "info" on an unrecognized value) writing logfmt
// to stderr.
func New(level string) *zap.Logger {
	lvl := zapcore.InfoLevel
	_ = lvl.Set(level)

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(zaplogfmt.NewEncoder(encCfg), zapcore.Lock(os.Stderr), lvl)
	return zap.New(core)
}

// Nop returns a logger that discards everything, for tests and for
// components constructed without an explicit logger.
func Nop() *zap.Logger { return zap.NewNop() }
