// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package logx

import "testing"

func TestNewDoesNotPanicOnUnknownLevel(t *testing.T) {
	logger := New("not-a-real-level")
	defer logger.Sync()
	logger.Info("hello")
}

func TestNopDiscards(t *testing.T) {
	logger := Nop()
	logger.Error("should not print")
}
