// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kaos-io/kaos/config"
	"github.com/kaos-io/kaos/ring"
)

// BenchRingCmd drives an SPSC ring buffer of the configured capacity for
// a fixed duration and reports throughput. The configured discipline is
// not used; a warning is logged when it is not spsc.
type BenchRingCmd struct {
	Duration time.Duration `help:"How long to run." default:"1s"`
}

func (c *BenchRingCmd) Run(rc *runContext) error {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}
	if cfg.Ring.Discipline != config.SPSC {
		rc.logger.Warn("bench-ring only drives the spsc discipline directly; ignoring configured discipline",
			zap.String("configured", string(cfg.Ring.Discipline)))
	}

	q := ring.NewSPSC[ring.Slot64](cfg.Ring.Capacity)
	stop := make(chan struct{})
	time.AfterFunc(c.Duration, func() { close(stop) })

	var produced, consumed uint64
	done := make(chan struct{})
	go func() {
		defer close(done)
		var val ring.Slot64
		for {
			select {
			case <-stop:
				return
			default:
			}
			if seq, slots, ok := q.TryClaim(1); ok {
				slots[0] = val
				q.Publish(seq + 1)
				produced++
			}
		}
	}()

	for {
		select {
		case <-stop:
			<-done
			rc.logger.Info("bench-ring result",
				zap.Uint64("produced", produced),
				zap.Uint64("consumed", consumed),
				zap.Duration("duration", c.Duration))
			fmt.Printf("produced=%d consumed=%d duration=%s\n", produced, consumed, c.Duration)
			return nil
		default:
		}
		if batch := q.ReadBatch(consumed, 256); len(batch) > 0 {
			consumed += uint64(len(batch))
			q.UpdateConsumer(consumed)
		}
	}
}
