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
	"github.com/kaos-io/kaos/sharedring"
)

// BenchSharedRingCmd drives cfg.SharedRing's mmap-backed cross-process
// ring for a fixed duration from a single process (one goroutine as
// producer, one as consumer over the same mapping) and reports
// throughput, exercising the create-or-open path the config is meant
// to configure.
type BenchSharedRingCmd struct {
	Duration time.Duration `help:"How long to run." default:"1s"`
}

func (c *BenchSharedRingCmd) Run(rc *runContext) error {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}
	if cfg.SharedRing.Path == "" {
		return fmt.Errorf("bench-shared-ring: shared_ring.path is required")
	}

	var producer *sharedring.Producer[ring.Slot64]
	if cfg.SharedRing.CreateOrOpen {
		producer, err = sharedring.CreateProducer[ring.Slot64](cfg.SharedRing.Path, uint64(cfg.SharedRing.Capacity))
		if err != nil {
			producer, err = sharedring.OpenProducer[ring.Slot64](cfg.SharedRing.Path)
		}
	} else {
		producer, err = sharedring.OpenProducer[ring.Slot64](cfg.SharedRing.Path)
	}
	if err != nil {
		return fmt.Errorf("bench-shared-ring: open producer: %w", err)
	}
	defer producer.Close()

	consumer, err := sharedring.OpenConsumer[ring.Slot64](cfg.SharedRing.Path)
	if err != nil {
		return fmt.Errorf("bench-shared-ring: open consumer: %w", err)
	}
	defer consumer.Close()

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
			if seq, _, ok := producer.TryClaim(1); ok {
				*producer.Slot(seq) = val
				producer.Publish()
				produced++
			}
		}
	}()

	for {
		select {
		case <-stop:
			<-done
			rc.logger.Info("bench-shared-ring result",
				zap.Uint64("produced", produced),
				zap.Uint64("consumed", consumed),
				zap.Duration("duration", c.Duration))
			fmt.Printf("produced=%d consumed=%d duration=%s\n", produced, consumed, c.Duration)
			return nil
		default:
		}
		if start, n := consumer.ReadBatch(consumed, 256); n > 0 {
			consumed += uint64(n)
			consumer.UpdateConsumer(start + uint64(n))
		}
	}
}
