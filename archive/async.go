// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package archive

import (
	"fmt"
	"sync"
	"sync/atomic"

	"code.hybscloud.com/spin"
	"go.uber.org/zap"

	"github.com/kaos-io/kaos/ring"
)

type asyncRecord struct {
	seq     uint64
	payload []byte
}

// asyncState is the writer-side machinery for Mode == Async. Append
// enqueues into queue (a [ring.SPSC], as required of the async archive);
// runWriter is the sole consumer and the sole mutator of the archive's
// data mapping and index while async is active.
type asyncState struct {
	queue     *ring.SPSC[asyncRecord]
	submitMu  sync.Mutex
	submitSeq uint64

	committed atomic.Uint64 // number of queued records written into the data mapping and in-memory index
	panicked  atomic.Bool
	errMsg    atomic.Value // string

	stop chan struct{}
	done chan struct{}
}

func newAsyncState(opts *Options) *asyncState {
	return &asyncState{
		queue: ring.NewSPSC[asyncRecord](opts.AsyncQueueDepth),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

func (a *Archive) appendAsync(payload []byte) (uint64, error) {
	s := a.async
	if s.panicked.Load() {
		return 0, ErrIo
	}

	buf := make([]byte, len(payload))
	copy(buf, payload)

	s.submitMu.Lock()
	defer s.submitMu.Unlock()

	seq := s.submitSeq
	var sw spin.Wait
	for {
		claimSeq, slots, ok := s.queue.TryClaim(1)
		if ok && len(slots) == 1 {
			slots[0] = asyncRecord{seq: seq, payload: buf}
			s.queue.Publish(claimSeq + 1)
			break
		}
		if s.panicked.Load() {
			return 0, ErrIo
		}
		sw.Once()
	}
	s.submitSeq++
	return seq, nil
}

// Flush blocks until the writer has drained every append submitted so far
// into the data mapping and the in-memory index, so Read can see it. The
// msync and index-file persist run every AsyncIndexStride records (and on
// Close), so records flushed since the last stride are not yet on disk.
func (a *Archive) Flush() error {
	s := a.async
	if s == nil {
		return nil
	}
	s.submitMu.Lock()
	target := s.submitSeq
	s.submitMu.Unlock()

	var sw spin.Wait
	for s.committed.Load() < target {
		if s.panicked.Load() {
			if msg, ok := s.errMsg.Load().(string); ok {
				return fmt.Errorf("%w: %s", ErrIo, msg)
			}
			return ErrIo
		}
		sw.Once()
	}
	return nil
}

func (a *Archive) runWriter() {
	s := a.async
	defer close(s.done)
	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("writer panic: %v", r)
			s.errMsg.Store(msg)
			s.panicked.Store(true)
			a.opts.Logger.Error("async archive writer panicked", zap.String("reason", msg))
		}
	}()

	from := uint64(0)
	var sinceIndexFlush int
	var sw spin.Wait
	for {
		select {
		case <-s.stop:
			a.drainAndCommit(&from, &sinceIndexFlush)
			return
		default:
		}

		batch := s.queue.ReadBatch(from, a.opts.AsyncBatch)
		if len(batch) == 0 {
			sw.Once()
			continue
		}

		a.mu.Lock()
		for _, rec := range batch {
			if _, err := a.writeRecordLocked(rec.payload); err != nil {
				a.mu.Unlock()
				s.errMsg.Store(err.Error())
				s.panicked.Store(true)
				a.opts.Logger.Error("async archive write failed", zap.Error(err))
				return
			}
		}
		sinceIndexFlush += len(batch)
		from += uint64(len(batch))
		s.queue.UpdateConsumer(from)

		if sinceIndexFlush >= a.opts.AsyncIndexStride {
			if err := a.syncLocked(sinceIndexFlush); err != nil {
				a.mu.Unlock()
				s.errMsg.Store(err.Error())
				s.panicked.Store(true)
				a.opts.Logger.Error("async archive index sync failed", zap.Error(err))
				return
			}
			sinceIndexFlush = 0
		}
		a.mu.Unlock()

		s.committed.Store(from)
	}
}

// drainAndCommit runs once more after stop is signalled, to flush
// whatever the producer submitted right before Close.
func (a *Archive) drainAndCommit(from *uint64, sinceIndexFlush *int) {
	s := a.async
	for {
		batch := s.queue.ReadBatch(*from, a.opts.AsyncBatch)
		if len(batch) == 0 {
			break
		}
		a.mu.Lock()
		for _, rec := range batch {
			if _, err := a.writeRecordLocked(rec.payload); err != nil {
				a.mu.Unlock()
				s.errMsg.Store(err.Error())
				s.panicked.Store(true)
				return
			}
		}
		*sinceIndexFlush += len(batch)
		*from += uint64(len(batch))
		s.queue.UpdateConsumer(*from)
		a.mu.Unlock()
	}
	a.mu.Lock()
	if *sinceIndexFlush > 0 {
		if err := a.syncLocked(*sinceIndexFlush); err != nil {
			s.errMsg.Store(err.Error())
			s.panicked.Store(true)
		}
	}
	a.mu.Unlock()
	s.committed.Store(*from)
}

// syncLocked msyncs the data mapping and persists the last n index
// entries. Caller holds a.mu.
func (a *Archive) syncLocked(n int) error {
	if err := msyncData(a); err != nil {
		return err
	}
	return a.persistIndexFrom(len(a.index) - n)
}

func (a *Archive) closeAsync() {
	s := a.async
	close(s.stop)
	<-s.done
}
