// Package pipeline queues files for indexing and feeds them to the
// vector store in small batches: a slow background cycle for ongoing
// churn, and a synchronous flush path for bulk indexing runs.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/recall-dev/recall/internal/embeddings"
	"github.com/recall-dev/recall/internal/vectordb"
)

const (
	// batchSize bounds one background cycle.
	batchSize = 10
	// synchronousBatchSize bounds one flush iteration.
	synchronousBatchSize = 100
	// maxRetries is how many times a failing file is requeued before
	// it is dropped.
	maxRetries = 3
	// logInterval is how many indexed files pass between progress log
	// lines.
	logInterval = 100
	// cyclePeriod is the background drain interval.
	cyclePeriod = 30 * time.Second
	// closeGrace bounds how long Close waits for the background cycle
	// to wind down.
	closeGrace = 5 * time.Second
)

// fileIngestor is what the pipeline needs from an ingestor. Satisfied
// by *Ingestor.
type fileIngestor interface {
	Ingest(ctx context.Context, path string) error
}

// Pipeline holds the set of files waiting to be indexed. Enqueueing is
// cheap and idempotent per path; actual indexing happens in batches,
// either on the periodic background cycle or through Flush. At most one
// batch is in flight at any time, and a waiting Flush always wins over
// the background cycle.
type Pipeline struct {
	store    *vectordb.Store
	embedder embeddings.Embedder
	logger   *slog.Logger

	mu       sync.Mutex
	queue    []string
	pending  map[string]struct{}
	retries  map[string]int
	ingestor fileIngestor

	// processing serializes batch execution between the background
	// cycle and Flush.
	processing sync.Mutex
	// flushWaiting counts Flush calls blocked on the processing lock;
	// the background cycle yields while it is non-zero.
	flushWaiting atomic.Int32

	totalIndexed atomic.Int64
	running      atomic.Bool
	stop         chan struct{}
	loopDone     chan struct{}
	cancel       context.CancelFunc
}

// New builds a pipeline writing into store via embedder. The pipeline
// registers itself as the store's corruption handler: a fault detected
// during search resets the index and the owner is expected to
// re-enqueue the project.
func New(store *vectordb.Store, embedder embeddings.Embedder, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{
		store:    store,
		embedder: embedder,
		logger:   logger,
		pending:  make(map[string]struct{}),
		retries:  make(map[string]int),
		ingestor: NewIngestor(store, embedder),
		stop:     make(chan struct{}),
		loopDone: make(chan struct{}),
	}
	p.running.Store(true)
	return p
}

// Start launches the background cycle. Without it the pipeline still
// accepts enqueues and serves Flush; only the periodic drain is absent.
func (p *Pipeline) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	go p.run(ctx)
}

func (p *Pipeline) run(ctx context.Context) {
	defer close(p.loopDone)

	ticker := time.NewTicker(cyclePeriod)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			p.cycle(ctx)
		}
	}
}

// Enqueue schedules path for indexing. A path already waiting or being
// retried is not added again. Returns whether the path was added.
func (p *Pipeline) Enqueue(path string) bool {
	if !p.running.Load() {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.pending[path]; ok {
		return false
	}
	p.pending[path] = struct{}{}
	p.queue = append(p.queue, path)
	return true
}

// EnqueueAll schedules every path and reports how many were new.
func (p *Pipeline) EnqueueAll(paths []string) int {
	added := 0
	for _, path := range paths {
		if p.Enqueue(path) {
			added++
		}
	}
	return added
}

// QueueLen reports how many files are waiting.
func (p *Pipeline) QueueLen() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// TotalIndexed reports how many files have been indexed since the
// pipeline was created.
func (p *Pipeline) TotalIndexed() int64 {
	return p.totalIndexed.Load()
}

// cycle runs one background drain of up to batchSize files. It yields
// immediately when a Flush is waiting for the processing lock, so bulk
// runs are never starved by the timer.
func (p *Pipeline) cycle(ctx context.Context) {
	if !p.running.Load() || p.flushWaiting.Load() > 0 {
		return
	}

	p.processing.Lock()
	defer p.processing.Unlock()

	batch := p.takeBatch(batchSize)
	if len(batch) == 0 {
		return
	}
	p.processBatch(ctx, batch)
}

// Flush drains the queue synchronously in batches of up to
// synchronousBatchSize, calling onBatch after each one with how many
// files it attempted. shouldStop is polled between batches; either it
// or ctx cancellation ends the flush early with files still queued.
// Flush holds the processing lock for each batch, so it never overlaps
// with the background cycle.
func (p *Pipeline) Flush(ctx context.Context, shouldStop func() bool, onBatch func(processed int)) {
	p.flushWaiting.Add(1)
	p.processing.Lock()
	defer func() {
		p.processing.Unlock()
		p.flushWaiting.Add(-1)
	}()

	for p.running.Load() {
		if ctx.Err() != nil || (shouldStop != nil && shouldStop()) {
			return
		}

		batch := p.takeBatch(synchronousBatchSize)
		if len(batch) == 0 {
			return
		}
		p.processBatch(ctx, batch)
		if onBatch != nil {
			onBatch(len(batch))
		}
	}
}

// takeBatch pops up to n paths from the front of the queue. The paths
// stay in the pending set until they are indexed or dropped.
func (p *Pipeline) takeBatch(n int) []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if n > len(p.queue) {
		n = len(p.queue)
	}
	if n == 0 {
		return nil
	}
	batch := make([]string, n)
	copy(batch, p.queue[:n])
	p.queue = append(p.queue[:0], p.queue[n:]...)
	return batch
}

// processBatch indexes each file in order. Callers must hold the
// processing lock.
func (p *Pipeline) processBatch(ctx context.Context, batch []string) {
	for i, path := range batch {
		if !p.running.Load() || ctx.Err() != nil {
			p.requeueFront(batch[i:])
			return
		}
		p.processOne(ctx, path)
	}
}

func (p *Pipeline) processOne(ctx context.Context, path string) {
	p.mu.Lock()
	ing := p.ingestor
	p.mu.Unlock()

	err := ing.Ingest(ctx, path)
	if err == nil {
		p.mu.Lock()
		delete(p.pending, path)
		delete(p.retries, path)
		p.mu.Unlock()

		total := p.totalIndexed.Add(1)
		if total%logInterval == 0 {
			p.logger.Info("indexing progress", "indexed", total, "queued", p.QueueLen())
		}
		return
	}

	if errors.Is(err, vectordb.ErrIndexCorrupted) {
		p.recoverCorruption()
	}
	p.handleFailure(path, err)
}

// handleFailure requeues a failed file at the front so it is retried
// before newer work, or drops it once the retry budget is exhausted.
func (p *Pipeline) handleFailure(path string, err error) {
	p.mu.Lock()
	p.retries[path]++
	attempts := p.retries[path]
	if attempts > maxRetries {
		delete(p.pending, path)
		delete(p.retries, path)
		p.mu.Unlock()
		p.logger.Error("dropping file after repeated failures",
			"path", path, "attempts", attempts, "err", err)
		return
	}
	p.queue = append([]string{path}, p.queue...)
	p.mu.Unlock()

	p.logger.Warn("indexing failed, requeued",
		"path", path, "attempt", attempts, "err", err)
}

// requeueFront puts unattempted paths back at the head of the queue in
// their original order, without counting a retry. Used when processing
// stops before the files were attempted.
func (p *Pipeline) requeueFront(paths []string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	kept := paths[:0:0]
	for _, path := range paths {
		if _, ok := p.pending[path]; ok {
			kept = append(kept, path)
		}
	}
	p.queue = append(kept, p.queue...)
}

// recoverCorruption resets the index and rebuilds the ingestor on top
// of the fresh store. If even the reset fails the pipeline shuts down;
// there is nothing left to write into. Called with the processing lock
// held.
func (p *Pipeline) recoverCorruption() {
	p.logger.Warn("index corruption detected, recreating")

	if err := p.store.Recreate(); err != nil {
		p.logger.Error("index recreate failed, stopping pipeline", "err", err)
		p.shutdown()
		return
	}

	p.mu.Lock()
	p.ingestor = NewIngestor(p.store, p.embedder)
	p.mu.Unlock()
}

func (p *Pipeline) shutdown() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.stop)
	if p.cancel != nil {
		p.cancel()
	}
}

// Close stops the background cycle and refuses further enqueues. It
// waits up to a grace period for an in-flight cycle to finish.
// Idempotent.
func (p *Pipeline) Close() error {
	wasRunning := p.running.Load()
	p.shutdown()
	if !wasRunning || p.cancel == nil {
		return nil
	}

	select {
	case <-p.loopDone:
	case <-time.After(closeGrace):
		p.logger.Warn("pipeline close timed out waiting for background cycle")
	}
	return nil
}
