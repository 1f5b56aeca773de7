package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/fire-danger-card/internal/domain"
	"github.com/couchcryptid/fire-danger-card/internal/observability"
	sharedretry "github.com/couchcryptid/storm-data-shared/retry"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// BatchExtractor reads up to batchSize raw state change messages from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// StateStore holds the latest state of every host entity.
type StateStore interface {
	Apply(changes ...domain.StateChange) int
	Snapshot() domain.Snapshot
}

// SnapshotObserver re-renders cards from a fresh snapshot and returns the
// surfaces it committed.
type SnapshotObserver interface {
	OnSnapshotChanged(snap domain.Snapshot) []domain.RenderedSurface
}

// BatchLoader writes rendered surfaces to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, surfaces []domain.RenderedSurface) error
}

// Pipeline orchestrates the extract-apply-render-publish loop. Pushes from
// the consumer loop and from HTTP are serialized so each render pass sees a
// consistent snapshot.
type Pipeline struct {
	extractor BatchExtractor
	store     StateStore
	observer  SnapshotObserver
	loader    BatchLoader
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
	batchSize int

	mu sync.Mutex
	// dirty is set while the last render pass could not be published.
	dirty bool

	// held are decoded messages whose surfaces are not yet published. Only
	// the Run goroutine touches it.
	held []domain.RawEvent
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, s StateStore, o SnapshotObserver, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor: e,
		store:     s,
		observer:  o,
		loader:    l,
		logger:    logger,
		metrics:   metrics,
		batchSize: batchSize,
	}
}

// CheckReadiness returns nil once at least one push has been applied,
// or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not applied any state changes yet")
	}
	return nil
}

// Push applies changes to the state store, re-renders every card from the
// resulting snapshot, and publishes the committed surfaces.
func (p *Pipeline) Push(ctx context.Context, changes []domain.StateChange) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	applied := p.store.Apply(changes...)
	p.metrics.StateChangesApplied.Add(float64(applied))
	p.ready.Store(true)

	if applied == 0 {
		return nil
	}

	return p.renderAndPublish(ctx)
}

// Refresh re-renders every card from the current snapshot without applying
// any change. Date labels that fall back to the clock roll over this way.
func (p *Pipeline) Refresh(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.renderAndPublish(ctx)
}

// republish re-renders and publishes if the last pass failed to publish.
func (p *Pipeline) republish(ctx context.Context) (retried bool, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.dirty {
		return false, nil
	}
	return true, p.renderAndPublish(ctx)
}

// renderAndPublish must be called with mu held.
func (p *Pipeline) renderAndPublish(ctx context.Context) error {
	surfaces := p.observer.OnSnapshotChanged(p.store.Snapshot())
	if len(surfaces) == 0 {
		p.dirty = false
		return nil
	}

	if err := p.loader.LoadBatch(ctx, surfaces); err != nil {
		p.dirty = true
		return fmt.Errorf("publish surfaces: %w", err)
	}
	p.dirty = false
	p.metrics.SurfacesPublished.Add(float64(len(surfaces)))
	return nil
}

// Run executes the batch consume loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	backoff := initialBackoff

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.processBatch(ctx, &backoff) {
			return nil
		}
	}
}

// processBatch runs one extract-apply-render-publish cycle. Returns false if the pipeline should stop.
//
// Surfaces that failed to publish are retried before anything new is
// extracted, and the offsets of the batch that produced them are committed
// only once a publish succeeds.
func (p *Pipeline) processBatch(ctx context.Context, backoff *time.Duration) bool {
	retried, err := p.republish(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("republish surfaces failed", "error", err, "held_messages", len(p.held))
		return p.backoffOrStop(ctx, backoff)
	}
	if retried {
		p.logger.Info("surfaces republished", "held_messages", len(p.held))
		*backoff = initialBackoff
	}
	p.commitHeld(ctx)

	start := time.Now()

	rawBatch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err)
		return p.backoffOrStop(ctx, backoff)
	}

	if len(rawBatch) == 0 {
		return ctx.Err() == nil
	}

	p.metrics.StateChangesConsumed.Add(float64(len(rawBatch)))
	p.metrics.BatchSize.Observe(float64(len(rawBatch)))
	*backoff = initialBackoff

	changes, decoded := p.decode(ctx, rawBatch)
	if len(changes) == 0 {
		return true
	}

	if err := p.Push(ctx, changes); err != nil {
		p.logger.Error("push batch failed", "error", err, "batch_size", len(changes))
		p.held = append(p.held, decoded...)
		return p.backoffOrStop(ctx, backoff)
	}

	for _, raw := range decoded {
		p.commitOffset(ctx, raw)
	}
	p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
	return true
}

// decode parses each message in the batch. Undecodable messages are logged,
// counted, and committed so they are not redelivered.
func (p *Pipeline) decode(ctx context.Context, rawBatch []domain.RawEvent) ([]domain.StateChange, []domain.RawEvent) {
	changes := make([]domain.StateChange, 0, len(rawBatch))
	decoded := make([]domain.RawEvent, 0, len(rawBatch))

	for _, raw := range rawBatch {
		change, err := domain.ParseStateChange(raw)
		if err != nil {
			p.logger.Warn("decode failed, skipping message",
				"error", err,
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			p.metrics.DecodeErrors.Inc()
			p.commitOffset(ctx, raw)
			continue
		}
		changes = append(changes, change)
		decoded = append(decoded, raw)
	}
	return changes, decoded
}

// backoffOrStop checks for context cancellation, sleeps with the current backoff,
// and advances the backoff. Returns false if the pipeline should stop.
func (p *Pipeline) backoffOrStop(ctx context.Context, backoff *time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !sharedretry.SleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = sharedretry.NextBackoff(*backoff, maxBackoff)
	return true
}

// commitHeld commits offsets held back by a failed publish.
func (p *Pipeline) commitHeld(ctx context.Context) {
	for _, raw := range p.held {
		p.commitOffset(ctx, raw)
	}
	p.held = nil
}

// commitOffset commits the message offset if a commit function is available.
func (p *Pipeline) commitOffset(ctx context.Context, raw domain.RawEvent) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}
