// Package card renders the Victoria fire danger card: a rating gauge, a
// rating badge with its call to action, a total fire ban indicator, and a
// three day forecast strip.
//
// A Card is configured once with its district entity and then driven by
// OnSnapshotChanged. Every pass rebuilds the whole fragment from the
// snapshot and commits it to the card's Surface; nothing is patched in place.
package card

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/fire-danger-card/internal/domain"
	"github.com/jonboulle/clockwork"
)

// sizeRows is the layout height hint reported to dashboards, in grid rows.
const sizeRows = 10

// Options tunes a Card. Zero values select UTC, the real clock, and slog.Default().
type Options struct {
	Location *time.Location
	// Clock stamps each commit and dates the header and forecast labels of
	// readings that carry no last_updated.
	Clock    clockwork.Clock
	Logger   *slog.Logger
}

// Card is one fire danger card instance.
type Card struct {
	cfg        Config
	configured bool

	renderer *Renderer
	surface  Surface
	loc      *time.Location
	clock    clockwork.Clock
	logger   *slog.Logger
}

// New creates an unconfigured Card.
func New(renderer *Renderer, opts Options) *Card {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Card{
		renderer: renderer,
		loc:      opts.Location,
		clock:    opts.Clock,
		logger:   opts.Logger,
	}
}

// NewForEntity creates a Card already configured for entity.
func NewForEntity(entity string, renderer *Renderer, opts Options) (*Card, error) {
	c := New(renderer, opts)
	if err := c.SetConfig(Config{Entity: entity}); err != nil {
		return nil, err
	}
	return c, nil
}

// SetConfig stores the card configuration. It fails with a
// *ConfigurationError when no entity is given and with ErrAlreadyConfigured
// on a second call; the first accepted configuration is kept for the life of
// the card.
func (c *Card) SetConfig(cfg Config) error {
	if c.configured {
		return ErrAlreadyConfigured
	}
	if err := cfg.validate(); err != nil {
		return err
	}
	c.cfg = cfg
	c.configured = true
	c.logger = c.logger.With("entity", cfg.Entity)
	return nil
}

// Entity returns the configured primary entity, or "" before SetConfig.
func (c *Card) Entity() string {
	return c.cfg.Entity
}

// Size returns the card's layout height hint in dashboard grid rows.
func (c *Card) Size() int {
	return sizeRows
}

// Surface returns the card's rendering boundary.
func (c *Card) Surface() *Surface {
	return &c.surface
}

// OnSnapshotChanged runs one full read, derive, render, and commit pass.
//
// When the primary entity is missing from snap the pass is a silent no-op:
// committed is false, err is nil, and the previous surface stays in place.
// A render failure also leaves the surface untouched.
func (c *Card) OnSnapshotChanged(snap domain.Snapshot) (surface domain.RenderedSurface, committed bool, err error) {
	if !c.configured {
		return domain.RenderedSurface{}, false, ErrNotConfigured
	}

	reading, ok := domain.ReadSnapshot(snap, c.cfg.Entity)
	if !ok {
		c.logger.Debug("primary entity not in snapshot, waiting for data")
		return domain.RenderedSurface{}, false, nil
	}

	now := c.clock.Now()
	model := domain.BuildVisualModel(reading, c.loc, now)
	html, err := c.renderer.Render(model)
	if err != nil {
		return domain.RenderedSurface{}, false, fmt.Errorf("card %s: %w", c.cfg.Entity, err)
	}

	version := c.surface.Commit(html, now)

	return domain.RenderedSurface{
		Entity:     c.cfg.Entity,
		HTML:       html,
		Model:      model,
		Version:    version,
		RenderedAt: now,
	}, true, nil
}
