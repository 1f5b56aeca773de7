package card

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/fire-danger-card/internal/domain"
	"github.com/couchcryptid/fire-danger-card/internal/observability"
)

// Dashboard fans a snapshot out to every card it holds. Passes are
// serialized, so a card never runs two updates at once.
type Dashboard struct {
	mu       sync.Mutex
	cards    []*Card
	byEntity map[string]*Card
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewDashboard creates an empty Dashboard.
func NewDashboard(metrics *observability.Metrics, logger *slog.Logger) *Dashboard {
	return &Dashboard{
		byEntity: make(map[string]*Card),
		metrics:  metrics,
		logger:   logger,
	}
}

// Add places a configured card on the dashboard. Each entity may appear once.
func (d *Dashboard) Add(c *Card) error {
	if !c.configured {
		return ErrNotConfigured
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.byEntity[c.Entity()]; ok {
		return fmt.Errorf("dashboard: card for %s already added", c.Entity())
	}
	d.cards = append(d.cards, c)
	d.byEntity[c.Entity()] = c
	return nil
}

// Card returns the card bound to entity.
func (d *Dashboard) Card(entity string) (*Card, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	c, ok := d.byEntity[entity]
	return c, ok
}

// Cards returns the dashboard's cards in the order they were added.
func (d *Dashboard) Cards() []*Card {
	d.mu.Lock()
	defer d.mu.Unlock()

	return append([]*Card(nil), d.cards...)
}

// OnSnapshotChanged runs a render pass on every card and returns the
// surfaces that were committed. A card whose pass fails keeps its previous
// surface; the failure is logged and the remaining cards still render.
func (d *Dashboard) OnSnapshotChanged(snap domain.Snapshot) []domain.RenderedSurface {
	d.mu.Lock()
	defer d.mu.Unlock()

	rendered := make([]domain.RenderedSurface, 0, len(d.cards))
	for _, c := range d.cards {
		start := time.Now()
		surface, committed, err := c.OnSnapshotChanged(snap)
		d.metrics.RenderDuration.Observe(time.Since(start).Seconds())

		switch {
		case err != nil:
			d.metrics.RendersSkipped.WithLabelValues(c.Entity(), "render_error").Inc()
			d.logger.Error("render card", "entity", c.Entity(), "error", err)
		case !committed:
			d.metrics.RendersSkipped.WithLabelValues(c.Entity(), "missing_entity").Inc()
		default:
			d.metrics.RendersCommitted.WithLabelValues(c.Entity()).Inc()
			d.metrics.NeedleAngle.WithLabelValues(c.Entity()).Set(surface.Model.NeedleAngle)
			ban := 0.0
			if surface.Model.Observation.BanToday {
				ban = 1
			}
			d.metrics.TotalFireBan.WithLabelValues(c.Entity()).Set(ban)
			rendered = append(rendered, surface)
		}
	}
	return rendered
}
