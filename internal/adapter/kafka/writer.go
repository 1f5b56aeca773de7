package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/fire-danger-card/internal/config"
	"github.com/couchcryptid/fire-danger-card/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker"
)

// ErrSinkUnavailable is returned while the sink circuit breaker is open.
var ErrSinkUnavailable = errors.New("kafka sink unavailable")

// SurfaceMessage is the JSON value published for each committed card surface.
type SurfaceMessage struct {
	Entity      string    `json:"entity"`
	Rating      string    `json:"rating"`
	NeedleAngle float64   `json:"needle_angle"`
	BanToday    bool      `json:"ban_today"`
	HTML        string    `json:"html"`
	Version     uint64    `json:"version"`
	RenderedAt  time.Time `json:"rendered_at"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer produces messages to a Kafka topic through a circuit breaker.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer  messageWriter
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return newWriter(w, logger)
}

func newWriter(w messageWriter, logger *slog.Logger) *Writer {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "kafka-sink",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return &Writer{writer: w, breaker: breaker, logger: logger}
}

// LoadBatch serializes and publishes rendered surfaces to the sink topic in
// a single WriteMessages call. Messages are keyed by entity so every update
// for one card lands on the same partition.
func (w *Writer) LoadBatch(ctx context.Context, surfaces []domain.RenderedSurface) error {
	if len(surfaces) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(surfaces))
	for i := range surfaces {
		msg, err := serializeToMessage(surfaces[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	_, err := w.breaker.Execute(func() (interface{}, error) {
		return nil, w.writer.WriteMessages(ctx, msgs...)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrSinkUnavailable, err)
	}
	if err != nil {
		return fmt.Errorf("write surfaces: %w", err)
	}
	w.logger.Debug("surfaces published", "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a RenderedSurface into a Kafka message.
func serializeToMessage(s domain.RenderedSurface) (kafkago.Message, error) {
	data, err := json.Marshal(SurfaceMessage{
		Entity:      s.Entity,
		Rating:      s.Model.Observation.Rating,
		NeedleAngle: s.Model.NeedleAngle,
		BanToday:    s.Model.Observation.BanToday,
		HTML:        string(s.HTML),
		Version:     s.Version,
		RenderedAt:  s.RenderedAt,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize surface: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(s.Entity),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "rating", Value: []byte(s.Model.Observation.Rating)},
			{Key: "rendered_at", Value: []byte(s.RenderedAt.Format(time.RFC3339))},
		},
	}, nil
}
