package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/fire-danger-card/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapMessageToRawEvent(t *testing.T) {
	now := time.Now()
	msg := kafkago.Message{
		Key:       []byte("sensor.central_rating_today"),
		Value:     []byte(`{"entity_id":"sensor.central_rating_today","state":"HIGH"}`),
		Topic:     "home-assistant-state-changes",
		Partition: 2,
		Offset:    42,
		Time:      now,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte("home-assistant")},
		},
	}

	raw := mapMessageToRawEvent(msg)

	assert.Equal(t, []byte("sensor.central_rating_today"), raw.Key)
	assert.JSONEq(t, `{"entity_id":"sensor.central_rating_today","state":"HIGH"}`, string(raw.Value))
	assert.Equal(t, "home-assistant-state-changes", raw.Topic)
	assert.Equal(t, 2, raw.Partition)
	assert.Equal(t, int64(42), raw.Offset)
	assert.Equal(t, now, raw.Timestamp)
	assert.Equal(t, "home-assistant", raw.Headers["source"])
	assert.Nil(t, raw.Commit)
}

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2024, 12, 20, 22, 30, 0, 0, time.UTC)
	surface := domain.RenderedSurface{
		Entity: "sensor.central_rating_today",
		HTML:   []byte(`<ha-card></ha-card>`),
		Model: domain.VisualModel{
			Observation: domain.Observation{Rating: "HIGH", BanToday: true},
			NeedleAngle: -22.5,
		},
		Version:    3,
		RenderedAt: now,
	}

	msg, err := serializeToMessage(surface)
	require.NoError(t, err)

	assert.Equal(t, []byte("sensor.central_rating_today"), msg.Key)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "rating", msg.Headers[0].Key)
	assert.Equal(t, []byte("HIGH"), msg.Headers[0].Value)
	assert.Equal(t, "rendered_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)

	var value SurfaceMessage
	require.NoError(t, json.Unmarshal(msg.Value, &value))
	assert.Equal(t, "sensor.central_rating_today", value.Entity)
	assert.Equal(t, "HIGH", value.Rating)
	assert.InDelta(t, -22.5, value.NeedleAngle, 0)
	assert.True(t, value.BanToday)
	assert.Equal(t, "<ha-card></ha-card>", value.HTML)
	assert.Equal(t, uint64(3), value.Version)
	assert.True(t, now.Equal(value.RenderedAt))
}

type fakeMessageWriter struct {
	err      error
	calls    int
	messages []kafkago.Message
}

func (f *fakeMessageWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeMessageWriter) Close() error { return nil }

func TestWriter_LoadBatch(t *testing.T) {
	fake := &fakeMessageWriter{}
	w := newWriter(fake, slog.New(slog.DiscardHandler))

	require.NoError(t, w.LoadBatch(context.Background(), nil))
	assert.Equal(t, 0, fake.calls)

	err := w.LoadBatch(context.Background(), []domain.RenderedSurface{
		{Entity: "sensor.central_rating_today"},
		{Entity: "sensor.mallee_rating_today"},
	})
	require.NoError(t, err)
	require.Len(t, fake.messages, 2)
	assert.Equal(t, []byte("sensor.mallee_rating_today"), fake.messages[1].Key)
}

func TestWriter_LoadBatch_BreakerOpens(t *testing.T) {
	fake := &fakeMessageWriter{err: errors.New("leader not available")}
	w := newWriter(fake, slog.New(slog.DiscardHandler))
	batch := []domain.RenderedSurface{{Entity: "sensor.central_rating_today"}}

	for range 3 {
		err := w.LoadBatch(context.Background(), batch)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrSinkUnavailable)
	}

	err := w.LoadBatch(context.Background(), batch)
	require.ErrorIs(t, err, ErrSinkUnavailable)
	assert.Equal(t, 3, fake.calls)
}
