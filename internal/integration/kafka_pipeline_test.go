//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/couchcryptid/fire-danger-card/internal/adapter/kafka"
	"github.com/couchcryptid/fire-danger-card/internal/card"
	"github.com/couchcryptid/fire-danger-card/internal/config"
	"github.com/couchcryptid/fire-danger-card/internal/domain"
	"github.com/couchcryptid/fire-danger-card/internal/observability"
	"github.com/couchcryptid/fire-danger-card/internal/pipeline"
	"github.com/couchcryptid/fire-danger-card/internal/statestore"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSourceTopic = "test-source"
	testSinkTopic   = "test-sink"
)

// publishedSurface holds a deserialized message read from the sink topic.
type publishedSurface struct {
	Value   kafka.SurfaceMessage
	Key     string
	Headers map[string]string
}

// readSurface reads a single message from the sink consumer and deserializes it.
func readSurface(ctx context.Context, t *testing.T, consumer *kafkago.Reader) publishedSurface {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var value kafka.SurfaceMessage
	require.NoError(t, json.Unmarshal(msg.Value, &value), "unmarshal sink message")

	return publishedSurface{Value: value, Key: string(msg.Key), Headers: headers}
}

func testConfig(broker, group string) *config.Config {
	return &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaSourceTopic:   testSourceTopic,
		KafkaSinkTopic:     testSinkTopic,
		KafkaGroupID:       fmt.Sprintf("%s-%d", group, time.Now().UnixNano()),
		BatchFlushInterval: 5 * time.Second,
	}
}

func newSinkConsumer(t *testing.T, broker string) *kafkago.Reader {
	t.Helper()
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })
	return consumer
}

func newDashboard(t *testing.T, metrics *observability.Metrics, entities ...string) *card.Dashboard {
	t.Helper()
	d := card.NewDashboard(metrics, discardLogger())
	for _, e := range entities {
		c, err := card.NewForEntity(e, card.NewRenderer(), card.Options{Location: time.UTC, Logger: discardLogger()})
		require.NoError(t, err)
		require.NoError(t, d.Add(c))
	}
	return d
}

// TestKafkaReaderWriter verifies the adapter layer: kafka.Reader (extractor) and
// kafka.Writer (loader) correctly round-trip a message through Kafka.
func TestKafkaReaderWriter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := testConfig(broker, "test-reader")

	payload := []byte(`{"entity_id":"sensor.central_rating_today","state":"HIGH","attributes":{"area_name":"Central"}}`)
	producer := &kafkago.Writer{Addr: kafkago.TCP(broker), Topic: testSourceTopic}
	t.Cleanup(func() { _ = producer.Close() })
	require.NoError(t, producer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte("sensor.central_rating_today"),
		Value: payload,
	}))

	// Retry because the consumer group may need time to rebalance before
	// partitions are assigned and messages become available.
	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	var batch []domain.RawEvent
	for {
		var err error
		batch, err = reader.ExtractBatch(ctx, 1)
		require.NoError(t, err)
		if len(batch) > 0 {
			break
		}
		if ctx.Err() != nil {
			t.Fatal("timed out waiting for message from source topic")
		}
	}
	require.Len(t, batch, 1)
	raw := batch[0]
	assert.Equal(t, []byte("sensor.central_rating_today"), raw.Key)
	assert.Equal(t, payload, raw.Value)
	assert.Equal(t, testSourceTopic, raw.Topic)
	require.NotNil(t, raw.Commit, "commit callback should be set")
	require.NoError(t, raw.Commit(ctx))

	change, err := domain.ParseStateChange(raw)
	require.NoError(t, err)

	store := statestore.NewMemoryStore()
	store.Apply(change)
	rendered := newDashboard(t, observability.NewMetricsForTesting(), change.EntityID).OnSnapshotChanged(store.Snapshot())
	require.Len(t, rendered, 1)

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })
	require.NoError(t, writer.LoadBatch(ctx, rendered))

	ps := readSurface(ctx, t, newSinkConsumer(t, broker))
	assert.Equal(t, "sensor.central_rating_today", ps.Key)
	assert.Equal(t, "HIGH", ps.Headers["rating"])
	_, err = time.Parse(time.RFC3339, ps.Headers["rendered_at"])
	assert.NoError(t, err, "rendered_at should be valid RFC3339")

	assert.Equal(t, "HIGH", ps.Value.Rating)
	assert.InDelta(t, -22.5, ps.Value.NeedleAngle, 0)
	assert.False(t, ps.Value.BanToday)
	assert.Contains(t, ps.Value.HTML, `<div class="header-title">Central</div>`)
}

// TestPipelineEndToEnd wires the full pipeline (Reader → store → dashboard → Writer)
// with real Kafka and verifies that every card with a primary entity is published.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := testConfig(broker, "test-pipeline")

	snap := loadMockSnapshot(t)
	producer := &kafkago.Writer{Addr: kafkago.TCP(broker), Topic: testSourceTopic}
	t.Cleanup(func() { _ = producer.Close() })
	require.NoError(t, producer.WriteMessages(ctx, stateChangeMessages(t, snap)...))

	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	dashboard := newDashboard(t, metrics,
		"sensor.central_rating_today",
		"sensor.mallee_rating_today",
		"sensor.northern_country_rating_today",
	)
	p := pipeline.New(reader, statestore.NewMemoryStore(), dashboard, writer, discardLogger(), metrics, 500)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	consumer := newSinkConsumer(t, broker)
	// Batches may split the fixture, so read until the final central card
	// (ban applied) and the mallee card have both arrived.
	latest := map[string]publishedSurface{}
	for {
		ps := readSurface(ctx, t, consumer)
		latest[ps.Key] = ps
		central, okCentral := latest["sensor.central_rating_today"]
		_, okMallee := latest["sensor.mallee_rating_today"]
		if okCentral && okMallee && central.Value.BanToday {
			break
		}
	}

	pipelineCancel()
	require.NoError(t, <-errCh)
	require.NoError(t, p.CheckReadiness(ctx))

	assert.NotContains(t, latest, "sensor.northern_country_rating_today")

	central := latest["sensor.central_rating_today"]
	assert.True(t, central.Value.BanToday)
	assert.Contains(t, central.Value.HTML, ">NONE</div>")

	mallee := latest["sensor.mallee_rating_today"]
	assert.Equal(t, "CATASTROPHIC", mallee.Value.Rating)
	assert.InDelta(t, 67.5, mallee.Value.NeedleAngle, 0)
}

// TestPipelineDecodeError verifies that an undecodable message (poison pill) is
// skipped and the pipeline continues processing valid messages.
func TestPipelineDecodeError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := testConfig(broker, "test-poison")

	producer := &kafkago.Writer{Addr: kafkago.TCP(broker), Topic: testSourceTopic}
	t.Cleanup(func() { _ = producer.Close() })
	require.NoError(t, producer.WriteMessages(ctx,
		kafkago.Message{Key: []byte("bad"), Value: []byte("not-json{{{")},
		kafkago.Message{Key: []byte("good"), Value: []byte(`{"entity_id":"sensor.central_rating_today","state":"MODERATE"}`)},
	))

	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(reader, statestore.NewMemoryStore(), newDashboard(t, metrics, "sensor.central_rating_today"), writer, discardLogger(), metrics, 50)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	consumer := newSinkConsumer(t, broker)
	ps := readSurface(ctx, t, consumer)
	assert.Equal(t, "MODERATE", ps.Value.Rating)

	// Verify no second message arrives (the poison pill was skipped).
	readCtx, readCancel := context.WithTimeout(ctx, 5*time.Second)
	_, err := consumer.ReadMessage(readCtx)
	readCancel()
	assert.Error(t, err, "expected no second message on sink topic")

	pipelineCancel()
	require.NoError(t, <-errCh)
}

func loadMockSnapshot(t *testing.T) domain.Snapshot {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "data", "mock", "snapshot.json"))
	require.NoError(t, err)
	var snap domain.Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	return snap
}

// stateChangeMessages turns a snapshot into one source message per entity.
func stateChangeMessages(t *testing.T, snap domain.Snapshot) []kafkago.Message {
	t.Helper()
	ids := make([]string, 0, len(snap))
	for id := range snap {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	msgs := make([]kafkago.Message, 0, len(ids))
	for _, id := range ids {
		state := snap[id].State
		payload, err := json.Marshal(domain.StateChange{EntityID: id, State: &state, Attributes: snap[id].Attributes})
		require.NoError(t, err)
		msgs = append(msgs, kafkago.Message{Key: []byte(id), Value: payload})
	}
	return msgs
}
