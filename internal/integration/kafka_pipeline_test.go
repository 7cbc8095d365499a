//go:build integration

package integration_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/pmatran/vulnerapp/internal/adapter/kafka"
	"github.com/pmatran/vulnerapp/internal/config"
	"github.com/pmatran/vulnerapp/internal/dataset"
	"github.com/pmatran/vulnerapp/internal/domain"
	"github.com/pmatran/vulnerapp/internal/observability"
	"github.com/pmatran/vulnerapp/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus/testutil"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const testTopic = "test-gallery-measurements"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node Kafka container and returns its broker address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("vulnerapp-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates a single-partition topic through the cluster controller.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer controllerConn.Close()

	require.NoError(t, controllerConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func testConfig(broker, group string) *config.Config {
	return &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaTopic:         testTopic,
		KafkaGroupID:       fmt.Sprintf("%s-%d", group, time.Now().UnixNano()),
		BatchFlushInterval: 2 * time.Second,
	}
}

func publish(ctx context.Context, t *testing.T, broker string, msgs ...kafkago.Message) {
	t.Helper()
	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })
	require.NoError(t, producer.WriteMessages(ctx, msgs...))
}

func baseDataset() *domain.Dataset {
	day := func(d int) time.Time { return time.Date(2024, time.April, d, 0, 0, 0, 0, time.UTC) }
	return &domain.Dataset{
		Levels: domain.Series{Name: "n", Points: []domain.Observation{
			{Time: day(29), Value: 12.1},
			{Time: day(30), Value: 12.2},
		}},
		Flows: domain.Series{Name: "q", Points: []domain.Observation{
			{Time: day(29), Value: 300},
			{Time: day(30), Value: math.NaN()},
		}},
	}
}

// TestKafkaReader verifies that kafka.Reader extracts a published measurement
// with a working commit callback.
func TestKafkaReader(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	payload := []byte(`{"time":"2024-05-01","level":12.4,"flow":305}`)
	publish(ctx, t, broker, kafkago.Message{Key: []byte("station-1"), Value: payload})

	// Retry because the consumer group may need time to rebalance before
	// partitions are assigned and messages become available.
	reader := kafka.NewReader(testConfig(broker, "test-reader"), discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	var batch []domain.RawMessage
	for {
		var err error
		batch, err = reader.ExtractBatch(ctx, 1)
		require.NoError(t, err)
		if len(batch) > 0 {
			break
		}
		if ctx.Err() != nil {
			t.Fatal("timed out waiting for message")
		}
	}

	require.Len(t, batch, 1)
	raw := batch[0]
	assert.Equal(t, []byte("station-1"), raw.Key)
	assert.Equal(t, payload, raw.Value)
	assert.Equal(t, testTopic, raw.Topic)
	require.NotNil(t, raw.Commit, "commit callback should be set")
	require.NoError(t, raw.Commit(ctx))

	m, err := pipeline.NewTransformer(discardLogger()).Transform(ctx, raw)
	require.NoError(t, err)
	assert.InDelta(t, 12.4, m.Level, 1e-9)
	assert.InDelta(t, 305, m.Flow, 1e-9)
}

// TestIngestEndToEnd wires Reader, Transformer and Store with real Kafka and
// checks that live measurements reach the dataset snapshot while poison
// messages are skipped.
func TestIngestEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	publish(ctx, t, broker,
		kafkago.Message{Key: []byte("bad"), Value: []byte("not-json{{{")},
		kafkago.Message{Key: []byte("good-1"), Value: []byte(`{"time":"2024-05-01","level":12.4}`)},
		kafkago.Message{Key: []byte("good-2"), Value: []byte(`{"time":"2024-05-02","flow":310}`)},
	)

	metrics := observability.NewMetricsForTesting()
	store := dataset.NewStore(discardLogger(), metrics)
	store.Replace(baseDataset())

	reader := kafka.NewReader(testConfig(broker, "test-ingest"), discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	p := pipeline.New(reader, pipeline.NewTransformer(discardLogger()), store, discardLogger(), metrics, 50)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	require.Eventually(t, func() bool {
		ds := store.Snapshot()
		return ds.Levels.Len() == 3 && ds.Flows.Len() == 3
	}, 60*time.Second, 200*time.Millisecond, "live measurements should reach the snapshot")

	pipelineCancel()
	require.NoError(t, <-errCh)

	ds := store.Snapshot()
	last := ds.Levels.Points[ds.Levels.Len()-1]
	assert.Equal(t, time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC), last.Time)
	assert.InDelta(t, 12.4, last.Value, 1e-9)

	assert.InDelta(t, 1, testutil.ToFloat64(metrics.TransformErrors), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.MeasurementsLoaded), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.DatasetRows.WithLabelValues("live")), 0)
}
