// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

//go:build integration

package parquetkafka_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/xmidt-org/parquetkafka"
	"github.com/xmidt-org/wrp-go/v5"
)

const (
	messageConsumeWait = 10 * time.Second
)

// crime is a reduced row of the Chicago crimes dataset.
type crime struct {
	ID          int64     `parquet:"id"`
	CaseNumber  string    `parquet:"case_number"`
	Date        time.Time `parquet:"date,timestamp(microsecond)"`
	PrimaryType string    `parquet:"primary_type"`
	Arrest      bool      `parquet:"arrest"`
	Ward        *int32    `parquet:"ward,optional"`
}

func crimes(n int) []crime {
	base := time.Date(2015, 9, 5, 13, 30, 0, 0, time.UTC)
	types := []string{"BATTERY", "THEFT", "NARCOTICS"}

	rows := make([]crime, n)
	for i := range rows {
		ward := int32(10 + i)
		rows[i] = crime{
			ID:          10224738 + int64(i),
			CaseNumber:  "HY41164" + string(rune('0'+i%10)),
			Date:        base.Add(time.Duration(i) * time.Minute),
			PrimaryType: types[i%len(types)],
			Arrest:      i%2 == 0,
			Ward:        &ward,
		}
	}
	return rows
}

// writeDataset writes rows as a single part file of a dataset directory and
// returns the directory.
func writeDataset(t *testing.T, rows []crime) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, parquet.WriteFile(filepath.Join(dir, "part-00000.parquet"), rows))
	return dir
}

// setupKafka starts Kafka using testcontainers and returns the container and broker address.
// Automatically registers cleanup to stop Kafka when test completes.
func setupKafka(t *testing.T) (*kafka.KafkaContainer, string) {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	// Using specific version tag since testcontainers validates version for KRaft mode
	kafkaContainer, err := kafka.Run(ctx,
		"confluentinc/confluent-local:7.8.0",
		kafka.WithClusterID("test-cluster"),
	)
	require.NoError(t, err, "Failed to start Kafka container")

	t.Cleanup(func() {
		t.Log("Stopping Kafka container...")
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate Kafka container: %v", err)
		}
	})

	brokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err, "Failed to get Kafka brokers")
	require.NotEmpty(t, brokers, "No Kafka brokers available")

	broker := brokers[0]
	t.Logf("Kafka broker available at: %s", broker)

	require.NoError(t, waitForKafka(ctx, t, broker))

	return kafkaContainer, broker
}

// waitForKafka attempts to connect to Kafka broker until it responds or timeout.
func waitForKafka(ctx context.Context, t *testing.T, broker string) error {
	t.Helper()

	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		client, err := kgo.NewClient(
			kgo.SeedBrokers(broker),
			kgo.RequestTimeoutOverhead(5*time.Second),
		)
		if err == nil {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := client.Ping(pingCtx)
			cancel()
			client.Close()

			if err == nil {
				t.Log("Kafka is ready!")
				return nil
			}
			t.Logf("Kafka not ready yet: %v", err)
		}

		time.Sleep(1 * time.Second)
	}

	return context.DeadlineExceeded
}

// createTestPublisher creates a Publisher with test configuration.
func createTestPublisher(t *testing.T, broker, topic string) *parquetkafka.Publisher {
	t.Helper()

	return &parquetkafka.Publisher{
		Brokers:                []string{broker},
		Topic:                  topic,
		Delay:                  10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
}

// consumeMessages consumes records from a Kafka topic until want records
// arrived or the timeout passed.
func consumeMessages(t *testing.T, broker, topic string, want int, timeout time.Duration) []*kgo.Record {
	t.Helper()

	client, err := kgo.NewClient(
		kgo.SeedBrokers(broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err, "Failed to create Kafka consumer")
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var records []*kgo.Record
	for len(records) < want && ctx.Err() == nil {
		fetches := client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			break
		}

		fetches.EachError(func(topic string, partition int32, err error) {
			if ctx.Err() == nil {
				t.Logf("Fetch error on %s[%d]: %v", topic, partition, err)
			}
		})

		fetches.EachRecord(func(r *kgo.Record) {
			records = append(records, r)
		})
	}

	return records
}

// header returns the value of the named record header.
func header(record *kgo.Record, key string) (string, bool) {
	for _, h := range record.Headers {
		if h.Key == key {
			return string(h.Value), true
		}
	}
	return "", false
}

// decodeWRPMessage decodes a msgpack-encoded WRP message from a Kafka record.
func decodeWRPMessage(t *testing.T, record *kgo.Record) *wrp.Message {
	t.Helper()

	var msg wrp.Message
	decoder := wrp.NewDecoderBytes(record.Value, wrp.Msgpack)
	err := decoder.Decode(&msg)
	require.NoError(t, err, "Failed to decode WRP message")

	return &msg
}
