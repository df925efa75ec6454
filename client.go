// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package parquetkafka

import (
	"context"

	"github.com/twmb/franz-go/pkg/kgo"
)

// kafkaClient is the subset of the franz-go client the publisher uses.
// It lets tests substitute a mock for *kgo.Client.
type kafkaClient interface {
	// Ping checks that at least one seed broker is reachable.
	Ping(ctx context.Context) error

	// Produce buffers a record for asynchronous delivery; promise is called
	// from a client goroutine once the record is acknowledged or fails.
	Produce(ctx context.Context, r *kgo.Record, promise func(*kgo.Record, error))

	// Flush waits until every buffered record has been delivered or failed.
	Flush(ctx context.Context) error

	// Close releases the client, failing any records still buffered.
	Close()
}

var _ kafkaClient = (*kgo.Client)(nil)
