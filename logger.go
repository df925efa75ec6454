// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package parquetkafka

import "github.com/twmb/franz-go/pkg/kgo"

// nopLogger, the default logger, drops everything.
type nopLogger struct{}

func (*nopLogger) Level() kgo.LogLevel { return kgo.LogLevelNone }
func (*nopLogger) Log(kgo.LogLevel, string, ...any) {
}

// logDelivery writes the outcome line for a record the client finished with.
// Skipped records are logged where they are skipped.
func logDelivery(logger kgo.Logger, d *Delivery) {
	switch d.Outcome {
	case Published:
		logger.Log(kgo.LogLevelInfo, "record published",
			"index", d.Index,
			"topic", d.Topic,
			"partition", d.Partition,
			"offset", d.Offset,
		)
	case Failed:
		logger.Log(kgo.LogLevelError, "record delivery failed",
			"index", d.Index,
			"topic", d.Topic,
			"error", d.Err,
			"error_type", d.ErrorType,
		)
	}
}
