// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package parquetkafka

import (
	"context"
	"errors"
)

var (
	// ErrEncoding indicates a record could not be turned into a message value.
	ErrEncoding = &metricError{
		metric:  "encoding_error",
		message: "encoding failed",
	}

	// ErrMissingColumn indicates a column referenced by the key or a header
	// is not present in the record.
	ErrMissingColumn = &metricError{
		metric:  "missing_column",
		message: "missing column",
	}

	// ErrDataset indicates the dataset could not be located, read or decoded.
	ErrDataset = &metricError{
		metric:  "dataset_error",
		message: "dataset error",
	}

	// ErrBroker indicates Kafka rejected or failed to deliver the message.
	ErrBroker = &metricError{
		metric:  "broker_error",
		message: "broker error",
	}

	// ErrTimeout indicates a delivery deadline was exceeded.
	ErrTimeout = &metricError{
		metric:  "timeout",
		message: "timeout",
	}

	// ErrValidation indicates configuration validation failed.
	ErrValidation = &metricError{
		metric:  "validation_error",
		message: "validation error",
	}

	// ErrNotStarted indicates the publisher has not been started.
	ErrNotStarted = &metricError{
		metric:  "not_started",
		message: "publisher not started",
	}

	// ErrAlreadyStarted indicates the publisher has already been started.
	ErrAlreadyStarted = &metricError{
		metric:  "already_started",
		message: "publisher already started",
	}
)

// metricError is a sentinel error carrying a short label used to group
// failures in logs and metrics.
type metricError struct {
	metric  string
	message string
}

// Error implements the error interface.
func (e *metricError) Error() string {
	return e.message
}

func (e *metricError) Metric() string {
	return e.metric
}

func (e *metricError) Is(target error) bool {
	if t, ok := target.(*metricError); ok {
		return e.message == t.message
	}
	return false
}

// errorType extracts the classification label from an error chain.
func errorType(err error) string {
	if err == nil {
		return ""
	}

	var me *metricError
	if errors.As(err, &me) {
		return me.Metric()
	}

	return "unknown"
}

// deliveryError classifies an error reported by the Kafka client for a
// single record.
func deliveryError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.Join(ErrTimeout, err)
	}
	return errors.Join(ErrBroker, err)
}
