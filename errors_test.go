// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package parquetkafka

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrors(t *testing.T) {
	t.Parallel()

	t.Run("sentinel errors", func(t *testing.T) {
		t.Parallel()
		sentinels := []error{
			ErrEncoding,
			ErrMissingColumn,
			ErrDataset,
			ErrBroker,
			ErrTimeout,
			ErrValidation,
			ErrNotStarted,
			ErrAlreadyStarted,
		}

		for _, sentinel := range sentinels {
			me, ok := sentinel.(*metricError) // nolint:errorlint
			assert.True(t, ok, "sentinel should be *metricError")
			assert.NotEmpty(t, me.message)
			assert.NotEmpty(t, me.metric)
			assert.Equal(t, me.message, me.Error())
			assert.Equal(t, me.metric, me.Metric())
		}
	})

	t.Run("joined errors match their sentinel", func(t *testing.T) {
		t.Parallel()

		wrapped := errors.Join(ErrEncoding, fmt.Errorf("json: unsupported value: NaN"))
		assert.ErrorIs(t, wrapped, ErrEncoding)
		assert.NotErrorIs(t, wrapped, ErrBroker)

		doubleWrapped := fmt.Errorf("record 3: %w", wrapped)
		assert.ErrorIs(t, doubleWrapped, ErrEncoding)
	})

	t.Run("error types", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name     string
			err      error
			expected string
		}{
			{"encoding", ErrEncoding, "encoding_error"},
			{"missing column", ErrMissingColumn, "missing_column"},
			{"dataset", ErrDataset, "dataset_error"},
			{"broker", ErrBroker, "broker_error"},
			{"timeout", ErrTimeout, "timeout"},
			{"validation", ErrValidation, "validation_error"},
			{"not started", ErrNotStarted, "not_started"},
			{"nil", nil, ""},
			{"unknown", fmt.Errorf("random"), "unknown"},
			{"joined", errors.Join(ErrDataset, fmt.Errorf("open")), "dataset_error"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				assert.Equal(t, tt.expected, errorType(tt.err))
			})
		}
	})
}

func TestDeliveryError(t *testing.T) {
	t.Parallel()

	assert.NoError(t, deliveryError(nil))

	err := deliveryError(context.DeadlineExceeded)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "timeout", errorType(err))

	err = deliveryError(errors.New("NOT_LEADER_FOR_PARTITION"))
	assert.ErrorIs(t, err, ErrBroker)
	assert.Equal(t, "broker_error", errorType(err))
}
