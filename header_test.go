// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package parquetkafka

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

func crimeRecord() Record {
	return Record{
		Index: 4,
		Fields: []Field{
			{Name: "id", Value: int64(10224738)},
			{Name: "date", Value: WallClock(time.Date(2015, 9, 5, 13, 30, 0, 0, time.UTC))},
			{Name: "primary_type", Value: "BATTERY"},
			{Name: "ward", Value: nil},
		},
	}
}

func sortHeaders(h []kgo.RecordHeader) []kgo.RecordHeader {
	sort.SliceStable(h, func(i, j int) bool {
		if h[i].Key != h[j].Key {
			return h[i].Key < h[j].Key
		}
		return string(h[i].Value) < string(h[j].Value)
	})
	return h
}

func TestRecordHeaders(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		headers  map[string][]string
		expected []kgo.RecordHeader
		errIs    error
	}{
		{
			name:     "no headers",
			headers:  nil,
			expected: []kgo.RecordHeader{},
		},
		{
			name:    "literal values",
			headers: map[string][]string{"source": {"chicago-crimes"}, "env": {"dev", "test"}},
			expected: []kgo.RecordHeader{
				{Key: "env", Value: []byte("dev")},
				{Key: "env", Value: []byte("test")},
				{Key: "source", Value: []byte("chicago-crimes")},
			},
		},
		{
			name: "column references",
			headers: map[string][]string{
				"type": {"column.primary_type"},
				"id":   {"column.id"},
				"when": {"column.date"},
			},
			expected: []kgo.RecordHeader{
				{Key: "id", Value: []byte("10224738")},
				{Key: "type", Value: []byte("BATTERY")},
				{Key: "when", Value: []byte("2015-09-05 13:30:00")},
			},
		},
		{
			name:     "null column is skipped",
			headers:  map[string][]string{"ward": {"column.ward"}},
			expected: []kgo.RecordHeader{},
		},
		{
			name:    "unknown column",
			headers: map[string][]string{"beat": {"column.beat"}},
			errIs:   ErrMissingColumn,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := recordHeaders(tt.headers, crimeRecord(), nil)
			if tt.errIs != nil {
				assert.ErrorIs(t, err, tt.errIs)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, sortHeaders(got))
		})
	}
}

func TestValidateHeaders(t *testing.T) {
	t.Parallel()

	assert.NoError(t, validateHeaders(nil))
	assert.NoError(t, validateHeaders(map[string][]string{"a": {"b", "column.c"}}))
	assert.ErrorIs(t, validateHeaders(map[string][]string{"": {"b"}}), ErrValidation)
	assert.ErrorIs(t, validateHeaders(map[string][]string{"a": {}}), ErrValidation)
	assert.ErrorIs(t, validateHeaders(map[string][]string{"a": {"column."}}), ErrValidation)
}

func TestRecordKey(t *testing.T) {
	t.Parallel()

	key, err := recordKey("", crimeRecord(), nil)
	require.NoError(t, err)
	assert.Nil(t, key)

	key, err = recordKey("id", crimeRecord(), nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("10224738"), key)

	key, err = recordKey("ward", crimeRecord(), nil)
	require.NoError(t, err)
	assert.Nil(t, key)

	_, err = recordKey("beat", crimeRecord(), nil)
	assert.ErrorIs(t, err, ErrMissingColumn)
}
