// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package parquetkafka

import (
	"errors"
	"fmt"
	"strings"

	"github.com/twmb/franz-go/pkg/kgo"
)

// columnRefPrefix marks a header value that is read from a record column
// instead of being used literally, e.g. "column.primary_type".
const columnRefPrefix = "column."

// runIDHeader carries the identifier of the publisher run on every record.
const runIDHeader = "run-id"

// columnRef returns the column name of a "column.<name>" header value.
func columnRef(value string) (string, bool) {
	if !strings.HasPrefix(value, columnRefPrefix) {
		return "", false
	}
	return value[len(columnRefPrefix):], true
}

// validateHeaders checks the configured header map.
func validateHeaders(headers map[string][]string) error {
	for key, values := range headers {
		if key == "" {
			return errors.Join(ErrValidation, fmt.Errorf("header key must not be empty"))
		}
		if len(values) == 0 {
			return errors.Join(ErrValidation, fmt.Errorf("header %q must have at least one value", key))
		}
		for _, value := range values {
			if name, ok := columnRef(value); ok && strings.TrimSpace(name) == "" {
				return errors.Join(ErrValidation, fmt.Errorf("header %q has an empty column reference", key))
			}
		}
	}
	return nil
}

// recordHeaders builds the Kafka headers for one record.  Literal values are
// copied as is; column references are resolved against rec and skipped when
// the column is null or renders empty.  A reference to a column the record
// does not have is an ErrMissingColumn failure.
func recordHeaders(headers map[string][]string, rec Record, format TimeFormatter) ([]kgo.RecordHeader, error) {
	out := make([]kgo.RecordHeader, 0, len(headers)+1)

	for key, values := range headers {
		for _, value := range values {
			name, ok := columnRef(value)
			if !ok {
				out = append(out, kgo.RecordHeader{Key: key, Value: []byte(value)})
				continue
			}

			v, found := rec.Get(name)
			if !found {
				return nil, errors.Join(ErrMissingColumn,
					fmt.Errorf("header %q references unknown column %q", key, name))
			}
			if s := columnString(v, format); s != "" {
				out = append(out, kgo.RecordHeader{Key: key, Value: []byte(s)})
			}
		}
	}

	return out, nil
}

// recordKey resolves the partition key column for rec.  An empty column
// name yields a nil key so the partitioner spreads records freely.
func recordKey(column string, rec Record, format TimeFormatter) ([]byte, error) {
	if column == "" {
		return nil, nil
	}

	v, found := rec.Get(column)
	if !found {
		return nil, errors.Join(ErrMissingColumn,
			fmt.Errorf("key column %q not found", column))
	}
	if v == nil {
		return nil, nil
	}
	return []byte(columnString(v, format)), nil
}
