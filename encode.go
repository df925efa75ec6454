// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package parquetkafka

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// TimeFormatter converts a temporal value into its JSON string form.
// It returns false for values it does not handle, which are then encoded
// with the standard JSON rules.
type TimeFormatter func(v any) (string, bool)

// FormatTime is the default TimeFormatter.
//
// Timestamps are written as "2006-01-02 15:04:05", followed by the fraction
// of a second when it is non-zero (six digits, or nine when the value is not
// a whole number of microseconds), followed by the numeric UTC offset unless
// the timestamp is a wall clock reading.  Dates are written as "2006-01-02".
//
//	2015-09-05 13:30:00
//	2015-09-05 13:30:00.250000+00:00
func FormatTime(v any) (string, bool) {
	switch t := v.(type) {
	case time.Time:
		return formatTimestamp(t), true
	case *time.Time:
		if t == nil {
			return "", false
		}
		return formatTimestamp(*t), true
	case Date:
		return t.String(), true
	}
	return "", false
}

func formatTimestamp(t time.Time) string {
	buf := make([]byte, 0, 38)
	buf = t.AppendFormat(buf, time.DateTime)

	if ns := t.Nanosecond(); ns != 0 {
		if ns%1000 == 0 {
			buf = append(buf, fmt.Sprintf(".%06d", ns/1000)...)
		} else {
			buf = append(buf, fmt.Sprintf(".%09d", ns)...)
		}
	}

	if !IsWallClock(t) {
		buf = t.AppendFormat(buf, "-07:00")
	}
	return string(buf)
}

// Encoder turns records into JSON documents.
type Encoder struct {
	// FormatTime converts temporal values.  Defaults to FormatTime.
	FormatTime TimeFormatter
}

// Encode returns the JSON object for r with keys in column order.
// Failures are joined with ErrEncoding.
func (e Encoder) Encode(r Record) ([]byte, error) {
	format := e.FormatTime
	if format == nil {
		format = FormatTime
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.Fields {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, errors.Join(ErrEncoding, err)
		}
		buf.Write(key)
		buf.WriteByte(':')

		val, err := encodeValue(f.Value, format)
		if err != nil {
			return nil, errors.Join(ErrEncoding,
				fmt.Errorf("column %q", f.Name), err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')

	return buf.Bytes(), nil
}

func encodeValue(v any, format TimeFormatter) ([]byte, error) {
	if s, ok := format(v); ok {
		return json.Marshal(s)
	}
	return json.Marshal(v)
}

// columnString renders a column value as plain text for keys and headers.
// Null values render as the empty string.
func columnString(v any, format TimeFormatter) string {
	if format == nil {
		format = FormatTime
	}
	if s, ok := format(v); ok {
		return s
	}

	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case bool:
		return strconv.FormatBool(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case json.Number:
		return x.String()
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	}
	return fmt.Sprint(v)
}
