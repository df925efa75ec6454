// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package parquetkafka

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/deprecated"
	"github.com/parquet-go/parquet-go/format"
)

// rowBatch is the number of rows read from a row group per call.
const rowBatch = 256

// julianUnixEpoch is the Julian day number of 1970-01-01, used by INT96
// timestamps.
const julianUnixEpoch = 2440588

// column describes how one leaf column of a flat schema is converted.
type column struct {
	name    string
	convert func(parquet.Value) (any, error)
}

// readParquet decodes every row of a Parquet file into records numbered
// from zero.
func readParquet(r io.ReaderAt, size int64) ([]Record, error) {
	f, err := parquet.OpenFile(r, size)
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}

	columns, err := flatColumns(f.Schema())
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, f.NumRows())
	buf := make([]parquet.Row, rowBatch)

	for _, rg := range f.RowGroups() {
		rows := rg.Rows()
		for {
			n, err := rows.ReadRows(buf)
			for _, row := range buf[:n] {
				rec, cerr := toRecord(row, columns, len(records))
				if cerr != nil {
					_ = rows.Close()
					return nil, cerr
				}
				records = append(records, rec)
			}
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				_ = rows.Close()
				return nil, fmt.Errorf("read rows: %w", err)
			}
		}
		if err := rows.Close(); err != nil {
			return nil, fmt.Errorf("close rows: %w", err)
		}
	}

	return records, nil
}

func toRecord(row parquet.Row, columns []column, index int) (Record, error) {
	rec := Record{
		Index:  index,
		Fields: make([]Field, len(columns)),
	}
	for i, c := range columns {
		rec.Fields[i].Name = c.name
	}

	for _, v := range row {
		i := v.Column()
		if i < 0 || i >= len(columns) {
			return Record{}, fmt.Errorf("row %d: value for unknown column %d", index, i)
		}
		if v.IsNull() {
			continue
		}
		val, err := columns[i].convert(v)
		if err != nil {
			return Record{}, fmt.Errorf("row %d column %q: %w", index, columns[i].name, err)
		}
		rec.Fields[i].Value = val
	}

	return rec, nil
}

// flatColumns maps the leaf columns of schema to converters.  Nested groups
// and repeated columns have no single JSON scalar form and are rejected.
func flatColumns(schema *parquet.Schema) ([]column, error) {
	paths := schema.Columns()
	columns := make([]column, 0, len(paths))

	for _, path := range paths {
		name := strings.Join(path, ".")
		if len(path) != 1 {
			return nil, fmt.Errorf("column %q: nested columns are not supported", name)
		}

		leaf, ok := schema.Lookup(path...)
		if !ok {
			return nil, fmt.Errorf("column %q: not found in schema", name)
		}
		if leaf.MaxRepetitionLevel > 0 {
			return nil, fmt.Errorf("column %q: repeated columns are not supported", name)
		}

		convert, err := converterFor(leaf.Node.Type())
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}
		columns = append(columns, column{name: name, convert: convert})
	}

	return columns, nil
}

func converterFor(t parquet.Type) (func(parquet.Value) (any, error), error) {
	lt := t.LogicalType()

	switch {
	case lt == nil:
	case lt.UTF8 != nil, lt.Enum != nil, lt.Json != nil:
		return func(v parquet.Value) (any, error) {
			return string(v.ByteArray()), nil
		}, nil

	case lt.Date != nil:
		return func(v parquet.Value) (any, error) {
			return DateOf(time.Unix(int64(v.Int32())*86400, 0).UTC()), nil
		}, nil

	case lt.Timestamp != nil:
		return timestampConverter(lt.Timestamp), nil

	case lt.Time != nil:
		return timeOfDayConverter(lt.Time), nil

	case lt.Decimal != nil:
		return decimalConverter(t.Kind(), lt.Decimal.Scale), nil

	case lt.Integer != nil:
		if !lt.Integer.IsSigned {
			return func(v parquet.Value) (any, error) {
				if t.Kind() == parquet.Int64 {
					return v.Uint64(), nil
				}
				return int64(v.Uint32()), nil
			}, nil
		}
	}

	return physicalConverter(t.Kind())
}

func physicalConverter(kind parquet.Kind) (func(parquet.Value) (any, error), error) {
	switch kind {
	case parquet.Boolean:
		return func(v parquet.Value) (any, error) { return v.Boolean(), nil }, nil
	case parquet.Int32:
		return func(v parquet.Value) (any, error) { return v.Int32(), nil }, nil
	case parquet.Int64:
		return func(v parquet.Value) (any, error) { return v.Int64(), nil }, nil
	case parquet.Int96:
		return func(v parquet.Value) (any, error) { return int96Time(v.Int96()), nil }, nil
	case parquet.Float:
		return func(v parquet.Value) (any, error) { return v.Float(), nil }, nil
	case parquet.Double:
		return func(v parquet.Value) (any, error) { return v.Double(), nil }, nil
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return func(v parquet.Value) (any, error) {
			b := v.ByteArray()
			if utf8.Valid(b) {
				return string(b), nil
			}
			return append([]byte(nil), b...), nil
		}, nil
	}
	return nil, fmt.Errorf("unsupported physical type %v", kind)
}

func timestampConverter(ts *format.TimestampType) func(parquet.Value) (any, error) {
	unit := time.Millisecond
	switch {
	case ts.Unit.Micros != nil:
		unit = time.Microsecond
	case ts.Unit.Nanos != nil:
		unit = time.Nanosecond
	}

	return func(v parquet.Value) (any, error) {
		t := unixIn(v.Int64(), unit).UTC()
		if !ts.IsAdjustedToUTC {
			t = WallClock(t)
		}
		return t, nil
	}
}

func timeOfDayConverter(tt *format.TimeType) func(parquet.Value) (any, error) {
	return func(v parquet.Value) (any, error) {
		var d time.Duration
		switch {
		case tt.Unit.Micros != nil:
			d = time.Duration(v.Int64()) * time.Microsecond
		case tt.Unit.Nanos != nil:
			d = time.Duration(v.Int64())
		default:
			d = time.Duration(v.Int32()) * time.Millisecond
		}
		t := time.Unix(0, 0).UTC().Add(d)
		s, _ := FormatTime(WallClock(t))
		// Drop the 1970-01-01 date part.
		return s[len(time.DateOnly)+1:], nil
	}
}

// decimalConverter returns decimals as json.Number so the exact digits of
// the unscaled value reach the document.
func decimalConverter(kind parquet.Kind, scale int32) func(parquet.Value) (any, error) {
	return func(v parquet.Value) (any, error) {
		var unscaled *big.Int
		switch kind {
		case parquet.Int32:
			unscaled = big.NewInt(int64(v.Int32()))
		case parquet.Int64:
			unscaled = big.NewInt(v.Int64())
		default:
			unscaled = twosComplement(v.ByteArray())
		}
		return json.Number(decimalString(unscaled, int(scale))), nil
	}
}

// decimalString formats unscaled * 10^-scale in plain decimal notation.
func decimalString(unscaled *big.Int, scale int) string {
	digits := new(big.Int).Abs(unscaled).String()
	if scale <= 0 {
		return unscaled.String()
	}
	if len(digits) <= scale {
		digits = strings.Repeat("0", scale-len(digits)+1) + digits
	}

	var b strings.Builder
	if unscaled.Sign() < 0 {
		b.WriteByte('-')
	}
	b.WriteString(digits[:len(digits)-scale])
	b.WriteByte('.')
	b.WriteString(digits[len(digits)-scale:])
	return b.String()
}

// twosComplement decodes a big-endian two's complement integer.
func twosComplement(b []byte) *big.Int {
	n := new(big.Int).SetBytes(b)
	if len(b) > 0 && b[0]&0x80 != 0 {
		n.Sub(n, new(big.Int).Lsh(big.NewInt(1), uint(len(b)*8)))
	}
	return n
}

func unixIn(v int64, unit time.Duration) time.Time {
	switch unit {
	case time.Nanosecond:
		return time.Unix(0, v)
	case time.Microsecond:
		return time.UnixMicro(v)
	}
	return time.UnixMilli(v)
}

// int96Time decodes the legacy INT96 timestamp: nanoseconds within the day
// in the low eight bytes and the Julian day in the high four.  These values
// carry no zone and are treated as wall clock readings.
func int96Time(v deprecated.Int96) time.Time {
	nanos := int64(uint64(v[1])<<32 | uint64(v[0]))
	days := int64(v[2]) - julianUnixEpoch
	return WallClock(time.Unix(days*86400, nanos).UTC())
}
