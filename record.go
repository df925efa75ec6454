// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package parquetkafka

import (
	"fmt"
	"time"
)

// Field is a single named column value of a Record.
//
// Value is one of nil, bool, int32, int64, uint64, float32, float64,
// json.Number (decimals), string, []byte, time.Time or Date.
type Field struct {
	Name  string
	Value any
}

// Record is one row of a dataset.  Fields are kept in the column order of
// the source file so the JSON document lists them in the same order.
type Record struct {
	// Index is the zero based position of the row in the dataset.
	Index int

	Fields []Field
}

// Get returns the value of the named column.
func (r Record) Get(name string) (any, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// MarshalJSON encodes the record with the default time formatting rule.
func (r Record) MarshalJSON() ([]byte, error) {
	return Encoder{}.Encode(r)
}

// Date is a calendar date without a time of day or zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// String returns the date in YYYY-MM-DD form.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// wallClock marks timestamps that carry no zone information.  They are
// stored as UTC wall clock readings and formatted without an offset.
var wallClock = time.FixedZone("", 0)

// WallClock returns t's wall clock reading as a timestamp without zone
// information.
func WallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(),
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), wallClock)
}

// IsWallClock reports whether t was produced by WallClock.
func IsWallClock(t time.Time) bool {
	return t.Location() == wallClock
}
