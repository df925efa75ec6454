// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package parquetkafka

import (
	"errors"
	"fmt"
	"strings"
)

// ColumnPattern is a simplified glob selecting columns by name.
//
// Supported patterns:
//
//	"*"            - Matches every column
//	"id"           - Matches "id" only
//	"location_*"   - Matches "location_" followed by any characters
//	"*_id"         - Matches any characters followed by "_id"
//	"x_*_date"     - Matches "x_", any characters, then "_date"
//
// Use a backslash to match a literal asterisk ("rating\\*" in Go source
// matches the column "rating*").  At most one unescaped * is allowed and
// matching is case-sensitive.
type ColumnPattern string

// columnMatcher is a compiled ColumnPattern.
type columnMatcher struct {
	all    bool
	exact  string
	prefix string
	suffix string
	glob   bool
}

func (p ColumnPattern) compile() (*columnMatcher, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	if p == "*" {
		return &columnMatcher{all: true}, nil
	}

	before, after, glob, _ := splitWildcard(string(p))
	if !glob {
		return &columnMatcher{exact: before}, nil
	}
	return &columnMatcher{prefix: before, suffix: after, glob: true}, nil
}

func (m *columnMatcher) matches(name string) bool {
	switch {
	case m.all:
		return true
	case !m.glob:
		return name == m.exact
	case len(name) < len(m.prefix)+len(m.suffix):
		return false
	}
	return strings.HasPrefix(name, m.prefix) && strings.HasSuffix(name, m.suffix)
}

func (p ColumnPattern) validate() error {
	if p == "" {
		return errors.Join(ErrValidation, fmt.Errorf("column pattern must not be empty"))
	}
	if _, _, _, ok := splitWildcard(string(p)); !ok {
		return errors.Join(ErrValidation,
			fmt.Errorf("column pattern '%s' is invalid: at most one unescaped '*' is allowed", p))
	}
	return nil
}

// splitWildcard splits s around its single unescaped '*' and unescapes both
// halves.  glob is false when s has no unescaped '*'.  ok is false when s
// has more than one.  A '*' is unescaped when it follows an even number of
// backslashes.
func splitWildcard(s string) (before, after string, glob, ok bool) {
	star := -1
	for i := range len(s) {
		if s[i] != '*' {
			continue
		}

		slashes := 0
		for j := i - 1; j >= 0 && s[j] == '\\'; j-- {
			slashes++
		}
		if slashes%2 != 0 {
			continue
		}

		if star >= 0 {
			return "", "", false, false
		}
		star = i
	}

	unescape := strings.NewReplacer(`\*`, `*`, `\\`, `\`)
	if star < 0 {
		return unescape.Replace(s), "", false, true
	}
	return unescape.Replace(s[:star]), unescape.Replace(s[star+1:]), true, true
}

// columnSelector keeps the fields matching any of its patterns.  A nil
// selector keeps everything.
type columnSelector []*columnMatcher

func compileColumns(patterns []ColumnPattern) (columnSelector, error) {
	if len(patterns) == 0 {
		return nil, nil
	}

	sel := make(columnSelector, 0, len(patterns))
	for i, p := range patterns {
		m, err := p.compile()
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", i, err)
		}
		sel = append(sel, m)
	}
	return sel, nil
}

func (s columnSelector) keep(name string) bool {
	for _, m := range s {
		if m.matches(name) {
			return true
		}
	}
	return false
}

// apply returns rec with only the selected fields, in their original order.
func (s columnSelector) apply(rec Record) Record {
	if s == nil {
		return rec
	}

	fields := make([]Field, 0, len(rec.Fields))
	for _, f := range rec.Fields {
		if s.keep(f.Name) {
			fields = append(fields, f)
		}
	}
	return Record{Index: rec.Index, Fields: fields}
}
