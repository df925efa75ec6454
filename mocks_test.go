// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package parquetkafka

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"
	"github.com/twmb/franz-go/pkg/kgo"
)

// mockKafkaClient is a mock implementation of kafkaClient for testing.
type mockKafkaClient struct {
	mock.Mock
}

func (m *mockKafkaClient) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockKafkaClient) Produce(ctx context.Context, r *kgo.Record, cb func(*kgo.Record, error)) {
	m.Called(ctx, r, cb)
}

func (m *mockKafkaClient) Flush(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockKafkaClient) Close() {
	m.Called()
}

// acknowledge is a Produce Run hook that completes the promise right away.
// fail decides, by produce call number, whether the record fails.
func acknowledge(fail func(call int) error) func(mock.Arguments) {
	var (
		mu    sync.Mutex
		calls int
	)
	return func(args mock.Arguments) {
		mu.Lock()
		call := calls
		calls++
		mu.Unlock()

		r := args.Get(1).(*kgo.Record)
		cb := args.Get(2).(func(*kgo.Record, error))

		var err error
		if fail != nil {
			err = fail(call)
		}
		if err == nil {
			r.Partition = int32(call % 3)
			r.Offset = int64(call)
		}
		cb(r, err)
	}
}

// logLine is one captured log call.
type logLine struct {
	level   kgo.LogLevel
	msg     string
	keyvals []any
}

func (l logLine) value(key string) any {
	for i := 0; i+1 < len(l.keyvals); i += 2 {
		if l.keyvals[i] == key {
			return l.keyvals[i+1]
		}
	}
	return nil
}

// captureLogger records log calls for assertions.
type captureLogger struct {
	mu    sync.Mutex
	lines []logLine
}

func (c *captureLogger) Level() kgo.LogLevel { return kgo.LogLevelDebug }

func (c *captureLogger) Log(level kgo.LogLevel, msg string, keyvals ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, logLine{level: level, msg: msg, keyvals: keyvals})
}

// messages returns the captured lines with the given message.
func (c *captureLogger) messages(msg string) []logLine {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []logLine
	for _, l := range c.lines {
		if l.msg == msg {
			out = append(out, l)
		}
	}
	return out
}
