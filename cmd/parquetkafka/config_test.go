// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xmidt-org/parquetkafka"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	assert.Equal(t, "crime-chicago", cfg.Kafka.Topic)
	assert.Equal(t, "../../Datasets/crimes-small-test", cfg.Dataset)
	assert.Equal(t, time.Second, cfg.Publish.Delay)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
dataset: s3://datasets/crimes/
metrics_addr: ":9102"
kafka:
  brokers: [kafka-1:9092, kafka-2:9092]
  topic: crimes
  acks: leader
  compression: zstd
  linger: 5ms
  sasl:
    mechanism: scram-sha-512
    username: user
    password: secret
publish:
  delay: 250ms
  key_column: id
  columns: [id, "primary_*"]
  headers:
    crime-type: [column.primary_type]
  envelope: wrp
s3:
  region: us-east-1
  force_path_style: true
log:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "s3://datasets/crimes/", cfg.Dataset)
	assert.Equal(t, ":9102", cfg.MetricsAddr)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "crimes", cfg.Kafka.Topic)
	assert.Equal(t, "leader", cfg.Kafka.Acks)
	assert.Equal(t, 5*time.Millisecond, cfg.Kafka.Linger)
	assert.Equal(t, "scram-sha-512", cfg.Kafka.SASL.Mechanism)
	assert.Equal(t, 250*time.Millisecond, cfg.Publish.Delay)
	assert.Equal(t, []string{"id", "primary_*"}, cfg.Publish.Columns)
	assert.Equal(t, map[string][]string{"crime-type": {"column.primary_type"}}, cfg.Publish.Headers)
	assert.Equal(t, "us-east-1", cfg.S3.Region)
	assert.True(t, cfg.S3.ForcePathStyle)
	assert.Equal(t, "json", cfg.Log.Format)

	// Unset keys keep their defaults.
	assert.Equal(t, defaultConnectTimeout, cfg.Kafka.ConnectTimeout)
	assert.Equal(t, defaultCleanupTimeout, cfg.Kafka.CleanupTimeout)
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(t.TempDir(), "missing.yaml")},
		{"unknown field", writeConfig(t, "kafka:\n  topics: [a]\n")},
		{"bad duration", writeConfig(t, "publish:\n  delay: soon\n")},
		{"not yaml", writeConfig(t, "kafka: [\n")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Load(tt.path)
			assert.Error(t, err)
		})
	}
}

func TestLoadEmptyFile(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadConfigFlags(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "kafka:\n  topic: from-file\npublish:\n  delay: 3s\n")

	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, cfg Config)
	}{
		{
			name: "defaults",
			args: nil,
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, Default(), cfg)
			},
		},
		{
			name: "file only",
			args: []string{"-config", path},
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, "from-file", cfg.Kafka.Topic)
				assert.Equal(t, 3*time.Second, cfg.Publish.Delay)
			},
		},
		{
			name: "flags override file",
			args: []string{"-config", path, "-topic", "from-flag", "-delay", "0s"},
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, "from-flag", cfg.Kafka.Topic)
				assert.Equal(t, time.Duration(0), cfg.Publish.Delay)
			},
		},
		{
			name: "brokers and dataset",
			args: []string{"-brokers", "a:9092, b:9092,", "-dataset", "/data/crimes.parquet"},
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
				assert.Equal(t, "/data/crimes.parquet", cfg.Dataset)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg, err := loadConfig(tt.args, io.Discard)
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
	}{
		{"negative delay", []string{"-delay", "-1s"}},
		{"empty topic", []string{"-topic", ""}},
		{"empty brokers", []string{"-brokers", " , "}},
		{"unknown flag", []string{"-bogus"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := loadConfig(tt.args, io.Discard)
			assert.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"no dataset", func(c *Config) { c.Dataset = "" }},
		{"bad sasl", func(c *Config) { c.Kafka.SASL.Mechanism = "gssapi" }},
		{"cert without key", func(c *Config) { c.Kafka.TLS.CertFile = "client.pem" }},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.modify(&cfg)
			assert.ErrorIs(t, cfg.Validate(), parquetkafka.ErrValidation)
		})
	}
}

func TestConfigPublisher(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Kafka.Acks = "none"
	cfg.Kafka.Compression = "gzip"
	cfg.Kafka.SASL = SASLConfig{Mechanism: "PLAIN", Username: "u", Password: "p"}
	cfg.Kafka.TLS = TLSConfig{Enabled: true, ServerName: "kafka.internal"}
	cfg.Publish.KeyColumn = "id"
	cfg.Publish.Envelope = "wrp"
	cfg.Publish.Columns = []string{"id", "location_*"}

	p, err := cfg.Publisher(nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"localhost:9092"}, p.Brokers)
	assert.Equal(t, "crime-chicago", p.Topic)
	assert.Equal(t, time.Second, p.Delay)
	assert.Equal(t, parquetkafka.AcksNone, p.Acks)
	assert.Equal(t, parquetkafka.CompressionGzip, p.CompressionCodec)
	assert.Equal(t, parquetkafka.EnvelopeWRP, p.Envelope)
	assert.Equal(t, "id", p.KeyColumn)
	assert.Equal(t, []parquetkafka.ColumnPattern{"id", "location_*"}, p.Columns)
	require.NotNil(t, p.SASL)
	assert.Equal(t, "PLAIN", p.SASL.Name())
	require.NotNil(t, p.TLS)
	assert.Equal(t, "kafka.internal", p.TLS.ServerName)
}

func TestSASLMechanism(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mechanism string
		name      string
	}{
		{"plain", "PLAIN"},
		{"scram-sha-256", "SCRAM-SHA-256"},
		{"scram-sha-512", "SCRAM-SHA-512"},
	}

	for _, tt := range tests {
		t.Run(tt.mechanism, func(t *testing.T) {
			t.Parallel()
			m, err := SASLConfig{Mechanism: tt.mechanism, Username: "u", Password: "p"}.mechanism()
			require.NoError(t, err)
			assert.Equal(t, tt.name, m.Name())
		})
	}

	m, err := SASLConfig{}.mechanism()
	assert.NoError(t, err)
	assert.Nil(t, m)
}

func TestTLSConfigErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	garbage := filepath.Join(dir, "ca.pem")
	require.NoError(t, os.WriteFile(garbage, []byte("not a certificate"), 0o600))

	disabled, err := TLSConfig{CAFile: garbage}.config()
	require.NoError(t, err)
	assert.Nil(t, disabled)

	_, err = TLSConfig{Enabled: true, CAFile: filepath.Join(dir, "missing.pem")}.config()
	assert.Error(t, err)

	_, err = TLSConfig{Enabled: true, CAFile: garbage}.config()
	assert.Error(t, err)

	_, err = TLSConfig{Enabled: true, CertFile: garbage, KeyFile: garbage}.config()
	assert.Error(t, err)
}
