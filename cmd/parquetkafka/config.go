// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/sasl"
	"github.com/twmb/franz-go/pkg/sasl/plain"
	"github.com/twmb/franz-go/pkg/sasl/scram"
	"github.com/xmidt-org/parquetkafka"
	"gopkg.in/yaml.v3"
)

const (
	defaultTopic          = "crime-chicago"
	defaultDataset        = "../../Datasets/crimes-small-test"
	defaultDelay          = time.Second
	defaultBroker         = "localhost:9092"
	defaultConnectTimeout = 10 * time.Second
	defaultCleanupTimeout = 30 * time.Second

	configEnv = "PARQUETKAFKA_CONFIG"
)

// Config defines the command configuration schema.
type Config struct {
	Dataset     string        `yaml:"dataset"`
	Kafka       KafkaConfig   `yaml:"kafka"`
	Publish     PublishConfig `yaml:"publish"`
	S3          S3Config      `yaml:"s3"`
	Log         LogConfig     `yaml:"log"`
	MetricsAddr string        `yaml:"metrics_addr"`

	// LoadConcurrency bounds how many part files are decoded at once.
	LoadConcurrency int `yaml:"load_concurrency"`
}

type KafkaConfig struct {
	Brokers                []string      `yaml:"brokers"`
	Topic                  string        `yaml:"topic"`
	ConnectTimeout         time.Duration `yaml:"connect_timeout"`
	RequestTimeout         time.Duration `yaml:"request_timeout"`
	CleanupTimeout         time.Duration `yaml:"cleanup_timeout"`
	MaxRetries             int           `yaml:"max_retries"`
	MaxBufferedRecords     int           `yaml:"max_buffered_records"`
	MaxBufferedBytes       int           `yaml:"max_buffered_bytes"`
	Linger                 time.Duration `yaml:"linger"`
	Acks                   string        `yaml:"acks"`
	Compression            string        `yaml:"compression"`
	AllowAutoTopicCreation bool          `yaml:"allow_auto_topic_creation"`
	SASL                   SASLConfig    `yaml:"sasl"`
	TLS                    TLSConfig     `yaml:"tls"`
}

type SASLConfig struct {
	// Mechanism is one of "plain", "scram-sha-256", "scram-sha-512" or empty.
	Mechanism string `yaml:"mechanism"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
}

type TLSConfig struct {
	Enabled            bool   `yaml:"enabled"`
	CAFile             string `yaml:"ca_file"`
	CertFile           string `yaml:"cert_file"`
	KeyFile            string `yaml:"key_file"`
	ServerName         string `yaml:"server_name"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
}

type PublishConfig struct {
	Delay          time.Duration       `yaml:"delay"`
	KeyColumn      string              `yaml:"key_column"`
	Columns        []string            `yaml:"columns"`
	Headers        map[string][]string `yaml:"headers"`
	DisableRunID   bool                `yaml:"disable_run_id"`
	Envelope       string              `yaml:"envelope"`
	EnvelopeSource string              `yaml:"envelope_source"`
	DeliveryBuffer int                 `yaml:"delivery_buffer"`
}

type S3Config struct {
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	SessionToken    string `yaml:"session_token"`
	ForcePathStyle  bool   `yaml:"force_path_style"`
}

type LogConfig struct {
	// Level is one of "debug", "info", "warn" or "error".
	Level string `yaml:"level"`

	// Format is "text" or "json".
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Dataset: defaultDataset,
		Kafka: KafkaConfig{
			Brokers:        []string{defaultBroker},
			Topic:          defaultTopic,
			ConnectTimeout: defaultConnectTimeout,
			CleanupTimeout: defaultCleanupTimeout,
		},
		Publish: PublishConfig{
			Delay: defaultDelay,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the YAML file at path over the defaults.  An empty path
// returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}

// loadConfig parses the command line, loads the config file it names and
// applies the flags that were set on top of it.
func loadConfig(args []string, stderr io.Writer) (Config, error) {
	fs := flag.NewFlagSet("parquetkafka", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		configPath = fs.String("config", os.Getenv(configEnv), "Path to YAML config file")
		topic      = fs.String("topic", defaultTopic, "Kafka topic to publish to")
		dataset    = fs.String("dataset", defaultDataset, "Parquet file, directory or s3:// URL")
		delay      = fs.Duration("delay", defaultDelay, "Pause after each record")
		brokers    = fs.String("brokers", defaultBroker, "Comma separated Kafka seed brokers")
	)
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg, err := Load(*configPath)
	if err != nil {
		return Config{}, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "topic":
			cfg.Kafka.Topic = *topic
		case "dataset":
			cfg.Dataset = *dataset
		case "delay":
			cfg.Publish.Delay = *delay
		case "brokers":
			cfg.Kafka.Brokers = splitList(*brokers)
		}
	})

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks the settings the command owns.  Publisher settings are
// validated again when the publisher starts.
func (c Config) Validate() error {
	if c.Dataset == "" {
		return errors.Join(parquetkafka.ErrValidation, fmt.Errorf("dataset is required"))
	}
	if len(c.Kafka.Brokers) == 0 {
		return errors.Join(parquetkafka.ErrValidation, fmt.Errorf("kafka.brokers is required"))
	}
	if c.Kafka.Topic == "" {
		return errors.Join(parquetkafka.ErrValidation, fmt.Errorf("kafka.topic is required"))
	}
	if c.Publish.Delay < 0 {
		return errors.Join(parquetkafka.ErrValidation, fmt.Errorf("publish.delay %v must not be negative", c.Publish.Delay))
	}

	switch strings.ToLower(c.Kafka.SASL.Mechanism) {
	case "", "plain", "scram-sha-256", "scram-sha-512":
	default:
		return errors.Join(parquetkafka.ErrValidation,
			fmt.Errorf("kafka.sasl.mechanism '%s' is invalid", c.Kafka.SASL.Mechanism))
	}
	if (c.Kafka.TLS.CertFile == "") != (c.Kafka.TLS.KeyFile == "") {
		return errors.Join(parquetkafka.ErrValidation,
			fmt.Errorf("kafka.tls.cert_file and kafka.tls.key_file must be set together"))
	}

	if _, err := parseLevel(c.Log.Level); err != nil {
		return errors.Join(parquetkafka.ErrValidation, err)
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return errors.Join(parquetkafka.ErrValidation,
			fmt.Errorf("log.format '%s' is invalid: must be 'text' or 'json'", c.Log.Format))
	}

	return nil
}

// Publisher builds the publisher described by c.
func (c Config) Publisher(logger kgo.Logger) (*parquetkafka.Publisher, error) {
	mechanism, err := c.Kafka.SASL.mechanism()
	if err != nil {
		return nil, err
	}

	tlsCfg, err := c.Kafka.TLS.config()
	if err != nil {
		return nil, err
	}

	return &parquetkafka.Publisher{
		Brokers:                c.Kafka.Brokers,
		Topic:                  c.Kafka.Topic,
		Delay:                  c.Publish.Delay,
		SASL:                   mechanism,
		TLS:                    tlsCfg,
		MaxBufferedRecords:     c.Kafka.MaxBufferedRecords,
		MaxBufferedBytes:       c.Kafka.MaxBufferedBytes,
		RequestTimeout:         c.Kafka.RequestTimeout,
		CleanupTimeout:         c.Kafka.CleanupTimeout,
		MaxRetries:             c.Kafka.MaxRetries,
		AllowAutoTopicCreation: c.Kafka.AllowAutoTopicCreation,
		CompressionCodec:       parquetkafka.Compression(c.Kafka.Compression),
		Linger:                 c.Kafka.Linger,
		Acks:                   parquetkafka.Acks(c.Kafka.Acks),
		KeyColumn:              c.Publish.KeyColumn,
		Columns:                columnPatterns(c.Publish.Columns),
		Headers:                c.Publish.Headers,
		DisableRunID:           c.Publish.DisableRunID,
		Envelope:               parquetkafka.Envelope(c.Publish.Envelope),
		EnvelopeSource:         c.Publish.EnvelopeSource,
		DeliveryBuffer:         c.Publish.DeliveryBuffer,
		Logger:                 logger,
	}, nil
}

func columnPatterns(columns []string) []parquetkafka.ColumnPattern {
	if len(columns) == 0 {
		return nil
	}
	out := make([]parquetkafka.ColumnPattern, len(columns))
	for i, c := range columns {
		out[i] = parquetkafka.ColumnPattern(c)
	}
	return out
}

func (s SASLConfig) mechanism() (sasl.Mechanism, error) {
	switch strings.ToLower(s.Mechanism) {
	case "":
		return nil, nil
	case "plain":
		return plain.Auth{User: s.Username, Pass: s.Password}.AsMechanism(), nil
	case "scram-sha-256":
		return scram.Auth{User: s.Username, Pass: s.Password}.AsSha256Mechanism(), nil
	case "scram-sha-512":
		return scram.Auth{User: s.Username, Pass: s.Password}.AsSha512Mechanism(), nil
	}
	return nil, errors.Join(parquetkafka.ErrValidation,
		fmt.Errorf("unsupported SASL mechanism '%s'", s.Mechanism))
}

func (t TLSConfig) config() (*tls.Config, error) {
	if !t.Enabled {
		return nil, nil
	}

	cfg := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		ServerName:         t.ServerName,
		InsecureSkipVerify: t.InsecureSkipVerify,
	}

	if t.CAFile != "" {
		pem, err := os.ReadFile(t.CAFile)
		if err != nil {
			return nil, fmt.Errorf("read tls ca: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("tls ca %s: no certificates found", t.CAFile)
		}
		cfg.RootCAs = pool
	}

	if t.CertFile != "" {
		cert, err := tls.LoadX509KeyPair(t.CertFile, t.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("load tls key pair: %w", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}

	return cfg, nil
}

func (s S3Config) source() parquetkafka.S3Config {
	return parquetkafka.S3Config{
		Region:          s.Region,
		Endpoint:        s.Endpoint,
		AccessKeyID:     s.AccessKeyID,
		SecretAccessKey: s.SecretAccessKey,
		SessionToken:    s.SessionToken,
		ForcePathStyle:  s.ForcePathStyle,
	}
}
