// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package parquetkafka

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/sasl"
	"github.com/xmidt-org/eventor"
)

// clientFactory is a function that creates a Kafka client from options.
// This allows dependency injection for testing.
type clientFactory func(opts ...kgo.Opt) (kafkaClient, error)

// defaultClientFactory is the production client factory that uses franz-go.
func defaultClientFactory(opts ...kgo.Opt) (kafkaClient, error) {
	return kgo.NewClient(opts...)
}

// Summary counts what Run did with the records it was given.
type Summary struct {
	// Records is the number of records processed before Run returned.
	Records int

	// Submitted is the number of records handed to the Kafka client.
	Submitted int

	// Skipped is the number of records that could not be turned into a
	// Kafka record.
	Skipped int
}

// Publisher publishes dataset records to a single Kafka topic, one at a
// time with a fixed pause between records.
//
// Start, Stop and Run may be called from different goroutines.  Run itself
// processes records sequentially.
type Publisher struct {
	// --- STATIC CONFIGURATION (set before Start, immutable after) ---

	// Brokers is the list of Kafka broker addresses.
	// Required. Each address must be in "host:port" format.
	Brokers []string

	// Topic is the Kafka topic every record is published to.
	// Required.
	Topic string

	// Delay is the pause after each record is submitted, including the last.
	// Zero disables the pause. Negative values are invalid.
	Delay time.Duration

	// SASL configures SASL authentication.
	// Optional. If nil, no authentication is used.
	SASL sasl.Mechanism

	// TLS configures TLS encryption.
	// Optional. If nil, plaintext connections are used.
	TLS *tls.Config

	// MaxBufferedRecords sets the maximum number of records to buffer.
	// Zero or negative values keep the franz-go default.
	MaxBufferedRecords int

	// MaxBufferedBytes sets the maximum bytes of records to buffer.
	// Zero or negative values disable this limit.
	MaxBufferedBytes int

	// RequestTimeout sets the maximum time to wait for broker responses.
	// Zero or negative values keep the franz-go default.
	RequestTimeout time.Duration

	// CleanupTimeout sets the maximum time to wait for buffered records
	// to flush on shutdown. Zero or negative values mean no timeout.
	CleanupTimeout time.Duration

	// MaxRetries controls retry behavior on broker failures.
	// <=0: franz-go default. >0: retry up to this many times.
	MaxRetries int

	// AllowAutoTopicCreation enables automatic topic creation when
	// publishing to a topic that does not exist.
	AllowAutoTopicCreation bool

	// CompressionCodec specifies the batch compression algorithm.
	// Valid: "snappy", "gzip", "lz4", "zstd", "none" or empty (none).
	CompressionCodec Compression

	// Linger sets the batching delay. Zero disables lingering.
	Linger time.Duration

	// Acks controls broker acknowledgments.
	// Valid: "all", "leader", "none" or empty (all).
	Acks Acks

	// KeyColumn names the column whose value becomes the record key.
	// Optional. If empty, records have no key.
	KeyColumn string

	// Headers defines Kafka record headers.  Values are literals or
	// "column.<name>" references resolved per record.
	// Optional.
	Headers map[string][]string

	// DisableRunID turns off the run-id header added to every record.
	DisableRunID bool

	// Envelope selects how the JSON document is carried in the record
	// value.  Defaults to EnvelopeNone.
	Envelope Envelope

	// EnvelopeSource is the WRP source used with EnvelopeWRP.
	// Defaults to DefaultEnvelopeSource.
	EnvelopeSource string

	// Columns selects the columns carried in the JSON document.  Key and
	// header columns are resolved before selection, so they need not be
	// selected.  Optional. If empty, every column is carried.
	Columns []ColumnPattern

	// FormatTime converts temporal values into JSON strings.
	// Optional. Defaults to FormatTime.
	FormatTime TimeFormatter

	// DeliveryBuffer is the capacity of the delivery channel.
	// Defaults to DefaultDeliveryBuffer.
	DeliveryBuffer int

	// Logger is the logger instance (same interface as franz-go).
	// Optional. If nil, a no-op logger will be used.
	Logger kgo.Logger

	// InitialDeliveryListeners are registered when Start is called and
	// receive every Delivery.  Optional.
	InitialDeliveryListeners []func(*Delivery)

	// --- INTERNAL FIELDS (not for user configuration) ---

	// logger is the logger in use (never nil after Start).
	logger kgo.Logger

	// clientFactory creates Kafka clients, overridden in tests.
	clientFactory clientFactory

	// clientMu protects client, runID and columns.
	clientMu sync.Mutex
	client   kafkaClient
	runID    string
	columns  columnSelector

	// deliverMu protects deliveries.
	deliverMu  sync.RWMutex
	deliveries *deliveries

	deliveryListeners            eventor.Eventor[func(*Delivery)]
	registerInitialListenersOnce sync.Once
}

// AddDeliveryListener adds a listener called for every Delivery.  Listeners
// run on the reporter goroutine, never concurrently with each other.  The
// returned function removes the listener.
func (p *Publisher) AddDeliveryListener(fn func(*Delivery)) func() {
	return p.deliveryListeners.Add(fn)
}

// RunID returns the identifier of the current run, or "" before Start.
func (p *Publisher) RunID() string {
	p.clientMu.Lock()
	defer p.clientMu.Unlock()
	return p.runID
}

// Start validates the configuration, connects to Kafka and checks that a
// broker answers.
//
// Returns an error if:
//   - Configuration is invalid (missing brokers or topic, bad enum values)
//   - The client cannot be created
//   - No broker responds before ctx is done
//   - Already started
func (p *Publisher) Start(ctx context.Context) error {
	p.clientMu.Lock()
	defer p.clientMu.Unlock()

	if p.client != nil {
		return ErrAlreadyStarted
	}

	if p.clientFactory == nil {
		p.clientFactory = defaultClientFactory
	}

	logger := p.Logger
	if logger == nil {
		logger = &nopLogger{}
	}
	p.logger = logger

	p.registerInitialListenersOnce.Do(func() {
		for _, listener := range p.InitialDeliveryListeners {
			p.deliveryListeners.Add(listener)
		}
	})

	if err := p.validate(); err != nil {
		return err
	}

	columns, err := compileColumns(p.Columns)
	if err != nil {
		return err
	}

	client, err := p.clientFactory(p.toKgoOpts()...)
	if err != nil {
		return fmt.Errorf("failed to create Kafka client: %w", err)
	}

	if err := client.Ping(ctx); err != nil {
		client.Close()
		return errors.Join(ErrBroker, fmt.Errorf("failed to reach brokers %v", p.Brokers), err)
	}

	p.client = client
	p.runID = uuid.NewString()
	p.columns = columns

	p.deliverMu.Lock()
	p.openDeliveries()
	p.deliverMu.Unlock()

	p.logger.Log(kgo.LogLevelInfo, "Publisher started successfully",
		"topic", p.Topic, "run_id", p.runID)

	return nil
}

// Stop flushes buffered records, closes the client and waits until every
// delivery has been reported.  Safe to call multiple times.
func (p *Publisher) Stop(ctx context.Context) {
	p.clientMu.Lock()
	defer p.clientMu.Unlock()

	if p.client == nil {
		return
	}

	p.logger.Log(kgo.LogLevelInfo, "Stopping publisher, flushing buffered records")

	// CleanupTimeout applies only when the caller has not set a deadline.
	if p.CleanupTimeout > 0 {
		if _, hasDeadline := ctx.Deadline(); !hasDeadline {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, p.CleanupTimeout)
			defer cancel()
		}
	}

	if err := p.client.Flush(ctx); err != nil {
		p.logger.Log(kgo.LogLevelWarn, "flush incomplete during shutdown", "error", err.Error())
	}

	p.client.Close()
	p.client = nil

	p.closeDeliveries()

	p.logger.Log(kgo.LogLevelInfo, "Publisher stopped successfully")
}

// Run publishes records in order.  Each record is encoded, submitted
// without waiting for its delivery, and followed by the Delay pause.
// A record that cannot be encoded or built is logged, reported as Skipped
// and still followed by the pause.
//
// Run returns early only when ctx is done; the error is ctx.Err().  Records
// already submitted stay buffered for Stop to flush.
func (p *Publisher) Run(ctx context.Context, records []Record) (Summary, error) {
	var sum Summary

	p.clientMu.Lock()
	client, runID, columns := p.client, p.runID, p.columns
	p.clientMu.Unlock()

	if client == nil {
		return sum, ErrNotStarted
	}

	p.logger.Log(kgo.LogLevelInfo, "publishing records",
		"total", len(records), "topic", p.Topic, "delay", p.Delay.String())

	// Records must outlive a cancelled run so Stop can flush them.
	produceCtx := context.WithoutCancel(ctx)

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		sum.Records++
		if p.submit(produceCtx, client, runID, columns, rec) {
			sum.Submitted++
		} else {
			sum.Skipped++
		}

		if err := pause(ctx, p.Delay); err != nil {
			return sum, err
		}
	}

	return sum, nil
}

// submit encodes rec and hands it to the client.  It reports whether the
// record was submitted.
func (p *Publisher) submit(ctx context.Context, client kafkaClient, runID string, columns columnSelector, rec Record) bool {
	start := time.Now()

	doc, record, err := p.buildRecord(rec, runID, columns)
	if err != nil {
		p.logger.Log(kgo.LogLevelError, "skipping record",
			"index", rec.Index, "error", err, "error_type", errorType(err))
		d := newDelivery(rec.Index, p.Topic, start, err)
		d.Outcome = Skipped
		p.deliver(d)
		return false
	}

	p.logger.Log(kgo.LogLevelInfo, "sending record", "index", rec.Index, "json", string(doc))

	index := rec.Index
	client.Produce(ctx, record, func(r *kgo.Record, err error) {
		d := newDelivery(index, p.Topic, start, deliveryError(err))
		if r != nil {
			d.Topic = r.Topic
			if err == nil {
				d.Partition = r.Partition
				d.Offset = r.Offset
			}
		}
		p.deliver(d)
	})

	return true
}

// buildRecord returns the JSON document of rec and the Kafka record that
// carries it.
func (p *Publisher) buildRecord(rec Record, runID string, columns columnSelector) ([]byte, *kgo.Record, error) {
	doc, err := Encoder{FormatTime: p.FormatTime}.Encode(columns.apply(rec))
	if err != nil {
		return nil, nil, err
	}

	value := doc
	if p.Envelope == EnvelopeWRP {
		value, err = wrapWRP(doc, p.EnvelopeSource, p.Topic)
		if err != nil {
			return nil, nil, err
		}
	}

	key, err := recordKey(p.KeyColumn, rec, p.FormatTime)
	if err != nil {
		return nil, nil, err
	}

	headers, err := recordHeaders(p.Headers, rec, p.FormatTime)
	if err != nil {
		return nil, nil, err
	}
	if !p.DisableRunID && runID != "" {
		headers = append(headers, kgo.RecordHeader{Key: runIDHeader, Value: []byte(runID)})
	}

	return doc, &kgo.Record{
		Topic:   p.Topic,
		Key:     key,
		Value:   value,
		Headers: headers,
	}, nil
}

// pause waits d, returning early with ctx.Err() if ctx is done.
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// validate validates the Publisher's configuration.
func (p *Publisher) validate() error {
	if len(p.Brokers) == 0 {
		return errors.Join(ErrValidation, fmt.Errorf("brokers list is required"))
	}

	for i, broker := range p.Brokers {
		if broker == "" {
			return errors.Join(ErrValidation, fmt.Errorf("broker %d is empty", i))
		}
	}

	if p.Topic == "" {
		return errors.Join(ErrValidation, fmt.Errorf("topic is required"))
	}

	if p.Delay < 0 {
		return errors.Join(ErrValidation, fmt.Errorf("delay %v must not be negative", p.Delay))
	}

	if err := validateCompression(p.CompressionCodec); err != nil {
		return err
	}

	if err := validateAcks(p.Acks); err != nil {
		return err
	}

	if err := validateEnvelope(p.Envelope); err != nil {
		return err
	}

	return validateHeaders(p.Headers)
}

// toKgoOpts converts the Publisher's configuration to franz-go client options.
func (p *Publisher) toKgoOpts() []kgo.Opt {
	opts := []kgo.Opt{
		kgo.SeedBrokers(p.Brokers...),
		kgo.DefaultProduceTopic(p.Topic),
	}

	if p.logger != nil {
		opts = append(opts, kgo.WithLogger(p.logger))
	}

	if p.AllowAutoTopicCreation {
		opts = append(opts, kgo.AllowAutoTopicCreation())
	}

	if p.SASL != nil {
		opts = append(opts, kgo.SASL(p.SASL))
	}

	if p.TLS != nil {
		opts = append(opts, kgo.DialTLSConfig(p.TLS))
	}

	if p.MaxBufferedRecords > 0 {
		opts = append(opts, kgo.MaxBufferedRecords(p.MaxBufferedRecords))
	}

	if p.MaxBufferedBytes > 0 {
		opts = append(opts, kgo.MaxBufferedBytes(p.MaxBufferedBytes))
	}

	if p.RequestTimeout > 0 {
		opts = append(opts, kgo.RequestTimeoutOverhead(p.RequestTimeout))
	}

	if p.MaxRetries > 0 {
		opts = append(opts, kgo.RequestRetries(p.MaxRetries))
	}

	if p.Linger > 0 {
		opts = append(opts, kgo.ProducerLinger(p.Linger))
	}

	if opt := p.Acks.kgoOpt(); opt != nil {
		opts = append(opts, opt)
	}
	if p.Acks.disablesIdempotency() {
		opts = append(opts, kgo.DisableIdempotentWrite())
	}

	opts = append(opts, p.CompressionCodec.kgoOpt())

	return opts
}
