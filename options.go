// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package parquetkafka

import (
	"errors"
	"fmt"
	"strings"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Acks specifies the broker acknowledgment requirements.
type Acks string

const (
	// AcksAll requires all ISR replicas to acknowledge (strongest durability).
	AcksAll Acks = "all"

	// AcksLeader requires only the leader replica to acknowledge.
	AcksLeader Acks = "leader"

	// AcksNone requires no acknowledgment.  Offsets reported for delivered
	// records are not meaningful with this setting.
	AcksNone Acks = "none"
)

// Compression specifies the record batch compression algorithm.
type Compression string

const (
	CompressionSnappy Compression = "snappy"
	CompressionGzip   Compression = "gzip"
	CompressionLz4    Compression = "lz4"
	CompressionZstd   Compression = "zstd"
	CompressionNone   Compression = "none"
)

// Envelope selects how the JSON document of a record is carried in the
// Kafka record value.
type Envelope string

const (
	// EnvelopeNone sends the UTF-8 JSON document as the record value.
	EnvelopeNone Envelope = "none"

	// EnvelopeWRP wraps the JSON document in a msgpack-encoded WRP
	// SimpleEvent message.
	EnvelopeWRP Envelope = "wrp"
)

var (
	acksTypes        = []Acks{AcksAll, AcksLeader, AcksNone}
	compressionTypes = []Compression{
		CompressionSnappy,
		CompressionGzip,
		CompressionLz4,
		CompressionZstd,
		CompressionNone,
	}
	envelopeTypes = []Envelope{EnvelopeNone, EnvelopeWRP}
)

// validateEnum accepts the empty value or any of the allowed values.
func validateEnum[T ~string](name string, value T, allowed []T) error {
	if value == "" {
		return nil
	}

	list := make([]string, 0, len(allowed))
	for _, a := range allowed {
		if a == value {
			return nil
		}
		list = append(list, string(a))
	}

	return errors.Join(ErrValidation,
		fmt.Errorf("%s '%s' is invalid: must be '%s' or empty",
			name, value, strings.Join(list, "', '")))
}

func validateAcks(acks Acks) error {
	return validateEnum("acks", acks, acksTypes)
}

func validateCompression(codec Compression) error {
	return validateEnum("compression codec", codec, compressionTypes)
}

func validateEnvelope(env Envelope) error {
	return validateEnum("envelope", env, envelopeTypes)
}

// kgoOpt returns the franz-go option for the acks setting, or nil to keep
// the client default.
func (a Acks) kgoOpt() kgo.Opt {
	switch a {
	case AcksAll:
		return kgo.RequiredAcks(kgo.AllISRAcks())
	case AcksLeader:
		return kgo.RequiredAcks(kgo.LeaderAck())
	case AcksNone:
		return kgo.RequiredAcks(kgo.NoAck())
	}
	return nil
}

// disablesIdempotency reports whether the acks setting is incompatible with
// franz-go's default idempotent producer.
func (a Acks) disablesIdempotency() bool {
	return a == AcksLeader || a == AcksNone
}

func (c Compression) kgoOpt() kgo.Opt {
	switch c {
	case CompressionSnappy:
		return kgo.ProducerBatchCompression(kgo.SnappyCompression())
	case CompressionGzip:
		return kgo.ProducerBatchCompression(kgo.GzipCompression())
	case CompressionLz4:
		return kgo.ProducerBatchCompression(kgo.Lz4Compression())
	case CompressionZstd:
		return kgo.ProducerBatchCompression(kgo.ZstdCompression())
	}
	return kgo.ProducerBatchCompression(kgo.NoCompression())
}
