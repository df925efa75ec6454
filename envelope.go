// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package parquetkafka

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/xmidt-org/wrp-go/v5"
)

// DefaultEnvelopeSource is the WRP source used when none is configured.
const DefaultEnvelopeSource = "dns:parquetkafka"

const jsonContentType = "application/json"

// wrapWRP carries doc as the payload of a WRP SimpleEvent addressed to
// event:<topic> and returns its msgpack form.
func wrapWRP(doc []byte, source, topic string) ([]byte, error) {
	if source == "" {
		source = DefaultEnvelopeSource
	}

	msg := wrp.Message{
		Type:            wrp.SimpleEventMessageType,
		Source:          source,
		Destination:     "event:" + topic,
		TransactionUUID: uuid.NewString(),
		ContentType:     jsonContentType,
		Payload:         doc,
	}

	encoded, err := msg.EncodeMsgpack(nil)
	if err != nil {
		return nil, errors.Join(
			ErrEncoding,
			fmt.Errorf("msgpack encoding failed"),
			err,
		)
	}
	return encoded, nil
}
