// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package parquetkafka

// Outcome is the final state of one record's publish attempt.
type Outcome int

const (
	// Published indicates Kafka acknowledged the record.
	Published Outcome = iota

	// Failed indicates the record was handed to the client but delivery
	// failed (broker rejection, timeout, client closed).
	Failed

	// Skipped indicates the record never reached the client because it
	// could not be encoded or its key or headers could not be built.
	Skipped
)

// String returns the string representation of the Outcome.
func (o Outcome) String() string {
	switch o {
	case Published:
		return "Published"
	case Failed:
		return "Failed"
	case Skipped:
		return "Skipped"
	default:
		return "Unknown"
	}
}
