// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package parquetkafka

import (
	"time"
)

// DefaultDeliveryBuffer is the capacity of the delivery channel when
// Publisher.DeliveryBuffer is not set.
const DefaultDeliveryBuffer = 1024

// Delivery is the outcome of publishing one record.
type Delivery struct {
	// Index is the position of the record in the dataset.
	Index int

	// Topic is the Kafka topic the record was published (or attempted) to.
	Topic string

	// Partition and Offset locate the record in Kafka.  Both are -1 unless
	// Outcome is Published.
	Partition int32
	Offset    int64

	// Outcome is the final state of the attempt.
	Outcome Outcome

	// Err is the failure cause (nil when Published).
	Err error

	// ErrorType is the error classification (empty when Published).
	// Values: "encoding_error", "missing_column", "broker_error", "timeout", etc.
	ErrorType string

	// Duration is the time from submission to completion.
	Duration time.Duration
}

func newDelivery(index int, topic string, since time.Time, err error) *Delivery {
	d := &Delivery{
		Index:     index,
		Topic:     topic,
		Partition: -1,
		Offset:    -1,
		Outcome:   Published,
		Duration:  time.Since(since),
	}
	if err != nil {
		d.Outcome = Failed
		d.Err = err
		d.ErrorType = errorType(err)
	}
	return d
}

// deliveries is the channel between client promise goroutines and the
// reporter goroutine.
type deliveries struct {
	ch   chan *Delivery
	done chan struct{}
}

// openDeliveries starts the reporter goroutine.  Must be called with
// deliverMu held for writing.
func (p *Publisher) openDeliveries() {
	size := p.DeliveryBuffer
	if size <= 0 {
		size = DefaultDeliveryBuffer
	}

	d := &deliveries{
		ch:   make(chan *Delivery, size),
		done: make(chan struct{}),
	}
	p.deliveries = d

	go p.report(d)
}

// closeDeliveries stops accepting deliveries and waits for the reporter to
// drain what is queued.
func (p *Publisher) closeDeliveries() {
	p.deliverMu.Lock()
	d := p.deliveries
	p.deliveries = nil
	if d != nil {
		close(d.ch)
	}
	p.deliverMu.Unlock()

	if d != nil {
		<-d.done
	}
}

// deliver queues d for the reporter.  Deliveries arriving after Stop are
// dropped.
func (p *Publisher) deliver(d *Delivery) {
	p.deliverMu.RLock()
	defer p.deliverMu.RUnlock()

	if p.deliveries == nil {
		return
	}
	p.deliveries.ch <- d
}

// report logs each delivery and hands it to the registered listeners.
func (p *Publisher) report(d *deliveries) {
	defer close(d.done)

	for delivery := range d.ch {
		logDelivery(p.logger, delivery)
		p.deliveryListeners.Visit(func(listener func(*Delivery)) {
			listener(delivery)
		})
	}
}
