// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

// Package parquetkafka replays the rows of a Parquet dataset into a Kafka
// topic as JSON documents, one record at a time with a fixed pause between
// records.
//
// # Overview
//
// A run has three steps: load the dataset fully into memory, publish every
// row in file order, then flush and close the Kafka client.  Each row becomes
// a JSON object whose keys are the column names in schema order.  Temporal
// values (timestamps, dates) are rendered as strings so that every document
// is plain JSON.
//
// # Quick Start
//
//	records, err := parquetkafka.Load(ctx, "../../Datasets/crimes-small-test")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	publisher := &parquetkafka.Publisher{
//	    Brokers: []string{"localhost:9092"},
//	    Topic:   "crime-chicago",
//	    Delay:   time.Second,
//	}
//	if err := publisher.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer publisher.Stop(context.Background())
//
//	summary, err := publisher.Run(ctx, records)
//
// # Datasets
//
// Loader accepts a single Parquet file, a directory tree of part files (as
// written by Spark or pandas, partition directories included, read in
// lexical path order with _SUCCESS, _temporary and hidden entries skipped)
// or an s3:// URL naming an object or a prefix.  Only flat schemas are
// supported.  Nested and repeated columns fail the load.
//
// # Delivery
//
// Run does not wait for broker acknowledgment.  Every record is handed to the
// franz-go client and the outcome arrives later as a Delivery, which is
// logged and passed to the registered delivery listeners:
//
//	publisher.InitialDeliveryListeners = []func(*parquetkafka.Delivery){
//	    func(d *parquetkafka.Delivery) {
//	        deliveries.WithLabelValues(d.Topic, d.Outcome.String()).Inc()
//	    },
//	}
//
// A failed delivery never stops the run.  A record that cannot be encoded is
// reported as Skipped and the run moves on to the next one.
//
// # Record Layout
//
// The record value is the UTF-8 JSON document, or a msgpack WRP SimpleEvent
// carrying it when Envelope is EnvelopeWRP.  KeyColumn selects a column for
// the record key, Headers adds literal or "column.<name>" headers, and every
// record carries a run-id header unless DisableRunID is set.
package parquetkafka
