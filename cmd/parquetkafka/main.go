// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

// Command parquetkafka replays a Parquet dataset into a Kafka topic, one
// JSON document per row with a fixed pause between rows.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/twmb/franz-go/plugin/kslog"
	"github.com/xmidt-org/parquetkafka"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one replay and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := loadConfig(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "parquetkafka: %v\n", err)
		return 1
	}

	logger := newLogger(cfg.Log, stdout)

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.MetricsAddr != "" {
		startMetricsServer(ctx, cfg.MetricsAddr, logger)
	}

	kafkaLogger := kslog.New(logger)

	publisher, err := cfg.Publisher(kafkaLogger)
	if err != nil {
		logger.Error("invalid publisher configuration", "error", err)
		return 1
	}
	publisher.InitialDeliveryListeners = append(publisher.InitialDeliveryListeners, observeDelivery)

	connectCtx := ctx
	if cfg.Kafka.ConnectTimeout > 0 {
		var connectCancel context.CancelFunc
		connectCtx, connectCancel = context.WithTimeout(ctx, cfg.Kafka.ConnectTimeout)
		defer connectCancel()
	}

	if err := publisher.Start(connectCtx); err != nil {
		logger.Error("failed to connect to kafka", "brokers", cfg.Kafka.Brokers, "error", err)
		return 1
	}
	defer publisher.Stop(context.Background())

	loader := parquetkafka.Loader{
		Logger:      kafkaLogger,
		Concurrency: cfg.LoadConcurrency,
	}
	if strings.HasPrefix(cfg.Dataset, "s3://") {
		loader.S3, err = parquetkafka.NewS3Source(ctx, cfg.S3.source())
		if err != nil {
			logger.Error("failed to configure s3", "error", err)
			return 1
		}
	}

	records, err := loader.Load(ctx, cfg.Dataset)
	if err != nil {
		logger.Error("failed to load dataset", "dataset", cfg.Dataset, "error", err)
		return 1
	}
	datasetRows.Set(float64(len(records)))

	summary, err := publisher.Run(ctx, records)
	if err != nil {
		logger.Warn("run interrupted", "error", err)
	}

	publisher.Stop(context.Background())

	logger.Info("run complete",
		"run_id", publisher.RunID(),
		"records", summary.Records,
		"submitted", summary.Submitted,
		"skipped", summary.Skipped,
	)
	return 0
}
