// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package parquetkafka

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/twmb/franz-go/pkg/kgo"
	"golang.org/x/sync/errgroup"
)

const parquetExt = ".parquet"

// DefaultLoadConcurrency is the number of part files decoded at once when
// Loader.Concurrency is not set.
const DefaultLoadConcurrency = 4

// Loader reads a Parquet dataset fully into memory.
//
// A dataset is one of:
//   - a single Parquet file;
//   - a directory tree of part files, read in lexical path order, so
//     partition directories such as year=2015/ are included (hidden
//     entries and entries starting with "_", such as _SUCCESS markers or
//     _temporary/, are skipped);
//   - "s3://bucket/key" for a single object, or "s3://bucket/prefix/" for
//     every .parquet object below the prefix in key order.  A key with no
//     object behind it is read as the prefix "key/".
type Loader struct {
	// S3 fetches s3:// datasets.  When nil, one is built from the default
	// AWS configuration the first time it is needed.
	S3 *S3Source

	// Concurrency bounds how many part files are decoded at once.
	// Defaults to DefaultLoadConcurrency.
	Concurrency int

	// Logger is the logger instance (same interface as franz-go).
	// Optional. If nil, a no-op logger will be used.
	Logger kgo.Logger
}

// Load reads every row of the dataset at path using a default Loader.
func Load(ctx context.Context, path string) ([]Record, error) {
	var l Loader
	return l.Load(ctx, path)
}

// Load returns the rows of the dataset at path in file order.  Every failure
// is joined with ErrDataset.
func (l *Loader) Load(ctx context.Context, path string) ([]Record, error) {
	logger := l.Logger
	if logger == nil {
		logger = &nopLogger{}
	}

	var (
		records []Record
		err     error
	)
	if bucket, key, ok := parseS3URL(path); ok {
		records, err = l.loadS3(ctx, bucket, key, logger)
	} else {
		records, err = l.loadLocal(ctx, path, logger)
	}
	if err != nil {
		return nil, errors.Join(ErrDataset, fmt.Errorf("load %s", path), err)
	}

	logger.Log(kgo.LogLevelInfo, "dataset loaded", "path", path, "rows", len(records))
	return records, nil
}

func (l *Loader) loadS3(ctx context.Context, bucket, key string, logger kgo.Logger) ([]Record, error) {
	src := l.S3
	if src == nil {
		var err error
		src, err = NewS3Source(ctx, S3Config{})
		if err != nil {
			return nil, err
		}
		l.S3 = src
	}

	if key != "" && !strings.HasSuffix(key, "/") {
		data, err := src.get(ctx, bucket, key)
		if err == nil {
			return l.readParts(ctx, 1, func(context.Context, int) ([]Record, error) {
				return readObject(bucket, key, data, logger)
			})
		}

		var missing *types.NoSuchKey
		if !errors.As(err, &missing) {
			return nil, err
		}
		keys, lerr := src.list(ctx, bucket, key+"/")
		if lerr != nil || len(keys) == 0 {
			return nil, err
		}
		logger.Log(kgo.LogLevelDebug, "no object at key, reading it as a prefix", "bucket", bucket, "key", key)
		return l.readObjects(ctx, src, bucket, keys, logger)
	}

	keys, err := src.list(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("no %s objects under s3://%s/%s", parquetExt, bucket, key)
	}
	return l.readObjects(ctx, src, bucket, keys, logger)
}

func (l *Loader) readObjects(ctx context.Context, src *S3Source, bucket string, keys []string, logger kgo.Logger) ([]Record, error) {
	return l.readParts(ctx, len(keys), func(ctx context.Context, i int) ([]Record, error) {
		data, err := src.get(ctx, bucket, keys[i])
		if err != nil {
			return nil, err
		}
		return readObject(bucket, keys[i], data, logger)
	})
}

func readObject(bucket, key string, data []byte, logger kgo.Logger) ([]Record, error) {
	part, err := readParquet(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("s3://%s/%s: %w", bucket, key, err)
	}
	logger.Log(kgo.LogLevelDebug, "dataset part read", "object", key, "rows", len(part))
	return part, nil
}

func (l *Loader) loadLocal(ctx context.Context, path string, logger kgo.Logger) ([]Record, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	files := []string{path}
	if info.IsDir() {
		files, err = partFiles(path)
		if err != nil {
			return nil, err
		}
		if len(files) == 0 {
			return nil, fmt.Errorf("no %s files in directory", parquetExt)
		}
	}

	return l.readParts(ctx, len(files), func(_ context.Context, i int) ([]Record, error) {
		part, err := readFile(files[i])
		if err != nil {
			return nil, err
		}
		logger.Log(kgo.LogLevelDebug, "dataset part read", "file", files[i], "rows", len(part))
		return part, nil
	})
}

// readParts decodes n parts concurrently and concatenates them in part
// order, numbering records across the whole dataset.
func (l *Loader) readParts(ctx context.Context, n int, read func(context.Context, int) ([]Record, error)) ([]Record, error) {
	limit := l.Concurrency
	if limit <= 0 {
		limit = DefaultLoadConcurrency
	}

	parts := make([][]Record, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := range n {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			part, err := read(gctx, i)
			if err != nil {
				return err
			}
			parts[i] = part
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var records []Record
	for _, part := range parts {
		for _, rec := range part {
			rec.Index = len(records)
			records = append(records, rec)
		}
	}
	return records, nil
}

func readFile(name string) ([]Record, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	records, err := readParquet(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return records, nil
}

// partFiles lists the Parquet part files below a dataset directory.
// WalkDir visits entries in lexical order, which fixes the part order.
func partFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == dir {
			return nil
		}
		if d.IsDir() {
			if isHiddenName(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && isPartName(d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func isHiddenName(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}

func isPartName(name string) bool {
	base := filepath.Base(name)
	return !isHiddenName(base) && strings.HasSuffix(base, parquetExt)
}

// isPartPath reports whether a slash separated path names a part file with
// no hidden directory along the way.
func isPartPath(path string) bool {
	dirs := strings.Split(path, "/")
	name := dirs[len(dirs)-1]
	for _, d := range dirs[:len(dirs)-1] {
		if d != "" && isHiddenName(d) {
			return false
		}
	}
	return isPartName(name)
}

// parseS3URL splits "s3://bucket/key" into its parts.
func parseS3URL(path string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(path, "s3://")
	if !found {
		return "", "", false
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", false
	}
	return bucket, key, true
}
