package query

import (
	"context"
	"errors"
	"fmt"
	"github.com/Andrei15193/Savannah-sub000/internal/bucket"
	"github.com/Andrei15193/Savannah-sub000/internal/errs"
	"github.com/Andrei15193/Savannah-sub000/internal/filesystem"
	"github.com/Andrei15193/Savannah-sub000/internal/metrics"
	"github.com/Andrei15193/Savannah-sub000/internal/record"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"io/fs"
	"sort"
	"sync/atomic"
	"time"
)

const defaultWorkers = 4

type Config struct {
	FS          filesystem.FileSystem
	Partitioner *bucket.Partitioner
	Workers     int
	Metrics     *metrics.Metrics
}

func (c *Config) validate() error {
	var errGrp []error
	if c.FS == nil {
		errGrp = append(errGrp, fmt.Errorf("file system is required"))
	}
	if c.Partitioner == nil {
		errGrp = append(errGrp, fmt.Errorf("partitioner is required"))
	}
	if c.Workers < 0 {
		errGrp = append(errGrp, fmt.Errorf("workers must not be negative"))
	}
	return errors.Join(errGrp...)
}

// Scanner reads the buckets of a collection.
type Scanner struct {
	fs          filesystem.FileSystem
	partitioner *bucket.Partitioner
	workers     int
	metrics     *metrics.Metrics
}

func NewScanner(cfg *Config) (*Scanner, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	workers := cfg.Workers
	if workers == 0 {
		workers = defaultWorkers
	}
	return &Scanner{
		fs:          cfg.FS,
		partitioner: cfg.Partitioner,
		workers:     workers,
		metrics:     cfg.Metrics,
	}, nil
}

// Run scans the buckets the plan can match, one worker per bucket, and returns the first
// take matching records in key order; take <= 0 returns all of them.
func (s *Scanner) Run(ctx context.Context, collection string, plan *Plan, take int) (records []*record.Record, err error) {
	start := time.Now()
	if err := Validate(plan.filter); err != nil {
		return nil, err
	}
	buckets, err := s.buckets(ctx, collection, plan)
	if err != nil {
		return nil, err
	}

	var scanned, matched atomic.Int64
	results := NewConcurrentResultBuilder(take)
	defer func() {
		s.metrics.ObserveQuery(int(scanned.Load()), int(matched.Load()), err)
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, name := range buckets {
		name := name
		g.Go(func() error {
			found, n, err := s.scanBucket(gctx, name, plan, results)
			if found {
				scanned.Add(1)
			}
			matched.Add(int64(n))
			return err
		})
	}
	if err = g.Wait(); err != nil {
		return nil, err
	}

	records = results.Records()
	log.Debug().
		Str("collection", collection).
		Int("buckets", len(buckets)).
		Int64("matched", matched.Load()).
		Int("returned", len(records)).
		Dur("duration", time.Since(start)).
		Msg("query completed")
	return records, nil
}

// buckets lists the bucket files to scan. When the plan names partition keys only their
// buckets are scanned.
func (s *Scanner) buckets(ctx context.Context, collection string, plan *Plan) ([]string, error) {
	if plan.PartitionKeys != nil {
		seen := make(map[string]struct{}, len(plan.PartitionKeys))
		names := make([]string, 0, len(plan.PartitionKeys))
		for _, pk := range plan.PartitionKeys {
			name := s.partitioner.Bucket(collection, pk)
			if _, ok := seen[name]; !ok {
				seen[name] = struct{}{}
				names = append(names, name)
			}
		}
		sort.Strings(names)
		return names, nil
	}

	files, err := s.fs.ListFiles(ctx, collection)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errs.New(errs.ErrCollectionNotFound, "%s", collection)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list buckets of %s: %w", collection, err)
	}
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = collection + "/" + f
	}
	return names, nil
}

// scanBucket feeds the matching records of one bucket to results and returns how many
// matched. It reports false when the bucket does not exist.
func (s *Scanner) scanBucket(ctx context.Context, name string, plan *Plan, results *ConcurrentResultBuilder) (bool, int, error) {
	src, err := s.fs.OpenRead(ctx, name)
	if errors.Is(err, fs.ErrNotExist) {
		return false, 0, nil
	}
	if err != nil {
		return false, 0, fmt.Errorf("failed to open bucket %s: %w", name, err)
	}
	defer src.Close()

	r := bucket.NewReader(src)
	n := 0
	for {
		key, ok, err := r.NextPartition()
		if err != nil {
			return true, n, fmt.Errorf("failed to read bucket %s: %w", name, err)
		}
		if !ok {
			return true, n, nil
		}
		if !plan.allowsPartition(key) {
			continue
		}

		for {
			if err := ctx.Err(); err != nil {
				return true, n, err
			}
			rec, ok, err := r.NextRecord()
			if err != nil {
				return true, n, fmt.Errorf("failed to read bucket %s: %w", name, err)
			}
			if !ok {
				break
			}
			if !plan.allowsRow(rec.RowKey) {
				continue
			}

			matched, err := plan.MatchRecord(rec)
			if err != nil {
				return true, n, err
			}
			if matched {
				n++
				results.Add(rec)
			}
		}
	}
}

// Lookup returns the record stored under the given keys, or errs.ErrNotFound.
func (s *Scanner) Lookup(ctx context.Context, collection, partitionKey, rowKey string) (*record.Record, error) {
	name := s.partitioner.Bucket(collection, partitionKey)
	src, err := s.fs.OpenRead(ctx, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errs.New(errs.ErrNotFound, "(%s, %s)", partitionKey, rowKey)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open bucket %s: %w", name, err)
	}
	defer src.Close()

	r := bucket.NewReader(src)
	for {
		key, ok, err := r.NextPartition()
		if err != nil {
			return nil, fmt.Errorf("failed to read bucket %s: %w", name, err)
		}
		// partitions are sorted, nothing further can match
		if !ok || key > partitionKey {
			return nil, errs.New(errs.ErrNotFound, "(%s, %s)", partitionKey, rowKey)
		}
		if key < partitionKey {
			continue
		}

		for {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			rec, ok, err := r.NextRecord()
			if err != nil {
				return nil, fmt.Errorf("failed to read bucket %s: %w", name, err)
			}
			if !ok || rec.RowKey > rowKey {
				return nil, errs.New(errs.ErrNotFound, "(%s, %s)", partitionKey, rowKey)
			}
			if rec.RowKey == rowKey {
				return rec, nil
			}
		}
	}
}
