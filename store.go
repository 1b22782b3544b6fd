package savannah

import (
	"context"
	"errors"
	"fmt"
	"github.com/Andrei15193/Savannah-sub000/internal/bucket"
	"github.com/Andrei15193/Savannah-sub000/internal/errs"
	"github.com/Andrei15193/Savannah-sub000/internal/filesystem"
	"github.com/Andrei15193/Savannah-sub000/internal/limits"
	"github.com/Andrei15193/Savannah-sub000/internal/merge"
	"github.com/Andrei15193/Savannah-sub000/internal/metrics"
	"github.com/Andrei15193/Savannah-sub000/internal/query"
	"github.com/Andrei15193/Savannah-sub000/internal/reaper"
	"github.com/Andrei15193/Savannah-sub000/internal/schema"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"io/fs"
	"strings"
	"time"
)

type Config struct {
	// RootDir is the directory holding the collections. It is ignored when FS is set.
	RootDir string
	// FS replaces the local file system rooted at RootDir.
	FS filesystem.FileSystem
	// Hash maps partition keys to bucket names; MD5 by default.
	Hash bucket.HashFunc
	// ScanWorkers bounds the number of buckets a query reads at the same time.
	ScanWorkers int
	// Registerer receives the store metrics; a private registry is used when nil.
	Registerer prometheus.Registerer
	// ReapInterval is the time between sweeps of stale temporary files; zero only sweeps at
	// start.
	ReapInterval time.Duration
	// ReapMaxAge is the age at which a periodic sweep considers a temporary file stale.
	ReapMaxAge time.Duration
	// Now is the clock used for record timestamps.
	Now func() time.Time
}

func (c *Config) validate() error {
	var errGrp []error
	if c.FS == nil && c.RootDir == "" {
		errGrp = append(errGrp, errors.New("root directory or file system is required"))
	}
	if c.ScanWorkers < 0 {
		errGrp = append(errGrp, errors.New("scan workers must not be negative"))
	}
	return errors.Join(errGrp...)
}

// Store owns the collections below one root. It is safe for concurrent use, except that
// writes to the same partition must not overlap.
type Store struct {
	fs       filesystem.FileSystem
	engine   *merge.Engine
	scanner  *query.Scanner
	reaper   *reaper.Reaper
	registry *schema.Registry
	metrics  *metrics.Metrics
	now      func() time.Time
}

// New creates a Store. It does not touch the file system; call Start before using it.
func New(cfg *Config) (*Store, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	fsys := cfg.FS
	if fsys == nil {
		local, err := filesystem.NewLocalFS(cfg.RootDir)
		if err != nil {
			return nil, err
		}
		fsys = local
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	m := metrics.New(cfg.Registerer)
	partitioner := bucket.NewPartitioner(cfg.Hash)

	engine, err := merge.New(&merge.Config{
		FS:          fsys,
		Partitioner: partitioner,
		Metrics:     m,
	})
	if err != nil {
		return nil, err
	}
	scanner, err := query.NewScanner(&query.Config{
		FS:          fsys,
		Partitioner: partitioner,
		Workers:     cfg.ScanWorkers,
		Metrics:     m,
	})
	if err != nil {
		return nil, err
	}

	gc, err := reaper.New(&reaper.Config{
		FS:       fsys,
		Interval: cfg.ReapInterval,
		MaxAge:   cfg.ReapMaxAge,
		Metrics:  m,
	})
	if err != nil {
		return nil, err
	}

	return &Store{
		fs:       fsys,
		engine:   engine,
		scanner:  scanner,
		reaper:   gc,
		registry: schema.NewRegistry(),
		metrics:  m,
		now:      now,
	}, nil
}

func (s *Store) Name() string {
	return "Savannah Store"
}

// Start creates the root and temporary folders and removes temporary files left behind by
// an interrupted process.
func (s *Store) Start() error {
	ctx := context.Background()
	if _, err := s.fs.CreateFolder(ctx, ""); err != nil {
		return fmt.Errorf("failed to create root folder: %w", err)
	}
	if _, err := s.fs.CreateFolder(ctx, filesystem.TempFolder); err != nil {
		return fmt.Errorf("failed to create temp folder: %w", err)
	}
	if err := s.reaper.Start(); err != nil {
		return err
	}

	log.Debug().Str("root", s.fs.Root()).Msg("store started")
	return nil
}

func (s *Store) Stop() error {
	if err := s.reaper.Stop(); err != nil {
		return err
	}
	log.Debug().Str("root", s.fs.Root()).Msg("store stopped")
	return nil
}

// Metrics returns the store metrics.
func (s *Store) Metrics() *metrics.Metrics {
	return s.metrics
}

// CreateCollection creates a collection, failing with ErrCollectionExists when it exists.
func (s *Store) CreateCollection(ctx context.Context, name string) error {
	created, err := s.CreateCollectionIfNotExists(ctx, name)
	if err != nil {
		return err
	}
	if !created {
		return errs.New(errs.ErrCollectionExists, "%s", name)
	}
	return nil
}

// CreateCollectionIfNotExists creates a collection and reports whether it did.
func (s *Store) CreateCollectionIfNotExists(ctx context.Context, name string) (bool, error) {
	if err := limits.CheckCollectionName(name); err != nil {
		return false, err
	}
	created, err := s.fs.CreateFolder(ctx, name)
	if err != nil {
		return false, fmt.Errorf("failed to create collection %s: %w", name, err)
	}
	if created {
		log.Debug().Str("collection", name).Msg("collection created")
	}
	return created, nil
}

// DeleteCollection removes a collection with all its records.
func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	if err := limits.CheckCollectionName(name); err != nil {
		return err
	}
	err := s.fs.DeleteFolder(ctx, name)
	if errors.Is(err, fs.ErrNotExist) {
		return errs.New(errs.ErrCollectionNotFound, "%s", name)
	}
	if err != nil {
		return fmt.Errorf("failed to delete collection %s: %w", name, err)
	}
	log.Debug().Str("collection", name).Msg("collection deleted")
	return nil
}

func (s *Store) CollectionExists(ctx context.Context, name string) (bool, error) {
	if err := limits.CheckCollectionName(name); err != nil {
		return false, err
	}
	return s.fs.FolderExists(ctx, name)
}

// ListCollections returns the collection names in ordinal order.
func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	folders, err := s.fs.ListFolders(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	names := make([]string, 0, len(folders))
	for _, f := range folders {
		if !strings.HasPrefix(f, ".") {
			names = append(names, f)
		}
	}
	return names, nil
}

// requireCollection fails with ErrCollectionNotFound when the collection is missing.
func (s *Store) requireCollection(ctx context.Context, name string) error {
	exists, err := s.fs.FolderExists(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		return errs.New(errs.ErrCollectionNotFound, "%s", name)
	}
	return nil
}
