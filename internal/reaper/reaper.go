// Package reaper removes temporary files that no merge pass will promote anymore.
//
// A merge pass deletes its temporary file itself, so leftovers only appear when the process
// dies mid-merge or the delete fails. Sweeping at start removes every temporary file; the
// periodic sweep only removes files older than MaxAge so it never races a running merge.
package reaper

import (
	"context"
	"errors"
	"github.com/Andrei15193/Savannah-sub000/internal/filesystem"
	"github.com/Andrei15193/Savannah-sub000/internal/metrics"
	"sync"
	"sync/atomic"
	"time"
)

const defaultMaxAge = time.Hour

type Reaper struct {
	fs       filesystem.FileSystem
	metrics  *metrics.Metrics
	interval time.Duration
	maxAge   time.Duration
	now      func() time.Time

	running atomic.Bool
	wg      sync.WaitGroup
	procCtx context.Context
	cancel  context.CancelFunc
}

type Config struct {
	FS filesystem.FileSystem
	// Interval between periodic sweeps; zero only sweeps at start.
	Interval time.Duration
	// MaxAge is the age a temporary file must reach before a periodic sweep removes it.
	MaxAge  time.Duration
	Metrics *metrics.Metrics
	Now     func() time.Time
}

func (c *Config) validate() error {
	var errGrp []error
	if c.FS == nil {
		errGrp = append(errGrp, errors.New("file system cannot be nil"))
	}
	if c.Interval < 0 {
		errGrp = append(errGrp, errors.New("interval must not be negative"))
	}
	if c.MaxAge < 0 {
		errGrp = append(errGrp, errors.New("max age must not be negative"))
	}
	return errors.Join(errGrp...)
}

// New creates a new Reaper.
func New(cfg *Config) (*Reaper, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	maxAge := cfg.MaxAge
	if maxAge == 0 {
		maxAge = defaultMaxAge
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Reaper{
		fs:       cfg.FS,
		metrics:  cfg.Metrics,
		interval: cfg.Interval,
		maxAge:   maxAge,
		now:      now,
	}, nil
}

// Start removes every temporary file and, when an interval is set, keeps sweeping old ones
// in the background until Stop.
func (r *Reaper) Start() error {
	if !r.running.CompareAndSwap(false, true) {
		return errors.New("reaper is already running")
	}
	if _, err := r.Sweep(context.Background(), 0); err != nil {
		r.running.Store(false)
		return err
	}
	if r.interval == 0 {
		return nil
	}

	// create a cancel context to ensure the sweeper shuts down gracefully
	r.procCtx, r.cancel = context.WithCancel(context.Background())
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-r.procCtx.Done():
				return
			case <-ticker.C:
				// failures are logged by Sweep and retried on the next tick
				_, _ = r.Sweep(r.procCtx, r.maxAge)
			}
		}
	}()
	return nil
}

func (r *Reaper) Stop() error {
	if r.cancel != nil {
		r.cancel()
	}
	// wait for a sweep in progress
	r.wg.Wait()
	r.running.Store(false)
	return nil
}

func (r *Reaper) Name() string {
	return "Reaper"
}
