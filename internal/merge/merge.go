// Package merge applies inserts and deletes to bucket files.
//
// A merge pass streams the current bucket into a fresh temporary file, interleaving the
// sorted edits with the sorted records it copies, and commits by atomically replacing the
// bucket with the temporary file. A pass that fails for any reason removes its temporary
// file and leaves the bucket as it was.
//
// The engine does not lock anything: two passes over the same bucket at the same time race
// and the last Replace wins. Callers serialize writes to one bucket.
package merge

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
	"io"
	"io/fs"
	"sort"
	"strings"
	"time"
)

// Kind is the kind of change an Edit makes.
type Kind uint8

const (
	Insert Kind = iota
	Delete
)

func (k Kind) String() string {
	switch k {
	case Insert:
		return "insert"
	case Delete:
		return "delete"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Edit is one change to a partition. Record is required for inserts and ignored for deletes.
type Edit struct {
	Kind   Kind
	RowKey string
	Record *record.Record
}

type Config struct {
	FS          filesystem.FileSystem
	Partitioner *bucket.Partitioner
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
	return errors.Join(errGrp...)
}

// Engine runs merge passes against the buckets of a file system.
type Engine struct {
	fs          filesystem.FileSystem
	partitioner *bucket.Partitioner
	metrics     *metrics.Metrics
}

// New creates an Engine.
func New(cfg *Config) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Engine{
		fs:          cfg.FS,
		partitioner: cfg.Partitioner,
		metrics:     cfg.Metrics,
	}, nil
}

// Apply applies edits to one partition of a collection in a single merge pass. The edits
// may come in any order but must target distinct row keys. Apply either commits all edits
// or none of them.
func (e *Engine) Apply(ctx context.Context, collection, partitionKey string, edits []Edit) (err error) {
	if len(edits) == 0 {
		return nil
	}
	sorted, err := sortEdits(partitionKey, edits)
	if err != nil {
		return err
	}

	start := time.Now()
	name := e.partitioner.Bucket(collection, partitionKey)
	written := 0
	defer func() {
		e.metrics.ObserveMerge(start, written, err)
		if err != nil {
			log.Debug().
				Str("bucket", name).
				Str("partition", partitionKey).
				Int("edits", len(edits)).
				Err(err).
				Msg("merge aborted")
		}
	}()

	src, err := e.open(ctx, name)
	if err != nil {
		return err
	}
	srcOpen := true
	defer func() {
		if srcOpen {
			_ = src.Close()
		}
	}()

	tmp, err := e.fs.CreateTemp(ctx)
	if err != nil {
		return fmt.Errorf("failed to create temp file for bucket %s: %w", name, err)
	}
	tmpOpen, committed := true, false
	defer func() {
		if tmpOpen {
			_ = tmp.Close()
		}
		if !committed {
			// the caller's context may be done already
			if delErr := e.fs.Delete(context.WithoutCancel(ctx), tmp.Name()); delErr != nil {
				log.Error().Err(delErr).Str("file", tmp.Name()).Msg("failed to remove temp file")
			}
		}
	}()

	m := &merger{
		ctx:          ctx,
		r:            bucket.NewReader(src),
		w:            bucket.NewWriter(tmp),
		partitionKey: partitionKey,
		edits:        sorted,
	}
	if err = m.run(); err != nil {
		return err
	}
	if err = m.w.Close(); err != nil {
		return fmt.Errorf("failed to write bucket %s: %w", name, err)
	}

	tmpOpen = false
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to write bucket %s: %w", name, err)
	}
	srcOpen = false
	if err = src.Close(); err != nil {
		return fmt.Errorf("failed to read bucket %s: %w", name, err)
	}
	if err = ctx.Err(); err != nil {
		return err
	}

	if err = e.fs.Replace(ctx, tmp.Name(), name); err != nil {
		return fmt.Errorf("failed to replace bucket %s: %w", name, err)
	}
	committed = true
	written = m.written

	log.Debug().
		Str("bucket", name).
		Str("partition", partitionKey).
		Int("edits", len(edits)).
		Int("written", m.written).
		Dur("duration", time.Since(start)).
		Msg("bucket merged")
	return nil
}

// open opens a bucket for reading; a bucket that does not exist reads as empty.
func (e *Engine) open(ctx context.Context, name string) (io.ReadCloser, error) {
	src, err := e.fs.OpenRead(ctx, name)
	if errors.Is(err, fs.ErrNotExist) {
		return io.NopCloser(strings.NewReader("")), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open bucket %s: %w", name, err)
	}
	return src, nil
}

func sortEdits(partitionKey string, edits []Edit) ([]Edit, error) {
	sorted := make([]Edit, len(edits))
	copy(sorted, edits)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].RowKey < sorted[j].RowKey
	})

	for i, edit := range sorted {
		if i > 0 && sorted[i-1].RowKey == edit.RowKey {
			return nil, errs.New(errs.ErrInvalidOperation, "row key %q is edited more than once", edit.RowKey)
		}
		if edit.Kind == Insert {
			if edit.Record == nil {
				return nil, errs.New(errs.ErrInvalidOperation, "insert of (%s, %s) carries no record", partitionKey, edit.RowKey)
			}
			if edit.Record.PartitionKey != partitionKey || edit.Record.RowKey != edit.RowKey {
				return nil, errs.New(errs.ErrInvalidOperation, "record (%s, %s) does not match edit (%s, %s)",
					edit.Record.PartitionKey, edit.Record.RowKey, partitionKey, edit.RowKey)
			}
		}
	}
	return sorted, nil
}
