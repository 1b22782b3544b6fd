package reaper

import (
	"context"
	"errors"
	"fmt"
	"github.com/Andrei15193/Savannah-sub000/internal/filesystem"
	"github.com/rs/zerolog/log"
	"io/fs"
	"path"
	"time"
)

// Sweep removes the temporary files last written at least maxAge ago and returns how many it
// removed. A file that cannot be removed is logged and skipped.
func (r *Reaper) Sweep(ctx context.Context, maxAge time.Duration) (int, error) {
	names, err := r.fs.ListFiles(ctx, filesystem.TempFolder)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to list temp folder: %w", err)
	}

	removed := 0
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		file := path.Join(filesystem.TempFolder, name)

		if maxAge > 0 {
			modified, err := r.fs.ModTime(ctx, file)
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			if err != nil {
				log.Warn().Err(err).Str("file", file).Msg("failed to stat temp file")
				continue
			}
			if r.now().Sub(modified) < maxAge {
				continue
			}
		}

		if err := r.fs.Delete(ctx, file); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				log.Warn().Err(err).Str("file", file).Msg("failed to remove stale temp file")
			}
			continue
		}
		removed++
	}

	r.metrics.ObserveSweep(removed)
	if removed > 0 {
		log.Info().Int("removed", removed).Msg("stale temp files removed")
	}
	return removed, nil
}
