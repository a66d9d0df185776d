package clutter

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/banshee-data/persistent-clutter/internal/monitoring"
	"github.com/banshee-data/persistent-clutter/internal/radx"
)

// Source yields volumes in time order and io.EOF at the end of the stream.
type Source interface {
	Next(ctx context.Context) (*radx.Volume, error)
}

// RewindableSource can restart from its first volume.
type RewindableSource interface {
	Source
	Rewind() error
}

// Pass is the behaviour that distinguishes the two passes. The runner calls
// InitFirstTime with the first volume, ProcessRay concurrently for every ray
// of every volume, and FinishVolume after the rays of a volume are done.
type Pass interface {
	Name() string
	InitFirstTime(vol *radx.Volume) error
	ProcessRay(rd *RayData) error
	FinishVolume(ctx context.Context, vol *radx.Volume, stats RayStats) (done bool, err error)
	// FinishBad is called when the stream ends before the pass is done.
	FinishBad() error
}

// Runner drives a pass over a source.
type Runner struct {
	Pool  *Pool
	Field string
}

// NewRunner creates a runner extracting field on a pool of workers.
func NewRunner(field string, workers int) *Runner {
	return &Runner{Pool: NewPool(workers), Field: field}
}

// Run reads volumes from src until the pass reports done, the source ends,
// or ctx is cancelled. It returns the number of volumes processed.
func (r *Runner) Run(ctx context.Context, src Source, pass Pass) (int, error) {
	nvol := 0
	for {
		if err := ctx.Err(); err != nil {
			return nvol, err
		}
		vol, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			monitoring.Logf("[Runner] %s: end of data after %d volumes", pass.Name(), nvol)
			return nvol, pass.FinishBad()
		}
		if err != nil {
			return nvol, fmt.Errorf("%s: read volume: %w", pass.Name(), err)
		}

		if nvol == 0 {
			if err := pass.InitFirstTime(vol); err != nil {
				return nvol, fmt.Errorf("%s: init: %w", pass.Name(), err)
			}
		}

		stats, err := r.Pool.ProcessVolume(ctx, vol, r.Field, pass.ProcessRay)
		if err != nil {
			return nvol, err
		}
		nvol++
		if skipped := stats.Skipped(); skipped > 0 {
			monitoring.Logf("[Runner] %s: WARNING: volume %s skipped %d of %d rays (no match %d, geometry %d, missing field %d, failed %d)",
				pass.Name(), vol.Time().Format("2006-01-02T15:04:05"), skipped, len(vol.Rays),
				stats.NoMatch, stats.GeometryMismatch, stats.MissingField, stats.Failed)
		}

		done, err := pass.FinishVolume(ctx, vol, stats)
		if err != nil {
			return nvol, fmt.Errorf("%s: finish volume: %w", pass.Name(), err)
		}
		if done {
			return nvol, nil
		}
	}
}
