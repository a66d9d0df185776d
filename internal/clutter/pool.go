package clutter

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/persistent-clutter/internal/monitoring"
	"github.com/banshee-data/persistent-clutter/internal/radx"
)

// Task is one unit of pool work: a ray of the current volume.
type Task struct {
	Index int
	Time  time.Time
	Ray   *radx.Ray
}

// RayFunc processes one extracted ray.
type RayFunc func(rd *RayData) error

// RayStats counts the outcome of processing the rays of one volume.
type RayStats struct {
	Processed        int
	NoMatch          int
	GeometryMismatch int
	MissingField     int
	Failed           int
}

// Skipped returns the number of rays that did not contribute.
func (s RayStats) Skipped() int {
	return s.NoMatch + s.GeometryMismatch + s.MissingField + s.Failed
}

type rayCounters struct {
	processed, noMatch, geometry, missing, failed atomic.Int64
}

func (c *rayCounters) record(err error) {
	switch {
	case err == nil:
		c.processed.Add(1)
	case errors.Is(err, ErrNoMatch):
		c.noMatch.Add(1)
	case errors.Is(err, ErrGeometryMismatch):
		c.geometry.Add(1)
	case errors.Is(err, ErrMissingField):
		c.missing.Add(1)
	default:
		c.failed.Add(1)
	}
}

func (c *rayCounters) stats() RayStats {
	return RayStats{
		Processed:        int(c.processed.Load()),
		NoMatch:          int(c.noMatch.Load()),
		GeometryMismatch: int(c.geometry.Load()),
		MissingField:     int(c.missing.Load()),
		Failed:           int(c.failed.Load()),
	}
}

// Pool processes the rays of a volume on a bounded number of goroutines.
// Field extraction is serialised by a single lock; the statistical update
// runs unlocked on the extracted copy. ProcessVolume returns only after
// every ray of the volume has been handled.
type Pool struct {
	workers int
	fieldMu sync.Mutex
}

// NewPool creates a pool with the given number of workers (at least one).
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{workers: workers}
}

// Workers returns the pool size.
func (p *Pool) Workers() int { return p.workers }

// Extract copies the named field out of ray under the extraction lock.
func (p *Pool) Extract(ray *radx.Ray, field string) (*RayData, error) {
	p.fieldMu.Lock()
	defer p.fieldMu.Unlock()
	return ExtractRay(ray, field)
}

// ProcessVolume runs fn over every ray of vol. Per-ray errors are logged and
// counted, never returned. Submission blocks while all workers are busy.
// The only error returned is the context's.
func (p *Pool) ProcessVolume(ctx context.Context, vol *radx.Volume, field string, fn RayFunc) (RayStats, error) {
	var counters rayCounters
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i, ray := range vol.Rays {
		if gctx.Err() != nil {
			break
		}
		task := Task{Index: i, Time: ray.Time, Ray: ray}
		g.Go(func() error {
			err := p.run(task, field, fn)
			counters.record(err)
			if err != nil {
				monitoring.Debugf("[Pool] ray %d az=%.2f elev=%.2f skipped: %v", task.Index, task.Ray.AzimuthDeg, task.Ray.ElevationDeg, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	return counters.stats(), ctx.Err()
}

func (p *Pool) run(task Task, field string, fn RayFunc) error {
	rd, err := p.Extract(task.Ray, field)
	if err != nil {
		return err
	}
	return fn(rd)
}
