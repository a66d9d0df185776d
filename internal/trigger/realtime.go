package trigger

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/banshee-data/persistent-clutter/internal/monitoring"
	"github.com/banshee-data/persistent-clutter/internal/radx"
	"github.com/banshee-data/persistent-clutter/internal/timeutil"
)

// RealtimeOptions configures a Realtime source.
type RealtimeOptions struct {
	PollInterval time.Duration
	MaxWait      time.Duration  // end of stream after this long without new data
	Clock        timeutil.Clock // defaults to timeutil.RealClock
}

// Realtime watches a directory for new volume files and yields them in time
// order. Only files newer than the last yielded one are considered. The
// stream ends after MaxWait with no new file. Rewind replays the files
// already yielded before resuming the watch.
type Realtime struct {
	dir     string
	opts    RealtimeOptions
	ticker  timeutil.Ticker
	yielded []string
	replay  int // index into yielded while rewound; len(yielded) when live
	last    time.Time
	lastNew time.Time
}

// NewRealtime starts watching dir.
func NewRealtime(dir string, opts RealtimeOptions) (*Realtime, error) {
	if dir == "" {
		return nil, fmt.Errorf("realtime mode requires an input directory")
	}
	if opts.PollInterval <= 0 {
		return nil, fmt.Errorf("realtime poll interval must be positive, got %v", opts.PollInterval)
	}
	if opts.Clock == nil {
		opts.Clock = timeutil.RealClock{}
	}
	r := &Realtime{
		dir:     dir,
		opts:    opts,
		ticker:  opts.Clock.NewTicker(opts.PollInterval),
		lastNew: opts.Clock.Now(),
	}
	monitoring.Logf("[trigger] realtime: watching %s every %v (max wait %v)", dir, opts.PollInterval, opts.MaxWait)
	return r, nil
}

// Next returns the next volume, blocking until one arrives.
func (r *Realtime) Next(ctx context.Context) (*radx.Volume, error) {
	if r.replay < len(r.yielded) {
		path := r.yielded[r.replay]
		r.replay++
		return radx.ReadVolume(path)
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f, ok, err := r.poll()
		if err != nil {
			return nil, err
		}
		if ok {
			r.last = f.t
			r.lastNew = r.opts.Clock.Now()
			r.yielded = append(r.yielded, f.path)
			r.replay = len(r.yielded)
			return radx.ReadVolume(f.path)
		}
		if r.opts.MaxWait > 0 && r.opts.Clock.Since(r.lastNew) >= r.opts.MaxWait {
			monitoring.Logf("[trigger] realtime: no new data for %v", r.opts.MaxWait)
			return nil, io.EOF
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-r.ticker.C():
		}
	}
}

// poll returns the oldest file newer than the last yielded one.
func (r *Realtime) poll() (volumeFile, bool, error) {
	files, err := scanDir(r.dir, func(t time.Time) bool {
		return r.last.IsZero() || t.After(r.last)
	})
	if err != nil {
		return volumeFile{}, false, err
	}
	if len(files) == 0 {
		return volumeFile{}, false, nil
	}
	return files[0], true, nil
}

// Rewind replays the yielded files from the first.
func (r *Realtime) Rewind() error {
	r.replay = 0
	return nil
}

// Close stops the poll ticker.
func (r *Realtime) Close() error {
	r.ticker.Stop()
	return nil
}
