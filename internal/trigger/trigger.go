// Package trigger provides the volume sources that feed the clutter passes:
// a time-windowed archive directory, an explicit file list, and a realtime
// directory watcher.
package trigger

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/banshee-data/persistent-clutter/internal/config"
	"github.com/banshee-data/persistent-clutter/internal/radx"
	"github.com/banshee-data/persistent-clutter/internal/timeutil"
)

// ErrNoVolumes is returned when a source has nothing to read.
var ErrNoVolumes = errors.New("no volumes found")

// Source yields volumes in time order and io.EOF at the end of the stream.
type Source interface {
	Next(ctx context.Context) (*radx.Volume, error)
	// Rewind restarts the stream from its first volume.
	Rewind() error
	Close() error
}

// New builds the source selected by cfg. Positional file arguments override
// the configured file list in filelist mode.
func New(cfg *config.Config, files []string, clock timeutil.Clock) (Source, error) {
	switch mode := cfg.GetMode(); mode {
	case config.ModeArchive:
		return NewArchive(cfg.GetInputDir(), cfg.GetStartTime(), cfg.GetEndTime())
	case config.ModeFilelist:
		if len(files) == 0 {
			files = cfg.FileList
		}
		return NewFileList(files)
	case config.ModeRealtime:
		return NewRealtime(cfg.GetInputDir(), RealtimeOptions{
			PollInterval: cfg.GetRealtimePollInterval(),
			MaxWait:      cfg.GetRealtimeMaxWait(),
			Clock:        clock,
		})
	default:
		return nil, fmt.Errorf("unknown trigger mode %q", mode)
	}
}

// listSource reads an ordered list of volume files.
type listSource struct {
	paths []string
	pos   int
}

func (s *listSource) Next(ctx context.Context) (*radx.Volume, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.pos >= len(s.paths) {
		return nil, io.EOF
	}
	path := s.paths[s.pos]
	s.pos++
	return radx.ReadVolume(path)
}

func (s *listSource) Rewind() error {
	s.pos = 0
	return nil
}

func (s *listSource) Close() error { return nil }

// Paths returns the files the source reads, in order.
func (s *listSource) Paths() []string {
	return append([]string(nil), s.paths...)
}
