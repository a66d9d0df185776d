// Package diag writes first pass diagnostics: per-volume ASCII tables, a
// convergence plot and an HTML convergence chart.
package diag

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/banshee-data/persistent-clutter/internal/clutter"
)

// TimeLayout is the time format of diagnostic lines.
const TimeLayout = "2006-01-02T15:04:05"

// lineWriter appends lines to a file, flushing after every line so the file
// can be tailed during a run.
type lineWriter struct {
	mu sync.Mutex
	f  *os.File
	w  *bufio.Writer
}

func openLineWriter(path string) (*lineWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create diagnostic dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return &lineWriter{f: f, w: bufio.NewWriter(f)}, nil
}

func (lw *lineWriter) writeLine(b []byte) error {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	b = append(b, '\n')
	if _, err := lw.w.Write(b); err != nil {
		return err
	}
	return lw.w.Flush()
}

func (lw *lineWriter) Close() error {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	if err := lw.w.Flush(); err != nil {
		lw.f.Close()
		return err
	}
	return lw.f.Close()
}

// ThresholdLog writes one "time threshold% change%" line per volume.
type ThresholdLog struct {
	*lineWriter
}

// NewThresholdLog creates (truncating) the threshold table at path.
func NewThresholdLog(path string) (*ThresholdLog, error) {
	lw, err := openLineWriter(path)
	if err != nil {
		return nil, err
	}
	return &ThresholdLog{lw}, nil
}

// ObserveVolume implements clutter.VolumeObserver.
func (l *ThresholdLog) ObserveVolume(stat clutter.VolumeStat, _ *clutter.FrequencyCount) error {
	line := fmt.Appendf(nil, "%s %.6f %.6f", stat.Time.UTC().Format(TimeLayout), stat.ThresholdPercent(), stat.ChangePercent())
	return l.writeLine(line)
}

// HistogramLog writes one "time f0 f1 ..." line per volume with the
// normalised frequency histogram of gate counts.
type HistogramLog struct {
	*lineWriter
}

// NewHistogramLog creates (truncating) the histogram table at path.
func NewHistogramLog(path string) (*HistogramLog, error) {
	lw, err := openLineWriter(path)
	if err != nil {
		return nil, err
	}
	return &HistogramLog{lw}, nil
}

// ObserveVolume implements clutter.VolumeObserver.
func (l *HistogramLog) ObserveVolume(stat clutter.VolumeStat, freq *clutter.FrequencyCount) error {
	line := append([]byte(stat.Time.UTC().Format(TimeLayout)), ' ')
	if freq != nil {
		line = freq.AppendString(line)
	}
	return l.writeLine(line)
}
