package clutter

import (
	"math"
	"time"
)

// VolumeStat records the first pass state after one volume.
type VolumeStat struct {
	Index          int // 1-based volume number
	Time           time.Time
	KStar          int
	Threshold      float64 // KStar / Index
	ChangeFraction float64 // NChange / NGates
	NChange        int
	NClutter       int
	NGates         int
}

// ThresholdPercent returns Threshold as a percentage.
func (s VolumeStat) ThresholdPercent() float64 { return 100 * s.Threshold }

// ChangePercent returns ChangeFraction as a percentage.
func (s VolumeStat) ChangePercent() float64 { return 100 * s.ChangeFraction }

// History is the sequence of per-volume first pass statistics.
type History struct {
	stats []VolumeStat
}

// Add appends a volume's statistics.
func (h *History) Add(s VolumeStat) {
	h.stats = append(h.stats, s)
}

// Len returns the number of volumes recorded.
func (h *History) Len() int { return len(h.stats) }

// Stats returns a copy of the recorded statistics.
func (h *History) Stats() []VolumeStat {
	return append([]VolumeStat(nil), h.stats...)
}

// Latest returns the most recent statistics.
func (h *History) Latest() (VolumeStat, bool) {
	if len(h.stats) == 0 {
		return VolumeStat{}, false
	}
	return h.stats[len(h.stats)-1], true
}

// Converged reports whether the last minStable volumes each changed at most
// maxPercentChange percent of gates and had a threshold within
// thresholdTol of the latest threshold. It depends only on that window.
func (h *History) Converged(minStable int, maxPercentChange, thresholdTol float64) bool {
	if minStable < 1 || len(h.stats) < minStable {
		return false
	}
	window := h.stats[len(h.stats)-minStable:]
	latest := window[len(window)-1].Threshold
	for _, s := range window {
		if s.ChangePercent() > maxPercentChange {
			return false
		}
		if math.Abs(s.Threshold-latest) > thresholdTol {
			return false
		}
	}
	return true
}
