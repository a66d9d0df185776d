package clutter

import (
	"fmt"

	"github.com/banshee-data/persistent-clutter/internal/histo"
)

// HistoInfo is the second pass accumulator for one bucket. It holds the
// final first pass clutter flags and a value histogram for each flagged gate.
// Gates that were not flagged never get a histogram.
type HistoInfo struct {
	*ClutterInfo

	histos map[int]*histo.Histo
}

// NewHistoInfo builds a histogram accumulator from a finished first pass
// accumulator. ci is cloned, so later changes to it are not seen.
func NewHistoInfo(ci *ClutterInfo, min, max, resolution float64) (*HistoInfo, error) {
	base := ci.Clone()
	h := &HistoInfo{ClutterInfo: base, histos: make(map[int]*histo.Histo)}
	for i, flagged := range base.clutter {
		if !flagged {
			continue
		}
		hg, err := histo.New(min, max, resolution)
		if err != nil {
			return nil, fmt.Errorf("bucket %s gate %d: %w", base.Key, i, err)
		}
		h.histos[i] = hg
	}
	return h, nil
}

// NumHistograms returns the number of gates carrying a histogram.
func (h *HistoInfo) NumHistograms() int {
	return len(h.histos)
}

// Histogram returns the histogram of gate i, if it has one.
func (h *HistoInfo) Histogram(i int) (*histo.Histo, bool) {
	hg, ok := h.histos[i]
	return hg, ok
}

// UpdateSecondPass feeds every clutter gate's histogram with the ray's value
// at that gate, or a missing observation when the value is missing.
// Returns false without updating when the geometry differs.
func (h *HistoInfo) UpdateSecondPass(rd *RayData) bool {
	if !h.GeometryMatches(rd) {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, hg := range h.histos {
		if i >= len(rd.Values) {
			continue
		}
		v := rd.Values[i]
		if rd.IsMissing(v) {
			hg.AddMissing()
		} else {
			hg.Add(v)
		}
	}
	return true
}

// SetClutter fills out for output. Clutter gates get the percentile value of
// their histogram, or missingClutterValue when that percentile is missing.
// All other gates copy in. percentile is a fraction in [0, 1].
func (h *HistoInfo) SetClutter(out, in []float64, percentile, missingClutterValue float64) bool {
	if len(out) != len(in) {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := range out {
		hg, ok := h.histos[i]
		if !ok {
			out[i] = in[i]
			continue
		}
		if v, ok := hg.Percentile(percentile); ok {
			out[i] = v
		} else {
			out[i] = missingClutterValue
		}
	}
	return true
}
