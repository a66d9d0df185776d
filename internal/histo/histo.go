// Package histo provides a fixed-resolution value histogram that also tracks
// missing observations, used to build per-gate clutter intensity values.
package histo

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Histo is a histogram over [Min, Max] with bins of width Resolution.
// Values outside the range are clamped into the first or last bin.
type Histo struct {
	Min        float64
	Max        float64
	Resolution float64

	counts   []float64
	nData    int
	nMissing int
}

// New creates an empty histogram.
func New(min, max, resolution float64) (*Histo, error) {
	if resolution <= 0 || math.IsNaN(resolution) {
		return nil, fmt.Errorf("histogram resolution must be positive, got %v", resolution)
	}
	if !(max > min) {
		return nil, fmt.Errorf("histogram max (%v) must exceed min (%v)", max, min)
	}
	nbins := int(math.Ceil((max - min) / resolution))
	if nbins < 1 {
		nbins = 1
	}
	return &Histo{
		Min:        min,
		Max:        max,
		Resolution: resolution,
		counts:     make([]float64, nbins),
	}, nil
}

// NumBins returns the number of data bins.
func (h *Histo) NumBins() int { return len(h.counts) }

// NumData returns the number of data observations added.
func (h *Histo) NumData() int { return h.nData }

// NumMissing returns the number of missing observations added.
func (h *Histo) NumMissing() int { return h.nMissing }

// Add records a data value. NaN is recorded as missing.
func (h *Histo) Add(v float64) {
	if math.IsNaN(v) {
		h.AddMissing()
		return
	}
	h.counts[h.bin(v)]++
	h.nData++
}

// AddMissing records a missing pseudo-observation.
func (h *Histo) AddMissing() {
	h.nMissing++
}

// BinCentre returns the centre value of bin i.
func (h *Histo) BinCentre(i int) float64 {
	return h.Min + (float64(i)+0.5)*h.Resolution
}

func (h *Histo) bin(v float64) int {
	i := int(math.Floor((v - h.Min) / h.Resolution))
	if i < 0 {
		return 0
	}
	if i >= len(h.counts) {
		return len(h.counts) - 1
	}
	return i
}

// Percentile returns the value at fraction p (0..1) of all observations.
// Missing observations rank below every data value; when the rank lands
// among them, or nothing has been added, ok is false.
func (h *Histo) Percentile(p float64) (v float64, ok bool) {
	if h.nData+h.nMissing == 0 || math.IsNaN(p) {
		return 0, false
	}
	p = math.Max(0, math.Min(1, p))

	x := make([]float64, 0, len(h.counts)+1)
	w := make([]float64, 0, len(h.counts)+1)
	if h.nMissing > 0 {
		x = append(x, math.Inf(-1))
		w = append(w, float64(h.nMissing))
	}
	for i, c := range h.counts {
		if c == 0 {
			continue
		}
		x = append(x, h.BinCentre(i))
		w = append(w, c)
	}

	q := stat.Quantile(p, stat.Empirical, x, w)
	if math.IsInf(q, -1) {
		return 0, false
	}
	return q, true
}

// Reset clears all observations.
func (h *Histo) Reset() {
	for i := range h.counts {
		h.counts[i] = 0
	}
	h.nData = 0
	h.nMissing = 0
}
