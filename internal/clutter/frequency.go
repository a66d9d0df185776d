package clutter

import (
	"math"
	"strconv"
)

// FrequencyCount is a normalised histogram of per-gate scores in [0, 1],
// where a gate's score is its count divided by the number of scans.
type FrequencyCount struct {
	counts []float64
	total  float64
	nscan  int
}

// NewFrequencyCount creates an empty histogram with nbins bins for counts
// out of nscan scans.
func NewFrequencyCount(nbins, nscan int) *FrequencyCount {
	if nbins < 1 {
		nbins = 1
	}
	return &FrequencyCount{counts: make([]float64, nbins), nscan: nscan}
}

// NumBins returns the number of bins.
func (f *FrequencyCount) NumBins() int { return len(f.counts) }

// Total returns the number of scores recorded.
func (f *FrequencyCount) Total() float64 { return f.total }

// Update records a score. Scores are clamped to [0, 1] and land in bin
// round(v*(nbins-1)).
func (f *FrequencyCount) Update(v float64) {
	if math.IsNaN(v) {
		return
	}
	v = math.Max(0, math.Min(1, v))
	i := int(math.Round(v * float64(len(f.counts)-1)))
	f.counts[i]++
	f.total++
}

// AddCount records a raw count, normalised by the number of scans.
func (f *FrequencyCount) AddCount(count int) {
	if f.nscan <= 0 {
		return
	}
	f.Update(float64(count) / float64(f.nscan))
}

// Fractions returns the fraction of scores in each bin.
func (f *FrequencyCount) Fractions() []float64 {
	out := make([]float64, len(f.counts))
	if f.total == 0 {
		return out
	}
	for i, c := range f.counts {
		out[i] = c / f.total
	}
	return out
}

// AppendString appends the bin fractions, space separated with ten decimal
// places, to b.
func (f *FrequencyCount) AppendString(b []byte) []byte {
	for i, v := range f.Fractions() {
		if i > 0 {
			b = append(b, ' ')
		}
		b = strconv.AppendFloat(b, v, 'f', 10, 64)
	}
	return b
}
