package clutter

import (
	"math"
	"sync"
)

// geometryEpsilon is the tolerance, in km, for range geometry matching.
const geometryEpsilon = 1e-6

// ClutterInfo accumulates first pass counts for one AzElev bucket: the number
// of volumes in which each gate met the threshold, and the current clutter
// flag per gate.
type ClutterInfo struct {
	Key           AzElev
	StartRangeKm  float64
	GateSpacingKm float64
	NGates        int

	mu      sync.Mutex
	counts  []int
	clutter []bool
}

// NewClutterInfo creates an empty accumulator with the given geometry.
func NewClutterInfo(key AzElev, startRangeKm, gateSpacingKm float64, ngates int) *ClutterInfo {
	return &ClutterInfo{
		Key:           key,
		StartRangeKm:  startRangeKm,
		GateSpacingKm: gateSpacingKm,
		NGates:        ngates,
		counts:        make([]int, ngates),
		clutter:       make([]bool, ngates),
	}
}

// GeometryMatches reports whether the ray's range geometry equals the
// accumulator's.
func (c *ClutterInfo) GeometryMatches(rd *RayData) bool {
	return math.Abs(rd.StartRangeKm-c.StartRangeKm) <= geometryEpsilon &&
		math.Abs(rd.GateSpacingKm-c.GateSpacingKm) <= geometryEpsilon
}

// Update increments the count of every valid gate whose value is at least
// threshold. Gates beyond either the accumulator's or the ray's gate count
// are ignored. Returns false without updating when the geometry differs.
func (c *ClutterInfo) Update(rd *RayData, threshold float64) bool {
	if !c.GeometryMatches(rd) {
		return false
	}
	n := min(c.NGates, len(rd.Values))

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := 0; i < n; i++ {
		v := rd.Values[i]
		if rd.IsMissing(v) {
			continue
		}
		if v >= threshold {
			c.counts[i]++
		}
	}
	return true
}

// EqualOrExceed writes 1 where the count is at least k and 0 elsewhere.
// Returns false when out is shorter than the accumulator.
func (c *ClutterInfo) EqualOrExceed(out []float64, k int) bool {
	if len(out) < c.NGates {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, cnt := range c.counts {
		if cnt >= k {
			out[i] = 1
		} else {
			out[i] = 0
		}
	}
	return true
}

// LoadNormalizedFrequency writes count/n per gate.
func (c *ClutterInfo) LoadNormalizedFrequency(out []float64, n int) bool {
	if len(out) < c.NGates || n <= 0 {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, cnt := range c.counts {
		out[i] = float64(cnt) / float64(n)
	}
	return true
}

// UpdateClutter recomputes the clutter flags as count >= k. It returns the
// number of gates whose flag changed and the number of gates now flagged.
// Every gate's count is added to fc when fc is non-nil.
func (c *ClutterInfo) UpdateClutter(k int, fc *FrequencyCount) (changed, nClutter int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, cnt := range c.counts {
		flag := cnt >= k
		if flag != c.clutter[i] {
			changed++
			c.clutter[i] = flag
		}
		if flag {
			nClutter++
		}
		if fc != nil {
			fc.AddCount(cnt)
		}
	}
	return changed, nClutter
}

// NumWithMatchingCount returns the number of gates whose count equals n.
func (c *ClutterInfo) NumWithMatchingCount(n int) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0.0
	for _, cnt := range c.counts {
		if cnt == n {
			total++
		}
	}
	return total
}

// Counts returns a copy of the per-gate counts.
func (c *ClutterInfo) Counts() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int(nil), c.counts...)
}

// Flags returns a copy of the per-gate clutter flags.
func (c *ClutterInfo) Flags() []bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]bool(nil), c.clutter...)
}

// IsClutter reports whether gate i is currently flagged.
func (c *ClutterInfo) IsClutter(i int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return i >= 0 && i < len(c.clutter) && c.clutter[i]
}

// NumClutter returns the number of gates currently flagged.
func (c *ClutterInfo) NumClutter() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, f := range c.clutter {
		if f {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of the accumulator.
func (c *ClutterInfo) Clone() *ClutterInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return &ClutterInfo{
		Key:           c.Key,
		StartRangeKm:  c.StartRangeKm,
		GateSpacingKm: c.GateSpacingKm,
		NGates:        c.NGates,
		counts:        append([]int(nil), c.counts...),
		clutter:       append([]bool(nil), c.clutter...),
	}
}
