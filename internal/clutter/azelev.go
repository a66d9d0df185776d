package clutter

import (
	"fmt"
	"math"
)

// AzElev is a canonical ray pointing in degrees. It is comparable and used
// as a map key.
type AzElev struct {
	Az   float64
	Elev float64
}

// Less orders by elevation, then azimuth.
func (a AzElev) Less(b AzElev) bool {
	if a.Elev != b.Elev {
		return a.Elev < b.Elev
	}
	return a.Az < b.Az
}

func (a AzElev) String() string {
	return fmt.Sprintf("(az=%.2f, elev=%.2f)", a.Az, a.Elev)
}

// AddResult describes the outcome of Mapping.Add.
type AddResult int

const (
	// Rejected means no configured elevation is within tolerance.
	Rejected AddResult = iota
	// Added means a new azimuth was registered.
	Added
	// Existing means the exact azimuth was already registered.
	Existing
	// Multi means a different azimuth collapsed onto an existing key.
	Multi
)

func (r AddResult) String() string {
	switch r {
	case Rejected:
		return "rejected"
	case Added:
		return "added"
	case Existing:
		return "existing"
	case Multi:
		return "multi"
	default:
		return fmt.Sprintf("AddResult(%d)", int(r))
	}
}

// Mapping snaps ray pointing angles to canonical keys. Elevations snap to
// the nearest configured fixed angle; azimuths snap to the nearest azimuth
// registered at that elevation. Exact ties keep the first configured or
// first registered value.
//
// Add must not be called concurrently with Match.
type Mapping struct {
	elevations []float64
	azTol      float64
	elevTol    float64
	azimuths   [][]float64 // per elevation index, in registration order
	multi      map[AzElev]bool
}

// NewMapping creates a mapping for the given fixed elevations.
func NewMapping(elevations []float64, azTolDeg, elevTolDeg float64) (*Mapping, error) {
	if len(elevations) == 0 {
		return nil, fmt.Errorf("at least one fixed elevation is required")
	}
	if azTolDeg < 0 || elevTolDeg < 0 {
		return nil, fmt.Errorf("tolerances must be non-negative (az=%v, elev=%v)", azTolDeg, elevTolDeg)
	}
	return &Mapping{
		elevations: append([]float64(nil), elevations...),
		azTol:      azTolDeg,
		elevTol:    elevTolDeg,
		azimuths:   make([][]float64, len(elevations)),
		multi:      make(map[AzElev]bool),
	}, nil
}

// Match returns the canonical key for a pointing, or false when either the
// elevation or the azimuth has no registered value within tolerance.
func (m *Mapping) Match(az, elev float64) (AzElev, bool) {
	ei, ok := m.matchElevation(elev)
	if !ok {
		return AzElev{}, false
	}
	a, ok := m.matchAzimuth(ei, normalizeAz(az))
	if !ok {
		return AzElev{}, false
	}
	return AzElev{Az: a, Elev: m.elevations[ei]}, true
}

// Add registers a pointing and returns its canonical key.
func (m *Mapping) Add(az, elev float64) (AzElev, AddResult) {
	ei, ok := m.matchElevation(elev)
	if !ok {
		return AzElev{}, Rejected
	}
	az = normalizeAz(az)
	if a, ok := m.matchAzimuth(ei, az); ok {
		key := AzElev{Az: a, Elev: m.elevations[ei]}
		if a == az {
			return key, Existing
		}
		m.multi[key] = true
		return key, Multi
	}
	m.azimuths[ei] = append(m.azimuths[ei], az)
	return AzElev{Az: az, Elev: m.elevations[ei]}, Added
}

// IsMulti reports whether more than one distinct azimuth mapped to key.
func (m *Mapping) IsMulti(key AzElev) bool {
	return m.multi[key]
}

// NumKeys returns the number of registered keys.
func (m *Mapping) NumKeys() int {
	n := 0
	for _, a := range m.azimuths {
		n += len(a)
	}
	return n
}

func (m *Mapping) matchElevation(elev float64) (int, bool) {
	best := -1
	bestDist := math.Inf(1)
	for i, e := range m.elevations {
		d := math.Abs(e - elev)
		if d <= m.elevTol && d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, best >= 0
}

func (m *Mapping) matchAzimuth(ei int, az float64) (float64, bool) {
	found := false
	var best float64
	bestDist := math.Inf(1)
	for _, a := range m.azimuths[ei] {
		d := azDistance(a, az)
		if d <= m.azTol && d < bestDist {
			best, bestDist, found = a, d, true
		}
	}
	return best, found
}

func normalizeAz(az float64) float64 {
	az = math.Mod(az, 360)
	if az < 0 {
		az += 360
	}
	return az
}

// azDistance is the angular distance between two azimuths in [0, 180].
func azDistance(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 360)
	if d > 180 {
		d = 360 - d
	}
	return d
}
