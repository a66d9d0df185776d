package radx

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

// ClutterGate identifies a planted persistent clutter target in synthetic data.
type ClutterGate struct {
	ElevIndex int
	AzIndex   int
	Gate      int
}

// SyntheticGenerator generates PPI volumes with planted persistent clutter
// and transient weather for testing and demos.
type SyntheticGenerator struct {
	// Configuration
	Instrument    string
	FieldName     string
	Elevations    []float64     // fixed angles, degrees
	Azimuths      int           // rays per sweep, evenly spaced
	Gates         int           // gates per ray
	StartRangeKm  float64       // range to first gate centre
	GateSpacingKm float64       // gate spacing
	JitterDeg     float64       // max abs pointing jitter per ray
	VolumeEvery   time.Duration // time between volumes
	ClutterDBZ    float64       // mean reflectivity of clutter targets
	ClutterSpread float64       // std-dev of clutter reflectivity
	BackgroundDBZ float64       // mean of noise-floor echoes
	WeatherProb   float64       // probability a gate sees weather in a volume
	MissingProb   float64       // probability a gate reports missing data

	clutter map[ClutterGate]bool
	start   time.Time
	index   int
	rng     *rand.Rand
}

// NewSyntheticGenerator creates a generator with reproducible output for the
// given seed.
func NewSyntheticGenerator(seed int64, start time.Time) *SyntheticGenerator {
	return &SyntheticGenerator{
		Instrument:    "SYNTH",
		FieldName:     "DBZ",
		Elevations:    []float64{0.5},
		Azimuths:      360,
		Gates:         100,
		StartRangeKm:  0.125,
		GateSpacingKm: 0.25,
		JitterDeg:     0.03,
		VolumeEvery:   5 * time.Minute,
		ClutterDBZ:    50,
		ClutterSpread: 3,
		BackgroundDBZ: 0,
		WeatherProb:   0.05,
		MissingProb:   0.02,
		clutter:       make(map[ClutterGate]bool),
		start:         start.UTC(),
		rng:           rand.New(rand.NewSource(seed)),
	}
}

// PlantClutter marks a gate as persistent clutter.
func (g *SyntheticGenerator) PlantClutter(c ClutterGate) error {
	if c.ElevIndex < 0 || c.ElevIndex >= len(g.Elevations) {
		return fmt.Errorf("elevation index %d out of range", c.ElevIndex)
	}
	if c.AzIndex < 0 || c.AzIndex >= g.Azimuths {
		return fmt.Errorf("azimuth index %d out of range", c.AzIndex)
	}
	if c.Gate < 0 || c.Gate >= g.Gates {
		return fmt.Errorf("gate %d out of range", c.Gate)
	}
	g.clutter[c] = true
	return nil
}

// PlantRandomClutter plants n distinct random clutter gates and returns them.
func (g *SyntheticGenerator) PlantRandomClutter(n int) []ClutterGate {
	total := len(g.Elevations) * g.Azimuths * g.Gates
	if n > total {
		n = total
	}
	out := make([]ClutterGate, 0, n)
	for len(out) < n {
		c := ClutterGate{
			ElevIndex: g.rng.Intn(len(g.Elevations)),
			AzIndex:   g.rng.Intn(g.Azimuths),
			Gate:      g.rng.Intn(g.Gates),
		}
		if g.clutter[c] {
			continue
		}
		g.clutter[c] = true
		out = append(out, c)
	}
	return out
}

// IsClutter reports whether a gate was planted as clutter.
func (g *SyntheticGenerator) IsClutter(c ClutterGate) bool {
	return g.clutter[c]
}

// Clutter returns the number of planted clutter gates.
func (g *SyntheticGenerator) Clutter() int {
	return len(g.clutter)
}

// NextVolume generates the next volume in the sequence.
func (g *SyntheticGenerator) NextVolume() *Volume {
	volStart := g.start.Add(time.Duration(g.index) * g.VolumeEvery)
	g.index++

	nrays := len(g.Elevations) * g.Azimuths
	v := &Volume{
		Instrument:  g.Instrument,
		StartTime:   volStart,
		FixedAngles: append([]float64(nil), g.Elevations...),
		Rays:        make([]*Ray, 0, nrays),
	}

	azStep := 360.0 / float64(g.Azimuths)
	// spread ray times evenly over 90% of the volume interval
	rayStep := time.Duration(float64(g.VolumeEvery) * 0.9 / float64(nrays))

	for ei, elev := range g.Elevations {
		for ai := 0; ai < g.Azimuths; ai++ {
			az := math.Mod(float64(ai)*azStep+g.jitter()+360.0, 360.0)
			ray := &Ray{
				Time:          volStart.Add(time.Duration(len(v.Rays)) * rayStep),
				AzimuthDeg:    az,
				ElevationDeg:  elev + g.jitter(),
				FixedAngleDeg: elev,
				StartRangeKm:  g.StartRangeKm,
				GateSpacingKm: g.GateSpacingKm,
				NGates:        g.Gates,
			}
			f := &Field{Name: g.FieldName, Units: "dBZ", Missing: DefaultMissing, Data: make([]float64, g.Gates)}
			for gi := 0; gi < g.Gates; gi++ {
				f.Data[gi] = g.sample(ClutterGate{ElevIndex: ei, AzIndex: ai, Gate: gi})
			}
			ray.AddField(f)
			v.Rays = append(v.Rays, ray)
		}
	}
	v.EndTime = v.Rays[len(v.Rays)-1].Time
	return v
}

func (g *SyntheticGenerator) jitter() float64 {
	if g.JitterDeg == 0 {
		return 0
	}
	return (g.rng.Float64()*2 - 1) * g.JitterDeg
}

func (g *SyntheticGenerator) sample(c ClutterGate) float64 {
	if g.rng.Float64() < g.MissingProb {
		return DefaultMissing
	}
	if g.clutter[c] {
		return g.ClutterDBZ + g.rng.NormFloat64()*g.ClutterSpread
	}
	if g.rng.Float64() < g.WeatherProb {
		return 20 + g.rng.Float64()*35
	}
	return g.BackgroundDBZ + g.rng.NormFloat64()*5
}
