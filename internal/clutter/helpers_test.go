package clutter

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/banshee-data/persistent-clutter/internal/monitoring"
	"github.com/banshee-data/persistent-clutter/internal/radx"
)

// sliceSource serves volumes from memory.
type sliceSource struct {
	vols    []*radx.Volume
	pos     int
	rewinds int
}

func (s *sliceSource) Next(ctx context.Context) (*radx.Volume, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.pos >= len(s.vols) {
		return nil, io.EOF
	}
	v := s.vols[s.pos]
	s.pos++
	return v, nil
}

func (s *sliceSource) Rewind() error {
	s.pos = 0
	s.rewinds++
	return nil
}

func quietLogs(t *testing.T) {
	t.Helper()
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.SetLogger(nil) })
}

func testParams() Params {
	return Params{
		InputField:           "DBZ",
		OutputField:          "CLUTTER",
		CandidateField:       "CLUTTER_CANDIDATE",
		FrequencyField:       "CLUTTER_FREQUENCY",
		Threshold:            30,
		FixedElevations:      []float64{0.5},
		AzToleranceDeg:       0.5,
		ElevToleranceDeg:     0.2,
		MinimumStableVolumes: 3,
		MaximumPercentChange: 0.5,
		ThresholdTolerance:   0.01,
		HistogramMin:         -10,
		HistogramMax:         90,
		HistogramResolution:  0.5,
		ClutterPercentile:    0.5,
		MissingClutterValue:  -10,
		FrequencyBins:        10,
		NumThreads:           4,
	}
}

// cleanGenerator returns a generator whose clutter is the only echo.
func cleanGenerator(seed int64) *radx.SyntheticGenerator {
	g := radx.NewSyntheticGenerator(seed, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	g.Azimuths = 36
	g.Gates = 20
	g.WeatherProb = 0
	g.MissingProb = 0
	return g
}

func rayData(az, elev float64, values ...float64) *RayData {
	return &RayData{
		Az:            az,
		Elev:          elev,
		StartRangeKm:  0.125,
		GateSpacingKm: 0.25,
		Missing:       radx.DefaultMissing,
		Values:        values,
	}
}
