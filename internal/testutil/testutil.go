// Package testutil provides shared test fixtures for volume streams.
package testutil

import (
	"testing"
	"time"

	"github.com/banshee-data/persistent-clutter/internal/radx"
)

// epoch is the start time of generated test streams.
var epoch = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

// Epoch returns the start time used by SmallGenerator.
func Epoch() time.Time { return epoch }

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// WriteVolumes writes n volumes from g into dir and returns their paths in
// time order.
func WriteVolumes(t *testing.T, dir string, g *radx.SyntheticGenerator, n int) []string {
	t.Helper()
	paths := make([]string, 0, n)
	for i := 0; i < n; i++ {
		p, err := radx.WriteVolumeToDir(dir, g.NextVolume())
		if err != nil {
			t.Fatalf("write volume %d: %v", i, err)
		}
		paths = append(paths, p)
	}
	return paths
}

// SmallGenerator returns a reproducible generator producing small volumes
// with no weather or missing data.
func SmallGenerator(seed int64) *radx.SyntheticGenerator {
	g := radx.NewSyntheticGenerator(seed, epoch)
	g.Azimuths = 12
	g.Gates = 8
	g.WeatherProb = 0
	g.MissingProb = 0
	return g
}
