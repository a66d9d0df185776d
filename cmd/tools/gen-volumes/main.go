// Command gen-volumes writes a synthetic volume stream with planted
// persistent clutter, for demos and for exercising persistent-clutter.
package main

import (
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/banshee-data/persistent-clutter/internal/radx"
)

func main() {
	out := flag.String("out", "volumes", "output directory")
	n := flag.Int("n", 20, "number of volumes")
	elevations := flag.String("elevations", "0.5", "comma-separated fixed angles in degrees")
	azimuths := flag.Int("azimuths", 360, "rays per sweep")
	gates := flag.Int("gates", 100, "gates per ray")
	clutterGates := flag.Int("clutter-gates", 200, "number of planted clutter gates")
	weather := flag.Float64("weather", 0.05, "probability a gate sees weather in a volume")
	seed := flag.Int64("seed", 1, "random seed")
	start := flag.String("start", "2024-06-01T00:00:00Z", "time of the first volume (RFC3339)")
	flag.Parse()

	elevs, err := parseElevations(*elevations)
	if err != nil {
		log.Fatalf("invalid -elevations: %v", err)
	}
	t0, err := time.Parse(time.RFC3339, *start)
	if err != nil {
		log.Fatalf("invalid -start: %v", err)
	}

	g := radx.NewSyntheticGenerator(*seed, t0)
	g.Elevations = elevs
	g.Azimuths = *azimuths
	g.Gates = *gates
	g.WeatherProb = *weather
	planted := g.PlantRandomClutter(*clutterGates)

	for i := 0; i < *n; i++ {
		p, err := radx.WriteVolumeToDir(*out, g.NextVolume())
		if err != nil {
			log.Fatalf("failed to write volume %d: %v", i, err)
		}
		if (i+1)%10 == 0 || i+1 == *n {
			log.Printf("%d/%d volumes, last %s", i+1, *n, p)
		}
	}
	log.Printf("wrote %d volumes with %d clutter gates to %s", *n, len(planted), *out)
}

func parseElevations(s string) ([]float64, error) {
	var elevs []float64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", part, err)
		}
		elevs = append(elevs, v)
	}
	if len(elevs) == 0 {
		return nil, fmt.Errorf("no elevations given")
	}
	return elevs, nil
}
