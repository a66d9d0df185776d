package clutter

import (
	"fmt"
	"math"
	"time"

	"github.com/banshee-data/persistent-clutter/internal/radx"
)

// RayData is one ray's input field copied out of a volume.
type RayData struct {
	Time          time.Time
	Az            float64
	Elev          float64
	StartRangeKm  float64
	GateSpacingKm float64
	Missing       float64
	Values        []float64
}

// IsMissing reports whether v is the missing marker or NaN.
func (rd *RayData) IsMissing(v float64) bool {
	return v == rd.Missing || math.IsNaN(v)
}

// ExtractRay copies the named field out of ray.
func ExtractRay(ray *radx.Ray, field string) (*RayData, error) {
	f, ok := ray.Field(field)
	if !ok {
		return nil, fmt.Errorf("%w: %q at az=%.2f elev=%.2f", ErrMissingField, field, ray.AzimuthDeg, ray.ElevationDeg)
	}
	return &RayData{
		Time:          ray.Time,
		Az:            ray.AzimuthDeg,
		Elev:          ray.ElevationDeg,
		StartRangeKm:  ray.StartRangeKm,
		GateSpacingKm: ray.GateSpacingKm,
		Missing:       f.Missing,
		Values:        append([]float64(nil), f.Data...),
	}, nil
}
