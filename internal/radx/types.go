package radx

import (
	"math"
	"time"
)

// DefaultMissing is the missing-data marker used by generated fields.
const DefaultMissing = -9999.0

// Field is one named moment along a ray.
type Field struct {
	Name    string
	Units   string
	Missing float64
	Data    []float64
}

// IsMissing reports whether v should be treated as no-data for this field.
func (f *Field) IsMissing(v float64) bool {
	return v == f.Missing || math.IsNaN(v)
}

// Clone returns a deep copy of the field.
func (f *Field) Clone() *Field {
	if f == nil {
		return nil
	}
	c := *f
	c.Data = append([]float64(nil), f.Data...)
	return &c
}

// Ray is a single radial of range-gated samples.
type Ray struct {
	Time          time.Time
	AzimuthDeg    float64
	ElevationDeg  float64
	FixedAngleDeg float64
	StartRangeKm  float64
	GateSpacingKm float64
	NGates        int
	Fields        map[string]*Field
}

// Field returns the named field, if present.
func (r *Ray) Field(name string) (*Field, bool) {
	if r == nil || r.Fields == nil {
		return nil, false
	}
	f, ok := r.Fields[name]
	return f, ok
}

// AddField adds or replaces a field on the ray.
func (r *Ray) AddField(f *Field) {
	if r.Fields == nil {
		r.Fields = make(map[string]*Field)
	}
	r.Fields[f.Name] = f
}

// Clone returns a deep copy of the ray and its fields.
func (r *Ray) Clone() *Ray {
	if r == nil {
		return nil
	}
	c := *r
	c.Fields = make(map[string]*Field, len(r.Fields))
	for name, f := range r.Fields {
		c.Fields[name] = f.Clone()
	}
	return &c
}

// Volume is one full scan: every ray collected during a scan cycle.
type Volume struct {
	Path        string // set on read; not meaningful inside the file
	Instrument  string
	StartTime   time.Time
	EndTime     time.Time
	FixedAngles []float64
	Rays        []*Ray
}

// Time returns the time that identifies the volume (its end time, falling
// back to the last ray time when EndTime is unset).
func (v *Volume) Time() time.Time {
	if !v.EndTime.IsZero() {
		return v.EndTime
	}
	if n := len(v.Rays); n > 0 {
		return v.Rays[n-1].Time
	}
	return v.StartTime
}

// Clone returns a deep copy of the volume.
func (v *Volume) Clone() *Volume {
	if v == nil {
		return nil
	}
	c := *v
	c.FixedAngles = append([]float64(nil), v.FixedAngles...)
	c.Rays = make([]*Ray, len(v.Rays))
	for i, r := range v.Rays {
		c.Rays[i] = r.Clone()
	}
	return &c
}

// NumGates returns the total number of gates across all rays.
func (v *Volume) NumGates() int {
	n := 0
	for _, r := range v.Rays {
		n += r.NGates
	}
	return n
}
