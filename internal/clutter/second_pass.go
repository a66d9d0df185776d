package clutter

import (
	"context"
	"fmt"
	"time"

	"github.com/banshee-data/persistent-clutter/internal/monitoring"
	"github.com/banshee-data/persistent-clutter/internal/radx"
)

// SecondPass builds value histograms at the gates flagged by a converged
// first pass and writes the clutter map at the first pass's final time.
type SecondPass struct {
	params    Params
	mapping   *Mapping
	histos    map[AzElev]*HistoInfo
	finalTime time.Time
	outputDir string

	template   *radx.Volume
	nvol       int
	outputPath string
}

// NewSecondPass creates a second pass from a converged first pass. The
// product is written into outputDir.
func NewSecondPass(fp *FirstPass, outputDir string) (*SecondPass, error) {
	if !fp.Converged() {
		return nil, ErrNotConverged
	}
	p := fp.params
	sp := &SecondPass{
		params:    p,
		mapping:   fp.store.Mapping(),
		histos:    make(map[AzElev]*HistoInfo, fp.store.Len()),
		finalTime: fp.FinalTime(),
		outputDir: outputDir,
	}
	nh := 0
	for _, info := range fp.store.Infos() {
		hi, err := NewHistoInfo(info, p.HistogramMin, p.HistogramMax, p.HistogramResolution)
		if err != nil {
			return nil, err
		}
		sp.histos[info.Key] = hi
		nh += hi.NumHistograms()
	}
	monitoring.Logf("[SecondPass] %d buckets, %d clutter gates carry histograms; final time %s",
		len(sp.histos), nh, sp.finalTime.Format(time.RFC3339))
	return sp, nil
}

func (sp *SecondPass) Name() string { return "SecondPass" }

// InitFirstTime keeps a copy of the first volume as the output template.
func (sp *SecondPass) InitFirstTime(vol *radx.Volume) error {
	sp.template = vol.Clone()
	return nil
}

func (sp *SecondPass) lookup(az, elev float64) (*HistoInfo, error) {
	key, ok := sp.mapping.Match(az, elev)
	if !ok {
		return nil, fmt.Errorf("%w: az=%.2f elev=%.2f", ErrNoMatch, az, elev)
	}
	hi, ok := sp.histos[key]
	if !ok {
		return nil, fmt.Errorf("%w: bucket %s", ErrNoMatch, key)
	}
	return hi, nil
}

// ProcessRay feeds the clutter gate histograms of the ray's bucket.
func (sp *SecondPass) ProcessRay(rd *RayData) error {
	hi, err := sp.lookup(rd.Az, rd.Elev)
	if err != nil {
		return err
	}
	if !hi.UpdateSecondPass(rd) {
		return fmt.Errorf("%w: bucket %s", ErrGeometryMismatch, hi.Key)
	}
	return nil
}

// FinishVolume writes the product once the final time is reached.
func (sp *SecondPass) FinishVolume(ctx context.Context, vol *radx.Volume, _ RayStats) (bool, error) {
	sp.nvol++
	t := vol.Time()
	if t.Before(sp.finalTime) {
		monitoring.Debugf("[SecondPass] volume %d %s accumulated", sp.nvol, t.Format(time.RFC3339))
		return false, nil
	}

	out := sp.template
	for _, ray := range out.Rays {
		sp.SetRayForOutput(ray)
	}
	out.EndTime = t
	path, err := radx.WriteVolumeToDir(sp.outputDir, out)
	if err != nil {
		return false, fmt.Errorf("write clutter map: %w", err)
	}
	sp.outputPath = path
	monitoring.Logf("[SecondPass] reached final time after %d volumes; wrote %s", sp.nvol, path)
	return true, nil
}

// SetRayForOutput adds the output field to ray: percentile clutter values
// at clutter gates, the input value elsewhere. Rays without the input field
// are left unchanged.
func (sp *SecondPass) SetRayForOutput(ray *radx.Ray) {
	in, ok := ray.Field(sp.params.InputField)
	if !ok {
		return
	}
	data := append([]float64(nil), in.Data...)
	if hi, err := sp.lookup(ray.AzimuthDeg, ray.ElevationDeg); err == nil {
		hi.SetClutter(data, in.Data, sp.params.ClutterPercentile, sp.params.MissingClutterValue)
	}
	ray.AddField(&radx.Field{Name: sp.params.OutputField, Units: in.Units, Missing: in.Missing, Data: data})
}

// FinishBad reports that the stream ended before the final time.
func (sp *SecondPass) FinishBad() error {
	monitoring.Logf("[SecondPass] end of data before final time %s", sp.finalTime.Format(time.RFC3339))
	return ErrFinalTimeNotReached
}

// OutputPath returns the path of the written product, if any.
func (sp *SecondPass) OutputPath() string { return sp.outputPath }

// Volumes returns the number of volumes processed.
func (sp *SecondPass) Volumes() int { return sp.nvol }

// Histos returns the histogram accumulator of a bucket.
func (sp *SecondPass) Histos(key AzElev) (*HistoInfo, bool) {
	hi, ok := sp.histos[key]
	return hi, ok
}
