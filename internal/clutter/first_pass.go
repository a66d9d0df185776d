package clutter

import (
	"context"
	"fmt"
	"time"

	"github.com/banshee-data/persistent-clutter/internal/monitoring"
	"github.com/banshee-data/persistent-clutter/internal/radx"
)

type passState int

const (
	stateWaitForFirst passState = iota
	stateAccumulate
	stateConverged
)

func (s passState) String() string {
	switch s {
	case stateWaitForFirst:
		return "wait-for-first"
	case stateAccumulate:
		return "accumulate"
	case stateConverged:
		return "converged"
	default:
		return "unknown"
	}
}

// VolumeObserver receives the first pass statistics after every volume.
// freq is the normalised frequency histogram of gate counts for the volume.
type VolumeObserver interface {
	ObserveVolume(stat VolumeStat, freq *FrequencyCount) error
}

// FirstPass accumulates per-gate threshold counts until the clutter flags
// converge.
type FirstPass struct {
	params  Params
	store   *Store
	history History
	state   passState

	nvol      int
	kstar     int
	finalTime time.Time

	observers     []VolumeObserver
	diagnosticDir string
}

// NewFirstPass creates a first pass.
func NewFirstPass(params Params) (*FirstPass, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	m, err := NewMapping(params.FixedElevations, params.AzToleranceDeg, params.ElevToleranceDeg)
	if err != nil {
		return nil, err
	}
	return &FirstPass{params: params, store: NewStore(m)}, nil
}

// AddObserver registers an observer called after every volume.
func (fp *FirstPass) AddObserver(o VolumeObserver) {
	fp.observers = append(fp.observers, o)
}

// SetDiagnosticDir enables writing every working volume, with the clutter
// candidate and normalised frequency fields added, into dir.
func (fp *FirstPass) SetDiagnosticDir(dir string) {
	fp.diagnosticDir = dir
}

func (fp *FirstPass) Name() string { return "FirstPass" }

// InitFirstTime registers a bucket for every ray of the first volume and
// freezes the bucket set.
func (fp *FirstPass) InitFirstTime(vol *radx.Volume) error {
	if fp.state != stateWaitForFirst {
		return fmt.Errorf("first pass already initialised")
	}
	var rejected, multi int
	for _, ray := range vol.Rays {
		_, res, err := fp.store.Register(ray)
		if err != nil {
			return err
		}
		switch res {
		case Rejected:
			rejected++
		case Multi:
			multi++
		}
	}
	fp.store.Freeze()
	if fp.store.Len() == 0 {
		return fmt.Errorf("no ray of the first volume matched a fixed elevation")
	}
	fp.state = stateAccumulate
	monitoring.Logf("[FirstPass] registered %d buckets (%d gates) from %d rays; %d rejected, %d ambiguous",
		fp.store.Len(), fp.store.NumGates(), len(vol.Rays), rejected, multi)
	return nil
}

// ProcessRay adds one ray's threshold exceedances to its bucket.
func (fp *FirstPass) ProcessRay(rd *RayData) error {
	info, err := fp.store.Lookup(rd.Az, rd.Elev)
	if err != nil {
		return err
	}
	if !info.Update(rd, fp.params.Threshold) {
		return fmt.Errorf("%w: bucket %s has x0=%.4f dx=%.4f, ray has x0=%.4f dx=%.4f",
			ErrGeometryMismatch, info.Key, info.StartRangeKm, info.GateSpacingKm, rd.StartRangeKm, rd.GateSpacingKm)
	}
	return nil
}

// FinishVolume computes K*, flags gates whose count exceeds it and checks
// convergence.
func (fp *FirstPass) FinishVolume(ctx context.Context, vol *radx.Volume, _ RayStats) (bool, error) {
	fp.nvol++
	infos := fp.store.Infos()

	p := Probabilities(infos, fp.nvol)
	k := ComputeCutoff(p)
	fp.kstar = k

	fc := NewFrequencyCount(fp.params.FrequencyBins, fp.nvol)
	var nchange, nclutter int
	for _, info := range infos {
		c, n := info.UpdateClutter(k+1, fc)
		nchange += c
		nclutter += n
	}

	ngates := fp.store.NumGates()
	stat := VolumeStat{
		Index:     fp.nvol,
		Time:      vol.Time(),
		KStar:     k,
		Threshold: float64(k) / float64(fp.nvol),
		NChange:   nchange,
		NClutter:  nclutter,
		NGates:    ngates,
	}
	if ngates > 0 {
		stat.ChangeFraction = float64(nchange) / float64(ngates)
	}
	fp.history.Add(stat)

	monitoring.Logf("[FirstPass] volume %d %s: K*=%d threshold=%.2f%% change=%.3f%% clutter=%d/%d",
		stat.Index, stat.Time.Format("2006-01-02T15:04:05"), k, stat.ThresholdPercent(), stat.ChangePercent(), nclutter, ngates)

	for _, o := range fp.observers {
		if err := o.ObserveVolume(stat, fc); err != nil {
			return false, fmt.Errorf("observer: %w", err)
		}
	}

	if fp.diagnosticDir != "" {
		if err := fp.writeDiagnosticVolume(vol, k); err != nil {
			return false, err
		}
	}

	if fp.history.Converged(fp.params.MinimumStableVolumes, fp.params.MaximumPercentChange, fp.params.ThresholdTolerance) {
		fp.state = stateConverged
		fp.finalTime = stat.Time
		monitoring.Logf("[FirstPass] converged after %d volumes at %s", fp.nvol, fp.finalTime.Format(time.RFC3339))
		return true, nil
	}
	return false, nil
}

// FinishBad reports that the stream ended before convergence.
func (fp *FirstPass) FinishBad() error {
	monitoring.Logf("[FirstPass] no convergence after %d volumes", fp.nvol)
	return ErrNotConverged
}

func (fp *FirstPass) writeDiagnosticVolume(vol *radx.Volume, k int) error {
	out := vol.Clone()
	for _, ray := range out.Rays {
		info, err := fp.store.Lookup(ray.AzimuthDeg, ray.ElevationDeg)
		if err != nil {
			continue
		}
		cand := make([]float64, info.NGates)
		freq := make([]float64, info.NGates)
		info.EqualOrExceed(cand, k+1)
		info.LoadNormalizedFrequency(freq, fp.nvol)
		ray.AddField(&radx.Field{Name: fp.params.CandidateField, Missing: radx.DefaultMissing, Data: cand})
		ray.AddField(&radx.Field{Name: fp.params.FrequencyField, Missing: radx.DefaultMissing, Data: freq})
	}
	path, err := radx.WriteVolumeToDir(fp.diagnosticDir, out)
	if err != nil {
		return fmt.Errorf("write diagnostic volume: %w", err)
	}
	monitoring.Debugf("[FirstPass] wrote diagnostic volume %s", path)
	return nil
}

// Converged reports whether the pass has converged.
func (fp *FirstPass) Converged() bool { return fp.state == stateConverged }

// FinalTime returns the time of the volume at which the pass converged.
func (fp *FirstPass) FinalTime() time.Time { return fp.finalTime }

// Volumes returns the number of volumes processed.
func (fp *FirstPass) Volumes() int { return fp.nvol }

// KStar returns the most recent cutoff.
func (fp *FirstPass) KStar() int { return fp.kstar }

// History returns the per-volume statistics.
func (fp *FirstPass) History() []VolumeStat { return fp.history.Stats() }

// Store returns the accumulators.
func (fp *FirstPass) Store() *Store { return fp.store }
