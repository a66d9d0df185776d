package clutter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/persistent-clutter/internal/monitoring"
)

// RunRecorder persists run metadata. It is called from the control goroutine
// only.
type RunRecorder interface {
	StartRun(runID string, started time.Time, configJSON string) error
	RecordVolume(runID string, stat VolumeStat) error
	RecordSnapshot(runID string, snap *Snapshot) error
	FinishRun(runID string, res *Result) error
}

// Deps are the collaborators of a run.
type Deps struct {
	Source        RewindableSource
	OutputDir     string
	DiagnosticDir string
	Observers     []VolumeObserver
	Recorder      RunRecorder // optional
	ConfigJSON    string
	Now           func() time.Time // defaults to time.Now
}

// Result summarises a run.
type Result struct {
	RunID          string
	Converged      bool
	VolumesPassOne int
	VolumesPassTwo int
	FinalTime      time.Time
	KStar          int
	Buckets        int
	Gates          int
	ClutterGates   int
	OutputPath     string
	History        []VolumeStat
}

type recorderObserver struct {
	runID string
	rec   RunRecorder
}

func (o recorderObserver) ObserveVolume(stat VolumeStat, _ *FrequencyCount) error {
	return o.rec.RecordVolume(o.runID, stat)
}

// Run executes the first pass and, if it converges, the second pass.
// A first pass that does not converge is not an error: the result has
// Converged false and no product is written.
func Run(ctx context.Context, params Params, deps Deps) (*Result, error) {
	if deps.Source == nil {
		return nil, fmt.Errorf("no volume source")
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	fp, err := NewFirstPass(params)
	if err != nil {
		return nil, fmt.Errorf("create first pass: %w", err)
	}
	for _, o := range deps.Observers {
		fp.AddObserver(o)
	}
	fp.SetDiagnosticDir(deps.DiagnosticDir)

	res := &Result{RunID: uuid.NewString()}
	if deps.Recorder != nil {
		if err := deps.Recorder.StartRun(res.RunID, now(), deps.ConfigJSON); err != nil {
			return nil, fmt.Errorf("record run start: %w", err)
		}
		fp.AddObserver(recorderObserver{runID: res.RunID, rec: deps.Recorder})
	}
	monitoring.Logf("[Run] %s: first pass, threshold %.1f, %d threads", res.RunID, params.Threshold, params.NumThreads)

	runner := NewRunner(params.InputField, params.NumThreads)
	res.VolumesPassOne, err = runner.Run(ctx, deps.Source, fp)
	res.History = fp.History()
	res.KStar = fp.KStar()
	res.Buckets = fp.Store().Len()
	res.Gates = fp.Store().NumGates()
	res.ClutterGates = fp.Store().NumClutter()

	switch {
	case errors.Is(err, ErrNotConverged):
		monitoring.Logf("[Run] %s: first pass did not converge after %d volumes; no output", res.RunID, res.VolumesPassOne)
		return res, finishRun(deps.Recorder, res)
	case err != nil:
		return res, err
	}
	res.Converged = true
	res.FinalTime = fp.FinalTime()

	if deps.Recorder != nil {
		snap, err := fp.Snapshot(now())
		if err != nil {
			return res, err
		}
		if err := deps.Recorder.RecordSnapshot(res.RunID, snap); err != nil {
			return res, fmt.Errorf("record snapshot: %w", err)
		}
	}

	if err := deps.Source.Rewind(); err != nil {
		return res, fmt.Errorf("rewind source: %w", err)
	}
	sp, err := NewSecondPass(fp, deps.OutputDir)
	if err != nil {
		return res, fmt.Errorf("create second pass: %w", err)
	}
	res.VolumesPassTwo, err = runner.Run(ctx, deps.Source, sp)
	if err != nil {
		return res, err
	}
	res.OutputPath = sp.OutputPath()
	return res, finishRun(deps.Recorder, res)
}

func finishRun(rec RunRecorder, res *Result) error {
	if rec == nil {
		return nil
	}
	if err := rec.FinishRun(res.RunID, res); err != nil {
		return fmt.Errorf("record run finish: %w", err)
	}
	return nil
}
