package db

import (
	"time"

	"github.com/banshee-data/persistent-clutter/internal/clutter"
	"github.com/banshee-data/persistent-clutter/internal/timeutil"
)

// Recorder stores run progress in the database. It satisfies
// clutter.RunRecorder.
type Recorder struct {
	db    *DB
	clock timeutil.Clock
}

var _ clutter.RunRecorder = (*Recorder)(nil)

// NewRecorder returns a recorder writing to db. A nil clock uses the real
// clock.
func NewRecorder(db *DB, clock timeutil.Clock) *Recorder {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Recorder{db: db, clock: clock}
}

func (r *Recorder) StartRun(runID string, started time.Time, configJSON string) error {
	return r.db.InsertRun(runID, started, configJSON)
}

func (r *Recorder) RecordVolume(runID string, stat clutter.VolumeStat) error {
	return r.db.InsertVolumeStat(runID, stat)
}

func (r *Recorder) RecordSnapshot(runID string, snap *clutter.Snapshot) error {
	_, err := r.db.InsertSnapshot(runID, snap)
	return err
}

func (r *Recorder) FinishRun(runID string, res *clutter.Result) error {
	return r.db.FinishRun(runID, r.clock.Now(), res)
}
