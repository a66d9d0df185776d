package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/banshee-data/persistent-clutter/internal/clutter"
)

// ErrRunNotFound is returned when a run id has no row.
var ErrRunNotFound = errors.New("run not found")

// Run is one row of clutter_runs.
type Run struct {
	RunID          string
	Started        time.Time
	Finished       *time.Time
	ConfigJSON     string
	Converged      bool
	FinalTime      *time.Time
	VolumesPassOne int
	VolumesPassTwo int
	ClutterGates   int
	OutputPath     string
}

// InsertRun records the start of a run.
func (db *DB) InsertRun(runID string, started time.Time, configJSON string) error {
	if configJSON == "" {
		configJSON = "{}"
	}
	_, err := db.Exec(
		`INSERT INTO clutter_runs (run_id, started_unix_nanos, config_json) VALUES (?, ?, ?)`,
		runID, started.UnixNano(), configJSON,
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", runID, err)
	}
	return nil
}

// FinishRun stores the outcome of a run.
func (db *DB) FinishRun(runID string, finished time.Time, res *clutter.Result) error {
	var finalTime sql.NullInt64
	if !res.FinalTime.IsZero() {
		finalTime = sql.NullInt64{Int64: res.FinalTime.Unix(), Valid: true}
	}
	r, err := db.Exec(
		`UPDATE clutter_runs
		 SET finished_unix_nanos = ?, converged = ?, final_time_unix = ?,
		     volumes_pass_one = ?, volumes_pass_two = ?, clutter_gates = ?, output_path = ?
		 WHERE run_id = ?`,
		finished.UnixNano(), res.Converged, finalTime,
		res.VolumesPassOne, res.VolumesPassTwo, res.ClutterGates, res.OutputPath,
		runID,
	)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", runID, err)
	}
	if n, _ := r.RowsAffected(); n == 0 {
		return fmt.Errorf("finish run %s: %w", runID, ErrRunNotFound)
	}
	return nil
}

// GetRun returns one run.
func (db *DB) GetRun(runID string) (*Run, error) {
	row := db.QueryRow(runSelect+` WHERE run_id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	return run, err
}

// Runs lists runs, newest first.
func (db *DB) Runs(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.Query(runSelect+` ORDER BY started_unix_nanos DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

const runSelect = `SELECT run_id, started_unix_nanos, finished_unix_nanos, config_json, converged,
	final_time_unix, volumes_pass_one, volumes_pass_two, clutter_gates, output_path FROM clutter_runs`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var (
		run       Run
		started   int64
		finished  sql.NullInt64
		finalTime sql.NullInt64
	)
	if err := s.Scan(&run.RunID, &started, &finished, &run.ConfigJSON, &run.Converged,
		&finalTime, &run.VolumesPassOne, &run.VolumesPassTwo, &run.ClutterGates, &run.OutputPath); err != nil {
		return nil, err
	}
	run.Started = time.Unix(0, started).UTC()
	if finished.Valid {
		t := time.Unix(0, finished.Int64).UTC()
		run.Finished = &t
	}
	if finalTime.Valid {
		t := time.Unix(finalTime.Int64, 0).UTC()
		run.FinalTime = &t
	}
	return &run, nil
}

// InsertVolumeStat stores the first pass statistics of one volume.
func (db *DB) InsertVolumeStat(runID string, s clutter.VolumeStat) error {
	_, err := db.Exec(
		`INSERT INTO clutter_volume_stats
		 (run_id, volume_index, volume_time_unix, kstar, threshold, change_fraction, nchange, nclutter, ngates)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, s.Index, s.Time.Unix(), s.KStar, s.Threshold, s.ChangeFraction, s.NChange, s.NClutter, s.NGates,
	)
	if err != nil {
		return fmt.Errorf("insert volume stat %s/%d: %w", runID, s.Index, err)
	}
	return nil
}

// VolumeStats returns the statistics of a run ordered by volume index.
func (db *DB) VolumeStats(runID string) ([]clutter.VolumeStat, error) {
	rows, err := db.Query(
		`SELECT volume_index, volume_time_unix, kstar, threshold, change_fraction, nchange, nclutter, ngates
		 FROM clutter_volume_stats WHERE run_id = ? ORDER BY volume_index`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []clutter.VolumeStat
	for rows.Next() {
		var (
			s  clutter.VolumeStat
			ts int64
		)
		if err := rows.Scan(&s.Index, &ts, &s.KStar, &s.Threshold, &s.ChangeFraction, &s.NChange, &s.NClutter, &s.NGates); err != nil {
			return nil, err
		}
		s.Time = time.Unix(ts, 0).UTC()
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// InsertSnapshot stores a compressed accumulator snapshot.
func (db *DB) InsertSnapshot(runID string, snap *clutter.Snapshot) (int64, error) {
	r, err := db.Exec(
		`INSERT INTO clutter_snapshots
		 (run_id, taken_unix_nanos, volumes, kstar, buckets, gates, clutter_gates, grid_blob)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, snap.TakenAt.UnixNano(), snap.Volumes, snap.KStar, snap.Buckets, snap.Gates, snap.ClutterGates, snap.Blob,
	)
	if err != nil {
		return 0, fmt.Errorf("insert snapshot %s: %w", runID, err)
	}
	return r.LastInsertId()
}

// LatestSnapshot returns the most recent snapshot of a run.
func (db *DB) LatestSnapshot(runID string) (*clutter.Snapshot, error) {
	var (
		snap  clutter.Snapshot
		taken int64
	)
	err := db.QueryRow(
		`SELECT taken_unix_nanos, volumes, kstar, buckets, gates, clutter_gates, grid_blob
		 FROM clutter_snapshots WHERE run_id = ? ORDER BY taken_unix_nanos DESC, snapshot_id DESC LIMIT 1`, runID,
	).Scan(&taken, &snap.Volumes, &snap.KStar, &snap.Buckets, &snap.Gates, &snap.ClutterGates, &snap.Blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("no snapshot for run %s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return nil, err
	}
	snap.TakenAt = time.Unix(0, taken).UTC()
	return &snap, nil
}
