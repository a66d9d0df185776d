package db

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/tailscale/tailsql/server/tailsql"
	"tailscale.com/tsweb"

	"github.com/banshee-data/persistent-clutter/internal/diag"
	"github.com/banshee-data/persistent-clutter/internal/httputil"
	"github.com/banshee-data/persistent-clutter/internal/monitoring"
)

// AttachAdminRoutes mounts the debug pages on mux: live SQL, the run list
// and per-run convergence charts.
func (db *DB) AttachAdminRoutes(mux *http.ServeMux) error {
	debug := tsweb.Debugger(mux)
	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		return fmt.Errorf("failed to create tailsql server: %w", err)
	}
	tsql.SetDB("sqlite://"+filepath.Base(db.path), db.DB, &tailsql.DBOptions{
		Label: "Clutter runs DB",
	})
	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())
	debug.Handle("runs", "Recent clutter runs (JSON)", http.HandlerFunc(db.handleRuns))
	debug.Handle("chart", "Convergence chart for ?run=<id> (defaults to the latest run)", http.HandlerFunc(db.handleChart))
	return nil
}

func (db *DB) handleRuns(w http.ResponseWriter, r *http.Request) {
	if !httputil.AllowMethods(w, r, http.MethodGet) {
		return
	}
	runs, err := db.Runs(100)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "list runs: %v", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, runs)
}

func (db *DB) handleChart(w http.ResponseWriter, r *http.Request) {
	if !httputil.AllowMethods(w, r, http.MethodGet) {
		return
	}
	runID := r.URL.Query().Get("run")
	if runID == "" {
		runs, err := db.Runs(1)
		if err != nil {
			httputil.WriteError(w, http.StatusInternalServerError, "list runs: %v", err)
			return
		}
		if len(runs) == 0 {
			httputil.WriteError(w, http.StatusNotFound, "no runs recorded")
			return
		}
		runID = runs[0].RunID
	} else if _, err := uuid.Parse(runID); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid run id %q", runID)
		return
	}

	run, err := db.GetRun(runID)
	if errors.Is(err, ErrRunNotFound) {
		httputil.WriteError(w, http.StatusNotFound, "run %s not found", runID)
		return
	}
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "get run: %v", err)
		return
	}
	stats, err := db.VolumeStats(runID)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "volume stats: %v", err)
		return
	}

	subtitle := fmt.Sprintf("run %s, %d volumes, converged %t", run.RunID, len(stats), run.Converged)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := diag.RenderConvergenceChart(diag.ChartInput{Subtitle: subtitle, Stats: stats}, w); err != nil {
		monitoring.Logf("[db] chart for run %s: %v", runID, err)
	}
}
