package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/persistent-clutter/internal/config"
	"github.com/banshee-data/persistent-clutter/internal/db"
	"github.com/banshee-data/persistent-clutter/internal/monitoring"
	"github.com/banshee-data/persistent-clutter/internal/radx"
	"github.com/banshee-data/persistent-clutter/internal/testutil"
)

func TestParseFlagsDefaults(t *testing.T) {
	opts, err := parseFlags(nil)
	require.NoError(t, err)
	assert.Empty(t, opts.configPath)
	assert.Empty(t, opts.mode)
	assert.Zero(t, opts.threads)
	assert.False(t, opts.debug)
	assert.False(t, opts.showVersion)
	assert.Empty(t, opts.files)
}

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"-mode", "archive", "-threads", "8", "-debug", "-output", "/tmp/out", "a.rvol", "b.rvol"})
	require.NoError(t, err)
	assert.Equal(t, "archive", opts.mode)
	assert.Equal(t, 8, opts.threads)
	assert.True(t, opts.debug)
	assert.Equal(t, "/tmp/out", opts.output)
	assert.Equal(t, []string{"a.rvol", "b.rvol"}, opts.files)

	_, err = parseFlags([]string{"-threads", "many"})
	assert.Error(t, err)
}

func TestLoadConfigOverrides(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "clutter.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("mode: realtime\ninput_dir: /data/in\noutput_dir: /data/out\nnum_threads: 2\n"), 0644))

	cfg, err := loadConfig(&options{configPath: cfgPath})
	require.NoError(t, err)
	assert.Equal(t, config.ModeRealtime, cfg.GetMode())
	assert.Equal(t, 2, cfg.GetNumThreads())

	cfg, err = loadConfig(&options{
		configPath: cfgPath,
		mode:       config.ModeArchive,
		input:      "/other/in",
		start:      "2024-06-01T00:00:00Z",
		end:        "2024-06-02T00:00:00Z",
		threads:    6,
		debug:      true,
	})
	require.NoError(t, err)
	assert.Equal(t, config.ModeArchive, cfg.GetMode())
	assert.Equal(t, "/other/in", cfg.GetInputDir())
	assert.Equal(t, 6, cfg.GetNumThreads())
	assert.True(t, cfg.GetDebug())
	assert.False(t, cfg.GetStartTime().IsZero())
}

func TestLoadConfigPositionalFiles(t *testing.T) {
	cfg, err := loadConfig(&options{output: t.TempDir(), files: []string{"a.rvol", "b.rvol"}})
	require.NoError(t, err)
	assert.Equal(t, config.ModeFilelist, cfg.GetMode())
	assert.Equal(t, []string{"a.rvol", "b.rvol"}, cfg.FileList)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		opts options
	}{
		{"missing config file", options{configPath: "/does/not/exist.json"}},
		{"archive without input", options{mode: config.ModeArchive, output: "/out"}},
		{"no output dir", options{mode: config.ModeArchive, input: "/in"}},
		{"bad mode", options{mode: "sideways", input: "/in", output: "/out"}},
		{"end before start", options{mode: config.ModeArchive, input: "/in", output: "/out",
			start: "2024-06-02T00:00:00Z", end: "2024-06-01T00:00:00Z"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadConfig(&tt.opts)
			assert.Error(t, err)
		})
	}
}

func TestRunArchiveEndToEnd(t *testing.T) {
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.SetLogger(nil) })

	root := t.TempDir()
	inDir := filepath.Join(root, "in")
	outDir := filepath.Join(root, "out")
	plotDir := filepath.Join(root, "plots")
	dbPath := filepath.Join(root, "runs.db")
	thrLog := filepath.Join(root, "threshold.txt")

	g := testutil.SmallGenerator(3)
	g.PlantRandomClutter(5)
	testutil.WriteVolumes(t, inDir, g, 8)

	cfgPath := filepath.Join(root, "clutter.json")
	cfgJSON := fmt.Sprintf(`{
  "mode": "archive",
  "input_dir": %q,
  "output_dir": %q,
  "fixed_elevations": [0.5],
  "az_tolerance_degrees": 0.5,
  "elev_tolerance_degrees": 0.2,
  "minimum_stable_volumes": 3,
  "db_path": %q,
  "plot_dir": %q,
  "threshold_log_path": %q
}`, inDir, outDir, dbPath, plotDir, thrLog)
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfgJSON), 0644))

	cfg, err := loadConfig(&options{configPath: cfgPath})
	require.NoError(t, err)

	res, err := run(context.Background(), cfg, "")
	require.NoError(t, err)
	require.True(t, res.Converged)
	assert.Equal(t, 4, res.VolumesPassOne)
	assert.Equal(t, 5, res.ClutterGates)

	out, err := radx.ReadVolume(res.OutputPath)
	require.NoError(t, err)
	require.NotEmpty(t, out.Rays)
	_, ok := out.Rays[0].Field(cfg.GetOutputField())
	assert.True(t, ok)

	assert.FileExists(t, filepath.Join(plotDir, "convergence-"+res.RunID+".png"))
	assert.FileExists(t, filepath.Join(plotDir, "convergence-"+res.RunID+".html"))
	assert.Equal(t, 4, countLines(t, thrLog))

	store, err := db.NewDB(dbPath)
	require.NoError(t, err)
	defer store.Close()
	stored, err := store.GetRun(res.RunID)
	require.NoError(t, err)
	assert.True(t, stored.Converged)
	assert.Equal(t, res.OutputPath, stored.OutputPath)
	stats, err := store.VolumeStats(res.RunID)
	require.NoError(t, err)
	assert.Len(t, stats, 4)
}

func TestRunNoVolumes(t *testing.T) {
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.SetLogger(nil) })

	in := t.TempDir()
	mode := config.ModeArchive
	out := t.TempDir()
	cfg := config.EmptyConfig()
	cfg.Mode = &mode
	cfg.InputDir = &in
	cfg.OutputDir = &out

	_, err := run(context.Background(), cfg, "")
	assert.Error(t, err)
}

func countLines(t *testing.T, path string) int {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	n := 0
	s := bufio.NewScanner(f)
	for s.Scan() {
		n++
	}
	require.NoError(t, s.Err())
	return n
}
