package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	// Test that defaults are set via pointers
	if cfg.Threshold == nil || *cfg.Threshold != 30.0 {
		t.Errorf("Expected Threshold 30.0, got %v", cfg.Threshold)
	}
	if cfg.MinimumStableVolumes == nil || *cfg.MinimumStableVolumes != 5 {
		t.Errorf("Expected MinimumStableVolumes 5, got %v", cfg.MinimumStableVolumes)
	}
	if cfg.RealtimeMaxWait == nil || *cfg.RealtimeMaxWait != "10m0s" {
		t.Errorf("Expected RealtimeMaxWait '10m0s', got %v", cfg.RealtimeMaxWait)
	}

	// Test getter methods
	if cfg.GetInputField() != "DBZ" {
		t.Errorf("GetInputField() = %q, want DBZ", cfg.GetInputField())
	}
	if cfg.GetMode() != ModeArchive {
		t.Errorf("GetMode() = %q, want %q", cfg.GetMode(), ModeArchive)
	}
	if got := cfg.GetFixedElevations(); len(got) != 1 || got[0] != 0.5 {
		t.Errorf("GetFixedElevations() = %v, want [0.5]", got)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig should validate: %v", err)
	}
}

func TestLoadConfigJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "run.json")

	testJSON := `{
  "threshold": 40.0,
  "fixed_elevations": [0.5, 1.5],
  "minimum_stable_volumes": 3,
  "mode": "filelist",
  "file_list": ["a.vol.gz", "b.vol.gz"],
  "realtime_poll_interval": "250ms",
  "start_time": "2024-06-01T00:00:00Z"
}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.GetThreshold() != 40.0 {
		t.Errorf("GetThreshold() = %f, want 40", cfg.GetThreshold())
	}
	if got := cfg.GetFixedElevations(); len(got) != 2 || got[1] != 1.5 {
		t.Errorf("GetFixedElevations() = %v", got)
	}
	if cfg.GetMinimumStableVolumes() != 3 {
		t.Errorf("GetMinimumStableVolumes() = %d, want 3", cfg.GetMinimumStableVolumes())
	}
	if cfg.GetMode() != ModeFilelist {
		t.Errorf("GetMode() = %q", cfg.GetMode())
	}
	if cfg.GetRealtimePollInterval() != 250*time.Millisecond {
		t.Errorf("GetRealtimePollInterval() = %v", cfg.GetRealtimePollInterval())
	}
	want := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	if !cfg.GetStartTime().Equal(want) {
		t.Errorf("GetStartTime() = %v, want %v", cfg.GetStartTime(), want)
	}
	if !cfg.GetEndTime().IsZero() {
		t.Errorf("GetEndTime() = %v, want zero", cfg.GetEndTime())
	}

	// Unset fields fall back to defaults
	if cfg.GetClutterPercentile() != 0.5 {
		t.Errorf("GetClutterPercentile() = %f, want 0.5", cfg.GetClutterPercentile())
	}
}

func TestLoadConfigYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "run.yaml")

	testYAML := `
input_field: REF
threshold: 35
fixed_elevations: [0.5, 0.9]
num_threads: 2
mode: realtime
input_dir: /data/radar
realtime_max_wait: 2m
`
	if err := os.WriteFile(configPath, []byte(testYAML), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.GetInputField() != "REF" {
		t.Errorf("GetInputField() = %q", cfg.GetInputField())
	}
	if cfg.GetNumThreads() != 2 {
		t.Errorf("GetNumThreads() = %d", cfg.GetNumThreads())
	}
	if cfg.GetRealtimeMaxWait() != 2*time.Minute {
		t.Errorf("GetRealtimeMaxWait() = %v", cfg.GetRealtimeMaxWait())
	}
	if cfg.GetInputDir() != "/data/radar" {
		t.Errorf("GetInputDir() = %q", cfg.GetInputDir())
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name    string
		file    string
		content string
		wantErr string
	}{
		{"bad extension", "cfg.txt", `{}`, "extension"},
		{"bad json", "cfg.json", `{"threshold": `, "parse config JSON"},
		{"bad yaml", "cfg.yaml", "threshold: [", "parse config YAML"},
		{"invalid percentile", "pct.json", `{"clutter_percentile": 1.5}`, "clutter_percentile"},
		{"invalid mode", "mode.json", `{"mode": "streaming"}`, "mode must be"},
		{"invalid duration", "dur.json", `{"realtime_max_wait": "soon"}`, "realtime_max_wait"},
		{"invalid time", "time.json", `{"end_time": "yesterday"}`, "end_time"},
		{"histogram range", "histo.json", `{"histogram_min": 10, "histogram_max": 5}`, "histogram_max"},
		{"zero threads", "threads.json", `{"num_threads": 0}`, "num_threads"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(tmpDir, tt.file)
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatalf("write: %v", err)
			}
			_, err := LoadConfig(path)
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}

	if _, err := LoadConfig(filepath.Join(tmpDir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidateForRun(t *testing.T) {
	out := "/tmp/out"
	in := "/tmp/in"
	archive := ModeArchive
	filelist := ModeFilelist
	start := "2024-06-02T00:00:00Z"
	end := "2024-06-01T00:00:00Z"

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"archive ok", Config{Mode: &archive, InputDir: &in, OutputDir: &out}, false},
		{"archive no input", Config{Mode: &archive, OutputDir: &out}, true},
		{"archive reversed times", Config{Mode: &archive, InputDir: &in, OutputDir: &out, StartTime: &start, EndTime: &end}, true},
		{"filelist empty", Config{Mode: &filelist, OutputDir: &out}, true},
		{"filelist ok", Config{Mode: &filelist, OutputDir: &out, FileList: []string{"a"}}, false},
		{"no output", Config{Mode: &archive, InputDir: &in}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.ValidateForRun()
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateForRun() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMustLoadDefaultConfig(t *testing.T) {
	cfg := MustLoadDefaultConfig()
	if got := cfg.GetFixedElevations(); len(got) != 3 {
		t.Errorf("defaults file fixed_elevations = %v, want 3 entries", got)
	}
	if cfg.GetHistogramResolution() != 0.5 {
		t.Errorf("GetHistogramResolution() = %f", cfg.GetHistogramResolution())
	}
}
