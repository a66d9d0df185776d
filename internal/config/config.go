package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is the path to the canonical defaults file.
const DefaultConfigPath = "config/clutter.defaults.json"

// Trigger modes.
const (
	ModeArchive  = "archive"
	ModeFilelist = "filelist"
	ModeRealtime = "realtime"
)

// TimeLayout is the layout accepted for start_time and end_time.
const TimeLayout = time.RFC3339

// Config represents the root configuration for a persistent clutter run.
// Fields omitted from a config file fall back to the defaults returned by the
// Get* accessors, so partial configs are safe.
type Config struct {
	// Fields
	InputField     *string `json:"input_field,omitempty" yaml:"input_field,omitempty"`
	OutputField    *string `json:"output_field,omitempty" yaml:"output_field,omitempty"`
	CandidateField *string `json:"candidate_field,omitempty" yaml:"candidate_field,omitempty"`
	FrequencyField *string `json:"frequency_field,omitempty" yaml:"frequency_field,omitempty"`

	// Detection
	Threshold            *float64  `json:"threshold,omitempty" yaml:"threshold,omitempty"` // dBZ
	FixedElevations      []float64 `json:"fixed_elevations,omitempty" yaml:"fixed_elevations,omitempty"`
	AzToleranceDegrees   *float64  `json:"az_tolerance_degrees,omitempty" yaml:"az_tolerance_degrees,omitempty"`
	ElevToleranceDegrees *float64  `json:"elev_tolerance_degrees,omitempty" yaml:"elev_tolerance_degrees,omitempty"`

	// Convergence
	MinimumStableVolumes *int     `json:"minimum_stable_volumes,omitempty" yaml:"minimum_stable_volumes,omitempty"`
	MaximumPercentChange *float64 `json:"maximum_percent_change,omitempty" yaml:"maximum_percent_change,omitempty"` // percent
	ThresholdTolerance   *float64 `json:"threshold_tolerance,omitempty" yaml:"threshold_tolerance,omitempty"`

	// Second pass histograms
	HistogramMin        *float64 `json:"histogram_min,omitempty" yaml:"histogram_min,omitempty"`
	HistogramMax        *float64 `json:"histogram_max,omitempty" yaml:"histogram_max,omitempty"`
	HistogramResolution *float64 `json:"histogram_resolution,omitempty" yaml:"histogram_resolution,omitempty"`
	ClutterPercentile   *float64 `json:"clutter_percentile,omitempty" yaml:"clutter_percentile,omitempty"` // fraction in [0, 1]
	MissingClutterValue *float64 `json:"missing_clutter_value,omitempty" yaml:"missing_clutter_value,omitempty"`

	// Diagnostics
	FrequencyBins    *int    `json:"frequency_bins,omitempty" yaml:"frequency_bins,omitempty"`
	DiagnosticDir    *string `json:"diagnostic_dir,omitempty" yaml:"diagnostic_dir,omitempty"`
	ThresholdLogPath *string `json:"threshold_log_path,omitempty" yaml:"threshold_log_path,omitempty"`
	HistogramLogPath *string `json:"histogram_log_path,omitempty" yaml:"histogram_log_path,omitempty"`
	PlotDir          *string `json:"plot_dir,omitempty" yaml:"plot_dir,omitempty"`

	// Compute
	NumThreads *int `json:"num_threads,omitempty" yaml:"num_threads,omitempty"`

	// Triggering
	Mode                 *string  `json:"mode,omitempty" yaml:"mode,omitempty"`
	InputDir             *string  `json:"input_dir,omitempty" yaml:"input_dir,omitempty"`
	StartTime            *string  `json:"start_time,omitempty" yaml:"start_time,omitempty"` // RFC3339
	EndTime              *string  `json:"end_time,omitempty" yaml:"end_time,omitempty"`     // RFC3339
	FileList             []string `json:"file_list,omitempty" yaml:"file_list,omitempty"`
	RealtimePollInterval *string  `json:"realtime_poll_interval,omitempty" yaml:"realtime_poll_interval,omitempty"` // duration string like "5s"
	RealtimeMaxWait      *string  `json:"realtime_max_wait,omitempty" yaml:"realtime_max_wait,omitempty"`           // duration string like "10m"

	// Output
	OutputDir *string `json:"output_dir,omitempty" yaml:"output_dir,omitempty"`
	DBPath    *string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	Debug     *bool   `json:"debug,omitempty" yaml:"debug,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyConfig returns a Config with all fields set to nil.
func EmptyConfig() *Config {
	return &Config{}
}

// DefaultConfig returns a Config with every field populated from the Get*
// defaults. It is what MustLoadDefaultConfig would produce from an empty file.
func DefaultConfig() *Config {
	c := EmptyConfig()
	return &Config{
		InputField:           ptrString(c.GetInputField()),
		OutputField:          ptrString(c.GetOutputField()),
		CandidateField:       ptrString(c.GetCandidateField()),
		FrequencyField:       ptrString(c.GetFrequencyField()),
		Threshold:            ptrFloat64(c.GetThreshold()),
		FixedElevations:      c.GetFixedElevations(),
		AzToleranceDegrees:   ptrFloat64(c.GetAzToleranceDegrees()),
		ElevToleranceDegrees: ptrFloat64(c.GetElevToleranceDegrees()),
		MinimumStableVolumes: ptrInt(c.GetMinimumStableVolumes()),
		MaximumPercentChange: ptrFloat64(c.GetMaximumPercentChange()),
		ThresholdTolerance:   ptrFloat64(c.GetThresholdTolerance()),
		HistogramMin:         ptrFloat64(c.GetHistogramMin()),
		HistogramMax:         ptrFloat64(c.GetHistogramMax()),
		HistogramResolution:  ptrFloat64(c.GetHistogramResolution()),
		ClutterPercentile:    ptrFloat64(c.GetClutterPercentile()),
		MissingClutterValue:  ptrFloat64(c.GetMissingClutterValue()),
		FrequencyBins:        ptrInt(c.GetFrequencyBins()),
		NumThreads:           ptrInt(c.GetNumThreads()),
		Mode:                 ptrString(c.GetMode()),
		RealtimePollInterval: ptrString(c.GetRealtimePollInterval().String()),
		RealtimeMaxWait:      ptrString(c.GetRealtimeMaxWait().String()),
		Debug:                ptrBool(c.GetDebug()),
	}
}

// LoadConfig loads a Config from a JSON or YAML file.
// The file is validated to ensure it has a known extension and is under the max file size.
func LoadConfig(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyConfig()
	if ext == ".json" {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *Config {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // from cmd/tools/<tool>/
	}
	for _, path := range candidates {
		if cfg, err := LoadConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *Config) Validate() error {
	if c.Threshold != nil && math.IsNaN(*c.Threshold) {
		return fmt.Errorf("threshold must be a number")
	}
	if c.AzToleranceDegrees != nil && *c.AzToleranceDegrees < 0 {
		return fmt.Errorf("az_tolerance_degrees must be non-negative, got %f", *c.AzToleranceDegrees)
	}
	if c.ElevToleranceDegrees != nil && *c.ElevToleranceDegrees < 0 {
		return fmt.Errorf("elev_tolerance_degrees must be non-negative, got %f", *c.ElevToleranceDegrees)
	}
	if c.FixedElevations != nil && len(c.FixedElevations) == 0 {
		return fmt.Errorf("fixed_elevations must not be empty when set")
	}
	if c.MinimumStableVolumes != nil && *c.MinimumStableVolumes < 1 {
		return fmt.Errorf("minimum_stable_volumes must be at least 1, got %d", *c.MinimumStableVolumes)
	}
	if c.MaximumPercentChange != nil && (*c.MaximumPercentChange < 0 || *c.MaximumPercentChange > 100) {
		return fmt.Errorf("maximum_percent_change must be between 0 and 100, got %f", *c.MaximumPercentChange)
	}
	if c.ThresholdTolerance != nil && *c.ThresholdTolerance < 0 {
		return fmt.Errorf("threshold_tolerance must be non-negative, got %f", *c.ThresholdTolerance)
	}
	if c.HistogramResolution != nil && *c.HistogramResolution <= 0 {
		return fmt.Errorf("histogram_resolution must be positive, got %f", *c.HistogramResolution)
	}
	if c.GetHistogramMax() <= c.GetHistogramMin() {
		return fmt.Errorf("histogram_max (%f) must exceed histogram_min (%f)", c.GetHistogramMax(), c.GetHistogramMin())
	}
	if c.ClutterPercentile != nil && (*c.ClutterPercentile < 0 || *c.ClutterPercentile > 1) {
		return fmt.Errorf("clutter_percentile must be between 0 and 1, got %f", *c.ClutterPercentile)
	}
	if c.FrequencyBins != nil && *c.FrequencyBins < 2 {
		return fmt.Errorf("frequency_bins must be at least 2, got %d", *c.FrequencyBins)
	}
	if c.NumThreads != nil && *c.NumThreads < 1 {
		return fmt.Errorf("num_threads must be at least 1, got %d", *c.NumThreads)
	}

	switch c.GetMode() {
	case ModeArchive, ModeFilelist, ModeRealtime:
	default:
		return fmt.Errorf("mode must be one of %q, %q, %q, got %q", ModeArchive, ModeFilelist, ModeRealtime, c.GetMode())
	}

	for name, v := range map[string]*string{"start_time": c.StartTime, "end_time": c.EndTime} {
		if v != nil && *v != "" {
			if _, err := time.Parse(TimeLayout, *v); err != nil {
				return fmt.Errorf("invalid %s '%s': %w", name, *v, err)
			}
		}
	}
	for name, v := range map[string]*string{"realtime_poll_interval": c.RealtimePollInterval, "realtime_max_wait": c.RealtimeMaxWait} {
		if v != nil && *v != "" {
			if _, err := time.ParseDuration(*v); err != nil {
				return fmt.Errorf("invalid %s '%s': %w", name, *v, err)
			}
		}
	}

	return nil
}

// ValidateForRun checks the fields a specific trigger mode needs. It is kept
// apart from Validate so partial config files remain loadable.
func (c *Config) ValidateForRun() error {
	if err := c.Validate(); err != nil {
		return err
	}
	switch c.GetMode() {
	case ModeArchive:
		if c.GetInputDir() == "" {
			return fmt.Errorf("archive mode requires input_dir")
		}
		start, end := c.GetStartTime(), c.GetEndTime()
		if !start.IsZero() && !end.IsZero() && end.Before(start) {
			return fmt.Errorf("end_time %s is before start_time %s", end.Format(TimeLayout), start.Format(TimeLayout))
		}
	case ModeFilelist:
		if len(c.FileList) == 0 {
			return fmt.Errorf("filelist mode requires file_list")
		}
	case ModeRealtime:
		if c.GetInputDir() == "" {
			return fmt.Errorf("realtime mode requires input_dir")
		}
	}
	if c.GetOutputDir() == "" {
		return fmt.Errorf("output_dir is required")
	}
	return nil
}

// GetInputField returns the input_field value or the default.
func (c *Config) GetInputField() string {
	if c.InputField == nil || *c.InputField == "" {
		return "DBZ"
	}
	return *c.InputField
}

// GetOutputField returns the output_field value or the default.
func (c *Config) GetOutputField() string {
	if c.OutputField == nil || *c.OutputField == "" {
		return "CLUTTER"
	}
	return *c.OutputField
}

// GetCandidateField returns the candidate_field value or the default.
func (c *Config) GetCandidateField() string {
	if c.CandidateField == nil || *c.CandidateField == "" {
		return "CLUTTER_CANDIDATE"
	}
	return *c.CandidateField
}

// GetFrequencyField returns the frequency_field value or the default.
func (c *Config) GetFrequencyField() string {
	if c.FrequencyField == nil || *c.FrequencyField == "" {
		return "CLUTTER_FREQUENCY"
	}
	return *c.FrequencyField
}

// GetThreshold returns the threshold value or the default.
func (c *Config) GetThreshold() float64 {
	if c.Threshold == nil {
		return 30.0
	}
	return *c.Threshold
}

// GetFixedElevations returns a copy of fixed_elevations or the default.
func (c *Config) GetFixedElevations() []float64 {
	if len(c.FixedElevations) == 0 {
		return []float64{0.5}
	}
	out := make([]float64, len(c.FixedElevations))
	copy(out, c.FixedElevations)
	return out
}

// GetAzToleranceDegrees returns the az_tolerance_degrees value or the default.
func (c *Config) GetAzToleranceDegrees() float64 {
	if c.AzToleranceDegrees == nil {
		return 0.1
	}
	return *c.AzToleranceDegrees
}

// GetElevToleranceDegrees returns the elev_tolerance_degrees value or the default.
func (c *Config) GetElevToleranceDegrees() float64 {
	if c.ElevToleranceDegrees == nil {
		return 0.1
	}
	return *c.ElevToleranceDegrees
}

// GetMinimumStableVolumes returns the minimum_stable_volumes value or the default.
func (c *Config) GetMinimumStableVolumes() int {
	if c.MinimumStableVolumes == nil {
		return 5
	}
	return *c.MinimumStableVolumes
}

// GetMaximumPercentChange returns the maximum_percent_change value or the default.
func (c *Config) GetMaximumPercentChange() float64 {
	if c.MaximumPercentChange == nil {
		return 0.5
	}
	return *c.MaximumPercentChange
}

// GetThresholdTolerance returns the threshold_tolerance value or the default.
func (c *Config) GetThresholdTolerance() float64 {
	if c.ThresholdTolerance == nil {
		return 0.01
	}
	return *c.ThresholdTolerance
}

// GetHistogramMin returns the histogram_min value or the default.
func (c *Config) GetHistogramMin() float64 {
	if c.HistogramMin == nil {
		return -10.0
	}
	return *c.HistogramMin
}

// GetHistogramMax returns the histogram_max value or the default.
func (c *Config) GetHistogramMax() float64 {
	if c.HistogramMax == nil {
		return 90.0
	}
	return *c.HistogramMax
}

// GetHistogramResolution returns the histogram_resolution value or the default.
func (c *Config) GetHistogramResolution() float64 {
	if c.HistogramResolution == nil {
		return 0.5
	}
	return *c.HistogramResolution
}

// GetClutterPercentile returns the clutter_percentile value or the default.
func (c *Config) GetClutterPercentile() float64 {
	if c.ClutterPercentile == nil {
		return 0.5
	}
	return *c.ClutterPercentile
}

// GetMissingClutterValue returns the missing_clutter_value value or the default.
func (c *Config) GetMissingClutterValue() float64 {
	if c.MissingClutterValue == nil {
		return -10.0
	}
	return *c.MissingClutterValue
}

// GetFrequencyBins returns the frequency_bins value or the default.
func (c *Config) GetFrequencyBins() int {
	if c.FrequencyBins == nil {
		return 20
	}
	return *c.FrequencyBins
}

// GetDiagnosticDir returns the diagnostic_dir value; empty disables diagnostic volumes.
func (c *Config) GetDiagnosticDir() string {
	if c.DiagnosticDir == nil {
		return ""
	}
	return *c.DiagnosticDir
}

// GetThresholdLogPath returns the threshold_log_path value; empty disables it.
func (c *Config) GetThresholdLogPath() string {
	if c.ThresholdLogPath == nil {
		return ""
	}
	return *c.ThresholdLogPath
}

// GetHistogramLogPath returns the histogram_log_path value; empty disables it.
func (c *Config) GetHistogramLogPath() string {
	if c.HistogramLogPath == nil {
		return ""
	}
	return *c.HistogramLogPath
}

// GetPlotDir returns the plot_dir value; empty disables plots.
func (c *Config) GetPlotDir() string {
	if c.PlotDir == nil {
		return ""
	}
	return *c.PlotDir
}

// GetNumThreads returns the num_threads value or the default.
func (c *Config) GetNumThreads() int {
	if c.NumThreads == nil {
		return 4
	}
	return *c.NumThreads
}

// GetMode returns the mode value or the default.
func (c *Config) GetMode() string {
	if c.Mode == nil || *c.Mode == "" {
		return ModeArchive
	}
	return *c.Mode
}

// GetInputDir returns the input_dir value.
func (c *Config) GetInputDir() string {
	if c.InputDir == nil {
		return ""
	}
	return *c.InputDir
}

// GetStartTime parses start_time. A zero time means unbounded.
func (c *Config) GetStartTime() time.Time {
	return parseTime(c.StartTime)
}

// GetEndTime parses end_time. A zero time means unbounded.
func (c *Config) GetEndTime() time.Time {
	return parseTime(c.EndTime)
}

func parseTime(v *string) time.Time {
	if v == nil || *v == "" {
		return time.Time{}
	}
	t, err := time.Parse(TimeLayout, *v)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

// GetRealtimePollInterval parses and returns the RealtimePollInterval as a time.Duration.
func (c *Config) GetRealtimePollInterval() time.Duration {
	if c.RealtimePollInterval == nil || *c.RealtimePollInterval == "" {
		return 5 * time.Second // default
	}
	d, err := time.ParseDuration(*c.RealtimePollInterval)
	if err != nil {
		return 5 * time.Second // default on parse error
	}
	return d
}

// GetRealtimeMaxWait parses and returns the RealtimeMaxWait as a time.Duration.
func (c *Config) GetRealtimeMaxWait() time.Duration {
	if c.RealtimeMaxWait == nil || *c.RealtimeMaxWait == "" {
		return 10 * time.Minute // default
	}
	d, err := time.ParseDuration(*c.RealtimeMaxWait)
	if err != nil {
		return 10 * time.Minute // default on parse error
	}
	return d
}

// GetOutputDir returns the output_dir value.
func (c *Config) GetOutputDir() string {
	if c.OutputDir == nil {
		return ""
	}
	return *c.OutputDir
}

// GetDBPath returns the db_path value; empty disables the run store.
func (c *Config) GetDBPath() string {
	if c.DBPath == nil {
		return ""
	}
	return *c.DBPath
}

// GetDebug returns the debug value or the default.
func (c *Config) GetDebug() bool {
	if c.Debug == nil {
		return false
	}
	return *c.Debug
}
