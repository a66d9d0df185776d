package clutter

import (
	"fmt"

	"github.com/banshee-data/persistent-clutter/internal/config"
)

// Params holds the algorithm settings for both passes.
type Params struct {
	InputField     string
	OutputField    string
	CandidateField string
	FrequencyField string

	Threshold        float64
	FixedElevations  []float64
	AzToleranceDeg   float64
	ElevToleranceDeg float64

	MinimumStableVolumes int
	MaximumPercentChange float64 // percent of gates
	ThresholdTolerance   float64 // in threshold (fraction) units

	HistogramMin        float64
	HistogramMax        float64
	HistogramResolution float64
	ClutterPercentile   float64 // fraction in [0, 1]
	MissingClutterValue float64

	FrequencyBins int
	NumThreads    int
}

// ParamsFromConfig reads the algorithm settings from cfg, applying defaults.
func ParamsFromConfig(cfg *config.Config) Params {
	return Params{
		InputField:           cfg.GetInputField(),
		OutputField:          cfg.GetOutputField(),
		CandidateField:       cfg.GetCandidateField(),
		FrequencyField:       cfg.GetFrequencyField(),
		Threshold:            cfg.GetThreshold(),
		FixedElevations:      cfg.GetFixedElevations(),
		AzToleranceDeg:       cfg.GetAzToleranceDegrees(),
		ElevToleranceDeg:     cfg.GetElevToleranceDegrees(),
		MinimumStableVolumes: cfg.GetMinimumStableVolumes(),
		MaximumPercentChange: cfg.GetMaximumPercentChange(),
		ThresholdTolerance:   cfg.GetThresholdTolerance(),
		HistogramMin:         cfg.GetHistogramMin(),
		HistogramMax:         cfg.GetHistogramMax(),
		HistogramResolution:  cfg.GetHistogramResolution(),
		ClutterPercentile:    cfg.GetClutterPercentile(),
		MissingClutterValue:  cfg.GetMissingClutterValue(),
		FrequencyBins:        cfg.GetFrequencyBins(),
		NumThreads:           cfg.GetNumThreads(),
	}
}

// Validate checks the settings needed to construct either pass.
func (p Params) Validate() error {
	if p.InputField == "" || p.OutputField == "" {
		return fmt.Errorf("input and output field names are required")
	}
	if len(p.FixedElevations) == 0 {
		return fmt.Errorf("at least one fixed elevation is required")
	}
	if p.MinimumStableVolumes < 1 {
		return fmt.Errorf("minimum_stable_volumes must be at least 1, got %d", p.MinimumStableVolumes)
	}
	if p.ClutterPercentile < 0 || p.ClutterPercentile > 1 {
		return fmt.Errorf("clutter_percentile must be in [0, 1], got %v", p.ClutterPercentile)
	}
	if p.HistogramResolution <= 0 || p.HistogramMax <= p.HistogramMin {
		return fmt.Errorf("invalid histogram range [%v, %v] at %v", p.HistogramMin, p.HistogramMax, p.HistogramResolution)
	}
	if p.FrequencyBins < 1 {
		return fmt.Errorf("frequency_bins must be at least 1, got %d", p.FrequencyBins)
	}
	return nil
}
