package histo

import (
	"math"
	"testing"
)

func mustNew(t *testing.T, min, max, res float64) *Histo {
	t.Helper()
	h, err := New(min, max, res)
	if err != nil {
		t.Fatalf("New(%v, %v, %v): %v", min, max, res, err)
	}
	return h
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name          string
		min, max, res float64
		wantErr       bool
	}{
		{"ok", -10, 90, 0.5, false},
		{"zero resolution", 0, 10, 0, true},
		{"negative resolution", 0, 10, -1, true},
		{"inverted range", 10, 0, 1, true},
		{"empty range", 5, 5, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.min, tt.max, tt.res)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
	h := mustNew(t, -10, 90, 0.5)
	if h.NumBins() != 200 {
		t.Errorf("NumBins() = %d, want 200", h.NumBins())
	}
}

func TestPercentileEmpty(t *testing.T) {
	h := mustNew(t, 0, 10, 1)
	if _, ok := h.Percentile(0.5); ok {
		t.Error("expected empty histogram to report missing")
	}
}

func TestPercentileData(t *testing.T) {
	h := mustNew(t, 0, 10, 1)
	for _, v := range []float64{1.2, 2.7, 3.1, 3.9, 8.5} {
		h.Add(v)
	}
	tests := []struct {
		p    float64
		want float64
	}{
		{0, 1.5},
		{0.2, 1.5},
		{0.5, 3.5},
		{0.8, 3.5},
		{0.9, 8.5},
		{1, 8.5},
	}
	for _, tt := range tests {
		got, ok := h.Percentile(tt.p)
		if !ok {
			t.Fatalf("Percentile(%v) reported missing", tt.p)
		}
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Percentile(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestPercentileMissingRanksLowest(t *testing.T) {
	h := mustNew(t, 0, 10, 1)
	h.AddMissing()
	h.AddMissing()
	h.AddMissing()
	h.Add(5.2)

	if _, ok := h.Percentile(0.5); ok {
		t.Error("median over mostly missing observations should be missing")
	}
	got, ok := h.Percentile(0.9)
	if !ok || got != 5.5 {
		t.Errorf("Percentile(0.9) = %v, %v; want 5.5, true", got, ok)
	}
	if h.NumMissing() != 3 || h.NumData() != 1 {
		t.Errorf("counts = %d missing, %d data", h.NumMissing(), h.NumData())
	}
}

func TestAddClampsAndNaN(t *testing.T) {
	h := mustNew(t, 0, 10, 1)
	h.Add(-100)
	h.Add(100)
	h.Add(math.NaN())

	if lo, _ := h.Percentile(0.5); lo != 0.5 {
		t.Errorf("low clamp landed at %v, want 0.5", lo)
	}
	if hi, _ := h.Percentile(1); hi != 9.5 {
		t.Errorf("high clamp landed at %v, want 9.5", hi)
	}
	if h.NumMissing() != 1 {
		t.Errorf("NaN should be counted as missing, got %d", h.NumMissing())
	}

	h.Reset()
	if h.NumData() != 0 || h.NumMissing() != 0 {
		t.Error("Reset did not clear counts")
	}
}
