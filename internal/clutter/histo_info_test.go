package clutter

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/persistent-clutter/internal/radx"
)

// flaggedInfo returns a 4-gate accumulator with gates 1 and 3 flagged.
func flaggedInfo(t *testing.T) *ClutterInfo {
	t.Helper()
	ci := NewClutterInfo(AzElev{0, 0.5}, 0.125, 0.25, 4)
	ci.Update(rayData(0, 0.5, 0, 50, 0, 50), 30)
	if _, n := ci.UpdateClutter(1, nil); n != 2 {
		t.Fatalf("expected 2 clutter gates, got %d", n)
	}
	return ci
}

func TestHistoInfoOnlyClutterGatesGetHistograms(t *testing.T) {
	ci := flaggedInfo(t)
	hi, err := NewHistoInfo(ci, -10, 90, 0.5)
	if err != nil {
		t.Fatalf("NewHistoInfo: %v", err)
	}
	if hi.NumHistograms() != 2 {
		t.Fatalf("NumHistograms() = %d, want 2", hi.NumHistograms())
	}

	// anomalous values at non-clutter gates must not create histograms
	for i := 0; i < 5; i++ {
		if !hi.UpdateSecondPass(rayData(0, 0.5, 80, 48, 85, radx.DefaultMissing)) {
			t.Fatal("UpdateSecondPass rejected matching geometry")
		}
	}
	for _, gate := range []int{0, 2} {
		if _, ok := hi.Histogram(gate); ok {
			t.Errorf("gate %d has a histogram but was not clutter", gate)
		}
	}
	h1, _ := hi.Histogram(1)
	h3, _ := hi.Histogram(3)
	if h1.NumData() != 5 || h3.NumMissing() != 5 {
		t.Errorf("gate 1 data=%d, gate 3 missing=%d; want 5, 5", h1.NumData(), h3.NumMissing())
	}

	// later first pass changes are not seen
	ci.UpdateClutter(0, nil)
	if hi.NumHistograms() != 2 || hi.IsClutter(0) {
		t.Error("HistoInfo shares state with its source accumulator")
	}
}

func TestHistoInfoSetClutter(t *testing.T) {
	hi, err := NewHistoInfo(flaggedInfo(t), -10, 90, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	rd := rayData(0, 0.5, 0, 0, 0, 0)
	for _, v := range []float64{40.1, 44.2, 46.3} {
		rd.Values = []float64{1, v, 2, radx.DefaultMissing}
		hi.UpdateSecondPass(rd)
	}

	in := []float64{5, 6, radx.DefaultMissing, 8}
	out := make([]float64, 4)
	if !hi.SetClutter(out, in, 0.5, -10) {
		t.Fatal("SetClutter failed")
	}
	// gate 1 median lands in the 44.0-44.5 bin; gate 3 saw only missing data
	want := []float64{5, 44.25, radx.DefaultMissing, -10}
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("SetClutter mismatch (-want +got):\n%s", diff)
	}
	if hi.SetClutter(make([]float64, 3), in, 0.5, -10) {
		t.Error("SetClutter should reject mismatched lengths")
	}
}

func TestHistoInfoGeometryMismatch(t *testing.T) {
	hi, _ := NewHistoInfo(flaggedInfo(t), -10, 90, 0.5)
	rd := rayData(0, 0.5, 50, 50, 50, 50)
	rd.StartRangeKm = 1
	if hi.UpdateSecondPass(rd) {
		t.Error("expected geometry mismatch")
	}
	if _, err := NewHistoInfo(flaggedInfo(t), 10, 0, 1); err == nil {
		t.Error("expected invalid histogram range error")
	}
}
