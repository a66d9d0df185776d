package clutter

import (
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/persistent-clutter/internal/radx"
)

func TestClutterInfoUpdate(t *testing.T) {
	ci := NewClutterInfo(AzElev{10, 0.5}, 0.125, 0.25, 4)

	if !ci.Update(rayData(10, 0.5, 30, 29.9, radx.DefaultMissing, 45), 30) {
		t.Fatal("Update rejected matching geometry")
	}
	if !ci.Update(rayData(10, 0.5, 31, math.NaN(), 50, 45, 99), 30) {
		t.Fatal("Update rejected matching geometry")
	}
	if diff := cmp.Diff([]int{2, 0, 1, 2}, ci.Counts()); diff != "" {
		t.Errorf("counts mismatch (-want +got):\n%s", diff)
	}

	short := rayData(10, 0.5, 40)
	if !ci.Update(short, 30) {
		t.Fatal("Update rejected short ray")
	}
	if diff := cmp.Diff([]int{3, 0, 1, 2}, ci.Counts()); diff != "" {
		t.Errorf("short ray should only update its gates (-want +got):\n%s", diff)
	}
}

func TestClutterInfoGeometryMismatch(t *testing.T) {
	ci := NewClutterInfo(AzElev{10, 0.5}, 0.125, 0.25, 2)
	rd := rayData(10, 0.5, 50, 50)
	rd.GateSpacingKm = 0.5
	if ci.Update(rd, 30) {
		t.Error("expected geometry mismatch")
	}
	if diff := cmp.Diff([]int{0, 0}, ci.Counts()); diff != "" {
		t.Errorf("counts changed on mismatch:\n%s", diff)
	}
}

func TestClutterInfoCountsAreMonotonic(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	ci := NewClutterInfo(AzElev{0, 0.5}, 0.125, 0.25, 50)
	prev := ci.Counts()
	for vol := 0; vol < 30; vol++ {
		vals := make([]float64, 50)
		for i := range vals {
			vals[i] = rng.Float64()*80 - 10
			if rng.Float64() < 0.1 {
				vals[i] = radx.DefaultMissing
			}
		}
		ci.Update(rayData(0, 0.5, vals...), 30)
		cur := ci.Counts()
		for i := range cur {
			if cur[i] < prev[i] {
				t.Fatalf("volume %d gate %d: count decreased %d -> %d", vol, i, prev[i], cur[i])
			}
		}
		prev = cur
	}
}

func TestClutterInfoUpdateClutter(t *testing.T) {
	ci := NewClutterInfo(AzElev{0, 0.5}, 0.125, 0.25, 5)
	for v, vals := range [][]float64{
		{0, 50, 50, 50, 50},
		{0, 0, 50, 50, 50},
		{0, 0, 0, 50, 50},
	} {
		if !ci.Update(rayData(0, 0.5, vals...), 30) {
			t.Fatalf("volume %d rejected", v)
		}
	}
	// counts are now [0 1 2 3 3]

	fc := NewFrequencyCount(4, 3)
	changed, n := ci.UpdateClutter(2, fc)
	if changed != 3 || n != 3 {
		t.Errorf("UpdateClutter(2) = %d changed, %d clutter; want 3, 3", changed, n)
	}
	if fc.Total() != 5 {
		t.Errorf("frequency count total = %v, want 5", fc.Total())
	}

	changed, n = ci.UpdateClutter(1, nil)
	if changed != 1 || n != 4 {
		t.Errorf("UpdateClutter(1) = %d changed, %d clutter; want 1, 4", changed, n)
	}
	changed, _ = ci.UpdateClutter(1, nil)
	if changed != 0 {
		t.Errorf("repeat UpdateClutter changed %d gates", changed)
	}
	if ci.IsClutter(0) || !ci.IsClutter(1) || ci.IsClutter(99) {
		t.Errorf("unexpected flags %v", ci.Flags())
	}

	for count, want := range []float64{1, 1, 1, 2} {
		if got := ci.NumWithMatchingCount(count); got != want {
			t.Errorf("NumWithMatchingCount(%d) = %v, want %v", count, got, want)
		}
	}

	out := make([]float64, 5)
	if !ci.EqualOrExceed(out, 2) {
		t.Fatal("EqualOrExceed failed")
	}
	if diff := cmp.Diff([]float64{0, 0, 1, 1, 1}, out); diff != "" {
		t.Errorf("EqualOrExceed mismatch:\n%s", diff)
	}
	if ci.EqualOrExceed(make([]float64, 2), 2) {
		t.Error("EqualOrExceed should reject a short buffer")
	}

	if !ci.LoadNormalizedFrequency(out, 3) {
		t.Fatal("LoadNormalizedFrequency failed")
	}
	if diff := cmp.Diff([]float64{0, 1.0 / 3, 2.0 / 3, 1, 1}, out); diff != "" {
		t.Errorf("LoadNormalizedFrequency mismatch:\n%s", diff)
	}
	if ci.LoadNormalizedFrequency(out, 0) {
		t.Error("LoadNormalizedFrequency should reject zero scans")
	}
}

func TestClutterInfoClone(t *testing.T) {
	ci := NewClutterInfo(AzElev{0, 0.5}, 0.125, 0.25, 2)
	ci.Update(rayData(0, 0.5, 50, 0), 30)
	c := ci.Clone()
	ci.Update(rayData(0, 0.5, 50, 50), 30)
	if diff := cmp.Diff([]int{1, 0}, c.Counts()); diff != "" {
		t.Errorf("clone shares state with original:\n%s", diff)
	}
}
