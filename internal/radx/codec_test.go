package radx

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func testVolume() *Volume {
	t0 := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	ray := &Ray{
		Time:          t0,
		AzimuthDeg:    10,
		ElevationDeg:  0.5,
		FixedAngleDeg: 0.5,
		StartRangeKm:  0.125,
		GateSpacingKm: 0.25,
		NGates:        3,
	}
	ray.AddField(&Field{Name: "DBZ", Units: "dBZ", Missing: DefaultMissing, Data: []float64{1, DefaultMissing, 45}})
	return &Volume{
		Instrument:  "TEST",
		StartTime:   t0,
		EndTime:     t0.Add(4 * time.Minute),
		FixedAngles: []float64{0.5},
		Rays:        []*Ray{ray},
	}
}

func TestWriteReadVolume(t *testing.T) {
	dir := t.TempDir()
	v := testVolume()

	path, err := WriteVolumeToDir(dir, v)
	if err != nil {
		t.Fatalf("WriteVolumeToDir: %v", err)
	}
	if filepath.Base(path) != "20240601_120400.vol.gz" {
		t.Errorf("unexpected file name %q", filepath.Base(path))
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temporary file left behind: %v", err)
	}

	got, err := ReadVolume(path)
	if err != nil {
		t.Fatalf("ReadVolume: %v", err)
	}
	if got.Path != path {
		t.Errorf("Path = %q, want %q", got.Path, path)
	}
	got.Path = ""
	if diff := cmp.Diff(v, got); diff != "" {
		t.Errorf("volume mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeVolumeErrors(t *testing.T) {
	if _, err := DecodeVolume(nil); err == nil {
		t.Error("expected error for empty blob")
	}
	if _, err := DecodeVolume([]byte("not gzip")); err == nil {
		t.Error("expected error for non-gzip blob")
	}
	if _, err := ReadVolume(filepath.Join(t.TempDir(), "missing.vol.gz")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestTimeFromPath(t *testing.T) {
	tests := []struct {
		path string
		want time.Time
		ok   bool
	}{
		{"/data/20240601_120400.vol.gz", time.Date(2024, 6, 1, 12, 4, 0, 0, time.UTC), true},
		{"cfrad.20231231_235959_KFTG.vol.gz", time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC), true},
		{"notes.txt", time.Time{}, false},
		{"20241399_000000.vol.gz", time.Time{}, false},
	}
	for _, tt := range tests {
		got, ok := TimeFromPath(tt.path)
		if ok != tt.ok || !got.Equal(tt.want) {
			t.Errorf("TimeFromPath(%q) = %v, %v; want %v, %v", tt.path, got, ok, tt.want, tt.ok)
		}
	}
}

func TestVolumeCloneIsDeep(t *testing.T) {
	v := testVolume()
	c := v.Clone()
	c.Rays[0].Fields["DBZ"].Data[0] = 99
	c.FixedAngles[0] = 9
	if v.Rays[0].Fields["DBZ"].Data[0] != 1 {
		t.Error("clone shares field data with original")
	}
	if v.FixedAngles[0] != 0.5 {
		t.Error("clone shares fixed angles with original")
	}
}

func TestVolumeTimeFallback(t *testing.T) {
	v := testVolume()
	v.EndTime = time.Time{}
	if !v.Time().Equal(v.Rays[0].Time) {
		t.Errorf("Time() = %v, want last ray time", v.Time())
	}
	if v.NumGates() != 3 {
		t.Errorf("NumGates() = %d, want 3", v.NumGates())
	}
}

func TestFieldIsMissing(t *testing.T) {
	f := &Field{Missing: DefaultMissing}
	if !f.IsMissing(DefaultMissing) {
		t.Error("expected missing marker to be missing")
	}
	if f.IsMissing(0) {
		t.Error("expected 0 to be valid")
	}
}
