package db

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/banshee-data/persistent-clutter/internal/clutter"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "clutter.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

var runStart = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func testStats(n int) []clutter.VolumeStat {
	stats := make([]clutter.VolumeStat, n)
	for i := range stats {
		stats[i] = clutter.VolumeStat{
			Index:          i + 1,
			Time:           runStart.Add(time.Duration(i) * 5 * time.Minute),
			KStar:          i,
			Threshold:      float64(i) / 10,
			ChangeFraction: 0.5 / float64(i+1),
			NChange:        10 - i,
			NClutter:       30,
			NGates:         720,
		}
	}
	return stats
}
