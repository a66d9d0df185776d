package trigger

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"time"

	"github.com/banshee-data/persistent-clutter/internal/monitoring"
	"github.com/banshee-data/persistent-clutter/internal/radx"
	"github.com/banshee-data/persistent-clutter/internal/security"
)

// Archive reads every volume file under a directory whose file time is
// within [start, end], in time order. Zero start or end is unbounded.
type Archive struct {
	listSource
	dir string
}

// NewArchive scans dir for volumes.
func NewArchive(dir string, start, end time.Time) (*Archive, error) {
	if dir == "" {
		return nil, fmt.Errorf("archive mode requires an input directory")
	}
	files, err := scanDir(dir, func(t time.Time) bool {
		return (start.IsZero() || !t.Before(start)) && (end.IsZero() || !t.After(end))
	})
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s between %s and %s", ErrNoVolumes, dir, fmtBound(start), fmtBound(end))
	}
	monitoring.Logf("[trigger] archive: %d volumes in %s", len(files), dir)
	a := &Archive{dir: dir}
	for _, f := range files {
		a.paths = append(a.paths, f.path)
	}
	return a, nil
}

type volumeFile struct {
	path string
	t    time.Time
}

// scanDir walks dir for volume files whose time satisfies keep, sorted by
// time then path. Files resolving outside dir are skipped.
func scanDir(dir string, keep func(time.Time) bool) ([]volumeFile, error) {
	var files []volumeFile
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !radx.IsVolumeFile(d.Name()) {
			return nil
		}
		t, ok := radx.TimeFromPath(path)
		if !ok {
			monitoring.Debugf("[trigger] skipping %s: no time in file name", path)
			return nil
		}
		if !keep(t) {
			return nil
		}
		if err := security.ValidatePathWithinDirectory(path, dir); err != nil {
			monitoring.Logf("[trigger] WARNING: skipping %s: %v", path, err)
			return nil
		}
		files = append(files, volumeFile{path: path, t: t})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	sort.Slice(files, func(i, j int) bool {
		if !files[i].t.Equal(files[j].t) {
			return files[i].t.Before(files[j].t)
		}
		return files[i].path < files[j].path
	})
	return files, nil
}

func fmtBound(t time.Time) string {
	if t.IsZero() {
		return "unbounded"
	}
	return t.Format(time.RFC3339)
}
