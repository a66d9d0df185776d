package radx

import (
	"bytes"
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// FileExt is the extension of volume files.
const FileExt = ".vol.gz"

// fileTimeLayout is the time portion of a volume file name.
const fileTimeLayout = "20060102_150405"

var fileTimeRe = regexp.MustCompile(`(\d{8}_\d{6})`)

// EncodeVolume compresses the volume using gob encoding and gzip compression.
func EncodeVolume(v *Volume) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	enc := gob.NewEncoder(gz)
	if err := enc.Encode(v); err != nil {
		gz.Close()
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeVolume decompresses and decodes a volume from a gob+gzip blob.
func DecodeVolume(blob []byte) (*Volume, error) {
	if len(blob) == 0 {
		return nil, fmt.Errorf("empty volume blob")
	}
	gz, err := gzip.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gz.Close()

	var v Volume
	dec := gob.NewDecoder(gz)
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("failed to decode volume: %w", err)
	}
	return &v, nil
}

// ReadVolume reads a volume file from disk.
func ReadVolume(path string) (*Volume, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read volume %s: %w", path, err)
	}
	v, err := DecodeVolume(blob)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	v.Path = path
	return v, nil
}

// WriteVolume writes a volume to path, creating parent directories. The file
// is written to a temporary name and renamed so a realtime reader never sees
// a partial file.
func WriteVolume(path string, v *Volume) error {
	blob, err := EncodeVolume(v)
	if err != nil {
		return fmt.Errorf("failed to encode volume: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, blob, 0644); err != nil {
		return fmt.Errorf("failed to write volume: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to rename volume: %w", err)
	}
	return nil
}

// FileName returns the canonical file name for a volume at time t.
func FileName(t time.Time) string {
	return t.UTC().Format(fileTimeLayout) + FileExt
}

// WriteVolumeToDir writes v into dir under its canonical file name and
// returns the full path.
func WriteVolumeToDir(dir string, v *Volume) (string, error) {
	path := filepath.Join(dir, FileName(v.Time()))
	if err := WriteVolume(path, v); err != nil {
		return "", err
	}
	return path, nil
}

// IsVolumeFile reports whether name looks like a volume file.
func IsVolumeFile(name string) bool {
	return strings.HasSuffix(name, FileExt)
}

// TimeFromPath parses the volume time embedded in a file name.
func TimeFromPath(path string) (time.Time, bool) {
	m := fileTimeRe.FindString(filepath.Base(path))
	if m == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(fileTimeLayout, m, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
