package trigger

import (
	"fmt"
	"os"
)

// FileList reads an explicit list of volume files in the order given.
type FileList struct {
	listSource
}

// NewFileList checks that every path exists.
func NewFileList(paths []string) (*FileList, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: empty file list", ErrNoVolumes)
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("file list: %w", err)
		}
	}
	return &FileList{listSource{paths: append([]string(nil), paths...)}}, nil
}
