package fileutil

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rohmanhakim/filehash-cache/pkg/failure"
)

// EnsureDir joins dir with the optional path elements and creates the
// resulting directory, including parents, if it does not exist yet.
// An existing non-directory at that location is an error.
func EnsureDir(dir string, path ...string) failure.ClassifiedError {
	targetPath := []string{dir}
	targetPath = append(targetPath, path...)
	target := filepath.Join(targetPath...)

	info, err := os.Stat(target)
	if err == nil && !info.IsDir() {
		return &FileError{
			Message:   fmt.Sprintf("%s exists and is not a directory", target),
			Retryable: false,
			Cause:     ErrCauseNotDirectory,
			Path:      target,
		}
	}

	if err := os.MkdirAll(target, 0755); err != nil {
		return &FileError{
			Message:   fmt.Sprintf("%v", err),
			Retryable: false,
			Cause:     ErrCausePathError,
			Path:      target,
		}
	}
	return nil
}
