// Package fsutil provides file and path utility functions for the pipeline.
//
// Artifact and manifest writes go through WriteFileAtomic so an interrupt can
// never leave a partially written file under the final name.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// File and directory permissions.
const (
	FilePermissions = 0o600
	DirPermissions  = 0o750
)

// Characters invalid in most filesystems are replaced with this.
const invalidCharReplacement = "_"

// EnsureDir ensures a directory exists at the given path, creating it and any
// missing parents if needed.
func EnsureDir(path string) error {
	_, statErr := os.Stat(path)
	if os.IsNotExist(statErr) {
		mkdirErr := os.MkdirAll(path, DirPermissions)
		if mkdirErr != nil {
			return fmt.Errorf("failed to create directory %s: %w", path, mkdirErr)
		}
	}

	return nil
}

// WriteFileAtomic writes data to path by writing a temporary file in the same
// directory and renaming it into place. The rename is atomic on POSIX
// filesystems, so readers never observe a partial file.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)

	dirErr := EnsureDir(dir)
	if dirErr != nil {
		return dirErr
	}

	tempFile, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}

	tempPath := tempFile.Name()

	_, writeErr := tempFile.Write(data)

	closeErr := tempFile.Close()

	if writeErr != nil {
		_ = os.Remove(tempPath)

		return fmt.Errorf("failed to write temp file for %s: %w", path, writeErr)
	}

	if closeErr != nil {
		_ = os.Remove(tempPath)

		return fmt.Errorf("failed to close temp file for %s: %w", path, closeErr)
	}

	chmodErr := os.Chmod(tempPath, FilePermissions)
	if chmodErr != nil {
		_ = os.Remove(tempPath)

		return fmt.Errorf("failed to set permissions on temp file for %s: %w", path, chmodErr)
	}

	renameErr := os.Rename(tempPath, path)
	if renameErr != nil {
		_ = os.Remove(tempPath)

		return fmt.Errorf("failed to rename temp file to %s: %w", path, renameErr)
	}

	return nil
}

// FileExists reports whether path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	return info.Mode().IsRegular()
}

// SanitizeFilename removes or replaces characters that are invalid in most
// filesystems.
func SanitizeFilename(filename string) string {
	replacer := strings.NewReplacer(
		"<", invalidCharReplacement,
		">", invalidCharReplacement,
		":", invalidCharReplacement,
		"\"", invalidCharReplacement,
		"/", invalidCharReplacement,
		"\\", invalidCharReplacement,
		"|", invalidCharReplacement,
		"?", invalidCharReplacement,
		"*", invalidCharReplacement,
	)

	return replacer.Replace(filename)
}
