package core

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteGeneratedFile replaces path with data. The write goes through a
// temporary file and a rename, so readers never see a half-written file,
// and a lock file beside path serialises concurrent genkvo runs writing
// the same output. The lock file is left in place: removing it would let a
// waiting writer and a new one hold locks on different files.
func WriteGeneratedFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	unlock, err := lockFile(path + ".lock")
	if err != nil {
		return fmt.Errorf("locking %s: %w", path, err)
	}
	defer func() { _ = unlock() }()

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("renaming %s: %w", tmpPath, err)
	}
	return nil
}
