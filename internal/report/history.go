package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"
)

// MaxHistory is the number of runs kept in a stats file.
const MaxHistory = 50

// History is the on-disk layout of a stats file.
type History struct {
	Runs []Report `yaml:"runs"`
}

// ReadHistory loads the stats file at path. A missing file is an empty history.
func ReadHistory(path string) (*History, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &History{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read stats file: %w", err)
	}

	var h History
	if err := yaml.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("failed to parse stats file %s: %w", path, err)
	}
	return &h, nil
}

// WriteFile appends r to the history at path, keeping the newest MaxHistory
// runs. The read-modify-write happens under an exclusive lock on
// path + ".lock" so concurrent runs never lose each other's entries, and the
// file itself is replaced atomically.
func (r *Report) WriteFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	lockPath := path + ".lock"
	lock := flock.New(lockPath)
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", lockPath, err)
	}
	defer lock.Unlock()

	h, err := ReadHistory(path)
	if err != nil {
		return err
	}
	h.Runs = append(h.Runs, *r)
	if len(h.Runs) > MaxHistory {
		h.Runs = h.Runs[len(h.Runs)-MaxHistory:]
	}

	data, err := yaml.Marshal(h)
	if err != nil {
		return fmt.Errorf("failed to encode stats: %w", err)
	}
	return atomicWrite(path, data)
}

// atomicWrite writes data to a temp file in the target's directory and renames
// it over path, so readers see either the old or the new content.
func atomicWrite(path string, data []byte) error {
	tempFile, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	defer func() {
		if tempFile != nil {
			tempFile.Close()
			os.Remove(tempPath)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tempPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", path, err)
	}

	tempFile = nil
	return nil
}
