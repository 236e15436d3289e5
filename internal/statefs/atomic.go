// Package statefs provides the atomic-replace file primitives every
// persistence-facing component (checkpointing, scale compaction, the
// projector's artifacts) shares, so no reader ever observes a partial
// write (spec.md §3 invariant, §8 property 3).
package statefs

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteAtomic writes data to a sibling temporary file in path's directory,
// flushes it, then renames it over path. Rename is atomic on the same
// filesystem, so readers either see the old full content or the new full
// content — never a mix.
func WriteAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("create temp in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp %s: %w", tmpPath, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync temp %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp %s: %w", tmpPath, err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("chmod temp %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename %s -> %s: %w", tmpPath, path, err)
	}
	return nil
}

// WriteAtomicFanout writes the same payload to every target path,
// tolerating individual target failures. It returns the number of
// successful writes and a slice of per-target errors (nil entries for
// successes), matching the "N targets, partial failure is fine" contract
// of spec.md §4.7 and §7 (StateIO is fatal only if every target fails).
func WriteAtomicFanout(paths []string, data []byte, perm os.FileMode) (succeeded int, errs []error) {
	errs = make([]error, len(paths))
	for i, p := range paths {
		if err := WriteAtomic(p, data, perm); err != nil {
			errs[i] = err
			continue
		}
		succeeded++
	}
	return succeeded, errs
}
