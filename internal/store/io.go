package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// readSecretFile returns the contents of path and whether it exists.
func readSecretFile(path string) ([]byte, bool, error) {
	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil, false, nil
	case err != nil:
		return nil, false, fmt.Errorf("read secret: %w", err)
	}
	return b, true, nil
}

// replaceSecretFile writes b to a sibling temp file with mode, syncs it and
// renames it over path, so readers see either the old or the new secret.
func replaceSecretFile(path string, b []byte, mode os.FileMode) (err error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("write secret: %w", err)
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
		}
	}()

	if err = f.Chmod(mode); err != nil {
		return fmt.Errorf("write secret: %w", err)
	}
	if _, err = f.Write(b); err != nil {
		return fmt.Errorf("write secret: %w", err)
	}
	if err = f.Sync(); err != nil {
		return fmt.Errorf("write secret: %w", err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("write secret: %w", err)
	}
	if err = os.Rename(tmp, path); err != nil {
		return fmt.Errorf("write secret: %w", err)
	}
	return nil
}

// removeSecretFile deletes path; a missing file is not an error.
func removeSecretFile(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove secret: %w", err)
	}
	return nil
}
