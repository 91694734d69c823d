package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

var errDocumentCorrupt = errors.New("document corrupt")

func ensureDataDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// saveJSONFile writes value next to path and renames it into place, so a
// reader never sees a half-written document.
func saveJSONFile(path string, value any) error {
	if err := ensureDataDir(path); err != nil {
		return fmt.Errorf("mkdir for %s: %w", path, err)
	}
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// loadJSONFile decodes path into out. A missing file reports found=false
// with no error; an unreadable document wraps errDocumentCorrupt.
func loadJSONFile(path string, out any) (bool, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	defer file.Close()
	if err := json.NewDecoder(file).Decode(out); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return true, fmt.Errorf("%s: %w", path, errDocumentCorrupt)
		}
		return true, fmt.Errorf("%s: %w: %v", path, errDocumentCorrupt, err)
	}
	return true, nil
}
