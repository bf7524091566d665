package utils

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ErrEmptyPath is returned by the write helpers when no destination is given.
var ErrEmptyPath = errors.New("empty file path")

// FileExists reports whether path names a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// EnsureDir creates dirPath and its parents.
func EnsureDir(dirPath string) error {
	return os.MkdirAll(dirPath, 0755)
}

// WriteFileAtomic streams encode into a sibling temp file and renames it over
// path, so readers never see a half-written file. Parent dirs are created.
func WriteFileAtomic(path string, encode func(w io.Writer) error) error {
	if path == "" {
		return ErrEmptyPath
	}
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}

	tmp := path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(file)
	if err := encode(w); err != nil {
		file.Close()
		os.Remove(tmp)
		return err
	}
	if err := w.Flush(); err != nil {
		file.Close()
		os.Remove(tmp)
		return err
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// SaveTOMLFile writes data as TOML to filePath.
func SaveTOMLFile(data any, filePath string) error {
	return WriteFileAtomic(filePath, func(w io.Writer) error {
		if err := toml.NewEncoder(w).Encode(data); err != nil {
			return fmt.Errorf("encoding %s: %w", filepath.Base(filePath), err)
		}
		return nil
	})
}

// GetAbsolutePath returns the absolute form of configPath, or "unknown"
// when it is empty.
func GetAbsolutePath(configPath string) string {
	if configPath == "" {
		return "unknown"
	}
	if absPath, err := filepath.Abs(configPath); err == nil {
		return absPath
	}
	return configPath
}
