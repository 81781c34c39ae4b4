package archive

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// JarCreator builds a normalized jar from directories on disk
type JarCreator struct {
	path     string
	entries  map[string]entry
	label    string
	ruleKind string
}

// NewJarCreator creates a creator for the jar at path
func NewJarCreator(path string) *JarCreator {
	return &JarCreator{
		path:    path,
		entries: make(map[string]entry),
	}
}

// AddDirectory adds every regular file below dir, named relative to dir.
// A file added later replaces an earlier entry with the same name. A
// directory that does not exist contributes nothing.
func (j *JarCreator) AddDirectory(dir string) error {
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		relPath, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(relPath)
		if name == manifestPath {
			return nil
		}
		j.entries[name] = entry{source: path}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to add directory %s: %w", dir, err)
	}
	return nil
}

// SetJarOwner records the owning target in the manifest
func (j *JarCreator) SetJarOwner(label, ruleKind string) {
	j.label = label
	j.ruleKind = ruleKind
}

// Len returns the number of file entries added so far
func (j *JarCreator) Len() int {
	return len(j.entries)
}

// Execute writes the jar. The target must not exist yet.
func (j *JarCreator) Execute() (err error) {
	f, err := createExclusive(j.path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("failed to close %s: %w", j.path, closeErr)
		}
	}()

	return writeJar(f, manifest(j.label, j.ruleKind), j.entries)
}
