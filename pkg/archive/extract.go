package archive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
)

// SourceJarExtractor expands source jars into a destination directory
type SourceJarExtractor struct {
	destDir string
	match   func(path string) bool
}

// NewSourceJarExtractor creates an extractor writing into destDir. Only files
// accepted by match are listed by Execute; every file is extracted.
func NewSourceJarExtractor(destDir string, match func(path string) bool) *SourceJarExtractor {
	return &SourceJarExtractor{
		destDir: destDir,
		match:   match,
	}
}

// Execute extracts the jars in order, later jars overwriting files of earlier
// ones, then returns the matching files found under the destination.
func (e *SourceJarExtractor) Execute(jars []string) ([]string, error) {
	if len(jars) == 0 {
		return nil, nil
	}

	if err := os.MkdirAll(e.destDir, 0755); err != nil {
		return nil, fmt.Errorf("could not create unpack directory at %s: %w", e.destDir, err)
	}

	for _, jar := range jars {
		if err := e.extract(jar); err != nil {
			return nil, err
		}
	}

	var sources []string
	err := filepath.WalkDir(e.destDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() && (e.match == nil || e.match(path)) {
			sources = append(sources, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk unpack directory %s: %w", e.destDir, err)
	}
	return sources, nil
}

func (e *SourceJarExtractor) extract(jar string) error {
	r, err := zip.OpenReader(jar)
	if err != nil {
		return fmt.Errorf("failed to open source jar %s: %w", jar, err)
	}
	defer r.Close()

	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		target, err := e.targetPath(f.Name)
		if err != nil {
			return fmt.Errorf("source jar %s: %w", jar, err)
		}
		if err := writeZipFile(f, target); err != nil {
			return fmt.Errorf("failed to extract %s from %s: %w", f.Name, jar, err)
		}
	}
	return nil
}

// targetPath resolves an entry name inside the destination directory
func (e *SourceJarExtractor) targetPath(name string) (string, error) {
	target := filepath.Join(e.destDir, filepath.FromSlash(name))
	rel, err := filepath.Rel(e.destDir, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("entry %s escapes the unpack directory", name)
	}
	return target, nil
}

func writeZipFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
