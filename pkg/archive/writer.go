// Package archive writes and expands the jar files produced and consumed by
// the pipeline.
//
// Jars are normalized: entries are sorted, every entry carries the same
// timestamp and missing parent directories are synthesized, so identical
// inputs always produce identical bytes.
package archive

import (
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
)

// DefaultTimestamp is the modification time recorded for every entry
var DefaultTimestamp = time.Date(2010, time.January, 1, 0, 0, 0, 0, time.UTC)

const (
	manifestDir  = "META-INF/"
	manifestPath = "META-INF/MANIFEST.MF"
)

// entry is a file to be stored in a jar
type entry struct {
	// source is the path of the file on disk; empty when data is set
	source string
	data   []byte
}

func (e entry) open() (io.ReadCloser, error) {
	if e.source == "" {
		return io.NopCloser(strings.NewReader(string(e.data))), nil
	}
	return os.Open(e.source)
}

// createExclusive creates path, failing if it already exists
func createExclusive(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create archive %s: %w", path, err)
	}
	return f, nil
}

// writeJar writes the manifest followed by the entries in sorted order
func writeJar(w io.Writer, manifest []byte, entries map[string]entry) error {
	names := make([]string, 0, len(entries))
	dirs := make(map[string]bool)
	for name := range entries {
		names = append(names, name)
		for dir := path.Dir(name); dir != "." && dir != "/"; dir = path.Dir(dir) {
			dirs[dir+"/"] = true
		}
	}
	delete(dirs, manifestDir)
	for dir := range dirs {
		names = append(names, dir)
	}
	sort.Strings(names)

	zw := zip.NewWriter(w)

	if err := writeDirEntry(zw, manifestDir); err != nil {
		return err
	}
	if err := writeFileEntry(zw, manifestPath, entry{data: manifest}); err != nil {
		return err
	}

	for _, name := range names {
		if dirs[name] {
			if err := writeDirEntry(zw, name); err != nil {
				return err
			}
			continue
		}
		if err := writeFileEntry(zw, name, entries[name]); err != nil {
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish archive: %w", err)
	}
	return nil
}

func writeDirEntry(zw *zip.Writer, name string) error {
	header := &zip.FileHeader{
		Name:     name,
		Method:   zip.Store,
		Modified: DefaultTimestamp,
	}
	header.SetMode(os.ModeDir | 0755)
	if _, err := zw.CreateHeader(header); err != nil {
		return fmt.Errorf("failed to add directory %s: %w", name, err)
	}
	return nil
}

func writeFileEntry(zw *zip.Writer, name string, e entry) error {
	header := &zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: DefaultTimestamp,
	}
	header.SetMode(0644)

	w, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("failed to add entry %s: %w", name, err)
	}

	r, err := e.open()
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer r.Close()

	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("failed to write entry %s: %w", name, err)
	}
	return nil
}

// manifest renders a jar manifest with the optional owner attributes
func manifest(label, ruleKind string) []byte {
	var b strings.Builder
	b.WriteString("Manifest-Version: 1.0\r\n")
	b.WriteString("Created-By: kbuilder\r\n")
	if label != "" {
		fmt.Fprintf(&b, "Target-Label: %s\r\n", label)
	}
	if ruleKind != "" {
		fmt.Fprintf(&b, "Injecting-Rule-Kind: %s\r\n", ruleKind)
	}
	b.WriteString("\r\n")
	return []byte(b.String())
}
