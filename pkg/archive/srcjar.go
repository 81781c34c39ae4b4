package archive

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

var packagePattern = regexp.MustCompile(`^\s*package\s+([A-Za-z_][\w.` + "`" + `]*)`)

// SourceJarCreator builds a normalized source jar. Each source is stored
// under the directory of its package declaration.
type SourceJarCreator struct {
	path    string
	entries map[string]entry
}

// NewSourceJarCreator creates a creator for the source jar at path
func NewSourceJarCreator(path string) *SourceJarCreator {
	return &SourceJarCreator{
		path:    path,
		entries: make(map[string]entry),
	}
}

// AddSources adds source files. A second source mapping to the same entry
// is skipped when its content is identical and rejected otherwise.
func (s *SourceJarCreator) AddSources(paths ...string) error {
	for _, source := range paths {
		data, err := os.ReadFile(source)
		if err != nil {
			return fmt.Errorf("failed to read source %s: %w", source, err)
		}

		name := SourceEntryName(source, data)
		if existing, ok := s.entries[name]; ok {
			if bytes.Equal(existing.data, data) {
				continue
			}
			return fmt.Errorf("conflicting sources for source jar entry %s: %s", name, source)
		}
		s.entries[name] = entry{data: data}
	}
	return nil
}

// Len returns the number of entries added so far
func (s *SourceJarCreator) Len() int {
	return len(s.entries)
}

// Execute writes the source jar. The target must not exist yet.
func (s *SourceJarCreator) Execute() (err error) {
	f, err := createExclusive(s.path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("failed to close %s: %w", s.path, closeErr)
		}
	}()

	return writeJar(f, manifest("", ""), s.entries)
}

// SourceEntryName returns the jar entry name of a source file: its package
// directory followed by the file name, or the bare file name when the source
// declares no package.
func SourceEntryName(source string, content []byte) string {
	base := filepath.Base(source)

	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		match := packagePattern.FindStringSubmatch(scanner.Text())
		if match == nil {
			continue
		}
		pkg := strings.ReplaceAll(match[1], "`", "")
		pkg = strings.TrimSuffix(pkg, ";")
		return path.Join(strings.ReplaceAll(pkg, ".", "/"), base)
	}
	return base
}
