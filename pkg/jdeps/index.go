package jdeps

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
	"golang.org/x/sync/errgroup"
)

// classpathIndex maps internal class names to the classpath entry that
// provides them. The first entry providing a class wins.
type classpathIndex struct {
	entries []string
	owners  map[string]int
}

// buildIndex lists the classes of every classpath entry using up to workers
// goroutines. Missing entries provide nothing.
func buildIndex(ctx context.Context, classpath []string, workers int) (*classpathIndex, error) {
	listed := make([][]string, len(classpath))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, entry := range classpath {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			classes, err := listClasses(entry)
			if err != nil {
				return err
			}
			listed[i] = classes
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	index := &classpathIndex{
		entries: classpath,
		owners:  make(map[string]int),
	}
	for i, classes := range listed {
		for _, class := range classes {
			if _, ok := index.owners[class]; !ok {
				index.owners[class] = i
			}
		}
	}
	return index, nil
}

// owner returns the position of the classpath entry providing class
func (idx *classpathIndex) owner(class string) (int, bool) {
	i, ok := idx.owners[class]
	return i, ok
}

func listClasses(entry string) ([]string, error) {
	info, err := os.Stat(entry)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to inspect classpath entry %s: %w", entry, err)
	}
	if info.IsDir() {
		return listDirClasses(entry)
	}
	return listJarClasses(entry)
}

func listJarClasses(jar string) ([]string, error) {
	r, err := zip.OpenReader(jar)
	if err != nil {
		return nil, fmt.Errorf("failed to open classpath jar %s: %w", jar, err)
	}
	defer r.Close()

	var classes []string
	for _, f := range r.File {
		if name, ok := className(f.Name); ok {
			classes = append(classes, name)
		}
	}
	return classes, nil
}

func listDirClasses(dir string) ([]string, error) {
	var classes []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if name, ok := className(filepath.ToSlash(rel)); ok {
			classes = append(classes, name)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list classpath directory %s: %w", dir, err)
	}
	return classes, nil
}

// className converts an archive path to an internal class name
func className(entryPath string) (string, bool) {
	if !strings.HasSuffix(entryPath, ".class") || strings.HasPrefix(entryPath, "META-INF/") {
		return "", false
	}
	name := strings.TrimSuffix(entryPath, ".class")
	if name == "module-info" || strings.HasSuffix(name, "/package-info") {
		return "", false
	}
	return name, true
}
