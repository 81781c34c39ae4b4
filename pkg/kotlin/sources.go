package kotlin

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

const (
	kotlinSuffix = ".kt"
	javaSuffix   = ".java"
)

// IsKotlinSource reports whether path names a Kotlin source file
func IsKotlinSource(path string) bool {
	return strings.HasSuffix(path, kotlinSuffix)
}

// IsJavaSource reports whether path names a Java source file
func IsJavaSource(path string) bool {
	return strings.HasSuffix(path, javaSuffix)
}

// IsJVMSource reports whether path names a Kotlin or Java source file
func IsJVMSource(path string) bool {
	return IsKotlinSource(path) || IsJavaSource(path)
}

// PartitionSources splits paths by source kind, keeping their order.
// Paths that are neither Kotlin nor Java are returned as other.
func PartitionSources(paths []string) (kotlin, java, other []string) {
	for _, path := range paths {
		switch {
		case IsKotlinSource(path):
			kotlin = append(kotlin, path)
		case IsJavaSource(path):
			java = append(java, path)
		default:
			other = append(other, path)
		}
	}
	return kotlin, java, other
}

// FindFiles walks rootDir depth first and returns the regular files accepted
// by match. A nil match accepts every file. Returned paths include rootDir.
func FindFiles(rootDir string, match func(path string) bool) ([]string, error) {
	var files []string

	err := filepath.WalkDir(rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if match == nil || match(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory %s: %w", rootDir, err)
	}

	return files, nil
}
