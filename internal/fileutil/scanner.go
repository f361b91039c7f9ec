package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// Root is the path of the traversal root inside the walked filesystem.
const Root = "."

// IgnoreSet is the set of base names excluded from traversal.
type IgnoreSet interface {
	Ignored(name string) bool
}

// WalkResult contains the results of enumerating a project tree
type WalkResult struct {
	// Files contains root-relative, slash-separated paths of all regular files found
	Files []string
	// Errors contains the entries that could not be traversed
	Errors []error
}

// ShouldSkip reports whether an entry and, for directories, its whole subtree
// must be excluded from the scan.
//
// The root is never skipped. Any entry whose base name is in the ignore set is
// skipped; directories whose base name starts with "." are skipped as well.
func ShouldSkip(path string, isDir bool, ignore IgnoreSet) bool {
	if path == Root || path == "" {
		return false
	}

	name := filepath.Base(path)
	if ignore != nil && ignore.Ignored(name) {
		return true
	}

	return isDir && strings.HasPrefix(name, ".")
}

// Enumerate walks fsys from its root and returns every regular file not pruned
// by ShouldSkip. Entries that cannot be read are recorded in WalkResult.Errors
// and skipped; they never abort the walk.
func Enumerate(fsys billy.Filesystem, ignore IgnoreSet) (*WalkResult, error) {
	result := &WalkResult{
		Files:  make([]string, 0),
		Errors: make([]error, 0),
	}

	err := util.Walk(fsys, Root, func(path string, info os.FileInfo, err error) error {
		isDir := info != nil && info.IsDir()

		// Pruning comes first so unreadable ignored directories stay silent
		if ShouldSkip(path, isDir, ignore) {
			if isDir {
				return filepath.SkipDir
			}
			return nil
		}

		if err != nil {
			if path == Root && info == nil {
				return fmt.Errorf("failed to access root: %w", err)
			}
			result.Errors = append(result.Errors, fmt.Errorf("error accessing %s: %w", path, err))
			return nil // Continue walking
		}

		// Symlinks, devices, sockets and pipes are never evaluated
		if !info.Mode().IsRegular() {
			return nil
		}

		result.Files = append(result.Files, filepath.ToSlash(filepath.Clean(path)))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	// Sort files for consistent output
	sort.Strings(result.Files)

	return result, nil
}
