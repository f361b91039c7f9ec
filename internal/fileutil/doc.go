// Package fileutil enumerates the files of a project tree for scanning.
//
// It is the single place that decides which entries of a project are visited,
// offering error-tolerant traversal over any go-billy filesystem.
//
// # Ignore Filter
//
// ShouldSkip decides whether an entry is excluded:
//   - The traversal root is never skipped
//   - Entries whose base name is in the ignore set are skipped (exact match)
//   - Directories whose base name starts with "." are skipped
//   - Skipping a directory prunes its entire subtree
//
// # File Enumerator
//
// Enumerate walks the tree and returns root-relative paths of regular files:
//
//	fsys := osfs.New("/path/to/project")
//	result, err := fileutil.Enumerate(fsys, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, file := range result.Files {
//	    fmt.Println(file)
//	}
//
// Symlinks and special files are not returned. Entries that cannot be read
// (permission denied, vanished during the walk) are collected in
// WalkResult.Errors while the walk continues; only a root that cannot be
// stat'ed fails the call.
//
// Tests use an in-memory filesystem:
//
//	fsys := memfs.New()
//	util.WriteFile(fsys, "src/index.html", []byte("<html></html>"), 0644)
package fileutil
