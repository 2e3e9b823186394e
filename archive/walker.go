// Package archive builds Walk abstraction on top of "archive/zip".
package archive

import (
	"archive/zip"
	"fmt"
	"path"
	"strings"
)

// WalkFunc is the type of the function called for each file in archive
// visited by Walk. The archive argument contains path to archive passed to
// Walk, file is the entry under requested path. If an error is returned,
// processing stops.
type WalkFunc func(archive string, file *zip.File) error

// Walk calls walkFn for every file in archive located at pathIn: either the
// file itself or any file under directory pathIn. Empty pathIn means the
// whole archive. Archives with absolute entries or entries containing ".."
// are rejected.
func Walk(archive, pathIn string, walkFn WalkFunc) error {

	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	pathIn = strings.Trim(path.Clean("/"+pathIn), "/")

	for _, f := range r.File {
		name := f.FileHeader.Name
		if !isSafePath(name) {
			return fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", name)
		}
		if f.FileInfo().IsDir() || !under(name, pathIn) {
			continue
		}
		if err := walkFn(archive, f); err != nil {
			return err
		}
	}
	return nil
}

// under reports whether name is dir or lies inside it, comparing whole path
// segments.
func under(name, dir string) bool {
	if dir == "" || name == dir {
		return true
	}
	return strings.HasPrefix(name, dir+"/")
}

// isSafePath returns false for paths that could escape the extraction
// directory: absolute paths and those containing ".." components.
func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, `\`) {
		return false
	}
	for _, part := range strings.Split(name, "/") {
		if part == ".." {
			return false
		}
	}
	return true
}
