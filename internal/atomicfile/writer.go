// Package atomicfile implements the sibling-temp-file-then-rename discipline
// the archive engine uses to publish newly created archives, so that a
// crashed or aborted creation never leaves a truncated file visible under
// the final name. The temp-file-plus-explicit-cleanup shape is grounded on
// nabbar-golib/ioutils/tempFile.go's NewTempFile/GetTempFilePath/DelTempFile
// trio, adapted from a global os.TempDir() location to a sibling-of-the-
// final-path location, per SPEC_FULL.md §4.4.
package atomicfile

import (
	"os"
	"path/filepath"
	"sync"

	liberr "github.com/xixu-me/tzst/errors"
)

func init() {
	if !liberr.ExistInMapMessage(ErrorTempCreate) {
		liberr.RegisterIdFctMessage(ErrorTempCreate, getMessage)
	}
}

const (
	ErrorTempCreate liberr.CodeError = iota + liberr.MinPkgAtomic
	ErrorRename
	ErrorRemove
)

func getMessage(code liberr.CodeError) string {
	switch code {
	case ErrorTempCreate:
		return "could not create sibling temporary file"
	case ErrorRename:
		return "could not publish archive under its final name"
	case ErrorRemove:
		return "could not remove temporary file"
	}

	return ""
}

// registry tracks temp paths currently open for writing so a signal handler
// installed by the CLI entry point can remove them if the process is
// interrupted mid-creation (O3 strengthening, see DESIGN.md).
var registry = struct {
	mu    sync.Mutex
	paths map[string]struct{}
}{paths: make(map[string]struct{})}

// Register adds path to the cleanup registry.
func Register(path string) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.paths[path] = struct{}{}
}

// Unregister removes path from the cleanup registry.
func Unregister(path string) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	delete(registry.paths, path)
}

// CleanupAll removes every currently registered temp path, best-effort. The
// CLI entry point calls this from its SIGINT/SIGTERM handler before exiting
// with status 130.
func CleanupAll() {
	registry.mu.Lock()
	paths := make([]string, 0, len(registry.paths))
	for p := range registry.paths {
		paths = append(paths, p)
	}
	registry.mu.Unlock()

	for _, p := range paths {
		_ = os.Remove(p)
		Unregister(p)
	}
}

// Writer is the archive engine's atomic-publication handle: callers write
// the archive body to Writer.File, then call Commit on success or Abort on
// failure.
type Writer struct {
	File      *os.File
	tempPath  string
	finalPath string
	done      bool
}

// New creates a sibling temporary file for finalPath: same directory, a
// name prefixed with "." and suffixed ".tmp" so it is identifiable and
// hidden on POSIX.
func New(finalPath string) (*Writer, liberr.Error) {
	dir := filepath.Dir(finalPath)

	f, e := os.CreateTemp(dir, "."+filepath.Base(finalPath)+"-*.tmp")
	if e != nil {
		return nil, ErrorTempCreate.Error(e)
	}

	Register(f.Name())

	return &Writer{File: f, tempPath: f.Name(), finalPath: finalPath}, nil
}

// NonAtomic opens finalPath directly for writing, bypassing the temp-file
// discipline. Offered as a configuration flag; not recommended (§4.4).
func NonAtomic(finalPath string) (*Writer, liberr.Error) {
	f, e := os.OpenFile(finalPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if e != nil {
		return nil, ErrorTempCreate.Error(e)
	}

	return &Writer{File: f, tempPath: "", finalPath: finalPath}, nil
}

// Commit closes the temp file and renames it onto the final path. A no-op
// rename (tempPath == "") is used by NonAtomic writers, which are already
// writing under the final name.
func (w *Writer) Commit() liberr.Error {
	if w.done {
		return nil
	}
	w.done = true

	if e := w.File.Close(); e != nil {
		if w.tempPath != "" {
			_ = os.Remove(w.tempPath)
			Unregister(w.tempPath)
		}
		return ErrorRename.Error(e)
	}

	if w.tempPath == "" {
		return nil
	}

	if e := rename(w.tempPath, w.finalPath); e != nil {
		_ = os.Remove(w.tempPath)
		Unregister(w.tempPath)
		return ErrorRename.Error(e)
	}

	Unregister(w.tempPath)
	return nil
}

// Abort closes and removes the temp file, leaving the final path untouched.
// Safe to call after Commit (no-op) and safe to call multiple times.
func (w *Writer) Abort() liberr.Error {
	if w.done {
		return nil
	}
	w.done = true

	_ = w.File.Close()

	if w.tempPath == "" {
		return nil
	}

	defer Unregister(w.tempPath)

	if e := os.Remove(w.tempPath); e != nil && !os.IsNotExist(e) {
		return ErrorRemove.Error(e)
	}

	return nil
}

// rename performs a fast rename, falling back to copy+delete on a
// cross-device error, matching the source's cross-platform file-move
// primitive. Commit is its only caller; the conflict resolver's auto-rename
// path only computes a new name and does not move files.
func rename(src, dst string) error {
	if e := os.Rename(src, dst); e == nil {
		return nil
	} else if !isCrossDevice(e) {
		return e
	}

	in, e := os.Open(src)
	if e != nil {
		return e
	}
	defer in.Close()

	out, e := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if e != nil {
		return e
	}

	if _, e := copyAll(out, in); e != nil {
		out.Close()
		return e
	}

	if e := out.Close(); e != nil {
		return e
	}

	return os.Remove(src)
}
