// Package pathplan computes the archive member names a create operation
// assigns to the input paths it is given, and normalizes the archive's own
// file extension. The common-parent relativization and extension-fixup
// rules are grounded on original_source/src/tzst/core.py's create_archive,
// reimplemented without that function's os.chdir side effect.
package pathplan

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	liberr "github.com/xixu-me/tzst/errors"
)

func init() {
	if !liberr.ExistInMapMessage(ErrorNoValidFiles) {
		liberr.RegisterIdFctMessage(ErrorNoValidFiles, getMessage)
	}
}

const (
	ErrorNoValidFiles liberr.CodeError = iota + liberr.MinPkgPath
	ErrorStat
)

func getMessage(code liberr.CodeError) string {
	switch code {
	case ErrorNoValidFiles:
		return "no valid files found"
	case ErrorStat:
		return "could not stat input path"
	}

	return ""
}

// NormalizeArchivePath appends or rewrites path's suffix so the result ends
// in .tzst or .zst: a .tar suffix becomes .tar.zst, any other suffix except
// .tzst/.zst gets .tzst appended, and .tzst/.zst paths are left untouched.
func NormalizeArchivePath(path string) string {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".tzst", ".zst":
		return path
	case ".tar":
		return strings.TrimSuffix(path, filepath.Ext(path)) + ".tar.zst"
	default:
		return path + ".tzst"
	}
}

// Entry is one input path resolved to the archive member name it will be
// stored under.
type Entry struct {
	// AbsPath is the input path, made absolute.
	AbsPath string
	// MemberName is the forward-slash, archive-relative name to store the
	// path's contents under.
	MemberName string
}

// Plan resolves inputs (files and/or directories, in argument order) to
// archive member names, relative to their common parent directory, for the
// archive being written to archivePath. Inputs that do not exist on disk
// are silently skipped, matching the source's `if Path(f).exists()` filter.
// Returns Not-Found if none of the inputs exist.
//
// When inputs is a single entry whose canonical form is the process's
// current working directory, the current-directory special case applies
// instead: immediate children are enumerated and stored under their bare
// names, excluding the archive file itself and any sibling temp file.
func Plan(inputs []string, archivePath string) ([]Entry, liberr.Error) {
	if len(inputs) == 1 {
		if isCurrentDirectory(inputs[0]) {
			return planCurrentDirectory(archivePath)
		}
	}

	type resolved struct {
		abs    string
		parent string
	}

	var existing []resolved

	for _, in := range inputs {
		abs, e := filepath.Abs(in)
		if e != nil {
			return nil, ErrorStat.Error(e)
		}

		if _, e := os.Stat(abs); e != nil {
			continue
		}

		existing = append(existing, resolved{abs: abs, parent: filepath.Dir(abs)})
	}

	if len(existing) == 0 {
		return nil, ErrorNoValidFiles.Error(nil)
	}

	parent := commonParent(existing[0].parent, collectParents(existing))

	entries := make([]Entry, 0, len(existing))
	for _, r := range existing {
		rel, e := filepath.Rel(parent, r.abs)
		if e != nil {
			return nil, ErrorStat.Error(e)
		}

		entries = append(entries, Entry{
			AbsPath:    r.abs,
			MemberName: filepath.ToSlash(rel),
		})
	}

	return entries, nil
}

func isCurrentDirectory(input string) bool {
	if input == "." {
		return true
	}

	cwd, e := os.Getwd()
	if e != nil {
		return false
	}

	abs, e := filepath.Abs(input)
	if e != nil {
		return false
	}

	return filepath.Clean(abs) == filepath.Clean(cwd)
}

// planCurrentDirectory enumerates the immediate children of the current
// working directory, excluding the archive file being created and any
// sibling temp file, and walks subdirectories recursively preserving their
// subtree.
func planCurrentDirectory(archivePath string) ([]Entry, liberr.Error) {
	cwd, e := os.Getwd()
	if e != nil {
		return nil, ErrorStat.Error(e)
	}

	absArchive, e := filepath.Abs(archivePath)
	if e != nil {
		return nil, ErrorStat.Error(e)
	}
	archiveBase := filepath.Base(absArchive)

	children, e := os.ReadDir(cwd)
	if e != nil {
		return nil, ErrorStat.Error(e)
	}

	var entries []Entry

	for _, child := range children {
		name := child.Name()
		abs := filepath.Join(cwd, name)

		if excludeFromCurrentDirectory(abs, name, absArchive, archiveBase) {
			continue
		}

		if !child.IsDir() {
			entries = append(entries, Entry{AbsPath: abs, MemberName: name})
			continue
		}

		e := filepath.Walk(abs, func(p string, info os.FileInfo, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if p == abs {
				return nil
			}

			rel, relErr := filepath.Rel(cwd, p)
			if relErr != nil {
				return relErr
			}

			entries = append(entries, Entry{AbsPath: p, MemberName: filepath.ToSlash(rel)})
			return nil
		})
		if e != nil {
			return nil, ErrorStat.Error(e)
		}
	}

	if len(entries) == 0 {
		return nil, ErrorNoValidFiles.Error(nil)
	}

	return entries, nil
}

// excludeFromCurrentDirectory implements §4.5's exclusion rules: the
// archive file itself, anything sharing its basename, and sibling temp
// files (name begins with "." and ends in ".tmp").
func excludeFromCurrentDirectory(abs, name, absArchive, archiveBase string) bool {
	if filepath.Clean(abs) == filepath.Clean(absArchive) {
		return true
	}
	if name == archiveBase {
		return true
	}
	if strings.HasPrefix(name, ".") && strings.HasSuffix(name, ".tmp") {
		return true
	}

	return false
}

func collectParents(rs []struct {
	abs    string
	parent string
}) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.parent
	}
	return out
}

// commonParent computes the deepest directory that is an ancestor of every
// path in parents, falling back to the first entry's own parent when the
// paths share no common ancestor (e.g. different drive letters).
func commonParent(firstParent string, parents []string) string {
	if len(parents) == 0 {
		return firstParent
	}

	sorted := append([]string(nil), parents...)
	sort.Strings(sorted)

	vol := filepath.VolumeName(filepath.Clean(sorted[0]))
	lo := splitClean(sorted[0])
	hi := splitClean(sorted[len(sorted)-1])

	n := len(lo)
	if len(hi) < n {
		n = len(hi)
	}

	i := 0
	for i < n && lo[i] == hi[i] {
		i++
	}

	for _, p := range sorted[1:] {
		mid := splitClean(p)
		for j := 0; j < i; j++ {
			if j >= len(mid) || mid[j] != lo[j] {
				i = j
				break
			}
		}
	}

	if i == 0 {
		return firstParent
	}

	return vol + string(filepath.Separator) + filepath.Join(lo[:i]...)
}

func splitClean(p string) []string {
	p = filepath.Clean(p)
	if vol := filepath.VolumeName(p); vol != "" {
		p = strings.TrimPrefix(p, vol)
	}

	parts := strings.Split(filepath.ToSlash(p), "/")

	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			out = append(out, part)
		}
	}

	return out
}

// FlattenName returns the base name member should be written under when
// extraction flattens directory structure.
func FlattenName(member string) string {
	return filepath.Base(filepath.FromSlash(member))
}

// Dedup filters names, keeping only the first occurrence of each member
// name in iteration order (the O1 first-occurrence rule, which the root
// package applies to member records in Handle.Members).
func Dedup(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))

	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}

	return out
}
