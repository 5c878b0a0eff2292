// Package security rewrites or rejects tar member headers before they reach
// the filesystem, enforcing one of three named extraction policies. The
// path-escape detection and mode-sanitizing logic is grounded on the
// filtering approach in google/safearchive's tar.Reader wrapper, adapted
// from a bitmask-of-modes design to three discrete named policies.
package security

import (
	"archive/tar"
	"path/filepath"
	"strings"

	liberr "github.com/xixu-me/tzst/errors"
)

// Name identifies one of the three built-in filter policies.
type Name string

const (
	Data         Name = "data"
	Tar          Name = "tar"
	FullyTrusted Name = "fully_trusted"
)

func init() {
	if !liberr.ExistInMapMessage(ErrorUnknownFilter) {
		liberr.RegisterIdFctMessage(ErrorUnknownFilter, getMessage)
	}
}

const (
	ErrorUnknownFilter liberr.CodeError = iota + liberr.MinPkgSecurity
	ErrorAbsolutePath
	ErrorAbsoluteLink
	ErrorOutsideDestination
	ErrorLinkOutsideDestination
	ErrorSpecialFile
)

func getMessage(code liberr.CodeError) string {
	switch code {
	case ErrorUnknownFilter:
		return "unknown extraction filter name"
	case ErrorAbsolutePath:
		return "member name is an absolute path"
	case ErrorAbsoluteLink:
		return "member link target is an absolute path"
	case ErrorOutsideDestination:
		return "member name escapes the destination directory"
	case ErrorLinkOutsideDestination:
		return "member link target escapes the destination directory"
	case ErrorSpecialFile:
		return "member is a disallowed special file"
	}

	return ""
}

// Func is the shape of both built-in and caller-supplied filters: given a
// tar header and the absolute destination directory, return a filtered
// header to materialize, or a rejection error.
type Func func(hdr *tar.Header, destination string) (*tar.Header, liberr.Error)

// Lookup resolves a filter name to its Func, or Invalid-Argument for an
// unrecognized name.
func Lookup(name Name) (Func, liberr.Error) {
	switch name {
	case FullyTrusted:
		return fullyTrusted, nil
	case Tar:
		return tarFilter, nil
	case Data, "":
		return dataFilter, nil
	}

	return nil, ErrorUnknownFilter.Error(nil)
}

func fullyTrusted(hdr *tar.Header, _ string) (*tar.Header, liberr.Error) {
	return hdr, nil
}

func tarFilter(hdr *tar.Header, destination string) (*tar.Header, liberr.Error) {
	return applyTar(cloneHeader(hdr), destination)
}

func dataFilter(hdr *tar.Header, destination string) (*tar.Header, liberr.Error) {
	h := cloneHeader(hdr)

	h, err := applyTar(h, destination)
	if err != nil {
		return nil, err
	}

	switch h.Typeflag {
	case tar.TypeChar, tar.TypeBlock, tar.TypeFifo:
		return nil, ErrorSpecialFile.Error(nil)
	}

	switch h.Typeflag {
	case tar.TypeReg, tar.TypeLink:
		h.Mode |= 0o600
		if h.Mode&0o100 == 0 {
			h.Mode &^= 0o011
		}
	default:
		h.Mode = 0o755
	}

	h.Uid = 0
	h.Gid = 0
	h.Uname = "root"
	h.Gname = "root"

	return h, nil
}

// applyTar implements the shared "tar" policy: strip leading slashes from
// the member name, reject absolute link targets and directory escapes,
// clear dangerous mode bits.
func applyTar(h *tar.Header, destination string) (*tar.Header, liberr.Error) {
	h.Name = stripLeading(h.Name)
	if isAbsolute(h.Name) {
		return nil, ErrorAbsolutePath.Error(nil)
	}
	if escapes(destination, h.Name) {
		return nil, ErrorOutsideDestination.Error(nil)
	}

	switch h.Typeflag {
	case tar.TypeSymlink:
		if isAbsolute(h.Linkname) {
			return nil, ErrorAbsoluteLink.Error(nil)
		}
		// A symlink's target is resolved relative to the directory
		// containing the link itself, not the destination root - matching
		// CPython's tarfile._get_filtered_attrs, which joins a symlink's
		// linkname against dirname(name) rather than dest_path directly.
		if escapes(destination, filepath.Join(filepath.Dir(h.Name), h.Linkname)) {
			return nil, ErrorLinkOutsideDestination.Error(nil)
		}
	case tar.TypeLink:
		if isAbsolute(h.Linkname) {
			return nil, ErrorAbsoluteLink.Error(nil)
		}
		if escapes(destination, h.Linkname) {
			return nil, ErrorLinkOutsideDestination.Error(nil)
		}
	}

	h.Mode &^= 0o7000 // setuid, setgid, sticky
	h.Mode &^= 0o022  // group-write, other-write

	return h, nil
}

func cloneHeader(hdr *tar.Header) *tar.Header {
	c := *hdr
	return &c
}

func stripLeading(name string) string {
	name = filepath.ToSlash(name)
	for strings.HasPrefix(name, "/") {
		name = name[1:]
	}
	return name
}

func isAbsolute(name string) bool {
	return strings.HasPrefix(filepath.ToSlash(name), "/")
}

// escapes reports whether destination joined with name would resolve
// outside destination, using lexical, component-wise prefix comparison so
// that "/a/b" is never mistaken for a prefix of "/a/bb".
func escapes(destination, name string) bool {
	dest := filepath.Clean(destination)
	joined := filepath.Clean(filepath.Join(destination, name))

	if joined == dest {
		return false
	}

	return !strings.HasPrefix(joined, dest+string(filepath.Separator))
}
