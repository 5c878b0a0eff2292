// Package tzst combines POSIX tar with Zstandard compression into a single
// .tzst/.tar.zst archive format, exposing a scoped archive handle and a
// small convenience facade on top of it. The handle's state machine and
// operation set are grounded on original_source/src/tzst/core.py's
// TzstArchive; the codec, security, conflict, atomic-write, and
// path-planning concerns it used to handle inline are delegated to this
// module's internal packages.
package tzst

import (
	"archive/tar"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/xixu-me/tzst/internal/atomicfile"
	"github.com/xixu-me/tzst/internal/codec"
	"github.com/xixu-me/tzst/internal/conflict"
	"github.com/xixu-me/tzst/internal/pathplan"
	"github.com/xixu-me/tzst/internal/security"

	liberr "github.com/xixu-me/tzst/errors"
)

// Handle is a scoped, single-owner reference to one open archive. Its
// lifecycle is {new} -[Open]-> {reading|writing} -[Close]-> {closed}; any
// operation attempted in new or closed state fails with ErrorNotOpen, and
// any operation performed against the wrong mode fails with ErrorWrongMode.
type Handle struct {
	path             string
	mode             Mode
	compressionLevel int
	streaming        bool
	st               state

	file *os.File
	w    *codec.Writer

	// read mode
	streamReader *codec.Reader
	randomReader *codec.RandomAccessReader

	// write mode, only set when atomic creation is in effect
	atomic *atomicfile.Writer
}

// Options configures Open. Zero value selects CompressionLevel=DefaultLevel,
// non-streaming reads, and atomic writes.
type Options struct {
	CompressionLevel int
	Streaming        bool
	NonAtomic        bool
}

// Open constructs and opens a Handle over path in the given mode.
func Open(path string, mode Mode, opts Options) (*Handle, liberr.Error) {
	level := opts.CompressionLevel
	if level == 0 {
		level = DefaultLevel
	}
	if err := codec.Level(level); err != nil {
		return nil, ErrorInvalidLevel.Error(nil)
	}

	h := &Handle{
		path:             path,
		mode:             mode,
		compressionLevel: level,
		streaming:        opts.Streaming,
	}

	switch mode {
	case Read:
		if err := h.openRead(); err != nil {
			h.Close()
			return nil, err
		}
		h.st = stateReading
	case Write:
		if err := h.openWrite(opts.NonAtomic); err != nil {
			h.Close()
			return nil, err
		}
		h.st = stateWriting
	case Append:
		return nil, ErrorAppendUnsupported.Error(nil)
	default:
		return nil, ErrorInvalidMode.Error(nil)
	}

	return h, nil
}

func (h *Handle) openRead() liberr.Error {
	f, e := os.Open(h.path)
	if e != nil {
		return ErrorArchiveOpen.Error(e)
	}
	h.file = f

	if h.streaming {
		r, err := codec.NewStreamingReader(f)
		if err != nil {
			return reclassifyOpenError(err)
		}
		h.streamReader = r
		return nil
	}

	decoded, err := codec.DecodeAll(f)
	if err != nil {
		return reclassifyOpenError(err)
	}
	h.randomReader = codec.NewRandomAccessReader(decoded)

	return nil
}

func (h *Handle) openWrite(nonAtomic bool) liberr.Error {
	if nonAtomic {
		w, err := atomicfile.NonAtomic(h.path)
		if err != nil {
			return ErrorArchiveOpen.Error(err)
		}
		h.atomic = w
	} else {
		w, err := atomicfile.New(h.path)
		if err != nil {
			return ErrorArchiveOpen.Error(err)
		}
		h.atomic = w
	}

	w, err := codec.NewWriter(h.atomic.File, h.compressionLevel)
	if err != nil {
		return reclassifyOpenError(err)
	}
	h.w = w

	return nil
}

// reclassifyOpenError surfaces zstd-origin failures as Decompression-Error
// and everything else as Archive-Error, matching the source's "zstd" in
// str(e).lower() dispatch in TzstArchive.open.
func reclassifyOpenError(err liberr.Error) liberr.Error {
	switch err.GetCode() {
	case codec.ErrorZstdDecoderNew, codec.ErrorZstdRead, codec.ErrorZstdEncoderNew:
		return ErrorDecompression.Error(err)
	default:
		return ErrorArchiveOpen.Error(err)
	}
}

// Add writes one file or directory into a write-mode archive under
// memberName (forward-slash separated). Directories are descended
// depth-first when recursive: their contents are stored beneath
// memberName, and the input directory itself gets no entry of its own.
func (h *Handle) Add(onDiskPath, memberName string, recursive bool) liberr.Error {
	if h.st != stateWriting {
		return wrongState(h.st, stateWriting)
	}

	info, e := os.Lstat(onDiskPath)
	if e != nil {
		if os.IsNotExist(e) {
			return pathplan.ErrorStat.Error(e)
		}
		return ErrorCreate.Error(e)
	}

	if info.IsDir() && recursive {
		return h.addDir(onDiskPath, memberName)
	}

	return h.addOne(onDiskPath, memberName, info)
}

func (h *Handle) addDir(onDiskPath, memberName string) liberr.Error {
	return walkDir(onDiskPath, func(path string, info os.FileInfo) liberr.Error {
		rel, e := filepath.Rel(onDiskPath, path)
		if e != nil {
			return ErrorCreate.Error(e)
		}

		if rel == "." {
			return nil
		}

		return h.addOne(path, memberName+"/"+filepath.ToSlash(rel), info)
	})
}

func walkDir(root string, fn func(path string, info os.FileInfo) liberr.Error) liberr.Error {
	e := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if ferr := fn(path, info); ferr != nil {
			return ferr
		}
		return nil
	})
	if e != nil {
		if lerr, ok := e.(liberr.Error); ok {
			return lerr
		}
		return ErrorCreate.Error(e)
	}

	return nil
}

func (h *Handle) addOne(onDiskPath, memberName string, info os.FileInfo) liberr.Error {
	var linkTarget string
	if info.Mode()&os.ModeSymlink != 0 {
		target, e := os.Readlink(onDiskPath)
		if e != nil {
			return ErrorCreate.Error(e)
		}
		linkTarget = target
	}

	hdr, e := tar.FileInfoHeader(info, linkTarget)
	if e != nil {
		return ErrorCreate.Error(e)
	}
	hdr.Name = memberName
	if info.IsDir() {
		hdr.Name += "/"
	}

	if err := h.w.WriteHeader(hdr); err != nil {
		return ErrorCreate.Error(err)
	}

	if info.Mode().IsRegular() {
		f, e := os.Open(onDiskPath)
		if e != nil {
			return ErrorCreate.Error(e)
		}
		defer f.Close()

		if _, err := h.w.CopyFrom(f); err != nil {
			return ErrorCreate.Error(err)
		}
	}

	return nil
}

// MemberRecord projects one tar header the way List() reports it.
type MemberRecord struct {
	Name      string
	Size      int64
	IsFile    bool
	IsDir     bool
	IsLink    bool
	IsSymlink bool

	// Verbose fields, populated only when requested.
	Mode      int64
	UID       int
	GID       int
	ModTime   time.Time
	LinkName  string
	UserName  string
	GroupName string
}

func recordFromHeader(hdr *tar.Header) MemberRecord {
	return MemberRecord{
		Name:      hdr.Name,
		Size:      hdr.Size,
		IsFile:    hdr.Typeflag == tar.TypeReg,
		IsDir:     hdr.Typeflag == tar.TypeDir,
		IsLink:    hdr.Typeflag == tar.TypeLink,
		IsSymlink: hdr.Typeflag == tar.TypeSymlink,
		Mode:      hdr.Mode,
		UID:       hdr.Uid,
		GID:       hdr.Gid,
		ModTime:   hdr.ModTime,
		LinkName:  hdr.Linkname,
		UserName:  hdr.Uname,
		GroupName: hdr.Gname,
	}
}

// Members returns every member record in archive order. In streaming mode
// this consumes the archive and may only be called once.
func (h *Handle) Members() ([]MemberRecord, liberr.Error) {
	if h.st != stateReading {
		return nil, wrongState(h.st, stateReading)
	}

	var out []MemberRecord

	if h.streaming {
		for {
			hdr, err := h.streamReader.Next()
			if codec.IsEOF(err) {
				break
			}
			if err != nil {
				return nil, err
			}
			out = append(out, recordFromHeader(hdr))
			if derr := h.streamReader.Discard(); derr != nil {
				return nil, derr
			}
		}
		return dedupRecords(out), nil
	}

	h.randomReader.Reset()
	for {
		hdr, err := h.randomReader.Next()
		if codec.IsEOF(err) {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, recordFromHeader(hdr))
	}

	return dedupRecords(out), nil
}

// dedupRecords keeps only the first occurrence of each member name,
// discarding re-added duplicates (O1, see DESIGN.md).
func dedupRecords(records []MemberRecord) []MemberRecord {
	seen := make(map[string]struct{}, len(records))
	out := make([]MemberRecord, 0, len(records))

	for _, r := range records {
		if _, ok := seen[r.Name]; ok {
			continue
		}
		seen[r.Name] = struct{}{}
		out = append(out, r)
	}

	return out
}

// List projects Members into the minimal or verbose dictionaries the CLI's
// `list` command and the List facade function report.
func (h *Handle) List(verbose bool) ([]MemberRecord, liberr.Error) {
	records, err := h.Members()
	if err != nil {
		return nil, err
	}

	if verbose {
		return records, nil
	}

	out := make([]MemberRecord, len(records))
	for i, r := range records {
		out[i] = MemberRecord{
			Name: r.Name, Size: r.Size,
			IsFile: r.IsFile, IsDir: r.IsDir, IsLink: r.IsLink, IsSymlink: r.IsSymlink,
		}
	}

	return out, nil
}

// Test reads every file member's payload to end, returning true iff no
// decompression or tar error occurred. In streaming mode, iterating member
// headers and discarding payloads suffices (O2 strengthening, see
// DESIGN.md).
func (h *Handle) Test() bool {
	if h.st != stateReading {
		return false
	}

	if h.streaming {
		for {
			_, err := h.streamReader.Next()
			if codec.IsEOF(err) {
				return true
			}
			if err != nil {
				return false
			}
			if derr := h.streamReader.Discard(); derr != nil {
				return false
			}
		}
	}

	h.randomReader.Reset()
	for {
		hdr, err := h.randomReader.Next()
		if codec.IsEOF(err) {
			return true
		}
		if err != nil {
			return false
		}
		if hdr.Typeflag == tar.TypeReg {
			if derr := h.randomReader.Discard(); derr != nil {
				return false
			}
		}
	}
}

// ExtractOptions configures ExtractAll/ExtractOne.
type ExtractOptions struct {
	Filter        security.Name
	CustomFilter  security.Func
	NumericOwner  bool
	Flatten       bool
	InitialPolicy conflict.Resolution
	Prompt        conflict.Prompt

	// OnMemberExtracted, when set, is called once for each selected member
	// after it has passed the filter and conflict resolution, including
	// members the conflict policy skipped and, under Flatten, non-regular
	// members that were not written.
	OnMemberExtracted func(memberName string)
}

func (o ExtractOptions) resolveFilter() (security.Func, liberr.Error) {
	if o.CustomFilter != nil {
		return o.CustomFilter, nil
	}
	return security.Lookup(o.Filter)
}

// ExtractAll extracts every member (or, if members is non-empty, only the
// named members) to destination.
func (h *Handle) ExtractAll(destination string, members []string, opts ExtractOptions) liberr.Error {
	if h.st != stateReading {
		return wrongState(h.st, stateReading)
	}

	filterFn, err := opts.resolveFilter()
	if err != nil {
		return err
	}

	destAbs, e := filepath.Abs(destination)
	if e != nil {
		return ErrorExtract.Error(e)
	}
	if e := os.MkdirAll(destAbs, 0o755); e != nil {
		return ErrorExtract.Error(e)
	}

	want := asSet(members)
	found := make(map[string]struct{}, len(want))
	cstate := conflict.NewState(opts.InitialPolicy, opts.Prompt)

	extractReader := func(hdr *tar.Header, body io.Reader) liberr.Error {
		if len(want) > 0 {
			if _, ok := want[hdr.Name]; !ok {
				return nil
			}
			found[hdr.Name] = struct{}{}
		}

		filtered, ferr := filterFn(hdr, destAbs)
		if ferr != nil {
			return ferr
		}

		if werr := h.writeMember(destAbs, filtered, body, opts, cstate); werr != nil {
			return werr
		}
		if opts.OnMemberExtracted != nil {
			opts.OnMemberExtracted(hdr.Name)
		}
		return nil
	}

	if h.streaming {
		for {
			hdr, nerr := h.streamReader.Next()
			if codec.IsEOF(nerr) {
				break
			}
			if nerr != nil {
				return nerr
			}

			if err := extractReader(hdr, h.streamReader); err != nil {
				return err
			}
			if !cstate.Continue() {
				break
			}
		}
		return checkAllFound(want, found)
	}

	h.randomReader.Reset()
	for {
		hdr, nerr := h.randomReader.Next()
		if codec.IsEOF(nerr) {
			break
		}
		if nerr != nil {
			return nerr
		}

		if err := extractReader(hdr, h.randomReader); err != nil {
			return err
		}
		if !cstate.Continue() {
			break
		}
	}

	return checkAllFound(want, found)
}

func checkAllFound(want, found map[string]struct{}) liberr.Error {
	for name := range want {
		if _, ok := found[name]; !ok {
			return ErrorMemberNotFound.Error(nil)
		}
	}
	return nil
}

// ExtractOne extracts a single named member. Fails with ErrorStreamingSeek
// in streaming mode, since selective extraction requires seeking.
func (h *Handle) ExtractOne(member, destination string, opts ExtractOptions) liberr.Error {
	if h.st != stateReading {
		return wrongState(h.st, stateReading)
	}
	if h.streaming {
		return ErrorStreamingSeek.Error(nil)
	}

	return h.ExtractAll(destination, []string{member}, opts)
}

func (h *Handle) writeMember(destAbs string, hdr *tar.Header, body io.Reader, opts ExtractOptions, cstate *conflict.State) liberr.Error {
	name := hdr.Name
	if opts.Flatten {
		name = pathplan.FlattenName(name)
	}

	target := filepath.Join(destAbs, filepath.FromSlash(name))

	if opts.Flatten {
		if hdr.Typeflag != tar.TypeReg {
			return nil
		}
		return h.writeRegularFile(target, body, cstate, hdr, opts.NumericOwner)
	}

	switch hdr.Typeflag {
	case tar.TypeDir:
		if e := os.MkdirAll(target, 0o755); e != nil {
			return ErrorExtract.Error(e)
		}
		chownNumeric(target, hdr, opts.NumericOwner)
		return nil
	case tar.TypeSymlink:
		if e := os.MkdirAll(filepath.Dir(target), 0o755); e != nil {
			return ErrorExtract.Error(e)
		}
		return h.writeLink(target, cstate, func(linkTarget string) error {
			return os.Symlink(hdr.Linkname, linkTarget)
		})
	case tar.TypeLink:
		if e := os.MkdirAll(filepath.Dir(target), 0o755); e != nil {
			return ErrorExtract.Error(e)
		}
		oldname := filepath.Join(destAbs, filepath.FromSlash(hdr.Linkname))
		return h.writeLink(target, cstate, func(linkTarget string) error {
			return os.Link(oldname, linkTarget)
		})
	default:
		if e := os.MkdirAll(filepath.Dir(target), 0o755); e != nil {
			return ErrorExtract.Error(e)
		}
		return h.writeRegularFile(target, body, cstate, hdr, opts.NumericOwner)
	}
}

// writeLink runs target through the conflict resolver the same way
// writeRegularFile does, then calls create to materialize either a symlink
// or a hardlink at the (possibly renamed) final path.
func (h *Handle) writeLink(target string, cstate *conflict.State, create func(linkTarget string) error) liberr.Error {
	if _, statErr := os.Lstat(target); statErr == nil {
		decision, derr := cstate.Resolve(target)
		if derr != nil {
			return derr
		}

		switch decision.Outcome {
		case conflict.OutcomeSkip:
			return nil
		case conflict.OutcomeExit:
			return nil
		case conflict.OutcomeRename:
			target = decision.RenamedPath
		case conflict.OutcomeReplace:
			_ = os.Remove(target)
		}
	}

	return wrapErr(create(target))
}

func (h *Handle) writeRegularFile(target string, body io.Reader, cstate *conflict.State, hdr *tar.Header, numericOwner bool) liberr.Error {
	if _, statErr := os.Stat(target); statErr == nil {
		decision, derr := cstate.Resolve(target)
		if derr != nil {
			return derr
		}

		switch decision.Outcome {
		case conflict.OutcomeSkip:
			_, _ = io.Copy(io.Discard, body)
			return nil
		case conflict.OutcomeExit:
			return nil
		case conflict.OutcomeRename:
			target = decision.RenamedPath
		}
	}

	f, e := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if e != nil {
		return ErrorExtract.Error(e)
	}
	defer f.Close()

	if _, e := io.Copy(f, body); e != nil {
		return ErrorExtract.Error(e)
	}

	chownNumeric(target, hdr, numericOwner)

	return nil
}

// chownNumeric applies a tar member's numeric uid/gid to its extracted
// path when requested, matching tarfile.extractall's numeric_owner=True
// behavior. Best-effort: unprivileged extraction and platforms without a
// POSIX ownership model (e.g. Windows) both fail os.Chown harmlessly, and
// that failure is deliberately not surfaced as an extraction error.
func chownNumeric(target string, hdr *tar.Header, numericOwner bool) {
	if !numericOwner {
		return
	}
	_ = os.Chown(target, hdr.Uid, hdr.Gid)
}

func wrapErr(e error) liberr.Error {
	if e != nil {
		return ErrorExtract.Error(e)
	}
	return nil
}

func asSet(names []string) map[string]struct{} {
	if len(names) == 0 {
		return nil
	}

	s := make(map[string]struct{}, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}

	return s
}

// Close releases the tar layer, zstd layer, then file layer, in that
// order, attempting every release even if an earlier one failed, and
// surfacing the first error encountered. Write-mode handles publish the
// atomic writer's temp file onto the final path on a clean close.
func (h *Handle) Close() liberr.Error {
	if h.st == stateClosed {
		return nil
	}
	prev := h.st
	h.st = stateClosed

	var first liberr.Error

	if h.w != nil {
		if err := h.w.Close(); err != nil && first == nil {
			first = err
		}
	}
	if h.streamReader != nil {
		if err := h.streamReader.Close(); err != nil && first == nil {
			first = err
		}
	}
	if h.file != nil {
		if e := h.file.Close(); e != nil && first == nil {
			first = ErrorArchiveOpen.Error(e)
		}
	}

	if prev == stateWriting && h.atomic != nil {
		if first != nil {
			_ = h.atomic.Abort()
		} else if err := h.atomic.Commit(); err != nil {
			first = err
		}
	}

	return first
}

func wrongState(got, want state) liberr.Error {
	if got == stateNew || got == stateClosed {
		return ErrorNotOpen.Error(nil)
	}
	_ = want
	return ErrorWrongMode.Error(nil)
}
