package tzst

import (
	"github.com/xixu-me/tzst/internal/pathplan"

	liberr "github.com/xixu-me/tzst/errors"
)

// CreateOptions configures Create.
type CreateOptions struct {
	CompressionLevel int
	NonAtomic        bool

	// OnFileAdded, when set, is called after each input is written to the
	// archive, in order — the CLI uses it to drive a progress bar.
	OnFileAdded func(memberName string)
}

// Create builds a new archive at archivePath containing inputs (files
// and/or directories), relativized per internal/pathplan's rules. The
// archive's extension is normalized before opening, grounded on
// original_source/src/tzst/core.py's create_archive.
func Create(archivePath string, inputs []string, opts CreateOptions) liberr.Error {
	normalized := pathplan.NormalizeArchivePath(archivePath)

	if len(inputs) == 0 {
		h, err := Open(normalized, Write, Options{CompressionLevel: opts.CompressionLevel, NonAtomic: opts.NonAtomic})
		if err != nil {
			return err
		}
		return h.Close()
	}

	entries, err := pathplan.Plan(inputs, normalized)
	if err != nil {
		return err
	}

	h, err := Open(normalized, Write, Options{CompressionLevel: opts.CompressionLevel, NonAtomic: opts.NonAtomic})
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if err := h.Add(entry.AbsPath, entry.MemberName, true); err != nil {
			_ = h.Close()
			return err
		}
		if opts.OnFileAdded != nil {
			opts.OnFileAdded(entry.MemberName)
		}
	}

	return h.Close()
}

// Extract opens archivePath for reading and extracts members to
// destination, honoring opts.
func Extract(archivePath, destination string, members []string, streaming bool, opts ExtractOptions) liberr.Error {
	h, err := Open(archivePath, Read, Options{Streaming: streaming})
	if err != nil {
		return err
	}
	defer h.Close()

	return h.ExtractAll(destination, members, opts)
}

// List opens archivePath for reading and returns its member records.
func List(archivePath string, verbose, streaming bool) ([]MemberRecord, liberr.Error) {
	h, err := Open(archivePath, Read, Options{Streaming: streaming})
	if err != nil {
		return nil, err
	}
	defer h.Close()

	return h.List(verbose)
}

// Test opens archivePath for reading and verifies every member's payload
// decompresses without error.
func Test(archivePath string, streaming bool) bool {
	h, err := Open(archivePath, Read, Options{Streaming: streaming})
	if err != nil {
		return false
	}
	defer h.Close()

	return h.Test()
}
