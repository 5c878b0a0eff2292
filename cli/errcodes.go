package cli

import liberr "github.com/xixu-me/tzst/errors"

func init() {
	if !liberr.ExistInMapMessage(ErrorInvalidLevel) {
		liberr.RegisterIdFctMessage(ErrorInvalidLevel, getMessage)
	}
}

// Error codes the cli package registers, offset from liberr.MinPkgCLI.
// These cover validation failures the CLI itself raises inside RunE
// (bad flag values, missing inputs, a failed --config load) as opposed
// to argument-count/usage failures cobra raises before RunE ever runs;
// main distinguishes the two by type-asserting on liberr.Error to pick
// an exit code per SPEC_FULL.md §10.2.
const (
	ErrorInvalidLevel liberr.CodeError = iota + liberr.MinPkgCLI
	ErrorFilesNotFound
	ErrorInvalidConflictResolution
	ErrorArchiveCorrupted
	ErrorConfigLoad
)

func getMessage(code liberr.CodeError) string {
	switch code {
	case ErrorInvalidLevel:
		return "invalid compression level: must be between 1 and 22"
	case ErrorFilesNotFound:
		return "one or more input files were not found"
	case ErrorInvalidConflictResolution:
		return "invalid conflict resolution value"
	case ErrorArchiveCorrupted:
		return "archive is corrupted or invalid"
	case ErrorConfigLoad:
		return "failed to load configuration file"
	}

	return ""
}
