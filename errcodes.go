package tzst

import liberr "github.com/xixu-me/tzst/errors"

func init() {
	if !liberr.ExistInMapMessage(ErrorNotOpen) {
		liberr.RegisterIdFctMessage(ErrorNotOpen, getMessage)
	}
}

const (
	// ErrorNotOpen and the codes following it are the CodeError values the
	// archive handle and facade register, offset from liberr.MinPkgArchive.
	ErrorNotOpen liberr.CodeError = iota + liberr.MinPkgArchive
	ErrorWrongMode
	ErrorInvalidMode
	ErrorInvalidLevel
	ErrorAppendUnsupported
	ErrorArchiveOpen
	ErrorDecompression
	ErrorMemberNotFound
	ErrorStreamingSeek
	ErrorExtract
	ErrorCreate
)

func getMessage(code liberr.CodeError) string {
	switch code {
	case ErrorNotOpen:
		return "archive not open"
	case ErrorWrongMode:
		return "archive not open for this operation"
	case ErrorInvalidMode:
		return "invalid mode: must be one of read, write"
	case ErrorInvalidLevel:
		return "invalid compression level: must be between 1 and 22"
	case ErrorAppendUnsupported:
		return "append mode is not supported for compressed tar archives; " +
			"create a new archive, recreate from scratch, or append as a " +
			"plain tar and recompress"
	case ErrorArchiveOpen:
		return "failed to open archive"
	case ErrorDecompression:
		return "failed to decompress archive"
	case ErrorMemberNotFound:
		return "member not found in archive"
	case ErrorStreamingSeek:
		return "selective extraction requires seeking; open the archive " +
			"without the streaming flag instead"
	case ErrorExtract:
		return "failed to extract member"
	case ErrorCreate:
		return "failed to create archive"
	}

	return ""
}
