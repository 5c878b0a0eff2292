package cli

import (
	"github.com/xixu-me/tzst"
	liberr "github.com/xixu-me/tzst/errors"
	"github.com/xixu-me/tzst/internal/atomicfile"
	"github.com/xixu-me/tzst/internal/codec"
	"github.com/xixu-me/tzst/internal/conflict"
	"github.com/xixu-me/tzst/internal/pathplan"
	"github.com/xixu-me/tzst/internal/security"
)

// errorCategory maps a registered CodeError back to one of the named
// error kinds, matching the "Error: <category> - <detail>" diagnostic
// format: every domain package below contributes the codes under its
// own liberr.MinPkgX offset (errors/modules.go).
func errorCategory(code liberr.CodeError) string {
	switch code {
	case security.ErrorAbsolutePath:
		return "Absolute-Path"
	case security.ErrorAbsoluteLink:
		return "Absolute-Link"
	case security.ErrorOutsideDestination:
		return "Outside-Destination"
	case security.ErrorLinkOutsideDestination:
		return "Link-Outside-Destination"
	case security.ErrorSpecialFile:
		return "Special-File"
	case security.ErrorUnknownFilter:
		return "Invalid-Argument"

	case conflict.ErrorUnknownResolution:
		return "Invalid-Argument"

	case codec.ErrorLevelInvalid:
		return "Invalid-Argument"
	case codec.ErrorZstdEncoderNew, codec.ErrorZstdWrite, codec.ErrorZstdClose, codec.ErrorTarHeaderWrite, codec.ErrorTarBodyWrite:
		return "Compression-Error"
	case codec.ErrorZstdDecoderNew, codec.ErrorZstdRead, codec.ErrorTarHeaderRead, codec.ErrorTarBodyRead, codec.ErrorBufferRead:
		return "Decompression-Error"

	case atomicfile.ErrorTempCreate, atomicfile.ErrorRename, atomicfile.ErrorRemove:
		return "Archive-Error"

	case pathplan.ErrorNoValidFiles, pathplan.ErrorStat:
		return "Not-Found"

	case tzst.ErrorInvalidMode, tzst.ErrorInvalidLevel:
		return "Invalid-Argument"
	case tzst.ErrorAppendUnsupported:
		return "Not-Implemented"
	case tzst.ErrorNotOpen, tzst.ErrorWrongMode, tzst.ErrorStreamingSeek:
		return "Runtime-Error"
	case tzst.ErrorArchiveOpen, tzst.ErrorExtract, tzst.ErrorCreate:
		return "Archive-Error"
	case tzst.ErrorDecompression:
		return "Decompression-Error"
	case tzst.ErrorMemberNotFound:
		return "Not-Found"

	case ErrorInvalidLevel, ErrorInvalidConflictResolution:
		return "Invalid-Argument"
	case ErrorFilesNotFound:
		return "Not-Found"
	case ErrorArchiveCorrupted:
		return "Decompression-Error"
	case ErrorConfigLoad:
		return "Runtime-Error"
	}

	return "Error"
}
