//go:build windows

package atomicfile

import (
	"errors"
	"io"
	"os"
)

// isCrossDevice reports whether e is a cross-volume move failure. Windows
// reports this as a plain *LinkError wrapping ERROR_NOT_SAME_DEVICE rather
// than a portable errno, so os.Rename failing at all is treated as
// potentially cross-device and the copy+delete fallback is attempted; a
// genuine permissions or not-found failure then surfaces from the copy step
// instead.
func isCrossDevice(e error) bool {
	var linkErr *os.LinkError
	return errors.As(e, &linkErr)
}

func copyAll(dst io.Writer, src io.Reader) (int64, error) {
	return io.Copy(dst, src)
}
