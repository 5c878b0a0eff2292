// Package codec composes the tar container format with Zstandard frame
// compression in either direction, exposing a byte-oriented handle to the
// archive engine. It owns the only two codecs the engine speaks and makes no
// decisions about security, conflicts, or naming — those belong to the
// packages built around it.
package codec

import (
	"archive/tar"
	"bytes"
	"io"

	"github.com/klauspost/compress/zstd"

	liberr "github.com/xixu-me/tzst/errors"
)

const (
	// MinLevel and MaxLevel bound the compression level accepted by Writer,
	// matching the range zstd itself documents as meaningful.
	MinLevel = 1
	MaxLevel = 22

	// readChunk is the buffer size used to drain a non-streaming read into
	// memory, matching the source's 8 KiB chunking.
	readChunk = 8 * 1024
)

func init() {
	if !liberr.ExistInMapMessage(ErrorZstdEncoderNew) {
		liberr.RegisterIdFctMessage(ErrorZstdEncoderNew, getMessage)
	}
}

const (
	// ErrorZstdEncoderNew through ErrorLevelInvalid are the CodeError
	// values this package registers, offset from liberr.MinPkgCodec.
	ErrorZstdEncoderNew liberr.CodeError = iota + liberr.MinPkgCodec
	ErrorZstdDecoderNew
	ErrorZstdRead
	ErrorZstdWrite
	ErrorZstdClose
	ErrorTarHeaderRead
	ErrorTarHeaderWrite
	ErrorTarBodyRead
	ErrorTarBodyWrite
	ErrorBufferRead
	ErrorLevelInvalid
)

func getMessage(code liberr.CodeError) string {
	switch code {
	case ErrorZstdEncoderNew:
		return "could not create zstd encoder"
	case ErrorZstdDecoderNew:
		return "could not create zstd decoder"
	case ErrorZstdRead:
		return "zstd decoder refused to decode input"
	case ErrorZstdWrite:
		return "zstd encoder refused to encode input"
	case ErrorZstdClose:
		return "error finalizing zstd frame"
	case ErrorTarHeaderRead:
		return "malformed tar header"
	case ErrorTarHeaderWrite:
		return "error writing tar header"
	case ErrorTarBodyRead:
		return "error reading tar member payload"
	case ErrorTarBodyWrite:
		return "error writing tar member payload"
	case ErrorBufferRead:
		return "error buffering decompressed archive"
	case ErrorLevelInvalid:
		return "compression level must be between 1 and 22"
	}

	return ""
}

// Level validates a requested compression level against [MinLevel, MaxLevel].
func Level(level int) liberr.Error {
	if level < MinLevel || level > MaxLevel {
		return ErrorLevelInvalid.Error(nil)
	}

	return nil
}

func zstdLevel(level int) zstd.EncoderLevel {
	// klauspost/compress/zstd exposes four coarse presets; map the
	// fine-grained 1-22 range onto them the way higher-level wrappers over
	// this library conventionally do, favoring speed at low levels and
	// compression ratio at high ones.
	switch {
	case level <= 1:
		return zstd.SpeedFastest
	case level <= 6:
		return zstd.SpeedDefault
	case level <= 12:
		return zstd.SpeedBetterCompression
	default:
		return zstd.SpeedBestCompression
	}
}

// Writer wraps a destination io.Writer with a zstd encoder and a tar writer,
// in that layering order (tar writes flow into the zstd encoder, which flows
// into the underlying file).
type Writer struct {
	zw  *zstd.Encoder
	tw  *tar.Writer
	dst io.Writer
}

// NewWriter constructs the write-mode pipeline for a validated level.
func NewWriter(dst io.Writer, level int) (*Writer, liberr.Error) {
	if err := Level(level); err != nil {
		return nil, err
	}

	zw, e := zstd.NewWriter(
		dst,
		zstd.WithEncoderLevel(zstdLevel(level)),
		zstd.WithWindowSize(1<<23),
	)
	if e != nil {
		return nil, ErrorZstdEncoderNew.Error(e)
	}

	return &Writer{
		zw:  zw,
		tw:  tar.NewWriter(zw),
		dst: dst,
	}, nil
}

// WriteHeader writes one tar member header.
func (w *Writer) WriteHeader(hdr *tar.Header) liberr.Error {
	if e := w.tw.WriteHeader(hdr); e != nil {
		return ErrorTarHeaderWrite.Error(e)
	}

	return nil
}

// Write streams member payload bytes into the current tar entry.
func (w *Writer) Write(p []byte) (int, liberr.Error) {
	n, e := w.tw.Write(p)
	if e != nil {
		return n, ErrorTarBodyWrite.Error(e)
	}

	return n, nil
}

// CopyFrom streams an entire member's payload from src.
func (w *Writer) CopyFrom(src io.Reader) (int64, liberr.Error) {
	n, e := io.Copy(w.tw, src)
	if e != nil {
		return n, ErrorTarBodyWrite.Error(e)
	}

	return n, nil
}

// Close flushes the tar trailer and finalizes the zstd frame, in that order,
// retaining the first error encountered but attempting every release.
func (w *Writer) Close() liberr.Error {
	var first liberr.Error

	if e := w.tw.Close(); e != nil && first == nil {
		first = ErrorTarHeaderWrite.Error(e)
	}

	if e := w.zw.Close(); e != nil && first == nil {
		first = ErrorZstdClose.Error(e)
	}

	return first
}

// Reader is the streaming-mode reader: sequential header iteration plus
// payload reads for the current member. The non-streaming mode uses
// RandomAccessReader instead.
type Reader struct {
	zr *zstd.Decoder
	tr *tar.Reader
}

// NewStreamingReader wraps src with a sequential zstd decoder and tar
// reader. Every operation on the result is forward-only.
func NewStreamingReader(src io.Reader) (*Reader, liberr.Error) {
	zr, e := zstd.NewReader(src)
	if e != nil {
		return nil, ErrorZstdDecoderNew.Error(e)
	}

	return &Reader{zr: zr, tr: tar.NewReader(zr)}, nil
}

// DecodeAll fully decompresses src into memory (8 KiB chunks until EOF,
// matching the source's buffering discipline) and returns the decompressed
// bytes, ready to be wrapped by a random-access tar reader.
func DecodeAll(src io.Reader) ([]byte, liberr.Error) {
	zr, e := zstd.NewReader(src)
	if e != nil {
		return nil, ErrorZstdDecoderNew.Error(e)
	}
	defer zr.Close()

	buf := bytes.NewBuffer(nil)
	chunk := make([]byte, readChunk)

	for {
		n, re := zr.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
		}

		if re == io.EOF {
			break
		}
		if re != nil {
			return nil, ErrorZstdRead.Error(re)
		}
	}

	return buf.Bytes(), nil
}

// Next advances to the next member header.
func (r *Reader) Next() (*tar.Header, liberr.Error) {
	hdr, e := r.tr.Next()
	if e == io.EOF {
		return nil, ErrorTarHeaderRead.Error(io.EOF)
	}
	if e != nil {
		return nil, ErrorTarHeaderRead.Error(e)
	}

	return hdr, nil
}

// IsEOF reports whether err wraps the archive-exhausted sentinel produced by
// Next, distinguishing normal end-of-archive from a real parse failure.
func IsEOF(err liberr.Error) bool {
	return err != nil && err.HasError(io.EOF)
}

// Read streams the current member's payload.
func (r *Reader) Read(p []byte) (int, error) {
	return r.tr.Read(p)
}

// CopyTo drains the current member's payload into dst.
func (r *Reader) CopyTo(dst io.Writer) (int64, liberr.Error) {
	n, e := io.Copy(dst, r.tr)
	if e != nil {
		return n, ErrorTarBodyRead.Error(e)
	}

	return n, nil
}

// Discard drains the current member's payload without keeping it, used by
// the streaming-mode integrity test (O2 strengthening, see DESIGN.md).
func (r *Reader) Discard() liberr.Error {
	_, e := io.Copy(io.Discard, r.tr)
	if e != nil {
		return ErrorTarBodyRead.Error(e)
	}

	return nil
}

// Close releases the zstd decoder. Streaming mode owns no other resource;
// the underlying file is closed by the caller (the archive handle).
func (r *Reader) Close() liberr.Error {
	if r.zr != nil {
		r.zr.Close()
	}

	return nil
}

// RandomAccessReader wraps an in-memory buffer produced by DecodeAll with a
// tar reader that can be reset to support repeated, restartable iteration —
// the non-streaming read mode's defining capability.
type RandomAccessReader struct {
	buf []byte
	tr  *tar.Reader
}

// NewRandomAccessReader constructs a restartable reader over decompressed
// bytes.
func NewRandomAccessReader(decoded []byte) *RandomAccessReader {
	r := &RandomAccessReader{buf: decoded}
	r.Reset()
	return r
}

// Reset rewinds iteration to the first member.
func (r *RandomAccessReader) Reset() {
	r.tr = tar.NewReader(bytes.NewReader(r.buf))
}

// Next advances to the next member header.
func (r *RandomAccessReader) Next() (*tar.Header, liberr.Error) {
	hdr, e := r.tr.Next()
	if e == io.EOF {
		return nil, ErrorTarHeaderRead.Error(io.EOF)
	}
	if e != nil {
		return nil, ErrorTarHeaderRead.Error(e)
	}

	return hdr, nil
}

// CopyTo drains the current member's payload into dst.
func (r *RandomAccessReader) CopyTo(dst io.Writer) (int64, liberr.Error) {
	n, e := io.Copy(dst, r.tr)
	if e != nil {
		return n, ErrorTarBodyRead.Error(e)
	}

	return n, nil
}

// Discard drains the current member's payload without keeping it.
func (r *RandomAccessReader) Discard() liberr.Error {
	_, e := io.Copy(io.Discard, r.tr)
	if e != nil {
		return ErrorTarBodyRead.Error(e)
	}

	return nil
}
