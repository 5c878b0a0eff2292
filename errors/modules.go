/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package errors

// Package offset ranges for each tzst component's registered CodeError
// values. Each package reserves a block of 100 codes starting at its
// Min constant and registers its messages under that block in an init().
const (
	MinPkgCodec    CodeError = 100 // codec: tar/zstd stream pipeline
	MinPkgArchive  CodeError = 200 // archive: handle, open/close, member iteration
	MinPkgSecurity CodeError = 300 // security: extraction filter policies
	MinPkgConflict CodeError = 400 // conflict: destination conflict resolution
	MinPkgAtomic   CodeError = 500 // atomic: temp-file-then-rename writer
	MinPkgPath     CodeError = 600 // path: path planning and relativization
	MinPkgFacade   CodeError = 700 // facade: convenience create/extract/list/test
	MinPkgCLI      CodeError = 800 // cli: command-line surface
	MinPkgIOUtils  CodeError = 900 // ioutils: filesystem helpers

	MinAvailable CodeError = 1000
)
