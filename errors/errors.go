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

// Package errors classifies tzst failures into the kinds described by the
// archive engine's contract (Archive-Error, Decompression-Error, Not-Found,
// ...), with a one-level parent cause and per-package message tables indexed
// by a CodeError offset range (see modules.go).
//
// This is a deliberately small reduction of the teacher library's generic
// CodeError/Error mechanism (capture-site trace, HTTP-status-style numeric
// families, pluggable string-rendering modes, gin abort integration,
// multi-error pools): tzst has nine components and a fixed, literal
// "<kind> - <detail>" rendering (SPEC_FULL.md §7), so this package keeps only
// the registry, the constructor, and the parent-chain predicates every
// component actually calls.
//
// Example usage:
//
//	import liberr "github.com/xixu-me/tzst/errors"
//
//	err := liberr.ErrorSomething.Error(causeErr)
//	if err.HasCode(liberr.ErrorSomething) { ... }
package errors

import (
	"sort"
	"strings"
)

// CodeError is a numeric error-kind identifier, offset into one of the
// 100-wide per-package ranges declared in modules.go.
type CodeError uint16

const (
	// UnknownError is returned by CodeError.Error for a code with no
	// registered message, collapsing it to a single well-known value rather
	// than propagating an unrecognized numeric code to callers.
	UnknownError CodeError = 0

	// UnknownMessage is UnknownError's message.
	UnknownMessage = "unknown error"
)

// Message generates the display string for a CodeError, switching on the
// exact value; each package registers one Message function per offset range.
type Message func(code CodeError) string

var idMsgFct = make(map[CodeError]Message)

// RegisterIdFctMessage registers fct as the message source for every code at
// or above minCode, up to the next registered offset. Called once per
// package from an init(), guarded by ExistInMapMessage.
func RegisterIdFctMessage(minCode CodeError, fct Message) {
	idMsgFct[minCode] = fct
}

// ExistInMapMessage reports whether code resolves to a non-empty registered
// message, used by each package's init() to avoid re-registering across
// repeated package initialization (relevant under test).
func ExistInMapMessage(code CodeError) bool {
	_, ok := lookupMessage(code)
	return ok
}

// lookupMessage finds the registered offset range containing code (the
// largest registered minCode <= code) and asks its Message function to
// render code specifically.
func lookupMessage(code CodeError) (string, bool) {
	keys := make([]int, 0, len(idMsgFct))
	for k := range idMsgFct {
		keys = append(keys, int(k))
	}
	sort.Ints(keys)

	var floor CodeError
	for _, k := range keys {
		if CodeError(k) <= code {
			floor = CodeError(k)
		}
	}

	fct, ok := idMsgFct[floor]
	if !ok {
		return "", false
	}

	msg := fct(code)
	return msg, msg != ""
}

// Error constructs an Error of this code, carrying cause as its optional
// parent. A code with no registered message collapses to UnknownError rather
// than surfacing a raw, unrecognized numeric code to callers.
func (c CodeError) Error(cause ...error) Error {
	msg, ok := lookupMessage(c)
	if !ok {
		return &codeErr{code: UnknownError, msg: UnknownMessage}
	}

	e := &codeErr{code: c, msg: msg}
	for _, p := range cause {
		if p != nil {
			e.parent = append(e.parent, p)
		}
	}

	return e
}

// Error is a CodeError bound to a rendered message and an optional parent
// cause chain.
type Error interface {
	error

	// GetCode returns this error's own CodeError value.
	GetCode() CodeError
	// HasCode reports whether this error or any parent carries code.
	HasCode(code CodeError) bool
	// HasError reports whether target appears in this error's parent chain.
	HasError(target error) bool
	// Unwrap exposes the parent chain to the standard library's errors.Is
	// and errors.As.
	Unwrap() []error
}

type codeErr struct {
	code   CodeError
	msg    string
	parent []error
}

func (e *codeErr) Error() string {
	return e.msg
}

func (e *codeErr) GetCode() CodeError {
	return e.code
}

func (e *codeErr) HasCode(code CodeError) bool {
	if e.code == code {
		return true
	}

	for _, p := range e.parent {
		if ce, ok := p.(Error); ok && ce.HasCode(code) {
			return true
		}
	}

	return false
}

func (e *codeErr) HasError(target error) bool {
	for _, p := range e.parent {
		if strings.EqualFold(p.Error(), target.Error()) {
			return true
		}
		if ce, ok := p.(Error); ok && ce.HasError(target) {
			return true
		}
	}

	return false
}

func (e *codeErr) Unwrap() []error {
	return e.parent
}
