package tzst

// Mode selects whether a Handle is opened for reading, writing, or
// appending. Append is accepted as a named value so Open can route it to
// ErrorAppendUnsupported (Not-Implemented) explicitly, matching
// original_source/src/tzst/core.py's TzstArchive.__init__ raising for any
// mode starting with "a" rather than falling through to a generic
// Invalid-Argument rejection.
type Mode int

const (
	Read Mode = iota
	Write
	Append
)

const (
	// MinLevel and MaxLevel bound the compression level Open accepts.
	MinLevel = 1
	MaxLevel = 22

	// DefaultLevel matches the source's TzstArchive default.
	DefaultLevel = 3
)

type state int

const (
	stateNew state = iota
	stateReading
	stateWriting
	stateClosed
)
