// Package conflict implements the per-path decision procedure an extraction
// applies when its target already exists on disk. The resolution-value set
// and the interactive-menu shape are grounded on
// original_source/src/tzst/cli.py's _interactive_conflict_callback; the
// sticky-state machine is this repository's own, since the CLI prompt there
// delegates that bookkeeping to the core library rather than implementing
// it itself.
package conflict

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	liberr "github.com/xixu-me/tzst/errors"
)

// Resolution is one of the eight values the resolver maps a conflicting path
// onto.
type Resolution string

const (
	Replace       Resolution = "replace"
	Skip          Resolution = "skip"
	ReplaceAll    Resolution = "replace_all"
	SkipAll       Resolution = "skip_all"
	AutoRename    Resolution = "auto_rename"
	AutoRenameAll Resolution = "auto_rename_all"
	Ask           Resolution = "ask"
	Exit          Resolution = "exit"
)

func init() {
	if !liberr.ExistInMapMessage(ErrorUnknownResolution) {
		liberr.RegisterIdFctMessage(ErrorUnknownResolution, getMessage)
	}
}

const (
	ErrorUnknownResolution liberr.CodeError = iota + liberr.MinPkgConflict
)

func getMessage(code liberr.CodeError) string {
	switch code {
	case ErrorUnknownResolution:
		return "unknown conflict resolution policy"
	}

	return ""
}

// Valid reports whether r is one of the eight recognized values.
func Valid(r Resolution) bool {
	switch r {
	case Replace, Skip, ReplaceAll, SkipAll, AutoRename, AutoRenameAll, Ask, Exit:
		return true
	}

	return false
}

func isSticky(r Resolution) bool {
	return strings.HasSuffix(string(r), "_all")
}

// Prompt is the injected capability consulted when the policy is Ask and no
// *_ALL decision has stuck yet. The CLI supplies one reading from standard
// input; library callers may omit it, in which case Ask defaults to Replace.
type Prompt func(targetPath string) Resolution

// Outcome tells the caller what to do with the conflicting path.
type Outcome int

const (
	// OutcomeReplace means: write the extracted bytes over the existing
	// path, unlinking first if required.
	OutcomeReplace Outcome = iota
	// OutcomeSkip means: leave the existing path untouched.
	OutcomeSkip
	// OutcomeRename means: write to RenamedPath instead of the original.
	OutcomeRename
	// OutcomeExit means: halt the enclosing extraction loop immediately.
	OutcomeExit
)

// Decision is the result of resolving one conflicting path.
type Decision struct {
	Outcome     Outcome
	RenamedPath string
}

// State is created at the start of one extraction call, consulted once per
// conflicting path, and discarded when the call returns.
type State struct {
	policy Resolution
	cont   bool
	prompt Prompt
}

// NewState constructs resolver state for one extraction call. An empty
// initial policy defaults to Replace, matching the facade's default.
func NewState(initial Resolution, prompt Prompt) *State {
	if initial == "" {
		initial = Replace
	}

	return &State{policy: initial, cont: true, prompt: prompt}
}

// Continue reports whether the enclosing extraction loop should keep going;
// it becomes false once Exit has been produced.
func (s *State) Continue() bool {
	return s.cont
}

// Resolve decides the outcome for one target path that already exists on
// disk, per SPEC_FULL.md §4.3.
func (s *State) Resolve(targetPath string) (Decision, liberr.Error) {
	choice := s.policy

	if !isSticky(choice) {
		if choice == Ask {
			if s.prompt != nil {
				choice = s.prompt(targetPath)
			} else {
				choice = Replace
			}
		}
	}

	if !Valid(choice) {
		return Decision{}, ErrorUnknownResolution.Error(nil)
	}

	if isSticky(choice) {
		s.policy = choice
	}

	switch choice {
	case Replace, ReplaceAll:
		return Decision{Outcome: OutcomeReplace}, nil
	case Skip, SkipAll:
		return Decision{Outcome: OutcomeSkip}, nil
	case AutoRename, AutoRenameAll:
		renamed, err := uniquePath(targetPath)
		if err != nil {
			return Decision{}, err
		}
		return Decision{Outcome: OutcomeRename, RenamedPath: renamed}, nil
	case Exit:
		s.cont = false
		return Decision{Outcome: OutcomeExit}, nil
	}

	return Decision{}, ErrorUnknownResolution.Error(nil)
}

// uniquePath computes P' = "<stem>_<N><suffix>" with N minimal >= 1 such
// that P' does not exist at the moment of the check.
func uniquePath(p string) (string, liberr.Error) {
	dir := filepath.Dir(p)
	base := filepath.Base(p)
	suffix := filepath.Ext(base)
	stem := strings.TrimSuffix(base, suffix)

	for n := 1; ; n++ {
		candidate := filepath.Join(dir, stem+"_"+strconv.Itoa(n)+suffix)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		}
	}
}
