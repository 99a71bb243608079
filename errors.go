// FILE: lixenwraith/settings/errors.go
package settings

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the settings registry and store.
var (
	// ErrUnknownSetting is returned when a value is assigned to a name
	// that was never defined. Unknown names encountered while parsing a
	// configuration file are ignored instead; see Parse.
	ErrUnknownSetting = errors.New("unknown setting")

	// ErrReadOnly is returned when a read-only setting (name, run_mode)
	// is written through any layer other than the application defaults.
	ErrReadOnly = errors.New("read-only setting")

	// ErrDuplicateSetting is returned by Define when a name is already registered.
	ErrDuplicateSetting = errors.New("setting already defined")

	// ErrDuplicateShort is returned by Define when a short flag is already taken.
	ErrDuplicateShort = errors.New("short flag already in use")

	// ErrAppDefaultsSet is returned when SetApplicationDefaults is called twice.
	ErrAppDefaultsSet = errors.New("application defaults already initialized")

	// ErrInvalidRunMode is returned for a run mode outside master/agent/user.
	ErrInvalidRunMode = errors.New("invalid run mode")

	// ErrReservedSection is returned when a configuration file declares
	// the application_defaults section, which is never file-settable.
	ErrReservedSection = errors.New("reserved section name")

	// ErrStaleTempFile is returned by ReadWriteLock when a leftover
	// <path>.tmp blocks the locked rewrite. A concurrent or crashed
	// writer may be in progress; the target file is left untouched.
	ErrStaleTempFile = errors.New("stale temp file present")

	// ErrNotFile is returned when a file operation is requested for a
	// setting that is not file- or directory-typed.
	ErrNotFile = errors.New("setting does not describe a file")
)

// ParseError reports a malformed configuration file line. It carries the
// file name and one-based line number so the author can find the mistake.
type ParseError struct {
	File string
	Line int
	Msg  string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
}

// InterpolationError reports a $reference that could not be resolved while
// expanding a setting value.
type InterpolationError struct {
	Reference string // the name that failed to resolve
	Value     string // the original string being expanded
	Cause     error
}

// Error implements the error interface.
func (e *InterpolationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("could not interpolate $%s in %q: %v", e.Reference, e.Value, e.Cause)
	}
	return fmt.Sprintf("could not interpolate $%s in %q: no value", e.Reference, e.Value)
}

// Unwrap implements the implicit interface used by errors.Is and errors.As.
func (e *InterpolationError) Unwrap() error {
	return e.Cause
}
