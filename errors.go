package exm

import (
	"errors"
	"fmt"
)

// Sentinel errors, one per failure kind. Use errors.Is against these to
// classify a failure; the error returned by Build/Dispatch wraps the
// sentinel with the offending name(s) via fmt.Errorf("%w: ...").
var (
	ErrInvalidDefinition = errors.New("exm: invalid definition")
	ErrNotValidInitial   = errors.New("exm: initial state is not a descendant of its composite")
	ErrNotDefinedState   = errors.New("exm: transition targets an undefined state")
	ErrDuplicatedState   = errors.New("exm: state name used more than once")
	ErrNotRunning        = errors.New("exm: dispatch on a machine that is not running")
)

func invalidDefinitionError(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidDefinition, reason)
}

func notValidInitialError(initial, parent string) error {
	return fmt.Errorf("%w: %q is not a descendant of %q", ErrNotValidInitial, initial, parent)
}

func notDefinedStateError(name string) error {
	return fmt.Errorf("%w: %q", ErrNotDefinedState, name)
}

func duplicatedStateError(names []string) error {
	return fmt.Errorf("%w: %v", ErrDuplicatedState, names)
}
