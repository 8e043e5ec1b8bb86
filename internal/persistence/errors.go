package persistence

import (
	"errors"
	"fmt"
)

// ErrUnknownState is returned by Restore when a snapshot names a state the
// target Statechart does not define.
var ErrUnknownState = errors.New("persistence: snapshot refers to an undefined state")

func notDefinedStateError(name string) error {
	return fmt.Errorf("%w: %q", ErrUnknownState, name)
}
