package clone

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCycleDetected is matched by every *CycleError.
var ErrCycleDetected = errors.New("clone cycle detected")

// CycleError reports a clone chain that revisits an id.
type CycleError struct {
	Kind  string
	Chain []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s clone cycle detected: %s", e.Kind, strings.Join(e.Chain, " -> "))
}

func (e *CycleError) Unwrap() error {
	return ErrCycleDetected
}
