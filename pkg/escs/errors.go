package escs

import "fmt"

// InvariantError reports a violation of an internal invariant — e.g.
// reconstructing start times from an FPCC whose cost is NoValue. These are
// not part of normal control flow (FPCC never returns one for ordinary
// infeasibility, only NoValue); seeing one means a caller broke a
// precondition the search is supposed to maintain.
type InvariantError struct {
	Message string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("internal invariant violation: %s", e.Message)
}

func invariantf(format string, args ...interface{}) error {
	return &InvariantError{Message: fmt.Sprintf(format, args...)}
}
