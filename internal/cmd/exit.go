package cmd

import "fmt"

// Exit codes, following grep.
const (
	ExitMatch   = 0
	ExitNoMatch = 1
	ExitTrouble = 2
)

// ExitError carries a process exit code out of a command. Err is nil when
// everything worth saying has already been written.
type ExitError struct {
	Code int
	Err  error
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ExitError) Unwrap() error {
	return e.Err
}
