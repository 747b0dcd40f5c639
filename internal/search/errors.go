package search

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotSearchable is the cause recorded for a path that exists but is
// neither a regular file nor a directory.
var ErrNotSearchable = errors.New("not a regular file or directory")

// TargetError records why one target could not be searched.
type TargetError struct {
	Path string
	Err  error
}

// Error implements the error interface for TargetError.
func (e *TargetError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *TargetError) Unwrap() error {
	return e.Err
}

// UnreachableTargetsError lists every target that resolved to neither a file
// nor a directory. It is returned once, after all other targets have been
// searched.
type UnreachableTargetsError struct {
	Targets []*TargetError
}

// Error implements the error interface for UnreachableTargetsError.
func (e *UnreachableTargetsError) Error() string {
	var sb strings.Builder
	if len(e.Targets) == 1 {
		sb.WriteString("1 target could not be searched: ")
	} else {
		sb.WriteString(fmt.Sprintf("%d targets could not be searched: ", len(e.Targets)))
	}
	for i, t := range e.Targets {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(t.Error())
	}
	return sb.String()
}

// Paths returns the unreachable paths in the order they were given.
func (e *UnreachableTargetsError) Paths() []string {
	paths := make([]string, len(e.Targets))
	for i, t := range e.Targets {
		paths[i] = t.Path
	}
	return paths
}

// Unwrap exposes each per-target error to errors.Is and errors.As.
func (e *UnreachableTargetsError) Unwrap() []error {
	errs := make([]error, len(e.Targets))
	for i, t := range e.Targets {
		errs[i] = t
	}
	return errs
}
