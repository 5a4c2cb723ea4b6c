package planner

import (
	"fmt"
	"strings"
)

// Sentinel errors, checkable with errors.Is().
var (
	// ErrCycleDetected is returned when the install set's dependency
	// graph is not a DAG. The planner never breaks cycles silently.
	ErrCycleDetected = fmt.Errorf("dependency cycle detected")

	// ErrPackageNotFound is returned when a requested package pattern
	// matches nothing in the binary package database.
	ErrPackageNotFound = fmt.Errorf("package not found")

	// ErrPrecondition is returned for invalid flag combinations before
	// any queue work begins.
	ErrPrecondition = fmt.Errorf("invalid planner invocation")
)

// CycleError reports the dependency cycle that aborted the sort.
// Path runs from the first repeated package back to itself.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependencies contain a cycle: %s", strings.Join(e.Path, " -> "))
}

func (e *CycleError) Unwrap() error {
	return ErrCycleDetected
}

// PackageNotFoundError names the pattern that matched zero candidates.
type PackageNotFoundError struct {
	Pattern string
}

func (e *PackageNotFoundError) Error() string {
	return fmt.Sprintf("no package found for %s", e.Pattern)
}

func (e *PackageNotFoundError) Unwrap() error {
	return ErrPackageNotFound
}

// PreconditionError describes which invocation requirement was violated.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return e.Reason
}

func (e *PreconditionError) Unwrap() error {
	return ErrPrecondition
}
