package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingInput is returned when a required input role was not supplied.
	ErrMissingInput = errors.New("missing required input")

	// ErrParse is returned when an input is not valid tabular data.
	ErrParse = errors.New("invalid tabular data")

	// ErrNetNameExtraction is returned when the operations label does not embed
	// a network name.
	ErrNetNameExtraction = errors.New("cannot extract network name")

	// ErrGraphBuild is returned when a dataset lacks required record sequences.
	ErrGraphBuild = errors.New("graph build failed")

	// ErrWorkspaceNotFound is returned when a workspace ID is unknown to the store.
	ErrWorkspaceNotFound = errors.New("workspace not found")

	// ErrNoGraph is returned when a workspace has not built a graph yet.
	ErrNoGraph = errors.New("no graph built")

	// ErrNodeNotFound is returned when a node id is not part of a graph.
	ErrNodeNotFound = errors.New("node not found")
)

// MissingInputError lists the required roles that were not supplied.
type MissingInputError struct {
	Roles []Role
}

func (e *MissingInputError) Error() string {
	names := make([]string, len(e.Roles))
	for i, r := range e.Roles {
		names[i] = string(r)
	}
	return fmt.Sprintf("%v: %s", ErrMissingInput, strings.Join(names, ", "))
}

func (e *MissingInputError) Unwrap() error { return ErrMissingInput }

// ParseError reports a single input that could not be read as tabular data.
type ParseError struct {
	Source string
	Line   int // 0 when the failure is not tied to a line
	Err    error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%v: %s (line %d): %v", ErrParse, e.Source, e.Line, e.Err)
	}
	return fmt.Sprintf("%v: %s: %v", ErrParse, e.Source, e.Err)
}

func (e *ParseError) Unwrap() []error { return []error{ErrParse, e.Err} }

// NetNameError reports a label that does not match "NET - <name> -".
type NetNameError struct {
	Label string
}

func (e *NetNameError) Error() string {
	return fmt.Sprintf("%v from %q", ErrNetNameExtraction, e.Label)
}

func (e *NetNameError) Unwrap() error { return ErrNetNameExtraction }

// GraphBuildError reports an inconsistent dataset handed to the builder.
type GraphBuildError struct {
	Reason string
}

func (e *GraphBuildError) Error() string {
	return fmt.Sprintf("%v: %s", ErrGraphBuild, e.Reason)
}

func (e *GraphBuildError) Unwrap() error { return ErrGraphBuild }
