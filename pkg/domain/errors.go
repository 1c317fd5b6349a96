package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the log.
var ErrSessionNotFound = errors.New("session not found")

// ErrPageNotFound is returned when a page source has no page with the given name.
var ErrPageNotFound = errors.New("page not found")

// ErrNotContainer is returned when a structural operation targets a leaf node.
var ErrNotContainer = errors.New("node is not a container")

// ErrDetached is returned when an operation needs a parent but the node has none.
var ErrDetached = errors.New("node is not attached to a parent")

// DuplicateIDError is returned when a child id collides with a current sibling.
type DuplicateIDError struct {
	Parent string
	ID     string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("container '%s' already has a child with id '%s'", e.Parent, e.ID)
}

// CycleError is returned when an insertion would make a node its own descendant.
type CycleError struct {
	Parent string
	Child  string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("adding '%s' to '%s' would create a cycle", e.Child, e.Parent)
}

// ChildNotFoundError is returned by remove/replace when no child has the id.
type ChildNotFoundError struct {
	Parent string
	ID     string
}

func (e *ChildNotFoundError) Error() string {
	return fmt.Sprintf("container '%s' has no child with id '%s'", e.Parent, e.ID)
}

// Lifecycle hook names reported by LifecycleContractViolation.
const (
	HookInitialize     = "OnInitialize"
	HookPageInitialize = "OnPageInitialize"
)

// LifecycleContractViolation means an overriding hook did not call the base
// implementation. It is a defect in the node kind and aborts the turn.
type LifecycleContractViolation struct {
	Path string
	Kind string
	Hook string
}

func (e *LifecycleContractViolation) Error() string {
	return fmt.Sprintf("%s of node '%s' (%s) did not call the base %s; "+
		"overriding hooks must call the embedded implementation", e.Hook, e.Path, e.Kind, e.Hook)
}

// RuntimeFailure wraps a failure that escaped rendering and was not turned
// into a redirect by any behavior.
type RuntimeFailure struct {
	Path  string
	Kind  string
	Cause error
}

func (e *RuntimeFailure) Error() string {
	return fmt.Sprintf("failure while processing node '%s' (%s): %v", e.Path, e.Kind, e.Cause)
}

func (e *RuntimeFailure) Unwrap() error {
	return e.Cause
}

// UnresolvedReportOriginError means a message names an origin that is no
// longer attached under the queried tree. Such messages are scoped as
// scope-less instead of failing the query.
type UnresolvedReportOriginError struct {
	Seq  uint64
	Path string
}

func (e *UnresolvedReportOriginError) Error() string {
	return fmt.Sprintf("origin '%s' of message %d is not attached to the tree", e.Path, e.Seq)
}
