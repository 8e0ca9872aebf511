package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("resource not found")
	ErrAlreadyExists = errors.New("resource already exists")

	ErrInvalidRequest = errors.New("invalid request body")

	ErrAlreadyInGroup       = errors.New("student is already in a workgroup")
	ErrProjectExists        = errors.New("group project already exists for this group")
	ErrPartAlreadySubmitted = errors.New("this part of the project has already been submitted")

	ErrWorkflowNotFound       = errors.New("member workflow not found")
	ErrPeerWorkflowMissing    = errors.New("peer member workflow is missing")
	ErrNoPendingAssignment    = errors.New("no pending assignment for scorer")
	ErrInvalidRubricSelection = errors.New("invalid rubric selection")
	ErrConcurrencyViolation   = errors.New("assignment was resolved concurrently")
)

// WorkflowNotFoundError carries the identity of the student whose workflow
// was expected but absent, usually because initialization was skipped.
type WorkflowNotFoundError struct{ StudentID string }

func (e *WorkflowNotFoundError) Error() string {
	return fmt.Sprintf("member workflow for student '%s' not found", e.StudentID)
}
func (e *WorkflowNotFoundError) Is(target error) bool {
	return target == ErrWorkflowNotFound || target == ErrNotFound
}

// PeerWorkflowMissingError signals a data-integrity failure: the round-robin
// scan selected a peer whose workflow row was never created.
type PeerWorkflowMissingError struct{ StudentID string }

func (e *PeerWorkflowMissingError) Error() string {
	return fmt.Sprintf("workflow for selected peer '%s' is missing", e.StudentID)
}
func (e *PeerWorkflowMissingError) Is(target error) bool { return target == ErrPeerWorkflowMissing }

// InvalidRubricSelectionError reports the criterion or option name that did
// not resolve against the rubric.
type InvalidRubricSelectionError struct {
	Criterion string
	Option    string
}

func (e *InvalidRubricSelectionError) Error() string {
	if e.Option == "" {
		return fmt.Sprintf("unknown rubric criterion '%s'", e.Criterion)
	}

	return fmt.Sprintf("unknown option '%s' for rubric criterion '%s'", e.Option, e.Criterion)
}
func (e *InvalidRubricSelectionError) Is(target error) bool {
	return target == ErrInvalidRubricSelection
}
