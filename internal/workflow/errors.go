package workflow

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidPhase     = errors.New("operation not valid in current workflow phase")
	ErrEmptyInput       = errors.New("input is empty")
	ErrNotEditing       = errors.New("analysis is not being edited")
	ErrAlreadyEditing   = errors.New("analysis is already being edited")
	ErrEditInProgress   = errors.New("analysis edits must be saved or canceled first")
	ErrNoDraft          = errors.New("no analysis draft")
	ErrInvalidDraft     = errors.New("analysis draft is invalid")
	ErrUnknownField     = errors.New("unknown analysis field")
	ErrMaterialize      = errors.New("project materialization failed")
	ErrProjectNotFound  = errors.New("project not found")
	ErrStoreUnavailable = errors.New("project store is not configured")
	ErrStaleTimer       = errors.New("timer token is no longer current")
	ErrUnsupportedEvent = errors.New("unsupported workflow event")
)

type RejectReason string

const (
	ReasonInvalidPhase   RejectReason = "invalid_phase"
	ReasonEmptyInput     RejectReason = "empty_input"
	ReasonNotEditing     RejectReason = "not_editing"
	ReasonAlreadyEditing RejectReason = "already_editing"
	ReasonEditInProgress RejectReason = "edit_in_progress"
	ReasonNoDraft        RejectReason = "no_draft"
	ReasonInvalidDraft   RejectReason = "invalid_draft"
	ReasonUnknownField   RejectReason = "unknown_field"
)

// RejectedError reports an operation that was refused without changing state.
type RejectedError struct {
	Op     string
	Phase  Phase
	Reason RejectReason
	Err    error
}

func (e *RejectedError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s rejected in phase %s: %v", e.Op, e.Phase, e.Err)
}

func (e *RejectedError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func reject(op string, phase Phase, reason RejectReason, err error) error {
	return &RejectedError{Op: op, Phase: phase, Reason: reason, Err: err}
}

func invalidPhaseError(op string, phase Phase) error {
	return reject(op, phase, ReasonInvalidPhase, ErrInvalidPhase)
}

// ReasonOf extracts the rejection reason from err, if it is a rejection.
func ReasonOf(err error) (RejectReason, bool) {
	var rejected *RejectedError
	if errors.As(err, &rejected) && rejected != nil {
		return rejected.Reason, true
	}
	return "", false
}
