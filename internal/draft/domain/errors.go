package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDraftCorrupt marks persisted bytes that cannot be decoded. It never
	// leaves the session manager.
	ErrDraftCorrupt = errors.New("draft_corrupt")

	ErrDecisionPending  = errors.New("draft_decision_pending")
	ErrNoCandidate      = errors.New("no_draft_candidate")
	ErrChoiceConflict   = errors.New("draft_choice_conflict")
	ErrSessionCommitted = errors.New("session_committed")
	ErrNotInitialized   = errors.New("session_not_initialized")
	ErrAlreadyStarted   = errors.New("session_already_initialized")
	ErrSessionClosed    = errors.New("session_closed")
	ErrCommitInProgress = errors.New("commit_in_progress")
	ErrInvalidStatus    = errors.New("invalid_status")
	ErrNoSession        = errors.New("no_active_session")
)

const (
	FieldClientID      = "clientId"
	FieldLineItems     = "lineItems"
	FieldInvoiceNumber = "invoiceNumber"
	FieldDueDate       = "dueDate"
)

// ValidationError names the fields that block a commit.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// StoreError wraps a failure returned by the backing invoice store.
type StoreError struct {
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("invoice store: %v", e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
