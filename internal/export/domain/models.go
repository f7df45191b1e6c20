package domain

import (
	"context"
	"errors"
	"time"
)

type Status string

const (
	StatusIdle         Status = "Idle"
	StatusInitializing Status = "Initializing"
	StatusRendering    Status = "Rendering"
	StatusGenerating   Status = "Generating"
	StatusComplete     Status = "Complete"
	StatusError        Status = "Error"
)

// Terminal reports whether no further state follows.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusError
}

// Job is one observed state of an export. Path is set only when Complete and
// Error only when Error.
type Job struct {
	ID            string    `json:"id"`
	InvoiceID     string    `json:"invoice_id"`
	InvoiceNumber string    `json:"invoice_number"`
	Status        Status    `json:"status"`
	Path          *string   `json:"path"`
	Error         *string   `json:"error"`
	StartedAt     time.Time `json:"started_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Renderer writes the invoice to a PDF file and returns its path.
type Renderer interface {
	RenderInvoice(ctx context.Context, invoiceID string) (string, error)
}

// RenderFailure wraps every renderer error. Message is shown to the user as is.
type RenderFailure struct {
	Message string
	Err     error
}

func (e *RenderFailure) Error() string { return e.Message }

func (e *RenderFailure) Unwrap() error { return e.Err }

var (
	ErrExportInFlight = errors.New("export_in_flight")
	ErrJobNotFound    = errors.New("export_job_not_found")
)
