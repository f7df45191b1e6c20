// Package domain holds the in-progress invoice draft and the rules that decide
// whether a persisted draft is worth offering back to the user.
package domain

import (
	"github.com/shopspring/decimal"
)

// Status mirrors the statuses the editor lets a user pick before saving.
type Status string

const (
	StatusDraft     Status = "Draft"
	StatusPending   Status = "Pending"
	StatusSent      Status = "Sent"
	StatusPaid      Status = "Paid"
	StatusCancelled Status = "Cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusSent, StatusPaid, StatusCancelled:
		return true
	default:
		return false
	}
}

type LineItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

// Document is the unsaved state of one invoice being edited.
type Document struct {
	InvoiceNumber *string    `json:"invoiceNumber"`
	ClientID      string     `json:"clientId"`
	LineItems     []LineItem `json:"lineItems"`
	Notes         Auxiliary  `json:"notes"`
	Status        Status     `json:"status"`
	IssueDate     *string    `json:"issueDate,omitempty"`
	DueDate       *string    `json:"dueDate,omitempty"`
}

// NewDocument returns the untouched editor state: one empty line item.
func NewDocument() Document {
	return Document{
		LineItems: []LineItem{{Quantity: decimal.NewFromInt(1)}},
		Status:    StatusDraft,
	}
}

// IsMeaningful reports whether the draft holds anything the user typed.
func (d Document) IsMeaningful() bool {
	if d.ClientID != "" {
		return true
	}
	if len(d.LineItems) > 0 {
		first := d.LineItems[0]
		if first.Description != "" || !first.UnitPrice.IsZero() {
			return true
		}
	}
	if d.InvoiceNumber != nil {
		return true
	}
	if d.Status != "" && d.Status != StatusDraft {
		return true
	}
	for _, detail := range d.Notes.ProjectDetails {
		if detail.Value != "" {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers cannot mutate session state.
func (d Document) Clone() Document {
	out := d
	out.InvoiceNumber = cloneString(d.InvoiceNumber)
	out.IssueDate = cloneString(d.IssueDate)
	out.DueDate = cloneString(d.DueDate)
	if d.LineItems != nil {
		out.LineItems = append([]LineItem(nil), d.LineItems...)
	}
	out.Notes = d.Notes.Clone()
	return out
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
