package session

import (
	"strings"

	"github.com/smallbiznis/flowdesk/internal/draft/domain"
)

// Patch is a partial edit. Nil fields are left alone. An empty string clears
// the optional invoice number and dates. LineItems replaces the whole list so
// reordering is a single edit.
type Patch struct {
	InvoiceNumber *string           `json:"invoiceNumber,omitempty"`
	ClientID      *string           `json:"clientId,omitempty"`
	LineItems     []domain.LineItem `json:"lineItems,omitempty"`
	Notes         *domain.Auxiliary `json:"notes,omitempty"`
	Status        *domain.Status    `json:"status,omitempty"`
	IssueDate     *string           `json:"issueDate,omitempty"`
	DueDate       *string           `json:"dueDate,omitempty"`
}

func (p Patch) validate() error {
	if p.Status != nil && !p.Status.Valid() {
		return domain.ErrInvalidStatus
	}
	return nil
}

func (p Patch) apply(doc *domain.Document) {
	if p.InvoiceNumber != nil {
		doc.InvoiceNumber = optional(*p.InvoiceNumber)
	}
	if p.ClientID != nil {
		doc.ClientID = strings.TrimSpace(*p.ClientID)
	}
	if p.LineItems != nil {
		doc.LineItems = append([]domain.LineItem(nil), p.LineItems...)
	}
	if p.Notes != nil {
		doc.Notes = p.Notes.Clone()
	}
	if p.Status != nil {
		doc.Status = *p.Status
	}
	if p.IssueDate != nil {
		doc.IssueDate = optional(*p.IssueDate)
	}
	if p.DueDate != nil {
		doc.DueDate = optional(*p.DueDate)
	}
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
