// Package domain contains persistence models for invoicing.
package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Status represents invoice lifecycle states.
type Status string

const (
	StatusDraft     Status = "Draft"
	StatusPending   Status = "Pending"
	StatusSent      Status = "Sent"
	StatusViewed    Status = "Viewed"
	StatusPaid      Status = "Paid"
	StatusOverdue   Status = "Overdue"
	StatusCancelled Status = "Cancelled"
)

// ParseStatus maps user input onto a known status. Anything unrecognised
// becomes Draft.
func ParseStatus(raw string) Status {
	switch Status(strings.TrimSpace(raw)) {
	case StatusPending:
		return StatusPending
	case StatusSent:
		return StatusSent
	case StatusViewed:
		return StatusViewed
	case StatusPaid:
		return StatusPaid
	case StatusOverdue:
		return StatusOverdue
	case StatusCancelled:
		return StatusCancelled
	default:
		return StatusDraft
	}
}

// Open reports whether money is still expected for the invoice.
func (s Status) Open() bool {
	switch s {
	case StatusPending, StatusSent, StatusViewed, StatusOverdue:
		return true
	default:
		return false
	}
}

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

type Discount struct {
	Type  DiscountType    `json:"type"`
	Value decimal.Decimal `json:"value"`
}

type TaxRate struct {
	Name       string          `json:"name"`
	Rate       decimal.Decimal `json:"rate"`
	IsCompound bool            `json:"is_compound"`
}

// Invoice is a committed invoice. Monetary columns use decimal(18,4).
type Invoice struct {
	ID               snowflake.ID                  `gorm:"primaryKey" json:"id"`
	Number           string                        `gorm:"type:varchar(64);uniqueIndex;not null" json:"number"`
	Status           Status                        `gorm:"type:varchar(16);not null;default:'Draft';index" json:"status"`
	ClientID         snowflake.ID                  `gorm:"not null;index" json:"client_id"`
	IssueDate        time.Time                     `gorm:"type:date;not null" json:"issue_date"`
	DueDate          time.Time                     `gorm:"type:date;not null;index" json:"due_date"`
	Currency         string                        `gorm:"type:varchar(8);not null" json:"currency"`
	TaxRates         datatypes.JSONSlice[TaxRate]  `json:"tax_rates"`
	Discount         datatypes.JSONType[*Discount] `json:"discount"`
	Subtotal         decimal.Decimal               `gorm:"type:decimal(18,4);not null" json:"subtotal"`
	TaxTotal         decimal.Decimal               `gorm:"type:decimal(18,4);not null" json:"tax_total"`
	DiscountTotal    decimal.Decimal               `gorm:"type:decimal(18,4);not null" json:"discount_total"`
	Total            decimal.Decimal               `gorm:"type:decimal(18,4);not null" json:"total"`
	AmountPaid       decimal.Decimal               `gorm:"type:decimal(18,4);not null" json:"amount_paid"`
	AmountDue        decimal.Decimal               `gorm:"type:decimal(18,4);not null" json:"amount_due"`
	PaymentTermsDays int                           `gorm:"not null" json:"payment_terms_days"`
	Notes            string                        `gorm:"type:text;not null;default:''" json:"notes"`
	Terms            string                        `gorm:"type:text;not null;default:''" json:"terms"`
	CreatedAt        time.Time                     `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time                     `gorm:"not null" json:"updated_at"`

	Items []InvoiceItem `gorm:"-" json:"items"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// InvoiceItem represents a line on an invoice.
type InvoiceItem struct {
	ID          snowflake.ID    `gorm:"primaryKey" json:"id"`
	InvoiceID   snowflake.ID    `gorm:"not null;index" json:"invoice_id"`
	Description string          `gorm:"type:text;not null" json:"description"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_price"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"amount"`
	SortOrder   int             `gorm:"not null;default:0" json:"sort_order"`
}

// TableName sets the database table name.
func (InvoiceItem) TableName() string { return "invoice_items" }

// Summary is the listing row shown in the invoices table.
type Summary struct {
	ID        snowflake.ID    `json:"id"`
	Number    string          `json:"number"`
	Status    Status          `json:"status"`
	ClientID  snowflake.ID    `json:"client_id"`
	IssueDate time.Time       `json:"issue_date"`
	DueDate   time.Time       `json:"due_date"`
	Currency  string          `json:"currency"`
	Total     decimal.Decimal `json:"total"`
	AmountDue decimal.Decimal `json:"amount_due"`
}
