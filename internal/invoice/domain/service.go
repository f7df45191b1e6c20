package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

type ItemInput struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type CreateInvoiceRequest struct {
	Number           *string     `json:"number"`
	ClientID         string      `json:"client_id"`
	Status           string      `json:"status"`
	IssueDate        *string     `json:"issue_date"`
	DueDate          *string     `json:"due_date"`
	Currency         string      `json:"currency"`
	Items            []ItemInput `json:"items"`
	TaxRates         []TaxRate   `json:"tax_rates"`
	Discount         *Discount   `json:"discount"`
	PaymentTermsDays *int        `json:"payment_terms_days"`
	Notes            string      `json:"notes"`
	Terms            string      `json:"terms"`
}

type ListInvoiceRequest struct {
	Status   string
	ClientID string
}

type ListInvoiceResponse struct {
	Invoices []Summary `json:"invoices"`
}

type Service interface {
	Create(context.Context, CreateInvoiceRequest) (Invoice, error)
	List(context.Context, ListInvoiceRequest) (ListInvoiceResponse, error)
	GetByID(ctx context.Context, id string) (Invoice, error)
	UpdateStatus(ctx context.Context, id string, status string) (Invoice, error)
	Delete(ctx context.Context, id string) error
}

var (
	ErrInvalidID       = errors.New("invalid_id")
	ErrInvalidClient   = errors.New("invalid_client")
	ErrEmptyItems      = errors.New("empty_line_items")
	ErrInvalidQuantity = errors.New("invalid_quantity")
	ErrInvalidPrice    = errors.New("invalid_unit_price")
	ErrInvalidDate     = errors.New("invalid_date")
	ErrInvalidDueDate  = errors.New("due_date_before_issue_date")
	ErrInvalidDiscount = errors.New("invalid_discount")
	ErrInvalidCurrency = errors.New("invalid_currency")
	ErrInvalidStatus   = errors.New("invalid_status")
	ErrDuplicateNumber = errors.New("duplicate_invoice_number")
	ErrNotFound        = errors.New("not_found")
)
