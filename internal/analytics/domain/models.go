package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// CurrencyTotals holds the money figures for one currency. Amounts in
// different currencies are never summed together.
type CurrencyTotals struct {
	Currency         string          `json:"currency"`
	TotalRevenue     decimal.Decimal `json:"total_revenue"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
	TotalOverdue     decimal.Decimal `json:"total_overdue"`
}

// RevenueMetrics is the dashboard summary.
type RevenueMetrics struct {
	InvoiceCount int64            `json:"invoice_count"`
	PaidCount    int64            `json:"paid_count"`
	OverdueCount int64            `json:"overdue_count"`
	Totals       []CurrencyTotals `json:"totals"`
}

type MonthlyRevenue struct {
	Month   string          `json:"month"`
	Revenue decimal.Decimal `json:"revenue"`
}

// RevenuePulse is the billed amount per issue month of one year.
type RevenuePulse struct {
	Year     int              `json:"year"`
	Currency string           `json:"currency"`
	Months   []MonthlyRevenue `json:"months"`
	// GrowthPercent compares the current month with the previous one. Zero
	// when the previous month had no revenue.
	GrowthPercent decimal.Decimal `json:"growth_percent"`
}

type ClientBalance struct {
	ClientID      string          `json:"client_id"`
	Name          string          `json:"name"`
	Currency      string          `json:"currency"`
	Outstanding   decimal.Decimal `json:"outstanding"`
	LastInvoiceID string          `json:"last_invoice_id,omitempty"`
	PaymentStatus string          `json:"payment_status"`
}

type RecentInvoice struct {
	ID         string          `json:"id"`
	Number     string          `json:"number"`
	ClientName string          `json:"client_name"`
	Status     string          `json:"status"`
	IssueDate  time.Time       `json:"issue_date"`
	Currency   string          `json:"currency"`
	Total      decimal.Decimal `json:"total"`
}

type Service interface {
	RevenueMetrics(ctx context.Context) (RevenueMetrics, error)
	RevenuePulse(ctx context.Context, year int, currency string) (RevenuePulse, error)
	ClientBalances(ctx context.Context) ([]ClientBalance, error)
	RecentInvoices(ctx context.Context, limit int) ([]RecentInvoice, error)
}
