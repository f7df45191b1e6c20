package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/flowdesk/internal/analytics/domain"
	"github.com/smallbiznis/flowdesk/internal/clock"
	"github.com/smallbiznis/flowdesk/internal/config"
	invoicedomain "github.com/smallbiznis/flowdesk/internal/invoice/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultRecentLimit = 5

var monthNames = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Clock     clock.Clock
	Invoicing *config.InvoicingConfigHolder
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	clock     clock.Clock
	invoicing *config.InvoicingConfigHolder
}

func NewService(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("analytics.service"),
		clock:     p.Clock,
		invoicing: p.Invoicing,
	}
}

type invoiceRow struct {
	ID         snowflake.ID         `gorm:"column:id"`
	Number     string               `gorm:"column:number"`
	Status     invoicedomain.Status `gorm:"column:status"`
	ClientID   snowflake.ID         `gorm:"column:client_id"`
	ClientName *string              `gorm:"column:client_name"`
	IssueDate  time.Time            `gorm:"column:issue_date"`
	DueDate    time.Time            `gorm:"column:due_date"`
	Currency   string               `gorm:"column:currency"`
	Total      decimal.Decimal      `gorm:"column:total"`
	AmountDue  decimal.Decimal      `gorm:"column:amount_due"`
	CreatedAt  time.Time            `gorm:"column:created_at"`
}

func (s *Service) loadInvoices(ctx context.Context) ([]invoiceRow, error) {
	var rows []invoiceRow
	query := `
		SELECT i.id, i.number, i.status, i.client_id, c.name AS client_name,
		       i.issue_date, i.due_date, i.currency, i.total, i.amount_due, i.created_at
		FROM invoices i
		LEFT JOIN clients c ON c.id = i.client_id
		ORDER BY i.issue_date DESC, i.id DESC`
	if err := s.db.WithContext(ctx).Raw(query).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Service) today() time.Time {
	now := s.clock.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// overdue reports whether an invoice still expects money after its due date.
func overdue(row invoiceRow, today time.Time) bool {
	if row.Status == invoicedomain.StatusOverdue {
		return true
	}
	return row.Status.Open() && row.DueDate.Before(today)
}

func (s *Service) RevenueMetrics(ctx context.Context) (domain.RevenueMetrics, error) {
	rows, err := s.loadInvoices(ctx)
	if err != nil {
		return domain.RevenueMetrics{}, err
	}

	today := s.today()
	var metrics domain.RevenueMetrics
	totals := map[string]*domain.CurrencyTotals{}
	bucket := func(currency string) *domain.CurrencyTotals {
		currency = strings.ToUpper(strings.TrimSpace(currency))
		t, ok := totals[currency]
		if !ok {
			t = &domain.CurrencyTotals{Currency: currency}
			totals[currency] = t
		}
		return t
	}

	for _, row := range rows {
		metrics.InvoiceCount++
		t := bucket(row.Currency)
		switch {
		case row.Status == invoicedomain.StatusPaid:
			metrics.PaidCount++
			t.TotalRevenue = t.TotalRevenue.Add(row.Total)
		case row.Status.Open():
			t.TotalOutstanding = t.TotalOutstanding.Add(row.AmountDue)
		}
		if overdue(row, today) {
			metrics.OverdueCount++
			t.TotalOverdue = t.TotalOverdue.Add(row.AmountDue)
		}
	}

	metrics.Totals = make([]domain.CurrencyTotals, 0, len(totals))
	for _, t := range totals {
		metrics.Totals = append(metrics.Totals, *t)
	}
	sort.Slice(metrics.Totals, func(i, j int) bool {
		return metrics.Totals[i].Currency < metrics.Totals[j].Currency
	})
	return metrics, nil
}

// RevenuePulse sums invoice totals by issue month. Cancelled invoices are
// left out.
func (s *Service) RevenuePulse(ctx context.Context, year int, currency string) (domain.RevenuePulse, error) {
	if year <= 0 {
		year = s.today().Year()
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" && s.invoicing != nil {
		currency = s.invoicing.Get().Currency
	}

	rows, err := s.loadInvoices(ctx)
	if err != nil {
		return domain.RevenuePulse{}, err
	}

	var months [12]decimal.Decimal
	for _, row := range rows {
		if row.Status == invoicedomain.StatusCancelled || row.IssueDate.Year() != year {
			continue
		}
		if currency != "" && !strings.EqualFold(row.Currency, currency) {
			continue
		}
		months[row.IssueDate.Month()-1] = months[row.IssueDate.Month()-1].Add(row.Total)
	}

	pulse := domain.RevenuePulse{Year: year, Currency: currency, Months: make([]domain.MonthlyRevenue, 12)}
	for i, name := range monthNames {
		pulse.Months[i] = domain.MonthlyRevenue{Month: name, Revenue: months[i]}
	}

	today := s.today()
	if today.Year() == year && today.Month() > time.January {
		current := months[today.Month()-1]
		previous := months[today.Month()-2]
		if previous.IsPositive() {
			pulse.GrowthPercent = current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100)).Round(2)
		}
	}
	return pulse, nil
}

// ClientBalances lists every client with its outstanding amount in the
// currency of its latest open invoice.
func (s *Service) ClientBalances(ctx context.Context) ([]domain.ClientBalance, error) {
	type clientRow struct {
		ID   snowflake.ID `gorm:"column:id"`
		Name string       `gorm:"column:name"`
	}
	var clients []clientRow
	if err := s.db.WithContext(ctx).Raw(`SELECT id, name FROM clients ORDER BY name ASC`).Scan(&clients).Error; err != nil {
		return nil, err
	}

	rows, err := s.loadInvoices(ctx)
	if err != nil {
		return nil, err
	}
	today := s.today()

	byClient := make(map[snowflake.ID][]invoiceRow)
	for _, row := range rows {
		byClient[row.ClientID] = append(byClient[row.ClientID], row)
	}

	out := make([]domain.ClientBalance, 0, len(clients))
	for _, c := range clients {
		balance := domain.ClientBalance{
			ClientID:      c.ID.String(),
			Name:          c.Name,
			PaymentStatus: "settled",
		}
		invoices := byClient[c.ID]
		if len(invoices) > 0 {
			// rows are newest first
			balance.LastInvoiceID = invoices[0].ID.String()
			balance.Currency = strings.ToUpper(invoices[0].Currency)
			for _, inv := range invoices {
				if inv.Status.Open() {
					balance.Currency = strings.ToUpper(inv.Currency)
					break
				}
			}
		}
		late := false
		for _, inv := range invoices {
			if !inv.Status.Open() || !strings.EqualFold(inv.Currency, balance.Currency) {
				continue
			}
			balance.Outstanding = balance.Outstanding.Add(inv.AmountDue)
			late = late || overdue(inv, today)
		}
		switch {
		case late:
			balance.PaymentStatus = "overdue"
		case balance.Outstanding.IsPositive():
			balance.PaymentStatus = "due"
		}
		out = append(out, balance)
	}
	return out, nil
}

func (s *Service) RecentInvoices(ctx context.Context, limit int) ([]domain.RecentInvoice, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	rows, err := s.loadInvoices(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) > limit {
		rows = rows[:limit]
	}

	out := make([]domain.RecentInvoice, 0, len(rows))
	for _, row := range rows {
		name := "Unknown"
		if row.ClientName != nil {
			name = *row.ClientName
		}
		out = append(out, domain.RecentInvoice{
			ID:         row.ID.String(),
			Number:     row.Number,
			ClientName: name,
			Status:     string(row.Status),
			IssueDate:  row.IssueDate,
			Currency:   row.Currency,
			Total:      row.Total,
		})
	}
	return out, nil
}
