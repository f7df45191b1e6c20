package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	clientdomain "github.com/smallbiznis/flowdesk/internal/client/domain"
	"github.com/smallbiznis/flowdesk/internal/clock"
	"github.com/smallbiznis/flowdesk/internal/config"
	"github.com/smallbiznis/flowdesk/internal/invoice/calculator"
	invoicedomain "github.com/smallbiznis/flowdesk/internal/invoice/domain"
	"github.com/smallbiznis/flowdesk/internal/invoice/format"
	"github.com/smallbiznis/flowdesk/internal/observability/metrics"
	"github.com/smallbiznis/flowdesk/pkg/db"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	dateLayout        = "2006-01-02"
	maxNumberAttempts = 5
)

var tracer = otel.Tracer("flowdesk/invoice")

type ServiceParam struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Repo      invoicedomain.Repository
	Clients   clientdomain.Service
	Invoicing *config.InvoicingConfigHolder
	Metrics   *metrics.Metrics `optional:"true"`
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID     *snowflake.Node
	clock     clock.Clock
	repo      invoicedomain.Repository
	clients   clientdomain.Service
	invoicing *config.InvoicingConfigHolder
	metrics   *metrics.Metrics
}

func NewService(p ServiceParam) invoicedomain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("invoice.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repo,
		clients:   p.Clients,
		invoicing: p.Invoicing,
		metrics:   p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req invoicedomain.CreateInvoiceRequest) (invoicedomain.Invoice, error) {
	ctx, span := tracer.Start(ctx, "invoice.Create")
	defer span.End()

	invoice, err := s.buildInvoice(ctx, req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return invoicedomain.Invoice{}, err
	}

	number := ""
	if req.Number != nil {
		number = strings.TrimSpace(*req.Number)
	}
	generate := number == ""
	cfg := s.invoicing.Get()

	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			invoice.Number = number
			if generate {
				count, err := s.repo.Count(ctx, tx)
				if err != nil {
					return err
				}
				invoice.Number, err = format.FormatInvoiceNumber(format.DefaultInvoiceNumberTemplate, cfg.NumberPrefix, invoice.IssueDate, count+1+int64(attempt))
				if err != nil {
					return err
				}
			}
			if err := s.repo.Insert(ctx, tx, &invoice); err != nil {
				return err
			}
			return s.repo.InsertItems(ctx, tx, invoice.Items)
		})
		if err == nil {
			break
		}
		if !db.IsDuplicateKeyErr(err) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "insert invoice")
			return invoicedomain.Invoice{}, err
		}
		if !generate {
			return invoicedomain.Invoice{}, invoicedomain.ErrDuplicateNumber
		}
		s.log.Warn("invoice.number_collision",
			zap.String("number", invoice.Number),
			zap.Int("attempt", attempt+1),
		)
	}
	if err != nil {
		return invoicedomain.Invoice{}, invoicedomain.ErrDuplicateNumber
	}

	span.SetAttributes(attribute.String("invoice.number", invoice.Number))
	s.metrics.RecordInvoiceCreated(ctx, string(invoice.Status), invoice.Currency)
	s.log.Info("invoice.created",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("number", invoice.Number),
		zap.String("status", string(invoice.Status)),
		zap.Int("items", len(invoice.Items)),
	)
	return invoice, nil
}

func (s *Service) buildInvoice(ctx context.Context, req invoicedomain.CreateInvoiceRequest) (invoicedomain.Invoice, error) {
	clientID, err := parseID(req.ClientID)
	if err != nil {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidClient
	}
	if _, err := s.clients.GetByID(ctx, req.ClientID); err != nil {
		if errors.Is(err, clientdomain.ErrNotFound) || errors.Is(err, clientdomain.ErrInvalidID) {
			return invoicedomain.Invoice{}, invoicedomain.ErrInvalidClient
		}
		return invoicedomain.Invoice{}, err
	}

	if err := validateDiscount(req.Discount); err != nil {
		return invoicedomain.Invoice{}, err
	}

	cfg := s.invoicing.Get()
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = cfg.Currency
	}
	if len(currency) < 3 || len(currency) > 8 {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidCurrency
	}

	terms := cfg.PaymentTermsDays
	if req.PaymentTermsDays != nil && *req.PaymentTermsDays >= 0 {
		terms = *req.PaymentTermsDays
	}

	now := s.clock.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	issueDate := parseDate(req.IssueDate, today)
	dueDate := parseDate(req.DueDate, issueDate.AddDate(0, 0, terms))
	if dueDate.Before(issueDate) {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidDueDate
	}

	id := s.genID.Generate()
	items, err := s.buildItems(id, req.Items)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	taxRates := req.TaxRates
	if taxRates == nil {
		taxRates = []invoicedomain.TaxRate{}
	}
	totals := calculator.Compute(items, taxRates, req.Discount)

	return invoicedomain.Invoice{
		ID:               id,
		Status:           invoicedomain.ParseStatus(req.Status),
		ClientID:         clientID,
		IssueDate:        issueDate,
		DueDate:          dueDate,
		Currency:         currency,
		TaxRates:         datatypes.JSONSlice[invoicedomain.TaxRate](taxRates),
		Discount:         datatypes.NewJSONType(req.Discount),
		Subtotal:         totals.Subtotal,
		TaxTotal:         totals.TaxTotal,
		DiscountTotal:    totals.DiscountTotal,
		Total:            totals.Total,
		AmountPaid:       decimal.Zero,
		AmountDue:        totals.Total,
		PaymentTermsDays: terms,
		Notes:            req.Notes,
		Terms:            strings.TrimSpace(req.Terms),
		CreatedAt:        now,
		UpdatedAt:        now,
		Items:            items,
	}, nil
}

// buildItems drops rows without a description and numbers the rest in order.
func (s *Service) buildItems(invoiceID snowflake.ID, inputs []invoicedomain.ItemInput) ([]invoicedomain.InvoiceItem, error) {
	items := make([]invoicedomain.InvoiceItem, 0, len(inputs))
	for _, in := range inputs {
		description := strings.TrimSpace(in.Description)
		if description == "" {
			continue
		}
		if in.Quantity.IsNegative() {
			return nil, invoicedomain.ErrInvalidQuantity
		}
		if in.UnitPrice.IsNegative() {
			return nil, invoicedomain.ErrInvalidPrice
		}
		items = append(items, invoicedomain.InvoiceItem{
			ID:          s.genID.Generate(),
			InvoiceID:   invoiceID,
			Description: description,
			Quantity:    in.Quantity,
			UnitPrice:   in.UnitPrice,
			Amount:      calculator.LineAmount(in.Quantity, in.UnitPrice),
			SortOrder:   len(items),
		})
	}
	if len(items) == 0 {
		return nil, invoicedomain.ErrEmptyItems
	}
	return items, nil
}

func (s *Service) List(ctx context.Context, req invoicedomain.ListInvoiceRequest) (invoicedomain.ListInvoiceResponse, error) {
	filter := invoicedomain.ListInvoiceFilter{}
	if raw := strings.TrimSpace(req.Status); raw != "" {
		status := invoicedomain.ParseStatus(raw)
		if string(status) != raw {
			return invoicedomain.ListInvoiceResponse{}, invoicedomain.ErrInvalidStatus
		}
		filter.Status = status
	}
	if raw := strings.TrimSpace(req.ClientID); raw != "" {
		clientID, err := parseID(raw)
		if err != nil {
			return invoicedomain.ListInvoiceResponse{}, invoicedomain.ErrInvalidClient
		}
		filter.ClientID = clientID
	}

	rows, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return invoicedomain.ListInvoiceResponse{}, err
	}
	if rows == nil {
		rows = []invoicedomain.Summary{}
	}
	return invoicedomain.ListInvoiceResponse{Invoices: rows}, nil
}

func (s *Service) GetByID(ctx context.Context, rawID string) (invoicedomain.Invoice, error) {
	id, err := parseID(rawID)
	if err != nil {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidID
	}

	invoice, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	if invoice == nil {
		return invoicedomain.Invoice{}, invoicedomain.ErrNotFound
	}

	items, err := s.repo.ListItems(ctx, s.db, id)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	invoice.Items = items
	return *invoice, nil
}

func (s *Service) UpdateStatus(ctx context.Context, rawID string, rawStatus string) (invoicedomain.Invoice, error) {
	id, err := parseID(rawID)
	if err != nil {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidID
	}

	status := invoicedomain.ParseStatus(rawStatus)
	current, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	if current == nil {
		return invoicedomain.Invoice{}, invoicedomain.ErrNotFound
	}
	rows, err := s.repo.UpdateStatus(ctx, s.db, id, status, s.clock.Now())
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	if rows == 0 {
		return invoicedomain.Invoice{}, invoicedomain.ErrNotFound
	}
	if current.Status != status {
		s.metrics.RecordStatusChange(ctx, string(current.Status), string(status))
	}

	s.log.Info("invoice.status_updated",
		zap.String("invoice_id", id.String()),
		zap.String("status", string(status)),
	)
	return s.GetByID(ctx, rawID)
}

func (s *Service) Delete(ctx context.Context, rawID string) error {
	id, err := parseID(rawID)
	if err != nil {
		return invoicedomain.ErrInvalidID
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := s.repo.Delete(ctx, tx, id)
		if err != nil {
			return err
		}
		if rows == 0 {
			return invoicedomain.ErrNotFound
		}
		return nil
	})
}

func validateDiscount(discount *invoicedomain.Discount) error {
	if discount == nil {
		return nil
	}
	if discount.Value.IsNegative() {
		return invoicedomain.ErrInvalidDiscount
	}
	switch discount.Type {
	case invoicedomain.DiscountFixed:
		return nil
	case invoicedomain.DiscountPercentage:
		if discount.Value.GreaterThan(decimal.NewFromInt(100)) {
			return invoicedomain.ErrInvalidDiscount
		}
		return nil
	default:
		return invoicedomain.ErrInvalidDiscount
	}
}

// parseDate falls back when the value is missing or not an ISO date.
func parseDate(raw *string, fallback time.Time) time.Time {
	if raw == nil {
		return fallback
	}
	parsed, err := time.Parse(dateLayout, strings.TrimSpace(*raw))
	if err != nil {
		return fallback
	}
	return parsed
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, invoicedomain.ErrInvalidID
	}
	return id, nil
}
