package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	clientdomain "github.com/smallbiznis/flowdesk/internal/client/domain"
	clientrepository "github.com/smallbiznis/flowdesk/internal/client/repository"
	clientservice "github.com/smallbiznis/flowdesk/internal/client/service"
	"github.com/smallbiznis/flowdesk/internal/clock"
	"github.com/smallbiznis/flowdesk/internal/config"
	invoicedomain "github.com/smallbiznis/flowdesk/internal/invoice/domain"
	"github.com/smallbiznis/flowdesk/internal/invoice/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

type fixture struct {
	svc    invoicedomain.Service
	client clientdomain.Client
	clock  *clock.FakeClock
}

func setup(t *testing.T) fixture {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&clientdomain.Client{}, &invoicedomain.Invoice{}, &invoicedomain.InvoiceItem{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fc := clock.NewFakeClock(time.Date(2026, 2, 10, 14, 30, 0, 0, time.UTC))
	log := zaptest.NewLogger(t)

	clients := clientservice.New(clientservice.Params{
		DB:    db,
		Log:   log,
		GenID: node,
		Clock: fc,
		Repo:  clientrepository.Provide(),
	})
	client, err := clients.Create(context.Background(), clientdomain.CreateClientRequest{Name: "Acme"})
	require.NoError(t, err)

	svc := NewService(ServiceParam{
		DB:        db,
		Log:       log,
		GenID:     node,
		Clock:     fc,
		Repo:      repository.Provide(),
		Clients:   clients,
		Invoicing: config.NewStaticInvoicingConfigHolder(config.DefaultInvoicingConfig()),
	})
	return fixture{svc: svc, client: client, clock: fc}
}

func item(description string, qty, price string) invoicedomain.ItemInput {
	return invoicedomain.ItemInput{
		Description: description,
		Quantity:    decimal.RequireFromString(qty),
		UnitPrice:   decimal.RequireFromString(price),
	}
}

func strPtr(v string) *string { return &v }

func TestCreate_DefaultsAndTotals(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	inv, err := f.svc.Create(ctx, invoicedomain.CreateInvoiceRequest{
		ClientID: f.client.ID.String(),
		Status:   "Sent",
		Items: []invoicedomain.ItemInput{
			item("Design", "2", "100"),
			item("   ", "5", "5"),
			item("Hosting", "1", "50.5"),
		},
		TaxRates: []invoicedomain.TaxRate{{Name: "VAT", Rate: decimal.NewFromInt(10)}},
		Discount: &invoicedomain.Discount{Type: invoicedomain.DiscountFixed, Value: decimal.RequireFromString("0.5")},
	})
	require.NoError(t, err)

	assert.Equal(t, "INV-2026-00001", inv.Number)
	assert.Equal(t, invoicedomain.StatusSent, inv.Status)
	assert.Equal(t, "USD", inv.Currency)
	assert.Equal(t, time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC), inv.IssueDate)
	assert.Equal(t, time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC), inv.DueDate, "due defaults to issue + payment terms")
	require.Len(t, inv.Items, 2, "rows without a description are dropped")
	assert.True(t, inv.Subtotal.Equal(decimal.RequireFromString("250.5")))
	assert.True(t, inv.TaxTotal.Equal(decimal.RequireFromString("25.05")))
	assert.True(t, inv.Total.Equal(decimal.RequireFromString("275.05")), inv.Total.String())
	assert.True(t, inv.AmountDue.Equal(inv.Total))

	got, err := f.svc.GetByID(ctx, inv.ID.String())
	require.NoError(t, err)
	assert.Equal(t, inv.Number, got.Number)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "Design", got.Items[0].Description)
	assert.Equal(t, "Hosting", got.Items[1].Description)

	second, err := f.svc.Create(ctx, invoicedomain.CreateInvoiceRequest{
		ClientID: f.client.ID.String(),
		Status:   "bogus",
		Items:    []invoicedomain.ItemInput{item("Support", "1", "10")},
	})
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-00002", second.Number)
	assert.Equal(t, invoicedomain.StatusDraft, second.Status, "unknown status falls back to Draft")
}

func TestCreate_Validation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	valid := []invoicedomain.ItemInput{item("Work", "1", "1")}

	cases := []struct {
		name string
		req  invoicedomain.CreateInvoiceRequest
		want error
	}{
		{"missing client", invoicedomain.CreateInvoiceRequest{Items: valid}, invoicedomain.ErrInvalidClient},
		{"unknown client", invoicedomain.CreateInvoiceRequest{ClientID: "12345", Items: valid}, invoicedomain.ErrInvalidClient},
		{"no described items", invoicedomain.CreateInvoiceRequest{ClientID: f.client.ID.String(), Items: []invoicedomain.ItemInput{item("", "1", "1")}}, invoicedomain.ErrEmptyItems},
		{"negative quantity", invoicedomain.CreateInvoiceRequest{ClientID: f.client.ID.String(), Items: []invoicedomain.ItemInput{item("Work", "-1", "1")}}, invoicedomain.ErrInvalidQuantity},
		{"negative price", invoicedomain.CreateInvoiceRequest{ClientID: f.client.ID.String(), Items: []invoicedomain.ItemInput{item("Work", "1", "-1")}}, invoicedomain.ErrInvalidPrice},
		{"discount over 100%", invoicedomain.CreateInvoiceRequest{
			ClientID: f.client.ID.String(),
			Items:    valid,
			Discount: &invoicedomain.Discount{Type: invoicedomain.DiscountPercentage, Value: decimal.NewFromInt(101)},
		}, invoicedomain.ErrInvalidDiscount},
		{"due before issue", invoicedomain.CreateInvoiceRequest{
			ClientID:  f.client.ID.String(),
			Items:     valid,
			IssueDate: strPtr("2026-02-10"),
			DueDate:   strPtr("2026-02-01"),
		}, invoicedomain.ErrInvalidDueDate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestCreate_ExplicitNumberConflict(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	req := invoicedomain.CreateInvoiceRequest{
		Number:   strPtr("CUSTOM-1"),
		ClientID: f.client.ID.String(),
		Items:    []invoicedomain.ItemInput{item("Work", "1", "1")},
	}

	_, err := f.svc.Create(ctx, req)
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, req)
	assert.ErrorIs(t, err, invoicedomain.ErrDuplicateNumber)
}

func TestListUpdateStatusDelete(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, invoicedomain.CreateInvoiceRequest{
		ClientID: f.client.ID.String(),
		Status:   "Pending",
		Items:    []invoicedomain.ItemInput{item("Work", "1", "10")},
	})
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	second, err := f.svc.Create(ctx, invoicedomain.CreateInvoiceRequest{
		ClientID: f.client.ID.String(),
		Items:    []invoicedomain.ItemInput{item("Work", "1", "20")},
	})
	require.NoError(t, err)

	all, err := f.svc.List(ctx, invoicedomain.ListInvoiceRequest{})
	require.NoError(t, err)
	require.Len(t, all.Invoices, 2)
	assert.Equal(t, second.ID, all.Invoices[0].ID, "newest first")

	pending, err := f.svc.List(ctx, invoicedomain.ListInvoiceRequest{Status: "Pending"})
	require.NoError(t, err)
	require.Len(t, pending.Invoices, 1)
	assert.Equal(t, first.ID, pending.Invoices[0].ID)

	_, err = f.svc.List(ctx, invoicedomain.ListInvoiceRequest{Status: "Archived"})
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidStatus)

	updated, err := f.svc.UpdateStatus(ctx, first.ID.String(), "Paid")
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.StatusPaid, updated.Status)

	_, err = f.svc.UpdateStatus(ctx, "777", "Paid")
	assert.ErrorIs(t, err, invoicedomain.ErrNotFound)

	require.NoError(t, f.svc.Delete(ctx, second.ID.String()))
	_, err = f.svc.GetByID(ctx, second.ID.String())
	assert.ErrorIs(t, err, invoicedomain.ErrNotFound)
	assert.ErrorIs(t, f.svc.Delete(ctx, second.ID.String()), invoicedomain.ErrNotFound)
	assert.ErrorIs(t, f.svc.Delete(ctx, "x"), invoicedomain.ErrInvalidID)
}
