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
	"github.com/smallbiznis/flowdesk/internal/client/domain"
	"github.com/smallbiznis/flowdesk/internal/client/repository"
	"github.com/smallbiznis/flowdesk/internal/clock"
	invoicedomain "github.com/smallbiznis/flowdesk/internal/invoice/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (domain.Service, *gorm.DB, *clock.FakeClock) {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Client{}, &invoicedomain.Invoice{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fc := clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	svc := New(Params{
		DB:    db,
		Log:   zaptest.NewLogger(t),
		GenID: node,
		Clock: fc,
		Repo:  repository.Provide(),
	})
	return svc, db, fc
}

func strPtr(v string) *string { return &v }

func TestCreate_Validation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateClientRequest{Name: "   "})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = svc.Create(ctx, domain.CreateClientRequest{Name: "Acme", Email: strPtr("acme.example.com")})
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)

	client, err := svc.Create(ctx, domain.CreateClientRequest{
		Name:    "  Acme Corp ",
		Email:   strPtr(" billing@acme.test "),
		Phone:   strPtr(""),
		Address: " 1 Main St ",
	})
	require.NoError(t, err)
	assert.NotZero(t, client.ID)
	assert.Equal(t, "Acme Corp", client.Name)
	require.NotNil(t, client.Email)
	assert.Equal(t, "billing@acme.test", *client.Email)
	assert.Nil(t, client.Phone, "blank optional fields are stored as null")
	assert.Equal(t, "1 Main St", client.Address)
}

func TestGetUpdate(t *testing.T) {
	svc, _, fc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateClientRequest{Name: "Globex"})
	require.NoError(t, err)

	got, err := svc.GetByID(ctx, created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Globex", got.Name)

	fc.Advance(time.Hour)
	updated, err := svc.Update(ctx, domain.UpdateClientRequest{
		ID:      created.ID.String(),
		Company: strPtr("Globex Corporation"),
		Notes:   strPtr("net 15"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Globex", updated.Name)
	require.NotNil(t, updated.Company)
	assert.Equal(t, "Globex Corporation", *updated.Company)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))

	got, err = svc.GetByID(ctx, created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "net 15", got.Notes)

	_, err = svc.Update(ctx, domain.UpdateClientRequest{ID: created.ID.String(), Name: strPtr("")})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = svc.GetByID(ctx, "not-an-id")
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, err = svc.GetByID(ctx, "42")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestList_FilterAndPaginate(t *testing.T) {
	svc, _, fc := newTestService(t)
	ctx := context.Background()

	for _, name := range []string{"Acme", "Acme Labs", "Initech"} {
		_, err := svc.Create(ctx, domain.CreateClientRequest{Name: name})
		require.NoError(t, err)
		fc.Advance(time.Second)
	}

	resp, err := svc.List(ctx, domain.ListClientRequest{Name: "ACME"})
	require.NoError(t, err)
	require.Len(t, resp.Clients, 2)
	assert.Equal(t, "Acme Labs", resp.Clients[0].Name, "newest first")
	assert.False(t, resp.HasMore)

	first, err := svc.List(ctx, domain.ListClientRequest{PageSize: 2})
	require.NoError(t, err)
	require.Len(t, first.Clients, 2)
	assert.True(t, first.HasMore)
	require.NotEmpty(t, first.NextPageToken)

	second, err := svc.List(ctx, domain.ListClientRequest{PageSize: 2, PageToken: first.NextPageToken})
	require.NoError(t, err)
	require.Len(t, second.Clients, 1)
	assert.Equal(t, "Acme", second.Clients[0].Name)
	assert.False(t, second.HasMore)
}

func TestDelete_RejectsClientWithInvoices(t *testing.T) {
	svc, db, fc := newTestService(t)
	ctx := context.Background()

	busy, err := svc.Create(ctx, domain.CreateClientRequest{Name: "Busy"})
	require.NoError(t, err)
	idle, err := svc.Create(ctx, domain.CreateClientRequest{Name: "Idle"})
	require.NoError(t, err)

	now := fc.Now()
	require.NoError(t, db.Create(&invoicedomain.Invoice{
		ID:        900,
		Number:    "INV-2026-00001",
		Status:    invoicedomain.StatusSent,
		ClientID:  busy.ID,
		IssueDate: now,
		DueDate:   now.AddDate(0, 0, 30),
		Currency:  "USD",
		Total:     decimal.NewFromInt(10),
		AmountDue: decimal.NewFromInt(10),
		CreatedAt: now,
		UpdatedAt: now,
	}).Error)

	assert.ErrorIs(t, svc.Delete(ctx, busy.ID.String()), domain.ErrClientInUse)
	require.NoError(t, svc.Delete(ctx, idle.ID.String()))

	_, err = svc.GetByID(ctx, idle.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, idle.ID.String()), domain.ErrNotFound)
}
