package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/flowdesk/internal/clock"
	"github.com/smallbiznis/flowdesk/internal/config"
	"github.com/smallbiznis/flowdesk/internal/profile/domain"
	"github.com/smallbiznis/flowdesk/internal/profile/repository"
	"github.com/smallbiznis/flowdesk/internal/seed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

func newTestService(t *testing.T, seeded bool) (domain.Service, string) {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.BusinessProfile{}))

	fc := clock.NewFakeClock(time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC))
	if seeded {
		node, err := snowflake.NewNode(1)
		require.NoError(t, err)
		_, err = seed.EnsureDefaultProfile(context.Background(), db, node, fc, config.DefaultInvoicingConfig())
		require.NoError(t, err)
	}

	dataDir := t.TempDir()
	svc := New(Params{
		DB:     db,
		Log:    zaptest.NewLogger(t),
		Clock:  fc,
		Config: config.Config{DataDir: dataDir},
		Repo:   repository.Provide(),
	})
	return svc, dataDir
}

func strPtr(v string) *string { return &v }

func TestGet_WithoutProfile(t *testing.T) {
	svc, _ := newTestService(t, false)

	_, err := svc.Get(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSave(t *testing.T) {
	svc, _ := newTestService(t, true)
	ctx := context.Background()

	seeded, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "USD", seeded.DefaultCurrency)

	saved, err := svc.Save(ctx, domain.SaveProfileRequest{
		Name:                    " Studio North ",
		Email:                   strPtr("hello@studionorth.test"),
		TaxID:                   strPtr(" "),
		DefaultCurrency:         "eur",
		DefaultPaymentTermsDays: 14,
	})
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, saved.ID)
	assert.Equal(t, "Studio North", saved.Name)
	assert.Equal(t, "EUR", saved.DefaultCurrency)
	assert.Nil(t, saved.TaxID)

	got, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Studio North", got.Name)
	assert.Equal(t, 14, got.DefaultPaymentTermsDays)

	cases := []struct {
		req  domain.SaveProfileRequest
		want error
	}{
		{domain.SaveProfileRequest{Name: "", DefaultCurrency: "USD"}, domain.ErrInvalidName},
		{domain.SaveProfileRequest{Name: "x", Email: strPtr("nope"), DefaultCurrency: "USD"}, domain.ErrInvalidEmail},
		{domain.SaveProfileRequest{Name: "x", DefaultCurrency: "US"}, domain.ErrInvalidCurrency},
		{domain.SaveProfileRequest{Name: "x", DefaultCurrency: "USD", DefaultPaymentTermsDays: -1}, domain.ErrInvalidTerms},
	}
	for _, tc := range cases {
		_, err := svc.Save(ctx, tc.req)
		assert.ErrorIs(t, err, tc.want)
	}
}

func TestBankDetails(t *testing.T) {
	svc, _ := newTestService(t, true)
	ctx := context.Background()

	empty, err := svc.GetBankDetails(ctx)
	require.NoError(t, err)
	assert.True(t, empty.Empty())

	saved, err := svc.SaveBankDetails(ctx, domain.BankDetails{
		AccountName: " Studio North ",
		BankName:    "First Bank",
		IBAN:        "de89 3704 0044 0532 0130 00",
		SWIFT:       "cobadeffxxx",
	})
	require.NoError(t, err)
	assert.Equal(t, "DE89370400440532013000", saved.IBAN)
	assert.Equal(t, "COBADEFFXXX", saved.SWIFT)

	got, err := svc.GetBankDetails(ctx)
	require.NoError(t, err)
	assert.Equal(t, saved, got)
}

func TestAssets(t *testing.T) {
	svc, dataDir := newTestService(t, true)
	ctx := context.Background()

	_, err := svc.ReadAsset(ctx, domain.AssetLogo)
	assert.ErrorIs(t, err, domain.ErrAssetNotFound)

	_, err = svc.SaveAsset(ctx, domain.AssetKind("banner"), []byte("x"))
	assert.ErrorIs(t, err, domain.ErrInvalidAsset)
	_, err = svc.SaveAsset(ctx, domain.AssetQR, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidAsset)

	path, err := svc.SaveAsset(ctx, domain.AssetLogo, []byte("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dataDir, "assets", "logo.png"), path)

	profile, err := svc.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, profile.LogoPath)
	assert.Equal(t, path, *profile.LogoPath)

	data, err := svc.ReadAsset(ctx, domain.AssetLogo)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)

	require.NoError(t, svc.DeleteAsset(ctx, domain.AssetLogo))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	profile, err = svc.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, profile.LogoPath)

	// deleting a missing asset is not an error
	require.NoError(t, svc.DeleteAsset(ctx, domain.AssetQR))
}
