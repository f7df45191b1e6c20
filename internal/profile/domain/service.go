package domain

import (
	"context"
	"errors"
)

type AssetKind string

const (
	AssetLogo AssetKind = "logo"
	AssetQR   AssetKind = "qr"
)

type SaveProfileRequest struct {
	Name                    string  `json:"name"`
	Email                   *string `json:"email"`
	Phone                   *string `json:"phone"`
	Address                 string  `json:"address"`
	TaxID                   *string `json:"tax_id"`
	DefaultCurrency         string  `json:"default_currency"`
	DefaultPaymentTermsDays int     `json:"default_payment_terms_days"`
	PDFExportDir            *string `json:"pdf_export_dir"`
}

type Service interface {
	Get(ctx context.Context) (BusinessProfile, error)
	Save(ctx context.Context, req SaveProfileRequest) (BusinessProfile, error)
	GetBankDetails(ctx context.Context) (BankDetails, error)
	SaveBankDetails(ctx context.Context, details BankDetails) (BankDetails, error)
	SaveAsset(ctx context.Context, kind AssetKind, data []byte) (string, error)
	ReadAsset(ctx context.Context, kind AssetKind) ([]byte, error)
	DeleteAsset(ctx context.Context, kind AssetKind) error
}

var (
	ErrNotFound        = errors.New("not_found")
	ErrInvalidName     = errors.New("invalid_name")
	ErrInvalidEmail    = errors.New("invalid_email")
	ErrInvalidCurrency = errors.New("invalid_currency")
	ErrInvalidTerms    = errors.New("invalid_payment_terms")
	ErrInvalidAsset    = errors.New("invalid_asset")
	ErrAssetNotFound   = errors.New("asset_not_found")
)
