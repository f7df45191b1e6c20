package repository

import (
	"context"

	"github.com/smallbiznis/flowdesk/internal/profile/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindFirst(ctx context.Context, db *gorm.DB) (*domain.BusinessProfile, error) {
	var profile domain.BusinessProfile
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, email, phone, address, tax_id, logo_path, qr_path, default_currency,
		        default_payment_terms_days, pdf_export_dir, bank_details, created_at, updated_at
		 FROM business_profiles ORDER BY created_at ASC, id ASC LIMIT 1`,
	).Scan(&profile).Error
	if err != nil {
		return nil, err
	}
	if profile.ID == 0 {
		return nil, nil
	}
	return &profile, nil
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, profile *domain.BusinessProfile) error {
	return db.WithContext(ctx).Create(profile).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, profile *domain.BusinessProfile) error {
	return db.WithContext(ctx).Exec(
		`UPDATE business_profiles
		 SET name = ?, email = ?, phone = ?, address = ?, tax_id = ?, logo_path = ?, qr_path = ?,
		     default_currency = ?, default_payment_terms_days = ?, pdf_export_dir = ?, bank_details = ?,
		     updated_at = ?
		 WHERE id = ?`,
		profile.Name,
		profile.Email,
		profile.Phone,
		profile.Address,
		profile.TaxID,
		profile.LogoPath,
		profile.QRPath,
		profile.DefaultCurrency,
		profile.DefaultPaymentTermsDays,
		profile.PDFExportDir,
		profile.BankDetails,
		profile.UpdatedAt,
		profile.ID,
	).Error
}
