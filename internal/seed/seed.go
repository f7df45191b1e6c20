package seed

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/flowdesk/internal/clock"
	"github.com/smallbiznis/flowdesk/internal/config"
	profiledomain "github.com/smallbiznis/flowdesk/internal/profile/domain"
	"gorm.io/gorm"
)

const defaultProfileName = "My Business"

// EnsureDefaultProfile creates the issuer profile on first start so the
// settings screen always has a row to edit. It reports whether a row was
// created.
func EnsureDefaultProfile(ctx context.Context, db *gorm.DB, node *snowflake.Node, c clock.Clock, invoicing config.InvoicingConfig) (bool, error) {
	if db == nil || node == nil {
		return false, errors.New("seed database handle is required")
	}

	created := false
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&profiledomain.BusinessProfile{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		defaults := config.DefaultInvoicingConfig()
		currency := invoicing.Currency
		if currency == "" {
			currency = defaults.Currency
		}
		terms := invoicing.PaymentTermsDays
		if terms <= 0 {
			terms = defaults.PaymentTermsDays
		}

		now := c.Now()
		profile := profiledomain.BusinessProfile{
			ID:                      node.Generate(),
			Name:                    defaultProfileName,
			DefaultCurrency:         currency,
			DefaultPaymentTermsDays: terms,
			CreatedAt:               now,
			UpdatedAt:               now,
		}
		if err := tx.Create(&profile).Error; err != nil {
			return err
		}
		created = true
		return nil
	})
	return created, err
}
