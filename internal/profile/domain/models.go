package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type BankDetails struct {
	AccountName   string `json:"account_name"`
	AccountNumber string `json:"account_number"`
	BankName      string `json:"bank_name"`
	IBAN          string `json:"iban,omitempty"`
	SWIFT         string `json:"swift,omitempty"`
	RoutingNumber string `json:"routing_number,omitempty"`
}

// Empty reports whether no bank field has been filled in.
func (b BankDetails) Empty() bool {
	return b == BankDetails{}
}

// BusinessProfile is the single issuer profile printed on every invoice.
type BusinessProfile struct {
	ID                      snowflake.ID                    `gorm:"primaryKey" json:"id"`
	Name                    string                          `gorm:"not null" json:"name"`
	Email                   *string                         `json:"email,omitempty"`
	Phone                   *string                         `json:"phone,omitempty"`
	Address                 string                          `gorm:"type:text;not null;default:''" json:"address"`
	TaxID                   *string                         `json:"tax_id,omitempty"`
	LogoPath                *string                         `json:"logo_path,omitempty"`
	QRPath                  *string                         `gorm:"column:qr_path" json:"qr_path,omitempty"`
	DefaultCurrency         string                          `gorm:"type:varchar(8);not null" json:"default_currency"`
	DefaultPaymentTermsDays int                             `gorm:"not null" json:"default_payment_terms_days"`
	PDFExportDir            *string                         `gorm:"column:pdf_export_dir" json:"pdf_export_dir,omitempty"`
	BankDetails             datatypes.JSONType[BankDetails] `json:"bank_details"`
	CreatedAt               time.Time                       `gorm:"not null" json:"created_at"`
	UpdatedAt               time.Time                       `gorm:"not null" json:"updated_at"`
}

func (BusinessProfile) TableName() string { return "business_profiles" }
