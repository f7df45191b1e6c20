package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	FindFirst(ctx context.Context, db *gorm.DB) (*BusinessProfile, error)
	Insert(ctx context.Context, db *gorm.DB, profile *BusinessProfile) error
	Update(ctx context.Context, db *gorm.DB, profile *BusinessProfile) error
}
