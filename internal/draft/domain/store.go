package domain

import (
	"context"
	"time"
)

// Store is the single recoverable draft slot.
type Store interface {
	// Read returns the stored bytes and whether the slot holds anything.
	Read(ctx context.Context) ([]byte, bool, error)
	Write(ctx context.Context, data []byte) error
	Clear(ctx context.Context) error
}

const DefaultSlot = "invoice-editor"

// Slot is the row used by the database-backed store.
type Slot struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)"`
	Payload   []byte    `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (Slot) TableName() string { return "draft_slots" }
