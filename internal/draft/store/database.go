package store

import (
	"context"
	"fmt"
	"time"

	"github.com/smallbiznis/flowdesk/internal/clock"
	"github.com/smallbiznis/flowdesk/internal/draft/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DatabaseStore keeps the draft as one row of draft_slots.
type DatabaseStore struct {
	db    *gorm.DB
	clock clock.Clock
	slot  string
}

func NewDatabaseStore(db *gorm.DB, c clock.Clock, slot string) *DatabaseStore {
	return &DatabaseStore{db: db, clock: c, slot: slot}
}

func (s *DatabaseStore) Read(ctx context.Context) ([]byte, bool, error) {
	var rows []domain.Slot
	err := s.db.WithContext(ctx).
		Where("id = ?", s.slot).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, false, fmt.Errorf("read draft: %w", err)
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	return rows[0].Payload, true, nil
}

func (s *DatabaseStore) Write(ctx context.Context, data []byte) error {
	row := domain.Slot{ID: s.slot, Payload: data, UpdatedAt: s.now()}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("write draft: %w", err)
	}
	return nil
}

func (s *DatabaseStore) Clear(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Exec(`DELETE FROM draft_slots WHERE id = ?`, s.slot).Error; err != nil {
		return fmt.Errorf("clear draft: %w", err)
	}
	return nil
}

func (s *DatabaseStore) now() time.Time {
	if s.clock == nil {
		return time.Now().UTC()
	}
	return s.clock.Now()
}
