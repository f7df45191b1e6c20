package scheduler

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	invoicedomain "github.com/smallbiznis/flowdesk/internal/invoice/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var openStatuses = []invoicedomain.Status{
	invoicedomain.StatusPending,
	invoicedomain.StatusSent,
	invoicedomain.StatusViewed,
}

// MarkOverdueJob moves open invoices whose due date has passed to Overdue,
// one batch per transaction.
func (s *Scheduler) MarkOverdueJob(ctx context.Context) error {
	run := jobRunFromContext(ctx)
	now := s.clock.Now().UTC()
	today := now.Truncate(24 * time.Hour)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var changed int
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var ids []snowflake.ID
			if err := tx.Raw(
				`SELECT id FROM invoices WHERE status IN ? AND due_date < ? ORDER BY due_date ASC, id ASC LIMIT ?`,
				openStatuses, today, s.cfg.BatchSize,
			).Scan(&ids).Error; err != nil {
				return err
			}
			if len(ids) == 0 {
				return nil
			}
			res := tx.Exec(
				`UPDATE invoices SET status = ?, updated_at = ? WHERE id IN ? AND status IN ?`,
				invoicedomain.StatusOverdue, now, ids, openStatuses,
			)
			if res.Error != nil {
				return res.Error
			}
			changed = int(res.RowsAffected)
			return nil
		})
		if err != nil {
			return err
		}
		if changed == 0 {
			return nil
		}

		run.AddProcessed(changed)
		s.metrics.AddBatchProcessed(JobMarkOverdue, "invoices", changed)
		s.events.RecordOverdueMarked(ctx, changed)
		s.logger(ctx).Debug("invoice.marked_overdue", zap.Int("count", changed))

		if changed < s.cfg.BatchSize {
			return nil
		}
	}
}
