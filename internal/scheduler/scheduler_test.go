package scheduler

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/flowdesk/internal/clock"
	invoicedomain "github.com/smallbiznis/flowdesk/internal/invoice/domain"
	obsmetrics "github.com/smallbiznis/flowdesk/internal/observability/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&invoicedomain.Invoice{}))
	return db
}

func insertInvoice(t *testing.T, db *gorm.DB, id snowflake.ID, status invoicedomain.Status, due time.Time) {
	t.Helper()
	inv := invoicedomain.Invoice{
		ID:        id,
		Number:    fmt.Sprintf("INV-%d", id),
		Status:    status,
		ClientID:  1,
		IssueDate: due.AddDate(0, 0, -14),
		DueDate:   due,
		Currency:  "USD",
		Total:     decimal.NewFromInt(100),
		AmountDue: decimal.NewFromInt(100),
		CreatedAt: due,
		UpdatedAt: due,
	}
	require.NoError(t, db.Create(&inv).Error)
}

func statusOf(t *testing.T, db *gorm.DB, id snowflake.ID) invoicedomain.Status {
	t.Helper()
	var status string
	require.NoError(t, db.Raw(`SELECT status FROM invoices WHERE id = ?`, id).Scan(&status).Error)
	return invoicedomain.Status(status)
}

func TestMarkOverdueJob(t *testing.T) {
	db := setupTestDB(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	today := time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)
	past := today.AddDate(0, 0, -1)

	insertInvoice(t, db, 1, invoicedomain.StatusSent, past)
	insertInvoice(t, db, 2, invoicedomain.StatusPending, past.AddDate(0, 0, -3))
	insertInvoice(t, db, 3, invoicedomain.StatusViewed, past)
	insertInvoice(t, db, 4, invoicedomain.StatusPaid, past)
	insertInvoice(t, db, 5, invoicedomain.StatusDraft, past)
	insertInvoice(t, db, 6, invoicedomain.StatusCancelled, past)
	insertInvoice(t, db, 7, invoicedomain.StatusSent, today)
	insertInvoice(t, db, 8, invoicedomain.StatusSent, today.AddDate(0, 0, 5))

	sched, err := New(Params{
		DB:     db,
		Log:    zaptest.NewLogger(t),
		GenID:  node,
		Clock:  clock.NewFakeClock(today.Add(15 * time.Hour)),
		Config: Config{BatchSize: 2},
	})
	require.NoError(t, err)

	require.NoError(t, sched.RunOnce(context.Background()))

	for _, id := range []snowflake.ID{1, 2, 3} {
		assert.Equal(t, invoicedomain.StatusOverdue, statusOf(t, db, id), "invoice %d", id)
	}
	assert.Equal(t, invoicedomain.StatusPaid, statusOf(t, db, 4))
	assert.Equal(t, invoicedomain.StatusDraft, statusOf(t, db, 5))
	assert.Equal(t, invoicedomain.StatusCancelled, statusOf(t, db, 6))
	assert.Equal(t, invoicedomain.StatusSent, statusOf(t, db, 7), "due today is not overdue yet")
	assert.Equal(t, invoicedomain.StatusSent, statusOf(t, db, 8))

	// idempotent
	require.NoError(t, sched.RunOnce(context.Background()))
	assert.Equal(t, invoicedomain.StatusOverdue, statusOf(t, db, 1))
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(Params{})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

type fakeLocker struct {
	grant    bool
	locked   []string
	released []string
}

func (f *fakeLocker) TryLock(ctx context.Context, job string, ttl time.Duration) (string, bool, error) {
	f.locked = append(f.locked, job)
	if !f.grant {
		return "", false, nil
	}
	return "token-" + job, true, nil
}

func (f *fakeLocker) Release(ctx context.Context, job, token string) error {
	f.released = append(f.released, token)
	return nil
}

func TestRunOnce_SkipsWhenLockHeldElsewhere(t *testing.T) {
	db := setupTestDB(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	today := time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)
	insertInvoice(t, db, 1, invoicedomain.StatusSent, today.AddDate(0, 0, -2))

	locker := &fakeLocker{}
	sched, err := New(Params{
		DB:     db,
		Log:    zaptest.NewLogger(t),
		GenID:  node,
		Clock:  clock.NewFakeClock(today),
		Locker: locker,
	})
	require.NoError(t, err)

	require.NoError(t, sched.RunOnce(context.Background()))
	assert.Equal(t, []string{JobMarkOverdue}, locker.locked)
	assert.Empty(t, locker.released)
	assert.Equal(t, invoicedomain.StatusSent, statusOf(t, db, 1))

	locker.grant = true
	require.NoError(t, sched.RunOnce(context.Background()))
	assert.Equal(t, []string{"token-" + JobMarkOverdue}, locker.released)
	assert.Equal(t, invoicedomain.StatusOverdue, statusOf(t, db, 1))
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			if matchLabels(metric, labels) {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func matchLabels(metric *dto.Metric, want map[string]string) bool {
	matched := 0
	for _, pair := range metric.GetLabel() {
		if value, ok := want[pair.GetName()]; ok {
			if value != pair.GetValue() {
				return false
			}
			matched++
		}
	}
	return matched == len(want)
}

func TestRunOnce_RecordsMetrics(t *testing.T) {
	db := setupTestDB(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	today := time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)
	insertInvoice(t, db, 1, invoicedomain.StatusSent, today.AddDate(0, 0, -2))
	insertInvoice(t, db, 2, invoicedomain.StatusPending, today.AddDate(0, 0, -9))

	reg := prometheus.NewRegistry()
	sched, err := New(Params{
		DB:      db,
		Log:     zaptest.NewLogger(t),
		GenID:   node,
		Clock:   clock.NewFakeClock(today),
		Metrics: obsmetrics.NewSchedulerMetrics(reg, obsmetrics.Config{ServiceName: "flowdesk-test"}),
	})
	require.NoError(t, err)

	require.NoError(t, sched.RunOnce(context.Background()))

	assert.Equal(t, float64(1), counterValue(t, reg, "flowdesk_scheduler_job_runs_total", map[string]string{"job": JobMarkOverdue}))
	assert.Equal(t, float64(2), counterValue(t, reg, "flowdesk_scheduler_batch_processed_total", map[string]string{
		"job":      JobMarkOverdue,
		"resource": "invoices",
	}))
}
