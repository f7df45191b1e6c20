package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/smallbiznis/flowdesk/internal/clock"
	"github.com/smallbiznis/flowdesk/internal/export/domain"
	invoicedomain "github.com/smallbiznis/flowdesk/internal/invoice/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type rendererFunc func(ctx context.Context, invoiceID string) (string, error)

func (f rendererFunc) RenderInvoice(ctx context.Context, invoiceID string) (string, error) {
	return f(ctx, invoiceID)
}

var epoch = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

func recv(t *testing.T, states <-chan domain.Job) domain.Job {
	t.Helper()
	select {
	case job, ok := <-states:
		require.True(t, ok, "stream closed early")
		return job
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for export state")
		return domain.Job{}
	}
}

func assertQuiet(t *testing.T, states <-chan domain.Job) {
	t.Helper()
	select {
	case job := <-states:
		t.Fatalf("unexpected state %s", job.Status)
	case <-time.After(20 * time.Millisecond):
	}
}

// walkToGenerating advances the clock through the first two stages.
func walkToGenerating(t *testing.T, fc *clock.FakeClock, states <-chan domain.Job) {
	t.Helper()
	assert.Equal(t, domain.StatusInitializing, recv(t, states).Status)

	fc.BlockUntil(1)
	fc.Advance(InitializingMinimum - time.Millisecond)
	assertQuiet(t, states)
	fc.Advance(time.Millisecond)
	assert.Equal(t, domain.StatusRendering, recv(t, states).Status)

	fc.BlockUntil(1)
	fc.Advance(RenderingMinimum)
	assert.Equal(t, domain.StatusGenerating, recv(t, states).Status)
}

func TestTracker_FastRenderStillShowsEveryStage(t *testing.T) {
	fc := clock.NewFakeClock(epoch)
	calls := 0
	tr := NewTracker(rendererFunc(func(context.Context, string) (string, error) {
		calls++
		return "/exports/INV-009.pdf", nil
	}), fc, zaptest.NewLogger(t))

	states := tr.StartExport(context.Background(), "9", "INV-009")
	walkToGenerating(t, fc, states)

	fc.BlockUntil(1)
	fc.Advance(GeneratingMinimum - time.Millisecond)
	assertQuiet(t, states)
	fc.Advance(time.Millisecond)

	final := recv(t, states)
	assert.Equal(t, domain.StatusComplete, final.Status)
	require.NotNil(t, final.Path)
	assert.Equal(t, "/exports/INV-009.pdf", *final.Path)
	assert.Nil(t, final.Error)
	assert.Equal(t, "INV-009", final.InvoiceNumber)
	assert.GreaterOrEqual(t, final.UpdatedAt.Sub(final.StartedAt), 1400*time.Millisecond)
	assert.Equal(t, 1, calls)

	_, open := <-states
	assert.False(t, open)
}

func TestTracker_SlowRenderCompletesWhenDone(t *testing.T) {
	fc := clock.NewFakeClock(epoch)
	release := make(chan struct{})
	tr := NewTracker(rendererFunc(func(context.Context, string) (string, error) {
		<-release
		return "/exports/INV-010.pdf", nil
	}), fc, zaptest.NewLogger(t))

	states := tr.StartExport(context.Background(), "10", "INV-010")
	walkToGenerating(t, fc, states)

	fc.BlockUntil(1)
	fc.Advance(5 * time.Second)
	assertQuiet(t, states)

	close(release)
	final := recv(t, states)
	assert.Equal(t, domain.StatusComplete, final.Status)
	assert.GreaterOrEqual(t, final.UpdatedAt.Sub(final.StartedAt), 5800*time.Millisecond)
}

func TestTracker_RenderFailureEndsInError(t *testing.T) {
	fc := clock.NewFakeClock(epoch)
	tr := NewTracker(rendererFunc(func(context.Context, string) (string, error) {
		return "", &domain.RenderFailure{Message: "engine missing"}
	}), fc, zaptest.NewLogger(t))

	states := tr.StartExport(context.Background(), "9", "INV-009")
	walkToGenerating(t, fc, states)

	final := recv(t, states)
	assert.Equal(t, domain.StatusError, final.Status)
	require.NotNil(t, final.Error)
	assert.Equal(t, "engine missing", *final.Error)
	assert.Nil(t, final.Path)
	assert.Equal(t, "INV-009", final.InvoiceNumber)

	_, open := <-states
	assert.False(t, open, "no state follows Error")
}

func TestTracker_PlainErrorMessagePassesThrough(t *testing.T) {
	fc := clock.NewFakeClock(epoch)
	tr := NewTracker(rendererFunc(func(context.Context, string) (string, error) {
		return "", errors.New("disk full")
	}), fc, zaptest.NewLogger(t))

	states := tr.StartExport(context.Background(), "1", "INV-1")
	walkToGenerating(t, fc, states)
	assert.Equal(t, "disk full", *recv(t, states).Error)
}

func TestTracker_CancelledCallerDoesNotStopRender(t *testing.T) {
	fc := clock.NewFakeClock(epoch)
	var renderCtxErr error
	tr := NewTracker(rendererFunc(func(ctx context.Context, _ string) (string, error) {
		renderCtxErr = ctx.Err()
		return "/exports/a.pdf", nil
	}), fc, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	states := tr.StartExport(ctx, "1", "INV-1")
	cancel()

	walkToGenerating(t, fc, states)
	fc.BlockUntil(1)
	fc.Advance(GeneratingMinimum)
	assert.Equal(t, domain.StatusComplete, recv(t, states).Status)
	assert.NoError(t, renderCtxErr)
}

type lookupFunc func(ctx context.Context, id string) (invoicedomain.Invoice, error)

func (f lookupFunc) GetByID(ctx context.Context, id string) (invoicedomain.Invoice, error) {
	return f(ctx, id)
}

func TestBoard_RejectsSecondExportWhileInFlight(t *testing.T) {
	fc := clock.NewFakeClock(epoch)
	log := zaptest.NewLogger(t)
	tr := NewTracker(rendererFunc(func(context.Context, string) (string, error) {
		return "/exports/INV-009.pdf", nil
	}), fc, log)
	board := newBoard(tr, lookupFunc(func(_ context.Context, id string) (invoicedomain.Invoice, error) {
		if id != "9" {
			return invoicedomain.Invoice{}, invoicedomain.ErrNotFound
		}
		return invoicedomain.Invoice{ID: 9, Number: "INV-009"}, nil
	}), fc, log, nil)
	ctx := context.Background()

	_, err := board.Start(ctx, "404")
	assert.ErrorIs(t, err, invoicedomain.ErrNotFound)

	job, err := board.Start(ctx, "9")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInitializing, job.Status)
	assert.Equal(t, "INV-009", job.InvoiceNumber)

	_, err = board.Start(ctx, "9")
	assert.ErrorIs(t, err, domain.ErrExportInFlight)

	active, ok := board.Active()
	require.True(t, ok)
	assert.Equal(t, job.ID, active.ID)

	watch, err := board.Watch(job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInitializing, recv(t, watch).Status)

	fc.BlockUntil(1)
	fc.Advance(InitializingMinimum)
	assert.Equal(t, domain.StatusRendering, recv(t, watch).Status)
	fc.BlockUntil(1)
	fc.Advance(RenderingMinimum)
	assert.Equal(t, domain.StatusGenerating, recv(t, watch).Status)
	fc.BlockUntil(1)
	fc.Advance(GeneratingMinimum)
	assert.Equal(t, domain.StatusComplete, recv(t, watch).Status)

	_, open := <-watch
	assert.False(t, open)

	_, ok = board.Active()
	assert.False(t, ok)
	latest, err := board.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusComplete, latest.Status)

	_, err = board.Get("missing")
	assert.ErrorIs(t, err, domain.ErrJobNotFound)

	_, err = board.Start(ctx, "9")
	assert.NoError(t, err)
}
