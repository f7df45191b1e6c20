package service

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/smallbiznis/flowdesk/internal/clock"
	"github.com/smallbiznis/flowdesk/internal/export/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// Stage display minimums. The stages are simulated progress, not measured:
// they only guarantee each label stays visible long enough to be read.
const (
	InitializingMinimum = 400 * time.Millisecond
	RenderingMinimum    = 400 * time.Millisecond
	GeneratingMinimum   = 600 * time.Millisecond
)

var tracer = otel.Tracer("flowdesk/export")

// Tracker drives the staged status of one export at a time per caller. It
// does not deduplicate concurrent exports.
type Tracker struct {
	renderer domain.Renderer
	clock    clock.Clock
	log      *zap.Logger
}

func NewTracker(renderer domain.Renderer, c clock.Clock, log *zap.Logger) *Tracker {
	return &Tracker{
		renderer: renderer,
		clock:    c,
		log:      log.Named("export.tracker"),
	}
}

// StartExport emits Initializing immediately and the remaining states as they
// are reached. The channel is closed after Complete or Error. Cancelling ctx
// does not stop the renderer.
func (t *Tracker) StartExport(ctx context.Context, invoiceID, invoiceNumber string) <-chan domain.Job {
	now := t.clock.Now()
	job := domain.Job{
		ID:            ulid.Make().String(),
		InvoiceID:     invoiceID,
		InvoiceNumber: invoiceNumber,
		Status:        domain.StatusInitializing,
		StartedAt:     now,
		UpdatedAt:     now,
	}

	out := make(chan domain.Job, 4)
	out <- job

	go t.run(context.WithoutCancel(ctx), job, out)
	return out
}

func (t *Tracker) run(ctx context.Context, job domain.Job, out chan<- domain.Job) {
	defer close(out)

	ctx, span := tracer.Start(ctx, "export.Run")
	defer span.End()
	span.SetAttributes(
		attribute.String("export.job_id", job.ID),
		attribute.String("invoice.number", job.InvoiceNumber),
	)

	emit := func(status domain.Status) {
		job.Status = status
		job.UpdatedAt = t.clock.Now()
		out <- job
	}

	<-t.clock.After(InitializingMinimum)
	emit(domain.StatusRendering)

	<-t.clock.After(RenderingMinimum)
	emit(domain.StatusGenerating)
	minimum := t.clock.After(GeneratingMinimum)

	path, err := t.renderer.RenderInvoice(ctx, job.InvoiceID)
	if err != nil {
		msg := failureMessage(err)
		job.Error = &msg
		span.RecordError(err)
		span.SetStatus(codes.Error, msg)
		t.log.Warn("export.failed",
			zap.String("job_id", job.ID),
			zap.String("invoice_id", job.InvoiceID),
			zap.Error(err),
		)
		emit(domain.StatusError)
		return
	}

	<-minimum
	job.Path = &path
	t.log.Info("export.complete",
		zap.String("job_id", job.ID),
		zap.String("invoice_number", job.InvoiceNumber),
		zap.String("path", path),
	)
	emit(domain.StatusComplete)
}

func failureMessage(err error) string {
	var rf *domain.RenderFailure
	if errors.As(err, &rf) {
		return rf.Message
	}
	return err.Error()
}
