package service

import (
	"context"
	"sync"

	"github.com/smallbiznis/flowdesk/internal/clock"
	"github.com/smallbiznis/flowdesk/internal/export/domain"
	invoicedomain "github.com/smallbiznis/flowdesk/internal/invoice/domain"
	"github.com/smallbiznis/flowdesk/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const boardHistory = 32

// InvoiceLookup resolves the invoice number shown while an export runs.
type InvoiceLookup interface {
	GetByID(ctx context.Context, id string) (invoicedomain.Invoice, error)
}

// Board is the single export surface of the app. It keeps the latest state of
// recent jobs and refuses a new export while one is in flight.
type Board struct {
	tracker  *Tracker
	invoices InvoiceLookup
	clock    clock.Clock
	log      *zap.Logger
	metrics  *metrics.EditorMetrics

	mu     sync.Mutex
	jobs   map[string]domain.Job
	order  []string
	active string
	subs   map[string][]chan domain.Job
}

type BoardParams struct {
	fx.In

	Tracker  *Tracker
	Invoices invoicedomain.Service
	Clock    clock.Clock
	Log      *zap.Logger
	Metrics  *metrics.EditorMetrics `optional:"true"`
}

func NewBoard(p BoardParams) *Board {
	return newBoard(p.Tracker, p.Invoices, p.Clock, p.Log, p.Metrics)
}

func newBoard(tracker *Tracker, invoices InvoiceLookup, c clock.Clock, log *zap.Logger, m *metrics.EditorMetrics) *Board {
	return &Board{
		tracker:  tracker,
		invoices: invoices,
		clock:    c,
		log:      log.Named("export.board"),
		metrics:  m,
		jobs:     make(map[string]domain.Job),
		subs:     make(map[string][]chan domain.Job),
	}
}

// Start looks up the invoice and begins an export. It returns the
// Initializing state.
func (b *Board) Start(ctx context.Context, invoiceID string) (domain.Job, error) {
	invoice, err := b.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return domain.Job{}, err
	}

	b.mu.Lock()
	if b.active != "" {
		b.mu.Unlock()
		return domain.Job{}, domain.ErrExportInFlight
	}

	states := b.tracker.StartExport(ctx, invoice.ID.String(), invoice.Number)
	first := <-states
	b.active = first.ID
	b.recordLocked(first)
	b.mu.Unlock()

	b.metrics.ExportStarted()
	go b.follow(first, states)
	return first, nil
}

func (b *Board) follow(first domain.Job, states <-chan domain.Job) {
	last := first
	for job := range states {
		last = job
		b.mu.Lock()
		b.recordLocked(job)
		b.mu.Unlock()
	}

	b.mu.Lock()
	if b.active == last.ID {
		b.active = ""
	}
	for _, ch := range b.subs[last.ID] {
		close(ch)
	}
	delete(b.subs, last.ID)
	b.mu.Unlock()

	b.metrics.ExportFinished(string(last.Status), last.UpdatedAt.Sub(last.StartedAt))
}

func (b *Board) recordLocked(job domain.Job) {
	if _, ok := b.jobs[job.ID]; !ok {
		b.order = append(b.order, job.ID)
		if len(b.order) > boardHistory {
			evict := b.order[0]
			b.order = b.order[1:]
			delete(b.jobs, evict)
		}
	}
	b.jobs[job.ID] = job
	for _, ch := range b.subs[job.ID] {
		select {
		case ch <- job:
		default:
		}
	}
}

// Get returns the latest state of a job.
func (b *Board) Get(id string) (domain.Job, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	job, ok := b.jobs[id]
	if !ok {
		return domain.Job{}, domain.ErrJobNotFound
	}
	return job, nil
}

// Active returns the job currently in flight, if any.
func (b *Board) Active() (domain.Job, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.active == "" {
		return domain.Job{}, false
	}
	return b.jobs[b.active], true
}

// Watch streams the states of a job starting with the latest one. The channel
// closes once the job is terminal.
func (b *Board) Watch(id string) (<-chan domain.Job, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	job, ok := b.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}

	ch := make(chan domain.Job, 5)
	ch <- job
	if job.Status.Terminal() && b.active != id {
		close(ch)
		return ch, nil
	}
	b.subs[id] = append(b.subs[id], ch)
	return ch, nil
}
