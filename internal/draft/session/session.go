// Package session owns the lifecycle of the invoice being edited: recovery of
// an abandoned draft, debounced autosave and the final commit.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/smallbiznis/flowdesk/internal/clock"
	"github.com/smallbiznis/flowdesk/internal/draft/codec"
	"github.com/smallbiznis/flowdesk/internal/draft/domain"
	invoicedomain "github.com/smallbiznis/flowdesk/internal/invoice/domain"
	obscontext "github.com/smallbiznis/flowdesk/internal/observability/context"
	"github.com/smallbiznis/flowdesk/internal/observability/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// DefaultDebounce is the quiet period before an edit is written to the slot.
const DefaultDebounce = time.Second

var tracer = otel.Tracer("flowdesk/draft")

type State string

const (
	StateUninitialized         State = "Uninitialized"
	StateAwaitingDraftDecision State = "AwaitingDraftDecision"
	StateEditing               State = "Editing"
	StateCommitted             State = "Committed"
)

// InvoiceCreator is the backing invoice store.
type InvoiceCreator interface {
	Create(ctx context.Context, req invoicedomain.CreateInvoiceRequest) (invoicedomain.Invoice, error)
}

type Options struct {
	Store    domain.Store
	Codec    codec.Codec
	Invoices InvoiceCreator
	Clock    clock.Clock
	Log      *zap.Logger
	Metrics  *metrics.EditorMetrics
	Debounce time.Duration
}

// Manager is one editor session. All methods are safe for concurrent use.
type Manager struct {
	id       string
	store    domain.Store
	codec    codec.Codec
	invoices InvoiceCreator
	clock    clock.Clock
	log      *zap.Logger
	metrics  *metrics.EditorMetrics
	debounce time.Duration

	mu         sync.Mutex
	state      State
	doc        domain.Document
	candidate  *domain.Document
	choice     *bool
	generation uint64
	pending    clock.Timer
	committing bool
	closed     bool

	// writeMu orders slot mutations so a clear can never be followed by a
	// stale autosave, and autosaves land in generation order.
	writeMu sync.Mutex
}

func NewManager(opts Options) *Manager {
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	c := opts.Clock
	if c == nil {
		c = clock.SystemClock{}
	}
	id := ulid.Make().String()

	return &Manager{
		id:       id,
		store:    opts.Store,
		codec:    opts.Codec,
		invoices: opts.Invoices,
		clock:    c,
		log:      log.Named("draft.session").With(zap.String("session_id", id)),
		metrics:  opts.Metrics,
		debounce: debounce,
		state:    StateUninitialized,
		doc:      domain.NewDocument(),
	}
}

func (m *Manager) ID() string { return m.id }

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Snapshot returns a copy of the active document.
func (m *Manager) Snapshot() domain.Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.doc.Clone()
}

// Candidate returns the draft awaiting a resume or discard decision.
func (m *Manager) Candidate() *domain.Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.candidate == nil {
		return nil
	}
	c := m.candidate.Clone()
	return &c
}

// Initialize reads the slot and returns a resume candidate when it holds a
// meaningful draft. Unreadable or empty drafts are removed and never reported.
func (m *Manager) Initialize(ctx context.Context) (*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateUninitialized {
		return nil, domain.ErrAlreadyStarted
	}
	m.state = StateEditing

	data, ok, err := m.store.Read(ctx)
	if err != nil {
		// The slot may still hold a good draft; leave it for the next start.
		m.log.Warn("draft.read_failed", zap.Error(err))
		m.metrics.DraftRecovery(metrics.DraftRecoveryReadError)
		return nil, nil
	}
	if !ok {
		m.metrics.DraftRecovery(metrics.DraftRecoveryEmpty)
		return nil, nil
	}

	doc, err := m.codec.Decode(data)
	if err != nil {
		m.log.Warn("draft.corrupt_discarded", zap.Error(err), zap.Int("bytes", len(data)))
		m.metrics.DraftRecovery(metrics.DraftRecoveryCorrupt)
		m.clearLocked(ctx)
		return nil, nil
	}
	if !doc.IsMeaningful() {
		m.log.Debug("draft.empty_discarded")
		m.metrics.DraftRecovery(metrics.DraftRecoveryDiscarded)
		m.clearLocked(ctx)
		return nil, nil
	}

	m.state = StateAwaitingDraftDecision
	m.candidate = &doc
	m.metrics.DraftRecovery(metrics.DraftRecoveryOffered)
	m.log.Info("draft.resume_offered", zap.String("client_id", doc.ClientID))

	c := doc.Clone()
	return &c, nil
}

// clearLocked is only used before any autosave can be scheduled, so the
// write lock is uncontended.
func (m *Manager) clearLocked(ctx context.Context) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	if err := m.store.Clear(ctx); err != nil {
		m.log.Warn("draft.clear_failed", zap.Error(err))
	}
}

// ResolveDraftChoice resumes or discards the candidate found by Initialize.
// Repeating the same choice is a no-op.
func (m *Manager) ResolveDraftChoice(ctx context.Context, resume bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.choice != nil {
		if *m.choice == resume {
			return nil
		}
		return domain.ErrChoiceConflict
	}
	switch m.state {
	case StateUninitialized:
		return domain.ErrNotInitialized
	case StateAwaitingDraftDecision:
	default:
		return domain.ErrNoCandidate
	}

	if resume {
		m.doc = *m.candidate
		m.log.Info("draft.resumed")
	} else {
		m.doc = domain.NewDocument()
		m.clearLocked(ctx)
		m.log.Info("draft.discarded")
	}
	m.candidate = nil
	m.choice = &resume
	m.state = StateEditing
	return nil
}

// ApplyEdit merges p into the document and reschedules the autosave.
func (m *Manager) ApplyEdit(ctx context.Context, p Patch) (domain.Document, error) {
	if err := p.validate(); err != nil {
		return domain.Document{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.editableLocked(); err != nil {
		return domain.Document{}, err
	}

	p.apply(&m.doc)
	m.scheduleLocked()
	return m.doc.Clone(), nil
}

func (m *Manager) editableLocked() error {
	switch {
	case m.closed:
		return domain.ErrSessionClosed
	case m.state == StateUninitialized:
		return domain.ErrNotInitialized
	case m.state == StateAwaitingDraftDecision:
		return domain.ErrDecisionPending
	case m.state == StateCommitted:
		return domain.ErrSessionCommitted
	case m.committing:
		return domain.ErrCommitInProgress
	}
	return nil
}

func (m *Manager) scheduleLocked() {
	m.generation++
	gen := m.generation
	if m.pending != nil {
		m.pending.Stop()
	}
	m.pending = m.clock.AfterFunc(m.debounce, func() {
		m.persist(gen)
	})
}

// persist writes the document if no newer edit has been made since gen was
// scheduled.
func (m *Manager) persist(gen uint64) {
	m.mu.Lock()
	if gen != m.generation || m.closed || m.state != StateEditing {
		m.mu.Unlock()
		return
	}
	m.pending = nil
	data, err := m.codec.Encode(m.doc)
	if err != nil {
		m.mu.Unlock()
		m.log.Error("draft.encode_failed", zap.Error(err))
		return
	}
	m.writeMu.Lock()
	m.mu.Unlock()
	defer m.writeMu.Unlock()

	ctx := obscontext.WithSessionID(context.Background(), m.id)
	err = m.store.Write(ctx, data)
	m.metrics.DraftWrite(err)
	if err != nil {
		m.log.Warn("draft.persist_failed", zap.Uint64("generation", gen), zap.Error(err))
		return
	}
	m.log.Debug("draft.persisted", zap.Uint64("generation", gen), zap.Int("bytes", len(data)))
}

// Commit validates the document and submits it as a new invoice. The slot is
// cleared only after the invoice store accepted it.
func (m *Manager) Commit(ctx context.Context) (invoicedomain.Invoice, error) {
	ctx = obscontext.WithSessionID(ctx, m.id)
	ctx, span := tracer.Start(ctx, "draft.Commit")
	defer span.End()

	m.mu.Lock()
	if err := m.editableLocked(); err != nil {
		m.mu.Unlock()
		return invoicedomain.Invoice{}, err
	}
	if verr := validate(m.doc); verr != nil {
		m.mu.Unlock()
		m.metrics.Commit(metrics.CommitResultValidation)
		span.SetAttributes(attribute.StringSlice("validation.fields", verr.Fields))
		return invoicedomain.Invoice{}, verr
	}
	req, err := toCreateRequest(m.doc)
	if err != nil {
		m.mu.Unlock()
		return invoicedomain.Invoice{}, err
	}
	m.committing = true
	m.mu.Unlock()

	invoice, err := m.invoices.Create(ctx, req)
	if err != nil {
		m.mu.Lock()
		m.committing = false
		m.mu.Unlock()

		if verr := validationFromStore(err); verr != nil {
			m.metrics.Commit(metrics.CommitResultValidation)
			return invoicedomain.Invoice{}, verr
		}
		m.metrics.Commit(metrics.CommitResultStore)
		span.RecordError(err)
		span.SetStatus(codes.Error, "create invoice")
		m.log.Warn("draft.commit_failed", zap.Error(err))
		return invoicedomain.Invoice{}, &domain.StoreError{Err: err}
	}

	m.mu.Lock()
	m.committing = false
	m.state = StateCommitted
	m.generation++
	if m.pending != nil {
		m.pending.Stop()
		m.pending = nil
	}
	m.mu.Unlock()

	m.writeMu.Lock()
	if err := m.store.Clear(ctx); err != nil {
		m.log.Error("draft.clear_after_commit_failed", zap.Error(err))
	}
	m.writeMu.Unlock()

	m.metrics.Commit(metrics.CommitResultOK)
	span.SetAttributes(attribute.String("invoice.number", invoice.Number))
	m.log.Info("draft.committed",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("number", invoice.Number),
	)
	return invoice, nil
}

// Close stops any pending autosave. Edits made within the last debounce
// interval are not written.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.generation++
	if m.pending != nil {
		m.pending.Stop()
		m.pending = nil
	}
}

func validate(doc domain.Document) *domain.ValidationError {
	var fields []string
	if strings.TrimSpace(doc.ClientID) == "" {
		fields = append(fields, domain.FieldClientID)
	}
	described := false
	for _, item := range doc.LineItems {
		if strings.TrimSpace(item.Description) != "" {
			described = true
			break
		}
	}
	if !described {
		fields = append(fields, domain.FieldLineItems)
	}
	if len(fields) == 0 {
		return nil
	}
	return &domain.ValidationError{Fields: fields}
}

// validationFromStore maps invoice store rejections that the user can fix in
// the editor.
func validationFromStore(err error) *domain.ValidationError {
	switch {
	case errors.Is(err, invoicedomain.ErrInvalidClient):
		return &domain.ValidationError{Fields: []string{domain.FieldClientID}}
	case errors.Is(err, invoicedomain.ErrEmptyItems),
		errors.Is(err, invoicedomain.ErrInvalidQuantity),
		errors.Is(err, invoicedomain.ErrInvalidPrice):
		return &domain.ValidationError{Fields: []string{domain.FieldLineItems}}
	case errors.Is(err, invoicedomain.ErrDuplicateNumber):
		return &domain.ValidationError{Fields: []string{domain.FieldInvoiceNumber}}
	case errors.Is(err, invoicedomain.ErrInvalidDueDate):
		return &domain.ValidationError{Fields: []string{domain.FieldDueDate}}
	}
	return nil
}

func toCreateRequest(doc domain.Document) (invoicedomain.CreateInvoiceRequest, error) {
	items := make([]invoicedomain.ItemInput, 0, len(doc.LineItems))
	for _, item := range doc.LineItems {
		items = append(items, invoicedomain.ItemInput{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}

	notes := ""
	if !doc.Notes.Empty() {
		raw, err := json.Marshal(doc.Notes)
		if err != nil {
			return invoicedomain.CreateInvoiceRequest{}, err
		}
		notes = string(raw)
	}

	return invoicedomain.CreateInvoiceRequest{
		Number:    doc.InvoiceNumber,
		ClientID:  doc.ClientID,
		Status:    string(doc.Status),
		IssueDate: doc.IssueDate,
		DueDate:   doc.DueDate,
		Items:     items,
		Notes:     notes,
	}, nil
}
