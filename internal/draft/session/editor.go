package session

import (
	"context"
	"sync"

	"github.com/smallbiznis/flowdesk/internal/draft/domain"
)

// Editor holds the one session that owns the draft slot. Opening a new
// session closes the previous one so two managers never write the slot.
type Editor struct {
	opts Options

	mu     sync.Mutex
	active *Manager
}

func NewEditor(opts Options) *Editor {
	return &Editor{opts: opts}
}

// Open starts a fresh session and returns it with any resume candidate.
func (e *Editor) Open(ctx context.Context) (*Manager, *domain.Document, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active != nil {
		e.active.Close()
		e.active = nil
	}
	m := NewManager(e.opts)
	candidate, err := m.Initialize(ctx)
	if err != nil {
		return nil, nil, err
	}
	e.active = m
	return m, candidate, nil
}

// Active returns the session with the given id, or the current one when id
// is empty.
func (e *Editor) Active(id string) (*Manager, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil || (id != "" && e.active.ID() != id) {
		return nil, domain.ErrNoSession
	}
	return e.active, nil
}

// Close ends the active session, if any.
func (e *Editor) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active != nil {
		e.active.Close()
		e.active = nil
	}
}
