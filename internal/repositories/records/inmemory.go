package records

import (
	"context"
	"sort"
	"sync"

	dnderr "github.com/KirkDiggler/dnd-narrator/internal/errors"
	"github.com/KirkDiggler/dnd-narrator/internal/events"
)

// InMemoryRepository keeps records in process memory
// Useful for testing and for running without Redis
type InMemoryRepository struct {
	mu           sync.RWMutex
	records      map[string]*events.Record
	bySession    map[string][]string
	timeProvider TimeProvider
}

// NewInMemoryRepository creates a new in-memory record log
func NewInMemoryRepository(timeProvider TimeProvider) *InMemoryRepository {
	if timeProvider == nil {
		timeProvider = RealTime()
	}
	return &InMemoryRepository{
		records:      make(map[string]*events.Record),
		bySession:    make(map[string][]string),
		timeProvider: timeProvider,
	}
}

// Append stores a copy of the record
func (r *InMemoryRepository) Append(_ context.Context, record *events.Record) error {
	if err := validate(record); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if record.CreatedAt.IsZero() {
		record.CreatedAt = r.timeProvider.Now()
	}

	recordCopy := *record
	recordCopy.Payload = append([]byte(nil), record.Payload...)
	r.records[record.ID] = &recordCopy
	r.bySession[record.SessionID] = append(r.bySession[record.SessionID], record.ID)

	return nil
}

// Get returns a copy of a record by ID
func (r *InMemoryRepository) Get(_ context.Context, id string) (*events.Record, error) {
	if id == "" {
		return nil, dnderr.InvalidArgument("record ID is required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	record, exists := r.records[id]
	if !exists {
		return nil, dnderr.NotFoundf("record '%s' not found", id).
			WithMeta("record_id", id)
	}

	recordCopy := *record
	return &recordCopy, nil
}

// ListBySession returns a session's records in append order
func (r *InMemoryRepository) ListBySession(_ context.Context, sessionID string) ([]*events.Record, error) {
	if sessionID == "" {
		return nil, dnderr.InvalidArgument("session ID is required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.bySession[sessionID]
	out := make([]*events.Record, 0, len(ids))
	for _, id := range ids {
		recordCopy := *r.records[id]
		out = append(out, &recordCopy)
	}
	return out, nil
}

// ListSessions returns every session id with records, sorted
func (r *InMemoryRepository) ListSessions(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.bySession))
	for id := range r.bySession {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}
