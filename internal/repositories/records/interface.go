package records

import (
	"context"

	"github.com/KirkDiggler/dnd-narrator/internal/events"
)

//go:generate mockgen -destination=mocks/mock_repository.go -package=mocks github.com/KirkDiggler/dnd-narrator/internal/repositories/records Repository

// Repository is the append-only log of what the core decided per session
type Repository interface {
	Append(ctx context.Context, record *events.Record) error
	Get(ctx context.Context, id string) (*events.Record, error)
	// ListBySession returns a session's records in append order
	ListBySession(ctx context.Context, sessionID string) ([]*events.Record, error)
	// ListSessions returns every session id with at least one record
	ListSessions(ctx context.Context) ([]string, error)
}
