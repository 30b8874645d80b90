package records

import (
	"context"
	"time"

	"github.com/KirkDiggler/dnd-narrator/internal/events"
)

const defaultSinkTimeout = 5 * time.Second

// Sink persists every record published on a bus
type Sink struct {
	repo    Repository
	timeout time.Duration
}

// SinkConfig holds configuration for the sink
type SinkConfig struct {
	Repository Repository
	Timeout    time.Duration // Optional
}

// NewSink creates a bus listener that appends records to a repository
func NewSink(cfg *SinkConfig) *Sink {
	if cfg == nil || cfg.Repository == nil {
		panic("record repository is required")
	}

	s := &Sink{
		repo:    cfg.Repository,
		timeout: cfg.Timeout,
	}
	if s.timeout <= 0 {
		s.timeout = defaultSinkTimeout
	}
	return s
}

// Attach subscribes the sink to every record kind
func (s *Sink) Attach(bus *events.Bus) {
	bus.SubscribeAll(s)
}

func (s *Sink) ID() string { return "record-sink" }

// Priority runs the sink before any other listener
func (s *Sink) Priority() int { return 0 }

func (s *Sink) HandleRecord(record *events.Record) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	return s.repo.Append(ctx, record)
}
