package session

import (
	"time"

	"github.com/KirkDiggler/dnd-narrator/internal/entities"
	"github.com/KirkDiggler/dnd-narrator/internal/narrative"
	"github.com/KirkDiggler/dnd-narrator/internal/triggers"
)

// runtime is everything the core remembers about one session
type runtime struct {
	machine *narrative.Machine
	arbiter *triggers.SessionArbiterState
	history []*entities.HistoryEvent
}

func newRuntime(now func() time.Time) *runtime {
	return &runtime{
		machine: narrative.NewMachine(&narrative.MachineConfig{Now: now}),
		arbiter: triggers.NewSessionArbiterState(),
	}
}

// appendHistory adds an event and keeps at most limit entries
func (r *runtime) appendHistory(event *entities.HistoryEvent, limit int) {
	r.history = append(r.history, event)
	if limit > 0 && len(r.history) > limit {
		trimmed := make([]*entities.HistoryEvent, limit)
		copy(trimmed, r.history[len(r.history)-limit:])
		r.history = trimmed
	}
}

func (r *runtime) historyCopy() []*entities.HistoryEvent {
	out := make([]*entities.HistoryEvent, len(r.history))
	copy(out, r.history)
	return out
}
