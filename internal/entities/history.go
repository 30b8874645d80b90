package entities

import "time"

// HistoryEventType classifies a history entry
type HistoryEventType string

const (
	HistoryPlayerAction HistoryEventType = "player_action"
	HistoryNarration    HistoryEventType = "narration"
	HistoryWorldEvent   HistoryEventType = "event"
	HistorySystem       HistoryEventType = "system"
)

// HistoryEvent is one entry of the session log
type HistoryEvent struct {
	Type        HistoryEventType `json:"type"`
	Description string           `json:"description"`
	Location    string           `json:"location,omitempty"`
	Timestamp   time.Time        `json:"timestamp"`
}

// CountByType counts events of the given type
func CountByType(events []*HistoryEvent, t HistoryEventType) int {
	count := 0
	for _, e := range events {
		if e != nil && e.Type == t {
			count++
		}
	}
	return count
}

// LastN returns the trailing n events, or all of them when n <= 0 or n exceeds the length
func LastN(events []*HistoryEvent, n int) []*HistoryEvent {
	if n <= 0 || n >= len(events) {
		return events
	}
	return events[len(events)-n:]
}
