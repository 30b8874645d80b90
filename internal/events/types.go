package events

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/KirkDiggler/dnd-narrator/internal/continuity"
	dnderr "github.com/KirkDiggler/dnd-narrator/internal/errors"
)

// EventType is the kind of unscripted story event
type EventType string

const (
	EventTypeNPCEncounter  EventType = "NPC_ENCOUNTER"
	EventTypeSideQuest     EventType = "SIDE_QUEST"
	EventTypeRandomEvent   EventType = "RANDOM_EVENT"
	EventTypeLocationEvent EventType = "LOCATION_EVENT"
	EventTypeQuestHook     EventType = "QUEST_HOOK"
	EventTypeRevelation    EventType = "REVELATION"
	EventTypeConsequence   EventType = "CONSEQUENCE"
)

// AllEventTypes lists every generated event type
var AllEventTypes = []EventType{
	EventTypeNPCEncounter,
	EventTypeSideQuest,
	EventTypeRandomEvent,
	EventTypeLocationEvent,
	EventTypeQuestHook,
	EventTypeRevelation,
	EventTypeConsequence,
}

// ParseEventType returns the event type with the given name, ignoring case
func ParseEventType(s string) (EventType, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for _, t := range AllEventTypes {
		if string(t) == name {
			return t, nil
		}
	}
	return "", dnderr.InvalidArgumentf("unknown event type '%s'", s)
}

// Metadata ties a generated event to the world
type Metadata struct {
	RelatedNPCs      []string `json:"related_npcs"`
	RelatedQuests    []string `json:"related_quests"`
	RelatedLocations []string `json:"related_locations"`
}

// GeneratedEvent is an unscripted story event produced for a fired trigger
type GeneratedEvent struct {
	ID          string                 `json:"id"`
	Type        EventType              `json:"type"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Metadata    Metadata               `json:"metadata"`
	Connections continuity.Connections `json:"connections"`
	Priority    int                    `json:"priority"`
	CreatedAt   time.Time              `json:"created_at"`
}

// RecordKind is what a record carries
type RecordKind string

const (
	RecordParsedAction    RecordKind = "parsed_action"
	RecordRuleResult      RecordKind = "rule_result"
	RecordGeneratedEvent  RecordKind = "generated_event"
	RecordStateTransition RecordKind = "state_transition"
)

// AllRecordKinds lists every record kind
var AllRecordKinds = []RecordKind{
	RecordParsedAction,
	RecordRuleResult,
	RecordGeneratedEvent,
	RecordStateTransition,
}

// Record is one entry of a session's append-only decision log
type Record struct {
	ID        string          `json:"id"`
	SessionID string          `json:"session_id"`
	Kind      RecordKind      `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewRecord marshals payload into a record
func NewRecord(id, sessionID string, kind RecordKind, payload any, at time.Time) (*Record, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", kind, err)
	}

	return &Record{
		ID:        id,
		SessionID: sessionID,
		Kind:      kind,
		Payload:   data,
		CreatedAt: at,
	}, nil
}

// Decode unmarshals the payload into v
func (r *Record) Decode(v any) error {
	if err := json.Unmarshal(r.Payload, v); err != nil {
		return fmt.Errorf("failed to decode %s record %s: %w", r.Kind, r.ID, err)
	}
	return nil
}
