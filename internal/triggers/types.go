package triggers

import (
	"strings"
	"time"

	"github.com/KirkDiggler/dnd-narrator/internal/entities"
	dnderr "github.com/KirkDiggler/dnd-narrator/internal/errors"
	"github.com/KirkDiggler/dnd-narrator/internal/history"
)

// TriggerType is the reason an unscripted event may fire
type TriggerType string

const (
	TriggerLocationBased  TriggerType = "LOCATION_BASED"
	TriggerQuestBased     TriggerType = "QUEST_BASED"
	TriggerFlagBased      TriggerType = "FLAG_BASED"
	TriggerPatternBased   TriggerType = "PATTERN_BASED"
	TriggerContextBased   TriggerType = "CONTEXT_BASED"
	TriggerStorylineBased TriggerType = "STORYLINE_BASED"
)

// AllTriggerTypes lists every trigger type
var AllTriggerTypes = []TriggerType{
	TriggerLocationBased,
	TriggerQuestBased,
	TriggerFlagBased,
	TriggerPatternBased,
	TriggerContextBased,
	TriggerStorylineBased,
}

// ParseTriggerType returns the trigger type with the given name, ignoring case
func ParseTriggerType(s string) (TriggerType, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for _, t := range AllTriggerTypes {
		if string(t) == name {
			return t, nil
		}
	}
	return "", dnderr.InvalidArgumentf("unknown trigger type '%s'", s)
}

// Condition keys
const (
	ConditionLocation             = "location"
	ConditionReason               = "reason"
	ConditionEventsCount          = "events_count"
	ConditionStorylineType        = "storyline_type"
	ConditionStorylineDescription = "storyline_description"
	ConditionQuestStage           = "quest_stage"
	ConditionQuestProgress        = "quest_progress"
	ConditionStageIndex           = "stage_index"
	ConditionPattern              = "pattern"
	ConditionSuggestedEventType   = "suggested_event_type"
)

// Condition reasons
const (
	ReasonFirstVisit    = "first_visit"
	ReasonStaleLocation = "stale_location"
)

// Trigger priorities
const (
	StorylinePriority     = 85
	LocationPriority      = 80
	QuestPriority         = 75
	PatternPriority       = 60
	StaleLocationPriority = 55
)

// StorylineKey is the rate-limit key shared by every storyline continuation
const StorylineKey = "storyline_continuation"

// LocationKey is the rate-limit key of a location
func LocationKey(location string) string {
	return "location_" + location
}

// PatternKey is the rate-limit key of a play style
func PatternKey(style history.PlayStyle) string {
	return "pattern_" + string(style)
}

// EventTrigger is a reason to inject an event right now
type EventTrigger struct {
	Type        TriggerType       `json:"type"`
	Conditions  map[string]string `json:"conditions"`
	Priority    int               `json:"priority"`
	Description string            `json:"description"`
}

// Scene is the slice of session state the arbiter looks at
type Scene struct {
	Location        string
	QuestStage      string
	QuestStageIndex int
	StoryProgress   int
	HasQuest        bool
	History         []*entities.HistoryEvent
}

// Evaluation is the outcome of one arbitration pass
type Evaluation struct {
	Active   []*EventTrigger `json:"active"`
	Selected *EventTrigger   `json:"selected,omitempty"`
}

// SessionArbiterState is the per-session memory of the arbiter. It is not safe
// for concurrent use, the session pipeline serializes access.
type SessionArbiterState struct {
	visited   map[string]bool
	lastFired map[string]time.Time
}

// NewSessionArbiterState returns the state of a fresh session
func NewSessionArbiterState() *SessionArbiterState {
	return &SessionArbiterState{
		visited:   make(map[string]bool),
		lastFired: make(map[string]time.Time),
	}
}

// Reset forgets visited locations and rate limits
func (s *SessionArbiterState) Reset() {
	s.visited = make(map[string]bool)
	s.lastFired = make(map[string]time.Time)
}

// Clone returns an independent copy
func (s *SessionArbiterState) Clone() *SessionArbiterState {
	c := &SessionArbiterState{
		visited:   make(map[string]bool, len(s.visited)),
		lastFired: make(map[string]time.Time, len(s.lastFired)),
	}
	for k, v := range s.visited {
		c.visited[k] = v
	}
	for k, v := range s.lastFired {
		c.lastFired[k] = v
	}
	return c
}

// Visited reports whether a location was already seen this session
func (s *SessionArbiterState) Visited(location string) bool {
	return s.visited[location]
}

// LastFired returns when a rate-limit key last fired
func (s *SessionArbiterState) LastFired(key string) (time.Time, bool) {
	t, ok := s.lastFired[key]
	return t, ok
}

func (s *SessionArbiterState) markFired(key string, at time.Time) {
	s.lastFired[key] = at
}

func (s *SessionArbiterState) markVisited(location string) {
	s.visited[location] = true
}
