package triggers

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/KirkDiggler/dnd-narrator/internal/entities"
	"github.com/KirkDiggler/dnd-narrator/internal/events"
	"github.com/KirkDiggler/dnd-narrator/internal/history"
)

//go:generate mockgen -destination=mock/mock_arbiter.go -package=mocktriggers -source=arbiter.go

const (
	DefaultRateLimitWindow   = 5 * time.Minute
	DefaultPatternWindow     = 15
	DefaultStorylineWindow   = 20
	DefaultMinPatternActions = 3

	// a location counts as stale when fewer than this many recent events mention it
	minLocationMentions = 2
)

// Arbiter decides whether an unscripted event should fire and which one
type Arbiter interface {
	// Evaluate runs every check against the scene and records what fired in state
	Evaluate(state *SessionArbiterState, scene *Scene) *Evaluation
}

type arbiter struct {
	analyzer          history.Analyzer
	now               func() time.Time
	rateLimitWindow   time.Duration
	patternWindow     int
	storylineWindow   int
	minPatternActions int
}

// ArbiterConfig holds configuration for the arbiter
type ArbiterConfig struct {
	Analyzer          history.Analyzer
	Now               func() time.Time // Optional: time.Now
	RateLimitWindow   time.Duration    // Optional
	PatternWindow     int              // Optional
	StorylineWindow   int              // Optional
	MinPatternActions int              // Optional
}

// NewArbiter creates a trigger arbiter
func NewArbiter(cfg *ArbiterConfig) Arbiter {
	if cfg == nil {
		panic("arbiter config is required")
	}
	if cfg.Analyzer == nil {
		panic("history analyzer is required")
	}

	a := &arbiter{
		analyzer:          cfg.Analyzer,
		now:               cfg.Now,
		rateLimitWindow:   cfg.RateLimitWindow,
		patternWindow:     cfg.PatternWindow,
		storylineWindow:   cfg.StorylineWindow,
		minPatternActions: cfg.MinPatternActions,
	}
	if a.now == nil {
		a.now = time.Now
	}
	if a.rateLimitWindow <= 0 {
		a.rateLimitWindow = DefaultRateLimitWindow
	}
	if a.patternWindow <= 0 {
		a.patternWindow = DefaultPatternWindow
	}
	if a.storylineWindow <= 0 {
		a.storylineWindow = DefaultStorylineWindow
	}
	if a.minPatternActions <= 0 {
		a.minPatternActions = DefaultMinPatternActions
	}
	return a
}

func (a *arbiter) Evaluate(state *SessionArbiterState, scene *Scene) *Evaluation {
	eval := &Evaluation{Active: []*EventTrigger{}}
	if state == nil || scene == nil {
		return eval
	}

	now := a.now()
	// order is the tie-break order
	checks := []func(*SessionArbiterState, *Scene, time.Time) *EventTrigger{
		a.checkLocation,
		a.checkContext,
		a.checkQuest,
		a.checkPattern,
		a.checkFlag,
	}

	for _, check := range checks {
		if trigger := check(state, scene, now); trigger != nil {
			eval.Active = append(eval.Active, trigger)
		}
	}
	eval.Selected = selectTrigger(eval.Active)

	if eval.Selected != nil {
		log.Printf("Triggers: Selected %s (priority %d) from %d active: %s",
			eval.Selected.Type, eval.Selected.Priority, len(eval.Active), eval.Selected.Description)
	}

	return eval
}

// selectTrigger picks the strictly highest priority, earlier triggers win ties
func selectTrigger(active []*EventTrigger) *EventTrigger {
	var selected *EventTrigger
	for _, t := range active {
		if selected == nil || t.Priority > selected.Priority {
			selected = t
		}
	}
	return selected
}

// canFire reports whether key is outside the rate-limit window
func (a *arbiter) canFire(state *SessionArbiterState, key string, now time.Time) bool {
	last, ok := state.LastFired(key)
	if !ok {
		return true
	}
	return now.Sub(last) >= a.rateLimitWindow
}

func (a *arbiter) checkLocation(state *SessionArbiterState, scene *Scene, now time.Time) *EventTrigger {
	if scene.Location == "" || state.Visited(scene.Location) {
		return nil
	}

	state.markVisited(scene.Location)
	state.markFired(LocationKey(scene.Location), now)

	return &EventTrigger{
		Type: TriggerLocationBased,
		Conditions: map[string]string{
			ConditionLocation: scene.Location,
			ConditionReason:   ReasonFirstVisit,
		},
		Priority:    LocationPriority,
		Description: "First visit to " + scene.Location,
	}
}

func (a *arbiter) checkContext(state *SessionArbiterState, scene *Scene, now time.Time) *EventTrigger {
	if len(scene.History) == 0 {
		return nil
	}

	analysis := a.analyzer.Analyze(scene.History, a.storylineWindow)

	if len(analysis.UnfinishedStorylines) > 0 && a.canFire(state, StorylineKey, now) {
		oldest := analysis.UnfinishedStorylines[0]
		state.markFired(StorylineKey, now)

		return &EventTrigger{
			Type: TriggerStorylineBased,
			Conditions: map[string]string{
				ConditionStorylineType:        string(oldest.Type),
				ConditionStorylineDescription: oldest.Description,
			},
			Priority:    StorylinePriority,
			Description: "Unfinished storyline: " + string(oldest.Type),
		}
	}

	if scene.Location == "" {
		return nil
	}

	key := LocationKey(scene.Location)
	if last, ok := state.LastFired(key); ok && now.Sub(last) <= 2*a.rateLimitWindow {
		return nil
	}

	mentions := countMentions(analysis.Window, scene.Location)
	if mentions >= minLocationMentions {
		return nil
	}

	state.markFired(key, now)

	return &EventTrigger{
		Type: TriggerContextBased,
		Conditions: map[string]string{
			ConditionLocation:    scene.Location,
			ConditionEventsCount: strconv.Itoa(mentions),
			ConditionReason:      ReasonStaleLocation,
		},
		Priority:    StaleLocationPriority,
		Description: "Nothing has happened at " + scene.Location + " for a while",
	}
}

func (a *arbiter) checkQuest(_ *SessionArbiterState, scene *Scene, _ time.Time) *EventTrigger {
	if !scene.HasQuest || scene.StoryProgress <= 0 || scene.StoryProgress >= 100 {
		return nil
	}

	return &EventTrigger{
		Type: TriggerQuestBased,
		Conditions: map[string]string{
			ConditionQuestStage:    scene.QuestStage,
			ConditionQuestProgress: strconv.Itoa(scene.StoryProgress),
			ConditionStageIndex:    strconv.Itoa(scene.QuestStageIndex),
		},
		Priority:    QuestPriority,
		Description: fmt.Sprintf("Quest progress: stage %d (%s)", scene.QuestStageIndex, scene.QuestStage),
	}
}

func (a *arbiter) checkPattern(state *SessionArbiterState, scene *Scene, now time.Time) *EventTrigger {
	if entities.CountByType(scene.History, entities.HistoryPlayerAction) < a.minPatternActions {
		return nil
	}

	analysis := a.analyzer.Analyze(scene.History, a.patternWindow)
	style := analysis.PlayerPatterns.DominantStyle

	key := PatternKey(style)
	if !a.canFire(state, key, now) {
		return nil
	}

	suggested, ok := patternEventTypes[style]
	if !ok {
		log.Printf("Triggers: No event type for play style %q", style)
		return nil
	}

	state.markFired(key, now)

	return &EventTrigger{
		Type: TriggerPatternBased,
		Conditions: map[string]string{
			ConditionPattern:            string(style),
			ConditionSuggestedEventType: string(suggested),
		},
		Priority:    PatternPriority,
		Description: "Player pattern detected: " + string(style) + " play style",
	}
}

// checkFlag is reserved for world flags and never fires yet
func (a *arbiter) checkFlag(_ *SessionArbiterState, _ *Scene, _ time.Time) *EventTrigger {
	return nil
}

var patternEventTypes = map[history.PlayStyle]events.EventType{
	history.StyleCombat:      events.EventTypeRandomEvent,
	history.StyleSocial:      events.EventTypeNPCEncounter,
	history.StyleExploration: events.EventTypeLocationEvent,
	history.StyleMagic:       events.EventTypeRandomEvent,
}

// countMentions counts events whose description names the location, ignoring case
func countMentions(window []*entities.HistoryEvent, location string) int {
	needle := strings.ToLower(location)
	count := 0
	for _, e := range window {
		if strings.Contains(strings.ToLower(e.Description), needle) {
			count++
		}
	}
	return count
}
