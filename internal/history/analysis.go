package history

import (
	"time"

	"github.com/KirkDiggler/dnd-narrator/internal/entities"
)

// EntityCategory groups entity mentions
type EntityCategory string

const (
	CategoryPersons       EntityCategory = "persons"
	CategoryItems         EntityCategory = "items"
	CategoryLocations     EntityCategory = "locations"
	CategoryOrganizations EntityCategory = "organizations"
)

// AllEntityCategories lists every mention category
var AllEntityCategories = []EntityCategory{
	CategoryPersons,
	CategoryItems,
	CategoryLocations,
	CategoryOrganizations,
}

// PlayStyle is a broad kind of player behaviour
type PlayStyle string

const (
	StyleCombat      PlayStyle = "combat"
	StyleSocial      PlayStyle = "social"
	StyleExploration PlayStyle = "exploration"
	StyleMagic       PlayStyle = "magic"
)

// AllPlayStyles lists every style in tie-break precedence order
var AllPlayStyles = []PlayStyle{StyleCombat, StyleSocial, StyleExploration, StyleMagic}

// StorylineType is the kind of open thread
type StorylineType string

const (
	StorylineUnresolvedMystery StorylineType = "unresolved_mystery"
	StorylineUnexplainedItem   StorylineType = "unexplained_item"
)

// Storyline is an open thread left in the history
type Storyline struct {
	Type        StorylineType `json:"type"`
	Description string        `json:"description"`
	Timestamp   time.Time     `json:"timestamp"`
}

// PlayerPatterns counts player actions per style
type PlayerPatterns struct {
	Combat        int       `json:"combat"`
	Social        int       `json:"social"`
	Exploration   int       `json:"exploration"`
	Magic         int       `json:"magic"`
	DominantStyle PlayStyle `json:"dominant_style"`
}

// Count returns the counter for a style
func (p *PlayerPatterns) Count(style PlayStyle) int {
	switch style {
	case StyleCombat:
		return p.Combat
	case StyleSocial:
		return p.Social
	case StyleExploration:
		return p.Exploration
	case StyleMagic:
		return p.Magic
	}
	return 0
}

func (p *PlayerPatterns) add(style PlayStyle) {
	switch style {
	case StyleCombat:
		p.Combat++
	case StyleSocial:
		p.Social++
	case StyleExploration:
		p.Exploration++
	case StyleMagic:
		p.Magic++
	}
}

// EmotionalMoment is an event carrying an emotional keyword
type EmotionalMoment struct {
	Keyword     string                    `json:"keyword"`
	Description string                    `json:"description"`
	Type        entities.HistoryEventType `json:"type"`
	Timestamp   time.Time                 `json:"timestamp"`
}

// HookType is the kind of future event a hook suggests
type HookType string

const (
	HookNPCEncounter          HookType = "npc_encounter"
	HookStorylineContinuation HookType = "storyline_continuation"
	HookItemQuest             HookType = "item_quest"
)

// Hook priorities
const (
	NPCEncounterPriority          = 70
	StorylineContinuationPriority = 80
	ItemQuestPriority             = 60
)

// Hook is a suggestion for a future event
type Hook struct {
	Type        HookType `json:"type"`
	Entity      string   `json:"entity,omitempty"`
	Description string   `json:"description"`
	Priority    int      `json:"priority"`
}

// Analysis is recomputed on demand and never stored
type Analysis struct {
	Mentions             map[EntityCategory][]string `json:"mentions"`
	MentionFrequency     map[string]int              `json:"mention_frequency"`
	SymbolicTerms        []string                    `json:"symbolic_terms"`
	UnfinishedStorylines []Storyline                 `json:"unfinished_storylines"`
	PlayerPatterns       PlayerPatterns              `json:"player_patterns"`
	EmotionalMoments     []EmotionalMoment           `json:"emotional_moments"`
	Hooks                []Hook                      `json:"hooks"`
	Window               []*entities.HistoryEvent    `json:"-"`
}
