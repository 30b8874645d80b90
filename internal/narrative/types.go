package narrative

import (
	"strings"

	dnderr "github.com/KirkDiggler/dnd-narrator/internal/errors"
)

// State is the narrative context a session is in
type State string

const (
	StateFreeExploration State = "FREE_EXPLORATION"
	StateInDialogue      State = "IN_DIALOGUE"
	StateInCombat        State = "IN_COMBAT"
	StateQuestFocused    State = "QUEST_FOCUSED"
	StateAfterAction     State = "AFTER_ACTION"
	StateQuestCompleted  State = "QUEST_COMPLETED"
)

// AllStates lists every context state
var AllStates = []State{
	StateFreeExploration,
	StateInDialogue,
	StateInCombat,
	StateQuestFocused,
	StateAfterAction,
	StateQuestCompleted,
}

// UnitType is the kind of narrative unit the oracle may produce next
type UnitType string

const (
	UnitSituationContinuation UnitType = "SITUATION_CONTINUATION"
	UnitQuestProgression      UnitType = "QUEST_PROGRESSION"
	UnitNPCEncounter          UnitType = "NPC_ENCOUNTER"
	UnitDialogueContinuation  UnitType = "DIALOGUE_CONTINUATION"
	UnitActionResult          UnitType = "ACTION_RESULT"
	UnitRandomEvent           UnitType = "RANDOM_EVENT"
	UnitLocationDescription   UnitType = "LOCATION_DESCRIPTION"
	UnitCombatEvent           UnitType = "COMBAT_EVENT"
	UnitExplorationEvent      UnitType = "EXPLORATION_EVENT"
	UnitRevelation            UnitType = "REVELATION"
	UnitConsequence           UnitType = "CONSEQUENCE"
	UnitSideQuestIntro        UnitType = "SIDE_QUEST_INTRO"
	UnitFinalScene            UnitType = "FINAL_SCENE"
	UnitSystem                UnitType = "SYSTEM"

	// UnitPlayerAction is the player's own turn. It is legal everywhere and moves nothing.
	UnitPlayerAction UnitType = "PLAYER_ACTION"
)

// AllUnitTypes lists every narrative unit type
var AllUnitTypes = []UnitType{
	UnitSituationContinuation,
	UnitQuestProgression,
	UnitNPCEncounter,
	UnitDialogueContinuation,
	UnitActionResult,
	UnitRandomEvent,
	UnitLocationDescription,
	UnitCombatEvent,
	UnitExplorationEvent,
	UnitRevelation,
	UnitConsequence,
	UnitSideQuestIntro,
	UnitFinalScene,
	UnitSystem,
	UnitPlayerAction,
}

// ParseUnitType accepts a unit name in any case, with spaces or hyphens for underscores
func ParseUnitType(s string) (UnitType, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	name = strings.NewReplacer(" ", "_", "-", "_").Replace(name)
	for _, u := range AllUnitTypes {
		if string(u) == name {
			return u, nil
		}
	}
	return "", dnderr.InvalidArgumentf("unknown narrative unit type '%s'", s)
}

// allowedUnits is the exact allow-list per state, in prompt order
var allowedUnits = map[State][]UnitType{
	StateFreeExploration: {
		UnitSituationContinuation,
		UnitRandomEvent,
		UnitNPCEncounter,
		UnitLocationDescription,
		UnitExplorationEvent,
		UnitSideQuestIntro,
		UnitActionResult,
		UnitSystem,
	},
	StateInDialogue: {
		UnitDialogueContinuation,
		UnitRevelation,
		UnitSideQuestIntro,
		UnitSystem,
	},
	StateInCombat: {
		UnitCombatEvent,
		UnitActionResult,
		UnitSystem,
	},
	StateQuestFocused: {
		UnitQuestProgression,
		UnitSituationContinuation,
		UnitRevelation,
		UnitConsequence,
		UnitLocationDescription,
		UnitSystem,
	},
	StateAfterAction: {
		UnitActionResult,
		UnitConsequence,
		UnitQuestProgression,
		UnitSituationContinuation,
		UnitRevelation,
		UnitSystem,
	},
	StateQuestCompleted: {
		UnitFinalScene,
		UnitSystem,
	},
}

// IsAllowed reports whether unit is in the allow-list of state.
// PLAYER_ACTION is accepted everywhere. COMBAT_EVENT is accepted in every state
// except QUEST_COMPLETED, which only takes its closing units.
func IsAllowed(unit UnitType, state State) bool {
	switch unit {
	case UnitPlayerAction:
		return true
	case UnitCombatEvent:
		if state != StateQuestCompleted {
			return true
		}
	}
	for _, u := range allowedUnits[state] {
		if u == unit {
			return true
		}
	}
	return false
}

// AllowedUnits returns the exact allow-list of state, without combat entry
func AllowedUnits(state State) []UnitType {
	units := allowedUnits[state]
	out := make([]UnitType, len(units))
	copy(out, units)
	return out
}
