package narrative

import (
	"fmt"
	"time"
)

// eventSpacing is the minimum gap between unscripted events before a warning is raised
const eventSpacing = 2 * time.Minute

// Validation lists the problems found with a proposed unit.
// Errors block the unit, warnings do not.
type Validation struct {
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Valid returns true when there are no errors
func (v *Validation) Valid() bool {
	return len(v.Errors) == 0
}

// inCombatUnits are the only units that may interrupt a fight
var inCombatUnits = map[UnitType]bool{
	UnitCombatEvent:  true,
	UnitActionResult: true,
	UnitSystem:       true,
}

// afterActionUnits are what usually follows a resolved action
var afterActionUnits = map[UnitType]bool{
	UnitActionResult:          true,
	UnitConsequence:           true,
	UnitQuestProgression:      true,
	UnitSituationContinuation: true,
	UnitRevelation:            true,
	UnitSystem:                true,
}

func validate(snap Snapshot, unit UnitType, now time.Time) *Validation {
	v := &Validation{}

	if _, ok := transitions[unit]; !ok {
		v.Errors = append(v.Errors, fmt.Sprintf("unknown unit type %s", unit))
		return v
	}
	if unit == UnitPlayerAction {
		return v
	}

	if !IsAllowed(unit, snap.State) {
		v.Errors = append(v.Errors, fmt.Sprintf("%s is not allowed in %s", unit, snap.State))
	}

	if snap.InDialogue && (unit == UnitRandomEvent || unit == UnitNPCEncounter) {
		v.Errors = append(v.Errors, fmt.Sprintf("%s cannot interrupt a dialogue", unit))
	}

	if snap.State == StateInCombat && !inCombatUnits[unit] {
		v.Errors = append(v.Errors, "only COMBAT_EVENT, ACTION_RESULT or SYSTEM may follow during combat")
	}

	if (unit == UnitRandomEvent || unit == UnitExplorationEvent) && !snap.LastEventAt.IsZero() {
		if since := now.Sub(snap.LastEventAt); since < eventSpacing {
			v.Warnings = append(v.Warnings, fmt.Sprintf("last event was only %s ago", since.Round(time.Second)))
		}
	}

	if snap.State == StateAfterAction && !afterActionUnits[unit] {
		v.Warnings = append(v.Warnings, fmt.Sprintf("%s is unusual right after an action", unit))
	}

	return v
}
