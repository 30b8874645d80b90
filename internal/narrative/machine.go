package narrative

import (
	"log"
	"slices"
	"strings"
	"time"

	dnderr "github.com/KirkDiggler/dnd-narrator/internal/errors"
)

// Snapshot is a copy of the machine's state
type Snapshot struct {
	State       State     `json:"state"`
	InDialogue  bool      `json:"in_dialogue"`
	ActionCount int       `json:"action_count"`
	LastUnit    UnitType  `json:"last_unit,omitempty"`
	LastUnitAt  time.Time `json:"last_unit_at,omitempty"`
	LastEventAt time.Time `json:"last_event_at,omitempty"`
}

// Transition describes one accepted unit
type Transition struct {
	From     State     `json:"from"`
	To       State     `json:"to"`
	Unit     UnitType  `json:"unit"`
	Warnings []string  `json:"warnings,omitempty"`
	At       time.Time `json:"at"`
}

// Changed reports whether the state moved
func (t *Transition) Changed() bool {
	return t.From != t.To
}

// Machine tracks which narrative units are legal for one session.
// It is not safe for concurrent use; callers serialize access per session.
type Machine struct {
	snap Snapshot
	now  func() time.Time
}

// MachineConfig holds configuration for a machine
type MachineConfig struct {
	Now func() time.Time // Optional: defaults to time.Now
}

// NewMachine creates a machine in FREE_EXPLORATION
func NewMachine(cfg *MachineConfig) *Machine {
	m := &Machine{
		snap: Snapshot{State: StateFreeExploration},
		now:  time.Now,
	}
	if cfg != nil && cfg.Now != nil {
		m.now = cfg.Now
	}
	return m
}

// State returns the active context state
func (m *Machine) State() State {
	return m.snap.State
}

// Snapshot returns a copy of the state, flags and counters
func (m *Machine) Snapshot() Snapshot {
	return m.snap
}

// Restore puts back a snapshot taken earlier, used to undo a transition whose side effects failed
func (m *Machine) Restore(snap Snapshot) {
	m.snap = snap
}

// AllowedUnits lists the units Validate would accept right now, in prompt order.
// PLAYER_ACTION is left out, it is never the narrator's to produce.
func (m *Machine) AllowedUnits() []UnitType {
	candidates := AllowedUnits(m.snap.State)
	if !slices.Contains(candidates, UnitCombatEvent) {
		candidates = append(candidates, UnitCombatEvent)
	}

	now := m.now()
	out := make([]UnitType, 0, len(candidates))
	for _, unit := range candidates {
		if validate(m.snap, unit, now).Valid() {
			out = append(out, unit)
		}
	}
	return out
}

// Validate checks a unit against the current state without changing anything
func (m *Machine) Validate(unit UnitType) *Validation {
	return validate(m.snap, unit, m.now())
}

// Emit validates unit and applies its transition. A rejected unit leaves the machine untouched.
func (m *Machine) Emit(unit UnitType) (*Transition, error) {
	now := m.now()
	v := validate(m.snap, unit, now)
	if !v.Valid() {
		return nil, dnderr.StateViolationf("%s rejected in %s: %s", unit, m.snap.State, strings.Join(v.Errors, "; ")).
			WithMeta("unit", string(unit)).
			WithMeta("state", string(m.snap.State))
	}

	from := m.snap.State
	next := m.snap
	transitions[unit](&next, now)
	next.LastUnit = unit
	next.LastUnitAt = now
	m.snap = next

	if from != next.State {
		log.Printf("Narrative: %s -> %s on %s", from, next.State, unit)
	}

	return &Transition{
		From:     from,
		To:       next.State,
		Unit:     unit,
		Warnings: v.Warnings,
		At:       now,
	}, nil
}

// EndDialogue clears the dialogue flag and leaves IN_DIALOGUE for FREE_EXPLORATION
func (m *Machine) EndDialogue() *Transition {
	from := m.snap.State
	m.snap.InDialogue = false
	if m.snap.State == StateInDialogue {
		m.snap.State = StateFreeExploration
	}
	return &Transition{From: from, To: m.snap.State, Unit: UnitSystem, At: m.now()}
}

// EndCombat moves IN_COMBAT to AFTER_ACTION
func (m *Machine) EndCombat() *Transition {
	from := m.snap.State
	if m.snap.State == StateInCombat {
		m.snap.State = StateAfterAction
	}
	return &Transition{From: from, To: m.snap.State, Unit: UnitSystem, At: m.now()}
}

// CompleteQuest closes the story arc. FINAL_SCENE is only legal once the quest is completed.
func (m *Machine) CompleteQuest() *Transition {
	from := m.snap.State
	m.snap.InDialogue = false
	m.snap.State = StateQuestCompleted
	return &Transition{From: from, To: m.snap.State, Unit: UnitSystem, At: m.now()}
}

type transitionFunc func(s *Snapshot, now time.Time)

// transitions has an entry for every unit type
var transitions = map[UnitType]transitionFunc{
	UnitPlayerAction:          noTransition,
	UnitSystem:                noTransition,
	UnitLocationDescription:   noTransition,
	UnitRevelation:            noTransition,
	UnitConsequence:           noTransition,
	UnitSideQuestIntro:        noTransition,
	UnitNPCEncounter:          enterDialogue,
	UnitDialogueContinuation:  enterDialogue,
	UnitCombatEvent:           enterCombat,
	UnitActionResult:          resolveAction,
	UnitQuestProgression:      progressQuest,
	UnitFinalScene:            completeQuest,
	UnitRandomEvent:           unscriptedEvent,
	UnitExplorationEvent:      unscriptedEvent,
	UnitSituationContinuation: backToExploration,
}

func noTransition(*Snapshot, time.Time) {}

func enterDialogue(s *Snapshot, _ time.Time) {
	if !s.InDialogue {
		s.InDialogue = true
		s.State = StateInDialogue
	}
}

func enterCombat(s *Snapshot, _ time.Time) {
	if s.State != StateInCombat {
		s.State = StateInCombat
	}
}

func resolveAction(s *Snapshot, _ time.Time) {
	s.State = StateAfterAction
	s.ActionCount++
}

func progressQuest(s *Snapshot, _ time.Time) {
	if s.State == StateAfterAction {
		s.State = StateQuestFocused
	}
}

func completeQuest(s *Snapshot, _ time.Time) {
	s.State = StateQuestCompleted
}

func unscriptedEvent(s *Snapshot, now time.Time) {
	s.LastEventAt = now
	backToExploration(s, now)
}

func backToExploration(s *Snapshot, _ time.Time) {
	if s.State == StateAfterAction && !s.InDialogue {
		s.State = StateFreeExploration
	}
}
