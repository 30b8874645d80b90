package entities

import (
	"encoding/json"
	"strconv"
)

// Outcome is the three-tier result of a check
type Outcome string

const (
	OutcomeSuccess        Outcome = "success"
	OutcomePartialSuccess Outcome = "partial_success"
	OutcomeFailure        Outcome = "failure"
)

// DifficultyClass is an estimated DC as judged: either a number or a named tier
type DifficultyClass struct {
	Value int    `json:"value,omitempty"`
	Tier  string `json:"tier,omitempty"`
}

// DCValue returns a numeric difficulty class
func DCValue(v int) DifficultyClass {
	return DifficultyClass{Value: v}
}

// DCTier returns a named difficulty class
func DCTier(tier string) DifficultyClass {
	return DifficultyClass{Tier: tier}
}

// IsNumeric reports whether the DC was given as a number
func (d DifficultyClass) IsNumeric() bool {
	return d.Tier == "" && d.Value > 0
}

func (d DifficultyClass) String() string {
	if d.IsNumeric() {
		return strconv.Itoa(d.Value)
	}
	return d.Tier
}

// MarshalJSON writes the DC as a bare number or tier string
func (d DifficultyClass) MarshalJSON() ([]byte, error) {
	if d.IsNumeric() {
		return json.Marshal(d.Value)
	}
	return json.Marshal(d.Tier)
}

// UnmarshalJSON accepts a bare number or tier string
func (d *DifficultyClass) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*d = DCValue(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*d = DCTier(s)
	return nil
}

// ParsedAction is the structured judgment of a free-text player action
type ParsedAction struct {
	IsPossible       bool            `json:"is_possible"`
	RequiresCheck    bool            `json:"requires_check"`
	RequiresDiceRoll bool            `json:"requires_dice_roll"`
	Intent           string          `json:"intent"`
	Ability          Ability         `json:"ability,omitempty"`
	Skill            string          `json:"skill,omitempty"` // empty when no known skill applies
	EstimatedDC      DifficultyClass `json:"estimated_dc"`
	Modifiers        []string        `json:"modifiers"`
	RequiredItems    []string        `json:"required_items"`
	Reason           string          `json:"reason"`
}

// TrivialAction is returned for actions that need no check at all
func TrivialAction() *ParsedAction {
	return &ParsedAction{
		IsPossible:       true,
		RequiresCheck:    false,
		RequiresDiceRoll: false,
		Intent:           "trivial",
		Modifiers:        []string{},
		RequiredItems:    []string{},
	}
}

// RuleResult is a resolved check
type RuleResult struct {
	Skill            string  `json:"skill,omitempty"`
	Ability          Ability `json:"ability"`
	DC               int     `json:"dc"`
	Roll             int     `json:"roll"`
	AbilityModifier  int     `json:"ability_modifier"`
	ProficiencyBonus int     `json:"proficiency_bonus"`
	Total            int     `json:"total"`
	Outcome          Outcome `json:"outcome"`
	IsCritical       bool    `json:"is_critical"`
	IsCriticalFail   bool    `json:"is_critical_fail"`
}
