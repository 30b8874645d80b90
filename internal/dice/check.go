package dice

import "fmt"

// CheckResult is a d20 check with its modifiers applied
type CheckResult struct {
	Roll           int
	Modifier       int
	Total          int
	IsCritical     bool
	IsCriticalFail bool
}

// RollD20 rolls a single d20 and adds the modifier
func RollD20(r Roller, modifier int) (*CheckResult, error) {
	result, err := r.Roll(1, 20, modifier)
	if err != nil {
		return nil, err
	}

	return &CheckResult{
		Roll:           result.Natural(),
		Modifier:       modifier,
		Total:          result.Total,
		IsCritical:     result.IsCrit,
		IsCriticalFail: result.IsFumble,
	}, nil
}

// RollAbilityCheck rolls d20 + ability modifier, adding the proficiency bonus only when proficient
func RollAbilityCheck(r Roller, abilityModifier int, hasProficiency bool, proficiencyBonus int) (*CheckResult, error) {
	modifier := abilityModifier
	if hasProficiency {
		modifier += proficiencyBonus
	}
	return RollD20(r, modifier)
}

func (c *CheckResult) String() string {
	switch {
	case c.IsCritical:
		return fmt.Sprintf("**%d** (natural 20)", c.Total)
	case c.IsCriticalFail:
		return fmt.Sprintf("**%d** (natural 1)", c.Total)
	}
	return fmt.Sprintf("**%d** (%d%+d)", c.Total, c.Roll, c.Modifier)
}
