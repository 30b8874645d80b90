package rules

import (
	"context"
	"log"

	"github.com/KirkDiggler/dnd-narrator/internal/dice"
	"github.com/KirkDiggler/dnd-narrator/internal/entities"
	dnderr "github.com/KirkDiggler/dnd-narrator/internal/errors"
)

// partialMargin is how far below the DC a total may land and still partially succeed
const partialMargin = 3

// Resolver turns a parsed action and a character sheet into a check result
type Resolver interface {
	Resolve(ctx context.Context, input *ResolveInput) (*entities.RuleResult, error)
}

// ResolveInput carries everything a check needs
type ResolveInput struct {
	Action    *entities.ParsedAction
	Character *entities.CharacterSheet
	// Context is ambient scene information; it does not change the arithmetic
	Context map[string]string
}

type resolver struct {
	roller dice.Roller
	table  *DifficultyTable
}

// ResolverConfig holds configuration for the resolver
type ResolverConfig struct {
	Roller dice.Roller      // Required
	Table  *DifficultyTable // Optional, standard tiers if nil
}

// NewResolver creates a new rule resolver
func NewResolver(cfg *ResolverConfig) Resolver {
	if cfg.Roller == nil {
		panic("roller is required")
	}

	r := &resolver{
		roller: cfg.Roller,
		table:  cfg.Table,
	}
	if r.table == nil {
		r.table = DefaultDifficultyTable()
	}
	return r
}

// Resolve rolls the check described by the action
func (r *resolver) Resolve(_ context.Context, input *ResolveInput) (*entities.RuleResult, error) {
	if input == nil || input.Action == nil {
		return nil, dnderr.InvalidArgument("action is required")
	}
	if input.Character == nil {
		return nil, dnderr.InvalidArgument("character is required")
	}

	action := input.Action
	sheet := input.Character

	ability, ok := entities.ParseAbility(string(action.Ability))
	if !ok {
		log.Printf("RuleResolver: unknown ability %q for %s, using neutral modifier", action.Ability, sheet.Name)
	}

	dc := r.table.Resolve(action.EstimatedDC)
	modifier := sheet.Modifier(ability)
	proficient := sheet.HasSkill(action.Skill)
	bonus := sheet.ProficiencyBonus()

	check, err := dice.RollAbilityCheck(r.roller, modifier, proficient, bonus)
	if err != nil {
		return nil, dnderr.Wrap(err, "failed to roll ability check").
			WithMeta("ability", string(ability)).
			WithMeta("skill", action.Skill)
	}

	result := &entities.RuleResult{
		Skill:           action.Skill,
		Ability:         ability,
		DC:              dc,
		Roll:            check.Roll,
		AbilityModifier: modifier,
		Total:           check.Total,
		Outcome:         Outcome(check.Total, dc),
		IsCritical:      check.IsCritical,
		IsCriticalFail:  check.IsCriticalFail,
	}
	if proficient {
		result.ProficiencyBonus = bonus
	}

	log.Printf("RuleResolver: %s %s/%s rolled %d, total %d vs DC %d: %s",
		sheet.Name, ability, action.Skill, check.Roll, check.Total, dc, result.Outcome)

	return result, nil
}

// Outcome applies the three-tier rule: success at or above the DC,
// partial success within three below it, failure otherwise
func Outcome(total, dc int) entities.Outcome {
	switch {
	case total >= dc:
		return entities.OutcomeSuccess
	case total >= dc-partialMargin:
		return entities.OutcomePartialSuccess
	default:
		return entities.OutcomeFailure
	}
}
