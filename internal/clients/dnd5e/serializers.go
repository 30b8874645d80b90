package dnd5e

import (
	"strings"

	"github.com/KirkDiggler/dnd-narrator/internal/entities"
	apiEntities "github.com/fadedpez/dnd5e-api/entities"
)

// skillAbilities maps SRD skill proficiency keys to the ability each skill uses
var skillAbilities = map[string]entities.Ability{
	"skill-acrobatics":      entities.AbilityDexterity,
	"skill-animal-handling": entities.AbilityWisdom,
	"skill-arcana":          entities.AbilityIntelligence,
	"skill-athletics":       entities.AbilityStrength,
	"skill-deception":       entities.AbilityCharisma,
	"skill-history":         entities.AbilityIntelligence,
	"skill-insight":         entities.AbilityWisdom,
	"skill-intimidation":    entities.AbilityCharisma,
	"skill-investigation":   entities.AbilityIntelligence,
	"skill-medicine":        entities.AbilityWisdom,
	"skill-nature":          entities.AbilityIntelligence,
	"skill-perception":      entities.AbilityWisdom,
	"skill-performance":     entities.AbilityCharisma,
	"skill-persuasion":      entities.AbilityCharisma,
	"skill-religion":        entities.AbilityIntelligence,
	"skill-sleight-of-hand": entities.AbilityDexterity,
	"skill-stealth":         entities.AbilityDexterity,
	"skill-survival":        entities.AbilityWisdom,
}

// SkillAbility returns the governing ability of a skill in any spelling
func SkillAbility(skill string) (entities.Ability, bool) {
	a, ok := skillAbilities["skill-"+strings.ReplaceAll(entities.NormalizeSkill(skill), "_", "-")]
	return a, ok
}

func apiProficiencyToSkill(key string, input *apiEntities.Proficiency) *entities.ReferenceEntry {
	entry := &entities.ReferenceEntry{
		Category: CategorySkills,
		Key:      entities.NormalizeSkill(key),
		Ability:  skillAbilities[key],
	}

	if input != nil && input.Name != "" {
		entry.Name = strings.TrimPrefix(input.Name, "Skill: ")
	} else {
		entry.Name = strings.ReplaceAll(entry.Key, "_", " ")
	}
	entry.Description = "Uses " + string(entry.Ability)

	return entry
}

func apiReferenceItemToEntry(category string, input *apiEntities.ReferenceItem) *entities.ReferenceEntry {
	return &entities.ReferenceEntry{
		Category: category,
		Key:      input.Key,
		Name:     input.Name,
	}
}

func apiReferenceItemsToEntries(category string, input []*apiEntities.ReferenceItem) []*entities.ReferenceEntry {
	output := make([]*entities.ReferenceEntry, 0, len(input))
	for _, item := range input {
		if item == nil || item.Key == "" {
			continue
		}
		output = append(output, apiReferenceItemToEntry(category, item))
	}
	return output
}

var abilityDescriptions = map[entities.Ability]string{
	entities.AbilityStrength:     "Physical power: lifting, climbing, swimming, forcing doors",
	entities.AbilityDexterity:    "Agility and reflexes: balance, stealth, fine manipulation",
	entities.AbilityConstitution: "Endurance: holding breath, resisting poison, long marches",
	entities.AbilityIntelligence: "Reasoning and memory: recalling lore, investigating clues",
	entities.AbilityWisdom:       "Perception and insight: noticing things, reading people, survival",
	entities.AbilityCharisma:     "Force of personality: persuading, deceiving, performing",
}

func abilityScoreEntries() []*entities.ReferenceEntry {
	out := make([]*entities.ReferenceEntry, 0, len(entities.Abilities))
	for _, a := range entities.Abilities {
		out = append(out, &entities.ReferenceEntry{
			Category:    CategoryAbilityScores,
			Key:         a.Short(),
			Name:        string(a),
			Description: abilityDescriptions[a],
			Ability:     a,
		})
	}
	return out
}
