package testutils

import "github.com/KirkDiggler/dnd-narrator/internal/entities"

// CreateTestCharacter creates a level 3 character with strength 16 and athletics
func CreateTestCharacter(name string) *entities.CharacterSheet {
	return &entities.CharacterSheet{
		Name:  name,
		Class: "fighter",
		Race:  "half-orc",
		Level: 3,
		Abilities: map[entities.Ability]int{
			entities.AbilityStrength:     16,
			entities.AbilityDexterity:    12,
			entities.AbilityConstitution: 14,
			entities.AbilityIntelligence: 8,
			entities.AbilityWisdom:       10,
			entities.AbilityCharisma:     10,
		},
		ProficientSkills: []string{"athletics", "perception"},
		HitPoints:        28,
		MaxHitPoints:     28,
		Equipment:        []string{"longsword", "rope"},
	}
}
