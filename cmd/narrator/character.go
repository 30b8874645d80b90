package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/KirkDiggler/dnd-narrator/internal/entities"
)

// loadCharacter reads a character sheet from path, or returns the pregenerated rogue
func loadCharacter(path string) (*entities.CharacterSheet, error) {
	if path == "" {
		return pregeneratedRogue(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read character: %w", err)
	}

	var sheet entities.CharacterSheet
	if err := json.Unmarshal(data, &sheet); err != nil {
		return nil, fmt.Errorf("decode character %s: %w", path, err)
	}
	if sheet.Name == "" {
		return nil, fmt.Errorf("character %s has no name", path)
	}
	return &sheet, nil
}

func pregeneratedRogue() *entities.CharacterSheet {
	return &entities.CharacterSheet{
		Name:  "Vex",
		Class: "rogue",
		Race:  "halfling",
		Level: 2,
		Abilities: map[entities.Ability]int{
			entities.AbilityStrength:     8,
			entities.AbilityDexterity:    16,
			entities.AbilityConstitution: 12,
			entities.AbilityIntelligence: 13,
			entities.AbilityWisdom:       12,
			entities.AbilityCharisma:     14,
		},
		ProficientSkills: []string{"stealth", "sleight-of-hand", "acrobatics", "persuasion"},
		HitPoints:        15,
		MaxHitPoints:     15,
		Equipment:        []string{"shortsword", "thieves' tools", "lantern"},
	}
}
