package dnd5e

//go:generate mockgen -destination=mock/mock_client.go -package=mockdnd5e . Client

import (
	"context"

	"github.com/KirkDiggler/dnd-narrator/internal/entities"
)

// Category names served by the rules reference client
const (
	CategorySkills        = "skills"
	CategoryAbilityScores = "ability-scores"
	CategoryClasses       = "classes"
	CategoryRaces         = "races"
	CategoryEquipment     = "equipment"
	CategorySpells        = "spells"
)

// Client is the rules reference service
type Client interface {
	// ListCategories returns category name to description
	ListCategories(ctx context.Context) map[string]string

	// FetchCategory returns the entries of one category
	FetchCategory(ctx context.Context, name string) ([]*entities.ReferenceEntry, error)
}
