package rules

import (
	"strings"

	"github.com/KirkDiggler/dnd-narrator/internal/entities"
)

// Tier names for the difficulty table
const (
	TierVeryEasy         = "very_easy"
	TierEasy             = "easy"
	TierMedium           = "medium"
	TierHard             = "hard"
	TierVeryHard         = "very_hard"
	TierNearlyImpossible = "nearly_impossible"
)

// Tiers lists the tier names from easiest to hardest
var Tiers = []string{TierVeryEasy, TierEasy, TierMedium, TierHard, TierVeryHard, TierNearlyImpossible}

// DifficultyTable maps named tiers to DC values
type DifficultyTable struct {
	tiers       map[string]int
	defaultTier string
}

// DefaultDifficultyTable returns the standard tier table
func DefaultDifficultyTable() *DifficultyTable {
	return NewDifficultyTable(map[string]int{
		TierVeryEasy:         5,
		TierEasy:             10,
		TierMedium:           15,
		TierHard:             20,
		TierVeryHard:         25,
		TierNearlyImpossible: 30,
	})
}

// NewDifficultyTable builds a table from tier values. Missing tiers keep their standard value.
func NewDifficultyTable(tiers map[string]int) *DifficultyTable {
	table := &DifficultyTable{
		tiers:       make(map[string]int, len(Tiers)),
		defaultTier: TierMedium,
	}
	standard := map[string]int{
		TierVeryEasy: 5, TierEasy: 10, TierMedium: 15,
		TierHard: 20, TierVeryHard: 25, TierNearlyImpossible: 30,
	}
	for _, name := range Tiers {
		if v, ok := tiers[name]; ok && v > 0 {
			table.tiers[name] = v
			continue
		}
		table.tiers[name] = standard[name]
	}
	return table
}

// Default returns the DC used when an estimate cannot be resolved
func (t *DifficultyTable) Default() int {
	return t.tiers[t.defaultTier]
}

// Lookup returns the DC for a tier name, accepting "Very Hard" and "very-hard" spellings
func (t *DifficultyTable) Lookup(tier string) (int, bool) {
	key := strings.ToLower(strings.TrimSpace(tier))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	v, ok := t.tiers[key]
	return v, ok
}

// Resolve turns an estimated DC into a number: numbers pass through,
// tiers are looked up and anything else gets the default.
func (t *DifficultyTable) Resolve(dc entities.DifficultyClass) int {
	if dc.IsNumeric() {
		return dc.Value
	}
	if v, ok := t.Lookup(dc.Tier); ok {
		return v
	}
	return t.Default()
}

// Entries returns the table as reference entries
func (t *DifficultyTable) Entries() []*entities.ReferenceEntry {
	out := make([]*entities.ReferenceEntry, 0, len(Tiers))
	for _, name := range Tiers {
		out = append(out, &entities.ReferenceEntry{
			Category: "difficulty-classes",
			Key:      name,
			Name:     strings.ReplaceAll(name, "_", " "),
			Value:    t.tiers[name],
		})
	}
	return out
}
