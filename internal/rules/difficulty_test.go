package rules_test

import (
	"testing"

	"github.com/KirkDiggler/dnd-narrator/internal/entities"
	"github.com/KirkDiggler/dnd-narrator/internal/rules"
	"github.com/stretchr/testify/assert"
)

func TestDifficultyTable_Resolve(t *testing.T) {
	table := rules.DefaultDifficultyTable()

	tests := []struct {
		name string
		dc   entities.DifficultyClass
		want int
	}{
		{name: "very easy", dc: entities.DCTier("very_easy"), want: 5},
		{name: "easy", dc: entities.DCTier("easy"), want: 10},
		{name: "medium", dc: entities.DCTier("medium"), want: 15},
		{name: "hard", dc: entities.DCTier("Hard"), want: 20},
		{name: "very hard with space", dc: entities.DCTier("very hard"), want: 25},
		{name: "nearly impossible with hyphen", dc: entities.DCTier("nearly-impossible"), want: 30},
		{name: "numeric passes through", dc: entities.DCValue(17), want: 17},
		{name: "unknown tier", dc: entities.DCTier("tricky"), want: 15},
		{name: "empty", dc: entities.DifficultyClass{}, want: 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, table.Resolve(tt.dc))
		})
	}
}

func TestNewDifficultyTable_Overrides(t *testing.T) {
	table := rules.NewDifficultyTable(map[string]int{"hard": 18, "medium": 0})

	v, ok := table.Lookup("hard")
	assert.True(t, ok)
	assert.Equal(t, 18, v)
	assert.Equal(t, 15, table.Default(), "non-positive override keeps the standard value")
	assert.Len(t, table.Entries(), 6)
}
