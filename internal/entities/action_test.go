package entities_test

import (
	"encoding/json"
	"testing"

	"github.com/KirkDiggler/dnd-narrator/internal/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDifficultyClass_JSON(t *testing.T) {
	var numeric entities.DifficultyClass
	require.NoError(t, json.Unmarshal([]byte(`18`), &numeric))
	assert.True(t, numeric.IsNumeric())
	assert.Equal(t, 18, numeric.Value)

	var named entities.DifficultyClass
	require.NoError(t, json.Unmarshal([]byte(`"hard"`), &named))
	assert.False(t, named.IsNumeric())
	assert.Equal(t, "hard", named.String())

	out, err := json.Marshal(entities.DCValue(12))
	require.NoError(t, err)
	assert.Equal(t, `12`, string(out))

	var bad entities.DifficultyClass
	assert.Error(t, json.Unmarshal([]byte(`{"x":1}`), &bad))
}

func TestTrivialAction(t *testing.T) {
	action := entities.TrivialAction()
	assert.True(t, action.IsPossible)
	assert.False(t, action.RequiresCheck)
	assert.False(t, action.RequiresDiceRoll)
	assert.Equal(t, "trivial", action.Intent)
	assert.Empty(t, action.Skill)
}

func TestLastN(t *testing.T) {
	events := []*entities.HistoryEvent{
		{Type: entities.HistoryPlayerAction},
		{Type: entities.HistoryNarration},
		{Type: entities.HistoryPlayerAction},
	}

	assert.Len(t, entities.LastN(events, 2), 2)
	assert.Len(t, entities.LastN(events, 0), 3)
	assert.Len(t, entities.LastN(events, 10), 3)
	assert.Equal(t, 2, entities.CountByType(events, entities.HistoryPlayerAction))
}
