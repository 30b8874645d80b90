package records_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	dnderr "github.com/KirkDiggler/dnd-narrator/internal/errors"
	"github.com/KirkDiggler/dnd-narrator/internal/events"
	"github.com/KirkDiggler/dnd-narrator/internal/repositories/records"
	"github.com/KirkDiggler/dnd-narrator/internal/repositories/records/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestInMemoryRepository(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	now := time.Date(2024, 5, 1, 18, 0, 0, 0, time.UTC)
	clock := mocks.NewMockTimeProvider(ctrl)
	clock.EXPECT().Now().Return(now).Times(2)

	repo := records.NewInMemoryRepository(clock)

	for _, r := range []*events.Record{
		{ID: "a-1", SessionID: "a", Kind: events.RecordParsedAction, Payload: json.RawMessage(`{}`)},
		{ID: "b-1", SessionID: "b", Kind: events.RecordRuleResult, Payload: json.RawMessage(`{}`)},
		{ID: "a-2", SessionID: "a", Kind: events.RecordRuleResult, Payload: json.RawMessage(`{}`), CreatedAt: now.Add(time.Second)},
	} {
		require.NoError(t, repo.Append(ctx, r))
	}

	got, err := repo.ListBySession(ctx, "a")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a-1", got[0].ID)
	assert.Equal(t, now, got[0].CreatedAt)
	assert.Equal(t, "a-2", got[1].ID)
	assert.Equal(t, now.Add(time.Second), got[1].CreatedAt)

	// returned records are copies
	got[0].Kind = events.RecordGeneratedEvent
	again, err := repo.Get(ctx, "a-1")
	require.NoError(t, err)
	assert.Equal(t, events.RecordParsedAction, again.Kind)

	sessions, err := repo.ListSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, sessions)

	empty, err := repo.ListBySession(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = repo.Get(ctx, "missing")
	assert.True(t, dnderr.IsNotFound(err))

	_, err = repo.Get(ctx, "")
	assert.True(t, dnderr.IsInvalidArgument(err))
	_, err = repo.ListBySession(ctx, "")
	assert.True(t, dnderr.IsInvalidArgument(err))
	assert.True(t, dnderr.IsInvalidArgument(repo.Append(ctx, nil)))
}

func TestSink_AppendsPublishedRecords(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockRepository(ctrl)
	bus := events.NewBus()

	sink := records.NewSink(&records.SinkConfig{Repository: repo})
	sink.Attach(bus)

	record, err := events.NewRecord("rec-1", "session-1", events.RecordGeneratedEvent, map[string]int{"priority": 80}, time.Now())
	require.NoError(t, err)

	repo.EXPECT().Append(gomock.Any(), record).Return(nil)
	require.NoError(t, bus.Publish(record))

	repo.EXPECT().Append(gomock.Any(), record).Return(dnderr.Internal("disk full"))
	err = bus.Publish(record)
	require.Error(t, err)
	assert.True(t, dnderr.IsInternal(err))
}
