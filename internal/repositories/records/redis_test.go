package records

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	dnderr "github.com/KirkDiggler/dnd-narrator/internal/errors"
	"github.com/KirkDiggler/dnd-narrator/internal/events"
	"github.com/KirkDiggler/dnd-narrator/internal/repositories/records/mocks"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type RedisRepoTestSuite struct {
	suite.Suite
	mockClient   *redis.Client
	mock         redismock.ClientMock
	repo         Repository
	mockCtrl     *gomock.Controller
	timeProvider *mocks.MockTimeProvider
	now          time.Time
}

func (s *RedisRepoTestSuite) SetupTest() {
	s.mockClient, s.mock = redismock.NewClientMock()
	s.mockCtrl = gomock.NewController(s.T())
	s.timeProvider = mocks.NewMockTimeProvider(s.mockCtrl)
	s.repo = NewRedis(s.mockClient, s.timeProvider)
	s.now = time.Date(2024, 5, 1, 18, 0, 0, 0, time.UTC)
}

func (s *RedisRepoTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
	s.NoError(s.mock.ExpectationsWereMet())
}

func TestRedisRepoTestSuite(t *testing.T) {
	suite.Run(t, new(RedisRepoTestSuite))
}

func (s *RedisRepoTestSuite) record(id string) *events.Record {
	return &events.Record{
		ID:        id,
		SessionID: "session-1",
		Kind:      events.RecordStateTransition,
		Payload:   json.RawMessage(`{"unit":"COMBAT_EVENT"}`),
		CreatedAt: s.now,
	}
}

func (s *RedisRepoTestSuite) encoded(record *events.Record) string {
	jsonData, err := json.Marshal(toData(record))
	s.Require().NoError(err)
	return string(jsonData)
}

func (s *RedisRepoTestSuite) TestAppend() {
	ctx := context.Background()
	record := s.record("rec-1")

	// Happy path
	s.mock.ExpectTxPipeline()
	s.mock.ExpectSet("record:rec-1", s.encoded(record), 0).SetVal("OK")
	s.mock.ExpectRPush("session:session-1:records", "rec-1").SetVal(1)
	s.mock.ExpectSAdd(sessionIndexKey, "session-1").SetVal(1)
	s.mock.ExpectTxPipelineExec()

	s.NoError(s.repo.Append(ctx, record))
	s.NoError(s.mock.ExpectationsWereMet())

	// Dependency error
	s.mock.ExpectTxPipeline()
	s.mock.ExpectSet("record:rec-1", s.encoded(record), 0).SetErr(errors.New("redis error"))

	s.Error(s.repo.Append(ctx, record))
	s.mock.ClearExpect()

	// Input validation
	s.True(dnderr.IsInvalidArgument(s.repo.Append(ctx, nil)))
	s.True(dnderr.IsInvalidArgument(s.repo.Append(ctx, &events.Record{ID: "rec-2"})))
	s.True(dnderr.IsInvalidArgument(s.repo.Append(ctx, &events.Record{SessionID: "session-1"})))
}

func (s *RedisRepoTestSuite) TestAppend_StampsCreatedAt() {
	record := s.record("rec-1")
	record.CreatedAt = time.Time{}
	s.timeProvider.EXPECT().Now().Return(s.now)

	stamped := s.record("rec-1")

	s.mock.ExpectTxPipeline()
	s.mock.ExpectSet("record:rec-1", s.encoded(stamped), 0).SetVal("OK")
	s.mock.ExpectRPush("session:session-1:records", "rec-1").SetVal(1)
	s.mock.ExpectSAdd(sessionIndexKey, "session-1").SetVal(1)
	s.mock.ExpectTxPipelineExec()

	s.NoError(s.repo.Append(context.Background(), record))
	s.Equal(s.now, record.CreatedAt)
}

func (s *RedisRepoTestSuite) TestGet() {
	ctx := context.Background()
	record := s.record("rec-1")

	// Happy path
	s.mock.ExpectGet("record:rec-1").SetVal(s.encoded(record))

	got, err := s.repo.Get(ctx, "rec-1")
	s.Require().NoError(err)
	s.Equal(record.ID, got.ID)
	s.Equal(events.RecordStateTransition, got.Kind)
	s.JSONEq(`{"unit":"COMBAT_EVENT"}`, string(got.Payload))
	s.True(s.now.Equal(got.CreatedAt))

	// Not found
	s.mock.ExpectGet("record:missing").RedisNil()

	_, err = s.repo.Get(ctx, "missing")
	s.True(dnderr.IsNotFound(err))

	// Dependency error
	s.mock.ExpectGet("record:rec-1").SetErr(errors.New("redis error"))

	_, err = s.repo.Get(ctx, "rec-1")
	s.Error(err)
	s.False(dnderr.IsNotFound(err))

	// Corrupt payload
	s.mock.ExpectGet("record:rec-1").SetVal("not json")

	_, err = s.repo.Get(ctx, "rec-1")
	s.ErrorContains(err, "unmarshal")

	// Input validation
	_, err = s.repo.Get(ctx, "")
	s.True(dnderr.IsInvalidArgument(err))
}

func (s *RedisRepoTestSuite) TestListBySession() {
	ctx := context.Background()
	first := s.record("rec-1")
	second := s.record("rec-2")
	second.Kind = events.RecordRuleResult

	// Happy path, the gets run concurrently
	s.mock.MatchExpectationsInOrder(false)
	s.mock.ExpectLRange("session:session-1:records", 0, -1).SetVal([]string{"rec-1", "rec-2"})
	s.mock.ExpectGet("record:rec-2").SetVal(s.encoded(second))
	s.mock.ExpectGet("record:rec-1").SetVal(s.encoded(first))

	got, err := s.repo.ListBySession(ctx, "session-1")
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal("rec-1", got[0].ID)
	s.Equal("rec-2", got[1].ID)
	s.Equal(events.RecordRuleResult, got[1].Kind)
	s.NoError(s.mock.ExpectationsWereMet())
	s.mock.MatchExpectationsInOrder(true)

	// Dependency error
	s.mock.ExpectLRange("session:session-1:records", 0, -1).SetErr(errors.New("redis error"))

	_, err = s.repo.ListBySession(ctx, "session-1")
	s.Error(err)

	// Dangling id
	s.mock.ExpectLRange("session:session-1:records", 0, -1).SetVal([]string{"rec-9"})
	s.mock.ExpectGet("record:rec-9").RedisNil()

	_, err = s.repo.ListBySession(ctx, "session-1")
	s.ErrorContains(err, "rec-9")

	// Input validation
	_, err = s.repo.ListBySession(ctx, "")
	s.True(dnderr.IsInvalidArgument(err))
}

func (s *RedisRepoTestSuite) TestListSessions() {
	ctx := context.Background()

	s.mock.ExpectSMembers(sessionIndexKey).SetVal([]string{"session-1", "session-2"})

	ids, err := s.repo.ListSessions(ctx)
	s.NoError(err)
	s.ElementsMatch([]string{"session-1", "session-2"}, ids)

	s.mock.ExpectSMembers(sessionIndexKey).SetErr(errors.New("redis error"))

	_, err = s.repo.ListSessions(ctx)
	s.Error(err)
}
