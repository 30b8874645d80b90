package events_test

import (
	"context"
	"testing"
	"time"

	"github.com/KirkDiggler/dnd-narrator/internal/clients/oracle"
	mockoracle "github.com/KirkDiggler/dnd-narrator/internal/clients/oracle/mock"
	"github.com/KirkDiggler/dnd-narrator/internal/continuity"
	"github.com/KirkDiggler/dnd-narrator/internal/entities"
	dnderr "github.com/KirkDiggler/dnd-narrator/internal/errors"
	"github.com/KirkDiggler/dnd-narrator/internal/events"
	"github.com/KirkDiggler/dnd-narrator/internal/history"
	"github.com/KirkDiggler/dnd-narrator/internal/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type GeneratorTestSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	oracle    *mockoracle.MockClient
	generator events.Generator
	now       time.Time
	input     *events.GenerateInput
}

func (s *GeneratorTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.oracle = mockoracle.NewMockClient(s.ctrl)
	s.now = time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC)
	s.generator = events.NewGenerator(&events.GeneratorConfig{
		Oracle:   s.oracle,
		Analyzer: history.NewAnalyzer(nil),
		IDs:      uuid.NewSequenceGenerator("evt"),
		Now:      func() time.Time { return s.now },
	})

	s.input = &events.GenerateInput{
		Type:       events.EventTypeNPCEncounter,
		Priority:   80,
		Reason:     "first_visit",
		Location:   "Harbor Ward",
		QuestStage: "find the smuggler",
		History: []*entities.HistoryEvent{
			{Type: entities.HistoryNarration, Description: "The innkeeper hands you a map of the harbor."},
			{Type: entities.HistoryPlayerAction, Description: "I ask about the tavern"},
		},
	}
}

func (s *GeneratorTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestGeneratorTestSuite(t *testing.T) {
	suite.Run(t, new(GeneratorTestSuite))
}

func (s *GeneratorTestSuite) TestGenerate_BuildsEvent() {
	s.oracle.EXPECT().Generate(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, messages []oracle.Message, system string) (string, error) {
			s.Require().Len(messages, 1)
			prompt := messages[0].Content
			s.Contains(prompt, "Write an encounter with a non-player character.")
			s.Contains(prompt, "Current location: Harbor Ward")
			s.Contains(prompt, "Current quest stage: find the smuggler")
			s.Contains(prompt, "- [player_action] I ask about the tavern")
			s.Contains(prompt, "Characters already in the story: innkeeper")
			s.Contains(prompt, "Continuity: The event may involve")
			s.Contains(system, "game master")
			return "```\nThe innkeeper waves you over. He has news.\n```", nil
		})

	event, err := s.generator.Generate(context.Background(), s.input)
	s.Require().NoError(err)

	s.Equal("evt-1", event.ID)
	s.Equal(events.EventTypeNPCEncounter, event.Type)
	s.Equal("The innkeeper waves you over", event.Title)
	s.Equal("The innkeeper waves you over. He has news.", event.Description)
	s.Equal(80, event.Priority)
	s.Equal(s.now, event.CreatedAt)
	s.Equal(continuity.LinkDirectReference, event.Connections.Primary)
	s.Equal(events.Metadata{
		RelatedNPCs:      []string{"innkeeper"},
		RelatedQuests:    []string{"find the smuggler"},
		RelatedLocations: []string{"Harbor Ward", "tavern"},
	}, event.Metadata)
}

func (s *GeneratorTestSuite) TestGenerate_EveryTypeHasAPrompt() {
	s.oracle.EXPECT().Generate(gomock.Any(), gomock.Any(), gomock.Any()).
		Return("Something happens.", nil).
		Times(len(events.AllEventTypes))

	for _, et := range events.AllEventTypes {
		s.input.Type = et
		event, err := s.generator.Generate(context.Background(), s.input)
		s.Require().NoError(err, et)
		s.Equal(et, event.Type)
	}
}

func (s *GeneratorTestSuite) TestGenerate_UnknownType() {
	s.input.Type = "DRAGON_ATTACK"

	_, err := s.generator.Generate(context.Background(), s.input)
	s.True(dnderr.IsInvalidArgument(err))
}

func (s *GeneratorTestSuite) TestGenerate_NilInput() {
	_, err := s.generator.Generate(context.Background(), nil)
	s.True(dnderr.IsInvalidArgument(err))
}

func (s *GeneratorTestSuite) TestGenerate_OracleTimeout() {
	s.oracle.EXPECT().Generate(gomock.Any(), gomock.Any(), gomock.Any()).
		Return("", context.DeadlineExceeded)

	_, err := s.generator.Generate(context.Background(), s.input)
	s.Equal(dnderr.CodeOracleTimeout, dnderr.GetCode(err))
}

func (s *GeneratorTestSuite) TestGenerate_OnlyFences() {
	s.oracle.EXPECT().Generate(gomock.Any(), gomock.Any(), gomock.Any()).
		Return("```json\n```", nil)

	_, err := s.generator.Generate(context.Background(), s.input)
	s.Equal(dnderr.CodeMalformedJudgment, dnderr.GetCode(err))
}

func (s *GeneratorTestSuite) TestGenerate_NoLocationNoQuest() {
	s.input.Location = ""
	s.input.QuestStage = ""
	s.input.History = nil

	s.oracle.EXPECT().Generate(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, messages []oracle.Message, _ string) (string, error) {
			s.Contains(messages[0].Content, "Current location: unknown")
			s.NotContains(messages[0].Content, "Current quest stage")
			s.NotContains(messages[0].Content, "Continuity:")
			return "A stranger bumps into you.", nil
		})

	event, err := s.generator.Generate(context.Background(), s.input)
	s.Require().NoError(err)
	s.Equal(events.Metadata{
		RelatedNPCs:      []string{},
		RelatedQuests:    []string{},
		RelatedLocations: []string{},
	}, event.Metadata)
	s.Equal(continuity.LinkNone, event.Connections.Primary)
}

func TestNewGenerator_RequiresOracle(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic without oracle")
		}
	}()
	events.NewGenerator(&events.GeneratorConfig{Analyzer: history.NewAnalyzer(nil)})
}
