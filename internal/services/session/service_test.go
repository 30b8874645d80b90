package session_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	mockdice "github.com/KirkDiggler/dnd-narrator/internal/dice/mock"
	"github.com/KirkDiggler/dnd-narrator/internal/entities"
	dnderr "github.com/KirkDiggler/dnd-narrator/internal/errors"
	"github.com/KirkDiggler/dnd-narrator/internal/events"
	mockevents "github.com/KirkDiggler/dnd-narrator/internal/events/mock"
	"github.com/KirkDiggler/dnd-narrator/internal/history"
	"github.com/KirkDiggler/dnd-narrator/internal/interpreter"
	mockinterpreter "github.com/KirkDiggler/dnd-narrator/internal/interpreter/mock"
	"github.com/KirkDiggler/dnd-narrator/internal/narrative"
	"github.com/KirkDiggler/dnd-narrator/internal/repositories/records"
	"github.com/KirkDiggler/dnd-narrator/internal/rules"
	"github.com/KirkDiggler/dnd-narrator/internal/services/session"
	"github.com/KirkDiggler/dnd-narrator/internal/testutils"
	"github.com/KirkDiggler/dnd-narrator/internal/triggers"
	mocktriggers "github.com/KirkDiggler/dnd-narrator/internal/triggers/mock"
	"github.com/KirkDiggler/dnd-narrator/internal/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

const sessionID = "session-1"

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type ServiceTestSuite struct {
	suite.Suite
	ctrl        *gomock.Controller
	interpreter *mockinterpreter.MockInterpreter
	generator   *mockevents.MockGenerator
	roller      *mockdice.ManualMockRoller
	repo        *records.InMemoryRepository
	clock       *clock
	character   *entities.CharacterSheet
	service     session.Service
	ctx         context.Context
}

func (s *ServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.ctrl = gomock.NewController(s.T())
	s.interpreter = mockinterpreter.NewMockInterpreter(s.ctrl)
	s.generator = mockevents.NewMockGenerator(s.ctrl)
	s.roller = mockdice.NewManualMockRoller()
	s.clock = &clock{now: time.Date(2024, 5, 1, 18, 0, 0, 0, time.UTC)}
	s.repo = records.NewInMemoryRepository(records.RealTime())
	s.character = testutils.CreateTestCharacter("Brakka")

	s.service = s.newService(&triggersConfig{})
}

type triggersConfig struct {
	arbiter triggers.Arbiter
	bus     *events.Bus
}

func (s *ServiceTestSuite) newService(tc *triggersConfig) session.Service {
	arbiter := tc.arbiter
	if arbiter == nil {
		arbiter = triggers.NewArbiter(&triggers.ArbiterConfig{
			Analyzer: history.NewAnalyzer(nil),
			Now:      s.clock.Now,
		})
	}
	bus := tc.bus
	if bus == nil {
		bus = events.NewBus()
		records.NewSink(&records.SinkConfig{Repository: s.repo}).Attach(bus)
	}

	return session.NewService(&session.ServiceConfig{
		Interpreter: s.interpreter,
		Resolver:    rules.NewResolver(&rules.ResolverConfig{Roller: s.roller}),
		Generator:   s.generator,
		Arbiter:     arbiter,
		Bus:         bus,
		IDs:         uuid.NewSequenceGenerator("rec"),
		Now:         s.clock.Now,
	})
}

func (s *ServiceTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}

func (s *ServiceTestSuite) recordKinds() []events.RecordKind {
	recs, err := s.repo.ListBySession(s.ctx, sessionID)
	s.Require().NoError(err)

	kinds := make([]events.RecordKind, 0, len(recs))
	for _, r := range recs {
		kinds = append(kinds, r.Kind)
	}
	return kinds
}

func swimAction() *entities.ParsedAction {
	return &entities.ParsedAction{
		IsPossible:       true,
		RequiresCheck:    true,
		RequiresDiceRoll: true,
		Intent:           "swim across the river",
		Ability:          entities.AbilityStrength,
		Skill:            "athletics",
		EstimatedDC:      entities.DCTier("hard"),
		Modifiers:        []string{"strong current"},
		RequiredItems:    []string{},
	}
}

func (s *ServiceTestSuite) TestProcessAction_SwimScenario() {
	s.interpreter.EXPECT().Interpret(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, input *interpreter.InterpretInput) (*entities.ParsedAction, error) {
			s.Equal("I swim across the river", input.Action)
			s.Equal("river crossing", input.Scene.Location)
			s.Empty(input.Scene.History)
			return swimAction(), nil
		})
	s.roller.SetNextRoll(14)

	outcome, err := s.service.ProcessAction(s.ctx, sessionID, &session.ProcessActionInput{
		Action:    "I swim across the river",
		Character: s.character,
		Location:  "river crossing",
	})
	s.Require().NoError(err)

	s.Require().NotNil(outcome.Result)
	s.Equal(14, outcome.Result.Roll)
	s.Equal(3, outcome.Result.AbilityModifier)
	s.Equal(2, outcome.Result.ProficiencyBonus)
	s.Equal(19, outcome.Result.Total)
	s.Equal(20, outcome.Result.DC)
	s.Equal(entities.OutcomePartialSuccess, outcome.Result.Outcome)

	s.Equal([]events.RecordKind{events.RecordParsedAction, events.RecordRuleResult}, s.recordKinds())

	state, err := s.service.State(s.ctx, sessionID)
	s.Require().NoError(err)
	s.Equal(narrative.StateFreeExploration, state.Snapshot.State)
	s.Equal(narrative.UnitPlayerAction, state.Snapshot.LastUnit)
	s.Require().Len(state.History, 1)
	s.Equal(entities.HistoryPlayerAction, state.History[0].Type)
	s.Equal("river crossing", state.History[0].Location)
}

func (s *ServiceTestSuite) TestProcessAction_TrivialSkipsResolver() {
	s.interpreter.EXPECT().Interpret(gomock.Any(), gomock.Any()).Return(entities.TrivialAction(), nil)

	outcome, err := s.service.ProcessAction(s.ctx, sessionID, &session.ProcessActionInput{
		Action:    "I wave",
		Character: s.character,
	})
	s.Require().NoError(err)

	s.Nil(outcome.Result)
	s.Equal([]events.RecordKind{events.RecordParsedAction}, s.recordKinds())
}

func (s *ServiceTestSuite) TestProcessAction_ImpossibleSkipsResolver() {
	action := swimAction()
	action.IsPossible = false
	action.Reason = "the river is frozen solid"
	s.interpreter.EXPECT().Interpret(gomock.Any(), gomock.Any()).Return(action, nil)

	outcome, err := s.service.ProcessAction(s.ctx, sessionID, &session.ProcessActionInput{
		Action:    "I swim across the river",
		Character: s.character,
	})
	s.Require().NoError(err)
	s.Nil(outcome.Result)
	s.Equal(0, s.roller.Remaining())
}

func (s *ServiceTestSuite) TestProcessAction_InterpreterErrorLeavesSessionUntouched() {
	s.interpreter.EXPECT().Interpret(gomock.Any(), gomock.Any()).
		Return(nil, dnderr.InterpreterRejected("that is not an action"))

	_, err := s.service.ProcessAction(s.ctx, sessionID, &session.ProcessActionInput{
		Action:    "asdf",
		Character: s.character,
	})
	s.Require().Error(err)
	s.Equal(dnderr.CodeInterpreterRejected, dnderr.GetCode(err))
	s.Equal(sessionID, dnderr.GetMeta(err)["session_id"])

	state, err := s.service.State(s.ctx, sessionID)
	s.Require().NoError(err)
	s.Empty(state.History)
	s.Equal(narrative.UnitType(""), state.Snapshot.LastUnit)
	s.Empty(s.recordKinds())
}

func (s *ServiceTestSuite) TestProcessAction_ResolverErrorLeavesSessionUntouched() {
	// no roll queued, the roller fails
	s.interpreter.EXPECT().Interpret(gomock.Any(), gomock.Any()).Return(swimAction(), nil)

	_, err := s.service.ProcessAction(s.ctx, sessionID, &session.ProcessActionInput{
		Action:    "I swim across the river",
		Character: s.character,
	})
	s.Require().Error(err)

	state, err := s.service.State(s.ctx, sessionID)
	s.Require().NoError(err)
	s.Empty(state.History)
	s.Empty(s.recordKinds())
}

func (s *ServiceTestSuite) TestProcessAction_PublishFailureLeavesSessionUntouched() {
	bus := events.NewBus()
	bus.SubscribeAll(failingListener{})
	svc := s.newService(&triggersConfig{bus: bus})

	s.interpreter.EXPECT().Interpret(gomock.Any(), gomock.Any()).Return(swimAction(), nil)
	s.roller.SetNextRoll(14)

	_, err := svc.ProcessAction(s.ctx, sessionID, &session.ProcessActionInput{
		Action:    "I swim across the river",
		Character: s.character,
	})
	s.Require().Error(err)
	s.True(dnderr.IsUnavailable(err))
	s.Equal(string(events.RecordParsedAction), dnderr.GetMeta(err)["kind"])

	state, err := svc.State(s.ctx, sessionID)
	s.Require().NoError(err)
	s.Empty(state.History)
	s.Equal(narrative.UnitType(""), state.Snapshot.LastUnit)
}

func (s *ServiceTestSuite) TestProcessAction_RuleResultSinkFailure() {
	bus := events.NewBus()
	records.NewSink(&records.SinkConfig{Repository: s.repo}).Attach(bus)
	bus.Subscribe(events.RecordRuleResult, failingListener{})
	svc := s.newService(&triggersConfig{bus: bus})

	s.interpreter.EXPECT().Interpret(gomock.Any(), gomock.Any()).Return(swimAction(), nil)
	s.roller.SetNextRoll(14)

	_, err := svc.ProcessAction(s.ctx, sessionID, &session.ProcessActionInput{
		Action:    "I swim across the river",
		Character: s.character,
	})
	s.Require().Error(err)
	s.True(dnderr.IsUnavailable(err))
	s.Equal(string(events.RecordRuleResult), dnderr.GetMeta(err)["kind"])

	// the sink runs first and is an append log, the failed call leaves its records behind
	s.Equal([]events.RecordKind{events.RecordParsedAction, events.RecordRuleResult}, s.recordKinds())

	state, err := svc.State(s.ctx, sessionID)
	s.Require().NoError(err)
	s.Empty(state.History)
	s.Equal(narrative.UnitType(""), state.Snapshot.LastUnit)
}

func (s *ServiceTestSuite) TestProcessAction_InvalidInput() {
	_, err := s.service.ProcessAction(s.ctx, "", &session.ProcessActionInput{Action: "x", Character: s.character})
	s.True(dnderr.IsInvalidArgument(err))

	_, err = s.service.ProcessAction(s.ctx, sessionID, &session.ProcessActionInput{Action: "  ", Character: s.character})
	s.True(dnderr.IsInvalidArgument(err))

	_, err = s.service.ProcessAction(s.ctx, sessionID, &session.ProcessActionInput{Action: "I jump"})
	s.True(dnderr.IsInvalidArgument(err))
}

func (s *ServiceTestSuite) TestEmitUnit_CombatFlow() {
	tr, err := s.service.EmitUnit(s.ctx, sessionID, &session.EmitUnitInput{
		Unit:    narrative.UnitCombatEvent,
		Content: "Goblins burst from the reeds.",
	})
	s.Require().NoError(err)
	s.Equal(narrative.StateFreeExploration, tr.From)
	s.Equal(narrative.StateInCombat, tr.To)

	_, err = s.service.EmitUnit(s.ctx, sessionID, &session.EmitUnitInput{
		Unit:    narrative.UnitLocationDescription,
		Content: "The reeds sway gently.",
	})
	s.Require().Error(err)
	s.True(dnderr.IsStateViolation(err))
	s.Equal(sessionID, dnderr.GetMeta(err)["session_id"])

	tr, err = s.service.EndCombat(s.ctx, sessionID)
	s.Require().NoError(err)
	s.Equal(narrative.StateAfterAction, tr.To)

	state, err := s.service.State(s.ctx, sessionID)
	s.Require().NoError(err)
	s.Equal(narrative.StateAfterAction, state.Snapshot.State)
	s.Require().Len(state.History, 1)
	s.Equal(entities.HistoryNarration, state.History[0].Type)

	s.Equal([]events.RecordKind{events.RecordStateTransition, events.RecordStateTransition}, s.recordKinds())
}

func (s *ServiceTestSuite) TestEmitUnit_DialogueAndQuestCompletion() {
	_, err := s.service.EmitUnit(s.ctx, sessionID, &session.EmitUnitInput{Unit: narrative.UnitNPCEncounter})
	s.Require().NoError(err)

	_, err = s.service.EmitUnit(s.ctx, sessionID, &session.EmitUnitInput{Unit: narrative.UnitRandomEvent})
	s.True(dnderr.IsStateViolation(err))

	tr, err := s.service.EndDialogue(s.ctx, sessionID)
	s.Require().NoError(err)
	s.Equal(narrative.StateFreeExploration, tr.To)

	_, err = s.service.EmitUnit(s.ctx, sessionID, &session.EmitUnitInput{Unit: narrative.UnitFinalScene})
	s.True(dnderr.IsStateViolation(err))

	_, err = s.service.CompleteQuest(s.ctx, sessionID)
	s.Require().NoError(err)

	tr, err = s.service.EmitUnit(s.ctx, sessionID, &session.EmitUnitInput{
		Unit:    narrative.UnitFinalScene,
		Content: "The harbor lights burn on.",
	})
	s.Require().NoError(err)
	s.Equal(narrative.StateQuestCompleted, tr.To)
}

func (s *ServiceTestSuite) TestEmitUnit_PublishFailureRestoresState() {
	bus := events.NewBus()
	bus.SubscribeAll(failingListener{})
	svc := s.newService(&triggersConfig{bus: bus})

	_, err := svc.EmitUnit(s.ctx, sessionID, &session.EmitUnitInput{
		Unit:    narrative.UnitCombatEvent,
		Content: "Goblins!",
	})
	s.Require().Error(err)
	s.True(dnderr.IsUnavailable(err))

	state, err := svc.State(s.ctx, sessionID)
	s.Require().NoError(err)
	s.Equal(narrative.StateFreeExploration, state.Snapshot.State)
	s.Empty(state.History)

	_, err = svc.EndCombat(s.ctx, sessionID)
	s.True(dnderr.IsUnavailable(err))
}

func (s *ServiceTestSuite) TestEvaluateTriggers_CommitsOnlyAfterGeneration() {
	scene := &session.SceneInput{Location: "Harbor"}

	// first attempt fails, the first visit is not consumed
	s.generator.EXPECT().Generate(gomock.Any(), gomock.Any()).
		Return(nil, dnderr.WrapOracle(context.DeadlineExceeded, "generate"))

	_, err := s.service.EvaluateTriggers(s.ctx, sessionID, scene)
	s.Require().Error(err)
	s.Equal(dnderr.CodeOracleTimeout, dnderr.GetCode(err))

	s.generator.EXPECT().Generate(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, input *events.GenerateInput) (*events.GeneratedEvent, error) {
			s.Equal(events.EventTypeLocationEvent, input.Type)
			s.Equal(triggers.LocationPriority, input.Priority)
			s.Equal("Harbor", input.Location)
			return &events.GeneratedEvent{
				ID:          "evt-1",
				Type:        input.Type,
				Title:       "Fog over the harbor",
				Description: "Fog over the harbor. A bell tolls.",
				Priority:    input.Priority,
				CreatedAt:   s.clock.Now(),
			}, nil
		})

	outcome, err := s.service.EvaluateTriggers(s.ctx, sessionID, scene)
	s.Require().NoError(err)
	s.Require().NotNil(outcome.Event)
	s.Equal("evt-1", outcome.Event.ID)
	s.Equal(triggers.TriggerLocationBased, outcome.Evaluation.Selected.Type)

	state, err := s.service.State(s.ctx, sessionID)
	s.Require().NoError(err)
	s.Require().Len(state.History, 1)
	s.Equal(entities.HistoryWorldEvent, state.History[0].Type)
	s.Equal([]events.RecordKind{events.RecordGeneratedEvent}, s.recordKinds())

	// the visit is committed now
	outcome, err = s.service.EvaluateTriggers(s.ctx, sessionID, scene)
	s.Require().NoError(err)
	s.Nil(outcome.Event)
	s.Nil(outcome.Evaluation.Selected)
}

func (s *ServiceTestSuite) TestEvaluateTriggers_NothingSelected() {
	arbiter := mocktriggers.NewMockArbiter(s.ctrl)
	svc := s.newService(&triggersConfig{arbiter: arbiter})

	arbiter.EXPECT().Evaluate(gomock.Any(), gomock.Any()).
		DoAndReturn(func(state *triggers.SessionArbiterState, scene *triggers.Scene) *triggers.Evaluation {
			s.Equal(42, scene.StoryProgress)
			s.NotNil(state)
			return &triggers.Evaluation{Active: []*triggers.EventTrigger{}}
		})

	outcome, err := svc.EvaluateTriggers(s.ctx, sessionID, &session.SceneInput{HasQuest: true, StoryProgress: 42})
	s.Require().NoError(err)
	s.Nil(outcome.Event)
}

func (s *ServiceTestSuite) TestEvaluateTriggers_UnmappableTrigger() {
	arbiter := mocktriggers.NewMockArbiter(s.ctrl)
	svc := s.newService(&triggersConfig{arbiter: arbiter})

	selected := &triggers.EventTrigger{Type: "TIME_BASED", Priority: 90}
	arbiter.EXPECT().Evaluate(gomock.Any(), gomock.Any()).Return(&triggers.Evaluation{
		Active:   []*triggers.EventTrigger{selected},
		Selected: selected,
	})

	_, err := svc.EvaluateTriggers(s.ctx, sessionID, nil)
	s.True(dnderr.IsInvalidArgument(err))
}

func (s *ServiceTestSuite) TestResetSession() {
	_, err := s.service.EmitUnit(s.ctx, sessionID, &session.EmitUnitInput{
		Unit:    narrative.UnitCombatEvent,
		Content: "Goblins!",
	})
	s.Require().NoError(err)

	s.Require().NoError(s.service.ResetSession(s.ctx, sessionID))

	state, err := s.service.State(s.ctx, sessionID)
	s.Require().NoError(err)
	s.Equal(narrative.StateFreeExploration, state.Snapshot.State)
	s.Empty(state.History)
	s.Len(state.AllowedUnits, len(narrative.AllowedUnits(narrative.StateFreeExploration))+1)
	s.Contains(state.AllowedUnits, narrative.UnitCombatEvent)

	s.True(dnderr.IsInvalidArgument(s.service.ResetSession(s.ctx, "")))
}

func (s *ServiceTestSuite) TestProcessAction_SerializedPerSession() {
	s.interpreter.EXPECT().Interpret(gomock.Any(), gomock.Any()).
		Return(entities.TrivialAction(), nil).
		Times(40)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		for _, id := range []string{"session-a", "session-b"} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.service.ProcessAction(s.ctx, id, &session.ProcessActionInput{
					Action:    fmt.Sprintf("I wave %d", i),
					Character: s.character,
				})
				s.NoError(err)
			}()
		}
	}
	wg.Wait()

	for _, id := range []string{"session-a", "session-b"} {
		state, err := s.service.State(s.ctx, id)
		s.Require().NoError(err)
		s.Len(state.History, 20)

		recs, err := s.repo.ListBySession(s.ctx, id)
		s.Require().NoError(err)
		s.Len(recs, 20)
	}
}

type failingListener struct{}

func (failingListener) ID() string                       { return "failing" }
func (failingListener) Priority() int                    { return 0 }
func (failingListener) HandleRecord(*events.Record) error { return errors.New("redis down") }
