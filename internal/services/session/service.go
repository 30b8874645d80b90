package session

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/KirkDiggler/dnd-narrator/internal/entities"
	dnderr "github.com/KirkDiggler/dnd-narrator/internal/errors"
	"github.com/KirkDiggler/dnd-narrator/internal/events"
	"github.com/KirkDiggler/dnd-narrator/internal/interpreter"
	"github.com/KirkDiggler/dnd-narrator/internal/narrative"
	"github.com/KirkDiggler/dnd-narrator/internal/observability"
	"github.com/KirkDiggler/dnd-narrator/internal/rules"
	"github.com/KirkDiggler/dnd-narrator/internal/triggers"
	"github.com/KirkDiggler/dnd-narrator/internal/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultMaxHistory is how many history events a session keeps
const DefaultMaxHistory = 200

// Service runs the decision pipeline for many sessions. Calls for one
// session are serialized, different sessions run in parallel.
type Service interface {
	// ProcessAction judges a free-text action and rolls its check when one is needed
	ProcessAction(ctx context.Context, sessionID string, input *ProcessActionInput) (*ActionOutcome, error)

	// EmitUnit validates a narrative unit and applies its state transition
	EmitUnit(ctx context.Context, sessionID string, input *EmitUnitInput) (*narrative.Transition, error)

	// EvaluateTriggers decides whether an unscripted event fires and generates it
	EvaluateTriggers(ctx context.Context, sessionID string, input *SceneInput) (*TriggerOutcome, error)

	// EndDialogue leaves a conversation
	EndDialogue(ctx context.Context, sessionID string) (*narrative.Transition, error)

	// EndCombat leaves combat for the aftermath
	EndCombat(ctx context.Context, sessionID string) (*narrative.Transition, error)

	// CompleteQuest closes the main quest
	CompleteQuest(ctx context.Context, sessionID string) (*narrative.Transition, error)

	// ResetSession forgets state, trigger memory and history
	ResetSession(ctx context.Context, sessionID string) error

	// State returns a read-only view of a session
	State(ctx context.Context, sessionID string) (*State, error)
}

// ProcessActionInput is one player turn
type ProcessActionInput struct {
	Action    string
	Character *entities.CharacterSheet
	Location  string
}

// ActionOutcome is the judgment and, when a roll was needed, its result
type ActionOutcome struct {
	Action *entities.ParsedAction `json:"action"`
	Result *entities.RuleResult   `json:"result,omitempty"`
}

// EmitUnitInput is a narrative unit produced by the narrator
type EmitUnitInput struct {
	Unit     narrative.UnitType
	Content  string
	Location string
}

// SceneInput is the quest and location context for trigger evaluation
type SceneInput struct {
	Location        string
	QuestStage      string
	QuestStageIndex int
	StoryProgress   int
	HasQuest        bool
}

// TriggerOutcome is the arbitration result and the generated event, if any
type TriggerOutcome struct {
	Evaluation *triggers.Evaluation   `json:"evaluation"`
	Event      *events.GeneratedEvent `json:"event,omitempty"`
}

// State is a read-only view of a session
type State struct {
	SessionID    string                   `json:"session_id"`
	Snapshot     narrative.Snapshot       `json:"snapshot"`
	AllowedUnits []narrative.UnitType     `json:"allowed_units"`
	History      []*entities.HistoryEvent `json:"history"`
}

type service struct {
	interpreter interpreter.Interpreter
	resolver    rules.Resolver
	generator   events.Generator
	arbiter     triggers.Arbiter
	bus         *events.Bus
	ids         uuid.Generator
	now         func() time.Time
	maxHistory  int
	tracer      trace.Tracer

	locks      *LockManager
	runtimes   map[string]*runtime
	runtimesMu sync.Mutex
}

// ServiceConfig holds configuration for the session service
type ServiceConfig struct {
	Interpreter interpreter.Interpreter
	Resolver    rules.Resolver
	Generator   events.Generator
	Arbiter     triggers.Arbiter
	Bus         *events.Bus      // Optional: records are dropped without one
	IDs         uuid.Generator   // Optional: random UUIDs
	Now         func() time.Time // Optional: time.Now
	MaxHistory  int              // Optional
}

// NewService creates a new session service
func NewService(cfg *ServiceConfig) Service {
	if cfg == nil {
		panic("service config is required")
	}
	if cfg.Interpreter == nil {
		panic("interpreter is required")
	}
	if cfg.Resolver == nil {
		panic("resolver is required")
	}
	if cfg.Generator == nil {
		panic("event generator is required")
	}
	if cfg.Arbiter == nil {
		panic("trigger arbiter is required")
	}

	s := &service{
		interpreter: cfg.Interpreter,
		resolver:    cfg.Resolver,
		generator:   cfg.Generator,
		arbiter:     cfg.Arbiter,
		bus:         cfg.Bus,
		ids:         cfg.IDs,
		now:         cfg.Now,
		maxHistory:  cfg.MaxHistory,
		tracer:      otel.Tracer("dnd-narrator/session"),
		locks:       NewLockManager(),
		runtimes:    make(map[string]*runtime),
	}
	if s.bus == nil {
		s.bus = events.NewBus()
	}
	if s.ids == nil {
		s.ids = uuid.NewGenerator()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.maxHistory <= 0 {
		s.maxHistory = DefaultMaxHistory
	}
	return s
}

// runtime returns the session's runtime, callers hold the session lock
func (s *service) runtime(sessionID string) *runtime {
	s.runtimesMu.Lock()
	defer s.runtimesMu.Unlock()

	rt, exists := s.runtimes[sessionID]
	if !exists {
		rt = newRuntime(s.now)
		s.runtimes[sessionID] = rt
	}
	return rt
}

func (s *service) startSpan(ctx context.Context, name, sessionID string) (context.Context, trace.Span) {
	ctx = observability.WithSessionID(ctx, sessionID)
	return s.tracer.Start(ctx, name, trace.WithAttributes(attribute.String("session.id", sessionID)))
}

func fail(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func (s *service) ProcessAction(ctx context.Context, sessionID string, input *ProcessActionInput) (*ActionOutcome, error) {
	if sessionID == "" {
		return nil, dnderr.InvalidArgument("session ID is required")
	}
	if input == nil || strings.TrimSpace(input.Action) == "" {
		return nil, dnderr.InvalidArgument("action text is required").
			WithMeta("session_id", sessionID)
	}
	if input.Character == nil {
		return nil, dnderr.InvalidArgument("character is required").
			WithMeta("session_id", sessionID)
	}

	ctx, span := s.startSpan(ctx, "session.process_action", sessionID)
	defer span.End()

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	rt := s.runtime(sessionID)

	action, err := s.interpreter.Interpret(ctx, &interpreter.InterpretInput{
		Action:    input.Action,
		Character: input.Character,
		Scene: &interpreter.SceneContext{
			Location: input.Location,
			History:  rt.historyCopy(),
		},
	})
	if err != nil {
		fail(span, err)
		return nil, dnderr.Wrap(err, "failed to interpret action").
			WithMeta("session_id", sessionID)
	}

	outcome := &ActionOutcome{Action: action}
	if action.IsPossible && action.RequiresDiceRoll {
		result, err := s.resolver.Resolve(ctx, &rules.ResolveInput{
			Action:    action,
			Character: input.Character,
			Context:   map[string]string{"location": input.Location},
		})
		if err != nil {
			fail(span, err)
			return nil, dnderr.Wrap(err, "failed to resolve check").
				WithMeta("session_id", sessionID)
		}
		outcome.Result = result
	}

	// both records are built before either is published
	now := s.now()
	parsed, err := s.newRecord(sessionID, events.RecordParsedAction, action, now)
	if err != nil {
		fail(span, err)
		return nil, err
	}
	pending := []*events.Record{parsed}
	if outcome.Result != nil {
		ruled, err := s.newRecord(sessionID, events.RecordRuleResult, outcome.Result, now)
		if err != nil {
			fail(span, err)
			return nil, err
		}
		pending = append(pending, ruled)
	}
	if err := s.publishRecords(sessionID, pending...); err != nil {
		fail(span, err)
		return nil, err
	}

	if _, err := rt.machine.Emit(narrative.UnitPlayerAction); err != nil {
		fail(span, err)
		return nil, dnderr.Wrap(err, "failed to record player action").
			WithMeta("session_id", sessionID)
	}
	rt.appendHistory(&entities.HistoryEvent{
		Type:        entities.HistoryPlayerAction,
		Description: input.Action,
		Location:    input.Location,
		Timestamp:   now,
	}, s.maxHistory)

	span.SetAttributes(
		attribute.String("action.intent", action.Intent),
		attribute.Bool("action.possible", action.IsPossible),
	)
	if outcome.Result != nil {
		span.SetAttributes(attribute.String("check.outcome", string(outcome.Result.Outcome)))
	}

	return outcome, nil
}

func (s *service) EmitUnit(ctx context.Context, sessionID string, input *EmitUnitInput) (*narrative.Transition, error) {
	if sessionID == "" {
		return nil, dnderr.InvalidArgument("session ID is required")
	}
	if input == nil {
		return nil, dnderr.InvalidArgument("unit is required").
			WithMeta("session_id", sessionID)
	}

	_, span := s.startSpan(ctx, "session.emit_unit", sessionID)
	defer span.End()
	span.SetAttributes(attribute.String("narrative.unit", string(input.Unit)))

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	rt := s.runtime(sessionID)

	before := rt.machine.Snapshot()
	transition, err := rt.machine.Emit(input.Unit)
	if err != nil {
		fail(span, err)
		return nil, dnderr.Wrap(err, "narrative unit rejected").
			WithMeta("session_id", sessionID)
	}

	if err := s.publish(sessionID, events.RecordStateTransition, transition, transition.At); err != nil {
		rt.machine.Restore(before)
		fail(span, err)
		return nil, err
	}

	for _, w := range transition.Warnings {
		log.Printf("Session: %s unit %s warning: %s", sessionID, input.Unit, w)
	}

	if input.Content != "" {
		kind := entities.HistoryNarration
		if input.Unit == narrative.UnitSystem {
			kind = entities.HistorySystem
		}
		rt.appendHistory(&entities.HistoryEvent{
			Type:        kind,
			Description: input.Content,
			Location:    input.Location,
			Timestamp:   transition.At,
		}, s.maxHistory)
	}

	return transition, nil
}

func (s *service) EvaluateTriggers(ctx context.Context, sessionID string, input *SceneInput) (*TriggerOutcome, error) {
	if sessionID == "" {
		return nil, dnderr.InvalidArgument("session ID is required")
	}
	if input == nil {
		input = &SceneInput{}
	}

	ctx, span := s.startSpan(ctx, "session.evaluate_triggers", sessionID)
	defer span.End()

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	rt := s.runtime(sessionID)
	history := rt.historyCopy()

	// evaluate on a copy so a failed generation does not burn rate limits
	state := rt.arbiter.Clone()
	eval := s.arbiter.Evaluate(state, &triggers.Scene{
		Location:        input.Location,
		QuestStage:      input.QuestStage,
		QuestStageIndex: input.QuestStageIndex,
		StoryProgress:   input.StoryProgress,
		HasQuest:        input.HasQuest,
		History:         history,
	})

	outcome := &TriggerOutcome{Evaluation: eval}
	if eval.Selected == nil {
		rt.arbiter = state
		return outcome, nil
	}

	eventType, err := triggers.DetermineEventType(eval.Selected)
	if err != nil {
		fail(span, err)
		return nil, dnderr.Wrap(err, "failed to choose event type").
			WithMeta("session_id", sessionID)
	}
	span.SetAttributes(
		attribute.String("trigger.type", string(eval.Selected.Type)),
		attribute.String("event.type", string(eventType)),
	)

	event, err := s.generator.Generate(ctx, &events.GenerateInput{
		Type:       eventType,
		Priority:   eval.Selected.Priority,
		Reason:     eval.Selected.Description,
		Conditions: eval.Selected.Conditions,
		Location:   input.Location,
		QuestStage: input.QuestStage,
		History:    history,
	})
	if err != nil {
		fail(span, err)
		return nil, dnderr.Wrap(err, "failed to generate event").
			WithMeta("session_id", sessionID)
	}

	if err := s.publish(sessionID, events.RecordGeneratedEvent, event, event.CreatedAt); err != nil {
		fail(span, err)
		return nil, err
	}

	rt.arbiter = state
	rt.appendHistory(&entities.HistoryEvent{
		Type:        entities.HistoryWorldEvent,
		Description: event.Description,
		Location:    input.Location,
		Timestamp:   event.CreatedAt,
	}, s.maxHistory)

	outcome.Event = event
	return outcome, nil
}

func (s *service) EndDialogue(ctx context.Context, sessionID string) (*narrative.Transition, error) {
	return s.exit(ctx, sessionID, "session.end_dialogue", (*narrative.Machine).EndDialogue)
}

func (s *service) EndCombat(ctx context.Context, sessionID string) (*narrative.Transition, error) {
	return s.exit(ctx, sessionID, "session.end_combat", (*narrative.Machine).EndCombat)
}

func (s *service) CompleteQuest(ctx context.Context, sessionID string) (*narrative.Transition, error) {
	return s.exit(ctx, sessionID, "session.complete_quest", (*narrative.Machine).CompleteQuest)
}

// exit applies one of the machine's explicit exits and records it
func (s *service) exit(ctx context.Context, sessionID, spanName string, apply func(*narrative.Machine) *narrative.Transition) (*narrative.Transition, error) {
	if sessionID == "" {
		return nil, dnderr.InvalidArgument("session ID is required")
	}

	_, span := s.startSpan(ctx, spanName, sessionID)
	defer span.End()

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	rt := s.runtime(sessionID)

	before := rt.machine.Snapshot()
	transition := apply(rt.machine)
	if err := s.publish(sessionID, events.RecordStateTransition, transition, transition.At); err != nil {
		rt.machine.Restore(before)
		fail(span, err)
		return nil, err
	}

	return transition, nil
}

func (s *service) ResetSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return dnderr.InvalidArgument("session ID is required")
	}

	_, span := s.startSpan(ctx, "session.reset", sessionID)
	defer span.End()

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	s.runtimesMu.Lock()
	s.runtimes[sessionID] = newRuntime(s.now)
	s.runtimesMu.Unlock()

	log.Printf("Session: %s reset", sessionID)
	return nil
}

func (s *service) State(_ context.Context, sessionID string) (*State, error) {
	if sessionID == "" {
		return nil, dnderr.InvalidArgument("session ID is required")
	}

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	rt := s.runtime(sessionID)
	return &State{
		SessionID:    sessionID,
		Snapshot:     rt.machine.Snapshot(),
		AllowedUnits: rt.machine.AllowedUnits(),
		History:      rt.historyCopy(),
	}, nil
}

// publish wraps payload in a record and hands it to the bus
func (s *service) publish(sessionID string, kind events.RecordKind, payload any, at time.Time) error {
	record, err := s.newRecord(sessionID, kind, payload, at)
	if err != nil {
		return err
	}
	return s.publishRecords(sessionID, record)
}

func (s *service) newRecord(sessionID string, kind events.RecordKind, payload any, at time.Time) (*events.Record, error) {
	record, err := events.NewRecord(s.ids.New(), sessionID, kind, payload, at)
	if err != nil {
		return nil, dnderr.Wrap(err, "failed to build record").
			WithMeta("session_id", sessionID).
			WithMeta("kind", string(kind))
	}
	return record, nil
}

// publishRecords publishes in order and stops at the first failure. The sink is an append
// log, records published before the failure stay in it.
func (s *service) publishRecords(sessionID string, records ...*events.Record) error {
	for _, record := range records {
		if err := s.bus.Publish(record); err != nil {
			return dnderr.WrapWithCode(err, dnderr.CodeUnavailable, "failed to publish record").
				WithMeta("session_id", sessionID).
				WithMeta("kind", string(record.Kind))
		}
	}
	return nil
}
