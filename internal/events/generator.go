package events

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/KirkDiggler/dnd-narrator/internal/clients/oracle"
	"github.com/KirkDiggler/dnd-narrator/internal/continuity"
	"github.com/KirkDiggler/dnd-narrator/internal/entities"
	dnderr "github.com/KirkDiggler/dnd-narrator/internal/errors"
	"github.com/KirkDiggler/dnd-narrator/internal/history"
	"github.com/KirkDiggler/dnd-narrator/internal/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

//go:generate mockgen -destination=mock/mock_generator.go -package=mockevents -source=generator.go

const (
	// analysisWindow is how many trailing history events feed an event
	analysisWindow = 20
	recentLines    = 5
	maxTitleIndex  = 100
	titleRunes     = 50
)

// GenerateInput is everything the generator needs to know about a fired trigger
type GenerateInput struct {
	Type       EventType
	Priority   int
	Reason     string
	Conditions map[string]string
	Location   string
	QuestStage string
	History    []*entities.HistoryEvent
}

// Generator turns a fired trigger into an unscripted story event
type Generator interface {
	Generate(ctx context.Context, input *GenerateInput) (*GeneratedEvent, error)
}

type generator struct {
	oracle   oracle.Client
	analyzer history.Analyzer
	linker   continuity.Linker
	ids      uuid.Generator
	now      func() time.Time
	tracer   trace.Tracer
}

// GeneratorConfig holds configuration for the event generator
type GeneratorConfig struct {
	Oracle   oracle.Client
	Analyzer history.Analyzer
	Linker   continuity.Linker
	IDs      uuid.Generator   // Optional: random UUIDs
	Now      func() time.Time // Optional: time.Now
}

// NewGenerator creates an event generator
func NewGenerator(cfg *GeneratorConfig) Generator {
	if cfg == nil {
		panic("generator config is required")
	}
	if cfg.Oracle == nil {
		panic("oracle client is required")
	}
	if cfg.Analyzer == nil {
		panic("history analyzer is required")
	}

	g := &generator{
		oracle:   cfg.Oracle,
		analyzer: cfg.Analyzer,
		linker:   cfg.Linker,
		ids:      cfg.IDs,
		now:      cfg.Now,
		tracer:   otel.Tracer("dnd-narrator/events"),
	}
	if g.linker == nil {
		g.linker = continuity.NewLinker(&continuity.LinkerConfig{Extractor: cfg.Analyzer.Extractor()})
	}
	if g.ids == nil {
		g.ids = uuid.NewGenerator()
	}
	if g.now == nil {
		g.now = time.Now
	}
	return g
}

func (g *generator) Generate(ctx context.Context, input *GenerateInput) (*GeneratedEvent, error) {
	if input == nil {
		return nil, dnderr.InvalidArgument("generate input is required")
	}
	prompt, ok := eventPrompts[input.Type]
	if !ok {
		return nil, dnderr.InvalidArgumentf("unknown event type '%s'", input.Type)
	}

	ctx, span := g.tracer.Start(ctx, "events.generate",
		trace.WithAttributes(
			attribute.String("event.type", string(input.Type)),
			attribute.Int("event.priority", input.Priority),
		))
	defer span.End()

	analysis := g.analyzer.Analyze(input.History, analysisWindow)
	connections := g.linker.Link(analysis)

	reply, err := g.oracle.Generate(ctx,
		oracle.UserPrompt(buildEventPrompt(prompt, input, analysis, connections)),
		eventSystemPrompt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "oracle failed")
		return nil, dnderr.WrapOracle(err, "failed to generate event")
	}

	description := stripFences(reply)
	if description == "" {
		span.SetStatus(codes.Error, "empty event")
		return nil, dnderr.MalformedJudgment("oracle returned an empty event")
	}

	event := &GeneratedEvent{
		ID:          g.ids.New(),
		Type:        input.Type,
		Title:       extractTitle(description),
		Description: description,
		Metadata:    buildMetadata(analysis, input),
		Connections: *connections,
		Priority:    input.Priority,
		CreatedAt:   g.now(),
	}

	log.Printf("Events: Generated %s event %s (priority %d, link %s): %s",
		event.Type, event.ID, event.Priority, connections.Primary, event.Title)

	return event, nil
}

// eventPrompt is the type-specific part of an event request
type eventPrompt struct {
	kind     string
	guidance []string
}

var eventPrompts = map[EventType]eventPrompt{
	EventTypeNPCEncounter: {
		kind: "an encounter with a non-player character",
		guidance: []string{
			"Prefer a character the party has already met over a new one.",
			"Give the character a clear want that involves the party.",
			"End with the character addressing the party.",
		},
	},
	EventTypeSideQuest: {
		kind: "the introduction of a side quest",
		guidance: []string{
			"The side quest must not replace the current main quest.",
			"State who offers the task and what reward is implied.",
			"Keep it small enough to finish in one or two scenes.",
		},
	},
	EventTypeQuestHook: {
		kind: "a hook that could lead to a new quest",
		guidance: []string{
			"Plant a rumor, clue, or object rather than an explicit offer.",
			"Leave the party free to ignore it.",
		},
	},
	EventTypeRandomEvent: {
		kind: "an unexpected happening",
		guidance: []string{
			"The happening interrupts the current situation without ending it.",
			"It must be possible to react to it right away.",
		},
	},
	EventTypeLocationEvent: {
		kind: "something notable about the current location",
		guidance: []string{
			"Reveal a detail of the place the party has not noticed before.",
			"Tie the detail to what the location is known for.",
		},
	},
	EventTypeRevelation: {
		kind: "a revelation about an unresolved mystery",
		guidance: []string{
			"Answer part of an open question from the story so far.",
			"Raise one new question in the process.",
		},
	},
	EventTypeConsequence: {
		kind: "a consequence of something the party did earlier",
		guidance: []string{
			"Name the earlier deed so the players recognize it.",
			"The consequence can be good or bad but must be proportionate.",
		},
	},
}

const eventSystemPrompt = `You are the game master of a tabletop fantasy adventure.
You write short, concrete story events in the second person plural.
Never decide what the players do. Never resolve dice rolls.
Answer with the event text only, in two to four sentences.`

func buildEventPrompt(p eventPrompt, input *GenerateInput, analysis *history.Analysis, connections *continuity.Connections) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Write %s.\n", p.kind)
	for _, line := range p.guidance {
		sb.WriteString("- " + line + "\n")
	}

	sb.WriteString("\nCurrent location: ")
	if input.Location != "" {
		sb.WriteString(input.Location)
	} else {
		sb.WriteString("unknown")
	}
	sb.WriteString("\n")
	if input.QuestStage != "" {
		sb.WriteString("Current quest stage: " + input.QuestStage + "\n")
	}
	if input.Reason != "" {
		sb.WriteString("Why now: " + input.Reason + "\n")
	}

	recent := entities.LastN(input.History, recentLines)
	if len(recent) > 0 {
		sb.WriteString("\nRecent events:\n")
		for _, e := range recent {
			fmt.Fprintf(&sb, "- [%s] %s\n", e.Type, e.Description)
		}
	}

	if persons := analysis.Mentions[history.CategoryPersons]; len(persons) > 0 {
		sb.WriteString("\nCharacters already in the story: " + strings.Join(persons, ", ") + "\n")
	}
	if items := analysis.Mentions[history.CategoryItems]; len(items) > 0 {
		sb.WriteString("Items already in the story: " + strings.Join(items, ", ") + "\n")
	}

	if text := connections.Text(); text != "" {
		sb.WriteString("\nContinuity: " + text + "\n")
	}

	return sb.String()
}

// stripFences removes markdown code fences around a reply
func stripFences(reply string) string {
	reply = strings.ReplaceAll(reply, "```json", "")
	reply = strings.ReplaceAll(reply, "```", "")
	return strings.TrimSpace(reply)
}

// extractTitle uses the first sentence when it ends early enough, otherwise a truncated prefix
func extractTitle(description string) string {
	if i := strings.IndexRune(description, '.'); i > 0 {
		if runeIndex := utf8.RuneCountInString(description[:i]); runeIndex < maxTitleIndex {
			return strings.TrimSpace(description[:i])
		}
	}

	if utf8.RuneCountInString(description) > titleRunes {
		return strings.TrimSpace(string([]rune(description)[:titleRunes])) + "..."
	}
	return strings.TrimSpace(description)
}

func buildMetadata(analysis *history.Analysis, input *GenerateInput) Metadata {
	meta := Metadata{
		RelatedNPCs:      append([]string{}, analysis.Mentions[history.CategoryPersons]...),
		RelatedQuests:    []string{},
		RelatedLocations: append([]string{}, analysis.Mentions[history.CategoryLocations]...),
	}

	if input.QuestStage != "" {
		meta.RelatedQuests = append(meta.RelatedQuests, input.QuestStage)
	}
	if input.Location != "" && !containsFold(meta.RelatedLocations, input.Location) {
		meta.RelatedLocations = append([]string{input.Location}, meta.RelatedLocations...)
	}

	return meta
}

func containsFold(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(v, target) {
			return true
		}
	}
	return false
}
