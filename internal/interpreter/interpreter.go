package interpreter

//go:generate mockgen -destination=mock/mock_interpreter.go -package=mockinterpreter . Interpreter

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/KirkDiggler/dnd-narrator/internal/catalog"
	"github.com/KirkDiggler/dnd-narrator/internal/clients/oracle"
	"github.com/KirkDiggler/dnd-narrator/internal/entities"
	dnderr "github.com/KirkDiggler/dnd-narrator/internal/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// recentNarration is how many narration entries are shown to the judge
const recentNarration = 3

// Interpreter turns free-text player actions into structured judgments
type Interpreter interface {
	Interpret(ctx context.Context, input *InterpretInput) (*entities.ParsedAction, error)
}

// InterpretInput is one action to judge
type InterpretInput struct {
	Action    string
	Character *entities.CharacterSheet
	Scene     *SceneContext
}

// SceneContext is what the judge knows about the surroundings
type SceneContext struct {
	Location string
	History  []*entities.HistoryEvent
}

type interpreter struct {
	oracle  oracle.Client
	catalog catalog.Catalog
	tracer  trace.Tracer
}

// Config holds configuration for the interpreter
type Config struct {
	Oracle  oracle.Client   // Required
	Catalog catalog.Catalog // Required
}

// New creates a two stage action interpreter
func New(cfg *Config) Interpreter {
	if cfg.Oracle == nil {
		panic("oracle is required")
	}
	if cfg.Catalog == nil {
		panic("catalog is required")
	}

	return &interpreter{
		oracle:  cfg.Oracle,
		catalog: cfg.Catalog,
		tracer:  otel.Tracer("interpreter"),
	}
}

func (i *interpreter) Interpret(ctx context.Context, input *InterpretInput) (*entities.ParsedAction, error) {
	if input == nil || strings.TrimSpace(input.Action) == "" {
		return nil, dnderr.InvalidArgument("action text is required")
	}

	ctx, span := i.tracer.Start(ctx, "interpreter.interpret")
	defer span.End()

	action, err := i.interpret(ctx, input)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dnderr.GetCode(err)))
		return nil, err
	}

	span.SetAttributes(
		attribute.String("action.intent", action.Intent),
		attribute.Bool("action.requires_check", action.RequiresCheck),
		attribute.String("action.skill", action.Skill),
	)
	return action, nil
}

func (i *interpreter) interpret(ctx context.Context, input *InterpretInput) (*entities.ParsedAction, error) {
	selection, err := i.selectCategories(ctx, input.Action)
	if err != nil {
		return nil, err
	}

	if !selection.RequiresCheck {
		log.Printf("Interpreter: %q needs no check", input.Action)
		return entities.TrivialAction(), nil
	}

	valid, _ := i.catalog.ValidateCategories(selection.Categories)
	if len(valid) == 0 {
		return nil, dnderr.NoValidCategories("no known reference category was selected").
			WithMeta("requested", strings.Join(selection.Categories, ","))
	}

	reference, err := i.catalog.Fetch(ctx, valid)
	if err != nil {
		return nil, dnderr.Wrap(err, "failed to fetch reference data")
	}

	reply, err := i.oracle.Generate(ctx,
		oracle.UserPrompt(judgmentPrompt(input, reference, valid)),
		judgmentSystemPrompt)
	if err != nil {
		return nil, dnderr.WrapOracle(err, "judgment failed")
	}

	action, err := ParseJudgment(reply)
	if err != nil {
		return nil, err
	}

	if action.Skill != "" {
		matched, err := i.catalog.MatchSkill(ctx, action.Skill)
		if err != nil {
			return nil, dnderr.Wrap(err, "failed to match skill")
		}
		if matched == "" {
			log.Printf("Interpreter: skill %q is not a known skill, dropping it", action.Skill)
		}
		action.Skill = matched
	}

	return action, nil
}

func (i *interpreter) selectCategories(ctx context.Context, action string) (*Stage1Response, error) {
	reply, err := i.oracle.Generate(ctx,
		oracle.UserPrompt(selectionPrompt(action, i.catalog.Categories())),
		selectionSystemPrompt)
	if err != nil {
		return nil, dnderr.WrapOracle(err, "category selection failed")
	}

	return ParseStage1(reply)
}

const selectionSystemPrompt = `You are an expert on the D&D 5e rules and the structure of its reference data.
Decide whether the player's action needs a rules check and, if it does, which reference categories are needed to judge it.
Answer ONLY with valid JSON:
{"requires_check": true, "intent": "short description", "required_categories": ["skills", "ability-scores"]}
Trivial actions (talking, looking around, walking somewhere safe) set "requires_check" to false.`

const judgmentSystemPrompt = `You are a D&D 5e rules judge. Using only the reference data provided, judge the player's action.
Answer ONLY with valid JSON:
{"is_possible": true, "requires_dice_roll": true, "intent": "...", "ability": "strength|dexterity|constitution|intelligence|wisdom|charisma",
 "skill": "skill key or null", "estimated_dc": "very_easy|easy|medium|hard|very_hard|nearly_impossible or a number",
 "modifiers": [], "required_items": [], "reason": "why the action is impossible, empty otherwise"}`

func selectionPrompt(action string, categories map[string]string) string {
	names := make([]string, 0, len(categories))
	for name := range categories {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	fmt.Fprintf(&b, "Player action: %s\n\nAvailable reference categories:\n", action)
	for _, name := range names {
		fmt.Fprintf(&b, "- %s: %s\n", name, categories[name])
	}
	return b.String()
}

func judgmentPrompt(input *InterpretInput, reference map[string][]*entities.ReferenceEntry, order []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Player action: %s\n\n", input.Action)

	if c := input.Character; c != nil {
		fmt.Fprintf(&b, "Character: %s, level %d %s %s\n", c.Name, c.Level, c.Race, c.Class)
		for _, a := range entities.Abilities {
			fmt.Fprintf(&b, "  %s %d (%+d)\n", a.Short(), c.Score(a), c.Modifier(a))
		}
		if len(c.ProficientSkills) > 0 {
			fmt.Fprintf(&b, "Proficient skills: %s\n", strings.Join(c.ProficientSkills, ", "))
		}
		if len(c.Equipment) > 0 {
			fmt.Fprintf(&b, "Equipment: %s\n", strings.Join(c.Equipment, ", "))
		}
	}

	if s := input.Scene; s != nil {
		if s.Location != "" {
			fmt.Fprintf(&b, "Location: %s\n", s.Location)
		}
		narration := lastNarration(s.History, recentNarration)
		if len(narration) > 0 {
			b.WriteString("Recent narration:\n")
			for _, n := range narration {
				fmt.Fprintf(&b, "- %s\n", n.Description)
			}
		}
	}

	b.WriteString("\nReference data:\n")
	for _, name := range order {
		fmt.Fprintf(&b, "[%s]\n", name)
		for _, e := range reference[name] {
			line := e.Key
			if e.Name != "" && e.Name != e.Key {
				line += " (" + e.Name + ")"
			}
			if e.Ability != "" {
				line += " uses " + string(e.Ability)
			}
			if e.Value != 0 {
				line += fmt.Sprintf(" = %d", e.Value)
			}
			fmt.Fprintf(&b, "- %s\n", line)
		}
	}

	return b.String()
}

func lastNarration(history []*entities.HistoryEvent, n int) []*entities.HistoryEvent {
	var out []*entities.HistoryEvent
	for idx := len(history) - 1; idx >= 0 && len(out) < n; idx-- {
		if history[idx] != nil && history[idx].Type == entities.HistoryNarration {
			out = append(out, history[idx])
		}
	}
	// oldest first
	for l, r := 0, len(out)-1; l < r; l, r = l+1, r-1 {
		out[l], out[r] = out[r], out[l]
	}
	return out
}
