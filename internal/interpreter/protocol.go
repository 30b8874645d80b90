package interpreter

import (
	"log"
	"strconv"
	"strings"

	"github.com/KirkDiggler/dnd-narrator/internal/entities"
	dnderr "github.com/KirkDiggler/dnd-narrator/internal/errors"
	"github.com/tidwall/gjson"
)

const defaultImpossibleReason = "The action is not possible under the rules or the physics of this world. Try describing a different action."

// Stage1Response is the oracle's category selection
type Stage1Response struct {
	RequiresCheck bool
	Intent        string
	Categories    []string
}

// ParseStage1 reads a category selection reply.
// requires_check defaults to true and required_endpoints is accepted for required_categories.
func ParseStage1(reply string) (*Stage1Response, error) {
	doc, err := extractObject(reply)
	if err != nil {
		return nil, err
	}

	resp := &Stage1Response{
		RequiresCheck: true,
		Intent:        strings.TrimSpace(doc.Get("intent").String()),
	}
	if v := doc.Get("requires_check"); v.Exists() {
		resp.RequiresCheck = v.Bool()
	}

	categories := doc.Get("required_categories")
	if !categories.Exists() {
		categories = doc.Get("required_endpoints")
	}
	resp.Categories = stringArray(categories)

	return resp, nil
}

// ParseJudgment reads a grounded judgment reply into a parsed action.
// The skill is only normalized here; matching it against known skills is the caller's job.
func ParseJudgment(reply string) (*entities.ParsedAction, error) {
	doc, err := extractObject(reply)
	if err != nil {
		return nil, err
	}

	action := &entities.ParsedAction{
		IsPossible:       boolOr(doc.Get("is_possible"), true),
		RequiresCheck:    true,
		RequiresDiceRoll: boolOr(doc.Get("requires_dice_roll"), true),
		Intent:           strings.TrimSpace(doc.Get("intent").String()),
		Skill:            entities.NormalizeSkill(doc.Get("skill").String()),
		EstimatedDC:      parseDC(doc.Get("estimated_dc")),
		Modifiers:        stringArray(doc.Get("modifiers")),
		RequiredItems:    stringArray(doc.Get("required_items")),
		Reason:           strings.TrimSpace(doc.Get("reason").String()),
	}

	if action.Intent == "" {
		action.Intent = "unknown"
	}

	rawAbility := doc.Get("ability").String()
	ability, ok := entities.ParseAbility(rawAbility)
	if !ok {
		if rawAbility != "" {
			log.Printf("Interpreter: unknown ability %q, falling back to strength", rawAbility)
		}
		ability = entities.AbilityStrength
	}
	action.Ability = ability

	if !action.IsPossible && action.Reason == "" {
		action.Reason = defaultImpossibleReason
	}

	return action, nil
}

// extractObject finds the JSON object in a reply that may be wrapped in prose or code fences.
// A non-empty string "error" field, or "error": true, is an explicit refusal.
func extractObject(reply string) (gjson.Result, error) {
	text := strings.TrimSpace(reply)
	if text == "" {
		return gjson.Result{}, dnderr.MalformedJudgment("oracle reply is empty")
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return gjson.Result{}, dnderr.MalformedJudgment("no JSON object in oracle reply").
			WithMeta("reply", truncate(text, 200))
	}

	raw := text[start : end+1]
	if !gjson.Valid(raw) {
		return gjson.Result{}, dnderr.MalformedJudgment("oracle reply is not valid JSON").
			WithMeta("reply", truncate(text, 200))
	}

	doc := gjson.Parse(raw)
	if !doc.IsObject() {
		return gjson.Result{}, dnderr.MalformedJudgment("oracle reply is not a JSON object")
	}
	if reason, ok := refusal(doc.Get("error")); ok {
		return gjson.Result{}, dnderr.InterpreterRejected(reason)
	}

	return doc, nil
}

// refusal reads the "error" field, only a non-empty string or true counts
func refusal(v gjson.Result) (string, bool) {
	switch {
	case v.Type == gjson.String && v.String() != "":
		return v.String(), true
	case v.Type == gjson.True:
		return "oracle refused the action", true
	}
	return "", false
}

func boolOr(v gjson.Result, fallback bool) bool {
	if !v.Exists() || v.Type == gjson.Null {
		return fallback
	}
	return v.Bool()
}

func stringArray(v gjson.Result) []string {
	out := []string{}
	if !v.IsArray() {
		return out
	}
	for _, item := range v.Array() {
		if s := strings.TrimSpace(item.String()); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func parseDC(v gjson.Result) entities.DifficultyClass {
	switch v.Type {
	case gjson.Number:
		if n := int(v.Int()); n > 0 {
			return entities.DCValue(n)
		}
	case gjson.String:
		s := strings.TrimSpace(v.String())
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return entities.DCValue(n)
		}
		if s != "" {
			return entities.DCTier(strings.ToLower(s))
		}
	}
	return entities.DCTier("medium")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
