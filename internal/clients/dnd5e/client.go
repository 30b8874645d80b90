package dnd5e

import (
	"context"
	"log"
	"net/http"
	"sort"

	"github.com/KirkDiggler/dnd-narrator/internal/entities"
	dnderr "github.com/KirkDiggler/dnd-narrator/internal/errors"
	"github.com/fadedpez/dnd5e-api/clients/dnd5e"
	apiEntities "github.com/fadedpez/dnd5e-api/entities"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentLookups bounds the per-item fan-out against the public API
const maxConcurrentLookups = 6

// ReferenceAPI is the part of the dnd5e-api client this package calls
type ReferenceAPI interface {
	ListClasses() ([]*apiEntities.ReferenceItem, error)
	ListRaces() ([]*apiEntities.ReferenceItem, error)
	ListEquipment() ([]*apiEntities.ReferenceItem, error)
	ListSpells(input *dnd5e.ListSpellsInput) ([]*apiEntities.ReferenceItem, error)
	GetProficiency(key string) (*apiEntities.Proficiency, error)
}

type client struct {
	api ReferenceAPI
}

type Config struct {
	HttpClient *http.Client
	BaseURL    string       // Optional, DefaultBaseURL if empty
	API        ReferenceAPI // Optional, built from HttpClient if nil
}

func New(cfg *Config) (Client, error) {
	if cfg == nil {
		return nil, dnderr.InvalidArgument("dnd5e client config is required")
	}

	if cfg.API != nil {
		return &client{api: cfg.API}, nil
	}

	dndClient, err := dnd5e.NewDND5eAPI(&dnd5e.DND5eAPIConfig{
		Client: httpGetter(cfg.HttpClient, cfg.BaseURL),
	})
	if err != nil {
		return nil, err
	}

	return &client{
		api: dndClient,
	}, nil
}

var categoryDescriptions = map[string]string{
	CategorySkills:        "The 18 SRD skills and the ability each one uses",
	CategoryAbilityScores: "The six ability scores",
	CategoryClasses:       "Character classes",
	CategoryRaces:         "Playable races",
	CategoryEquipment:     "Weapons, armor, tools and adventuring gear",
	CategorySpells:        "Cantrips and first level spells",
}

func (c *client) ListCategories(_ context.Context) map[string]string {
	out := make(map[string]string, len(categoryDescriptions))
	for k, v := range categoryDescriptions {
		out[k] = v
	}
	return out
}

func (c *client) FetchCategory(ctx context.Context, name string) ([]*entities.ReferenceEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch name {
	case CategorySkills:
		return c.fetchSkills(ctx)
	case CategoryAbilityScores:
		return abilityScoreEntries(), nil
	case CategoryClasses:
		return c.fetchList(name, c.api.ListClasses)
	case CategoryRaces:
		return c.fetchList(name, c.api.ListRaces)
	case CategoryEquipment:
		return c.fetchList(name, c.api.ListEquipment)
	case CategorySpells:
		return c.fetchSpells(ctx)
	}

	return nil, dnderr.NotFoundf("unknown reference category '%s'", name).
		WithMeta("category", name)
}

// fetchSkills looks every skill proficiency up concurrently
func (c *client) fetchSkills(ctx context.Context) ([]*entities.ReferenceEntry, error) {
	keys := make([]string, 0, len(skillAbilities))
	for key := range skillAbilities {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	entries := make([]*entities.ReferenceEntry, len(keys))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLookups)
	for i, key := range keys {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			proficiency, err := c.api.GetProficiency(key)
			if err != nil {
				// The name can be derived from the key, so one failed lookup does not lose the skill
				log.Printf("Failed to get proficiency %s: %v", key, err)
				proficiency = nil
			}
			entries[i] = apiProficiencyToSkill(key, proficiency)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return entries, nil
}

func (c *client) fetchList(category string, list func() ([]*apiEntities.ReferenceItem, error)) ([]*entities.ReferenceEntry, error) {
	response, err := list()
	if err != nil {
		return nil, dnderr.WrapWithCode(err, dnderr.CodeUnavailable, "failed to list "+category).
			WithMeta("category", category)
	}

	return apiReferenceItemsToEntries(category, response), nil
}

func (c *client) fetchSpells(ctx context.Context) ([]*entities.ReferenceEntry, error) {
	var out []*entities.ReferenceEntry
	for level := 0; level <= 1; level++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		spells, err := c.api.ListSpells(&dnd5e.ListSpellsInput{
			Level: &level,
		})
		if err != nil {
			return nil, dnderr.WrapWithCode(err, dnderr.CodeUnavailable, "failed to list spells").
				WithMeta("level", level)
		}
		out = append(out, apiReferenceItemsToEntries(CategorySpells, spells)...)
	}
	return out, nil
}
