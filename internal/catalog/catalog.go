package catalog

import (
	"context"
	"log"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/KirkDiggler/dnd-narrator/internal/clients/dnd5e"
	"github.com/KirkDiggler/dnd-narrator/internal/entities"
	dnderr "github.com/KirkDiggler/dnd-narrator/internal/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

//go:generate mockgen -destination=mock/mock_catalog.go -package=mockcatalog -source=catalog.go

// Catalog is a read-mostly cache of rules reference data shared by every session
type Catalog interface {
	// Categories returns category name to description
	Categories() map[string]string

	// Fetch returns the entries of the named categories, loading cold ones on demand
	Fetch(ctx context.Context, names []string) (map[string][]*entities.ReferenceEntry, error)

	// ValidateCategories splits names into known and unknown categories
	ValidateCategories(names []string) (valid []string, dropped []string)

	// MatchSkill maps a free-form skill name to a known skill key, "" when nothing matches
	MatchSkill(ctx context.Context, skill string) (string, error)

	// Refresh reloads every category and swaps the new data in
	Refresh(ctx context.Context) error
}

// LocalCategory is reference data served from memory rather than the reference service
type LocalCategory struct {
	Name        string
	Description string
	Entries     []*entities.ReferenceEntry
}

// snapshot is immutable once published
type snapshot struct {
	descriptions map[string]string
	entries      map[string][]*entities.ReferenceEntry
}

type catalog struct {
	source  dnd5e.Client
	local   map[string]*LocalCategory
	current atomic.Pointer[snapshot]
	loads   singleflight.Group
	writeMu sync.Mutex
}

// Config holds configuration for the catalog
type Config struct {
	Source dnd5e.Client     // Required
	Local  []*LocalCategory // Optional
}

// New creates a catalog with category descriptions loaded and no entries cached
func New(ctx context.Context, cfg *Config) Catalog {
	if cfg.Source == nil {
		panic("source is required")
	}

	c := &catalog{
		source: cfg.Source,
		local:  make(map[string]*LocalCategory, len(cfg.Local)),
	}

	descriptions := copyDescriptions(cfg.Source.ListCategories(ctx))
	entries := make(map[string][]*entities.ReferenceEntry)
	for _, l := range cfg.Local {
		c.local[l.Name] = l
		descriptions[l.Name] = l.Description
		entries[l.Name] = l.Entries
	}

	c.current.Store(&snapshot{
		descriptions: descriptions,
		entries:      entries,
	})

	return c
}

func (c *catalog) Categories() map[string]string {
	return copyDescriptions(c.current.Load().descriptions)
}

func copyDescriptions(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (c *catalog) ValidateCategories(names []string) ([]string, []string) {
	snap := c.current.Load()

	valid := make([]string, 0, len(names))
	var dropped []string
	seen := make(map[string]bool, len(names))
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		if seen[name] {
			continue
		}
		seen[name] = true

		if _, ok := snap.descriptions[name]; !ok {
			dropped = append(dropped, raw)
			continue
		}
		valid = append(valid, name)
	}

	if len(dropped) > 0 {
		log.Printf("Catalog: dropped unknown categories %v", dropped)
	}

	return valid, dropped
}

func (c *catalog) Fetch(ctx context.Context, names []string) (map[string][]*entities.ReferenceEntry, error) {
	out := make(map[string][]*entities.ReferenceEntry, len(names))
	for _, name := range names {
		entries, err := c.category(ctx, name)
		if err != nil {
			return nil, err
		}
		out[name] = entries
	}
	return out, nil
}

// category returns cached entries or loads them, collapsing concurrent loads of one category
func (c *catalog) category(ctx context.Context, name string) ([]*entities.ReferenceEntry, error) {
	snap := c.current.Load()
	if entries, ok := snap.entries[name]; ok {
		return entries, nil
	}
	if _, ok := snap.descriptions[name]; !ok {
		return nil, dnderr.NotFoundf("unknown reference category '%s'", name).
			WithMeta("category", name)
	}

	v, err, _ := c.loads.Do(name, func() (any, error) {
		entries, err := c.source.FetchCategory(ctx, name)
		if err != nil {
			return nil, err
		}
		c.install(name, entries)
		log.Printf("Catalog: loaded %d entries for %s", len(entries), name)
		return entries, nil
	})
	if err != nil {
		return nil, dnderr.Wrapf(err, "failed to load reference category '%s'", name).
			WithMeta("category", name)
	}

	return v.([]*entities.ReferenceEntry), nil
}

// install publishes a new snapshot built from a copy of the current one plus the loaded category
func (c *catalog) install(name string, entries []*entities.ReferenceEntry) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	old := c.current.Load()
	next := &snapshot{
		descriptions: old.descriptions,
		entries:      make(map[string][]*entities.ReferenceEntry, len(old.entries)+1),
	}
	for k, v := range old.entries {
		next.entries[k] = v
	}
	next.entries[name] = entries

	c.current.Store(next)
}

func (c *catalog) Refresh(ctx context.Context) error {
	descriptions := copyDescriptions(c.source.ListCategories(ctx))
	for name, l := range c.local {
		descriptions[name] = l.Description
	}

	names := make([]string, 0, len(descriptions))
	for name := range descriptions {
		if _, ok := c.local[name]; ok {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	loaded := make([][]*entities.ReferenceEntry, len(names))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		g.Go(func() error {
			entries, err := c.source.FetchCategory(gctx, name)
			if err != nil {
				return dnderr.Wrapf(err, "failed to refresh reference category '%s'", name).
					WithMeta("category", name)
			}
			loaded[i] = entries
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// the previous snapshot stays in place
		return err
	}

	entries := make(map[string][]*entities.ReferenceEntry, len(descriptions))
	for i, name := range names {
		entries[name] = loaded[i]
	}
	for name, l := range c.local {
		entries[name] = l.Entries
	}

	c.writeMu.Lock()
	c.current.Store(&snapshot{descriptions: descriptions, entries: entries})
	c.writeMu.Unlock()
	log.Printf("Catalog: refreshed %d categories", len(descriptions))

	return nil
}

func (c *catalog) MatchSkill(ctx context.Context, skill string) (string, error) {
	want := entities.NormalizeSkill(skill)
	if want == "" {
		return "", nil
	}

	skills, err := c.category(ctx, dnd5e.CategorySkills)
	if err != nil {
		return "", err
	}

	keys := make([]string, 0, len(skills))
	for _, s := range skills {
		if s.Key == want {
			return s.Key, nil
		}
		keys = append(keys, s.Key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if strings.Contains(key, want) || strings.Contains(want, key) {
			return key, nil
		}
	}

	log.Printf("Catalog: no skill matches %q", skill)
	return "", nil
}
