package history

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Lexicon is the keyword content pack behind the keyword extractor.
// Entity lists match whole words with simple plurals, play style words also match
// common verb endings, markers and emotions match word prefixes.
type Lexicon struct {
	Persons       []string `yaml:"persons"`
	Items         []string `yaml:"items"`
	Locations     []string `yaml:"locations"`
	Organizations []string `yaml:"organizations"`

	MysteryMarkers    []string `yaml:"mystery_markers"`
	DiscoveryMarkers  []string `yaml:"discovery_markers"`
	ResolutionMarkers []string `yaml:"resolution_markers"`

	CombatWords      []string `yaml:"combat_words"`
	SocialWords      []string `yaml:"social_words"`
	ExplorationWords []string `yaml:"exploration_words"`
	MagicWords       []string `yaml:"magic_words"`

	EmotionWords     []string `yaml:"emotion_words"`
	ConsequenceVerbs []string `yaml:"consequence_verbs"`
	StopWords        []string `yaml:"stop_words"`
}

// DefaultLexicon returns the built in English lexicon
func DefaultLexicon() *Lexicon {
	return &Lexicon{
		Persons: []string{
			"merchant", "mage", "wizard", "guard", "trader", "old man", "old woman", "warrior",
			"priest", "bard", "thief", "noble", "peasant", "king", "queen", "prince", "princess",
			"lord", "lady", "captain", "commander", "apprentice", "stranger", "innkeeper", "blacksmith",
		},
		Items: []string{
			"sword", "dagger", "shield", "armor", "ring", "amulet", "key", "scroll", "book",
			"map", "coin", "treasure", "artifact", "relic", "weapon", "potion",
		},
		Locations: []string{
			"tavern", "temple", "castle", "palace", "forest", "cave", "dungeon", "city", "village",
			"port", "market", "square", "street", "house", "tower", "bridge", "river", "mountain",
			"valley", "inn", "crypt",
		},
		Organizations: []string{
			"guild", "order", "brotherhood", "church", "kingdom", "empire", "republic", "alliance",
			"league", "cult",
		},
		MysteryMarkers:    []string{"myster", "secret", "promise", "later", "someday", "in the future", "riddle"},
		DiscoveryMarkers:  []string{"found", "finds", "discovered", "uncovered"},
		ResolutionMarkers: []string{"used", "applied", "explained", "solved"},
		CombatWords:       []string{"attack", "strike", "hit", "shoot", "stab", "slash", "fight", "punch"},
		SocialWords:       []string{"say", "ask", "persuade", "convince", "deceive", "lie", "talk", "intimidate", "bargain"},
		ExplorationWords:  []string{"explore", "search", "examine", "inspect", "investigate", "look", "check"},
		MagicWords:        []string{"cast", "spell", "magic", "magical", "enchant", "ritual", "conjure"},
		EmotionWords: []string{
			"horror", "fear", "terror", "joy", "sorrow", "grief", "anger", "rage", "surprise",
			"hope", "despair", "triumph", "defeat", "victory", "loss", "discovery", "mystery", "riddle",
		},
		ConsequenceVerbs: []string{"killed", "stole", "helped", "saved", "deceived", "betrayed", "destroyed", "created"},
		StopWords: []string{
			"about", "above", "after", "again", "against", "before", "being", "below", "between",
			"could", "every", "their", "there", "these", "those", "through", "under", "until",
			"where", "which", "while", "would", "should", "other", "still", "something",
		},
	}
}

// LoadLexicon reads a YAML content pack. Lists the pack leaves out keep their defaults.
func LoadLexicon(r io.Reader) (*Lexicon, error) {
	pack := &Lexicon{}
	if err := yaml.NewDecoder(r).Decode(pack); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode lexicon: %w", err)
	}

	lex := DefaultLexicon()
	overlay(&lex.Persons, pack.Persons)
	overlay(&lex.Items, pack.Items)
	overlay(&lex.Locations, pack.Locations)
	overlay(&lex.Organizations, pack.Organizations)
	overlay(&lex.MysteryMarkers, pack.MysteryMarkers)
	overlay(&lex.DiscoveryMarkers, pack.DiscoveryMarkers)
	overlay(&lex.ResolutionMarkers, pack.ResolutionMarkers)
	overlay(&lex.CombatWords, pack.CombatWords)
	overlay(&lex.SocialWords, pack.SocialWords)
	overlay(&lex.ExplorationWords, pack.ExplorationWords)
	overlay(&lex.MagicWords, pack.MagicWords)
	overlay(&lex.EmotionWords, pack.EmotionWords)
	overlay(&lex.ConsequenceVerbs, pack.ConsequenceVerbs)
	overlay(&lex.StopWords, pack.StopWords)

	return lex, nil
}

func overlay(dst *[]string, src []string) {
	if len(src) > 0 {
		*dst = src
	}
}
