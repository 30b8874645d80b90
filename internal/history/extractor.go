package history

import (
	"regexp"
	"sort"
	"strings"
)

// TextSignalExtractor finds the narrative signals the analyzer counts.
// Implementations must be deterministic.
type TextSignalExtractor interface {
	// Mentions returns the entities named in text per category, in order of appearance
	Mentions(text string) map[EntityCategory][]string
	// Storylines returns the kinds of open thread text leaves behind
	Storylines(text string) []StorylineType
	// PlayStyles returns every style a player action shows, at most once each
	PlayStyles(text string) []PlayStyle
	// Emotion returns the first emotional keyword in text
	Emotion(text string) (string, bool)
	// ConsequenceVerb returns the first deed in text that could come back later
	ConsequenceVerb(text string) (string, bool)
	// IsStopWord reports whether a lower-cased word carries no meaning on its own
	IsStopWord(word string) bool
}

// KeywordExtractor is a TextSignalExtractor driven by a Lexicon
type KeywordExtractor struct {
	entities    map[EntityCategory]*regexp.Regexp
	mystery     *regexp.Regexp
	discovery   *regexp.Regexp
	resolution  *regexp.Regexp
	styles      map[PlayStyle]*regexp.Regexp
	emotion     *regexp.Regexp
	consequence *regexp.Regexp
	stopWords   map[string]bool
}

// NewKeywordExtractor compiles a lexicon, nil means DefaultLexicon
func NewKeywordExtractor(lex *Lexicon) *KeywordExtractor {
	if lex == nil {
		lex = DefaultLexicon()
	}

	e := &KeywordExtractor{
		entities: map[EntityCategory]*regexp.Regexp{
			CategoryPersons:       pluralWords(lex.Persons),
			CategoryItems:         pluralWords(lex.Items),
			CategoryLocations:     pluralWords(lex.Locations),
			CategoryOrganizations: pluralWords(lex.Organizations),
		},
		mystery:    prefixes(lex.MysteryMarkers),
		discovery:  prefixes(lex.DiscoveryMarkers),
		resolution: prefixes(lex.ResolutionMarkers),
		styles: map[PlayStyle]*regexp.Regexp{
			StyleCombat:      inflected(lex.CombatWords),
			StyleSocial:      inflected(lex.SocialWords),
			StyleExploration: inflected(lex.ExplorationWords),
			StyleMagic:       inflected(lex.MagicWords),
		},
		emotion:     prefixes(lex.EmotionWords),
		consequence: wholeWords(lex.ConsequenceVerbs),
		stopWords:   make(map[string]bool, len(lex.StopWords)),
	}
	for _, w := range lex.StopWords {
		e.stopWords[strings.ToLower(w)] = true
	}

	return e
}

func (e *KeywordExtractor) Mentions(text string) map[EntityCategory][]string {
	lower := strings.ToLower(text)
	out := make(map[EntityCategory][]string, len(AllEntityCategories))
	for _, category := range AllEntityCategories {
		re := e.entities[category]
		if re == nil {
			continue
		}
		for _, m := range re.FindAllStringSubmatch(lower, -1) {
			out[category] = append(out[category], m[1])
		}
	}
	return out
}

func (e *KeywordExtractor) Storylines(text string) []StorylineType {
	lower := strings.ToLower(text)
	var out []StorylineType
	if matches(e.mystery, lower) {
		out = append(out, StorylineUnresolvedMystery)
	}
	if matches(e.discovery, lower) && !matches(e.resolution, lower) {
		out = append(out, StorylineUnexplainedItem)
	}
	return out
}

func (e *KeywordExtractor) PlayStyles(text string) []PlayStyle {
	lower := strings.ToLower(text)
	var out []PlayStyle
	for _, style := range AllPlayStyles {
		if matches(e.styles[style], lower) {
			out = append(out, style)
		}
	}
	return out
}

func (e *KeywordExtractor) Emotion(text string) (string, bool) {
	return first(e.emotion, text)
}

func (e *KeywordExtractor) ConsequenceVerb(text string) (string, bool) {
	return first(e.consequence, text)
}

func (e *KeywordExtractor) IsStopWord(word string) bool {
	return e.stopWords[word]
}

func matches(re *regexp.Regexp, text string) bool {
	return re != nil && re.MatchString(text)
}

func first(re *regexp.Regexp, text string) (string, bool) {
	if re == nil {
		return "", false
	}
	m := re.FindStringSubmatch(strings.ToLower(text))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// pluralWords matches whole words with an optional s/es plural, capturing the singular
func pluralWords(words []string) *regexp.Regexp {
	return compile(words, `\b(%s)(?:es|s)?\b`)
}

// inflected matches verbs with common endings: attacks, attacked, attacking
func inflected(words []string) *regexp.Regexp {
	return compile(words, `\b(%s)(?:s|es|ed|d|ing)?\b`)
}

func wholeWords(words []string) *regexp.Regexp {
	return compile(words, `\b(%s)\b`)
}

func prefixes(words []string) *regexp.Regexp {
	return compile(words, `\b(%s)`)
}

// compile joins words longest first so that "innkeeper" wins over "inn"
func compile(words []string, pattern string) *regexp.Regexp {
	if len(words) == 0 {
		return nil
	}

	sorted := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			sorted = append(sorted, regexp.QuoteMeta(w))
		}
	}
	if len(sorted) == 0 {
		return nil
	}
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })

	return regexp.MustCompile(strings.Replace(pattern, "%s", strings.Join(sorted, "|"), 1))
}
