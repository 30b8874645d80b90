package history

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/KirkDiggler/dnd-narrator/internal/entities"
)

const (
	// DefaultWindow is how many trailing events are analyzed when the caller does not say
	DefaultWindow = 20

	minTermLength    = 5
	minSymbolicCount = 2
)

// Analyzer summarizes a session history
type Analyzer interface {
	// Analyze looks at the last window events, window <= 0 uses the configured default
	Analyze(events []*entities.HistoryEvent, window int) *Analysis
	// Extractor returns the signal extractor the analyzer uses
	Extractor() TextSignalExtractor
}

type analyzer struct {
	extractor TextSignalExtractor
	window    int
}

// AnalyzerConfig holds configuration for the analyzer
type AnalyzerConfig struct {
	Extractor TextSignalExtractor // Optional: keyword extractor over the default lexicon
	Window    int                 // Optional
}

// NewAnalyzer creates a history analyzer
func NewAnalyzer(cfg *AnalyzerConfig) Analyzer {
	a := &analyzer{window: DefaultWindow}
	if cfg != nil {
		a.extractor = cfg.Extractor
		if cfg.Window > 0 {
			a.window = cfg.Window
		}
	}
	if a.extractor == nil {
		a.extractor = NewKeywordExtractor(nil)
	}
	return a
}

func (a *analyzer) Extractor() TextSignalExtractor {
	return a.extractor
}

func (a *analyzer) Analyze(events []*entities.HistoryEvent, window int) *Analysis {
	if window <= 0 {
		window = a.window
	}

	recent := make([]*entities.HistoryEvent, 0, window)
	for _, e := range entities.LastN(events, window) {
		if e != nil {
			recent = append(recent, e)
		}
	}

	analysis := &Analysis{
		Mentions:             a.mentions(recent),
		UnfinishedStorylines: a.storylines(recent),
		PlayerPatterns:       a.patterns(recent),
		EmotionalMoments:     a.emotionalMoments(recent),
		Window:               recent,
	}
	analysis.MentionFrequency = a.frequency(recent)
	analysis.SymbolicTerms = symbolicTerms(analysis.MentionFrequency)
	analysis.Hooks = hooks(analysis)

	return analysis
}

func (a *analyzer) mentions(events []*entities.HistoryEvent) map[EntityCategory][]string {
	out := make(map[EntityCategory][]string, len(AllEntityCategories))
	seen := make(map[EntityCategory]map[string]bool, len(AllEntityCategories))
	for _, category := range AllEntityCategories {
		out[category] = []string{}
		seen[category] = make(map[string]bool)
	}

	for _, e := range events {
		for category, names := range a.extractor.Mentions(e.Description) {
			if _, ok := out[category]; !ok {
				continue
			}
			for _, name := range names {
				if seen[category][name] {
					continue
				}
				seen[category][name] = true
				out[category] = append(out[category], name)
			}
		}
	}

	return out
}

func (a *analyzer) storylines(events []*entities.HistoryEvent) []Storyline {
	out := []Storyline{}
	for _, e := range events {
		for _, t := range a.extractor.Storylines(e.Description) {
			out = append(out, Storyline{
				Type:        t,
				Description: e.Description,
				Timestamp:   e.Timestamp,
			})
		}
	}
	return out
}

func (a *analyzer) patterns(events []*entities.HistoryEvent) PlayerPatterns {
	var p PlayerPatterns
	for _, e := range events {
		if e.Type != entities.HistoryPlayerAction {
			continue
		}
		for _, style := range a.extractor.PlayStyles(e.Description) {
			p.add(style)
		}
	}

	p.DominantStyle = StyleCombat
	best := p.Combat
	for _, style := range AllPlayStyles[1:] {
		if n := p.Count(style); n > best {
			best = n
			p.DominantStyle = style
		}
	}

	return p
}

func (a *analyzer) emotionalMoments(events []*entities.HistoryEvent) []EmotionalMoment {
	out := []EmotionalMoment{}
	for _, e := range events {
		keyword, ok := a.extractor.Emotion(e.Description)
		if !ok {
			continue
		}
		out = append(out, EmotionalMoment{
			Keyword:     keyword,
			Description: e.Description,
			Type:        e.Type,
			Timestamp:   e.Timestamp,
		})
	}
	return out
}

func (a *analyzer) frequency(events []*entities.HistoryEvent) map[string]int {
	freq := make(map[string]int)
	for _, e := range events {
		for _, raw := range strings.Fields(e.Description) {
			word := strings.ToLower(strings.TrimFunc(raw, func(r rune) bool {
				return unicode.IsPunct(r) || unicode.IsSymbol(r)
			}))
			if utf8.RuneCountInString(word) < minTermLength || a.extractor.IsStopWord(word) {
				continue
			}
			freq[word]++
		}
	}
	return freq
}

// symbolicTerms are the recurring words, most frequent first then alphabetical
func symbolicTerms(freq map[string]int) []string {
	terms := []string{}
	for word, n := range freq {
		if n >= minSymbolicCount {
			terms = append(terms, word)
		}
	}
	sort.Slice(terms, func(i, j int) bool {
		if freq[terms[i]] != freq[terms[j]] {
			return freq[terms[i]] > freq[terms[j]]
		}
		return terms[i] < terms[j]
	})
	return terms
}

func hooks(analysis *Analysis) []Hook {
	out := []Hook{}
	for _, person := range analysis.Mentions[CategoryPersons] {
		out = append(out, Hook{
			Type:        HookNPCEncounter,
			Entity:      person,
			Description: fmt.Sprintf("An encounter with the %s mentioned earlier", person),
			Priority:    NPCEncounterPriority,
		})
	}
	for _, s := range analysis.UnfinishedStorylines {
		out = append(out, Hook{
			Type:        HookStorylineContinuation,
			Description: s.Description,
			Priority:    StorylineContinuationPriority,
		})
	}
	for _, item := range analysis.Mentions[CategoryItems] {
		out = append(out, Hook{
			Type:        HookItemQuest,
			Entity:      item,
			Description: fmt.Sprintf("A quest tied to the %s", item),
			Priority:    ItemQuestPriority,
		})
	}
	return out
}
