package continuity

import (
	"fmt"
	"strings"

	"github.com/KirkDiggler/dnd-narrator/internal/history"
)

const (
	// consequenceLookback is how many trailing events are searched for past deeds
	consequenceLookback = 5
	minConsequenceEvents = 3
	maxHiddenTerms       = 5
	maxQuotedSources     = 2
)

// LinkType is the way a new event ties back to the story so far
type LinkType string

const (
	LinkDirectReference    LinkType = "direct_reference"
	LinkDelayedConsequence LinkType = "delayed_consequence"
	LinkParallelStoryline  LinkType = "parallel_storyline"
	LinkHiddenConnection   LinkType = "hidden_connection"
	LinkNone               LinkType = "none"
)

// DirectReferences are persons and items already named in the story
type DirectReferences struct {
	Persons []string `json:"persons,omitempty"`
	Items   []string `json:"items,omitempty"`
}

// Empty reports whether nothing was referenced
func (d DirectReferences) Empty() bool {
	return len(d.Persons) == 0 && len(d.Items) == 0
}

// Connections are the candidate links between history and the next event
type Connections struct {
	DirectReferences    DirectReferences   `json:"direct_references"`
	DelayedConsequences []string           `json:"delayed_consequences,omitempty"`
	ParallelStoryline   *history.Storyline `json:"parallel_storyline,omitempty"`
	HiddenConnections   []string           `json:"hidden_connections,omitempty"`
	Primary             LinkType           `json:"primary"`
}

// Text describes the primary link in one sentence, "" when there is none
func (c *Connections) Text() string {
	switch c.Primary {
	case LinkDirectReference:
		var parts []string
		if len(c.DirectReferences.Persons) > 0 {
			parts = append(parts, "characters mentioned earlier: "+strings.Join(c.DirectReferences.Persons, ", "))
		}
		if len(c.DirectReferences.Items) > 0 {
			parts = append(parts, "items mentioned earlier: "+strings.Join(c.DirectReferences.Items, ", "))
		}
		return "The event may involve " + strings.Join(parts, "; ") + "."
	case LinkDelayedConsequence:
		sources := c.DelayedConsequences
		if len(sources) > maxQuotedSources {
			sources = sources[:maxQuotedSources]
		}
		return "The event may be a consequence of past deeds: " + strings.Join(sources, "; ")
	case LinkParallelStoryline:
		return fmt.Sprintf("The event may advance an unfinished storyline: %s", c.ParallelStoryline.Description)
	case LinkHiddenConnection:
		return "The event may echo recurring details: " + strings.Join(c.HiddenConnections, ", ") + "."
	}
	return ""
}

// Linker finds continuity links in an analysis
type Linker interface {
	Link(analysis *history.Analysis) *Connections
}

type linker struct {
	extractor history.TextSignalExtractor
}

// LinkerConfig holds configuration for the linker
type LinkerConfig struct {
	Extractor history.TextSignalExtractor // Optional: keyword extractor over the default lexicon
}

// NewLinker creates a continuity linker
func NewLinker(cfg *LinkerConfig) Linker {
	l := &linker{}
	if cfg != nil {
		l.extractor = cfg.Extractor
	}
	if l.extractor == nil {
		l.extractor = history.NewKeywordExtractor(nil)
	}
	return l
}

func (l *linker) Link(analysis *history.Analysis) *Connections {
	c := &Connections{Primary: LinkNone}
	if analysis == nil {
		return c
	}

	c.DirectReferences = DirectReferences{
		Persons: analysis.Mentions[history.CategoryPersons],
		Items:   analysis.Mentions[history.CategoryItems],
	}
	c.DelayedConsequences = l.delayedConsequences(analysis)
	if len(analysis.UnfinishedStorylines) > 0 {
		s := analysis.UnfinishedStorylines[0]
		c.ParallelStoryline = &s
	}
	if terms := analysis.SymbolicTerms; len(terms) > 0 {
		if len(terms) > maxHiddenTerms {
			terms = terms[:maxHiddenTerms]
		}
		c.HiddenConnections = append([]string(nil), terms...)
	}

	switch {
	case !c.DirectReferences.Empty():
		c.Primary = LinkDirectReference
	case len(c.DelayedConsequences) > 0:
		c.Primary = LinkDelayedConsequence
	case c.ParallelStoryline != nil:
		c.Primary = LinkParallelStoryline
	case len(c.HiddenConnections) > 0:
		c.Primary = LinkHiddenConnection
	}

	return c
}

// delayedConsequences scans the few events before the latest one for deeds that could come back
func (l *linker) delayedConsequences(analysis *history.Analysis) []string {
	events := analysis.Window
	n := len(events)
	if n < minConsequenceEvents {
		return nil
	}

	var out []string
	for i := max(0, n-consequenceLookback); i < n-1; i++ {
		if _, ok := l.extractor.ConsequenceVerb(events[i].Description); ok {
			out = append(out, events[i].Description)
		}
	}
	return out
}
