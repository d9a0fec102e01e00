// services/entity_matcher_service.go
package services

import (
	"regexp"
	"sort"
	"strings"

	"github.com/AI-Template-SDK/senso-analysis/internal/config"
	"github.com/AI-Template-SDK/senso-analysis/internal/logging"
	"github.com/AI-Template-SDK/senso-analysis/internal/models"
	"github.com/agnivade/levenshtein"
	"github.com/sirupsen/logrus"
)

// capitalizedPhrasePattern matches one or more consecutive capitalized tokens,
// the candidate pool for the fuzzy pass.
var capitalizedPhrasePattern = regexp.MustCompile(`[A-Z][A-Za-z0-9&.-]*(?:[ \t][A-Z][A-Za-z0-9&.-]*)*`)

type entityMatcherService struct {
	cfg    *config.AnalysisConfig
	logger *logrus.Entry
}

// NewEntityMatcherService creates the mention matcher with the given tuning
// parameters.
func NewEntityMatcherService(cfg *config.AnalysisConfig) EntityMatcherService {
	return &entityMatcherService{
		cfg:    cfg,
		logger: logging.NewComponentLogger("entity_matcher"),
	}
}

// RosterIndex is the precomputed lookup for one roster: lower-cased name and
// alias strings mapped back to their entities. Build it once per roster when
// analyzing many responses against the same entity set.
type RosterIndex struct {
	entries []lookupEntry
}

type lookupEntry struct {
	key    string // lower-cased name or alias
	entity *models.Entity
	kind   models.MatchKind
}

// NewRosterIndex builds the matcher lookup from a roster. Empty names and
// aliases are skipped.
func NewRosterIndex(roster *models.EntityRoster) *RosterIndex {
	index := &RosterIndex{}
	if roster == nil {
		return index
	}
	for _, entity := range roster.Entities {
		name := strings.TrimSpace(entity.Name)
		if name != "" {
			index.entries = append(index.entries, lookupEntry{
				key:    strings.ToLower(name),
				entity: entity,
				kind:   models.MatchKindExact,
			})
		}
		for _, alias := range entity.Aliases {
			alias = strings.TrimSpace(alias)
			if alias == "" {
				continue
			}
			index.entries = append(index.entries, lookupEntry{
				key:    strings.ToLower(alias),
				entity: entity,
				kind:   models.MatchKindAlias,
			})
		}
	}
	return index
}

func (s *entityMatcherService) FindMentions(text string, roster *models.EntityRoster) []*models.Mention {
	return s.FindMentionsIndexed(text, NewRosterIndex(roster))
}

func (s *entityMatcherService) FindMentionsIndexed(text string, index *RosterIndex) []*models.Mention {
	if text == "" || index == nil || len(index.entries) == 0 {
		return []*models.Mention{}
	}

	lowerText := strings.ToLower(text)

	spans := s.exactPass(text, lowerText, index)
	spans = append(spans, s.fuzzyPass(text, spans, index)...)

	// Merge order: character offset ascending, longer span first on ties so a
	// full alias match outranks a shorter name contained in it.
	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		return spans[i].end > spans[j].end
	})

	mentions := make([]*models.Mention, 0, len(spans))
	for i, span := range spans {
		mentions = append(mentions, &models.Mention{
			MatchedText:     text[span.start:span.end],
			CanonicalName:   span.entity.Name,
			IsOwnBrand:      span.entity.IsOwnBrand,
			EntityID:        span.entity.ID,
			Position:        i + 1,
			CharacterOffset: span.start,
			ContextSnippet:  contextSnippet(text, span.start, span.end, s.cfg.ContextWindow),
			MatchKind:       span.kind,
			Confidence:      span.confidence,
		})
	}

	s.logger.WithFields(logging.Fields{
		"mentions":    len(mentions),
		"text_length": len(text),
	}).Debug("mention scan complete")

	return mentions
}

type matchSpan struct {
	start      int
	end        int
	entity     *models.Entity
	kind       models.MatchKind
	confidence float64
}

// exactPass scans every lookup string against the lower-cased text and keeps
// whole-word hits. Overlapping hits for the same entity collapse to the longest
// span so an alias like "Acme Analytics" does not also count its "Acme" core.
func (s *entityMatcherService) exactPass(text, lowerText string, index *RosterIndex) []matchSpan {
	var spans []matchSpan
	for _, entry := range index.entries {
		from := 0
		for {
			idx := strings.Index(lowerText[from:], entry.key)
			if idx < 0 {
				break
			}
			start := from + idx
			end := start + len(entry.key)
			if isWordBoundary(lowerText, start, end) {
				spans = append(spans, matchSpan{
					start:      start,
					end:        end,
					entity:     entry.entity,
					kind:       entry.kind,
					confidence: 1.0,
				})
			}
			from = start + 1
		}
	}

	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		return (spans[i].end - spans[i].start) > (spans[j].end - spans[j].start)
	})

	kept := spans[:0]
	for _, span := range spans {
		contained := false
		for _, existing := range kept {
			if span.entity == existing.entity && span.start >= existing.start && span.end <= existing.end {
				contained = true
				break
			}
		}
		if !contained {
			kept = append(kept, span)
		}
	}
	return kept
}

// fuzzyPass extracts capitalized phrase candidates that do not overlap exact
// spans and scores each against every roster name and alias. Candidates are
// accepted only at or above the similarity threshold; ties already fall to the
// earliest offset because candidates are scanned left to right.
func (s *entityMatcherService) fuzzyPass(text string, exactSpans []matchSpan, index *RosterIndex) []matchSpan {
	var spans []matchSpan
	for _, loc := range capitalizedPhrasePattern.FindAllStringIndex(text, -1) {
		if overlapsAny(loc[0], loc[1], exactSpans) {
			continue
		}
		candidate := strings.ToLower(text[loc[0]:loc[1]])

		var best *lookupEntry
		bestScore := 0.0
		for i := range index.entries {
			score := similarityRatio(candidate, index.entries[i].key)
			if score > bestScore {
				bestScore = score
				best = &index.entries[i]
			}
		}
		if best == nil || bestScore < s.cfg.FuzzyMatchThreshold {
			continue
		}
		spans = append(spans, matchSpan{
			start:      loc[0],
			end:        loc[1],
			entity:     best.entity,
			kind:       models.MatchKindFuzzy,
			confidence: bestScore,
		})
	}
	return spans
}

// similarityRatio is the normalized edit similarity of two strings: 1 minus the
// Levenshtein distance over the longer length.
func similarityRatio(a, b string) float64 {
	if a == b {
		return 1.0
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 1.0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(dist)/float64(longest)
}

// isWordBoundary reports whether [start,end) sits on non-alphanumeric edges of
// the text, so "acme" matches in "Acme, Inc" but not inside "AcmeCorp2".
func isWordBoundary(text string, start, end int) bool {
	if start > 0 && isAlphanumeric(text[start-1]) {
		return false
	}
	if end < len(text) && isAlphanumeric(text[end]) {
		return false
	}
	return true
}

func isAlphanumeric(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func overlapsAny(start, end int, spans []matchSpan) bool {
	for _, span := range spans {
		if start < span.end && end > span.start {
			return true
		}
	}
	return false
}

// contextSnippet captures up to window chars either side of a match and marks
// truncated edges with an ellipsis.
func contextSnippet(text string, start, end, window int) string {
	snippetStart := start - window
	if snippetStart < 0 {
		snippetStart = 0
	}
	snippetEnd := end + window
	if snippetEnd > len(text) {
		snippetEnd = len(text)
	}

	snippet := text[snippetStart:snippetEnd]
	if snippetStart > 0 {
		snippet = "..." + snippet
	}
	if snippetEnd < len(text) {
		snippet = snippet + "..."
	}
	return snippet
}
