package services_test

import (
	"strings"
	"testing"

	"github.com/AI-Template-SDK/senso-analysis/internal/models"
	"github.com/AI-Template-SDK/senso-analysis/internal/testutil"
	"github.com/AI-Template-SDK/senso-analysis/services"
)

func newMatcher() services.EntityMatcherService {
	return services.NewEntityMatcherService(testutil.DefaultAnalysisConfig())
}

func TestFindMentionsOrdering(t *testing.T) {
	matcher := newMatcher()
	roster := testutil.SampleRoster()

	text := "Globex leads the market, but Acme and Initech are catching up fast."
	mentions := matcher.FindMentions(text, roster)

	if len(mentions) != 3 {
		t.Fatalf("FindMentions() returned %d mentions, want 3", len(mentions))
	}

	expectedOrder := []string{"Globex", "Acme", "Initech"}
	for i, mention := range mentions {
		if mention.CanonicalName != expectedOrder[i] {
			t.Errorf("mention %d canonical name = %s, want %s", i, mention.CanonicalName, expectedOrder[i])
		}
		if mention.Position != i+1 {
			t.Errorf("mention %d position = %d, want %d", i, mention.Position, i+1)
		}
	}

	if !mentions[1].IsOwnBrand {
		t.Error("Acme mention should be flagged as own brand")
	}
	if mentions[0].IsOwnBrand {
		t.Error("Globex mention should not be flagged as own brand")
	}
}

func TestFindMentionsWordBoundaries(t *testing.T) {
	matcher := newMatcher()
	roster := testutil.SampleRoster()

	tests := []struct {
		name         string
		text         string
		wantMentions int
	}{
		{
			name:         "embedded in larger token is not a match",
			text:         "The AcmeCorp2 product line is unrelated.",
			wantMentions: 0,
		},
		{
			name:         "punctuation adjacent match counts",
			text:         "Have you tried Acme? It works.",
			wantMentions: 1,
		},
		{
			name:         "case insensitive match",
			text:         "many teams pick acme for reporting",
			wantMentions: 1,
		},
		{
			name:         "empty text",
			text:         "",
			wantMentions: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mentions := matcher.FindMentions(tt.text, roster)
			if len(mentions) != tt.wantMentions {
				t.Errorf("FindMentions(%q) returned %d mentions, want %d", tt.text, len(mentions), tt.wantMentions)
			}
		})
	}
}

func TestFindMentionsAliasLongestSpan(t *testing.T) {
	matcher := newMatcher()
	roster := testutil.SampleRoster()

	text := "Acme Analytics ships weekly."
	mentions := matcher.FindMentions(text, roster)

	if len(mentions) != 1 {
		t.Fatalf("FindMentions() returned %d mentions, want 1 (alias should absorb the shorter name match)", len(mentions))
	}
	if mentions[0].MatchedText != "Acme Analytics" {
		t.Errorf("matched text = %q, want %q", mentions[0].MatchedText, "Acme Analytics")
	}
	if mentions[0].MatchKind != models.MatchKindAlias {
		t.Errorf("match kind = %s, want %s", mentions[0].MatchKind, models.MatchKindAlias)
	}
	if mentions[0].CanonicalName != "Acme" {
		t.Errorf("canonical name = %s, want Acme", mentions[0].CanonicalName)
	}
	if mentions[0].Confidence != 1.0 {
		t.Errorf("confidence = %f, want 1.0", mentions[0].Confidence)
	}
}

func TestFindMentionsFuzzy(t *testing.T) {
	matcher := newMatcher()
	roster := testutil.SampleRoster()

	// One extra character, similarity 6/7 = 0.857, just above the threshold.
	text := "Some answers spell it Globexx by mistake."
	mentions := matcher.FindMentions(text, roster)

	if len(mentions) != 1 {
		t.Fatalf("FindMentions() returned %d mentions, want 1", len(mentions))
	}
	if mentions[0].MatchKind != models.MatchKindFuzzy {
		t.Errorf("match kind = %s, want %s", mentions[0].MatchKind, models.MatchKindFuzzy)
	}
	if mentions[0].CanonicalName != "Globex" {
		t.Errorf("canonical name = %s, want Globex", mentions[0].CanonicalName)
	}
	if mentions[0].Confidence < 0.85 || mentions[0].Confidence >= 1.0 {
		t.Errorf("fuzzy confidence = %f, want in [0.85, 1.0)", mentions[0].Confidence)
	}
}

func TestFindMentionsFuzzyBelowThreshold(t *testing.T) {
	matcher := newMatcher()
	roster := testutil.SampleRoster()

	// "Globtech" vs "globex": too far for the 0.85 threshold.
	mentions := matcher.FindMentions("Globtech is a different company entirely.", roster)
	if len(mentions) != 0 {
		t.Errorf("FindMentions() returned %d mentions, want 0", len(mentions))
	}
}

func TestFindMentionsContextSnippet(t *testing.T) {
	matcher := newMatcher()
	roster := testutil.SampleRoster()

	padding := strings.Repeat("x", 200)
	text := padding + " Acme " + padding
	mentions := matcher.FindMentions(text, roster)

	if len(mentions) != 1 {
		t.Fatalf("FindMentions() returned %d mentions, want 1", len(mentions))
	}
	snippet := mentions[0].ContextSnippet
	if !strings.HasPrefix(snippet, "...") || !strings.HasSuffix(snippet, "...") {
		t.Errorf("snippet should be truncated on both sides, got %q", snippet)
	}
	if !strings.Contains(snippet, "Acme") {
		t.Errorf("snippet should contain the match, got %q", snippet)
	}
}

func TestFindMentionsIndexedReuse(t *testing.T) {
	matcher := newMatcher()
	index := services.NewRosterIndex(testutil.SampleRoster())

	first := matcher.FindMentionsIndexed("Acme is solid.", index)
	second := matcher.FindMentionsIndexed("Globex is solid.", index)

	if len(first) != 1 || first[0].CanonicalName != "Acme" {
		t.Errorf("first scan = %+v, want one Acme mention", first)
	}
	if len(second) != 1 || second[0].CanonicalName != "Globex" {
		t.Errorf("second scan = %+v, want one Globex mention", second)
	}
}

func TestFindMentionsEmptyRoster(t *testing.T) {
	matcher := newMatcher()

	mentions := matcher.FindMentions("Acme everywhere.", &models.EntityRoster{})
	if len(mentions) != 0 {
		t.Errorf("FindMentions() with empty roster returned %d mentions, want 0", len(mentions))
	}

	mentions = matcher.FindMentions("Acme everywhere.", nil)
	if len(mentions) != 0 {
		t.Errorf("FindMentions() with nil roster returned %d mentions, want 0", len(mentions))
	}
}
