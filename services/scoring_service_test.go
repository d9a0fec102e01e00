package services_test

import (
	"math"
	"reflect"
	"testing"

	"github.com/AI-Template-SDK/senso-analysis/internal/models"
	"github.com/AI-Template-SDK/senso-analysis/services"
)

func brandMention(position int) *models.Mention {
	return &models.Mention{
		MatchedText:   "Acme",
		CanonicalName: "Acme",
		IsOwnBrand:    true,
		Position:      position,
		MatchKind:     models.MatchKindExact,
		Confidence:    1.0,
	}
}

func competitorMention(name string, position int) *models.Mention {
	return &models.Mention{
		MatchedText:   name,
		CanonicalName: name,
		Position:      position,
		MatchKind:     models.MatchKindExact,
		Confidence:    1.0,
	}
}

func neutralSentiments(n int) []*models.SentimentResult {
	results := make([]*models.SentimentResult, n)
	for i := range results {
		results[i] = &models.SentimentResult{Polarity: models.PolarityNeutral}
	}
	return results
}

func TestScoreWorkedExample(t *testing.T) {
	svc := services.NewScoringService()

	// Brand present at rank 2 behind one competitor, no own-domain citation,
	// neutral sentiment: 30 + 20 + 0 + 0 - 1.5.
	mentions := []*models.Mention{
		competitorMention("Globex", 1),
		brandMention(2),
	}

	breakdown := svc.Score(mentions, nil, neutralSentiments(len(mentions)), 1.0)

	if breakdown.Mention.WeightedValue != 30 {
		t.Errorf("mention component = %.1f, want 30", breakdown.Mention.WeightedValue)
	}
	if breakdown.Position.WeightedValue != 20 {
		t.Errorf("position component = %.1f, want 20", breakdown.Position.WeightedValue)
	}
	if breakdown.Citation.WeightedValue != 0 {
		t.Errorf("citation component = %.1f, want 0", breakdown.Citation.WeightedValue)
	}
	if breakdown.Sentiment.WeightedValue != 0 {
		t.Errorf("sentiment component = %.1f, want 0", breakdown.Sentiment.WeightedValue)
	}
	if breakdown.CompetitorDelta.WeightedValue != -1.5 {
		t.Errorf("competitor component = %.1f, want -1.5", breakdown.CompetitorDelta.WeightedValue)
	}
	if breakdown.TotalRaw != 48.5 {
		t.Errorf("total raw = %.1f, want 48.5", breakdown.TotalRaw)
	}
	if breakdown.TotalWeighted != 48.5 {
		t.Errorf("total weighted = %.1f, want 48.5 at provider weight 1.0", breakdown.TotalWeighted)
	}
}

func TestScoreDeterminism(t *testing.T) {
	svc := services.NewScoringService()

	mentions := []*models.Mention{
		competitorMention("Globex", 1),
		brandMention(2),
		competitorMention("Initech", 3),
	}
	citations := []*models.Citation{
		{URL: "https://acme.com/docs", NormalizedDomain: "acme.com", Type: models.CitationTypePrimary, Position: 1},
		{URL: "https://review.example.dev", NormalizedDomain: "review.example.dev", Type: models.CitationTypeSecondary, Position: 2},
	}
	sentiments := []*models.SentimentResult{
		{Polarity: models.PolarityNeutral},
		{Polarity: models.PolarityPositive, Score: 0.8},
		{Polarity: models.PolarityNegative, Score: -0.5},
	}

	first := svc.Score(mentions, citations, sentiments, 0.85)
	for i := 0; i < 5; i++ {
		again := svc.Score(mentions, citations, sentiments, 0.85)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("Score() is not deterministic: %+v vs %+v", first, again)
		}
	}
}

func TestScoreBrandAbsent(t *testing.T) {
	svc := services.NewScoringService()

	breakdown := svc.Score(nil, nil, nil, 1.0)

	if breakdown.Mention.WeightedValue != -10 {
		t.Errorf("absent brand mention component = %.1f, want -10", breakdown.Mention.WeightedValue)
	}
	if breakdown.TotalRaw != -10 {
		t.Errorf("total raw = %.1f, want -10", breakdown.TotalRaw)
	}
	if breakdown.Position.WeightedValue != 0 {
		t.Errorf("position component = %.1f, want 0 with no brand", breakdown.Position.WeightedValue)
	}
}

func TestScoreFloorAndNormalization(t *testing.T) {
	svc := services.NewScoringService()

	// Brand absent with a crowd of competitors hits the floor of the rubric.
	mentions := []*models.Mention{
		competitorMention("Globex", 1),
		competitorMention("Initech", 2),
		competitorMention("Umbrella", 3),
		competitorMention("Hooli", 4),
	}

	breakdown := svc.Score(mentions, nil, neutralSentiments(len(mentions)), 1.0)

	if breakdown.TotalRaw != -15 {
		t.Errorf("total raw = %.1f, want -15 at the floor", breakdown.TotalRaw)
	}
	if breakdown.NormalizedScore != 0 {
		t.Errorf("normalized score = %.1f, want 0 at the floor", breakdown.NormalizedScore)
	}
}

func TestScoreCeilingAndNormalization(t *testing.T) {
	svc := services.NewScoringService()

	mentions := []*models.Mention{brandMention(1)}
	citations := []*models.Citation{
		{URL: "https://acme.com", NormalizedDomain: "acme.com", Type: models.CitationTypePrimary, Position: 1},
	}
	sentiments := []*models.SentimentResult{
		{Polarity: models.PolarityPositive, Score: 0.9},
	}

	breakdown := svc.Score(mentions, citations, sentiments, 1.0)

	if breakdown.TotalRaw != 75 {
		t.Errorf("total raw = %.1f, want 75 at the ceiling", breakdown.TotalRaw)
	}
	if breakdown.NormalizedScore != 100 {
		t.Errorf("normalized score = %.1f, want 100 at the ceiling", breakdown.NormalizedScore)
	}
}

func TestScorePositionDecay(t *testing.T) {
	svc := services.NewScoringService()

	tests := []struct {
		position   int
		wantCredit float64
	}{
		{1, 1.0},
		{3, 1.0},
		{4, 0.9},
		{8, 0.5},
		{13, 0.0},
		{20, 0.0},
	}

	for _, tt := range tests {
		mentions := []*models.Mention{brandMention(tt.position)}
		breakdown := svc.Score(mentions, nil, neutralSentiments(1), 1.0)
		if math.Abs(breakdown.Position.RawValue-tt.wantCredit) > 1e-9 {
			t.Errorf("position %d credit = %.2f, want %.2f", tt.position, breakdown.Position.RawValue, tt.wantCredit)
		}
	}
}

func TestScoreSentimentMajorityRule(t *testing.T) {
	svc := services.NewScoringService()

	mentions := []*models.Mention{brandMention(1), brandMention(2)}

	// One of two positive: exactly half, no credit.
	half := svc.Score(mentions, nil, []*models.SentimentResult{
		{Polarity: models.PolarityPositive},
		{Polarity: models.PolarityNeutral},
	}, 1.0)
	if half.Sentiment.WeightedValue != 0 {
		t.Errorf("half-positive sentiment component = %.1f, want 0", half.Sentiment.WeightedValue)
	}

	// Both positive: full ratio credit.
	full := svc.Score(mentions, nil, []*models.SentimentResult{
		{Polarity: models.PolarityPositive},
		{Polarity: models.PolarityPositive},
	}, 1.0)
	if full.Sentiment.WeightedValue != 10 {
		t.Errorf("all-positive sentiment component = %.1f, want 10", full.Sentiment.WeightedValue)
	}
}

func TestScoreCompetitorPenaltyCaps(t *testing.T) {
	svc := services.NewScoringService()

	// Four competitors ahead of the brand saturate the count scale.
	mentions := []*models.Mention{
		competitorMention("A", 1),
		competitorMention("B", 2),
		competitorMention("C", 3),
		competitorMention("D", 4),
		brandMention(5),
	}

	breakdown := svc.Score(mentions, nil, neutralSentiments(len(mentions)), 1.0)
	if breakdown.CompetitorDelta.WeightedValue != -5 {
		t.Errorf("saturated competitor penalty = %.1f, want -5", breakdown.CompetitorDelta.WeightedValue)
	}
}

func TestScoreProviderWeightMultiplier(t *testing.T) {
	svc := services.NewScoringService()

	mentions := []*models.Mention{brandMention(1)}
	breakdown := svc.Score(mentions, nil, neutralSentiments(1), 0.5)

	if breakdown.TotalRaw != 50 {
		t.Fatalf("total raw = %.1f, want 50", breakdown.TotalRaw)
	}
	if breakdown.TotalWeighted != 25 {
		t.Errorf("total weighted = %.1f, want 25 at provider weight 0.5", breakdown.TotalWeighted)
	}
	// Normalization reads the raw total so display scores stay comparable
	// across providers.
	want := (50.0 + 15.0) / 90.0 * 100.0
	if math.Abs(breakdown.NormalizedScore-want) > 1e-9 {
		t.Errorf("normalized score = %.2f, want %.2f", breakdown.NormalizedScore, want)
	}
}
