// services/scoring_service.go
package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/AI-Template-SDK/senso-analysis/internal/models"
)

// Fixed rubric weights, in points. The normalization constants further down
// reflect the achievable raw range of exactly this rubric.
const (
	mentionPresentPoints   = 30.0
	mentionAbsentPoints    = -10.0
	positionPoints         = 20.0
	citationPoints         = 15.0
	sentimentPoints        = 10.0
	competitorPenaltyScale = -5.0

	topPositionRank      = 3
	positionDecayPerRank = 0.1
	competitorCountScale = 0.3

	rawScoreFloor = -15.0
	rawScoreRange = 90.0 // floor of -15 to ceiling of +75
)

type scoringService struct{}

// NewScoringService creates the visibility scorer. Scoring is pure
// computation; the service holds no state.
func NewScoringService() ScoringService {
	return &scoringService{}
}

func (s *scoringService) Score(mentions []*models.Mention, citations []*models.Citation, mentionSentiments []*models.SentimentResult, providerWeight float64) *models.ScoreBreakdown {
	brandMentions, competitorMentions := splitMentions(mentions)

	breakdown := &models.ScoreBreakdown{
		Mention:                  s.mentionComponent(brandMentions),
		Position:                 s.positionComponent(brandMentions),
		Citation:                 s.citationComponent(citations),
		Sentiment:                s.sentimentComponent(mentions, mentionSentiments),
		CompetitorDelta:          s.competitorComponent(brandMentions, competitorMentions),
		ProviderWeightMultiplier: providerWeight,
	}

	breakdown.TotalRaw = breakdown.Mention.WeightedValue +
		breakdown.Position.WeightedValue +
		breakdown.Citation.WeightedValue +
		breakdown.Sentiment.WeightedValue +
		breakdown.CompetitorDelta.WeightedValue

	breakdown.TotalWeighted = breakdown.TotalRaw * providerWeight
	breakdown.NormalizedScore = normalizeScore(breakdown.TotalRaw)
	breakdown.Summary = s.summarize(breakdown, brandMentions, competitorMentions)

	return breakdown
}

func splitMentions(mentions []*models.Mention) (brand, competitors []*models.Mention) {
	for _, mention := range mentions {
		if mention.IsOwnBrand {
			brand = append(brand, mention)
		} else {
			competitors = append(competitors, mention)
		}
	}
	return brand, competitors
}

func earliestPosition(mentions []*models.Mention) int {
	best := 0
	for _, mention := range mentions {
		if best == 0 || mention.Position < best {
			best = mention.Position
		}
	}
	return best
}

func (s *scoringService) mentionComponent(brandMentions []*models.Mention) models.ScoreComponent {
	if len(brandMentions) == 0 {
		return models.ScoreComponent{
			RawValue:            1,
			Weight:              mentionAbsentPoints,
			WeightedValue:       mentionAbsentPoints,
			Explanation:         "Brand is entirely absent from the response",
			ContributingFactors: []string{},
		}
	}

	factors := make([]string, 0, len(brandMentions))
	for _, mention := range brandMentions {
		factors = append(factors, fmt.Sprintf("%q at position %d (%s, confidence %.2f)",
			mention.MatchedText, mention.Position, mention.MatchKind, mention.Confidence))
	}
	return models.ScoreComponent{
		RawValue:            1,
		Weight:              mentionPresentPoints,
		WeightedValue:       mentionPresentPoints,
		Explanation:         fmt.Sprintf("Brand mentioned %d time(s)", len(brandMentions)),
		ContributingFactors: factors,
	}
}

func (s *scoringService) positionComponent(brandMentions []*models.Mention) models.ScoreComponent {
	position := earliestPosition(brandMentions)
	if position == 0 {
		return models.ScoreComponent{
			RawValue:            0,
			Weight:              positionPoints,
			WeightedValue:       0,
			Explanation:         "No brand mention, no position credit",
			ContributingFactors: []string{},
		}
	}

	credit := 1.0
	if position > topPositionRank {
		credit = 1.0 - float64(position-topPositionRank)*positionDecayPerRank
		if credit < 0 {
			credit = 0
		}
	}

	explanation := fmt.Sprintf("Brand first appears at rank %d", position)
	if position <= topPositionRank {
		explanation += " (top-3, full credit)"
	} else {
		explanation += fmt.Sprintf(" (decayed credit %.2f)", credit)
	}

	return models.ScoreComponent{
		RawValue:            credit,
		Weight:              positionPoints,
		WeightedValue:       positionPoints * credit,
		Explanation:         explanation,
		ContributingFactors: []string{fmt.Sprintf("earliest brand position: %d", position)},
	}
}

func (s *scoringService) citationComponent(citations []*models.Citation) models.ScoreComponent {
	var ownDomains []string
	for _, citation := range citations {
		if citation.Type == models.CitationTypePrimary {
			ownDomains = append(ownDomains, citation.NormalizedDomain)
		}
	}

	if len(ownDomains) == 0 {
		explanation := "No own-domain citations in the response"
		if len(citations) == 0 {
			explanation = "No citations in the response"
		}
		return models.ScoreComponent{
			RawValue:            0,
			Weight:              citationPoints,
			WeightedValue:       0,
			Explanation:         explanation,
			ContributingFactors: []string{},
		}
	}

	sort.Strings(ownDomains)
	return models.ScoreComponent{
		RawValue:            1,
		Weight:              citationPoints,
		WeightedValue:       citationPoints,
		Explanation:         fmt.Sprintf("Own domain cited %d time(s)", len(ownDomains)),
		ContributingFactors: []string{"own domains cited: " + strings.Join(ownDomains, ", ")},
	}
}

func (s *scoringService) sentimentComponent(mentions []*models.Mention, mentionSentiments []*models.SentimentResult) models.ScoreComponent {
	brandTotal := 0
	brandPositive := 0
	for i, mention := range mentions {
		if !mention.IsOwnBrand {
			continue
		}
		brandTotal++
		if i < len(mentionSentiments) && mentionSentiments[i] != nil && mentionSentiments[i].Polarity == models.PolarityPositive {
			brandPositive++
		}
	}

	if brandTotal == 0 {
		return models.ScoreComponent{
			RawValue:            0,
			Weight:              sentimentPoints,
			WeightedValue:       0,
			Explanation:         "No brand mentions to score sentiment on",
			ContributingFactors: []string{},
		}
	}

	positiveRatio := float64(brandPositive) / float64(brandTotal)
	if positiveRatio <= 0.5 {
		return models.ScoreComponent{
			RawValue:      0,
			Weight:        sentimentPoints,
			WeightedValue: 0,
			Explanation:   fmt.Sprintf("Brand sentiment not majority-positive (%d/%d positive)", brandPositive, brandTotal),
			ContributingFactors: []string{
				fmt.Sprintf("positive brand mentions: %d of %d", brandPositive, brandTotal),
			},
		}
	}

	return models.ScoreComponent{
		RawValue:      positiveRatio,
		Weight:        sentimentPoints,
		WeightedValue: sentimentPoints * positiveRatio,
		Explanation:   fmt.Sprintf("Majority-positive brand sentiment (%.0f%% positive)", positiveRatio*100),
		ContributingFactors: []string{
			fmt.Sprintf("positive brand mentions: %d of %d", brandPositive, brandTotal),
		},
	}
}

func (s *scoringService) competitorComponent(brandMentions, competitorMentions []*models.Mention) models.ScoreComponent {
	if len(competitorMentions) == 0 {
		return models.ScoreComponent{
			RawValue:            0,
			Weight:              competitorPenaltyScale,
			WeightedValue:       0,
			Explanation:         "No competitor mentions",
			ContributingFactors: []string{},
		}
	}

	brandPosition := earliestPosition(brandMentions)

	// Brand absent while competitors dominate: the scaled penalty is doubled,
	// still capped at the full penalty weight.
	if brandPosition == 0 {
		scale := minFloat(1, float64(len(competitorMentions))*competitorCountScale)
		doubled := minFloat(1, 2*scale)
		return models.ScoreComponent{
			RawValue:      doubled,
			Weight:        competitorPenaltyScale,
			WeightedValue: competitorPenaltyScale * doubled,
			Explanation:   fmt.Sprintf("Brand absent while %d competitor(s) are present (doubled penalty)", len(competitorMentions)),
			ContributingFactors: []string{
				fmt.Sprintf("competitors present: %s", joinCompetitorNames(competitorMentions)),
			},
		}
	}

	countBefore := 0
	var names []string
	for _, mention := range competitorMentions {
		if mention.Position < brandPosition {
			countBefore++
			names = append(names, fmt.Sprintf("%s (position %d)", mention.CanonicalName, mention.Position))
		}
	}
	if countBefore == 0 {
		return models.ScoreComponent{
			RawValue:            0,
			Weight:              competitorPenaltyScale,
			WeightedValue:       0,
			Explanation:         "No competitor appears before the brand",
			ContributingFactors: []string{},
		}
	}

	scale := minFloat(1, float64(countBefore)*competitorCountScale)
	return models.ScoreComponent{
		RawValue:      scale,
		Weight:        competitorPenaltyScale,
		WeightedValue: competitorPenaltyScale * scale,
		Explanation:   fmt.Sprintf("%d competitor(s) mentioned before the brand", countBefore),
		ContributingFactors: []string{
			"competitors ahead of brand: " + strings.Join(names, ", "),
		},
	}
}

func (s *scoringService) summarize(breakdown *models.ScoreBreakdown, brandMentions, competitorMentions []*models.Mention) string {
	presence := "brand absent"
	if len(brandMentions) > 0 {
		presence = fmt.Sprintf("brand at rank %d", earliestPosition(brandMentions))
	}
	return fmt.Sprintf("%s, %d competitor mention(s); raw %.1f, weighted %.1f (x%.2f), display %.0f/100",
		presence, len(competitorMentions),
		breakdown.TotalRaw, breakdown.TotalWeighted,
		breakdown.ProviderWeightMultiplier, breakdown.NormalizedScore)
}

// normalizeScore maps the raw rubric range onto a 0-100 display scale.
func normalizeScore(totalRaw float64) float64 {
	normalized := (totalRaw - rawScoreFloor) / rawScoreRange * 100
	if normalized < 0 {
		return 0
	}
	if normalized > 100 {
		return 100
	}
	return normalized
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func joinCompetitorNames(mentions []*models.Mention) string {
	seen := make(map[string]bool)
	var names []string
	for _, mention := range mentions {
		if !seen[mention.CanonicalName] {
			seen[mention.CanonicalName] = true
			names = append(names, mention.CanonicalName)
		}
	}
	return strings.Join(names, ", ")
}
