// services/sentiment_service.go
package services

import (
	"sort"
	"strings"

	"github.com/AI-Template-SDK/senso-analysis/internal/config"
	"github.com/AI-Template-SDK/senso-analysis/internal/models"
)

// Lexicon tiers. Weights follow the strong/moderate/mild ladder; phrases are
// matched whole-word and case-insensitively.
var positiveIndicators = map[string]float64{
	// strong
	"excellent":        1.0,
	"outstanding":      1.0,
	"exceptional":      1.0,
	"best-in-class":    1.0,
	"industry-leading": 1.0,
	"superb":           1.0,
	"amazing":          1.0,
	"top choice":       1.0,
	// moderate
	"great":       0.6,
	"strong":      0.6,
	"reliable":    0.6,
	"impressive":  0.6,
	"recommended": 0.6,
	"trusted":     0.6,
	"robust":      0.6,
	// mild
	"good":     0.3,
	"solid":    0.3,
	"useful":   0.3,
	"helpful":  0.3,
	"decent":   0.3,
	"flexible": 0.3,
	"capable":  0.3,
	"easy":     0.3,
}

var negativeIndicators = map[string]float64{
	// strong
	"terrible":  1.0,
	"awful":     1.0,
	"worst":     1.0,
	"horrible":  1.0,
	"unusable":  1.0,
	"dangerous": 1.0,
	"scam":      1.0,
	// moderate
	"poor":          0.6,
	"weak":          0.6,
	"unreliable":    0.6,
	"disappointing": 0.6,
	"buggy":         0.6,
	"overpriced":    0.6,
	"frustrating":   0.6,
	"outdated":      0.6,
	// mild
	"limited": 0.3,
	"lacking": 0.3,
	"slow":    0.3,
	"basic":   0.3,
	"dated":   0.3,
	"pricey":  0.3,
	"clunky":  0.3,
}

var negationTokens = []string{
	"not", "no", "never", "hardly", "barely", "without",
	"isn't", "wasn't", "aren't", "don't", "doesn't", "didn't",
	"can't", "cannot", "won't", "neither", "nor",
}

// Negation dampens rather than fully inverts: a negated positive leaks into the
// negative score at half weight, a negated negative into the positive score at
// less than half.
const (
	negatedPositiveWeight = 0.5
	negatedNegativeWeight = 0.3
)

const confidenceSaturation = 5 // indicator count at which confidence reaches 1

type sentimentService struct {
	cfg *config.AnalysisConfig
}

// NewSentimentService creates the lexicon-based sentiment analyzer.
func NewSentimentService(cfg *config.AnalysisConfig) SentimentService {
	return &sentimentService{cfg: cfg}
}

func (s *sentimentService) Analyze(text string) *models.SentimentResult {
	if strings.TrimSpace(text) == "" {
		return &models.SentimentResult{
			Polarity:          models.PolarityNeutral,
			Score:             0,
			Confidence:        0,
			MatchedIndicators: []string{},
		}
	}

	lowerText := strings.ToLower(text)

	type indicatorHit struct {
		offset   int
		phrase   string
		weight   float64
		positive bool
		negated  bool
	}
	var hits []indicatorHit

	scan := func(lexicon map[string]float64, positive bool) {
		for phrase, weight := range lexicon {
			from := 0
			for {
				idx := strings.Index(lowerText[from:], phrase)
				if idx < 0 {
					break
				}
				start := from + idx
				end := start + len(phrase)
				if isWordBoundary(lowerText, start, end) {
					hits = append(hits, indicatorHit{
						offset:   start,
						phrase:   phrase,
						weight:   weight,
						positive: positive,
						negated:  s.isNegated(lowerText, start),
					})
				}
				from = start + 1
			}
		}
	}

	scan(positiveIndicators, true)
	scan(negativeIndicators, false)

	// Sort by text position so the output is deterministic regardless of
	// lexicon iteration order.
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].offset != hits[j].offset {
			return hits[i].offset < hits[j].offset
		}
		return hits[i].phrase < hits[j].phrase
	})

	var posWeighted, negWeighted float64
	indicators := make([]string, 0, len(hits))
	for _, hit := range hits {
		switch {
		case hit.positive && !hit.negated:
			posWeighted += hit.weight
			indicators = append(indicators, hit.phrase)
		case hit.positive && hit.negated:
			negWeighted += hit.weight * negatedPositiveWeight
			indicators = append(indicators, hit.phrase+" (negated)")
		case !hit.positive && !hit.negated:
			negWeighted += hit.weight
			indicators = append(indicators, hit.phrase)
		default:
			posWeighted += hit.weight * negatedNegativeWeight
			indicators = append(indicators, hit.phrase+" (negated)")
		}
	}

	result := &models.SentimentResult{
		Polarity:          models.PolarityNeutral,
		MatchedIndicators: indicators,
	}

	total := posWeighted + negWeighted
	if total > 0 {
		score := (posWeighted - negWeighted) / total
		if score > 1 {
			score = 1
		}
		if score < -1 {
			score = -1
		}
		result.Score = score
	}

	confidence := float64(len(indicators)) / confidenceSaturation
	if confidence > 1 {
		confidence = 1
	}
	result.Confidence = confidence

	switch {
	case result.Score > 0.2:
		result.Polarity = models.PolarityPositive
	case result.Score < -0.2:
		result.Polarity = models.PolarityNegative
	}

	return result
}

// AnalyzeWindow scores the fixed-size window around one mention span. The
// window extends windowSize chars either side of [start,end) and is clamped to
// the text.
func (s *sentimentService) AnalyzeWindow(fullText string, start, end, windowSize int) *models.SentimentResult {
	if fullText == "" || start < 0 || end < start {
		return s.Analyze("")
	}
	if windowSize <= 0 {
		windowSize = s.cfg.SentimentWindow
	}

	windowStart := start - windowSize
	if windowStart < 0 {
		windowStart = 0
	}
	windowEnd := end + windowSize
	if windowEnd > len(fullText) {
		windowEnd = len(fullText)
	}
	if windowStart >= len(fullText) {
		return s.Analyze("")
	}

	return s.Analyze(fullText[windowStart:windowEnd])
}

// isNegated looks for a negation token in the fixed lookback window
// immediately preceding a matched indicator.
func (s *sentimentService) isNegated(lowerText string, indicatorStart int) bool {
	lookbackStart := indicatorStart - s.cfg.NegationLookback
	if lookbackStart < 0 {
		lookbackStart = 0
	}
	// Back the window up to a word boundary so a token clipped mid-word, like
	// the tail of "knot" landing as "not", is never scanned as a standalone word.
	for lookbackStart > 0 && isAlphanumeric(lowerText[lookbackStart]) && isAlphanumeric(lowerText[lookbackStart-1]) {
		lookbackStart--
	}
	window := lowerText[lookbackStart:indicatorStart]

	for _, token := range negationTokens {
		from := 0
		for {
			idx := strings.Index(window[from:], token)
			if idx < 0 {
				break
			}
			start := from + idx
			if isWordBoundary(window, start, start+len(token)) {
				return true
			}
			from = start + 1
		}
	}
	return false
}
