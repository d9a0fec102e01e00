// internal/models/models.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// MatchKind identifies the strategy that produced a mention.
type MatchKind string

const (
	MatchKindExact MatchKind = "exact"
	MatchKindAlias MatchKind = "alias"
	MatchKindFuzzy MatchKind = "fuzzy"
)

// Polarity is the sentiment classification of a piece of text.
type Polarity string

const (
	PolarityPositive Polarity = "positive"
	PolarityNeutral  Polarity = "neutral"
	PolarityNegative Polarity = "negative"
)

// Severity ranks how disruptive a detected drift is.
type Severity string

const (
	SeverityMinor    Severity = "minor"
	SeverityModerate Severity = "moderate"
	SeverityMajor    Severity = "major"
	SeverityCritical Severity = "critical"
)

// DriftKind identifies which sub-detector produced a drift record.
type DriftKind string

const (
	DriftKindBrandPresence          DriftKind = "brand_presence"
	DriftKindPosition               DriftKind = "position"
	DriftKindCitationAdded          DriftKind = "citation_added"
	DriftKindCitationRemoved        DriftKind = "citation_removed"
	DriftKindCompetitorDisplacement DriftKind = "competitor_displacement"
	DriftKindSentiment              DriftKind = "sentiment"
)

// Entity is one tracked organization in a roster.
type Entity struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Aliases    []string  `json:"aliases"`
	IsOwnBrand bool      `json:"is_own_brand"`
}

// EntityRoster is the ordered set of entities tracked for one analysis call.
// Supplied by the caller and treated as immutable for the duration of the call.
type EntityRoster struct {
	Entities []*Entity `json:"entities"`
}

// OwnBrand returns the first entity flagged as the tracked brand, or nil.
func (r *EntityRoster) OwnBrand() *Entity {
	if r == nil {
		return nil
	}
	for _, e := range r.Entities {
		if e.IsOwnBrand {
			return e
		}
	}
	return nil
}

// Mention is one occurrence of a tracked entity's name in analyzed text.
type Mention struct {
	MatchedText     string    `json:"matched_text"`
	CanonicalName   string    `json:"canonical_name"`
	IsOwnBrand      bool      `json:"is_own_brand"`
	EntityID        uuid.UUID `json:"entity_id"`
	Position        int       `json:"position"`         // 1-indexed by order of appearance
	CharacterOffset int       `json:"character_offset"` // byte offset of the match start
	ContextSnippet  string    `json:"context_snippet"`
	MatchKind       MatchKind `json:"match_kind"`
	Confidence      float64   `json:"confidence"` // [0,1]
}

// Primary citations point at one of the organization's own domains, everything
// else is secondary.
const (
	CitationTypePrimary   = "primary"
	CitationTypeSecondary = "secondary"
)

// Citation is a URL referenced by analyzed text, treated as a claimed source.
type Citation struct {
	URL                      string  `json:"url"`
	NormalizedDomain         string  `json:"normalized_domain"`
	AnchorText               *string `json:"anchor_text,omitempty"`
	ContextSnippet           string  `json:"context_snippet"`
	Position                 int     `json:"position"` // 1-indexed by first occurrence
	Type                     string  `json:"type"`     // primary or secondary
	IsSyntacticallyValid     bool    `json:"is_syntactically_valid"`
	IsAccessible             *bool   `json:"is_accessible,omitempty"` // nil until validated, stays nil on timeout
	HTTPStatus               *int    `json:"http_status,omitempty"`
	IsSuspectedHallucination bool    `json:"is_suspected_hallucination"`
}

// SentimentResult is the lexicon-scored polarity of a text or mention window.
type SentimentResult struct {
	Polarity          Polarity `json:"polarity"`
	Score             float64  `json:"score"`      // [-1,1]
	Confidence        float64  `json:"confidence"` // [0,1]
	MatchedIndicators []string `json:"matched_indicators"`
}

// ScoreComponent is one named slice of a visibility score with its evidence.
type ScoreComponent struct {
	RawValue            float64  `json:"raw_value"`
	Weight              float64  `json:"weight"`
	WeightedValue       float64  `json:"weighted_value"`
	Explanation         string   `json:"explanation"`
	ContributingFactors []string `json:"contributing_factors"`
}

// ScoreBreakdown is the full, auditable visibility score for one response.
// Produced fresh per (response, roster) pair and never mutated afterwards.
type ScoreBreakdown struct {
	Mention                  ScoreComponent `json:"mention"`
	Position                 ScoreComponent `json:"position"`
	Citation                 ScoreComponent `json:"citation"`
	Sentiment                ScoreComponent `json:"sentiment"`
	CompetitorDelta          ScoreComponent `json:"competitor_delta"`
	TotalRaw                 float64        `json:"total_raw"`
	ProviderWeightMultiplier float64        `json:"provider_weight_multiplier"`
	TotalWeighted            float64        `json:"total_weighted"`
	NormalizedScore          float64        `json:"normalized_score"` // 0-100 display scale
	Summary                  string         `json:"summary"`
}

// Snapshot is an immutable point-in-time record of one (project, topic, provider)
// observation. Snapshots are the only analysis output meant to be durably stored
// and compared across time.
type Snapshot struct {
	SnapshotID          uuid.UUID      `json:"snapshot_id" db:"snapshot_id"`
	ProjectID           uuid.UUID      `json:"project_id" db:"project_id"`
	TopicID             uuid.UUID      `json:"topic_id" db:"topic_id"`
	Provider            string         `json:"provider" db:"provider"`
	BrandMentioned      bool           `json:"brand_mentioned" db:"brand_mentioned"`
	BrandPosition       *int           `json:"brand_position,omitempty" db:"brand_position"`
	CompetitorPositions map[string]int `json:"competitor_positions" db:"-"`
	CitationURLs        []string       `json:"citation_urls" db:"-"`
	SentimentPolarity   Polarity       `json:"sentiment_polarity" db:"sentiment_polarity"`
	VisibilityScore     float64        `json:"visibility_score" db:"visibility_score"`
	IsBaseline          bool           `json:"is_baseline" db:"is_baseline"`
	CreatedAt           time.Time      `json:"created_at" db:"created_at"`
}

// DriftRecord is one detected change between two snapshots of the same key.
// Records are never mutated after creation, only flagged as acknowledged.
type DriftRecord struct {
	DriftRecordID     uuid.UUID `json:"drift_record_id" db:"drift_record_id"`
	SnapshotID        uuid.UUID `json:"snapshot_id" db:"snapshot_id"`
	DriftKind         DriftKind `json:"drift_kind" db:"drift_kind"`
	Severity          Severity  `json:"severity" db:"severity"`
	PreviousValue     string    `json:"previous_value" db:"previous_value"`
	CurrentValue      string    `json:"current_value" db:"current_value"`
	Description       string    `json:"description" db:"description"`
	AffectedEntity    *string   `json:"affected_entity,omitempty" db:"affected_entity"`
	PositionDelta     *int      `json:"position_delta,omitempty" db:"position_delta"`
	RecommendedAction string    `json:"recommended_action" db:"recommended_action"`
	Acknowledged      bool      `json:"acknowledged" db:"acknowledged"`
	BaselineTimestamp time.Time `json:"baseline_timestamp" db:"baseline_timestamp"`
	CurrentTimestamp  time.Time `json:"current_timestamp" db:"current_timestamp_at"`
}

// SeverityRank orders severities so callers can filter on a minimum level.
func SeverityRank(s Severity) int {
	switch s {
	case SeverityMinor:
		return 0
	case SeverityModerate:
		return 1
	case SeverityMajor:
		return 2
	case SeverityCritical:
		return 3
	default:
		return 0
	}
}

// SentimentRank maps a polarity onto an ordinal scale so drift detection can
// compare directions (negative < neutral < positive).
func SentimentRank(p Polarity) int {
	switch p {
	case PolarityNegative:
		return 0
	case PolarityPositive:
		return 2
	default:
		return 1
	}
}
