// services/drift_service.go
package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/AI-Template-SDK/senso-analysis/internal/logging"
	"github.com/AI-Template-SDK/senso-analysis/internal/models"
	"github.com/AI-Template-SDK/senso-analysis/internal/repositories"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type driftService struct {
	snapshotRepo repositories.SnapshotRepository
	logger       *logrus.Entry
}

// NewDriftService creates the snapshot comparison engine. The repository is
// only consulted when DetectDrift is called without an explicit baseline.
func NewDriftService(snapshotRepo repositories.SnapshotRepository) DriftService {
	return &driftService{
		snapshotRepo: snapshotRepo,
		logger:       logging.NewComponentLogger("drift_engine"),
	}
}

func (s *driftService) DetectDrift(ctx context.Context, current *models.Snapshot, baseline *models.Snapshot) ([]*models.DriftRecord, error) {
	if current == nil {
		return nil, fmt.Errorf("current snapshot is required")
	}

	if baseline == nil {
		prior, err := s.snapshotRepo.GetLatest(ctx, current.ProjectID, current.TopicID, current.Provider)
		if err != nil {
			return nil, fmt.Errorf("failed to load baseline snapshot: %w", err)
		}
		baseline = prior
	}

	// First observation for the key. Nothing to compare against.
	if baseline == nil {
		return []*models.DriftRecord{}, nil
	}

	records := []*models.DriftRecord{}
	records = append(records, s.detectPresenceDrift(current, baseline)...)
	records = append(records, s.detectPositionDrift(current, baseline)...)
	records = append(records, s.detectCitationDrift(current, baseline)...)
	records = append(records, s.detectCompetitorDisplacement(current, baseline)...)
	records = append(records, s.detectSentimentDrift(current, baseline)...)

	// Most severe first so consumers can act on the head of the list.
	sort.SliceStable(records, func(i, j int) bool {
		return models.SeverityRank(records[i].Severity) > models.SeverityRank(records[j].Severity)
	})

	s.logger.WithFields(logging.Fields{
		"project_id": current.ProjectID,
		"topic_id":   current.TopicID,
		"provider":   current.Provider,
		"records":    len(records),
	}).Info("drift detection complete")

	return records, nil
}

func (s *driftService) newRecord(current, baseline *models.Snapshot, kind models.DriftKind, severity models.Severity) *models.DriftRecord {
	return &models.DriftRecord{
		DriftRecordID:     uuid.New(),
		SnapshotID:        current.SnapshotID,
		DriftKind:         kind,
		Severity:          severity,
		BaselineTimestamp: baseline.CreatedAt,
		CurrentTimestamp:  current.CreatedAt,
	}
}

func (s *driftService) detectPresenceDrift(current, baseline *models.Snapshot) []*models.DriftRecord {
	if current.BrandMentioned == baseline.BrandMentioned {
		return nil
	}

	if current.BrandMentioned {
		record := s.newRecord(current, baseline, models.DriftKindBrandPresence, models.SeverityMajor)
		record.PreviousValue = "absent"
		record.CurrentValue = "present"
		record.Description = "Brand appeared in responses where it was previously absent"
		record.RecommendedAction = "Confirm the gain holds across providers before reporting it"
		return []*models.DriftRecord{record}
	}

	record := s.newRecord(current, baseline, models.DriftKindBrandPresence, models.SeverityCritical)
	record.PreviousValue = "present"
	record.CurrentValue = "absent"
	record.Description = "Brand dropped out of responses where it previously appeared"
	record.RecommendedAction = "Review recent content changes and competitor activity for this topic"
	return []*models.DriftRecord{record}
}

func (s *driftService) detectPositionDrift(current, baseline *models.Snapshot) []*models.DriftRecord {
	// Position only moves when the brand is present on both sides; appearance
	// and disappearance are the presence detector's job.
	if current.BrandPosition == nil || baseline.BrandPosition == nil {
		return nil
	}
	prev := *baseline.BrandPosition
	curr := *current.BrandPosition
	if prev == curr {
		return nil
	}

	// Positive delta means the brand moved up the list.
	delta := prev - curr
	magnitude := delta
	if magnitude < 0 {
		magnitude = -magnitude
	}

	severity := models.SeverityCritical
	switch {
	case magnitude <= 1:
		severity = models.SeverityMinor
	case magnitude <= 3:
		severity = models.SeverityModerate
	case magnitude <= 5:
		severity = models.SeverityMajor
	}

	direction := "improved"
	action := "No action needed; track whether the improvement persists"
	if delta < 0 {
		direction = "declined"
		action = "Investigate which competitors overtook the brand and why"
	}

	record := s.newRecord(current, baseline, models.DriftKindPosition, severity)
	record.PreviousValue = strconv.Itoa(prev)
	record.CurrentValue = strconv.Itoa(curr)
	record.PositionDelta = &delta
	record.Description = fmt.Sprintf("Brand position %s from %d to %d", direction, prev, curr)
	record.RecommendedAction = action
	return []*models.DriftRecord{record}
}

// detectCitationDrift diffs the citation URL sets. Every added or removed URL
// becomes its own record so consumers can acknowledge them independently.
func (s *driftService) detectCitationDrift(current, baseline *models.Snapshot) []*models.DriftRecord {
	prevSet := make(map[string]bool, len(baseline.CitationURLs))
	for _, u := range baseline.CitationURLs {
		prevSet[u] = true
	}
	currSet := make(map[string]bool, len(current.CitationURLs))
	for _, u := range current.CitationURLs {
		currSet[u] = true
	}

	var added, removed []string
	for u := range currSet {
		if !prevSet[u] {
			added = append(added, u)
		}
	}
	for u := range prevSet {
		if !currSet[u] {
			removed = append(removed, u)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)

	var records []*models.DriftRecord
	for _, u := range added {
		record := s.newRecord(current, baseline, models.DriftKindCitationAdded, models.SeverityModerate)
		record.CurrentValue = u
		record.Description = fmt.Sprintf("New citation: %s", u)
		record.RecommendedAction = "Review the new source for accuracy and sentiment"
		records = append(records, record)
	}
	for _, u := range removed {
		record := s.newRecord(current, baseline, models.DriftKindCitationRemoved, models.SeverityModerate)
		record.PreviousValue = u
		record.Description = fmt.Sprintf("Citation dropped: %s", u)
		record.RecommendedAction = "Check whether the dropped source went stale or was displaced"
		records = append(records, record)
	}
	return records
}

// detectCompetitorDisplacement checks every competitor key in either position
// map for a rank flip relative to the brand, in both directions.
func (s *driftService) detectCompetitorDisplacement(current, baseline *models.Snapshot) []*models.DriftRecord {
	if current.BrandPosition == nil || baseline.BrandPosition == nil {
		return nil
	}
	prevBrand := *baseline.BrandPosition
	currBrand := *current.BrandPosition

	names := make(map[string]bool, len(current.CompetitorPositions)+len(baseline.CompetitorPositions))
	for name := range current.CompetitorPositions {
		names[name] = true
	}
	for name := range baseline.CompetitorPositions {
		names[name] = true
	}
	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	var records []*models.DriftRecord
	for _, name := range sorted {
		prevPos, prevOK := baseline.CompetitorPositions[name]
		currPos, currOK := current.CompetitorPositions[name]
		prevAbove := prevOK && prevPos < prevBrand
		currAbove := currOK && currPos < currBrand
		if prevAbove == currAbove {
			continue
		}

		affected := name
		record := s.newRecord(current, baseline, models.DriftKindCompetitorDisplacement, models.SeverityMajor)
		record.AffectedEntity = &affected
		record.PreviousValue = competitorRankValue(prevOK, prevPos, prevBrand)
		record.CurrentValue = competitorRankValue(currOK, currPos, currBrand)
		if currAbove {
			record.Description = fmt.Sprintf("%s now ranks ahead of the brand", name)
			record.RecommendedAction = "Compare competitor messaging for this topic against current brand content"
		} else {
			record.Description = fmt.Sprintf("Brand now ranks ahead of %s", name)
			record.RecommendedAction = "No action needed; track whether the lead over this competitor holds"
		}
		records = append(records, record)
	}
	return records
}

func competitorRankValue(present bool, competitorPos, brandPos int) string {
	if !present {
		return "unranked"
	}
	return fmt.Sprintf("competitor %d vs brand %d", competitorPos, brandPos)
}

func (s *driftService) detectSentimentDrift(current, baseline *models.Snapshot) []*models.DriftRecord {
	prevRank := models.SentimentRank(baseline.SentimentPolarity)
	currRank := models.SentimentRank(current.SentimentPolarity)
	if prevRank == currRank {
		return nil
	}

	severity := models.SeverityMajor
	action := "Identify the negative language driving the shift and its sources"
	if currRank > prevRank {
		severity = models.SeverityModerate
		action = "No action needed; note what changed in case the tone reverts"
	}

	record := s.newRecord(current, baseline, models.DriftKindSentiment, severity)
	record.PreviousValue = string(baseline.SentimentPolarity)
	record.CurrentValue = string(current.SentimentPolarity)
	record.Description = fmt.Sprintf("Brand sentiment moved from %s to %s", baseline.SentimentPolarity, current.SentimentPolarity)
	record.RecommendedAction = action
	return []*models.DriftRecord{record}
}
