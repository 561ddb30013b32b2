package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ZanzyTHEbar/sizefit-dashboard/internal/loader"
)

// SourcePrefix marks bundles that were read from sqlite
const SourcePrefix = "sqlite:"

// SurveyService stores and restores validated survey bundles
type SurveyService struct {
	repo *Repository
}

// NewSurveyService creates a new survey service
func NewSurveyService(repo *Repository) *SurveyService {
	return &SurveyService{repo: repo}
}

// SaveBundle replaces the stored survey with bundle. source records where the
// bundle was loaded from.
func (s *SurveyService) SaveBundle(ctx context.Context, bundle *loader.Bundle, source string) (*SurveyRecord, error) {
	if source == "" {
		source = bundle.Source
	}

	record, err := s.repo.SaveDocument(ctx, bundle.ToDocument(), source)
	if err != nil {
		return nil, fmt.Errorf("failed to save survey: %w", err)
	}

	slog.Info("Survey stored",
		"survey_id", record.ID,
		"buckets", bundle.Dataset.Len(),
		"source", record.Source)

	return record, nil
}

// LoadBundle reads the stored survey back through the same validation as a
// file load
func (s *SurveyService) LoadBundle(ctx context.Context) (*loader.Bundle, error) {
	doc, record, err := s.repo.LoadDocument(ctx)
	if err != nil {
		return nil, err
	}

	bundle, err := loader.FromDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("stored survey %s is invalid: %w", record.ID, err)
	}
	bundle.Source = SourcePrefix + record.ID

	return bundle, nil
}
