package main

import (
	"context"
	"fmt"

	"github.com/ZanzyTHEbar/sizefit-dashboard/internal/config"
	"github.com/ZanzyTHEbar/sizefit-dashboard/internal/database"
	apperrors "github.com/ZanzyTHEbar/sizefit-dashboard/internal/errors"
	"github.com/ZanzyTHEbar/sizefit-dashboard/internal/loader"
)

// loadBundle resolves cfg.DatasetSource to a validated survey.
func loadBundle(ctx context.Context, cfg *config.Config) (*loader.Bundle, error) {
	switch cfg.DatasetSource {
	case config.SourceEmbedded:
		return loader.LoadEmbedded()
	case config.SourceSQLite:
		db, err := database.NewDB(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		defer apperrors.SafeClose(db, "survey database")

		bundle, err := database.NewSurveyService(database.NewRepository(db)).LoadBundle(ctx)
		if err != nil {
			return nil, fmt.Errorf("load survey from %s: %w", db.Path(), err)
		}
		return bundle, nil
	default:
		return loader.Load(cfg.DatasetSource)
	}
}
