package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/sizefit-dashboard/internal/database"
	apperrors "github.com/ZanzyTHEbar/sizefit-dashboard/internal/errors"
	"github.com/ZanzyTHEbar/sizefit-dashboard/internal/loader"
)

var seedFrom string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Store a survey file in the sqlite database",
	Long: `Seed validates a YAML or JSON survey file and replaces the survey held
in the sqlite store under the data directory. Serve it afterwards with
--source sqlite.`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVarP(&seedFrom, "from", "f", "", "Survey file to import (required)")
	if err := seedCmd.MarkFlagRequired("from"); err != nil {
		panic(err)
	}
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	bundle, err := loader.Load(seedFrom)
	if err != nil {
		return err
	}

	db, err := database.NewDB(cfg.DataDir)
	if err != nil {
		return err
	}
	defer apperrors.SafeClose(db, "survey database")

	record, err := database.NewSurveyService(database.NewRepository(db)).SaveBundle(cmd.Context(), bundle, seedFrom)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Stored survey %s (%d buckets) in %s\n", record.ID, bundle.Dataset.Len(), db.Path())
	return nil
}
