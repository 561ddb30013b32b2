// Command sizefit serves the toddler bottoms size-fit dashboard and offers
// offline tools over the same survey data.
//
// @title           Size-Fit Survey API
// @version         1.0.0
// @description     Per-bucket summaries and rankings of the toddler bottoms fit survey.
// @BasePath        /api/v1
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/sizefit-dashboard/internal/config"
)

var (
	sourceFlag   string
	dataDirFlag  string
	logLevelFlag string
)

var rootCmd = &cobra.Command{
	Use:   "sizefit",
	Short: "Size-fit survey dashboard",
	Long: `sizefit summarises a clothing size-fit survey per size bucket.

The survey is read from the built-in dataset, a YAML or JSON file, or the
sqlite store under the data directory. Run "sizefit serve" for the web
dashboard, or "sizefit report" for a terminal summary.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		setupLogging(cfg)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&sourceFlag, "source", "", `Survey source: "embedded", "sqlite" or a file path (overrides DATASET_SOURCE)`)
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "Directory holding the sqlite store (overrides DATA_DIR)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "debug, info, warn or error (overrides LOG_LEVEL)")
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the environment and applies the persistent flags on top.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if sourceFlag != "" {
		cfg.DatasetSource = sourceFlag
	}
	if dataDirFlag != "" {
		cfg.DataDir = dataDirFlag
	}
	if logLevelFlag != "" {
		cfg.LogLevel = logLevelFlag
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogging(cfg *config.Config) {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)
}
