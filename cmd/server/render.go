package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/sizefit-dashboard/internal/charts"
	"github.com/ZanzyTHEbar/sizefit-dashboard/internal/survey"
)

var renderOut string

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Write every dashboard chart as an SVG file",
	RunE:  runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "", "Output directory (required)")
	if err := renderCmd.MarkFlagRequired("out"); err != nil {
		panic(err)
	}
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	bundle, err := loadBundle(ctx, cfg)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(renderOut, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	renderer := charts.NewRenderer(bundle.Report, &bundle.Content, nil, nil, nil)

	jobs := map[string]func(context.Context) ([]byte, error){
		"overview.svg": renderer.Overview,
	}
	for _, b := range bundle.Dataset.Buckets() {
		jobs[fmt.Sprintf("pie-%s.svg", b)] = func(ctx context.Context) ([]byte, error) {
			return renderer.BucketPie(ctx, b)
		}
	}
	for _, m := range survey.Metrics {
		jobs[fmt.Sprintf("ranking-%s.svg", m)] = func(ctx context.Context) ([]byte, error) {
			return renderer.Ranking(ctx, m, survey.DefaultOrder)
		}
	}

	written := 0
	for name, render := range jobs {
		svg, err := render(ctx)
		if errors.Is(err, charts.ErrNoData) || errors.Is(err, survey.ErrDivisionUndefined) {
			slog.Warn("Skipping chart", "file", name, "reason", err)
			continue
		}
		if err != nil {
			return err
		}
		path := filepath.Join(renderOut, name)
		if err := os.WriteFile(path, svg, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		written++
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d charts to %s\n", written, renderOut)
	return nil
}
