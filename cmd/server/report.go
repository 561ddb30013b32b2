package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/sizefit-dashboard/internal/cache"
	"github.com/ZanzyTHEbar/sizefit-dashboard/internal/leaderboard"
	"github.com/ZanzyTHEbar/sizefit-dashboard/internal/survey"
)

var (
	reportBy    string
	reportOrder string
	reportJSON  bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the per-bucket summary and ranking",
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportBy, "by", string(survey.DefaultRankMetric), "Ranking metric: too_big_pct, just_right_pct, too_small_pct or respondents")
	reportCmd.Flags().StringVar(&reportOrder, "order", string(survey.DefaultOrder), "Ranking order: desc or asc")
	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "Print JSON instead of a table")
	rootCmd.AddCommand(reportCmd)
}

type reportOutput struct {
	Source  string                       `json:"source"`
	Buckets []leaderboard.BucketDetail   `json:"buckets"`
	Ranking *leaderboard.RankingResponse `json:"ranking"`
}

func runReport(cmd *cobra.Command, _ []string) error {
	by, err := survey.ParseMetric(reportBy)
	if err != nil {
		return err
	}
	order, err := survey.ParseOrder(reportOrder)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	bundle, err := loadBundle(ctx, cfg)
	if err != nil {
		return err
	}

	store := cache.NewCache(cfg.CacheTTL)
	defer store.Close()

	policy := cfg.Policy()
	if err := policy.Validate(); err != nil {
		return err
	}
	svc := leaderboard.NewService(bundle.Report, &policy, store, nil, nil)

	buckets, err := svc.ListBuckets(ctx)
	if err != nil {
		return err
	}
	ranking, err := svc.GetRanking(ctx, by, order)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if reportJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(reportOutput{Source: bundle.Source, Buckets: buckets, Ranking: ranking})
	}

	if bundle.Content.Title != "" {
		fmt.Fprintf(out, "%s\n", bundle.Content.Title)
	}
	fmt.Fprintf(out, "Source: %s\n\n", bundle.Source)
	if err := writeBucketTable(out, buckets); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nRanking by %s (%s)\n", ranking.Metric, ranking.Order)
	return writeRankingTable(out, ranking)
}

func writeBucketTable(out io.Writer, buckets []leaderboard.BucketDetail) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	header := []string{"BUCKET", "RESPONDENTS"}
	for _, c := range survey.Categories {
		header = append(header, strings.ToUpper(c.String()))
	}
	header = append(header, "DOMINANT", "PRIORITY")
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for _, b := range buckets {
		row := []string{string(b.Bucket), fmt.Sprint(b.Total)}
		for _, c := range survey.Categories {
			row = append(row, countCell(b, c))
		}
		priority := string(b.Priority)
		if priority == "" {
			priority = "-"
		}
		row = append(row, b.Dominant.String(), priority)
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

func countCell(b leaderboard.BucketDetail, c survey.ResponseCategory) string {
	pct, ok := b.Percentages[c]
	if !ok {
		return fmt.Sprintf("%d (n/a)", b.Counts[c])
	}
	return fmt.Sprintf("%d (%.1f%%)", b.Counts[c], pct)
}

func writeRankingTable(out io.Writer, ranking *leaderboard.RankingResponse) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tBUCKET\tVALUE")
	for _, e := range ranking.Entries {
		value := "n/a"
		if e.Value != nil {
			value = formatValue(ranking.Metric, *e.Value)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", e.Rank, e.Bucket, value)
	}
	return tw.Flush()
}

func formatValue(m survey.Metric, v float64) string {
	if _, ok := m.Category(); ok {
		return fmt.Sprintf("%.1f%%", v)
	}
	return fmt.Sprintf("%.0f", v)
}
