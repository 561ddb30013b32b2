package charts

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/ZanzyTHEbar/sizefit-dashboard/internal/cache"
	"github.com/ZanzyTHEbar/sizefit-dashboard/internal/loader"
	"github.com/ZanzyTHEbar/sizefit-dashboard/internal/monitoring"
	"github.com/ZanzyTHEbar/sizefit-dashboard/internal/survey"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func embeddedReport(t *testing.T) (*survey.Report, Labeler) {
	t.Helper()
	bundle, err := loader.LoadEmbedded()
	require.NoError(t, err)
	return bundle.Report, &bundle.Content
}

func reportFrom(t *testing.T, entries ...survey.Entry) *survey.Report {
	t.Helper()
	ds, err := survey.New(entries)
	require.NoError(t, err)
	return survey.NewReport(ds)
}

func counts(tooBig, justRight, tooSmall int) map[survey.ResponseCategory]int {
	return map[survey.ResponseCategory]int{
		survey.TooBig:    tooBig,
		survey.JustRight: justRight,
		survey.TooSmall:  tooSmall,
	}
}

func TestOverview(t *testing.T) {
	report, labels := embeddedReport(t)

	var buf bytes.Buffer
	require.NoError(t, Overview(&buf, report, labels, DefaultPalette))
	assert.Contains(t, buf.String(), "<svg")
}

func TestOverview_NoData(t *testing.T) {
	tests := []struct {
		name   string
		report *survey.Report
	}{
		{"empty dataset", reportFrom(t)},
		{"only silent buckets", reportFrom(t, survey.Entry{Bucket: "130", Counts: counts(0, 0, 0)})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := Overview(&buf, tt.report, nil, DefaultPalette)
			assert.ErrorIs(t, err, ErrNoData)
			assert.Zero(t, buf.Len())
		})
	}
}

func TestBucketPie(t *testing.T) {
	report, labels := embeddedReport(t)
	silent := reportFrom(t, survey.Entry{Bucket: "130", Counts: counts(0, 0, 0)})

	tests := []struct {
		name    string
		report  *survey.Report
		bucket  survey.SizeBucket
		wantErr error
	}{
		{"populated bucket", report, "105", nil},
		{"bucket with a missing category", report, "110", nil},
		{"unknown bucket", report, "130", survey.ErrNotFound},
		{"bucket without respondents", silent, "130", survey.ErrDivisionUndefined},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := BucketPie(&buf, tt.report, tt.bucket, labels, DefaultPalette)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, buf.String(), "<svg")
		})
	}
}

func TestRanking(t *testing.T) {
	report, _ := embeddedReport(t)
	silent := reportFrom(t, survey.Entry{Bucket: "130", Counts: counts(0, 0, 0)})

	tests := []struct {
		name    string
		report  *survey.Report
		by      survey.Metric
		wantErr error
	}{
		{"default metric", report, "", nil},
		{"respondents", report, survey.MetricRespondents, nil},
		{"too small share", report, survey.MetricTooSmallPct, nil},
		{"unknown metric", report, survey.Metric("fit_score"), survey.ErrValidation},
		{"only undefined shares", silent, survey.MetricTooBigPct, ErrNoData},
		{"no respondents anywhere", silent, survey.MetricRespondents, ErrNoData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := Ranking(&buf, tt.report, tt.by, survey.Descending, DefaultPalette)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, buf.String(), "<svg")
		})
	}
}

func TestRenderer_CachesOutput(t *testing.T) {
	ctx := context.Background()
	report, labels := embeddedReport(t)

	store := cache.NewCache(time.Minute)
	defer store.Close()
	metrics := monitoring.NewMetrics()
	r := NewRenderer(report, labels, store, metrics, nil)

	first, err := r.Overview(ctx)
	require.NoError(t, err)
	second, err := r.Overview(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	overview := metrics.GetChartStats()[string(KindOverview)].(map[string]interface{})
	assert.Equal(t, int64(1), overview["renders"])

	_, found := store.Get(ctx, "chart:overview")
	assert.True(t, found)
}

func TestRenderer_RankingDefaultsShareCacheEntry(t *testing.T) {
	ctx := context.Background()
	report, labels := embeddedReport(t)

	store := cache.NewCache(time.Minute)
	defer store.Close()
	metrics := monitoring.NewMetrics()
	r := NewRenderer(report, labels, store, metrics, nil)

	_, err := r.Ranking(ctx, "", "")
	require.NoError(t, err)
	_, err = r.Ranking(ctx, survey.DefaultRankMetric, survey.DefaultOrder)
	require.NoError(t, err)

	ranking := metrics.GetChartStats()[string(KindRanking)].(map[string]interface{})
	assert.Equal(t, int64(1), ranking["renders"])
}

func TestRenderer_ErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()
	report, labels := embeddedReport(t)

	store := cache.NewCache(time.Minute)
	defer store.Close()
	metrics := monitoring.NewMetrics()
	r := NewRenderer(report, labels, store, metrics, nil)

	_, err := r.BucketPie(ctx, "130")
	assert.ErrorIs(t, err, survey.ErrNotFound)
	assert.Equal(t, 0, store.Size())

	pie := metrics.GetChartStats()[string(KindPie)].(map[string]interface{})
	assert.Equal(t, int64(1), pie["errors"])
}

func TestRenderer_WarmUp(t *testing.T) {
	ctx := context.Background()
	report, labels := embeddedReport(t)

	store := cache.NewCache(time.Minute)
	defer store.Close()
	r := NewRenderer(report, labels, store, monitoring.NewMetrics(), nil)

	require.NoError(t, r.WarmUp(ctx))
	// overview, three pies and one ranking per metric
	assert.Equal(t, 1+3+len(survey.Metrics), store.Size())

	_, found := store.Get(ctx, "chart:pie:110")
	assert.True(t, found)
}

func TestRenderer_WarmUpSkipsEmptyCharts(t *testing.T) {
	report := reportFrom(t, survey.Entry{Bucket: "130", Counts: counts(0, 0, 0)})
	r := NewRenderer(report, nil, nil, nil, nil)

	assert.NoError(t, r.WarmUp(context.Background()))
}
