package charts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ZanzyTHEbar/sizefit-dashboard/internal/cache"
	"github.com/ZanzyTHEbar/sizefit-dashboard/internal/monitoring"
	"github.com/ZanzyTHEbar/sizefit-dashboard/internal/survey"
	"golang.org/x/sync/errgroup"
)

const warmUpConcurrency = 4

// Renderer draws charts for one report and keeps the SVG bytes in a cache.
type Renderer struct {
	report  *survey.Report
	labels  Labeler
	palette Palette
	store   cache.Store
	metrics *monitoring.Metrics
	logger  *monitoring.Logger
}

// NewRenderer creates a renderer. store, metrics and logger may be nil.
func NewRenderer(report *survey.Report, labels Labeler, store cache.Store, metrics *monitoring.Metrics, logger *monitoring.Logger) *Renderer {
	return &Renderer{
		report:  report,
		labels:  labels,
		palette: DefaultPalette,
		store:   store,
		metrics: metrics,
		logger:  logger,
	}
}

// Overview returns the stacked share chart as SVG.
func (r *Renderer) Overview(ctx context.Context) ([]byte, error) {
	return r.render(ctx, KindOverview, "chart:overview", func(w io.Writer) error {
		return Overview(w, r.report, r.labels, r.palette)
	})
}

// BucketPie returns the pie chart for bucket as SVG.
func (r *Renderer) BucketPie(ctx context.Context, bucket survey.SizeBucket) ([]byte, error) {
	key := "chart:pie:" + string(bucket)
	return r.render(ctx, KindPie, key, func(w io.Writer) error {
		return BucketPie(w, r.report, bucket, r.labels, r.palette)
	})
}

// Ranking returns the ranking bar chart as SVG. Empty arguments select the
// default metric and order.
func (r *Renderer) Ranking(ctx context.Context, by survey.Metric, order survey.Order) ([]byte, error) {
	if by == "" {
		by = survey.DefaultRankMetric
	}
	if order == "" {
		order = survey.DefaultOrder
	}
	key := fmt.Sprintf("chart:ranking:%s:%s", by, order)
	return r.render(ctx, KindRanking, key, func(w io.Writer) error {
		return Ranking(w, r.report, by, order, r.palette)
	})
}

func (r *Renderer) render(ctx context.Context, kind Kind, key string, draw func(io.Writer) error) ([]byte, error) {
	if r.store != nil {
		if data, ok := r.store.Get(ctx, key); ok {
			if r.logger != nil {
				r.logger.ChartRenderLogger(string(kind), key, len(data), 0, true)
			}
			return data, nil
		}
	}

	start := time.Now()
	var buf bytes.Buffer
	err := draw(&buf)
	duration := time.Since(start)

	if r.metrics != nil {
		r.metrics.RecordChartRender(string(kind), duration, err)
	}
	if err != nil {
		return nil, fmt.Errorf("render %s chart: %w", kind, err)
	}

	data := buf.Bytes()
	if r.store != nil {
		r.store.Set(ctx, key, data)
	}
	if r.logger != nil {
		r.logger.ChartRenderLogger(string(kind), key, len(data), duration, false)
	}
	return data, nil
}

// WarmUp renders every chart once so the first page load is served from
// cache. Charts with nothing to plot are skipped.
func (r *Renderer) WarmUp(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(warmUpConcurrency)

	tasks := []func() error{
		func() error {
			_, err := r.Overview(ctx)
			return err
		},
	}
	for _, b := range r.report.Dataset().Buckets() {
		tasks = append(tasks, func() error {
			_, err := r.BucketPie(ctx, b)
			return err
		})
	}
	for _, m := range survey.Metrics {
		tasks = append(tasks, func() error {
			_, err := r.Ranking(ctx, m, survey.DefaultOrder)
			return err
		})
	}

	for _, task := range tasks {
		g.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err := task(); err != nil && !skippable(err) {
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

func skippable(err error) bool {
	return errors.Is(err, ErrNoData) || errors.Is(err, survey.ErrDivisionUndefined)
}
