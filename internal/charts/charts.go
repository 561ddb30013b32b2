package charts

import (
	"errors"
	"fmt"
	"io"

	"github.com/ZanzyTHEbar/sizefit-dashboard/internal/survey"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Kind names a chart for caching and metrics
type Kind string

const (
	KindOverview Kind = "overview"
	KindPie      Kind = "pie"
	KindRanking  Kind = "ranking"
)

// ErrNoData is returned when a chart would have nothing to plot
var ErrNoData = errors.New("charts: no data to plot")

// Palette maps each response category to its fill colour
type Palette map[survey.ResponseCategory]drawing.Color

// DefaultPalette is red for too big, green for just right and blue for too small.
var DefaultPalette = Palette{
	survey.TooBig:    drawing.ColorFromHex("ef4444"),
	survey.JustRight: drawing.ColorFromHex("10b981"),
	survey.TooSmall:  drawing.ColorFromHex("3b82f6"),
}

var neutralColor = drawing.ColorFromHex("6b7280")

// Labeler supplies display labels for categories.
type Labeler interface {
	Label(category survey.ResponseCategory) string
}

type wireLabels struct{}

func (wireLabels) Label(category survey.ResponseCategory) string { return category.String() }

const (
	wideWidth  = 800
	wideHeight = 400
	pieSize    = 400
)

func categoryStyle(palette Palette, category survey.ResponseCategory) chart.Style {
	color, ok := palette[category]
	if !ok {
		color = neutralColor
	}
	return chart.Style{
		FillColor:   color,
		StrokeColor: color,
		StrokeWidth: 1,
	}
}

// Overview writes a stacked bar per bucket showing the share of each
// category. Buckets without respondents are left out.
func Overview(w io.Writer, report *survey.Report, labels Labeler, palette Palette) error {
	if labels == nil {
		labels = wireLabels{}
	}

	var bars []chart.StackedBar
	for _, s := range report.Summaries() {
		if s.Total == 0 {
			continue
		}
		bar := chart.StackedBar{Name: string(s.Bucket)}
		for _, c := range survey.Categories {
			n := s.Counts[c]
			if n == 0 {
				continue
			}
			bar.Values = append(bar.Values, chart.Value{
				Label: fmt.Sprintf("%s %d", labels.Label(c), n),
				Value: float64(n),
				Style: categoryStyle(palette, c),
			})
		}
		bars = append(bars, bar)
	}
	if len(bars) == 0 {
		return ErrNoData
	}

	graph := chart.StackedBarChart{
		Width:      wideWidth,
		Height:     wideHeight,
		BarSpacing: 60,
		XAxis:      chart.Style{FontSize: 12},
		YAxis:      chart.Style{FontSize: 10},
		Bars:       bars,
	}
	return graph.Render(chart.SVG, w)
}

// BucketPie writes the category shares of one bucket. Categories with no
// answers are omitted.
func BucketPie(w io.Writer, report *survey.Report, bucket survey.SizeBucket, labels Labeler, palette Palette) error {
	if labels == nil {
		labels = wireLabels{}
	}

	summary, err := report.Summary(bucket)
	if err != nil {
		return err
	}
	if summary.Total == 0 {
		return &survey.DivisionUndefinedError{Bucket: summary.Bucket}
	}

	var values []chart.Value
	for _, c := range survey.Categories {
		if summary.Counts[c] == 0 {
			continue
		}
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s %.1f%%", labels.Label(c), summary.Percentages[c]),
			Value: float64(summary.Counts[c]),
			Style: categoryStyle(palette, c),
		})
	}

	graph := chart.PieChart{
		Width:  pieSize,
		Height: pieSize,
		Values: values,
	}
	return graph.Render(chart.SVG, w)
}

// Ranking writes one bar per bucket in rank order. Buckets whose metric is
// undefined are not drawn.
func Ranking(w io.Writer, report *survey.Report, by survey.Metric, order survey.Order, palette Palette) error {
	ranked, err := report.Rank(by, order)
	if err != nil {
		return err
	}
	if by == "" {
		by = survey.DefaultRankMetric
	}

	style := chart.Style{FillColor: neutralColor, StrokeColor: neutralColor, StrokeWidth: 1}
	category, isPercentage := by.Category()
	if isPercentage {
		style = categoryStyle(palette, category)
	}

	var bars []chart.Value
	highest := 0.0
	for b := range ranked {
		v, defined, err := report.Value(b, by)
		if err != nil {
			return err
		}
		if !defined {
			continue
		}
		highest = max(highest, v)
		bars = append(bars, chart.Value{Label: string(b), Value: v, Style: style})
	}
	if len(bars) == 0 {
		return ErrNoData
	}

	yRange := &chart.ContinuousRange{Min: 0, Max: 100}
	if !isPercentage {
		if highest == 0 {
			return ErrNoData
		}
		yRange = &chart.ContinuousRange{Min: 0, Max: highest}
	}

	graph := chart.BarChart{
		Title:    string(by),
		Width:    wideWidth,
		Height:   wideHeight,
		BarWidth: 60,
		YAxis:    chart.YAxis{Range: yRange},
		Bars:     bars,
	}
	return graph.Render(chart.SVG, w)
}
