package frontend

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ZanzyTHEbar/sizefit-dashboard/internal/leaderboard"
	"github.com/ZanzyTHEbar/sizefit-dashboard/internal/loader"
	"github.com/ZanzyTHEbar/sizefit-dashboard/internal/survey"
)

// Tabs of the dashboard, in navigation order.
const (
	TabOverview        = "overview"
	TabSizes           = "sizes"
	TabRecommendations = "recommendations"
	TabFeedback        = "feedback"
)

var tabs = []TabLink{
	{ID: TabOverview, Title: "Overview"},
	{ID: TabSizes, Title: "Sizes"},
	{ID: TabRecommendations, Title: "Recommendations"},
	{ID: TabFeedback, Title: "Feedback"},
}

// ValidTab reports whether tab names a dashboard tab
func ValidTab(tab string) bool {
	for _, t := range tabs {
		if t.ID == tab {
			return true
		}
	}
	return false
}

type TabLink struct {
	ID     string
	Title  string
	Active bool
}

// Page is everything a dashboard template reads.
type Page struct {
	Nonce       string
	Tab         string
	Tabs        []TabLink
	Title       string
	Subtitle    string
	PageTitle   string
	Cards       []MetricCard
	Findings    []loader.Finding
	Buckets     []BucketView
	Ranked      []BucketView
	Strategic   *loader.Recommendation
	Benchmarks  []loader.Benchmark
	ActionItems []ActionItemView
}

// MetricCard is the headline share of the policy category for one bucket.
type MetricCard struct {
	Bucket survey.SizeBucket
	Value  string
	Label  string
	Tone   string
	Issues []string
	Err    string
}

type CategoryRow struct {
	Label      string
	Count      int
	Percentage string
}

type FeedbackItem struct {
	N    int
	Text string
}

// BucketView is one size bucket as shown on the sizes, recommendations and
// feedback tabs. Err is set when a query for the bucket failed; the
// templates render it as an inline panel in place of the bucket's figures.
type BucketView struct {
	Bucket         survey.SizeBucket
	Total          int
	Rows           []CategoryRow
	Headline       string
	Priority       survey.Priority
	Tone           string
	Recommendation *loader.Recommendation
	FeedbackLeft   []FeedbackItem
	FeedbackRight  []FeedbackItem
	FeedbackTone   string
	Err            string
}

type ActionItemView struct {
	loader.ActionItem
	Tone string
}

// Builder assembles dashboard pages from the ranking service and the
// survey's literal content.
type Builder struct {
	svc     *leaderboard.Service
	content *loader.Content
}

func NewBuilder(svc *leaderboard.Service, content *loader.Content) *Builder {
	return &Builder{svc: svc, content: content}
}

// Build returns the page for tab. Bucket query failures are carried on the
// affected views; only a failed ranking fails the whole page.
func (b *Builder) Build(ctx context.Context, tab, nonce string) (*Page, error) {
	page := &Page{
		Nonce:       nonce,
		Tab:         tab,
		Tabs:        make([]TabLink, len(tabs)),
		Title:       b.content.Title,
		Subtitle:    b.content.Subtitle,
		PageTitle:   b.content.PageTitle,
		Findings:    b.content.Findings,
		Strategic:   b.content.Strategic,
		Benchmarks:  b.content.Benchmarks,
		ActionItems: make([]ActionItemView, 0, len(b.content.ActionItems)),
	}
	if page.PageTitle == "" {
		page.PageTitle = page.Title
	}
	for i, t := range tabs {
		t.Active = t.ID == tab
		page.Tabs[i] = t
	}

	views := make(map[survey.SizeBucket]BucketView)
	for _, bucket := range b.svc.Report().Dataset().Buckets() {
		view := b.bucketView(ctx, bucket)
		views[bucket] = view
		page.Buckets = append(page.Buckets, view)
		page.Cards = append(page.Cards, b.metricCard(bucket, view))
	}

	ranking, err := b.svc.GetRanking(ctx, b.rankMetric(), survey.Descending)
	if err != nil {
		return nil, fmt.Errorf("rank buckets: %w", err)
	}
	for _, entry := range ranking.Entries {
		page.Ranked = append(page.Ranked, views[entry.Bucket])
	}

	for _, item := range b.content.ActionItems {
		tone := "info"
		if p, ok := b.svc.Classify(survey.SizeBucket(item.Bucket)); ok {
			tone = p.Tone()
		}
		page.ActionItems = append(page.ActionItems, ActionItemView{ActionItem: item, Tone: tone})
	}

	return page, nil
}

func (b *Builder) policyCategory() survey.ResponseCategory {
	if p := b.svc.Policy(); p != nil {
		return p.Category
	}
	return survey.TooBig
}

func (b *Builder) rankMetric() survey.Metric {
	switch b.policyCategory() {
	case survey.JustRight:
		return survey.MetricJustRightPct
	case survey.TooSmall:
		return survey.MetricTooSmallPct
	default:
		return survey.MetricTooBigPct
	}
}

func (b *Builder) bucketView(ctx context.Context, bucket survey.SizeBucket) BucketView {
	text := b.content.Bucket(bucket)
	view := BucketView{
		Bucket:         bucket,
		Recommendation: text.Recommendation,
		FeedbackTone:   "info",
	}
	for i, f := range text.Feedback {
		item := FeedbackItem{N: i + 1, Text: f}
		if i%2 == 0 {
			view.FeedbackLeft = append(view.FeedbackLeft, item)
		} else {
			view.FeedbackRight = append(view.FeedbackRight, item)
		}
	}

	detail, err := b.svc.GetBucket(ctx, bucket)
	if err != nil {
		view.Err = err.Error()
		return view
	}
	view.Total = detail.Total
	view.Priority = detail.Priority
	view.Tone = detail.Tone
	if view.Priority == survey.PriorityLow {
		view.FeedbackTone = "success"
	}

	// The headline names the flagged category while the bucket is flagged,
	// and the dominant answer once it is not.
	headline := b.policyCategory()
	if view.Priority == "" || view.Priority == survey.PriorityLow {
		headline = detail.Dominant
	}
	pct, err := b.svc.PercentageFor(bucket, headline)
	if err != nil {
		view.Err = err.Error()
		return view
	}
	view.Headline = fmt.Sprintf("%s%% %s", formatPercent(pct, 0), b.content.Label(headline))

	for _, c := range survey.Categories {
		if detail.Counts[c] == 0 {
			continue
		}
		view.Rows = append(view.Rows, CategoryRow{
			Label:      b.content.Label(c),
			Count:      detail.Counts[c],
			Percentage: formatPercent(detail.Percentages[c], 1) + "%",
		})
	}
	return view
}

func (b *Builder) metricCard(bucket survey.SizeBucket, view BucketView) MetricCard {
	category := b.policyCategory()
	card := MetricCard{
		Bucket: bucket,
		Label:  b.content.Label(category),
		Tone:   view.Tone,
		Issues: b.content.Bucket(bucket).Issues,
		Err:    view.Err,
	}
	if card.Err != "" {
		return card
	}
	pct, err := b.svc.PercentageFor(bucket, category)
	if err != nil {
		card.Err = err.Error()
		return card
	}
	card.Value = formatPercent(pct, 0) + "%"
	return card
}

// formatPercent rounds half to even, matching the report's own rounding
func formatPercent(v float64, places int32) string {
	return decimal.NewFromFloat(v).RoundBank(places).StringFixed(places)
}
