package survey

import (
	"cmp"
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// Metric is a derived per-bucket value buckets can be ranked by.
type Metric string

const (
	MetricTooBigPct    Metric = "too_big_pct"
	MetricJustRightPct Metric = "just_right_pct"
	MetricTooSmallPct  Metric = "too_small_pct"
	MetricRespondents  Metric = "respondents"
	DefaultRankMetric         = MetricTooBigPct
)

const percentDecimalPlace int32 = 1

// Metrics lists every supported ranking metric.
var Metrics = []Metric{MetricTooBigPct, MetricJustRightPct, MetricTooSmallPct, MetricRespondents}

// ParseMetric accepts a metric name; the empty string selects the default.
func ParseMetric(name string) (Metric, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return DefaultRankMetric, nil
	}
	for _, m := range Metrics {
		if string(m) == name {
			return m, nil
		}
	}
	return "", &ValidationError{Field: "by", Reason: fmt.Sprintf("unknown ranking metric %q", name)}
}

// Category returns the response category a percentage metric is computed over.
func (m Metric) Category() (ResponseCategory, bool) {
	switch m {
	case MetricTooBigPct:
		return TooBig, true
	case MetricJustRightPct:
		return JustRight, true
	case MetricTooSmallPct:
		return TooSmall, true
	}
	return 0, false
}

// Order is the ranking direction.
type Order string

const (
	Descending   Order = "desc"
	Ascending    Order = "asc"
	DefaultOrder       = Descending
)

// ParseOrder accepts "desc" or "asc"; the empty string selects descending.
func ParseOrder(name string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "desc", "descending":
		return Descending, nil
	case "asc", "ascending":
		return Ascending, nil
	}
	return "", &ValidationError{Field: "order", Reason: fmt.Sprintf("unknown ranking order %q", name)}
}

// Report derives percentages, dominant categories and rankings from a Dataset.
// It holds no mutable state and is safe for concurrent use.
type Report struct {
	ds *Dataset
}

func NewReport(ds *Dataset) *Report {
	return &Report{ds: ds}
}

// Dataset returns the underlying dataset.
func (r *Report) Dataset() *Dataset {
	return r.ds
}

// PercentageFor returns 100*count/total rounded to one decimal place,
// half-to-even.
func (r *Report) PercentageFor(bucket SizeBucket, category ResponseCategory) (float64, error) {
	total, err := r.ds.TotalFor(bucket)
	if err != nil {
		return 0, err
	}
	count, err := r.ds.CountFor(bucket, category)
	if err != nil {
		return 0, err
	}
	if total == 0 {
		return 0, &DivisionUndefinedError{Bucket: bucket}
	}
	return percentage(count, total), nil
}

func percentage(count, total int) float64 {
	pct := decimal.NewFromInt(int64(count)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(total))).
		RoundBank(percentDecimalPlace)
	return pct.InexactFloat64()
}

// DominantCategory returns the category with the highest count. Ties go to
// TooBig, then JustRight, then TooSmall.
func (r *Report) DominantCategory(bucket SizeBucket) (ResponseCategory, error) {
	b, err := r.ds.lookup(bucket)
	if err != nil {
		return 0, err
	}
	return dominant(b.counts), nil
}

func dominant(counts [3]int) ResponseCategory {
	best := Categories[0]
	for _, c := range Categories[1:] {
		if counts[c] > counts[best] || (counts[c] == counts[best] && c.precedence() < best.precedence()) {
			best = c
		}
	}
	return best
}

type rankKey struct {
	bucket  SizeBucket
	value   float64
	defined bool
}

// Value returns the metric for bucket. defined is false for a percentage
// metric over a bucket with no respondents.
func (r *Report) Value(bucket SizeBucket, by Metric) (value float64, defined bool, err error) {
	b, err := r.ds.lookup(bucket)
	if err != nil {
		return 0, false, err
	}
	if by == MetricRespondents {
		return float64(b.total), true, nil
	}
	category, ok := by.Category()
	if !ok {
		return 0, false, &ValidationError{Field: "by", Reason: fmt.Sprintf("unknown ranking metric %q", string(by))}
	}
	if b.total == 0 {
		return 0, false, nil
	}
	return percentage(b.counts[category], b.total), true, nil
}

// Rank orders buckets by metric. The returned sequence is evaluated lazily on
// each iteration and can be ranged over any number of times. The sort is
// stable, and buckets whose percentage is undefined come last in dataset order.
func (r *Report) Rank(by Metric, order Order) (iter.Seq[SizeBucket], error) {
	if by == "" {
		by = DefaultRankMetric
	}
	if order == "" {
		order = DefaultOrder
	}
	if _, ok := by.Category(); !ok && by != MetricRespondents {
		return nil, &ValidationError{Field: "by", Reason: fmt.Sprintf("unknown ranking metric %q", string(by))}
	}
	if order != Descending && order != Ascending {
		return nil, &ValidationError{Field: "order", Reason: fmt.Sprintf("unknown ranking order %q", string(order))}
	}

	return func(yield func(SizeBucket) bool) {
		keys := make([]rankKey, 0, r.ds.Len())
		for _, b := range r.ds.Buckets() {
			// bucket ids come from the dataset itself, lookup cannot fail
			v, defined, _ := r.Value(b, by)
			keys = append(keys, rankKey{bucket: b, value: v, defined: defined})
		}
		slices.SortStableFunc(keys, func(a, b rankKey) int {
			if a.defined != b.defined {
				if a.defined {
					return -1
				}
				return 1
			}
			if !a.defined {
				return 0
			}
			if order == Descending {
				return cmp.Compare(b.value, a.value)
			}
			return cmp.Compare(a.value, b.value)
		})
		for _, k := range keys {
			if !yield(k.bucket) {
				return
			}
		}
	}, nil
}

// Summary snapshots every derived value for bucket. Percentages are left
// empty for a bucket with no respondents.
func (r *Report) Summary(bucket SizeBucket) (BucketSummary, error) {
	b, err := r.ds.lookup(bucket)
	if err != nil {
		return BucketSummary{}, err
	}
	summary := BucketSummary{
		Bucket:   b.id,
		Total:    b.total,
		Counts:   make(map[ResponseCategory]int, len(Categories)),
		Dominant: dominant(b.counts),
	}
	for _, c := range Categories {
		summary.Counts[c] = b.counts[c]
	}
	if b.total > 0 {
		summary.Percentages = make(map[ResponseCategory]float64, len(Categories))
		for _, c := range Categories {
			summary.Percentages[c] = percentage(b.counts[c], b.total)
		}
	}
	return summary, nil
}

// Summaries returns a summary for every bucket in dataset order.
func (r *Report) Summaries() []BucketSummary {
	out := make([]BucketSummary, 0, r.ds.Len())
	for _, b := range r.ds.Buckets() {
		s, _ := r.Summary(b)
		out = append(out, s)
	}
	return out
}
