package survey

import (
	"encoding/json"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReport_Scenarios(t *testing.T) {
	report := NewReport(fixtureDataset(t))

	tests := []struct {
		bucket   SizeBucket
		category ResponseCategory
		total    int
		pct      float64
		dominant ResponseCategory
	}{
		{"105", TooBig, 60, 76.7, TooBig},
		{"110", TooBig, 60, 48.3, JustRight},
		{"120", JustRight, 60, 73.3, JustRight},
	}

	for _, tt := range tests {
		t.Run(string(tt.bucket), func(t *testing.T) {
			total, err := report.Dataset().TotalFor(tt.bucket)
			require.NoError(t, err)
			assert.Equal(t, tt.total, total)

			pct, err := report.PercentageFor(tt.bucket, tt.category)
			require.NoError(t, err)
			assert.Equal(t, tt.pct, pct)

			dom, err := report.DominantCategory(tt.bucket)
			require.NoError(t, err)
			assert.Equal(t, tt.dominant, dom)
		})
	}
}

func TestReport_PercentagesSumToHundred(t *testing.T) {
	ds, err := New([]Entry{
		{Bucket: "105", Counts: map[ResponseCategory]int{TooBig: 46, JustRight: 13, TooSmall: 1}},
		{Bucket: "110", Counts: map[ResponseCategory]int{TooBig: 29, JustRight: 31}},
		{Bucket: "120", Counts: map[ResponseCategory]int{TooBig: 15, JustRight: 44, TooSmall: 1}},
		{Bucket: "130", Counts: map[ResponseCategory]int{TooBig: 1, JustRight: 1, TooSmall: 1}},
		{Bucket: "140", Counts: map[ResponseCategory]int{TooBig: 7}},
	})
	require.NoError(t, err)
	report := NewReport(ds)

	tolerance := 0.1 * float64(len(Categories))
	for _, b := range ds.Buckets() {
		t.Run(string(b), func(t *testing.T) {
			sum := 0.0
			for _, c := range Categories {
				pct, err := report.PercentageFor(b, c)
				require.NoError(t, err)
				sum += pct
			}
			assert.InDelta(t, 100.0, sum, tolerance)
		})
	}
}

func TestReport_BankersRounding(t *testing.T) {
	// 1/8 = 12.5%, 3/16 = 18.75% rounds to the even neighbour 18.8
	ds, err := New([]Entry{
		{Bucket: "a", Counts: map[ResponseCategory]int{TooBig: 1, JustRight: 7}},
		{Bucket: "b", Counts: map[ResponseCategory]int{TooBig: 3, JustRight: 13}},
		{Bucket: "c", Counts: map[ResponseCategory]int{TooBig: 1, JustRight: 159}},
	})
	require.NoError(t, err)
	report := NewReport(ds)

	tests := []struct {
		bucket   SizeBucket
		expected float64
	}{
		{"a", 12.5},
		{"b", 18.8},
		{"c", 0.6},
	}

	for _, tt := range tests {
		t.Run(string(tt.bucket), func(t *testing.T) {
			pct, err := report.PercentageFor(tt.bucket, TooBig)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, pct)
		})
	}
}

func TestReport_DivisionUndefined(t *testing.T) {
	ds, err := New([]Entry{{Bucket: "100", Counts: map[ResponseCategory]int{}}})
	require.NoError(t, err)
	report := NewReport(ds)

	_, err = report.PercentageFor("100", TooBig)
	assert.ErrorIs(t, err, ErrDivisionUndefined)

	var du *DivisionUndefinedError
	require.ErrorAs(t, err, &du)
	assert.Equal(t, SizeBucket("100"), du.Bucket)

	dom, err := report.DominantCategory("100")
	require.NoError(t, err)
	assert.Equal(t, TooBig, dom)

	summary, err := report.Summary("100")
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Total)
	assert.Nil(t, summary.Percentages)
}

func TestReport_DominantTieBreak(t *testing.T) {
	tests := []struct {
		name     string
		counts   map[ResponseCategory]int
		expected ResponseCategory
	}{
		{"too big wins over just right", map[ResponseCategory]int{TooBig: 10, JustRight: 10, TooSmall: 1}, TooBig},
		{"just right wins over too small", map[ResponseCategory]int{TooBig: 1, JustRight: 5, TooSmall: 5}, JustRight},
		{"three way tie", map[ResponseCategory]int{TooBig: 4, JustRight: 4, TooSmall: 4}, TooBig},
		{"clear winner", map[ResponseCategory]int{TooBig: 1, JustRight: 2, TooSmall: 9}, TooSmall},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := New([]Entry{{Bucket: "105", Counts: tt.counts}})
			require.NoError(t, err)
			report := NewReport(ds)

			dom, err := report.DominantCategory("105")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, dom)

			highest := 0
			for _, n := range tt.counts {
				highest = max(highest, n)
			}
			assert.Equal(t, highest, tt.counts[dom])
		})
	}
}

func TestReport_Rank(t *testing.T) {
	report := NewReport(fixtureDataset(t))

	tests := []struct {
		name     string
		by       Metric
		order    Order
		expected []SizeBucket
	}{
		{"default", "", "", []SizeBucket{"105", "110", "120"}},
		{"too big desc", MetricTooBigPct, Descending, []SizeBucket{"105", "110", "120"}},
		{"too big asc", MetricTooBigPct, Ascending, []SizeBucket{"120", "110", "105"}},
		{"just right desc", MetricJustRightPct, Descending, []SizeBucket{"120", "110", "105"}},
		{"too small desc keeps dataset order on ties", MetricTooSmallPct, Descending, []SizeBucket{"105", "120", "110"}},
		{"respondents all equal", MetricRespondents, Descending, []SizeBucket{"105", "110", "120"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq, err := report.Rank(tt.by, tt.order)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, slices.Collect(seq))
		})
	}
}

func TestReport_RankRestartable(t *testing.T) {
	report := NewReport(fixtureDataset(t))
	seq, err := report.Rank(MetricTooBigPct, Descending)
	require.NoError(t, err)

	first := slices.Collect(seq)
	second := slices.Collect(seq)
	assert.Equal(t, first, second)

	var taken []SizeBucket
	for b := range seq {
		taken = append(taken, b)
		break
	}
	assert.Equal(t, []SizeBucket{"105"}, taken)
}

func TestReport_RankUndefinedLast(t *testing.T) {
	ds, err := New([]Entry{
		{Bucket: "90"},
		{Bucket: "100", Counts: map[ResponseCategory]int{TooBig: 1, JustRight: 9}},
		{Bucket: "130"},
		{Bucket: "140", Counts: map[ResponseCategory]int{TooBig: 5, JustRight: 5}},
	})
	require.NoError(t, err)
	report := NewReport(ds)

	for _, order := range []Order{Descending, Ascending} {
		t.Run(string(order), func(t *testing.T) {
			seq, err := report.Rank(MetricTooBigPct, order)
			require.NoError(t, err)
			got := slices.Collect(seq)
			assert.Equal(t, []SizeBucket{"90", "130"}, got[2:])
		})
	}
}

func TestReport_RankInvalid(t *testing.T) {
	report := NewReport(fixtureDataset(t))

	_, err := report.Rank("median", Descending)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = report.Rank(MetricTooBigPct, "sideways")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestReport_UnknownBucket(t *testing.T) {
	report := NewReport(fixtureDataset(t))
	const unknown SizeBucket = "130"

	_, err := report.PercentageFor(unknown, TooBig)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = report.DominantCategory(unknown)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = report.Summary(unknown)
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = report.Value(unknown, MetricRespondents)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = DefaultPriorityPolicy().Classify(report, unknown)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReport_Summary(t *testing.T) {
	report := NewReport(fixtureDataset(t))

	summary, err := report.Summary("110")
	require.NoError(t, err)

	assert.Equal(t, SizeBucket("110"), summary.Bucket)
	assert.Equal(t, 60, summary.Total)
	assert.Equal(t, 0, summary.Counts[TooSmall])
	assert.Equal(t, 51.7, summary.Percentages[JustRight])
	assert.Equal(t, JustRight, summary.Dominant)

	raw, err := json.Marshal(summary)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"dominant":"just_right"`)
	assert.Contains(t, string(raw), `"too_big":29`)

	assert.Len(t, report.Summaries(), 3)
}

func TestReport_ConcurrentReaders(t *testing.T) {
	report := NewReport(fixtureDataset(t))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seq, err := report.Rank(MetricTooBigPct, Descending)
			if assert.NoError(t, err) {
				assert.Equal(t, []SizeBucket{"105", "110", "120"}, slices.Collect(seq))
			}
			pct, err := report.PercentageFor("105", TooBig)
			assert.NoError(t, err)
			assert.Equal(t, 76.7, pct)
		}()
	}
	wg.Wait()
}

func TestParseMetricAndOrder(t *testing.T) {
	m, err := ParseMetric("")
	require.NoError(t, err)
	assert.Equal(t, MetricTooBigPct, m)

	m, err = ParseMetric("Respondents")
	require.NoError(t, err)
	assert.Equal(t, MetricRespondents, m)

	_, err = ParseMetric("mode")
	assert.ErrorIs(t, err, ErrValidation)

	o, err := ParseOrder("")
	require.NoError(t, err)
	assert.Equal(t, Descending, o)

	o, err = ParseOrder("ASC")
	require.NoError(t, err)
	assert.Equal(t, Ascending, o)

	_, err = ParseOrder("up")
	assert.ErrorIs(t, err, ErrValidation)
}
