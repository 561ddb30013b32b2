package leaderboard

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ZanzyTHEbar/sizefit-dashboard/internal/cache"
	"github.com/ZanzyTHEbar/sizefit-dashboard/internal/monitoring"
	"github.com/ZanzyTHEbar/sizefit-dashboard/internal/survey"
)

// RankingEntry is one bucket's place in a ranking. Value is null when the
// metric is undefined for the bucket.
type RankingEntry struct {
	Rank     int               `json:"rank"`
	Bucket   survey.SizeBucket `json:"bucket"`
	Value    *float64          `json:"value"`
	Defined  bool              `json:"defined"`
	Priority survey.Priority   `json:"priority,omitempty"`
}

// RankingResponse represents the response for ranking queries
type RankingResponse struct {
	Metric  survey.Metric  `json:"metric"`
	Order   survey.Order   `json:"order"`
	Entries []RankingEntry `json:"entries"`
	Total   int            `json:"total"`
}

// BucketDetail is a bucket summary with its priority under the configured policy
type BucketDetail struct {
	survey.BucketSummary
	Priority survey.Priority `json:"priority,omitempty"`
	Tone     string          `json:"tone,omitempty"`
}

// Service answers ranking and per-bucket queries over one report
type Service struct {
	report  *survey.Report
	policy  *survey.PriorityPolicy
	cache   *RankingCache
	metrics *monitoring.Metrics
	logger  *monitoring.Logger
}

// NewService creates a ranking service. policy may be nil to leave buckets
// unclassified; metrics and logger may be nil.
func NewService(report *survey.Report, policy *survey.PriorityPolicy, store cache.Store, metrics *monitoring.Metrics, logger *monitoring.Logger) *Service {
	return &Service{
		report:  report,
		policy:  policy,
		cache:   NewRankingCache(store),
		metrics: metrics,
		logger:  logger,
	}
}

// Report returns the report the service reads from
func (s *Service) Report() *survey.Report {
	return s.report
}

// GetRanking ranks every bucket by metric. Empty arguments select the
// defaults.
func (s *Service) GetRanking(ctx context.Context, by survey.Metric, order survey.Order) (*RankingResponse, error) {
	if by == "" {
		by = survey.DefaultRankMetric
	}
	if order == "" {
		order = survey.DefaultOrder
	}

	cached, found := s.cache.GetRanking(ctx, by, order)
	s.logCache("ranking", rankingKey(by, order), found)
	if found {
		return cached, nil
	}

	ranked, err := s.report.Rank(by, order)
	if err != nil {
		s.recordFailure("rank", "", err)
		return nil, err
	}

	response := &RankingResponse{
		Metric:  by,
		Order:   order,
		Entries: make([]RankingEntry, 0, s.report.Dataset().Len()),
	}
	for b := range ranked {
		v, defined, err := s.report.Value(b, by)
		if err != nil {
			s.recordFailure("rank", string(b), err)
			return nil, err
		}
		entry := RankingEntry{
			Rank:     len(response.Entries) + 1,
			Bucket:   b,
			Defined:  defined,
			Priority: s.priority(b),
		}
		if defined {
			entry.Value = &v
		}
		response.Entries = append(response.Entries, entry)
	}
	response.Total = len(response.Entries)

	s.cache.SetRanking(ctx, response)
	return response, nil
}

// GetBucket returns the summary and priority of one bucket
func (s *Service) GetBucket(ctx context.Context, bucket survey.SizeBucket) (*BucketDetail, error) {
	cached, found := s.cache.GetBucket(ctx, bucket)
	s.logCache("bucket", bucketKey(bucket), found)
	if found {
		return cached, nil
	}

	summary, err := s.report.Summary(bucket)
	if err != nil {
		s.recordFailure("summary", string(bucket), err)
		return nil, err
	}

	detail := &BucketDetail{BucketSummary: summary, Priority: s.priority(bucket)}
	if detail.Priority != "" {
		detail.Tone = detail.Priority.Tone()
	}

	s.cache.SetBucket(ctx, detail)
	return detail, nil
}

// ListBuckets returns every bucket detail in dataset order
func (s *Service) ListBuckets(ctx context.Context) ([]BucketDetail, error) {
	buckets := s.report.Dataset().Buckets()
	out := make([]BucketDetail, 0, len(buckets))
	for _, b := range buckets {
		detail, err := s.GetBucket(ctx, b)
		if err != nil {
			return nil, err
		}
		out = append(out, *detail)
	}
	return out, nil
}

// PercentageFor is Report.PercentageFor with failure accounting
func (s *Service) PercentageFor(bucket survey.SizeBucket, category survey.ResponseCategory) (float64, error) {
	pct, err := s.report.PercentageFor(bucket, category)
	if err != nil {
		s.recordFailure("percentage", string(bucket), err)
	}
	return pct, err
}

// DominantCategory is Report.DominantCategory with failure accounting
func (s *Service) DominantCategory(bucket survey.SizeBucket) (survey.ResponseCategory, error) {
	category, err := s.report.DominantCategory(bucket)
	if err != nil {
		s.recordFailure("dominant", string(bucket), err)
	}
	return category, err
}

// priority classifies bucket under the configured policy. Buckets without
// respondents and services without a policy have no priority.
func (s *Service) priority(bucket survey.SizeBucket) survey.Priority {
	if s.policy == nil {
		return ""
	}
	p, err := s.policy.Classify(s.report, bucket)
	if err != nil {
		return ""
	}
	return p
}

// Classify exposes the policy classification; the second result is false
// when no priority applies.
func (s *Service) Classify(bucket survey.SizeBucket) (survey.Priority, bool) {
	p := s.priority(bucket)
	return p, p != ""
}

// Policy returns the configured priority policy, or nil
func (s *Service) Policy() *survey.PriorityPolicy {
	return s.policy
}

func (s *Service) logCache(operation, key string, hit bool) {
	if s.logger != nil {
		s.logger.CacheLogger(operation, key, hit)
	}
}

func (s *Service) recordFailure(operation, bucket string, err error) {
	if s.metrics != nil {
		s.metrics.RecordQueryFailure(FailureKind(err))
	}
	if s.logger != nil {
		s.logger.ReportQueryLogger(operation, bucket, err)
	}
}

// FailureKind names the error kind of a failed report query
func FailureKind(err error) string {
	switch {
	case errors.Is(err, survey.ErrNotFound):
		return "not_found"
	case errors.Is(err, survey.ErrDivisionUndefined):
		return "division_undefined"
	case errors.Is(err, survey.ErrValidation):
		return "validation"
	default:
		return "internal"
	}
}

// WarmCache pre-populates every ranking and bucket detail
func (s *Service) WarmCache(ctx context.Context) {
	slog.Info("Starting ranking cache warming")

	for _, m := range survey.Metrics {
		for _, o := range []survey.Order{survey.Descending, survey.Ascending} {
			if _, err := s.GetRanking(ctx, m, o); err != nil {
				slog.Error("Failed to warm ranking cache", "error", err, "by", m, "order", o)
			}
		}
	}
	if _, err := s.ListBuckets(ctx); err != nil {
		slog.Error("Failed to warm bucket cache", "error", err)
	}

	slog.Info("Ranking cache warming completed")
}

// InvalidateCache drops all cached rankings and bucket details
func (s *Service) InvalidateCache(ctx context.Context) {
	s.cache.InvalidateAll(ctx, s.report.Dataset().Buckets())
}

// GetCacheStats returns cache statistics
func (s *Service) GetCacheStats() map[string]interface{} {
	return s.cache.GetStats()
}
