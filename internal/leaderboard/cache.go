package leaderboard

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ZanzyTHEbar/sizefit-dashboard/internal/cache"
	"github.com/ZanzyTHEbar/sizefit-dashboard/internal/survey"
)

// RankingCache keeps ranking and bucket payloads as JSON in a cache.Store
type RankingCache struct {
	store cache.Store
}

// NewRankingCache creates a ranking cache over store
func NewRankingCache(store cache.Store) *RankingCache {
	return &RankingCache{store: store}
}

func rankingKey(by survey.Metric, order survey.Order) string {
	return fmt.Sprintf("ranking:%s:%s", by, order)
}

func bucketKey(bucket survey.SizeBucket) string {
	return "bucket:" + string(bucket)
}

// GetRanking retrieves a cached ranking
func (rc *RankingCache) GetRanking(ctx context.Context, by survey.Metric, order survey.Order) (*RankingResponse, bool) {
	var response RankingResponse
	if !rc.get(ctx, rankingKey(by, order), &response) {
		return nil, false
	}
	slog.Debug("Ranking cache hit", "by", by, "order", order)
	return &response, true
}

// SetRanking caches a ranking
func (rc *RankingCache) SetRanking(ctx context.Context, response *RankingResponse) {
	rc.set(ctx, rankingKey(response.Metric, response.Order), response)
}

// GetBucket retrieves a cached bucket detail
func (rc *RankingCache) GetBucket(ctx context.Context, bucket survey.SizeBucket) (*BucketDetail, bool) {
	var detail BucketDetail
	if !rc.get(ctx, bucketKey(bucket), &detail) {
		return nil, false
	}
	return &detail, true
}

// SetBucket caches a bucket detail
func (rc *RankingCache) SetBucket(ctx context.Context, detail *BucketDetail) {
	rc.set(ctx, bucketKey(detail.Bucket), detail)
}

func (rc *RankingCache) get(ctx context.Context, key string, into any) bool {
	data, found := rc.store.Get(ctx, key)
	if !found {
		return false
	}
	if err := json.Unmarshal(data, into); err != nil {
		slog.Error("Failed to unmarshal cached ranking data", "error", err, "key", key)
		rc.store.Delete(ctx, key)
		return false
	}
	return true
}

func (rc *RankingCache) set(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("Failed to marshal ranking data for cache", "error", err, "key", key)
		return
	}
	rc.store.Set(ctx, key, data)
}

// InvalidateAll drops every ranking and bucket entry
func (rc *RankingCache) InvalidateAll(ctx context.Context, buckets []survey.SizeBucket) {
	for _, m := range survey.Metrics {
		for _, o := range []survey.Order{survey.Descending, survey.Ascending} {
			rc.store.Delete(ctx, rankingKey(m, o))
		}
	}
	for _, b := range buckets {
		rc.store.Delete(ctx, bucketKey(b))
	}
	slog.Info("Invalidated ranking cache", "buckets", len(buckets))
}

// GetStats returns cache statistics
func (rc *RankingCache) GetStats() map[string]interface{} {
	return rc.store.Stats()
}
