package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ZanzyTHEbar/sizefit-dashboard/internal/charts"
	"github.com/ZanzyTHEbar/sizefit-dashboard/internal/leaderboard"
	"github.com/ZanzyTHEbar/sizefit-dashboard/internal/survey"
)

const svgContentType = "image/svg+xml"

// BucketList is the response of GET /api/v1/buckets
type BucketList struct {
	Buckets []leaderboard.BucketDetail `json:"buckets"`
	Total   int                        `json:"total"`
}

// PercentageResponse is the share of one category within a bucket
type PercentageResponse struct {
	Bucket     survey.SizeBucket       `json:"bucket"`
	Category   survey.ResponseCategory `json:"category"`
	Label      string                  `json:"label"`
	Percentage float64                 `json:"percentage"`
}

// DominantResponse is the most common answer for a bucket
type DominantResponse struct {
	Bucket   survey.SizeBucket       `json:"bucket"`
	Dominant survey.ResponseCategory `json:"dominant"`
	Label    string                  `json:"label"`
}

// handleListBuckets godoc
// @Summary      List size buckets
// @Description  Every bucket with totals, counts, percentages, dominant answer and priority, in garment size order
// @Tags         buckets
// @Produce      json
// @Success      200  {object}  BucketList
// @Failure      429  {object}  map[string]interface{}
// @Router       /buckets [get]
func (s *Server) handleListBuckets(c *gin.Context) {
	buckets, err := s.svc.ListBuckets(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, BucketList{Buckets: buckets, Total: len(buckets)})
}

// handleGetBucket godoc
// @Summary      Get one size bucket
// @Tags         buckets
// @Produce      json
// @Param        bucket  path      string  true  "Size bucket id"  example(105)
// @Success      200     {object}  leaderboard.BucketDetail
// @Failure      404     {object}  map[string]interface{}
// @Router       /buckets/{bucket} [get]
func (s *Server) handleGetBucket(c *gin.Context) {
	detail, err := s.svc.GetBucket(c.Request.Context(), survey.SizeBucket(c.Param("bucket")))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// handleGetPercentage godoc
// @Summary      Share of a response category
// @Description  Percentage of the bucket's respondents who gave the category, one decimal, half to even
// @Tags         buckets
// @Produce      json
// @Param        bucket    path      string  true  "Size bucket id"
// @Param        category  path      string  true  "Response category"  Enums(too_big, just_right, too_small)
// @Success      200       {object}  PercentageResponse
// @Failure      400       {object}  map[string]interface{}
// @Failure      404       {object}  map[string]interface{}
// @Failure      422       {object}  map[string]interface{}  "bucket has no respondents"
// @Router       /buckets/{bucket}/percentages/{category} [get]
func (s *Server) handleGetPercentage(c *gin.Context) {
	bucket := survey.SizeBucket(c.Param("bucket"))
	category, err := survey.ParseCategory(c.Param("category"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	pct, err := s.svc.PercentageFor(bucket, category)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, PercentageResponse{
		Bucket:     bucket,
		Category:   category,
		Label:      s.bundle.Content.Label(category),
		Percentage: pct,
	})
}

// handleGetDominant godoc
// @Summary      Dominant response
// @Description  Most common category; ties go to too_big, then just_right
// @Tags         buckets
// @Produce      json
// @Param        bucket  path      string  true  "Size bucket id"
// @Success      200     {object}  DominantResponse
// @Failure      404     {object}  map[string]interface{}
// @Router       /buckets/{bucket}/dominant [get]
func (s *Server) handleGetDominant(c *gin.Context) {
	bucket := survey.SizeBucket(c.Param("bucket"))
	dominant, err := s.svc.DominantCategory(bucket)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, DominantResponse{
		Bucket:   bucket,
		Dominant: dominant,
		Label:    s.bundle.Content.Label(dominant),
	})
}

// handleGetRanking godoc
// @Summary      Rank buckets
// @Description  Buckets ordered by a metric. Buckets where the metric is undefined come last with a null value.
// @Tags         ranking
// @Produce      json
// @Param        by     query     string  false  "Metric"  Enums(too_big_pct, just_right_pct, too_small_pct, respondents)  default(too_big_pct)
// @Param        order  query     string  false  "Order"   Enums(desc, asc)  default(desc)
// @Success      200    {object}  leaderboard.RankingResponse
// @Failure      400    {object}  map[string]interface{}
// @Router       /ranking [get]
func (s *Server) handleGetRanking(c *gin.Context) {
	by, order, err := rankingParams(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	ranking, err := s.svc.GetRanking(c.Request.Context(), by, order)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ranking)
}

func rankingParams(c *gin.Context) (survey.Metric, survey.Order, error) {
	by, err := survey.ParseMetric(c.Query("by"))
	if err != nil {
		return "", "", err
	}
	order, err := survey.ParseOrder(c.Query("order"))
	if err != nil {
		return "", "", err
	}
	return by, order, nil
}

func (s *Server) handleOverviewChart(c *gin.Context) {
	s.writeChart(c, func(ctx context.Context) ([]byte, error) {
		return s.renderer.Overview(ctx)
	})
}

func (s *Server) handleBucketPieChart(c *gin.Context) {
	bucket := survey.SizeBucket(c.Param("bucket"))
	s.writeChart(c, func(ctx context.Context) ([]byte, error) {
		return s.renderer.BucketPie(ctx, bucket)
	})
}

func (s *Server) handleRankingChart(c *gin.Context) {
	by, order, err := rankingParams(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	s.writeChart(c, func(ctx context.Context) ([]byte, error) {
		return s.renderer.Ranking(ctx, by, order)
	})
}

// writeChart answers 204 when there is nothing to draw
func (s *Server) writeChart(c *gin.Context, render func(context.Context) ([]byte, error)) {
	svg, err := render(c.Request.Context())
	if errors.Is(err, charts.ErrNoData) {
		c.Status(http.StatusNoContent)
		return
	}
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.Header("Cache-Control", "public, max-age=300")
	c.Data(http.StatusOK, svgContentType, svg)
}

// handleHealth reports 503 when a configured Redis stops answering
func (s *Server) handleHealth(c *gin.Context) {
	response := gin.H{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   Version,
		"dataset": gin.H{
			"source":  s.bundle.Source,
			"buckets": s.bundle.Dataset.Len(),
		},
	}

	redisStatus := "disabled"
	if s.redis.IsEnabled() {
		redisStatus = "ok"
		if err := s.redis.HealthCheck(c.Request.Context()); err != nil {
			redisStatus = "degraded"
			response["status"] = "degraded"
		}
	}
	response["redis"] = redisStatus

	status := http.StatusOK
	if response["status"] != "ok" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, response)
}

func (s *Server) handleMetrics(c *gin.Context) {
	stats := s.metrics.GetStats()
	stats["compression"] = s.compression.GetStats()
	c.JSON(http.StatusOK, stats)
}

func (s *Server) handleCacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"store":   s.store.Stats(),
		"ranking": s.svc.GetCacheStats(),
	})
}
