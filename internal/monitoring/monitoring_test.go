package monitoring

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics()

	m.IncrementRequest()
	m.IncrementRequest()
	m.IncrementError()
	m.IncrementCacheHit()
	m.IncrementCacheMiss()
	m.IncrementCacheMiss()
	m.IncrementRateLimitIPBlock()

	stats := m.GetStats()
	assert.Equal(t, int64(2), stats["total_requests"])
	assert.Equal(t, 50.0, stats["error_rate_percent"])
	assert.InDelta(t, 33.33, stats["cache_hit_rate_percent"], 0.01)
	assert.Equal(t, int64(1), stats["rate_limit"].(map[string]interface{})["ip_blocks"])

	m.Reset()
	assert.Equal(t, int64(0), m.GetStats()["total_requests"])
}

func TestMetrics_ChartsAndQueries(t *testing.T) {
	m := NewMetrics()

	m.RecordChartRender("pie", 4*time.Millisecond, nil)
	m.RecordChartRender("pie", 2*time.Millisecond, errors.New("no data"))
	m.RecordQueryFailure("not_found")
	m.RecordQueryFailure("not_found")
	m.RecordQueryFailure("division_undefined")

	pie := m.GetChartStats()["pie"].(map[string]interface{})
	assert.Equal(t, int64(2), pie["renders"])
	assert.Equal(t, int64(1), pie["errors"])
	assert.Equal(t, 3.0, pie["mean_time_ms"])

	assert.Equal(t, map[string]int64{"not_found": 2, "division_undefined": 1}, m.GetQueryFailures())
}

func TestMetrics_Percentiles(t *testing.T) {
	m := NewMetrics()
	assert.Equal(t, time.Duration(0), m.GetPercentileResponseTime(50))

	for i := 1; i <= 100; i++ {
		m.RecordResponseTime(time.Duration(i) * time.Millisecond)
	}

	assert.Equal(t, 50*time.Millisecond, m.GetPercentileResponseTime(50))
	assert.Equal(t, 100*time.Millisecond, m.GetPercentileResponseTime(100))
}

func TestMonitoringMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, slog.LevelDebug)
	metrics := NewMetrics()

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(RequestIDKey, "req-1")
		c.Next()
	})
	r.Use(MonitoringMiddleware(metrics, logger))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	for _, path := range []string{"/ok", "/missing"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, int64(2), metrics.RequestCount)
	assert.Equal(t, int64(1), metrics.ErrorCount)
	assert.Equal(t, map[int]int64{200: 1, 404: 1}, metrics.GetStatusCodeDistribution())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "HTTP Request", entry["msg"])
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "/ok", entry["path"])
	assert.Contains(t, entry, "timestamp")
}

func TestSecurityPatterns(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		agent    string
		expected bool
	}{
		{"clean", "by=too_big_pct&order=desc", "Mozilla/5.0", false},
		{"encoded union select", "by=x%20UNION%20SELECT%201", "", true},
		{"scanner agent", "", "sqlmap/1.7", true},
		{"comment marker", "by=/*", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := containsSQLInjectionPatterns(tt.query) || containsSuspiciousUserAgent(tt.agent)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestSecurityMonitoringMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	r := gin.New()
	r.Use(SecurityMonitoringMiddleware(NewLoggerTo(&buf, slog.LevelInfo)))
	r.GET("/api/v1/ranking", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ranking", nil)
	req.Header.Set("User-Agent", "nikto")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, buf.String(), "suspicious_user_agent")
}
