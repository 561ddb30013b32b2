package security

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ZanzyTHEbar/sizefit-dashboard/internal/survey"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecurityConfig(t *testing.T) {
	config := DefaultSecurityConfig()

	assert.Equal(t, 64, config.MaxParamLength)
	assert.Contains(t, config.AllowedOrigins, "http://localhost:8080")
	assert.Equal(t, 30*time.Second, config.RequestTimeout)
	assert.False(t, config.EnableHSTS)
}

func TestValidateInput(t *testing.T) {
	sm := NewSecurityMiddleware(DefaultSecurityConfig())

	tests := []struct {
		name        string
		input       string
		expectError bool
		reason      string
	}{
		{"bucket id", "105", false, ""},
		{"korean label", "크다", false, ""},
		{"metric", "too_big_pct", false, ""},
		{"too long", strings.Repeat("1", 65), true, "exceeds maximum length"},
		{"null bytes", "10\x005", true, "invalid characters"},
		{"invalid UTF-8", "10\xff\xfe", true, "invalid UTF-8"},
		{"script tag", "<script>alert(1)</script>", true, "suspicious patterns"},
		{"sql comment", "105'; --", true, "suspicious patterns"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := sm.ValidateInput("bucket", tt.input)
			if !tt.expectError {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, survey.ErrValidation)
			assert.Contains(t, err.Error(), tt.reason)
		})
	}
}

func TestValidateRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sm := NewSecurityMiddleware(DefaultSecurityConfig())

	r := gin.New()
	r.GET("/api/v1/buckets/:bucket", sm.ValidateRequest, func(c *gin.Context) {
		c.String(http.StatusOK, c.Param("bucket"))
	})

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantErrors int
	}{
		{"clean", "/api/v1/buckets/105", http.StatusOK, 0},
		{"bad param", "/api/v1/buckets/%3Cscript%3E", http.StatusOK, 1},
		{"bad query", "/api/v1/buckets/105?by=1%20union%20select", http.StatusOK, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured *gin.Context
			r2 := gin.New()
			r2.Use(func(c *gin.Context) {
				captured = c
				c.Next()
			})
			r2.GET("/api/v1/buckets/:bucket", sm.ValidateRequest, func(c *gin.Context) {
				c.String(http.StatusOK, c.Param("bucket"))
			})

			w := httptest.NewRecorder()
			r2.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			require.NotNil(t, captured)
			assert.Len(t, captured.Errors, tt.wantErrors)
			if tt.wantErrors == 0 {
				assert.Equal(t, "105", w.Body.String())
			} else {
				assert.Empty(t, w.Body.String())
			}
		})
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/buckets/110", nil))
	assert.Equal(t, "110", w.Body.String())
}

func TestSecurityHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		enableHSTS bool
	}{
		{"without HSTS", false},
		{"with HSTS", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(SecurityHeadersMiddleware(tt.enableHSTS))
			r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
			assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
			assert.Equal(t, tt.enableHSTS, w.Header().Get("Strict-Transport-Security") != "")
		})
	}
}

func TestCSPMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var nonce string
	r := gin.New()
	r.Use(CSPMiddleware(""))
	r.GET("/", func(c *gin.Context) {
		nonce = GetNonce(c)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotEmpty(t, nonce)
	policy := w.Header().Get("Content-Security-Policy")
	assert.Contains(t, policy, "'nonce-"+nonce+"'")
	assert.Contains(t, policy, "img-src 'self' data:")
	assert.Empty(t, w.Header().Get("Content-Security-Policy-Report-Only"))

	first := nonce
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEqual(t, first, nonce)
}

func TestGetNonce_Missing(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Empty(t, GetNonce(c))
}

func TestReadOnly(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sm := NewSecurityMiddleware(DefaultSecurityConfig())

	r := gin.New()
	r.Use(sm.ReadOnly)
	r.Any("/api/v1/buckets", func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		method string
		want   int
	}{
		{http.MethodGet, http.StatusOK},
		{http.MethodHead, http.StatusOK},
		{http.MethodPost, http.StatusMethodNotAllowed},
		{http.MethodDelete, http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(tt.method, "/api/v1/buckets", nil))
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestRequestTimeout(t *testing.T) {
	gin.SetMode(gin.TestMode)
	config := DefaultSecurityConfig()
	config.RequestTimeout = 5 * time.Second
	sm := NewSecurityMiddleware(config)

	var hasDeadline bool
	r := gin.New()
	r.Use(sm.RequestTimeout)
	r.GET("/", func(c *gin.Context) {
		_, hasDeadline = c.Request.Context().Deadline()
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.True(t, hasDeadline)
	assert.Equal(t, "5", w.Header().Get("X-Timeout"))
}

func TestCORSMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sm := NewSecurityMiddleware(DefaultSecurityConfig())

	r := gin.New()
	r.Use(sm.CORSMiddleware())
	r.GET("/api/v1/buckets", func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		name   string
		origin string
		want   string
	}{
		{"allowed origin", "http://localhost:8080", "http://localhost:8080"},
		{"foreign origin", "https://evil.example", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/buckets", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}
