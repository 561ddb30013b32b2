package security

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ZanzyTHEbar/sizefit-dashboard/internal/survey"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// SecurityConfig holds security configuration
type SecurityConfig struct {
	MaxParamLength int           `json:"max_param_length"`
	AllowedOrigins []string      `json:"allowed_origins"`
	RequestTimeout time.Duration `json:"request_timeout"`
	EnableHSTS     bool          `json:"enable_hsts"`
	CSPReportURI   string        `json:"csp_report_uri,omitempty"`
}

// DefaultSecurityConfig returns secure defaults
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		MaxParamLength: 64,
		AllowedOrigins: []string{"http://localhost:8080"},
		RequestTimeout: 30 * time.Second,
	}
}

// SecurityMiddleware groups the request guards used by the server
type SecurityMiddleware struct {
	config SecurityConfig
}

// NewSecurityMiddleware creates a new security middleware instance
func NewSecurityMiddleware(config SecurityConfig) *SecurityMiddleware {
	return &SecurityMiddleware{config: config}
}

// Config returns the active configuration
func (sm *SecurityMiddleware) Config() SecurityConfig {
	return sm.config
}

var suspiciousPatterns = []string{
	`<script`, `</script>`, `javascript:`,
	`union select`, `drop table`, `alter table`,
	`--`, `/*`, `*/`,
}

// ValidateInput rejects path and query values that cannot name a bucket,
// metric or order
func (sm *SecurityMiddleware) ValidateInput(field, input string) error {
	if len(input) > sm.config.MaxParamLength {
		return &survey.ValidationError{Field: field, Reason: fmt.Sprintf("exceeds maximum length of %d characters", sm.config.MaxParamLength)}
	}
	if strings.Contains(input, "\x00") {
		return &survey.ValidationError{Field: field, Reason: "contains invalid characters"}
	}
	if !utf8.ValidString(input) {
		return &survey.ValidationError{Field: field, Reason: "contains invalid UTF-8 encoding"}
	}

	lower := strings.ToLower(input)
	for _, pattern := range suspiciousPatterns {
		if strings.Contains(lower, pattern) {
			return &survey.ValidationError{Field: field, Reason: "contains suspicious patterns"}
		}
	}
	return nil
}

// ValidateRequest checks every path parameter and query value before the
// handler sees them
func (sm *SecurityMiddleware) ValidateRequest(c *gin.Context) {
	for _, p := range c.Params {
		if err := sm.ValidateInput(p.Key, p.Value); err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
	}
	for key, values := range c.Request.URL.Query() {
		for _, v := range values {
			if err := sm.ValidateInput(key, v); err != nil {
				_ = c.Error(err)
				c.Abort()
				return
			}
		}
	}
	c.Next()
}

// RequestTimeout bounds the request context
func (sm *SecurityMiddleware) RequestTimeout(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), sm.config.RequestTimeout)
	defer cancel()

	c.Request = c.Request.WithContext(ctx)
	c.Header("X-Timeout", strconv.Itoa(int(sm.config.RequestTimeout.Seconds())))

	c.Next()
}

// ReadOnly rejects anything but safe methods; the dashboard never accepts writes
func (sm *SecurityMiddleware) ReadOnly(c *gin.Context) {
	switch c.Request.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		c.Next()
	default:
		c.Header("Allow", "GET, HEAD, OPTIONS")
		c.AbortWithStatusJSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
	}
}

// CORSMiddleware allows the configured origins to read the JSON API
func (sm *SecurityMiddleware) CORSMiddleware() gin.HandlerFunc {
	config := cors.DefaultConfig()
	if len(sm.config.AllowedOrigins) == 0 {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = sm.config.AllowedOrigins
	}
	config.AllowMethods = []string{http.MethodGet, http.MethodHead, http.MethodOptions}
	config.AllowHeaders = []string{"Origin", "Accept", "Content-Type", "X-Request-ID"}
	config.ExposeHeaders = []string{"X-Request-ID", "X-Cache", "X-RateLimit-Limit", "X-RateLimit-Remaining"}
	config.MaxAge = 12 * time.Hour
	return cors.New(config)
}

// Middlewares returns the guards every route runs, in order. Pages add
// CSP on top.
func (sm *SecurityMiddleware) Middlewares() []gin.HandlerFunc {
	return []gin.HandlerFunc{
		SecurityHeadersMiddleware(sm.config.EnableHSTS),
		sm.ReadOnly,
		sm.RequestTimeout,
	}
}

// CSP returns the page policy middleware
func (sm *SecurityMiddleware) CSP() gin.HandlerFunc {
	return CSPMiddleware(sm.config.CSPReportURI)
}
