package cache

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// HitRecorder receives cache hit and miss events.
type HitRecorder interface {
	IncrementCacheHit()
	IncrementCacheMiss()
}

type cachedResponse struct {
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// Middleware caches successful GET responses for paths under any of the
// given prefixes, keyed by the full request URI.
func Middleware(store Store, metrics HitRecorder, prefixes ...string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.Request.Method != http.MethodGet || !hasPrefix(ctx.Request.URL.Path, prefixes) {
			ctx.Next()
			return
		}

		cacheKey := "http:" + Key(ctx.Request.URL.RequestURI())

		if raw, found := store.Get(ctx.Request.Context(), cacheKey); found {
			var cached cachedResponse
			if err := json.Unmarshal(raw, &cached); err == nil {
				slog.Debug("Cache hit", "key", cacheKey[:13]+"...", "path", ctx.Request.URL.Path)
				if metrics != nil {
					metrics.IncrementCacheHit()
				}
				ctx.Header("X-Cache", "HIT")
				ctx.Data(http.StatusOK, cached.ContentType, cached.Body)
				ctx.Abort()
				return
			}
			store.Delete(ctx.Request.Context(), cacheKey)
		}

		slog.Debug("Cache miss", "key", cacheKey[:13]+"...", "path", ctx.Request.URL.Path)
		if metrics != nil {
			metrics.IncrementCacheMiss()
		}

		wrapper := &responseWriter{ResponseWriter: ctx.Writer, body: &bytes.Buffer{}}
		ctx.Writer = wrapper
		ctx.Header("X-Cache", "MISS")
		ctx.Next()

		if wrapper.Status() == http.StatusOK && wrapper.Written() && len(ctx.Errors) == 0 {
			raw, err := json.Marshal(cachedResponse{
				ContentType: wrapper.Header().Get("Content-Type"),
				Body:        wrapper.body.Bytes(),
			})
			if err == nil {
				store.Set(ctx.Request.Context(), cacheKey, raw)
			}
		}
	}
}

func hasPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// responseWriter wraps gin.ResponseWriter to capture response body
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(data []byte) (int, error) {
	w.body.Write(data)
	return w.ResponseWriter.Write(data)
}

func (w *responseWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
