package frontend

import (
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ZanzyTHEbar/sizefit-dashboard/internal/leaderboard"
	"github.com/ZanzyTHEbar/sizefit-dashboard/internal/loader"
	"github.com/ZanzyTHEbar/sizefit-dashboard/internal/security"
)

// Handler serves the dashboard pages and their stylesheet
type Handler struct {
	builder  *Builder
	tmpl     *template.Template
	staticFS fs.FS
}

// NewHandler loads the embedded templates for a dashboard over svc and content
func NewHandler(svc *leaderboard.Service, content *loader.Content) (*Handler, error) {
	tmpl, err := LoadTemplates(assetsFS)
	if err != nil {
		return nil, err
	}
	staticFS, err := GetStaticFS()
	if err != nil {
		return nil, err
	}
	return &Handler{
		builder:  NewBuilder(svc, content),
		tmpl:     tmpl,
		staticFS: staticFS,
	}, nil
}

// Index serves the overview tab
func (h *Handler) Index(c *gin.Context) {
	h.render(c, TabOverview)
}

// Tab serves /tabs/:tab
func (h *Handler) Tab(c *gin.Context) {
	tab := strings.ToLower(c.Param("tab"))
	if !ValidTab(tab) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "unknown tab"})
		return
	}
	h.render(c, tab)
}

func (h *Handler) render(c *gin.Context, tab string) {
	nonce := security.GetNonce(c)
	if nonce == "" {
		slog.Warn("CSP nonce not found in context, generating new one")
		var err error
		nonce, err = security.GenerateNonce()
		if err != nil {
			slog.Error("Failed to generate nonce", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
	}

	page, err := h.builder.Build(c.Request.Context(), tab, nonce)
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}

	if err := RenderPage(c, h.tmpl, page); err != nil {
		slog.Error("Failed to render dashboard", "error", err, "tab", tab)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to render page"})
	}
}

// Static serves the embedded stylesheet under /static/
func (h *Handler) Static() gin.HandlerFunc {
	fileServer := http.StripPrefix("/static", http.FileServer(http.FS(h.staticFS)))
	return func(c *gin.Context) {
		c.Header("Cache-Control", "public, max-age=3600")
		fileServer.ServeHTTP(c.Writer, c.Request)
	}
}
