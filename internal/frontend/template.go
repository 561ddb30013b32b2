package frontend

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"
)

// LoadTemplates parses the dashboard layout and one template per tab
func LoadTemplates(assets fs.FS) (*template.Template, error) {
	tmpl, err := template.New("dashboard").ParseFS(assets, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	for _, t := range tabs {
		if tmpl.Lookup("tab-"+t.ID) == nil {
			return nil, fmt.Errorf("missing template for tab %q", t.ID)
		}
	}
	return tmpl, nil
}

// RenderPage executes the layout into a buffer so a template error never
// leaves a half-written page
func RenderPage(c *gin.Context, tmpl *template.Template, page *Page) error {
	var buf bytes.Buffer

	if err := tmpl.ExecuteTemplate(&buf, "layout", page); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")

	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
	return nil
}
