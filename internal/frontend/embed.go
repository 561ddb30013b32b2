package frontend

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.html static
var assetsFS embed.FS

// GetStaticFS returns the embedded stylesheet directory
func GetStaticFS() (fs.FS, error) {
	return fs.Sub(assetsFS, "static")
}
