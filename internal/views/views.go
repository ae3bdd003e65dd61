// Package views holds the HTML templates and static assets served by the
// web UI. Both are embedded; a directory override replaces them at runtime.
package views

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path/filepath"
	"unicode"
	"unicode/utf8"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Funcs are the helpers available to every template.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"title": title,
	}
}

// title upper-cases the first letter of a provider name ("google" -> "Google").
func title(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

// Templates parses the page templates. An empty dir selects the embedded set.
func Templates(dir string) (*template.Template, error) {
	tmpl := template.New("").Funcs(Funcs())
	if dir != "" {
		parsed, err := tmpl.ParseGlob(filepath.Join(dir, "*.html"))
		if err != nil {
			return nil, fmt.Errorf("parse templates in %s: %w", dir, err)
		}
		return parsed, nil
	}

	parsed, err := tmpl.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse embedded templates: %w", err)
	}
	return parsed, nil
}

// Static returns the file system served under /static.
func Static(dir string) (http.FileSystem, error) {
	if dir != "" {
		return http.Dir(dir), nil
	}
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("access embedded static assets: %w", err)
	}
	return http.FS(sub), nil
}
