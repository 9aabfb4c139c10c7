// Package swagger serves the OpenAPI description of the album ranking API
// and a ReDoc page that renders it.
package swagger

import (
	"bytes"
	"errors"
	"net/http"
	"html/template"
)

// Error constants.
var (
	ErrServe = errors.New("swagger serve failed")
)

// DefaultRedocURL is where the docs page loads ReDoc from.
const DefaultRedocURL = "https://cdn.redoc.ly/redoc/v2.1.5/bundles/redoc.standalone.js"

// Register attaches the docs routes to mux.
// Routes:
//
//	GET /api-docs      -> ReDoc HTML
//	GET /openapi.yaml  -> embedded OpenAPI description
func Register(mux *http.ServeMux, redocURL string) {
	if mux == nil {
		panic("mux is nil")
	}
	if redocURL == "" {
		redocURL = DefaultRedocURL
	}
	page := renderIndex(redocURL)

	mux.HandleFunc("GET /api-docs", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(page)
	})
	mux.HandleFunc("GET /openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
		_, _ = w.Write(OpenAPI)
	})
}

var indexTmpl = template.Must(template.New("index").Parse(`<!doctype html>
<html>
  <head>
    <meta charset="utf-8">
    <title>vinylo API</title>
    <style>body{margin:0;padding:0}</style>
  </head>
  <body>
    <redoc id="redoc-container"></redoc>
    <script src="{{.}}"></script>
    <script>Redoc.init('/openapi.yaml', { suppressWarnings: true }, document.getElementById('redoc-container'));</script>
  </body>
</html>`))

func renderIndex(redocURL string) []byte {
	var buf bytes.Buffer
	if err := indexTmpl.Execute(&buf, redocURL); err != nil {
		panic(errors.Join(ErrServe, err))
	}
	return buf.Bytes()
}
