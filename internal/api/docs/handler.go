package docs

import (
	"bytes"
	_ "embed"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

const openAPIPath = "/docs/swagger.yaml"

//go:embed swagger.yaml
var openAPIDoc []byte

// served as Last-Modified for the embedded document
var loadedAt = time.Now()

// UIHandler serves the Swagger UI pointed at the embedded OpenAPI document
func UIHandler() http.HandlerFunc {
	return httpSwagger.Handler(
		httpSwagger.URL(openAPIPath),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
	)
}

// DocumentHandler serves the OpenAPI document compiled into the binary
func DocumentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		http.ServeContent(w, r, "swagger.yaml", loadedAt, bytes.NewReader(openAPIDoc))
	}
}

// RegisterRoutes mounts the documentation under /docs
func RegisterRoutes(r chi.Router) {
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/docs/index.html", http.StatusFound)
	})
	r.Get(openAPIPath, DocumentHandler())
	r.Get("/docs/*", UIHandler())
}
