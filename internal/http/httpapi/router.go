package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"adcraft/internal/http/handlers"
	"adcraft/internal/infra/geoip"
	"adcraft/internal/middleware"
)

// NewRouter assembles the API surface. Static file routes serve the result
// store and the bundled scene templates directly from disk.
func NewRouter(app *handlers.App, countries geoip.CountryResolver) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(app.Logger))
	r.Use(middleware.CORS(app.Config.AllowedOrigins))
	r.Use(middleware.RateLimit(app.Config.RateLimitPerMin, time.Minute))
	r.Use(middleware.Locale(app.Config.DefaultLocale, countryLookup(countries)))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/healthz", app.Health)

		r.Post("/images/generate", app.ImagesGenerate)
		r.Post("/images/edit", app.ImagesEdit)
		r.Post("/prompts/enhance", app.PromptEnhance)

		r.Post("/composites/cta", app.CompositeCTA)
		r.Post("/composites/shadow", app.CompositeShadow)
		r.Post("/composites/merge", app.CompositeMerge)

		r.Post("/videos/generate", app.VideosGenerate)

		r.Get("/templates", app.TemplatesList)

		r.Get("/assets", app.AssetsList)
		r.Get("/assets/zip", app.AssetsZip)
		r.Get("/assets/{id}", app.AssetGet)
		r.Get("/assets/{id}/download", app.AssetDownload)
	})

	fileServer(r, "/static", app.Store.BasePath())
	fileServer(r, "/templates", app.Config.TemplateDir)

	return r
}

func countryLookup(countries geoip.CountryResolver) middleware.CountryLookup {
	if countries == nil {
		return nil
	}
	return countries.CountryCode
}

func fileServer(r chi.Router, prefix, dir string) {
	fs := http.StripPrefix(prefix, http.FileServer(http.Dir(dir)))
	r.Get(prefix+"/*", func(w http.ResponseWriter, req *http.Request) {
		fs.ServeHTTP(w, req)
	})
}
