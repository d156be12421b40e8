package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"orgscout/app"
	"orgscout/internal"
)

// App is the HTTP surface: batch validation, batch discovery, and the
// latest run report.
type App struct {
	router     chi.Router
	discovery  *app.DiscoveryService
	validation *app.ValidationService
	log        *internal.Logger
}

// NewApp creates the API application and registers its routes.
func NewApp(discovery *app.DiscoveryService, validation *app.ValidationService) *App {
	a := &App{
		router:     chi.NewRouter(),
		discovery:  discovery,
		validation: validation,
		log:        internal.Component("API"),
	}

	a.setupMiddleware()
	a.setupRoutes()
	return a
}

func (a *App) setupMiddleware() {
	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
}

func (a *App) setupRoutes() {
	a.router.Route("/api", func(r chi.Router) {
		r.Post("/signals/validate", a.handleValidateSignals)
		r.Post("/discovery/run", a.handleRunDiscovery)
		r.Get("/discovery/report", a.handleRunReport)
		r.Get("/health", a.handleHealth)
	})
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.router
}

// Serve starts the HTTP server on the given port.
func (a *App) Serve(port string) error {
	a.log.Info("listening on :%s", port)
	return http.ListenAndServe(":"+port, a.router)
}
