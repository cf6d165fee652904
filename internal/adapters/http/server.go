package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/promptforge/promptforge/internal/adapters/http/handlers"
	"github.com/promptforge/promptforge/internal/adapters/http/middleware"
	"github.com/promptforge/promptforge/internal/application/usecases"
	"github.com/promptforge/promptforge/internal/config"
)

type Server struct {
	config         *config.Config
	router         *chi.Mux
	httpServer     *http.Server
	db             *pgxpool.Pool
	managePrompts  *usecases.ManagePrompts
	manageDatasets *usecases.ManageDatasets
	evaluatePrompt *usecases.EvaluatePrompt
	improvePrompt  *usecases.ImprovePrompt
	runPrompt      *usecases.RunPrompt
	diffVersions   *usecases.DiffVersions
}

func NewServer(
	cfg *config.Config,
	db *pgxpool.Pool,
	managePrompts *usecases.ManagePrompts,
	manageDatasets *usecases.ManageDatasets,
	evaluatePrompt *usecases.EvaluatePrompt,
	improvePrompt *usecases.ImprovePrompt,
	runPrompt *usecases.RunPrompt,
	diffVersions *usecases.DiffVersions,
) *Server {
	s := &Server{
		config:         cfg,
		db:             db,
		managePrompts:  managePrompts,
		manageDatasets: manageDatasets,
		evaluatePrompt: evaluatePrompt,
		improvePrompt:  improvePrompt,
		runPrompt:      runPrompt,
		diffVersions:   diffVersions,
	}

	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recovery)
	r.Use(middleware.CORS(s.config.Server.CORSOrigins))
	r.Use(middleware.Metrics)

	healthHandler := handlers.NewHealthHandler()
	detailedHealthHandler := handlers.NewHealthHandlerWithDeps(s.db)
	r.Get("/health", healthHandler.Handle)
	r.Get("/health/detailed", detailedHealthHandler.HandleDetailed)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		promptsHandler := handlers.NewPromptsHandler(s.managePrompts, s.diffVersions, s.runPrompt)
		r.Post("/prompts", promptsHandler.Create)
		r.Get("/prompts", promptsHandler.ListNames)
		r.Delete("/prompts/{name}", promptsHandler.Delete)
		r.Get("/prompts/{name}/versions", promptsHandler.ListVersions)
		r.Get("/prompts/{name}/versions/{version}", promptsHandler.Get)
		r.Post("/prompts/{name}/versions/{version}/activate", promptsHandler.Activate)
		r.Get("/prompts/diffs/{version_a_id}/{version_b_id}", promptsHandler.DiffByID)
		r.Get("/prompts/{name}/diff", promptsHandler.Diff)
		r.Get("/prompts/{name}/changelog", promptsHandler.Changelog)
		r.Post("/prompts/{name}/run", promptsHandler.Run)

		datasetsHandler := handlers.NewDatasetsHandler(s.manageDatasets)
		r.Post("/datasets", datasetsHandler.Create)
		r.Get("/datasets", datasetsHandler.List)
		r.Get("/datasets/{id}", datasetsHandler.Get)
		r.Post("/datasets/{id}/entries", datasetsHandler.AddEntries)

		evaluationsHandler := handlers.NewEvaluationsHandler(s.evaluatePrompt)
		r.Post("/evaluations", evaluationsHandler.Create)
		r.Get("/evaluations/{id}", evaluationsHandler.Get)
		r.Get("/prompts/{name}/evaluations", evaluationsHandler.ListByPrompt)

		improvementsHandler := handlers.NewImprovementsHandler(s.improvePrompt)
		r.Post("/improvements", improvementsHandler.Create)
		r.Get("/improvements/{id}", improvementsHandler.Get)
		r.Get("/prompts/{name}/improvements", improvementsHandler.ListByPrompt)
	})

	s.router = r
}

func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	s.httpServer = &http.Server{
		Addr:        addr,
		Handler:     s.router,
		ReadTimeout: 30 * time.Second,
		// Improvement runs are long synchronous requests.
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	slog.Info("starting HTTP server", "addr", addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
