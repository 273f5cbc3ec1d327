package app

import (
	"context"
	"expvar"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/hariteja007/NexusLearn-AI/internal/api/handlers"
	appMiddleware "github.com/hariteja007/NexusLearn-AI/internal/api/middlewares"
	"github.com/hariteja007/NexusLearn-AI/internal/config"
	"github.com/hariteja007/NexusLearn-AI/internal/services"
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
}

// NewServer builds and wires all routes.
func NewServer(
	cfg *config.Config,
	docs *services.DocumentService,
	ing handlers.Ingestor,
	retrieval *services.RetrievalService,
	analysis *services.AnalysisService,
	progress *services.ProgressService,
) *Server {
	return &Server{httpServer: &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(cfg, docs, ing, retrieval, analysis, progress),
		ReadHeaderTimeout: 10 * time.Second,
	}}
}

func newRouter(
	cfg *config.Config,
	docs *services.DocumentService,
	ing handlers.Ingestor,
	retrieval *services.RetrievalService,
	analysis *services.AnalysisService,
	progress *services.ProgressService,
) http.Handler {
	notebookHandler := handlers.NewNotebookHandler(docs, ing)
	docHandler := handlers.NewDocumentHandler(docs, ing)
	chatHandler := handlers.NewChatHandler(docs, retrieval)
	analysisHandler := handlers.NewAnalysisHandler(docs, analysis)
	progressHandler := handlers.NewProgressHandler(progress)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	// uploads and analysis call out to the extractors and the model
	r.Use(middleware.Timeout(5 * time.Minute))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/debug/vars", expvar.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Use(appMiddleware.JWTMiddleware(cfg.JWTSecret))

		api.Get("/notebooks", notebookHandler.List)
		api.Post("/notebooks", notebookHandler.Create)
		api.Delete("/notebooks/{notebookID}", notebookHandler.Delete)

		api.Post("/notebooks/{notebookID}/documents", docHandler.Upload)
		api.Get("/notebooks/{notebookID}/documents", docHandler.List)
		api.Post("/notebooks/{notebookID}/youtube", docHandler.AddYouTube)
		api.Post("/notebooks/{notebookID}/query", chatHandler.Query)
		api.Post("/notebooks/{notebookID}/ask", chatHandler.Ask)

		api.Get("/documents/{docID}", docHandler.Get)
		api.Get("/documents/{docID}/chunks", docHandler.Chunks)
		api.Get("/documents/{docID}/index-health", docHandler.IndexHealth)
		api.Delete("/documents/{docID}", docHandler.Delete)
		api.Post("/documents/{docID}/analyze", analysisHandler.Analyze)

		api.Post("/reading-progress", progressHandler.Save)
		api.Get("/reading-progress/all/{notebookID}", progressHandler.ForNotebook)
		api.Get("/reading-progress/{notebookID}/{docID}", progressHandler.Get)
	})

	return r
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	logrus.WithField("addr", s.httpServer.Addr).Info("HTTP server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	logrus.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
