package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/ziadkadry99/tradebook/internal/config"
	"github.com/ziadkadry99/tradebook/internal/logging"
	"github.com/ziadkadry99/tradebook/internal/pages"
	"github.com/ziadkadry99/tradebook/internal/prefs"
	"github.com/ziadkadry99/tradebook/internal/records"
	"github.com/ziadkadry99/tradebook/internal/session"
)

// Deps are the components the server composes. The sidebar side (Prefs,
// Pages) and the data side (Records, Sessions) never call each other.
type Deps struct {
	Prefs    *prefs.Store
	Records  *records.Store
	Sessions *session.Manager
	Pages    *pages.Renderer
	// MenuClient fetches remote menu sources. Nil means http.DefaultClient.
	MenuClient *http.Client
}

// Server is the tradebook HTTP server.
type Server struct {
	cfg        *config.Config
	deps       Deps
	logger     *zap.Logger
	router     chi.Router
	httpServer *http.Server
}

// New creates a server and builds its routes.
func New(cfg *config.Config, deps Deps, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		cfg:    cfg,
		deps:   deps,
		logger: logging.Component(logger, "server"),
	}
	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins:   s.cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.Server.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	s.registerUIRoutes(r)
	s.registerAuthRoutes(r)

	limiter := newIPLimiter(s.cfg.Server.RateLimit, s.cfg.Server.RateBurst)
	r.Route("/api", func(r chi.Router) {
		r.Use(limiter.middleware)
		s.registerMenuAPI(r)
		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)
			s.registerDataRoutes(r)
		})
	})

	// Pages last so the API and static routes win.
	r.Get("/", s.handlePage)
	r.Get("/*", s.handlePage)

	return r
}

// Router returns the chi router.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Server.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("tradebook server listening", zap.String("addr", addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
