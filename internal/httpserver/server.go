package httpserver

import (
	"context"
	"net/http"
	"strings"
	"time"

	"authboilerplate/backend/internal/config"
	authusecase "authboilerplate/backend/internal/usecase/auth"
	userusecase "authboilerplate/backend/internal/usecase/user"

	"go.uber.org/zap"
)

// Options carries startup facts the handlers report or depend on.
type Options struct {
	DirectoryMode  config.Mode
	FallbackReason string
	// ProtectedUserIDs survive the debug purge.
	ProtectedUserIDs []string
	Logger           *zap.Logger
}

// Server wraps the HTTP server lifecycle.
type Server struct {
	httpServer     *http.Server
	router         *http.ServeMux
	authService    *authusecase.Service
	userService    *userusecase.Service
	logger         *zap.Logger
	production     bool
	directoryMode  config.Mode
	fallbackReason string
	protectedIDs   []string
	addr           string
}

// NewServer constructs a new Server with configured dependencies.
func NewServer(cfg config.Config, authService *authusecase.Service, userService *userusecase.Service, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	mux := http.NewServeMux()
	addr := cfg.HTTPPort
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	handler := withRecovery(withLogging(withCORS(mux, cfg.AllowedOrigins), logger), logger)

	srv := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  time.Duration(cfg.ReadTimeoutSec) * time.Second,
			WriteTimeout: time.Duration(cfg.WriteTimeoutSec) * time.Second,
			IdleTimeout:  time.Duration(cfg.IdleTimeoutSec) * time.Second,
		},
		router:         mux,
		authService:    authService,
		userService:    userService,
		logger:         logger,
		production:     cfg.IsProduction(),
		directoryMode:  opts.DirectoryMode,
		fallbackReason: opts.FallbackReason,
		protectedIDs:   opts.ProtectedUserIDs,
		addr:           addr,
	}
	srv.registerRoutes()
	return srv
}

// Start bootstraps the HTTP server on the configured address.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the fully wrapped handler chain.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Addr returns the configured network address for the HTTP server.
func (s *Server) Addr() string {
	return s.addr
}
