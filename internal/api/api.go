// Package api provides HTTP handlers and the main server logic for the
// FeiTime storefront backend.
//
// It exposes the conversational assistant endpoint plus the catalog, auth,
// and order plumbing around it, and integrates the store, genai, and
// notify modules.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/feitime/storefront/internal/assistant"
	"github.com/feitime/storefront/internal/auth"
	"github.com/feitime/storefront/internal/genai"
	"github.com/feitime/storefront/internal/models"
	"github.com/feitime/storefront/internal/notify"
	"github.com/feitime/storefront/internal/store"
	"github.com/rs/cors"
)

// Server configuration defaults.
const (
	DefaultAddr            = ":4000"
	DefaultShutdownTimeout = 10 * time.Second
	DefaultListLimit       = 20
	MaxListLimit           = 100
)

// contextKey is the type used for request context values set by middleware.
type contextKey string

// ContextKeyMemberID carries the authenticated member ID.
const ContextKeyMemberID contextKey = "memberID"

// generator is the text generation seam; satisfied by *genai.Client.
type generator interface {
	GeneratePrompt(ctx context.Context, systemInstructions, userInstructions string) (string, error)
}

// Opts holds configuration options for the API server.
type Opts struct {
	Addr         string
	CORSOrigins  []string
	DebugPayload bool
}

// Option defines a configuration option for the API server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// WithCORSOrigins sets the allowed CORS origins.
func WithCORSOrigins(origins []string) Option {
	return func(o *Opts) { o.CORSOrigins = origins }
}

// WithDebugPayload includes the engine diagnostics in assistant responses.
func WithDebugPayload(enabled bool) Option {
	return func(o *Opts) { o.DebugPayload = enabled }
}

// Server owns the HTTP surface and its collaborating modules.
type Server struct {
	st           store.Store
	engine       *assistant.Engine
	generator    generator
	notifier     notify.Sender
	authMgr      *auth.Manager
	debugPayload bool
}

// NewServer assembles a server from its collaborators. generator, notifier
// and authMgr may be nil; the affected endpoints degrade or refuse.
func NewServer(st store.Store, gen generator, notifier notify.Sender, authMgr *auth.Manager, opts ...Option) (*Server, *Opts) {
	cfg := Opts{Addr: DefaultAddr}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Server{
		st:           st,
		engine:       assistant.NewEngine(st),
		generator:    gen,
		notifier:     notifier,
		authMgr:      authMgr,
		debugPayload: cfg.DebugPayload,
	}, &cfg
}

// Run builds every module from its options and serves until interrupted.
func Run(storeOpts []store.Option, genaiOpts []genai.Option, notifyOpts []notify.Option, authOpts []auth.Option, apiOpts []Option) error {
	st, err := buildStore(storeOpts)
	if err != nil {
		return err
	}
	defer st.Close()

	var gen generator
	if gaClient, err := genai.NewClient(genaiOpts...); err != nil {
		slog.Warn("GenAI client not configured, assistant endpoint disabled", "error", err)
	} else {
		gen = gaClient
	}

	var notifier notify.Sender
	if notifyClient, err := notify.NewClient(notifyOpts...); err != nil {
		slog.Warn("Twilio client not configured, shipment notifications disabled", "error", err)
	} else {
		notifier = notifyClient
	}

	var authMgr *auth.Manager
	if mgr, err := auth.NewManager(authOpts...); err != nil {
		slog.Warn("Auth manager not configured, member endpoints disabled", "error", err)
	} else {
		authMgr = mgr
	}

	server, cfg := NewServer(st, gen, notifier, authMgr, apiOpts...)
	return server.serve(cfg)
}

// buildStore picks a backend from the configured DSN: Postgres or SQLite
// when one is set, in-memory otherwise.
func buildStore(storeOpts []store.Option) (store.Store, error) {
	var cfg store.Opts
	for _, opt := range storeOpts {
		opt(&cfg)
	}
	if cfg.DSN == "" {
		slog.Warn("No database DSN provided, using in-memory store")
		return store.NewInMemoryStore(), nil
	}
	if store.DetectDSNType(cfg.DSN) == "postgres" {
		slog.Debug("Detected PostgreSQL DSN, configuring Postgres store")
		return store.NewPostgresStore(storeOpts...)
	}
	slog.Debug("Detected SQLite DSN, configuring SQLite store")
	return store.NewSQLiteStore(storeOpts...)
}

// routes registers every endpoint on a fresh mux.
func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("POST /api/assistant/turn", s.assistantTurnHandler)
	mux.HandleFunc("GET /api/products", s.listProductsHandler)
	mux.HandleFunc("GET /api/products/{id}", s.getProductHandler)
	mux.HandleFunc("POST /api/auth/login", s.loginHandler)
	mux.HandleFunc("POST /api/orders", s.requireAuth(s.createOrderHandler))
	mux.HandleFunc("GET /api/member/orders", s.requireAuth(s.listMemberOrdersHandler))
	mux.HandleFunc("POST /api/orders/{id}/ship", s.requireAuth(s.shipOrderHandler))
	return mux
}

// serve runs the HTTP server with CORS and graceful shutdown.
func (s *Server) serve(cfg *Opts) error {
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173"}
	}
	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: corsMiddleware.Handler(s.routes()),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Storefront API listening", "addr", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down storefront API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// healthHandler handles GET /health.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, models.Success(map[string]string{"status": "ok"}))
}
