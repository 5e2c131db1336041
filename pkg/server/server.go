// Package server assembles the SIP HTTP API from the domain packages and
// owns the background workers that run alongside it.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/sipcass/sipcass/pkg/accounts"
	"github.com/sipcass/sipcass/pkg/aop"
	"github.com/sipcass/sipcass/pkg/audit"
	"github.com/sipcass/sipcass/pkg/authz"
	"github.com/sipcass/sipcass/pkg/cache"
	"github.com/sipcass/sipcass/pkg/config"
	"github.com/sipcass/sipcass/pkg/metrics"
	"github.com/sipcass/sipcass/pkg/payout"
	"github.com/sipcass/sipcass/pkg/render"
	"github.com/sipcass/sipcass/pkg/uploads"
)

// Server wires stores, services and routers together.
type Server struct {
	cfg    *config.Config
	db     *gorm.DB
	redis  redis.UniversalClient
	logger *slog.Logger
	router chi.Router

	files       *uploads.FileStorage
	accounts    *accounts.AccountStore
	resolver    *authz.CachedResolver
	tokens      *authz.TokenIssuer
	auth        *accounts.Authenticator
	roster      *accounts.RosterImporter
	payout      *payout.Service
	aop         *aop.Service
	auditStore  *audit.AuditStore
	revocations authz.RevocationStore
	retention   *audit.RetentionWorker

	startedAt time.Time
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.RWMutex
	started   bool
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithRedisClient supplies the client used when auth.revocation is "redis".
// Without it New dials cfg.Redis itself.
func WithRedisClient(client redis.UniversalClient) ServerOption {
	return func(s *Server) {
		s.redis = client
	}
}

// New builds a Server. The schema must already be migrated.
func New(cfg *config.Config, db *gorm.DB, logger *slog.Logger, opts ...ServerOption) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:       cfg,
		db:        db,
		logger:    logger,
		startedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}

	files, err := uploads.NewFileStorage(cfg.Storage.Root)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	s.files = files

	s.revocations, err = s.newRevocationStore()
	if err != nil {
		return nil, err
	}
	s.tokens, err = authz.NewTokenIssuer(cfg.Auth.TokenConfig(), s.revocations)
	if err != nil {
		return nil, err
	}

	s.accounts = accounts.NewAccountStore(db)
	s.resolver = authz.NewCachedResolver(s.accounts, cfg.Auth.PrincipalCacheTTL)
	s.auth = accounts.NewAuthenticator(s.accounts, s.tokens, logger)
	s.roster = accounts.NewRosterImporter(s.accounts, logger)
	s.roster.OnImport = s.resolver.Purge

	s.payout = payout.NewService(uploads.NewUploadStore(db), files, s.accounts, render.NewPDFRenderer(), logger)
	if cfg.Cache.Enabled {
		s.payout.UseTableCache(cache.NewLRU[string, payout.SourceTable](cfg.Cache.MaxTables, cfg.Cache.TTL))
	}
	s.aop = aop.NewService(aop.NewTargetStore(db), s.accounts, logger)

	s.auditStore = audit.NewAuditStore(db)
	s.retention = audit.NewRetentionWorker(s.auditStore, cfg.Audit.RetentionDays, logger)
	if dbRev, ok := s.revocations.(*authz.DBRevocationStore); ok {
		s.retention.AddSweeper("revoked_tokens", dbRev.DeleteExpired)
	}

	return s, nil
}

func (s *Server) newRevocationStore() (authz.RevocationStore, error) {
	switch s.cfg.Auth.Revocation {
	case config.RevocationRedis:
		if s.redis == nil {
			s.redis = redis.NewClient(&redis.Options{
				Addr:     s.cfg.Redis.Addr,
				Password: s.cfg.Redis.Password,
				DB:       s.cfg.Redis.DB,
			})
		}
		s.logger.Info("using redis token revocation store", "addr", s.cfg.Redis.Addr)
		return authz.NewRedisRevocationStore(s.redis, s.cfg.Redis.Prefix), nil
	case config.RevocationDB, "":
		return authz.NewDBRevocationStore(s.db), nil
	default:
		return nil, fmt.Errorf("unknown revocation backend %q", s.cfg.Auth.Revocation)
	}
}

// MountRoutes builds the HTTP handler tree.
func (s *Server) MountRoutes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Correlation-ID"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := authz.Authenticate(s.tokens, s.resolver, s.logger)
	auditCfg := s.cfg.Audit

	r.Route("/api", func(api chi.Router) {
		api.Mount("/auth", accounts.AuthRouter(s.auth, authenticate))

		api.Group(func(g chi.Router) {
			g.Use(authenticate)
			g.Use(audit.AuditMiddleware(s.auditStore, &auditCfg, s.logger))

			g.Mount("/aop", aop.Router(s.aop))
			g.Mount("/accounts", accounts.Router(s.roster))
			g.Mount("/audit/v1", audit.Router(s.auditStore))
			g.Mount("/", payout.Router(s.payout))
		})
	})
	if auditCfg.Enabled {
		s.logger.Info("audit middleware enabled",
			"logDenied", auditCfg.LogDenied,
			"retentionDays", auditCfg.RetentionDays)
	}

	r.Get("/healthz", s.healthHandler)
	r.Get("/livez", s.healthHandler)
	r.Get("/readyz", s.readyHandler)
	r.Handle("/metrics", metrics.Handler())

	s.router = r
	return r
}

// Start launches background workers. They stop when ctx is cancelled or
// Stop is called.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("server already started")
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.retention.Run(ctx)
	}()
	s.started = true
	return nil
}

// Stop cancels background workers and waits for them, or for ctx to expire.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.started = false
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}

	if s.redis != nil {
		if cerr := s.redis.Close(); cerr != nil {
			s.logger.Error("redis close failed", "error", cerr)
		}
	}
	return err
}

// Router returns the router built by MountRoutes.
func (s *Server) Router() chi.Router {
	return s.router
}

// healthHandler returns the liveness status of the server.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "alive",
		"uptime": time.Since(s.startedAt).Round(time.Second).String(),
	})
}

// readyHandler checks the database, the upload directory and, when used,
// Redis.
func (s *Server) readyHandler(w http.ResponseWriter, r *http.Request) {
	allReady := true
	components := map[string]any{}

	dbStatus := map[string]string{"status": "up"}
	if sqlDB, err := s.db.DB(); err != nil {
		dbStatus["status"], dbStatus["error"] = "down", err.Error()
		allReady = false
	} else if err := sqlDB.PingContext(r.Context()); err != nil {
		dbStatus["status"], dbStatus["error"] = "down", err.Error()
		allReady = false
	}
	components["database"] = dbStatus

	storageStatus := map[string]string{"status": "up"}
	if _, err := os.Stat(s.files.Root()); err != nil {
		storageStatus["status"], storageStatus["error"] = "down", err.Error()
		allReady = false
	}
	components["storage"] = storageStatus

	redisStatus := map[string]string{"status": "not_configured"}
	if s.redis != nil {
		redisStatus["status"] = "up"
		if err := s.redis.Ping(r.Context()).Err(); err != nil {
			redisStatus["status"], redisStatus["error"] = "down", err.Error()
			allReady = false
		}
	}
	components["redis"] = redisStatus

	status, code := "ready", http.StatusOK
	if !allReady {
		status, code = "not_ready", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status":     status,
		"components": components,
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
