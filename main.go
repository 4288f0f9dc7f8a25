package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/blitz-ai/feedback-console/pkg/auth"
	"github.com/blitz-ai/feedback-console/pkg/cache"
	"github.com/blitz-ai/feedback-console/pkg/config"
	"github.com/blitz-ai/feedback-console/pkg/containers"
	"github.com/blitz-ai/feedback-console/pkg/database"
	"github.com/blitz-ai/feedback-console/pkg/docstore"
	"github.com/blitz-ai/feedback-console/pkg/embeddings"
	"github.com/blitz-ai/feedback-console/pkg/handlers"
	"github.com/blitz-ai/feedback-console/pkg/middleware"
	"github.com/blitz-ai/feedback-console/pkg/relational"
	"github.com/blitz-ai/feedback-console/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

const migrationsPath = "migrations"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("version", cfg.Version),
		zap.Bool("auth_verification", cfg.Auth.EnableVerification),
		zap.String("docstore", cfg.DocStore.Database),
		zap.String("redis", cfg.Redis.Addr()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Document store.
	if err := database.RunMigrations(cfg.DocStore.ConnectionString(), migrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	docDB, err := database.NewConnection(ctx, &cfg.DocStore)
	if err != nil {
		logger.Fatal("Failed to connect to document store", zap.Error(err))
	}
	defer docDB.Close()
	store := docstore.NewPostgresStore(docDB, logger)

	// Sports databases for ad-hoc queries. The allow-list is closed here:
	// only the pools wired below are reachable from /api/query.
	pools := make(map[string]*database.DB)
	for name, dbCfg := range map[string]*config.DatabaseConfig{
		"mlb": &cfg.MLB,
		"nba": &cfg.NBA,
	} {
		pool, err := database.NewConnection(ctx, dbCfg)
		if err != nil {
			logger.Fatal("Failed to connect to sports database",
				zap.String("database", name), zap.Error(err))
		}
		defer pool.Close()
		pools[name] = pool
	}

	// Cache backend: Redis when configured, in-process memory otherwise.
	var backend cache.Backend
	redisClient, err := database.NewRedisClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
		backend = cache.NewRedisBackend(redisClient)
		logger.Info("Using Redis cache backend", zap.String("addr", cfg.Redis.Addr()))
	} else {
		backend = cache.NewMemoryBackend()
		logger.Info("Redis not configured, using in-memory cache backend")
	}
	cacheSvc := cache.NewService(backend, cfg.Cache, logger)
	restoreCacheSnapshot(ctx, cacheSvc, cfg.Cache.SnapshotPath, logger)

	embedder := embeddings.NewOpenAIClient(&cfg.Embeddings, logger)

	documentSvc := services.NewDocumentService(store, cacheSvc, logger)
	transferSvc := services.NewTransferService(store, embedder, cacheSvc, logger)
	bulkEditSvc := services.NewBulkEditService(store, cacheSvc, logger)
	relationalSvc := relational.NewService(pools, cfg.QueryMaxRows, logger)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewDocumentsHandler(documentSvc, transferSvc, logger).RegisterRoutes(mux)
	handlers.NewBulkEditHandler(bulkEditSvc, logger).RegisterRoutes(mux)
	handlers.NewQueryHandler(relationalSvc, logger).RegisterRoutes(mux)

	authMiddleware := auth.NewMiddleware(cfg.Auth, logger)
	handler := middleware.RequestLogger(logger)(
		middleware.CORS(cfg.CORSOrigin)(
			authMiddleware.Verify(mux)))

	// Warm the official containers in the background so first page loads
	// come from cache. Best effort only.
	go warmCaches(ctx, documentSvc, logger)

	server := &http.Server{
		Addr:    cfg.BindAddr + ":" + cfg.Port,
		Handler: handler,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Server shutdown did not finish cleanly", zap.Error(err))
		}
	}()

	logger.Info("Starting feedback-console",
		zap.String("addr", server.Addr),
		zap.String("version", cfg.Version))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("Server failed", zap.Error(err))
	}

	saveCacheSnapshot(cacheSvc, cfg.Cache.SnapshotPath, logger)
	logger.Info("Server stopped")
}

// restoreCacheSnapshot loads the persisted cache, when configured and
// present. Restored entries behave like preloads: foreground fetches win.
func restoreCacheSnapshot(ctx context.Context, cacheSvc *cache.Service, path string, logger *zap.Logger) {
	if path == "" {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("Failed to read cache snapshot", zap.String("path", path), zap.Error(err))
		}
		return
	}
	if err := cacheSvc.Restore(ctx, data); err != nil {
		logger.Warn("Failed to restore cache snapshot", zap.String("path", path), zap.Error(err))
		return
	}
	logger.Info("Restored cache snapshot", zap.String("path", path))
}

// saveCacheSnapshot persists the cache on shutdown. An over-bounds cache is
// not persisted at all; the next start simply begins cold.
func saveCacheSnapshot(cacheSvc *cache.Service, path string, logger *zap.Logger) {
	if path == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	data, err := cacheSvc.Snapshot(ctx)
	if err != nil {
		logger.Warn("Skipping cache snapshot", zap.Error(err))
		return
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		logger.Warn("Failed to write cache snapshot", zap.String("path", path), zap.Error(err))
		return
	}
	logger.Info("Saved cache snapshot", zap.String("path", path))
}

func warmCaches(ctx context.Context, documents services.DocumentService, logger *zap.Logger) {
	for _, info := range containers.All {
		if !containers.IsOfficial(info.Value) {
			continue
		}
		if err := documents.Warm(ctx, info.Value); err != nil {
			logger.Warn("Cache warm failed",
				zap.String("container", string(info.Value)),
				zap.Error(err))
		}
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" || env == "development" {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stdout"}
	return cfg.Build()
}
