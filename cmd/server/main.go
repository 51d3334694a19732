package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stwalsh4118/dossier/api/internal/cache"
	"github.com/stwalsh4118/dossier/api/internal/config"
	"github.com/stwalsh4118/dossier/api/internal/database"
	"github.com/stwalsh4118/dossier/api/internal/handlers"
	"github.com/stwalsh4118/dossier/api/internal/logger"
	"github.com/stwalsh4118/dossier/api/internal/metrics"
	"github.com/stwalsh4118/dossier/api/internal/middleware"
	"github.com/stwalsh4118/dossier/api/internal/repository"
	"github.com/stwalsh4118/dossier/api/internal/services"
	"github.com/stwalsh4118/dossier/api/internal/storage"
)

const (
	shutdownTimeout = 30 * time.Second
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Server.Env)
	log.Info("Starting Dossier API", map[string]interface{}{
		"version":     handlers.APIVersion,
		"environment": cfg.Server.Env,
		"port":        cfg.Server.Port,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgresPool(ctx, cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", err, map[string]interface{}{
			"host": cfg.Database.Host,
			"port": cfg.Database.Port,
			"name": cfg.Database.Name,
		})
	}
	defer db.Close()

	log.Info("Database connection established", map[string]interface{}{
		"host":     cfg.Database.Host,
		"port":     cfg.Database.Port,
		"database": cfg.Database.Name,
		"pool_min": cfg.Database.PoolMin,
		"pool_max": cfg.Database.PoolMax,
	})

	files, err := storage.NewS3FileStore(ctx, cfg.Storage)
	if err != nil {
		log.Fatal("Failed to configure file storage", err, map[string]interface{}{
			"region":   cfg.Storage.Region,
			"endpoint": cfg.Storage.Endpoint,
		})
	}

	m := metrics.New()
	reconcilerOpts := services.ReconcilerOptions{
		Workers: cfg.Reconcile.Workers,
		Timeout: cfg.Reconcile.Timeout,
		Metrics: m,
	}

	redisClient, err := cache.NewClient(ctx, cfg.Redis)
	switch {
	case err != nil:
		log.Warn("Snapshot cache disabled", map[string]interface{}{"error": err.Error()})
	case redisClient != nil:
		defer redisClient.Close()
		reconcilerOpts.Cache = cache.NewSnapshotCache(redisClient, cfg.Redis.SnapshotKey, cfg.Redis.SnapshotTTL)
		log.Info("Snapshot cache enabled", map[string]interface{}{
			"key": cfg.Redis.SnapshotKey,
			"ttl": cfg.Redis.SnapshotTTL.String(),
		})
	}

	memberRepo := repository.NewMemberRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	deletionRepo := repository.NewDeletionRequestRepository(db)

	reconciler := services.NewReconciler(memberRepo, transactionRepo, log, reconcilerOpts)
	surveyService := services.NewSurveyService(memberRepo, reconciler, m, log)
	deletionService := services.NewDeletionService(deletionRepo, memberRepo, files, reconciler, m, log)

	if err := reconciler.Warm(ctx); err != nil {
		log.Warn("Failed to load cached snapshot", map[string]interface{}{"error": err.Error()})
	}
	// A failed first pass is not fatal: readers get the cached snapshot or a
	// 503 until a later pass succeeds.
	_, _ = reconciler.Reconcile(ctx)

	if cfg.Reconcile.Interval > 0 {
		go runPeriodicReconcile(ctx, reconciler, cfg.Reconcile.Interval)
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Middleware order: RequestID -> Actor -> Logger -> Recovery -> CORS
	router.Use(middleware.RequestID())
	router.Use(middleware.Actor())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS(cfg.CORS.Origins))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handlers.RegisterRoutes(router,
		handlers.NewHealthHandler(db, reconciler, cfg.Server.Env),
		handlers.NewDossierHandler(reconciler, surveyService),
		handlers.NewDeletionHandler(deletionService),
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Server listening", map[string]interface{}{
			"port": cfg.Server.Port,
			"addr": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed to start", err, nil)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", err, map[string]interface{}{
			"timeout": shutdownTimeout.String(),
		})
	}

	log.Info("Server exited", nil)
}

// runPeriodicReconcile runs a pass every interval until ctx is cancelled.
// Failures are logged and counted by the reconciler itself.
func runPeriodicReconcile(ctx context.Context, reconciler services.Reconciler, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = reconciler.Reconcile(ctx)
		}
	}
}
