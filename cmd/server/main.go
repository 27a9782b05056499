// Report engine server: exposes the batch trigger endpoints, report reads
// and health probes over HTTP.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"ppetrack/internal/core/tenant"
	"ppetrack/internal/domain/analytics"
	"ppetrack/internal/domain/reportgen"
	"ppetrack/internal/infrastructure/blob"
	v1 "ppetrack/internal/infrastructure/http/v1"
	"ppetrack/internal/infrastructure/http/v1/middleware"
	"ppetrack/internal/infrastructure/storage/postgres"
	"ppetrack/internal/infrastructure/storage/postgres/reportrepo"
	"ppetrack/internal/infrastructure/storage/postgres/tenantrepo"
	"ppetrack/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "production") == "development",
	})
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if getEnv("APP_ENV", "production") != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	// Meta database (tenant registry).
	metaPool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(mustEnv("META_DATABASE_URL")))
	if err != nil {
		log.Fatalw("failed to connect meta database", "error", err)
	}
	defer metaPool.Close()

	registry := tenant.NewPostgresRegistry(metaPool.Unwrap())

	managerCfg := tenant.DefaultManagerConfig()
	managerCfg.DBUser = mustEnv("TENANT_DB_USER")
	managerCfg.DBPassword = mustEnv("TENANT_DB_PASSWORD")
	manager := tenant.NewManager(managerCfg, registry, log)
	defer manager.Close()

	// Object storage for weekly exports.
	blobStore, err := blob.NewGCSStore(ctx, blob.GCSConfig{
		Bucket:          mustEnv("GCS_BUCKET"),
		CredentialsJSON: readOptionalFile(log, os.Getenv("GCS_CREDENTIALS_FILE")),
	})
	if err != nil {
		log.Fatalw("failed to init object storage", "error", err)
	}
	defer func() { _ = blobStore.Close() }()

	workers := getEnvInt("BATCH_WORKERS", 4)
	orchestrator := reportgen.NewOrchestrator(manager, newTenantRunner(manager, blobStore), workers, log)

	router := v1.NewRouter(v1.RouterConfig{
		Orchestrator: orchestrator,
		Manager:      manager,
		JobAuth: middleware.JobAuthConfig{
			Secret:     os.Getenv("JOB_TOKEN"),
			SecretHash: os.Getenv("JOB_TOKEN_HASH"),
		},
		MetaPing: metaPool.Ping,
	})

	srv := &http.Server{
		Addr:              getEnv("HTTP_ADDR", ":8080"),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// Batch runs execute inside the request; write timeout must cover a
		// full multi-tenant backfill.
		WriteTimeout: 15 * time.Minute,
	}

	go func() {
		log.Info("http server listening", "addr", srv.Addr, "workers", workers)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("http server failed", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	log.Info("server stopped")
}

// newTenantRunner wires the per-tenant pipeline: pool acquisition,
// transaction manager and repositories.
func newTenantRunner(manager *tenant.Manager, blobs reportgen.BlobStore) reportgen.TenantRunner {
	return func(ctx context.Context, t *tenant.Tenant, reportType reportgen.ReportType) reportgen.TenantResult {
		mp, err := manager.GetPool(ctx, t.ID)
		if err != nil {
			return reportgen.TenantResult{TenantID: t.ID, Slug: t.Slug, Error: err.Error()}
		}
		mp.AcquireRef()
		defer mp.ReleaseRef()

		txm := postgres.NewTxManagerFromRawPool(mp.Pool())
		ctx = tenant.WithPool(ctx, mp.Pool())
		ctx = tenant.WithTxManager(ctx, txm)

		g := &reportgen.Generator{
			Materials: tenantrepo.NewMaterialRepository(),
			Movements: tenantrepo.NewMovementRepository(),
			People:    tenantrepo.NewPeopleRepository(),
			Safety:    tenantrepo.NewSafetyRepository(),
			Reports:   reportrepo.NewReportRepository(),
			Blobs:     blobs,
			Tx:        txm,
			Pareto:    analytics.DefaultParetoConfig(),
			Risk:      analytics.DefaultRiskConfig(),
		}
		return g.RunTenant(ctx, t, reportType)
	}
}

func readOptionalFile(log *logger.Logger, path string) []byte {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalw("failed to read credentials file", "path", path, "error", err)
	}
	return data
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		logger.Default().Fatalw("required environment variable is not set", "key", key)
	}
	return v
}
