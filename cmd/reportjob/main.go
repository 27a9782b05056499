// One-shot batch runner for cron and operators: executes a full monthly or
// weekly report run across all active root tenants and prints the batch
// summary as JSON.
//
// Usage:
//
//	reportjob monthly
//	reportjob weekly
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	appctx "ppetrack/internal/core/context"
	"ppetrack/internal/core/tenant"
	"ppetrack/internal/domain/analytics"
	"ppetrack/internal/domain/reportgen"
	"ppetrack/internal/infrastructure/blob"
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

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: reportjob <monthly|weekly>")
		os.Exit(2)
	}
	reportType := reportgen.ReportType(os.Args[1])
	if !reportType.Valid() {
		fmt.Fprintf(os.Stderr, "unknown report type %q\n", os.Args[1])
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	metaPool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(mustEnv(log, "META_DATABASE_URL")))
	if err != nil {
		log.Fatalw("failed to connect meta database", "error", err)
	}
	defer metaPool.Close()

	registry := tenant.NewPostgresRegistry(metaPool.Unwrap())

	managerCfg := tenant.DefaultManagerConfig()
	managerCfg.DBUser = mustEnv(log, "TENANT_DB_USER")
	managerCfg.DBPassword = mustEnv(log, "TENANT_DB_PASSWORD")
	manager := tenant.NewManager(managerCfg, registry, log)
	defer manager.Close()

	blobStore, err := blob.NewGCSStore(ctx, blob.GCSConfig{
		Bucket:          mustEnv(log, "GCS_BUCKET"),
		CredentialsJSON: readOptionalFile(log, os.Getenv("GCS_CREDENTIALS_FILE")),
	})
	if err != nil {
		log.Fatalw("failed to init object storage", "error", err)
	}
	defer func() { _ = blobStore.Close() }()

	workers := getEnvInt("BATCH_WORKERS", 4)
	orchestrator := reportgen.NewOrchestrator(manager, newTenantRunner(manager, blobStore), workers, log)

	ctx = appctx.WithRun(ctx, appctx.NewRunContext("cli"))
	summary, err := orchestrator.Run(ctx, reportType)
	if err != nil {
		log.Fatalw("batch run failed", "error", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		log.Fatalw("failed to render summary", "error", err)
	}

	if !summary.OK {
		os.Exit(1)
	}
}

// newTenantRunner wires the per-tenant pipeline the same way the server does.
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

func mustEnv(log *logger.Logger, key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalw("required environment variable is not set", "key", key)
	}
	return v
}
