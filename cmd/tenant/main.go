// Tenant admin CLI: list and create tenant accounts and apply database
// migrations.
//
// Usage:
//
//	tenant list
//	tenant create -slug acme -name "Acme Ltda" [-parent <uuid>]
//	tenant migrate-meta
//	tenant migrate [tenant-id | all]
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"ppetrack/internal/core/tenant"
	"ppetrack/internal/infrastructure/storage/postgres"
	"ppetrack/migrations"
	"ppetrack/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{Level: getEnv("LOG_LEVEL", "info"), Development: true})
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if len(os.Args) < 2 {
		usage()
	}

	ctx := context.Background()

	metaPool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(mustEnv(log, "META_DATABASE_URL")))
	if err != nil {
		log.Fatalw("failed to connect meta database", "error", err)
	}
	defer metaPool.Close()

	registry := tenant.NewPostgresRegistry(metaPool.Unwrap())

	switch os.Args[1] {
	case "list":
		cmdList(ctx, log, registry)
	case "create":
		cmdCreate(ctx, log, registry, os.Args[2:])
	case "migrate-meta":
		cmdMigrateMeta(log)
	case "migrate":
		cmdMigrate(ctx, log, registry, os.Args[2:])
	default:
		usage()
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: tenant <list|create|migrate-meta|migrate> [flags]")
	os.Exit(2)
}

func cmdList(ctx context.Context, log *logger.Logger, registry tenant.Registry) {
	tenants, err := registry.ListAll(ctx)
	if err != nil {
		log.Fatalw("failed to list tenants", "error", err)
	}

	for _, t := range tenants {
		root := "root"
		if !t.IsRoot() {
			root = "child of " + *t.ParentID
		}
		fmt.Printf("%s  %-20s %-10s %-20s %s\n", t.ID, t.Slug, t.Status, t.DBName, root)
	}
	fmt.Printf("%d tenants\n", len(tenants))
}

func cmdCreate(ctx context.Context, log *logger.Logger, registry tenant.Registry, args []string) {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	slug := fs.String("slug", "", "tenant slug (required)")
	name := fs.String("name", "", "display name (required)")
	parent := fs.String("parent", "", "parent tenant id (child accounts share the parent database)")
	host := fs.String("db-host", getEnv("TENANT_DB_HOST", "localhost"), "tenant database host")
	port := fs.Int("db-port", 5432, "tenant database port")
	_ = fs.Parse(args)

	input := tenant.CreateTenantInput{
		Slug:        *slug,
		DisplayName: *name,
		DBHost:      *host,
		DBPort:      *port,
	}
	if *parent != "" {
		input.ParentID = parent
	}
	if err := input.Validate(); err != nil {
		log.Fatalw("invalid input", "error", err)
	}

	t := &tenant.Tenant{
		Slug:        input.Slug,
		DisplayName: input.DisplayName,
		ParentID:    input.ParentID,
		DBHost:      input.DBHost,
		DBPort:      input.DBPort,
		Status:      tenant.StatusActive,
	}

	if input.ParentID != nil {
		// Child accounts share the root's database.
		root, err := registry.GetByID(ctx, *input.ParentID)
		if err != nil {
			log.Fatalw("parent tenant lookup failed", "error", err)
		}
		t.DBName = root.DBName
		t.DBHost = root.DBHost
		t.DBPort = root.DBPort
	} else {
		t.DBName = input.GenerateDBName()
	}

	if err := registry.Create(ctx, t); err != nil {
		log.Fatalw("failed to create tenant", "error", err)
	}
	log.Info("tenant created", "id", t.ID, "slug", t.Slug, "db_name", t.DBName)

	if t.IsRoot() {
		createDatabase(ctx, log, t.DBName)
		migrateTenantDB(log, t)
	}
}

// createDatabase provisions the tenant database using the admin connection.
func createDatabase(ctx context.Context, log *logger.Logger, dbName string) {
	adminURL := getEnv("ADMIN_DATABASE_URL", mustEnv(log, "META_DATABASE_URL"))

	conn, err := pgx.Connect(ctx, adminURL)
	if err != nil {
		log.Fatalw("failed to connect with admin credentials", "error", err)
	}
	defer func() { _ = conn.Close(ctx) }()

	_, err = conn.Exec(ctx, "CREATE DATABASE "+pgx.Identifier{dbName}.Sanitize())
	if err != nil {
		log.Fatalw("failed to create database", "db_name", dbName, "error", err)
	}
	log.Info("database created", "db_name", dbName)
}

func cmdMigrateMeta(log *logger.Logger) {
	db, err := sql.Open("pgx", mustEnv(log, "META_DATABASE_URL"))
	if err != nil {
		log.Fatalw("failed to open meta database", "error", err)
	}
	defer func() { _ = db.Close() }()

	goose.SetBaseFS(migrations.Meta)
	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatalw("goose dialect", "error", err)
	}
	if err := goose.Up(db, "meta"); err != nil {
		log.Fatalw("meta migrations failed", "error", err)
	}
	log.Info("meta migrations applied")
}

func cmdMigrate(ctx context.Context, log *logger.Logger, registry tenant.Registry, args []string) {
	target := "all"
	if len(args) > 0 {
		target = args[0]
	}

	tenants, err := registry.ListAll(ctx)
	if err != nil {
		log.Fatalw("failed to list tenants", "error", err)
	}

	migrated := 0
	for _, t := range tenants {
		if !t.IsRoot() {
			continue
		}
		if target != "all" && t.ID != target {
			continue
		}
		migrateTenantDB(log, t)
		migrated++
	}

	if migrated == 0 {
		log.Fatalw("no matching root tenant", "target", target)
	}
	log.Info("tenant migrations applied", "databases", migrated)
}

func migrateTenantDB(log *logger.Logger, t *tenant.Tenant) {
	dsn := t.DSN(mustEnv(log, "TENANT_DB_USER"), mustEnv(log, "TENANT_DB_PASSWORD"))

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Fatalw("failed to open tenant database", "db_name", t.DBName, "error", err)
	}
	defer func() { _ = db.Close() }()

	goose.SetBaseFS(migrations.Tenant)
	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatalw("goose dialect", "error", err)
	}
	if err := goose.Up(db, "tenant"); err != nil {
		log.Fatalw("tenant migrations failed", "db_name", t.DBName, "error", err)
	}
	log.Info("migrations applied", "db_name", t.DBName)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
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
