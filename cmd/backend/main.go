package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"personnel-records/internal/config"
	"personnel-records/internal/db"
	"personnel-records/internal/records"
	"personnel-records/internal/server"
	"personnel-records/internal/uploads"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Refuse to start on missing secrets or bad settings.
		log.Printf("service=backend msg=%q err=%v", "invalid_configuration", err)
		os.Exit(1)
	}
	server.SetDefaultLogger(server.NewLogger(os.Stdout, cfg.LogLevel, cfg.JSONLogs()))

	version := getenvDefault("PR_VERSION", "dev")
	commit := getenvDefault("PR_COMMIT", "unknown")

	store, closeStore, err := openRecordStore(cfg)
	if err != nil {
		log.Printf("service=backend msg=%q store=%s err=%v", "record_store_failed", cfg.Store, err)
		os.Exit(1)
	}
	defer closeStore()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	blob, err := openUploadStore(ctx, cfg)
	cancel()
	if err != nil {
		log.Printf("service=backend msg=%q backend=%s err=%v", "upload_store_failed", cfg.UploadBackend, err)
		os.Exit(1)
	}

	srv, err := server.New(server.Config{
		Addr:    cfg.Addr,
		Version: version,
		Auth: server.AuthConfig{
			AdminUser:     cfg.AdminUser,
			AdminPass:     cfg.AdminPass,
			SessionSecret: string(cfg.SessionSecret),
			SessionTTL:    cfg.SessionTTL,
		},
		Records:        store,
		Uploads:        uploads.NewManager(cfg.UploadDir, blob),
		MaxUploadBytes: cfg.MaxUploadBytes,
		DeleteUploads:  cfg.DeleteUploads,
	})
	if err != nil {
		log.Printf("service=backend msg=%q err=%v", "server_init_failed", err)
		os.Exit(1)
	}

	// Start the HTTP server in a background goroutine so we can listen for
	// OS signals while it runs.
	errCh := make(chan error, 1)
	go func() {
		log.Printf("service=backend msg=%q addr=%s version=%s commit=%s store=%s uploads=%s",
			"starting", cfg.Addr, version, commit, cfg.Store, cfg.UploadBackend)
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("service=backend msg=%q signal=%s", "shutting_down", sig.String())
		// Give in-flight requests 5 seconds to finish.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("service=backend msg=%q err=%v", "shutdown_error", err)
			os.Exit(1)
		}
		log.Printf("service=backend msg=%q", "shutdown_complete")
	case err := <-errCh:
		if err != nil {
			log.Printf("service=backend msg=%q err=%v", "server_error", err)
			os.Exit(1)
		}
	}
}

// openRecordStore returns the configured record store and a func releasing
// its resources.
func openRecordStore(cfg *config.Config) (*records.Store, func(), error) {
	switch cfg.Store {
	case config.StoreCSV:
		return records.NewStore(records.NewCSVBackend(cfg.DataFile)), func() {}, nil
	case config.StorePostgres:
		conn, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("service=backend msg=%q", "running_migrations")
		if err := db.RunMigrations(conn); err != nil {
			_ = conn.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		log.Printf("service=backend msg=%q", "migrations_complete")
		return records.NewStore(records.NewPostgresBackend(conn)), closeDB(conn), nil
	default:
		return nil, nil, fmt.Errorf("unknown record store %q", cfg.Store)
	}
}

func closeDB(conn *sql.DB) func() {
	return func() { _ = conn.Close() }
}

func openUploadStore(ctx context.Context, cfg *config.Config) (uploads.Blob, error) {
	switch cfg.UploadBackend {
	case config.UploadDisk:
		return uploads.NewDiskStore(cfg.UploadDir)
	case config.UploadS3:
		return uploads.NewMinioStore(ctx, uploads.MinioConfig{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.Bucket,
		})
	default:
		return nil, fmt.Errorf("unknown upload backend %q", cfg.UploadBackend)
	}
}

// getenvDefault reads an environment variable and returns a default value if not set.
func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}
