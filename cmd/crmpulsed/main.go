// Command crmpulsed is the hosted crmpulse service.
// It accepts CRM datasets for audit, serves the audit catalog API,
// and exposes a health check.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/crmpulse/crmpulse/internal/api"
	"github.com/crmpulse/crmpulse/internal/ingestion"
	"github.com/crmpulse/crmpulse/internal/notify"
	"github.com/crmpulse/crmpulse/internal/platform"
	"github.com/crmpulse/crmpulse/internal/portal"
)

type config struct {
	Port          string
	DatabaseURL   string
	APIKey        string
	WebhookURL    string
	WebhookSecret string
	Storage       ingestion.BackendConfig
}

func loadConfig() config {
	return config{
		Port:          envOrDefault("PORT", "8080"),
		DatabaseURL:   envOrDefault("DATABASE_URL", "postgres://localhost:5432/crmpulse?sslmode=disable"),
		APIKey:        os.Getenv("API_KEY"),
		WebhookURL:    os.Getenv("WEBHOOK_URL"),
		WebhookSecret: os.Getenv("WEBHOOK_SECRET"),
		Storage: ingestion.BackendConfig{
			Backend:   envOrDefault("STORAGE_BACKEND", "local"),
			LocalDir:  envOrDefault("LOCAL_STORAGE_PATH", "/tmp/crmpulse-data"),
			GCSBucket: os.Getenv("GCS_BUCKET"),
			S3: ingestion.S3Config{
				Bucket:    os.Getenv("S3_BUCKET"),
				Region:    os.Getenv("S3_REGION"),
				Endpoint:  os.Getenv("S3_ENDPOINT"),
				AccessKey: os.Getenv("S3_ACCESS_KEY"),
				SecretKey: os.Getenv("S3_SECRET_KEY"),
			},
		},
	}
}

func main() {
	cfg := loadConfig()

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("ping database: %v", err)
	}

	if err := platform.AutoMigrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storage, err := ingestion.OpenStorage(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("open storage: %v", err)
	}
	log.Printf("storage backend: %s", cfg.Storage.Backend)

	portalSvc := portal.NewService(db)
	ingestionSvc := ingestion.NewService(portalSvc, storage, nil)
	if cfg.WebhookURL != "" {
		ingestionSvc.SetPublisher(notify.NewWebhookPublisher(cfg.WebhookURL, []byte(cfg.WebhookSecret)))
		log.Printf("publishing audit events to %s", cfg.WebhookURL)
	}
	handler := api.NewHandler(portalSvc, ingestionSvc, api.NewReportCacheFromEnv())

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.HandleFunc("GET /healthz", healthHandler(db))

	if cfg.APIKey == "" {
		log.Println("API_KEY not set: write endpoints are unauthenticated")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.CORS(api.APIKeyAuth(cfg.APIKey)(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("starting crmpulsed on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

func healthHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
