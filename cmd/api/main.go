// cmd/api/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"libralend/internal/api"
	"libralend/internal/config"
	"libralend/internal/postgres"
	"libralend/internal/telemetry"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config:", err)
	}

	ctx := context.Background()
	shutdownTelemetry, err := telemetry.Setup(ctx, "libralend", cfg.OTLPEndpoint)
	if err != nil {
		log.Fatal("telemetry:", err)
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			log.Println("telemetry shutdown:", err)
		}
	}()

	db, err := postgres.Open(cfg.DatabaseURL, cfg.MaxOpenConns)
	if err != nil {
		log.Fatal("postgres:", err)
	}
	defer db.Close()

	if err := postgres.Migrate(db); err != nil {
		log.Fatal("migrate:", err)
	}

	server := &http.Server{Addr: ":" + cfg.Port, Handler: api.NewRouter(db)}
	go func() {
		log.Println("server listening on :" + cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Println("shutdown:", err)
	}
}
