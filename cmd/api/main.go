// @title           Task Manager API
// @version         1.0
// @description     Multi-user task tracking API with role-based access control.
// @host            localhost:8080
// @BasePath        /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/wilmerjaviers/T387-IS-PROYECTO/internal/app"
	"github.com/wilmerjaviers/T387-IS-PROYECTO/internal/config"
	"github.com/wilmerjaviers/T387-IS-PROYECTO/internal/logging"

	_ "github.com/wilmerjaviers/T387-IS-PROYECTO/docs"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Logger.Fatalf("config: %v", err)
	}
	logging.Init(cfg.Log.Level, cfg.Log.File)
	logging.Logger.Info("config loaded, connecting to DB and Redis...")

	application, err := app.New(cfg)
	if err != nil {
		logging.Logger.Fatalf("app init: %v", err)
	}
	logging.Logger.Info("app ready, starting HTTP server")
	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.HTTP.Port,
		Handler:      application.Router(),
		ReadTimeout:  cfg.HTTP.ReadTimeout.Duration(),
		WriteTimeout: cfg.HTTP.WriteTimeout.Duration(),
		IdleTimeout:  cfg.HTTP.IdleTimeout.Duration(),
	}

	go func() {
		logging.Logger.Infof("HTTP server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Logger.Fatalf("HTTP server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logging.Logger.Fatalf("shutdown: %v", err)
	}

	if err := application.Close(ctx); err != nil {
		logging.Logger.Fatalf("close: %v", err)
	}
}
