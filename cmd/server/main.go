package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"anoa.com/communitywealth/internal/bootstrap"
	"anoa.com/communitywealth/internal/config"
	status "anoa.com/communitywealth/internal/modules/status/service"
	"anoa.com/communitywealth/internal/scheduler"
	"anoa.com/communitywealth/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, status.LogSink{})
	if err != nil {
		log.Fatalf("failed to initialize: %v", err)
	}
	defer app.Close()

	srv := server.NewServer(app)

	jobs := scheduler.NewScheduler()
	if cfg.RefreshSchedule != "" {
		if err := jobs.RegisterJob(scheduler.NewRefreshJob(srv.Runner(), cfg.RefreshSchedule)); err != nil {
			log.Fatalf("invalid REFRESH_SCHEDULE: %v", err)
		}
	}
	jobs.Start()

	go func() {
		log.Printf("🚀 Listening on :%s (store: %s)", cfg.Port, cfg.StoreDriver)
		if err := srv.Run(":" + cfg.Port); err != nil {
			log.Fatalf("server exited with error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")
	jobs.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
