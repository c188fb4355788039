// @title Habit analytics API
// @description Analytics, insights and optimistic check-ins for the "Discipline" habit tracker
// @BasePath /api/v1
// @schemes http
package main

import (
	"context"
	"log"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/limbo/discipline/internal/api"
	"github.com/limbo/discipline/internal/metrics"
	"github.com/limbo/discipline/internal/outbox"
	"github.com/limbo/discipline/internal/repository"
	"github.com/limbo/discipline/internal/service"
	"github.com/limbo/discipline/pkg/cleanup"
	"github.com/limbo/discipline/pkg/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func init() {
	service.InitValidator()
}

func main() {
	cfg := config.New()
	if cfg.GetString("LOG_LEVEL") == "debug" {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := cleanup.New()
	defer reg.CleanUp()

	dbCfg := repository.PGCfg{
		Address:  cfg.GetString("POSTGRES_DB_ADDRESS"),
		Username: cfg.GetString("POSTGRES_USER"),
		Password: cfg.GetString("POSTGRES_PASSWORD"),
		DB:       cfg.GetString("POSTGRES_DB"),
	}
	pool, err := repository.NewPool(ctx, &dbCfg, reg)
	if err != nil {
		log.Fatal(err)
	}

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.New(promReg)

	habitsRepo := repository.NewHabitsRepoWithConn(pool)
	opts := []service.Option{
		service.WithMetrics(recorder),
		service.WithWriteRetry(
			cfg.GetInt("WRITE_RETRIES", service.DefaultWriteRetries),
			cfg.GetDuration("WRITE_RETRY_BACKOFF", service.DefaultRetryBackoff),
		),
	}
	if path := cfg.GetString("OUTBOX_PATH"); path != "" {
		queue, err := outbox.OpenSQLite(path)
		if err != nil {
			reg.CleanUp()
			log.Fatal(err)
		}
		reg.Register(&cleanup.Job{Name: "closing outbox", F: queue.Close})
		opts = append(opts, service.WithOutbox(queue))
	}
	coordinator := service.NewCoordinator(
		habitsRepo,
		repository.NewCheckInsRepoWithConn(pool),
		repository.NewAnalyticsRepoWithConn(pool),
		opts...,
	)

	refresher := service.NewRefresher(coordinator, service.ActiveHabits(habitsRepo),
		cfg.GetDuration("REFRESH_INTERVAL", time.Minute))
	refresher.Start(ctx)
	reg.Register(&cleanup.Job{
		Name: "stopping refresher",
		F: func() error {
			refresher.Stop()
			return nil
		},
	})

	serv := api.New(&api.ServicesList{
		AnalyticsService: coordinator,
		MetricsHandler:   promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}),
	})
	reg.Register(&cleanup.Job{
		Name: "shutting down http server",
		F: func() error {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return serv.Shutdown(shutdownCtx)
		},
	})

	errCh := make(chan error, 1)
	go func() {
		address := cfg.GetStringOr("API_ADDRESS", ":8080")
		slog.Info("server started", slog.String("address", address))
		errCh <- serv.Run(address)
	}()
	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			log.Println("Server error: " + err.Error())
		}
	}
	if _, err := coordinator.Flush(context.Background()); err != nil {
		slog.Warn("final outbox flush failed", slog.String("error", err.Error()))
	}
}
