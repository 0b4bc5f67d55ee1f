// Command productservice wires the catalog core's components together and
// runs the event router loop, grounded on the teacher's lack of a cmd/
// entrypoint generalized from its pkg-library layout: config -> store ->
// publisher -> engines -> router, per §9's initialization order.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/aioutlet/product-catalog-core/internal/badges"
	"github.com/aioutlet/product-catalog-core/internal/broker/redisbroker"
	"github.com/aioutlet/product-catalog-core/internal/bulkimport"
	"github.com/aioutlet/product-catalog-core/internal/config"
	"github.com/aioutlet/product-catalog-core/internal/eventcatalog"
	"github.com/aioutlet/product-catalog-core/internal/projection"
	"github.com/aioutlet/product-catalog-core/internal/publisher"
	"github.com/aioutlet/product-catalog-core/internal/router"
	"github.com/aioutlet/product-catalog-core/internal/store/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	logger.Info("starting", "service", cfg.Identity.ServiceName, "version", cfg.Identity.ServiceVersion, "environment", cfg.Identity.Environment)

	st, err := postgres.Open(&postgres.Config{
		Host:     cfg.Store.Host,
		Port:     cfg.Store.Port,
		User:     cfg.Store.User,
		Password: cfg.Store.Pass,
		Database: cfg.Store.DB,
	}, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Broker.Endpoint})
	bk := redisbroker.New(redisClient, redisbroker.WithConsumerName(cfg.Broker.AppID), redisbroker.WithLogger(logger))

	pub := publisher.New(bk, logger)
	badgeEngine := badges.New(st, pub, logger)
	projEngine := projection.New(st, pub, badgeEngine, logger)
	importPipeline := bulkimport.New(st, pub, logger)
	r := router.New(projEngine, importPipeline, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Subscribe blocks per topic (it is the consume loop, not a registration
	// call), so each route runs in its own task; the router's Dispatch is
	// the broker.Handler shared across all of them.
	for _, info := range r.Routes() {
		topic, route := info.Topic, info.Route
		go func() {
			if err := bk.Subscribe(ctx, topic, r.Dispatch); err != nil && ctx.Err() == nil {
				logger.Error("subscription loop exited", "topic", topic, "route", route, "error", err)
			}
		}()
	}
	logger.Info("subscribed to all inbound topics", "count", len(eventcatalog.InboundTopics))

	<-ctx.Done()
	logger.Info("shutting down")
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Observability.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Observability.LogFormat == "console" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}
