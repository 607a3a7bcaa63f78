package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/LeslieKogi/sunrise-backend/internal/api"
	"github.com/LeslieKogi/sunrise-backend/internal/config"
	"github.com/LeslieKogi/sunrise-backend/internal/event"
	"github.com/LeslieKogi/sunrise-backend/internal/metrics"
	"github.com/LeslieKogi/sunrise-backend/internal/repository"
	"github.com/LeslieKogi/sunrise-backend/internal/service"
)

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := zerolog.New(os.Stderr)
		fallback.Fatal().Err(err).Msg("Invalid configuration")
	}
	log := newLogger(cfg)
	repository.SetLogger(log)
	service.SetLogger(log)
	api.SetLogger(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := cfg.OpenStore(ctx)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("Failed to open database")
	}
	defer store.Close()

	rdb, err := cfg.NewRedisClient(ctx)
	if err != nil {
		log.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("Failed to connect to redis")
	}
	if rdb != nil {
		defer rdb.Close()
	} else {
		log.Info().Msg("REDIS_ADDR not set, flavour cache and idempotency keys disabled")
	}

	var publisher event.Publisher = event.Nop{}
	if cfg.KafkaEnabled() {
		kafkaWriter := config.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kafkaWriter.Close()
		publisher = event.NewKafkaPublisher(kafkaWriter)
	}

	flavourRepo := repository.NewFlavourRepository(store)
	orderRepo := repository.NewOrderRepository(store)
	adminRepo := repository.NewAdminRepository(store)

	services := api.Services{
		Flavours: service.NewFlavourService(flavourRepo, rdb, cfg.CacheTTL),
		Orders:   service.NewOrderService(orderRepo, flavourRepo, publisher, rdb, cfg.IdempotencyTTL),
		Auth:     service.NewAuthService(adminRepo, cfg.SecretKey, cfg.TokenTTL),
	}

	e := api.NewRouter(services, api.RouterConfig{
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		Metrics:        metrics.NewServerMetrics("api"),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Str("driver", cfg.DBDriver).Bool("kafka", cfg.KafkaEnabled()).Msg("Sunrise Yogurt API listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info().Msg("Shutting down")
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server stopped with error")
		os.Exit(1)
	}
}
