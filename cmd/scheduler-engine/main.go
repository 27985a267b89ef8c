package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/miradorstack/mirador-scheduler/internal/api"
	"github.com/miradorstack/mirador-scheduler/internal/cache"
	"github.com/miradorstack/mirador-scheduler/internal/config"
	"github.com/miradorstack/mirador-scheduler/internal/engine"
	"github.com/miradorstack/mirador-scheduler/internal/events"
	"github.com/miradorstack/mirador-scheduler/internal/metrics"
	"github.com/miradorstack/mirador-scheduler/internal/policy"
	"github.com/miradorstack/mirador-scheduler/internal/services"
	"github.com/miradorstack/mirador-scheduler/internal/utils"
)

func main() {
	_ = godotenv.Load()

	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("path", configPath), slog.Any("error", err))
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)
	logger.Info("starting mirador-scheduler",
		slog.String("grpc_address", cfg.Server.GRPCAddress),
		slog.String("http_address", cfg.Server.HTTPAddress),
	)

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register metrics", slog.Any("error", err))
		os.Exit(1)
	}

	basePolicy, err := policy.LoadFile(cfg.Optimizer.PolicyPath, logger)
	if err != nil {
		logger.Error("failed to load org settings", slog.String("path", cfg.Optimizer.PolicyPath), slog.Any("error", err))
		os.Exit(1)
	}

	var cacheProvider cache.Provider = cache.NoopProvider{}
	if cfg.Cache.Enabled {
		provider, err := cache.New(cache.Options{
			Backend: cfg.Cache.Backend,
			Redis: cache.RedisConfig{
				Addr:         cfg.Cache.Addr,
				Username:     cfg.Cache.Username,
				Password:     cfg.Cache.Password,
				DB:           cfg.Cache.DB,
				DialTimeout:  cfg.Cache.DialTimeout,
				ReadTimeout:  cfg.Cache.ReadTimeout,
				WriteTimeout: cfg.Cache.WriteTimeout,
				MaxRetries:   cfg.Cache.MaxRetries,
				TLS:          cfg.Cache.TLS,
			},
		})
		if err != nil {
			logger.Warn("result cache unavailable", slog.String("backend", cfg.Cache.Backend), slog.Any("error", err))
		} else {
			cacheProvider = provider
		}
	}
	defer cacheProvider.Close()

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.Events.Enabled {
		kp, err := events.NewKafkaPublisher(events.KafkaConfig{
			Brokers:      cfg.Events.Brokers,
			Topic:        cfg.Events.Topic,
			WriteTimeout: cfg.Events.WriteTimeout,
		}, logger)
		if err != nil {
			logger.Warn("event publisher unavailable", slog.Any("error", err))
		} else {
			publisher = kp
		}
	}
	defer publisher.Close()

	optimizer := engine.NewOptimizer(logger, engine.Options{
		TopK:                cfg.Optimizer.TopK,
		Step:                time.Duration(cfg.Optimizer.StepMinutes) * time.Minute,
		AlignToStep:         cfg.Optimizer.AlignToStep,
		RequireParticipants: cfg.Optimizer.RequireParticipants,
	})

	scheduler := services.NewSchedulerService(logger, optimizer, basePolicy, cfg.Optimizer,
		services.WithCache(cacheProvider, cfg.Cache.ResultTTL),
		services.WithPublisher(publisher),
	)

	server, err := api.NewServer(cfg.Server, api.NewSchedulerServer(scheduler), logger)
	if err != nil {
		logger.Error("failed to create gRPC server", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var httpServer *http.Server
	if cfg.Server.HTTPAddress != "" {
		httpServer = &http.Server{
			Addr: cfg.Server.HTTPAddress,
			Handler: api.NewHTTPHandler(scheduler, api.HTTPOptions{
				Logger:         logger,
				AllowedOrigins: cfg.Server.AllowedOrigins,
				AccessLog:      os.Stdout,
			}),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		}
		go func() {
			logger.Info("http api listening", slog.String("address", cfg.Server.HTTPAddress))
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server exited", slog.Any("error", err))
				stop()
			}
		}()
	}

	var metricsServer *http.Server
	if cfg.Server.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
		}
		go func() {
			logger.Info("metrics server listening", slog.String("address", cfg.Server.MetricsAddress))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server exited", slog.Any("error", err))
				stop()
			}
		}()
	}

	go func() {
		logger.Info("grpc server listening", slog.String("address", server.Address()))
		if serveErr := server.Start(); serveErr != nil {
			logger.Error("gRPC server exited", slog.Any("error", serveErr))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), server.GracefulTimeout())
	defer cancel()
	server.Shutdown(shutdownCtx)

	for _, srv := range []*http.Server{httpServer, metricsServer} {
		if srv == nil {
			continue
		}
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("http shutdown", slog.String("address", srv.Addr), slog.Any("error", err))
		}
	}

	logger.Info("mirador-scheduler stopped")
}
