package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/clipguard/videofp/internal/cache"
	"github.com/clipguard/videofp/internal/callback"
	"github.com/clipguard/videofp/internal/config"
	"github.com/clipguard/videofp/internal/database"
	"github.com/clipguard/videofp/internal/decider"
	"github.com/clipguard/videofp/internal/fingerprint"
	"github.com/clipguard/videofp/internal/handlers"
	"github.com/clipguard/videofp/internal/kernel"
	"github.com/clipguard/videofp/internal/logger"
	"github.com/clipguard/videofp/internal/middleware"
	"github.com/clipguard/videofp/internal/queue"
	"github.com/clipguard/videofp/internal/repository"
	"github.com/clipguard/videofp/internal/storage"
	"github.com/clipguard/videofp/internal/telemetry"
)

func main() {
	// Initialize structured logging (before everything else)
	logLevel := getEnvOrDefault("LOG_LEVEL", "info")
	logFile := getEnvOrDefault("LOG_FILE", "videofp.log")

	if err := logger.Initialize(logLevel, logFile); err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Close()

	logger.Log.Info("=== videofp server starting ===")

	if err := godotenv.Load(); err != nil {
		logger.Log.Warn("no .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatal("failed to load configuration", zap.Error(err))
	}

	// OpenTelemetry tracing (optional)
	var tracerProvider *trace.TracerProvider
	if os.Getenv("OTEL_ENABLED") == "true" {
		otelCfg := telemetry.Config{
			ServiceName:  getEnvOrDefault("OTEL_SERVICE_NAME", "videofp"),
			Environment:  getEnvOrDefault("OTEL_ENVIRONMENT", "development"),
			OTLPEndpoint: getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			Enabled:      true,
			SamplingRate: 1.0,
		}
		tp, tracerErr := telemetry.InitTracer(otelCfg)
		if tracerErr != nil {
			logger.Log.Warn("failed to initialize OpenTelemetry", zap.Error(tracerErr))
		} else {
			tracerProvider = tp
			logger.Log.Info("OpenTelemetry tracing enabled", zap.String("service", otelCfg.ServiceName))
			defer func() {
				if tracerProvider != nil {
					if err := tracerProvider.Shutdown(context.Background()); err != nil {
						logger.Log.Error("failed to shutdown tracer provider", zap.Error(err))
					}
				}
			}()
		}
	}

	// Metadata store
	if err := database.Initialize(cfg.DatabaseURL); err != nil {
		logger.Log.Fatal("failed to initialize database", zap.Error(err))
	}
	if err := database.Migrate(); err != nil {
		logger.Log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Optional band-index accelerator cache (spec.md §3)
	var redisClient *cache.RedisClient
	var bandCache *cache.BandCache
	if cfg.RedisHost != "" {
		redisClient, err = cache.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
		if err != nil {
			logger.Log.Warn("failed to connect to Redis, band-index cache disabled", zap.Error(err))
			redisClient = nil
		} else {
			bandCache = cache.NewBandCache(redisClient, 24*time.Hour)
			logger.Log.Info("band-index cache enabled", zap.String("redis_host", cfg.RedisHost))
		}
	}

	fetcher, err := storage.NewS3Fetcher(context.Background(), cfg.StorageRegion, cfg.StorageBucket, cfg.StorageEndpoint)
	if err != nil {
		logger.Log.Fatal("failed to initialize source fetcher", zap.Error(err))
	}

	index := repository.NewFingerprintIndex(database.DB)
	pipeline := fingerprint.NewPipeline(os.TempDir())
	dec := decider.New(index, bandCache, decider.Policy{
		CandidateKVisual: cfg.CandidateKVisual,
		CandidateKAudio:  cfg.CandidateKAudio,
		BatchSize:        cfg.IndexBatchSize,
	})
	callbackClient := callback.New(cfg.CallbackURL, []byte(cfg.CallbackSigningKey))

	fpQueue := queue.NewFingerprintQueue(fetcher, pipeline, dec, index, callbackClient)
	fpQueue.Start()

	appKernel := kernel.New().
		SetDB(database.DB).
		SetLogger(logger.Log).
		SetCache(redisClient).
		SetFetcher(fetcher).
		SetIndex(index).
		SetPipeline(pipeline).
		SetDecider(dec).
		SetQueue(fpQueue).
		SetCallback(callbackClient)

	if err := appKernel.Validate(); err != nil {
		logger.Log.Fatal("kernel validation failed", zap.Error(err))
	}

	appKernel.OnCleanup(func(ctx context.Context) error {
		fpQueue.Stop()
		return nil
	})
	if redisClient != nil {
		appKernel.OnCleanup(func(ctx context.Context) error {
			return redisClient.Close()
		})
	}

	h := handlers.NewHandlers(appKernel)

	gin.SetMode(getEnvOrDefault("GIN_MODE", gin.ReleaseMode))
	r := gin.New()
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/health", "/internal/metrics"})))
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.MetricsMiddleware())
	r.Use(middleware.GinLoggerMiddleware())
	if os.Getenv("OTEL_ENABLED") == "true" {
		r.Use(middleware.TracingMiddleware("videofp"))
	}
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit())

	r.GET("/health", h.Health)
	r.GET("/internal/metrics", gin.WrapH(promhttp.Handler()))

	internal := r.Group("/internal")
	{
		internal.POST("/process", h.Process)
		internal.GET("/status/:video_id", h.Status)
	}

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	go func() {
		logger.Log.Info("videofp server listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := appKernel.Cleanup(ctx); err != nil {
		logger.Log.Error("error during application cleanup", zap.Error(err))
	}
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Log.Info("server exited")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
