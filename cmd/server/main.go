package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/cargolink/notification-service/configs"
	"github.com/cargolink/notification-service/internal/app/registry"
	"github.com/cargolink/notification-service/internal/domain/port/broker"
	kafkabroker "github.com/cargolink/notification-service/internal/infrastructure/broker"
	"github.com/cargolink/notification-service/internal/infrastructure/cache"
	"github.com/cargolink/notification-service/internal/infrastructure/repository"
	"github.com/cargolink/notification-service/internal/observability/metrics"
	"github.com/cargolink/notification-service/internal/observability/tracing"
	"github.com/cargolink/notification-service/internal/usecases/composer"
	"github.com/cargolink/notification-service/internal/usecases/dispatch"
	"github.com/cargolink/notification-service/internal/usecases/inbox"
	"github.com/cargolink/notification-service/internal/usecases/notifier"
	"github.com/cargolink/notification-service/internal/usecases/preferences"
	"github.com/cargolink/notification-service/pkg/logger"

	// Import channel packages solely for their init() registration effect
	_ "github.com/cargolink/notification-service/internal/infrastructure/channel/email"
	_ "github.com/cargolink/notification-service/internal/infrastructure/channel/push"
	_ "github.com/cargolink/notification-service/internal/infrastructure/channel/sms"
)

func main() {
	if err := logger.InitializeLogger(false); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			log.Printf("Error syncing logger: %v", err)
		}
	}()

	logger.L().Info("Starting notification service...")

	// --- Configuration ---
	cfg, err := configs.NewConfig(".")
	if err != nil {
		logger.L().Fatal("Failed to load configuration", zap.Error(err))
	}
	logger.L().Info("Configuration loaded",
		zap.String("httpServerAddress", cfg.HTTPServerAddress),
		zap.String("metricsServerAddress", cfg.MetricsServerAddress),
		zap.Strings("kafkaBrokers", cfg.KafkaBrokers),
		zap.String("kafkaTopic", cfg.KafkaTopic),
		zap.Int("workerPoolSize", cfg.WorkerPoolSize),
	)

	// --- Initialize OpenTelemetry Tracer ---
	tracerShutdown, err := tracing.InitTracer(cfg)
	if err != nil {
		logger.L().Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerShutdown(shutdownCtx); err != nil {
			logger.L().Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// --- Database ---
	poolCtx, poolCancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := repository.NewPool(poolCtx, cfg.DatabaseURL)
	poolCancel()
	if err != nil {
		logger.L().Fatal("Failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	notificationRepo := repository.NewNotificationRepo(pool)
	preferenceRepo := repository.NewPreferenceRepo(pool)
	contactRepo := repository.NewContactRepo(pool)
	entityReader := repository.NewEntityReader(pool)

	// --- Preference Cache (optional) ---
	var prefCache *cache.PreferenceCache
	if cfg.RedisAddress != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddress,
			Password: cfg.RedisPassword,
		})
		defer redisClient.Close()
		prefCache = cache.NewPreferenceCache(redisClient, time.Duration(cfg.PreferenceCacheTTL)*time.Second)
		logger.L().Info("Preference cache enabled", zap.String("redisAddress", cfg.RedisAddress))
	} else {
		logger.L().Info("REDIS_ADDRESS not set, preference cache disabled")
	}

	// --- Kafka Broker (optional) ---
	var messageBroker broker.MessageBroker
	if len(cfg.KafkaBrokers) > 0 {
		kb, err := kafkabroker.NewKafkaBroker(kafkabroker.Config{Brokers: cfg.KafkaBrokers})
		if err != nil {
			logger.L().Fatal("Failed to initialize Kafka broker", zap.Error(err))
		}
		defer func() {
			logger.L().Info("Attempting to close Kafka broker...")
			if err := kb.Close(); err != nil {
				logger.L().Error("Error closing kafka broker", zap.Error(err))
			}
		}()
		messageBroker = kb
	} else {
		logger.L().Warn("KAFKA_BROKERS not set, dispatch events will run in-process")
	}

	// --- Channel Senders (Dynamic via Registry) ---
	senders := registry.BuildSenders(cfg)
	for ch := range senders {
		logger.L().Info("Channel sender initialized", zap.String("channel", string(ch)))
	}

	// --- Use Cases ---
	dispatchConf := configs.GetDispatchConf()
	preferencesUseCase, preferencesHandler := preferences.NewPreferences(preferenceRepo, prefCache)
	dispatchUseCase, dispatchEventHandler := dispatch.NewDispatch(
		preferencesUseCase,
		contactRepo,
		notificationRepo,
		senders,
		dispatchConf.WorkerPoolSize,
		time.Duration(dispatchConf.SendTimeoutSeconds)*time.Second,
	)
	texts := composer.NewTextBuilder(entityReader, entityReader)
	_, notifierHandler := notifier.NewNotifier(messageBroker, dispatchUseCase, texts)
	_, inboxHandler := inbox.NewInbox(notificationRepo)

	// --- Metrics Server ---
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", metrics.MetricsHandler())
	metricsServer := &http.Server{
		Addr:    cfg.MetricsServerAddress,
		Handler: metricsMux,
	}
	go func() {
		logger.L().Info("Starting metrics server", zap.String("address", cfg.MetricsServerAddress))
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.L().Error("Metrics server ListenAndServe failed", zap.Error(err))
		}
	}()

	// --- HTTP API ---
	srv := gin.Default()
	srv.Use(otelgin.Middleware(cfg.OtelServiceName))
	srv.Use(func(c *gin.Context) {
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = c.Request.URL.Path
		}
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		metrics.HttpRequestsTotal.WithLabelValues(endpoint, http.StatusText(status)).Inc()
		metrics.HttpRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	})

	api := srv.Group("/api/v1")
	notifierHandler.RegisterRoutes(api)
	preferencesHandler.RegisterRoutes(api)
	inboxHandler.RegisterRoutes(api)

	srv.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	httpServer := &http.Server{
		Addr:    cfg.HTTPServerAddress,
		Handler: srv,
	}
	go func() {
		logger.L().Info("Starting HTTP server", zap.String("address", cfg.HTTPServerAddress))
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.L().Error("HTTP server ListenAndServe failed", zap.Error(err))
		}
	}()

	// --- Consumer ---
	ctx, cancel := context.WithCancel(context.Background())
	consumerDone := make(chan struct{})
	if messageBroker != nil {
		go func() {
			defer close(consumerDone)
			if err := messageBroker.Consume(ctx, dispatchEventHandler.Handle); err != nil {
				logger.L().Error("Kafka consumer exited with error", zap.Error(err))
				return
			}
			logger.L().Info("Kafka consumer exited cleanly.")
		}()
	} else {
		close(consumerDone)
	}

	// --- Graceful Shutdown ---
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.L().Info("Received signal, shutting down gracefully...", zap.String("signal", sig.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	logger.L().Info("Shutting down HTTP server...")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.L().Error("HTTP server shutdown error", zap.Error(err))
	}

	logger.L().Info("Shutting down metrics server...")
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.L().Error("Metrics server shutdown error", zap.Error(err))
	}

	cancel()
	logger.L().Info("Waiting for Kafka consumer to stop...")
	<-consumerDone

	logger.L().Info("Notification service shut down complete.")
}
