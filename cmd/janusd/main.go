// cmd/janusd/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"janus/internal/audit"
	"janus/internal/auth"
	"janus/internal/bus"
	"janus/internal/capability"
	"janus/internal/common/config"
	"janus/internal/common/database"
	"janus/internal/common/logger"
	"janus/internal/common/observability"
	"janus/internal/events"
	"janus/internal/models"
	"janus/internal/pipeline"
	"janus/internal/process"
	"janus/internal/server"
	"janus/internal/validate"
	"janus/pkg/manifest"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting janusd...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New("janusd")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Permission store ---
	var store auth.PermissionStore
	switch cfg.Pipeline.PermissionStore {
	case "redis":
		var redisClient *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			redisClient, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return redisClient.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redisClient.Close()
		store = auth.NewRedisStore(redisClient.Client)
		zapLog.Info("Redis permission store connected")

	case "postgres":
		var pg *database.PostgresClient
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()
		store = auth.NewPostgresStore(pg.DB)
		zapLog.Info("PostgreSQL permission store connected")

	default:
		store = auth.NewStaticStore()
		zapLog.Info("Using static in-memory permission store")
	}
	resolver := auth.NewStoreResolver(store)

	// --- Event bus ---
	var publisher bus.Publisher
	if cfg.Bus.Backend == "redis" {
		var redisClient *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			redisClient, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return redisClient.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis bus connection")
		if err != nil {
			zapLog.Fatal("redis bus failed after retries", zap.Error(err))
		}
		publisher = bus.NewRedisPublisher(redisClient.Client, cfg.Bus.ChannelFmt, log)
		zapLog.Info("Redis event bus connected")
	} else {
		publisher = bus.NewMemoryBus(cfg.Bus.BufferSize, log)
		zapLog.Info("Using in-memory event bus")
	}
	defer publisher.Close()

	// --- Audit recorder ---
	var recorder audit.Recorder
	switch {
	case !cfg.Audit.Enabled:
		recorder = audit.NoopRecorder{}
	case cfg.Audit.Backend == "elasticsearch":
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping()
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		recorder = audit.NewElasticsearchRecorder(esClient.Client, cfg.Database.Elasticsearch.Index, log)
		zapLog.Info("Elasticsearch audit recorder connected")
	default:
		recorder = audit.NewLogRecorder(log)
	}
	defer recorder.Close()

	// --- Pipelines per enabled source ---
	safety := validate.NewSafetyValidator(cfg.Pipeline.Safety)
	registry := capability.NewRegistry(log)
	var pipelines []*pipeline.Pipeline

	if cfg.Sources.API.Enabled {
		p := pipeline.New(
			auth.NewAuthenticator(auth.NewAPIValidator(cfg.Sources.API.KeyPrefix), resolver, log),
			validate.NewValidator(validate.NewAPIFormatValidator(), safety, log),
			process.NewProcessor(process.NewTextNormalizer(), log),
			"", log, obs,
		)
		pipelines = append(pipelines, p)
		registerSourceCapabilities(registry, "api", zapLog)
	}

	if cfg.Sources.Webhook.Enabled {
		webhookFormat, err := validate.NewWebhookFormatValidator()
		if err != nil {
			zapLog.Fatal("webhook schema compilation failed", zap.Error(err))
		}
		p := pipeline.New(
			auth.NewAuthenticator(auth.NewWebhookValidator(cfg.Sources.Webhook.SigningSecret), resolver, log),
			validate.NewValidator(webhookFormat, safety, log),
			process.NewProcessor(process.NewTextNormalizer(), log),
			"", log, obs,
		)
		pipelines = append(pipelines, p)
		registerSourceCapabilities(registry, "webhook", zapLog)
	}

	if cfg.Sources.Slack.Enabled {
		p := pipeline.New(
			auth.NewAuthenticator(auth.NewSlackValidator(cfg.Sources.Slack.SigningSecret), resolver, log),
			validate.NewValidator(validate.NewSlackFormatValidator(), safety, log),
			process.NewProcessor(process.NewTextNormalizer(), log),
			"", log, obs,
		)
		pipelines = append(pipelines, p)
		registerSourceCapabilities(registry, "slack", zapLog)
	}

	if len(pipelines) == 0 {
		zapLog.Fatal("no input sources enabled")
	}

	if cfg.Pipeline.CapabilityManifest != "" {
		m, err := manifest.Load(cfg.Pipeline.CapabilityManifest)
		if err != nil {
			zapLog.Fatal("capability manifest load failed", zap.Error(err))
		}
		for _, p := range m.Providers {
			caps := make([]models.InputCapability, 0, len(p.Capabilities))
			for _, c := range p.Capabilities {
				caps = append(caps, models.InputCapability{
					Name:         c.Name,
					Description:  c.Description,
					Version:      c.Version,
					Parameters:   c.Parameters,
					Required:     c.Required,
					Experimental: c.Experimental,
					Dependencies: c.Dependencies,
				})
			}
			if err := registry.Register(capability.NewStaticProvider(p.Name, caps)); err != nil {
				zapLog.Fatal("manifest provider registration failed", zap.String("provider", p.Name), zap.Error(err))
			}
		}
		zapLog.Info("Capability manifest loaded",
			zap.String("path", cfg.Pipeline.CapabilityManifest),
			zap.Int("providers", len(m.Providers)),
		)
	}

	// --- HTTP server ---
	srv := server.New(server.Options{
		Addr:            cfg.Server.Address,
		SignatureHeader: cfg.Sources.Webhook.SignatureHeader,
		Pipelines:       pipelines,
		Publisher:       publisher,
		Recorder:        recorder,
		Registry:        registry,
		Logger:          log,
	})

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// --- Metrics endpoint ---
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Metrics server listening", zap.String("addr", cfg.Server.MetricsAddress))
		if err := http.ListenAndServe(cfg.Server.MetricsAddress, nil); err != nil {
			zapLog.Error("metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Millisecond)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("server shutdown failed", zap.Error(err))
	}

	zapLog.Info("janusd stopped")
}

// registerSourceCapabilities declares the capability set an enabled source
// offers. Every source can normalize text; the rest depends on what the
// transport actually supports.
func registerSourceCapabilities(registry *capability.Registry, sourceType string, zapLog *zap.Logger) {
	caps := []models.InputCapability{
		{
			Name:        "text_processing",
			Description: "Normalize text input into " + events.TypeMessageText + " events",
			Version:     "1.0.0",
			Required:    true,
		},
		{
			Name:        "command_detection",
			Description: "Detect slash and bang command prefixes",
			Version:     "1.0.0",
		},
		{
			Name:        "language_detection",
			Description: "Heuristic language detection for text payloads",
			Version:     "1.0.0",
		},
	}
	switch sourceType {
	case "api":
		caps = append(caps, models.InputCapability{
			Name:        "threading",
			Description: "Thread continuation via thread_id request context",
			Version:     "1.0.0",
		})
	case "webhook":
		caps = append(caps,
			models.InputCapability{
				Name:        "webhook_signatures",
				Description: "HMAC-SHA256 payload signature verification",
				Version:     "1.0.0",
				Required:    true,
			},
			models.InputCapability{
				Name:        "json_parsing",
				Description: "Schema-checked JSON envelope parsing",
				Version:     "1.0.0",
			},
		)
	case "slack":
		caps = append(caps,
			models.InputCapability{
				Name:        "webhook_signatures",
				Description: "Slack signing secret verification",
				Version:     "1.0.0",
				Required:    true,
			},
			models.InputCapability{
				Name:        "threading",
				Description: "Thread continuation via thread_ts",
				Version:     "1.0.0",
			},
			models.InputCapability{
				Name:        "channels",
				Description: "Channel metadata on normalized events",
				Version:     "1.0.0",
			},
			models.InputCapability{
				Name:        "mentions",
				Description: "User mention payloads in event text",
				Version:     "1.0.0",
			},
			models.InputCapability{
				Name:        "file_attachments",
				Description: "File share events normalized as attachments",
				Version:     "1.0.0",
			},
		)
	}
	provider := capability.NewStaticProvider("source:"+sourceType, caps)
	if err := registry.Register(provider); err != nil {
		zapLog.Warn("capability registration failed", zap.String("source", sourceType), zap.Error(err))
	}
}
