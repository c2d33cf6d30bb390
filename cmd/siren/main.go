package main

import (
	"context"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/jhinnbay/DaemonAgent-Farcaster/internal/audit"
	"github.com/jhinnbay/DaemonAgent-Farcaster/internal/dedupe"
	"github.com/jhinnbay/DaemonAgent-Farcaster/internal/farcaster"
	"github.com/jhinnbay/DaemonAgent-Farcaster/internal/generator"
	"github.com/jhinnbay/DaemonAgent-Farcaster/internal/handlers"
	"github.com/jhinnbay/DaemonAgent-Farcaster/internal/persona"
	"github.com/jhinnbay/DaemonAgent-Farcaster/internal/pipeline"
	"github.com/jhinnbay/DaemonAgent-Farcaster/pkg/config"
	"github.com/jhinnbay/DaemonAgent-Farcaster/pkg/logging"
	"github.com/jhinnbay/DaemonAgent-Farcaster/pkg/monitoring"
	"github.com/jhinnbay/DaemonAgent-Farcaster/pkg/redis"
	"github.com/jhinnbay/DaemonAgent-Farcaster/pkg/server"
	"github.com/jhinnbay/DaemonAgent-Farcaster/pkg/version"
)

func main() {
	logger := logging.NewLoggerWithService("siren")
	config.LoadEnv(logger)

	port := config.GetEnv("PORT", "18090")
	webhookSecret := config.GetEnv("WEBHOOK_SECRET", "")
	if webhookSecret == "" {
		logger.Warn("WEBHOOK_SECRET not set, accepting unverified deliveries")
	}

	identity := persona.Identity{
		FID:    config.GetEnvInt64("BOT_FID", 0),
		Handle: config.GetEnv("BOT_USERNAME", ""),
	}
	if aliases := config.GetEnv("BOT_ALIASES", ""); aliases != "" {
		for _, a := range strings.Split(aliases, ",") {
			if a = strings.TrimSpace(a); a != "" {
				identity.Aliases = append(identity.Aliases, a)
			}
		}
	}
	if identity.FID == 0 && identity.Handle == "" {
		logger.Fatal("BOT_FID or BOT_USERNAME must be set")
	}

	character := persona.DefaultCharacter()
	if path := config.GetEnv("PERSONA_FILE", ""); path != "" {
		loaded, err := persona.LoadCharacter(path)
		if err != nil {
			logger.Fatal("Failed to load persona file: " + err.Error())
		}
		character = loaded
	}

	window := config.GetEnvDuration("DEDUP_WINDOW", dedupe.DefaultRetentionWindow)
	var store dedupe.Store
	var redisClient *goredis.Client
	if redisURL := config.GetEnv("REDIS_URL", ""); redisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		client, err := redis.NewClientFromURL(ctx, redisURL)
		cancel()
		if err != nil {
			logger.Fatal("Failed to connect to Redis: " + err.Error())
		}
		store = dedupe.NewRedisStore(client, window, logger)
		redisClient = client
		logger.Info("Using Redis-backed dedup store")
	} else {
		store = dedupe.NewMemoryStore(window)
		logger.Info("Using in-memory dedup store")
	}
	defer store.Close()

	social := farcaster.NewClient(farcaster.Config{
		APIKey:     config.RequireEnv("NEYNAR_API_KEY"),
		SignerUUID: config.RequireEnv("NEYNAR_SIGNER_UUID"),
		BaseURL:    config.GetEnv("NEYNAR_API_URL", ""),
		Timeout:    config.GetEnvDuration("API_TIMEOUT", 10*time.Second),
	})

	genConfig := generator.LoadConfig()
	provider, err := generator.NewProvider(genConfig)
	if err != nil {
		logger.Fatal("Failed to configure generator: " + err.Error())
	}

	policy := pipeline.Policy{
		MaxChars:        config.GetEnvInt("CAST_MAX_CHARS", pipeline.DefaultCastMaxChars),
		FeedLimit:       config.GetEnvInt("FEED_LIMIT", 20),
		GenerateTimeout: config.GetEnvDuration("GENERATE_TIMEOUT", 30*time.Second),
	}

	guard := pipeline.NewGuard(
		social,
		config.GetEnvInt("MAX_THREAD_DEPTH", pipeline.DefaultMaxThreadDepth),
		config.GetEnvDuration("CONVERSATION_TIMEOUT", 5*time.Second),
		logger,
	)
	responder := pipeline.NewResponder(social, social, provider, character, policy, logger)

	var sink audit.Sink = audit.NopSink{}
	var producer *audit.Producer
	if brokers := config.GetEnv("KAFKA_BROKERS", ""); brokers != "" {
		producer, err = audit.NewProducer(
			strings.Split(brokers, ","),
			config.GetEnv("KAFKA_AUDIT_TOPIC", audit.DefaultTopic),
			"siren",
			logger,
		)
		if err != nil {
			logger.Fatal("Failed to connect Kafka producer: " + err.Error())
		}
		defer producer.Close()
		sink = producer
		logger.Info("Audit trail enabled")
	}

	healthChecker := monitoring.NewHealthChecker("siren", version.Version)
	metricsCollector := monitoring.NewMetricsCollector("siren", version.Version, version.GitCommit)

	healthChecker.AddCheck("config", monitoring.ConfigurationHealthCheck(map[string]string{
		"WEBHOOK_SECRET": webhookSecret,
		"NEYNAR_API_KEY": config.GetEnv("NEYNAR_API_KEY", ""),
		"LLM_API_KEY":    genConfig.APIKey,
	}))
	if redisClient != nil {
		healthChecker.AddCheck("redis", monitoring.RedisHealthCheck(redisClient))
	}
	if producer != nil {
		healthChecker.AddCheck("kafka", monitoring.KafkaProducerHealthCheck(producer.Client()))
	}

	app := server.SetupServiceRouter(logger, "siren", healthChecker, metricsCollector)

	pipelineMetrics := handlers.NewPipelineMetrics(metricsCollector)
	webhookHandler := handlers.NewWebhookHandler(webhookSecret, store, identity, guard, responder, sink, pipelineMetrics, logger)
	daemonHandler := handlers.NewDaemonHandler(responder, pipelineMetrics, logger)
	statusHandler := handlers.NewStatusHandler(identity, character, guard.MaxDepth())

	app.POST("/api/webhook", webhookHandler.Handle)
	app.GET("/api/status", statusHandler.Status)
	app.POST("/api/daemon/cast", daemonHandler.Cast)
	app.POST("/api/daemon/analyze", daemonHandler.Analyze)

	serverConfig := server.DefaultConfig("siren", port)
	if err := server.Start(serverConfig, app, logger); err != nil {
		logger.Fatal(err.Error())
	}
}
