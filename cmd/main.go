package main

import (
	"context"
	"expvar"
	"log"
	"runtime"

	"github.com/bevanjebanesan/Lemon/internal/domain"
	"github.com/bevanjebanesan/Lemon/internal/infrastructure/configs"
	"github.com/bevanjebanesan/Lemon/internal/infrastructure/events"
	"github.com/bevanjebanesan/Lemon/internal/infrastructure/logging"
	"github.com/bevanjebanesan/Lemon/internal/infrastructure/messaging"
	"github.com/bevanjebanesan/Lemon/internal/infrastructure/metrics"
	"github.com/bevanjebanesan/Lemon/internal/infrastructure/profanity"
	"github.com/bevanjebanesan/Lemon/internal/infrastructure/ratelimiter"
	"github.com/bevanjebanesan/Lemon/internal/infrastructure/tracing"
	"github.com/bevanjebanesan/Lemon/internal/infrastructure/ws"
	"github.com/bevanjebanesan/Lemon/internal/persistence/db"
	"github.com/bevanjebanesan/Lemon/internal/persistence/repository"
	"github.com/bevanjebanesan/Lemon/internal/presentation/api"
	"github.com/bevanjebanesan/Lemon/internal/presentation/handler/health"
	"github.com/bevanjebanesan/Lemon/internal/presentation/handler/rooms"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	serviceName = "lemon-signaling"
)

func main() {
	tracerCfg := tracing.NewDefaultConfig(serviceName)

	sh, err := tracing.InitTracer(tracerCfg)
	if err != nil {
		log.Fatalf("Failed to initialize the tracer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer sh(ctx)

	configPath := configs.DetermineConfigPath()
	cfg, err := configs.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.NewLogger(&logging.LoggerConfig{
		Logger:   cfg.Logger.Logger,
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
		FilePath: cfg.Logger.FilePath,
	})

	var filter *profanity.Filter
	if cfg.Chat.ProfanityFilter {
		filter, err = profanity.NewFilter()
		if err != nil {
			log.Fatalf("Failed to load the profanity filter: %v", err)
		}
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	opts := ws.Options{
		Filter:  filter,
		Metrics: m,
	}

	var publisher *events.PresencePublisher
	var auditRepository domain.PresenceAuditRepository
	if cfg.Messaging.Enabled {
		rabbitmq, err := messaging.NewRabbitMQ(cfg.Messaging.URI)
		if err != nil {
			log.Fatal(err)
		}
		defer rabbitmq.Close()

		logger.Info(logging.RabbitMQ, logging.Startup, "rabbitmq connected", nil)

		publisher = events.NewPresencePublisher(rabbitmq, logger)
		go publisher.Run()
		defer publisher.Close()
		opts.Publisher = publisher

		if cfg.Audit.Enabled {
			mongoCfg := &db.MongoConfig{
				URI:      cfg.Audit.MongoURI,
				Database: cfg.Audit.Database,
			}

			mongoClient, err := db.NewMongoClient(ctx, mongoCfg)
			if err != nil {
				log.Fatal(err)
			}
			defer func() {
				if err := db.DisconnectMongo(context.Background(), mongoClient); err != nil {
					logger.Error(logging.MongoDB, logging.Shutdown, "mongodb disconnect failed", map[logging.ExtraKey]any{
						logging.ErrorMessage: err.Error(),
					})
				}
			}()

			auditRepository = repository.NewPresenceAuditLogRepository(db.GetDatabase(mongoClient, mongoCfg))
			if err := auditRepository.EnsureIndexes(ctx); err != nil {
				logger.Warn(logging.MongoDB, logging.Startup, "failed to ensure audit indexes", map[logging.ExtraKey]any{
					logging.ErrorMessage: err.Error(),
				})
			}

			consumer := events.NewPresenceConsumer(rabbitmq, auditRepository, logger)
			go func() {
				if err := consumer.Listen(); err != nil {
					logger.Error(logging.RabbitMQ, logging.Startup, "presence consumer stopped", map[logging.ExtraKey]any{
						logging.ErrorMessage: err.Error(),
					})
				}
			}()
		}
	}

	core := ws.NewCore(logger, opts)
	go core.Run()
	defer core.Stop()

	roomHandler := rooms.NewHandler(core, cfg.HTTP.AllowedOrigins, auditRepository, logger)
	healthHandler := health.NewHandler(core)

	rl := ratelimiter.New(ratelimiter.Options{
		MaxRatePerSecond: cfg.RateLimiter.MaxRatePerSecond,
		MaxBurst:         cfg.RateLimiter.MaxBurst,
		CacheTTL:         cfg.RateLimiter.CacheTTL,
		SourceHeaderKey:  cfg.RateLimiter.SourceHeaderKey,
	})
	app := api.NewApplication(*cfg, roomHandler, healthHandler, logger, rl)

	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.Mount()
	if err := app.Run(mux); err != nil {
		logger.Fatal(logging.General, logging.Shutdown, "server exited with error", map[logging.ExtraKey]any{
			logging.ErrorMessage: err.Error(),
		})
	}
}
