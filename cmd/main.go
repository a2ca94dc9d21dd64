package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/weiawesome/labor-market/internal/cache"
	"github.com/weiawesome/labor-market/internal/config"
	"github.com/weiawesome/labor-market/internal/domain"
	"github.com/weiawesome/labor-market/internal/handler"
	"github.com/weiawesome/labor-market/internal/query"
	"github.com/weiawesome/labor-market/internal/repository"
	"github.com/weiawesome/labor-market/internal/scheduler"
	"github.com/weiawesome/labor-market/internal/service"
	"github.com/weiawesome/labor-market/internal/views"
	"github.com/weiawesome/labor-market/pkg/database"
	"github.com/weiawesome/labor-market/pkg/jwt"
	pkglog "github.com/weiawesome/labor-market/pkg/log"
	"github.com/weiawesome/labor-market/pkg/middleware"
	"github.com/weiawesome/labor-market/pkg/pubsub"
)

const serviceName = "job-service"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	// Initialize structured logger
	pkglog.Init(pkglog.Config{
		Level:       cfg.Log.Level,
		Pretty:      cfg.Log.Level == "debug",
		ServiceName: serviceName,
	})
	logger := pkglog.L()

	ctx, cancel := context.WithCancel(pkglog.WithLogger(context.Background(), logger))
	defer cancel()

	// Initialize database
	db, err := database.New(&database.Config{
		Driver:          cfg.Database.Driver,
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		TimeZone:        cfg.Database.TimeZone,
		FilePath:        cfg.Database.FilePath,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogLevel:        cfg.Database.LogLevel,
		SlowThreshold:   cfg.Database.SlowThreshold,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.Close(db)

	// The users table belongs to the account service; only jobs is migrated here.
	if err := database.AutoMigrate(db, &domain.JobModel{}); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}
	logger.Info().Str("driver", cfg.Database.Driver).Msg("database connected")

	// Initialize repositories
	jobRepo := repository.NewGormJobRepository(db)
	var employerRepo repository.EmployerRepository = repository.NewGormEmployerRepository(db)

	// Initialize search backend
	var store repository.JobStore = jobRepo
	var index repository.JobIndex
	if cfg.Search.Backend == "elasticsearch" {
		index = newESIndex(cfg, logger)
		store = index
	}
	logger.Info().Str(pkglog.FieldBackend, cfg.Search.Backend).Msg("search backend selected")

	// Initialize Redis when anything needs it
	var redisClient *redis.Client
	if cfg.Cache.Enabled || cfg.Views.Driver == "redis" {
		redisClient, err = cache.NewRedisClient(cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	}

	var searchCache cache.SearchCache
	if cfg.Cache.Enabled {
		searchCache = cache.NewRedisSearchCache(redisClient, cfg.Cache.Prefix)
		employerRepo = service.NewCachedEmployerRepository(
			employerRepo,
			cache.NewRedisEmployerCache(redisClient, cfg.Cache.Prefix),
			cfg.Cache.EmployerTTL,
		)
	}

	// Initialize view recording
	recorder, closeViews := newRecorder(ctx, cfg, jobRepo, redisClient, logger)
	defer closeViews()

	// Initialize services
	limits := query.Limits{DefaultLimit: cfg.Search.DefaultLimit, MaxLimit: cfg.Search.MaxLimit}
	searchService := service.NewSearchService(store, employerRepo, searchCache, recorder, service.SearchOptions{
		Limits:       limits,
		QueryTimeout: cfg.Search.QueryTimeout,
		CacheTTL:     cfg.Cache.TTL,
	})
	jobService := service.NewJobService(jobRepo, employerRepo, recorder, service.JobServiceOptions{
		Limits: limits,
		MaxAge: cfg.Expiry.MaxAge,
		Index:  index,
	})

	if index != nil && cfg.Elasticsearch.ReindexOnStart {
		n, err := jobService.ReindexAll(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("reindex failed")
		} else {
			logger.Info().Int("count", n).Msg("jobs reindexed")
		}
	}

	// Start expiry scheduler
	if cfg.Expiry.Enabled {
		sched := scheduler.New(jobService, cfg.Expiry.Schedule, time.Minute)
		if err := sched.Start(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to start expiry scheduler")
		}
		defer sched.Stop()
	}

	// Initialize auth
	tokens, err := jwt.NewManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, time.Hour)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create jwt manager")
	}
	authMiddleware := middleware.NewAuthMiddleware(tokens)

	// Initialize HTTP handler
	httpHandler := handler.NewHandler(searchService, jobService, authMiddleware)

	// Setup Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(pkglog.GinMiddleware(logger))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Register routes
	httpHandler.RegisterRoutes(r)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("job-service starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down job-service")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}
	cancel()

	logger.Info().Msg("job-service stopped")
}

func newESIndex(cfg *config.Config, logger zerolog.Logger) repository.JobIndex {
	esClient, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Elasticsearch.Addresses,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create elasticsearch client")
	}

	// Verify ES connection
	res, err := esClient.Info()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to elasticsearch")
	}
	res.Body.Close()
	logger.Info().Strs("addresses", cfg.Elasticsearch.Addresses).Msg("elasticsearch connected")

	index := repository.NewESJobRepository(esClient, cfg.Elasticsearch.IndexJobs)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := index.EnsureIndex(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to create jobs index")
	}
	return index
}

// newRecorder builds the view recorder for the configured driver. The
// returned func flushes the recorder and releases its transport.
func newRecorder(
	ctx context.Context,
	cfg *config.Config,
	counter repository.ViewCounter,
	redisClient *redis.Client,
	logger zerolog.Logger,
) (views.Recorder, func()) {
	var ps pubsub.PubSub
	switch cfg.Views.Driver {
	case "none":
		return views.NopRecorder{}, func() {}
	case "kafka":
		var err error
		ps, err = pubsub.NewPubSub(pubsub.Config{
			Driver: "kafka",
			Kafka: pubsub.KafkaConfig{
				Brokers:    cfg.Kafka.Brokers,
				GroupID:    cfg.Kafka.GroupID,
				Partitions: cfg.Kafka.Partitions,
			},
		}, cfg.Views.Topic)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create kafka pubsub")
		}
	case "redis":
		ps = pubsub.NewRedisPubSubWithClient(redisClient)
	default:
		r := views.NewDirectRecorder(counter, cfg.Views.Timeout)
		return r, func() { _ = r.Close() }
	}

	consumer := views.NewConsumer(ps, counter, cfg.Views.Topic, cfg.Views.Timeout)
	go func() {
		if err := consumer.Run(ctx); err != nil {
			logger.Error().Err(err).Msg("job view consumer stopped")
		}
	}()

	r := views.NewPublishRecorder(ps, cfg.Views.Topic, cfg.Views.Timeout)
	logger.Info().Str("driver", cfg.Views.Driver).Str("topic", cfg.Views.Topic).Msg("view events enabled")
	return r, func() {
		_ = r.Close()
		// The redis client is owned by main and closed there.
		if cfg.Views.Driver == "kafka" {
			_ = ps.Close()
		}
	}
}
