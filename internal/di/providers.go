package di

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	domrepo "ShopIntent/internal/domain/repository"
	"ShopIntent/internal/handler/api"
	"ShopIntent/internal/jobs"
	internalrepo "ShopIntent/internal/repository"
	"ShopIntent/internal/usecase"
	"ShopIntent/pkg/cache"
	pkgch "ShopIntent/pkg/clickhouse"
	"ShopIntent/pkg/config"
	xhttp "ShopIntent/pkg/http"
	pkgkafka "ShopIntent/pkg/kafka"
	applogger "ShopIntent/pkg/logger"
	"ShopIntent/pkg/metrics"
	"ShopIntent/pkg/queue"
	"ShopIntent/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideClickHouseClient creates the warehouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideRedisClient creates the Redis client, nil when disabled.
func ProvideRedisClient(cfg *config.Config) *redis.Client {
	if !cfg.Redis.Enabled {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// ProvideMetrics creates the Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.NewRecorder()
}

// ProvideDatasetStore creates the ClickHouse dataset store and ensures
// its tables exist.
func ProvideDatasetStore(ch *pkgch.Client, l *applogger.Logger) (domrepo.DatasetStore, error) {
	store := internalrepo.NewCHDatasetStore(ch)
	store.SetLogger(l)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.InitSchema(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// ProvideModelRegistry creates the ClickHouse model registry and ensures
// its tables exist.
func ProvideModelRegistry(ch *pkgch.Client, l *applogger.Logger) (domrepo.ModelRegistry, error) {
	registry := internalrepo.NewCHModelRegistry(ch)
	registry.SetLogger(l)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := registry.InitSchema(ctx); err != nil {
		return nil, err
	}
	return registry, nil
}

// ProvideAuditPublisher creates the Kafka audit publisher, or a no-op one
// when Kafka is disabled.
func ProvideAuditPublisher(cfg *config.Config, l *applogger.Logger) (domrepo.AuditPublisher, error) {
	if !cfg.Kafka.Enabled {
		return internalrepo.NopAuditPublisher{}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers...),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithWriteTimeout(cfg.Kafka.WriteTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return internalrepo.NewKafkaAuditPublisher(producer, cfg.Kafka.AuditTopic, l), nil
}

// ProvideHTTPClient creates the outbound HTTP client for dataset downloads.
func ProvideHTTPClient(cfg *config.Config) *xhttp.Client {
	return xhttp.NewClient(xhttp.WithTimeout(cfg.Dataset.FetchTimeout))
}

// ProvideScoreCache builds the score-lookup cache: layered over Redis when
// available, in-memory only otherwise.
func ProvideScoreCache(redisClient *redis.Client) cache.Service {
	local := cache.NewMemory(time.Minute)
	if redisClient == nil {
		return local
	}
	return cache.NewLayered(local, cache.NewRedis(redisClient, "shopintent:cache"))
}

// ProvideJobQueue builds the async job queue: Redis-backed when available,
// in-process otherwise.
func ProvideJobQueue(redisClient *redis.Client) queue.Queue {
	if redisClient == nil {
		return queue.NewMemoryQueue(256)
	}
	return queue.NewRedisQueue(redisClient, "pipelines")
}

// ProvideDatasetPipeline creates the ETL pipeline.
func ProvideDatasetPipeline(
	store domrepo.DatasetStore,
	client *xhttp.Client,
	m domrepo.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.DatasetPipeline {
	return usecase.NewDatasetPipeline(store, client, m, l, usecase.DatasetConfig{
		SourceURL:    cfg.Dataset.SourceURL,
		FetchRetries: cfg.Dataset.FetchRetries,
		Seed:         cfg.Dataset.Seed,
	})
}

// ProvideTrainingPipeline creates the training pipeline.
func ProvideTrainingPipeline(
	store domrepo.DatasetStore,
	registry domrepo.ModelRegistry,
	audit domrepo.AuditPublisher,
	m domrepo.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.TrainingPipeline {
	return usecase.NewTrainingPipeline(store, registry, audit, m, l, usecase.TrainingConfig{
		ModelName:     cfg.Model.Name,
		Schema:        cfg.Model.Features,
		Forest:        cfg.Model.Forest,
		CVSplits:      cfg.Training.CVSplits,
		TestFraction:  cfg.Training.TestFraction,
		Seed:          cfg.Training.Seed,
		PeriodMonths:  cfg.Training.PeriodMonths,
		SearchEnabled: cfg.Training.Search.Enabled,
		SearchTrials:  cfg.Training.Search.Trials,
		SearchSeed:    cfg.Training.Search.Seed,
	})
}

// ProvidePredictionPipeline creates the scoring pipeline.
func ProvidePredictionPipeline(
	store domrepo.DatasetStore,
	registry domrepo.ModelRegistry,
	m domrepo.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.PredictionPipeline {
	return usecase.NewPredictionPipeline(store, registry, m, l, cfg.Model.Name)
}

// ProvideComparisonPipeline creates the champion/challenger pipeline.
func ProvideComparisonPipeline(
	store domrepo.DatasetStore,
	registry domrepo.ModelRegistry,
	audit domrepo.AuditPublisher,
	m domrepo.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.ComparisonPipeline {
	return usecase.NewComparisonPipeline(store, registry, audit, m, l, cfg.Model.Name)
}

// ProvideModelAdmin creates the registry admin use case.
func ProvideModelAdmin(
	registry domrepo.ModelRegistry,
	audit domrepo.AuditPublisher,
	m domrepo.Metrics,
	l *applogger.Logger,
) *usecase.ModelAdmin {
	return usecase.NewModelAdmin(registry, audit, m, l)
}

// ProvideHandler creates the HTTP API handler.
func ProvideHandler(
	l *applogger.Logger,
	admin *usecase.ModelAdmin,
	store domrepo.DatasetStore,
	scores cache.Service,
	q queue.Queue,
	cfg *config.Config,
) xhttp.Handler {
	return api.NewHandler(l, admin, store, scores, q, cfg.Cache.ScoresTTL)
}

// ProvideRunner creates the job worker pool with every pipeline job
// registered.
func ProvideRunner(
	q queue.Queue,
	l *applogger.Logger,
	cfg *config.Config,
	dataset *usecase.DatasetPipeline,
	training *usecase.TrainingPipeline,
	prediction *usecase.PredictionPipeline,
	comparison *usecase.ComparisonPipeline,
) *jobs.Runner {
	return jobs.NewRunner(q, l, cfg.Queue.Workers, cfg.Queue.RetryLimit, cfg.Queue.RetryDelay,
		&jobs.IngestJob{Pipeline: dataset},
		&jobs.RebuildJob{Pipeline: dataset},
		&jobs.AppendJob{Pipeline: dataset},
		&jobs.TrainJob{Pipeline: training},
		&jobs.PredictJob{Pipeline: prediction},
		&jobs.CompareJob{Pipeline: comparison},
	)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	ch *pkgch.Client,
	redisClient *redis.Client,
	audit domrepo.AuditPublisher,
	handler xhttp.Handler,
	runner *jobs.Runner,
	dataset *usecase.DatasetPipeline,
	training *usecase.TrainingPipeline,
	prediction *usecase.PredictionPipeline,
	comparison *usecase.ComparisonPipeline,
) *server.App {
	return server.New(cfg, l, ch, redisClient, audit, handler, runner,
		dataset, training, prediction, comparison)
}
