package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"maindata/internal/ai"
	"maindata/internal/config"
	"maindata/internal/model"
	postgresClient "maindata/internal/platform/postgres"
	redisClient "maindata/internal/platform/redis"
	"maindata/internal/repository"
	"maindata/internal/worker"

	rabbitmqClient "maindata/internal/platform/rabbitmq"
)

type App struct {
	Config       *config.Config
	Logger       *slog.Logger
	Postgres     *gorm.DB
	Redis        *redis.Client
	MQConn       *amqp.Connection
	AI           *ai.Client
	IngestWorker *worker.CatalogIngestWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	db, err := postgresClient.New(ctx, cfg.PostgresDSN())
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(
		&model.DatasetCatalog{},
		&model.ReferenceQuery{},
		&model.ChatSession{},
		&model.ChatMessage{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}

	mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
	if err != nil {
		return nil, err
	}

	aiClient := ai.NewClient(ai.Config{
		BaseURL:        cfg.LLM.BaseURL,
		APIKey:         cfg.LLM.APIKey,
		Model:          cfg.LLM.Model,
		EmbeddingModel: cfg.LLM.EmbeddingModel,
	})

	ingestWorker := worker.NewCatalogIngestWorker(
		mqConn,
		repository.NewDatasetRepository(db),
		repository.NewReferenceQueryRepository(db),
		aiClient,
		cfg.RabbitMQ.CatalogIngestQueue,
		cfg.RAG.EmbeddingDim,
		logger.With("component", "catalog-ingest"),
	)
	if err := ingestWorker.Start(ctx); err != nil {
		return nil, fmt.Errorf("start catalog ingest worker failed: %w", err)
	}

	return &App{
		Config:       cfg,
		Logger:       logger,
		Postgres:     db,
		Redis:        redisCli,
		MQConn:       mqConn,
		AI:           aiClient,
		IngestWorker: ingestWorker,
		StartedAt:    time.Now(),
	}, nil
}

func (a *App) Close() error {
	var closeErr error
	if a.IngestWorker != nil {
		a.IngestWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Postgres != nil {
		sqlDB, err := a.Postgres.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
