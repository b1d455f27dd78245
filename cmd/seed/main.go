package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"

	"maindata/internal/config"
	"maindata/internal/model"
	rabbitmqClient "maindata/internal/platform/rabbitmq"
)

// seed publishes dataset-catalog and reference-query records onto the ingest
// queue. The server's ingest worker embeds and persists them; this tool never
// touches the database directly.
func main() {
	datasetsPath := flag.String("datasets", "seed/datasets.json", "path to the dataset seed file")
	queriesPath := flag.String("queries", "seed/reference_queries.json", "path to the reference query seed file")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("load config failed", "error", err)
		os.Exit(1)
	}

	conn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
	if err != nil {
		logger.Error("connect rabbitmq failed", "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	publisher := rabbitmqClient.NewIngestPublisher(conn, cfg.RabbitMQ.CatalogIngestQueue)

	published := 0
	published += publishFile(ctx, logger, publisher, *datasetsPath, model.IngestKindDataset)
	published += publishFile(ctx, logger, publisher, *queriesPath, model.IngestKindReferenceQuery)

	logger.Info("seed finished", "published", published)
}

func publishFile(ctx context.Context, logger *slog.Logger, publisher *rabbitmqClient.IngestPublisher, path, kind string) int {
	raw, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("skip seed file", "path", path, "error", err)
		return 0
	}

	var jobs []model.CatalogIngestJob
	if err := json.Unmarshal(raw, &jobs); err != nil {
		logger.Error("parse seed file failed", "path", path, "error", err)
		return 0
	}

	published := 0
	for _, job := range jobs {
		job.Kind = kind
		if err := publisher.Publish(ctx, job); err != nil {
			logger.Error("publish seed job failed", "title", job.Title, "error", err)
			continue
		}
		published++
	}
	logger.Info("seed file published", "path", path, "count", published)
	return published
}
