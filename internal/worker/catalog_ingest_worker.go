package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pgvector/pgvector-go"
	amqp "github.com/rabbitmq/amqp091-go"

	"maindata/internal/model"
	"maindata/internal/repository"
)

// EmbeddingClient produces the vector stored alongside each catalog row.
type EmbeddingClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// CatalogIngestWorker consumes ingest jobs, embeds their text, and writes
// the dataset catalog and reference query corpora. It is the only writer of
// those tables; the request path never creates catalog rows.
type CatalogIngestWorker struct {
	conn         *amqp.Connection
	datasets     *repository.DatasetRepository
	queries      *repository.ReferenceQueryRepository
	embedder     EmbeddingClient
	queueName    string
	embeddingDim int
	logger       *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewCatalogIngestWorker(
	conn *amqp.Connection,
	datasets *repository.DatasetRepository,
	queries *repository.ReferenceQueryRepository,
	embedder EmbeddingClient,
	queueName string,
	embeddingDim int,
	logger *slog.Logger,
) *CatalogIngestWorker {
	return &CatalogIngestWorker{
		conn:         conn,
		datasets:     datasets,
		queries:      queries,
		embedder:     embedder,
		queueName:    queueName,
		embeddingDim: embeddingDim,
		logger:       logger,
	}
}

func (w *CatalogIngestWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	_, err = ch.QueueDeclare(
		w.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("declare worker queue failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}

				var job model.CatalogIngestJob
				if err := json.Unmarshal(d.Body, &job); err != nil {
					w.logger.Error("worker decode ingest job failed", "error", err)
					_ = d.Nack(false, false)
					continue
				}

				if err := w.ingest(workerCtx, job); err != nil {
					w.logger.Error("worker ingest failed", "kind", job.Kind, "title", job.Title, "error", err)
					_ = d.Nack(false, false)
					continue
				}

				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

func (w *CatalogIngestWorker) ingest(ctx context.Context, job model.CatalogIngestJob) error {
	switch job.Kind {
	case model.IngestKindDataset:
		return w.ingestDataset(ctx, job)
	case model.IngestKindReferenceQuery:
		return w.ingestReferenceQuery(ctx, job)
	default:
		return fmt.Errorf("unknown ingest kind %q", job.Kind)
	}
}

func (w *CatalogIngestWorker) ingestDataset(ctx context.Context, job model.CatalogIngestJob) error {
	if job.Slug == "" || job.Title == "" || job.URL == "" {
		return fmt.Errorf("dataset job missing slug, title or url")
	}

	vec, err := w.embed(ctx, job.Title+"\n"+job.Description)
	if err != nil {
		return err
	}

	row := &model.DatasetCatalog{
		Title:          job.Title,
		Description:    job.Description,
		URL:            job.URL,
		InfoURL:        job.InfoURL,
		Slug:           job.Slug,
		IsCORSAllowed:  job.IsCORSAllowed,
		DirectSource:   job.DirectSource,
		OriginalSource: job.OriginalSource,
		SourceAt:       job.SourceAt,
		Embedding:      pgvector.NewVector(vec),
	}
	return w.datasets.Upsert(row)
}

func (w *CatalogIngestWorker) ingestReferenceQuery(ctx context.Context, job model.CatalogIngestJob) error {
	if job.Title == "" || job.SQLQuery == "" {
		return fmt.Errorf("reference query job missing title or sql")
	}

	vec, err := w.embed(ctx, job.Title+"\n"+job.Description+"\n"+job.SQLQuery)
	if err != nil {
		return err
	}

	row := &model.ReferenceQuery{
		Title:       job.Title,
		Description: job.Description,
		SQLQuery:    job.SQLQuery,
		Embedding:   pgvector.NewVector(vec),
	}
	return w.queries.Create(row)
}

// embed enforces the dimension agreed between the embedding provider and the
// vector columns; a provider change that alters the dimension needs a schema
// migration, not a silent write.
func (w *CatalogIngestWorker) embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := w.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed ingest text failed: %w", err)
	}
	if len(vec) != w.embeddingDim {
		return nil, fmt.Errorf("embedding dimension %d does not match schema dimension %d", len(vec), w.embeddingDim)
	}
	return vec, nil
}

func (w *CatalogIngestWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
