package app

import (
	"context"
	"log/slog"

	"maindata/internal/model"
)

// Embedder turns text into a fixed-dimension vector. It may fail or return
// nothing; the retriever absorbs both.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// DatasetSearcher ranks catalog rows by similarity to a query vector.
type DatasetSearcher interface {
	NearestByEmbedding(vec []float32, limit int) ([]model.DatasetCatalog, error)
}

// ReferenceQuerySearcher ranks reference queries by similarity to a query vector.
type ReferenceQuerySearcher interface {
	NearestByEmbedding(vec []float32, limit int) ([]model.ReferenceQuery, error)
}

// RetrievalService is the vector retriever over the two corpora. An embedding
// failure is not an error here: it means no context is available, and the
// caller gets an empty result.
type RetrievalService struct {
	embedder    Embedder
	datasets    DatasetSearcher
	queries     ReferenceQuerySearcher
	datasetTopK int
	queryTopK   int
	logger      *slog.Logger
}

func NewRetrievalService(
	embedder Embedder,
	datasets DatasetSearcher,
	queries ReferenceQuerySearcher,
	datasetTopK, queryTopK int,
	logger *slog.Logger,
) *RetrievalService {
	if datasetTopK <= 0 {
		datasetTopK = 3
	}
	if queryTopK <= 0 {
		queryTopK = 2
	}
	return &RetrievalService{
		embedder:    embedder,
		datasets:    datasets,
		queries:     queries,
		datasetTopK: datasetTopK,
		queryTopK:   queryTopK,
		logger:      logger,
	}
}

// RelevantDatasets returns the catalog rows most similar to the question,
// nearest first.
func (s *RetrievalService) RelevantDatasets(ctx context.Context, question string) ([]model.DatasetCatalog, error) {
	vec := s.embedQuestion(ctx, question)
	if len(vec) == 0 {
		return []model.DatasetCatalog{}, nil
	}
	return s.datasets.NearestByEmbedding(vec, s.datasetTopK)
}

// RelevantQueries returns the reference queries most similar to the question,
// nearest first.
func (s *RetrievalService) RelevantQueries(ctx context.Context, question string) ([]model.ReferenceQuery, error) {
	vec := s.embedQuestion(ctx, question)
	if len(vec) == 0 {
		return []model.ReferenceQuery{}, nil
	}
	return s.queries.NearestByEmbedding(vec, s.queryTopK)
}

func (s *RetrievalService) embedQuestion(ctx context.Context, question string) []float32 {
	vec, err := s.embedder.Embed(ctx, question)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("question embedding failed, retrieval degraded to empty", "error", err)
		}
		return nil
	}
	return vec
}
