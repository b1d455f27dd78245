package app

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"maindata/internal/model"
)

// SQLService orchestrates the question-to-SQL use case: load history,
// retrieve context, assemble the prompt, generate, and record both turns.
type SQLService struct {
	memory    *MemoryService
	retrieval *RetrievalService
	prompts   *PromptAssembler
	engine    *GenerationEngine
}

func NewSQLService(
	memory *MemoryService,
	retrieval *RetrievalService,
	prompts *PromptAssembler,
	engine *GenerationEngine,
) *SQLService {
	return &SQLService{
		memory:    memory,
		retrieval: retrieval,
		prompts:   prompts,
		engine:    engine,
	}
}

type GenerateSQLResult struct {
	SQL                  string                 `json:"sql"`
	Explanation          string                 `json:"explanation"`
	DatasetsUsed         []model.DatasetCatalog `json:"datasets_used"`
	ReferenceQueriesUsed []model.ReferenceQuery `json:"reference_queries_used"`
	Messages             []model.ChatMessage    `json:"messages"`
}

// GenerateSQL answers the question in one shot. It fails with
// ErrNoRelevantDatasets before anything is written or the model is contacted
// when retrieval finds no datasets.
func (s *SQLService) GenerateSQL(ctx context.Context, sessionID uuid.UUID, question string) (*GenerateSQLResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrInvalidInput
	}

	history, err := s.memory.History(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	datasets, err := s.retrieval.RelevantDatasets(ctx, question)
	if err != nil {
		return nil, err
	}
	refs, err := s.retrieval.RelevantQueries(ctx, question)
	if err != nil {
		return nil, err
	}
	if len(datasets) == 0 {
		return nil, ErrNoRelevantDatasets
	}

	if _, err := s.memory.AppendMessage(ctx, sessionID, model.RoleUser, question); err != nil {
		return nil, err
	}

	prompt := s.prompts.Build(question, history, datasets, refs)
	result := s.engine.Generate(ctx, prompt)

	if _, err := s.memory.AppendMessage(ctx, sessionID, model.RoleAssistant, result.SQL); err != nil {
		return nil, err
	}

	messages, err := s.memory.History(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return &GenerateSQLResult{
		SQL:                  result.SQL,
		Explanation:          result.Explanation,
		DatasetsUsed:         datasets,
		ReferenceQueriesUsed: refs,
		Messages:             messages,
	}, nil
}

// GenerateSQLStream runs the same pipeline but forwards fragments through
// onChunk. The pre-checks fail with typed errors before any fragment is
// produced; the full concatenated response is stored as the assistant turn
// once the stream ends.
func (s *SQLService) GenerateSQLStream(ctx context.Context, sessionID uuid.UUID, question string, onChunk func(chunk string) error) error {
	question = strings.TrimSpace(question)
	if question == "" {
		return ErrInvalidInput
	}

	history, err := s.memory.History(ctx, sessionID)
	if err != nil {
		return err
	}

	datasets, err := s.retrieval.RelevantDatasets(ctx, question)
	if err != nil {
		return err
	}
	refs, err := s.retrieval.RelevantQueries(ctx, question)
	if err != nil {
		return err
	}
	if len(datasets) == 0 {
		return ErrNoRelevantDatasets
	}

	if _, err := s.memory.AppendMessage(ctx, sessionID, model.RoleUser, question); err != nil {
		return err
	}

	prompt := s.prompts.Build(question, history, datasets, refs)
	full, err := s.engine.GenerateStream(ctx, prompt, onChunk)
	if err != nil {
		return err
	}

	if _, err := s.memory.AppendMessage(ctx, sessionID, model.RoleAssistant, full); err != nil {
		return err
	}
	return nil
}
