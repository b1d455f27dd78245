package handler

import (
	"bytes"
	"context"
	"fmt"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"maindata/internal/app"
	"maindata/internal/model"
	"maindata/internal/repository"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memSessionStore struct {
	sessions map[uuid.UUID]*model.ChatSession
}

func (s *memSessionStore) Create(session *model.ChatSession) error {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	copied := *session
	s.sessions[session.ID] = &copied
	return nil
}

func (s *memSessionStore) GetByID(id uuid.UUID) (*model.ChatSession, error) {
	session, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	copied := *session
	return &copied, nil
}

func (s *memSessionStore) DeleteWithMessages(id uuid.UUID) error {
	delete(s.sessions, id)
	return nil
}

type memMessageStore struct {
	messages []model.ChatMessage
	clock    time.Time
}

func (s *memMessageStore) Create(message *model.ChatMessage) error {
	if message.ID == uuid.Nil {
		message.ID = uuid.New()
	}
	s.clock = s.clock.Add(time.Second)
	message.CreatedAt = s.clock
	s.messages = append(s.messages, *message)
	return nil
}

func (s *memMessageStore) ListBySessionID(sessionID uuid.UUID) ([]model.ChatMessage, error) {
	var out []model.ChatMessage
	for _, m := range s.messages {
		if m.SessionID == sessionID {
			out = append(out, m)
		}
	}
	return out, nil
}

type memCatalogStore struct {
	rows []model.DatasetCatalog
}

func (s *memCatalogStore) GetByID(id uuid.UUID) (*model.DatasetCatalog, error) {
	for i := range s.rows {
		if s.rows[i].ID == id {
			copied := s.rows[i]
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *memCatalogStore) GetBySlug(slug string) (*model.DatasetCatalog, error) {
	for i := range s.rows {
		if s.rows[i].Slug == slug {
			copied := s.rows[i]
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *memCatalogStore) ListPage(filter repository.PageFilter) ([]model.DatasetCatalog, error) {
	ordered := make([]model.DatasetCatalog, len(s.rows))
	copy(ordered, s.rows)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].SourceAt.Equal(ordered[j].SourceAt) {
			return ordered[i].SourceAt.After(ordered[j].SourceAt)
		}
		return bytes.Compare(ordered[i].ID[:], ordered[j].ID[:]) > 0
	})

	var out []model.DatasetCatalog
	for _, row := range ordered {
		if filter.Search != "" {
			term := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(row.Title), term) &&
				!strings.Contains(strings.ToLower(row.Description), term) {
				continue
			}
		}
		if filter.Before != nil {
			after := row.SourceAt.Before(filter.Before.SourceAt) ||
				(row.SourceAt.Equal(filter.Before.SourceAt) && bytes.Compare(row.ID[:], filter.Before.ID[:]) < 0)
			if !after {
				continue
			}
		}
		out = append(out, row)
		if len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

type stubEmbedder struct {
	vec []float32
}

func (e *stubEmbedder) Embed(context.Context, string) ([]float32, error) {
	return e.vec, nil
}

type stubDatasetSearcher struct {
	rows []model.DatasetCatalog
}

func (s *stubDatasetSearcher) NearestByEmbedding(_ []float32, limit int) ([]model.DatasetCatalog, error) {
	if limit > len(s.rows) {
		limit = len(s.rows)
	}
	return s.rows[:limit], nil
}

type stubReferenceSearcher struct {
	rows []model.ReferenceQuery
}

func (s *stubReferenceSearcher) NearestByEmbedding(_ []float32, limit int) ([]model.ReferenceQuery, error) {
	if limit > len(s.rows) {
		limit = len(s.rows)
	}
	return s.rows[:limit], nil
}

type stubGenerator struct {
	completeText string
	streamChunks []string
}

func (g *stubGenerator) Complete(context.Context, string) (string, error) {
	return g.completeText, nil
}

func (g *stubGenerator) StreamComplete(_ context.Context, _ string, onChunk func(chunk string) error) (string, error) {
	var full strings.Builder
	for _, chunk := range g.streamChunks {
		full.WriteString(chunk)
		if err := onChunk(chunk); err != nil {
			return "", err
		}
	}
	return full.String(), nil
}

// testEnv wires real services over in-memory stores, the same shape the
// router builds in production.
type testEnv struct {
	memory   *app.MemoryService
	catalog  *app.CatalogService
	sql      *app.SQLService
	datasets *stubDatasetSearcher
	gen      *stubGenerator
	store    *memCatalogStore
}

func newTestEnv() *testEnv {
	sessions := &memSessionStore{sessions: make(map[uuid.UUID]*model.ChatSession)}
	messages := &memMessageStore{clock: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	memory := app.NewMemoryService(sessions, messages, nil)

	datasets := &stubDatasetSearcher{rows: []model.DatasetCatalog{
		{Title: "Schools", Slug: "schools", URL: "https://data.example/schools.csv", Description: "school registry", IsCORSAllowed: true},
	}}
	refs := &stubReferenceSearcher{}
	retrieval := app.NewRetrievalService(&stubEmbedder{vec: []float32{0.5}}, datasets, refs, 3, 2, nil)

	gen := &stubGenerator{}
	sqlSvc := app.NewSQLService(
		memory,
		retrieval,
		app.NewPromptAssembler("http://localhost:8000"),
		app.NewGenerationEngine(gen, nil),
	)

	store := &memCatalogStore{}
	return &testEnv{
		memory:   memory,
		catalog:  app.NewCatalogService(store),
		sql:      sqlSvc,
		datasets: datasets,
		gen:      gen,
		store:    store,
	}
}

func (e *testEnv) startSession(t *testing.T) uuid.UUID {
	t.Helper()
	session, err := e.memory.CreateSession("")
	require.NoError(t, err)
	return session.ID
}

func seedDatasets(n int) []model.DatasetCatalog {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]model.DatasetCatalog, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, model.DatasetCatalog{
			ID:          uuid.MustParse(fmt.Sprintf("00000000-0000-0000-0000-0000000000%02d", i+1)),
			Title:       fmt.Sprintf("Dataset %02d", i+1),
			Description: "rows about things",
			URL:         fmt.Sprintf("https://data.example/%02d.csv", i+1),
			Slug:        fmt.Sprintf("dataset-%02d", i+1),
			SourceAt:    base.Add(time.Duration(i) * time.Hour),
		})
	}
	return rows
}

func performRequest(router *gin.Engine, method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}
