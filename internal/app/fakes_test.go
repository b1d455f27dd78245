package app

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"maindata/internal/model"
	"maindata/internal/repository"
)

type fakeSessionStore struct {
	sessions  map[uuid.UUID]*model.ChatSession
	createErr error
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[uuid.UUID]*model.ChatSession)}
}

func (s *fakeSessionStore) Create(session *model.ChatSession) error {
	if s.createErr != nil {
		return s.createErr
	}
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

func (s *fakeSessionStore) GetByID(id uuid.UUID) (*model.ChatSession, error) {
	session, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	copied := *session
	return &copied, nil
}

func (s *fakeSessionStore) DeleteWithMessages(id uuid.UUID) error {
	delete(s.sessions, id)
	return nil
}

type fakeMessageStore struct {
	messages []model.ChatMessage
	clock    time.Time
}

func newFakeMessageStore() *fakeMessageStore {
	return &fakeMessageStore{clock: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (s *fakeMessageStore) Create(message *model.ChatMessage) error {
	if message.ID == uuid.Nil {
		message.ID = uuid.New()
	}
	s.clock = s.clock.Add(time.Second)
	message.CreatedAt = s.clock
	s.messages = append(s.messages, *message)
	return nil
}

func (s *fakeMessageStore) ListBySessionID(sessionID uuid.UUID) ([]model.ChatMessage, error) {
	var out []model.ChatMessage
	for _, m := range s.messages {
		if m.SessionID == sessionID {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeHistoryCache struct {
	entries     map[uuid.UUID][]model.ChatMessage
	hits        int
	misses      int
	invalidated int
}

func newFakeHistoryCache() *fakeHistoryCache {
	return &fakeHistoryCache{entries: make(map[uuid.UUID][]model.ChatMessage)}
}

func (c *fakeHistoryCache) GetHistory(_ context.Context, sessionID uuid.UUID) ([]model.ChatMessage, bool, error) {
	cached, ok := c.entries[sessionID]
	if !ok {
		c.misses++
		return nil, false, nil
	}
	c.hits++
	return cached, true, nil
}

func (c *fakeHistoryCache) SetHistory(_ context.Context, sessionID uuid.UUID, messages []model.ChatMessage) error {
	c.entries[sessionID] = messages
	return nil
}

func (c *fakeHistoryCache) InvalidateHistory(_ context.Context, sessionID uuid.UUID) error {
	c.invalidated++
	delete(c.entries, sessionID)
	return nil
}

type fakeEmbedder struct {
	vec []float32
	err error
}

func (e *fakeEmbedder) Embed(context.Context, string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.vec, nil
}

type fakeDatasetSearcher struct {
	rows      []model.DatasetCatalog
	lastLimit int
}

func (s *fakeDatasetSearcher) NearestByEmbedding(_ []float32, limit int) ([]model.DatasetCatalog, error) {
	s.lastLimit = limit
	if limit > len(s.rows) {
		limit = len(s.rows)
	}
	return s.rows[:limit], nil
}

type fakeReferenceQuerySearcher struct {
	rows      []model.ReferenceQuery
	lastLimit int
}

func (s *fakeReferenceQuerySearcher) NearestByEmbedding(_ []float32, limit int) ([]model.ReferenceQuery, error) {
	s.lastLimit = limit
	if limit > len(s.rows) {
		limit = len(s.rows)
	}
	return s.rows[:limit], nil
}

// fakeCatalogStore serves ListPage with the same ordering and cursor
// semantics as the real repository: (source_at DESC, id DESC) with a strict
// composite-key predicate.
type fakeCatalogStore struct {
	rows []model.DatasetCatalog
}

func (s *fakeCatalogStore) GetByID(id uuid.UUID) (*model.DatasetCatalog, error) {
	for i := range s.rows {
		if s.rows[i].ID == id {
			copied := s.rows[i]
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *fakeCatalogStore) GetBySlug(slug string) (*model.DatasetCatalog, error) {
	for i := range s.rows {
		if s.rows[i].Slug == slug {
			copied := s.rows[i]
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *fakeCatalogStore) ListPage(filter repository.PageFilter) ([]model.DatasetCatalog, error) {
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

type fakeGenerator struct {
	completeText string
	completeErr  error
	streamChunks []string
	streamErr    error
	lastPrompt   string
	calls        int
}

func (g *fakeGenerator) Complete(_ context.Context, prompt string) (string, error) {
	g.calls++
	g.lastPrompt = prompt
	if g.completeErr != nil {
		return "", g.completeErr
	}
	return g.completeText, nil
}

func (g *fakeGenerator) StreamComplete(_ context.Context, prompt string, onChunk func(chunk string) error) (string, error) {
	g.calls++
	g.lastPrompt = prompt
	var full strings.Builder
	for _, chunk := range g.streamChunks {
		full.WriteString(chunk)
		if err := onChunk(chunk); err != nil {
			return "", err
		}
	}
	if g.streamErr != nil {
		return "", g.streamErr
	}
	return full.String(), nil
}

var errProviderDown = errors.New("provider unreachable")
