package app

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"maindata/internal/model"
)

// SessionStore is the persistence surface for chat sessions. GetByID returns
// nil without an error when no session exists.
type SessionStore interface {
	Create(session *model.ChatSession) error
	GetByID(id uuid.UUID) (*model.ChatSession, error)
	DeleteWithMessages(id uuid.UUID) error
}

// MessageStore persists chat messages in conversational order.
type MessageStore interface {
	Create(message *model.ChatMessage) error
	ListBySessionID(sessionID uuid.UUID) ([]model.ChatMessage, error)
}

// HistoryCache is an optional read-through cache for session histories.
type HistoryCache interface {
	GetHistory(ctx context.Context, sessionID uuid.UUID) ([]model.ChatMessage, bool, error)
	SetHistory(ctx context.Context, sessionID uuid.UUID, messages []model.ChatMessage) error
	InvalidateHistory(ctx context.Context, sessionID uuid.UUID) error
}

// MemoryService owns session lifecycle and the append-only message log.
// Every lookup of a missing session reports ErrSessionNotFound; History is no
// exception, so all call sites share one contract.
type MemoryService struct {
	sessions     SessionStore
	messages     MessageStore
	historyCache HistoryCache
}

func NewMemoryService(sessions SessionStore, messages MessageStore, historyCache HistoryCache) *MemoryService {
	return &MemoryService{
		sessions:     sessions,
		messages:     messages,
		historyCache: historyCache,
	}
}

// CreateSession starts a new session. A blank title is stored as absent.
func (s *MemoryService) CreateSession(title string) (*model.ChatSession, error) {
	session := &model.ChatSession{}
	if trimmed := strings.TrimSpace(title); trimmed != "" {
		session.Title = &trimmed
	}
	if err := s.sessions.Create(session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *MemoryService) GetSession(id uuid.UUID) (*model.ChatSession, error) {
	session, err := s.sessions.GetByID(id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// AppendMessage verifies the session exists before writing; a message is
// never stored for a session that was not found.
func (s *MemoryService) AppendMessage(ctx context.Context, sessionID uuid.UUID, role, content string) (*model.ChatMessage, error) {
	if role != model.RoleUser && role != model.RoleAssistant {
		return nil, ErrInvalidInput
	}
	if strings.TrimSpace(content) == "" {
		return nil, ErrInvalidInput
	}

	if _, err := s.GetSession(sessionID); err != nil {
		return nil, err
	}

	message := &model.ChatMessage{
		SessionID: sessionID,
		Role:      role,
		Content:   content,
	}
	if err := s.messages.Create(message); err != nil {
		return nil, err
	}
	if s.historyCache != nil {
		_ = s.historyCache.InvalidateHistory(ctx, sessionID)
	}
	return message, nil
}

// History returns the session's messages ascending by creation time. A
// session with no messages yields an empty slice.
func (s *MemoryService) History(ctx context.Context, sessionID uuid.UUID) ([]model.ChatMessage, error) {
	if _, err := s.GetSession(sessionID); err != nil {
		return nil, err
	}

	if s.historyCache != nil {
		if cached, hit, err := s.historyCache.GetHistory(ctx, sessionID); err == nil && hit {
			return cached, nil
		}
	}

	messages, err := s.messages.ListBySessionID(sessionID)
	if err != nil {
		return nil, err
	}
	if s.historyCache != nil {
		_ = s.historyCache.SetHistory(ctx, sessionID, messages)
	}
	return messages, nil
}

// DeleteSession removes the session together with its messages.
func (s *MemoryService) DeleteSession(ctx context.Context, sessionID uuid.UUID) error {
	if _, err := s.GetSession(sessionID); err != nil {
		return err
	}
	if err := s.sessions.DeleteWithMessages(sessionID); err != nil {
		return err
	}
	if s.historyCache != nil {
		_ = s.historyCache.InvalidateHistory(ctx, sessionID)
	}
	return nil
}
