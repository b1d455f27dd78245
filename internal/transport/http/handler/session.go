package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"maindata/internal/app"
	"maindata/internal/model"
	"maindata/internal/transport/http/response"
)

type SessionHandler struct {
	memory *app.MemoryService
}

type StartSessionRequest struct {
	Title string `json:"title" binding:"max=128"`
}

type StartSessionResponse struct {
	SessionID uuid.UUID `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
	Title     *string   `json:"title,omitempty"`
}

type SaveMessageRequest struct {
	Role    string `json:"role" binding:"required,oneof=user assistant"`
	Content string `json:"content" binding:"required"`
}

type SessionResponse struct {
	ID        uuid.UUID           `json:"id"`
	Title     *string             `json:"title,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
	Messages  []model.ChatMessage `json:"messages"`
}

func NewSessionHandler(memory *app.MemoryService) *SessionHandler {
	return &SessionHandler{memory: memory}
}

func (h *SessionHandler) StartSession(c *gin.Context) {
	var req StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	session, err := h.memory.CreateSession(req.Title)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "create session failed")
		return
	}

	c.JSON(http.StatusOK, StartSessionResponse{
		SessionID: session.ID,
		CreatedAt: session.CreatedAt,
		Title:     session.Title,
	})
}

func (h *SessionHandler) GetSession(c *gin.Context) {
	sessionID, ok := parseSessionID(c)
	if !ok {
		return
	}

	session, err := h.memory.GetSession(sessionID)
	if err != nil {
		writeSessionError(c, err, "get session failed")
		return
	}

	messages, err := h.memory.History(c.Request.Context(), sessionID)
	if err != nil {
		writeSessionError(c, err, "get session history failed")
		return
	}

	c.JSON(http.StatusOK, SessionResponse{
		ID:        session.ID,
		Title:     session.Title,
		CreatedAt: session.CreatedAt,
		Messages:  messages,
	})
}

func (h *SessionHandler) SaveMessage(c *gin.Context) {
	sessionID, ok := parseSessionID(c)
	if !ok {
		return
	}

	var req SaveMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	message, err := h.memory.AppendMessage(c.Request.Context(), sessionID, req.Role, req.Content)
	if err != nil {
		writeSessionError(c, err, "save message failed")
		return
	}

	c.JSON(http.StatusOK, message)
}

func (h *SessionHandler) DeleteSession(c *gin.Context) {
	sessionID, ok := parseSessionID(c)
	if !ok {
		return
	}

	if err := h.memory.DeleteSession(c.Request.Context(), sessionID); err != nil {
		writeSessionError(c, err, "delete session failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted_session_id": sessionID})
}

func parseSessionID(c *gin.Context) (uuid.UUID, bool) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid session id")
		return uuid.Nil, false
	}
	return sessionID, true
}

func writeSessionError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrSessionNotFound):
		response.Error(c, http.StatusNotFound, response.CodeSessionNotFound, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}
