package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"maindata/internal/app"
	"maindata/internal/transport/http/response"
)

// streamDoneSentinel marks the end of a successful SSE stream.
const streamDoneSentinel = "[DONE]"

type GenerateHandler struct {
	sqlService *app.SQLService
}

type GenerateSQLRequest struct {
	SessionID uuid.UUID `json:"session_id" binding:"required"`
	Question  string    `json:"question" binding:"required"`
}

func NewGenerateHandler(sqlService *app.SQLService) *GenerateHandler {
	return &GenerateHandler{sqlService: sqlService}
}

func (h *GenerateHandler) GenerateSQL(c *gin.Context) {
	var req GenerateSQLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.sqlService.GenerateSQL(c.Request.Context(), req.SessionID, req.Question)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrSessionNotFound):
			response.Error(c, http.StatusNotFound, response.CodeSessionNotFound, err.Error())
		case errors.Is(err, app.ErrNoRelevantDatasets):
			response.Error(c, http.StatusBadRequest, response.CodeNoRelevantDatasets, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "generate sql failed")
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// GenerateSQLStream pushes the model response as server-sent events. Each
// event's data payload is a text fragment, a JSON error object, or the [DONE]
// sentinel.
func (h *GenerateHandler) GenerateSQLStream(c *gin.Context) {
	var req GenerateSQLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "stream not supported")
		return
	}

	err := h.sqlService.GenerateSQLStream(c.Request.Context(), req.SessionID, req.Question, func(chunk string) error {
		if writeErr := writeStreamEvent(c, chunk); writeErr != nil {
			return writeErr
		}
		flusher.Flush()
		return nil
	})
	if err != nil {
		writeStreamError(c, flusher, err)
		return
	}

	if writeErr := writeStreamEvent(c, streamDoneSentinel); writeErr == nil {
		flusher.Flush()
	}
}

func writeStreamError(c *gin.Context, flusher http.Flusher, err error) {
	payload, marshalErr := json.Marshal(gin.H{"error": err.Error()})
	if marshalErr != nil {
		return
	}
	if writeErr := writeStreamEvent(c, string(payload)); writeErr == nil {
		flusher.Flush()
	}
}

// writeStreamEvent frames one fragment as a single SSE event. A raw newline
// would end the event early, so each newline-separated segment becomes its
// own data: line; clients rejoin the lines with newlines, which keeps the
// fragment content intact on the wire.
func writeStreamEvent(c *gin.Context, payload string) error {
	var b strings.Builder
	payload = strings.ReplaceAll(payload, "\r\n", "\n")
	for _, line := range strings.Split(payload, "\n") {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	_, err := c.Writer.Write([]byte(b.String()))
	return err
}
