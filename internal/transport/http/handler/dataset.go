package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"maindata/internal/app"
	"maindata/internal/model"
	"maindata/internal/transport/http/response"
)

type DatasetHandler struct {
	catalog    *app.CatalogService
	httpClient *http.Client
}

type DatasetListMetadata struct {
	Limit      int        `json:"limit"`
	After      *uuid.UUID `json:"after,omitempty"`
	Search     string     `json:"search,omitempty"`
	NextCursor *uuid.UUID `json:"next_cursor,omitempty"`
}

type DatasetListResponse struct {
	Message  string                 `json:"message"`
	Metadata DatasetListMetadata    `json:"metadata"`
	Data     []model.DatasetCatalog `json:"data"`
}

func NewDatasetHandler(catalog *app.CatalogService, httpClient *http.Client) *DatasetHandler {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &DatasetHandler{
		catalog:    catalog,
		httpClient: httpClient,
	}
}

func (h *DatasetHandler) List(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	var afterID *uuid.UUID
	if raw := c.Query("after"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			response.Error(c, http.StatusNotFound, response.CodeCursorNotFound, "pagination cursor not found")
			return
		}
		afterID = &parsed
	}

	search := c.Query("search")

	page, err := h.catalog.List(limit, afterID, search)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrCursorNotFound):
			response.Error(c, http.StatusNotFound, response.CodeCursorNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list datasets failed")
		}
		return
	}

	c.JSON(http.StatusOK, DatasetListResponse{
		Message: "datasets retrieved",
		Metadata: DatasetListMetadata{
			Limit:      page.Limit,
			After:      afterID,
			Search:     search,
			NextCursor: page.NextCursor,
		},
		Data: page.Rows,
	})
}

// Download redirects to the source when it allows cross-origin fetches,
// otherwise streams the remote content through with a download filename
// derived from the slug.
func (h *DatasetHandler) Download(c *gin.Context) {
	dataset, err := h.catalog.GetBySlug(c.Param("slug"))
	if err != nil {
		switch {
		case errors.Is(err, app.ErrDatasetNotFound):
			response.Error(c, http.StatusNotFound, response.CodeDatasetNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "get dataset failed")
		}
		return
	}

	if dataset.IsCORSAllowed {
		c.Redirect(http.StatusFound, dataset.URL)
		return
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, dataset.URL, nil)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "build upstream request failed")
		return
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		response.Error(c, http.StatusBadGateway, response.CodeInternalServer, "fetch dataset content failed")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		response.Error(c, http.StatusBadGateway, response.CodeInternalServer,
			fmt.Sprintf("upstream returned status %d", resp.StatusCode))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", dataset.Slug+".csv"))
	c.Header("Content-Type", "text/csv")
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, resp.Body)
}
