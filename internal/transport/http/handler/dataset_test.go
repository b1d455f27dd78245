package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maindata/internal/transport/http/response"
)

func newDatasetRouter(env *testEnv, client *http.Client) *gin.Engine {
	h := NewDatasetHandler(env.catalog, client)
	router := gin.New()
	router.GET("/dataset", h.List)
	router.GET("/dataset/:slug", h.Download)
	return router
}

func TestDatasetListDefaultPage(t *testing.T) {
	env := newTestEnv()
	env.store.rows = seedDatasets(12)
	router := newDatasetRouter(env, nil)

	w := performRequest(router, http.MethodGet, "/dataset", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp DatasetListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "datasets retrieved", resp.Message)
	assert.Equal(t, 10, resp.Metadata.Limit)
	require.Len(t, resp.Data, 10)
	assert.Equal(t, "dataset-12", resp.Data[0].Slug, "newest source_at first")
	require.NotNil(t, resp.Metadata.NextCursor)
	assert.Equal(t, resp.Data[9].ID, *resp.Metadata.NextCursor)
	assert.NotContains(t, w.Body.String(), `"embedding"`)
}

func TestDatasetListFollowsCursorToEnd(t *testing.T) {
	env := newTestEnv()
	env.store.rows = seedDatasets(12)
	router := newDatasetRouter(env, nil)

	w := performRequest(router, http.MethodGet, "/dataset?limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var first DatasetListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))
	require.Len(t, first.Data, 5)
	require.NotNil(t, first.Metadata.NextCursor)

	w = performRequest(router, http.MethodGet, "/dataset?limit=5&after="+first.Metadata.NextCursor.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var second DatasetListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))
	require.Len(t, second.Data, 5)
	require.NotNil(t, second.Metadata.NextCursor)

	w = performRequest(router, http.MethodGet, "/dataset?limit=5&after="+second.Metadata.NextCursor.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var third DatasetListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &third))
	require.Len(t, third.Data, 2)
	assert.Nil(t, third.Metadata.NextCursor)

	seen := make(map[uuid.UUID]bool)
	for _, page := range []DatasetListResponse{first, second, third} {
		for _, row := range page.Data {
			assert.False(t, seen[row.ID], "row %s served twice", row.Slug)
			seen[row.ID] = true
		}
	}
	assert.Len(t, seen, 12)
}

func TestDatasetListInvalidLimit(t *testing.T) {
	env := newTestEnv()
	env.store.rows = seedDatasets(2)
	router := newDatasetRouter(env, nil)

	w := performRequest(router, http.MethodGet, "/dataset?limit=abc", nil)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var errResp response.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, response.CodeBadRequest, errResp.Code)
}

func TestDatasetListMalformedCursor(t *testing.T) {
	router := newDatasetRouter(newTestEnv(), nil)

	w := performRequest(router, http.MethodGet, "/dataset?after=not-a-uuid", nil)

	require.Equal(t, http.StatusNotFound, w.Code)
	var errResp response.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, response.CodeCursorNotFound, errResp.Code)
}

func TestDatasetListUnknownCursor(t *testing.T) {
	env := newTestEnv()
	env.store.rows = seedDatasets(3)
	router := newDatasetRouter(env, nil)

	w := performRequest(router, http.MethodGet, "/dataset?after="+uuid.NewString(), nil)

	require.Equal(t, http.StatusNotFound, w.Code)
	var errResp response.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, response.CodeCursorNotFound, errResp.Code)
}

func TestDatasetListSearchEchoedInMetadata(t *testing.T) {
	env := newTestEnv()
	rows := seedDatasets(3)
	rows[1].Title = "School Budget"
	env.store.rows = rows
	router := newDatasetRouter(env, nil)

	w := performRequest(router, http.MethodGet, "/dataset?search=school", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp DatasetListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "school", resp.Metadata.Search)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "dataset-02", resp.Data[0].Slug)
}

func TestDatasetDownloadRedirectsWhenCORSAllowed(t *testing.T) {
	env := newTestEnv()
	rows := seedDatasets(1)
	rows[0].IsCORSAllowed = true
	env.store.rows = rows
	router := newDatasetRouter(env, nil)

	w := performRequest(router, http.MethodGet, "/dataset/dataset-01", nil)

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, rows[0].URL, w.Header().Get("Location"))
}

func TestDatasetDownloadProxiesWhenCORSBlocked(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("col1,col2\n1,2\n"))
	}))
	defer upstream.Close()

	env := newTestEnv()
	rows := seedDatasets(1)
	rows[0].IsCORSAllowed = false
	rows[0].URL = upstream.URL
	env.store.rows = rows
	router := newDatasetRouter(env, upstream.Client())

	w := performRequest(router, http.MethodGet, "/dataset/dataset-01", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="dataset-01.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Equal(t, "col1,col2\n1,2\n", w.Body.String())
}

func TestDatasetDownloadUpstreamFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer upstream.Close()

	env := newTestEnv()
	rows := seedDatasets(1)
	rows[0].IsCORSAllowed = false
	rows[0].URL = upstream.URL
	env.store.rows = rows
	router := newDatasetRouter(env, upstream.Client())

	w := performRequest(router, http.MethodGet, "/dataset/dataset-01", nil)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestDatasetDownloadUnknownSlug(t *testing.T) {
	router := newDatasetRouter(newTestEnv(), nil)

	w := performRequest(router, http.MethodGet, "/dataset/missing", nil)

	require.Equal(t, http.StatusNotFound, w.Code)
	var errResp response.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, response.CodeDatasetNotFound, errResp.Code)
}
