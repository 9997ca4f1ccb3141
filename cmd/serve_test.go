package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orientavida/assess-cli/internal/model"
	"github.com/orientavida/assess-cli/internal/store"
)

func newTestRouter(t *testing.T) (*chi.Mux, *model.Test) {
	t.Helper()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "assess.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	test, err := st.CreateTest(context.Background(), store.TestInput{Code: "VOC", Title: "Orientación vocacional"})
	require.NoError(t, err)

	r := chi.NewRouter()
	h := &apiHandler{store: st}
	h.routes(r)
	return r, test
}

func postJSON(t *testing.T, r http.Handler, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestServe_HealthEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestServe_CreateQuestionReturnsFullScale(t *testing.T) {
	r, test := newTestRouter(t)

	rr := postJSON(t, r, "/tests/"+test.ID+"/questions", map[string]any{
		"text": "Me organizo bien bajo presión",
	})
	require.Equal(t, http.StatusCreated, rr.Code)

	var q model.Question
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &q))
	assert.Len(t, q.Answers, 5)
	assert.Equal(t, 1, q.Position)
}

func TestServe_CreateQuestionEmptyTextRejected(t *testing.T) {
	r, test := newTestRouter(t)

	rr := postJSON(t, r, "/tests/"+test.ID+"/questions", map[string]any{"text": ""})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestServe_DeleteQuestionCascades(t *testing.T) {
	r, test := newTestRouter(t)

	rr := postJSON(t, r, "/tests/"+test.ID+"/questions", map[string]any{"text": "Pregunta"})
	require.Equal(t, http.StatusCreated, rr.Code)
	var q model.Question
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &q))

	req := httptest.NewRequest(http.MethodDelete, "/tests/"+test.ID+"/questions/"+q.ID, nil)
	del := httptest.NewRecorder()
	r.ServeHTTP(del, req)
	assert.Equal(t, http.StatusNoContent, del.Code)

	// Structure is empty again.
	get := httptest.NewRecorder()
	r.ServeHTTP(get, httptest.NewRequest(http.MethodGet, "/tests/"+test.ID+"/structure", nil))
	require.Equal(t, http.StatusOK, get.Code)
	var tree model.Structure
	require.NoError(t, json.Unmarshal(get.Body.Bytes(), &tree))
	assert.Empty(t, tree.Questions)
}

func TestServe_StructureUnknownTest(t *testing.T) {
	r, _ := newTestRouter(t)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/tests/nope/structure", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestServe_DuplicateTestCodeConflicts(t *testing.T) {
	r, _ := newTestRouter(t)

	rr := postJSON(t, r, "/tests", map[string]any{"code": "VOC", "title": "Duplicado"})
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestServe_RecommendationsUnconfigured(t *testing.T) {
	r, _ := newTestRouter(t)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/takers/tk1/recommendations", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
