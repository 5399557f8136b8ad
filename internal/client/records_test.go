package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fresque-dev/fresque/pkg/schema"
)

type capturedRequest struct {
	method string
	path   string
	query  string
	auth   string
	body   map[string]any
}

func recordServer(t *testing.T, status int, respond any, capture *capturedRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capture.method = r.Method
		capture.path = r.URL.Path
		capture.query = r.URL.RawQuery
		capture.auth = r.Header.Get("Authorization")
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&capture.body)
		}
		if respond != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_ = json.NewEncoder(w).Encode(respond)
			return
		}
		w.WriteHeader(status)
	}))
}

func TestRecordClient_GetOne(t *testing.T) {
	var captured capturedRequest
	srv := recordServer(t, http.StatusOK, map[string]any{"id": "7", "name": "run"}, &captured)
	defer srv.Close()

	c := NewRecordClient(srv.URL, nil, StaticToken("tok-123"), nil)
	record, err := c.GetOne(context.Background(), "runs", "7")
	require.NoError(t, err)

	assert.Equal(t, "run", record["name"])
	assert.Equal(t, http.MethodGet, captured.method)
	assert.Equal(t, "/runs/7", captured.path)
	assert.Equal(t, "Bearer tok-123", captured.auth)
}

func TestRecordClient_GetList_QueryAndTotal(t *testing.T) {
	var captured capturedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.query = r.URL.RawQuery
		w.Header().Set("X-Total-Count", "42")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"1"},{"id":"2"}]`))
	}))
	defer srv.Close()

	c := NewRecordClient(srv.URL, nil, nil, nil)
	records, total, err := c.GetList(context.Background(), "runs", ListQuery{
		Filter:  map[string]any{"status": "RUNNING"},
		Sort:    "startedAt",
		Order:   "DESC",
		Page:    2,
		PerPage: 25,
	})
	require.NoError(t, err)

	assert.Len(t, records, 2)
	assert.Equal(t, 42, total)
	assert.Contains(t, captured.query, "sort=startedAt")
	assert.Contains(t, captured.query, "order=DESC")
	assert.Contains(t, captured.query, "page=2")
	assert.Contains(t, captured.query, "perPage=25")
	assert.Contains(t, captured.query, "filter=")
}

func TestRecordClient_GetList_TotalFallsBackToLength(t *testing.T) {
	var captured capturedRequest
	srv := recordServer(t, http.StatusOK, []map[string]any{{"id": "1"}}, &captured)
	defer srv.Close()

	c := NewRecordClient(srv.URL, nil, nil, nil)
	records, total, err := c.GetList(context.Background(), "runs", ListQuery{})
	require.NoError(t, err)

	assert.Len(t, records, 1)
	assert.Equal(t, 1, total)
	assert.Empty(t, captured.query)
}

func TestRecordClient_GetMany_AlternateIDField(t *testing.T) {
	var captured capturedRequest
	srv := recordServer(t, http.StatusOK, []map[string]any{{"slug": "a"}, {"slug": "b"}}, &captured)
	defer srv.Close()

	c := NewRecordClient(srv.URL, nil, nil, nil)
	records, err := c.GetMany(context.Background(), "workers", []any{"a", "b"}, Meta{IDField: "slug"})
	require.NoError(t, err)
	assert.Len(t, records, 2)

	assert.Contains(t, captured.query, "filter=")
	assert.Contains(t, captured.query, "slug")
}

func TestRecordClient_GetMany_DefaultsToID(t *testing.T) {
	var captured capturedRequest
	srv := recordServer(t, http.StatusOK, []map[string]any{}, &captured)
	defer srv.Close()

	c := NewRecordClient(srv.URL, nil, nil, nil)
	_, err := c.GetMany(context.Background(), "workers", []any{"1"}, Meta{})
	require.NoError(t, err)
	assert.Contains(t, captured.query, "%22id%22")
}

func TestRecordClient_CreateUpdateDelete(t *testing.T) {
	var captured capturedRequest
	srv := recordServer(t, http.StatusOK, map[string]any{"id": "9", "name": "new"}, &captured)
	defer srv.Close()

	c := NewRecordClient(srv.URL, nil, nil, nil)

	created, err := c.Create(context.Background(), "runs", map[string]any{"name": "new"})
	require.NoError(t, err)
	assert.Equal(t, "9", created["id"])
	assert.Equal(t, http.MethodPost, captured.method)
	assert.Equal(t, "new", captured.body["name"])

	updated, err := c.Update(context.Background(), "runs", "9", map[string]any{"name": "renamed"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, captured.method)
	assert.Equal(t, "/runs/9", captured.path)
	assert.Equal(t, "renamed", captured.body["name"])
	assert.NotNil(t, updated)

	require.NoError(t, c.Delete(context.Background(), "runs", "9"))
	assert.Equal(t, http.MethodDelete, captured.method)
}

func TestRecordClient_NotFound(t *testing.T) {
	var captured capturedRequest
	srv := recordServer(t, http.StatusNotFound, nil, &captured)
	defer srv.Close()

	c := NewRecordClient(srv.URL, nil, nil, nil)
	_, err := c.GetOne(context.Background(), "runs", "missing")
	require.Error(t, err)

	var cerr *schema.ConsoleError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, schema.ErrCodeNotFound, cerr.Code)
}

func TestRecordClient_ServerErrorCarriesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"boom"}`))
	}))
	defer srv.Close()

	c := NewRecordClient(srv.URL, nil, nil, nil)
	_, err := c.GetOne(context.Background(), "runs", "1")
	require.Error(t, err)

	var cerr *schema.ConsoleError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, schema.ErrCodeFetch, cerr.Code)
	assert.Contains(t, cerr.Details["body"], "boom")
}

func TestRecordClient_EmptyTokenSendsNoHeader(t *testing.T) {
	var captured capturedRequest
	srv := recordServer(t, http.StatusOK, map[string]any{}, &captured)
	defer srv.Close()

	c := NewRecordClient(srv.URL, nil, StaticToken(""), nil)
	_, err := c.GetOne(context.Background(), "runs", "1")
	require.NoError(t, err)
	assert.Empty(t, captured.auth)
}
