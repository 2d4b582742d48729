package store

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestREST_UpsertSendsConflictTarget(t *testing.T) {
	var gotBody []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest/v1/collected_docs", r.URL.Path)
		assert.Equal(t, "id", r.URL.Query().Get("on_conflict"))
		assert.Equal(t, "resolution=merge-duplicates,return=minimal", r.Header.Get("Prefer"))
		assert.Equal(t, "anon", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer anon", r.Header.Get("Authorization"))
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &gotBody)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	s := NewREST(srv.URL, "anon", srv.Client())
	err := s.Upsert(context.Background(), "collected_docs", []Row{{"id": "a", "title": "t"}}, "id")
	require.NoError(t, err)
	require.Len(t, gotBody, 1)
	assert.Equal(t, "a", gotBody[0]["id"])
}

func TestREST_InsertErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "return=minimal", r.Header.Get("Prefer"))
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Invalid API key"}`))
	}))
	defer srv.Close()

	s := NewREST(srv.URL, "bad", srv.Client())
	err := s.Insert(context.Background(), "steelers_stats", []Row{{"category": "table_0"}})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Contains(t, err.Error(), "Invalid API key")
}

func TestREST_SelectQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/rest/v1/steelers_stats", r.URL.Path)
		assert.Equal(t, "*", q.Get("select"))
		assert.Equal(t, "id.asc", q.Get("order"))
		assert.Equal(t, "10", q.Get("limit"))
		assert.Equal(t, "eq.table_1", q.Get("category"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":1,"category":"table_1","player":null,"stat_key":["YDS"],"stat_value":"[\"10\"]"}]`))
	}))
	defer srv.Close()

	s := NewREST(srv.URL+"/", "k", srv.Client())
	rows, err := s.Select(context.Background(), "steelers_stats", Query{
		Filters: []Filter{{Column: "category", Value: "table_1"}},
		OrderBy: "id",
		Limit:   10,
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0]["player"])
	assert.Equal(t, []any{"YDS"}, rows[0]["stat_key"])
}

func TestREST_EmptyWriteIsNoop(t *testing.T) {
	s := NewREST("http://127.0.0.1:1", "k", nil)
	assert.NoError(t, s.Insert(context.Background(), "steelers_stats", nil))
	assert.NoError(t, s.Upsert(context.Background(), "collected_docs", nil, "id"))
}
