package sqlhistory

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapadmin/internal/history"
	"github.com/leapstack-labs/leapadmin/internal/testutil"
	"github.com/leapstack-labs/leapadmin/internal/ui/features"
)

func setupStore(t *testing.T, statements ...string) *history.Store {
	t.Helper()
	store, err := history.OpenStore(":memory:", testutil.NewTestLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, stmt := range statements {
		require.NoError(t, store.Record(t.Context(), history.Entry{
			Driver:    "sqlite",
			Statement: stmt,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}
	return store
}

func newRouter(t *testing.T, store *history.Store) http.Handler {
	t.Helper()
	r := chi.NewRouter()
	require.NoError(t, SetupRoutes(r, store, nil))
	return r
}

func TestList(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantStatus int
		want       []string
	}{
		{name: "newest first", query: "", wantStatus: http.StatusOK, want: []string{"SELECT 3", "SELECT 2", "SELECT 1"}},
		{name: "limited", query: "?limit=1", wantStatus: http.StatusOK, want: []string{"SELECT 3"}},
		{name: "bad limit", query: "?limit=-2", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newRouter(t, setupStore(t, "SELECT 1", "SELECT 2", "SELECT 3"))
			rec := features.Serve(h, httptest.NewRequest(http.MethodGet, "/api/history"+tt.query, nil))
			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.want == nil {
				return
			}

			var entries []history.Entry
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
			got := make([]string, len(entries))
			for i, e := range entries {
				got[i] = e.Statement
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClear(t *testing.T) {
	store := setupStore(t, "SELECT 1")
	h := newRouter(t, store)

	rec := features.Serve(h, httptest.NewRequest(http.MethodDelete, "/api/history", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = features.Serve(h, httptest.NewRequest(http.MethodGet, "/api/history", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestDisabled(t *testing.T) {
	h := newRouter(t, nil)

	rec := features.Serve(h, httptest.NewRequest(http.MethodGet, "/api/history", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = features.Serve(h, httptest.NewRequest(http.MethodDelete, "/api/history", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
