package sqlcommand

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapadmin/internal/admin"
	"github.com/leapstack-labs/leapadmin/internal/ui/features"
	"github.com/leapstack-labs/leapadmin/internal/ui/features/common"
)

func setupRouter(t *testing.T, middlewares ...func(http.Handler) http.Handler) (http.Handler, *features.TestFixture) {
	t.Helper()
	fixture := features.SetupTestFixture(t)
	h := fixture.Router(t, func(r chi.Router) error { return SetupRoutes(r, nil, middlewares...) })
	return h, fixture
}

func send(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return features.Serve(h, req)
}

func TestExecute(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		check      func(t *testing.T, body []byte)
	}{
		{
			name:       "update reports affected rows",
			body:       `{"sql": "UPDATE orders SET total = total + 1 WHERE customer_id = 1"}`,
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				var res admin.ExecResult
				require.NoError(t, json.Unmarshal(body, &res))
				assert.Equal(t, int64(2), res.Affected)
				assert.Contains(t, res.Message, "Query executed OK, 2 rows affected.")
			},
		},
		{
			name:       "select returns rows",
			body:       `{"sql": "SELECT id FROM customers ORDER BY id"}`,
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				var res struct {
					Columns []string         `json:"columns"`
					Rows    []map[string]any `json:"rows"`
					Message string           `json:"message"`
				}
				require.NoError(t, json.Unmarshal(body, &res))
				assert.Equal(t, []string{"id"}, res.Columns)
				assert.Len(t, res.Rows, 2)
				assert.Equal(t, "2 in total", res.Message)
			},
		},
		{
			name:       "server error is a bad gateway with the statement",
			body:       `{"sql": "DROP TABLE nowhere"}`,
			wantStatus: http.StatusBadGateway,
			check: func(t *testing.T, body []byte) {
				var resp common.ErrorResponse
				require.NoError(t, json.Unmarshal(body, &resp))
				assert.Equal(t, "DROP TABLE nowhere", resp.Statement)
			},
		},
		{
			name:       "empty statement",
			body:       `{"sql": "   "}`,
			wantStatus: http.StatusBadRequest,
			check: func(t *testing.T, body []byte) {
				var resp common.ErrorResponse
				require.NoError(t, json.Unmarshal(body, &resp))
				assert.Equal(t, "sql", resp.Field)
			},
		},
		{
			name:       "malformed body",
			body:       `{"query": 1}`,
			wantStatus: http.StatusBadRequest,
			check: func(t *testing.T, body []byte) {
				var resp common.ErrorResponse
				require.NoError(t, json.Unmarshal(body, &resp))
				assert.Equal(t, "body", resp.Field)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := setupRouter(t)
			rec := send(h, http.MethodPost, "/api/sql", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			tt.check(t, rec.Body.Bytes())
		})
	}
}

func TestExecuteScript(t *testing.T) {
	h, fixture := setupRouter(t)

	rec := send(h, http.MethodPost, "/api/sql/script",
		`{"sql": "UPDATE orders SET total = 0 WHERE id = 1;\n/* ; */ SELECT total FROM orders WHERE id = 1;"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Results []struct {
			Statement string   `json:"statement"`
			Columns   []string `json:"columns"`
			Affected  int64    `json:"affected"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 2)
	assert.Equal(t, int64(1), resp.Results[0].Affected)
	assert.Equal(t, "SELECT total FROM orders WHERE id = 1", resp.Results[1].Statement)
	assert.Equal(t, []string{"total"}, resp.Results[1].Columns)

	rec = send(h, http.MethodPost, "/api/sql/script", `{"sql": "DELETE FROM orders WHERE id = 2; SELECT * FROM nowhere; DELETE FROM orders"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	var errResp common.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, "SELECT * FROM nowhere", errResp.Statement)

	entries, err := fixture.History.Recent(t.Context(), 0)
	require.NoError(t, err)
	assert.Len(t, entries, 4, "statements after the failure are not run")
}

func TestRows(t *testing.T) {
	h, fixture := setupRouter(t)

	rec := send(h, http.MethodPost, "/api/tables/customers/rows",
		`{"fields": {"id": {"value": ""}, "email": {"value": "c@example.com"}, "name": {"function": "NULL"}}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = send(h, http.MethodPut, "/api/tables/customers/rows",
		`{"fields": {"name": {"value": "Cy"}}, "where": {"email": "c@example.com"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = send(h, http.MethodPut, "/api/tables/customers/rows", `{"fields": {"name": {"value": "x"}}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	entries, err := fixture.History.Recent(t.Context(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, `UPDATE "customers" SET "name" = 'Cy' WHERE "email" = 'c@example.com'`, entries[0].Statement)
	assert.Equal(t, `INSERT INTO "customers" ("email", "name") VALUES ('c@example.com', NULL)`, entries[1].Statement)
}

func TestExecute_RateLimited(t *testing.T) {
	limiter := common.NewRateLimiter(0.001, 1)
	h, _ := setupRouter(t, limiter.Middleware)

	rec := send(h, http.MethodPost, "/api/sql", `{"sql": "SELECT 1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = send(h, http.MethodPost, "/api/sql", `{"sql": "SELECT 1"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}
