// Package features provides shared test utilities for UI feature tests.
package features

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapadmin/internal/admin"
	"github.com/leapstack-labs/leapadmin/internal/history"
	"github.com/leapstack-labs/leapadmin/internal/testutil"
	"github.com/leapstack-labs/leapadmin/internal/ui/features/common"
	"github.com/leapstack-labs/leapadmin/internal/ui/notifier"
	"github.com/leapstack-labs/leapadmin/pkg/core"

	// Import driver packages to ensure drivers are registered via init()
	_ "github.com/leapstack-labs/leapadmin/pkg/drivers/sqlite"
)

// ShopSchema creates two related tables, a view and a few rows.
const ShopSchema = `
CREATE TABLE customers (id INTEGER PRIMARY KEY, email TEXT NOT NULL UNIQUE, name TEXT);
CREATE TABLE orders (
	id INTEGER PRIMARY KEY,
	customer_id INTEGER NOT NULL REFERENCES customers(id),
	total REAL DEFAULT 0
);
CREATE VIEW big_orders AS SELECT * FROM orders WHERE total > 100;
INSERT INTO customers (id, email, name) VALUES (1, 'a@example.com', 'Ann'), (2, 'b@example.com', 'Bob');
INSERT INTO orders (id, customer_id, total) VALUES (1, 1, 20.5), (2, 1, 150), (3, 2, 99);
`

// TestFixture holds all dependencies needed for UI handler tests.
type TestFixture struct {
	Config       core.ConnectionConfig
	History      *history.Store
	Notifier     *notifier.Notifier
	SessionStore *sessions.CookieStore
	Open         common.Opener
}

// SetupTestFixture creates a SQLite database file seeded with ShopSchema and an
// opener connecting to it with history recorded in memory.
func SetupTestFixture(t *testing.T) *TestFixture {
	t.Helper()

	logger := testutil.NewTestLogger(t)
	ctx := context.Background()
	cfg := core.ConnectionConfig{Driver: "sqlite", Server: filepath.Join(t.TempDir(), "shop.db")}

	seed, err := admin.Open(ctx, cfg, admin.Options{}, logger)
	require.NoError(t, err)
	_, err = seed.Driver().Exec(ctx, ShopSchema)
	require.NoError(t, err)
	require.NoError(t, seed.Close())

	store, err := history.OpenStore(":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	f := &TestFixture{
		Config:       cfg,
		History:      store,
		Notifier:     notifier.New(),
		SessionStore: NewTestSessionStore(),
	}
	f.Open = func(ctx context.Context, lang string) (*admin.Session, error) {
		return admin.Open(ctx, cfg, admin.Options{Recorder: store, Lang: lang}, logger)
	}
	return f
}

// Router returns a router whose routes run with a session connected to the
// fixture database, as they do behind the server.
func (f *TestFixture) Router(t *testing.T, setup func(chi.Router) error) http.Handler {
	t.Helper()
	r := chi.NewRouter()
	r.Use(common.WithSession(f.Open, "en", testutil.NewTestLogger(t)))
	require.NoError(t, setup(r))
	return r
}

// Serve runs r through h and returns the recorded response.
func Serve(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

// NewTestSessionStore creates a session store for testing.
func NewTestSessionStore() *sessions.CookieStore {
	return sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!"))
}
