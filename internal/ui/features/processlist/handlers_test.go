package processlist

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapadmin/internal/admin"
	"github.com/leapstack-labs/leapadmin/internal/ui/features"
	"github.com/leapstack-labs/leapadmin/internal/ui/features/common"
	"github.com/leapstack-labs/leapadmin/internal/ui/notifier"
	"github.com/leapstack-labs/leapadmin/pkg/core"
	"github.com/leapstack-labs/leapadmin/pkg/drivers/mysql"
)

// mockOpener connects each request to a fresh MySQL sqlmock prepared by the next setup.
func mockOpener(t *testing.T, setups ...func(sqlmock.Sqlmock)) common.Opener {
	t.Helper()
	var mu sync.Mutex
	return func(_ context.Context, lang string) (*admin.Session, error) {
		mu.Lock()
		defer mu.Unlock()
		require.NotEmpty(t, setups, "unexpected session")

		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		setups[0](mock)
		mock.ExpectClose()
		setups = setups[1:]
		t.Cleanup(func() { assert.NoError(t, mock.ExpectationsWereMet()) })

		d := mysql.New(nil)
		d.DB = db
		cfg := core.ConnectionConfig{Driver: "mysql", Server: "db:3306"}
		d.Cfg = cfg
		return admin.NewSession(d, cfg, admin.Options{Lang: lang}, nil), nil
	}
}

func expectProcessList(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(regexp.QuoteMeta("SHOW FULL PROCESSLIST")).WillReturnRows(
		sqlmock.NewRows([]string{"Id", "User", "Host", "db", "Command", "Time", "State", "Info"}).
			AddRow(5, "app", "10.0.0.2:5123", "shop", "Query", 12, "executing", "SELECT SLEEP(60)").
			AddRow(7, "app", "10.0.0.3:6001", "shop", "Sleep", 300, "", nil),
	)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT @@max_connections")).WillReturnRows(
		sqlmock.NewRows([]string{"@@max_connections"}).AddRow("151"),
	)
}

func newRouter(t *testing.T, open common.Opener, cfg Config) http.Handler {
	t.Helper()
	if cfg.SessionStore == nil {
		cfg.SessionStore = features.NewTestSessionStore()
	}
	r := chi.NewRouter()
	r.Use(common.WithSession(open, "en", nil))
	require.NoError(t, SetupRoutes(r, NewHandlers(cfg)))
	return r
}

func killRequest(ids ...string) *http.Request {
	form := url.Values{"kill": ids}
	req := httptest.NewRequest(http.MethodPost, "/processlist", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestList(t *testing.T) {
	h := newRouter(t, mockOpener(t, expectProcessList), Config{})

	rec := features.Serve(h, httptest.NewRequest(http.MethodGet, "/processlist", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got struct {
		Headers        []string        `json:"headers"`
		Processes      []admin.Process `json:"processes"`
		MaxConnections int             `json:"max_connections"`
		Messages       []string        `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, []string{"Id", "User", "Host", "db", "Command", "Time", "State", "Info"}, got.Headers)
	require.Len(t, got.Processes, 2)
	assert.Equal(t, "5", got.Processes[0].ID)
	assert.Equal(t, "SELECT SLEEP(60)", got.Processes[0].Clone)
	assert.Empty(t, got.Processes[1].Clone)
	assert.Equal(t, 151, got.MaxConnections)
	assert.Empty(t, got.Messages)
}

func TestKill_RedirectsWithFlash(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := common.NewMetrics(reg)
	notify := notifier.New()
	updates := notify.Subscribe()
	defer notify.Unsubscribe(updates)

	open := mockOpener(t,
		func(mock sqlmock.Sqlmock) {
			mock.ExpectExec(regexp.QuoteMeta("KILL 5")).WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectExec(regexp.QuoteMeta("KILL 7")).WillReturnResult(sqlmock.NewResult(0, 0))
		},
		expectProcessList,
	)
	h := newRouter(t, open, Config{Notifier: notify, Metrics: metrics, Lang: "en"})

	rec := features.Serve(h, killRequest("5", "7", "5", "x"))
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	assert.Equal(t, "/processlist", rec.Header().Get("Location"))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.ProcessesKilled.WithLabelValues("mysql")))

	select {
	case <-updates:
	case <-time.After(time.Second):
		t.Fatal("kill did not notify subscribers")
	}

	req := httptest.NewRequest(http.MethodGet, "/processlist", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	rec = features.Serve(h, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var got ListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "2 processes have been killed.", got.Messages[0])
	assert.True(t, strings.HasPrefix(got.Messages[1], "x: "), got.Messages[1])
}

func TestKill_Localized(t *testing.T) {
	open := mockOpener(t, func(mock sqlmock.Sqlmock) {
		mock.ExpectExec(regexp.QuoteMeta("KILL 5")).WillReturnResult(sqlmock.NewResult(0, 0))
	})
	store := features.NewTestSessionStore()
	h := newRouter(t, open, Config{SessionStore: store, Lang: "en"})

	req := killRequest("5")
	req.Header.Set("Accept-Language", "ms-MY,ms;q=0.9,en;q=0.5")
	rec := features.Serve(h, req)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		next.AddCookie(c)
	}
	assert.Equal(t, []string{"1 proses telah dihentikan."}, common.Flashes(store, httptest.NewRecorder(), next))
}

func TestKill_NotSupported(t *testing.T) {
	fixture := features.SetupTestFixture(t)
	h := newRouter(t, fixture.Open, Config{})

	rec := features.Serve(h, killRequest("1"))
	assert.Equal(t, http.StatusNotImplemented, rec.Code)

	var resp common.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "kill", resp.Feature)

	rec = features.Serve(h, httptest.NewRequest(http.MethodGet, "/processlist", nil))
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestUpdatesSSE(t *testing.T) {
	h := newRouter(t, mockOpener(t, expectProcessList), Config{PollInterval: time.Hour})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/processlist/updates", nil).WithContext(ctx)

	rec := features.Serve(h, req)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "event: datastar-patch-signals")
	assert.Contains(t, body, `"processlist"`)
	assert.Contains(t, body, "SELECT SLEEP(60)")
}
