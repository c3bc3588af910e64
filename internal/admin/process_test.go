package admin

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/leapstack-labs/leapadmin/internal/testutil"
	"github.com/leapstack-labs/leapadmin/pkg/core"
	"github.com/leapstack-labs/leapadmin/pkg/drivers/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProcesses records kill calls and fails for the ids in fail.
type fakeProcesses struct {
	rows    []core.Row
	listErr error
	maxConn int
	maxErr  error
	fail    map[string]error
	killed  []string
}

func (f *fakeProcesses) ProcessList(context.Context) ([]core.Row, error) {
	return f.rows, f.listErr
}

func (f *fakeProcesses) ProcessEntry(row core.Row) core.ProcessEntry {
	return core.ProcessEntry{ID: row.String("id"), Query: row.String("query"), Raw: row}
}

func (f *fakeProcesses) KillProcess(_ context.Context, id string) error {
	f.killed = append(f.killed, id)
	return f.fail[id]
}

func (f *fakeProcesses) MaxConnections(context.Context) (int, error) {
	return f.maxConn, f.maxErr
}

func TestProcessList_Kill(t *testing.T) {
	boom := errors.New("permission denied")

	tests := []struct {
		name    string
		ids     []string
		fail    map[string]error
		killed  int
		called  []string
		failed  []string
		noKills bool
	}{
		{
			name:   "partial failure",
			ids:    []string{"1", "2", "3"},
			fail:   map[string]error{"2": boom},
			killed: 2,
			called: []string{"1", "2", "3"},
			failed: []string{"2"},
		},
		{
			name:   "duplicates dropped in submission order",
			ids:    []string{"3", "1", "3", "2", "1"},
			killed: 3,
			called: []string{"3", "1", "2"},
		},
		{
			name:    "empty batch",
			ids:     nil,
			killed:  0,
			noKills: true,
		},
		{
			name:   "everything fails",
			ids:    []string{"7", "8"},
			fail:   map[string]error{"7": boom, "8": boom},
			killed: 0,
			called: []string{"7", "8"},
			failed: []string{"7", "8"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeProcesses{fail: tt.fail}
			pl := NewProcessList(fake, capsWith(core.FeatureKill), testutil.NewTestLogger(t))

			res, err := pl.Kill(context.Background(), tt.ids)
			require.NoError(t, err)
			assert.Equal(t, tt.killed, res.Killed)
			if tt.noKills {
				assert.Nil(t, fake.killed)
			} else {
				assert.Equal(t, tt.called, fake.killed)
			}

			var failed []string
			for _, f := range res.Failed {
				failed = append(failed, f.ID)
				assert.ErrorIs(t, f.Err(), boom)
				assert.Equal(t, boom.Error(), f.Error)
			}
			assert.Equal(t, tt.failed, failed)
		})
	}
}

func TestProcessList_KillWithoutCapability(t *testing.T) {
	tests := []struct {
		name string
		ids  []string
	}{
		{name: "with ids", ids: []string{"1", "2"}},
		{name: "empty", ids: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeProcesses{}
			pl := NewProcessList(fake, capsWith(core.FeatureProcessList), nil)

			res, err := pl.Kill(context.Background(), tt.ids)
			assert.Nil(t, res)
			assert.True(t, core.IsCapability(err))
			assert.Nil(t, fake.killed, "driver must not be called")
		})
	}
}

func TestProcessList_List(t *testing.T) {
	rows := []core.Row{
		core.NewRow([]string{"id", "user", "query"}, []any{"10", "app", "SELECT 1"}),
		core.NewRow([]string{"id", "user", "query"}, []any{"11", "app", nil}),
	}

	tests := []struct {
		name    string
		fake    *fakeProcesses
		headers []string
		ids     []string
		clones  []string
		max     int
	}{
		{
			name:    "headers from first row",
			fake:    &fakeProcesses{rows: rows, maxConn: 151},
			headers: []string{"id", "user", "query"},
			ids:     []string{"10", "11"},
			clones:  []string{"SELECT 1", ""},
			max:     151,
		},
		{
			name: "no rows",
			fake: &fakeProcesses{},
		},
		{
			name:    "max connections unavailable",
			fake:    &fakeProcesses{rows: rows[:1], maxErr: errors.New("denied")},
			headers: []string{"id", "user", "query"},
			ids:     []string{"10"},
			clones:  []string{"SELECT 1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pl := NewProcessList(tt.fake, capsWith(core.FeatureProcessList), testutil.NewTestLogger(t))
			listing, err := pl.List(context.Background())
			require.NoError(t, err)

			assert.Equal(t, tt.headers, listing.Headers)
			assert.Equal(t, tt.max, listing.MaxConnections)
			var ids, clones []string
			for _, p := range listing.Processes {
				ids = append(ids, p.ID)
				clones = append(clones, p.Clone)
			}
			assert.Equal(t, tt.ids, ids)
			assert.Equal(t, tt.clones, clones)
		})
	}
}

func TestProcessList_ListWarnsWithoutMaxConnections(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelWarn}))
	fake := &fakeProcesses{
		rows:   []core.Row{core.NewRow([]string{"id"}, []any{"1"})},
		maxErr: errors.New("denied"),
	}

	listing, err := NewProcessList(fake, capsWith(core.FeatureProcessList), logger).List(context.Background())
	require.NoError(t, err)
	assert.Len(t, listing.Processes, 1)
	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "error=denied")
}

func TestProcessList_ListErrors(t *testing.T) {
	pl := NewProcessList(&fakeProcesses{}, capsWith(), nil)
	_, err := pl.List(context.Background())
	assert.True(t, core.IsCapability(err))

	boom := &core.DriverError{Statement: "SHOW FULL PROCESSLIST", Err: errors.New("gone away")}
	pl = NewProcessList(&fakeProcesses{listErr: boom}, capsWith(core.FeatureProcessList), nil)
	_, err = pl.List(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestProcessList_MySQL(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	d := mysql.New(nil)
	d.DB = db
	pl := NewProcessList(d, NewCapabilities(d), testutil.NewTestLogger(t))
	ctx := context.Background()

	cols := []string{"Id", "User", "Host", "db", "Command", "Time", "State", "Info"}
	mock.ExpectQuery(regexp.QuoteMeta("SHOW FULL PROCESSLIST")).WillReturnRows(
		sqlmock.NewRows(cols).
			AddRow(5, "root", "localhost:5123", "shop", "Query", 0, "starting", "SHOW FULL PROCESSLIST").
			AddRow(9, "app", "10.0.0.4:6000", "shop", "Sleep", 120, "", nil),
	)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT @@max_connections")).WillReturnRows(
		sqlmock.NewRows([]string{"@@max_connections"}).AddRow("151"),
	)

	listing, err := pl.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, cols, listing.Headers)
	assert.Equal(t, 151, listing.MaxConnections)
	require.Len(t, listing.Processes, 2)
	assert.Equal(t, "5", listing.Processes[0].ID)
	assert.Equal(t, "SHOW FULL PROCESSLIST", listing.Processes[0].Clone)
	assert.Equal(t, "9", listing.Processes[1].ID)
	assert.Empty(t, listing.Processes[1].Clone, "idle sessions have nothing to clone")

	mock.ExpectExec(regexp.QuoteMeta("KILL 9")).WillReturnResult(sqlmock.NewResult(0, 0))
	res, err := pl.Kill(ctx, []string{"9", "abc"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Killed)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, "abc", res.Failed[0].ID)
	assert.True(t, core.IsValidation(res.Failed[0].Err()))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKillMessage(t *testing.T) {
	assert.Equal(t, "2 processes have been killed.", KillMessage("en", 2))
	assert.Equal(t, "1 process has been killed.", KillMessage("", 1))
	assert.Equal(t, "3 proses telah dihentikan.", KillMessage("ms", 3))
}
