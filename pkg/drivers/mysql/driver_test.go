package mysql

import (
	"bytes"
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/leapstack-labs/leapadmin/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDriver(t *testing.T) (*Driver, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	d := New(nil)
	d.DB = db
	return d, mock
}

func TestDriver_Identity(t *testing.T) {
	d := New(nil)
	assert.Equal(t, "MySQL", d.Name())
	assert.Equal(t, "mysql", d.Dialect().Name)
	assert.True(t, d.Supports(core.FeatureKill))
	assert.True(t, d.Supports(core.FeatureProcessList))
	assert.False(t, d.Supports(core.FeatureScheme))
	assert.Equal(t, "REGEXP", d.Dialect().RegexpOperator())
}

func TestDriver_ProcessList(t *testing.T) {
	d, mock := newMockDriver(t)
	mock.ExpectQuery("SHOW FULL PROCESSLIST").
		WillReturnRows(sqlmock.NewRows([]string{"Id", "User", "Host", "db", "Command", "Time", "State", "Info"}).
			AddRow(int64(5), "root", "localhost:5000", "shop", "Query", int64(0), "starting", "SHOW FULL PROCESSLIST").
			AddRow(int64(9), "app", "10.0.0.2:41000", "shop", "Sleep", int64(12), "", nil))

	rows, err := d.ProcessList(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Id", "User", "Host", "db", "Command", "Time", "State", "Info"}, rows[0].Keys)

	running := d.ProcessEntry(rows[0])
	assert.Equal(t, "5", running.ID)
	assert.Equal(t, "SHOW FULL PROCESSLIST", running.Query)

	idle := d.ProcessEntry(rows[1])
	assert.Equal(t, "9", idle.ID)
	assert.Equal(t, "Sleep", idle.Command)
	assert.Empty(t, idle.Query)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDriver_KillProcess(t *testing.T) {
	tests := []struct {
		name       string
		id         string
		setupMock  func(mock sqlmock.Sqlmock)
		validation bool
		driverErr  bool
	}{
		{
			name: "kill numeric id",
			id:   "42",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("^KILL 42$").WillReturnResult(sqlmock.NewResult(0, 0))
			},
		},
		{
			name:       "reject injected id",
			id:         "42; DROP TABLE users",
			validation: true,
		},
		{
			name: "server error",
			id:   "7",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("^KILL 7$").WillReturnError(assert.AnError)
			},
			driverErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, mock := newMockDriver(t)
			if tt.setupMock != nil {
				tt.setupMock(mock)
			}

			err := d.KillProcess(context.Background(), tt.id)
			switch {
			case tt.validation:
				assert.True(t, core.IsValidation(err))
			case tt.driverErr:
				require.Error(t, err)
				assert.True(t, core.IsDriver(err))
				assert.Contains(t, err.Error(), "KILL 7")
			default:
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDriver_MaxConnections(t *testing.T) {
	d, mock := newMockDriver(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT @@max_connections")).
		WillReturnRows(sqlmock.NewRows([]string{"@@max_connections"}).AddRow(int64(151)))

	n, err := d.MaxConnections(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 151, n)
}

func TestDriver_TableStatus(t *testing.T) {
	d, mock := newMockDriver(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SHOW TABLE STATUS LIKE 'user\\_log'`)).
		WillReturnRows(sqlmock.NewRows([]string{"Name", "Engine", "Rows", "Data_length", "Index_length", "Collation", "Comment"}).
			AddRow("user_log", "InnoDB", int64(120), int64(16384), int64(0), "utf8mb4_general_ci", ""))

	status, err := d.TableStatus(context.Background(), "user_log")
	require.NoError(t, err)
	require.Len(t, status, 1)
	assert.Equal(t, core.TableStatus{
		Name: "user_log", Engine: "InnoDB", Rows: 120, DataLength: 16384,
		Collation: "utf8mb4_general_ci",
	}, status[0])
}

func TestDriver_TableStatusView(t *testing.T) {
	d, mock := newMockDriver(t)
	mock.ExpectQuery("^SHOW TABLE STATUS$").
		WillReturnRows(sqlmock.NewRows([]string{"Name", "Engine", "Rows", "Data_length", "Index_length", "Collation", "Comment"}).
			AddRow("v_orders", nil, nil, nil, nil, nil, "VIEW"))

	status, err := d.TableStatus(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, status, 1)
	assert.True(t, status[0].IsView)
	assert.Equal(t, int64(-1), status[0].Rows)
}

func TestDriver_Fields(t *testing.T) {
	d, mock := newMockDriver(t)
	mock.ExpectQuery(regexp.QuoteMeta("SHOW FULL COLUMNS FROM `users`")).
		WillReturnRows(sqlmock.NewRows([]string{"Field", "Type", "Collation", "Null", "Key", "Default", "Extra", "Privileges", "Comment"}).
			AddRow("id", "int(11)", nil, "NO", "PRI", nil, "auto_increment", "select", "").
			AddRow("email", "varchar(255)", "utf8mb4_general_ci", "YES", "", "none", "", "select", "login"))

	fields, err := d.Fields(context.Background(), "users")
	require.NoError(t, err)
	require.Len(t, fields, 2)
	assert.True(t, fields[0].Primary)
	assert.True(t, fields[0].AutoIncrement)
	assert.Nil(t, fields[0].Default)
	assert.Equal(t, 2, fields[1].Position)
	require.NotNil(t, fields[1].Default)
	assert.Equal(t, "none", *fields[1].Default)
	assert.Equal(t, "login", fields[1].Comment)
}

func TestDriver_Indexes(t *testing.T) {
	d, mock := newMockDriver(t)
	mock.ExpectQuery(regexp.QuoteMeta("SHOW INDEX FROM `posts`")).
		WillReturnRows(sqlmock.NewRows([]string{"Key_name", "Non_unique", "Column_name", "Sub_part", "Index_type", "Collation"}).
			AddRow("PRIMARY", "0", "id", nil, "BTREE", "A").
			AddRow("slug", "0", "slug", int64(20), "BTREE", "A").
			AddRow("body", "1", "title", nil, "FULLTEXT", nil).
			AddRow("body", "1", "body", nil, "FULLTEXT", nil))

	idx, err := d.Indexes(context.Background(), "posts")
	require.NoError(t, err)
	require.Len(t, idx, 3)
	assert.Equal(t, core.IndexPrimary, idx[0].Kind)
	assert.Equal(t, core.IndexUnique, idx[1].Kind)
	assert.Equal(t, 20, idx[1].Columns[0].Length)
	assert.Equal(t, core.IndexFulltext, idx[2].Kind)
	assert.Equal(t, []string{"title", "body"}, idx[2].ColumnNames())
}

func TestDriver_ForeignKeys(t *testing.T) {
	d, mock := newMockDriver(t)
	mock.ExpectQuery("k.TABLE_SCHEMA = DATABASE\\(\\) AND k.TABLE_NAME = \\?").
		WithArgs("order_items").
		WillReturnRows(sqlmock.NewRows([]string{"CONSTRAINT_NAME", "TABLE_NAME", "COLUMN_NAME", "REFERENCED_TABLE_SCHEMA", "REFERENCED_TABLE_NAME", "REFERENCED_COLUMN_NAME", "DELETE_RULE", "UPDATE_RULE"}).
			AddRow("fk_order", "order_items", "order_id", "shop", "orders", "id", "CASCADE", "RESTRICT").
			AddRow("fk_product", "order_items", "sku", "shop", "products", "sku", "RESTRICT", "RESTRICT").
			AddRow("fk_product", "order_items", "variant", "shop", "products", "variant", "RESTRICT", "RESTRICT"))

	fks, err := d.ForeignKeys(context.Background(), "order_items")
	require.NoError(t, err)
	require.Len(t, fks, 2)
	assert.Equal(t, "orders", fks[0].Table)
	assert.Equal(t, "shop", fks[0].Database)
	assert.Empty(t, fks[0].Schema)
	assert.Equal(t, "CASCADE", fks[0].OnDelete)
	assert.Equal(t, []string{"sku", "variant"}, fks[1].Source)
	assert.Equal(t, []string{"sku", "variant"}, fks[1].Target)
}

func TestDriver_DumpDatabase(t *testing.T) {
	d := New(nil)
	var buf bytes.Buffer
	require.NoError(t, d.DumpDatabase(context.Background(), &buf, "shop", core.DatabaseStyleDropCreate))
	assert.Equal(t, "DROP DATABASE IF EXISTS `shop`;\nCREATE DATABASE `shop`;\n\nUSE `shop`;\n\n", buf.String())

	buf.Reset()
	require.NoError(t, d.DumpDatabase(context.Background(), &buf, "shop", core.DatabaseStyleUse))
	assert.Equal(t, "USE `shop`;\n\n", buf.String())
}

func TestDriver_DumpTableShowCreate(t *testing.T) {
	d, mock := newMockDriver(t)
	mock.ExpectQuery(regexp.QuoteMeta("SHOW CREATE TABLE `users`")).
		WillReturnRows(sqlmock.NewRows([]string{"Table", "Create Table"}).
			AddRow("users", "CREATE TABLE `users` (\n  `id` int NOT NULL\n) ENGINE=InnoDB"))

	var buf bytes.Buffer
	require.NoError(t, d.DumpTable(context.Background(), &buf, "users", core.TableStyleCreate, false))
	assert.Equal(t, "CREATE TABLE `users` (\n  `id` int NOT NULL\n) ENGINE=InnoDB;\n\n", buf.String())
}

func TestDriver_DumpDataUpsert(t *testing.T) {
	d, mock := newMockDriver(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `users`")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(int64(1), `O'Neil\`))

	var buf bytes.Buffer
	require.NoError(t, d.DumpData(context.Background(), &buf, "users", core.DataStyleInsertUpdate, core.FormatSQL, ""))
	assert.Equal(t,
		"INSERT INTO `users` (`id`, `name`) VALUES (1, 'O''Neil\\\\') ON DUPLICATE KEY UPDATE `id` = VALUES(`id`), `name` = VALUES(`name`);\n\n",
		buf.String())
}
