package driver

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/leapstack-labs/leapadmin/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDumpFilename(t *testing.T) {
	tests := []struct {
		name       string
		server     string
		identifier string
		want       string
	}{
		{name: "identifier", identifier: "shop", want: "shop"},
		{name: "non word runes", identifier: "my db.v2", want: "my-db-v2"},
		{name: "unicode letters kept", identifier: "données", want: "données"},
		{name: "falls back to server", server: "db.internal:3306", want: "db-internal-3306"},
		{name: "falls back to localhost", want: "localhost"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := NewBase(nil, "Test", testDialect())
			base.Cfg.Server = tt.server
			assert.Equal(t, tt.want, base.DumpFilename(tt.identifier))
		})
	}
}

func TestDumpHeaders(t *testing.T) {
	tests := []struct {
		name       string
		multiTable bool
		output     string
		format     string
		want       core.DumpHeaders
	}{
		{
			name:   "sql to browser",
			output: core.OutputText,
			format: core.FormatSQL,
			want:   core.DumpHeaders{Extension: "sql", ContentType: "text/plain; charset=utf-8"},
		},
		{
			name:   "sql file",
			output: core.OutputFile,
			format: core.FormatSQL,
			want: core.DumpHeaders{
				Filename: "shop.sql", Extension: "sql", ContentType: "text/plain; charset=utf-8",
				Disposition: "attachment; filename=shop.sql",
			},
		},
		{
			name:   "csv file",
			output: core.OutputFile,
			format: core.FormatCSV,
			want: core.DumpHeaders{
				Filename: "shop.csv", Extension: "csv", ContentType: "text/csv; charset=utf-8",
				Disposition: "attachment; filename=shop.csv",
			},
		},
		{
			name:       "multi table csv",
			multiTable: true,
			output:     core.OutputFile,
			format:     core.FormatCSVSemicolon,
			want: core.DumpHeaders{
				Filename: "shop.tar", Extension: "tar", ContentType: "application/x-tar",
				Disposition: "attachment; filename=shop.tar",
			},
		},
		{
			name:   "gzip sql",
			output: core.OutputGzip,
			format: core.FormatSQL,
			want: core.DumpHeaders{
				Filename: "shop.sql.gz", Extension: "sql", ContentType: "application/x-gzip",
				Disposition: "attachment; filename=shop.sql.gz", Compression: "gz",
			},
		},
		{
			name:   "zstd tsv",
			output: core.OutputZstd,
			format: core.FormatTSV,
			want: core.DumpHeaders{
				Filename: "shop.tsv.zst", Extension: "tsv", ContentType: "application/zstd",
				Disposition: "attachment; filename=shop.tsv.zst", Compression: "zst",
			},
		},
	}

	base := NewBase(nil, "Test", testDialect())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, base.DumpHeaders("shop", tt.multiTable, tt.output, tt.format))
		})
	}
}

func TestDumpData_SQL(t *testing.T) {
	tests := []struct {
		name   string
		style  string
		batch  int
		upsert func([]string) string
		want   string
	}{
		{
			name:  "batched insert",
			style: core.DataStyleInsert,
			batch: DefaultInsertBatch,
			want:  "INSERT INTO \"users\" (\"id\", \"name\") VALUES (1, 'ann'),\n(2, NULL);\n\n",
		},
		{
			name:  "one statement per row",
			style: core.DataStyleInsert,
			want:  "INSERT INTO \"users\" (\"id\", \"name\") VALUES (1, 'ann');\nINSERT INTO \"users\" (\"id\", \"name\") VALUES (2, NULL);\n\n",
		},
		{
			name:  "truncate first",
			style: core.DataStyleTruncateInsert,
			batch: DefaultInsertBatch,
			want:  "TRUNCATE TABLE \"users\";\nINSERT INTO \"users\" (\"id\", \"name\") VALUES (1, 'ann'),\n(2, NULL);\n\n",
		},
		{
			name:   "upsert",
			style:  core.DataStyleInsertUpdate,
			batch:  DefaultInsertBatch,
			upsert: func(cols []string) string { return " ON CONFLICT DO NOTHING" },
			want: "INSERT INTO \"users\" (\"id\", \"name\") VALUES (1, 'ann') ON CONFLICT DO NOTHING;\n" +
				"INSERT INTO \"users\" (\"id\", \"name\") VALUES (2, NULL) ON CONFLICT DO NOTHING;\n\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base, mock := newTestBase(t)
			base.InsertBatch = tt.batch
			base.UpsertSuffix = tt.upsert
			mock.ExpectQuery(`SELECT \* FROM "users"`).
				WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(int64(1), "ann").AddRow(int64(2), nil))

			var buf bytes.Buffer
			err := base.DumpData(context.Background(), &buf, "users", tt.style, core.FormatSQL, "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, buf.String())
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDumpData_UpsertUnsupported(t *testing.T) {
	base, _ := newTestBase(t)
	err := base.DumpData(context.Background(), &bytes.Buffer{}, "users", core.DataStyleInsertUpdate, core.FormatSQL, "")
	require.Error(t, err)
	assert.True(t, core.IsValidation(err))
}

func TestDumpData_Delimited(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{format: core.FormatCSV, want: "id,name\n1,\"a,b\"\n"},
		{format: core.FormatCSVSemicolon, want: "id;name\n1;a,b\n"},
		{format: core.FormatTSV, want: "id\tname\n1\ta,b\n"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			base, mock := newTestBase(t)
			mock.ExpectQuery("SELECT id, name FROM users WHERE id = 1").
				WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(int64(1), "a,b"))

			var buf bytes.Buffer
			err := base.DumpData(context.Background(), &buf, "users", core.DataStyleInsert, tt.format, "SELECT id, name FROM users WHERE id = 1")
			require.NoError(t, err)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestDumpTable_Generic(t *testing.T) {
	base := NewBase(nil, "Test", testDialect())
	def := "0"
	base.Introspect = &fakeCatalog{
		fields: map[string][]core.Field{
			"orders": {
				{Name: "id", Type: "integer"},
				{Name: "user_id", Type: "integer", Null: true},
				{Name: "total", Type: "numeric(10,2)", Default: &def},
			},
		},
		indexes: map[string][]core.Index{
			"orders": {
				{Name: "orders_pkey", Kind: core.IndexPrimary, Columns: []core.IndexColumn{{Name: "id"}}},
				{Name: "orders_user", Kind: core.IndexPlain, Columns: []core.IndexColumn{{Name: "user_id"}}},
			},
		},
		fks: map[string][]core.ForeignKey{
			"orders": {{Name: "fk_user", Source: []string{"user_id"}, Table: "users", Target: []string{"id"}, OnDelete: "CASCADE"}},
		},
	}

	var buf bytes.Buffer
	err := base.DumpTable(context.Background(), &buf, "orders", core.TableStyleDropCreate, false)
	require.NoError(t, err)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "DROP TABLE IF EXISTS \"orders\";\nCREATE TABLE \"orders\" (\n"))
	assert.Contains(t, out, `  "total" numeric(10,2) NOT NULL DEFAULT 0`)
	assert.Contains(t, out, `  PRIMARY KEY ("id")`)
	assert.Contains(t, out, `CONSTRAINT "fk_user" FOREIGN KEY ("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`)
	assert.Contains(t, out, `CREATE INDEX "orders_user" ON "orders" ("user_id");`)
}

func TestDumpDatabase(t *testing.T) {
	base := NewBase(nil, "Test", testDialect())
	tests := []struct {
		style string
		want  string
	}{
		{style: core.DatabaseStyleNone, want: ""},
		{style: core.DatabaseStyleUse, want: ""},
		{style: core.DatabaseStyleCreate, want: "CREATE DATABASE \"shop\";\n\n"},
		{style: core.DatabaseStyleDropCreate, want: "DROP DATABASE IF EXISTS \"shop\";\nCREATE DATABASE \"shop\";\n\n"},
	}

	for _, tt := range tests {
		t.Run(tt.style, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, base.DumpDatabase(context.Background(), &buf, "shop", tt.style))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}
