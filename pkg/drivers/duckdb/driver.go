package duckdb

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/leapstack-labs/leapadmin/pkg/core"
	"github.com/leapstack-labs/leapadmin/pkg/driver"
	duckdialect "github.com/leapstack-labs/leapadmin/pkg/drivers/duckdb/dialect"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

// Driver implements driver.Driver for DuckDB.
type Driver struct {
	driver.BaseSQLDriver
}

// New creates a new DuckDB driver instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Driver {
	d := &Driver{BaseSQLDriver: driver.NewBase(logger, "DuckDB", duckdialect.DuckDB)}
	d.Introspect = d
	d.Edit = editFunctions
	d.Literal = d.literal
	d.CreateSQL = d.catalogSQL
	return d
}

var editFunctions = driver.EditFunctionTable{
	Insert: []driver.TypeFunctions{
		driver.ForTypes("char|text", "md5"),
		driver.ForTypes("uuid", "uuid"),
		driver.ForTypes("date|time", "now"),
	},
	Update: []driver.TypeFunctions{
		driver.ForTypes("int|decimal|double|float|real", "+", "-"),
		driver.ForTypes("date|time", "+ interval", "- interval"),
		driver.ForTypes("char|text", "||"),
	},
}

// Connect opens a database file, or an in-memory database when no path is configured.
func (d *Driver) Connect(ctx context.Context, cfg core.ConnectionConfig) error {
	params, err := parseParams(cfg.Params)
	if err != nil {
		return err
	}
	path := databasePath(cfg, params)

	d.Logger.Debug("opening duckdb", slog.String("path", path))

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}

	d.DB = db
	d.Cfg = cfg

	for _, stmt := range setupStatements(params) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			d.DB = nil
			return fmt.Errorf("failed to apply duckdb setup %q: %w", strings.SplitN(stmt, "\n", 2)[0], err)
		}
	}
	if cfg.Schema != "" {
		if _, err := db.ExecContext(ctx, "SET schema = "+quote(cfg.Schema)); err != nil {
			_ = db.Close()
			d.DB = nil
			return fmt.Errorf("failed to set schema: %w", err)
		}
	}
	return nil
}

// Database returns the attached catalog in use.
func (d *Driver) Database(ctx context.Context) (string, error) {
	return d.QueryString(ctx, "SELECT current_database()")
}

// Databases lists attached catalogs.
func (d *Driver) Databases(ctx context.Context) ([]string, error) {
	return d.QueryStrings(ctx, "SELECT database_name FROM duckdb_databases() WHERE NOT internal ORDER BY database_name")
}

// Schemas lists schemas of the current catalog.
func (d *Driver) Schemas(ctx context.Context) ([]string, error) {
	return d.QueryStrings(ctx, "SELECT schema_name FROM duckdb_schemas() WHERE database_name = current_database() AND NOT internal ORDER BY schema_name")
}

func (d *Driver) schemaCond(table string) (cond, name string) {
	if parts := strings.SplitN(table, ".", 2); len(parts) == 2 {
		return "schema_name = " + d.SQL.QuoteLiteral(parts[0]), parts[1]
	}
	return "schema_name = current_schema()", table
}

// TableStatus lists tables and views from duckdb_tables() and duckdb_views().
func (d *Driver) TableStatus(ctx context.Context, name string) ([]core.TableStatus, error) {
	cond, rel := d.schemaCond(name)
	cond += " AND database_name = current_database()"
	tableCond, viewCond := cond, cond+" AND NOT internal"
	if name != "" {
		tableCond += " AND table_name = " + d.SQL.QuoteLiteral(rel)
		viewCond += " AND view_name = " + d.SQL.QuoteLiteral(rel)
	}
	query := `SELECT table_name AS name, 'BASE TABLE' AS engine, estimated_size AS rows, comment, FALSE AS is_view
		FROM duckdb_tables() WHERE ` + tableCond + `
	UNION ALL
	SELECT view_name, 'VIEW', NULL, comment, TRUE FROM duckdb_views() WHERE ` + viewCond + `
	ORDER BY name`

	rows, err := d.QueryRows(ctx, query)
	if err != nil {
		return nil, err
	}
	out := make([]core.TableStatus, 0, len(rows))
	for _, r := range rows {
		v, _ := r.Get("is_view")
		isView, _ := v.(bool)
		out = append(out, core.TableStatus{
			Name:    r.String("name"),
			Engine:  r.String("engine"),
			Rows:    driver.Int64(valueOf(r, "rows")),
			Comment: r.String("comment"),
			IsView:  isView,
		})
	}
	return out, nil
}

func valueOf(r core.Row, key string) any {
	v, _ := r.Get(key)
	return v
}

// Fields reads information_schema.columns and marks primary key columns.
func (d *Driver) Fields(ctx context.Context, table string) ([]core.Field, error) {
	fields, err := d.InformationSchemaFields(ctx, table)
	if err != nil {
		return nil, err
	}
	idx, err := d.Indexes(ctx, table)
	if err != nil {
		return nil, err
	}
	for _, ix := range idx {
		if ix.Kind != core.IndexPrimary {
			continue
		}
		for _, c := range ix.Columns {
			for i := range fields {
				if fields[i].Name == c.Name {
					fields[i].Primary = true
				}
			}
		}
	}
	return fields, nil
}

var indexColumns = regexp.MustCompile(`(?is)\bON\s+\S+\s*\((.*)\)\s*;?\s*$`)

// Indexes combines PRIMARY KEY and UNIQUE constraints with explicit indexes.
func (d *Driver) Indexes(ctx context.Context, table string) ([]core.Index, error) {
	if d.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	cond, rel := d.schemaCond(table)

	query := `SELECT constraint_type, constraint_index, unnest(constraint_column_names)
		FROM duckdb_constraints()
		WHERE constraint_type IN ('PRIMARY KEY', 'UNIQUE') AND database_name = current_database() AND ` + cond + ` AND table_name = ?
		ORDER BY constraint_type, constraint_index`
	rows, err := d.DB.QueryContext(ctx, query, rel)
	if err != nil {
		return nil, fmt.Errorf("failed to query constraints: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []core.Index
	lastIdx := int64(-1)
	for rows.Next() {
		var kind, column string
		var n int64
		if err := rows.Scan(&kind, &n, &column); err != nil {
			return nil, fmt.Errorf("failed to scan constraint: %w", err)
		}
		if len(out) == 0 || n != lastIdx {
			ix := core.Index{Kind: core.IndexUnique}
			if kind == "PRIMARY KEY" {
				ix.Kind, ix.Name = core.IndexPrimary, "PRIMARY"
			}
			out = append(out, ix)
			lastIdx = n
		}
		last := &out[len(out)-1]
		last.Columns = append(last.Columns, core.IndexColumn{Name: column})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating constraints: %w", err)
	}

	explicit, err := d.QueryRows(ctx, `SELECT index_name, is_unique, sql FROM duckdb_indexes()
		WHERE database_name = current_database() AND `+cond+` AND table_name = `+d.SQL.QuoteLiteral(rel)+`
		ORDER BY index_name`)
	if err != nil {
		return nil, err
	}
	for _, r := range explicit {
		ix := core.Index{Name: r.String("index_name"), Kind: core.IndexPlain}
		if v, _ := r.Get("is_unique"); v == true {
			ix.Kind = core.IndexUnique
		}
		if m := indexColumns.FindStringSubmatch(r.String("sql")); m != nil {
			for _, col := range strings.Split(m[1], ",") {
				col = strings.TrimSpace(col)
				desc := strings.HasSuffix(strings.ToUpper(col), " DESC")
				col = strings.TrimSpace(strings.TrimSuffix(strings.TrimSuffix(col, " DESC"), " desc"))
				ix.Columns = append(ix.Columns, core.IndexColumn{Name: strings.Trim(col, `"`), Descending: desc})
			}
		}
		out = append(out, ix)
	}
	return out, nil
}

// DuckDB does not enforce referential actions, they are reported as NO ACTION.
const foreignKeysQuery = `SELECT 'fk_' || table_name || '_' || constraint_index, table_name,
		unnest(constraint_column_names), schema_name, referenced_table, unnest(referenced_column_names),
		'NO ACTION', 'NO ACTION'
	FROM duckdb_constraints()
	WHERE constraint_type = 'FOREIGN KEY' AND database_name = current_database() AND `

// ForeignKeys returns keys declared on table.
func (d *Driver) ForeignKeys(ctx context.Context, table string) ([]core.ForeignKey, error) {
	cond, rel := d.schemaCond(table)
	keys, err := d.QueryForeignKeys(ctx, foreignKeysQuery+cond+" AND table_name = ? ORDER BY constraint_index", rel)
	if err != nil {
		return nil, err
	}
	return driver.Keys(keys), nil
}

// BackwardKeys returns keys of other tables referencing table.
func (d *Driver) BackwardKeys(ctx context.Context, table string) ([]core.BackwardKey, error) {
	cond, rel := d.schemaCond(table)
	return d.QueryForeignKeys(ctx, foreignKeysQuery+cond+" AND referenced_table = ? ORDER BY table_name, constraint_index", rel)
}

// catalogSQL returns the DDL DuckDB keeps for each table and view.
func (d *Driver) catalogSQL(ctx context.Context, table string, isView bool) (string, error) {
	cond, rel := d.schemaCond(table)
	query := "SELECT sql FROM duckdb_tables() WHERE database_name = current_database() AND " + cond + " AND table_name = ?"
	if isView {
		query = "SELECT sql FROM duckdb_views() WHERE database_name = current_database() AND " + cond + " AND view_name = ?"
	}
	ddl, err := d.QueryString(ctx, query, rel)
	if err != nil {
		return "", err
	}
	if ddl == "" {
		return d.GenericCreateTable(ctx, table)
	}
	return ddl, nil
}

// literal renders blobs with DuckDB's escaped byte syntax.
func (d *Driver) literal(v any) string {
	switch val := v.(type) {
	case bool:
		if val {
			return "TRUE"
		}
		return "FALSE"
	case []byte:
		if utf8.Valid(val) {
			return d.SQL.QuoteLiteral(string(val))
		}
		var b strings.Builder
		b.WriteByte('\'')
		for _, c := range val {
			b.WriteString(`\x`)
			b.WriteString(strings.ToUpper(hex.EncodeToString([]byte{c})))
		}
		b.WriteString("'::BLOB")
		return b.String()
	default:
		return d.DefaultLiteral(v)
	}
}

// Ensure Driver implements driver.Driver interface
var _ driver.Driver = (*Driver)(nil)
