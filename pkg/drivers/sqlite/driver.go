package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/leapadmin/pkg/core"
	"github.com/leapstack-labs/leapadmin/pkg/driver"
	sqlitedialect "github.com/leapstack-labs/leapadmin/pkg/drivers/sqlite/dialect"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// Driver implements driver.Driver for SQLite.
type Driver struct {
	driver.BaseSQLDriver
}

// New creates a new SQLite driver instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Driver {
	d := &Driver{BaseSQLDriver: driver.NewBase(logger, "SQLite", sqlitedialect.SQLite)}
	d.Introspect = d
	d.Edit = editFunctions
	d.CreateSQL = d.masterSQL
	d.Truncate = func(quoted string) string { return "DELETE FROM " + quoted }
	d.UpsertSuffix = d.onConflictUpdate
	return d
}

var editFunctions = driver.EditFunctionTable{
	Update: []driver.TypeFunctions{
		driver.ForTypes("int|real|numeric|float|double|dec", "+", "-"),
		driver.ForTypes("char|clob|text", "||"),
	},
}

// Connect opens the database file.
func (d *Driver) Connect(ctx context.Context, cfg core.ConnectionConfig) error {
	uri, err := buildURI(cfg)
	if err != nil {
		return err
	}

	d.Logger.Debug("opening sqlite", slog.String("uri", uri))

	db, err := sql.Open("sqlite", uri)
	if err != nil {
		return fmt.Errorf("failed to open sqlite connection: %w", err)
	}
	// A single connection keeps pragmas and in-memory databases consistent.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite: %w", err)
	}

	d.DB = db
	d.Cfg = cfg
	return nil
}

// Database returns the file name of the main database.
func (d *Driver) Database(ctx context.Context) (string, error) {
	file, err := d.QueryString(ctx, "SELECT file FROM pragma_database_list WHERE name = 'main'")
	if err != nil {
		return "", err
	}
	if file == "" {
		return ":memory:", nil
	}
	return filepath.Base(file), nil
}

// Databases lists attached databases.
func (d *Driver) Databases(ctx context.Context) ([]string, error) {
	return d.QueryStrings(ctx, "SELECT name FROM pragma_database_list ORDER BY seq")
}

// TableStatus lists tables and views from sqlite_master.
// Row counts are not tracked by SQLite and are reported as unknown.
func (d *Driver) TableStatus(ctx context.Context, name string) ([]core.TableStatus, error) {
	query := "SELECT name, type FROM sqlite_master WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite\\_%' ESCAPE '\\'"
	if name != "" {
		query += " AND name = " + d.SQL.QuoteLiteral(name)
	}
	query += " ORDER BY name"

	rows, err := d.QueryRows(ctx, query)
	if err != nil {
		return nil, err
	}
	out := make([]core.TableStatus, 0, len(rows))
	for _, r := range rows {
		isView := r.String("type") == "view"
		engine := "table"
		if isView {
			engine = "view"
		}
		out = append(out, core.TableStatus{Name: r.String("name"), Engine: engine, Rows: -1, IsView: isView})
	}
	return out, nil
}

// Fields reads pragma_table_xinfo.
func (d *Driver) Fields(ctx context.Context, table string) ([]core.Field, error) {
	if d.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	rows, err := d.DB.QueryContext(ctx,
		`SELECT cid, name, type, "notnull", dflt_value, pk, hidden FROM pragma_table_xinfo(?) ORDER BY cid`, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var fields []core.Field
	pkCount := 0
	for rows.Next() {
		var cid, notnull, pk, hidden int
		var f core.Field
		var def sql.NullString
		if err := rows.Scan(&cid, &f.Name, &f.Type, &notnull, &def, &pk, &hidden); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		f.Position = cid + 1
		f.Null = notnull == 0 && pk == 0
		f.Primary = pk > 0
		if pk > 0 {
			pkCount++
		}
		if def.Valid {
			v := def.String
			f.Default = &v
		}
		if hidden >= 2 {
			f.Comment = "generated"
		}
		fields = append(fields, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("table %s not found", table)
	}

	// A sole INTEGER PRIMARY KEY aliases the rowid and is assigned automatically.
	if pkCount == 1 {
		for i := range fields {
			if fields[i].Primary && strings.EqualFold(fields[i].Type, "INTEGER") {
				fields[i].AutoIncrement = true
			}
		}
	}
	return fields, nil
}

// Indexes reads pragma_index_list and pragma_index_xinfo.
// A rowid primary key has no index entry and is reported from the columns.
func (d *Driver) Indexes(ctx context.Context, table string) ([]core.Index, error) {
	if d.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	rows, err := d.DB.QueryContext(ctx, `SELECT l.name, l."unique", l.origin, i.name, i."desc"
		FROM pragma_index_list(?) l JOIN pragma_index_xinfo(l.name) i
		WHERE i.key = 1
		ORDER BY l.origin = 'pk' DESC, l.name, i.seqno`, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query indexes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []core.Index
	for rows.Next() {
		var name, origin string
		var unique, desc int
		var column sql.NullString
		if err := rows.Scan(&name, &unique, &origin, &column, &desc); err != nil {
			return nil, fmt.Errorf("failed to scan index: %w", err)
		}
		if n := len(out); n == 0 || out[n-1].Name != name {
			kind := core.IndexPlain
			switch {
			case origin == "pk":
				kind = core.IndexPrimary
			case unique == 1:
				kind = core.IndexUnique
			}
			out = append(out, core.Index{Name: name, Kind: kind})
		}
		last := &out[len(out)-1]
		last.Columns = append(last.Columns, core.IndexColumn{Name: column.String, Descending: desc == 1})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating indexes: %w", err)
	}

	if len(out) == 0 || out[0].Kind != core.IndexPrimary {
		fields, err := d.Fields(ctx, table)
		if err != nil {
			return nil, err
		}
		var pk core.Index
		for _, f := range fields {
			if f.Primary {
				pk.Columns = append(pk.Columns, core.IndexColumn{Name: f.Name})
			}
		}
		if len(pk.Columns) > 0 {
			pk.Name, pk.Kind = "PRIMARY", core.IndexPrimary
			out = append([]core.Index{pk}, out...)
		}
	}
	return out, nil
}

// SQLite names foreign keys by position; referential actions come from the declaration.
const foreignKeysQuery = `SELECT 'fk_' || m.name || '_' || f.id, m.name, f."from", '', f."table",
		coalesce(f."to", ''), f.on_delete, f.on_update
	FROM sqlite_master m JOIN pragma_foreign_key_list(m.name) f
	WHERE m.type = 'table' AND `

// ForeignKeys reads pragma_foreign_key_list.
func (d *Driver) ForeignKeys(ctx context.Context, table string) ([]core.ForeignKey, error) {
	keys, err := d.QueryForeignKeys(ctx, foreignKeysQuery+"m.name = ? ORDER BY f.id, f.seq", table)
	if err != nil {
		return nil, err
	}
	return driver.Keys(keys), nil
}

// BackwardKeys scans the foreign keys of every table in one query.
func (d *Driver) BackwardKeys(ctx context.Context, table string) ([]core.BackwardKey, error) {
	return d.QueryForeignKeys(ctx, foreignKeysQuery+`f."table" = ? COLLATE NOCASE ORDER BY m.name, f.id, f.seq`, table)
}

// masterSQL returns the stored DDL of a table or view followed by its indexes.
func (d *Driver) masterSQL(ctx context.Context, table string, _ bool) (string, error) {
	stmts, err := d.QueryStrings(ctx,
		"SELECT sql FROM sqlite_master WHERE tbl_name = ? AND sql IS NOT NULL ORDER BY type IN ('index', 'trigger'), type, name", table)
	if err != nil {
		return "", err
	}
	if len(stmts) == 0 {
		return "", fmt.Errorf("table %s not found", table)
	}
	return strings.Join(stmts, ";\n"), nil
}

// onConflictUpdate relies on the untargeted DO UPDATE of SQLite 3.35 and later.
func (d *Driver) onConflictUpdate(columns []string) string {
	set := make([]string, len(columns))
	for i, c := range columns {
		q := d.SQL.QuoteIdentifier(c)
		set[i] = q + " = excluded." + q
	}
	return " ON CONFLICT DO UPDATE SET " + strings.Join(set, ", ")
}

// Ensure Driver implements driver.Driver interface
var _ driver.Driver = (*Driver)(nil)
