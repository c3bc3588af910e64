package postgres

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/leapstack-labs/leapadmin/pkg/core"
	"github.com/leapstack-labs/leapadmin/pkg/driver"
	pgdialect "github.com/leapstack-labs/leapadmin/pkg/drivers/postgres/dialect"
	"github.com/lib/pq"
)

// Driver implements driver.Driver for PostgreSQL.
type Driver struct {
	driver.BaseSQLDriver
}

// New creates a new PostgreSQL driver instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Driver {
	d := &Driver{BaseSQLDriver: driver.NewBase(logger, "PostgreSQL", pgdialect.Postgres)}
	d.Introspect = d
	d.Edit = editFunctions
	d.Literal = d.literal
	d.CreateSQL = d.createSQL
	return d
}

var editFunctions = driver.EditFunctionTable{
	Insert: []driver.TypeFunctions{
		driver.ForTypes("char", "md5"),
		driver.ForTypes("date|time", "now"),
	},
	Update: []driver.TypeFunctions{
		driver.ForTypes("int|numeric|real|money", "+", "-"),
		driver.ForTypes("date|time", "+ interval", "- interval"),
		driver.ForTypes("char|text", "||"),
	},
}

// Connect establishes a connection to PostgreSQL.
func (d *Driver) Connect(ctx context.Context, cfg core.ConnectionConfig) error {
	dsn, err := buildPostgresDSN(cfg)
	if err != nil {
		return err
	}

	d.Logger.Debug("connecting to postgres", slog.String("server", cfg.Server), slog.String("database", cfg.Database))

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to open postgres connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping postgres: %w", err)
	}

	d.DB = db
	d.Cfg = cfg
	return nil
}

// Database returns the current database.
func (d *Driver) Database(ctx context.Context) (string, error) {
	return d.QueryString(ctx, "SELECT current_database()")
}

// Databases lists databases accepting connections.
func (d *Driver) Databases(ctx context.Context) ([]string, error) {
	return d.QueryStrings(ctx, "SELECT datname FROM pg_database WHERE datallowconn = TRUE AND has_database_privilege(datname, 'CONNECT') ORDER BY datname")
}

// Schemas lists schemas of the current database.
func (d *Driver) Schemas(ctx context.Context) ([]string, error) {
	return d.QueryStrings(ctx, "SELECT nspname FROM pg_namespace ORDER BY nspname")
}

// schemaCond restricts a namespace column to the schema of table, or current_schema().
func (d *Driver) schemaCond(column, table string) (cond, name string) {
	if parts := strings.SplitN(table, ".", 2); len(parts) == 2 {
		return column + " = " + d.SQL.QuoteLiteral(parts[0]), parts[1]
	}
	return column + " = current_schema()", table
}

// TableStatus reads pg_class for tables, views and materialized views.
func (d *Driver) TableStatus(ctx context.Context, name string) ([]core.TableStatus, error) {
	cond, rel := d.schemaCond("n.nspname", name)
	query := `SELECT c.relname AS name, c.relkind::text AS kind,
		CASE c.relkind WHEN 'r' THEN 'table' WHEN 'p' THEN 'partitioned table' WHEN 'f' THEN 'foreign table'
			WHEN 'm' THEN 'materialized view' ELSE 'view' END AS engine,
		c.reltuples::bigint AS rows, pg_relation_size(c.oid) AS data_length,
		pg_total_relation_size(c.oid) - pg_relation_size(c.oid) AS index_length,
		obj_description(c.oid, 'pg_class') AS comment
	FROM pg_class c JOIN pg_namespace n ON n.oid = c.relnamespace
	WHERE c.relkind IN ('r', 'm', 'v', 'f', 'p') AND ` + cond
	if name != "" {
		query += " AND c.relname = " + d.SQL.QuoteLiteral(rel)
	}
	query += " ORDER BY c.relname"

	rows, err := d.QueryRows(ctx, query)
	if err != nil {
		return nil, err
	}

	out := make([]core.TableStatus, 0, len(rows))
	for _, r := range rows {
		kind := r.String("kind")
		out = append(out, core.TableStatus{
			Name:        r.String("name"),
			Engine:      r.String("engine"),
			Rows:        driver.Int64(valueOf(r, "rows")),
			DataLength:  driver.Int64(valueOf(r, "data_length")),
			IndexLength: driver.Int64(valueOf(r, "index_length")),
			Comment:     r.String("comment"),
			IsView:      kind == "v" || kind == "m",
		})
	}
	return out, nil
}

func valueOf(r core.Row, key string) any {
	v, _ := r.Get(key)
	return v
}

// Fields reads pg_attribute with declared types and defaults.
func (d *Driver) Fields(ctx context.Context, table string) ([]core.Field, error) {
	if d.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	cond, rel := d.schemaCond("n.nspname", table)
	query := `SELECT a.attname, format_type(a.atttypid, a.atttypmod), pg_get_expr(ad.adbin, ad.adrelid),
		NOT a.attnotnull, coalesce(col_description(c.oid, a.attnum), ''), a.attnum,
		coalesce(a.attidentity::text, '') <> '',
		EXISTS (SELECT 1 FROM pg_index i WHERE i.indrelid = c.oid AND i.indisprimary AND a.attnum = ANY(i.indkey)),
		coalesce(co.collname, '')
	FROM pg_class c
	JOIN pg_namespace n ON n.oid = c.relnamespace
	JOIN pg_attribute a ON a.attrelid = c.oid
	LEFT JOIN pg_attrdef ad ON ad.adrelid = c.oid AND ad.adnum = a.attnum
	LEFT JOIN pg_collation co ON co.oid = a.attcollation AND co.collname <> 'default'
	WHERE c.relname = $1 AND ` + cond + ` AND NOT a.attisdropped AND a.attnum > 0
	ORDER BY a.attnum`

	rows, err := d.DB.QueryContext(ctx, query, rel)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var fields []core.Field
	for rows.Next() {
		var f core.Field
		var def sql.NullString
		var identity bool
		if err := rows.Scan(&f.Name, &f.Type, &def, &f.Null, &f.Comment, &f.Position, &identity, &f.Primary, &f.Collation); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		if def.Valid {
			v := def.String
			f.Default = &v
			f.AutoIncrement = strings.HasPrefix(v, "nextval(")
		}
		f.AutoIncrement = f.AutoIncrement || identity
		fields = append(fields, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("table %s not found", table)
	}
	return fields, nil
}

// Indexes reads pg_index, one row per indexed column.
func (d *Driver) Indexes(ctx context.Context, table string) ([]core.Index, error) {
	if d.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	cond, rel := d.schemaCond("n.nspname", table)
	query := `SELECT i.relname, ix.indisprimary, ix.indisunique, a.attname, (ix.indoption[k.n - 1] & 1) = 1
	FROM pg_index ix
	JOIN pg_class t ON t.oid = ix.indrelid
	JOIN pg_class i ON i.oid = ix.indexrelid
	JOIN pg_namespace n ON n.oid = t.relnamespace
	CROSS JOIN LATERAL unnest(ix.indkey) WITH ORDINALITY AS k(attnum, n)
	JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = k.attnum
	WHERE t.relname = $1 AND ` + cond + `
	ORDER BY ix.indisprimary DESC, ix.indisunique DESC, i.relname, k.n`

	rows, err := d.DB.QueryContext(ctx, query, rel)
	if err != nil {
		return nil, fmt.Errorf("failed to query indexes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []core.Index
	for rows.Next() {
		var name, column string
		var primary, unique, desc bool
		if err := rows.Scan(&name, &primary, &unique, &column, &desc); err != nil {
			return nil, fmt.Errorf("failed to scan index: %w", err)
		}
		if n := len(out); n == 0 || out[n-1].Name != name {
			kind := core.IndexPlain
			switch {
			case primary:
				kind = core.IndexPrimary
			case unique:
				kind = core.IndexUnique
			}
			out = append(out, core.Index{Name: name, Kind: kind})
		}
		last := &out[len(out)-1]
		last.Columns = append(last.Columns, core.IndexColumn{Name: column, Descending: desc})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating indexes: %w", err)
	}
	return out, nil
}

const foreignKeysQuery = `SELECT con.conname, src.relname, sa.attname, tn.nspname, tgt.relname, ta.attname,
		CASE con.confdeltype WHEN 'r' THEN 'RESTRICT' WHEN 'c' THEN 'CASCADE' WHEN 'n' THEN 'SET NULL' WHEN 'd' THEN 'SET DEFAULT' ELSE 'NO ACTION' END,
		CASE con.confupdtype WHEN 'r' THEN 'RESTRICT' WHEN 'c' THEN 'CASCADE' WHEN 'n' THEN 'SET NULL' WHEN 'd' THEN 'SET DEFAULT' ELSE 'NO ACTION' END
	FROM pg_constraint con
	JOIN pg_class src ON src.oid = con.conrelid
	JOIN pg_namespace sn ON sn.oid = src.relnamespace
	JOIN pg_class tgt ON tgt.oid = con.confrelid
	JOIN pg_namespace tn ON tn.oid = tgt.relnamespace
	CROSS JOIN LATERAL unnest(con.conkey, con.confkey) WITH ORDINALITY AS k(src_att, tgt_att, n)
	JOIN pg_attribute sa ON sa.attrelid = con.conrelid AND sa.attnum = k.src_att
	JOIN pg_attribute ta ON ta.attrelid = con.confrelid AND ta.attnum = k.tgt_att
	WHERE con.contype = 'f' AND `

// ForeignKeys returns keys declared on table.
func (d *Driver) ForeignKeys(ctx context.Context, table string) ([]core.ForeignKey, error) {
	cond, rel := d.schemaCond("sn.nspname", table)
	keys, err := d.QueryForeignKeys(ctx, foreignKeysQuery+cond+" AND src.relname = $1 ORDER BY con.conname, k.n", rel)
	if err != nil {
		return nil, err
	}
	return driver.Keys(keys), nil
}

// BackwardKeys returns keys of other tables referencing table in one catalog query.
func (d *Driver) BackwardKeys(ctx context.Context, table string) ([]core.BackwardKey, error) {
	cond, rel := d.schemaCond("tn.nspname", table)
	return d.QueryForeignKeys(ctx, foreignKeysQuery+cond+" AND tgt.relname = $1 ORDER BY src.relname, con.conname, k.n", rel)
}

// ProcessList returns pg_stat_activity with the own session first.
func (d *Driver) ProcessList(ctx context.Context) ([]core.Row, error) {
	return d.QueryRows(ctx, "SELECT * FROM pg_stat_activity ORDER BY (pid = pg_backend_pid()) DESC, pid")
}

// ProcessEntry keeps the query only for sessions that are not idle.
func (d *Driver) ProcessEntry(row core.Row) core.ProcessEntry {
	e := d.BaseSQLDriver.ProcessEntry(row)
	if e.Query == "<IDLE>" || strings.HasPrefix(e.State, "idle") {
		e.Query = ""
	}
	return e
}

// KillProcess terminates a backend with pg_terminate_backend.
func (d *Driver) KillProcess(ctx context.Context, id string) error {
	n, err := driver.ParseProcessID(id)
	if err != nil {
		return err
	}
	stmt := "SELECT pg_terminate_backend(" + strconv.FormatUint(n, 10) + ")"
	ok, err := d.QueryString(ctx, stmt)
	if err != nil {
		return core.NewDriverError(stmt, err)
	}
	if ok != "true" && ok != "t" {
		return core.NewDriverError(stmt, fmt.Errorf("process %d was not terminated", n))
	}
	return nil
}

// MaxConnections reads the max_connections setting.
func (d *Driver) MaxConnections(ctx context.Context) (int, error) {
	v, err := d.QueryString(ctx, "SHOW max_connections")
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("unexpected max_connections %q: %w", v, err)
	}
	return n, nil
}

// createSQL renders views from pg_get_viewdef and tables from the catalog.
func (d *Driver) createSQL(ctx context.Context, table string, isView bool) (string, error) {
	if !isView {
		return d.GenericCreateTable(ctx, table)
	}
	def, err := d.QueryString(ctx, "SELECT pg_get_viewdef($1::regclass, true)", d.QuotedTable(table))
	if err != nil {
		return "", err
	}
	return "CREATE VIEW " + d.QuotedTable(table) + " AS\n" + strings.TrimRight(def, "; \n"), nil
}

// literal renders dump values; strings go through lib/pq so backslashes become E'' literals.
func (d *Driver) literal(v any) string {
	switch val := v.(type) {
	case string:
		return pq.QuoteLiteral(val)
	case []byte:
		if !utf8.Valid(val) {
			return `'\x` + hex.EncodeToString(val) + `'::bytea`
		}
		return pq.QuoteLiteral(string(val))
	case bool:
		if val {
			return "TRUE"
		}
		return "FALSE"
	case time.Time:
		return pq.QuoteLiteral(val.Format(time.RFC3339Nano))
	default:
		return d.DefaultLiteral(v)
	}
}

// DumpData streams delimited formats through COPY TO STDOUT when connected through pgx.
func (d *Driver) DumpData(ctx context.Context, w io.Writer, table, style, format, query string) error {
	if format == core.FormatSQL || style == core.DataStyleNone || d.DB == nil {
		return d.BaseSQLDriver.DumpData(ctx, w, table, style, format, query)
	}
	if query == "" {
		query = "SELECT * FROM " + d.QuotedTable(table)
	}
	delimiter := ","
	switch format {
	case core.FormatCSVSemicolon:
		delimiter = ";"
	case core.FormatTSV:
		delimiter = "\t"
	}
	copySQL := fmt.Sprintf("COPY (%s) TO STDOUT WITH (FORMAT csv, HEADER true, DELIMITER %s)",
		query, pq.QuoteLiteral(delimiter))

	conn, err := d.DB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	usedCopy := false
	err = conn.Raw(func(driverConn any) error {
		pgxConn, ok := driverConn.(*stdlib.Conn)
		if !ok {
			return nil
		}
		usedCopy = true
		_, err := pgxConn.Conn().PgConn().CopyTo(ctx, w, copySQL)
		return err
	})
	if err != nil {
		return core.NewDriverError(copySQL, err)
	}
	if !usedCopy {
		return d.BaseSQLDriver.DumpData(ctx, w, table, style, format, query)
	}
	return nil
}

// Ensure Driver implements driver.Driver interface
var _ driver.Driver = (*Driver)(nil)
