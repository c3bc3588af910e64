package mssql

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	_ "github.com/denisenkom/go-mssqldb" // sqlserver driver
	"github.com/leapstack-labs/leapadmin/pkg/core"
	"github.com/leapstack-labs/leapadmin/pkg/driver"
	mssqldialect "github.com/leapstack-labs/leapadmin/pkg/drivers/mssql/dialect"
)

// Driver implements driver.Driver for Microsoft SQL Server.
type Driver struct {
	driver.BaseSQLDriver
}

// New creates a new SQL Server driver instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Driver {
	d := &Driver{BaseSQLDriver: driver.NewBase(logger, "MS SQL", mssqldialect.MSSQL)}
	d.Introspect = d
	d.Edit = editFunctions
	d.Literal = d.literal
	d.CreateSQL = d.objectDefinition
	// A VALUES list is capped at 1000 rows, so dumps write one statement per row.
	d.InsertBatch = 0
	return d
}

var editFunctions = driver.EditFunctionTable{
	Insert: []driver.TypeFunctions{
		driver.ForTypes("uniqueidentifier", "newid"),
		driver.ForTypes("date|time", "getdate"),
	},
	Update: []driver.TypeFunctions{
		driver.ForTypes("int|decimal|numeric|float|real|money", "+", "-"),
		driver.ForTypes("char|text", "+"),
	},
}

// Connect establishes a connection to SQL Server.
func (d *Driver) Connect(ctx context.Context, cfg core.ConnectionConfig) error {
	dsn, err := buildURL(cfg)
	if err != nil {
		return err
	}

	d.Logger.Debug("connecting to sqlserver", slog.String("server", cfg.Server), slog.String("database", cfg.Database))

	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlserver connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlserver: %w", err)
	}

	d.DB = db
	d.Cfg = cfg
	return nil
}

// Database returns the current database.
func (d *Driver) Database(ctx context.Context) (string, error) {
	return d.QueryString(ctx, "SELECT DB_NAME()")
}

// Databases lists databases on the server.
func (d *Driver) Databases(ctx context.Context) ([]string, error) {
	return d.QueryStrings(ctx, "SELECT name FROM sys.databases ORDER BY name")
}

// Schemas lists schemas of the current database.
func (d *Driver) Schemas(ctx context.Context) ([]string, error) {
	return d.QueryStrings(ctx, "SELECT name FROM sys.schemas ORDER BY name")
}

// objectName returns the schema-qualified, quoted name passed to OBJECT_ID.
func (d *Driver) objectName(table string) string {
	schema, name := d.ParseQualifiedName(table)
	return d.SQL.QuoteTable(schema, name)
}

// TableStatus reads sys.objects for user tables and views.
func (d *Driver) TableStatus(ctx context.Context, name string) ([]core.TableStatus, error) {
	schemaCond := "SCHEMA_NAME()"
	rel := name
	if parts := strings.SplitN(name, ".", 2); len(parts) == 2 {
		schemaCond, rel = d.SQL.QuoteLiteral(parts[0]), parts[1]
	} else if d.Cfg.Schema != "" {
		schemaCond = d.SQL.QuoteLiteral(d.Cfg.Schema)
	}

	query := `SELECT o.name, o.type_desc AS engine, CASE o.type WHEN 'V' THEN 1 ELSE 0 END AS is_view,
		(SELECT SUM(p.rows) FROM sys.partitions p WHERE p.object_id = o.object_id AND p.index_id IN (0, 1)) AS rows,
		(SELECT SUM(a.used_pages) * 8192 FROM sys.partitions p JOIN sys.allocation_units a ON a.container_id = p.partition_id
			WHERE p.object_id = o.object_id AND p.index_id IN (0, 1)) AS data_length,
		CAST(ep.value AS nvarchar(max)) AS comment
	FROM sys.objects o
	JOIN sys.schemas s ON s.schema_id = o.schema_id
	LEFT JOIN sys.extended_properties ep ON ep.major_id = o.object_id AND ep.minor_id = 0 AND ep.name = 'MS_Description'
	WHERE o.type IN ('U', 'V') AND s.name = ` + schemaCond
	if name != "" {
		query += " AND o.name = " + d.SQL.QuoteLiteral(rel)
	}
	query += " ORDER BY o.name"

	rows, err := d.QueryRows(ctx, query)
	if err != nil {
		return nil, err
	}
	out := make([]core.TableStatus, 0, len(rows))
	for _, r := range rows {
		isView := driver.Int64(valueOf(r, "is_view")) == 1
		ts := core.TableStatus{
			Name:       r.String("name"),
			Engine:     r.String("engine"),
			Rows:       driver.Int64(valueOf(r, "rows")),
			DataLength: driver.Int64(valueOf(r, "data_length")),
			Comment:    r.String("comment"),
			IsView:     isView,
		}
		out = append(out, ts)
	}
	return out, nil
}

func valueOf(r core.Row, key string) any {
	v, _ := r.Get(key)
	return v
}

// Fields reads sys.columns with the declared length folded into the type.
func (d *Driver) Fields(ctx context.Context, table string) ([]core.Field, error) {
	if d.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	query := `SELECT c.name,
		TYPE_NAME(c.user_type_id) + CASE
			WHEN TYPE_NAME(c.user_type_id) IN ('varchar', 'char', 'varbinary', 'binary')
				THEN '(' + CASE c.max_length WHEN -1 THEN 'max' ELSE CAST(c.max_length AS varchar(10)) END + ')'
			WHEN TYPE_NAME(c.user_type_id) IN ('nvarchar', 'nchar')
				THEN '(' + CASE c.max_length WHEN -1 THEN 'max' ELSE CAST(c.max_length / 2 AS varchar(10)) END + ')'
			ELSE '' END,
		c.is_nullable, OBJECT_DEFINITION(c.default_object_id), c.column_id, c.is_identity,
		CAST(CASE WHEN EXISTS (
			SELECT 1 FROM sys.index_columns ic JOIN sys.indexes i ON i.object_id = ic.object_id AND i.index_id = ic.index_id
			WHERE i.is_primary_key = 1 AND ic.object_id = c.object_id AND ic.column_id = c.column_id
		) THEN 1 ELSE 0 END AS bit),
		coalesce(CAST(ep.value AS nvarchar(max)), ''), coalesce(c.collation_name, '')
	FROM sys.columns c
	LEFT JOIN sys.extended_properties ep ON ep.major_id = c.object_id AND ep.minor_id = c.column_id AND ep.name = 'MS_Description'
	WHERE c.object_id = OBJECT_ID(@p1)
	ORDER BY c.column_id`

	rows, err := d.DB.QueryContext(ctx, query, d.objectName(table))
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var fields []core.Field
	for rows.Next() {
		var f core.Field
		var def sql.NullString
		if err := rows.Scan(&f.Name, &f.Type, &f.Null, &def, &f.Position, &f.AutoIncrement, &f.Primary, &f.Comment, &f.Collation); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		if def.Valid {
			v := def.String
			f.Default = &v
		}
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

// Indexes reads sys.indexes, skipping included columns.
func (d *Driver) Indexes(ctx context.Context, table string) ([]core.Index, error) {
	if d.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	query := `SELECT i.name, i.is_primary_key, i.is_unique, c.name, ic.is_descending_key
	FROM sys.indexes i
	JOIN sys.index_columns ic ON ic.object_id = i.object_id AND ic.index_id = i.index_id
	JOIN sys.columns c ON c.object_id = ic.object_id AND c.column_id = ic.column_id
	WHERE i.object_id = OBJECT_ID(@p1) AND ic.is_included_column = 0
	ORDER BY i.is_primary_key DESC, i.is_unique DESC, i.name, ic.key_ordinal`

	rows, err := d.DB.QueryContext(ctx, query, d.objectName(table))
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

const foreignKeysQuery = `SELECT fk.name, OBJECT_NAME(fk.parent_object_id), pc.name, SCHEMA_NAME(rt.schema_id), rt.name, rc.name,
		REPLACE(fk.delete_referential_action_desc, '_', ' '), REPLACE(fk.update_referential_action_desc, '_', ' ')
	FROM sys.foreign_keys fk
	JOIN sys.foreign_key_columns fkc ON fkc.constraint_object_id = fk.object_id
	JOIN sys.columns pc ON pc.object_id = fkc.parent_object_id AND pc.column_id = fkc.parent_column_id
	JOIN sys.tables rt ON rt.object_id = fkc.referenced_object_id
	JOIN sys.columns rc ON rc.object_id = fkc.referenced_object_id AND rc.column_id = fkc.referenced_column_id
	WHERE `

// ForeignKeys reads sys.foreign_keys declared on table.
func (d *Driver) ForeignKeys(ctx context.Context, table string) ([]core.ForeignKey, error) {
	keys, err := d.QueryForeignKeys(ctx,
		foreignKeysQuery+"fk.parent_object_id = OBJECT_ID(@p1) ORDER BY fk.name, fkc.constraint_column_id", d.objectName(table))
	if err != nil {
		return nil, err
	}
	return driver.Keys(keys), nil
}

// BackwardKeys reads sys.foreign_keys referencing table.
func (d *Driver) BackwardKeys(ctx context.Context, table string) ([]core.BackwardKey, error) {
	return d.QueryForeignKeys(ctx,
		foreignKeysQuery+"fk.referenced_object_id = OBJECT_ID(@p1) ORDER BY OBJECT_NAME(fk.parent_object_id), fk.name, fkc.constraint_column_id",
		d.objectName(table))
}

// ProcessList returns user sessions joined with their running request, own session first.
func (d *Driver) ProcessList(ctx context.Context) ([]core.Row, error) {
	return d.QueryRows(ctx, `SELECT s.session_id, s.login_name, s.host_name, DB_NAME(s.database_id) AS database_name,
		s.status, r.command, r.total_elapsed_time, r.wait_type AS state, t.text
	FROM sys.dm_exec_sessions s
	LEFT JOIN sys.dm_exec_requests r ON r.session_id = s.session_id
	OUTER APPLY sys.dm_exec_sql_text(r.sql_handle) t
	WHERE s.is_user_process = 1
	ORDER BY CASE WHEN s.session_id = @@SPID THEN 0 ELSE 1 END, s.session_id`)
}

// KillProcess terminates a session with KILL.
func (d *Driver) KillProcess(ctx context.Context, id string) error {
	n, err := driver.ParseProcessID(id)
	if err != nil {
		return err
	}
	stmt := "KILL " + strconv.FormatUint(n, 10)
	if _, err := d.Exec(ctx, stmt); err != nil {
		return core.NewDriverError(stmt, err)
	}
	return nil
}

// MaxConnections reads @@MAX_CONNECTIONS.
func (d *Driver) MaxConnections(ctx context.Context) (int, error) {
	v, err := d.QueryString(ctx, "SELECT @@MAX_CONNECTIONS")
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("unexpected max_connections %q: %w", v, err)
	}
	return n, nil
}

// objectDefinition returns stored view DDL; tables are rendered from the catalog.
func (d *Driver) objectDefinition(ctx context.Context, table string, isView bool) (string, error) {
	if !isView {
		return d.GenericCreateTable(ctx, table)
	}
	def, err := d.QueryString(ctx, "SELECT OBJECT_DEFINITION(OBJECT_ID(@p1))", d.objectName(table))
	if err != nil {
		return "", err
	}
	if def == "" {
		return "", fmt.Errorf("no definition available for %s", table)
	}
	return strings.TrimSpace(def), nil
}

// literal uses N'' for text outside ASCII and 0x for binary.
func (d *Driver) literal(v any) string {
	switch val := v.(type) {
	case string:
		return nstring(d.SQL.QuoteLiteral(val), val)
	case []byte:
		return "0x" + strings.ToUpper(hex.EncodeToString(val))
	case time.Time:
		return "'" + val.Format("2006-01-02T15:04:05.999") + "'"
	default:
		return d.DefaultLiteral(v)
	}
}

func nstring(quoted, raw string) string {
	for i := 0; i < len(raw); i++ {
		if raw[i] >= 0x80 {
			return "N" + quoted
		}
	}
	return quoted
}

// Ensure Driver implements driver.Driver interface
var _ driver.Driver = (*Driver)(nil)
