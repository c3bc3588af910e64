package oracle

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/leapstack-labs/leapadmin/pkg/core"
	"github.com/leapstack-labs/leapadmin/pkg/driver"
	oradialect "github.com/leapstack-labs/leapadmin/pkg/drivers/oracle/dialect"
)

// Driver implements driver.Driver for Oracle Database.
type Driver struct {
	driver.BaseSQLDriver
}

// New creates a new Oracle driver instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Driver {
	d := &Driver{BaseSQLDriver: driver.NewBase(logger, "Oracle", oradialect.Oracle)}
	d.Introspect = d
	d.Edit = editFunctions
	d.Literal = d.literal
	d.CreateSQL = d.metadataDDL
	// Oracle has no multi-row VALUES list.
	d.InsertBatch = 0
	return d
}

var editFunctions = driver.EditFunctionTable{
	Insert: []driver.TypeFunctions{
		driver.ForTypes("^date", "current_date"),
		driver.ForTypes("timestamp", "current_timestamp"),
	},
	Update: []driver.TypeFunctions{
		driver.ForTypes("number|float|binary_", "+", "-"),
		driver.ForTypes("char|clob", "||"),
	},
}

// Connect establishes a connection to Oracle.
func (d *Driver) Connect(ctx context.Context, cfg core.ConnectionConfig) error {
	dsn, err := buildURL(cfg)
	if err != nil {
		return err
	}

	d.Logger.Debug("connecting to oracle", slog.String("server", cfg.Server), slog.String("service", cfg.Database))

	db, err := sql.Open("oracle", dsn)
	if err != nil {
		return fmt.Errorf("failed to open oracle connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping oracle: %w", err)
	}

	if cfg.Schema != "" {
		if _, err := db.ExecContext(ctx, "ALTER SESSION SET CURRENT_SCHEMA = "+d.SQL.QuoteIdentifier(cfg.Schema)); err != nil {
			_ = db.Close()
			return fmt.Errorf("failed to set schema: %w", err)
		}
		// The session setting must apply to every statement.
		db.SetMaxOpenConns(1)
	}

	d.DB = db
	d.Cfg = cfg
	return nil
}

// Database returns the database name of the session.
func (d *Driver) Database(ctx context.Context) (string, error) {
	return d.QueryString(ctx, "SELECT SYS_CONTEXT('USERENV', 'DB_NAME') FROM DUAL")
}

// Databases lists the tablespaces visible to the user.
func (d *Driver) Databases(ctx context.Context) ([]string, error) {
	return d.QueryStrings(ctx, "SELECT tablespace_name FROM user_tablespaces ORDER BY 1")
}

// Schemas lists database users, each of which owns a schema.
func (d *Driver) Schemas(ctx context.Context) ([]string, error) {
	return d.QueryStrings(ctx, "SELECT username FROM all_users ORDER BY username")
}

// owner returns the SQL expression naming the schema of table, and the bare table name.
func (d *Driver) owner(table string) (string, string) {
	if parts := strings.SplitN(table, ".", 2); len(parts) == 2 {
		return d.SQL.QuoteLiteral(parts[0]), parts[1]
	}
	if d.Cfg.Schema != "" {
		return d.SQL.QuoteLiteral(d.Cfg.Schema), table
	}
	return "SYS_CONTEXT('USERENV', 'CURRENT_SCHEMA')", table
}

// TableStatus lists tables and views of the current schema.
func (d *Driver) TableStatus(ctx context.Context, name string) ([]core.TableStatus, error) {
	owner, rel := d.owner(name)
	tableCond, viewCond := "owner = "+owner, "owner = "+owner
	if name != "" {
		tableCond += " AND table_name = " + d.SQL.QuoteLiteral(rel)
		viewCond += " AND view_name = " + d.SQL.QuoteLiteral(rel)
	}
	query := `SELECT table_name AS "name", 'table' AS "engine", num_rows AS "rows", 0 AS "is_view" FROM all_tables WHERE ` + tableCond + `
	UNION ALL
	SELECT view_name, 'view', NULL, 1 FROM all_views WHERE ` + viewCond + `
	ORDER BY 1`

	rows, err := d.QueryRows(ctx, query)
	if err != nil {
		return nil, err
	}
	out := make([]core.TableStatus, 0, len(rows))
	for _, r := range rows {
		out = append(out, core.TableStatus{
			Name:   r.String("name"),
			Engine: r.String("engine"),
			Rows:   driver.Int64(valueOf(r, "rows")),
			IsView: driver.Int64(valueOf(r, "is_view")) == 1,
		})
	}
	return out, nil
}

func valueOf(r core.Row, key string) any {
	v, _ := r.Get(key)
	return v
}

// Fields reads all_tab_columns with lengths folded into the type.
func (d *Driver) Fields(ctx context.Context, table string) ([]core.Field, error) {
	if d.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	owner, rel := d.owner(table)
	query := `SELECT c.column_name,
		c.data_type || CASE
			WHEN c.data_type IN ('VARCHAR2', 'NVARCHAR2', 'CHAR', 'NCHAR', 'RAW') THEN '(' || c.char_length || ')'
			WHEN c.data_type = 'NUMBER' AND c.data_precision IS NOT NULL THEN '(' || c.data_precision || ',' || c.data_scale || ')'
		END,
		c.nullable, c.data_default, c.column_id, c.identity_column,
		CASE WHEN EXISTS (
			SELECT 1 FROM all_constraints k
			JOIN all_cons_columns kc ON kc.owner = k.owner AND kc.constraint_name = k.constraint_name
			WHERE k.constraint_type = 'P' AND k.owner = c.owner AND k.table_name = c.table_name AND kc.column_name = c.column_name
		) THEN 1 ELSE 0 END,
		cc.comments
	FROM all_tab_columns c
	LEFT JOIN all_col_comments cc ON cc.owner = c.owner AND cc.table_name = c.table_name AND cc.column_name = c.column_name
	WHERE c.owner = ` + owner + ` AND c.table_name = :1
	ORDER BY c.column_id`

	rows, err := d.DB.QueryContext(ctx, query, rel)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var fields []core.Field
	for rows.Next() {
		var f core.Field
		var nullable, identity string
		var def, comment sql.NullString
		var pk int64
		if err := rows.Scan(&f.Name, &f.Type, &nullable, &def, &f.Position, &identity, &pk, &comment); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		f.Null = nullable == "Y"
		f.AutoIncrement = identity == "YES"
		f.Primary = pk == 1
		f.Comment = comment.String
		if def.Valid {
			v := strings.TrimSpace(def.String)
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

// Indexes reads all_indexes and all_ind_columns.
func (d *Driver) Indexes(ctx context.Context, table string) ([]core.Index, error) {
	if d.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	owner, rel := d.owner(table)
	query := `SELECT i.index_name,
		CASE WHEN k.constraint_type = 'P' THEN 1 ELSE 0 END,
		CASE i.uniqueness WHEN 'UNIQUE' THEN 1 ELSE 0 END,
		ic.column_name,
		CASE ic.descend WHEN 'DESC' THEN 1 ELSE 0 END
	FROM all_indexes i
	JOIN all_ind_columns ic ON ic.index_owner = i.owner AND ic.index_name = i.index_name
	LEFT JOIN all_constraints k ON k.owner = i.table_owner AND k.index_name = i.index_name AND k.constraint_type = 'P'
	WHERE i.table_owner = ` + owner + ` AND i.table_name = :1
	ORDER BY 2 DESC, 3 DESC, i.index_name, ic.column_position`

	rows, err := d.DB.QueryContext(ctx, query, rel)
	if err != nil {
		return nil, fmt.Errorf("failed to query indexes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []core.Index
	for rows.Next() {
		var name, column string
		var primary, unique, desc int64
		if err := rows.Scan(&name, &primary, &unique, &column, &desc); err != nil {
			return nil, fmt.Errorf("failed to scan index: %w", err)
		}
		if n := len(out); n == 0 || out[n-1].Name != name {
			kind := core.IndexPlain
			switch {
			case primary == 1:
				kind = core.IndexPrimary
			case unique == 1:
				kind = core.IndexUnique
			}
			out = append(out, core.Index{Name: name, Kind: kind})
		}
		last := &out[len(out)-1]
		last.Columns = append(last.Columns, core.IndexColumn{Name: column, Descending: desc == 1})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating indexes: %w", err)
	}
	return out, nil
}

// Oracle has no ON UPDATE action.
const foreignKeysQuery = `SELECT c.constraint_name, c.table_name, cc.column_name, r.owner, r.table_name, rc.column_name,
		c.delete_rule, 'NO ACTION'
	FROM all_constraints c
	JOIN all_cons_columns cc ON cc.owner = c.owner AND cc.constraint_name = c.constraint_name
	JOIN all_constraints r ON r.owner = c.r_owner AND r.constraint_name = c.r_constraint_name
	JOIN all_cons_columns rc ON rc.owner = r.owner AND rc.constraint_name = r.constraint_name AND rc.position = cc.position
	WHERE c.constraint_type = 'R' AND `

// ForeignKeys returns keys declared on table.
func (d *Driver) ForeignKeys(ctx context.Context, table string) ([]core.ForeignKey, error) {
	owner, rel := d.owner(table)
	keys, err := d.QueryForeignKeys(ctx,
		foreignKeysQuery+"c.owner = "+owner+" AND c.table_name = :1 ORDER BY c.constraint_name, cc.position", rel)
	if err != nil {
		return nil, err
	}
	return driver.Keys(keys), nil
}

// BackwardKeys returns keys of other tables referencing table.
func (d *Driver) BackwardKeys(ctx context.Context, table string) ([]core.BackwardKey, error) {
	owner, rel := d.owner(table)
	return d.QueryForeignKeys(ctx,
		foreignKeysQuery+"r.owner = "+owner+" AND r.table_name = :1 ORDER BY c.table_name, c.constraint_name, cc.position", rel)
}

// ProcessList reads v$session with the statement each session runs.
func (d *Driver) ProcessList(ctx context.Context) ([]core.Row, error) {
	return d.QueryRows(ctx, `SELECT sess.process AS "process", sess.username AS "user", sess.schemaname AS "schema",
		sess.status AS "status", sess.wait_class AS "wait_class", sess.seconds_in_wait AS "seconds_in_wait",
		sql.sql_text AS "sql_text", sess.machine AS "machine", sess.port AS "port"
	FROM v$session sess
	LEFT OUTER JOIN v$sql sql ON sql.sql_id = sess.sql_id AND sql.child_number = sess.sql_child_number
	WHERE sess.type = 'USER'
	ORDER BY "process"`)
}

// MaxConnections reads the processes parameter.
func (d *Driver) MaxConnections(ctx context.Context) (int, error) {
	v, err := d.QueryString(ctx, "SELECT value FROM v$parameter WHERE name = 'processes'")
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("unexpected processes %q: %w", v, err)
	}
	return n, nil
}

// metadataDDL reads DDL through DBMS_METADATA.
func (d *Driver) metadataDDL(ctx context.Context, table string, isView bool) (string, error) {
	kind := "TABLE"
	if isView {
		kind = "VIEW"
	}
	owner, rel := d.owner(table)
	ddl, err := d.QueryString(ctx, "SELECT DBMS_METADATA.GET_DDL('"+kind+"', :1, "+owner+") FROM DUAL", rel)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(ddl), nil
}

// literal renders RAW as HEXTORAW and timestamps with an explicit format.
func (d *Driver) literal(v any) string {
	switch val := v.(type) {
	case []byte:
		return "HEXTORAW('" + strings.ToUpper(hex.EncodeToString(val)) + "')"
	case time.Time:
		return "TO_TIMESTAMP('" + val.Format("2006-01-02 15:04:05.000000") + "', 'YYYY-MM-DD HH24:MI:SS.FF6')"
	default:
		return d.DefaultLiteral(v)
	}
}

// Ensure Driver implements driver.Driver interface
var _ driver.Driver = (*Driver)(nil)
