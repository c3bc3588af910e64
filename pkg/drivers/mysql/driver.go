package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/leapstack-labs/leapadmin/pkg/core"
	"github.com/leapstack-labs/leapadmin/pkg/driver"
	mysqldialect "github.com/leapstack-labs/leapadmin/pkg/drivers/mysql/dialect"
)

// Driver implements driver.Driver for MySQL and MariaDB.
type Driver struct {
	driver.BaseSQLDriver
}

// New creates a new MySQL driver instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Driver {
	d := &Driver{BaseSQLDriver: driver.NewBase(logger, "MySQL", mysqldialect.MySQL)}
	d.Introspect = d
	d.Edit = editFunctions
	d.CreateSQL = d.showCreate
	d.UpsertSuffix = d.onDuplicateKeyUpdate
	return d
}

var editFunctions = driver.EditFunctionTable{
	Insert: []driver.TypeFunctions{
		driver.ForTypes("char", "md5", "sha1", "password", "encrypt", "uuid"),
		driver.ForTypes("date|time", "now"),
	},
	Update: []driver.TypeFunctions{
		driver.ForTypes("(^|[^o])int|float|double|decimal", "+", "-"),
		driver.ForTypes("date", "+ interval", "- interval"),
		driver.ForTypes("time", "addtime", "subtime"),
		driver.ForTypes("char|text", "concat"),
	},
}

// Connect establishes a connection to MySQL.
func (d *Driver) Connect(ctx context.Context, cfg core.ConnectionConfig) error {
	mc, err := buildConfig(cfg)
	if err != nil {
		return err
	}

	d.Logger.Debug("connecting to mysql", slog.String("addr", mc.Addr), slog.String("database", cfg.Database))

	db, err := sql.Open("mysql", mc.FormatDSN())
	if err != nil {
		return fmt.Errorf("failed to open mysql connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping mysql: %w", err)
	}

	d.DB = db
	d.Cfg = cfg
	return nil
}

// Database returns the current database.
func (d *Driver) Database(ctx context.Context) (string, error) {
	return d.QueryString(ctx, "SELECT DATABASE()")
}

// Databases lists all databases visible to the user.
func (d *Driver) Databases(ctx context.Context) ([]string, error) {
	return d.QueryStrings(ctx, "SELECT SCHEMA_NAME FROM information_schema.SCHEMATA ORDER BY SCHEMA_NAME")
}

// likeEscape escapes LIKE wildcards so name matches literally.
func likeEscape(name string) string {
	r := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)
	return r.Replace(name)
}

// TableStatus reads SHOW TABLE STATUS.
func (d *Driver) TableStatus(ctx context.Context, name string) ([]core.TableStatus, error) {
	query := "SHOW TABLE STATUS"
	if name != "" {
		query += " LIKE " + d.SQL.QuoteLiteral(likeEscape(name))
	}
	rows, err := d.QueryRows(ctx, query)
	if err != nil {
		return nil, err
	}

	out := make([]core.TableStatus, 0, len(rows))
	for _, r := range rows {
		ts := core.TableStatus{
			Name:        r.String("Name"),
			Engine:      r.String("Engine"),
			Collation:   r.String("Collation"),
			Rows:        driver.Int64(valueOf(r, "Rows")),
			DataLength:  driver.Int64(valueOf(r, "Data_length")),
			IndexLength: driver.Int64(valueOf(r, "Index_length")),
			Comment:     r.String("Comment"),
		}
		if ts.Engine == "" && ts.Comment == "VIEW" {
			ts.IsView = true
			ts.Comment = ""
		}
		out = append(out, ts)
	}
	return out, nil
}

func valueOf(r core.Row, key string) any {
	v, _ := r.Get(key)
	return v
}

// Fields reads SHOW FULL COLUMNS.
func (d *Driver) Fields(ctx context.Context, table string) ([]core.Field, error) {
	rows, err := d.QueryRows(ctx, "SHOW FULL COLUMNS FROM "+d.QuotedTable(table))
	if err != nil {
		return nil, err
	}

	fields := make([]core.Field, 0, len(rows))
	for i, r := range rows {
		f := core.Field{
			Name:          r.String("Field"),
			Type:          r.String("Type"),
			Null:          r.String("Null") == "YES",
			Position:      i + 1,
			AutoIncrement: strings.Contains(r.String("Extra"), "auto_increment"),
			Primary:       r.String("Key") == "PRI",
			Comment:       r.String("Comment"),
			Collation:     r.String("Collation"),
		}
		if v, ok := r.Get("Default"); ok && v != nil {
			def := core.FormatValue(v)
			f.Default = &def
		}
		fields = append(fields, f)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("table %s not found", table)
	}
	return fields, nil
}

// Indexes reads SHOW INDEX, grouping columns by key name in server order.
func (d *Driver) Indexes(ctx context.Context, table string) ([]core.Index, error) {
	rows, err := d.QueryRows(ctx, "SHOW INDEX FROM "+d.QuotedTable(table))
	if err != nil {
		return nil, err
	}

	var out []core.Index
	pos := make(map[string]int)
	for _, r := range rows {
		name := r.String("Key_name")
		i, ok := pos[name]
		if !ok {
			kind := core.IndexPlain
			switch {
			case name == "PRIMARY":
				kind = core.IndexPrimary
			case r.String("Index_type") == "FULLTEXT":
				kind = core.IndexFulltext
			case r.String("Index_type") == "SPATIAL":
				kind = core.IndexSpatial
			case r.String("Non_unique") == "0":
				kind = core.IndexUnique
			}
			out = append(out, core.Index{Name: name, Kind: kind})
			i = len(out) - 1
			pos[name] = i
		}
		col := core.IndexColumn{
			Name:       r.String("Column_name"),
			Descending: r.String("Collation") == "D",
		}
		if n := driver.Int64(valueOf(r, "Sub_part")); n > 0 {
			col.Length = int(n)
		}
		out[i].Columns = append(out[i].Columns, col)
	}
	return out, nil
}

const foreignKeysQuery = `
	SELECT k.CONSTRAINT_NAME, k.TABLE_NAME, k.COLUMN_NAME, k.REFERENCED_TABLE_SCHEMA,
		k.REFERENCED_TABLE_NAME, k.REFERENCED_COLUMN_NAME, r.DELETE_RULE, r.UPDATE_RULE
	FROM information_schema.KEY_COLUMN_USAGE k
	JOIN information_schema.REFERENTIAL_CONSTRAINTS r
		ON r.CONSTRAINT_SCHEMA = k.CONSTRAINT_SCHEMA AND r.CONSTRAINT_NAME = k.CONSTRAINT_NAME
	WHERE k.REFERENCED_TABLE_NAME IS NOT NULL AND `

// ForeignKeys returns keys declared on table.
func (d *Driver) ForeignKeys(ctx context.Context, table string) ([]core.ForeignKey, error) {
	keys, err := d.foreignKeys(ctx,
		foreignKeysQuery+"k.TABLE_SCHEMA = DATABASE() AND k.TABLE_NAME = ? ORDER BY k.CONSTRAINT_NAME, k.ORDINAL_POSITION", table)
	if err != nil {
		return nil, err
	}
	return driver.Keys(keys), nil
}

// BackwardKeys returns keys of other tables referencing table in one catalog query.
func (d *Driver) BackwardKeys(ctx context.Context, table string) ([]core.BackwardKey, error) {
	return d.foreignKeys(ctx,
		foreignKeysQuery+"k.REFERENCED_TABLE_SCHEMA = DATABASE() AND k.REFERENCED_TABLE_NAME = ? ORDER BY k.TABLE_NAME, k.CONSTRAINT_NAME, k.ORDINAL_POSITION", table)
}

// foreignKeys moves the referenced schema into Database, where MySQL keeps it.
func (d *Driver) foreignKeys(ctx context.Context, query, table string) ([]core.BackwardKey, error) {
	keys, err := d.QueryForeignKeys(ctx, query, table)
	if err != nil {
		return nil, err
	}
	for i := range keys {
		keys[i].Key.Database, keys[i].Key.Schema = keys[i].Key.Schema, ""
	}
	return keys, nil
}

// ProcessList returns SHOW FULL PROCESSLIST.
func (d *Driver) ProcessList(ctx context.Context) ([]core.Row, error) {
	return d.QueryRows(ctx, "SHOW FULL PROCESSLIST")
}

var cloneableCommand = regexp.MustCompile(`^(Query|Killed)$`)

// ProcessEntry keeps the query only for sessions that are running one.
func (d *Driver) ProcessEntry(row core.Row) core.ProcessEntry {
	e := d.BaseSQLDriver.ProcessEntry(row)
	if !cloneableCommand.MatchString(e.Command) {
		e.Query = ""
	}
	return e
}

// KillProcess terminates a connection with KILL.
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

// MaxConnections reads @@max_connections.
func (d *Driver) MaxConnections(ctx context.Context) (int, error) {
	v, err := d.QueryString(ctx, "SELECT @@max_connections")
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("unexpected max_connections %q: %w", v, err)
	}
	return n, nil
}

// DumpDatabase adds a USE statement after the CREATE preamble.
func (d *Driver) DumpDatabase(ctx context.Context, w io.Writer, db, style string) error {
	if style == core.DatabaseStyleNone {
		return nil
	}
	if err := d.BaseSQLDriver.DumpDatabase(ctx, w, db, style); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "USE %s;\n\n", d.SQL.QuoteIdentifier(db))
	return err
}

// showCreate reads the server's own DDL. Views return it in the second column too.
func (d *Driver) showCreate(ctx context.Context, table string, _ bool) (string, error) {
	rows, err := d.QueryRows(ctx, "SHOW CREATE TABLE "+d.QuotedTable(table))
	if err != nil {
		return "", err
	}
	if len(rows) == 0 || rows[0].Len() < 2 {
		return "", fmt.Errorf("no DDL returned for %s", table)
	}
	return core.FormatValue(rows[0].Values[1]), nil
}

func (d *Driver) onDuplicateKeyUpdate(columns []string) string {
	set := make([]string, len(columns))
	for i, c := range columns {
		q := d.SQL.QuoteIdentifier(c)
		set[i] = q + " = VALUES(" + q + ")"
	}
	return " ON DUPLICATE KEY UPDATE " + strings.Join(set, ", ")
}

// Ensure Driver implements driver.Driver interface
var _ driver.Driver = (*Driver)(nil)
