package driver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/leapstack-labs/leapadmin/pkg/core"
	"github.com/leapstack-labs/leapadmin/pkg/dialect"
)

// errNotConnected is returned when a statement is issued before Connect.
var errNotConnected = errors.New("database connection not established")

// BaseSQLDriver provides common database/sql functionality for drivers.
// Embed this struct in concrete driver implementations to get standard
// lifecycle, execution, rendering, editing and dump implementations.
//
// Introspect must point at the embedding driver so the generic dump and
// backward-key implementations reach the engine's own catalog queries.
type BaseSQLDriver struct {
	DB          *sql.DB
	Cfg         core.ConnectionConfig
	Logger      *slog.Logger
	SQL         *dialect.Dialect
	DisplayName string
	Introspect  Catalog
	Edit        EditFunctionTable

	// Literal renders a value for INSERT statements in dumps. Nil uses DefaultLiteral.
	Literal func(v any) string
	// UpsertSuffix renders the conflict clause for the INSERT+UPDATE data style.
	// Nil means the engine has no upsert and the style is rejected.
	UpsertSuffix func(columns []string) string
	// CreateSQL reads DDL from the server. Nil renders DDL from the catalog.
	CreateSQL func(ctx context.Context, table string, isView bool) (string, error)
	// Truncate renders the statement emptying a quoted table. Nil uses TRUNCATE TABLE.
	Truncate func(quoted string) string
	// InsertBatch is the byte budget of one multi-row INSERT; 0 writes one statement per row.
	InsertBatch int
}

// NewBase returns a BaseSQLDriver with a logger that is never nil.
func NewBase(logger *slog.Logger, name string, d *dialect.Dialect) BaseSQLDriver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return BaseSQLDriver{
		Logger:      logger,
		SQL:         d,
		DisplayName: name,
		InsertBatch: DefaultInsertBatch,
	}
}

// Name returns the display name of the engine.
func (b *BaseSQLDriver) Name() string {
	return b.DisplayName
}

// Dialect returns the SQL dialect of the engine.
func (b *BaseSQLDriver) Dialect() *dialect.Dialect {
	return b.SQL
}

// Supports reports whether the dialect declares the feature.
func (b *BaseSQLDriver) Supports(feature core.Feature) bool {
	return b.SQL != nil && b.SQL.Supports(feature)
}

// Close closes the database connection.
func (b *BaseSQLDriver) Close() error {
	if b.DB != nil {
		if b.Logger != nil {
			b.Logger.Debug("closing database connection")
		}
		err := b.DB.Close()
		b.DB = nil
		return err
	}
	return nil
}

// Exec executes a SQL statement that doesn't return rows.
func (b *BaseSQLDriver) Exec(ctx context.Context, sqlStr string) (int64, error) {
	if b.DB == nil {
		return 0, errNotConnected
	}
	res, err := b.DB.ExecContext(ctx, sqlStr)
	if err != nil {
		return 0, fmt.Errorf("failed to execute SQL: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		// Not every driver reports affected rows for every statement.
		return 0, nil
	}
	return affected, nil
}

// Query executes a SQL statement that returns rows.
func (b *BaseSQLDriver) Query(ctx context.Context, sqlStr string) (*core.Rows, error) {
	if b.DB == nil {
		return nil, errNotConnected
	}
	//nolint:rowserrcheck // rows.Err() must be checked by caller after iteration completes
	rows, err := b.DB.QueryContext(ctx, sqlStr)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	return &core.Rows{Rows: rows}, nil
}

// Credentials returns the server, user and password of the connection.
func (b *BaseSQLDriver) Credentials() (string, string, string) {
	return b.Cfg.Server, b.Cfg.Username, b.Cfg.Password
}

// ConnectSSL returns the TLS settings of the connection.
func (b *BaseSQLDriver) ConnectSSL() *core.SSLConfig {
	if !b.Cfg.SSL.Enabled() {
		return nil
	}
	return b.Cfg.SSL
}

// PermanentLogin returns the configured persistent-login key.
func (b *BaseSQLDriver) PermanentLogin() []byte {
	if key := b.Cfg.Option("permanent_login", ""); key != "" {
		return []byte(key)
	}
	return nil
}

// ServerName formats a server address for display.
func (b *BaseSQLDriver) ServerName(server string) string {
	if server == "" {
		return "localhost"
	}
	return server
}

// QueryTimeout returns the configured statement timeout.
func (b *BaseSQLDriver) QueryTimeout() time.Duration {
	return b.Cfg.QueryTimeout
}

// QueryStrings runs a query and returns its first column as strings.
func (b *BaseSQLDriver) QueryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	if b.DB == nil {
		return nil, errNotConnected
	}
	rows, err := b.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var v sql.NullString
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan value: %w", err)
		}
		out = append(out, v.String)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

// QueryString runs a query returning a single value.
func (b *BaseSQLDriver) QueryString(ctx context.Context, query string, args ...any) (string, error) {
	if b.DB == nil {
		return "", errNotConnected
	}
	var v sql.NullString
	if err := b.DB.QueryRowContext(ctx, query, args...).Scan(&v); err != nil {
		return "", fmt.Errorf("failed to execute query: %w", err)
	}
	return v.String, nil
}

// QueryRows runs a query and collects every row.
func (b *BaseSQLDriver) QueryRows(ctx context.Context, query string) ([]core.Row, error) {
	rows, err := b.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	_, out, err := rows.Collect()
	return out, err
}

// ParseQualifiedName splits a table reference into schema and name.
// Uses the connection schema, then the dialect's default schema, if not specified.
func (b *BaseSQLDriver) ParseQualifiedName(table string) (schema, name string) {
	if parts := strings.SplitN(table, ".", 2); len(parts) == 2 {
		return parts[0], parts[1]
	}
	if b.Cfg.Schema != "" {
		return b.Cfg.Schema, table
	}
	if b.SQL != nil {
		return b.SQL.DefaultSchema, table
	}
	return "", table
}

// QuotedTable quotes a possibly schema-qualified table name.
func (b *BaseSQLDriver) QuotedTable(table string) string {
	if parts := strings.SplitN(table, ".", 2); len(parts) == 2 {
		return b.SQL.QuoteTable(parts[0], parts[1])
	}
	return b.SQL.QuoteIdentifier(table)
}

// InformationSchemaFields provides a shared implementation of Fields.
// Uses information_schema.columns with dialect-appropriate placeholders.
// This can be called by concrete drivers to avoid code duplication.
func (b *BaseSQLDriver) InformationSchemaFields(ctx context.Context, table string) ([]core.Field, error) {
	if b.DB == nil {
		return nil, errNotConnected
	}

	schema, tableName := b.ParseQualifiedName(table)

	// The placeholders come from the dialect and are safe (?, $N, @pN)
	//nolint:gosec // Placeholders are safe - they come from dialect.FormatPlaceholder
	query := fmt.Sprintf(`
		SELECT
			column_name,
			data_type,
			is_nullable,
			column_default,
			ordinal_position
		FROM information_schema.columns
		WHERE table_schema = %s AND table_name = %s
		ORDER BY ordinal_position
	`, b.SQL.FormatPlaceholder(1), b.SQL.FormatPlaceholder(2))

	rows, err := b.DB.QueryContext(ctx, query, schema, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var fields []core.Field
	for rows.Next() {
		var f core.Field
		var nullable string
		var def sql.NullString
		if err := rows.Scan(&f.Name, &f.Type, &nullable, &def, &f.Position); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		f.Null = nullable == "YES"
		if def.Valid {
			d := def.String
			f.Default = &d
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

// BackwardKeys provides a generic implementation that scans every table's
// foreign keys. Engines with a catalog view for this override it.
func (b *BaseSQLDriver) BackwardKeys(ctx context.Context, table string) ([]core.BackwardKey, error) {
	if b.Introspect == nil {
		return nil, nil
	}
	tables, err := b.Introspect.TableStatus(ctx, "")
	if err != nil {
		return nil, err
	}

	var out []core.BackwardKey
	for _, ts := range tables {
		if ts.IsView {
			continue
		}
		fks, err := b.Introspect.ForeignKeys(ctx, ts.Name)
		if err != nil {
			return nil, err
		}
		for _, fk := range fks {
			if fk.Table == table {
				out = append(out, core.BackwardKey{Table: ts.Name, Key: fk})
			}
		}
	}
	return out, nil
}

// Schemas returns nil for engines without schemas.
func (b *BaseSQLDriver) Schemas(context.Context) ([]string, error) {
	return nil, nil
}

// unsupported builds the error returned by hooks of a missing feature.
func (b *BaseSQLDriver) unsupported(f core.Feature) error {
	return &core.CapabilityError{Feature: f, Driver: b.DisplayName}
}

// ProcessList is unsupported by default.
func (b *BaseSQLDriver) ProcessList(context.Context) ([]core.Row, error) {
	return nil, b.unsupported(core.FeatureProcessList)
}

// KillProcess is unsupported by default.
func (b *BaseSQLDriver) KillProcess(context.Context, string) error {
	return b.unsupported(core.FeatureKill)
}

// MaxConnections is unknown by default.
func (b *BaseSQLDriver) MaxConnections(context.Context) (int, error) {
	return 0, nil
}

// Process row keys engines use for the same concept, in lookup order.
var (
	processIDKeys    = []string{"Id", "id", "pid", "session_id", "process", "PROCESS"}
	processUserKeys  = []string{"User", "user", "usename", "login_name", "username"}
	processHostKeys  = []string{"Host", "host", "client_addr", "host_name", "machine"}
	processDBKeys    = []string{"db", "datname", "database", "schema", "database_name"}
	processCmdKeys   = []string{"Command", "command", "backend_type", "status"}
	processTimeKeys  = []string{"Time", "time", "query_start", "seconds_in_wait", "total_elapsed_time"}
	processStateKeys = []string{"State", "state", "wait_class"}
	processQueryKeys = []string{"Info", "query", "current_query", "sql_text", "text"}
)

func firstOf(row core.Row, keys []string) string {
	for _, k := range keys {
		if _, ok := row.Get(k); ok {
			return row.String(k)
		}
	}
	return ""
}

// ProcessEntry converts a raw process row using the common column names.
func (b *BaseSQLDriver) ProcessEntry(row core.Row) core.ProcessEntry {
	return core.ProcessEntry{
		ID:       firstOf(row, processIDKeys),
		User:     firstOf(row, processUserKeys),
		Host:     firstOf(row, processHostKeys),
		Database: firstOf(row, processDBKeys),
		Command:  firstOf(row, processCmdKeys),
		Time:     firstOf(row, processTimeKeys),
		State:    firstOf(row, processStateKeys),
		Query:    firstOf(row, processQueryKeys),
		Raw:      row,
	}
}
