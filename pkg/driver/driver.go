// Package driver provides the database driver contract for leapadmin.
//
// This package contains the public contract that every database engine backend must
// implement. Concrete drivers live in pkg/drivers/ subdirectories and register
// themselves by name; the engine is selected by configuration, never by inspecting
// driver types at runtime.
package driver

import (
	"context"
	"io"
	"time"

	"github.com/leapstack-labs/leapadmin/pkg/core"
	"github.com/leapstack-labs/leapadmin/pkg/dialect"
)

// Driver is the full capability set a database backend implements.
// Operations a backend cannot perform report false from Supports and return
// a *core.CapabilityError when called anyway.
type Driver interface {
	Identity
	Catalog
	Renderer
	Editor
	ProcessHooks
	Dumper
}

// Identity covers connection lifecycle and statement execution.
type Identity interface {
	// Name returns the display name of the engine (e.g. "MySQL").
	Name() string

	// Connect establishes a connection using the provided config.
	Connect(ctx context.Context, cfg core.ConnectionConfig) error

	// Close closes the connection and releases resources.
	Close() error

	// Credentials returns the server, user and password in use.
	Credentials() (server, user, password string)

	// ConnectSSL returns the TLS settings negotiated for the connection, or nil.
	ConnectSSL() *core.SSLConfig

	// PermanentLogin returns key material for persistent logins.
	PermanentLogin() []byte

	// ServerName formats a server address for display.
	ServerName(server string) string

	// QueryTimeout bounds how long a single statement may run.
	QueryTimeout() time.Duration

	// Supports reports whether the engine offers an optional feature.
	Supports(feature core.Feature) bool

	// Dialect returns the SQL assembly primitives of the engine.
	Dialect() *dialect.Dialect

	// Exec executes a statement that doesn't return rows and reports affected rows.
	Exec(ctx context.Context, sql string) (int64, error)

	// Query executes a statement that returns rows.
	Query(ctx context.Context, sql string) (*core.Rows, error)
}

// Catalog covers schema introspection.
type Catalog interface {
	// Database returns the current database name.
	Database(ctx context.Context) (string, error)

	// Databases lists databases. Hidden ones are filtered by the caller.
	Databases(ctx context.Context) ([]string, error)

	// Schemas lists schemas of the current database; nil for engines without schemas.
	Schemas(ctx context.Context) ([]string, error)

	// TableStatus returns status for one table, or for all tables when name is empty.
	TableStatus(ctx context.Context, name string) ([]core.TableStatus, error)

	// Fields returns the columns of a table in ordinal order.
	Fields(ctx context.Context, table string) ([]core.Field, error)

	// Indexes returns the indexes of a table.
	Indexes(ctx context.Context, table string) ([]core.Index, error)

	// ForeignKeys returns the foreign keys declared on a table.
	ForeignKeys(ctx context.Context, table string) ([]core.ForeignKey, error)

	// BackwardKeys returns foreign keys of other tables pointing at table.
	BackwardKeys(ctx context.Context, table string) ([]core.BackwardKey, error)
}

// Renderer holds pure formatting hooks. They have no side effects.
type Renderer interface {
	TableName(ts core.TableStatus) string
	FieldName(f core.Field, order int) string
	SelectLinks(ts core.TableStatus) []core.Link
	SelectLink(val any, f core.Field) string
	SelectVal(val any, f core.Field, link string) core.Cell
	EditVal(val any, f core.Field) string
	RowDescriptions(rows []core.Row, fks []core.ForeignKey) []core.Row
	ForeignColumn(fks []core.ForeignKey, column string) *core.ForeignKey
}

// Editor turns submitted form values into SQL expressions.
type Editor interface {
	// EditFunctions lists the functions offered for a field.
	EditFunctions(f core.Field, update bool) []string

	// ProcessInput returns the expression to store, or core.Unchanged.
	ProcessInput(f core.Field, in core.FieldInput) (core.EditValue, error)
}

// ProcessHooks expose server sessions. Gated by the processlist and kill features.
type ProcessHooks interface {
	// ProcessList returns live sessions in server order.
	ProcessList(ctx context.Context) ([]core.Row, error)

	// ProcessEntry converts a raw process row into a typed entry.
	ProcessEntry(row core.Row) core.ProcessEntry

	// KillProcess terminates one session.
	KillProcess(ctx context.Context, id string) error

	// MaxConnections returns the server connection limit, or 0 when unknown.
	MaxConnections(ctx context.Context) (int, error)
}

// Dumper writes portable exports into a sink.
type Dumper interface {
	DumpOutputs() []core.Option
	DumpFormats() []core.Option
	DumpDatabase(ctx context.Context, w io.Writer, db, style string) error
	DumpTable(ctx context.Context, w io.Writer, table, style string, isView bool) error
	DumpData(ctx context.Context, w io.Writer, table, style, format, query string) error
	DumpFilename(identifier string) string
	DumpHeaders(identifier string, multiTable bool, output, format string) core.DumpHeaders
}
