// Package admin implements the database administration operations of leapadmin on
// top of a driver.Driver: listing filters, capability checks, SELECT assembly,
// process management, row editing and dumps.
//
// Every operation goes through a Session, which owns one connection for the
// lifetime of a request.
package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"time"

	"github.com/leapstack-labs/leapadmin/internal/history"
	"github.com/leapstack-labs/leapadmin/internal/i18n"
	"github.com/leapstack-labs/leapadmin/pkg/core"
	"github.com/leapstack-labs/leapadmin/pkg/driver"
	"github.com/leapstack-labs/leapadmin/pkg/sqlscript"
)

// Options configure a Session beyond its connection.
type Options struct {
	HiddenDatabases []string
	HiddenSchemas   []string
	// DisabledOperators are removed from the dialect's search operators.
	DisabledOperators []string
	// Recorder receives every executed statement; nil disables history.
	Recorder history.Recorder
	// Lang selects the language of result messages.
	Lang string
}

// Session is one open connection and the operations offered on it.
type Session struct {
	driver driver.Driver
	cfg    core.ConnectionConfig
	caps   *Capabilities
	opts   Options
	logger *slog.Logger
}

// Open builds the driver named by cfg, connects it and snapshots its capabilities.
func Open(ctx context.Context, cfg core.ConnectionConfig, opts Options, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	d, err := driver.New(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := d.Connect(ctx, cfg); err != nil {
		return nil, core.NewDriverError("", err)
	}
	server, user, _ := d.Credentials()
	logger.Debug("connected",
		slog.String("driver", d.Name()),
		slog.String("server", d.ServerName(server)),
		slog.String("user", user),
		slog.Bool("ssl", d.ConnectSSL() != nil))
	return NewSession(d, cfg, opts, logger), nil
}

// NewSession wraps an already connected driver.
func NewSession(d driver.Driver, cfg core.ConnectionConfig, opts Options, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Session{
		driver: d,
		cfg:    cfg,
		caps:   NewCapabilities(d),
		opts:   opts,
		logger: logger.With(slog.String("driver", cfg.Driver)),
	}
}

// Close releases the connection.
func (s *Session) Close() error {
	return s.driver.Close()
}

// Driver returns the connected driver.
func (s *Session) Driver() driver.Driver {
	return s.driver
}

// Capabilities returns the feature snapshot of the connection.
func (s *Session) Capabilities() *Capabilities {
	return s.caps
}

// Config returns the connection configuration.
func (s *Session) Config() core.ConnectionConfig {
	return s.cfg
}

// Databases lists databases without the hidden ones.
func (s *Session) Databases(ctx context.Context) ([]string, error) {
	names, err := s.driver.Databases(ctx)
	if err != nil {
		return nil, err
	}
	return FilterHidden(names, s.opts.HiddenDatabases), nil
}

// Schemas lists schemas of the current database without the hidden ones.
func (s *Session) Schemas(ctx context.Context) ([]string, error) {
	names, err := s.driver.Schemas(ctx)
	if err != nil {
		return nil, err
	}
	return FilterHidden(names, s.opts.HiddenSchemas), nil
}

// Tables returns the status of every table and view.
func (s *Session) Tables(ctx context.Context) ([]core.TableStatus, error) {
	return s.driver.TableStatus(ctx, "")
}

// TableStructure is everything known about one table.
type TableStructure struct {
	Status       core.TableStatus   `json:"status"`
	Fields       []core.Field       `json:"fields"`
	Indexes      []core.Index       `json:"indexes"`
	ForeignKeys  []core.ForeignKey  `json:"foreign_keys"`
	BackwardKeys []core.BackwardKey `json:"backward_keys"`
	Links        []core.Link        `json:"links"`
}

// Describe reads the structure of table.
func (s *Session) Describe(ctx context.Context, table string) (*TableStructure, error) {
	status, err := s.tableStatus(ctx, table)
	if err != nil {
		return nil, err
	}
	ts := &TableStructure{Status: status, Links: s.driver.SelectLinks(status)}

	if ts.Fields, err = s.driver.Fields(ctx, table); err != nil {
		return nil, err
	}
	if ts.Indexes, err = s.driver.Indexes(ctx, table); err != nil {
		return nil, err
	}
	if ts.ForeignKeys, err = s.driver.ForeignKeys(ctx, table); err != nil {
		return nil, err
	}
	if ts.BackwardKeys, err = s.driver.BackwardKeys(ctx, table); err != nil {
		return nil, err
	}
	return ts, nil
}

// tableStatus returns the status of table, or a ValidationError naming the closest table.
func (s *Session) tableStatus(ctx context.Context, table string) (core.TableStatus, error) {
	statuses, err := s.driver.TableStatus(ctx, table)
	if err != nil {
		return core.TableStatus{}, err
	}
	for _, ts := range statuses {
		if ts.Name == table {
			return ts, nil
		}
	}
	if len(statuses) == 1 {
		return statuses[0], nil
	}

	verr := &core.ValidationError{Field: "table", Reason: "unknown table " + strconv.Quote(table)}
	if all, err := s.driver.TableStatus(ctx, ""); err == nil {
		names := make([]string, len(all))
		for i, t := range all {
			names[i] = t.Name
		}
		verr.Suggestion = suggest(table, names)
	}
	return core.TableStatus{}, verr
}

// Select validates spec against the table, assembles the statement and runs it.
func (s *Session) Select(ctx context.Context, spec *SelectSpec) (*SelectResult, error) {
	fields, err := s.driver.Fields(ctx, spec.Table)
	if err != nil {
		return nil, err
	}
	indexes, err := s.driver.Indexes(ctx, spec.Table)
	if err != nil {
		return nil, err
	}

	b := s.selectBuilder()
	if err := b.Validate(spec, fields, indexes); err != nil {
		return nil, err
	}
	q := b.Assemble(spec, fields, indexes)

	result := &SelectResult{Query: q, Fields: fields}
	err = s.run(ctx, q.SQL, func(ctx context.Context) error {
		rows, err := s.driver.Query(ctx, q.SQL)
		if err != nil {
			return err
		}
		result.Columns, result.Rows, err = rows.Collect()
		return err
	})
	if err != nil {
		return nil, err
	}
	result.ForeignKeys, err = s.driver.ForeignKeys(ctx, spec.Table)
	if err != nil {
		s.logger.Warn("foreign keys not available", slog.String("table", spec.Table), slog.Any("error", err))
	}
	result.Rows = s.driver.RowDescriptions(skipRows(result.Rows, q.Skip), result.ForeignKeys)
	return result, nil
}

// Operators returns the search operators offered on this connection.
func (s *Session) Operators() []string {
	return s.selectBuilder().Operators()
}

func (s *Session) selectBuilder() *SelectBuilder {
	return NewSelectBuilder(s.driver, s.caps, s.opts.DisabledOperators...)
}

// skipRows drops the first n rows read by a TOP-style statement.
func skipRows(rows []core.Row, n int) []core.Row {
	if n <= 0 {
		return rows
	}
	if n >= len(rows) {
		return nil
	}
	return rows[n:]
}

// ProcessList returns the session manager of the connection.
func (s *Session) ProcessList() *ProcessList {
	return NewProcessList(s.driver, s.caps, s.logger)
}

// ExecResult is the outcome of an ad-hoc statement.
// Statements returning rows fill Columns and Rows; others report Affected.
type ExecResult struct {
	Statement string        `json:"statement"`
	Columns   []string      `json:"columns,omitempty"`
	Rows      []core.Row    `json:"rows,omitempty"`
	Affected  int64         `json:"affected"`
	Duration  time.Duration `json:"duration"`
	Message   string        `json:"message,omitempty"`
}

var returnsRows = regexp.MustCompile(`(?is)^\s*(SELECT|SHOW|WITH|EXPLAIN|DESCRIBE|DESC|PRAGMA|VALUES|TABLE)\b`)

// Exec runs one SQL command typed by the user.
func (s *Session) Exec(ctx context.Context, statement string) (*ExecResult, error) {
	if err := s.caps.Require(string(core.FeatureSQL)); err != nil {
		return nil, err
	}
	return s.exec(ctx, statement)
}

// ExecScript splits script with the dialect's syntax and runs each statement in turn.
// It stops at the first failure and returns the results gathered before it.
func (s *Session) ExecScript(ctx context.Context, script string) ([]*ExecResult, error) {
	if err := s.caps.Require(string(core.FeatureSQL)); err != nil {
		return nil, err
	}
	stmts := sqlscript.Split(script, s.driver.Dialect().ScriptOptions())
	if len(stmts) == 0 {
		return nil, core.Invalid("sql", "statement is empty")
	}

	results := make([]*ExecResult, 0, len(stmts))
	for _, stmt := range stmts {
		res, err := s.exec(ctx, stmt.Text)
		if err != nil {
			return results, fmt.Errorf("statement at line %d: %w", stmt.Pos.Line, err)
		}
		results = append(results, res)
	}
	return results, nil
}

func (s *Session) exec(ctx context.Context, statement string) (*ExecResult, error) {
	res := &ExecResult{Statement: statement}
	start := time.Now()
	err := s.run(ctx, statement, func(ctx context.Context) error {
		if returnsRows.MatchString(statement) {
			rows, err := s.driver.Query(ctx, statement)
			if err != nil {
				return err
			}
			res.Columns, res.Rows, err = rows.Collect()
			return err
		}
		n, err := s.driver.Exec(ctx, statement)
		res.Affected = n
		return err
	})
	if err != nil {
		return nil, err
	}
	res.Duration = time.Since(start)
	if res.Columns == nil {
		res.Message = MessageQuery(s.opts.Lang, res.Affected, res.Duration)
	} else {
		res.Message = i18n.RowsTotal(s.opts.Lang, len(res.Rows))
	}
	return res, nil
}

// MessageQuery formats the confirmation of a statement that returned no rows.
func MessageQuery(lang string, affected int64, elapsed time.Duration) string {
	return i18n.QueryExecuted(lang, affected, elapsed)
}

// run executes fn under the query timeout, wraps failures in a DriverError
// and records the statement in history.
func (s *Session) run(ctx context.Context, statement string, fn func(context.Context) error) error {
	timeout := s.driver.QueryTimeout()
	runCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	err := fn(runCtx)
	elapsed := time.Since(start)

	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %w", context.DeadlineExceeded, err)
		}
		err = core.NewDriverError(statement, err)
	}

	s.logger.Debug("executed statement",
		slog.String("statement", statement),
		slog.Duration("duration", elapsed),
		slog.Bool("failed", err != nil))
	s.record(ctx, statement, elapsed, err)
	return err
}

func (s *Session) record(ctx context.Context, statement string, elapsed time.Duration, failure error) {
	if s.opts.Recorder == nil {
		return
	}
	e := history.Entry{
		Driver:    s.cfg.Driver,
		Server:    s.cfg.Server,
		Database:  s.cfg.Database,
		Statement: statement,
		Duration:  elapsed,
		Failed:    failure != nil,
	}
	if failure != nil {
		var de *core.DriverError
		if errors.As(failure, &de) {
			e.Error = de.Err.Error()
		} else {
			e.Error = failure.Error()
		}
	}
	if err := s.opts.Recorder.Record(context.WithoutCancel(ctx), e); err != nil {
		s.logger.Warn("failed to record history", slog.String("error", err.Error()))
	}
}
