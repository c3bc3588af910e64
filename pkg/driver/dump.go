package driver

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/leapstack-labs/leapadmin/pkg/core"
)

// DefaultInsertBatch is the byte budget of one multi-row INSERT in SQL dumps.
const DefaultInsertBatch = 1 << 20

var nonWord = regexp.MustCompile(`[^\p{L}\p{N}_]`)

// DumpOutputs returns the delivery modes offered for dumps.
func (b *BaseSQLDriver) DumpOutputs() []core.Option {
	return []core.Option{
		{Value: core.OutputText, Label: "open"},
		{Value: core.OutputFile, Label: "save"},
		{Value: core.OutputGzip, Label: "gzip"},
		{Value: core.OutputZstd, Label: "zstd"},
	}
}

// DumpFormats returns the dump formats offered.
func (b *BaseSQLDriver) DumpFormats() []core.Option {
	return []core.Option{
		{Value: core.FormatSQL, Label: "SQL"},
		{Value: core.FormatCSV, Label: "CSV,"},
		{Value: core.FormatCSVSemicolon, Label: "CSV;"},
		{Value: core.FormatTSV, Label: "TSV"},
	}
}

// DumpDatabase writes the database preamble. The generic version handles the
// CREATE styles for engines with the database feature and ignores USE.
func (b *BaseSQLDriver) DumpDatabase(_ context.Context, w io.Writer, db, style string) error {
	if style == core.DatabaseStyleNone || !b.Supports(core.FeatureDatabase) {
		return nil
	}
	if !strings.Contains(style, "CREATE") {
		return nil
	}
	q := b.SQL.QuoteIdentifier(db)
	if style == core.DatabaseStyleDropCreate {
		if _, err := fmt.Fprintf(w, "DROP DATABASE IF EXISTS %s;\n", q); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "CREATE DATABASE %s;\n\n", q)
	return err
}

// DumpTable writes the structure of one table or view.
func (b *BaseSQLDriver) DumpTable(ctx context.Context, w io.Writer, table, style string, isView bool) error {
	if style == core.TableStyleNone {
		return nil
	}
	q := b.QuotedTable(table)
	if style == core.TableStyleDropCreate {
		kind := "TABLE"
		if isView {
			kind = "VIEW"
		}
		if _, err := fmt.Fprintf(w, "DROP %s IF EXISTS %s;\n", kind, q); err != nil {
			return err
		}
	}

	var create string
	var err error
	switch {
	case b.CreateSQL != nil:
		create, err = b.CreateSQL(ctx, table, isView)
	case isView:
		_, err = fmt.Fprintf(w, "-- view %s: definition not available\n\n", q)
		return err
	default:
		create, err = b.GenericCreateTable(ctx, table)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s;\n\n", strings.TrimRight(create, ";\n "))
	return err
}

// GenericCreateTable renders CREATE TABLE and CREATE INDEX statements from the catalog.
func (b *BaseSQLDriver) GenericCreateTable(ctx context.Context, table string) (string, error) {
	if b.Introspect == nil {
		return "", fmt.Errorf("catalog not available for %s", table)
	}
	fields, err := b.Introspect.Fields(ctx, table)
	if err != nil {
		return "", err
	}
	indexes, err := b.Introspect.Indexes(ctx, table)
	if err != nil {
		return "", err
	}
	fks, err := b.Introspect.ForeignKeys(ctx, table)
	if err != nil {
		return "", err
	}

	q := b.QuotedTable(table)
	var lines []string
	for _, f := range fields {
		line := "  " + b.SQL.QuoteIdentifier(f.Name) + " " + f.Type
		if !f.Null {
			line += " NOT NULL"
		}
		if f.Default != nil {
			line += " DEFAULT " + *f.Default
		}
		lines = append(lines, line)
	}

	var after []string
	for _, idx := range indexes {
		cols := b.quoteColumns(idx.ColumnNames())
		switch idx.Kind {
		case core.IndexPrimary:
			lines = append(lines, "  PRIMARY KEY ("+cols+")")
		case core.IndexUnique:
			after = append(after, fmt.Sprintf("CREATE UNIQUE INDEX %s ON %s (%s);", b.SQL.QuoteIdentifier(idx.Name), q, cols))
		case core.IndexPlain:
			after = append(after, fmt.Sprintf("CREATE INDEX %s ON %s (%s);", b.SQL.QuoteIdentifier(idx.Name), q, cols))
		}
	}
	for _, fk := range fks {
		line := fmt.Sprintf("  CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
			b.SQL.QuoteIdentifier(fk.Name), b.quoteColumns(fk.Source),
			b.SQL.QuoteTable(fk.Schema, fk.Table), b.quoteColumns(fk.Target))
		if fk.OnDelete != "" && fk.OnDelete != "NO ACTION" {
			line += " ON DELETE " + fk.OnDelete
		}
		if fk.OnUpdate != "" && fk.OnUpdate != "NO ACTION" {
			line += " ON UPDATE " + fk.OnUpdate
		}
		lines = append(lines, line)
	}

	stmt := "CREATE TABLE " + q + " (\n" + strings.Join(lines, ",\n") + "\n)"
	if len(after) > 0 {
		stmt += ";\n" + strings.TrimSuffix(strings.Join(after, "\n"), ";")
	}
	return stmt, nil
}

func (b *BaseSQLDriver) quoteColumns(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = b.SQL.QuoteIdentifier(c)
	}
	return strings.Join(quoted, ", ")
}

// DumpData streams the rows of query (all rows of table when empty) into w.
func (b *BaseSQLDriver) DumpData(ctx context.Context, w io.Writer, table, style, format, query string) error {
	if style == core.DataStyleNone {
		return nil
	}
	if style == core.DataStyleInsertUpdate && b.UpsertSuffix == nil {
		return core.Invalid("data_style", fmt.Sprintf("%s is not supported by %s", style, b.DisplayName))
	}
	if query == "" {
		query = "SELECT * FROM " + b.QuotedTable(table)
	}

	rows, err := b.Query(ctx, query)
	if err != nil {
		return core.NewDriverError(query, err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("failed to read columns: %w", err)
	}

	var sink rowSink
	if format == core.FormatSQL {
		sink = b.newInsertWriter(w, table, style, cols)
	} else {
		sink = newDelimitedWriter(w, format, cols)
	}

	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return fmt.Errorf("failed to scan row: %w", err)
		}
		if err := sink.write(values); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return core.NewDriverError(query, err)
	}
	return sink.close()
}

type rowSink interface {
	write(values []any) error
	close() error
}

// insertWriter batches rows into multi-row INSERT statements up to a byte budget.
type insertWriter struct {
	w       io.Writer
	b       *BaseSQLDriver
	prefix  string
	suffix  string
	budget  int
	pending strings.Builder
	started bool
}

func (b *BaseSQLDriver) newInsertWriter(w io.Writer, table, style string, cols []string) *insertWriter {
	q := b.QuotedTable(table)
	iw := &insertWriter{
		w:      w,
		b:      b,
		prefix: "INSERT INTO " + q + " (" + b.quoteColumns(cols) + ") VALUES ",
		budget: b.InsertBatch,
	}
	if style == core.DataStyleInsertUpdate {
		iw.suffix = b.UpsertSuffix(cols)
		iw.budget = 0
	}
	if style == core.DataStyleTruncateInsert {
		if b.Truncate != nil {
			iw.pending.WriteString(b.Truncate(q) + ";\n")
		} else {
			iw.pending.WriteString("TRUNCATE TABLE " + q + ";\n")
		}
	}
	return iw
}

func (iw *insertWriter) write(values []any) error {
	lit := iw.b.Literal
	if lit == nil {
		lit = iw.b.DefaultLiteral
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = lit(v)
	}
	tuple := "(" + strings.Join(parts, ", ") + ")"

	if iw.budget <= 0 {
		iw.pending.WriteString(iw.prefix + tuple + iw.suffix + ";\n")
		return iw.flush()
	}
	if iw.started && iw.pending.Len()+len(tuple)+2 > iw.budget {
		iw.pending.WriteString(";\n")
		if err := iw.flush(); err != nil {
			return err
		}
		iw.started = false
	}
	if iw.started {
		iw.pending.WriteString(",\n")
	} else {
		iw.pending.WriteString(iw.prefix)
		iw.started = true
	}
	iw.pending.WriteString(tuple)
	return nil
}

func (iw *insertWriter) flush() error {
	if iw.pending.Len() == 0 {
		return nil
	}
	_, err := io.WriteString(iw.w, iw.pending.String())
	iw.pending.Reset()
	return err
}

func (iw *insertWriter) close() error {
	if iw.started {
		iw.pending.WriteString(";\n")
	}
	if err := iw.flush(); err != nil {
		return err
	}
	_, err := io.WriteString(iw.w, "\n")
	return err
}

// delimitedWriter writes CSV or TSV with a header row.
type delimitedWriter struct {
	cw     *csv.Writer
	header []string
	record []string
}

func newDelimitedWriter(w io.Writer, format string, cols []string) *delimitedWriter {
	cw := csv.NewWriter(w)
	switch format {
	case core.FormatCSVSemicolon:
		cw.Comma = ';'
	case core.FormatTSV:
		cw.Comma = '\t'
	}
	return &delimitedWriter{cw: cw, header: cols, record: make([]string, len(cols))}
}

func (dw *delimitedWriter) write(values []any) error {
	if dw.header != nil {
		if err := dw.cw.Write(dw.header); err != nil {
			return err
		}
		dw.header = nil
	}
	for i, v := range values {
		dw.record[i] = core.FormatValue(v)
	}
	return dw.cw.Write(dw.record)
}

func (dw *delimitedWriter) close() error {
	if dw.header != nil {
		if err := dw.cw.Write(dw.header); err != nil {
			return err
		}
	}
	dw.cw.Flush()
	return dw.cw.Error()
}

// DefaultLiteral renders a scanned value as a SQL literal for INSERT statements.
func (b *BaseSQLDriver) DefaultLiteral(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case bool:
		if val {
			return "1"
		}
		return "0"
	case int64:
		return strconv.FormatInt(val, 10)
	case int32, int, int16, int8, uint64, uint32, uint, uint16, uint8:
		return fmt.Sprintf("%d", val)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'g', -1, 32)
	case []byte:
		if !utf8.Valid(val) {
			return "X'" + hex.EncodeToString(val) + "'"
		}
		return b.SQL.QuoteLiteral(string(val))
	case time.Time:
		return b.SQL.QuoteLiteral(val.Format("2006-01-02 15:04:05.999999"))
	case sql.RawBytes:
		return b.SQL.QuoteLiteral(string(val))
	default:
		return b.SQL.QuoteLiteral(core.FormatValue(val))
	}
}

// DumpFilename returns a file-system safe name for a dump of identifier.
func (b *BaseSQLDriver) DumpFilename(identifier string) string {
	if identifier == "" {
		identifier = b.ServerName(b.Cfg.Server)
	}
	return nonWord.ReplaceAllString(identifier, "-")
}

// DumpHeaders describes the response of a dump.
func (b *BaseSQLDriver) DumpHeaders(identifier string, multiTable bool, output, format string) core.DumpHeaders {
	ext := "csv"
	switch {
	case format == core.FormatSQL:
		ext = "sql"
	case multiTable:
		ext = "tar"
	case format == core.FormatTSV:
		ext = "tsv"
	}

	h := core.DumpHeaders{Extension: ext}
	switch {
	case output == core.OutputGzip:
		h.ContentType = "application/x-gzip"
		h.Compression = core.OutputGzip
	case output == core.OutputZstd:
		h.ContentType = "application/zstd"
		h.Compression = core.OutputZstd
	case ext == "tar":
		h.ContentType = "application/x-tar"
	case ext == "sql" || output != core.OutputFile:
		h.ContentType = "text/plain; charset=utf-8"
	default:
		h.ContentType = "text/csv; charset=utf-8"
	}

	if output != core.OutputText {
		h.Filename = b.DumpFilename(identifier) + "." + ext
		if h.Compression != "" {
			h.Filename += "." + h.Compression
		}
		h.Disposition = "attachment; filename=" + h.Filename
	}
	return h
}
