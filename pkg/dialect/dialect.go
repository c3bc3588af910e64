// Package dialect provides the SQL assembly primitives each database engine exposes:
// identifier and literal quoting, pagination, function and search-operator sets.
//
// This package contains the public contract for dialect definitions used by the
// SELECT builder, the editor and the dump writers. Concrete dialects are registered
// from pkg/drivers/*/dialect packages.
package dialect

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/leapstack-labs/leapadmin/pkg/core"
	"github.com/leapstack-labs/leapadmin/pkg/sqlscript"
)

// FulltextFunc renders a fulltext search over columns for the given search text.
// Columns and text are already quoted.
type FulltextFunc func(columns []string, text string) string

// Dialect represents a SQL dialect configuration.
type Dialect struct {
	Name        string
	Identifiers core.IdentifierConfig

	// Database-specific settings
	DefaultSchema    string                // Default schema name ("public" for Postgres, "dbo" for MSSQL)
	Placeholder      core.PlaceholderStyle // How to format query parameters
	Pagination       core.LimitStyle       // How SELECTs are paginated
	LiteralBackslash bool                  // Backslash is an escape character inside string literals

	functions []string // scalar functions offered for SELECT columns, in display order
	grouping  []string // aggregate functions offered for SELECT columns
	operators []string // search operators in display order

	likeOperator   string
	regexpOperator string
	fulltext       FulltextFunc

	script sqlscript.Options // script syntax beyond quoting: comments, dollar quotes, DELIMITER

	features map[core.Feature]struct{}
}

// NormalizeName normalizes an identifier according to dialect rules.
func (d *Dialect) NormalizeName(name string) string {
	switch d.Identifiers.Normalization {
	case core.NormUppercase:
		return strings.ToUpper(name)
	case core.NormLowercase, core.NormCaseInsensitive:
		return strings.ToLower(name)
	default: // NormCaseSensitive
		return name
	}
}

// ScriptOptions returns how scripts in this dialect are split into statements.
func (d *Dialect) ScriptOptions() sqlscript.Options {
	opts := d.script
	opts.IdentQuote = d.Identifiers.Quote
	opts.IdentQuoteEnd = d.Identifiers.QuoteEnd
	opts.Backslash = d.LiteralBackslash
	return opts
}

// FormatPlaceholder returns a placeholder for the given parameter index (1-based).
func (d *Dialect) FormatPlaceholder(index int) string {
	switch d.Placeholder {
	case core.PlaceholderDollar:
		return "$" + strconv.Itoa(index)
	case core.PlaceholderAtP:
		return "@p" + strconv.Itoa(index)
	case core.PlaceholderColon:
		return ":" + strconv.Itoa(index)
	default: // PlaceholderQuestion
		return "?"
	}
}

// QuoteIdentifier quotes an identifier using the dialect's quote characters.
func (d *Dialect) QuoteIdentifier(name string) string {
	// Escape any existing quote end characters in the name (e.g., ] -> ]])
	escaped := strings.ReplaceAll(name, d.Identifiers.QuoteEnd, d.Identifiers.Escape)
	return d.Identifiers.Quote + escaped + d.Identifiers.QuoteEnd
}

// QuoteTable quotes a table name, qualifying it with schema when one is given.
func (d *Dialect) QuoteTable(schema, table string) string {
	if schema == "" {
		return d.QuoteIdentifier(table)
	}
	return d.QuoteIdentifier(schema) + "." + d.QuoteIdentifier(table)
}

// QuoteLiteral quotes a string literal.
func (d *Dialect) QuoteLiteral(s string) string {
	if d.LiteralBackslash {
		s = strings.ReplaceAll(s, `\`, `\\`)
	}
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// Limit assembles a paginated SELECT from its select list and the remainder of the
// statement (FROM ... ORDER BY ...). A zero limit disables pagination.
// It returns the statement and the number of leading rows the caller must skip,
// which is non-zero only for dialects that cannot express an offset.
func (d *Dialect) Limit(selectList, rest string, limit, offset int) (string, int) {
	query := "SELECT " + selectList + " " + rest
	if limit <= 0 {
		return query, 0
	}
	if offset < 0 {
		offset = 0
	}

	switch d.Pagination {
	case core.LimitTop:
		return fmt.Sprintf("SELECT TOP (%d) %s %s", limit+offset, selectList, rest), offset
	case core.LimitRownum:
		if offset > 0 {
			return fmt.Sprintf("SELECT * FROM (SELECT t.*, ROWNUM AS rnum FROM (%s) t WHERE ROWNUM <= %d) WHERE rnum > %d",
				query, limit+offset, offset), 0
		}
		return fmt.Sprintf("SELECT * FROM (%s) WHERE ROWNUM <= %d", query, limit), 0
	default: // LimitOffset
		query += " LIMIT " + strconv.Itoa(limit)
		if offset > 0 {
			query += " OFFSET " + strconv.Itoa(offset)
		}
		return query, 0
	}
}

// Functions returns the scalar functions offered for SELECT columns.
func (d *Dialect) Functions() []string {
	return d.functions
}

// Grouping returns the aggregate functions offered for SELECT columns.
func (d *Dialect) Grouping() []string {
	return d.grouping
}

// IsGrouping reports whether fn is one of the dialect's aggregate functions.
func (d *Dialect) IsGrouping(fn string) bool {
	return slices.Contains(d.grouping, strings.ToLower(fn))
}

// HasFunction reports whether fn may wrap a SELECT column.
func (d *Dialect) HasFunction(fn string) bool {
	fn = strings.ToLower(fn)
	return slices.Contains(d.functions, fn) || slices.Contains(d.grouping, fn)
}

// ApplyFunction wraps expr in fn. An empty fn returns expr unchanged.
func (d *Dialect) ApplyFunction(fn, expr string) string {
	switch strings.ToLower(fn) {
	case "":
		return expr
	case "count distinct":
		return "COUNT(DISTINCT " + expr + ")"
	case "unixepoch":
		return "DATETIME(" + expr + ", 'unixepoch')"
	default:
		return strings.ToUpper(fn) + "(" + expr + ")"
	}
}

// Operators returns the search operators in display order.
func (d *Dialect) Operators() []string {
	return d.operators
}

// HasOperator reports whether op is an allowed search operator.
func (d *Dialect) HasOperator(op string) bool {
	return slices.Contains(d.operators, op)
}

// LikeOperator returns the operator used for substring search.
func (d *Dialect) LikeOperator() string {
	return d.likeOperator
}

// RegexpOperator returns the regular expression operator, or "" when the dialect has none.
func (d *Dialect) RegexpOperator() string {
	return d.regexpOperator
}

// Fulltext renders a fulltext match, reporting false when the dialect has no fulltext search.
func (d *Dialect) Fulltext(columns []string, text string) (string, bool) {
	if d.fulltext == nil {
		return "", false
	}
	return d.fulltext(columns, text), true
}

// Supports reports whether the dialect declares feature f.
func (d *Dialect) Supports(f core.Feature) bool {
	_, ok := d.features[f]
	return ok
}

// Features returns the declared features in core.AllFeatures order.
func (d *Dialect) Features() []core.Feature {
	var out []core.Feature
	for _, f := range core.AllFeatures {
		if d.Supports(f) {
			out = append(out, f)
		}
	}
	return out
}

// WithoutOperators returns a copy of the dialect that no longer offers ops.
func (d *Dialect) WithoutOperators(ops ...string) *Dialect {
	if len(ops) == 0 {
		return d
	}
	clone := *d
	clone.operators = make([]string, 0, len(d.operators))
	for _, op := range d.operators {
		if !slices.Contains(ops, op) {
			clone.operators = append(clone.operators, op)
		}
	}
	if slices.Contains(ops, clone.regexpOperator) {
		clone.regexpOperator = ""
	}
	return &clone
}

// ---------- Builder ----------

// Builder provides a fluent API for constructing dialects.
type Builder struct {
	dialect *Dialect
}

// NewDialect creates a new dialect builder with the given name.
func NewDialect(name string) *Builder {
	return &Builder{
		dialect: &Dialect{
			Name: name,
			Identifiers: core.IdentifierConfig{
				Quote:         `"`,
				QuoteEnd:      `"`,
				Escape:        `""`,
				Normalization: core.NormLowercase,
			},
			likeOperator: "LIKE",
			features:     make(map[core.Feature]struct{}),
		},
	}
}

// Identifiers configures identifier quoting and normalization.
func (b *Builder) Identifiers(quote, quoteEnd, escape string, norm core.NormalizationStrategy) *Builder {
	b.dialect.Identifiers = core.IdentifierConfig{
		Quote:         quote,
		QuoteEnd:      quoteEnd,
		Escape:        escape,
		Normalization: norm,
	}
	return b
}

// DefaultSchema sets the default schema name.
func (b *Builder) DefaultSchema(schema string) *Builder {
	b.dialect.DefaultSchema = schema
	return b
}

// PlaceholderStyle sets how query parameters are formatted.
func (b *Builder) PlaceholderStyle(style core.PlaceholderStyle) *Builder {
	b.dialect.Placeholder = style
	return b
}

// Pagination sets how SELECT statements are paginated.
func (b *Builder) Pagination(style core.LimitStyle) *Builder {
	b.dialect.Pagination = style
	return b
}

// LiteralBackslash marks backslash as an escape character in string literals.
func (b *Builder) LiteralBackslash() *Builder {
	b.dialect.LiteralBackslash = true
	return b
}

// ScriptSyntax sets the script features recognized when splitting statements.
// Identifier quotes and backslash escapes are taken from the dialect itself.
func (b *Builder) ScriptSyntax(opts sqlscript.Options) *Builder {
	b.dialect.script = opts
	return b
}

// Functions adds scalar functions offered for SELECT columns.
func (b *Builder) Functions(funcs ...string) *Builder {
	for _, f := range funcs {
		b.dialect.functions = appendUnique(b.dialect.functions, strings.ToLower(f))
	}
	return b
}

// Grouping adds aggregate functions offered for SELECT columns.
func (b *Builder) Grouping(funcs ...string) *Builder {
	for _, f := range funcs {
		b.dialect.grouping = appendUnique(b.dialect.grouping, strings.ToLower(f))
	}
	return b
}

// Operators adds operator sets. Later sets append operators not yet present.
func (b *Builder) Operators(sets ...[]string) *Builder {
	for _, set := range sets {
		for _, op := range set {
			b.dialect.operators = appendUnique(b.dialect.operators, op)
		}
	}
	return b
}

// Like sets the operator used for substring search.
func (b *Builder) Like(op string) *Builder {
	b.dialect.likeOperator = op
	return b
}

// Regexp sets the regular expression operator and adds it to the operator set.
func (b *Builder) Regexp(op string) *Builder {
	b.dialect.regexpOperator = op
	b.dialect.operators = appendUnique(b.dialect.operators, op)
	return b
}

// Fulltext sets how fulltext searches are rendered.
func (b *Builder) Fulltext(fn FulltextFunc) *Builder {
	b.dialect.fulltext = fn
	return b
}

// Supports declares optional features of the engine.
func (b *Builder) Supports(features ...core.Feature) *Builder {
	for _, f := range features {
		b.dialect.features[f] = struct{}{}
	}
	return b
}

// Build returns the constructed dialect.
func (b *Builder) Build() *Dialect {
	return b.dialect
}

func appendUnique(list []string, v string) []string {
	if slices.Contains(list, v) {
		return list
	}
	return append(list, v)
}
