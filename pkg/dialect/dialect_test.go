package dialect

import (
	"testing"

	"github.com/leapstack-labs/leapadmin/pkg/core"
	"github.com/leapstack-labs/leapadmin/pkg/sqlscript"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDialect(style core.LimitStyle) *Dialect {
	return NewDialect("test").
		Pagination(style).
		Functions(StandardFunctions...).
		Grouping(StandardGrouping...).
		Operators(ComparisonOperators, StandardSearchOperators).
		Build()
}

func TestQuoteIdentifier(t *testing.T) {
	tests := []struct {
		name     string
		quote    string
		quoteEnd string
		escape   string
		input    string
		want     string
	}{
		{"double quotes", `"`, `"`, `""`, `users`, `"users"`},
		{"escaped double quote", `"`, `"`, `""`, `we"ird`, `"we""ird"`},
		{"backticks", "`", "`", "``", "a`b", "`a``b`"},
		{"brackets", "[", "]", "]]", "col]x", "[col]]x]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDialect("q").Identifiers(tt.quote, tt.quoteEnd, tt.escape, core.NormCaseSensitive).Build()
			assert.Equal(t, tt.want, d.QuoteIdentifier(tt.input))
		})
	}
}

func TestQuoteTable(t *testing.T) {
	d := NewDialect("q").Build()
	assert.Equal(t, `"users"`, d.QuoteTable("", "users"))
	assert.Equal(t, `"public"."users"`, d.QuoteTable("public", "users"))
}

func TestQuoteLiteral(t *testing.T) {
	plain := NewDialect("plain").Build()
	assert.Equal(t, `'it''s'`, plain.QuoteLiteral("it's"))
	assert.Equal(t, `'a\b'`, plain.QuoteLiteral(`a\b`))

	backslash := NewDialect("bs").LiteralBackslash().Build()
	assert.Equal(t, `'a\\b'`, backslash.QuoteLiteral(`a\b`))
}

func TestScriptOptions(t *testing.T) {
	d := NewDialect("script").
		Identifiers("`", "`", "``", core.NormCaseSensitive).
		LiteralBackslash().
		ScriptSyntax(sqlscript.Options{HashComments: true, IdentQuote: "ignored"}).
		Build()

	assert.Equal(t, sqlscript.Options{
		IdentQuote:    "`",
		IdentQuoteEnd: "`",
		Backslash:     true,
		HashComments:  true,
	}, d.ScriptOptions())

	plain := NewDialect("plain").Build().ScriptOptions()
	assert.Equal(t, `"`, plain.IdentQuote)
	assert.False(t, plain.DollarQuotes)
}

func TestLimit(t *testing.T) {
	tests := []struct {
		name     string
		style    core.LimitStyle
		limit    int
		offset   int
		want     string
		wantSkip int
	}{
		{"no limit", core.LimitOffset, 0, 50, `SELECT * FROM "t"`, 0},
		{"limit only", core.LimitOffset, 50, 0, `SELECT * FROM "t" LIMIT 50`, 0},
		{"limit offset", core.LimitOffset, 50, 100, `SELECT * FROM "t" LIMIT 50 OFFSET 100`, 0},
		{"top first page", core.LimitTop, 50, 0, `SELECT TOP (50) * FROM "t"`, 0},
		{"top later page", core.LimitTop, 50, 100, `SELECT TOP (150) * FROM "t"`, 100},
		{"rownum first page", core.LimitRownum, 50, 0, `SELECT * FROM (SELECT * FROM "t") WHERE ROWNUM <= 50`, 0},
		{"rownum later page", core.LimitRownum, 50, 100,
			`SELECT * FROM (SELECT t.*, ROWNUM AS rnum FROM (SELECT * FROM "t") t WHERE ROWNUM <= 150) WHERE rnum > 100`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, skip := testDialect(tt.style).Limit("*", `FROM "t"`, tt.limit, tt.offset)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantSkip, skip)
		})
	}
}

func TestApplyFunction(t *testing.T) {
	d := testDialect(core.LimitOffset)

	tests := []struct {
		fn   string
		want string
	}{
		{"", `"c"`},
		{"count distinct", `COUNT(DISTINCT "c")`},
		{"upper", `UPPER("c")`},
		{"unixepoch", `DATETIME("c", 'unixepoch')`},
	}

	for _, tt := range tests {
		t.Run(tt.fn, func(t *testing.T) {
			assert.Equal(t, tt.want, d.ApplyFunction(tt.fn, `"c"`))
		})
	}

	assert.True(t, d.IsGrouping("COUNT"))
	assert.False(t, d.IsGrouping("upper"))
	assert.True(t, d.HasFunction("upper"))
	assert.True(t, d.HasFunction("count distinct"))
	assert.False(t, d.HasFunction("sleep"))
}

func TestPredicate(t *testing.T) {
	d := testDialect(core.LimitOffset)

	tests := []struct {
		name  string
		op    string
		value string
		want  string
	}{
		{"equality", "=", "5", `"c" = '5'`},
		{"like wrap", "LIKE %%", "ab", `"c" LIKE '%ab%'`},
		{"in list", "IN", "1, 2,3", `"c" IN ('1', '2', '3')`},
		{"empty in", "NOT IN", "", `"c" NOT IN (NULL)`},
		{"is null ignores value", "IS NULL", "x", `"c" IS NULL`},
		{"find in set", "FIND_IN_SET", "a", `FIND_IN_SET('a', "c")`},
		{"quote in value", "!=", "o'neil", `"c" != 'o''neil'`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.Predicate(`"c"`, tt.op, tt.value))
		})
	}
}

func TestRegexpAndOperators(t *testing.T) {
	d := NewDialect("re").Operators(ComparisonOperators).Regexp("REGEXP").Build()
	assert.Equal(t, "REGEXP", d.RegexpOperator())
	assert.True(t, d.HasOperator("REGEXP"))

	trimmed := d.WithoutOperators("REGEXP", "!=")
	assert.Empty(t, trimmed.RegexpOperator())
	assert.False(t, trimmed.HasOperator("REGEXP"))
	assert.False(t, trimmed.HasOperator("!="))
	assert.True(t, d.HasOperator("!="), "original dialect is not modified")

	none := testDialect(core.LimitOffset)
	assert.Empty(t, none.RegexpOperator())
}

func TestFulltext(t *testing.T) {
	d := testDialect(core.LimitOffset)
	_, ok := d.Fulltext([]string{`"a"`}, "'x'")
	assert.False(t, ok)

	ft := NewDialect("ft").Fulltext(func(cols []string, text string) string {
		return "MATCH (" + cols[0] + ") AGAINST (" + text + ")"
	}).Build()
	got, ok := ft.Fulltext([]string{"`a`"}, "'x'")
	require.True(t, ok)
	assert.Equal(t, "MATCH (`a`) AGAINST ('x')", got)
}

func TestFeatures(t *testing.T) {
	d := NewDialect("f").Supports(core.FeatureKill, core.FeatureDump).Build()
	assert.True(t, d.Supports(core.FeatureKill))
	assert.False(t, d.Supports(core.FeaturePartitioning))
	assert.Equal(t, []core.Feature{core.FeatureDump, core.FeatureKill}, d.Features())
}

func TestFormatPlaceholder(t *testing.T) {
	tests := []struct {
		style core.PlaceholderStyle
		want  string
	}{
		{core.PlaceholderQuestion, "?"},
		{core.PlaceholderDollar, "$2"},
		{core.PlaceholderAtP, "@p2"},
		{core.PlaceholderColon, ":2"},
	}
	for _, tt := range tests {
		d := NewDialect("p").PlaceholderStyle(tt.style).Build()
		assert.Equal(t, tt.want, d.FormatPlaceholder(2))
	}
}
