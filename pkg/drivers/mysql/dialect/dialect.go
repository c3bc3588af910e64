// Package dialect provides the MySQL SQL dialect definition.
// This package is lightweight and has no database driver dependencies,
// so tools that only need quoting and operator sets can import it alone.
package dialect

import (
	"strings"

	"github.com/leapstack-labs/leapadmin/pkg/core"
	"github.com/leapstack-labs/leapadmin/pkg/dialect"
	"github.com/leapstack-labs/leapadmin/pkg/sqlscript"
)

// MySQL is the MySQL/MariaDB dialect configuration.
var MySQL = dialect.NewDialect("mysql").
	Identifiers("`", "`", "``", core.NormCaseSensitive).
	PlaceholderStyle(core.PlaceholderQuestion).
	Pagination(core.LimitOffset).
	LiteralBackslash().
	ScriptSyntax(sqlscript.Options{HashComments: true, DelimiterCommand: true}).
	Functions("char_length", "date", "from_unixtime", "lower", "round", "floor", "ceil", "sec_to_time", "time_to_sec", "upper").
	Grouping("avg", "count", "count distinct", "group_concat", "max", "min", "sum").
	Operators(
		dialect.ComparisonOperators,
		[]string{"LIKE", "LIKE %%", "REGEXP", "IN", "FIND_IN_SET", "IS NULL", "NOT LIKE", "NOT REGEXP", "NOT IN", "IS NOT NULL"},
	).
	Regexp("REGEXP").
	Fulltext(func(columns []string, text string) string {
		return "MATCH (" + strings.Join(columns, ", ") + ") AGAINST (" + text + ")"
	}).
	Supports(
		core.FeatureComment, core.FeatureColumns, core.FeatureCopy, core.FeatureDatabase,
		core.FeatureDescIdx, core.FeatureDropCol, core.FeatureDump, core.FeatureEvent,
		core.FeatureFulltext, core.FeatureIndexes, core.FeatureKill, core.FeatureMoveCol,
		core.FeaturePartitioning, core.FeaturePrivileges, core.FeatureProcedure,
		core.FeatureProcessList, core.FeatureRoutine, core.FeatureSQL, core.FeatureStatus,
		core.FeatureTable, core.FeatureTrigger, core.FeatureVariables, core.FeatureView,
	).
	Build()
