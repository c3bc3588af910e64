// Package dialect provides the PostgreSQL SQL dialect definition.
// This package is lightweight and has no database driver dependencies,
// making it suitable for tools that need dialect information without
// the overhead of database connections.
package dialect

import (
	"github.com/leapstack-labs/leapadmin/pkg/core"
	"github.com/leapstack-labs/leapadmin/pkg/dialect"
	"github.com/leapstack-labs/leapadmin/pkg/sqlscript"
)

// Postgres is the PostgreSQL dialect configuration.
var Postgres = dialect.NewDialect("postgres").
	Identifiers(`"`, `"`, `""`, core.NormLowercase). // Postgres normalizes unquoted identifiers to lowercase
	DefaultSchema("public").
	PlaceholderStyle(core.PlaceholderDollar).
	Pagination(core.LimitOffset).
	ScriptSyntax(sqlscript.Options{DollarQuotes: true}).
	Functions("char_length", "lower", "round", "to_hex", "to_timestamp", "upper").
	Grouping(dialect.StandardGrouping...).
	Operators(
		dialect.ComparisonOperators,
		[]string{"~", "!~", "LIKE", "LIKE %%", "ILIKE", "ILIKE %%", "IN", "IS NULL", "NOT LIKE", "NOT ILIKE", "NOT IN", "IS NOT NULL"},
	).
	Like("ILIKE").
	Regexp("~").
	Supports(
		core.FeatureComment, core.FeatureColumns, core.FeatureDatabase, core.FeatureDescIdx,
		core.FeatureDropCol, core.FeatureDump, core.FeatureIndexes, core.FeatureKill,
		core.FeatureMaterializedView, core.FeatureProcessList, core.FeatureRoutine,
		core.FeatureScheme, core.FeatureSequence, core.FeatureSQL, core.FeatureTable,
		core.FeatureTrigger, core.FeatureType, core.FeatureVariables, core.FeatureView,
	).
	Build()
