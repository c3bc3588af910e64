// Package dialect provides the DuckDB SQL dialect definition.
// This package is lightweight and has no database driver dependencies,
// making it suitable for tools that need dialect information without
// the overhead of database connections.
package dialect

import (
	"github.com/leapstack-labs/leapadmin/pkg/core"
	"github.com/leapstack-labs/leapadmin/pkg/dialect"
)

// DuckDB is the DuckDB dialect configuration.
var DuckDB = dialect.NewDialect("duckdb").
	Identifiers(`"`, `"`, `""`, core.NormCaseInsensitive).
	DefaultSchema("main").
	PlaceholderStyle(core.PlaceholderQuestion).
	Pagination(core.LimitOffset).
	Functions("length", "lower", "round", "upper", "epoch", "date_trunc", "hex").
	Grouping("avg", "count", "count distinct", "max", "min", "sum", "median", "string_agg").
	Operators(
		dialect.ComparisonOperators,
		[]string{"~", "LIKE", "LIKE %%", "ILIKE", "ILIKE %%", "IN", "IS NULL", "NOT LIKE", "NOT ILIKE", "NOT IN", "IS NOT NULL"},
	).
	Like("ILIKE").
	Regexp("~").
	Supports(
		core.FeatureColumns, core.FeatureComment, core.FeatureDatabase, core.FeatureDropCol,
		core.FeatureDump, core.FeatureIndexes, core.FeatureScheme, core.FeatureSequence,
		core.FeatureSQL, core.FeatureTable, core.FeatureType, core.FeatureView,
	).
	Build()
