// Package dialect provides the SQLite SQL dialect definition.
package dialect

import (
	"github.com/leapstack-labs/leapadmin/pkg/core"
	"github.com/leapstack-labs/leapadmin/pkg/dialect"
)

// SQLite is the SQLite dialect configuration.
var SQLite = dialect.NewDialect("sqlite").
	Identifiers(`"`, `"`, `""`, core.NormCaseInsensitive).
	PlaceholderStyle(core.PlaceholderQuestion).
	Pagination(core.LimitOffset).
	Functions("hex", "length", "lower", "round", "unixepoch", "upper").
	Grouping("avg", "count", "count distinct", "group_concat", "max", "min", "sum").
	Operators(
		dialect.ComparisonOperators,
		[]string{"LIKE", "LIKE %%", "GLOB", "IN", "IS NULL", "NOT LIKE", "NOT GLOB", "NOT IN", "IS NOT NULL"},
	).
	Supports(
		core.FeatureColumns, core.FeatureDescIdx, core.FeatureDropCol, core.FeatureDump,
		core.FeatureIndexes, core.FeatureMoveCol, core.FeatureSQL, core.FeatureStatus,
		core.FeatureTable, core.FeatureTrigger, core.FeatureView, core.FeatureViewTrigger,
	).
	Build()
