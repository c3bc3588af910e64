// Package dialect provides the Microsoft SQL Server dialect definition.
package dialect

import (
	"github.com/leapstack-labs/leapadmin/pkg/core"
	"github.com/leapstack-labs/leapadmin/pkg/dialect"
)

// MSSQL is the SQL Server dialect configuration.
// SQL Server has no OFFSET without ORDER BY, so pages are read with TOP and skipped client side.
var MSSQL = dialect.NewDialect("mssql").
	Identifiers("[", "]", "]]", core.NormCaseInsensitive).
	DefaultSchema("dbo").
	PlaceholderStyle(core.PlaceholderAtP).
	Pagination(core.LimitTop).
	Functions("len", "lower", "round", "upper").
	Grouping(dialect.StandardGrouping...).
	Operators(
		dialect.ComparisonOperators,
		[]string{"LIKE", "LIKE %%", "IN", "IS NULL", "NOT LIKE", "NOT IN", "IS NOT NULL"},
	).
	Supports(
		core.FeatureColumns, core.FeatureDatabase, core.FeatureDropCol, core.FeatureDump,
		core.FeatureIndexes, core.FeatureKill, core.FeatureProcessList, core.FeatureScheme,
		core.FeatureSequence, core.FeatureSQL, core.FeatureTable, core.FeatureTrigger,
		core.FeatureType, core.FeatureView, core.FeatureViewTrigger,
	).
	Build()
