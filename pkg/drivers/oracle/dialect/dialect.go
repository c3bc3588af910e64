// Package dialect provides the Oracle dialect definition.
package dialect

import (
	"github.com/leapstack-labs/leapadmin/pkg/core"
	"github.com/leapstack-labs/leapadmin/pkg/dialect"
)

// Oracle is the Oracle Database dialect configuration.
var Oracle = dialect.NewDialect("oracle").
	Identifiers(`"`, `"`, `""`, core.NormUppercase).
	PlaceholderStyle(core.PlaceholderColon).
	Pagination(core.LimitRownum).
	Functions("length", "lower", "round", "upper").
	Grouping(dialect.StandardGrouping...).
	Operators(
		dialect.ComparisonOperators,
		dialect.StandardSearchOperators,
	).
	Supports(
		core.FeatureColumns, core.FeatureDropCol, core.FeatureDump, core.FeatureIndexes,
		core.FeatureProcessList, core.FeatureScheme, core.FeatureSequence, core.FeatureSQL,
		core.FeatureTable, core.FeatureView, core.FeatureViewTrigger,
	).
	Build()
