package core

// Feature names an optional capability a driver may or may not support.
type Feature string

// Known features.
const (
	FeatureComment          Feature = "comment"
	FeatureColumns          Feature = "columns"
	FeatureCopy             Feature = "copy"
	FeatureDatabase         Feature = "database"
	FeatureDescIdx          Feature = "descidx"
	FeatureDropCol          Feature = "drop_col"
	FeatureDump             Feature = "dump"
	FeatureEvent            Feature = "event"
	FeatureFulltext         Feature = "fulltext"
	FeatureIndexes          Feature = "indexes"
	FeatureKill             Feature = "kill"
	FeatureMaterializedView Feature = "materializedview"
	FeatureMoveCol          Feature = "move_col"
	FeaturePartitioning     Feature = "partitioning"
	FeaturePrivileges       Feature = "privileges"
	FeatureProcedure        Feature = "procedure"
	FeatureProcessList      Feature = "processlist"
	FeatureRoutine          Feature = "routine"
	FeatureScheme           Feature = "scheme"
	FeatureSequence         Feature = "sequence"
	FeatureSQL              Feature = "sql"
	FeatureStatus           Feature = "status"
	FeatureTable            Feature = "table"
	FeatureTrigger          Feature = "trigger"
	FeatureType             Feature = "type"
	FeatureVariables        Feature = "variables"
	FeatureView             Feature = "view"
	FeatureViewTrigger      Feature = "view_trigger"
)

// AllFeatures lists every known feature in a stable order.
var AllFeatures = []Feature{
	FeatureComment, FeatureColumns, FeatureCopy, FeatureDatabase, FeatureDescIdx,
	FeatureDropCol, FeatureDump, FeatureEvent, FeatureFulltext, FeatureIndexes,
	FeatureKill, FeatureMaterializedView, FeatureMoveCol, FeaturePartitioning,
	FeaturePrivileges, FeatureProcedure, FeatureProcessList, FeatureRoutine,
	FeatureScheme, FeatureSequence, FeatureSQL, FeatureStatus, FeatureTable,
	FeatureTrigger, FeatureType, FeatureVariables, FeatureView, FeatureViewTrigger,
}
