package core

// Dump styles for the database preamble.
const (
	DatabaseStyleNone       = ""
	DatabaseStyleUse        = "USE"
	DatabaseStyleDropCreate = "DROP+CREATE"
	DatabaseStyleCreate     = "CREATE"
)

// Dump styles for table structure.
const (
	TableStyleNone       = ""
	TableStyleDropCreate = "DROP+CREATE"
	TableStyleCreate     = "CREATE"
)

// Dump styles for table data.
const (
	DataStyleNone           = ""
	DataStyleInsert         = "INSERT"
	DataStyleTruncateInsert = "TRUNCATE+INSERT"
	DataStyleInsertUpdate   = "INSERT+UPDATE"
)

// Dump outputs.
const (
	OutputText = "text"
	OutputFile = "file"
	OutputGzip = "gz"
	OutputZstd = "zst"
)

// Dump formats.
const (
	FormatSQL          = "sql"
	FormatCSV          = "csv"
	FormatCSVSemicolon = "csv;"
	FormatTSV          = "tsv"
)

// DumpHeaders describes how a dump is delivered.
type DumpHeaders struct {
	Filename    string
	Extension   string
	ContentType string
	Disposition string
	Compression string // "", "gz" or "zst"
}
