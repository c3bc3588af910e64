package core

// TableStatus is a read-only snapshot of one table or view.
type TableStatus struct {
	Name        string `json:"name"`
	Engine      string `json:"engine,omitempty"`
	Collation   string `json:"collation,omitempty"`
	Rows        int64  `json:"rows"` // estimate, -1 when unknown
	DataLength  int64  `json:"data_length"`
	IndexLength int64  `json:"index_length"`
	Comment     string `json:"comment,omitempty"`
	IsView      bool   `json:"is_view"`
}

// Field is one column of a table.
type Field struct {
	Name          string  `json:"name"`
	Type          string  `json:"type"` // full declared type, e.g. varchar(255)
	Null          bool    `json:"null"`
	Default       *string `json:"default,omitempty"`
	Position      int     `json:"position"`
	AutoIncrement bool    `json:"auto_increment,omitempty"`
	Primary       bool    `json:"primary,omitempty"`
	Comment       string  `json:"comment,omitempty"`
	Collation     string  `json:"collation,omitempty"`
}

// IndexKind classifies an index.
type IndexKind string

// Index kinds.
const (
	IndexPrimary  IndexKind = "PRIMARY"
	IndexUnique   IndexKind = "UNIQUE"
	IndexPlain    IndexKind = "INDEX"
	IndexFulltext IndexKind = "FULLTEXT"
	IndexSpatial  IndexKind = "SPATIAL"
)

// IndexColumn is one column of an index with its optional prefix length.
type IndexColumn struct {
	Name       string `json:"name"`
	Length     int    `json:"length,omitempty"`
	Descending bool   `json:"descending,omitempty"`
}

// Index describes one index of a table.
type Index struct {
	Name    string        `json:"name"`
	Kind    IndexKind     `json:"kind"`
	Columns []IndexColumn `json:"columns"`
}

// ColumnNames returns the index column names in order.
func (i Index) ColumnNames() []string {
	names := make([]string, len(i.Columns))
	for n, c := range i.Columns {
		names[n] = c.Name
	}
	return names
}

// ForeignKey describes a reference from Source columns to Target columns of Table.
type ForeignKey struct {
	Name     string   `json:"name"`
	Source   []string `json:"source"`
	Database string   `json:"database,omitempty"`
	Schema   string   `json:"schema,omitempty"`
	Table    string   `json:"table"`
	Target   []string `json:"target"`
	OnDelete string   `json:"on_delete,omitempty"`
	OnUpdate string   `json:"on_update,omitempty"`
}

// BackwardKey is a foreign key declared on another table that points at this one.
type BackwardKey struct {
	Table string     `json:"table"`
	Key   ForeignKey `json:"key"`
}

// FindField returns the field named name.
func FindField(fields []Field, name string) (Field, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}
