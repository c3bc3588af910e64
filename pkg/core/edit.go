package core

// EditValue is the result of processing one submitted field.
// It is either Unchanged (leave the column alone) or a SQL expression to store.
type EditValue struct {
	set bool
	sql string
}

// Unchanged returns the value meaning "do not touch this column".
func Unchanged() EditValue {
	return EditValue{}
}

// Value returns a value carrying the SQL expression to store.
func Value(sql string) EditValue {
	return EditValue{set: true, sql: sql}
}

// IsUnchanged reports whether the column must be left as it is.
func (v EditValue) IsUnchanged() bool {
	return !v.set
}

// SQL returns the expression and true, or "" and false for Unchanged.
func (v EditValue) SQL() (string, bool) {
	return v.sql, v.set
}

func (v EditValue) String() string {
	if !v.set {
		return "<unchanged>"
	}
	return v.sql
}

// FieldInput is one submitted edit-form value.
// Value is nil when the form sent no value (e.g. an unchecked NULL box).
type FieldInput struct {
	Value    *string `json:"value"`
	Function string  `json:"function,omitempty"`
}

// Edit functions with special meaning.
const (
	FunctionOriginal = "orig"
	FunctionNull     = "NULL"
)
