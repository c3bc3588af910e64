package driver

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/leapstack-labs/leapadmin/pkg/core"
)

// TypeFunctions offers Functions for columns whose declared type matches Pattern.
// A nil Pattern matches every type.
type TypeFunctions struct {
	Pattern   *regexp.Regexp
	Functions []string
}

// ForTypes builds a TypeFunctions entry from a case-insensitive type pattern.
func ForTypes(pattern string, functions ...string) TypeFunctions {
	tf := TypeFunctions{Functions: functions}
	if pattern != "" {
		tf.Pattern = regexp.MustCompile("(?i)" + pattern)
	}
	return tf
}

func (tf TypeFunctions) matches(typ string) bool {
	return tf.Pattern == nil || tf.Pattern.MatchString(typ)
}

// EditFunctionTable lists the edit functions of an engine.
// Insert functions are offered in both modes, Update functions only when editing an existing row.
type EditFunctionTable struct {
	Insert []TypeFunctions
	Update []TypeFunctions
}

// Function name for a raw SQL expression typed by the user.
const FunctionSQL = "SQL"

var intervalValue = regexp.MustCompile(`(?i)^(\d+|'[0-9.: -]+') [A-Z_]+$`)

// EditFunctions lists the functions offered for a field, in display order.
func (b *BaseSQLDriver) EditFunctions(f core.Field, update bool) []string {
	var out []string
	if update {
		out = append(out, core.FunctionOriginal)
	}
	if f.Null {
		out = append(out, core.FunctionNull)
	}
	add := func(table []TypeFunctions) {
		for _, tf := range table {
			if !tf.matches(f.Type) {
				continue
			}
			for _, fn := range tf.Functions {
				if !slices.Contains(out, fn) {
					out = append(out, fn)
				}
			}
		}
	}
	add(b.Edit.Insert)
	if update {
		add(b.Edit.Update)
	}
	if b.Supports(core.FeatureSQL) {
		out = append(out, FunctionSQL)
	}
	return out
}

// ProcessInput turns one submitted field into the SQL expression to store.
func (b *BaseSQLDriver) ProcessInput(f core.Field, in core.FieldInput) (core.EditValue, error) {
	fn := in.Function
	switch fn {
	case core.FunctionOriginal:
		return core.Unchanged(), nil
	case core.FunctionNull:
		return core.Value("NULL"), nil
	}
	if in.Value == nil {
		return core.Value("NULL"), nil
	}
	val := *in.Value

	if fn == "" {
		if f.AutoIncrement && val == "" {
			return core.Unchanged(), nil
		}
		return core.Value(b.SQL.QuoteLiteral(val)), nil
	}

	if !slices.Contains(b.EditFunctions(f, true), fn) {
		return core.EditValue{}, core.Invalid(f.Name, fmt.Sprintf("unknown function %q", fn))
	}

	col := b.SQL.QuoteIdentifier(f.Name)
	lit := b.SQL.QuoteLiteral(val)

	switch fn {
	case FunctionSQL:
		return core.Value(val), nil
	case "now", "getdate", "uuid", "newid":
		return core.Value(fn + "()"), nil
	case "current_date", "current_timestamp":
		return core.Value(fn), nil
	case "+", "-", "||":
		return core.Value(col + " " + fn + " " + lit), nil
	case "+ interval", "- interval":
		if intervalValue.MatchString(val) {
			return core.Value(col + " " + fn + " " + val), nil
		}
		return core.Value(col + " " + fn + " " + lit), nil
	case "addtime", "subtime", "concat":
		return core.Value(fn + "(" + col + ", " + lit + ")"), nil
	default:
		// md5, sha1, password, encrypt and other single-argument functions
		return core.Value(strings.ToLower(fn) + "(" + lit + ")"), nil
	}
}
