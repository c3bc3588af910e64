package dialect

import (
	"strings"
)

// Operator sets that dialects compose from.
var (
	// ComparisonOperators are understood by every engine.
	ComparisonOperators = []string{"=", "<", ">", "<=", ">=", "!="}

	// StandardSearchOperators cover pattern, membership and NULL tests.
	StandardSearchOperators = []string{"LIKE", "LIKE %%", "IN", "IS NULL", "NOT LIKE", "NOT IN", "IS NOT NULL"}

	// StandardFunctions are scalar functions offered by most engines.
	StandardFunctions = []string{"char_length", "lower", "round", "upper"}

	// StandardGrouping are the aggregates every engine offers.
	StandardGrouping = []string{"avg", "count", "count distinct", "max", "min", "sum"}
)

// IsUnary reports whether op takes no value.
func IsUnary(op string) bool {
	return strings.HasSuffix(op, " NULL")
}

// Predicate renders one search condition. expr is an already quoted column
// expression and value is the raw user input.
func (d *Dialect) Predicate(expr, op, value string) string {
	switch {
	case IsUnary(op):
		return expr + " " + op
	case strings.HasSuffix(op, " %%"):
		base := strings.TrimSuffix(op, " %%")
		return expr + " " + base + " " + d.QuoteLiteral("%"+value+"%")
	case op == "IN" || op == "NOT IN":
		return expr + " " + op + " " + d.inList(value)
	case op == "FIND_IN_SET":
		return "FIND_IN_SET(" + d.QuoteLiteral(value) + ", " + expr + ")"
	default:
		return expr + " " + op + " " + d.QuoteLiteral(value)
	}
}

// inList turns a comma separated value into a quoted IN list.
// An empty value yields (NULL) so the predicate matches nothing instead of failing.
func (d *Dialect) inList(value string) string {
	if strings.TrimSpace(value) == "" {
		return "(NULL)"
	}
	parts := strings.Split(value, ",")
	quoted := make([]string, len(parts))
	for i, p := range parts {
		quoted[i] = d.QuoteLiteral(strings.TrimSpace(p))
	}
	return "(" + strings.Join(quoted, ", ") + ")"
}
