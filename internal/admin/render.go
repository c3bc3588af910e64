package admin

import (
	"net/url"
	"unicode/utf8"

	"github.com/leapstack-labs/leapadmin/pkg/core"
	"github.com/leapstack-labs/leapadmin/pkg/driver"
)

// Ellipsis marks truncated text.
const Ellipsis = "…"

// SelectResult is an executed SELECT.
// Fields and ForeignKeys describe the selected table; they are empty for ad-hoc statements.
type SelectResult struct {
	Query       SelectQuery       `json:"query"`
	Columns     []string          `json:"columns"`
	Rows        []core.Row        `json:"rows"`
	Fields      []core.Field      `json:"-"`
	ForeignKeys []core.ForeignKey `json:"foreign_keys,omitempty"`
}

// Headers returns the display names of the result columns. A name that
// appeared before gets its occurrence number, so "id", "id" becomes "id", "id (2)".
func Headers(result *SelectResult, r driver.Renderer) []string {
	if result == nil {
		return nil
	}
	seen := make(map[string]int, len(result.Columns))
	out := make([]string, len(result.Columns))
	for i, f := range resultFields(result) {
		out[i] = r.FieldName(f, seen[f.Name])
		seen[f.Name]++
	}
	return out
}

// RenderRows formats the rows of result for display. Text longer than textLength
// runes is cut; 0 keeps it whole. Values of single-column foreign keys link to the
// referenced row. result.Rows is left untouched.
func RenderRows(result *SelectResult, r driver.Renderer, textLength int) [][]core.Cell {
	if result == nil {
		return nil
	}

	cols := resultFields(result)
	fks := make([]*core.ForeignKey, len(cols))
	for i, f := range cols {
		fks[i] = r.ForeignColumn(result.ForeignKeys, f.Name)
	}

	out := make([][]core.Cell, len(result.Rows))
	for i, row := range result.Rows {
		cells := make([]core.Cell, len(cols))
		for j, f := range cols {
			var val any
			if j < len(row.Values) {
				val = row.Values[j]
			}
			link := ""
			if fks[j] != nil && val != nil {
				link = ForeignLink(fks[j], r.EditVal(val, f))
			}
			if link == "" {
				link = r.SelectLink(val, f)
			}
			cell := r.SelectVal(val, f, link)
			if !cell.Null && !cell.Binary && textLength > 0 {
				short := Truncate(cell.Text, textLength)
				cell.Truncated = short != cell.Text
				cell.Text = short
			}
			cells[j] = cell
		}
		out[i] = cells
	}
	return out
}

// ForeignLink returns the select URL of the row fk points at for value.
func ForeignLink(fk *core.ForeignKey, value string) string {
	if fk == nil || len(fk.Target) != 1 {
		return ""
	}
	table := fk.Table
	if fk.Schema != "" {
		table = fk.Schema + "." + table
	}
	q := url.Values{}
	q.Set("where[0][col]", fk.Target[0])
	q.Set("where[0][op]", "=")
	q.Set("where[0][val]", value)
	return "/api/select/" + url.PathEscape(table) + "?" + q.Encode()
}

// resultFields matches every result column to a field of the table, falling
// back to a bare field for computed columns.
func resultFields(result *SelectResult) []core.Field {
	cols := make([]core.Field, len(result.Columns))
	for i, name := range result.Columns {
		f, ok := core.FindField(result.Fields, name)
		if !ok {
			f = core.Field{Name: name}
		}
		cols[i] = f
	}
	return cols
}

// Truncate shortens s to n runes, appending an ellipsis when anything was cut.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos] + Ellipsis
		}
		i++
	}
	return s
}
