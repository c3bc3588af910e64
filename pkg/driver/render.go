package driver

import (
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/leapstack-labs/leapadmin/pkg/core"
)

// Table actions offered by SelectLinks.
const (
	LinkSelect = "select"
	LinkShow   = "table"
	LinkAlter  = "create"
	LinkInsert = "edit"
)

// TableName returns the display name of a table.
func (b *BaseSQLDriver) TableName(ts core.TableStatus) string {
	return ts.Name
}

// FieldName returns the display name of a column.
// Repeated column names in one result are disambiguated by their order.
func (b *BaseSQLDriver) FieldName(f core.Field, order int) string {
	if order > 0 {
		return f.Name + " (" + strconv.Itoa(order+1) + ")"
	}
	return f.Name
}

// SelectLinks returns the actions offered next to a table name.
func (b *BaseSQLDriver) SelectLinks(ts core.TableStatus) []core.Link {
	links := []core.Link{
		{Action: LinkSelect, Label: "Select data"},
		{Action: LinkShow, Label: "Show structure"},
	}
	if b.Supports(core.FeatureTable) {
		label := "Alter table"
		if ts.IsView {
			label = "Alter view"
		}
		links = append(links, core.Link{Action: LinkAlter, Label: label})
	}
	if !ts.IsView {
		links = append(links, core.Link{Action: LinkInsert, Label: "New item"})
	}
	return links
}

// SelectLink returns a link target for a value: mailto for e-mail addresses,
// the value itself for http(s) URLs, "" otherwise.
func (b *BaseSQLDriver) SelectLink(val any, _ core.Field) string {
	s, ok := val.(string)
	if !ok || s == "" {
		return ""
	}
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		if !strings.ContainsAny(s, " \t\n") {
			return s
		}
		return ""
	}
	if strings.Count(s, "@") == 1 && !strings.ContainsAny(s, " \t\n<>") {
		if addr, err := mail.ParseAddress(s); err == nil && addr.Address == s {
			return "mailto:" + s
		}
	}
	return ""
}

// SelectVal formats a value for the result grid.
func (b *BaseSQLDriver) SelectVal(val any, f core.Field, link string) core.Cell {
	switch v := val.(type) {
	case nil:
		return core.Cell{Text: "NULL", Null: true}
	case []byte:
		if !utf8.Valid(v) {
			return core.Cell{Text: fmt.Sprintf("[%d bytes]", len(v)), Binary: true}
		}
		return core.Cell{Text: string(v), Link: link}
	default:
		return core.Cell{Text: b.EditVal(val, f), Link: link}
	}
}

// EditVal returns the edit-form text for a value.
func (b *BaseSQLDriver) EditVal(val any, _ core.Field) string {
	switch v := val.(type) {
	case nil:
		return ""
	case bool:
		if v {
			return "1"
		}
		return "0"
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case time.Time:
		if v.Hour() == 0 && v.Minute() == 0 && v.Second() == 0 && v.Nanosecond() == 0 {
			return v.Format(time.DateOnly)
		}
		return v.Format(time.DateTime)
	default:
		return core.FormatValue(val)
	}
}

// RowDescriptions replaces foreign key values with a description of the
// referenced row. The default keeps rows unchanged.
func (b *BaseSQLDriver) RowDescriptions(rows []core.Row, _ []core.ForeignKey) []core.Row {
	return rows
}

// ForeignColumn returns the single-column foreign key whose source is column.
func (b *BaseSQLDriver) ForeignColumn(fks []core.ForeignKey, column string) *core.ForeignKey {
	for i := range fks {
		if len(fks[i].Source) == 1 && fks[i].Source[0] == column {
			return &fks[i]
		}
	}
	return nil
}
