package commands

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/leapstack-labs/leapadmin/internal/admin"
	"github.com/leapstack-labs/leapadmin/internal/cli/output"
	"github.com/leapstack-labs/leapadmin/pkg/core"
	"github.com/spf13/cobra"
)

// SelectOptions holds options for the select command.
type SelectOptions struct {
	Columns    []string
	Where      []string
	Order      []string
	Limit      int
	Page       int
	TextLength int
}

// NewSelectCommand creates the select command.
func NewSelectCommand() *cobra.Command {
	opts := &SelectOptions{}

	cmd := &cobra.Command{
		Use:   "select <table>",
		Short: "Browse the rows of a table",
		Long: `Build a SELECT from columns, conditions and ordering, validate it
against the table structure and run it.

Columns are names or function calls such as lower(email) or count(*).
Conditions are "column operator value"; leave the column out to search every
column. Order terms are a column name with an optional "desc".`,
		Example: `  leapadmin select customers
  leapadmin select orders -c customer_id -c 'count(id)' --order customer_id
  leapadmin select customers -w 'email LIKE %@example.com' --limit 10 --page 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSelect(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Columns, "column", "c", nil, "Column or function(column) to select (repeatable)")
	cmd.Flags().StringArrayVarP(&opts.Where, "where", "w", nil, `Condition "column operator value" (repeatable)`)
	cmd.Flags().StringArrayVar(&opts.Order, "order", nil, `Order term "column [desc]" (repeatable)`)
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", admin.DefaultLimit, "Rows per page, 0 for all")
	cmd.Flags().IntVar(&opts.Page, "page", 0, "Zero-based page number")
	cmd.Flags().IntVar(&opts.TextLength, "text-length", admin.DefaultTextLength, "Cut text longer than this, 0 keeps it whole")

	return cmd
}

func runSelect(cmd *cobra.Command, table string, opts *SelectOptions) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	d := cc.Session.Driver()

	spec, err := opts.Spec(table, cc.Session.Operators())
	if err != nil {
		return err
	}
	result, err := cc.Session.Select(ctx, spec)
	if err != nil {
		return err
	}

	if cc.Renderer.Mode() == output.ModeJSON {
		return cc.Renderer.JSON(result)
	}

	cc.Renderer.Muted(result.Query.SQL)
	return cc.Renderer.Render(cellTable(admin.Headers(result, d), admin.RenderRows(result, d, spec.TextLength)))
}

// Spec turns the flags into a select spec. ops are the search operators of the engine.
func (o *SelectOptions) Spec(table string, ops []string) (*admin.SelectSpec, error) {
	spec := &admin.SelectSpec{Table: table, Limit: o.Limit, Page: o.Page, TextLength: o.TextLength}

	for _, c := range o.Columns {
		spec.Columns = append(spec.Columns, parseColumn(c))
	}
	for i, w := range o.Where {
		p, err := parseCondition(w, ops)
		if err != nil {
			return nil, &core.ValidationError{Field: fmt.Sprintf("where[%d]", i), Reason: err.Error()}
		}
		spec.Where = append(spec.Where, p)
	}
	for _, term := range o.Order {
		fields := strings.Fields(term)
		if len(fields) == 0 {
			continue
		}
		desc := len(fields) > 1 && strings.EqualFold(fields[len(fields)-1], "desc")
		col := strings.TrimSpace(term)
		if desc {
			col = strings.Join(fields[:len(fields)-1], " ")
		}
		spec.Order = append(spec.Order, admin.OrderTerm{Column: col, Desc: desc})
	}
	return spec, nil
}

// parseColumn reads "name" or "fun(name)"; count(*) selects COUNT(*).
func parseColumn(s string) admin.SelectColumn {
	s = strings.TrimSpace(s)
	open := strings.IndexByte(s, '(')
	if open <= 0 || !strings.HasSuffix(s, ")") {
		return admin.SelectColumn{Column: s}
	}
	col := strings.TrimSpace(s[open+1 : len(s)-1])
	if col == "*" {
		col = ""
	}
	return admin.SelectColumn{Function: strings.ToLower(strings.TrimSpace(s[:open])), Column: col}
}

// parseCondition splits "column operator value" at the leftmost operator, preferring
// the longest one there. Word operators must stand apart from the column name.
func parseCondition(s string, ops []string) (admin.Predicate, error) {
	s = strings.TrimSpace(s)
	sorted := slices.Clone(ops)
	slices.SortStableFunc(sorted, func(a, b string) int { return cmp.Compare(len(b), len(a)) })

	for start := 0; start < len(s); start++ {
		rest := s[start:]
		for _, op := range sorted {
			if len(rest) < len(op) || !strings.EqualFold(rest[:len(op)], op) {
				continue
			}
			after := rest[len(op):]
			if isWordOp(op) && (start > 0 && s[start-1] != ' ' || after != "" && after[0] != ' ') {
				continue
			}
			return admin.Predicate{
				Column: strings.TrimSpace(s[:start]),
				Op:     op,
				Value:  strings.TrimSpace(after),
			}, nil
		}
	}
	return admin.Predicate{}, fmt.Errorf("no operator in %q, use one of %s", s, strings.Join(ops, ", "))
}

func isWordOp(op string) bool {
	last := op[len(op)-1]
	return last >= 'A' && last <= 'Z' || last >= 'a' && last <= 'z'
}

// cellTable lays out rendered cells.
func cellTable(columns []string, rows [][]core.Cell) output.Table {
	t := output.Table{Headers: columns}
	for _, row := range rows {
		out := make([]string, len(row))
		for i, c := range row {
			out[i] = c.Text
		}
		t.Rows = append(t.Rows, out)
	}
	return t
}
