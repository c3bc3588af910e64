package admin

import (
	"context"
	"slices"
	"strconv"
	"strings"

	"github.com/leapstack-labs/leapadmin/pkg/core"
)

// fieldsFor returns the fields of table that appear in inputs, in column order.
// Names that are not columns of table are a ValidationError.
func fieldsFor[V any](fields []core.Field, inputs map[string]V, at string) ([]core.Field, error) {
	names := make([]string, 0, len(inputs))
	for name := range inputs {
		names = append(names, name)
	}
	slices.Sort(names)

	out := make([]core.Field, 0, len(names))
	for _, name := range names {
		f, ok := core.FindField(fields, name)
		if !ok {
			return nil, &core.ValidationError{
				Field:      at + "[" + name + "]",
				Reason:     "unknown column " + strconv.Quote(name),
				Suggestion: suggest(name, fieldNames(fields)),
			}
		}
		out = append(out, f)
	}
	slices.SortStableFunc(out, func(a, b core.Field) int { return a.Position - b.Position })
	return out, nil
}

// assignments runs every input through the driver's edit functions and returns
// the quoted columns with their expressions, skipping unchanged ones.
func (s *Session) assignments(ctx context.Context, table string, inputs map[string]core.FieldInput) ([]core.Field, []string, []string, error) {
	all, err := s.driver.Fields(ctx, table)
	if err != nil {
		return nil, nil, nil, err
	}
	fields, err := fieldsFor(all, inputs, "fields")
	if err != nil {
		return nil, nil, nil, err
	}

	var cols, vals []string
	for _, f := range fields {
		v, err := s.driver.ProcessInput(f, inputs[f.Name])
		if err != nil {
			return nil, nil, nil, err
		}
		expr, ok := v.SQL()
		if !ok {
			continue
		}
		cols = append(cols, s.driver.Dialect().QuoteIdentifier(f.Name))
		vals = append(vals, expr)
	}
	return all, cols, vals, nil
}

// Insert adds one row to table. Fields whose input is unchanged are left to their defaults.
func (s *Session) Insert(ctx context.Context, table string, inputs map[string]core.FieldInput) (*ExecResult, error) {
	_, cols, vals, err := s.assignments(ctx, table, inputs)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, core.Invalid("fields", "no values to insert")
	}

	stmt := "INSERT INTO " + quoteTable(s.driver.Dialect(), table) +
		" (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(vals, ", ") + ")"
	return s.exec(ctx, stmt)
}

// Update changes the row of table identified by where. When every input is
// unchanged no statement is run and the result is empty.
func (s *Session) Update(ctx context.Context, table string, inputs map[string]core.FieldInput, where map[string]string) (*ExecResult, error) {
	if len(where) == 0 {
		return nil, core.Invalid("where", "a row identifier is required")
	}

	all, cols, vals, err := s.assignments(ctx, table, inputs)
	if err != nil {
		return nil, err
	}
	keys, err := fieldsFor(all, where, "where")
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return &ExecResult{}, nil
	}

	d := s.driver.Dialect()
	set := make([]string, len(cols))
	for i := range cols {
		set[i] = cols[i] + " = " + vals[i]
	}
	conds := make([]string, len(keys))
	for i, f := range keys {
		conds[i] = d.QuoteIdentifier(f.Name) + " = " + d.QuoteLiteral(where[f.Name])
	}

	stmt := "UPDATE " + quoteTable(d, table) + " SET " + strings.Join(set, ", ") +
		" WHERE " + strings.Join(conds, " AND ")
	return s.exec(ctx, stmt)
}
