package admin

import (
	"math"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/leapstack-labs/leapadmin/pkg/core"
	"github.com/leapstack-labs/leapadmin/pkg/dialect"
	"github.com/leapstack-labs/leapadmin/pkg/driver"
	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// Defaults applied when a request leaves a value out.
const (
	DefaultLimit      = 50
	DefaultTextLength = 100
)

// SelectColumn is one entry of the select list, optionally wrapped in a function.
// An empty Column with the count function selects COUNT(*).
type SelectColumn struct {
	Function string `json:"function,omitempty"`
	Column   string `json:"column"`
}

// Predicate is one search condition. Either Column or Index is set;
// an empty Column without Index searches every column.
type Predicate struct {
	Column string `json:"column,omitempty"`
	Index  string `json:"index,omitempty"`
	Op     string `json:"op"`
	Value  string `json:"value,omitempty"`
}

// OrderTerm is one ORDER BY entry.
type OrderTerm struct {
	Column string `json:"column"`
	Desc   bool   `json:"desc,omitempty"`
}

// SelectSpec describes the rows a user asked to see.
type SelectSpec struct {
	Table      string         `json:"table"`
	Columns    []SelectColumn `json:"columns,omitempty"`
	Where      []Predicate    `json:"where,omitempty"`
	Order      []OrderTerm    `json:"order,omitempty"`
	Limit      int            `json:"limit"`
	Page       int            `json:"page"`
	TextLength int            `json:"text_length"`
}

// Offset returns the number of rows before the requested page.
func (s *SelectSpec) Offset() int {
	if s.Limit <= 0 || s.Page <= 0 {
		return 0
	}
	return s.Limit * s.Page
}

// SelectQuery is an assembled statement.
// Display omits pagination and is what clone links carry.
// Skip is the number of leading rows to drop client side on TOP-style engines.
type SelectQuery struct {
	SQL     string `json:"sql"`
	Display string `json:"display"`
	Skip    int    `json:"skip,omitempty"`
}

var (
	groupKey = regexp.MustCompile(`^(columns|where)\[(\d+)\]\[(fun|col|op|val)\]$`)
	listKey  = regexp.MustCompile(`^(fulltext|order|desc)\[(\d+)\]$`)
)

type formRow struct {
	fun, col, op, val, fulltext, order string
	desc                                bool
}

// ParseSelectSpec reads a SelectSpec from request parameters:
// columns[i][fun|col], where[i][col|op|val], fulltext[i], order[i], desc[i],
// limit, page and text_length. Rows are taken in numeric index order and
// rows without content are skipped.
func ParseSelectSpec(table string, form url.Values) (*SelectSpec, error) {
	spec := &SelectSpec{Table: table, Limit: DefaultLimit, TextLength: DefaultTextLength}

	columns := make(map[int]*formRow)
	where := make(map[int]*formRow)
	lists := make(map[int]*formRow)
	row := func(m map[int]*formRow, key, idx string) (*formRow, error) {
		i, err := strconv.Atoi(idx)
		if err != nil {
			return nil, core.Invalid(key, "row index is out of range")
		}
		r, ok := m[i]
		if !ok {
			r = &formRow{}
			m[i] = r
		}
		return r, nil
	}

	for key, values := range form {
		if len(values) == 0 {
			continue
		}
		val := values[0]
		if m := groupKey.FindStringSubmatch(key); m != nil {
			target := columns
			if m[1] == "where" {
				target = where
			}
			r, err := row(target, key, m[2])
			if err != nil {
				return nil, err
			}
			switch m[3] {
			case "fun":
				r.fun = val
			case "col":
				r.col = val
			case "op":
				r.op = val
			case "val":
				r.val = val
			}
			continue
		}
		if m := listKey.FindStringSubmatch(key); m != nil {
			r, err := row(lists, key, m[2])
			if err != nil {
				return nil, err
			}
			switch m[1] {
			case "fulltext":
				r.fulltext = val
			case "order":
				r.order = val
			case "desc":
				r.desc = val != "" && val != "0"
			}
		}
	}

	for _, i := range sortedKeys(columns) {
		r := columns[i]
		if r.col == "" && r.fun == "" {
			continue
		}
		spec.Columns = append(spec.Columns, SelectColumn{Function: r.fun, Column: r.col})
	}
	for _, i := range sortedKeys(where) {
		r := where[i]
		p := Predicate{Column: r.col, Op: r.op, Value: r.val}
		if l, ok := lists[i]; ok && l.fulltext != "" {
			p.Index, p.Column = l.fulltext, ""
		}
		if p.Column == "" && p.Index == "" && p.Value == "" {
			continue
		}
		spec.Where = append(spec.Where, p)
	}
	for _, i := range sortedKeys(lists) {
		r := lists[i]
		if r.order == "" {
			continue
		}
		spec.Order = append(spec.Order, OrderTerm{Column: r.order, Desc: r.desc})
	}

	var err error
	if spec.Limit, err = formInt(form, "limit", DefaultLimit); err != nil {
		return nil, err
	}
	if spec.Page, err = formInt(form, "page", 0); err != nil {
		return nil, err
	}
	if spec.TextLength, err = formInt(form, "text_length", DefaultTextLength); err != nil {
		return nil, err
	}
	if err := checkPaging(spec.Limit, spec.Page); err != nil {
		return nil, err
	}
	return spec, nil
}

// checkPaging rejects a page whose last row number does not fit in an int.
func checkPaging(limit, page int) error {
	if limit < 0 {
		return core.Invalid("limit", "must be a non-negative number")
	}
	if page < 0 {
		return core.Invalid("page", "must be a non-negative number")
	}
	if limit > 0 && page >= math.MaxInt/limit {
		return core.Invalid("page", "page "+strconv.Itoa(page)+" is out of range for limit "+strconv.Itoa(limit))
	}
	return nil
}

func sortedKeys(m map[int]*formRow) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func formInt(form url.Values, key string, def int) (int, error) {
	raw := strings.TrimSpace(form.Get(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, core.Invalid(key, "must be a non-negative number, got "+strconv.Quote(raw))
	}
	return n, nil
}

// SelectBuilder validates a SelectSpec against a table and assembles the statement
// with the dialect of the connected engine.
type SelectBuilder struct {
	sql  *dialect.Dialect
	caps *Capabilities
}

// NewSelectBuilder creates a builder for the engine behind d.
// Operators named in disabled are not offered.
func NewSelectBuilder(d driver.Identity, caps *Capabilities, disabled ...string) *SelectBuilder {
	return &SelectBuilder{sql: d.Dialect().WithoutOperators(disabled...), caps: caps}
}

// Operators returns the search operators the builder accepts.
func (b *SelectBuilder) Operators() []string {
	return b.sql.Operators()
}

// Validate resolves every reference in spec against fields and indexes.
// Column names are matched the way the engine folds unquoted identifiers and
// rewritten to the declared name. Nothing is executed when it fails.
func (b *SelectBuilder) Validate(spec *SelectSpec, fields []core.Field, indexes []core.Index) error {
	if err := checkPaging(spec.Limit, spec.Page); err != nil {
		return err
	}
	names := fieldNames(fields)
	known := func(column *string, at string) error {
		if _, ok := core.FindField(fields, *column); ok {
			return nil
		}
		folded := b.sql.NormalizeName(*column)
		for _, f := range fields {
			if b.sql.NormalizeName(f.Name) == folded {
				*column = f.Name
				return nil
			}
		}
		return &core.ValidationError{
			Field:      at,
			Reason:     "unknown column " + strconv.Quote(*column),
			Suggestion: suggest(*column, names),
		}
	}

	for i, c := range spec.Columns {
		at := "columns[" + strconv.Itoa(i) + "]"
		if c.Function != "" && !b.sql.HasFunction(c.Function) {
			return &core.ValidationError{
				Field:      at,
				Reason:     "unknown function " + strconv.Quote(c.Function),
				Suggestion: suggest(c.Function, append(slices.Clone(b.sql.Functions()), b.sql.Grouping()...)),
			}
		}
		if c.Column == "" {
			if !isCount(c.Function) {
				return core.Invalid(at, "column is required")
			}
			continue
		}
		if err := known(&spec.Columns[i].Column, at); err != nil {
			return err
		}
	}

	for i, p := range spec.Where {
		at := "where[" + strconv.Itoa(i) + "]"
		if p.Index != "" {
			if err := b.validateFulltext(p, indexes, at); err != nil {
				return err
			}
			continue
		}
		if p.Op != "" && !b.sql.HasOperator(p.Op) {
			return core.Invalid(at, "unsupported operator "+strconv.Quote(p.Op))
		}
		if p.Column == "" {
			continue
		}
		if err := known(&spec.Where[i].Column, at); err != nil {
			return err
		}
	}

	for i := range spec.Order {
		if err := known(&spec.Order[i].Column, "order["+strconv.Itoa(i)+"]"); err != nil {
			return err
		}
	}
	return nil
}

func (b *SelectBuilder) validateFulltext(p Predicate, indexes []core.Index, at string) error {
	if err := b.caps.Require(string(core.FeatureFulltext)); err != nil {
		return err
	}
	if _, ok := b.sql.Fulltext(nil, ""); !ok {
		return &core.CapabilityError{Feature: core.FeatureFulltext, Driver: b.caps.Driver()}
	}
	var names []string
	for _, idx := range indexes {
		if idx.Name == p.Index {
			if idx.Kind != core.IndexFulltext {
				return core.Invalid(at, "index "+strconv.Quote(p.Index)+" is not a fulltext index")
			}
			return nil
		}
		if idx.Kind == core.IndexFulltext {
			names = append(names, idx.Name)
		}
	}
	return &core.ValidationError{
		Field:      at,
		Reason:     "unknown index " + strconv.Quote(p.Index),
		Suggestion: suggest(p.Index, names),
	}
}

// Assemble builds the statement for a validated spec. Clauses are emitted in the
// order select list, FROM, WHERE, GROUP BY, ORDER BY, pagination; no ORDER BY is
// added when spec.Order is empty.
func (b *SelectBuilder) Assemble(spec *SelectSpec, fields []core.Field, indexes []core.Index) SelectQuery {
	d := b.sql

	var list, group []string
	grouped := false
	for _, c := range spec.Columns {
		if c.Column == "" {
			list = append(list, "COUNT(*)")
			grouped = true
			continue
		}
		expr := d.QuoteIdentifier(c.Column)
		if d.IsGrouping(c.Function) {
			grouped = true
		} else {
			group = append(group, d.ApplyFunction(c.Function, expr))
		}
		list = append(list, d.ApplyFunction(c.Function, expr))
	}
	selectList := "*"
	if len(list) > 0 {
		selectList = strings.Join(list, ", ")
	}

	rest := "FROM " + quoteTable(d, spec.Table)

	var conds []string
	for _, p := range spec.Where {
		if cond := b.predicate(p, fields, indexes); cond != "" {
			conds = append(conds, cond)
		}
	}
	if len(conds) > 0 {
		rest += " WHERE " + strings.Join(conds, " AND ")
	}
	if grouped && len(group) > 0 {
		rest += " GROUP BY " + strings.Join(group, ", ")
	}
	if len(spec.Order) > 0 {
		terms := make([]string, len(spec.Order))
		for i, o := range spec.Order {
			terms[i] = d.QuoteIdentifier(o.Column)
			if o.Desc {
				terms[i] += " DESC"
			}
		}
		rest += " ORDER BY " + strings.Join(terms, ", ")
	}

	sql, skip := d.Limit(selectList, rest, spec.Limit, spec.Offset())
	return SelectQuery{
		SQL:     sql,
		Display: "SELECT " + selectList + " " + rest,
		Skip:    skip,
	}
}

func (b *SelectBuilder) predicate(p Predicate, fields []core.Field, indexes []core.Index) string {
	d := b.sql
	op := p.Op
	switch {
	case op != "":
	case p.Column == "" && p.Index == "":
		op = d.LikeOperator() + " %%"
	default:
		op = "="
	}

	if p.Index != "" {
		for _, idx := range indexes {
			if idx.Name != p.Index {
				continue
			}
			cols := make([]string, len(idx.Columns))
			for i, c := range idx.Columns {
				cols[i] = d.QuoteIdentifier(c.Name)
			}
			if cond, ok := d.Fulltext(cols, d.QuoteLiteral(p.Value)); ok {
				return cond
			}
			return ""
		}
		return ""
	}

	if p.Column != "" {
		return d.Predicate(d.QuoteIdentifier(p.Column), op, p.Value)
	}

	// Search every column.
	var ors []string
	for _, f := range fields {
		ors = append(ors, d.Predicate(d.QuoteIdentifier(f.Name), op, p.Value))
	}
	switch len(ors) {
	case 0:
		return ""
	case 1:
		return ors[0]
	}
	return "(" + strings.Join(ors, " OR ") + ")"
}

func isCount(fn string) bool {
	fn = strings.ToLower(fn)
	return fn == "count" || fn == "count distinct"
}

func quoteTable(d *dialect.Dialect, table string) string {
	if schema, name, ok := strings.Cut(table, "."); ok {
		return d.QuoteTable(schema, name)
	}
	return d.QuoteIdentifier(table)
}

func fieldNames(fields []core.Field) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}

// maxSuggestDistance bounds how different a suggestion may be.
const maxSuggestDistance = 3

var editDistance = levenshtein.Options{
	InsCost: 1,
	DelCost: 1,
	SubCost: 1,
	Matches: levenshtein.IdenticalRunes,
}

// suggest returns the candidate closest to input, or "" when none is close.
func suggest(input string, candidates []string) string {
	in := []rune(strings.ToLower(input))
	best, bestDist := "", maxSuggestDistance+1
	for _, c := range candidates {
		dist := levenshtein.DistanceForStrings(in, []rune(strings.ToLower(c)), editDistance)
		if dist < bestDist {
			best, bestDist = c, dist
		}
	}
	return best
}
