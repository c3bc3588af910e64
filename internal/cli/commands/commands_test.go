package commands

import (
	"bytes"
	"context"
	"testing"

	"github.com/leapstack-labs/leapadmin/internal/admin"
	"github.com/leapstack-labs/leapadmin/internal/cli/output"
	"github.com/leapstack-labs/leapadmin/internal/config"
	"github.com/leapstack-labs/leapadmin/pkg/core"
	"github.com/leapstack-labs/leapadmin/pkg/dialect"
	"github.com/leapstack-labs/leapadmin/pkg/drivers/sqlite"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ops = append(append([]string{}, dialect.ComparisonOperators...), dialect.StandardSearchOperators...)

func TestParseCondition(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    admin.Predicate
		wantErr bool
	}{
		{name: "comparison", input: "id > 1", want: admin.Predicate{Column: "id", Op: ">", Value: "1"}},
		{name: "no spaces", input: "id>=10", want: admin.Predicate{Column: "id", Op: ">=", Value: "10"}},
		{name: "like", input: "email like %@example.com", want: admin.Predicate{Column: "email", Op: "LIKE", Value: "%@example.com"}},
		{name: "longest operator wins", input: "name IS NOT NULL", want: admin.Predicate{Column: "name", Op: "IS NOT NULL"}},
		{name: "not like", input: "name NOT LIKE A%", want: admin.Predicate{Column: "name", Op: "NOT LIKE", Value: "A%"}},
		{name: "every column", input: "LIKE %Bob%", want: admin.Predicate{Op: "LIKE", Value: "%Bob%"}},
		{name: "word operator inside column name", input: "index_name = x", want: admin.Predicate{Column: "index_name", Op: "=", Value: "x"}},
		{name: "in list", input: "id IN 1,2", want: admin.Predicate{Column: "id", Op: "IN", Value: "1,2"}},
		{name: "missing operator", input: "email", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseCondition(tt.input, ops)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseColumn(t *testing.T) {
	tests := []struct {
		input string
		want  admin.SelectColumn
	}{
		{input: "email", want: admin.SelectColumn{Column: "email"}},
		{input: "LOWER(email)", want: admin.SelectColumn{Function: "lower", Column: "email"}},
		{input: "count(*)", want: admin.SelectColumn{Function: "count"}},
		{input: "(email)", want: admin.SelectColumn{Column: "(email)"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseColumn(tt.input))
		})
	}
}

func TestSelectOptions_Spec(t *testing.T) {
	opts := &SelectOptions{
		Columns:    []string{"customer_id", "sum(total)"},
		Where:      []string{"total > 50"},
		Order:      []string{"customer_id desc", "total"},
		Limit:      10,
		Page:       2,
		TextLength: 0,
	}

	spec, err := opts.Spec("orders", ops)
	require.NoError(t, err)
	assert.Equal(t, &admin.SelectSpec{
		Table:   "orders",
		Columns: []admin.SelectColumn{{Column: "customer_id"}, {Function: "sum", Column: "total"}},
		Where:   []admin.Predicate{{Column: "total", Op: ">", Value: "50"}},
		Order:   []admin.OrderTerm{{Column: "customer_id", Desc: true}, {Column: "total"}},
		Limit:   10,
		Page:    2,
	}, spec)

	opts.Where = append(opts.Where, "oops")
	_, err = opts.Spec("orders", ops)
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "where[1]", verr.Field)
}

func TestDumpOptions_Request(t *testing.T) {
	tests := []struct {
		name   string
		opts   DumpOptions
		output string
	}{
		{name: "stdout", opts: DumpOptions{}, output: core.OutputText},
		{name: "file", opts: DumpOptions{File: "x.sql"}, output: core.OutputFile},
		{name: "compressed", opts: DumpOptions{Compress: core.OutputGzip, File: "x.sql.gz"}, output: core.OutputGzip},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.Format = core.FormatSQL
			req := tt.opts.Request([]string{"customers"})
			assert.Equal(t, tt.output, req.Output)
			assert.Equal(t, []string{"customers"}, req.Tables)
			assert.Equal(t, core.FormatSQL, req.Format)
		})
	}
}

func TestNewCommandContextWithoutSession_Output(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.Config
		args []string
		want output.Mode
	}{
		{name: "no config and no flag", want: output.ModeMarkdown},
		{name: "flag without config", args: []string{"-o", "json"}, want: output.ModeJSON},
		{name: "loaded config", cfg: &config.Config{Output: "csv"}, want: output.ModeCSV},
		{name: "flag over loaded config", cfg: &config.Config{Output: "csv"}, args: []string{"--output", "json"}, want: output.ModeJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got output.Mode
			cmd := &cobra.Command{
				Use: "drivers",
				RunE: func(cmd *cobra.Command, _ []string) error {
					got = NewCommandContextWithoutSession(cmd).Renderer.Mode()
					return nil
				},
			}
			cmd.Flags().StringP("output", "o", "", "")
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetArgs(tt.args)
			ctx := context.Background()
			if tt.cfg != nil {
				ctx = WithConfig(ctx, tt.cfg)
			}
			require.NoError(t, cmd.ExecuteContext(ctx))
			assert.Equal(t, tt.want, got)
			if tt.cfg != nil {
				assert.Equal(t, "csv", tt.cfg.Output, "the loaded config is not modified")
			}
		})
	}
}

func TestDescribeDrivers(t *testing.T) {
	infos := DescribeDrivers()
	var got *DriverInfo
	for i := range infos {
		if infos[i].Name == "sqlite" {
			got = &infos[i]
		}
	}
	require.NotNil(t, got, "sqlite is registered by the test imports")
	assert.Equal(t, "LIKE", got.Like)
	assert.Empty(t, got.Regexp)
	assert.Contains(t, got.Operators, "GLOB")
	assert.Contains(t, got.Features, core.FeatureDump)

	table := driversTable([]DriverInfo{*got})
	assert.Equal(t, []string{"Driver", "Like", "Regexp", "Operators", "Features"}, table.Headers)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "sqlite", table.Rows[0][0])
}

func TestProcessTable(t *testing.T) {
	listing := &admin.ProcessListing{
		Headers: []string{"id", "query"},
		Processes: []admin.Process{{
			ProcessEntry: core.ProcessEntry{ID: "7", Query: "SELECT 1", Raw: core.NewRow([]string{"id", "query"}, []any{"7", "SELECT 1"})},
			Clone:        "SELECT 1",
		}},
	}

	tests := []struct {
		lang  string
		label string
	}{
		{lang: "en", label: "Clone"},
		{lang: "ms", label: "Klon"},
	}
	for _, tt := range tests {
		t.Run(tt.lang, func(t *testing.T) {
			table := processTable(listing, tt.lang)
			assert.Equal(t, []string{"id", "query", tt.label}, table.Headers)
			assert.Equal(t, [][]string{{"7", "SELECT 1", "SELECT 1"}}, table.Rows)
			assert.Same(t, listing, table.JSON)
		})
	}
	assert.Equal(t, []string{"id", "query"}, listing.Headers, "listing headers are not modified")
}

func TestTablesTable(t *testing.T) {
	tables := []core.TableStatus{
		{Name: "orders", Rows: -1, DataLength: 8192},
		{Name: "big_orders", IsView: true, Rows: 3},
	}

	table := tablesTable(tables, sqlite.New(nil))
	assert.Equal(t, [][]string{
		{"orders", "table", "", "", "8192", ""},
		{"big_orders", "view", "", "3", "0", ""},
	}, table.Rows)
	assert.Equal(t, []core.TableStatus{}, tablesTable(nil, sqlite.New(nil)).JSON)
}

func TestNewCommands(t *testing.T) {
	selectCmd := NewSelectCommand()
	assert.Equal(t, "select <table>", selectCmd.Use)
	for _, flag := range []string{"column", "where", "order", "limit", "page", "text-length"} {
		assert.NotNil(t, selectCmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}

	dump := NewDumpCommand()
	assert.NotEmpty(t, dump.Example)
	for _, flag := range []string{"format", "compress", "file", "db-style", "table-style", "data-style"} {
		assert.NotNil(t, dump.Flags().Lookup(flag), "flag %q should exist", flag)
	}

	assert.Equal(t, "true", NewDriversCommand().Annotations[SkipConfig])
	assert.Equal(t, "true", NewVersionCommand("1.0.0", "abc").Annotations[SkipConfig])
	assert.Len(t, NewHistoryCommand().Commands(), 1)
}
