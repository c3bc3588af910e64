package output

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var customers = Table{
	Headers: []string{"id", "email"},
	Rows:    [][]string{{"1", "a@example.com"}, {"2", "b,c@example.com"}},
}

func TestNewRenderer_AutoOffTerminal(t *testing.T) {
	var out bytes.Buffer
	r := NewRenderer(&out, &out, ModeAuto)
	assert.Equal(t, ModeMarkdown, r.Mode())
}

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		mode     Mode
		table    Table
		contains []string
		exact    string
	}{
		{
			name:     "table",
			mode:     ModeTable,
			table:    customers,
			contains: []string{"a@example.com", "EMAIL", "(2 rows)"},
		},
		{
			name:  "csv quotes commas",
			mode:  ModeCSV,
			table: customers,
			exact: "id,email\n1,a@example.com\n2,\"b,c@example.com\"\n",
		},
		{
			name:     "markdown",
			mode:     ModeMarkdown,
			table:    customers,
			contains: []string{"| id", "| 2", "b,c@example.com"},
		},
		{
			name:     "json objects from grid",
			mode:     ModeJSON,
			table:    customers,
			contains: []string{`"email": "a@example.com"`, `"id": "2"`},
		},
		{
			name:  "json value",
			mode:  ModeJSON,
			table: Table{Headers: []string{"x"}, JSON: []string{"shop", "tmp"}},
			exact: "[\n  \"shop\",\n  \"tmp\"\n]\n",
		},
		{
			name:  "empty table",
			mode:  ModeTable,
			table: Table{Headers: []string{"id"}},
			exact: "(0 rows)\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			r := NewRenderer(&out, &bytes.Buffer{}, tt.mode)
			require.NoError(t, r.Render(tt.table))

			if tt.exact != "" {
				assert.Equal(t, tt.exact, out.String())
			}
			for _, s := range tt.contains {
				assert.Contains(t, out.String(), s)
			}
		})
	}
}

func TestStatusLines_PlainOffTerminal(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRenderer(&out, &errOut, ModeTable)

	r.Success("2 rows affected.")
	r.Warning("7: unknown thread")
	r.Error(errors.New("boom"))

	assert.Equal(t, "2 rows affected.\n7: unknown thread\nError: boom\n", errOut.String())
	assert.Empty(t, out.String())
}
