// Package output renders command results for terminals and scripts.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Mode selects how results are written.
type Mode string

// Output modes. ModeAuto picks ModeTable on a terminal and ModeMarkdown otherwise.
const (
	ModeAuto     Mode = "auto"
	ModeTable    Mode = "table"
	ModeJSON     Mode = "json"
	ModeCSV      Mode = "csv"
	ModeMarkdown Mode = "markdown"
)

// Table is tabular output. JSON, when set, is encoded instead of the grid in JSON mode.
type Table struct {
	Headers []string
	Rows    [][]string
	JSON    any
}

// Renderer writes results to out and status lines to errOut.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   Mode

	success lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
	muted   lipgloss.Style
}

// NewRenderer creates a renderer, resolving ModeAuto against out.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	if mode == "" || mode == ModeAuto {
		mode = ModeMarkdown
		if IsTerminal(out) {
			mode = ModeTable
		}
	}

	var opts []termenv.OutputOption
	if !IsTerminal(errOut) {
		opts = append(opts, termenv.WithProfile(termenv.Ascii))
	}
	lr := lipgloss.NewRenderer(errOut, opts...)

	return &Renderer{
		out:     out,
		errOut:  errOut,
		mode:    mode,
		success: lr.NewStyle().Foreground(lipgloss.Color("2")),
		warning: lr.NewStyle().Foreground(lipgloss.Color("3")),
		failure: lr.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		muted:   lr.NewStyle().Faint(true),
	}
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Mode returns the resolved output mode.
func (r *Renderer) Mode() Mode {
	return r.mode
}

// Out returns the result writer.
func (r *Renderer) Out() io.Writer {
	return r.out
}

// Render writes t in the renderer's mode.
func (r *Renderer) Render(t Table) error {
	switch r.mode {
	case ModeJSON:
		if t.JSON != nil {
			return r.JSON(t.JSON)
		}
		return r.JSON(objects(t))
	case ModeCSV:
		return r.csv(t)
	case ModeMarkdown:
		return r.markdown(t)
	default:
		return r.table(t)
	}
}

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Success prints a confirmation such as "2 rows affected.".
func (r *Renderer) Success(msg string) {
	_, _ = fmt.Fprintln(r.errOut, r.success.Render(msg))
}

// Warning prints a non-fatal problem.
func (r *Renderer) Warning(msg string) {
	_, _ = fmt.Fprintln(r.errOut, r.warning.Render(msg))
}

// Error prints err the way the root command reports failures.
func (r *Renderer) Error(err error) {
	_, _ = fmt.Fprintln(r.errOut, r.failure.Render("Error: ")+err.Error())
}

// Muted prints secondary information, e.g. the executed statement.
func (r *Renderer) Muted(msg string) {
	_, _ = fmt.Fprintln(r.errOut, r.muted.Render(msg))
}

func (r *Renderer) table(t Table) error {
	if len(t.Rows) == 0 {
		_, _ = fmt.Fprintln(r.out, "(0 rows)")
		return nil
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(r.out)
	tw.SetStyle(table.StyleLight)

	header := make(table.Row, len(t.Headers))
	for i, h := range t.Headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range t.Rows {
		tr := make(table.Row, len(row))
		for i, v := range row {
			tr[i] = v
		}
		tw.AppendRow(tr)
	}

	tw.Render()
	_, _ = fmt.Fprintf(r.out, "(%d rows)\n", len(t.Rows))
	return nil
}

func (r *Renderer) csv(t Table) error {
	w := csv.NewWriter(r.out)
	if err := w.Write(t.Headers); err != nil {
		return err
	}
	if err := w.WriteAll(t.Rows); err != nil {
		return err
	}
	return w.Error()
}

func (r *Renderer) markdown(t Table) error {
	if len(t.Rows) == 0 {
		_, _ = fmt.Fprintln(r.out, "(0 rows)")
		return nil
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(r.out)

	header := make(table.Row, len(t.Headers))
	for i, h := range t.Headers {
		header[i] = h
	}
	tw.AppendHeader(header)
	for _, row := range t.Rows {
		tr := make(table.Row, len(row))
		for i, v := range row {
			tr[i] = strings.ReplaceAll(v, "\n", " ")
		}
		tw.AppendRow(tr)
	}

	tw.RenderMarkdown()
	return nil
}

// objects turns a grid into JSON objects keyed by header.
func objects(t Table) []map[string]string {
	out := make([]map[string]string, len(t.Rows))
	for i, row := range t.Rows {
		obj := make(map[string]string, len(t.Headers))
		for j, h := range t.Headers {
			if j < len(row) {
				obj[h] = row[j]
			}
		}
		out[i] = obj
	}
	return out
}
