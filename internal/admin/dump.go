package admin

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"io"
	"slices"
	"strconv"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/leapstack-labs/leapadmin/pkg/core"
)

// DumpRequest selects what a dump contains and how it is delivered.
type DumpRequest struct {
	Database      string   `json:"database,omitempty"` // current database when empty
	Tables        []string `json:"tables,omitempty"`   // every table when empty
	Output        string   `json:"output"`
	Format        string   `json:"format"`
	DatabaseStyle string   `json:"db_style,omitempty"`
	TableStyle    string   `json:"table_style,omitempty"`
	DataStyle     string   `json:"data_style,omitempty"`
}

func (r DumpRequest) identifier() string {
	if len(r.Tables) == 1 {
		return r.Tables[0]
	}
	return r.Database
}

func (r DumpRequest) multiTable() bool {
	return len(r.Tables) != 1
}

func (r DumpRequest) validate() error {
	outputs := []string{core.OutputText, core.OutputFile, core.OutputGzip, core.OutputZstd}
	if !slices.Contains(outputs, r.Output) {
		return core.Invalid("output", "unknown output "+strconv.Quote(r.Output))
	}
	formats := []string{core.FormatSQL, core.FormatCSV, core.FormatCSVSemicolon, core.FormatTSV}
	if !slices.Contains(formats, r.Format) {
		return core.Invalid("format", "unknown format "+strconv.Quote(r.Format))
	}
	return nil
}

// DumpHeaders describes how the dump of req is delivered.
func (s *Session) DumpHeaders(req DumpRequest) core.DumpHeaders {
	return s.driver.DumpHeaders(req.identifier(), req.multiTable(), req.Output, req.Format)
}

// Dump writes the export described by req into w, compressing it when asked.
func (s *Session) Dump(ctx context.Context, w io.Writer, req DumpRequest) (err error) {
	if err := s.caps.Require(string(core.FeatureDump)); err != nil {
		return err
	}
	if err := req.validate(); err != nil {
		return err
	}

	tables, err := s.dumpTables(ctx, req.Tables)
	if err != nil {
		return err
	}
	if req.Database == "" {
		if req.Database, err = s.driver.Database(ctx); err != nil {
			return err
		}
	}

	sink, closeSink, err := compress(w, s.DumpHeaders(req).Compression)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeSink(); err == nil {
			err = cerr
		}
	}()

	if req.Format == core.FormatSQL {
		return s.dumpSQL(ctx, sink, req, tables)
	}
	return s.dumpDelimited(ctx, sink, req, tables)
}

// dumpTables resolves requested names against the table list, keeping their order.
func (s *Session) dumpTables(ctx context.Context, names []string) ([]core.TableStatus, error) {
	all, err := s.driver.TableStatus(ctx, "")
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return all, nil
	}

	known := make([]string, len(all))
	for i, ts := range all {
		known[i] = ts.Name
	}
	out := make([]core.TableStatus, 0, len(names))
	for _, name := range names {
		i := slices.Index(known, name)
		if i < 0 {
			return nil, &core.ValidationError{
				Field:      "tables",
				Reason:     "unknown table " + strconv.Quote(name),
				Suggestion: suggest(name, known),
			}
		}
		out = append(out, all[i])
	}
	return out, nil
}

func (s *Session) dumpSQL(ctx context.Context, w io.Writer, req DumpRequest, tables []core.TableStatus) error {
	server := s.driver.ServerName(s.cfg.Server)
	if _, err := fmt.Fprintf(w, "-- leapadmin %s dump\n-- Server: %s\n-- Database: %s\n-- Generated: %s\n\n",
		s.driver.Name(), server, req.Database, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}

	if err := s.driver.DumpDatabase(ctx, w, req.Database, req.DatabaseStyle); err != nil {
		return err
	}
	for _, ts := range tables {
		if err := s.driver.DumpTable(ctx, w, ts.Name, req.TableStyle, ts.IsView); err != nil {
			return err
		}
		if ts.IsView {
			continue
		}
		if err := s.driver.DumpData(ctx, w, ts.Name, req.DataStyle, req.Format, ""); err != nil {
			return err
		}
	}
	return nil
}

// dumpDelimited writes data only. Several tables become a tar archive with one file each.
func (s *Session) dumpDelimited(ctx context.Context, w io.Writer, req DumpRequest, tables []core.TableStatus) error {
	style := req.DataStyle
	if style == core.DataStyleNone {
		style = core.DataStyleInsert
	}
	if !req.multiTable() {
		return s.driver.DumpData(ctx, w, tables[0].Name, style, req.Format, "")
	}

	ext := "." + s.driver.DumpHeaders("", false, core.OutputFile, req.Format).Extension
	tw := tar.NewWriter(w)
	for _, ts := range tables {
		if ts.IsView {
			continue
		}
		var buf bytes.Buffer
		if err := s.driver.DumpData(ctx, &buf, ts.Name, style, req.Format, ""); err != nil {
			return err
		}
		hdr := &tar.Header{
			Name:    s.driver.DumpFilename(ts.Name) + ext,
			Mode:    0o644,
			Size:    int64(buf.Len()),
			ModTime: time.Now(),
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("failed to write tar header: %w", err)
		}
		if _, err := buf.WriteTo(tw); err != nil {
			return fmt.Errorf("failed to write tar entry: %w", err)
		}
	}
	return tw.Close()
}

// compress wraps w for the requested compression. The returned close func
// flushes the compressor; it does not close w.
func compress(w io.Writer, compression string) (io.Writer, func() error, error) {
	switch compression {
	case core.OutputGzip:
		gz := gzip.NewWriter(w)
		return gz, gz.Close, nil
	case core.OutputZstd:
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create zstd writer: %w", err)
		}
		return zw, zw.Close, nil
	default:
		return w, func() error { return nil }, nil
	}
}
