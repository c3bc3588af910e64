package admin

import (
	"archive/tar"
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/leapstack-labs/leapadmin/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const customersCSV = "id,email,name\n1,a@example.com,Ann\n2,b@example.com,Bob\n"

func TestSession_DumpSQL(t *testing.T) {
	s, _ := openShop(t)

	var buf bytes.Buffer
	err := s.Dump(context.Background(), &buf, DumpRequest{
		Output:     core.OutputText,
		Format:     core.FormatSQL,
		TableStyle: core.TableStyleDropCreate,
		DataStyle:  core.DataStyleInsert,
	})
	require.NoError(t, err)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "-- leapadmin SQLite dump\n"), out)
	assert.Contains(t, out, `DROP TABLE IF EXISTS "customers";`)
	assert.Contains(t, out, `DROP VIEW IF EXISTS "big_orders";`)
	assert.Contains(t, out, `INSERT INTO "customers" ("id", "email", "name") VALUES (1, 'a@example.com', 'Ann')`)
	assert.NotContains(t, out, `INSERT INTO "big_orders"`, "views carry no data")
}

func TestSession_DumpCompressed(t *testing.T) {
	s, _ := openShop(t)
	ctx := context.Background()
	req := DumpRequest{Tables: []string{"customers"}, Format: core.FormatCSV}

	t.Run("gzip", func(t *testing.T) {
		req := req
		req.Output = core.OutputGzip
		var buf bytes.Buffer
		require.NoError(t, s.Dump(ctx, &buf, req))

		zr, err := gzip.NewReader(&buf)
		require.NoError(t, err)
		got, err := io.ReadAll(zr)
		require.NoError(t, err)
		assert.Equal(t, customersCSV, string(got))
	})

	t.Run("zstd", func(t *testing.T) {
		req := req
		req.Output = core.OutputZstd
		var buf bytes.Buffer
		require.NoError(t, s.Dump(ctx, &buf, req))

		zr, err := zstd.NewReader(&buf)
		require.NoError(t, err)
		defer zr.Close()
		got, err := io.ReadAll(zr)
		require.NoError(t, err)
		assert.Equal(t, customersCSV, string(got))
	})

	h := s.DumpHeaders(DumpRequest{Tables: []string{"customers"}, Output: core.OutputGzip, Format: core.FormatCSV})
	assert.Equal(t, "customers.csv.gz", h.Filename)
	assert.Equal(t, core.OutputGzip, h.Compression)
}

func TestSession_DumpArchive(t *testing.T) {
	s, _ := openShop(t)

	var buf bytes.Buffer
	err := s.Dump(context.Background(), &buf, DumpRequest{
		Tables: []string{"customers", "big_orders", "orders"},
		Output: core.OutputFile,
		Format: core.FormatCSV,
	})
	require.NoError(t, err)

	tr := tar.NewReader(&buf)
	files := map[string]string{}
	var order []string
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		body, err := io.ReadAll(tr)
		require.NoError(t, err)
		files[hdr.Name] = string(body)
		order = append(order, hdr.Name)
	}
	assert.Equal(t, []string{"customers.csv", "orders.csv"}, order)
	assert.Equal(t, customersCSV, files["customers.csv"])
	assert.True(t, strings.HasPrefix(files["orders.csv"], "id,customer_id,total\n"))
}

func TestSession_DumpRejected(t *testing.T) {
	s, _ := openShop(t)
	ctx := context.Background()

	tests := []struct {
		name       string
		req        DumpRequest
		field      string
		suggestion string
	}{
		{
			name:       "unknown table",
			req:        DumpRequest{Tables: []string{"custmers"}, Output: core.OutputText, Format: core.FormatSQL},
			field:      "tables",
			suggestion: "customers",
		},
		{
			name:  "unknown format",
			req:   DumpRequest{Output: core.OutputText, Format: "xml"},
			field: "format",
		},
		{
			name:  "unknown output",
			req:   DumpRequest{Output: "bz2", Format: core.FormatSQL},
			field: "output",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := s.Dump(ctx, &buf, tt.req)
			var ve *core.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
			assert.Equal(t, tt.suggestion, ve.Suggestion)
			assert.Zero(t, buf.Len())
		})
	}
}
