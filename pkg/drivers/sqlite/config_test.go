package sqlite

import (
	"testing"

	"github.com/leapstack-labs/leapadmin/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildURI(t *testing.T) {
	tests := []struct {
		name    string
		cfg     core.ConnectionConfig
		want    string
		wantErr bool
	}{
		{
			name: "file path",
			cfg:  core.ConnectionConfig{Server: "/data/shop.db"},
			want: "file:/data/shop.db?_pragma=foreign_keys%281%29",
		},
		{
			name: "database fallback",
			cfg:  core.ConnectionConfig{Database: "shop.db"},
			want: "file:shop.db?_pragma=foreign_keys%281%29",
		},
		{
			name: "in memory",
			cfg:  core.ConnectionConfig{Server: ":memory:"},
			want: "file::memory:?_pragma=foreign_keys%281%29",
		},
		{
			name: "read only with busy timeout",
			cfg: core.ConnectionConfig{Server: "shop.db", Params: map[string]any{
				"read_only": true, "busy_timeout": "2s", "foreign_keys": false,
			}},
			want: "file:shop.db?_pragma=foreign_keys%280%29&_pragma=busy_timeout%282000%29&mode=ro",
		},
		{
			name:    "missing path",
			cfg:     core.ConnectionConfig{},
			wantErr: true,
		},
		{
			name:    "unknown param",
			cfg:     core.ConnectionConfig{Server: "x.db", Params: map[string]any{"journal": "wal"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := buildURI(tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, core.IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
