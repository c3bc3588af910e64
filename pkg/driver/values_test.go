package driver

import (
	"testing"
	"time"

	"github.com/leapstack-labs/leapadmin/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInt64(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want int64
	}{
		{name: "nil", in: nil, want: -1},
		{name: "int64", in: int64(12), want: 12},
		{name: "string", in: "42", want: 42},
		{name: "bytes", in: []byte("7"), want: 7},
		{name: "garbage", in: "n/a", want: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Int64(tt.in))
		})
	}
}

func TestParseProcessID(t *testing.T) {
	n, err := ParseProcessID(" 15 ")
	require.NoError(t, err)
	assert.Equal(t, uint64(15), n)

	for _, bad := range []string{"", "1; DROP TABLE x", "-3", "abc"} {
		_, err := ParseProcessID(bad)
		assert.True(t, core.IsValidation(err), "id %q should be rejected", bad)
	}
}

func TestDecodeParams(t *testing.T) {
	type params struct {
		Charset string        `mapstructure:"charset"`
		Timeout time.Duration `mapstructure:"timeout"`
		Tags    []string      `mapstructure:"tags"`
	}

	tests := []struct {
		name    string
		input   map[string]any
		want    params
		wantErr bool
	}{
		{name: "nil params", input: nil, want: params{}},
		{
			name:  "typed values",
			input: map[string]any{"charset": "utf8mb4", "timeout": "5s", "tags": "a,b"},
			want:  params{Charset: "utf8mb4", Timeout: 5 * time.Second, Tags: []string{"a", "b"}},
		},
		{name: "unknown key", input: map[string]any{"nope": 1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got params
			err := DecodeParams(tt.input, &got)
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
