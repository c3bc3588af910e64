package i18n

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		lang string
		want language.Tag
	}{
		{lang: "", want: language.English},
		{lang: "en", want: language.English},
		{lang: "en-GB", want: language.English},
		{lang: "ms", want: language.Malay},
		{lang: "ms-MY", want: language.Malay},
		{lang: "not a tag!", want: language.English},
	}

	for _, tt := range tests {
		t.Run(tt.lang, func(t *testing.T) {
			assert.Equal(t, tt.want, Match(tt.lang))
		})
	}
}

func TestProcessesKilled(t *testing.T) {
	tests := []struct {
		name string
		lang string
		n    int
		want string
	}{
		{name: "english one", lang: "en", n: 1, want: "1 process has been killed."},
		{name: "english many", lang: "en", n: 3, want: "3 processes have been killed."},
		{name: "english zero", lang: "en", n: 0, want: "0 processes have been killed."},
		{name: "malay", lang: "ms", n: 2, want: "2 proses telah dihentikan."},
		{name: "fallback", lang: "fr", n: 2, want: "2 processes have been killed."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ProcessesKilled(tt.lang, tt.n))
		})
	}
}

func TestQueryExecuted(t *testing.T) {
	assert.Equal(t, "Query executed OK, 5 rows affected. (12 ms)", QueryExecuted("en", 5, 12*time.Millisecond))
	assert.Equal(t, "Query executed OK, 1 row affected. (1.50 s)", QueryExecuted("en", 1, 1500*time.Millisecond))
	assert.Equal(t, "Query berjaya dilaksanakan, 4 baris terjejas. (0 ms)", QueryExecuted("ms", 4, 0))
}

func TestRowsTotal(t *testing.T) {
	assert.Equal(t, "7 in total", RowsTotal("en", 7))
	assert.Equal(t, "7 secara keseluruhan", RowsTotal("ms", 7))
	assert.Equal(t, "Klon", Printer("ms").Sprintf(MsgClone))
	assert.Equal(t, "Klon", Clone("ms"))
	assert.Equal(t, "Clone", Clone("fr"))
}
