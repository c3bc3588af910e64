// Package i18n holds the translated count messages shown after administrative actions.
package i18n

import (
	"fmt"
	"time"

	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys. The English text doubles as the key.
const (
	MsgProcessesKilled = "%d process(es) have been killed."
	MsgQueryExecuted   = "Query executed OK, %d row(s) affected."
	MsgRowsTotal       = "%d in total"
	MsgClone           = "Clone"
)

// Supported lists the languages with a translation, English first.
var Supported = []language.Tag{language.English, language.Malay}

var (
	cat     = buildCatalog()
	matcher = language.NewMatcher(Supported)
)

func buildCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))

	set := func(tag language.Tag, key string, msg ...catalog.Message) {
		if err := b.Set(tag, key, msg...); err != nil {
			panic(fmt.Sprintf("i18n: %s %q: %v", tag, key, err))
		}
	}

	set(language.English, MsgProcessesKilled, plural.Selectf(1, "%d",
		plural.One, "%d process has been killed.",
		plural.Other, "%d processes have been killed."))
	set(language.English, MsgQueryExecuted, plural.Selectf(1, "%d",
		plural.One, "Query executed OK, %d row affected.",
		plural.Other, "Query executed OK, %d rows affected."))
	set(language.English, MsgRowsTotal, catalog.String("%d in total"))
	set(language.English, MsgClone, catalog.String("Clone"))

	set(language.Malay, MsgProcessesKilled, catalog.String("%d proses telah dihentikan."))
	set(language.Malay, MsgQueryExecuted, catalog.String("Query berjaya dilaksanakan, %d baris terjejas."))
	set(language.Malay, MsgRowsTotal, catalog.String("%d secara keseluruhan"))
	set(language.Malay, MsgClone, catalog.String("Klon"))

	return b
}

// Match returns the supported language closest to lang.
// Unknown and empty values fall back to English.
func Match(lang string) language.Tag {
	tag, err := language.Parse(lang)
	if err != nil {
		return language.English
	}
	_, idx, _ := matcher.Match(tag)
	return Supported[idx]
}

// Printer returns a message printer for lang.
func Printer(lang string) *message.Printer {
	return message.NewPrinter(Match(lang), message.Catalog(cat))
}

// ProcessesKilled formats the message shown after a kill batch.
func ProcessesKilled(lang string, n int) string {
	return Printer(lang).Sprintf(MsgProcessesKilled, n)
}

// QueryExecuted formats the result line of a statement that returned no rows.
func QueryExecuted(lang string, affected int64, elapsed time.Duration) string {
	return Printer(lang).Sprintf(MsgQueryExecuted, affected) + " (" + FormatDuration(elapsed) + ")"
}

// RowsTotal formats a row count.
func RowsTotal(lang string, n int) string {
	return Printer(lang).Sprintf(MsgRowsTotal, n)
}

// Clone labels the statement a process list offers to run again.
func Clone(lang string) string {
	return Printer(lang).Sprintf(MsgClone)
}

// FormatDuration renders short durations in milliseconds and longer ones in seconds.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%d ms", d.Milliseconds())
	}
	return fmt.Sprintf("%.2f s", d.Seconds())
}
