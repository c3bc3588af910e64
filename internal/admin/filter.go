package admin

import (
	"regexp"
	"strings"
)

// FilterHidden drops the names matching any of the glob patterns.
// '*' is the only wildcard; every other character matches itself.
// When either list is empty names is returned as is.
func FilterHidden(names, patterns []string) []string {
	if len(names) == 0 || len(patterns) == 0 {
		return names
	}

	alts := make([]string, len(patterns))
	for i, p := range patterns {
		alts[i] = strings.ReplaceAll(regexp.QuoteMeta(p), `\*`, ".*")
	}
	hidden := regexp.MustCompile("^(" + strings.Join(alts, "|") + ")$")

	out := make([]string, 0, len(names))
	for _, name := range names {
		if !hidden.MatchString(name) {
			out = append(out, name)
		}
	}
	return out
}
