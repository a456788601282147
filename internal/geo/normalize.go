package geo

import (
	"regexp"
	"strings"
)

// dongPattern matches a sub-district name, i.e. a run of Hangul syllables
// and digits ending in the "동" suffix, anywhere inside a longer
// administrative path such as "수원시 팔달구 행궁동".
var dongPattern = regexp.MustCompile(`([가-힣0-9]+동)`)

// NormalizeDong reduces a free-text district name to its bare sub-district
// form: the last "...동" token wins. Matching runs before whitespace removal
// so administrative prefixes stay separate tokens. Input with no such token
// comes back with whitespace stripped but otherwise unchanged, so the
// function is idempotent. This is the single join key normalization used at
// ingestion, query, and cache time alike.
func NormalizeDong(name string) string {
	s := strings.TrimSpace(name)
	if s == "" {
		return ""
	}

	matches := dongPattern.FindAllString(s, -1)
	if len(matches) == 0 {
		return strings.ReplaceAll(s, " ", "")
	}
	return matches[len(matches)-1]
}
