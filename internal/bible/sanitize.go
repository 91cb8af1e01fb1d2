package bible

import (
	"regexp"
	"strings"
)

// Search results from the keyword API embed presentation markup: HTML tags,
// <S>…</S> Strong's concordance markers, and bare digit runs left behind by
// footnote anchors. These are fixed text substitutions, applied in order.
var (
	htmlTagRE  = regexp.MustCompile(`<[^>]*>`)
	strongsRE  = regexp.MustCompile(`<S>\d+</S>`)
	footnoteRE = regexp.MustCompile(`\d{1,5}`)
)

// SanitizeVerseText strips markup and footnote markers from a raw search
// result and collapses runs of whitespace to single spaces.
func SanitizeVerseText(s string) string {
	s = strongsRE.ReplaceAllString(s, "")
	s = htmlTagRE.ReplaceAllString(s, "")
	s = footnoteRE.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}
