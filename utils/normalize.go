package utils

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var punctuationReplacer = strings.NewReplacer(
	"\u2014", "-", // em dash
	"\u2013", "-", // en dash
	"\u2012", "-", // figure dash
	"\u2010", "-",
	"\u2011", "-",
	"\u2212", "-", // minus sign
	"\u00a0", " ", // no-break space
	"\u2009", " ", // thin space
	"\u202f", " ",
	"\u2007", " ",
	"\u200a", " ",
	"\u200b", "",
	"\ufeff", "",
	"\u2018", "'",
	"\u2019", "'",
	"\u201c", "\"",
	"\u201d", "\"",
	"\u2026", "...",
	"\r\n", "\n",
	"\r", "\n",
)

var (
	reSlashSpacing = regexp.MustCompile(`\s*/\s*`)
	reHorizontalWS = regexp.MustCompile(`[ \t\f\v]+`)
	reBlankRuns    = regexp.MustCompile(`\n{3,}`)
)

// Normalize canonicalizes OCR and PDF text so label patterns see plain ASCII
// punctuation and single spaces. Line breaks are kept.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}
	s := norm.NFKC.String(raw)
	s = punctuationReplacer.Replace(s)

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		line = reHorizontalWS.ReplaceAllString(line, " ")
		line = reSlashSpacing.ReplaceAllString(line, "/")
		lines[i] = strings.TrimSpace(line)
	}
	s = strings.Join(lines, "\n")
	s = reBlankRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
