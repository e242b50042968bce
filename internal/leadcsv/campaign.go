package leadcsv

import (
	"path"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultCampaign labels files whose name carries no usable words.
const DefaultCampaign = "Untitled Campaign"

var (
	extensionPattern = regexp.MustCompile(`(?i)\.(csv|tsv|txt)$`)
	datePatterns     = []*regexp.Regexp{
		regexp.MustCompile(`\d{4}-\d{2}-\d{2}`), // YYYY-MM-DD
		regexp.MustCompile(`\d{2}-\d{2}-\d{4}`), // MM-DD-YYYY
		regexp.MustCompile(`\d{8}`),             // YYYYMMDD
	}
	separatorPattern  = regexp.MustCompile(`[-_]+`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// ExtractCampaignName turns an upload filename into a human readable label,
// e.g. "summer-leads-2024-01-15.csv" -> "Summer Leads".
func ExtractCampaignName(filename string) string {
	name := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	if name == "." || name == "/" {
		name = ""
	}
	name = extensionPattern.ReplaceAllString(name, "")

	for _, p := range datePatterns {
		name = p.ReplaceAllString(name, "")
	}

	name = separatorPattern.ReplaceAllString(name, " ")
	name = strings.TrimSpace(whitespacePattern.ReplaceAllString(name, " "))
	if name == "" {
		return DefaultCampaign
	}

	words := strings.Split(name, " ")
	for i, w := range words {
		words[i] = titleWord(w)
	}
	return strings.Join(words, " ")
}

func titleWord(w string) string {
	r, size := utf8.DecodeRuneInString(w)
	if r == utf8.RuneError {
		return w
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
}
