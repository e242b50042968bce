package leadcsv

import "strings"

// emailAliases is checked in order for exact matches, then as substrings.
var emailAliases = []string{
	"email",
	"e-mail",
	"email address",
	"work email",
	"business email",
	"mail",
	"e mail",
	"emailaddress",
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

// DetectEmailColumn returns the header most likely to hold email addresses:
// the first exact alias match, otherwise the first header containing an alias.
func DetectEmailColumn(headers []string) (string, bool) {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = normalizeHeader(h)
	}

	for _, alias := range emailAliases {
		for i, n := range normalized {
			if n == alias {
				return headers[i], true
			}
		}
	}

	for i, n := range normalized {
		if containsAlias(n) {
			return headers[i], true
		}
	}
	return "", false
}

// FindEmailColumns lists every header containing an email alias, in header order.
func FindEmailColumns(headers []string) []string {
	var out []string
	for _, h := range headers {
		if containsAlias(normalizeHeader(h)) {
			out = append(out, h)
		}
	}
	return out
}

func containsAlias(normalized string) bool {
	for _, alias := range emailAliases {
		if strings.Contains(normalized, alias) {
			return true
		}
	}
	return false
}

// ResolveEmailColumn picks the column to classify on. An explicit request
// wins when it names an existing header; otherwise a single candidate is
// used and several candidates produce an *AmbiguousColumnError.
func ResolveEmailColumn(headers []string, requested string) (string, error) {
	if requested = strings.TrimSpace(requested); requested != "" {
		for _, h := range headers {
			if h == requested {
				return h, nil
			}
		}
		for _, h := range headers {
			if normalizeHeader(h) == normalizeHeader(requested) {
				return h, nil
			}
		}
		return "", ErrNoEmailColumn
	}

	candidates := FindEmailColumns(headers)
	switch len(candidates) {
	case 0:
		return "", ErrNoEmailColumn
	case 1:
		return candidates[0], nil
	}

	suggested, _ := DetectEmailColumn(headers)
	return "", &AmbiguousColumnError{Candidates: candidates, Suggested: suggested}
}
