package shared

import (
	"regexp"
	"strings"
)

var (
	scriptBlockRe  = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script>`)
	htmlTagRe      = regexp.MustCompile(`(?s)<[^>]*>`)
	eventHandlerRe = regexp.MustCompile(`(?i)\bon[a-z]+\s*=`)
	jsSchemeRe     = regexp.MustCompile(`(?i)javascript\s*:`)
)

// SanitizeString strips script blocks, markup and inline handler fragments
// from untrusted input. Already-clean strings come back unchanged.
func SanitizeString(s string) string {
	s = scriptBlockRe.ReplaceAllString(s, "")
	s = htmlTagRe.ReplaceAllString(s, "")
	s = eventHandlerRe.ReplaceAllString(s, "")
	s = jsSchemeRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// SanitizeValue recurses through a decoded JSON value: strings are
// sanitized, arrays element-wise, objects key-by-key. Numbers, booleans
// and nulls pass through unchanged.
func SanitizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case string:
		return SanitizeString(val)
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = SanitizeValue(item)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[k] = SanitizeValue(item)
		}
		return out
	default:
		return v
	}
}
