package structure

import (
	"encoding/json"
	"regexp"
	"strings"
	"unicode"
)

var fenceLanguage = regexp.MustCompile(`(?i)^(json|javascript|js|txt)\s*`)

// Clean makes a model answer parseable. Text that is already JSON is returned
// unchanged. Otherwise a surrounding code fence and its language tag are
// removed, and if that is still not JSON the span from the first opening
// brace or bracket to the last closing one is tried. When nothing parses the
// trimmed, unfenced text is returned so the caller can report it.
func Clean(raw string) string {
	if json.Valid([]byte(raw)) {
		return raw
	}
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimLeftFunc(s[3:], unicode.IsSpace)
		s = fenceLanguage.ReplaceAllString(s, "")
		if strings.HasSuffix(s, "```") {
			s = strings.TrimRightFunc(s[:len(s)-3], unicode.IsSpace)
		}
	}
	if json.Valid([]byte(s)) {
		return s
	}
	start := strings.IndexAny(s, "{[")
	end := strings.LastIndexAny(s, "}]")
	if start >= 0 && end > start {
		candidate := s[start : end+1]
		if json.Valid([]byte(candidate)) {
			return candidate
		}
	}
	return s
}
