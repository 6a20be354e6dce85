package bot

import (
	"strconv"
	"strings"
)

// FieldSeparator separates structured command arguments:
// "/apply 12 Abebe Kebede | abebe@example.com | +251911000000".
const FieldSeparator = "|"

// SplitFields splits args on FieldSeparator into exactly n trimmed fields.
// Missing trailing fields are empty; extra separators stay in the last field
// so free text (cover letters, descriptions) may contain "|".
func SplitFields(args string, n int) []string {
	out := make([]string, n)
	if n <= 0 {
		return out
	}
	parts := strings.SplitN(args, FieldSeparator, n)
	for i, p := range parts {
		out[i] = strings.TrimSpace(p)
	}
	return out
}

// ParseID parses a positive numeric id, accepting a leading '#'.
func ParseID(s string) (int64, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// SplitFirst separates the first whitespace-delimited word from the rest.
func SplitFirst(s string) (first, rest string) {
	s = strings.TrimSpace(s)
	if i := strings.IndexFunc(s, isSpace); i >= 0 {
		return s[:i], strings.TrimSpace(s[i:])
	}
	return s, ""
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

// ParseCallback splits "action:p1:p2" into the action and its parameters.
func ParseCallback(data string) (action string, params []string) {
	parts := strings.Split(data, ":")
	return parts[0], parts[1:]
}
