package adapter

import (
	"encoding/json"
	"strings"

	"github.com/bottlehq/bottle/internal/fault"
)

// ExtractJSON locates the JSON payload inside command output that may be
// wrapped in human-readable banners and progress noise. Strategy, in order:
// whole-input parse, then a scan for the first balanced bracket or brace
// structure that parses, then an explicit empty result for output containing
// no JSON at all. A malformed payload that looks like JSON is a parse
// failure, distinct from legitimately-empty output.
func ExtractJSON(output string, v interface{}) (empty bool, err error) {
	trimmed := strings.TrimSpace(output)
	if trimmed == "" {
		return true, nil
	}

	if json.Unmarshal([]byte(trimmed), v) == nil {
		return isEmptyJSON(trimmed), nil
	}

	if payload, ok := scanBalanced(trimmed); ok {
		if jsonErr := json.Unmarshal([]byte(payload), v); jsonErr == nil {
			return isEmptyJSON(payload), nil
		}
		return false, fault.New(fault.CodeParseFailed, "output contains malformed JSON: %s", fault.Preview(payload)).
			WithSuggestion("the package manager may have emitted a partial response; retry the command")
	}

	// Banner-only output: no JSON anywhere. Callers treat this as an
	// explicit empty result, not a failure.
	return true, nil
}

// scanBalanced finds the first '[' or '{' and returns the substring through
// its balancing close, honoring JSON string syntax so brackets inside quoted
// values don't confuse the count.
func scanBalanced(s string) (string, bool) {
	start := strings.IndexAny(s, "[{")
	if start < 0 {
		return "", false
	}
	open := s[start]
	closer := byte(']')
	if open == '{' {
		closer = '}'
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case open:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

func isEmptyJSON(s string) bool {
	s = strings.TrimSpace(s)
	return s == "[]" || s == "{}" || s == "null"
}
