package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// NoJSONError reports raw model output with no JSON object in it.
type NoJSONError struct {
	Raw string
}

func (e *NoJSONError) Error() string {
	return "no JSON object found in model output"
}

// MalformedJSONError reports a JSON slice that failed to parse even after
// repair. It carries both slices for diagnostics.
type MalformedJSONError struct {
	Original string
	Repaired string
	cause    error
}

func (e *MalformedJSONError) Error() string {
	return fmt.Sprintf("malformed JSON in model output: %v", e.cause)
}

func (e *MalformedJSONError) Unwrap() error { return e.cause }

// ExtractObject locates the outermost JSON object in raw model output and
// parses it. Models asked for JSON routinely wrap it in prose and emit raw
// newlines inside string literals; both defects are contained here so no
// caller has to deal with them.
func ExtractObject(raw string) (map[string]any, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return nil, &NoJSONError{Raw: raw}
	}
	slice := raw[start : end+1]

	repaired := escapeNewlinesInStrings(slice)

	var parsed map[string]any
	if err := json.Unmarshal([]byte(repaired), &parsed); err != nil {
		return nil, &MalformedJSONError{Original: slice, Repaired: repaired, cause: err}
	}
	return parsed, nil
}

// escapeNewlinesInStrings replaces literal newline and carriage-return
// characters inside double-quoted string literals with their escaped forms.
// Characters outside string literals are left untouched.
func escapeNewlinesInStrings(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			case c == '\n':
				b.WriteString(`\n`)
				continue
			case c == '\r':
				b.WriteString(`\r`)
				continue
			}
		} else if c == '"' {
			inString = true
		}
		b.WriteByte(c)
	}
	return b.String()
}
