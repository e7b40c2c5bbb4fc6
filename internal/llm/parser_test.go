package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractObjectSurroundingProse(t *testing.T) {
	raw := "Sure, here:\n{\"communication\": \"line1\nline2\", \"updated_element\": []}\nDone."

	parsed, err := ExtractObject(raw)
	require.NoError(t, err)
	assert.Equal(t, "line1\nline2", parsed["communication"])
	assert.Equal(t, []any{}, parsed["updated_element"])
}

func TestExtractObjectCleanJSON(t *testing.T) {
	parsed, err := ExtractObject(`{"a": 1, "b": {"c": "d"}}`)
	require.NoError(t, err)
	assert.Equal(t, float64(1), parsed["a"])
	assert.Equal(t, map[string]any{"c": "d"}, parsed["b"])
}

func TestExtractObjectNoJSON(t *testing.T) {
	_, err := ExtractObject("I could not produce a response.")
	var noJSON *NoJSONError
	require.ErrorAs(t, err, &noJSON)
}

func TestExtractObjectMalformedCarriesSlices(t *testing.T) {
	raw := "prefix {\"key\": unquoted} suffix"
	_, err := ExtractObject(raw)

	var malformed *MalformedJSONError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, `{"key": unquoted}`, malformed.Original)
	assert.NotEmpty(t, malformed.Repaired)
	assert.NotNil(t, errors.Unwrap(malformed))
}

func TestEscapeNewlinesInStrings(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"newline in literal", "{\"a\": \"x\ny\"}", `{"a": "x\ny"}`},
		{"carriage return in literal", "{\"a\": \"x\r\ny\"}", `{"a": "x\r\ny"}`},
		{"newline outside literal untouched", "{\n\"a\": \"b\"\n}", "{\n\"a\": \"b\"\n}"},
		{"escaped quote does not close string", "{\"a\": \"x\\\"\ny\"}", "{\"a\": \"x\\\"\\ny\"}"},
		{"already escaped left alone", `{"a": "x\ny"}`, `{"a": "x\ny"}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, escapeNewlinesInStrings(tc.in))
		})
	}
}
