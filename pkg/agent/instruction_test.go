package agent

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInstruction(t *testing.T) {
	t.Run("should parse a well-formed instruction", func(t *testing.T) {
		instr, err := ParseInstruction(`{"tool":"post_call","args":{"post_id":1}}`)

		require.NoError(t, err)
		assert.Equal(t, "post_call", instr.Tool)
		assert.Equal(t, json.Number("1"), instr.Args["post_id"])
	})

	t.Run("should keep numbers exact", func(t *testing.T) {
		instr, err := ParseInstruction(`{"tool":"x","args":{"n":12345678901234567890,"f":1.50}}`)

		require.NoError(t, err)
		assert.Equal(t, json.Number("12345678901234567890"), instr.Args["n"])
		assert.Equal(t, json.Number("1.50"), instr.Args["f"])
	})

	t.Run("should accept extra top-level keys and empty args", func(t *testing.T) {
		instr, err := ParseInstruction(`{"tool":"comments_call","args":{},"reason":"asked"}`)

		require.NoError(t, err)
		assert.Equal(t, "comments_call", instr.Tool)
		assert.Empty(t, instr.Args)
	})

	t.Run("should not validate the tool name", func(t *testing.T) {
		instr, err := ParseInstruction(`{"tool":"weather_call","args":{"city":"Paris"}}`)

		require.NoError(t, err)
		assert.Equal(t, "weather_call", instr.Tool)
	})

	tests := []struct {
		name    string
		input   string
		details string
	}{
		{"prose", `Sure! Here is the post.`, "invalid JSON in model response"},
		{"fenced JSON", "```json\n{\"tool\":\"post_call\",\"args\":{}}\n```", "invalid JSON in model response"},
		{"trailing text", `{"tool":"post_call","args":{}} done`, "unexpected data after the instruction object"},
		{"two objects", `{"tool":"a","args":{}}{"tool":"b","args":{}}`, "unexpected data after the instruction object"},
		{"array", `[1,2]`, "instruction must be a JSON object, got array"},
		{"null", `null`, "instruction must be a JSON object, got null"},
		{"missing tool", `{"args":{}}`, `missing "tool" field`},
		{"missing args", `{"tool":"post_call"}`, `missing "args" field`},
		{"numeric tool", `{"tool":1,"args":{}}`, `"tool" field must be a string, got number`},
		{"empty tool", `{"tool":"","args":{}}`, `"tool" field must not be empty`},
		{"string args", `{"tool":"post_call","args":"post_id=1"}`, `"args" field must be an object, got string`},
		{"null args", `{"tool":"post_call","args":null}`, `"args" field must be an object, got null`},
	}

	for _, tt := range tests {
		t.Run("should reject "+tt.name, func(t *testing.T) {
			_, err := ParseInstruction(tt.input)

			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedInstruction))
			assert.Equal(t, KindResponse, KindOf(err))
			assert.Contains(t, err.Error(), tt.details)
		})
	}
}
