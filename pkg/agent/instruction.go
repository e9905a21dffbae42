package agent

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Instruction is the tool selection extracted from the model's reply.
type Instruction struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args"`
}

// ParseInstruction decodes s as a strict {tool, args} object. Numbers in args
// are kept as json.Number so they reach the tool unchanged.
func ParseInstruction(s string) (Instruction, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return Instruction{}, responseError(ErrMalformedInstruction,
			fmt.Sprintf("invalid JSON in model response: %v", err))
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Instruction{}, responseError(ErrMalformedInstruction,
			"invalid JSON in model response: unexpected data after the instruction object")
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return Instruction{}, responseError(ErrMalformedInstruction,
			fmt.Sprintf("instruction must be a JSON object, got %s", jsonType(v)))
	}

	rawTool, ok := obj["tool"]
	if !ok {
		return Instruction{}, responseError(ErrMalformedInstruction, `missing "tool" field`)
	}
	rawArgs, ok := obj["args"]
	if !ok {
		return Instruction{}, responseError(ErrMalformedInstruction, `missing "args" field`)
	}

	tool, ok := rawTool.(string)
	if !ok {
		return Instruction{}, responseError(ErrMalformedInstruction,
			fmt.Sprintf(`"tool" field must be a string, got %s`, jsonType(rawTool)))
	}
	if tool == "" {
		return Instruction{}, responseError(ErrMalformedInstruction, `"tool" field must not be empty`)
	}

	args, ok := rawArgs.(map[string]any)
	if !ok {
		return Instruction{}, responseError(ErrMalformedInstruction,
			fmt.Sprintf(`"args" field must be an object, got %s`, jsonType(rawArgs)))
	}

	return Instruction{Tool: tool, Args: args}, nil
}

func jsonType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case json.Number, float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
