package toolexecutor

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/xeipuuv/gojsonschema"
)

// ValidationError lists every argument problem found for one call.
type ValidationError struct {
	Tool     string
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, "; ")
}

// Schema reflects the JSON schema of an argument struct. Fields without
// omitempty are required and unknown properties are rejected.
func Schema(args any) *jsonschema.Schema {
	r := &jsonschema.Reflector{
		ExpandedStruct: true,
		DoNotReference: true,
	}
	s := r.Reflect(args)
	// gojsonschema understands drafts up to 7; the reflected keywords are
	// compatible, only the declared version is not.
	s.Version = ""
	s.ID = ""
	return s
}

func compileSchema(args any) (*gojsonschema.Schema, error) {
	raw, err := json.Marshal(Schema(args))
	if err != nil {
		return nil, err
	}
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
}

func validateParameters(tool *ToolDefinition, schema *gojsonschema.Schema, params map[string]any) error {
	if schema == nil {
		return nil
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(params))
	if err != nil {
		return &ValidationError{Tool: tool.Name, Problems: []string{fmt.Sprintf("arguments are not valid JSON: %v", err)}}
	}
	if result.Valid() {
		return nil
	}

	seen := make(map[string]bool)
	var problems []string
	for _, re := range result.Errors() {
		msg := describe(tool, re)
		if !seen[msg] {
			seen[msg] = true
			problems = append(problems, msg)
		}
	}
	sort.Strings(problems)

	return &ValidationError{Tool: tool.Name, Problems: problems}
}

func describe(tool *ToolDefinition, re gojsonschema.ResultError) string {
	switch re.Type() {
	case "required":
		return fmt.Sprintf("%v is required", re.Details()["property"])
	case "additional_property_not_allowed":
		return fmt.Sprintf("unexpected argument %v", re.Details()["property"])
	}

	field := re.Field()
	if msg, ok := tool.FieldErrors[field]; ok {
		return msg
	}
	return fmt.Sprintf("%s: %s", field, re.Description())
}
