package adapters

import (
	"encoding/json"
	"fmt"
	"math"
)

// PostArgs are the arguments of post_call and comments_call.
type PostArgs struct {
	PostID int64 `json:"post_id" jsonschema:"minimum=1,description=Identifier of the JSONPlaceholder post"`
}

const (
	msgPostIDRequired = "post_id is required"
	msgPostIDInvalid  = "post_id must be a positive integer"
)

// postID reads post_id from params. It accepts json.Number, float64 with no
// fractional part and Go integers; anything else is a validation error.
func postID(tool string, params map[string]any) (int64, error) {
	raw, ok := params["post_id"]
	if !ok || raw == nil {
		return 0, invalid(tool, msgPostIDRequired)
	}

	var id int64
	switch v := raw.(type) {
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, invalid(tool, msgPostIDInvalid)
		}
		id = n
	case float64:
		if v != math.Trunc(v) || v > math.MaxInt64 || v < math.MinInt64 {
			return 0, invalid(tool, msgPostIDInvalid)
		}
		id = int64(v)
	case int:
		id = int64(v)
	case int64:
		id = v
	default:
		return 0, invalid(tool, msgPostIDInvalid)
	}

	if id <= 0 {
		return 0, invalid(tool, msgPostIDInvalid)
	}
	return id, nil
}

func postFieldErrors() map[string]string {
	return map[string]string{"post_id": msgPostIDInvalid}
}

func describeStatus(status int) string {
	return fmt.Sprintf("upstream returned status %d", status)
}
