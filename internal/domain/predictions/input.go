package predictions

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/bryanwahyu/heart-risk/internal/features"
)

// Input is a validated prediction request.
type Input struct {
	// Raw is the request body as received; it is persisted verbatim.
	Raw    map[string]any
	Values map[string]float64
	UserID string
}

// ParseInput checks that every required clinical field is present and
// numeric and that age is positive. Missing fields are reported before
// anything else.
func ParseInput(raw map[string]any) (Input, error) {
	if len(raw) == 0 {
		return Input{}, &ValidationError{Message: MsgNoData}
	}

	var missing []string
	for _, name := range features.Required {
		if v, ok := raw[name]; !ok || v == nil {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return Input{}, &ValidationError{Message: MsgMissingFeatures, Fields: missing}
	}

	values := make(map[string]float64, len(features.Required))
	var invalid []string
	for _, name := range features.Required {
		v, ok := toFloat(raw[name])
		if !ok {
			invalid = append(invalid, name)
			continue
		}
		values[name] = v
	}
	if len(invalid) > 0 {
		return Input{}, &ValidationError{Message: MsgNonNumeric, Fields: invalid}
	}
	if values["age"] <= 0 {
		return Input{}, &ValidationError{Message: fmt.Sprintf("age must be greater than 0, got %v", values["age"])}
	}

	userID := DefaultUserID
	switch v := raw["user_id"].(type) {
	case nil:
	case string:
		if v != "" {
			userID = v
		}
	default:
		return Input{}, &ValidationError{Message: "user_id must be a string"}
	}

	return Input{Raw: raw, Values: values, UserID: userID}, nil
}

func toFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
