package prompteval

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
)

// Constraints are declarative checks applied to an output alongside the
// schema. Zero values mean "not checked".
type Constraints struct {
	RequiredFields []string          `json:"required_fields,omitempty"`
	FieldTypes     map[string]string `json:"field_types,omitempty"`
	MinLength      int               `json:"min_length,omitempty"`
	MaxLength      int               `json:"max_length,omitempty"`
	Pattern        string            `json:"pattern,omitempty"`
}

// ValidateFormat checks a raw model output against an output schema and
// optional constraints. It is pure and never errors out: malformed input is
// reported as a failed validation with a descriptive message. A nil schema
// with nil constraints always passes; callers treat the format dimension as
// not applicable in that case.
func ValidateFormat(actualOutput string, outputSchema map[string]any, constraints *Constraints) (bool, string) {
	if outputSchema == nil && constraints == nil {
		return true, ""
	}

	if constraints != nil {
		if constraints.MinLength > 0 && len(actualOutput) < constraints.MinLength {
			return false, fmt.Sprintf("output length %d below minimum %d", len(actualOutput), constraints.MinLength)
		}
		if constraints.MaxLength > 0 && len(actualOutput) > constraints.MaxLength {
			return false, fmt.Sprintf("output length %d exceeds maximum %d", len(actualOutput), constraints.MaxLength)
		}
		if constraints.Pattern != "" {
			re, err := regexp.Compile(constraints.Pattern)
			if err != nil {
				return false, fmt.Sprintf("invalid constraint pattern: %v", err)
			}
			if !re.MatchString(actualOutput) {
				return false, fmt.Sprintf("output does not match pattern %q", constraints.Pattern)
			}
		}
	}

	needsJSON := outputSchema != nil
	if constraints != nil && (len(constraints.RequiredFields) > 0 || len(constraints.FieldTypes) > 0) {
		needsJSON = true
	}
	if !needsJSON {
		return true, ""
	}

	var value any
	if err := json.Unmarshal([]byte(strings.TrimSpace(actualOutput)), &value); err != nil {
		return false, fmt.Sprintf("output is not valid JSON: %v", err)
	}

	if outputSchema != nil {
		if err := checkSchema(value, outputSchema, "$"); err != nil {
			return false, err.Error()
		}
	}

	if constraints != nil && (len(constraints.RequiredFields) > 0 || len(constraints.FieldTypes) > 0) {
		obj, ok := value.(map[string]any)
		if !ok {
			return false, "field constraints require a JSON object output"
		}
		for _, field := range constraints.RequiredFields {
			if _, present := obj[field]; !present {
				return false, fmt.Sprintf("missing required field %q", field)
			}
		}
		fields := make([]string, 0, len(constraints.FieldTypes))
		for f := range constraints.FieldTypes {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		for _, field := range fields {
			v, present := obj[field]
			if !present {
				continue
			}
			want := constraints.FieldTypes[field]
			if got := jsonTypeOf(v); !typeMatches(got, want) {
				return false, fmt.Sprintf("field %q has type %s, expected %s", field, got, want)
			}
		}
	}

	return true, ""
}

// checkSchema validates value against a JSON-schema subset: type, required,
// properties, items, enum, minimum/maximum, minLength/maxLength, pattern.
func checkSchema(value any, schema map[string]any, path string) error {
	if want, ok := schema["type"].(string); ok {
		got := jsonTypeOf(value)
		if !typeMatches(got, want) {
			return fmt.Errorf("%s: expected type %s, got %s", path, want, got)
		}
	}

	if enum, ok := schema["enum"].([]any); ok {
		found := false
		for _, allowed := range enum {
			if jsonEqual(value, allowed) {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%s: value not in enum", path)
		}
	}

	switch v := value.(type) {
	case map[string]any:
		if required, ok := schema["required"].([]any); ok {
			for _, r := range required {
				name, _ := r.(string)
				if _, present := v[name]; !present {
					return fmt.Errorf("%s: missing required property %q", path, name)
				}
			}
		}
		if props, ok := schema["properties"].(map[string]any); ok {
			names := make([]string, 0, len(props))
			for name := range props {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				sub, ok := props[name].(map[string]any)
				if !ok {
					continue
				}
				child, present := v[name]
				if !present {
					continue
				}
				if err := checkSchema(child, sub, path+"."+name); err != nil {
					return err
				}
			}
		}
	case []any:
		if items, ok := schema["items"].(map[string]any); ok {
			for i, child := range v {
				if err := checkSchema(child, items, fmt.Sprintf("%s[%d]", path, i)); err != nil {
					return err
				}
			}
		}
	case string:
		if min, ok := schemaNumber(schema["minLength"]); ok && len(v) < int(min) {
			return fmt.Errorf("%s: string length %d below minLength %d", path, len(v), int(min))
		}
		if max, ok := schemaNumber(schema["maxLength"]); ok && len(v) > int(max) {
			return fmt.Errorf("%s: string length %d exceeds maxLength %d", path, len(v), int(max))
		}
		if pattern, ok := schema["pattern"].(string); ok {
			re, err := regexp.Compile(pattern)
			if err != nil {
				return fmt.Errorf("%s: invalid schema pattern: %v", path, err)
			}
			if !re.MatchString(v) {
				return fmt.Errorf("%s: string does not match pattern %q", path, pattern)
			}
		}
	case float64:
		if min, ok := schemaNumber(schema["minimum"]); ok && v < min {
			return fmt.Errorf("%s: value %v below minimum %v", path, v, min)
		}
		if max, ok := schemaNumber(schema["maximum"]); ok && v > max {
			return fmt.Errorf("%s: value %v exceeds maximum %v", path, v, max)
		}
	}

	return nil
}

func jsonTypeOf(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		if t == math.Trunc(t) {
			return "integer"
		}
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return "unknown"
	}
}

func typeMatches(got, want string) bool {
	if got == want {
		return true
	}
	// integers satisfy "number"
	if want == "number" && got == "integer" {
		return true
	}
	return false
}

func jsonEqual(a, b any) bool {
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return string(ja) == string(jb)
}

func schemaNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}
