package prompteval

import (
	"strings"
	"testing"
)

func TestValidateFormatNoSchemaNoConstraints(t *testing.T) {
	ok, msg := ValidateFormat("anything at all, not even JSON", nil, nil)
	if !ok || msg != "" {
		t.Errorf("expected pass, got (%v, %q)", ok, msg)
	}
}

func TestValidateFormatInvalidJSON(t *testing.T) {
	schema := map[string]any{"type": "object"}
	ok, msg := ValidateFormat("not json", schema, nil)
	if ok {
		t.Fatal("expected failure")
	}
	if !strings.Contains(msg, "not valid JSON") {
		t.Errorf("message = %q", msg)
	}
}

func TestValidateFormatSchema(t *testing.T) {
	schema := map[string]any{
		"type":     "object",
		"required": []any{"answer", "confidence"},
		"properties": map[string]any{
			"answer":     map[string]any{"type": "string", "minLength": float64(1)},
			"confidence": map[string]any{"type": "number", "minimum": float64(0), "maximum": float64(1)},
			"tags":       map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"category":   map[string]any{"type": "string", "enum": []any{"a", "b"}},
		},
	}

	tests := []struct {
		name    string
		output  string
		wantOK  bool
		wantMsg string
	}{
		{
			name:   "valid full object",
			output: `{"answer": "yes", "confidence": 0.9, "tags": ["x"], "category": "a"}`,
			wantOK: true,
		},
		{
			name:   "integer satisfies number",
			output: `{"answer": "yes", "confidence": 1}`,
			wantOK: true,
		},
		{
			name:    "missing required property",
			output:  `{"answer": "yes"}`,
			wantOK:  false,
			wantMsg: `missing required property "confidence"`,
		},
		{
			name:    "wrong property type",
			output:  `{"answer": 42, "confidence": 0.5}`,
			wantOK:  false,
			wantMsg: "$.answer: expected type string",
		},
		{
			name:    "number above maximum",
			output:  `{"answer": "yes", "confidence": 1.5}`,
			wantOK:  false,
			wantMsg: "exceeds maximum",
		},
		{
			name:    "array item type",
			output:  `{"answer": "yes", "confidence": 0.5, "tags": [1]}`,
			wantOK:  false,
			wantMsg: "$.tags[0]: expected type string",
		},
		{
			name:    "enum violation",
			output:  `{"answer": "yes", "confidence": 0.5, "category": "z"}`,
			wantOK:  false,
			wantMsg: "not in enum",
		},
		{
			name:    "string below minLength",
			output:  `{"answer": "", "confidence": 0.5}`,
			wantOK:  false,
			wantMsg: "below minLength",
		},
		{
			name:   "surrounding whitespace tolerated",
			output: "  \n" + `{"answer": "yes", "confidence": 0.5}` + "\n ",
			wantOK: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, msg := ValidateFormat(tt.output, schema, nil)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v (%q), want %v", ok, msg, tt.wantOK)
			}
			if !ok && !strings.Contains(msg, tt.wantMsg) {
				t.Errorf("message %q does not contain %q", msg, tt.wantMsg)
			}
		})
	}
}

func TestValidateFormatTopLevelType(t *testing.T) {
	schema := map[string]any{"type": "array", "items": map[string]any{"type": "string"}}

	if ok, _ := ValidateFormat(`["a", "b"]`, schema, nil); !ok {
		t.Error("string array should pass")
	}
	ok, msg := ValidateFormat(`{"a": 1}`, schema, nil)
	if ok {
		t.Fatal("object should fail an array schema")
	}
	if !strings.Contains(msg, "expected type array") {
		t.Errorf("message = %q", msg)
	}
}

func TestValidateFormatConstraints(t *testing.T) {
	tests := []struct {
		name        string
		output      string
		constraints *Constraints
		wantOK      bool
		wantMsg     string
	}{
		{
			name:        "min length",
			output:      "hi",
			constraints: &Constraints{MinLength: 10},
			wantOK:      false,
			wantMsg:     "below minimum",
		},
		{
			name:        "max length",
			output:      strings.Repeat("x", 20),
			constraints: &Constraints{MaxLength: 10},
			wantOK:      false,
			wantMsg:     "exceeds maximum",
		},
		{
			name:        "pattern mismatch",
			output:      "hello",
			constraints: &Constraints{Pattern: `^\d+$`},
			wantOK:      false,
			wantMsg:     "does not match pattern",
		},
		{
			name:        "pattern match without schema skips JSON parse",
			output:      "ORDER-12345",
			constraints: &Constraints{Pattern: `^ORDER-\d+$`},
			wantOK:      true,
		},
		{
			name:        "required fields force JSON",
			output:      "plain text",
			constraints: &Constraints{RequiredFields: []string{"answer"}},
			wantOK:      false,
			wantMsg:     "not valid JSON",
		},
		{
			name:        "required field missing",
			output:      `{"other": 1}`,
			constraints: &Constraints{RequiredFields: []string{"answer"}},
			wantOK:      false,
			wantMsg:     `missing required field "answer"`,
		},
		{
			name:        "field type mismatch",
			output:      `{"count": "three"}`,
			constraints: &Constraints{FieldTypes: map[string]string{"count": "integer"}},
			wantOK:      false,
			wantMsg:     `field "count" has type string`,
		},
		{
			name:        "field types satisfied",
			output:      `{"count": 3, "name": "x"}`,
			constraints: &Constraints{FieldTypes: map[string]string{"count": "integer", "name": "string"}},
			wantOK:      true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, msg := ValidateFormat(tt.output, nil, tt.constraints)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v (%q), want %v", ok, msg, tt.wantOK)
			}
			if !ok && !strings.Contains(msg, tt.wantMsg) {
				t.Errorf("message %q does not contain %q", msg, tt.wantMsg)
			}
		})
	}
}

func TestConstraintsFromMetadata(t *testing.T) {
	if c := ConstraintsFromMetadata(nil); c != nil {
		t.Error("nil metadata should yield nil constraints")
	}
	if c := ConstraintsFromMetadata(map[string]any{"other": 1}); c != nil {
		t.Error("metadata without constraints key should yield nil")
	}

	c := ConstraintsFromMetadata(map[string]any{
		"constraints": map[string]any{
			"min_length":      float64(5),
			"required_fields": []any{"answer"},
		},
	})
	if c == nil {
		t.Fatal("expected constraints")
	}
	if c.MinLength != 5 || len(c.RequiredFields) != 1 || c.RequiredFields[0] != "answer" {
		t.Errorf("parsed constraints = %+v", c)
	}
}
