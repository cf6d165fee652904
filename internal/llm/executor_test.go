package llm

import "testing"

func TestRenderInput(t *testing.T) {
	tests := []struct {
		name  string
		input map[string]any
		want  string
	}{
		{
			name:  "single input key passes through",
			input: map[string]any{"input": "just the text"},
			want:  "just the text",
		},
		{
			name:  "keys are sorted",
			input: map[string]any{"b": "two", "a": "one"},
			want:  "a: one\nb: two",
		},
		{
			name:  "non-string values are JSON encoded",
			input: map[string]any{"count": float64(3), "tags": []any{"x", "y"}},
			want:  "count: 3\ntags: [\"x\",\"y\"]",
		},
		{
			name:  "input key with non-string value is listed",
			input: map[string]any{"input": float64(7)},
			want:  "input: 7",
		},
		{
			name:  "empty input",
			input: map[string]any{},
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := renderInput(tt.input); got != tt.want {
				t.Errorf("renderInput() = %q, want %q", got, tt.want)
			}
		})
	}
}
