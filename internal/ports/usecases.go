package ports

// AdHocEntry is a dataset entry supplied inline with an evaluation request
// instead of referencing a stored dataset.
type AdHocEntry struct {
	InputData      map[string]any `json:"input_data"`
	ExpectedOutput string         `json:"expected_output,omitempty"`
	Rubric         string         `json:"rubric,omitempty"`
}

// EvaluatePromptInput identifies what to evaluate. Version empty means the
// active version. Exactly one of DatasetID or Entries must be set.
type EvaluatePromptInput struct {
	PromptName string
	Version    string
	DatasetID  string
	Entries    []AdHocEntry
	Dimensions []string
}

// ImprovePromptInput configures one improvement run. Zero-valued policy
// fields fall back to configured defaults.
type ImprovePromptInput struct {
	PromptName           string
	BaselineVersion      string
	DatasetID            string
	ImprovementThreshold float64
	MaxCandidates        int
}

// RunPromptInput is an ad-hoc execution of a prompt version.
type RunPromptInput struct {
	PromptName string
	Version    string
	InputData  map[string]any
}

// RunPromptOutput carries the raw output plus its deterministic format check.
type RunPromptOutput struct {
	PromptVersionID string `json:"prompt_version_id"`
	PromptVersion   string `json:"prompt_version"`
	Output          string `json:"output"`
	FormatValid     bool   `json:"format_valid"`
	FormatError     string `json:"format_error,omitempty"`
}

// CreatePromptVersionInput creates a new draft version. ParentVersionID is
// set when the new version is an edit of an existing one.
type CreatePromptVersionInput struct {
	Name            string
	Version         string
	TemplateText    string
	InputSchema     map[string]any
	OutputSchema    map[string]any
	Metadata        map[string]any
	ParentVersionID string
}

// CreateDatasetInput creates a dataset with its initial entries.
type CreateDatasetInput struct {
	Name        string
	Description string
	PromptName  string
	Entries     []AdHocEntry
}
