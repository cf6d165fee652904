package dto

// AdHocEntry mirrors a dataset entry supplied inline with a request.
type AdHocEntry struct {
	InputData      map[string]any `json:"input_data"`
	ExpectedOutput string         `json:"expected_output,omitempty"`
	Rubric         string         `json:"rubric,omitempty"`
}

type CreatePromptVersionRequest struct {
	Name            string         `json:"name"`
	Version         string         `json:"version,omitempty"`
	TemplateText    string         `json:"template_text"`
	InputSchema     map[string]any `json:"input_schema,omitempty"`
	OutputSchema    map[string]any `json:"output_schema,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	ParentVersionID string         `json:"parent_version_id,omitempty"`
}

type CreateDatasetRequest struct {
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	PromptName  string       `json:"prompt_name,omitempty"`
	Entries     []AdHocEntry `json:"entries,omitempty"`
}

type AddEntriesRequest struct {
	Entries []AdHocEntry `json:"entries"`
}

type EvaluateRequest struct {
	PromptName string       `json:"prompt_name"`
	Version    string       `json:"version,omitempty"`
	DatasetID  string       `json:"dataset_id,omitempty"`
	Entries    []AdHocEntry `json:"dataset_entries,omitempty"`
	Dimensions []string     `json:"dimensions,omitempty"`
}

type ImproveRequest struct {
	PromptName           string  `json:"prompt_name"`
	BaselineVersion      string  `json:"baseline_version,omitempty"`
	DatasetID            string  `json:"dataset_id"`
	ImprovementThreshold float64 `json:"improvement_threshold,omitempty"`
	MaxCandidates        int     `json:"max_candidates,omitempty"`
}

type RunRequest struct {
	Version   string         `json:"version,omitempty"`
	InputData map[string]any `json:"input_data"`
}
