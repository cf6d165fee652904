package models

import "time"

// DatasetEntry is one test case. Entries are immutable once created;
// datasets grow append-only.
type DatasetEntry struct {
	ID             string         `json:"id"`
	DatasetID      string         `json:"dataset_id"`
	InputData      map[string]any `json:"input_data"`
	ExpectedOutput string         `json:"expected_output,omitempty"`
	Rubric         string         `json:"rubric,omitempty"`
	Position       int            `json:"position"`
	CreatedAt      time.Time      `json:"created_at"`
}

// Dataset groups test cases for a prompt name.
type Dataset struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	PromptName  string         `json:"prompt_name,omitempty"`
	Entries     []DatasetEntry `json:"entries,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

func NewDataset(id, name, description string) *Dataset {
	return &Dataset{
		ID:          id,
		Name:        name,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
}

func NewDatasetEntry(id, datasetID string, input map[string]any, expected, rubric string, position int) *DatasetEntry {
	return &DatasetEntry{
		ID:             id,
		DatasetID:      datasetID,
		InputData:      input,
		ExpectedOutput: expected,
		Rubric:         rubric,
		Position:       position,
		CreatedAt:      time.Now().UTC(),
	}
}
