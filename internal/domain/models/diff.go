package models

// Diff is a derived view over two prompt version templates. It is computed on
// demand and never persisted.
type Diff struct {
	VersionA       string   `json:"version_a"`
	VersionB       string   `json:"version_b"`
	DiffText       string   `json:"diff_text"`
	ChangesSummary string   `json:"changes_summary"`
	AddedLines     []string `json:"added_lines"`
	RemovedLines   []string `json:"removed_lines"`
}
