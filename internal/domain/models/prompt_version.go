package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/promptforge/promptforge/internal/domain"
)

// PromptVersion status values
const (
	VersionStatusDraft    = "draft"
	VersionStatusActive   = "active"
	VersionStatusArchived = "archived"
)

// PromptVersion is an immutable prompt artifact. Identity is (Name, Version);
// edits never mutate TemplateText in place but create a new version whose
// ParentVersionID points at its origin.
type PromptVersion struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Version         string         `json:"version"`
	TemplateText    string         `json:"template_text"`
	InputSchema     map[string]any `json:"input_schema,omitempty"`
	OutputSchema    map[string]any `json:"output_schema,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	ParentVersionID string         `json:"parent_version_id,omitempty"`
	Status          string         `json:"status"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

func NewPromptVersion(id, name, version, templateText string) (*PromptVersion, error) {
	if strings.TrimSpace(templateText) == "" {
		return nil, domain.ErrEmptyTemplate
	}
	now := time.Now().UTC()
	return &PromptVersion{
		ID:           id,
		Name:         name,
		Version:      version,
		TemplateText: templateText,
		Metadata:     make(map[string]any),
		Status:       VersionStatusDraft,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Activate transitions draft->active. Archiving the previously active version
// for the same name is the repository's job, done in the same transaction.
func (v *PromptVersion) Activate() error {
	if v.Status != VersionStatusDraft {
		return domain.NewDomainError(domain.ErrInvalidStatusTransition,
			fmt.Sprintf("cannot activate version in status %q", v.Status))
	}
	v.Status = VersionStatusActive
	v.UpdatedAt = time.Now().UTC()
	return nil
}

func (v *PromptVersion) Archive() error {
	if v.Status == VersionStatusArchived {
		return domain.NewDomainError(domain.ErrInvalidStatusTransition, "version already archived")
	}
	v.Status = VersionStatusArchived
	v.UpdatedAt = time.Now().UTC()
	return nil
}

func (v *PromptVersion) IsActive() bool {
	return v.Status == VersionStatusActive
}

// Label is the version's human identity, "name@version".
func (v *PromptVersion) Label() string {
	return v.Name + "@" + v.Version
}

// BumpVersion derives the label for the n-th candidate spawned from base
// (1-based). "1.2.0" becomes "1.3.0", "v3" becomes "v4"; anything else gets a
// "-candidate-n" suffix. Successive candidates from the same base advance the
// same component so labels stay unique.
func BumpVersion(base string, n int) string {
	if parts := strings.Split(base, "."); len(parts) == 3 {
		if major, err := strconv.Atoi(parts[0]); err == nil {
			if minor, err := strconv.Atoi(parts[1]); err == nil {
				return fmt.Sprintf("%d.%d.0", major, minor+n)
			}
		}
	}
	if strings.HasPrefix(base, "v") {
		if num, err := strconv.Atoi(base[1:]); err == nil {
			return fmt.Sprintf("v%d", num+n)
		}
	}
	return fmt.Sprintf("%s-candidate-%d", base, n)
}
