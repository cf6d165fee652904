package usecases

import (
	"context"

	"github.com/promptforge/promptforge/internal/domain/models"
	"github.com/promptforge/promptforge/internal/ports"
	"github.com/promptforge/promptforge/internal/prompteval"
)

// DiffVersions computes a line diff between prompt version templates, either
// two versions of one prompt addressed by label or any two versions addressed
// by ID.
type DiffVersions struct {
	versionRepo ports.PromptVersionRepository
}

func NewDiffVersions(versionRepo ports.PromptVersionRepository) *DiffVersions {
	return &DiffVersions{versionRepo: versionRepo}
}

func (uc *DiffVersions) Execute(ctx context.Context, name, versionA, versionB string) (*models.Diff, error) {
	a, err := resolveVersion(ctx, uc.versionRepo, name, versionA)
	if err != nil {
		return nil, err
	}
	b, err := resolveVersion(ctx, uc.versionRepo, name, versionB)
	if err != nil {
		return nil, err
	}
	return prompteval.ComputeDiff(a, b), nil
}

// ExecuteByID diffs two versions addressed by ID. The versions do not have to
// share a prompt name.
func (uc *DiffVersions) ExecuteByID(ctx context.Context, idA, idB string) (*models.Diff, error) {
	a, err := uc.versionRepo.GetByID(ctx, idA)
	if err != nil {
		return nil, err
	}
	b, err := uc.versionRepo.GetByID(ctx, idB)
	if err != nil {
		return nil, err
	}
	return prompteval.ComputeDiff(a, b), nil
}

// Changelog renders a human-readable changelog for the diff between two
// versions.
func (uc *DiffVersions) Changelog(ctx context.Context, name, versionA, versionB string) (string, error) {
	diff, err := uc.Execute(ctx, name, versionA, versionB)
	if err != nil {
		return "", err
	}
	return prompteval.Changelog(diff), nil
}
