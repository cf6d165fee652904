package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/promptforge/promptforge/internal/domain"
	"github.com/promptforge/promptforge/internal/domain/models"
	"github.com/promptforge/promptforge/internal/ports"
)

// ManagePrompts covers the CRUD side of prompt versioning: creating drafts,
// listing, and manually activating a version.
type ManagePrompts struct {
	versionRepo ports.PromptVersionRepository
	txManager   ports.TransactionManager
	idGenerator ports.IDGenerator
	logger      *slog.Logger
}

func NewManagePrompts(
	versionRepo ports.PromptVersionRepository,
	txManager ports.TransactionManager,
	idGenerator ports.IDGenerator,
	logger *slog.Logger,
) *ManagePrompts {
	if logger == nil {
		logger = slog.Default()
	}
	return &ManagePrompts{
		versionRepo: versionRepo,
		txManager:   txManager,
		idGenerator: idGenerator,
		logger:      logger,
	}
}

// CreateVersion stores a new draft. Version defaults to "1.0.0" for a brand
// new name, or to a bump of the latest existing version when omitted.
func (uc *ManagePrompts) CreateVersion(ctx context.Context, input *ports.CreatePromptVersionInput) (*models.PromptVersion, error) {
	if input.Name == "" {
		return nil, domain.NewDomainError(domain.ErrInvalidInput, "prompt name is required")
	}

	version := input.Version
	if version == "" {
		existing, err := uc.versionRepo.ListByName(ctx, input.Name)
		if err != nil {
			return nil, err
		}
		if len(existing) == 0 {
			version = "1.0.0"
		} else {
			version = models.BumpVersion(existing[len(existing)-1].Version, 1)
		}
	}

	pv, err := models.NewPromptVersion(uc.idGenerator.GeneratePromptVersionID(), input.Name, version, input.TemplateText)
	if err != nil {
		return nil, err
	}
	pv.InputSchema = input.InputSchema
	pv.OutputSchema = input.OutputSchema
	pv.Metadata = input.Metadata
	pv.ParentVersionID = input.ParentVersionID

	if input.ParentVersionID != "" {
		parent, err := uc.versionRepo.GetByID(ctx, input.ParentVersionID)
		if err != nil {
			return nil, fmt.Errorf("resolve parent version: %w", err)
		}
		if parent.Name != input.Name {
			return nil, domain.NewDomainError(domain.ErrInvalidInput, "parent version belongs to a different prompt")
		}
	}

	if err := uc.versionRepo.Create(ctx, pv); err != nil {
		return nil, err
	}
	uc.logger.InfoContext(ctx, "prompt version created", "prompt", pv.Label(), "id", pv.ID)
	return pv, nil
}

func (uc *ManagePrompts) Get(ctx context.Context, name, version string) (*models.PromptVersion, error) {
	return resolveVersion(ctx, uc.versionRepo, name, version)
}

func (uc *ManagePrompts) ListVersions(ctx context.Context, name string) ([]*models.PromptVersion, error) {
	if name == "" {
		return nil, domain.NewDomainError(domain.ErrInvalidInput, "prompt name is required")
	}
	return uc.versionRepo.ListByName(ctx, name)
}

func (uc *ManagePrompts) ListNames(ctx context.Context) ([]string, error) {
	return uc.versionRepo.ListNames(ctx)
}

// Delete removes a prompt and all its versions. Past evaluation and
// improvement records keep their copies of the scores, so history survives
// the prompt itself.
func (uc *ManagePrompts) Delete(ctx context.Context, name string) error {
	if name == "" {
		return domain.NewDomainError(domain.ErrInvalidInput, "prompt name is required")
	}

	unlock := promotionLocks.lock(name)
	defer unlock()

	var removed int
	err := uc.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		n, err := uc.versionRepo.DeleteByName(txCtx, name)
		removed = n
		return err
	})
	if err != nil {
		return err
	}
	if removed == 0 {
		return domain.ErrVersionNotFound
	}
	uc.logger.InfoContext(ctx, "prompt deleted", "prompt", name, "versions", removed)
	return nil
}

// Activate manually promotes a draft version, archiving the current active
// one. The same compare-and-swap the improvement pipeline uses applies, so
// concurrent activations cannot both win.
func (uc *ManagePrompts) Activate(ctx context.Context, name, version string) (*models.PromptVersion, error) {
	if name == "" || version == "" {
		return nil, domain.NewDomainError(domain.ErrInvalidInput, "prompt name and version are required")
	}
	target, err := uc.versionRepo.GetByNameAndVersion(ctx, name, version)
	if err != nil {
		return nil, err
	}

	unlock := promotionLocks.lock(name)
	defer unlock()

	expectedActiveID := ""
	active, err := uc.versionRepo.GetActive(ctx, name)
	switch {
	case err == nil:
		if active.ID == target.ID {
			return active, nil
		}
		expectedActiveID = active.ID
	case errors.Is(err, domain.ErrNoActiveVersion):
	default:
		return nil, err
	}

	err = uc.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return uc.versionRepo.Activate(txCtx, name, target.ID, expectedActiveID)
	})
	if err != nil {
		return nil, err
	}
	return uc.versionRepo.GetByID(ctx, target.ID)
}
