package ports

import (
	"context"

	"github.com/promptforge/promptforge/internal/domain/models"
)

// PromptVersionRepository defines operations for prompt version persistence
type PromptVersionRepository interface {
	Create(ctx context.Context, version *models.PromptVersion) error
	GetByID(ctx context.Context, id string) (*models.PromptVersion, error)
	GetByNameAndVersion(ctx context.Context, name, version string) (*models.PromptVersion, error)
	// GetActive returns the single active version for a name, or
	// domain.ErrNoActiveVersion when none exists.
	GetActive(ctx context.Context, name string) (*models.PromptVersion, error)
	ListByName(ctx context.Context, name string) ([]*models.PromptVersion, error)
	ListNames(ctx context.Context) ([]string, error)
	UpdateStatus(ctx context.Context, id, status string) error
	// Activate flips versionID to active and archives the rest of the name's
	// versions in one transaction. expectedActiveID is the active version the
	// caller observed, or empty when the caller saw none; when the stored
	// state no longer matches, domain.ErrPromotionConflict is returned and
	// nothing changes.
	Activate(ctx context.Context, name, versionID, expectedActiveID string) error
	// DeleteByName removes every version of a prompt. Returns the number of
	// versions removed; zero means the name was unknown.
	DeleteByName(ctx context.Context, name string) (int, error)
}

// DatasetRepository defines operations for dataset persistence
type DatasetRepository interface {
	Create(ctx context.Context, dataset *models.Dataset) error
	GetByID(ctx context.Context, id string) (*models.Dataset, error)
	List(ctx context.Context, limit, offset int) ([]*models.Dataset, error)
	AddEntries(ctx context.Context, datasetID string, entries []models.DatasetEntry) error
	// GetEntries returns a dataset's entries ordered by position.
	GetEntries(ctx context.Context, datasetID string) ([]models.DatasetEntry, error)
}

// EvaluationRepository defines operations for evaluation run persistence
type EvaluationRepository interface {
	Create(ctx context.Context, run *models.EvaluationRun) error
	GetByID(ctx context.Context, id string) (*models.EvaluationRun, error)
	ListByPromptName(ctx context.Context, name string, limit, offset int) ([]*models.EvaluationRun, error)
}

// ImprovementRepository defines operations for improvement run persistence
type ImprovementRepository interface {
	Create(ctx context.Context, run *models.ImprovementRun) error
	Update(ctx context.Context, run *models.ImprovementRun) error
	GetByID(ctx context.Context, id string) (*models.ImprovementRun, error)
	ListByPromptName(ctx context.Context, name string, limit, offset int) ([]*models.ImprovementRun, error)
}

// TransactionManager provides transaction support for multi-step operations
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// IDGenerator generates unique prefixed identifiers for each entity type
type IDGenerator interface {
	GeneratePromptVersionID() string
	GenerateDatasetID() string
	GenerateEntryID() string
	GenerateEvaluationID() string
	GenerateResultID() string
	GenerateImprovementID() string
}
