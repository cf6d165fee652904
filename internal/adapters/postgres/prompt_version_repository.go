package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/promptforge/promptforge/internal/domain"
	"github.com/promptforge/promptforge/internal/domain/models"
)

const pgUniqueViolation = "23505"

type PromptVersionRepository struct {
	BaseRepository
}

func NewPromptVersionRepository(pool *pgxpool.Pool) *PromptVersionRepository {
	return &PromptVersionRepository{BaseRepository: NewBaseRepository(pool)}
}

const promptVersionColumns = `id, name, version, template_text, input_schema, output_schema, metadata, parent_version_id, status, created_at, updated_at`

func (r *PromptVersionRepository) Create(ctx context.Context, version *models.PromptVersion) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	inputSchema, err := marshalJSON(version.InputSchema)
	if err != nil {
		return fmt.Errorf("marshal input schema: %w", err)
	}
	outputSchema, err := marshalJSON(version.OutputSchema)
	if err != nil {
		return fmt.Errorf("marshal output schema: %w", err)
	}
	metadata, err := marshalJSON(version.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	query := `
		INSERT INTO prompt_versions (
			id, name, version, template_text, input_schema, output_schema, metadata, parent_version_id, status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)`

	_, err = r.conn(ctx).Exec(ctx, query,
		version.ID,
		version.Name,
		version.Version,
		version.TemplateText,
		inputSchema,
		outputSchema,
		metadata,
		nullString(version.ParentVersionID),
		version.Status,
		version.CreatedAt,
		version.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return domain.ErrVersionExists
		}
		return fmt.Errorf("create prompt version: %w", err)
	}
	return nil
}

func (r *PromptVersionRepository) GetByID(ctx context.Context, id string) (*models.PromptVersion, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + promptVersionColumns + ` FROM prompt_versions WHERE id = $1`
	return scanPromptVersion(r.conn(ctx).QueryRow(ctx, query, id))
}

func (r *PromptVersionRepository) GetByNameAndVersion(ctx context.Context, name, version string) (*models.PromptVersion, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + promptVersionColumns + ` FROM prompt_versions WHERE name = $1 AND version = $2`
	return scanPromptVersion(r.conn(ctx).QueryRow(ctx, query, name, version))
}

func (r *PromptVersionRepository) GetActive(ctx context.Context, name string) (*models.PromptVersion, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + promptVersionColumns + ` FROM prompt_versions WHERE name = $1 AND status = 'active' LIMIT 1`
	version, err := scanPromptVersion(r.conn(ctx).QueryRow(ctx, query, name))
	if errors.Is(err, domain.ErrVersionNotFound) {
		return nil, domain.ErrNoActiveVersion
	}
	return version, err
}

func (r *PromptVersionRepository) ListByName(ctx context.Context, name string) ([]*models.PromptVersion, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + promptVersionColumns + ` FROM prompt_versions WHERE name = $1 ORDER BY created_at ASC, id ASC`
	rows, err := r.conn(ctx).Query(ctx, query, name)
	if err != nil {
		return nil, fmt.Errorf("list prompt versions: %w", err)
	}
	defer rows.Close()

	var versions []*models.PromptVersion
	for rows.Next() {
		version, err := scanPromptVersionRow(rows)
		if err != nil {
			return nil, err
		}
		versions = append(versions, version)
	}
	return versions, rows.Err()
}

func (r *PromptVersionRepository) ListNames(ctx context.Context) ([]string, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := r.conn(ctx).Query(ctx, `SELECT DISTINCT name FROM prompt_versions ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list prompt names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (r *PromptVersionRepository) UpdateStatus(ctx context.Context, id, status string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE prompt_versions SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update prompt version status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrVersionNotFound
	}
	return nil
}

// Activate flips versionID to active and archives the version the caller
// observed as active. The archive statement is keyed on expectedActiveID, so
// a promotion racing against another one fails with ErrPromotionConflict
// instead of leaving two active versions. Callers run this inside a
// transaction.
func (r *PromptVersionRepository) Activate(ctx context.Context, name, versionID, expectedActiveID string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if expectedActiveID != "" {
		tag, err := r.conn(ctx).Exec(ctx, `
			UPDATE prompt_versions
			SET status = 'archived', updated_at = NOW()
			WHERE name = $1 AND id = $2 AND status = 'active'`,
			name, expectedActiveID)
		if err != nil {
			return fmt.Errorf("archive active version: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrPromotionConflict
		}
	} else {
		var activeCount int
		err := r.conn(ctx).QueryRow(ctx,
			`SELECT COUNT(*) FROM prompt_versions WHERE name = $1 AND status = 'active'`, name).Scan(&activeCount)
		if err != nil {
			return fmt.Errorf("check active version: %w", err)
		}
		if activeCount > 0 {
			return domain.ErrPromotionConflict
		}
	}

	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE prompt_versions
		SET status = 'active', updated_at = NOW()
		WHERE id = $1 AND name = $2 AND status = 'draft'`,
		versionID, name)
	if err != nil {
		return fmt.Errorf("activate version: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewDomainError(domain.ErrInvalidStatusTransition, "candidate is not a draft version of this prompt")
	}
	return nil
}

func (r *PromptVersionRepository) DeleteByName(ctx context.Context, name string) (int, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM prompt_versions WHERE name = $1`, name)
	if err != nil {
		return 0, fmt.Errorf("delete prompt versions: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func scanPromptVersion(row pgx.Row) (*models.PromptVersion, error) {
	return scanPromptVersionRow(row)
}

func scanPromptVersionRow(row interface{ Scan(dest ...any) error }) (*models.PromptVersion, error) {
	var version models.PromptVersion
	var inputSchema, outputSchema, metadata []byte
	var parentID sql.NullString

	err := row.Scan(
		&version.ID,
		&version.Name,
		&version.Version,
		&version.TemplateText,
		&inputSchema,
		&outputSchema,
		&metadata,
		&parentID,
		&version.Status,
		&version.CreatedAt,
		&version.UpdatedAt,
	)
	if err != nil {
		if checkNoRows(err) {
			return nil, domain.ErrVersionNotFound
		}
		return nil, fmt.Errorf("scan prompt version: %w", err)
	}

	version.ParentVersionID = getString(parentID)
	if err := unmarshalJSONField(inputSchema, &version.InputSchema); err != nil {
		return nil, fmt.Errorf("unmarshal input schema: %w", err)
	}
	if err := unmarshalJSONField(outputSchema, &version.OutputSchema); err != nil {
		return nil, fmt.Errorf("unmarshal output schema: %w", err)
	}
	if err := unmarshalJSONField(metadata, &version.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	if version.Metadata == nil {
		version.Metadata = make(map[string]any)
	}
	return &version, nil
}
