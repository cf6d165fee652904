package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/promptforge/promptforge/internal/domain"
	"github.com/promptforge/promptforge/internal/domain/models"
)

type DatasetRepository struct {
	BaseRepository
}

func NewDatasetRepository(pool *pgxpool.Pool) *DatasetRepository {
	return &DatasetRepository{BaseRepository: NewBaseRepository(pool)}
}

func (r *DatasetRepository) Create(ctx context.Context, dataset *models.Dataset) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO datasets (id, name, description, prompt_name, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.conn(ctx).Exec(ctx, query,
		dataset.ID,
		dataset.Name,
		nullString(dataset.Description),
		nullString(dataset.PromptName),
		dataset.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create dataset: %w", err)
	}

	if len(dataset.Entries) > 0 {
		return r.AddEntries(ctx, dataset.ID, dataset.Entries)
	}
	return nil
}

func (r *DatasetRepository) GetByID(ctx context.Context, id string) (*models.Dataset, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `SELECT id, name, description, prompt_name, created_at FROM datasets WHERE id = $1`

	var dataset models.Dataset
	var description, promptName sql.NullString
	err := r.conn(ctx).QueryRow(ctx, query, id).Scan(
		&dataset.ID,
		&dataset.Name,
		&description,
		&promptName,
		&dataset.CreatedAt,
	)
	if err != nil {
		if checkNoRows(err) {
			return nil, domain.ErrDatasetNotFound
		}
		return nil, fmt.Errorf("get dataset: %w", err)
	}
	dataset.Description = description.String
	dataset.PromptName = promptName.String

	entries, err := r.GetEntries(ctx, id)
	if err != nil {
		return nil, err
	}
	dataset.Entries = entries
	return &dataset, nil
}

func (r *DatasetRepository) List(ctx context.Context, limit, offset int) ([]*models.Dataset, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, name, description, prompt_name, created_at
		FROM datasets
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.conn(ctx).Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	defer rows.Close()

	var datasets []*models.Dataset
	for rows.Next() {
		var dataset models.Dataset
		var description, promptName sql.NullString
		if err := rows.Scan(&dataset.ID, &dataset.Name, &description, &promptName, &dataset.CreatedAt); err != nil {
			return nil, err
		}
		dataset.Description = description.String
		dataset.PromptName = promptName.String
		datasets = append(datasets, &dataset)
	}
	return datasets, rows.Err()
}

func (r *DatasetRepository) AddEntries(ctx context.Context, datasetID string, entries []models.DatasetEntry) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO dataset_entries (id, dataset_id, input_data, expected_output, rubric, position, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	for _, entry := range entries {
		inputData, err := marshalJSON(entry.InputData)
		if err != nil {
			return fmt.Errorf("marshal entry input: %w", err)
		}
		_, err = r.conn(ctx).Exec(ctx, query,
			entry.ID,
			datasetID,
			inputData,
			nullString(entry.ExpectedOutput),
			nullString(entry.Rubric),
			entry.Position,
			entry.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert dataset entry: %w", err)
		}
	}
	return nil
}

func (r *DatasetRepository) GetEntries(ctx context.Context, datasetID string) ([]models.DatasetEntry, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, dataset_id, input_data, expected_output, rubric, position, created_at
		FROM dataset_entries
		WHERE dataset_id = $1
		ORDER BY position ASC`

	rows, err := r.conn(ctx).Query(ctx, query, datasetID)
	if err != nil {
		return nil, fmt.Errorf("get dataset entries: %w", err)
	}
	defer rows.Close()

	var entries []models.DatasetEntry
	for rows.Next() {
		var entry models.DatasetEntry
		var inputData []byte
		var expected, rubric sql.NullString
		if err := rows.Scan(&entry.ID, &entry.DatasetID, &inputData, &expected, &rubric, &entry.Position, &entry.CreatedAt); err != nil {
			return nil, err
		}
		if err := unmarshalJSONField(inputData, &entry.InputData); err != nil {
			return nil, fmt.Errorf("unmarshal entry input: %w", err)
		}
		entry.ExpectedOutput = expected.String
		entry.Rubric = rubric.String
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
