package usecases

import (
	"context"
	"errors"
	"testing"

	"github.com/promptforge/promptforge/internal/domain"
	"github.com/promptforge/promptforge/internal/ports"
)

func newManageDatasetsFixture() *ManageDatasets {
	return NewManageDatasets(newMockDatasetRepo(), &mockIDGenerator{}, nil)
}

func TestCreateDatasetWithEntries(t *testing.T) {
	uc := newManageDatasetsFixture()

	ds, err := uc.Create(context.Background(), &ports.CreateDatasetInput{
		Name:       "smoke",
		PromptName: "qa",
		Entries: []ports.AdHocEntry{
			{InputData: map[string]any{"q": "1"}, ExpectedOutput: "one"},
			{InputData: map[string]any{"q": "2"}, ExpectedOutput: "two"},
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(ds.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(ds.Entries))
	}
	for i, entry := range ds.Entries {
		if entry.Position != i {
			t.Errorf("entry %d position = %d", i, entry.Position)
		}
		if entry.DatasetID != ds.ID {
			t.Errorf("entry %d dataset = %s, want %s", i, entry.DatasetID, ds.ID)
		}
	}

	got, err := uc.Get(context.Background(), ds.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Entries) != 2 {
		t.Errorf("round-trip lost entries: %d", len(got.Entries))
	}
}

func TestCreateDatasetValidation(t *testing.T) {
	uc := newManageDatasetsFixture()

	if _, err := uc.Create(context.Background(), &ports.CreateDatasetInput{}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("missing name: expected ErrInvalidInput, got %v", err)
	}
	_, err := uc.Create(context.Background(), &ports.CreateDatasetInput{
		Name:    "bad",
		Entries: []ports.AdHocEntry{{ExpectedOutput: "no input"}},
	})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("entry without input_data: expected ErrInvalidInput, got %v", err)
	}
}

func TestAddEntriesContinuesPositions(t *testing.T) {
	uc := newManageDatasetsFixture()

	ds, err := uc.Create(context.Background(), &ports.CreateDatasetInput{
		Name:    "smoke",
		Entries: []ports.AdHocEntry{{InputData: map[string]any{"q": "1"}}},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	added, err := uc.AddEntries(context.Background(), ds.ID, []ports.AdHocEntry{
		{InputData: map[string]any{"q": "2"}},
		{InputData: map[string]any{"q": "3"}},
	})
	if err != nil {
		t.Fatalf("AddEntries: %v", err)
	}
	if added[0].Position != 1 || added[1].Position != 2 {
		t.Errorf("positions = %d, %d; want 1, 2", added[0].Position, added[1].Position)
	}
}

func TestAddEntriesUnknownDataset(t *testing.T) {
	uc := newManageDatasetsFixture()

	_, err := uc.AddEntries(context.Background(), "ds_missing", []ports.AdHocEntry{
		{InputData: map[string]any{"q": "1"}},
	})
	if !errors.Is(err, domain.ErrDatasetNotFound) {
		t.Errorf("expected ErrDatasetNotFound, got %v", err)
	}
}
