package usecases

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/promptforge/promptforge/internal/domain"
	"github.com/promptforge/promptforge/internal/domain/models"
	"github.com/promptforge/promptforge/internal/ports"
)

// ============================================================================
// Common mock implementations shared across tests
// ============================================================================

type mockVersionRepo struct {
	mu           sync.RWMutex
	store        map[string]*models.PromptVersion
	activateFunc func(ctx context.Context, name, versionID, expectedActiveID string) error
}

func newMockVersionRepo() *mockVersionRepo {
	return &mockVersionRepo{store: make(map[string]*models.PromptVersion)}
}

func (m *mockVersionRepo) copyVersion(v *models.PromptVersion) *models.PromptVersion {
	if v == nil {
		return nil
	}
	dup := *v
	return &dup
}

func (m *mockVersionRepo) Create(ctx context.Context, version *models.PromptVersion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.store {
		if existing.Name == version.Name && existing.Version == version.Version {
			return domain.ErrVersionExists
		}
	}
	m.store[version.ID] = m.copyVersion(version)
	return nil
}

func (m *mockVersionRepo) GetByID(ctx context.Context, id string) (*models.PromptVersion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.store[id]; ok {
		return m.copyVersion(v), nil
	}
	return nil, domain.ErrVersionNotFound
}

func (m *mockVersionRepo) GetByNameAndVersion(ctx context.Context, name, version string) (*models.PromptVersion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, v := range m.store {
		if v.Name == name && v.Version == version {
			return m.copyVersion(v), nil
		}
	}
	return nil, domain.ErrVersionNotFound
}

func (m *mockVersionRepo) GetActive(ctx context.Context, name string) (*models.PromptVersion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, v := range m.store {
		if v.Name == name && v.Status == models.VersionStatusActive {
			return m.copyVersion(v), nil
		}
	}
	return nil, domain.ErrNoActiveVersion
}

func (m *mockVersionRepo) ListByName(ctx context.Context, name string) ([]*models.PromptVersion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*models.PromptVersion
	for _, v := range m.store {
		if v.Name == name {
			out = append(out, m.copyVersion(v))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *mockVersionRepo) ListNames(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[string]bool)
	var names []string
	for _, v := range m.store {
		if !seen[v.Name] {
			seen[v.Name] = true
			names = append(names, v.Name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (m *mockVersionRepo) UpdateStatus(ctx context.Context, id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.store[id]
	if !ok {
		return domain.ErrVersionNotFound
	}
	v.Status = status
	return nil
}

func (m *mockVersionRepo) Activate(ctx context.Context, name, versionID, expectedActiveID string) error {
	if m.activateFunc != nil {
		return m.activateFunc(ctx, name, versionID, expectedActiveID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	currentActiveID := ""
	for _, v := range m.store {
		if v.Name == name && v.Status == models.VersionStatusActive {
			currentActiveID = v.ID
		}
	}
	if currentActiveID != expectedActiveID {
		return domain.ErrPromotionConflict
	}
	target, ok := m.store[versionID]
	if !ok || target.Name != name {
		return domain.ErrVersionNotFound
	}
	if currentActiveID != "" {
		m.store[currentActiveID].Status = models.VersionStatusArchived
	}
	target.Status = models.VersionStatusActive
	return nil
}

func (m *mockVersionRepo) DeleteByName(ctx context.Context, name string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, v := range m.store {
		if v.Name == name {
			delete(m.store, id)
			removed++
		}
	}
	return removed, nil
}

type mockDatasetRepo struct {
	mu      sync.RWMutex
	store   map[string]*models.Dataset
	entries map[string][]models.DatasetEntry
}

func newMockDatasetRepo() *mockDatasetRepo {
	return &mockDatasetRepo{
		store:   make(map[string]*models.Dataset),
		entries: make(map[string][]models.DatasetEntry),
	}
}

func (m *mockDatasetRepo) Create(ctx context.Context, dataset *models.Dataset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	dup := *dataset
	m.store[dataset.ID] = &dup
	m.entries[dataset.ID] = append([]models.DatasetEntry(nil), dataset.Entries...)
	return nil
}

func (m *mockDatasetRepo) GetByID(ctx context.Context, id string) (*models.Dataset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ds, ok := m.store[id]
	if !ok {
		return nil, domain.ErrDatasetNotFound
	}
	dup := *ds
	dup.Entries = append([]models.DatasetEntry(nil), m.entries[id]...)
	return &dup, nil
}

func (m *mockDatasetRepo) List(ctx context.Context, limit, offset int) ([]*models.Dataset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*models.Dataset
	for _, ds := range m.store {
		dup := *ds
		out = append(out, &dup)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockDatasetRepo) AddEntries(ctx context.Context, datasetID string, entries []models.DatasetEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[datasetID]; !ok {
		return domain.ErrDatasetNotFound
	}
	m.entries[datasetID] = append(m.entries[datasetID], entries...)
	return nil
}

func (m *mockDatasetRepo) GetEntries(ctx context.Context, datasetID string) ([]models.DatasetEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.store[datasetID]; !ok {
		return nil, domain.ErrDatasetNotFound
	}
	return append([]models.DatasetEntry(nil), m.entries[datasetID]...), nil
}

type mockEvaluationRepo struct {
	mu    sync.RWMutex
	store map[string]*models.EvaluationRun
	order []string
}

func newMockEvaluationRepo() *mockEvaluationRepo {
	return &mockEvaluationRepo{store: make(map[string]*models.EvaluationRun)}
}

func (m *mockEvaluationRepo) Create(ctx context.Context, run *models.EvaluationRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	dup := *run
	m.store[run.ID] = &dup
	m.order = append(m.order, run.ID)
	return nil
}

func (m *mockEvaluationRepo) GetByID(ctx context.Context, id string) (*models.EvaluationRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.store[id]
	if !ok {
		return nil, domain.ErrEvaluationNotFound
	}
	dup := *run
	return &dup, nil
}

func (m *mockEvaluationRepo) ListByPromptName(ctx context.Context, name string, limit, offset int) ([]*models.EvaluationRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*models.EvaluationRun
	for _, id := range m.order {
		run := m.store[id]
		if run.PromptName == name {
			dup := *run
			out = append(out, &dup)
		}
	}
	return out, nil
}

type mockImprovementRepo struct {
	mu      sync.RWMutex
	store   map[string]*models.ImprovementRun
	order   []string
	updates []string
}

func newMockImprovementRepo() *mockImprovementRepo {
	return &mockImprovementRepo{store: make(map[string]*models.ImprovementRun)}
}

func (m *mockImprovementRepo) Create(ctx context.Context, run *models.ImprovementRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	dup := *run
	m.store[run.ID] = &dup
	m.order = append(m.order, run.ID)
	return nil
}

func (m *mockImprovementRepo) Update(ctx context.Context, run *models.ImprovementRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[run.ID]; !ok {
		return domain.ErrImprovementNotFound
	}
	dup := *run
	m.store[run.ID] = &dup
	m.updates = append(m.updates, run.Status)
	return nil
}

func (m *mockImprovementRepo) GetByID(ctx context.Context, id string) (*models.ImprovementRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.store[id]
	if !ok {
		return nil, domain.ErrImprovementNotFound
	}
	dup := *run
	return &dup, nil
}

func (m *mockImprovementRepo) ListByPromptName(ctx context.Context, name string, limit, offset int) ([]*models.ImprovementRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*models.ImprovementRun
	for _, id := range m.order {
		run := m.store[id]
		if run.PromptName == name {
			dup := *run
			out = append(out, &dup)
		}
	}
	return out, nil
}

// statuses returns the sequence of statuses recorded by Update calls.
func (m *mockImprovementRepo) statuses() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.updates...)
}

type mockTxManager struct{}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type mockIDGenerator struct {
	mu      sync.Mutex
	counter int
}

func (m *mockIDGenerator) next(prefix string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("%s_%04d", prefix, m.counter)
}

func (m *mockIDGenerator) GeneratePromptVersionID() string { return m.next("pv") }
func (m *mockIDGenerator) GenerateDatasetID() string       { return m.next("ds") }
func (m *mockIDGenerator) GenerateEntryID() string         { return m.next("de") }
func (m *mockIDGenerator) GenerateEvaluationID() string    { return m.next("ev") }
func (m *mockIDGenerator) GenerateResultID() string        { return m.next("er") }
func (m *mockIDGenerator) GenerateImprovementID() string   { return m.next("imp") }

type mockExecutor struct {
	mu          sync.Mutex
	executeFunc func(ctx context.Context, template string, input map[string]any, schema map[string]any) (string, error)
	calls       int
}

func (m *mockExecutor) Execute(ctx context.Context, template string, input map[string]any, schema map[string]any) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.executeFunc != nil {
		return m.executeFunc(ctx, template, input, schema)
	}
	return `{"answer": "ok"}`, nil
}

type mockJudgeBackend struct {
	scoreFunc func(ctx context.Context, req ports.JudgeRequest) (*ports.JudgeScores, error)
}

func (m *mockJudgeBackend) Score(ctx context.Context, req ports.JudgeRequest) (*ports.JudgeScores, error) {
	if m.scoreFunc != nil {
		return m.scoreFunc(ctx, req)
	}
	scores := make(map[string]float64, len(req.Dimensions))
	for _, dim := range req.Dimensions {
		scores[dim] = 0.9
	}
	return &ports.JudgeScores{Dimensions: scores, Overall: 0.9, Feedback: "solid"}, nil
}

type mockSynthesizer struct {
	synthesizeFunc func(ctx context.Context, baseline, failures string, max int) ([]string, error)
}

func (m *mockSynthesizer) Synthesize(ctx context.Context, baseline, failures string, max int) ([]string, error) {
	if m.synthesizeFunc != nil {
		return m.synthesizeFunc(ctx, baseline, failures, max)
	}
	out := make([]string, 0, max)
	for i := 0; i < max; i++ {
		out = append(out, fmt.Sprintf("%s\n\nRevision %d: be precise and answer in JSON.", baseline, i+1))
	}
	return out, nil
}
