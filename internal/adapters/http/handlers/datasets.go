package handlers

import (
	"net/http"

	"github.com/promptforge/promptforge/internal/adapters/http/dto"
	"github.com/promptforge/promptforge/internal/application/usecases"
	"github.com/promptforge/promptforge/internal/ports"
)

type DatasetsHandler struct {
	manageDatasets *usecases.ManageDatasets
}

func NewDatasetsHandler(manageDatasets *usecases.ManageDatasets) *DatasetsHandler {
	return &DatasetsHandler{manageDatasets: manageDatasets}
}

func (h *DatasetsHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[dto.CreateDatasetRequest](r, w)
	if !ok {
		return
	}

	dataset, err := h.manageDatasets.Create(r.Context(), &ports.CreateDatasetInput{
		Name:        req.Name,
		Description: req.Description,
		PromptName:  req.PromptName,
		Entries:     toAdHocEntries(req.Entries),
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, dataset, http.StatusCreated)
}

func (h *DatasetsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 50)
	offset := parseIntQuery(r, "offset", 0)

	datasets, err := h.manageDatasets.List(r.Context(), limit, offset)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, map[string]any{"datasets": datasets}, http.StatusOK)
}

func (h *DatasetsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := validateURLParam(r, w, "id", "dataset id")
	if !ok {
		return
	}
	dataset, err := h.manageDatasets.Get(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, dataset, http.StatusOK)
}

func (h *DatasetsHandler) AddEntries(w http.ResponseWriter, r *http.Request) {
	id, ok := validateURLParam(r, w, "id", "dataset id")
	if !ok {
		return
	}
	req, ok := decodeJSON[dto.AddEntriesRequest](r, w)
	if !ok {
		return
	}

	entries, err := h.manageDatasets.AddEntries(r.Context(), id, toAdHocEntries(req.Entries))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, map[string]any{"entries": entries}, http.StatusCreated)
}
