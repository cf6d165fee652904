package handlers

import (
	"net/http"

	"github.com/promptforge/promptforge/internal/adapters/http/dto"
	"github.com/promptforge/promptforge/internal/application/usecases"
	"github.com/promptforge/promptforge/internal/ports"
)

type ImprovementsHandler struct {
	improvePrompt *usecases.ImprovePrompt
}

func NewImprovementsHandler(improvePrompt *usecases.ImprovePrompt) *ImprovementsHandler {
	return &ImprovementsHandler{improvePrompt: improvePrompt}
}

// Create runs the full improvement pipeline synchronously. Long datasets
// make this a long request; clients polling instead should read the run via
// Get while it progresses.
func (h *ImprovementsHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[dto.ImproveRequest](r, w)
	if !ok {
		return
	}

	run, err := h.improvePrompt.Execute(r.Context(), &ports.ImprovePromptInput{
		PromptName:           req.PromptName,
		BaselineVersion:      req.BaselineVersion,
		DatasetID:            req.DatasetID,
		ImprovementThreshold: req.ImprovementThreshold,
		MaxCandidates:        req.MaxCandidates,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, run, http.StatusCreated)
}

func (h *ImprovementsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := validateURLParam(r, w, "id", "improvement id")
	if !ok {
		return
	}
	run, err := h.improvePrompt.Get(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, run, http.StatusOK)
}

func (h *ImprovementsHandler) ListByPrompt(w http.ResponseWriter, r *http.Request) {
	name, ok := validateURLParam(r, w, "name", "prompt name")
	if !ok {
		return
	}
	limit := parseIntQuery(r, "limit", 50)
	offset := parseIntQuery(r, "offset", 0)

	runs, err := h.improvePrompt.ListByPromptName(r.Context(), name, limit, offset)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, map[string]any{"improvements": runs}, http.StatusOK)
}
