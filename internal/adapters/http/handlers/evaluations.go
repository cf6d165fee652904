package handlers

import (
	"net/http"

	"github.com/promptforge/promptforge/internal/adapters/http/dto"
	"github.com/promptforge/promptforge/internal/application/usecases"
	"github.com/promptforge/promptforge/internal/ports"
)

type EvaluationsHandler struct {
	evaluatePrompt *usecases.EvaluatePrompt
}

func NewEvaluationsHandler(evaluatePrompt *usecases.EvaluatePrompt) *EvaluationsHandler {
	return &EvaluationsHandler{evaluatePrompt: evaluatePrompt}
}

func (h *EvaluationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[dto.EvaluateRequest](r, w)
	if !ok {
		return
	}

	run, err := h.evaluatePrompt.Execute(r.Context(), &ports.EvaluatePromptInput{
		PromptName: req.PromptName,
		Version:    req.Version,
		DatasetID:  req.DatasetID,
		Entries:    toAdHocEntries(req.Entries),
		Dimensions: req.Dimensions,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, run, http.StatusCreated)
}

func (h *EvaluationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := validateURLParam(r, w, "id", "evaluation id")
	if !ok {
		return
	}
	run, err := h.evaluatePrompt.Get(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, run, http.StatusOK)
}

func (h *EvaluationsHandler) ListByPrompt(w http.ResponseWriter, r *http.Request) {
	name, ok := validateURLParam(r, w, "name", "prompt name")
	if !ok {
		return
	}
	limit := parseIntQuery(r, "limit", 50)
	offset := parseIntQuery(r, "offset", 0)

	runs, err := h.evaluatePrompt.ListByPromptName(r.Context(), name, limit, offset)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, map[string]any{"evaluations": runs}, http.StatusOK)
}
