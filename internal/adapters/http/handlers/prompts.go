package handlers

import (
	"net/http"

	"github.com/promptforge/promptforge/internal/adapters/http/dto"
	"github.com/promptforge/promptforge/internal/application/usecases"
	"github.com/promptforge/promptforge/internal/ports"
)

type PromptsHandler struct {
	managePrompts *usecases.ManagePrompts
	diffVersions  *usecases.DiffVersions
	runPrompt     *usecases.RunPrompt
}

func NewPromptsHandler(managePrompts *usecases.ManagePrompts, diffVersions *usecases.DiffVersions, runPrompt *usecases.RunPrompt) *PromptsHandler {
	return &PromptsHandler{
		managePrompts: managePrompts,
		diffVersions:  diffVersions,
		runPrompt:     runPrompt,
	}
}

func (h *PromptsHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[dto.CreatePromptVersionRequest](r, w)
	if !ok {
		return
	}

	version, err := h.managePrompts.CreateVersion(r.Context(), &ports.CreatePromptVersionInput{
		Name:            req.Name,
		Version:         req.Version,
		TemplateText:    req.TemplateText,
		InputSchema:     req.InputSchema,
		OutputSchema:    req.OutputSchema,
		Metadata:        req.Metadata,
		ParentVersionID: req.ParentVersionID,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, version, http.StatusCreated)
}

func (h *PromptsHandler) ListNames(w http.ResponseWriter, r *http.Request) {
	names, err := h.managePrompts.ListNames(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, map[string]any{"prompts": names}, http.StatusOK)
}

func (h *PromptsHandler) ListVersions(w http.ResponseWriter, r *http.Request) {
	name, ok := validateURLParam(r, w, "name", "prompt name")
	if !ok {
		return
	}
	versions, err := h.managePrompts.ListVersions(r.Context(), name)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, map[string]any{"versions": versions}, http.StatusOK)
}

// Get returns one version, or the active version when the version URL
// parameter is "active".
func (h *PromptsHandler) Get(w http.ResponseWriter, r *http.Request) {
	name, ok := validateURLParam(r, w, "name", "prompt name")
	if !ok {
		return
	}
	version, ok := validateURLParam(r, w, "version", "version")
	if !ok {
		return
	}
	if version == "active" {
		version = ""
	}

	pv, err := h.managePrompts.Get(r.Context(), name, version)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, pv, http.StatusOK)
}

func (h *PromptsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	name, ok := validateURLParam(r, w, "name", "prompt name")
	if !ok {
		return
	}

	if err := h.managePrompts.Delete(r.Context(), name); err != nil {
		respondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PromptsHandler) Activate(w http.ResponseWriter, r *http.Request) {
	name, ok := validateURLParam(r, w, "name", "prompt name")
	if !ok {
		return
	}
	version, ok := validateURLParam(r, w, "version", "version")
	if !ok {
		return
	}

	pv, err := h.managePrompts.Activate(r.Context(), name, version)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, pv, http.StatusOK)
}

func (h *PromptsHandler) Diff(w http.ResponseWriter, r *http.Request) {
	name, ok := validateURLParam(r, w, "name", "prompt name")
	if !ok {
		return
	}
	versionA := r.URL.Query().Get("from")
	versionB := r.URL.Query().Get("to")
	if versionA == "" || versionB == "" {
		respondError(w, "invalid_request", "from and to query parameters are required", http.StatusBadRequest)
		return
	}

	diff, err := h.diffVersions.Execute(r.Context(), name, versionA, versionB)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, diff, http.StatusOK)
}

// DiffByID diffs any two versions addressed by ID, including versions of
// different prompts.
func (h *PromptsHandler) DiffByID(w http.ResponseWriter, r *http.Request) {
	idA, ok := validateURLParam(r, w, "version_a_id", "version id")
	if !ok {
		return
	}
	idB, ok := validateURLParam(r, w, "version_b_id", "version id")
	if !ok {
		return
	}

	diff, err := h.diffVersions.ExecuteByID(r.Context(), idA, idB)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, diff, http.StatusOK)
}

func (h *PromptsHandler) Changelog(w http.ResponseWriter, r *http.Request) {
	name, ok := validateURLParam(r, w, "name", "prompt name")
	if !ok {
		return
	}
	versionA := r.URL.Query().Get("from")
	versionB := r.URL.Query().Get("to")
	if versionA == "" || versionB == "" {
		respondError(w, "invalid_request", "from and to query parameters are required", http.StatusBadRequest)
		return
	}

	changelog, err := h.diffVersions.Changelog(r.Context(), name, versionA, versionB)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, map[string]string{"changelog": changelog}, http.StatusOK)
}

func (h *PromptsHandler) Run(w http.ResponseWriter, r *http.Request) {
	name, ok := validateURLParam(r, w, "name", "prompt name")
	if !ok {
		return
	}
	req, ok := decodeJSON[dto.RunRequest](r, w)
	if !ok {
		return
	}

	out, err := h.runPrompt.Execute(r.Context(), &ports.RunPromptInput{
		PromptName: name,
		Version:    req.Version,
		InputData:  req.InputData,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, out, http.StatusOK)
}
