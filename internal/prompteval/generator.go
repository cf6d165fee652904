package prompteval

import (
	"context"
	"log/slog"
	"strings"

	"github.com/promptforge/promptforge/internal/domain/models"
	"github.com/promptforge/promptforge/internal/ports"
)

// fallbackEdits are deterministic template refinements used when candidate
// synthesis fails entirely; they keep the improvement pipeline alive with at
// least something to evaluate.
var fallbackEdits = []string{
	"Be precise and double-check your answer before responding.",
	"Respond concisely. Include only what was asked for.",
	"Follow the requested output format exactly, with no extra commentary.",
}

// Generator turns failure signals into draft candidate versions parented on
// the baseline.
type Generator struct {
	synthesizer ports.CandidateSynthesizer
	ids         ports.IDGenerator
	logger      *slog.Logger
}

func NewGenerator(synthesizer ports.CandidateSynthesizer, ids ports.IDGenerator, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{synthesizer: synthesizer, ids: ids, logger: logger}
}

// Generate produces at most maxCandidates draft versions. Synthesis failure
// falls back to deterministic edits; individual unusable candidates are
// skipped, so the returned count may be lower than requested. Only
// cancellation is returned as an error.
func (g *Generator) Generate(ctx context.Context, baseline *models.PromptVersion, signals []FailureSignal, maxCandidates int) ([]*models.PromptVersion, error) {
	if maxCandidates <= 0 {
		return nil, nil
	}

	texts, err := g.synthesizer.Synthesize(ctx, baseline.TemplateText, Summarize(signals), maxCandidates)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		g.logger.WarnContext(ctx, "candidate synthesis failed, using fallback edits",
			"prompt", baseline.Name, "error", err)
		texts = fallbackTexts(baseline.TemplateText, maxCandidates)
	}

	candidates := make([]*models.PromptVersion, 0, maxCandidates)
	seen := map[string]bool{strings.TrimSpace(baseline.TemplateText): true}
	for _, text := range texts {
		if len(candidates) == maxCandidates {
			break
		}
		trimmed := strings.TrimSpace(text)
		if trimmed == "" || seen[trimmed] {
			continue
		}
		seen[trimmed] = true

		version, err := models.NewPromptVersion(
			g.ids.GeneratePromptVersionID(),
			baseline.Name,
			models.BumpVersion(baseline.Version, len(candidates)+1),
			trimmed,
		)
		if err != nil {
			g.logger.WarnContext(ctx, "skipping unusable candidate", "error", err)
			continue
		}
		version.InputSchema = baseline.InputSchema
		version.OutputSchema = baseline.OutputSchema
		version.ParentVersionID = baseline.ID
		version.Metadata["generated_from"] = baseline.Version
		version.Metadata["candidate_index"] = len(candidates)
		candidates = append(candidates, version)
	}
	return candidates, nil
}

func fallbackTexts(baseline string, max int) []string {
	texts := make([]string, 0, len(fallbackEdits))
	for _, edit := range fallbackEdits {
		if len(texts) == max {
			break
		}
		texts = append(texts, strings.TrimRight(baseline, "\n")+"\n\n"+edit)
	}
	return texts
}
