package usecases

import (
	"context"

	"github.com/promptforge/promptforge/internal/domain"
	"github.com/promptforge/promptforge/internal/ports"
	"github.com/promptforge/promptforge/internal/prompteval"
)

// RunPrompt executes a single ad-hoc input against a prompt version and
// reports the output together with its format check. Nothing is persisted;
// this is the quick manual smoke test before committing to a full
// evaluation.
type RunPrompt struct {
	versionRepo ports.PromptVersionRepository
	executor    ports.ModelExecutor
}

func NewRunPrompt(versionRepo ports.PromptVersionRepository, executor ports.ModelExecutor) *RunPrompt {
	return &RunPrompt{versionRepo: versionRepo, executor: executor}
}

func (uc *RunPrompt) Execute(ctx context.Context, input *ports.RunPromptInput) (*ports.RunPromptOutput, error) {
	version, err := resolveVersion(ctx, uc.versionRepo, input.PromptName, input.Version)
	if err != nil {
		return nil, err
	}
	if len(input.InputData) == 0 {
		return nil, domain.NewDomainError(domain.ErrInvalidInput, "input_data is required")
	}

	output, err := uc.executor.Execute(ctx, version.TemplateText, input.InputData, version.OutputSchema)
	if err != nil {
		return nil, err
	}

	valid, formatErr := prompteval.ValidateFormat(output, version.OutputSchema, prompteval.ConstraintsFromMetadata(version.Metadata))
	return &ports.RunPromptOutput{
		PromptVersionID: version.ID,
		PromptVersion:   version.Version,
		Output:          output,
		FormatValid:     valid,
		FormatError:     formatErr,
	}, nil
}
