package prompteval

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/promptforge/promptforge/internal/domain/models"
)

type stubSynthesizer struct {
	texts []string
	err   error
	calls int
}

func (s *stubSynthesizer) Synthesize(ctx context.Context, baselineTemplate, failureSummary string, maxCandidates int) ([]string, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if s.texts != nil {
		return s.texts, nil
	}
	texts := make([]string, maxCandidates)
	for i := range texts {
		texts[i] = fmt.Sprintf("%s\n\nRevision %d: be more careful.", baselineTemplate, i+1)
	}
	return texts, nil
}

func generatorBaseline(t *testing.T) *models.PromptVersion {
	t.Helper()
	baseline, err := models.NewPromptVersion("pv_base", "qa", "1.0.0", "Answer the question: {{question}}")
	if err != nil {
		t.Fatal(err)
	}
	baseline.OutputSchema = map[string]any{"type": "object"}
	return baseline
}

func TestGeneratorProducesCandidates(t *testing.T) {
	gen := NewGenerator(&stubSynthesizer{}, &seqIDs{}, nil)
	baseline := generatorBaseline(t)

	candidates, err := gen.Generate(context.Background(), baseline, nil, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(candidates) != 3 {
		t.Fatalf("candidates = %d", len(candidates))
	}
	wantVersions := []string{"1.1.0", "1.2.0", "1.3.0"}
	for i, c := range candidates {
		if c.Name != "qa" {
			t.Errorf("name = %q", c.Name)
		}
		if c.Version != wantVersions[i] {
			t.Errorf("version[%d] = %q, want %q", i, c.Version, wantVersions[i])
		}
		if c.ParentVersionID != baseline.ID {
			t.Errorf("parent = %q", c.ParentVersionID)
		}
		if c.OutputSchema == nil {
			t.Error("output schema must be inherited")
		}
		if c.Metadata["generated_from"] != "1.0.0" {
			t.Errorf("generated_from = %v", c.Metadata["generated_from"])
		}
		if c.Metadata["candidate_index"] != i {
			t.Errorf("candidate_index = %v", c.Metadata["candidate_index"])
		}
		if c.Status != models.VersionStatusDraft {
			t.Errorf("status = %q", c.Status)
		}
	}
}

func TestGeneratorFallsBackWhenSynthesisFails(t *testing.T) {
	gen := NewGenerator(&stubSynthesizer{err: errors.New("generation backend down")}, &seqIDs{}, nil)

	candidates, err := gen.Generate(context.Background(), generatorBaseline(t), nil, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(candidates) != 2 {
		t.Fatalf("candidates = %d, want fallback edits", len(candidates))
	}
	for _, c := range candidates {
		if !strings.HasPrefix(c.TemplateText, "Answer the question: {{question}}") {
			t.Errorf("fallback must extend the baseline: %q", c.TemplateText)
		}
		if c.TemplateText == "Answer the question: {{question}}" {
			t.Error("fallback must actually change the template")
		}
	}
}

func TestGeneratorReturnsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	gen := NewGenerator(&stubSynthesizer{err: errors.New("interrupted")}, &seqIDs{}, nil)

	if _, err := gen.Generate(ctx, generatorBaseline(t), nil, 2); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestGeneratorDeduplicates(t *testing.T) {
	baseline := generatorBaseline(t)
	synth := &stubSynthesizer{texts: []string{
		baseline.TemplateText,          // identical to baseline
		"  ",                           // blank
		"A fresh template.",            //
		"A fresh template.",            // duplicate of the previous
		"A fresh template.\nExtended.", //
	}}
	gen := NewGenerator(synth, &seqIDs{}, nil)

	candidates, err := gen.Generate(context.Background(), baseline, nil, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(candidates) != 2 {
		t.Fatalf("candidates = %d, want 2 after dedup", len(candidates))
	}
	if candidates[0].TemplateText != "A fresh template." {
		t.Errorf("template = %q", candidates[0].TemplateText)
	}
}

func TestGeneratorCapsAtMaxCandidates(t *testing.T) {
	synth := &stubSynthesizer{texts: []string{"one", "two", "three", "four"}}
	gen := NewGenerator(synth, &seqIDs{}, nil)

	candidates, err := gen.Generate(context.Background(), generatorBaseline(t), nil, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(candidates) != 2 {
		t.Errorf("candidates = %d", len(candidates))
	}
}

func TestGeneratorZeroMax(t *testing.T) {
	synth := &stubSynthesizer{}
	gen := NewGenerator(synth, &seqIDs{}, nil)

	candidates, err := gen.Generate(context.Background(), generatorBaseline(t), nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	if candidates != nil {
		t.Errorf("candidates = %v", candidates)
	}
	if synth.calls != 0 {
		t.Error("synthesizer must not be called for zero candidates")
	}
}
