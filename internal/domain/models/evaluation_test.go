package models

import "testing"

func TestEvaluationResult_Score(t *testing.T) {
	result := EvaluationResult{
		DimensionScores: map[string]float64{DimensionCorrectness: 0.0, DimensionFormat: 0.9},
	}

	// A present zero is a real score, distinct from an absent dimension.
	if score, ok := result.Score(DimensionCorrectness); !ok || score != 0.0 {
		t.Errorf("correctness = %v, %v", score, ok)
	}
	if _, ok := result.Score(DimensionSafety); ok {
		t.Error("absent dimension should report not-scored")
	}
}

func TestNewEvaluationRun(t *testing.T) {
	version, _ := NewPromptVersion("pv_1", "qa", "1.0.0", "template")
	run := NewEvaluationRun("eval_1", version, "ds_1")

	if run.PromptName != "qa" || run.PromptVersion != "1.0.0" || run.PromptVersionID != "pv_1" {
		t.Errorf("run identity = %s %s %s", run.PromptName, run.PromptVersion, run.PromptVersionID)
	}
	if run.DatasetID != "ds_1" {
		t.Errorf("dataset = %q", run.DatasetID)
	}
	if run.CompletedAt != nil {
		t.Error("new run should not be completed")
	}

	run.Complete()
	if run.CompletedAt == nil {
		t.Error("Complete should set the timestamp")
	}
}
