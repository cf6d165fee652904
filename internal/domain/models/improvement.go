package models

import "time"

// ImprovementRun pipeline states
const (
	ImprovementStateEvaluatingBaseline   = "evaluating_baseline"
	ImprovementStateGeneratingCandidates = "generating_candidates"
	ImprovementStateEvaluatingCandidates = "evaluating_candidates"
	ImprovementStateDeciding             = "deciding"
	ImprovementStateDone                 = "done"
	ImprovementStateFailed               = "failed"
)

// Promotion decisions
const (
	DecisionPromoted = "promoted"
	DecisionRejected = "rejected"
	DecisionPending  = "pending"
)

// ImprovementRun records one pass of the improvement pipeline: baseline
// evaluation, candidate generation, candidate evaluation, and the promotion
// decision. Terminal records are immutable.
type ImprovementRun struct {
	ID                   string     `json:"id"`
	PromptName           string     `json:"prompt_name"`
	BaselinePromptID     string     `json:"baseline_prompt_id"`
	BaselineVersion      string     `json:"baseline_version"`
	BaselineScore        float64    `json:"baseline_score"`
	BaselineRunID        string     `json:"baseline_run_id,omitempty"`
	CandidatesGenerated  int        `json:"candidates_generated"`
	CandidatesEvaluated  int        `json:"candidates_evaluated"`
	BestCandidateID      string     `json:"best_candidate_id,omitempty"`
	BestCandidateVersion string     `json:"best_candidate_version,omitempty"`
	BestCandidateScore   *float64   `json:"best_candidate_score,omitempty"`
	ImprovementDelta     *float64   `json:"improvement_delta,omitempty"`
	PromotionDecision    string     `json:"promotion_decision,omitempty"`
	PromotionReason      string     `json:"promotion_reason,omitempty"`
	Status               string     `json:"status"`
	CreatedAt            time.Time  `json:"created_at"`
	CompletedAt          *time.Time `json:"completed_at,omitempty"`
}

func NewImprovementRun(id, promptName string, baseline *PromptVersion) *ImprovementRun {
	return &ImprovementRun{
		ID:               id,
		PromptName:       promptName,
		BaselinePromptID: baseline.ID,
		BaselineVersion:  baseline.Version,
		Status:           ImprovementStateEvaluatingBaseline,
		CreatedAt:        time.Now().UTC(),
	}
}

// RecordBest stores the winning candidate and the delta against baseline.
func (r *ImprovementRun) RecordBest(candidate *PromptVersion, score float64) {
	delta := score - r.BaselineScore
	r.BestCandidateID = candidate.ID
	r.BestCandidateVersion = candidate.Version
	r.BestCandidateScore = &score
	r.ImprovementDelta = &delta
}

// Decide sets the terminal decision and completes the run.
func (r *ImprovementRun) Decide(decision, reason string) {
	now := time.Now().UTC()
	r.PromotionDecision = decision
	r.PromotionReason = reason
	r.Status = ImprovementStateDone
	r.CompletedAt = &now
}

func (r *ImprovementRun) MarkFailed(reason string) {
	now := time.Now().UTC()
	r.Status = ImprovementStateFailed
	r.PromotionReason = reason
	r.CompletedAt = &now
}
