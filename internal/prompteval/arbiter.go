package prompteval

import (
	"fmt"
	"strings"

	"github.com/promptforge/promptforge/internal/domain/models"
)

// PromotionPolicy holds the explicit thresholds behind every promotion
// decision. There are no implicit boundaries: PENDING is entered only inside
// the configured band, and a band of 0 disables it.
type PromotionPolicy struct {
	// ImprovementThreshold is the minimum overall-score delta a candidate
	// must show over baseline to be promoted.
	ImprovementThreshold float64
	// MinFormatPassRate rejects a candidate whose format pass rate falls
	// below it, regardless of score improvement.
	MinFormatPassRate float64
	// RegressionGuardrail is the maximum tolerated per-dimension decrease
	// versus baseline.
	RegressionGuardrail float64
	// PendingBand widens the threshold downward: a candidate whose delta
	// lands in [ImprovementThreshold-PendingBand, ImprovementThreshold) and
	// passes both guardrails is deferred to manual review instead of
	// rejected.
	PendingBand float64
	// MaxCandidates caps how many candidates a single improvement run
	// generates and evaluates.
	MaxCandidates int
}

// CandidateOutcome pairs a generated candidate with its completed evaluation.
// Slice order is generation order; ties rank the earlier candidate first.
type CandidateOutcome struct {
	Version *models.PromptVersion
	Run     *models.EvaluationRun
}

// Decision is the arbiter's machine-checkable verdict.
type Decision struct {
	Outcome   string
	Reason    string
	Best      *CandidateOutcome
	BestIndex int
	Delta     float64
}

// Decide applies the promotion policy in fixed order: viability, improvement
// threshold, format pass-rate guardrail, per-dimension regression guardrail.
// It is pure; committing a PROMOTED decision (the active-version swap) is the
// caller's responsibility.
func (p PromotionPolicy) Decide(baseline *models.EvaluationRun, candidates []CandidateOutcome) Decision {
	if len(candidates) == 0 {
		return Decision{
			Outcome:   models.DecisionRejected,
			Reason:    "no viable candidate",
			BestIndex: -1,
		}
	}

	bestIndex := 0
	for i := 1; i < len(candidates); i++ {
		if candidates[i].Run.OverallScore > candidates[bestIndex].Run.OverallScore {
			bestIndex = i
		}
	}
	best := &candidates[bestIndex]
	delta := best.Run.OverallScore - baseline.OverallScore

	decision := Decision{
		Best:      best,
		BestIndex: bestIndex,
		Delta:     delta,
	}

	formatOK := best.Run.FormatPassRate >= p.MinFormatPassRate
	regressed := regressedDimensions(baseline, best.Run, p.RegressionGuardrail)

	if delta < p.ImprovementThreshold {
		if p.PendingBand > 0 && delta >= p.ImprovementThreshold-p.PendingBand && formatOK && len(regressed) == 0 {
			decision.Outcome = models.DecisionPending
			decision.Reason = fmt.Sprintf(
				"improvement %.4f is within %.4f of threshold %.4f; manual confirmation required",
				delta, p.PendingBand, p.ImprovementThreshold)
			return decision
		}
		decision.Outcome = models.DecisionRejected
		decision.Reason = fmt.Sprintf(
			"improvement %.4f below threshold %.4f (baseline %.4f, best candidate %.4f)",
			delta, p.ImprovementThreshold, baseline.OverallScore, best.Run.OverallScore)
		return decision
	}

	if !formatOK {
		decision.Outcome = models.DecisionRejected
		decision.Reason = fmt.Sprintf(
			"format pass rate %.4f below minimum %.4f despite improvement %.4f",
			best.Run.FormatPassRate, p.MinFormatPassRate, delta)
		return decision
	}

	if len(regressed) > 0 {
		decision.Outcome = models.DecisionRejected
		decision.Reason = fmt.Sprintf(
			"dimension(s) %s regressed more than guardrail %.4f",
			strings.Join(regressed, ", "), p.RegressionGuardrail)
		return decision
	}

	decision.Outcome = models.DecisionPromoted
	decision.Reason = fmt.Sprintf(
		"candidate %s improved overall score %.4f -> %.4f (delta %.4f >= threshold %.4f); format pass rate %.4f >= %.4f; no dimension regressed more than %.4f",
		best.Version.Version, baseline.OverallScore, best.Run.OverallScore,
		delta, p.ImprovementThreshold,
		best.Run.FormatPassRate, p.MinFormatPassRate, p.RegressionGuardrail)
	return decision
}

// regressedDimensions compares aggregates over dimensions that actually
// contributed to both runs.
func regressedDimensions(baseline, candidate *models.EvaluationRun, guardrail float64) []string {
	candidateDims := make(map[string]bool, len(candidate.ContributingDimensions))
	for _, dim := range candidate.ContributingDimensions {
		candidateDims[dim] = true
	}
	var regressed []string
	for _, dim := range baseline.ContributingDimensions {
		if !candidateDims[dim] {
			continue
		}
		if baseline.DimensionScore(dim)-candidate.DimensionScore(dim) > guardrail {
			regressed = append(regressed, dim)
		}
	}
	return regressed
}
