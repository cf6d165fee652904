package prompteval

import (
	"context"
	"fmt"

	"github.com/promptforge/promptforge/internal/domain"
	"github.com/promptforge/promptforge/internal/ports"
)

// Judge wraps a JudgeBackend with result caching, dimension filtering and a
// single bounded retry. Blinding is structural: a JudgeRequest has no field
// that could carry prompt or candidate identity, so nothing here (or in any
// backend) can condition scores on where an output came from.
type Judge struct {
	backend ports.JudgeBackend
	cache   *JudgeCache
}

// NewJudge builds a Judge. cache may be nil to disable memoization.
func NewJudge(backend ports.JudgeBackend, cache *JudgeCache) *Judge {
	return &Judge{backend: backend, cache: cache}
}

// Score returns per-dimension scores restricted to req.Dimensions, each
// clamped to [0,1]. A backend failure after one retry is reported as
// domain.ErrJudgeUnavailable; callers fail the single entry, never the run.
func (j *Judge) Score(ctx context.Context, req ports.JudgeRequest) (*ports.JudgeScores, error) {
	if len(req.Dimensions) == 0 {
		return nil, domain.ErrNoDimensions
	}

	if j.cache != nil {
		if scores, ok := j.cache.Get(req); ok {
			return scores, nil
		}
	}

	scores, err := j.backend.Score(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		scores, err = j.backend.Score(ctx, req)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrJudgeUnavailable, err)
	}

	filtered := make(map[string]float64, len(req.Dimensions))
	for _, dim := range req.Dimensions {
		if score, ok := scores.Dimensions[dim]; ok {
			filtered[dim] = clampScore(score)
		}
	}
	result := &ports.JudgeScores{
		Dimensions: filtered,
		Overall:    clampScore(scores.Overall),
		Feedback:   scores.Feedback,
	}

	if j.cache != nil {
		j.cache.Put(req, result)
	}
	return result, nil
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
