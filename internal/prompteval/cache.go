package prompteval

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/promptforge/promptforge/internal/adapters/metrics"
	"github.com/promptforge/promptforge/internal/ports"
)

// JudgeCache memoizes judge verdicts by the full scoring request. Judging is
// blinded and sampled at a fixed temperature, so identical requests are safe
// to serve from cache across entries, candidates, and runs.
type JudgeCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	maxSize int
	entries map[string]cacheEntry
}

type cacheEntry struct {
	scores   ports.JudgeScores
	storedAt time.Time
}

func NewJudgeCache(ttl time.Duration, maxSize int) *JudgeCache {
	return &JudgeCache{
		ttl:     ttl,
		maxSize: maxSize,
		entries: make(map[string]cacheEntry),
	}
}

func (c *JudgeCache) Get(req ports.JudgeRequest) (*ports.JudgeScores, bool) {
	key := cacheKey(req)
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		metrics.JudgeCacheHitsTotal.WithLabelValues("miss").Inc()
		return nil, false
	}
	if time.Since(entry.storedAt) > c.ttl {
		delete(c.entries, key)
		metrics.JudgeCacheHitsTotal.WithLabelValues("expired").Inc()
		return nil, false
	}
	metrics.JudgeCacheHitsTotal.WithLabelValues("hit").Inc()
	scores := entry.scores
	scores.Dimensions = copyScores(entry.scores.Dimensions)
	return &scores, true
}

func (c *JudgeCache) Put(req ports.JudgeRequest, scores *ports.JudgeScores) {
	if scores == nil {
		return
	}
	key := cacheKey(req)
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) >= c.maxSize {
		c.evictLocked()
	}
	c.entries[key] = cacheEntry{
		scores: ports.JudgeScores{
			Dimensions: copyScores(scores.Dimensions),
			Overall:    scores.Overall,
			Feedback:   scores.Feedback,
		},
		storedAt: time.Now(),
	}
}

func (c *JudgeCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// evictLocked drops expired entries, then the oldest entry if still full.
func (c *JudgeCache) evictLocked() {
	now := time.Now()
	for key, entry := range c.entries {
		if now.Sub(entry.storedAt) > c.ttl {
			delete(c.entries, key)
		}
	}
	if len(c.entries) < c.maxSize {
		return
	}
	var oldestKey string
	var oldest time.Time
	for key, entry := range c.entries {
		if oldestKey == "" || entry.storedAt.Before(oldest) {
			oldestKey = key
			oldest = entry.storedAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

func cacheKey(req ports.JudgeRequest) string {
	dims := append([]string(nil), req.Dimensions...)
	sort.Strings(dims)
	payload, _ := json.Marshal(struct {
		Input    map[string]any `json:"input"`
		Output   string         `json:"output"`
		Expected string         `json:"expected"`
		Rubric   string         `json:"rubric"`
		Dims     []string       `json:"dims"`
	}{req.InputData, req.ActualOutput, req.ExpectedOutput, req.Rubric, dims})
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func copyScores(scores map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(scores))
	for k, v := range scores {
		out[k] = v
	}
	return out
}
