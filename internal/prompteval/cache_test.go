package prompteval

import (
	"testing"
	"time"

	"github.com/promptforge/promptforge/internal/ports"
)

func judgeReq(output string) ports.JudgeRequest {
	return ports.JudgeRequest{
		InputData:      map[string]any{"q": "what is 2+2?"},
		ActualOutput:   output,
		ExpectedOutput: "4",
		Dimensions:     []string{"correctness", "format"},
	}
}

func TestJudgeCacheRoundTrip(t *testing.T) {
	cache := NewJudgeCache(time.Minute, 10)
	req := judgeReq("4")

	if _, ok := cache.Get(req); ok {
		t.Fatal("unexpected hit on empty cache")
	}

	cache.Put(req, &ports.JudgeScores{
		Dimensions: map[string]float64{"correctness": 1.0, "format": 0.9},
		Overall:    0.95,
		Feedback:   "good",
	})

	got, ok := cache.Get(req)
	if !ok {
		t.Fatal("expected hit")
	}
	if got.Overall != 0.95 || got.Dimensions["correctness"] != 1.0 || got.Feedback != "good" {
		t.Errorf("got %+v", got)
	}
}

func TestJudgeCacheKeyIgnoresDimensionOrder(t *testing.T) {
	cache := NewJudgeCache(time.Minute, 10)
	req := judgeReq("4")
	cache.Put(req, &ports.JudgeScores{Overall: 0.5})

	reordered := req
	reordered.Dimensions = []string{"format", "correctness"}
	if _, ok := cache.Get(reordered); !ok {
		t.Error("dimension order should not change the cache key")
	}
}

func TestJudgeCacheDistinctRequests(t *testing.T) {
	cache := NewJudgeCache(time.Minute, 10)
	cache.Put(judgeReq("4"), &ports.JudgeScores{Overall: 1.0})

	if _, ok := cache.Get(judgeReq("5")); ok {
		t.Error("different output must miss")
	}

	other := judgeReq("4")
	other.Rubric = "strict"
	if _, ok := cache.Get(other); ok {
		t.Error("different rubric must miss")
	}
}

func TestJudgeCacheExpiry(t *testing.T) {
	cache := NewJudgeCache(time.Nanosecond, 10)
	req := judgeReq("4")
	cache.Put(req, &ports.JudgeScores{Overall: 1.0})

	time.Sleep(time.Millisecond)
	if _, ok := cache.Get(req); ok {
		t.Error("expired entry served")
	}
}

func TestJudgeCacheEviction(t *testing.T) {
	cache := NewJudgeCache(time.Minute, 2)
	cache.Put(judgeReq("a"), &ports.JudgeScores{Overall: 0.1})
	cache.Put(judgeReq("b"), &ports.JudgeScores{Overall: 0.2})
	cache.Put(judgeReq("c"), &ports.JudgeScores{Overall: 0.3})

	if cache.Len() > 2 {
		t.Errorf("cache size %d exceeds max 2", cache.Len())
	}
	if _, ok := cache.Get(judgeReq("c")); !ok {
		t.Error("newest entry should survive eviction")
	}
}

func TestJudgeCacheCopiesScores(t *testing.T) {
	cache := NewJudgeCache(time.Minute, 10)
	req := judgeReq("4")
	scores := &ports.JudgeScores{Dimensions: map[string]float64{"correctness": 1.0}, Overall: 1.0}
	cache.Put(req, scores)

	scores.Dimensions["correctness"] = 0.0

	got, ok := cache.Get(req)
	if !ok {
		t.Fatal("expected hit")
	}
	if got.Dimensions["correctness"] != 1.0 {
		t.Error("cache shares the caller's map")
	}

	got.Dimensions["correctness"] = 0.2
	again, _ := cache.Get(req)
	if again.Dimensions["correctness"] != 1.0 {
		t.Error("cache hit shares the stored map")
	}
}
