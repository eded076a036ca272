package recipe

import (
	"context"
	"sync"
	"time"

	"meal-planner/internal/core/ai/provider"
)

type reply struct {
	text string
	err  error
}

// fakeCompleter 依序回傳預先設定的結果，用完後重複最後一個
type fakeCompleter struct {
	mu      sync.Mutex
	replies []reply
	prompts []provider.Prompt
}

func newFakeCompleter(replies ...reply) *fakeCompleter {
	return &fakeCompleter{replies: replies}
}

func (f *fakeCompleter) Complete(_ context.Context, prompt provider.Prompt) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	if len(f.replies) == 0 {
		return "", nil
	}
	idx := len(f.prompts) - 1
	if idx >= len(f.replies) {
		idx = len(f.replies) - 1
	}
	r := f.replies[idx]
	return r.text, r.err
}

func (f *fakeCompleter) Name() string { return "fake" }

func (f *fakeCompleter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func (f *fakeCompleter) lastPrompt() provider.Prompt {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.prompts[len(f.prompts)-1]
}

type fakeHistory struct {
	recipes []HistoryRecipe
	err     error
}

func (f *fakeHistory) RecentRecipes(_ context.Context, _ string, limit int) ([]HistoryRecipe, error) {
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.recipes) {
		return f.recipes[:limit], nil
	}
	return f.recipes, nil
}

// fakeSleeper 記錄退避時間而不真的等待
type fakeSleeper struct {
	delays []time.Duration
}

func (s *fakeSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return ctx.Err()
}

func (s *fakeSleeper) total() time.Duration {
	var sum time.Duration
	for _, d := range s.delays {
		sum += d
	}
	return sum
}

func testPolicy(s *fakeSleeper) RetryPolicy {
	p := DefaultRetryPolicy()
	p.Sleep = s.Sleep
	return p
}
