package recipe

import (
	"context"
	"math"
	"strings"
	"time"
)

const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 2 * time.Second
	DefaultMultiplier  = 2.0
)

var overloadPatterns = []string{"503", "overloaded", "service unavailable", "rate limit"}

// IsOverload 錯誤訊息是否屬於模型端暫時性過載
func IsOverload(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, p := range overloadPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// IsTransient 可重試的錯誤：過載且不是連線失敗。
// 連線錯誤的位址可能含有 503 之類的字樣，必須先排除。
func IsTransient(err error) bool {
	return !IsConnectionFailure(err) && IsOverload(err)
}

// RetryPolicy 指數退避重試策略，不加 jitter
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
	// Retryable 判斷錯誤是否值得重試
	Retryable func(error) bool
	// Sleep 可在測試中替換為假時鐘
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy 3 次嘗試，延遲 2s、4s
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		Multiplier:  DefaultMultiplier,
		Retryable:   IsTransient,
		Sleep:       sleepContext,
	}
}

// Delay 第 attempt 次失敗後的等待時間：BaseDelay * Multiplier^(attempt-1)
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	mult := p.Multiplier
	if mult <= 0 {
		mult = DefaultMultiplier
	}
	return time.Duration(float64(p.BaseDelay) * math.Pow(mult, float64(attempt-1)))
}

// Do 執行 op 直到成功、遇到不可重試錯誤或用盡次數，回傳實際嘗試次數
func (p RetryPolicy) Do(ctx context.Context, op func(ctx context.Context, attempt int) error) (int, error) {
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = IsTransient
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return attempt - 1, ctxErr
		}

		err = op(ctx, attempt)
		if err == nil {
			return attempt, nil
		}
		if attempt == maxAttempts || !retryable(err) {
			return attempt, err
		}
		if sleepErr := sleep(ctx, p.Delay(attempt)); sleepErr != nil {
			return attempt, sleepErr
		}
	}
	return maxAttempts, err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
