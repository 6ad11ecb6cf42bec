package ratelimit

import (
	"context"
	"sync"
	"time"
)

// ILimiter key 為呼叫端識別, 例如 client ip
type ILimiter interface {
	Allow(ctx context.Context, key string) bool
}

/*
單機 token bucket, 每個 key 一個 bucket
請使用 defer 呼叫 Stop()
*/
type TokenBucket struct {
	LimiterConfig
	mu      sync.Mutex
	buckets map[string]*bucket
	cancel  chan struct{}
	once    sync.Once //for close background
}

type bucket struct {
	tokens       int64
	lastRefilled int64
}

/*
請使用 defer 呼叫 Stop()
*/
func NewTokenBucket(config *LimiterConfig) *TokenBucket {
	t := &TokenBucket{
		buckets: make(map[string]*bucket),
		cancel:  make(chan struct{}),
	}

	if config != nil {
		t.LimiterConfig = config.normalize()
	} else {
		t.LimiterConfig = GetDefaultLimiterConfig()
	}

	go t.background()
	return t
}

var _ ILimiter = (*TokenBucket)(nil)

// Allow 第一次出現的 key 從滿的 bucket 開始
func (t *TokenBucket) Allow(ctx context.Context, key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	b, ok := t.buckets[key]
	if !ok {
		b = &bucket{tokens: t.Capacity, lastRefilled: time.Now().UnixNano()}
		t.buckets[key] = b
	}
	if b.tokens <= 0 {
		return false
	}
	b.tokens--
	return true
}

// countNewTokens 回傳補充後數量與實際用掉的時間, 不足一顆 token 的時間保留到下次
func (t *TokenBucket) countNewTokens(b *bucket, now int64) (int64, int64) {
	elapsed := now - b.lastRefilled
	tokenToAdd := elapsed * t.RatePS / int64(time.Second)
	if tokenToAdd <= 0 {
		return b.tokens, b.lastRefilled
	}
	newTokens := b.tokens + tokenToAdd
	if newTokens > t.Capacity {
		return t.Capacity, now
	}
	return newTokens, b.lastRefilled + tokenToAdd*int64(time.Second)/t.RatePS
}

func (t *TokenBucket) background() {
	ticker := time.NewTicker(t.RefillRate)
	defer ticker.Stop()

	for {
		select {
		case <-t.cancel:
			return
		case <-ticker.C:
			t.refill(time.Now().UnixNano())
		}
	}
}

// refill 補滿的 bucket 跟新建的一樣, 直接移除, key 數量不會無限成長
func (t *TokenBucket) refill(now int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for key, b := range t.buckets {
		b.tokens, b.lastRefilled = t.countNewTokens(b, now)
		if b.tokens >= t.Capacity {
			delete(t.buckets, key)
		}
	}
}

func (t *TokenBucket) Stop() {
	t.once.Do(func() {
		close(t.cancel)
	})
}
