package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisClient 介面定義
type RedisClient interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

const luaScript = `
	local key = KEYS[1]
	local capacity = tonumber(ARGV[1])
	local rate = tonumber(ARGV[2])
	local now = tonumber(ARGV[3])
	local initTokens = tonumber(ARGV[4])

	-- 取得或初始化 bucket 狀態
	local bucket = redis.call('HMGET', key, 'tokens', 'last_refill')
	local currentTokens = tonumber(bucket[1])
	local lastRefill = tonumber(bucket[2])

	if currentTokens == nil then
		currentTokens = initTokens
		lastRefill = now
	end

	local elapsedSeconds = (now - lastRefill) / 1000000000
	currentTokens = math.min(capacity, currentTokens + elapsedSeconds * rate)

	local allowed = 0
	if currentTokens >= 1 then
		currentTokens = currentTokens - 1
		allowed = 1
	end

	redis.call('HSET', key, 'tokens', currentTokens, 'last_refill', now)
	redis.call('EXPIRE', key, 60)
	return allowed
`

// RsBucketToken 多個 instance 共用的 token bucket, 每個 key 一個 bucket
type RsBucketToken struct {
	LimiterConfig
	client RedisClient
}

func NewRsBucketToken(client RedisClient, config *LimiterConfig) *RsBucketToken {
	rb := &RsBucketToken{
		client: client,
	}

	if config != nil {
		rb.LimiterConfig = config.normalize()
	} else {
		rb.LimiterConfig = GetDefaultLimiterConfig()
	}

	return rb
}

var _ ILimiter = (*RsBucketToken)(nil)

// Allow redis 失敗時放行, 限流不應該擋掉正常流量
func (r *RsBucketToken) Allow(ctx context.Context, key string) bool {
	result, err := r.client.Eval(
		ctx,
		luaScript,
		[]string{r.Key + ":" + key},
		r.Capacity,
		r.RatePS,
		time.Now().UnixNano(),
		r.Capacity, // 初始 tokens 設為最大容量
	).Int64()

	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("redis rate limiter unavailable")
		return true
	}

	return result == 1
}
