package ratelimit

import "time"

type LimiterConfig struct {
	Key        string
	Capacity   int64
	RatePS     int64         // tokens/秒
	RefillRate time.Duration // 補充時間間隔
}

func GetDefaultLimiterConfig() LimiterConfig {
	return LimiterConfig{
		Key:        "global",
		Capacity:   100,
		RatePS:     50,
		RefillRate: 100 * time.Millisecond,
	}
}

// normalize 補上未設定的欄位
func (l LimiterConfig) normalize() LimiterConfig {
	def := GetDefaultLimiterConfig()
	if l.Key == "" {
		l.Key = def.Key
	}
	if l.Capacity <= 0 {
		l.Capacity = def.Capacity
	}
	if l.RatePS <= 0 {
		l.RatePS = def.RatePS
	}
	if l.RefillRate <= 0 {
		l.RefillRate = def.RefillRate
	}
	return l
}
