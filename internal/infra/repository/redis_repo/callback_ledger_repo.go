package redis_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/RoyceAzure/lab/marketplace/internal/infra/cache"
)

const DefaultCallbackTTL = 24 * time.Hour

// ICallbackLedgerRepository 記錄已處理過的付款回呼, 重送時可以直接略過
type ICallbackLedgerRepository interface {
	// MarkProcessed 第一次處理回傳 true
	MarkProcessed(ctx context.Context, txnRef, responseCode string) (bool, error)
	// Forget 處理失敗時移除標記, 讓下一次重送可以重跑
	Forget(ctx context.Context, txnRef, responseCode string) error
}

type CallbackLedgerRepo struct {
	cache cache.Cache
	ttl   time.Duration
}

func NewCallbackLedgerRepo(c cache.Cache, ttl time.Duration) *CallbackLedgerRepo {
	if ttl <= 0 {
		ttl = DefaultCallbackTTL
	}
	return &CallbackLedgerRepo{cache: c, ttl: ttl}
}

var _ ICallbackLedgerRepository = (*CallbackLedgerRepo)(nil)

func generateCallbackKey(txnRef, responseCode string) string {
	return fmt.Sprintf("payment:callback:%s:%s", txnRef, responseCode)
}

func (r *CallbackLedgerRepo) MarkProcessed(ctx context.Context, txnRef, responseCode string) (bool, error) {
	return r.cache.SetNX(ctx, generateCallbackKey(txnRef, responseCode), time.Now().UTC().Unix(), r.ttl)
}

func (r *CallbackLedgerRepo) Forget(ctx context.Context, txnRef, responseCode string) error {
	return r.cache.Delete(ctx, generateCallbackKey(txnRef, responseCode))
}
