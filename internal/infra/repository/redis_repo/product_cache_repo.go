package redis_repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/cache"
)

const DefaultProductTTL = 10 * time.Minute

// IProductCacheRepository 商品讀取快取, 真相來源仍是 store
type IProductCacheRepository interface {
	// GetProduct 錯誤:
	//   - cache.ErrCacheMiss: 快取沒有資料
	GetProduct(ctx context.Context, productID string) (*model.Product, error)
	SetProduct(ctx context.Context, product *model.Product) error
	// InvalidateProducts 商品更新或扣庫存後呼叫
	InvalidateProducts(ctx context.Context, productIDs ...string) error
}

type ProductCacheRepo struct {
	cache cache.Cache
	ttl   time.Duration
}

func NewProductCacheRepo(c cache.Cache, ttl time.Duration) *ProductCacheRepo {
	if ttl <= 0 {
		ttl = DefaultProductTTL
	}
	return &ProductCacheRepo{cache: c, ttl: ttl}
}

var _ IProductCacheRepository = (*ProductCacheRepo)(nil)

func generateProductKey(productID string) string {
	return fmt.Sprintf("product:%s", productID)
}

func (r *ProductCacheRepo) GetProduct(ctx context.Context, productID string) (*model.Product, error) {
	raw, err := r.cache.Get(ctx, generateProductKey(productID))
	if err != nil {
		return nil, err
	}
	var p model.Product
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		// 壞掉的資料當作 miss, 讓呼叫端回源
		_ = r.cache.Delete(ctx, generateProductKey(productID))
		return nil, errors.Join(cache.ErrCacheMiss, err)
	}
	return &p, nil
}

func (r *ProductCacheRepo) SetProduct(ctx context.Context, product *model.Product) error {
	data, err := json.Marshal(product)
	if err != nil {
		return err
	}
	return r.cache.Set(ctx, generateProductKey(product.ID), data, r.ttl)
}

func (r *ProductCacheRepo) InvalidateProducts(ctx context.Context, productIDs ...string) error {
	keys := make([]string, 0, len(productIDs))
	for _, id := range productIDs {
		keys = append(keys, generateProductKey(id))
	}
	return r.cache.Delete(ctx, keys...)
}
