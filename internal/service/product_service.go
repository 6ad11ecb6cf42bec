package service

import (
	"context"
	"errors"
	"strings"

	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/RoyceAzure/lab/marketplace/internal/domain/pricing"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/cache"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/repository"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/repository/redis_repo"
	"github.com/RoyceAzure/lab/marketplace/internal/pkg/apperr"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type CreateShopParams struct {
	OwnerID string
	Name    string
}

type CreateProductParams struct {
	ShopID          string
	Name            string
	Description     string
	CategoryID      string
	ImageURLs       []string
	Prices          decimal.Decimal
	Discount        decimal.Decimal
	QuantityInStock int64
}

// UpdateProductParams nil 代表不修改, shop 不可變更
type UpdateProductParams struct {
	Name            *string
	Description     *string
	CategoryID      *string
	ImageURLs       []string
	Prices          *decimal.Decimal
	Discount        *decimal.Decimal
	QuantityInStock *int64
}

type IProductService interface {
	CreateShop(ctx context.Context, arg CreateShopParams) (*model.Shop, error)
	ApproveShop(ctx context.Context, shopID string) (*model.Shop, error)
	CreateProduct(ctx context.Context, arg CreateProductParams) (*model.Product, error)
	UpdateProduct(ctx context.Context, productID string, arg UpdateProductParams) (*model.Product, error)
	GetProduct(ctx context.Context, productID string) (*model.Product, error)
	ListProductsByShop(ctx context.Context, shopID string) ([]model.Product, error)
}

type ProductService struct {
	store repository.Store
	cache redis_repo.IProductCacheRepository
	options
}

// NewProductService productCache 可為 nil, 代表不使用快取
func NewProductService(store repository.Store, productCache redis_repo.IProductCacheRepository, opts ...Option) *ProductService {
	return &ProductService{
		store:   store,
		cache:   productCache,
		options: newOptions(opts...),
	}
}

var _ IProductService = (*ProductService)(nil)

// CreateShop 新 shop 預設未核准
// 錯誤:
//   - InvalidInputCode: owner 或名稱為空
//   - ConflictCode: 該 owner 已有 shop
func (p *ProductService) CreateShop(ctx context.Context, arg CreateShopParams) (*model.Shop, error) {
	if strings.TrimSpace(arg.OwnerID) == "" || strings.TrimSpace(arg.Name) == "" {
		return nil, apperr.New(apperr.InvalidInputCode, "ownerId and name are required")
	}
	shop := &model.Shop{
		ID:      uuid.NewString(),
		OwnerID: arg.OwnerID,
		Name:    strings.TrimSpace(arg.Name),
	}
	shop.Stamp(p.now())
	if err := p.store.CreateShop(ctx, shop); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperr.Newf(apperr.ConflictCode, "owner %s already has a shop", arg.OwnerID)
		}
		return nil, notFoundOr(err, "")
	}
	return shop, nil
}

func (p *ProductService) ApproveShop(ctx context.Context, shopID string) (*model.Shop, error) {
	if err := p.store.ApproveShop(ctx, shopID, p.now()); err != nil {
		return nil, notFoundOr(err, "shop %s not found", shopID)
	}
	shop, err := p.store.GetShopByID(ctx, shopID)
	if err != nil {
		return nil, notFoundOr(err, "shop %s not found", shopID)
	}
	return shop, nil
}

func validateProductFields(prices, discount decimal.Decimal, stock int64) error {
	if prices.IsNegative() {
		return apperr.New(apperr.InvalidInputCode, "prices must not be negative")
	}
	if !pricing.ValidDiscount(discount) {
		return apperr.New(apperr.InvalidInputCode, "discount must be between 0 and 100")
	}
	if stock < 0 {
		return apperr.New(apperr.InvalidInputCode, "quantityInStock must not be negative")
	}
	return nil
}

// CreateProduct 建立商品, promotionPrice 在此計算
// 錯誤:
//   - InvalidInputCode: 名稱為空, 價格/折扣/庫存不合法
//   - NotFoundCode: shop 不存在
//   - InvalidStateCode: shop 尚未核准
func (p *ProductService) CreateProduct(ctx context.Context, arg CreateProductParams) (*model.Product, error) {
	if strings.TrimSpace(arg.Name) == "" {
		return nil, apperr.New(apperr.InvalidInputCode, "name is required")
	}
	if err := validateProductFields(arg.Prices, arg.Discount, arg.QuantityInStock); err != nil {
		return nil, err
	}

	shop, err := p.store.GetShopByID(ctx, arg.ShopID)
	if err != nil {
		return nil, notFoundOr(err, "shop %s not found", arg.ShopID)
	}
	if !shop.IsApproved {
		return nil, apperr.Newf(apperr.InvalidStateCode, "shop %s is not approved", shop.ID)
	}

	product := &model.Product{
		ID:              uuid.NewString(),
		Name:            strings.TrimSpace(arg.Name),
		Description:     arg.Description,
		ImageURLs:       arg.ImageURLs,
		ShopID:          shop.ID,
		CategoryID:      arg.CategoryID,
		QuantityInStock: arg.QuantityInStock,
		Prices:          arg.Prices,
		Discount:        arg.Discount,
		PromotionPrice:  pricing.PromotionPrice(arg.Prices, arg.Discount),
	}
	if product.ImageURLs == nil {
		product.ImageURLs = []string{}
	}
	product.Stamp(p.now())

	if err := p.store.CreateProduct(ctx, product); err != nil {
		return nil, notFoundOr(err, "")
	}
	return product, nil
}

// UpdateProduct 價格或折扣變動時重新計算 promotionPrice
// 錯誤:
//   - NotFoundCode: 商品不存在
//   - InvalidInputCode: 欄位不合法
func (p *ProductService) UpdateProduct(ctx context.Context, productID string, arg UpdateProductParams) (*model.Product, error) {
	product, err := p.store.GetProductByID(ctx, productID)
	if err != nil {
		return nil, notFoundOr(err, "product %s not found", productID)
	}

	if arg.Name != nil {
		if strings.TrimSpace(*arg.Name) == "" {
			return nil, apperr.New(apperr.InvalidInputCode, "name must not be empty")
		}
		product.Name = strings.TrimSpace(*arg.Name)
	}
	if arg.Description != nil {
		product.Description = *arg.Description
	}
	if arg.CategoryID != nil {
		product.CategoryID = *arg.CategoryID
	}
	if arg.ImageURLs != nil {
		product.ImageURLs = arg.ImageURLs
	}
	if arg.Prices != nil {
		product.Prices = *arg.Prices
	}
	if arg.Discount != nil {
		product.Discount = *arg.Discount
	}
	if arg.QuantityInStock != nil {
		product.QuantityInStock = *arg.QuantityInStock
	}
	if err := validateProductFields(product.Prices, product.Discount, product.QuantityInStock); err != nil {
		return nil, err
	}
	product.PromotionPrice = pricing.PromotionPrice(product.Prices, product.Discount)
	product.Stamp(p.now())

	if err := p.store.UpdateProduct(ctx, product); err != nil {
		return nil, notFoundOr(err, "product %s not found", productID)
	}
	invalidateProducts(ctx, p.cache, product.ID)
	return product, nil
}

// GetProduct 先讀快取, miss 時回源並回填
func (p *ProductService) GetProduct(ctx context.Context, productID string) (*model.Product, error) {
	if p.cache != nil {
		cached, err := p.cache.GetProduct(ctx, productID)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			zerolog.Ctx(ctx).Warn().Err(err).Str("product_id", productID).Msg("read product cache failed")
		}
	}

	product, err := p.store.GetProductByID(ctx, productID)
	if err != nil {
		return nil, notFoundOr(err, "product %s not found", productID)
	}

	if p.cache != nil {
		if err := p.cache.SetProduct(ctx, product); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("product_id", productID).Msg("write product cache failed")
		}
	}
	return product, nil
}

func (p *ProductService) ListProductsByShop(ctx context.Context, shopID string) ([]model.Product, error) {
	products, err := p.store.ListProductsByShop(ctx, shopID)
	if err != nil {
		return nil, notFoundOr(err, "")
	}
	return products, nil
}

// invalidateProducts 商品更新與出貨扣庫存後都要呼叫
func invalidateProducts(ctx context.Context, c redis_repo.IProductCacheRepository, productIDs ...string) {
	if c == nil || len(productIDs) == 0 {
		return
	}
	if err := c.InvalidateProducts(ctx, productIDs...); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Strs("product_ids", productIDs).Msg("invalidate product cache failed")
	}
}
