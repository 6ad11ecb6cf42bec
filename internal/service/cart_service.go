package service

import (
	"context"
	"errors"

	"github.com/RoyceAzure/lab/marketplace/internal/constants"
	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/repository"
	"github.com/RoyceAzure/lab/marketplace/internal/pkg/apperr"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// CartLineView 依 shop 分組時回傳的 line, 附帶目前商品資料
type CartLineView struct {
	ProductID string         `json:"productId"`
	ShopID    string         `json:"shopId"`
	Quantity  int64          `json:"quantity"`
	Product   *model.Product `json:"product,omitempty"`
}

type ICartService interface {
	AddOrUpdate(ctx context.Context, userID, productID string, quantity int64) (*model.Cart, error)
	DecrementOne(ctx context.Context, userID, productID string) (*model.Cart, error)
	GetByUser(ctx context.Context, userID string) (map[string][]CartLineView, error)
	GetCart(ctx context.Context, userID string) (*model.Cart, error)
	RemoveLine(ctx context.Context, userID, productID string) (*model.Cart, error)
	Clear(ctx context.Context, userID string) error
}

type CartService struct {
	store repository.Store
	options
}

func NewCartService(store repository.Store, opts ...Option) *CartService {
	return &CartService{
		store:   store,
		options: newOptions(opts...),
	}
}

var _ ICartService = (*CartService)(nil)

// cartTotal Σ promotionPrice × quantity, 找不到的商品以 0 計
func cartTotal(cart *model.Cart, products map[string]model.Product) decimal.Decimal {
	total := decimal.Zero
	for _, l := range cart.Lines {
		p, ok := products[l.ProductID]
		if !ok || p.PromotionPrice.IsNegative() {
			continue
		}
		total = total.Add(p.PromotionPrice.Mul(decimal.NewFromInt(l.Quantity)))
	}
	return total.Round(2)
}

func productMap(products []model.Product) map[string]model.Product {
	m := make(map[string]model.Product, len(products))
	for _, p := range products {
		m[p.ID] = p
	}
	return m
}

// recomputeTotal 每次異動後都以商品現價重算
func recomputeTotal(ctx context.Context, store repository.Store, cart *model.Cart) error {
	products, err := store.GetProductsByIDs(ctx, cart.ProductIDs())
	if err != nil {
		return err
	}
	cart.TotalPrice = cartTotal(cart, productMap(products))
	return nil
}

// mutateCart 讀取 cart, 套用 fn 後以樂觀鎖寫回, 衝突時重讀重做
// create 為 true 時 cart 不存在會建立新的
func (c *CartService) mutateCart(ctx context.Context, userID string, create bool, fn func(cart *model.Cart) error) (*model.Cart, error) {
	for attempt := 0; attempt < constants.CartSaveRetry; attempt++ {
		isNew := false
		cart, err := c.store.GetCartByUserID(ctx, userID)
		if err != nil {
			if !errors.Is(err, repository.ErrNotFound) || !create {
				return nil, notFoundOr(err, "cart of user %s not found", userID)
			}
			isNew = true
			cart = &model.Cart{
				ID:         uuid.NewString(),
				UserID:     userID,
				Lines:      []model.CartLine{},
				TotalPrice: decimal.Zero,
			}
		}

		if err := fn(cart); err != nil {
			return nil, err
		}
		if err := recomputeTotal(ctx, c.store, cart); err != nil {
			return nil, notFoundOr(err, "")
		}
		cart.Stamp(c.now())

		if isNew {
			err = c.store.CreateCart(ctx, cart)
		} else {
			err = c.store.SaveCart(ctx, cart)
		}
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, repository.ErrConflict) {
			return nil, notFoundOr(err, "")
		}
		zerolog.Ctx(ctx).Debug().Str("user_id", userID).Int("attempt", attempt+1).Msg("cart modified concurrently, retry")
	}
	return nil, apperr.Newf(apperr.ConflictCode, "cart of user %s is modified concurrently", userID)
}

// AddOrUpdate 加入商品, 同 (product, shop) 已存在時累加數量
// 錯誤:
//   - InvalidInputCode: quantity < 1
//   - NotFoundCode: 商品不存在
//   - InsufficientStockCode: 累加後超過庫存
//   - ConflictCode: 重試後仍衝突
func (c *CartService) AddOrUpdate(ctx context.Context, userID, productID string, quantity int64) (*model.Cart, error) {
	if quantity < 1 {
		return nil, apperr.New(apperr.InvalidInputCode, "quantity must be at least 1")
	}
	if userID == "" {
		return nil, apperr.New(apperr.InvalidInputCode, "userId is required")
	}

	return c.mutateCart(ctx, userID, true, func(cart *model.Cart) error {
		product, err := c.store.GetProductByID(ctx, productID)
		if err != nil {
			return notFoundOr(err, "product %s not found", productID)
		}

		idx := cart.FindLineOfShop(productID, product.ShopID)
		newQty := quantity
		if idx >= 0 {
			newQty += cart.Lines[idx].Quantity
		}
		if newQty > product.QuantityInStock {
			return apperr.Newf(apperr.InsufficientStockCode,
				"not enough stock for %s, available: %d", product.Name, product.QuantityInStock)
		}

		if idx >= 0 {
			cart.Lines[idx].Quantity = newQty
			return nil
		}
		cart.Lines = append(cart.Lines, model.CartLine{
			CartID:    cart.ID,
			ProductID: productID,
			ShopID:    product.ShopID,
			Quantity:  newQty,
			Position:  cart.NextPosition(),
		})
		return nil
	})
}

// DecrementOne 數量減一, 不可低於 1
// 錯誤:
//   - NotFoundCode: cart 或 line 不存在
//   - InvalidOperationCode: 數量已經是 1
func (c *CartService) DecrementOne(ctx context.Context, userID, productID string) (*model.Cart, error) {
	return c.mutateCart(ctx, userID, false, func(cart *model.Cart) error {
		idx := cart.FindLine(productID)
		if idx < 0 {
			return apperr.Newf(apperr.NotFoundCode, "product %s not found in cart", productID)
		}
		if cart.Lines[idx].Quantity <= 1 {
			return apperr.New(apperr.InvalidOperationCode, "cannot decrease quantity below 1")
		}
		cart.Lines[idx].Quantity--
		return nil
	})
}

// RemoveLine 移除該商品所有 line
func (c *CartService) RemoveLine(ctx context.Context, userID, productID string) (*model.Cart, error) {
	return c.mutateCart(ctx, userID, false, func(cart *model.Cart) error {
		if cart.RemoveProducts(map[string]struct{}{productID: {}}) == 0 {
			return apperr.Newf(apperr.NotFoundCode, "product %s not found in cart", productID)
		}
		return nil
	})
}

func (c *CartService) GetCart(ctx context.Context, userID string) (*model.Cart, error) {
	cart, err := c.store.GetCartByUserID(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, "cart of user %s not found", userID)
	}
	return cart, nil
}

// GetByUser shopId -> lines, 保留加入順序
func (c *CartService) GetByUser(ctx context.Context, userID string) (map[string][]CartLineView, error) {
	cart, err := c.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	products, err := c.store.GetProductsByIDs(ctx, cart.ProductIDs())
	if err != nil {
		return nil, notFoundOr(err, "")
	}
	pm := productMap(products)

	grouped := make(map[string][]CartLineView)
	for _, l := range cart.Lines {
		view := CartLineView{ProductID: l.ProductID, ShopID: l.ShopID, Quantity: l.Quantity}
		if p, ok := pm[l.ProductID]; ok {
			view.Product = &p
		}
		grouped[l.ShopID] = append(grouped[l.ShopID], view)
	}
	return grouped, nil
}

func (c *CartService) Clear(ctx context.Context, userID string) error {
	cart, err := c.store.GetCartByUserID(ctx, userID)
	if err != nil {
		return notFoundOr(err, "cart of user %s not found", userID)
	}
	if err := c.store.DeleteCart(ctx, cart.ID); err != nil {
		return notFoundOr(err, "cart of user %s not found", userID)
	}
	return nil
}
