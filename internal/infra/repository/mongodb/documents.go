package mongodb

import (
	"time"

	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// 金額在 mongo 以 Decimal128 儲存, 與 domain model 分開定義避免 bson tag 汙染

func toDecimal128(d decimal.Decimal) primitive.Decimal128 {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.NewDecimal128(0, 0)
	}
	return v
}

func fromDecimal128(v primitive.Decimal128) decimal.Decimal {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

type shopDoc struct {
	ID         string    `bson:"_id"`
	OwnerID    string    `bson:"ownerId"`
	Name       string    `bson:"name"`
	IsApproved bool      `bson:"isApproved"`
	CreatedAt  time.Time `bson:"createdAt"`
	UpdatedAt  time.Time `bson:"updatedAt"`
}

func newShopDoc(s *model.Shop) shopDoc {
	return shopDoc{
		ID:         s.ID,
		OwnerID:    s.OwnerID,
		Name:       s.Name,
		IsApproved: s.IsApproved,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
}

func (d shopDoc) toModel() *model.Shop {
	return &model.Shop{
		ID:         d.ID,
		OwnerID:    d.OwnerID,
		Name:       d.Name,
		IsApproved: d.IsApproved,
		BaseModel:  model.BaseModel{CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt},
	}
}

type productDoc struct {
	ID              string               `bson:"_id"`
	Name            string               `bson:"name"`
	Description     string               `bson:"description"`
	ImageURLs       []string             `bson:"imageUrls"`
	ShopID          string               `bson:"shopId"`
	CategoryID      string               `bson:"categoryId"`
	QuantityInStock int64                `bson:"quantityInStock"`
	SoldQuantity    int64                `bson:"soldQuantity"`
	Prices          primitive.Decimal128 `bson:"prices"`
	Discount        primitive.Decimal128 `bson:"discount"`
	PromotionPrice  primitive.Decimal128 `bson:"promotionPrice"`
	CreatedAt       time.Time            `bson:"createdAt"`
	UpdatedAt       time.Time            `bson:"updatedAt"`
}

func newProductDoc(p *model.Product) productDoc {
	return productDoc{
		ID:              p.ID,
		Name:            p.Name,
		Description:     p.Description,
		ImageURLs:       p.ImageURLs,
		ShopID:          p.ShopID,
		CategoryID:      p.CategoryID,
		QuantityInStock: p.QuantityInStock,
		SoldQuantity:    p.SoldQuantity,
		Prices:          toDecimal128(p.Prices),
		Discount:        toDecimal128(p.Discount),
		PromotionPrice:  toDecimal128(p.PromotionPrice),
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func (d productDoc) toModel() model.Product {
	return model.Product{
		ID:              d.ID,
		Name:            d.Name,
		Description:     d.Description,
		ImageURLs:       d.ImageURLs,
		ShopID:          d.ShopID,
		CategoryID:      d.CategoryID,
		QuantityInStock: d.QuantityInStock,
		SoldQuantity:    d.SoldQuantity,
		Prices:          fromDecimal128(d.Prices),
		Discount:        fromDecimal128(d.Discount),
		PromotionPrice:  fromDecimal128(d.PromotionPrice),
		BaseModel:       model.BaseModel{CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt},
	}
}

type voucherDoc struct {
	Code      string               `bson:"_id"`
	Discount  primitive.Decimal128 `bson:"discount"`
	ExpiresAt *time.Time           `bson:"expiresAt,omitempty"`
	CreatedAt time.Time            `bson:"createdAt"`
	UpdatedAt time.Time            `bson:"updatedAt"`
}

func (d voucherDoc) toModel() *model.Voucher {
	return &model.Voucher{
		Code:      d.Code,
		Discount:  fromDecimal128(d.Discount),
		ExpiresAt: d.ExpiresAt,
		BaseModel: model.BaseModel{CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt},
	}
}

type cartLineDoc struct {
	ProductID string `bson:"productId"`
	ShopID    string `bson:"shopId"`
	Quantity  int64  `bson:"quantity"`
	Position  int    `bson:"position"`
}

type cartDoc struct {
	ID         string               `bson:"_id"`
	UserID     string               `bson:"userId"`
	Lines      []cartLineDoc        `bson:"lines"`
	TotalPrice primitive.Decimal128 `bson:"totalPrice"`
	Version    int64                `bson:"version"`
	CreatedAt  time.Time            `bson:"createdAt"`
	UpdatedAt  time.Time            `bson:"updatedAt"`
}

func newCartLineDocs(lines []model.CartLine) []cartLineDoc {
	docs := make([]cartLineDoc, 0, len(lines))
	for _, l := range lines {
		docs = append(docs, cartLineDoc{
			ProductID: l.ProductID,
			ShopID:    l.ShopID,
			Quantity:  l.Quantity,
			Position:  l.Position,
		})
	}
	return docs
}

func newCartDoc(c *model.Cart) cartDoc {
	return cartDoc{
		ID:         c.ID,
		UserID:     c.UserID,
		Lines:      newCartLineDocs(c.Lines),
		TotalPrice: toDecimal128(c.TotalPrice),
		Version:    c.Version,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

func (d cartDoc) toModel() *model.Cart {
	lines := make([]model.CartLine, 0, len(d.Lines))
	for _, l := range d.Lines {
		lines = append(lines, model.CartLine{
			CartID:    d.ID,
			ProductID: l.ProductID,
			ShopID:    l.ShopID,
			Quantity:  l.Quantity,
			Position:  l.Position,
		})
	}
	return &model.Cart{
		ID:         d.ID,
		UserID:     d.UserID,
		Lines:      lines,
		TotalPrice: fromDecimal128(d.TotalPrice),
		Version:    d.Version,
		BaseModel:  model.BaseModel{CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt},
	}
}

type orderLineDoc struct {
	ProductID   string               `bson:"productId"`
	ShopID      string               `bson:"shopId"`
	ProductName string               `bson:"productName"`
	Quantity    int64                `bson:"quantity"`
	Price       primitive.Decimal128 `bson:"price"`
	Status      string               `bson:"status"`
	Position    int                  `bson:"position"`
}

type orderDoc struct {
	ID              string               `bson:"_id"`
	CheckoutID      string               `bson:"checkoutId"`
	UserID          string               `bson:"userId"`
	CartID          string               `bson:"cartId"`
	ShopID          string               `bson:"shopId"`
	Lines           []orderLineDoc       `bson:"lines"`
	ShippingAddress string               `bson:"shippingAddress"`
	Name            string               `bson:"name"`
	Phone           string               `bson:"phone"`
	Email           string               `bson:"email"`
	VoucherCode     string               `bson:"voucherCode,omitempty"`
	TotalPrice      primitive.Decimal128 `bson:"totalPrice"`
	VAT             primitive.Decimal128 `bson:"VAT"`
	ShippingFee     primitive.Decimal128 `bson:"shippingFee"`
	Discount        primitive.Decimal128 `bson:"discount"`
	OrderTotal      primitive.Decimal128 `bson:"orderTotal"`
	Status          string               `bson:"status"`
	IsPaid          bool                 `bson:"isPaid"`
	PaymentStatus   string               `bson:"paymentStatus"`
	ShippedAt       *time.Time           `bson:"shippedAt,omitempty"`
	DeliveredAt     *time.Time           `bson:"deliveredAt,omitempty"`
	CancelledAt     *time.Time           `bson:"cancelledAt,omitempty"`
	CreatedAt       time.Time            `bson:"createdAt"`
	UpdatedAt       time.Time            `bson:"updatedAt"`
}

func newOrderLineDocs(lines []model.OrderLine) []orderLineDoc {
	docs := make([]orderLineDoc, 0, len(lines))
	for _, l := range lines {
		docs = append(docs, orderLineDoc{
			ProductID:   l.ProductID,
			ShopID:      l.ShopID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			Price:       toDecimal128(l.Price),
			Status:      string(l.Status),
			Position:    l.Position,
		})
	}
	return docs
}

func newOrderDoc(o *model.Order) orderDoc {
	return orderDoc{
		ID:              o.ID,
		CheckoutID:      o.CheckoutID,
		UserID:          o.UserID,
		CartID:          o.CartID,
		ShopID:          o.ShopID,
		Lines:           newOrderLineDocs(o.Lines),
		ShippingAddress: o.ShippingAddress,
		Name:            o.Name,
		Phone:           o.Phone,
		Email:           o.Email,
		VoucherCode:     o.VoucherCode,
		TotalPrice:      toDecimal128(o.TotalPrice),
		VAT:             toDecimal128(o.VAT),
		ShippingFee:     toDecimal128(o.ShippingFee),
		Discount:        toDecimal128(o.Discount),
		OrderTotal:      toDecimal128(o.OrderTotal),
		Status:          string(o.Status),
		IsPaid:          o.IsPaid,
		PaymentStatus:   string(o.PaymentStatus),
		ShippedAt:       o.ShippedAt,
		DeliveredAt:     o.DeliveredAt,
		CancelledAt:     o.CancelledAt,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func (d orderDoc) toModel() model.Order {
	lines := make([]model.OrderLine, 0, len(d.Lines))
	for _, l := range d.Lines {
		lines = append(lines, model.OrderLine{
			OrderID:     d.ID,
			ProductID:   l.ProductID,
			ShopID:      l.ShopID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			Price:       fromDecimal128(l.Price),
			Status:      model.OrderStatus(l.Status),
			Position:    l.Position,
		})
	}
	return model.Order{
		ID:              d.ID,
		CheckoutID:      d.CheckoutID,
		UserID:          d.UserID,
		CartID:          d.CartID,
		ShopID:          d.ShopID,
		Lines:           lines,
		ShippingAddress: d.ShippingAddress,
		Name:            d.Name,
		Phone:           d.Phone,
		Email:           d.Email,
		VoucherCode:     d.VoucherCode,
		TotalPrice:      fromDecimal128(d.TotalPrice),
		VAT:             fromDecimal128(d.VAT),
		ShippingFee:     fromDecimal128(d.ShippingFee),
		Discount:        fromDecimal128(d.Discount),
		OrderTotal:      fromDecimal128(d.OrderTotal),
		Status:          model.OrderStatus(d.Status),
		IsPaid:          d.IsPaid,
		PaymentStatus:   model.PaymentStatus(d.PaymentStatus),
		ShippedAt:       d.ShippedAt,
		DeliveredAt:     d.DeliveredAt,
		CancelledAt:     d.CancelledAt,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}
