// Package pricing 所有衍生金額的純函式, 每個改動點都要顯式呼叫, 不靠 store hook.
package pricing

import (
	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)

	DefaultVATRate               = decimal.NewFromFloat(0.1)
	DefaultShippingFee           = decimal.NewFromInt(800_000)
	DefaultFreeShippingThreshold = decimal.NewFromInt(50_000_000)
)

// Policy 稅率與運費設定
type Policy struct {
	VATRate               decimal.Decimal
	ShippingFee           decimal.Decimal
	FreeShippingThreshold decimal.Decimal
}

func DefaultPolicy() Policy {
	return Policy{
		VATRate:               DefaultVATRate,
		ShippingFee:           DefaultShippingFee,
		FreeShippingThreshold: DefaultFreeShippingThreshold,
	}
}

// ValidDiscount 商品折扣 0~100
func ValidDiscount(discount decimal.Decimal) bool {
	return !discount.IsNegative() && discount.LessThanOrEqual(hundred)
}

// ValidVoucherPercent voucher 折扣 (0, 100]
func ValidVoucherPercent(pct decimal.Decimal) bool {
	return pct.IsPositive() && pct.LessThanOrEqual(hundred)
}

// PromotionPrice prices - prices*discount/100
func PromotionPrice(prices, discount decimal.Decimal) decimal.Decimal {
	return prices.Sub(prices.Mul(discount).Div(hundred)).Round(2)
}

type Line struct {
	Price    decimal.Decimal
	Quantity int64
}

func Subtotal(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Price.Mul(decimal.NewFromInt(l.Quantity)))
	}
	return total
}

type Quote struct {
	TotalPrice  decimal.Decimal
	VAT         decimal.Decimal
	ShippingFee decimal.Decimal
	Discount    decimal.Decimal
	OrderTotal  decimal.Decimal
}

func (p Policy) Shipping(totalPrice decimal.Decimal) decimal.Decimal {
	if totalPrice.GreaterThanOrEqual(p.FreeShippingThreshold) {
		return decimal.Zero
	}
	return p.ShippingFee
}

// Quote 單一 shop group 的金額
// voucherPct 為 nil 或不合法時不折扣
func (p Policy) Quote(lines []Line, voucherPct *decimal.Decimal) Quote {
	total := Subtotal(lines)
	vat := total.Mul(p.VATRate).Round(2)
	ship := p.Shipping(total)

	gross := total.Add(vat).Add(ship)
	discount := decimal.Zero
	if voucherPct != nil && ValidVoucherPercent(*voucherPct) {
		discount = gross.Mul(*voucherPct).Div(hundred).Round(2)
	}

	orderTotal := gross.Sub(discount)
	if orderTotal.IsNegative() {
		orderTotal = decimal.Zero
	}

	return Quote{
		TotalPrice:  total.Round(2),
		VAT:         vat,
		ShippingFee: ship,
		Discount:    discount,
		OrderTotal:  orderTotal.Round(2),
	}
}
