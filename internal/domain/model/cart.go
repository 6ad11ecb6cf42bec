package model

import "github.com/shopspring/decimal"

// Cart 每個 user 一台, Version 為樂觀鎖
type Cart struct {
	ID         string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID     string          `gorm:"not null;type:varchar(36);uniqueIndex" json:"userId"`
	Lines      []CartLine      `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"lines"`
	TotalPrice decimal.Decimal `gorm:"not null;type:decimal(18,2)" json:"totalPrice"`
	Version    int64           `gorm:"not null;default:0" json:"version"`
	BaseModel
}

// CartLine (cart, product, shop) 唯一, Position 保留加入順序
type CartLine struct {
	CartID    string `gorm:"primaryKey;type:varchar(36)" json:"-"`
	ProductID string `gorm:"primaryKey;type:varchar(36)" json:"productId"`
	ShopID    string `gorm:"primaryKey;type:varchar(36)" json:"shopId"`
	Quantity  int64  `gorm:"not null" json:"quantity"`
	Position  int    `gorm:"not null;default:0" json:"-"`
}

// FindLine 回傳 index, 找不到為 -1
func (c *Cart) FindLine(productID string) int {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) FindLineOfShop(productID, shopID string) int {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID && c.Lines[i].ShopID == shopID {
			return i
		}
	}
	return -1
}

func (c *Cart) RemoveLine(idx int) {
	c.Lines = append(c.Lines[:idx], c.Lines[idx+1:]...)
}

// RemoveProducts 移除指定商品的所有 line, 回傳移除數量
func (c *Cart) RemoveProducts(productIDs map[string]struct{}) int {
	kept := c.Lines[:0]
	removed := 0
	for _, l := range c.Lines {
		if _, ok := productIDs[l.ProductID]; ok {
			removed++
			continue
		}
		kept = append(kept, l)
	}
	c.Lines = kept
	return removed
}

func (c *Cart) NextPosition() int {
	max := -1
	for _, l := range c.Lines {
		if l.Position > max {
			max = l.Position
		}
	}
	return max + 1
}

func (c *Cart) ProductIDs() []string {
	ids := make([]string, 0, len(c.Lines))
	seen := make(map[string]struct{}, len(c.Lines))
	for _, l := range c.Lines {
		if _, ok := seen[l.ProductID]; ok {
			continue
		}
		seen[l.ProductID] = struct{}{}
		ids = append(ids, l.ProductID)
	}
	return ids
}
