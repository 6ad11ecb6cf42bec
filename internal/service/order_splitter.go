package service

import (
	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
)

// shopGroup 一次結帳中屬於同一個 shop 的 line
type shopGroup struct {
	ShopID string
	Lines  []selectedLine
}

type selectedLine struct {
	Line    model.CartLine
	Product model.Product
}

// splitByShop 依 shop 分組, 組的順序為 shop 在 cart 中第一次出現的順序
func splitByShop(lines []selectedLine) []shopGroup {
	index := make(map[string]int)
	groups := make([]shopGroup, 0)
	for _, l := range lines {
		i, ok := index[l.Line.ShopID]
		if !ok {
			i = len(groups)
			index[l.Line.ShopID] = i
			groups = append(groups, shopGroup{ShopID: l.Line.ShopID})
		}
		groups[i].Lines = append(groups[i].Lines, l)
	}
	return groups
}

// selectLines 依 cart 順序挑出被選取且商品仍存在的 line
func selectLines(cart *model.Cart, productIDs []string, products map[string]model.Product) []selectedLine {
	wanted := make(map[string]struct{}, len(productIDs))
	for _, id := range productIDs {
		wanted[id] = struct{}{}
	}
	selected := make([]selectedLine, 0, len(productIDs))
	for _, l := range cart.Lines {
		if _, ok := wanted[l.ProductID]; !ok {
			continue
		}
		p, ok := products[l.ProductID]
		if !ok {
			continue
		}
		selected = append(selected, selectedLine{Line: l, Product: p})
	}
	return selected
}
