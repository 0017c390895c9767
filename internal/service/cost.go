package service

import "github.com/shopspring/decimal"

// WeightedAverageCost 入库后的加权平均成本
// unitCost 为空时按当前成本入库；入库后数量不为正时成本保持不变
func WeightedAverageCost(currentQty int, currentCost decimal.Decimal, qty int, unitCost *decimal.Decimal) decimal.Decimal {
	incomingCost := currentCost
	if unitCost != nil {
		incomingCost = *unitCost
	}
	nextQty := currentQty + qty
	if nextQty <= 0 {
		return currentCost
	}
	numerator := decimal.NewFromInt(int64(currentQty)).Mul(currentCost).
		Add(decimal.NewFromInt(int64(qty)).Mul(incomingCost))
	return numerator.Div(decimal.NewFromInt(int64(nextQty)))
}
