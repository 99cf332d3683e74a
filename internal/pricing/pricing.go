// Package pricing 负责商品现价、购物车与订单金额计算。
//
// 所有函数都是纯函数，金额使用 decimal 计算，单价在进入小计前按分取整，
// 保证订单项快照与订单小计逐分一致。
package pricing

import (
	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)

	// TaxRate 固定税率 10%
	TaxRate = decimal.RequireFromString("0.10")
	// FreeShippingThreshold 免运费门槛
	FreeShippingThreshold = decimal.NewFromInt(50)
	// FlatShipping 未达门槛时的固定运费
	FlatShipping = decimal.NewFromInt(5)
)

// Line 参与计价的一行
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Summary 金额汇总
type Summary struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Shipping decimal.Decimal `json:"shipping"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

// CurrentPrice 计算商品现价。折扣百分比优先，其次为立减金额，结果不小于 0。
func CurrentPrice(base, discountPercentage, discountAmount decimal.Decimal) decimal.Decimal {
	switch {
	case discountPercentage.IsPositive():
		pct := decimal.Min(discountPercentage, hundred)
		return roundCents(base.Mul(decimal.NewFromInt(1).Sub(pct.Div(hundred))))
	case discountAmount.IsPositive():
		return roundCents(decimal.Max(base.Sub(discountAmount), decimal.Zero))
	default:
		return roundCents(base)
	}
}

// VariantPrice 规格价 = 商品现价 + 规格加价（加价可为负，结果不小于 0）
func VariantPrice(productCurrent, additional decimal.Decimal) decimal.Decimal {
	return roundCents(decimal.Max(productCurrent.Add(additional), decimal.Zero))
}

// Savings 原价与现价差额
func Savings(base, current decimal.Decimal) decimal.Decimal {
	return roundCents(decimal.Max(base.Sub(current), decimal.Zero))
}

// IsOnSale 是否处于折扣中
func IsOnSale(discountPercentage, discountAmount decimal.Decimal) bool {
	return discountPercentage.IsPositive() || discountAmount.IsPositive()
}

// IsLowStock 库存是否低于等于预警值
func IsLowStock(stock, threshold int) bool {
	return stock <= threshold
}

// LineTotal 单价乘数量
func LineTotal(line Line) decimal.Decimal {
	if line.Quantity <= 0 {
		return decimal.Zero
	}
	return roundCents(line.UnitPrice).Mul(decimal.NewFromInt(int64(line.Quantity)))
}

// Subtotal 所有行小计之和
func Subtotal(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, line := range lines {
		sum = sum.Add(LineTotal(line))
	}
	return sum
}

// Tax 按固定税率计税
func Tax(subtotal decimal.Decimal) decimal.Decimal {
	return roundCents(subtotal.Mul(TaxRate))
}

// Shipping 小计达到门槛免运费，否则收取固定运费
func Shipping(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(FreeShippingThreshold) {
		return decimal.Zero
	}
	return FlatShipping
}

// Total 小计 + 税 + 运费 - 优惠，下限为 0
func Total(subtotal, tax, shipping, discount decimal.Decimal) decimal.Decimal {
	total := subtotal.Add(tax).Add(shipping).Sub(discount)
	if total.IsNegative() {
		return decimal.Zero
	}
	return roundCents(total)
}

// Summarize 计算完整金额汇总
func Summarize(lines []Line, discount decimal.Decimal) Summary {
	subtotal := Subtotal(lines)
	tax := Tax(subtotal)
	shipping := Shipping(subtotal)
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	discount = roundCents(discount)
	return Summary{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Discount: discount,
		Total:    Total(subtotal, tax, shipping, discount),
	}
}

func roundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
