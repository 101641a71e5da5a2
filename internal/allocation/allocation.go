// Package allocation 标准订单按百分比拆分为各商品整数数量（最大余数法）。
package allocation

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/padaria-next/internal/models"

	"github.com/shopspring/decimal"
)

var (
	// ErrNegativeTotal 总数量为负
	ErrNegativeTotal = errors.New("allocation total must not be negative")
	// ErrPercentageOutOfRange 百分比不在 [0,100]
	ErrPercentageOutOfRange = errors.New("allocation percentage out of range")
	// ErrNoAllocableProducts 没有可分配的商品（百分比之和为 0）
	ErrNoAllocableProducts = errors.New("no allocable products")
)

// Epsilon 百分比之和与 100 的允许误差
var Epsilon = decimal.RequireFromString("0.01")

var (
	hundred = decimal.NewFromInt(100)
)

// Result 分配结果
type Result struct {
	Quantities    map[uint]int
	Order         []uint
	PercentageSum decimal.Decimal
	Balanced      bool
	Warning       string
}

// Total 返回分配数量之和
func (r *Result) Total() int {
	if r == nil {
		return 0
	}
	total := 0
	for _, qty := range r.Quantities {
		total += qty
	}
	return total
}

type share struct {
	productID uint
	position  int
	floor     int
	remainder decimal.Decimal
}

// Allocate 按百分比将 total 拆分到各商品，结果之和严格等于 total。
// 百分比按其总和归一化；总和偏离 100 时仅返回警告。
// 余数逐个分配给小数部分最大的商品，相同时按 order 中的位置靠前者优先。
func Allocate(percentages map[uint]decimal.Decimal, total int, order []uint) (*Result, error) {
	if total < 0 {
		return nil, ErrNegativeTotal
	}
	for productID, pct := range percentages {
		if pct.IsNegative() || pct.GreaterThan(hundred) {
			return nil, fmt.Errorf("%w: product %d = %s", ErrPercentageOutOfRange, productID, pct.String())
		}
	}

	sequence := normalizeOrder(percentages, order)
	sum := decimal.Zero
	for _, productID := range sequence {
		sum = sum.Add(percentages[productID])
	}

	result := &Result{
		Quantities:    make(map[uint]int, len(sequence)),
		Order:         sequence,
		PercentageSum: sum,
		Balanced:      sum.Sub(hundred).Abs().LessThanOrEqual(Epsilon),
	}
	if !result.Balanced {
		result.Warning = fmt.Sprintf("allocation percentages sum to %s, expected 100; using them as relative weights", sum.String())
	}
	for _, productID := range sequence {
		result.Quantities[productID] = 0
	}
	if total == 0 {
		return result, nil
	}
	if !sum.IsPositive() {
		return nil, ErrNoAllocableProducts
	}

	totalDec := decimal.NewFromInt(int64(total))
	shares := make([]share, 0, len(sequence))
	assigned := 0
	for position, productID := range sequence {
		pct := percentages[productID]
		if !pct.IsPositive() {
			continue
		}
		// num / sum 的整数部分与余数均精确计算，避免浮点误差影响排序
		num := totalDec.Mul(pct)
		rem := num.Mod(sum)
		floor := int(num.Sub(rem).Div(sum).IntPart())
		shares = append(shares, share{
			productID: productID,
			position:  position,
			floor:     floor,
			remainder: rem,
		})
		assigned += floor
	}

	sort.SliceStable(shares, func(i, j int) bool {
		cmp := shares[i].remainder.Cmp(shares[j].remainder)
		if cmp != 0 {
			return cmp > 0
		}
		return shares[i].position < shares[j].position
	})
	leftover := total - assigned
	for i := range shares {
		qty := shares[i].floor
		if i < leftover {
			qty++
		}
		result.Quantities[shares[i].productID] = qty
	}
	return result, nil
}

// normalizeOrder 去重 order，并把未出现在 order 中的商品按 ID 升序追加。
func normalizeOrder(percentages map[uint]decimal.Decimal, order []uint) []uint {
	seen := make(map[uint]struct{}, len(order))
	sequence := make([]uint, 0, len(percentages))
	for _, productID := range order {
		if _, ok := seen[productID]; ok {
			continue
		}
		seen[productID] = struct{}{}
		sequence = append(sequence, productID)
	}
	missing := make([]uint, 0)
	for productID := range percentages {
		if _, ok := seen[productID]; ok {
			continue
		}
		missing = append(missing, productID)
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	return append(sequence, missing...)
}

// SortProducts 按 分类排序 → 名称 → ID 排列商品，作为分配的确定性顺序。
// 无分类排序的商品排在最后。
func SortProducts(products []models.Product) []models.Product {
	sorted := make([]models.Product, len(products))
	copy(sorted, products)
	sort.SliceStable(sorted, func(i, j int) bool {
		oi, oj := sorted[i].CategoryOrder(), sorted[j].CategoryOrder()
		switch {
		case oi != nil && oj == nil:
			return true
		case oi == nil && oj != nil:
			return false
		case oi != nil && oj != nil && *oi != *oj:
			return *oi < *oj
		}
		ni := strings.ToLower(strings.TrimSpace(sorted[i].Name))
		nj := strings.ToLower(strings.TrimSpace(sorted[j].Name))
		if ni != nj {
			return ni < nj
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}

// ProductOrder 返回排序后的商品 ID 序列
func ProductOrder(products []models.Product) []uint {
	sorted := SortProducts(products)
	ids := make([]uint, 0, len(sorted))
	for _, product := range sorted {
		ids = append(ids, product.ID)
	}
	return ids
}
