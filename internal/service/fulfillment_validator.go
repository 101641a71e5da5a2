package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/padaria-next/internal/requirement"
)

// ShortageEntry 库存缺口
type ShortageEntry struct {
	ProductID   uint   `json:"product_id"`
	ProductName string `json:"product_name"`
	Required    int    `json:"required"`
	Available   int    `json:"available"`
	Missing     int    `json:"missing"`
}

// Summary 返回可直接展示给操作员的描述
func (e ShortageEntry) Summary() string {
	return fmt.Sprintf("Product %s: needed %d, available %d, missing %d", e.ProductName, e.Required, e.Available, e.Missing)
}

// FulfillmentValidator 交付前库存校验（仅作提示，最终以原子交付内的复核为准）
type FulfillmentValidator struct {
	balances BalanceReader
}

// NewFulfillmentValidator 创建库存校验器
func NewFulfillmentValidator(balances BalanceReader) *FulfillmentValidator {
	return &FulfillmentValidator{balances: balances}
}

// Validate 汇总所有需求的商品总量，与当前余额逐一比较，返回按商品 ID 排序的缺口列表
func (v *FulfillmentValidator) Validate(ctx context.Context, reqs []*requirement.Requirement) ([]ShortageEntry, error) {
	demand := make(map[uint]int)
	names := make(map[uint]string)
	for _, req := range reqs {
		if req == nil {
			continue
		}
		for _, line := range req.Lines {
			if line.Quantity <= 0 {
				continue
			}
			demand[line.ProductID] += line.Quantity
			if _, ok := names[line.ProductID]; !ok {
				names[line.ProductID] = line.ProductName
			}
		}
	}
	if len(demand) == 0 {
		return []ShortageEntry{}, nil
	}

	productIDs := make([]uint, 0, len(demand))
	for productID := range demand {
		productIDs = append(productIDs, productID)
	}
	sort.Slice(productIDs, func(i, j int) bool { return productIDs[i] < productIDs[j] })

	balances, err := v.balances.BalancesByProductIDs(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("read balances: %w", err)
	}
	shortages := make([]ShortageEntry, 0)
	for _, productID := range productIDs {
		required := demand[productID]
		available := balances[productID]
		if available >= required {
			continue
		}
		shortages = append(shortages, ShortageEntry{
			ProductID:   productID,
			ProductName: names[productID],
			Required:    required,
			Available:   available,
			Missing:     required - available,
		})
	}
	return shortages, nil
}
