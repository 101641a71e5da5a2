// Package requirement 将配送订单解析为各商品的需求数量。
//
// Build 是唯一的规范计算：服务层预览/校验与存储层的原子交付都调用它，
// 保证两边的数量不会出现偏差。
package requirement

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/padaria-next/internal/allocation"
	"github.com/padaria-next/internal/constants"
	"github.com/padaria-next/internal/models"

	"github.com/shopspring/decimal"
)

var (
	// ErrConfiguration 标准订单没有可分配的启用商品
	ErrConfiguration = errors.New("no active products with allocation percentage")
	// ErrNoValidItems 定制订单没有任何可匹配的商品
	ErrNoValidItems = errors.New("customized order has no valid items")
	// ErrInvalidQuantity 订单数量非法
	ErrInvalidQuantity = errors.New("invalid order quantity")
	// ErrInvalidMode 未知订单模式
	ErrInvalidMode = errors.New("invalid order mode")
)

// Line 单个商品的需求
type Line struct {
	ProductID   uint   `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
}

// Requirement 单个订单的需求清单（每次交付尝试都重新计算，不持久化）
type Requirement struct {
	OrderID  uint     `json:"order_id"`
	Mode     string   `json:"mode"`
	Lines    []Line   `json:"lines"`
	Warnings []string `json:"warnings,omitempty"`
}

// TotalUnits 返回需求总数
func (r *Requirement) TotalUnits() int {
	if r == nil {
		return 0
	}
	total := 0
	for _, line := range r.Lines {
		total += line.Quantity
	}
	return total
}

// QuantityOf 返回指定商品的需求数量
func (r *Requirement) QuantityOf(productID uint) int {
	if r == nil {
		return 0
	}
	for _, line := range r.Lines {
		if line.ProductID == productID {
			return line.Quantity
		}
	}
	return 0
}

// Build 根据当前商品目录解析订单需求。
// catalog 可包含未启用商品，解析时只使用启用商品；customItems 仅定制订单使用。
func Build(order *models.DeliveryOrder, catalog []models.Product, customItems []models.OrderCustomItem) (*Requirement, error) {
	if order == nil {
		return nil, ErrInvalidQuantity
	}
	if order.TotalQuantity <= 0 {
		return nil, fmt.Errorf("%w: order %d total_quantity=%d", ErrInvalidQuantity, order.ID, order.TotalQuantity)
	}
	active := activeProducts(catalog)

	switch NormalizeMode(order.Mode) {
	case constants.OrderModeStandard:
		return buildStandard(order, active)
	case constants.OrderModeCustomized:
		return buildCustomized(order, active, customItems)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, order.Mode)
	}
}

func buildStandard(order *models.DeliveryOrder, active []models.Product) (*Requirement, error) {
	allocable := make([]models.Product, 0, len(active))
	percentages := make(map[uint]decimal.Decimal, len(active))
	for _, product := range active {
		if !product.AllocationPercentage.Decimal.IsPositive() {
			continue
		}
		allocable = append(allocable, product)
		percentages[product.ID] = product.AllocationPercentage.Decimal
	}
	if len(allocable) == 0 {
		return nil, ErrConfiguration
	}

	sorted := allocation.SortProducts(allocable)
	result, err := allocation.Allocate(percentages, order.TotalQuantity, allocation.ProductOrder(sorted))
	if err != nil {
		if errors.Is(err, allocation.ErrNoAllocableProducts) {
			return nil, ErrConfiguration
		}
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	req := &Requirement{
		OrderID: order.ID,
		Mode:    constants.OrderModeStandard,
		Lines:   make([]Line, 0, len(sorted)),
	}
	if result.Warning != "" {
		req.Warnings = append(req.Warnings, result.Warning)
	}
	for _, product := range sorted {
		req.Lines = append(req.Lines, Line{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    result.Quantities[product.ID],
		})
	}
	return req, nil
}

func buildCustomized(order *models.DeliveryOrder, active []models.Product, customItems []models.OrderCustomItem) (*Requirement, error) {
	index := newCatalogIndex(active)
	req := &Requirement{
		OrderID: order.ID,
		Mode:    constants.OrderModeCustomized,
	}
	merged := make(map[uint]int)
	for _, item := range customItems {
		if item.Quantity < 0 {
			return nil, fmt.Errorf("%w: item %q quantity=%d", ErrInvalidQuantity, item.ProductRef, item.Quantity)
		}
		product, ok := index.lookup(item.ProductRef)
		if !ok {
			req.Warnings = append(req.Warnings, fmt.Sprintf("product %q not found among active products, item dropped", strings.TrimSpace(item.ProductRef)))
			continue
		}
		merged[product.ID] += item.Quantity
	}
	if len(merged) == 0 {
		return nil, ErrNoValidItems
	}

	resolved := make([]models.Product, 0, len(merged))
	for _, product := range active {
		if _, ok := merged[product.ID]; ok {
			resolved = append(resolved, product)
		}
	}
	for _, product := range allocation.SortProducts(resolved) {
		req.Lines = append(req.Lines, Line{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    merged[product.ID],
		})
	}
	return req, nil
}

func activeProducts(catalog []models.Product) []models.Product {
	active := make([]models.Product, 0, len(catalog))
	for _, product := range catalog {
		if !product.IsActive || product.ID == 0 {
			continue
		}
		active = append(active, product)
	}
	return active
}

// NormalizeMode 去除空白并转为小写，空值视为标准订单
func NormalizeMode(mode string) string {
	normalized := strings.ToLower(strings.TrimSpace(mode))
	if normalized == "" {
		return constants.OrderModeStandard
	}
	return normalized
}

type catalogIndex struct {
	byID   map[uint]models.Product
	bySlug map[string]models.Product
	byName map[string]models.Product
}

func newCatalogIndex(products []models.Product) catalogIndex {
	index := catalogIndex{
		byID:   make(map[uint]models.Product, len(products)),
		bySlug: make(map[string]models.Product, len(products)),
		byName: make(map[string]models.Product, len(products)),
	}
	// 同名商品按 ID 升序取第一个
	sorted := make([]models.Product, len(products))
	copy(sorted, products)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	for _, product := range sorted {
		index.byID[product.ID] = product
		if slug := strings.ToLower(strings.TrimSpace(product.Slug)); slug != "" {
			if _, exists := index.bySlug[slug]; !exists {
				index.bySlug[slug] = product
			}
		}
		if name := strings.ToLower(strings.TrimSpace(product.Name)); name != "" {
			if _, exists := index.byName[name]; !exists {
				index.byName[name] = product
			}
		}
	}
	return index
}

func (idx catalogIndex) lookup(ref string) (models.Product, bool) {
	trimmed := strings.TrimSpace(ref)
	if trimmed == "" {
		return models.Product{}, false
	}
	if id, err := strconv.ParseUint(trimmed, 10, 64); err == nil {
		if product, ok := idx.byID[uint(id)]; ok {
			return product, true
		}
	}
	key := strings.ToLower(trimmed)
	if product, ok := idx.bySlug[key]; ok {
		return product, true
	}
	if product, ok := idx.byName[key]; ok {
		return product, true
	}
	return models.Product{}, false
}
