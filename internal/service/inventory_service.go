package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/padaria-next/internal/constants"
	"github.com/padaria-next/internal/logger"
	"github.com/padaria-next/internal/models"
	"github.com/padaria-next/internal/repository"

	"gorm.io/gorm"
)

// InventoryService 库存流水与余额服务
type InventoryService struct {
	stock             repository.StockRepository
	products          repository.ProductRepository
	lowStockThreshold int
}

// NewInventoryService 创建库存服务
func NewInventoryService(stock repository.StockRepository, products repository.ProductRepository, lowStockThreshold int) *InventoryService {
	if lowStockThreshold < 0 {
		lowStockThreshold = 0
	}
	return &InventoryService{
		stock:             stock,
		products:          products,
		lowStockThreshold: lowStockThreshold,
	}
}

// RecordMovementInput 手工录入库存流水（生产入库或盘点调整）
type RecordMovementInput struct {
	ProductID uint
	Kind      string
	Direction string
	Quantity  int
	Note      string
}

// BalanceView 商品余额
type BalanceView struct {
	ProductID   uint   `json:"product_id"`
	ProductName string `json:"product_name"`
	IsActive    bool   `json:"is_active"`
	Balance     int    `json:"balance"`
	LowStock    bool   `json:"low_stock"`
}

// LowStockThreshold 返回低库存阈值
func (s *InventoryService) LowStockThreshold() int {
	return s.lowStockThreshold
}

// RecordMovement 录入 entrada 或 ajuste；出库调整不能使余额为负，saida 只能由交付产生
func (s *InventoryService) RecordMovement(ctx context.Context, input RecordMovementInput) (*models.StockMovement, error) {
	kind := strings.ToLower(strings.TrimSpace(input.Kind))
	direction := strings.ToLower(strings.TrimSpace(input.Direction))
	switch kind {
	case constants.MovementKindEntrada:
		if direction == "" {
			direction = constants.MovementDirectionIn
		}
		if direction != constants.MovementDirectionIn {
			return nil, fmt.Errorf("%w: entrada must be inbound", ErrMovementInvalid)
		}
	case constants.MovementKindAjuste:
		if direction != constants.MovementDirectionIn && direction != constants.MovementDirectionOut {
			return nil, fmt.Errorf("%w: ajuste requires direction in or out", ErrMovementInvalid)
		}
	default:
		return nil, fmt.Errorf("%w: kind %q cannot be recorded manually", ErrMovementInvalid, input.Kind)
	}
	if input.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrMovementInvalid)
	}
	product, err := s.products.GetByID(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	movement := &models.StockMovement{
		ProductID: product.ID,
		Kind:      kind,
		Direction: direction,
		Quantity:  input.Quantity,
		Note:      strings.TrimSpace(input.Note),
	}
	err = s.stock.Transaction(func(tx *gorm.DB) error {
		repo := s.stock.WithTx(tx)
		if direction == constants.MovementDirectionOut {
			if err := repo.LockProducts(ctx, []uint{product.ID}); err != nil {
				return err
			}
			balance, err := repo.BalanceOf(ctx, product.ID)
			if err != nil {
				return err
			}
			if balance < input.Quantity {
				return fmt.Errorf("%w: %s balance %d, adjustment %d", ErrMovementWouldGoNegative, product.Name, balance, input.Quantity)
			}
		}
		return repo.Append(ctx, movement)
	})
	if err != nil {
		if errors.Is(err, repository.ErrInvalidMovement) {
			return nil, fmt.Errorf("%w: %v", ErrMovementInvalid, err)
		}
		return nil, err
	}
	logger.FromContext(ctx).Infow("stock_movement_recorded",
		"product_id", movement.ProductID,
		"kind", movement.Kind,
		"direction", movement.Direction,
		"quantity", movement.Quantity,
	)
	return movement, nil
}

// Balances 返回商品余额；productIDs 为空时返回全部商品
func (s *InventoryService) Balances(ctx context.Context, productIDs []uint) ([]BalanceView, error) {
	var (
		products []models.Product
		err      error
	)
	if len(productIDs) == 0 {
		products, err = s.products.ListCatalog(ctx, false)
	} else {
		products, err = s.products.ListByIDs(ctx, productIDs)
	}
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(products))
	for _, product := range products {
		ids = append(ids, product.ID)
	}
	if len(ids) == 0 {
		return []BalanceView{}, nil
	}
	balances, err := s.stock.BalancesByProductIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	views := make([]BalanceView, 0, len(products))
	for _, product := range products {
		balance := balances[product.ID]
		views = append(views, BalanceView{
			ProductID:   product.ID,
			ProductName: product.Name,
			IsActive:    product.IsActive,
			Balance:     balance,
			LowStock:    balance <= s.lowStockThreshold,
		})
	}
	return views, nil
}

// LowStock 返回余额不高于阈值的启用商品
func (s *InventoryService) LowStock(ctx context.Context, productIDs []uint) ([]BalanceView, error) {
	views, err := s.Balances(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	low := make([]BalanceView, 0)
	for _, view := range views {
		if view.IsActive && view.LowStock {
			low = append(low, view)
		}
	}
	return low, nil
}

// ListMovements 查询库存流水
func (s *InventoryService) ListMovements(ctx context.Context, filter repository.MovementListFilter) ([]models.StockMovement, int64, error) {
	return s.stock.ListMovements(ctx, filter)
}
