package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/padaria-next/internal/constants"
	"github.com/padaria-next/internal/models"
	"github.com/padaria-next/internal/requirement"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrDeliveryOrderNotFound 订单不存在或不再处于待交付状态
	ErrDeliveryOrderNotFound = errors.New("delivery order not found or not pending")
	// ErrDeliveryInsufficientStock 交付时库存不足
	ErrDeliveryInsufficientStock = errors.New("insufficient stock for delivery")
	// ErrDeliveryInvalidQuantity 订单数量非法
	ErrDeliveryInvalidQuantity = errors.New("delivery order quantity invalid")
	// ErrExecutionTokenRequired 执行令牌为空
	ErrExecutionTokenRequired = errors.New("execution token required")
	// ErrExecutionTokenConflict 执行令牌已被其他订单使用
	ErrExecutionTokenConflict = errors.New("execution token already used by another order")
)

// StockShortage 单个商品的缺口
type StockShortage struct {
	ProductID   uint   `json:"product_id"`
	ProductName string `json:"product_name"`
	Required    int    `json:"required"`
	Available   int    `json:"available"`
	Missing     int    `json:"missing"`
}

// StockShortageError 交付事务内检测到的库存不足
type StockShortageError struct {
	OrderID   uint
	Shortages []StockShortage
}

func (e *StockShortageError) Error() string {
	parts := make([]string, 0, len(e.Shortages))
	for _, shortage := range e.Shortages {
		parts = append(parts, fmt.Sprintf("%s(#%d) missing %d", shortage.ProductName, shortage.ProductID, shortage.Missing))
	}
	return fmt.Sprintf("order %d: insufficient stock: %s", e.OrderID, strings.Join(parts, ", "))
}

// Is 支持 errors.Is(err, ErrDeliveryInsufficientStock)
func (e *StockShortageError) Is(target error) bool {
	return target == ErrDeliveryInsufficientStock
}

// DeliveryCommand 交付指令
type DeliveryCommand struct {
	OrderID        uint
	ExecutionToken string
	Note           string
}

// DeliveryReceipt 交付结果；Replayed 表示该令牌此前已成功执行，本次未写入任何数据
type DeliveryReceipt struct {
	OrderID        uint               `json:"order_id"`
	ExecutionToken string             `json:"execution_token"`
	Replayed       bool               `json:"replayed"`
	Lines          []requirement.Line `json:"lines"`
	TotalUnits     int                `json:"total_units"`
	DeliveredAt    time.Time          `json:"delivered_at"`
	Warnings       []string           `json:"warnings,omitempty"`
}

// DeliveryRepository 交付数据访问接口
type DeliveryRepository interface {
	CommitDelivery(ctx context.Context, cmd DeliveryCommand) (*DeliveryReceipt, error)
	GetExecutionByToken(ctx context.Context, token string) (*models.DeliveryExecution, error)
	ListExecutionsByOrder(ctx context.Context, orderID uint) ([]models.DeliveryExecution, error)
}

// GormDeliveryRepository GORM 实现
type GormDeliveryRepository struct {
	db *gorm.DB
}

// NewDeliveryRepository 创建交付仓库
func NewDeliveryRepository(db *gorm.DB) *GormDeliveryRepository {
	return &GormDeliveryRepository{db: db}
}

// GetExecutionByToken 根据令牌获取执行记录
func (r *GormDeliveryRepository) GetExecutionByToken(ctx context.Context, token string) (*models.DeliveryExecution, error) {
	return getExecutionByToken(r.db.WithContext(ctx), token)
}

func getExecutionByToken(db *gorm.DB, token string) (*models.DeliveryExecution, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}
	var execution models.DeliveryExecution
	if err := db.Where("execution_token = ?", token).First(&execution).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &execution, nil
}

// ListExecutionsByOrder 获取订单的执行记录
func (r *GormDeliveryRepository) ListExecutionsByOrder(ctx context.Context, orderID uint) ([]models.DeliveryExecution, error) {
	var executions []models.DeliveryExecution
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("id ASC").Find(&executions).Error; err != nil {
		return nil, err
	}
	return executions, nil
}

// CommitDelivery 在单个事务内完成交付：
// 锁定订单 → 同令牌重放 → 重新解析需求 → 按 ID 升序锁定商品 → 复核余额 → 写出库流水、执行记录并更新订单。
// 任一步失败整体回滚，库存不会被扣成负数。
func (r *GormDeliveryRepository) CommitDelivery(ctx context.Context, cmd DeliveryCommand) (*DeliveryReceipt, error) {
	token := strings.TrimSpace(cmd.ExecutionToken)
	if token == "" {
		return nil, ErrExecutionTokenRequired
	}
	var receipt *DeliveryReceipt
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.DeliveryOrder
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, cmd.OrderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrDeliveryOrderNotFound
			}
			return err
		}

		execution, err := getExecutionByToken(tx, token)
		if err != nil {
			return err
		}
		if execution != nil {
			if execution.OrderID != order.ID {
				return ErrExecutionTokenConflict
			}
			replayed, err := receiptFromExecution(execution)
			if err != nil {
				return err
			}
			receipt = replayed
			return nil
		}
		if order.Status != constants.OrderStatusPending {
			return ErrDeliveryOrderNotFound
		}
		if order.TotalQuantity <= 0 {
			return ErrDeliveryInvalidQuantity
		}

		catalog, err := listCatalog(tx, true)
		if err != nil {
			return err
		}
		items, err := listCustomItems(tx, order.ID)
		if err != nil {
			return err
		}
		req, err := requirement.Build(&order, catalog, items)
		if err != nil {
			if errors.Is(err, requirement.ErrInvalidQuantity) {
				return fmt.Errorf("%w: %v", ErrDeliveryInvalidQuantity, err)
			}
			return err
		}

		productIDs := make([]uint, 0, len(req.Lines))
		for _, line := range req.Lines {
			if line.Quantity > 0 {
				productIDs = append(productIDs, line.ProductID)
			}
		}
		if err := lockProducts(tx, productIDs); err != nil {
			return err
		}
		balances, err := balancesOf(tx, productIDs)
		if err != nil {
			return err
		}
		shortages := make([]StockShortage, 0)
		for _, line := range req.Lines {
			if line.Quantity <= 0 {
				continue
			}
			available := balances[line.ProductID]
			if available < line.Quantity {
				shortages = append(shortages, StockShortage{
					ProductID:   line.ProductID,
					ProductName: line.ProductName,
					Required:    line.Quantity,
					Available:   available,
					Missing:     line.Quantity - available,
				})
			}
		}
		if len(shortages) > 0 {
			return &StockShortageError{OrderID: order.ID, Shortages: shortages}
		}

		now := time.Now()
		orderID := order.ID
		movements := make([]*models.StockMovement, 0, len(productIDs))
		for _, line := range req.Lines {
			if line.Quantity <= 0 {
				continue
			}
			movements = append(movements, &models.StockMovement{
				ProductID:      line.ProductID,
				Kind:           constants.MovementKindSaida,
				Direction:      constants.MovementDirectionOut,
				Quantity:       line.Quantity,
				OrderID:        &orderID,
				ExecutionToken: token,
				Note:           deliveryMovementNote(order.OrderNo, cmd.Note),
				CreatedAt:      now,
			})
		}
		if len(movements) > 0 {
			if err := tx.Create(movements).Error; err != nil {
				return err
			}
		}

		linesJSON, err := encodeDeliveryLines(req.Lines)
		if err != nil {
			return err
		}
		if err := tx.Create(&models.DeliveryExecution{
			OrderID:        order.ID,
			ExecutionToken: token,
			TotalUnits:     req.TotalUnits(),
			LinesJSON:      linesJSON,
			Note:           strings.TrimSpace(cmd.Note),
			CreatedAt:      now,
		}).Error; err != nil {
			return err
		}

		result := tx.Model(&models.DeliveryOrder{}).
			Where("id = ? AND status = ?", order.ID, constants.OrderStatusPending).
			Updates(map[string]interface{}{
				"status":          constants.OrderStatusDelivered,
				"delivered_at":    now,
				"execution_token": token,
				"updated_at":      now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrDeliveryOrderNotFound
		}

		receipt = &DeliveryReceipt{
			OrderID:        order.ID,
			ExecutionToken: token,
			Lines:          req.Lines,
			TotalUnits:     req.TotalUnits(),
			DeliveredAt:    now,
			Warnings:       req.Warnings,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

func deliveryMovementNote(orderNo, note string) string {
	base := fmt.Sprintf("delivery %s", orderNo)
	if trimmed := strings.TrimSpace(note); trimmed != "" {
		return base + ": " + trimmed
	}
	return base
}

func encodeDeliveryLines(lines []requirement.Line) (models.JSON, error) {
	raw, err := json.Marshal(struct {
		Lines []requirement.Line `json:"lines"`
	}{Lines: lines})
	if err != nil {
		return nil, err
	}
	var out models.JSON
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func receiptFromExecution(execution *models.DeliveryExecution) (*DeliveryReceipt, error) {
	receipt := &DeliveryReceipt{
		OrderID:        execution.OrderID,
		ExecutionToken: execution.ExecutionToken,
		Replayed:       true,
		TotalUnits:     execution.TotalUnits,
		DeliveredAt:    execution.CreatedAt,
		Lines:          []requirement.Line{},
	}
	if len(execution.LinesJSON) == 0 {
		return receipt, nil
	}
	raw, err := json.Marshal(execution.LinesJSON)
	if err != nil {
		return nil, err
	}
	var snapshot struct {
		Lines []requirement.Line `json:"lines"`
	}
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, err
	}
	if snapshot.Lines != nil {
		receipt.Lines = snapshot.Lines
	}
	return receipt, nil
}
