package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/padaria-next/internal/constants"
	"github.com/padaria-next/internal/models"

	"gorm.io/gorm"
)

// OrderRepository 配送订单数据访问接口
type OrderRepository interface {
	Create(ctx context.Context, order *models.DeliveryOrder, items []models.OrderCustomItem) error
	GetByID(ctx context.Context, id uint) (*models.DeliveryOrder, error)
	GetByOrderNo(ctx context.Context, orderNo string) (*models.DeliveryOrder, error)
	ListByIDs(ctx context.Context, ids []uint) ([]models.DeliveryOrder, error)
	List(ctx context.Context, filter OrderListFilter) ([]models.DeliveryOrder, int64, error)
	ListCustomItems(ctx context.Context, orderID uint) ([]models.OrderCustomItem, error)
	Cancel(ctx context.Context, id uint, note string) (int64, error)
	WithTx(tx *gorm.DB) OrderRepository
}

// GormOrderRepository GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建配送订单仓库
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderRepository) WithTx(tx *gorm.DB) OrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

// Create 创建订单与定制商品
func (r *GormOrderRepository) Create(ctx context.Context, order *models.DeliveryOrder, items []models.OrderCustomItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Client", "CustomItems").Create(order).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		order.CustomItems = items
		return nil
	})
}

// GetByID 根据 ID 获取订单（含客户与定制商品）
func (r *GormOrderRepository) GetByID(ctx context.Context, id uint) (*models.DeliveryOrder, error) {
	var order models.DeliveryOrder
	query := r.db.WithContext(ctx).Preload("Client").Preload("CustomItems", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	})
	if err := query.First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByOrderNo 根据订单号获取订单
func (r *GormOrderRepository) GetByOrderNo(ctx context.Context, orderNo string) (*models.DeliveryOrder, error) {
	var order models.DeliveryOrder
	if err := r.db.WithContext(ctx).Where("order_no = ?", strings.TrimSpace(orderNo)).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// ListByIDs 批量获取订单，结果按 ids 的顺序返回，缺失的订单被跳过
func (r *GormOrderRepository) ListByIDs(ctx context.Context, ids []uint) ([]models.DeliveryOrder, error) {
	if len(ids) == 0 {
		return []models.DeliveryOrder{}, nil
	}
	var rows []models.DeliveryOrder
	query := r.db.WithContext(ctx).Preload("Client").Preload("CustomItems", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	})
	if err := query.Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]models.DeliveryOrder, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}
	orders := make([]models.DeliveryOrder, 0, len(rows))
	seen := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if row, ok := byID[id]; ok {
			orders = append(orders, row)
		}
	}
	return orders, nil
}

// List 订单列表
func (r *GormOrderRepository) List(ctx context.Context, filter OrderListFilter) ([]models.DeliveryOrder, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.DeliveryOrder{})
	if filter.ClientID != 0 {
		query = query.Where("client_id = ?", filter.ClientID)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if mode := strings.TrimSpace(filter.Mode); mode != "" {
		query = query.Where("mode = ?", mode)
	}
	if orderNo := strings.TrimSpace(filter.OrderNo); orderNo != "" {
		condition, argCount := buildLikeCondition(r.db, []string{"order_no"})
		query = query.Where(condition, repeatLikeArgs("%"+orderNo+"%", argCount)...)
	}
	if filter.ScheduledFrom != nil {
		query = query.Where("scheduled_for >= ?", *filter.ScheduledFrom)
	}
	if filter.ScheduledTo != nil {
		query = query.Where("scheduled_for <= ?", *filter.ScheduledTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var orders []models.DeliveryOrder
	query = applyPagination(query.Preload("Client"), filter.Page, filter.PageSize)
	if err := query.Order("id DESC").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// ListCustomItems 获取订单定制商品
func (r *GormOrderRepository) ListCustomItems(ctx context.Context, orderID uint) ([]models.OrderCustomItem, error) {
	return listCustomItems(r.db.WithContext(ctx), orderID)
}

func listCustomItems(db *gorm.DB, orderID uint) ([]models.OrderCustomItem, error) {
	var items []models.OrderCustomItem
	if err := db.Where("order_id = ?", orderID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Cancel 取消待交付订单，返回受影响行数（0 表示订单不存在或已不是待交付状态）
func (r *GormOrderRepository) Cancel(ctx context.Context, id uint, note string) (int64, error) {
	updates := map[string]interface{}{
		"status":     constants.OrderStatusCanceled,
		"updated_at": time.Now(),
	}
	if trimmed := strings.TrimSpace(note); trimmed != "" {
		updates["note"] = trimmed
	}
	result := r.db.WithContext(ctx).Model(&models.DeliveryOrder{}).
		Where("id = ? AND status = ?", id, constants.OrderStatusPending).
		Updates(updates)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
