package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/padaria-next/internal/constants"
	"github.com/padaria-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrInvalidMovement 库存流水参数非法
	ErrInvalidMovement = errors.New("invalid stock movement")
)

// StockRepository 库存流水数据访问接口（余额始终由流水求和得出）
type StockRepository interface {
	BalanceOf(ctx context.Context, productID uint) (int, error)
	BalancesByProductIDs(ctx context.Context, productIDs []uint) (map[uint]int, error)
	LockProducts(ctx context.Context, productIDs []uint) error
	Append(ctx context.Context, movements ...*models.StockMovement) error
	ListMovements(ctx context.Context, filter MovementListFilter) ([]models.StockMovement, int64, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) StockRepository
}

// GormStockRepository GORM 实现
type GormStockRepository struct {
	db *gorm.DB
}

// NewStockRepository 创建库存流水仓库
func NewStockRepository(db *gorm.DB) *GormStockRepository {
	return &GormStockRepository{db: db}
}

// WithTx 绑定事务
func (r *GormStockRepository) WithTx(tx *gorm.DB) StockRepository {
	if tx == nil {
		return r
	}
	return &GormStockRepository{db: tx}
}

// Transaction 执行事务
func (r *GormStockRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// BalanceOf 返回单个商品的当前余额
func (r *GormStockRepository) BalanceOf(ctx context.Context, productID uint) (int, error) {
	balances, err := balancesOf(r.db.WithContext(ctx), []uint{productID})
	if err != nil {
		return 0, err
	}
	return balances[productID], nil
}

// BalancesByProductIDs 批量返回商品余额；productIDs 为空时返回所有有流水的商品
func (r *GormStockRepository) BalancesByProductIDs(ctx context.Context, productIDs []uint) (map[uint]int, error) {
	return balancesOf(r.db.WithContext(ctx), productIDs)
}

type balanceRow struct {
	ProductID uint
	Balance   int64
}

func balancesOf(db *gorm.DB, productIDs []uint) (map[uint]int, error) {
	query := db.Model(&models.StockMovement{}).
		Select("product_id, " + signedQuantityExpr("quantity") + " AS balance").
		Group("product_id")
	if len(productIDs) > 0 {
		query = query.Where("product_id IN ?", productIDs)
	}
	var rows []balanceRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}
	balances := make(map[uint]int, len(productIDs))
	for _, id := range productIDs {
		balances[id] = 0
	}
	for _, row := range rows {
		balances[row.ProductID] = int(row.Balance)
	}
	return balances, nil
}

// LockProducts 按 ID 升序对商品行加锁，需在事务内调用
func (r *GormStockRepository) LockProducts(ctx context.Context, productIDs []uint) error {
	return lockProducts(r.db.WithContext(ctx), productIDs)
}

func lockProducts(db *gorm.DB, productIDs []uint) error {
	if len(productIDs) == 0 {
		return nil
	}
	ids := make([]uint, len(productIDs))
	copy(ids, productIDs)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	var locked []models.Product
	return db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&locked).Error
}

// Append 追加库存流水
func (r *GormStockRepository) Append(ctx context.Context, movements ...*models.StockMovement) error {
	if len(movements) == 0 {
		return nil
	}
	for _, movement := range movements {
		if err := validateMovement(movement); err != nil {
			return err
		}
	}
	return r.db.WithContext(ctx).Create(movements).Error
}

func validateMovement(movement *models.StockMovement) error {
	if movement == nil {
		return ErrInvalidMovement
	}
	if movement.ProductID == 0 {
		return fmt.Errorf("%w: product_id required", ErrInvalidMovement)
	}
	if movement.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive, got %d", ErrInvalidMovement, movement.Quantity)
	}
	switch movement.Direction {
	case constants.MovementDirectionIn, constants.MovementDirectionOut:
	default:
		return fmt.Errorf("%w: direction %q", ErrInvalidMovement, movement.Direction)
	}
	switch movement.Kind {
	case constants.MovementKindEntrada:
		if movement.Direction != constants.MovementDirectionIn {
			return fmt.Errorf("%w: entrada must be inbound", ErrInvalidMovement)
		}
	case constants.MovementKindSaida:
		if movement.Direction != constants.MovementDirectionOut {
			return fmt.Errorf("%w: saida must be outbound", ErrInvalidMovement)
		}
	case constants.MovementKindAjuste:
	default:
		return fmt.Errorf("%w: kind %q", ErrInvalidMovement, movement.Kind)
	}
	return nil
}

// ListMovements 分页查询库存流水
func (r *GormStockRepository) ListMovements(ctx context.Context, filter MovementListFilter) ([]models.StockMovement, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.StockMovement{})
	if filter.ProductID != 0 {
		query = query.Where("product_id = ?", filter.ProductID)
	}
	if filter.OrderID != 0 {
		query = query.Where("order_id = ?", filter.OrderID)
	}
	if kind := strings.TrimSpace(filter.Kind); kind != "" {
		query = query.Where("kind = ?", kind)
	}
	if token := strings.TrimSpace(filter.ExecutionToken); token != "" {
		query = query.Where("execution_token = ?", token)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var movements []models.StockMovement
	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := query.Order("id DESC").Find(&movements).Error; err != nil {
		return nil, 0, err
	}
	return movements, total, nil
}
