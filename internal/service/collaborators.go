package service

import (
	"context"

	"github.com/padaria-next/internal/models"
	"github.com/padaria-next/internal/queue"
	"github.com/padaria-next/internal/repository"
)

// CatalogReader 商品目录读取
type CatalogReader interface {
	ListCatalog(ctx context.Context, onlyActive bool) ([]models.Product, error)
}

// CustomItemReader 定制订单商品读取
type CustomItemReader interface {
	ListCustomItems(ctx context.Context, orderID uint) ([]models.OrderCustomItem, error)
}

// OrderReader 配送订单读取
type OrderReader interface {
	GetByID(ctx context.Context, id uint) (*models.DeliveryOrder, error)
	ListByIDs(ctx context.Context, ids []uint) ([]models.DeliveryOrder, error)
}

// BalanceReader 库存余额读取
type BalanceReader interface {
	BalancesByProductIDs(ctx context.Context, productIDs []uint) (map[uint]int, error)
}

// DeliveryCommitter 原子交付（由存储层保证单事务与令牌幂等）
type DeliveryCommitter interface {
	CommitDelivery(ctx context.Context, cmd repository.DeliveryCommand) (*repository.DeliveryReceipt, error)
}

// CatalogCache 可注入的商品目录缓存
type CatalogCache interface {
	Get(ctx context.Context) ([]models.Product, bool, error)
	Set(ctx context.Context, products []models.Product) error
	Invalidate(ctx context.Context) error
}

// CommitLocker 按订单的尽力而为锁，获取失败不阻塞交付
type CommitLocker interface {
	Lock(ctx context.Context, orderID uint) (func(), error)
}

// DeliveryEventPublisher 交付事件投递
type DeliveryEventPublisher interface {
	EnqueueDeliveryConfirmed(payload queue.DeliveryConfirmedPayload) error
}

// BatchTaskPublisher 批量确认任务投递
type BatchTaskPublisher interface {
	EnqueueDeliveryBatchConfirm(payload queue.DeliveryBatchConfirmPayload) error
}
