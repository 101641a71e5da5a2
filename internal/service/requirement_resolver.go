package service

import (
	"context"
	"fmt"

	"github.com/padaria-next/internal/constants"
	"github.com/padaria-next/internal/logger"
	"github.com/padaria-next/internal/models"
	"github.com/padaria-next/internal/requirement"
)

// RequirementResolver 订单需求解析服务（每次调用都基于当前目录重新计算）
type RequirementResolver struct {
	catalog CatalogReader
	items   CustomItemReader
	cache   CatalogCache
}

// NewRequirementResolver 创建需求解析服务，cache 可为 nil
func NewRequirementResolver(catalog CatalogReader, items CustomItemReader, cache CatalogCache) *RequirementResolver {
	return &RequirementResolver{
		catalog: catalog,
		items:   items,
		cache:   cache,
	}
}

// Catalog 返回启用商品目录，优先读取缓存；缓存故障时回退数据库
func (r *RequirementResolver) Catalog(ctx context.Context) ([]models.Product, error) {
	if r.cache != nil {
		products, hit, err := r.cache.Get(ctx)
		if err != nil {
			logger.FromContext(ctx).Warnw("catalog_cache_get_failed", "error", err)
		} else if hit {
			return products, nil
		}
	}
	products, err := r.catalog.ListCatalog(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	if r.cache != nil {
		if err := r.cache.Set(ctx, products); err != nil {
			logger.FromContext(ctx).Warnw("catalog_cache_set_failed", "error", err)
		}
	}
	return products, nil
}

// Resolve 解析单个订单的需求清单
func (r *RequirementResolver) Resolve(ctx context.Context, order *models.DeliveryOrder) (*requirement.Requirement, error) {
	if order == nil || order.ID == 0 {
		return nil, ErrOrderNotFound
	}
	catalog, err := r.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	return r.resolveWithCatalog(ctx, order, catalog)
}

// ResolveAll 使用同一份目录快照解析多个订单，任一失败立即返回
func (r *RequirementResolver) ResolveAll(ctx context.Context, orders []models.DeliveryOrder) ([]*requirement.Requirement, error) {
	catalog, err := r.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	reqs := make([]*requirement.Requirement, 0, len(orders))
	for i := range orders {
		req, err := r.resolveWithCatalog(ctx, &orders[i], catalog)
		if err != nil {
			return nil, &OrderResolveError{OrderID: orders[i].ID, OrderNo: orders[i].OrderNo, ClientName: orders[i].ClientName(), Err: err}
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

func (r *RequirementResolver) resolveWithCatalog(ctx context.Context, order *models.DeliveryOrder, catalog []models.Product) (*requirement.Requirement, error) {
	var items []models.OrderCustomItem
	if requirement.NormalizeMode(order.Mode) == constants.OrderModeCustomized {
		loaded, err := r.items.ListCustomItems(ctx, order.ID)
		if err != nil {
			return nil, fmt.Errorf("load custom items for order %d: %w", order.ID, err)
		}
		items = loaded
	}
	req, err := requirement.Build(order, catalog, items)
	if err != nil {
		return nil, err
	}
	for _, warning := range req.Warnings {
		logger.FromContext(ctx).Warnw("requirement_resolve_warning",
			"order_id", order.ID,
			"warning", warning,
		)
	}
	return req, nil
}

// OrderResolveError 单个订单解析失败
type OrderResolveError struct {
	OrderID    uint
	OrderNo    string
	ClientName string
	Err        error
}

func (e *OrderResolveError) Error() string {
	return fmt.Sprintf("resolve order %d (%s): %v", e.OrderID, e.OrderNo, e.Err)
}

func (e *OrderResolveError) Unwrap() error {
	return e.Err
}
