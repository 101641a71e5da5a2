package cache

import (
	"context"
	"time"

	"github.com/padaria-next/internal/models"
)

const catalogCacheKey = "catalog:products:active"

// DefaultCatalogTTL 商品目录缓存默认有效期
const DefaultCatalogTTL = 60 * time.Second

// CatalogCache 启用商品目录缓存（Redis），分配百分比更新后必须失效
type CatalogCache struct {
	ttl time.Duration
}

// NewCatalogCache 创建商品目录缓存
func NewCatalogCache(ttl time.Duration) *CatalogCache {
	if ttl <= 0 {
		ttl = DefaultCatalogTTL
	}
	return &CatalogCache{ttl: ttl}
}

// TTL 返回缓存有效期
func (c *CatalogCache) TTL() time.Duration {
	if c == nil {
		return 0
	}
	return c.ttl
}

// Get 读取缓存目录，未启用或未命中时返回 false
func (c *CatalogCache) Get(ctx context.Context) ([]models.Product, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	var products []models.Product
	hit, err := GetJSON(ctx, catalogCacheKey, &products)
	if err != nil || !hit {
		return nil, false, err
	}
	return products, true, nil
}

// Set 写入缓存目录
func (c *CatalogCache) Set(ctx context.Context, products []models.Product) error {
	if c == nil {
		return nil
	}
	return SetJSON(ctx, catalogCacheKey, products, c.ttl)
}

// Invalidate 删除缓存目录
func (c *CatalogCache) Invalidate(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return Del(ctx, catalogCacheKey)
}
