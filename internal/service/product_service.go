package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/padaria-next/internal/allocation"
	"github.com/padaria-next/internal/logger"
	"github.com/padaria-next/internal/models"
	"github.com/padaria-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var hundredPercent = decimal.NewFromInt(100)

// ProductService 商品业务服务
type ProductService struct {
	repo       repository.ProductRepository
	categories repository.CategoryRepository
	cache      CatalogCache
	epsilon    decimal.Decimal
}

// NewProductService 创建商品服务，cache 可为 nil；epsilon 非正时使用默认误差
func NewProductService(repo repository.ProductRepository, categories repository.CategoryRepository, cache CatalogCache, epsilon decimal.Decimal) *ProductService {
	if !epsilon.IsPositive() {
		epsilon = allocation.Epsilon
	}
	return &ProductService{
		repo:       repo,
		categories: categories,
		cache:      cache,
		epsilon:    epsilon,
	}
}

// CreateProductInput 创建/更新商品输入
type CreateProductInput struct {
	CategoryID           *uint
	Slug                 string
	Name                 string
	AllocationPercentage decimal.Decimal
	IsActive             *bool
}

// AllocationInput 单个商品的分配百分比
type AllocationInput struct {
	ProductID  uint            `json:"product_id"`
	Percentage decimal.Decimal `json:"percentage"`
}

// List 商品列表
func (s *ProductService) List(ctx context.Context, filter repository.ProductListFilter) ([]models.Product, int64, error) {
	return s.repo.List(ctx, filter)
}

// GetByID 获取商品详情
func (s *ProductService) GetByID(ctx context.Context, id uint) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// Create 创建商品。百分比之和在 UpdateAllocations 时统一校验
func (s *ProductService) Create(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrProductNameRequired
	}
	if err := validatePercentage(input.AllocationPercentage); err != nil {
		return nil, err
	}
	slug := normalizeSlug(input.Slug, name)
	count, err := s.repo.CountBySlug(ctx, slug, 0)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrProductSlugExists
	}
	if err := s.ensureCategory(ctx, input.CategoryID); err != nil {
		return nil, err
	}

	product := models.Product{
		CategoryID:           input.CategoryID,
		Slug:                 slug,
		Name:                 name,
		AllocationPercentage: models.NewPercentage(input.AllocationPercentage),
		IsActive:             true,
	}
	if err := s.repo.Create(ctx, &product); err != nil {
		return nil, err
	}
	// is_active 带默认值，关闭状态需要创建后再写入
	if input.IsActive != nil && !*input.IsActive {
		product.IsActive = false
		if err := s.repo.Update(ctx, &product); err != nil {
			return nil, err
		}
	}
	s.invalidateCatalog(ctx)
	return s.GetByID(ctx, product.ID)
}

// Update 更新商品
func (s *ProductService) Update(ctx context.Context, id uint, input CreateProductInput) (*models.Product, error) {
	product, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = product.Name
	}
	if err := validatePercentage(input.AllocationPercentage); err != nil {
		return nil, err
	}
	slug := normalizeSlug(input.Slug, name)
	count, err := s.repo.CountBySlug(ctx, slug, id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrProductSlugExists
	}
	if err := s.ensureCategory(ctx, input.CategoryID); err != nil {
		return nil, err
	}

	product.Name = name
	product.Slug = slug
	product.CategoryID = input.CategoryID
	product.AllocationPercentage = models.NewPercentage(input.AllocationPercentage)
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	if err := s.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	s.invalidateCatalog(ctx)
	return s.GetByID(ctx, id)
}

// UpdateAllocations 批量更新分配百分比；更新后启用商品的百分比之和必须为 100（允许 epsilon 误差）
func (s *ProductService) UpdateAllocations(ctx context.Context, inputs []AllocationInput) ([]models.Product, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: no allocations given", ErrAllocationInvalid)
	}
	catalog, err := s.repo.ListCatalog(ctx, false)
	if err != nil {
		return nil, err
	}
	known := make(map[uint]models.Product, len(catalog))
	for _, product := range catalog {
		known[product.ID] = product
	}

	updates := make(map[uint]models.Percentage, len(inputs))
	for _, input := range inputs {
		if _, ok := known[input.ProductID]; !ok {
			return nil, fmt.Errorf("%w: %d", ErrProductNotFound, input.ProductID)
		}
		if err := validatePercentage(input.Percentage); err != nil {
			return nil, err
		}
		updates[input.ProductID] = models.NewPercentage(input.Percentage)
	}

	sum := decimal.Zero
	for _, product := range catalog {
		if !product.IsActive {
			continue
		}
		pct := product.AllocationPercentage
		if updated, ok := updates[product.ID]; ok {
			pct = updated
		}
		sum = sum.Add(pct.Decimal)
	}
	if sum.Sub(hundredPercent).Abs().GreaterThan(s.epsilon) {
		return nil, fmt.Errorf("%w: active products sum to %s", ErrAllocationOutOfBalance, sum.String())
	}

	if err := s.repo.UpdateAllocations(ctx, updates); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	s.invalidateCatalog(ctx)
	logger.FromContext(ctx).Infow("allocation_percentages_updated", "products", len(updates), "sum", sum.String())
	return s.repo.ListCatalog(ctx, false)
}

func (s *ProductService) ensureCategory(ctx context.Context, categoryID *uint) error {
	if categoryID == nil || s.categories == nil {
		return nil
	}
	category, err := s.categories.GetByID(ctx, *categoryID)
	if err != nil {
		return err
	}
	if category == nil {
		return ErrCategoryNotFound
	}
	return nil
}

func (s *ProductService) invalidateCatalog(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		logger.FromContext(ctx).Warnw("catalog_cache_invalidate_failed", "error", err)
	}
}

func validatePercentage(pct decimal.Decimal) error {
	if pct.IsNegative() || pct.GreaterThan(hundredPercent) {
		return fmt.Errorf("%w: %s", ErrAllocationInvalid, pct.String())
	}
	return nil
}

func normalizeSlug(slug, name string) string {
	value := strings.TrimSpace(slug)
	if value == "" {
		value = name
	}
	value = strings.ToLower(value)
	return strings.Join(strings.Fields(value), "-")
}
