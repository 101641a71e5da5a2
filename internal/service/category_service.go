package service

import (
	"context"
	"strings"

	"github.com/padaria-next/internal/models"
	"github.com/padaria-next/internal/repository"
)

// CategoryService 分类业务服务
type CategoryService struct {
	repo  repository.CategoryRepository
	cache CatalogCache
}

// NewCategoryService 创建分类服务
func NewCategoryService(repo repository.CategoryRepository, cache CatalogCache) *CategoryService {
	return &CategoryService{repo: repo, cache: cache}
}

// CreateCategoryInput 创建/更新分类输入
type CreateCategoryInput struct {
	Slug      string
	Name      string
	SortOrder int
}

// List 获取分类列表
func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	return s.repo.List(ctx)
}

// Create 创建分类
func (s *CategoryService) Create(ctx context.Context, input CreateCategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrCategoryNameRequired
	}
	slug := normalizeSlug(input.Slug, name)
	existing, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrCategorySlugExists
	}

	category := models.Category{
		Slug:      slug,
		Name:      name,
		SortOrder: input.SortOrder,
	}
	if err := s.repo.Create(ctx, &category); err != nil {
		return nil, err
	}
	return &category, nil
}

// Update 更新分类；排序值影响标准订单分配顺序，因此需要使目录缓存失效
func (s *CategoryService) Update(ctx context.Context, id uint, input CreateCategoryInput) (*models.Category, error) {
	category, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}
	if name := strings.TrimSpace(input.Name); name != "" {
		category.Name = name
	}
	category.SortOrder = input.SortOrder
	if err := s.repo.Update(ctx, category); err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx)
	}
	return category, nil
}
