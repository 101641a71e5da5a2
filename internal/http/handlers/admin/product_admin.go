package admin

import (
	"errors"
	"strings"

	handlershared "github.com/padaria-next/internal/http/handlers/shared"
	"github.com/padaria-next/internal/http/response"
	"github.com/padaria-next/internal/repository"
	"github.com/padaria-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ProductRequest 创建/更新商品请求
type ProductRequest struct {
	CategoryID           *uint           `json:"category_id"`
	Slug                 string          `json:"slug"`
	Name                 string          `json:"name"`
	AllocationPercentage decimal.Decimal `json:"allocation_percentage"`
	IsActive             *bool           `json:"is_active"`
}

func (r ProductRequest) toInput() service.CreateProductInput {
	return service.CreateProductInput{
		CategoryID:           r.CategoryID,
		Slug:                 r.Slug,
		Name:                 r.Name,
		AllocationPercentage: r.AllocationPercentage,
		IsActive:             r.IsActive,
	}
}

// UpdateAllocationsRequest 批量更新分配百分比请求
type UpdateAllocationsRequest struct {
	Allocations []service.AllocationInput `json:"allocations" binding:"required"`
}

// ListProducts 商品列表
func (h *Handler) ListProducts(c *gin.Context) {
	page, pageSize := readPagination(c)
	products, total, err := h.ProductService.List(c.Request.Context(), repository.ProductListFilter{
		Page:       page,
		PageSize:   pageSize,
		CategoryID: handlershared.QueryUint(c, "category_id"),
		Search:     strings.TrimSpace(c.Query("search")),
		OnlyActive: c.Query("active") == "true",
	})
	if err != nil {
		respondError(c, response.CodeInternal, "failed to fetch products", err)
		return
	}
	response.SuccessWithPage(c, products, response.BuildPagination(page, pageSize, total))
}

// GetProduct 商品详情
func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	product, err := h.ProductService.GetByID(c.Request.Context(), id)
	if err != nil {
		respondProductError(c, err)
		return
	}
	response.Success(c, product)
}

// CreateProduct 创建商品
func (h *Handler) CreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	product, err := h.ProductService.Create(c.Request.Context(), req.toInput())
	if err != nil {
		respondProductError(c, err)
		return
	}
	response.Success(c, product)
}

// UpdateProduct 更新商品
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	product, err := h.ProductService.Update(c.Request.Context(), id, req.toInput())
	if err != nil {
		respondProductError(c, err)
		return
	}
	response.Success(c, product)
}

// UpdateAllocations 批量更新分配百分比，返回更新后的完整目录
func (h *Handler) UpdateAllocations(c *gin.Context) {
	var req UpdateAllocationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	catalog, err := h.ProductService.UpdateAllocations(c.Request.Context(), req.Allocations)
	if err != nil {
		respondProductError(c, err)
		return
	}
	response.Success(c, catalog)
}

func respondProductError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrProductNotFound):
		respondError(c, response.CodeNotFound, "product not found", nil)
	case errors.Is(err, service.ErrCategoryNotFound):
		respondError(c, response.CodeNotFound, "category not found", nil)
	case errors.Is(err, service.ErrProductNameRequired):
		respondError(c, response.CodeBadRequest, "product name required", nil)
	case errors.Is(err, service.ErrProductSlugExists):
		respondError(c, response.CodeConflict, "product slug already exists", nil)
	case errors.Is(err, service.ErrAllocationInvalid), errors.Is(err, service.ErrAllocationOutOfBalance):
		respondError(c, response.CodeUnprocessable, err.Error(), nil)
	default:
		respondError(c, response.CodeInternal, "failed to save product", err)
	}
}
