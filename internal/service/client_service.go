package service

import (
	"context"
	"strings"

	"github.com/padaria-next/internal/models"
	"github.com/padaria-next/internal/repository"
)

// ClientService 客户业务服务
type ClientService struct {
	repo repository.ClientRepository
}

// NewClientService 创建客户服务
func NewClientService(repo repository.ClientRepository) *ClientService {
	return &ClientService{repo: repo}
}

// CreateClientInput 创建客户输入
type CreateClientInput struct {
	Name    string
	Phone   string
	Address string
}

// List 客户列表
func (s *ClientService) List(ctx context.Context, filter repository.ClientListFilter) ([]models.Client, int64, error) {
	return s.repo.List(ctx, filter)
}

// Create 创建客户
func (s *ClientService) Create(ctx context.Context, input CreateClientInput) (*models.Client, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrClientNameRequired
	}
	client := models.Client{
		Name:     name,
		Phone:    strings.TrimSpace(input.Phone),
		Address:  strings.TrimSpace(input.Address),
		IsActive: true,
	}
	if err := s.repo.Create(ctx, &client); err != nil {
		return nil, err
	}
	return &client, nil
}
