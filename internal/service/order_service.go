package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/padaria-next/internal/constants"
	"github.com/padaria-next/internal/logger"
	"github.com/padaria-next/internal/models"
	"github.com/padaria-next/internal/repository"
	"github.com/padaria-next/internal/requirement"
)

// OrderService 配送订单服务
type OrderService struct {
	orderRepo  repository.OrderRepository
	clientRepo repository.ClientRepository
}

// NewOrderService 创建配送订单服务
func NewOrderService(orderRepo repository.OrderRepository, clientRepo repository.ClientRepository) *OrderService {
	return &OrderService{
		orderRepo:  orderRepo,
		clientRepo: clientRepo,
	}
}

// CreateOrderInput 创建配送订单输入
type CreateOrderInput struct {
	ClientID      uint
	TotalQuantity int
	Mode          string
	ScheduledFor  *time.Time
	Note          string
	Items         []CustomItemInput
}

// CustomItemInput 定制订单商品输入
type CustomItemInput struct {
	ProductRef string `json:"product_ref"`
	Quantity   int    `json:"quantity"`
}

// Create 创建配送订单。定制订单未填写总量时以商品数量之和作为总量
func (s *OrderService) Create(ctx context.Context, input CreateOrderInput) (*models.DeliveryOrder, error) {
	client, err := s.clientRepo.GetByID(ctx, input.ClientID)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, ErrClientNotFound
	}

	mode := requirement.NormalizeMode(input.Mode)
	total := input.TotalQuantity
	var items []models.OrderCustomItem
	switch mode {
	case constants.OrderModeStandard:
		if len(input.Items) > 0 {
			return nil, fmt.Errorf("%w: standard orders do not take items", ErrInvalidOrderMode)
		}
	case constants.OrderModeCustomized:
		if len(input.Items) == 0 {
			return nil, ErrOrderItemsRequired
		}
		sum := 0
		items = make([]models.OrderCustomItem, 0, len(input.Items))
		for _, item := range input.Items {
			ref := strings.TrimSpace(item.ProductRef)
			if ref == "" {
				return nil, ErrOrderItemsRequired
			}
			if item.Quantity < 0 {
				return nil, fmt.Errorf("%w: item %q quantity=%d", ErrInvalidQuantity, ref, item.Quantity)
			}
			sum += item.Quantity
			items = append(items, models.OrderCustomItem{ProductRef: ref, Quantity: item.Quantity})
		}
		if total == 0 {
			total = sum
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidOrderMode, input.Mode)
	}
	if total <= 0 {
		return nil, fmt.Errorf("%w: total_quantity=%d", ErrInvalidQuantity, total)
	}

	order := &models.DeliveryOrder{
		OrderNo:       generateOrderNo(),
		ClientID:      client.ID,
		TotalQuantity: total,
		Mode:          mode,
		Status:        constants.OrderStatusPending,
		ScheduledFor:  input.ScheduledFor,
		Note:          strings.TrimSpace(input.Note),
	}
	if err := s.orderRepo.Create(ctx, order, items); err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Infow("delivery_order_created",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"client_id", order.ClientID,
		"mode", order.Mode,
		"total_quantity", order.TotalQuantity,
	)
	return s.Get(ctx, order.ID)
}

// Get 获取配送订单
func (s *OrderService) Get(ctx context.Context, id uint) (*models.DeliveryOrder, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// List 配送订单列表
func (s *OrderService) List(ctx context.Context, filter repository.OrderListFilter) ([]models.DeliveryOrder, int64, error) {
	return s.orderRepo.List(ctx, filter)
}

// Cancel 取消待交付订单
func (s *OrderService) Cancel(ctx context.Context, id uint, note string) (*models.DeliveryOrder, error) {
	affected, err := s.orderRepo.Cancel(ctx, id, strings.TrimSpace(note))
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		order, err := s.orderRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if order == nil {
			return nil, ErrOrderNotFound
		}
		return nil, ErrOrderNotPending
	}
	logger.FromContext(ctx).Infow("delivery_order_canceled", "order_id", id)
	return s.Get(ctx, id)
}

func generateOrderNo() string {
	now := time.Now().Format("20060102150405")
	return fmt.Sprintf("PD%s%s", now, randNumeric(6))
}

func randNumeric(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			b.WriteString("0")
			continue
		}
		b.WriteString(fmt.Sprintf("%d", n.Int64()))
	}
	return b.String()
}
