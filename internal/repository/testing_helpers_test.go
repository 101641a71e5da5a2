package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/padaria-next/internal/constants"
	"github.com/padaria-next/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func openRepositoryTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := db.AutoMigrate(
		&models.Category{},
		&models.Product{},
		&models.Client{},
		&models.DeliveryOrder{},
		&models.OrderCustomItem{},
		&models.StockMovement{},
		&models.DeliveryExecution{},
	); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	return db
}

func createTestCategory(t *testing.T, db *gorm.DB, slug string, sortOrder int) *models.Category {
	t.Helper()
	category := &models.Category{Slug: slug, Name: slug, SortOrder: sortOrder}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("create category failed: %v", err)
	}
	return category
}

func createTestProduct(t *testing.T, db *gorm.DB, categoryID uint, slug, name, pct string) *models.Product {
	t.Helper()
	product := &models.Product{
		Slug:                 slug,
		Name:                 name,
		AllocationPercentage: models.MustPercentage(pct),
		IsActive:             true,
	}
	if categoryID != 0 {
		product.CategoryID = &categoryID
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return product
}

func createTestClient(t *testing.T, db *gorm.DB, name string) *models.Client {
	t.Helper()
	client := &models.Client{Name: name, IsActive: true}
	if err := db.Create(client).Error; err != nil {
		t.Fatalf("create client failed: %v", err)
	}
	return client
}

func createTestOrder(t *testing.T, db *gorm.DB, clientID uint, orderNo string, total int, mode string, items ...models.OrderCustomItem) *models.DeliveryOrder {
	t.Helper()
	order := &models.DeliveryOrder{
		OrderNo:       orderNo,
		ClientID:      clientID,
		TotalQuantity: total,
		Mode:          mode,
		Status:        constants.OrderStatusPending,
	}
	if err := NewOrderRepository(db).Create(t.Context(), order, items); err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

func stockIn(t *testing.T, db *gorm.DB, productID uint, qty int) {
	t.Helper()
	movement := &models.StockMovement{
		ProductID: productID,
		Kind:      constants.MovementKindEntrada,
		Direction: constants.MovementDirectionIn,
		Quantity:  qty,
		Note:      "production run",
	}
	if err := NewStockRepository(db).Append(t.Context(), movement); err != nil {
		t.Fatalf("append entrada failed: %v", err)
	}
}

func countMovements(t *testing.T, db *gorm.DB, kind string) int64 {
	t.Helper()
	var count int64
	if err := db.Model(&models.StockMovement{}).Where("kind = ?", kind).Count(&count).Error; err != nil {
		t.Fatalf("count movements failed: %v", err)
	}
	return count
}
