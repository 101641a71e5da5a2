package models

import (
	"fmt"
	"testing"
	"time"
)

func TestOpenDBRejectsUnknownDriver(t *testing.T) {
	if _, err := OpenDB("mysql", "root@/padaria", DBOptions{}); err == nil {
		t.Fatalf("expected unsupported driver error")
	}
}

func TestMigrateDBCreatesTables(t *testing.T) {
	dsn := fmt.Sprintf("file:models_migrate_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := OpenDB("sqlite", dsn, DBOptions{Pool: DBPoolConfig{MaxOpenConns: 1, MaxIdleConns: 1}, Tracing: true})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := MigrateDB(db); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	for _, table := range []string{"categories", "products", "clients", "delivery_orders", "order_custom_items", "stock_movements", "delivery_executions"} {
		if !db.Migrator().HasTable(table) {
			t.Fatalf("table %s missing after migrate", table)
		}
	}
	if err := MigrateDB(nil); err == nil {
		t.Fatalf("expected error for nil db")
	}
}

func TestStockMovementSignedQuantity(t *testing.T) {
	in := StockMovement{Direction: "in", Quantity: 4}
	out := StockMovement{Direction: "out", Quantity: 4}
	if in.SignedQuantity() != 4 || out.SignedQuantity() != -4 {
		t.Fatalf("unexpected signed quantities: %d %d", in.SignedQuantity(), out.SignedQuantity())
	}
}
