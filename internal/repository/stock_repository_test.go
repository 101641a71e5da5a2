package repository

import (
	"errors"
	"testing"

	"github.com/padaria-next/internal/constants"
	"github.com/padaria-next/internal/models"
)

func TestStockRepositoryBalanceIsSignedSum(t *testing.T) {
	db := openRepositoryTestDB(t, "stock_balance")
	repo := NewStockRepository(db)
	ctx := t.Context()
	bread := createTestProduct(t, db, 0, "pao-frances", "Pão francês", "100")

	stockIn(t, db, bread.ID, 30)
	stockIn(t, db, bread.ID, 12)
	adjustOut := &models.StockMovement{
		ProductID: bread.ID,
		Kind:      constants.MovementKindAjuste,
		Direction: constants.MovementDirectionOut,
		Quantity:  2,
	}
	if err := repo.Append(ctx, adjustOut); err != nil {
		t.Fatalf("append ajuste failed: %v", err)
	}

	balance, err := repo.BalanceOf(ctx, bread.ID)
	if err != nil {
		t.Fatalf("balance failed: %v", err)
	}
	if balance != 40 {
		t.Fatalf("balance want 40 got %d", balance)
	}
}

func TestStockRepositoryBalancesIncludeProductsWithoutMovements(t *testing.T) {
	db := openRepositoryTestDB(t, "stock_balances_zero")
	repo := NewStockRepository(db)
	a := createTestProduct(t, db, 0, "a", "A", "50")
	b := createTestProduct(t, db, 0, "b", "B", "50")
	stockIn(t, db, a.ID, 5)

	balances, err := repo.BalancesByProductIDs(t.Context(), []uint{a.ID, b.ID})
	if err != nil {
		t.Fatalf("balances failed: %v", err)
	}
	if balances[a.ID] != 5 || balances[b.ID] != 0 {
		t.Fatalf("unexpected balances: %+v", balances)
	}
	if _, ok := balances[b.ID]; !ok {
		t.Fatalf("product without movements should be reported with zero balance")
	}
}

func TestStockRepositoryAppendRejectsInvalidMovement(t *testing.T) {
	db := openRepositoryTestDB(t, "stock_invalid")
	repo := NewStockRepository(db)
	product := createTestProduct(t, db, 0, "bolo", "Bolo", "100")

	cases := []*models.StockMovement{
		{ProductID: product.ID, Kind: constants.MovementKindEntrada, Direction: constants.MovementDirectionIn, Quantity: 0},
		{ProductID: product.ID, Kind: constants.MovementKindEntrada, Direction: constants.MovementDirectionOut, Quantity: 1},
		{ProductID: product.ID, Kind: constants.MovementKindSaida, Direction: constants.MovementDirectionIn, Quantity: 1},
		{ProductID: product.ID, Kind: "transfer", Direction: constants.MovementDirectionIn, Quantity: 1},
		{ProductID: 0, Kind: constants.MovementKindAjuste, Direction: constants.MovementDirectionIn, Quantity: 1},
	}
	for idx, movement := range cases {
		if err := repo.Append(t.Context(), movement); !errors.Is(err, ErrInvalidMovement) {
			t.Fatalf("case %d: want ErrInvalidMovement got %v", idx, err)
		}
	}
	if count := countMovements(t, db, constants.MovementKindEntrada); count != 0 {
		t.Fatalf("invalid movements must not be written, got %d", count)
	}
}

func TestStockRepositoryListMovementsFilters(t *testing.T) {
	db := openRepositoryTestDB(t, "stock_list")
	repo := NewStockRepository(db)
	a := createTestProduct(t, db, 0, "a", "A", "50")
	b := createTestProduct(t, db, 0, "b", "B", "50")
	stockIn(t, db, a.ID, 1)
	stockIn(t, db, a.ID, 2)
	stockIn(t, db, b.ID, 3)

	rows, total, err := repo.ListMovements(t.Context(), MovementListFilter{ProductID: a.ID, Page: 1, PageSize: 1})
	if err != nil {
		t.Fatalf("list movements failed: %v", err)
	}
	if total != 2 {
		t.Fatalf("total want 2 got %d", total)
	}
	if len(rows) != 1 || rows[0].Quantity != 2 {
		t.Fatalf("expected newest movement first, got %+v", rows)
	}
}
