package service

import (
	"testing"

	"github.com/padaria-next/internal/constants"
	"github.com/padaria-next/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInventoryServiceRecordMovement(t *testing.T) {
	env := newFulfillmentEnv(t, "inventory_record", nil)
	a, _ := env.standardCatalog(t)
	svc := NewInventoryService(env.stock, env.products, 5)

	entrada, err := svc.RecordMovement(t.Context(), RecordMovementInput{ProductID: a.ID, Kind: "ENTRADA", Quantity: 12, Note: "fornada 6h"})
	require.NoError(t, err)
	assert.Equal(t, constants.MovementKindEntrada, entrada.Kind)
	assert.Equal(t, constants.MovementDirectionIn, entrada.Direction)

	_, err = svc.RecordMovement(t.Context(), RecordMovementInput{ProductID: a.ID, Kind: constants.MovementKindAjuste, Direction: constants.MovementDirectionOut, Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, 10, env.balance(t, a.ID))

	_, err = svc.RecordMovement(t.Context(), RecordMovementInput{ProductID: a.ID, Kind: constants.MovementKindAjuste, Direction: constants.MovementDirectionOut, Quantity: 11})
	require.ErrorIs(t, err, ErrMovementWouldGoNegative)
	assert.Equal(t, 10, env.balance(t, a.ID))

	_, err = svc.RecordMovement(t.Context(), RecordMovementInput{ProductID: a.ID, Kind: constants.MovementKindAjuste, Direction: constants.MovementDirectionIn, Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, 11, env.balance(t, a.ID))
}

func TestInventoryServiceRejectsInvalidMovements(t *testing.T) {
	env := newFulfillmentEnv(t, "inventory_invalid", nil)
	a, _ := env.standardCatalog(t)
	svc := NewInventoryService(env.stock, env.products, 0)

	cases := []RecordMovementInput{
		{ProductID: a.ID, Kind: constants.MovementKindSaida, Direction: constants.MovementDirectionOut, Quantity: 1},
		{ProductID: a.ID, Kind: constants.MovementKindEntrada, Direction: constants.MovementDirectionOut, Quantity: 1},
		{ProductID: a.ID, Kind: constants.MovementKindAjuste, Quantity: 1},
		{ProductID: a.ID, Kind: constants.MovementKindEntrada, Quantity: 0},
		{ProductID: a.ID, Kind: "perda", Quantity: 1},
	}
	for _, input := range cases {
		_, err := svc.RecordMovement(t.Context(), input)
		assert.ErrorIs(t, err, ErrMovementInvalid, "input %+v", input)
	}

	_, err := svc.RecordMovement(t.Context(), RecordMovementInput{ProductID: 999, Kind: constants.MovementKindEntrada, Quantity: 1})
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestInventoryServiceBalancesAndLowStock(t *testing.T) {
	env := newFulfillmentEnv(t, "inventory_balances", nil)
	a, b := env.standardCatalog(t)
	env.stockIn(t, a.ID, 20)
	env.stockIn(t, b.ID, 3)
	svc := NewInventoryService(env.stock, env.products, 5)

	views, err := svc.Balances(t.Context(), nil)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, BalanceView{ProductID: a.ID, ProductName: "Pão A", IsActive: true, Balance: 20}, views[0])
	assert.Equal(t, BalanceView{ProductID: b.ID, ProductName: "Pão B", IsActive: true, Balance: 3, LowStock: true}, views[1])

	low, err := svc.LowStock(t.Context(), []uint{a.ID, b.ID})
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, b.ID, low[0].ProductID)

	movements, total, err := svc.ListMovements(t.Context(), repository.MovementListFilter{ProductID: b.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, movements, 1)
	assert.Equal(t, 3, movements[0].Quantity)
}
