package service

import (
	"context"
	"errors"
	"testing"

	"github.com/padaria-next/internal/constants"
	"github.com/padaria-next/internal/models"
	"github.com/padaria-next/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfirmDeliveryStandardOrderSplitsByPercentage(t *testing.T) {
	env := newFulfillmentEnv(t, "confirm_standard", nil)
	a, b := env.standardCatalog(t)
	env.stockIn(t, a.ID, 10)
	env.stockIn(t, b.ID, 10)
	order := env.order(t, 7, constants.OrderModeStandard)

	outcome, err := env.delivery.ConfirmDelivery(t.Context(), order.ID, "morning route")
	require.NoError(t, err)
	require.Equal(t, constants.CommitStatusSuccess, outcome.Status)
	assert.Equal(t, 7, outcome.TotalUnits)
	assert.Equal(t, "Mercado Central", outcome.ClientName)
	assert.NotEmpty(t, outcome.ExecutionToken)
	require.Len(t, outcome.Lines, 2)
	assert.Equal(t, 4, outcome.Lines[0].Quantity)
	assert.Equal(t, 3, outcome.Lines[1].Quantity)

	assert.Equal(t, 6, env.balance(t, a.ID))
	assert.Equal(t, 7, env.balance(t, b.ID))
	reloaded := env.reloadOrder(t, order.ID)
	assert.Equal(t, constants.OrderStatusDelivered, reloaded.Status)
	assert.Equal(t, outcome.ExecutionToken, reloaded.ExecutionToken)

	require.Len(t, env.events.confirmed, 1)
	assert.Equal(t, order.ID, env.events.confirmed[0].OrderID)
	assert.ElementsMatch(t, []uint{a.ID, b.ID}, env.events.confirmed[0].ProductIDs)
}

func TestConfirmDeliveryShortageDoesNotCommit(t *testing.T) {
	env := newFulfillmentEnv(t, "confirm_shortage", nil)
	a, b := env.standardCatalog(t)
	env.stockIn(t, a.ID, 10)
	env.stockIn(t, b.ID, 1)
	order := env.order(t, 7, constants.OrderModeStandard)

	outcome, err := env.delivery.ConfirmDelivery(t.Context(), order.ID, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	require.NotNil(t, outcome)
	assert.Equal(t, constants.CommitStatusInsufficientStock, outcome.Status)
	require.Len(t, outcome.Shortages, 1)
	assert.Equal(t, ShortageEntry{ProductID: b.ID, ProductName: "Pão B", Required: 3, Available: 1, Missing: 2}, outcome.Shortages[0])
	assert.Contains(t, outcome.Message, "Product Pão B: needed 3, available 1, missing 2")

	assert.Zero(t, env.countSaida(t))
	assert.Equal(t, constants.OrderStatusPending, env.reloadOrder(t, order.ID).Status)
	assert.Empty(t, env.events.confirmed)
}

func TestCommitSameTokenIsReplayedWithoutNewMovements(t *testing.T) {
	env := newFulfillmentEnv(t, "commit_replay", nil)
	a, b := env.standardCatalog(t)
	env.stockIn(t, a.ID, 10)
	env.stockIn(t, b.ID, 10)
	order := env.order(t, 7, constants.OrderModeStandard)
	token := NewExecutionToken()

	first, err := env.delivery.Commit(t.Context(), CommitInput{OrderID: order.ID, ExecutionToken: token})
	require.NoError(t, err)
	require.Equal(t, constants.CommitStatusSuccess, first.Status)

	second, err := env.delivery.Commit(t.Context(), CommitInput{OrderID: order.ID, ExecutionToken: token})
	require.NoError(t, err)
	assert.Equal(t, constants.CommitStatusAlreadyProcessed, second.Status)
	assert.True(t, second.Succeeded())
	assert.Equal(t, first.TotalUnits, second.TotalUnits)
	assert.Equal(t, first.Lines, second.Lines)

	assert.Equal(t, int64(2), env.countSaida(t))
	assert.Equal(t, 6, env.balance(t, a.ID))
	assert.Len(t, env.events.confirmed, 1)
}

func TestCommitNewTokenOnDeliveredOrderIsRejected(t *testing.T) {
	env := newFulfillmentEnv(t, "commit_new_token", nil)
	a, b := env.standardCatalog(t)
	env.stockIn(t, a.ID, 20)
	env.stockIn(t, b.ID, 20)
	order := env.order(t, 7, constants.OrderModeStandard)

	_, err := env.delivery.Commit(t.Context(), CommitInput{OrderID: order.ID})
	require.NoError(t, err)

	outcome, err := env.delivery.Commit(t.Context(), CommitInput{OrderID: order.ID})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOrderNotFound)
	assert.Equal(t, constants.CommitStatusOrderNotFound, outcome.Status)
	assert.Equal(t, int64(2), env.countSaida(t))
}

func TestCommitTokenFromAnotherOrderIsUnknown(t *testing.T) {
	env := newFulfillmentEnv(t, "commit_token_conflict", nil)
	a, b := env.standardCatalog(t)
	env.stockIn(t, a.ID, 20)
	env.stockIn(t, b.ID, 20)
	first := env.order(t, 5, constants.OrderModeStandard)
	second := env.order(t, 5, constants.OrderModeStandard)

	_, err := env.delivery.Commit(t.Context(), CommitInput{OrderID: first.ID, ExecutionToken: "shared-token"})
	require.NoError(t, err)

	outcome, err := env.delivery.Commit(t.Context(), CommitInput{OrderID: second.ID, ExecutionToken: "shared-token"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCommitUnknown)
	assert.ErrorIs(t, err, ErrExecutionTokenConflict)
	assert.Equal(t, constants.CommitStatusUnknown, outcome.Status)
	assert.Equal(t, constants.OrderStatusPending, env.reloadOrder(t, second.ID).Status)
}

func TestCommitMissingOrder(t *testing.T) {
	env := newFulfillmentEnv(t, "commit_missing", nil)

	outcome, err := env.delivery.Commit(t.Context(), CommitInput{OrderID: 404})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOrderNotFound)
	assert.Equal(t, constants.CommitStatusOrderNotFound, outcome.Status)

	var cerr *CommitError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, uint(404), cerr.OrderID)

	outcome, err = env.delivery.ConfirmDelivery(t.Context(), 404, "")
	assert.ErrorIs(t, err, ErrOrderNotFound)
	assert.Equal(t, constants.CommitStatusOrderNotFound, outcome.Status)
}

func TestConfirmDeliveryCustomizedOrderDropsUnknownProducts(t *testing.T) {
	env := newFulfillmentEnv(t, "confirm_customized", nil)
	a, b := env.standardCatalog(t)
	env.stockIn(t, a.ID, 10)
	env.stockIn(t, b.ID, 10)
	order := env.order(t, 5, constants.OrderModeCustomized,
		models.OrderCustomItem{ProductRef: "Pão B", Quantity: 5},
		models.OrderCustomItem{ProductRef: "Croissant", Quantity: 2},
	)

	outcome, err := env.delivery.ConfirmDelivery(t.Context(), order.ID, "")
	require.NoError(t, err)
	require.Len(t, outcome.Lines, 1)
	assert.Equal(t, b.ID, outcome.Lines[0].ProductID)
	assert.Equal(t, 5, outcome.Lines[0].Quantity)
	require.Len(t, outcome.Warnings, 1)
	assert.Contains(t, outcome.Warnings[0], "Croissant")
	assert.Equal(t, 10, env.balance(t, a.ID))
	assert.Equal(t, 5, env.balance(t, b.ID))
}

func TestConfirmDeliveryWithoutActiveProductsIsConfigurationError(t *testing.T) {
	env := newFulfillmentEnv(t, "confirm_configuration", nil)
	order := env.order(t, 5, constants.OrderModeStandard)

	outcome, err := env.delivery.ConfirmDelivery(t.Context(), order.ID, "")
	assert.Nil(t, outcome)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestCommitUnexpectedErrorIsUnknown(t *testing.T) {
	boom := errors.New("connection reset")
	env := newFulfillmentEnv(t, "commit_unknown", func(_ *fulfillmentEnv, _ DeliveryCommitter) DeliveryCommitter {
		return committerFunc(func(context.Context, repository.DeliveryCommand) (*repository.DeliveryReceipt, error) {
			return nil, boom
		})
	})
	order := env.order(t, 5, constants.OrderModeStandard)

	outcome, err := env.delivery.Commit(t.Context(), CommitInput{OrderID: order.ID, ExecutionToken: "tok"})
	assert.ErrorIs(t, err, ErrCommitUnknown)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, constants.CommitStatusUnknown, outcome.Status)
	assert.Equal(t, "tok", outcome.ExecutionToken)
	assert.Equal(t, "delivery failed: connection reset", outcome.Message)
}

type failingLocker struct{ calls int }

func (l *failingLocker) Lock(context.Context, uint) (func(), error) {
	l.calls++
	return nil, errors.New("redis unavailable")
}

func TestCommitProceedsWhenLockUnavailable(t *testing.T) {
	env := newFulfillmentEnv(t, "commit_lock_down", nil)
	a, b := env.standardCatalog(t)
	env.stockIn(t, a.ID, 10)
	env.stockIn(t, b.ID, 10)
	order := env.order(t, 7, constants.OrderModeStandard)
	locker := &failingLocker{}
	svc := NewDeliveryService(env.orders, env.resolver, env.validator, env.deliveries, DeliveryServiceOptions{Locker: locker})

	outcome, err := svc.Commit(t.Context(), CommitInput{OrderID: order.ID})
	require.NoError(t, err)
	assert.Equal(t, constants.CommitStatusSuccess, outcome.Status)
	assert.Equal(t, 1, locker.calls)
}

func TestValidateOrdersAggregatesDemand(t *testing.T) {
	env := newFulfillmentEnv(t, "validate_aggregate", nil)
	a, b := env.standardCatalog(t)
	env.stockIn(t, a.ID, 7)
	env.stockIn(t, b.ID, 6)
	first := env.order(t, 7, constants.OrderModeStandard)
	second := env.order(t, 7, constants.OrderModeStandard)

	shortages, err := env.delivery.ValidateOrders(t.Context(), []uint{first.ID, second.ID, first.ID})
	require.NoError(t, err)
	require.Len(t, shortages, 1)
	assert.Equal(t, a.ID, shortages[0].ProductID)
	assert.Equal(t, 8, shortages[0].Required)
	assert.Equal(t, 7, shortages[0].Available)
	assert.Equal(t, 1, shortages[0].Missing)
}
