package service

import (
	"context"
	"testing"

	"github.com/padaria-next/internal/constants"
	"github.com/padaria-next/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingCatalog struct {
	products []models.Product
	calls    int
}

func (c *countingCatalog) ListCatalog(context.Context, bool) ([]models.Product, error) {
	c.calls++
	return c.products, nil
}

func TestRequirementResolverUsesCatalogCache(t *testing.T) {
	catalog := &countingCatalog{products: []models.Product{
		{ID: 1, Name: "Pão A", Slug: "pao-a", AllocationPercentage: models.MustPercentage("60"), IsActive: true},
		{ID: 2, Name: "Pão B", Slug: "pao-b", AllocationPercentage: models.MustPercentage("40"), IsActive: true},
	}}
	cache := &memoryCatalogCache{}
	resolver := NewRequirementResolver(catalog, nil, cache)
	order := &models.DeliveryOrder{ID: 9, TotalQuantity: 7, Mode: constants.OrderModeStandard}

	first, err := resolver.Resolve(t.Context(), order)
	require.NoError(t, err)
	second, err := resolver.Resolve(t.Context(), order)
	require.NoError(t, err)
	assert.Equal(t, 1, catalog.calls)
	assert.Equal(t, first.Lines, second.Lines)
	assert.Equal(t, 4, first.QuantityOf(1))
	assert.Equal(t, 3, first.QuantityOf(2))

	require.NoError(t, cache.Invalidate(t.Context()))
	_, err = resolver.Resolve(t.Context(), order)
	require.NoError(t, err)
	assert.Equal(t, 2, catalog.calls)
}

func TestRequirementResolverRejectsMissingOrder(t *testing.T) {
	resolver := NewRequirementResolver(&countingCatalog{}, nil, nil)

	_, err := resolver.Resolve(t.Context(), nil)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestResolveAllWrapsOrderErrors(t *testing.T) {
	env := newFulfillmentEnv(t, "resolve_all", nil)
	env.standardCatalog(t)
	good := env.order(t, 7, constants.OrderModeStandard)
	bad := env.order(t, 2, constants.OrderModeCustomized, models.OrderCustomItem{ProductRef: "Broa", Quantity: 2})

	_, err := env.resolver.ResolveAll(t.Context(), []models.DeliveryOrder{*good, *bad})
	require.Error(t, err)
	var resolveErr *OrderResolveError
	require.ErrorAs(t, err, &resolveErr)
	assert.Equal(t, bad.ID, resolveErr.OrderID)
	assert.ErrorIs(t, err, ErrNoValidItems)
}

type staticItems map[uint][]models.OrderCustomItem

func (s staticItems) ListCustomItems(_ context.Context, orderID uint) ([]models.OrderCustomItem, error) {
	return s[orderID], nil
}

func TestRequirementResolverLoadsItemsForUnnormalizedMode(t *testing.T) {
	catalog := &countingCatalog{products: []models.Product{
		{ID: 1, Name: "Broa", Slug: "broa", AllocationPercentage: models.MustPercentage("100"), IsActive: true},
	}}
	items := staticItems{5: {{OrderID: 5, ProductRef: "broa", Quantity: 4}}}
	resolver := NewRequirementResolver(catalog, items, nil)

	for _, mode := range []string{"Customized", " CUSTOMIZED "} {
		req, err := resolver.Resolve(t.Context(), &models.DeliveryOrder{ID: 5, TotalQuantity: 4, Mode: mode})
		require.NoError(t, err, mode)
		assert.Equal(t, constants.OrderModeCustomized, req.Mode)
		assert.Equal(t, 4, req.QuantityOf(1))
	}
}
